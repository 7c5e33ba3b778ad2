/*
scheduler.go - Follow-up task scheduling

PURPOSE:
  Derives a follow-up task from every effective status/sub-status
  change: text names the new state, due date is the calendar day after
  "now" in local time, due time and assignee come from the moment and
  the case.

FAILURE MODE:
  Task creation is a separate unit of work from the status change that
  triggered it. An insert failure is logged and swallowed; the already
  applied transition is never rolled back.

SEE ALSO:
  - lifecycle.go: Invokes ScheduleFollowUp on transitions
*/
package claims

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// TaskScheduler builds and persists follow-up tasks.
type TaskScheduler struct {
	Repo  Repository
	Clock Clock
}

// NewTaskScheduler creates a scheduler over the given repository.
func NewTaskScheduler(repo Repository, clock Clock) *TaskScheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TaskScheduler{Repo: repo, Clock: clock}
}

// FollowUpText composes the task text: the status alone, or
// "STATUS - SUBSTATUS" when a sub-status is present.
func FollowUpText(status Status, subStatus string) string {
	if subStatus == "" {
		return string(status)
	}
	return fmt.Sprintf("%s - %s", status, subStatus)
}

// ScheduleFollowUp creates a follow-up task for the case. The due date
// is tomorrow on the local calendar: AddDate on the clock's local time,
// then truncation to midnight, so the day boundary is never crossed
// incorrectly near midnight regardless of timezone. Returns the created
// task, or nil when persistence failed (the failure is only logged).
func (s *TaskScheduler) ScheduleFollowUp(ctx context.Context, c *Case, status Status, subStatus string) *FollowUpTask {
	now := s.Clock.Now()

	task := FollowUpTask{
		ID:          uuid.NewString(),
		ClaimNumber: c.ClaimNumber,
		Text:        FollowUpText(status, subStatus),
		Done:        false,
		Assignee:    c.Analyst,
		DueDate:     DateOnly(now.AddDate(0, 0, 1)),
		DueTime:     now.Format("15:04"),
		CreatedAt:   now,
	}

	if err := s.Repo.InsertTask(ctx, task); err != nil {
		// Lifecycle changes are not transactional with task creation.
		log.Printf("[Scheduler] failed to create follow-up for case %s: %v", c.ClaimNumber, err)
		return nil
	}
	return &task
}
