/*
lifecycle.go - Case lifecycle state machine

PURPOSE:
  Validates and applies status/sub-status transitions, stamps lifecycle
  dates, and enforces the closed-case edit lock. Every effective
  transition schedules a follow-up task as a side effect.

STATES:
  ENTREVISTAR -> EN GESTION -> CERRADO. CERRADO is terminal: no
  transition out of it is defined. Sub-status is an auxiliary label
  (ANALISIS, NOTA PENDIENTE while in progress; one of the closure set
  when closed).

CLOSED-CASE GUARD:
  Once a case is CERRADO, every mutating operation fails with a
  CaseLocked error unless the caller is privileged. The guard is
  evaluated on each call against the freshly loaded case.

SIDE EFFECTS:
  Transitions persist the case first, then schedule the follow-up task.
  The two writes are separate units of work; see scheduler.go.

SEE ALSO:
  - checklist.go: Gate for document-completion transitions
  - calc.go: Recalculation before closing as paid
  - scheduler.go: Follow-up task creation
*/
package claims

import (
	"context"
	"fmt"
)

// Lifecycle orchestrates case transitions. It is invoked synchronously,
// one logical operation at a time; there is no internal parallelism.
type Lifecycle struct {
	Repo       Repository
	Gate       *Gate
	Clock      Clock
	Privileged PrivilegeFunc
	Scheduler  *TaskScheduler
}

// NewLifecycle wires a lifecycle engine with default collaborators:
// system clock, admin-only privilege, and a scheduler over the same
// repository.
func NewLifecycle(repo Repository, gate *Gate, clock Clock) *Lifecycle {
	if clock == nil {
		clock = SystemClock{}
	}
	if gate == nil {
		gate = NewGate(nil)
	}
	return &Lifecycle{
		Repo:       repo,
		Gate:       gate,
		Clock:      clock,
		Privileged: AdminOnly,
		Scheduler:  NewTaskScheduler(repo, clock),
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// ChangeStatus moves the case to newStatus. A no-op when the status is
// unchanged. Entering CERRADO stamps the closing date. Every effective
// change schedules a follow-up task.
func (l *Lifecycle) ChangeStatus(ctx context.Context, actor Actor, id CaseID, newStatus Status) (*Case, error) {
	if !newStatus.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", newStatus)}
	}

	c, err := l.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.guard(c, actor); err != nil {
		return nil, err
	}

	if c.Status == newStatus {
		return c, nil
	}

	now := l.Clock.Now()
	c.Status = newStatus
	if newStatus == StatusClosed {
		d := DateOnly(now)
		c.ClosedDate = &d
	}
	c.UpdatedAt = now

	if err := l.Repo.SaveCase(ctx, c); err != nil {
		return nil, err
	}

	l.Scheduler.ScheduleFollowUp(ctx, c, c.Status, c.SubStatus)
	return c, nil
}

// AdvanceAfterChecklist marks documentation as complete: sub-status
// ANALISIS plus the completion date. Callable only when every checklist
// item is satisfied; a privileged actor may override the gate. An empty
// checklist never satisfies the gate.
func (l *Lifecycle) AdvanceAfterChecklist(ctx context.Context, actor Actor, id CaseID) (*Case, error) {
	c, err := l.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.guard(c, actor); err != nil {
		return nil, err
	}

	if !IsComplete(c.Checklist) && !l.Privileged(actor) {
		return nil, &ChecklistError{Missing: Missing(c.Checklist)}
	}

	now := l.Clock.Now()
	d := DateOnly(now)
	c.SubStatus = SubStatusAnalysis
	c.DocumentationCompleteDate = &d
	c.UpdatedAt = now

	if err := l.Repo.SaveCase(ctx, c); err != nil {
		return nil, err
	}

	l.Scheduler.ScheduleFollowUp(ctx, c, c.Status, c.SubStatus)
	return c, nil
}

// CloseCase closes the case with a reason from the fixed closure set.
// Closing as PAGADO first recomputes every line item so the stored
// indemnifications are consistent at closure time. A privileged actor
// may re-close an already closed case, refreshing the closing date.
func (l *Lifecycle) CloseCase(ctx context.Context, actor Actor, id CaseID, closureReason string) (*Case, error) {
	if !IsClosureReason(closureReason) {
		return nil, &ValidationError{
			Field:   "closureReason",
			Message: fmt.Sprintf("%q is not a valid closure reason", closureReason),
		}
	}
	reason := NormalizeClosureReason(closureReason)

	c, err := l.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.guard(c, actor); err != nil {
		return nil, err
	}

	if reason == ClosedPaid {
		RecalculateCase(c)
	}

	now := l.Clock.Now()
	d := DateOnly(now)
	c.Status = StatusClosed
	c.SubStatus = reason
	c.ClosedDate = &d
	c.UpdatedAt = now

	if err := l.Repo.SaveCase(ctx, c); err != nil {
		return nil, err
	}

	l.Scheduler.ScheduleFollowUp(ctx, c, c.Status, c.SubStatus)
	return c, nil
}

// UpdateFields applies a partial update. Status or sub-status changes
// inside the patch trigger the same follow-up scheduling as an explicit
// transition; coverage changes trigger eager recalculation.
func (l *Lifecycle) UpdateFields(ctx context.Context, actor Actor, id CaseID, patch CasePatch) (*Case, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", *patch.Status)}
	}

	c, err := l.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.guard(c, actor); err != nil {
		return nil, err
	}

	statusChanged := (patch.Status != nil && *patch.Status != c.Status) ||
		(patch.SubStatus != nil && *patch.SubStatus != c.SubStatus)

	now := l.Clock.Now()
	applyPatch(c, patch)
	if patch.Status != nil && *patch.Status == StatusClosed && statusChanged {
		d := DateOnly(now)
		c.ClosedDate = &d
	}
	if patch.Coverages != nil {
		RecalculateCase(c)
	}
	c.UpdatedAt = now

	if err := l.Repo.SaveCase(ctx, c); err != nil {
		return nil, err
	}

	if statusChanged {
		l.Scheduler.ScheduleFollowUp(ctx, c, c.Status, c.SubStatus)
	}
	return c, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

func (l *Lifecycle) load(ctx context.Context, id CaseID) (*Case, error) {
	c, err := l.Repo.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCaseNotFound
	}
	return c, nil
}

// guard enforces the closed-case edit lock, per call.
func (l *Lifecycle) guard(c *Case, actor Actor) error {
	if c.IsClosed() && !l.Privileged(actor) {
		return &CaseLockedError{ClaimNumber: c.ClaimNumber}
	}
	return nil
}

func applyPatch(c *Case, p CasePatch) {
	if p.Insurer != nil {
		c.Insurer = *p.Insurer
	}
	if p.Insured != nil {
		c.Insured = *p.Insured
	}
	if p.PolicyNumber != nil {
		c.PolicyNumber = *p.PolicyNumber
	}
	if p.LineOfBusiness != nil {
		c.LineOfBusiness = *p.LineOfBusiness
	}
	if p.Cause != nil {
		c.Cause = *p.Cause
	}
	if p.Analyst != nil {
		c.Analyst = *p.Analyst
	}
	if p.Handler != nil {
		c.Handler = *p.Handler
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.SubStatus != nil {
		c.SubStatus = *p.SubStatus
	}
	if p.Assigned != nil {
		d := DateOnly(*p.Assigned)
		c.Assigned = &d
	}
	if p.IncidentDate != nil {
		d := DateOnly(*p.IncidentDate)
		c.IncidentDate = &d
	}
	if p.ReportedDate != nil {
		d := DateOnly(*p.ReportedDate)
		c.ReportedDate = &d
	}
	if p.InterviewDate != nil {
		d := DateOnly(*p.InterviewDate)
		c.InterviewDate = &d
	}
	if p.Checklist != nil {
		c.Checklist = append([]RequirementItem(nil), (*p.Checklist)...)
	}
	if p.Coverages != nil {
		c.Coverages = make([]Coverage, len(*p.Coverages))
		for i, cov := range *p.Coverages {
			c.Coverages[i] = cov
			c.Coverages[i].Items = append([]LineItem(nil), cov.Items...)
		}
	}
}
