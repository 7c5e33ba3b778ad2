package claims_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/claims-engine/claims"
	"github.com/warp/claims-engine/claims/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// fixedClock pins "now" so due dates and stamps are deterministic.
type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

// failTaskRepo simulates a broken task table while the case table works.
type failTaskRepo struct {
	*store.Memory
}

func (r *failTaskRepo) InsertTask(context.Context, claims.FollowUpTask) error {
	return errors.New("tasks table unavailable")
}

var (
	analyst = claims.Actor{ID: "u-ana", Role: "Analista"}
	admin   = claims.Actor{ID: "u-adm", Role: claims.RoleAdmin}

	// Late evening local time, so due-date math would skew under naive
	// UTC truncation.
	testNow = time.Date(2026, time.March, 10, 22, 30, 0, 0, time.Local)
)

func newTestEngine(t *testing.T) (*claims.Lifecycle, *store.Memory) {
	repo := store.NewMemory()
	engine := claims.NewLifecycle(repo, claims.NewGate(nil), fixedClock{testNow})
	return engine, repo
}

func seedCase(t *testing.T, repo claims.Repository, mutate func(*claims.Case)) *claims.Case {
	t.Helper()

	c := &claims.Case{
		ID:          "case-1",
		ClaimNumber: "SIN-2026-001",
		Insurer:     "ACME SEGUROS",
		Insured:     claims.InsuredParty{Name: "PEREZ JUAN"},
		Cause:       "ROBO EN VIA PUBLICA",
		Analyst:     "u-ana",
		Status:      claims.StatusInterview,
		Checklist: []claims.RequirementItem{
			{Label: "DNI", Satisfied: true},
			{Label: "DENUNCIA POLICIAL", Satisfied: true},
		},
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	if mutate != nil {
		mutate(c)
	}
	require.NoError(t, repo.SaveCase(context.Background(), c))
	return c
}

// =============================================================================
// STATUS TRANSITION TESTS
// =============================================================================

func TestChangeStatus_HappyPath(t *testing.T) {
	// GIVEN: A case pending interview
	// WHEN: Moving it to in-progress
	// THEN: Status changes, a follow-up task is scheduled

	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, nil)
	ctx := context.Background()

	updated, err := engine.ChangeStatus(ctx, analyst, c.ID, claims.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, claims.StatusInProgress, updated.Status)
	assert.Nil(t, updated.ClosedDate)

	tasks, err := repo.ListTasks(ctx, c.ClaimNumber)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "EN GESTION", tasks[0].Text)
}

func TestChangeStatus_UnknownStatusRejected(t *testing.T) {
	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, nil)

	_, err := engine.ChangeStatus(context.Background(), analyst, c.ID, "ARCHIVADO")
	assert.ErrorIs(t, err, claims.ErrValidation)
}

func TestChangeStatus_SameStatusIsNoOp(t *testing.T) {
	// Re-asserting the current status must not spawn follow-up tasks.
	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, nil)
	ctx := context.Background()

	_, err := engine.ChangeStatus(ctx, analyst, c.ID, claims.StatusInterview)
	require.NoError(t, err)

	tasks, err := repo.ListTasks(ctx, c.ClaimNumber)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestChangeStatus_EnteringClosedStampsDate(t *testing.T) {
	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, nil)

	updated, err := engine.ChangeStatus(context.Background(), analyst, c.ID, claims.StatusClosed)
	require.NoError(t, err)
	require.NotNil(t, updated.ClosedDate)
	assert.Equal(t, claims.DateOnly(testNow), *updated.ClosedDate)
}

func TestChangeStatus_UnknownCase(t *testing.T) {
	engine, _ := newTestEngine(t)
	_, err := engine.ChangeStatus(context.Background(), analyst, "nope", claims.StatusInProgress)
	assert.ErrorIs(t, err, claims.ErrCaseNotFound)
}

// =============================================================================
// CLOSED-CASE GUARD TESTS
// =============================================================================

func TestClosedCase_RejectsNonPrivilegedEdits(t *testing.T) {
	// GIVEN: A closed case
	// WHEN: An analyst attempts any mutation
	// THEN: Every operation fails with the lock error

	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, func(c *claims.Case) {
		c.Status = claims.StatusClosed
		c.SubStatus = claims.ClosedRejected
	})
	ctx := context.Background()

	_, err := engine.ChangeStatus(ctx, analyst, c.ID, claims.StatusInProgress)
	assert.ErrorIs(t, err, claims.ErrCaseLocked)

	_, err = engine.AdvanceAfterChecklist(ctx, analyst, c.ID)
	assert.ErrorIs(t, err, claims.ErrCaseLocked)

	insurer := "OTRA"
	_, err = engine.UpdateFields(ctx, analyst, c.ID, claims.CasePatch{Insurer: &insurer})
	assert.ErrorIs(t, err, claims.ErrCaseLocked)

	_, err = engine.CloseCase(ctx, analyst, c.ID, claims.ClosedPaid)
	assert.ErrorIs(t, err, claims.ErrCaseLocked)
}

func TestClosedCase_AdminBypassesLock(t *testing.T) {
	// The guard is evaluated per call; an administrator edits freely.
	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, func(c *claims.Case) {
		c.Status = claims.StatusClosed
		c.SubStatus = claims.ClosedRejected
	})

	insurer := "OTRA ASEGURADORA"
	updated, err := engine.UpdateFields(context.Background(), admin, c.ID, claims.CasePatch{Insurer: &insurer})
	require.NoError(t, err)
	assert.Equal(t, "OTRA ASEGURADORA", updated.Insurer)
}

// =============================================================================
// CLOSURE TESTS
// =============================================================================

func TestCloseCase_ValidReason(t *testing.T) {
	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, func(c *claims.Case) { c.Status = claims.StatusInProgress })

	updated, err := engine.CloseCase(context.Background(), analyst, c.ID, claims.ClosedWithdrawn)
	require.NoError(t, err)
	assert.Equal(t, claims.StatusClosed, updated.Status)
	assert.Equal(t, "DESISTIDO", updated.SubStatus)
	require.NotNil(t, updated.ClosedDate)
}

func TestCloseCase_ReasonIsNormalized(t *testing.T) {
	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, nil)

	updated, err := engine.CloseCase(context.Background(), analyst, c.ID, "  pagado ")
	require.NoError(t, err)
	assert.Equal(t, claims.ClosedPaid, updated.SubStatus)
}

func TestCloseCase_InvalidReasonLeavesCaseUntouched(t *testing.T) {
	// GIVEN: An open case
	// WHEN: Closing with a reason outside the fixed set
	// THEN: The call fails before the case is loaded or modified

	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, nil)
	ctx := context.Background()

	_, err := engine.CloseCase(ctx, analyst, c.ID, "PERDIDO")
	assert.ErrorIs(t, err, claims.ErrValidation)

	reloaded, err := repo.GetCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, claims.StatusInterview, reloaded.Status)
	assert.Nil(t, reloaded.ClosedDate)

	tasks, _ := repo.ListTasks(ctx, c.ClaimNumber)
	assert.Empty(t, tasks)
}

func TestCloseCase_PaidRecalculatesLineItems(t *testing.T) {
	// Closing as PAGADO must refresh stale cached indemnifications so
	// the stored figures are the settled ones.
	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, func(c *claims.Case) {
		c.Coverages = []claims.Coverage{
			{
				Name:       "ELECTRO",
				InsuredSum: dec("1000"),
				Items: []claims.LineItem{
					{Concept: "TV", MarketValue: dec("1500"), DeductionPercent: dec("10"), Indemnification: dec("42")},
				},
			},
		}
	})

	updated, err := engine.CloseCase(context.Background(), analyst, c.ID, claims.ClosedPaid)
	require.NoError(t, err)
	assertDecEqual(t, "900", updated.Coverages[0].Items[0].Indemnification)
}

func TestCloseCase_AdminMayRecloseWithNewReason(t *testing.T) {
	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, func(c *claims.Case) {
		c.Status = claims.StatusClosed
		c.SubStatus = claims.ClosedRejected
	})

	updated, err := engine.CloseCase(context.Background(), admin, c.ID, claims.ClosedPaid)
	require.NoError(t, err)
	assert.Equal(t, claims.ClosedPaid, updated.SubStatus)
	require.NotNil(t, updated.ClosedDate)
	assert.Equal(t, claims.DateOnly(testNow), *updated.ClosedDate)
}

// =============================================================================
// CHECKLIST GATE TESTS
// =============================================================================

func TestAdvanceAfterChecklist_CompleteChecklist(t *testing.T) {
	// GIVEN: Every required document collected
	// WHEN: Advancing past the gate
	// THEN: Sub-status ANALISIS, completion date stamped, task scheduled

	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, nil)
	ctx := context.Background()

	updated, err := engine.AdvanceAfterChecklist(ctx, analyst, c.ID)
	require.NoError(t, err)
	assert.Equal(t, claims.SubStatusAnalysis, updated.SubStatus)
	require.NotNil(t, updated.DocumentationCompleteDate)
	assert.Equal(t, claims.DateOnly(testNow), *updated.DocumentationCompleteDate)

	tasks, _ := repo.ListTasks(ctx, c.ClaimNumber)
	require.Len(t, tasks, 1)
	assert.Equal(t, "ENTREVISTAR - ANALISIS", tasks[0].Text)
}

func TestAdvanceAfterChecklist_MissingDocumentsBlock(t *testing.T) {
	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, func(c *claims.Case) {
		c.Checklist[1].Satisfied = false
	})

	_, err := engine.AdvanceAfterChecklist(context.Background(), analyst, c.ID)
	assert.ErrorIs(t, err, claims.ErrChecklistIncomplete)

	var chkErr *claims.ChecklistError
	require.ErrorAs(t, err, &chkErr)
	assert.Equal(t, []string{"DENUNCIA POLICIAL"}, chkErr.Missing)
}

func TestAdvanceAfterChecklist_EmptyChecklistBlocks(t *testing.T) {
	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, func(c *claims.Case) { c.Checklist = nil })

	_, err := engine.AdvanceAfterChecklist(context.Background(), analyst, c.ID)
	assert.ErrorIs(t, err, claims.ErrChecklistIncomplete)
}

func TestAdvanceAfterChecklist_AdminOverridesGate(t *testing.T) {
	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, func(c *claims.Case) { c.Checklist = nil })

	updated, err := engine.AdvanceAfterChecklist(context.Background(), admin, c.ID)
	require.NoError(t, err)
	assert.Equal(t, claims.SubStatusAnalysis, updated.SubStatus)
}

// =============================================================================
// FIELD UPDATE TESTS
// =============================================================================

func TestUpdateFields_SubStatusChangeSchedulesTask(t *testing.T) {
	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, func(c *claims.Case) { c.Status = claims.StatusInProgress })
	ctx := context.Background()

	sub := claims.SubStatusNotePending
	_, err := engine.UpdateFields(ctx, analyst, c.ID, claims.CasePatch{SubStatus: &sub})
	require.NoError(t, err)

	tasks, _ := repo.ListTasks(ctx, c.ClaimNumber)
	require.Len(t, tasks, 1)
	assert.Equal(t, "EN GESTION - NOTA PENDIENTE", tasks[0].Text)
}

func TestUpdateFields_PlainFieldEditDoesNotScheduleTask(t *testing.T) {
	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, nil)
	ctx := context.Background()

	policy := "POL-778"
	updated, err := engine.UpdateFields(ctx, analyst, c.ID, claims.CasePatch{PolicyNumber: &policy})
	require.NoError(t, err)
	assert.Equal(t, "POL-778", updated.PolicyNumber)

	tasks, _ := repo.ListTasks(ctx, c.ClaimNumber)
	assert.Empty(t, tasks)
}

func TestUpdateFields_CoveragePatchRecalculates(t *testing.T) {
	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, nil)

	coverages := []claims.Coverage{
		{
			Name:       "CRISTALES",
			InsuredSum: dec("500"),
			Items: []claims.LineItem{
				{Concept: "ventana", MarketValue: dec("800"), DeductionPercent: dec("20")},
			},
		},
	}
	updated, err := engine.UpdateFields(context.Background(), analyst, c.ID, claims.CasePatch{Coverages: &coverages})
	require.NoError(t, err)
	assertDecEqual(t, "400", updated.Coverages[0].Items[0].Indemnification)
}

func TestUpdateFields_PatchedCloseStampsDate(t *testing.T) {
	engine, repo := newTestEngine(t)
	c := seedCase(t, repo, nil)

	closed := claims.StatusClosed
	reason := claims.ClosedCancelled
	updated, err := engine.UpdateFields(context.Background(), analyst, c.ID, claims.CasePatch{Status: &closed, SubStatus: &reason})
	require.NoError(t, err)
	require.NotNil(t, updated.ClosedDate)
	assert.Equal(t, claims.DateOnly(testNow), *updated.ClosedDate)
}

// =============================================================================
// SCHEDULER FAILURE TESTS
// =============================================================================

func TestStatusChange_SurvivesTaskInsertFailure(t *testing.T) {
	// GIVEN: A repository whose task table is broken
	// WHEN: Changing status
	// THEN: The transition persists; the missing task is only logged

	repo := &failTaskRepo{Memory: store.NewMemory()}
	engine := claims.NewLifecycle(repo, claims.NewGate(nil), fixedClock{testNow})
	c := seedCase(t, repo.Memory, nil)
	ctx := context.Background()

	updated, err := engine.ChangeStatus(ctx, analyst, c.ID, claims.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, claims.StatusInProgress, updated.Status)

	reloaded, err := repo.GetCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, claims.StatusInProgress, reloaded.Status)
}
