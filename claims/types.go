/*
Package claims provides the core claim lifecycle and indemnification engine.

PURPOSE:
  This package contains the domain types and algorithms for managing an
  insurance claim case file end-to-end: intake, document collection,
  damage valuation, and closure. It knows nothing about HTTP, storage
  engines, or rendering - those live behind narrow interfaces.

KEY CONCEPTS IN THIS FILE (types.go):
  - Case: One claim file, the aggregate root. Owns checklist and coverages.
  - Coverage/LineItem: Valued loss entries with derived indemnification
  - RequirementItem: One checklist entry (required document)
  - FollowUpTask: Auto-scheduled reminder created on status changes
  - Status/sub-status: Lifecycle labels using the business vocabulary

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for every monetary amount
  2. Derived values are cached but always recomputable (calc.go)
  3. The aggregate is mutated only through Lifecycle operations
  4. Optimistic concurrency: Version is checked on every save

SEE ALSO:
  - lifecycle.go: Status transition operations
  - calc.go: Indemnification math
  - checklist.go: Document-completion gate
  - repository.go: Persistence port
*/
package claims

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CaseID string

// =============================================================================
// STATUS - Lifecycle states and sub-status labels
// =============================================================================

// Status is the primary lifecycle state of a case. The values are the
// business labels used across tasks, reports, and generated documents.
type Status string

const (
	StatusInterview  Status = "ENTREVISTAR" // intake: insured not yet interviewed
	StatusInProgress Status = "EN GESTION"  // documentation and valuation in progress
	StatusClosed     Status = "CERRADO"     // terminal
)

// Valid reports whether s is one of the three lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusInterview, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

// Auxiliary sub-status labels attached while a case is in progress.
const (
	SubStatusAnalysis    = "ANALISIS"       // documentation complete, under analysis
	SubStatusNotePending = "NOTA PENDIENTE" // a settlement note is being drafted
)

// Closure sub-statuses. CloseCase only accepts reasons from this set.
const (
	ClosedWithdrawn = "DESISTIDO"
	ClosedRejected  = "RECHAZADO"
	ClosedPaid      = "PAGADO"
	ClosedCancelled = "DADO DE BAJA"
)

// ClosureReasons lists the valid closure sub-statuses in display order.
var ClosureReasons = []string{ClosedWithdrawn, ClosedRejected, ClosedPaid, ClosedCancelled}

// IsClosureReason reports whether reason belongs to the fixed closure set.
// The match is case-insensitive and ignores surrounding whitespace.
func IsClosureReason(reason string) bool {
	r := strings.ToUpper(strings.TrimSpace(reason))
	for _, cr := range ClosureReasons {
		if r == cr {
			return true
		}
	}
	return false
}

// NormalizeClosureReason returns the canonical form of a closure reason.
// Call IsClosureReason first; unknown input is returned trimmed/uppercased.
func NormalizeClosureReason(reason string) string {
	return strings.ToUpper(strings.TrimSpace(reason))
}

// =============================================================================
// ACTOR - Caller identity for the privilege check
// =============================================================================

// RoleAdmin marks an actor that may bypass the closed-case lock and the
// checklist gate. The label matches the role catalog of the surrounding app.
const RoleAdmin = "Administrador"

// Actor identifies the caller of a lifecycle operation.
type Actor struct {
	ID   string
	Role string
}

// PrivilegeFunc decides whether an actor holds elevated privilege.
// It is supplied by the caller context, never derived inside the engine.
type PrivilegeFunc func(Actor) bool

// AdminOnly is the default privilege check: administrators only.
func AdminOnly(a Actor) bool { return a.Role == RoleAdmin }

// =============================================================================
// CASE - The claim file aggregate
// =============================================================================

// Address of the insured party or of the insured risk.
type Address struct {
	Street   string
	City     string
	Province string
}

// InsuredParty is the profile of the policy holder on a case.
type InsuredParty struct {
	Name        string
	NationalID  string
	Phone       string
	Mail        string
	Address     Address
	RiskAddress Address
}

// Case is one insurance claim file tracked end-to-end. It is the aggregate
// root: checklist and coverages are owned exclusively by the case and are
// only mutated through Lifecycle operations.
type Case struct {
	ID             CaseID
	ClaimNumber    string // unique business key (n° de siniestro)
	Insurer        string
	Insured        InsuredParty
	PolicyNumber   string
	LineOfBusiness string // ramo
	Cause          string // claim cause, keys the default checklist
	Analyst        string // assigned analyst, default task assignee
	Handler        string // assigned handler (tramitador)

	Status    Status
	SubStatus string // free-form tag, empty = none

	// Lifecycle dates. All nullable; stored at day granularity.
	Assigned                  *time.Time
	IncidentDate              *time.Time
	ReportedDate              *time.Time
	InterviewDate             *time.Time
	DocumentationCompleteDate *time.Time
	ClosedDate                *time.Time // set iff Status == StatusClosed

	Checklist []RequirementItem
	Coverages []Coverage

	// Version is the optimistic-concurrency stamp checked by SaveCase.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsClosed reports whether the case is in the terminal state.
func (c *Case) IsClosed() bool { return c.Status == StatusClosed }

// Clone returns a deep copy of the case. Stores hand out clones so callers
// never share slices with persisted state.
func (c *Case) Clone() *Case {
	cp := *c
	cp.Assigned = cloneDate(c.Assigned)
	cp.IncidentDate = cloneDate(c.IncidentDate)
	cp.ReportedDate = cloneDate(c.ReportedDate)
	cp.InterviewDate = cloneDate(c.InterviewDate)
	cp.DocumentationCompleteDate = cloneDate(c.DocumentationCompleteDate)
	cp.ClosedDate = cloneDate(c.ClosedDate)
	cp.Checklist = append([]RequirementItem(nil), c.Checklist...)
	cp.Coverages = make([]Coverage, len(c.Coverages))
	for i, cov := range c.Coverages {
		cp.Coverages[i] = cov
		cp.Coverages[i].Items = append([]LineItem(nil), cov.Items...)
	}
	return &cp
}

func cloneDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := *t
	return &d
}

// =============================================================================
// CHECKLIST - Required-document items
// =============================================================================

// RequirementItem is one required document on a case checklist.
// Order is significant (display order). Duplicate labels are legal.
type RequirementItem struct {
	Label     string
	Satisfied bool
}

// =============================================================================
// COVERAGE / LINE ITEM - Damage valuation entries
// =============================================================================

// Coverage is one insured risk category on the policy, with its own
// insured sum. A zero insured sum means the coverage is uncapped.
type Coverage struct {
	Name       string
	InsuredSum decimal.Decimal
	Items      []LineItem
}

// LineItem is one valued loss entry under a coverage. Indemnification is
// derived from MarketValue, DeductionPercent and the coverage's insured
// sum; it is cached here for display but recomputed eagerly whenever any
// of its inputs change (see calc.go).
type LineItem struct {
	Concept          string
	MarketValue      decimal.Decimal
	DeductionPercent decimal.Decimal // 0-100, franchise/wear-and-tear
	Indemnification  decimal.Decimal // derived, rounded to 2 decimals
	PaidByProvider   bool            // true = purchase-order channel, false = cash
}

// =============================================================================
// FOLLOW-UP TASK - Created by the scheduler on transitions
// =============================================================================

// FollowUpTask is a reminder created automatically on every effective
// status/sub-status change, and manually by analysts. Tasks reference the
// case by claim number, matching how the task board is keyed.
type FollowUpTask struct {
	ID          string
	ClaimNumber string
	Text        string
	Done        bool
	Assignee    string // analyst, may be empty (unassigned)
	DueDate     time.Time
	DueTime     string // "HH:MM" local
	CreatedAt   time.Time
}

// =============================================================================
// COMMENT - Case activity log entry
// =============================================================================

// Comment is one free-text note on a case.
type Comment struct {
	ID          string
	ClaimNumber string
	Author      string
	Body        string
	CreatedAt   time.Time
}

// =============================================================================
// PATCH - Partial update for UpdateFields
// =============================================================================

// CasePatch is a partial update applied by Lifecycle.UpdateFields.
// Nil fields are left untouched.
type CasePatch struct {
	Insurer        *string
	Insured        *InsuredParty
	PolicyNumber   *string
	LineOfBusiness *string
	Cause          *string
	Analyst        *string
	Handler        *string

	Status    *Status
	SubStatus *string

	Assigned      *time.Time
	IncidentDate  *time.Time
	ReportedDate  *time.Time
	InterviewDate *time.Time

	Checklist *[]RequirementItem
	Coverages *[]Coverage
}
