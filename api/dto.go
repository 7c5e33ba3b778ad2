/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

MONEY FIELDS:
  Monetary inputs are accepted as strings and run through
  claims.ParseAmount, so operator-entered values like "1.234,56" or
  "$ 500" are normalized at the boundary and malformed input degrades
  to zero instead of failing the request. Responses carry both the raw
  decimal string and the display form.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/claims-engine/claims"
)

// =============================================================================
// CASE TYPES
// =============================================================================

// AddressDTO mirrors claims.Address.
type AddressDTO struct {
	Street   string `json:"street,omitempty"`
	City     string `json:"city,omitempty"`
	Province string `json:"province,omitempty"`
}

// InsuredDTO mirrors claims.InsuredParty.
type InsuredDTO struct {
	Name        string     `json:"name"`
	NationalID  string     `json:"national_id,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Mail        string     `json:"mail,omitempty"`
	Address     AddressDTO `json:"address,omitempty"`
	RiskAddress AddressDTO `json:"risk_address,omitempty"`
}

// ChecklistItemDTO is one requirement entry.
type ChecklistItemDTO struct {
	Label     string `json:"label"`
	Satisfied bool   `json:"satisfied"`
}

// LineItemDTO is one valuation entry. Amount fields are strings so the
// client may send locale-formatted values; indemnification is derived
// and only appears in responses.
type LineItemDTO struct {
	Concept          string `json:"concept"`
	MarketValue      string `json:"market_value"`
	DeductionPercent string `json:"deduction_percent"`
	Indemnification  string `json:"indemnification,omitempty"`
	PaidByProvider   bool   `json:"paid_by_provider"`
}

// CoverageDTO is one coverage with its line items.
type CoverageDTO struct {
	Name       string        `json:"name"`
	InsuredSum string        `json:"insured_sum"`
	Items      []LineItemDTO `json:"items"`
}

// CaseDTO is the full case representation.
type CaseDTO struct {
	ID             string     `json:"id"`
	ClaimNumber    string     `json:"claim_number"`
	Insurer        string     `json:"insurer"`
	Insured        InsuredDTO `json:"insured"`
	PolicyNumber   string     `json:"policy_number,omitempty"`
	LineOfBusiness string     `json:"line_of_business,omitempty"`
	Cause          string     `json:"cause,omitempty"`
	Analyst        string     `json:"analyst,omitempty"`
	Handler        string     `json:"handler,omitempty"`
	Status         string     `json:"status"`
	SubStatus      string     `json:"sub_status,omitempty"`

	Assigned                  *string `json:"assigned,omitempty"`
	IncidentDate              *string `json:"incident_date,omitempty"`
	ReportedDate              *string `json:"reported_date,omitempty"`
	InterviewDate             *string `json:"interview_date,omitempty"`
	DocumentationCompleteDate *string `json:"documentation_complete_date,omitempty"`
	ClosedDate                *string `json:"closed_date,omitempty"`

	Checklist []ChecklistItemDTO `json:"checklist"`
	Coverages []CoverageDTO      `json:"coverages"`

	Version   int64  `json:"version"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// CaseSummaryDTO is the list-view projection of a case.
type CaseSummaryDTO struct {
	ID          string  `json:"id"`
	ClaimNumber string  `json:"claim_number"`
	Insurer     string  `json:"insurer"`
	Insured     string  `json:"insured"`
	Analyst     string  `json:"analyst,omitempty"`
	Status      string  `json:"status"`
	SubStatus   string  `json:"sub_status,omitempty"`
	Assigned    *string `json:"assigned,omitempty"`
	ClosedDate  *string `json:"closed_date,omitempty"`
}

// CreateCaseRequest is the intake payload. Insurer, insured name, claim
// number and assigned date are required; everything else is collected
// incrementally by analysts.
type CreateCaseRequest struct {
	ClaimNumber    string     `json:"claim_number"`
	Insurer        string     `json:"insurer"`
	Insured        InsuredDTO `json:"insured"`
	Assigned       string     `json:"assigned"` // YYYY-MM-DD
	PolicyNumber   string     `json:"policy_number"`
	LineOfBusiness string     `json:"line_of_business"`
	Cause          string     `json:"cause"`
	Analyst        string     `json:"analyst"`
	Handler        string     `json:"handler"`
	IncidentDate   string     `json:"incident_date"`
	ReportedDate   string     `json:"reported_date"`
}

// UpdateCaseRequest is a partial update; nil fields are left untouched.
type UpdateCaseRequest struct {
	Insurer        *string     `json:"insurer"`
	Insured        *InsuredDTO `json:"insured"`
	PolicyNumber   *string     `json:"policy_number"`
	LineOfBusiness *string     `json:"line_of_business"`
	Cause          *string     `json:"cause"`
	Analyst        *string     `json:"analyst"`
	Handler        *string     `json:"handler"`
	Status         *string     `json:"status"`
	SubStatus      *string     `json:"sub_status"`
	Assigned       *string     `json:"assigned"`
	IncidentDate   *string     `json:"incident_date"`
	ReportedDate   *string     `json:"reported_date"`
	InterviewDate  *string     `json:"interview_date"`
}

// ChangeStatusRequest moves a case to a new lifecycle state.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// CloseCaseRequest closes a case with a reason from the closure set.
type CloseCaseRequest struct {
	Reason string `json:"reason"`
}

// PutChecklistRequest replaces the case checklist.
type PutChecklistRequest struct {
	Items []ChecklistItemDTO `json:"items"`
}

// PutCoveragesRequest replaces the case coverages. Indemnifications are
// recomputed server-side; any client-sent values are ignored.
type PutCoveragesRequest struct {
	Coverages []CoverageDTO `json:"coverages"`
}

// =============================================================================
// TOTALS
// =============================================================================

// TotalsDTO carries the aggregated figures for a case, raw and display.
type TotalsDTO struct {
	Savings         string `json:"savings"`
	ProviderChannel string `json:"provider_channel"`
	CashChannel     string `json:"cash_channel"`
	Paid            string `json:"paid"`

	SavingsDisplay         string `json:"savings_display"`
	ProviderChannelDisplay string `json:"provider_channel_display"`
	CashChannelDisplay     string `json:"cash_channel_display"`
	PaidDisplay            string `json:"paid_display"`
}

// =============================================================================
// TASKS / COMMENTS / INVOICE
// =============================================================================

// TaskDTO is one follow-up task.
type TaskDTO struct {
	ID          string `json:"id"`
	ClaimNumber string `json:"claim_number"`
	Text        string `json:"text"`
	Done        bool   `json:"done"`
	Assignee    string `json:"assignee,omitempty"`
	DueDate     string `json:"due_date"`
	DueTime     string `json:"due_time"`
	CreatedAt   string `json:"created_at"`
}

// CreateTaskRequest adds a manual task to a case.
type CreateTaskRequest struct {
	Text     string `json:"text"`
	Assignee string `json:"assignee"`
	DueDate  string `json:"due_date"` // YYYY-MM-DD, default tomorrow
	DueTime  string `json:"due_time"` // HH:MM, default now
}

// SetTaskDoneRequest toggles a task's done flag.
type SetTaskDoneRequest struct {
	Done bool `json:"done"`
}

// CommentDTO is one activity-log entry.
type CommentDTO struct {
	ID          string `json:"id"`
	ClaimNumber string `json:"claim_number"`
	Author      string `json:"author,omitempty"`
	Body        string `json:"body"`
	CreatedAt   string `json:"created_at"`
}

// CreateCommentRequest appends a comment.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// InvoiceItemDTO is one net invoice line.
type InvoiceItemDTO struct {
	Concept  string `json:"concept"`
	Net      string `json:"net"`
	ApplyVAT bool   `json:"apply_vat"`
}

// InvoiceDTO is the settlement invoice with computed totals.
type InvoiceDTO struct {
	ClaimNumber string           `json:"claim_number"`
	PointOfSale string           `json:"point_of_sale,omitempty"`
	Number      string           `json:"number,omitempty"`
	CAE         string           `json:"cae,omitempty"`
	IssueDate   *string          `json:"issue_date,omitempty"`
	Items       []InvoiceItemDTO `json:"items"`
	Net         string           `json:"net"`
	VAT         string           `json:"vat"`
	Total       string           `json:"total"`
}

// PutInvoiceRequest replaces the case invoice.
type PutInvoiceRequest struct {
	PointOfSale string           `json:"point_of_sale"`
	Number      string           `json:"number"`
	CAE         string           `json:"cae"`
	IssueDate   string           `json:"issue_date"`
	Items       []InvoiceItemDTO `json:"items"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toCaseDTO(c *claims.Case) CaseDTO {
	dto := CaseDTO{
		ID:             string(c.ID),
		ClaimNumber:    c.ClaimNumber,
		Insurer:        c.Insurer,
		Insured:        toInsuredDTO(c.Insured),
		PolicyNumber:   c.PolicyNumber,
		LineOfBusiness: c.LineOfBusiness,
		Cause:          c.Cause,
		Analyst:        c.Analyst,
		Handler:        c.Handler,
		Status:         string(c.Status),
		SubStatus:      c.SubStatus,

		Assigned:                  fmtDatePtr(c.Assigned),
		IncidentDate:              fmtDatePtr(c.IncidentDate),
		ReportedDate:              fmtDatePtr(c.ReportedDate),
		InterviewDate:             fmtDatePtr(c.InterviewDate),
		DocumentationCompleteDate: fmtDatePtr(c.DocumentationCompleteDate),
		ClosedDate:                fmtDatePtr(c.ClosedDate),

		Checklist: make([]ChecklistItemDTO, len(c.Checklist)),
		Coverages: make([]CoverageDTO, len(c.Coverages)),

		Version:   c.Version,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}

	for i, item := range c.Checklist {
		dto.Checklist[i] = ChecklistItemDTO{Label: item.Label, Satisfied: item.Satisfied}
	}
	for i, cov := range c.Coverages {
		dto.Coverages[i] = toCoverageDTO(cov)
	}
	return dto
}

func toCaseSummaryDTO(c *claims.Case) CaseSummaryDTO {
	return CaseSummaryDTO{
		ID:          string(c.ID),
		ClaimNumber: c.ClaimNumber,
		Insurer:     c.Insurer,
		Insured:     c.Insured.Name,
		Analyst:     c.Analyst,
		Status:      string(c.Status),
		SubStatus:   c.SubStatus,
		Assigned:    fmtDatePtr(c.Assigned),
		ClosedDate:  fmtDatePtr(c.ClosedDate),
	}
}

func toCoverageDTO(cov claims.Coverage) CoverageDTO {
	dto := CoverageDTO{
		Name:       cov.Name,
		InsuredSum: cov.InsuredSum.String(),
		Items:      make([]LineItemDTO, len(cov.Items)),
	}
	for i, item := range cov.Items {
		dto.Items[i] = LineItemDTO{
			Concept:          item.Concept,
			MarketValue:      item.MarketValue.String(),
			DeductionPercent: item.DeductionPercent.String(),
			Indemnification:  item.Indemnification.String(),
			PaidByProvider:   item.PaidByProvider,
		}
	}
	return dto
}

func toInsuredDTO(p claims.InsuredParty) InsuredDTO {
	return InsuredDTO{
		Name:        p.Name,
		NationalID:  p.NationalID,
		Phone:       p.Phone,
		Mail:        p.Mail,
		Address:     AddressDTO(p.Address),
		RiskAddress: AddressDTO(p.RiskAddress),
	}
}

func fromInsuredDTO(d InsuredDTO) claims.InsuredParty {
	return claims.InsuredParty{
		Name:        d.Name,
		NationalID:  d.NationalID,
		Phone:       d.Phone,
		Mail:        d.Mail,
		Address:     claims.Address(d.Address),
		RiskAddress: claims.Address(d.RiskAddress),
	}
}

func fromCoverageDTOs(dtos []CoverageDTO) []claims.Coverage {
	coverages := make([]claims.Coverage, len(dtos))
	for i, d := range dtos {
		cov := claims.Coverage{
			Name:       d.Name,
			InsuredSum: claims.ParseAmount(d.InsuredSum),
			Items:      make([]claims.LineItem, len(d.Items)),
		}
		for j, item := range d.Items {
			cov.Items[j] = claims.LineItem{
				Concept:          item.Concept,
				MarketValue:      claims.ParseAmount(item.MarketValue),
				DeductionPercent: claims.ParseAmount(item.DeductionPercent),
				PaidByProvider:   item.PaidByProvider,
			}
		}
		coverages[i] = cov
	}
	return coverages
}

func fromChecklistDTOs(dtos []ChecklistItemDTO) []claims.RequirementItem {
	items := make([]claims.RequirementItem, len(dtos))
	for i, d := range dtos {
		items[i] = claims.RequirementItem{Label: d.Label, Satisfied: d.Satisfied}
	}
	return items
}

func toTaskDTO(t claims.FollowUpTask) TaskDTO {
	return TaskDTO{
		ID:          t.ID,
		ClaimNumber: t.ClaimNumber,
		Text:        t.Text,
		Done:        t.Done,
		Assignee:    t.Assignee,
		DueDate:     t.DueDate.Format("2006-01-02"),
		DueTime:     t.DueTime,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

func toInvoiceDTO(inv *claims.Invoice) InvoiceDTO {
	totals := inv.Totals()
	dto := InvoiceDTO{
		ClaimNumber: inv.ClaimNumber,
		PointOfSale: inv.PointOfSale,
		Number:      inv.Number,
		CAE:         inv.CAE,
		IssueDate:   fmtDatePtr(inv.IssueDate),
		Items:       make([]InvoiceItemDTO, len(inv.Items)),
		Net:         totals.Net.String(),
		VAT:         totals.VAT.String(),
		Total:       totals.Total.String(),
	}
	for i, item := range inv.Items {
		dto.Items[i] = InvoiceItemDTO{
			Concept:  item.Concept,
			Net:      item.Net.String(),
			ApplyVAT: item.ApplyVAT,
		}
	}
	return dto
}

func fmtDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
