/*
handlers.go - HTTP API handlers for the claim lifecycle engine

PURPOSE:
  Exposes the claim engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Cases:
    GET    /api/cases                        List cases (with filters)
    POST   /api/cases                        Intake a new case
    GET    /api/cases/{id}                   Get full case file
    PATCH  /api/cases/{id}                   Partial update
    POST   /api/cases/{id}/status            Change lifecycle status
    PUT    /api/cases/{id}/checklist         Replace checklist
    POST   /api/cases/{id}/checklist/complete Advance after checklist gate
    PUT    /api/cases/{id}/coverages         Replace coverages (recomputes)
    POST   /api/cases/{id}/close             Close with a reason
    GET    /api/cases/{id}/totals            Aggregated figures
    GET    /api/cases/{id}/missing-documents Unsatisfied checklist labels

  Tasks:
    GET    /api/cases/{id}/tasks             Tasks for a case
    POST   /api/cases/{id}/tasks             Add a manual task
    POST   /api/tasks/{taskID}/done          Toggle done flag

  Comments:
    GET    /api/cases/{id}/comments          Activity log
    POST   /api/cases/{id}/comments          Append a comment

  Invoice:
    GET    /api/cases/{id}/invoice           Settlement invoice + VAT totals
    PUT    /api/cases/{id}/invoice           Replace invoice

  Catalog:
    GET    /api/catalog/checklist?cause=X    Default checklist for a cause

ACTOR IDENTITY:
  The caller identifies itself with the X-Actor and X-Actor-Role headers.
  Role "Administrador" unlocks closed cases and bypasses the checklist
  gate. There is no authentication layer here; identity is trusted input
  from the reverse proxy in front of the service.

ERROR HANDLING:
  Domain errors map to HTTP status via writeDomainError:
  - 400: Validation errors, incomplete checklist
  - 403: Closed-case lock
  - 404: Case or task not found
  - 409: Version conflict (stale read)
  - 500: Storage and other internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/claims-engine/claims"
	"github.com/warp/claims-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *claims.Lifecycle
	Gate   *claims.Gate
	Clock  claims.Clock
}

// NewHandler creates a handler backed by the given store and checklist gate.
func NewHandler(store *sqlite.Store, gate *claims.Gate) *Handler {
	return &Handler{
		Store:  store,
		Engine: claims.NewLifecycle(store, gate, claims.SystemClock{}),
		Gate:   gate,
		Clock:  claims.SystemClock{},
	}
}

// actorFrom extracts the caller identity from request headers.
func actorFrom(r *http.Request) claims.Actor {
	return claims.Actor{
		ID:   r.Header.Get("X-Actor"),
		Role: r.Header.Get("X-Actor-Role"),
	}
}

// =============================================================================
// CASE HANDLERS
// =============================================================================

// ListCases returns case summaries matching the query filters.
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := claims.CaseFilter{
		ClaimNumber: q.Get("claim_number"),
		Insured:     q.Get("insured"),
		Insurer:     q.Get("insurer"),
		Analyst:     q.Get("analyst"),
		Status:      claims.Status(q.Get("status")),
	}

	cases, err := h.Store.ListCases(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list cases", err)
		return
	}

	dtos := make([]CaseSummaryDTO, len(cases))
	for i := range cases {
		dtos[i] = toCaseSummaryDTO(&cases[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCase performs intake: new cases start in ENTREVISTAR with the
// default checklist for their cause, all items unsatisfied.
func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if strings.TrimSpace(req.ClaimNumber) == "" {
		writeError(w, http.StatusBadRequest, "claim_number is required", nil)
		return
	}
	if strings.TrimSpace(req.Insurer) == "" {
		writeError(w, http.StatusBadRequest, "insurer is required", nil)
		return
	}
	if strings.TrimSpace(req.Insured.Name) == "" {
		writeError(w, http.StatusBadRequest, "insured.name is required", nil)
		return
	}
	assigned, err := parseDateField(req.Assigned)
	if err != nil || assigned == nil {
		writeError(w, http.StatusBadRequest, "assigned must be a YYYY-MM-DD date", err)
		return
	}

	if existing, err := h.Store.GetCaseByClaimNumber(r.Context(), req.ClaimNumber); err == nil && existing != nil {
		writeError(w, http.StatusConflict, "A case with this claim number already exists", nil)
		return
	}

	now := h.Clock.Now()
	c := &claims.Case{
		ID:             claims.CaseID(uuid.NewString()),
		ClaimNumber:    strings.TrimSpace(req.ClaimNumber),
		Insurer:        strings.TrimSpace(req.Insurer),
		Insured:        fromInsuredDTO(req.Insured),
		PolicyNumber:   req.PolicyNumber,
		LineOfBusiness: req.LineOfBusiness,
		Cause:          req.Cause,
		Analyst:        req.Analyst,
		Handler:        req.Handler,
		Status:         claims.StatusInterview,
		Assigned:       assigned,
		Checklist:      h.Gate.ResolveDefault(req.Cause),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if d, err := parseDateField(req.IncidentDate); err == nil {
		c.IncidentDate = d
	}
	if d, err := parseDateField(req.ReportedDate); err == nil {
		c.ReportedDate = d
	}

	if err := h.Store.SaveCase(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create case", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCaseDTO(c))
}

// GetCase returns the full case file.
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetCase(r.Context(), claims.CaseID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get case", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseDTO(c))
}

// UpdateCase applies a partial update through the lifecycle engine, so
// the closed-case lock and follow-up scheduling apply.
func (h *Handler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	var req UpdateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patch := claims.CasePatch{
		Insurer:        req.Insurer,
		PolicyNumber:   req.PolicyNumber,
		LineOfBusiness: req.LineOfBusiness,
		Cause:          req.Cause,
		Analyst:        req.Analyst,
		Handler:        req.Handler,
		SubStatus:      req.SubStatus,
	}
	if req.Insured != nil {
		p := fromInsuredDTO(*req.Insured)
		patch.Insured = &p
	}
	if req.Status != nil {
		s := claims.Status(*req.Status)
		patch.Status = &s
	}
	var badDate string
	patch.Assigned, badDate = patchDate(req.Assigned, badDate, "assigned")
	patch.IncidentDate, badDate = patchDate(req.IncidentDate, badDate, "incident_date")
	patch.ReportedDate, badDate = patchDate(req.ReportedDate, badDate, "reported_date")
	patch.InterviewDate, badDate = patchDate(req.InterviewDate, badDate, "interview_date")
	if badDate != "" {
		writeError(w, http.StatusBadRequest, badDate+" must be a YYYY-MM-DD date", nil)
		return
	}

	c, err := h.Engine.UpdateFields(r.Context(), actorFrom(r), claims.CaseID(chi.URLParam(r, "id")), patch)
	if err != nil {
		writeDomainError(w, "Failed to update case", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseDTO(c))
}

// ChangeStatus moves the case to a new lifecycle state.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c, err := h.Engine.ChangeStatus(r.Context(), actorFrom(r), claims.CaseID(chi.URLParam(r, "id")), claims.Status(req.Status))
	if err != nil {
		writeDomainError(w, "Failed to change status", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseDTO(c))
}

// PutChecklist replaces the case checklist.
func (h *Handler) PutChecklist(w http.ResponseWriter, r *http.Request) {
	var req PutChecklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	items := fromChecklistDTOs(req.Items)
	c, err := h.Engine.UpdateFields(r.Context(), actorFrom(r), claims.CaseID(chi.URLParam(r, "id")), claims.CasePatch{Checklist: &items})
	if err != nil {
		writeDomainError(w, "Failed to update checklist", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseDTO(c))
}

// CompleteChecklist advances the case once all required documents are in.
func (h *Handler) CompleteChecklist(w http.ResponseWriter, r *http.Request) {
	c, err := h.Engine.AdvanceAfterChecklist(r.Context(), actorFrom(r), claims.CaseID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to complete checklist", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseDTO(c))
}

// PutCoverages replaces the case coverages. Indemnifications are always
// recomputed server-side.
func (h *Handler) PutCoverages(w http.ResponseWriter, r *http.Request) {
	var req PutCoveragesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	coverages := fromCoverageDTOs(req.Coverages)
	c, err := h.Engine.UpdateFields(r.Context(), actorFrom(r), claims.CaseID(chi.URLParam(r, "id")), claims.CasePatch{Coverages: &coverages})
	if err != nil {
		writeDomainError(w, "Failed to update coverages", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseDTO(c))
}

// CloseCase closes the case with a reason from the closure set.
func (h *Handler) CloseCase(w http.ResponseWriter, r *http.Request) {
	var req CloseCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c, err := h.Engine.CloseCase(r.Context(), actorFrom(r), claims.CaseID(chi.URLParam(r, "id")), req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to close case", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseDTO(c))
}

// GetTotals returns the aggregated indemnification figures for a case.
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetCase(r.Context(), claims.CaseID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get case", err)
		return
	}

	t := claims.ComputeTotals(c.Coverages)
	writeJSON(w, http.StatusOK, TotalsDTO{
		Savings:         t.Savings.String(),
		ProviderChannel: t.ProviderChannel.String(),
		CashChannel:     t.CashChannel.String(),
		Paid:            t.Paid.String(),

		SavingsDisplay:         claims.FormatAmount(t.Savings),
		ProviderChannelDisplay: claims.FormatAmount(t.ProviderChannel),
		CashChannelDisplay:     claims.FormatAmount(t.CashChannel),
		PaidDisplay:            claims.FormatAmount(t.Paid),
	})
}

// GetMissingDocuments returns the labels of unsatisfied checklist items.
func (h *Handler) GetMissingDocuments(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetCase(r.Context(), claims.CaseID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get case", err)
		return
	}

	missing := claims.Missing(c.Checklist)
	writeJSON(w, http.StatusOK, map[string]any{
		"claim_number": c.ClaimNumber,
		"complete":     claims.IsComplete(c.Checklist),
		"missing":      missing,
	})
}

// =============================================================================
// TASK HANDLERS
// =============================================================================

// ListTasks returns the follow-up tasks for a case.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetCase(r.Context(), claims.CaseID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get case", err)
		return
	}

	tasks, err := h.Store.ListTasks(r.Context(), c.ClaimNumber)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tasks", err)
		return
	}

	dtos := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = toTaskDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTask adds a manual follow-up task to a case.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required", nil)
		return
	}

	c, err := h.Store.GetCase(r.Context(), claims.CaseID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get case", err)
		return
	}

	now := h.Clock.Now()
	task := claims.FollowUpTask{
		ID:          uuid.NewString(),
		ClaimNumber: c.ClaimNumber,
		Text:        strings.TrimSpace(req.Text),
		Assignee:    req.Assignee,
		DueDate:     claims.DateOnly(now.AddDate(0, 0, 1)),
		DueTime:     now.Format("15:04"),
		CreatedAt:   now,
	}
	if task.Assignee == "" {
		task.Assignee = c.Analyst
	}
	if req.DueDate != "" {
		d, err := time.ParseInLocation("2006-01-02", req.DueDate, now.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "due_date must be a YYYY-MM-DD date", err)
			return
		}
		task.DueDate = d
	}
	if req.DueTime != "" {
		if _, err := time.Parse("15:04", req.DueTime); err != nil {
			writeError(w, http.StatusBadRequest, "due_time must be HH:MM", err)
			return
		}
		task.DueTime = req.DueTime
	}

	if err := h.Store.InsertTask(r.Context(), task); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskDTO(task))
}

// SetTaskDone toggles a task's done flag.
func (h *Handler) SetTaskDone(w http.ResponseWriter, r *http.Request) {
	var req SetTaskDoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Store.SetTaskDone(r.Context(), chi.URLParam(r, "taskID"), req.Done); err != nil {
		writeDomainError(w, "Failed to update task", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"done": req.Done})
}

// =============================================================================
// COMMENT HANDLERS
// =============================================================================

// ListComments returns the activity log of a case.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetCase(r.Context(), claims.CaseID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get case", err)
		return
	}

	comments, err := h.Store.ListComments(r.Context(), c.ClaimNumber)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list comments", err)
		return
	}

	dtos := make([]CommentDTO, len(comments))
	for i, cm := range comments {
		dtos[i] = CommentDTO{
			ID:          cm.ID,
			ClaimNumber: cm.ClaimNumber,
			Author:      cm.Author,
			Body:        cm.Body,
			CreatedAt:   cm.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateComment appends a comment to a case.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		writeError(w, http.StatusBadRequest, "body is required", nil)
		return
	}

	c, err := h.Store.GetCase(r.Context(), claims.CaseID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get case", err)
		return
	}

	comment := claims.Comment{
		ID:          uuid.NewString(),
		ClaimNumber: c.ClaimNumber,
		Author:      actorFrom(r).ID,
		Body:        strings.TrimSpace(req.Body),
		CreatedAt:   h.Clock.Now(),
	}
	if err := h.Store.InsertComment(r.Context(), comment); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, CommentDTO{
		ID:          comment.ID,
		ClaimNumber: comment.ClaimNumber,
		Author:      comment.Author,
		Body:        comment.Body,
		CreatedAt:   comment.CreatedAt.Format(time.RFC3339),
	})
}

// =============================================================================
// INVOICE HANDLERS
// =============================================================================

// GetInvoice returns the settlement invoice with computed VAT totals.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetCase(r.Context(), claims.CaseID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get case", err)
		return
	}

	inv, err := h.Store.GetInvoice(r.Context(), c.ClaimNumber)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get invoice", err)
		return
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, "No invoice for this case", nil)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(inv))
}

// PutInvoice replaces the settlement invoice of a case.
func (h *Handler) PutInvoice(w http.ResponseWriter, r *http.Request) {
	var req PutInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c, err := h.Store.GetCase(r.Context(), claims.CaseID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get case", err)
		return
	}

	inv := claims.Invoice{
		ClaimNumber: c.ClaimNumber,
		PointOfSale: req.PointOfSale,
		Number:      req.Number,
		CAE:         req.CAE,
		Items:       make([]claims.InvoiceItem, len(req.Items)),
	}
	if req.IssueDate != "" {
		d, err := parseDateField(req.IssueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "issue_date must be a YYYY-MM-DD date", err)
			return
		}
		inv.IssueDate = d
	}
	for i, item := range req.Items {
		inv.Items[i] = claims.InvoiceItem{
			Concept:  item.Concept,
			Net:      claims.ParseAmount(item.Net),
			ApplyVAT: item.ApplyVAT,
		}
	}

	if err := h.Store.UpsertInvoice(r.Context(), inv); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(&inv))
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// GetChecklistCatalog returns the default checklist for a cause.
func (h *Handler) GetChecklistCatalog(w http.ResponseWriter, r *http.Request) {
	cause := r.URL.Query().Get("cause")
	items := h.Gate.ResolveDefault(cause)

	dtos := make([]ChecklistItemDTO, len(items))
	for i, item := range items {
		dtos[i] = ChecklistItemDTO{Label: item.Label, Satisfied: item.Satisfied}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cause": cause,
		"items": dtos,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case claims.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, claims.ErrConflict):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, claims.ErrCaseLocked):
		writeError(w, http.StatusForbidden, message, err)
	case claims.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// parseDateField parses a YYYY-MM-DD value in local time. Empty input
// yields a nil date.
func parseDateField(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// patchDate converts an optional date string for a CasePatch field,
// remembering the first field name that failed to parse.
func patchDate(s *string, failed, field string) (*time.Time, string) {
	if s == nil {
		return nil, failed
	}
	d, err := parseDateField(*s)
	if err != nil && failed == "" {
		return nil, field
	}
	return d, failed
}
