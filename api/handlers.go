/*
handlers.go - HTTP API handlers for the worktime engine

PURPOSE:
  Exposes the worktime engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Entries:
    POST   /api/users/{id}/entries           Report an entry
    GET    /api/users/{id}/entries           List entries (from/to query)
    GET    /api/users/{id}/notifications     Open acknowledgement duties
    GET    /api/users/{id}/review-queue      Entries awaiting peer review
    GET    /api/entries/{id}                 Get one entry
    GET    /api/entries/{id}/changes         Edit history
    POST   /api/entries/{id}/confirm         Reviewer confirmation
    POST   /api/entries/{id}/reject          Reviewer rejection (reason)
    POST   /api/entries/{id}/edit            Edit / request edit
    POST   /api/entries/{id}/edit/respond    Owner answers a pending edit
    POST   /api/entries/{id}/deletion-request           Start deletion
    POST   /api/entries/{id}/deletion-request/confirm   Owner confirms
    POST   /api/entries/{id}/deletion-request/withdraw  Take it back
    POST   /api/entries/{id}/acknowledge-deletion       Ack applied delete

  Balance:
    GET    /api/users/{id}/balance/day       ?date=YYYY-MM-DD
    GET    /api/users/{id}/balance/month     ?year=&month=
    GET    /api/users/{id}/balance/lifetime
    GET    /api/users/{id}/entitlement       ?year=
    POST   /api/users/{id}/submissions       Finalize days up to a date

  Quota:
    POST   /api/quotas                       Propose a quota change
    GET    /api/users/{id}/quota             ?year=
    GET    /api/users/{id}/quota-notifications
    POST   /api/quota-notifications/{id}/acknowledge
    POST   /api/quota-notifications/{id}/reject

  Supporting:
    GET/POST /api/users/{id}/absences
    GET/PUT  /api/users/{id}/work-model
    GET/POST /api/users/{id}/adjustments

ACTOR RESOLUTION:
  There is no authentication layer; the acting user is taken from the
  X-Actor-ID and X-Actor-Role headers and handed to the engine, which
  enforces all permissions. A missing actor header is a 400.

ERROR HANDLING:
  Domain errors map to HTTP status by kind:
  - 400: validation, missing reason/reviewer, permission, quota locked
  - 404: unknown entry/change/notification
  - 409: concurrent modification (client should re-read and retry)
  - 500: store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/worktime-engine/balance"
	"github.com/warp/worktime-engine/quota"
	"github.com/warp/worktime-engine/worktime"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Entries *worktime.Service
	Quotas  *quota.Service
	Balance *balance.Calculator

	Store      worktime.Store
	QuotaStore quota.Store
}

// NewHandler wires the services and stores into a handler.
func NewHandler(entries *worktime.Service, quotas *quota.Service,
	calc *balance.Calculator, store worktime.Store, quotaStore quota.Store) *Handler {
	return &Handler{
		Entries:    entries,
		Quotas:     quotas,
		Balance:    calc,
		Store:      store,
		QuotaStore: quotaStore,
	}
}

// actor reads the acting user from the request headers. ok is false when
// the header is missing, in which case a 400 has already been written.
func actor(w http.ResponseWriter, r *http.Request) (worktime.Actor, bool) {
	id := r.Header.Get("X-Actor-ID")
	if id == "" {
		writeError(w, http.StatusBadRequest, "X-Actor-ID header is required", nil)
		return worktime.Actor{}, false
	}
	role := worktime.Role(r.Header.Get("X-Actor-Role"))
	if role == "" {
		role = worktime.RoleEmployee
	}
	return worktime.Actor{ID: worktime.UserID(id), Role: role}, true
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// CreateEntry reports a new entry for the user in the path.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	userID := worktime.UserID(chi.URLParam(r, "id"))

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := worktime.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	hours, err := parseHours(req.Hours)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hours value", err)
		return
	}

	e, err := h.Entries.Create(r.Context(), act, worktime.CreateInput{
		UserID:   userID,
		Date:     date,
		Category: worktime.Category(req.Category),
		Values: worktime.EntryValues{
			Hours:            hours,
			StartTime:        req.StartTime,
			EndTime:          req.EndTime,
			SurchargePercent: req.SurchargePercent,
			Description:      req.Description,
		},
		ReviewerID:        worktime.UserID(req.ReviewerID),
		LateJustification: req.LateJustification,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(e))
}

// ListEntries returns the user's entries in the from/to window; the
// window defaults to the current month.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID := worktime.UserID(chi.URLParam(r, "id"))

	now := time.Now()
	from := worktime.StartOfMonth(now.Year(), now.Month())
	to := worktime.EndOfMonth(now.Year(), now.Month())
	if s := r.URL.Query().Get("from"); s != "" {
		d, err := worktime.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date", err)
			return
		}
		from = d
	}
	if s := r.URL.Query().Get("to"); s != "" {
		d, err := worktime.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date", err)
			return
		}
		to = d
	}

	entries, err := h.Store.ListEntries(r.Context(), userID, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// GetEntry returns a single entry.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id := worktime.EntryID(chi.URLParam(r, "id"))
	e, err := h.Store.GetEntry(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(e))
}

// ListChanges returns the entry's edit history, oldest first.
func (h *Handler) ListChanges(w http.ResponseWriter, r *http.Request) {
	id := worktime.EntryID(chi.URLParam(r, "id"))
	changes, err := h.Store.ListChanges(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list changes", err)
		return
	}
	dtos := make([]ChangeDTO, len(changes))
	for i, ch := range changes {
		dtos[i] = toChangeDTO(ch)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ConfirmEntry is the reviewer's confirmation.
func (h *Handler) ConfirmEntry(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	e, err := h.Entries.Confirm(r.Context(), act, worktime.EntryID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(e))
}

// RejectEntry is the reviewer's rejection; the reason is mandatory.
func (h *Handler) RejectEntry(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	var req RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	e, err := h.Entries.Reject(r.Context(), act, worktime.EntryID(chi.URLParam(r, "id")), req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(e))
}

// EditEntry applies or requests an edit depending on who asks and the
// entry's state; the engine decides which path applies.
func (h *Handler) EditEntry(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	hours, err := parseHours(req.Hours)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hours value", err)
		return
	}

	e, err := h.Entries.RequestEdit(r.Context(), act,
		worktime.EntryID(chi.URLParam(r, "id")),
		worktime.EntryValues{
			Category:         worktime.Category(req.Category),
			Hours:            hours,
			StartTime:        req.StartTime,
			EndTime:          req.EndTime,
			SurchargePercent: req.SurchargePercent,
			Description:      req.Description,
		}, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(e))
}

// RespondToEdit is the owner's answer to a pending edit.
func (h *Handler) RespondToEdit(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	var req EditResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	e, err := h.Entries.RespondToEdit(r.Context(), act,
		worktime.EntryID(chi.URLParam(r, "id")), req.Accept, req.Note)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(e))
}

// RequestDeletion starts entry deletion.
func (h *Handler) RequestDeletion(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	var req DeletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	e, err := h.Entries.RequestDeletion(r.Context(), act,
		worktime.EntryID(chi.URLParam(r, "id")), req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(e))
}

// ConfirmDeletion is the owner's acknowledgement of a deletion request.
func (h *Handler) ConfirmDeletion(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	e, err := h.Entries.ConfirmDeletion(r.Context(), act, worktime.EntryID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(e))
}

// WithdrawDeletion takes an open deletion request back.
func (h *Handler) WithdrawDeletion(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	e, err := h.Entries.WithdrawDeletionRequest(r.Context(), act, worktime.EntryID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(e))
}

// AcknowledgeDeletion acknowledges an already-applied deletion.
func (h *Handler) AcknowledgeDeletion(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	e, err := h.Entries.AcknowledgeDeletion(r.Context(), act, worktime.EntryID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(e))
}

// ListNotifications returns the user's entries with open
// acknowledgement duties.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := worktime.UserID(chi.URLParam(r, "id"))
	entries, err := h.Entries.OpenNotifications(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// ReviewQueue returns the entries waiting on the user as peer reviewer.
func (h *Handler) ReviewQueue(w http.ResponseWriter, r *http.Request) {
	userID := worktime.UserID(chi.URLParam(r, "id"))
	entries, err := h.Entries.PendingReview(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list review queue", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetDayBalance returns one day's report.
// GET /api/users/{id}/balance/day?date=YYYY-MM-DD
func (h *Handler) GetDayBalance(w http.ResponseWriter, r *http.Request) {
	userID := worktime.UserID(chi.URLParam(r, "id"))
	date, err := worktime.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing date (use YYYY-MM-DD)", err)
		return
	}
	report, err := h.Balance.Day(r.Context(), userID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute day balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toDayReportDTO(report))
}

// GetMonthBalance returns one month's target/actual stats.
// GET /api/users/{id}/balance/month?year=2025&month=3
func (h *Handler) GetMonthBalance(w http.ResponseWriter, r *http.Request) {
	userID := worktime.UserID(chi.URLParam(r, "id"))
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing year", err)
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "Invalid or missing month (1-12)", err)
		return
	}
	stats, err := h.Balance.MonthlyStats(r.Context(), userID, year, time.Month(month))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute month balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsDTO(stats))
}

// GetLifetimeBalance returns the overall balance through the submitted
// cutoff, including manual adjustments.
func (h *Handler) GetLifetimeBalance(w http.ResponseWriter, r *http.Request) {
	userID := worktime.UserID(chi.URLParam(r, "id"))
	stats, err := h.Balance.LifetimeStats(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute lifetime balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsDTO(stats))
}

// GetEntitlement returns the effective vacation allowance for a year,
// combining the stored quota with the unpaid-absence reduction.
// GET /api/users/{id}/entitlement?year=2025
func (h *Handler) GetEntitlement(w http.ResponseWriter, r *http.Request) {
	userID := worktime.UserID(chi.URLParam(r, "id"))
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing year", err)
		return
	}
	q, err := h.QuotaStore.GetQuota(r.Context(), userID, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load quota", err)
		return
	}
	base, carryover := decimal.Zero, decimal.Zero
	if q != nil {
		base, carryover = q.BaseDays, q.CarryoverDays
	}
	days, err := h.Balance.Entitlement(r.Context(), userID, year, base, carryover)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute entitlement", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":          string(userID),
		"year":             year,
		"entitlement_days": days.String(),
	})
}

// Submit finalizes all of the user's days up to the given date. Only the
// owner or management may submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	userID := worktime.UserID(chi.URLParam(r, "id"))
	if act.ID != userID && !h.Entries.Auth.CanManage(act, userID) {
		writeError(w, http.StatusBadRequest, "Not permitted to submit for this user", nil)
		return
	}
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	through, err := worktime.ParseDate(req.Through)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid through date (use YYYY-MM-DD)", err)
		return
	}
	if err := h.Store.SetSubmittedThrough(r.Context(), userID, through); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record submission", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id":           string(userID),
		"submitted_through": through.String(),
	})
}

// =============================================================================
// QUOTA HANDLERS
// =============================================================================

// ProposeQuota applies a management quota change and raises the
// employee-facing notification.
func (h *Handler) ProposeQuota(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	var req ProposeQuotaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	base, err := decimal.NewFromString(req.BaseDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid base_days", err)
		return
	}
	carryover := decimal.Zero
	if req.CarryoverDays != "" {
		carryover, err = decimal.NewFromString(req.CarryoverDays)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid carryover_days", err)
			return
		}
	}

	n, err := h.Quotas.Propose(r.Context(), act, worktime.UserID(req.UserID), req.Year,
		quota.Snapshot{BaseDays: base, CarryoverDays: carryover})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuotaNotificationDTO(n))
}

// GetQuota returns one user's quota for a year.
// GET /api/users/{id}/quota?year=2025
func (h *Handler) GetQuota(w http.ResponseWriter, r *http.Request) {
	userID := worktime.UserID(chi.URLParam(r, "id"))
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing year", err)
		return
	}
	q, err := h.QuotaStore.GetQuota(r.Context(), userID, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load quota", err)
		return
	}
	if q == nil {
		writeError(w, http.StatusNotFound, "No quota for that year", nil)
		return
	}
	writeJSON(w, http.StatusOK, toQuotaDTO(q))
}

// ListQuotaNotifications returns the user's pending quota changes.
func (h *Handler) ListQuotaNotifications(w http.ResponseWriter, r *http.Request) {
	userID := worktime.UserID(chi.URLParam(r, "id"))
	notifications, err := h.QuotaStore.OpenNotifications(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list quota notifications", err)
		return
	}
	dtos := make([]QuotaNotificationDTO, len(notifications))
	for i, n := range notifications {
		dtos[i] = toQuotaNotificationDTO(n)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AcknowledgeQuota is the employee's acceptance of a quota change.
func (h *Handler) AcknowledgeQuota(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	n, err := h.Quotas.Acknowledge(r.Context(), act, quota.NotificationID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuotaNotificationDTO(n))
}

// RejectQuota is the employee's refusal; the old values are restored.
func (h *Handler) RejectQuota(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	var req RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	n, err := h.Quotas.Reject(r.Context(), act, quota.NotificationID(chi.URLParam(r, "id")), req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuotaNotificationDTO(n))
}

// =============================================================================
// SUPPORTING HANDLERS - absences, work models, adjustments
// =============================================================================

// ListAbsences returns the user's absence ranges.
func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	userID := worktime.UserID(chi.URLParam(r, "id"))
	absences, err := h.Store.ListAbsences(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list absences", err)
		return
	}
	dtos := make([]AbsenceDTO, len(absences))
	for i, a := range absences {
		dtos[i] = AbsenceDTO{
			ID:       string(a.ID),
			UserID:   string(a.UserID),
			From:     a.From.String(),
			To:       a.To.String(),
			Category: string(a.Category),
			Note:     a.Note,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAbsence records a new absence range for the user.
func (h *Handler) CreateAbsence(w http.ResponseWriter, r *http.Request) {
	userID := worktime.UserID(chi.URLParam(r, "id"))
	var req CreateAbsenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	from, err := worktime.ParseDate(req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date", err)
		return
	}
	to, err := worktime.ParseDate(req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date", err)
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not be before from", nil)
		return
	}
	category := worktime.Category(req.Category)
	if !category.IsAbsence() {
		writeError(w, http.StatusBadRequest, "Category must be an absence category", nil)
		return
	}

	a := &worktime.Absence{
		ID:       worktime.AbsenceID(uuid.NewString()),
		UserID:   userID,
		From:     from,
		To:       to,
		Category: category,
		Note:     req.Note,
	}
	if err := h.Store.PutAbsence(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save absence", err)
		return
	}
	writeJSON(w, http.StatusCreated, AbsenceDTO{
		ID:       string(a.ID),
		UserID:   string(a.UserID),
		From:     a.From.String(),
		To:       a.To.String(),
		Category: string(a.Category),
		Note:     a.Note,
	})
}

// GetWorkModel returns the user's weekday targets.
func (h *Handler) GetWorkModel(w http.ResponseWriter, r *http.Request) {
	userID := worktime.UserID(chi.URLParam(r, "id"))
	m, err := h.Store.GetWorkModel(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load work model", err)
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "No work model configured", nil)
		return
	}
	writeJSON(w, http.StatusOK, toWorkModelDTO(m))
}

// PutWorkModel replaces the user's weekday targets.
func (h *Handler) PutWorkModel(w http.ResponseWriter, r *http.Request) {
	userID := worktime.UserID(chi.URLParam(r, "id"))
	var req WorkModelDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	targets := make(map[time.Weekday]decimal.Decimal, len(req.Targets))
	for wd, v := range req.Targets {
		n, err := strconv.Atoi(wd)
		if err != nil || n < 0 || n > 6 {
			writeError(w, http.StatusBadRequest, "Weekday keys must be 0 (Sunday) through 6", err)
			return
		}
		hours, err := decimal.NewFromString(v)
		if err != nil || hours.IsNegative() {
			writeError(w, http.StatusBadRequest, "Target hours must be non-negative decimals", err)
			return
		}
		targets[time.Weekday(n)] = hours
	}

	m := &worktime.WorkModel{
		UserID:       userID,
		Targets:      targets,
		DefaultStart: req.DefaultStart,
	}
	if req.EmploymentStart != "" {
		start, err := worktime.ParseDate(req.EmploymentStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid employment_start date", err)
			return
		}
		m.EmploymentStart = start
	}

	if err := h.Store.PutWorkModel(r.Context(), m); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save work model", err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkModelDTO(m))
}

func toWorkModelDTO(m *worktime.WorkModel) WorkModelDTO {
	targets := make(map[string]string, len(m.Targets))
	for wd, v := range m.Targets {
		targets[strconv.Itoa(int(wd))] = v.String()
	}
	dto := WorkModelDTO{
		UserID:       string(m.UserID),
		Targets:      targets,
		DefaultStart: m.DefaultStart,
	}
	if !m.EmploymentStart.IsZero() {
		dto.EmploymentStart = m.EmploymentStart.String()
	}
	return dto
}

// ListAdjustments returns the user's manual balance adjustments.
func (h *Handler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	userID := worktime.UserID(chi.URLParam(r, "id"))
	adjustments, err := h.Store.ListAdjustments(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list adjustments", err)
		return
	}
	dtos := make([]AdjustmentDTO, len(adjustments))
	for i, a := range adjustments {
		dtos[i] = AdjustmentDTO{
			ID:        a.ID,
			UserID:    string(a.UserID),
			Hours:     a.Hours.String(),
			Reason:    a.Reason,
			CreatedBy: string(a.CreatedBy),
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAdjustment records a signed lifetime adjustment; management only.
func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	userID := worktime.UserID(chi.URLParam(r, "id"))
	if !h.Entries.Auth.CanManage(act, userID) {
		writeError(w, http.StatusBadRequest, "Only management may adjust balances", nil)
		return
	}
	var req CreateAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "Reason is required", nil)
		return
	}
	hours, err := decimal.NewFromString(req.Hours)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hours value", err)
		return
	}

	a := &worktime.Adjustment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Hours:     hours,
		Reason:    req.Reason,
		CreatedBy: act.ID,
		CreatedAt: time.Now(),
	}
	if err := h.Store.PutAdjustment(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save adjustment", err)
		return
	}
	writeJSON(w, http.StatusCreated, AdjustmentDTO{
		ID:        a.ID,
		UserID:    string(a.UserID),
		Hours:     a.Hours.String(),
		Reason:    a.Reason,
		CreatedBy: string(a.CreatedBy),
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseHours(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

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

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case worktime.IsNotFound(err), errors.Is(err, quota.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case worktime.IsRetryable(err):
		writeError(w, http.StatusConflict, "Conflicting update, re-read and retry", err)
	case worktime.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Request refused", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
