/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Entries:
    EntryDTO, CreateEntryRequest, RejectRequest, EditRequest,
    EditResponseRequest, DeletionRequest, ChangeDTO

  Balance:
    StatsDTO, DayReportDTO

  Quota:
    QuotaDTO, ProposeQuotaRequest, QuotaNotificationDTO

  Supporting:
    AbsenceDTO, WorkModelDTO, AdjustmentDTO, SubmitRequest

VALIDATION:
  Validation is done in the domain layer, not in DTOs. DTOs are pure
  data carriers; handlers only parse formats (dates, decimals).

SEE ALSO:
  - handlers.go: Uses these types
  - worktime/types.go: The domain model behind them
*/
package api

import (
	"time"

	"github.com/warp/worktime-engine/balance"
	"github.com/warp/worktime-engine/quota"
	"github.com/warp/worktime-engine/worktime"
)

// =============================================================================
// ENTRY TYPES
// =============================================================================

// EntryDTO represents an entry in API responses. Status is the computed
// tag; the raw review fields are included where clients need them.
type EntryDTO struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	Date             string `json:"date"`
	Category         string `json:"category"`
	Hours            string `json:"hours"`
	StartTime        string `json:"start_time,omitempty"`
	EndTime          string `json:"end_time,omitempty"`
	SurchargePercent int    `json:"surcharge_percent,omitempty"`
	Description      string `json:"description"`

	Status     string `json:"status"`
	ReviewerID string `json:"reviewer_id,omitempty"`
	Late       bool   `json:"late,omitempty"`

	RejectionReason     string `json:"rejection_reason,omitempty"`
	DeletionRequestNote string `json:"deletion_request_note,omitempty"`
	PendingChangeID     string `json:"pending_change_id,omitempty"`

	Version   int64  `json:"version"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toEntryDTO(e *worktime.Entry) EntryDTO {
	return EntryDTO{
		ID:                  string(e.ID),
		UserID:              string(e.UserID),
		Date:                e.Date.String(),
		Category:            string(e.Category),
		Hours:               e.Hours.String(),
		StartTime:           e.StartTime,
		EndTime:             e.EndTime,
		SurchargePercent:    e.SurchargePercent,
		Description:         e.Description,
		Status:              string(e.Status()),
		ReviewerID:          string(e.ReviewerID),
		Late:                e.Late,
		RejectionReason:     e.RejectionReason,
		DeletionRequestNote: e.DeletionRequestNote,
		PendingChangeID:     string(e.PendingChangeID),
		Version:             e.Version,
		CreatedAt:           e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           e.UpdatedAt.Format(time.RFC3339),
	}
}

func toEntryDTOs(entries []*worktime.Entry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

// CreateEntryRequest is the request to report a new entry.
type CreateEntryRequest struct {
	Date              string `json:"date"`
	Category          string `json:"category"`
	Hours             string `json:"hours,omitempty"`
	StartTime         string `json:"start_time,omitempty"`
	EndTime           string `json:"end_time,omitempty"`
	SurchargePercent  int    `json:"surcharge_percent,omitempty"`
	Description       string `json:"description"`
	ReviewerID        string `json:"reviewer_id,omitempty"`
	LateJustification string `json:"late_justification,omitempty"`
}

// RejectRequest carries the mandatory rejection reason.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// EditRequest carries replacement values plus the mandatory reason.
type EditRequest struct {
	Category         string `json:"category,omitempty"`
	Hours            string `json:"hours,omitempty"`
	StartTime        string `json:"start_time,omitempty"`
	EndTime          string `json:"end_time,omitempty"`
	SurchargePercent int    `json:"surcharge_percent,omitempty"`
	Description      string `json:"description"`
	Reason           string `json:"reason"`
}

// EditResponseRequest is the owner's answer to a pending edit.
type EditResponseRequest struct {
	Accept bool   `json:"accept"`
	Note   string `json:"note,omitempty"`
}

// DeletionRequest carries the mandatory deletion reason.
type DeletionRequest struct {
	Reason string `json:"reason"`
}

// ChangeDTO represents one audited edit in API responses.
type ChangeDTO struct {
	ID           string    `json:"id"`
	EntryID      string    `json:"entry_id"`
	OldValues    ValuesDTO `json:"old_values"`
	NewValues    ValuesDTO `json:"new_values"`
	Reason       string    `json:"reason"`
	ActorID      string    `json:"actor_id"`
	Status       string    `json:"status"`
	ResponseNote string    `json:"response_note,omitempty"`
	CreatedAt    string    `json:"created_at"`
	RespondedAt  string    `json:"responded_at,omitempty"`
}

// ValuesDTO is the editable field subset inside change records.
type ValuesDTO struct {
	Category         string `json:"category"`
	Hours            string `json:"hours"`
	StartTime        string `json:"start_time,omitempty"`
	EndTime          string `json:"end_time,omitempty"`
	SurchargePercent int    `json:"surcharge_percent,omitempty"`
	Description      string `json:"description,omitempty"`
}

func toValuesDTO(v worktime.EntryValues) ValuesDTO {
	return ValuesDTO{
		Category:         string(v.Category),
		Hours:            v.Hours.String(),
		StartTime:        v.StartTime,
		EndTime:          v.EndTime,
		SurchargePercent: v.SurchargePercent,
		Description:      v.Description,
	}
}

func toChangeDTO(ch *worktime.ChangeRecord) ChangeDTO {
	dto := ChangeDTO{
		ID:           string(ch.ID),
		EntryID:      string(ch.EntryID),
		OldValues:    toValuesDTO(ch.OldValues),
		NewValues:    toValuesDTO(ch.NewValues),
		Reason:       ch.Reason,
		ActorID:      string(ch.ActorID),
		Status:       string(ch.Status),
		ResponseNote: ch.ResponseNote,
		CreatedAt:    ch.CreatedAt.Format(time.RFC3339),
	}
	if ch.RespondedAt != nil {
		dto.RespondedAt = ch.RespondedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// BALANCE TYPES
// =============================================================================

// StatsDTO is a target-vs-actual pair.
type StatsDTO struct {
	Target string `json:"target"`
	Actual string `json:"actual"`
	Diff   string `json:"diff"`
}

func toStatsDTO(s balance.Stats) StatsDTO {
	return StatsDTO{
		Target: s.Target.String(),
		Actual: s.Actual.String(),
		Diff:   s.Diff.String(),
	}
}

// DayReportDTO breaks one day down by category next to its stats.
type DayReportDTO struct {
	Date       string            `json:"date"`
	Work       string            `json:"work"`
	Break      string            `json:"break"`
	Reduction  string            `json:"reduction"`
	Absence    string            `json:"absence"`
	ByCategory map[string]string `json:"by_category,omitempty"`
	Stats      StatsDTO          `json:"stats"`
}

func toDayReportDTO(r *balance.DayReport) DayReportDTO {
	byCategory := make(map[string]string, len(r.Totals.ByCategory))
	for c, v := range r.Totals.ByCategory {
		byCategory[string(c)] = v.String()
	}
	return DayReportDTO{
		Date:       r.Date.String(),
		Work:       r.Totals.Work.String(),
		Break:      r.Totals.Break.String(),
		Reduction:  r.Totals.Reduction.String(),
		Absence:    r.Totals.Absence.String(),
		ByCategory: byCategory,
		Stats:      toStatsDTO(r.Stats),
	}
}

// =============================================================================
// QUOTA TYPES
// =============================================================================

// QuotaDTO represents one user's yearly quota.
type QuotaDTO struct {
	UserID        string `json:"user_id"`
	Year          int    `json:"year"`
	BaseDays      string `json:"base_days"`
	CarryoverDays string `json:"carryover_days"`
	Locked        bool   `json:"locked"`
	Revisions     int    `json:"revisions"`
	UpdatedAt     string `json:"updated_at"`
}

func toQuotaDTO(q *quota.YearlyQuota) QuotaDTO {
	return QuotaDTO{
		UserID:        string(q.UserID),
		Year:          q.Year,
		BaseDays:      q.BaseDays.String(),
		CarryoverDays: q.CarryoverDays.String(),
		Locked:        q.Locked,
		Revisions:     len(q.History),
		UpdatedAt:     q.UpdatedAt.Format(time.RFC3339),
	}
}

// ProposeQuotaRequest is a management change to a user's yearly quota.
type ProposeQuotaRequest struct {
	UserID        string `json:"user_id"`
	Year          int    `json:"year"`
	BaseDays      string `json:"base_days"`
	CarryoverDays string `json:"carryover_days"`
}

// QuotaNotificationDTO represents a quota change awaiting the employee.
type QuotaNotificationDTO struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	Year             int    `json:"year"`
	OldBaseDays      string `json:"old_base_days"`
	OldCarryoverDays string `json:"old_carryover_days"`
	NewBaseDays      string `json:"new_base_days"`
	NewCarryoverDays string `json:"new_carryover_days"`
	Status           string `json:"status"`
	RejectionReason  string `json:"rejection_reason,omitempty"`
	CreatedAt        string `json:"created_at"`
}

func toQuotaNotificationDTO(n *quota.ChangeNotification) QuotaNotificationDTO {
	return QuotaNotificationDTO{
		ID:               string(n.ID),
		UserID:           string(n.UserID),
		Year:             n.Year,
		OldBaseDays:      n.Old.BaseDays.String(),
		OldCarryoverDays: n.Old.CarryoverDays.String(),
		NewBaseDays:      n.New.BaseDays.String(),
		NewCarryoverDays: n.New.CarryoverDays.String(),
		Status:           string(n.Status),
		RejectionReason:  n.RejectionReason,
		CreatedAt:        n.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// SUPPORTING TYPES
// =============================================================================

// AbsenceDTO represents an absence range.
type AbsenceDTO struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Category string `json:"category"`
	Note     string `json:"note,omitempty"`
}

// CreateAbsenceRequest records a new absence range.
type CreateAbsenceRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Category string `json:"category"`
	Note     string `json:"note,omitempty"`
}

// WorkModelDTO maps weekday numbers (0=Sunday) to target hours.
type WorkModelDTO struct {
	UserID          string            `json:"user_id"`
	Targets         map[string]string `json:"targets"`
	DefaultStart    string            `json:"default_start,omitempty"`
	EmploymentStart string            `json:"employment_start,omitempty"`
}

// AdjustmentDTO represents a manual balance adjustment.
type AdjustmentDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Hours     string `json:"hours"`
	Reason    string `json:"reason"`
	CreatedBy string `json:"created_by,omitempty"`
	CreatedAt string `json:"created_at"`
}

// CreateAdjustmentRequest records a signed lifetime adjustment.
type CreateAdjustmentRequest struct {
	Hours  string `json:"hours"`
	Reason string `json:"reason"`
}

// SubmitRequest finalizes all days up to the given date.
type SubmitRequest struct {
	Through string `json:"through"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
