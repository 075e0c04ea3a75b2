/*
Package worktime tracks reported work time as discrete entries and owns
their review lifecycle.

PURPOSE:
  An Entry is one reported unit of time (work, break, travel, absence
  credit, ...) for one user on one calendar day. Entries are not final on
  creation: depending on category and age they pass through peer review,
  office review, or late-entry approval, and once confirmed they can only
  be edited or deleted through a request/acknowledge protocol that keeps
  the full history.

KEY CONCEPTS IN THIS FILE (types.go):
  - Category: what kind of time an entry reports, and how it counts
  - Entry: the persisted record with all review/edit/deletion fields
  - ChangeRecord: one audited edit applied to an existing entry
  - Absence: a date range expanded into synthetic daily credits
  - WorkModel: per-weekday target hours for one user
  - Adjustment: a manual signed hour delta seeding the lifetime balance

DESIGN PRINCIPLES:
  1. Status is computed, never stored: the persisted record keeps the raw
     timestamp/flag fields and status.go derives one tag from them.
  2. Precision: decimal.Decimal for hour values, integer minutes inside
     the interval arithmetic.
  3. Nothing is physically removed: deletion is a flag plus audit fields.

SEE ALSO:
  - status.go: computed status tag and precedence
  - lifecycle.go: transition operations and guards
  - reconcile.go: day totals from categorized entries
*/
package worktime

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntryID string
type UserID string
type ChangeID string
type AbsenceID string

// =============================================================================
// CATEGORY - What kind of time an entry reports
// =============================================================================

type Category string

const (
	CategoryWork  Category = "work"
	CategoryBreak Category = "break"

	// Location categories: count like work but need office confirmation.
	CategoryTravel Category = "travel"
	CategorySite   Category = "site"

	// Absence categories: credited from the work model, not from clock times.
	CategoryVacation  Category = "vacation"
	CategorySick      Category = "sick"
	CategoryHoliday   Category = "holiday"
	CategoryUnpaid    Category = "unpaid"
	CategoryChildSick Category = "child_sick"
	CategorySickPay   Category = "sick_pay"

	// CategoryOvertimeReduction consumes accumulated balance; excluded from
	// the day's work total but shown separately.
	CategoryOvertimeReduction Category = "overtime_reduction"

	// CategoryEmergency is on-call emergency service; counts like work and
	// may carry a surcharge percentage.
	CategoryEmergency Category = "emergency"
)

// IsLocation reports whether the category is one of the fixed location
// categories that require office review.
func (c Category) IsLocation() bool {
	return c == CategoryTravel || c == CategorySite
}

// IsWorkLike reports whether the category counts toward the day's work total.
func (c Category) IsWorkLike() bool {
	return c == CategoryWork || c.IsLocation() || c == CategoryEmergency
}

// IsAbsence reports whether the category is an absence credit.
func (c Category) IsAbsence() bool {
	switch c {
	case CategoryVacation, CategorySick, CategoryHoliday, CategoryUnpaid,
		CategoryChildSick, CategorySickPay:
		return true
	}
	return false
}

// IsPaidAbsence reports whether an absence of this category earns target
// credit. Unpaid absence covers the day but credits nothing.
func (c Category) IsPaidAbsence() bool {
	return c.IsAbsence() && c != CategoryUnpaid
}

func (c Category) Valid() bool {
	switch c {
	case CategoryWork, CategoryBreak, CategoryTravel, CategorySite,
		CategoryVacation, CategorySick, CategoryHoliday, CategoryUnpaid,
		CategoryChildSick, CategorySickPay,
		CategoryOvertimeReduction, CategoryEmergency:
		return true
	}
	return false
}

// ValidSurcharge reports whether pct is an allowed emergency-service
// surcharge value.
func ValidSurcharge(pct int) bool {
	return pct == 0 || pct == 25 || pct == 50 || pct == 100
}

// =============================================================================
// ACTOR - Who is performing a transition
// =============================================================================

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

type Actor struct {
	ID   UserID
	Role Role
}

// Authority answers organizational questions the engine does not own:
// who manages whom, and whose entries need mandatory peer confirmation.
// The caller supplies it; the engine never reads global state.
type Authority interface {
	// CanManage reports whether actor has management authority over owner.
	// Admins manage everyone.
	CanManage(actor Actor, owner UserID) bool

	// RequiresPeerReview reports whether the owner's role mandates a peer
	// reviewer on work and break entries.
	RequiresPeerReview(owner UserID) bool
}

// StaticAuthority is a map-backed Authority for tests and single-node use.
type StaticAuthority struct {
	Managers   map[UserID][]UserID // manager -> managed users
	PeerReview map[UserID]bool
}

func (a *StaticAuthority) CanManage(actor Actor, owner UserID) bool {
	if actor.Role == RoleAdmin {
		return true
	}
	if actor.Role != RoleManager {
		return false
	}
	for _, u := range a.Managers[actor.ID] {
		if u == owner {
			return true
		}
	}
	return false
}

func (a *StaticAuthority) RequiresPeerReview(owner UserID) bool {
	return a.PeerReview[owner]
}

// =============================================================================
// ENTRY - One reported unit of time
// =============================================================================

// Entry is the persisted record. The review/edit/deletion state is spread
// over nullable fields on purpose (mirroring the storage shape); the single
// mutually-exclusive status tag is derived in status.go.
type Entry struct {
	ID       EntryID
	UserID   UserID
	Date     Date
	Category Category

	// Measurement. Hours is authoritative when set; otherwise it is derived
	// from StartTime/EndTime. SurchargePercent only applies to emergency.
	Hours            decimal.Decimal
	StartTime        string // "HH:MM", empty when hours were entered manually
	EndTime          string
	SurchargePercent int

	Description string

	// Review fields.
	ReviewerID        UserID // peer reviewer, empty when none assigned
	ConfirmedAt       *time.Time
	ConfirmedBy       UserID
	RejectedAt        *time.Time
	RejectedBy        UserID
	RejectionReason   string
	Late              bool   // dated before the grace cutoff at creation time
	LateJustification string

	// Deletion fields. At most one of {DeletionRequestedAt set, Deleted}
	// holds at a time.
	Deleted              bool
	DeletedAt            *time.Time
	DeletedBy            UserID
	DeletionReason       string
	DeletionAcknowledged bool // owner has seen an already-applied deletion
	DeletionRequestedAt  *time.Time
	DeletionRequestedBy  UserID
	DeletionRequestNote  string

	// Edit fields.
	EditPendingAck  bool
	PendingChangeID ChangeID

	// Bookkeeping.
	Version   int64 // optimistic concurrency token, bumped by the store
	CreatedBy UserID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Confirmed reports whether the entry has passed its review path.
func (e *Entry) Confirmed() bool { return e.ConfirmedAt != nil }

// Rejected reports whether the entry is currently rejected.
func (e *Entry) Rejected() bool { return e.RejectedAt != nil }

// DeletionRequested reports whether a deletion request awaits the owner.
func (e *Entry) DeletionRequested() bool { return e.DeletionRequestedAt != nil }

// HasReviewer reports whether a peer reviewer other than the owner is
// assigned. A reviewer equal to the owner is treated as unassigned.
func (e *Entry) HasReviewer() bool {
	return e.ReviewerID != "" && e.ReviewerID != e.UserID
}

// Snapshot captures the editable measurement fields for change history.
func (e *Entry) Snapshot() EntryValues {
	return EntryValues{
		Category:         e.Category,
		Hours:            e.Hours,
		StartTime:        e.StartTime,
		EndTime:          e.EndTime,
		SurchargePercent: e.SurchargePercent,
		Description:      e.Description,
	}
}

// ApplyValues overwrites the editable fields from a snapshot.
func (e *Entry) ApplyValues(v EntryValues) {
	e.Category = v.Category
	e.Hours = v.Hours
	e.StartTime = v.StartTime
	e.EndTime = v.EndTime
	e.SurchargePercent = v.SurchargePercent
	e.Description = v.Description
}

// EntryValues is the editable subset of an entry, used both as the edit
// payload and as the before/after snapshots in change history.
type EntryValues struct {
	Category         Category
	Hours            decimal.Decimal
	StartTime        string
	EndTime          string
	SurchargePercent int
	Description      string
}

// =============================================================================
// CHANGE RECORD - One audited edit on an existing entry
// =============================================================================

type ChangeStatus string

const (
	ChangePending   ChangeStatus = "pending"
	ChangeConfirmed ChangeStatus = "confirmed"
	ChangeRejected  ChangeStatus = "rejected"
)

// ChangeRecord captures a single edit: old values, new values, who asked
// and why, and the owner's response. It is a two-party workflow scoped to
// that one edit.
type ChangeRecord struct {
	ID      ChangeID
	EntryID EntryID

	OldValues EntryValues
	NewValues EntryValues

	Reason  string
	ActorID UserID

	Status       ChangeStatus
	ResponseNote string

	CreatedAt   time.Time
	RespondedAt *time.Time
}

// =============================================================================
// ABSENCE - A date range of non-work time
// =============================================================================

type Absence struct {
	ID       AbsenceID
	UserID   UserID
	From     Date
	To       Date
	Category Category // one of the absence categories
	Note     string
}

// Covers reports whether the absence includes the given day.
func (a *Absence) Covers(d Date) bool {
	return a.From.BeforeOrEqual(d) && d.BeforeOrEqual(a.To)
}

// Days returns every calendar day in the range, inclusive.
func (a *Absence) Days() []Date {
	var days []Date
	EachDay(a.From, a.To, func(d Date) { days = append(days, d) })
	return days
}

// WeekdayCount counts the weekday-only days of the range inside year.
func (a *Absence) WeekdayCount(year int) int {
	n := 0
	EachDay(a.From, a.To, func(d Date) {
		if d.Year() == year && d.IsWorkday() {
			n++
		}
	})
	return n
}

// =============================================================================
// WORK MODEL - Per-weekday targets for one user
// =============================================================================

type WorkModel struct {
	UserID          UserID
	Targets         map[time.Weekday]decimal.Decimal
	DefaultStart    string // "HH:MM" suggestion for new entries
	EmploymentStart Date
}

// TargetFor returns the target hours for the given day, zero when the
// weekday has no entry in the model.
func (m *WorkModel) TargetFor(d Date) decimal.Decimal {
	if m == nil || m.Targets == nil {
		return decimal.Zero
	}
	t, ok := m.Targets[d.Weekday()]
	if !ok {
		return decimal.Zero
	}
	return t
}

// =============================================================================
// ADJUSTMENT - Manual signed hour delta on the lifetime balance
// =============================================================================

// Adjustment seeds or corrects the lifetime balance (e.g. hours carried
// over from a prior system). Append-only; summed directly into the
// lifetime figure.
type Adjustment struct {
	ID        string
	UserID    UserID
	Hours     decimal.Decimal // signed
	Reason    string          // mandatory
	CreatedBy UserID
	CreatedAt time.Time
}
