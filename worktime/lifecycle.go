/*
lifecycle.go - Entry transition operations

PURPOSE:
  The single writer of entry state. Every operation takes an actor,
  re-reads the entry from the store, checks its guards against that fresh
  state, and writes back with a version check. A precondition that no
  longer holds is reported as ErrConcurrentModification, never silently
  overwritten.

IDEMPOTENCE:
  Confirm and the acknowledgement operations are idempotent: re-running
  them against an entry already in the target state is a no-op, because
  duplicate submissions are expected under network retry. Reject is NOT
  idempotent the same way: re-rejecting needs a fresh reason.

REVIEW ROUTING AT CREATE:
  - owner's role mandates peer review  -> reviewer required on work/break
  - dated before the grace cutoff      -> justification required, routes
                                          to late approval
  - location category                  -> office review

EDIT SEMANTICS:
  An owner editing their own still-unconfirmed entry edits a draft: the
  change applies immediately and clears any rejection (re-entering the
  review path from the top). A manager edit, or any edit of a confirmed
  entry, applies optimistically but is recorded as a pending change the
  owner must accept or reject; rejection restores the prior values from
  the recorded snapshot.

SEE ALSO:
  - status.go: the tag consumers see after each transition
  - store.go: versioned writes
*/
package worktime

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/warp/worktime-engine/interval"
)

// Service owns entry transitions. All fields except Feed are required.
type Service struct {
	Entries EntryStore
	History HistoryStore
	Auth    Authority
	Grace   GracePolicy
	Feed    Feed // optional

	// Now is the clock, overridable in tests. Nil means time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) notify(user UserID) {
	if s.Feed != nil {
		s.Feed.Publish(user)
	}
}

// =============================================================================
// CREATE
// =============================================================================

// CreateInput carries everything needed to report a new entry.
type CreateInput struct {
	UserID            UserID
	Date              Date
	Category          Category
	Values            EntryValues // Category field inside is ignored
	ReviewerID        UserID
	LateJustification string
}

// Create validates and persists a new entry, routing it into the
// applicable review path. The actor is the owner or someone with
// management authority over the owner.
func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (*Entry, error) {
	if actor.ID != in.UserID && !s.Auth.CanManage(actor, in.UserID) {
		return nil, &PermissionError{Actor: actor.ID, Operation: "create for"}
	}
	if !in.Category.Valid() {
		return nil, &ValidationError{Field: "category", Message: "unknown category"}
	}
	if in.Date.IsZero() {
		return nil, &ValidationError{Field: "date", Message: "date is required"}
	}
	in.Values.Category = in.Category
	if err := validateValues(in.Values); err != nil {
		return nil, err
	}

	today := DateOf(s.now())
	late := s.Grace.IsLate(in.Date, today)
	if late && in.LateJustification == "" {
		return nil, &ValidationError{Field: "late_justification",
			Message: "entries before the grace cutoff need a justification"}
	}

	reviewer := in.ReviewerID
	if reviewer == in.UserID {
		reviewer = "" // no self-review
	}
	needsPeer := in.Category == CategoryWork || in.Category == CategoryBreak
	if needsPeer && reviewer == "" && s.Auth.RequiresPeerReview(in.UserID) {
		return nil, ErrMissingReviewer
	}

	now := s.now()
	e := &Entry{
		ID:                EntryID(uuid.NewString()),
		UserID:            in.UserID,
		Date:              in.Date,
		ReviewerID:        reviewer,
		Late:              late,
		LateJustification: in.LateJustification,
		CreatedBy:         actor.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	e.ApplyValues(in.Values)

	if err := s.Entries.PutEntry(ctx, e); err != nil {
		return nil, err
	}
	s.notify(e.UserID)
	return e, nil
}

// validateValues checks the measurement fields shared by create and edit.
func validateValues(v EntryValues) error {
	if v.Description == "" {
		return &ValidationError{Field: "description", Message: "description is required"}
	}
	if v.Hours.IsNegative() {
		return &ValidationError{Field: "hours", Message: "hours must not be negative"}
	}
	if v.StartTime != "" && !interval.IsValidClock(v.StartTime) {
		return &ValidationError{Field: "start_time", Message: "not a valid HH:MM clock"}
	}
	if v.EndTime != "" && !interval.IsValidClock(v.EndTime) {
		return &ValidationError{Field: "end_time", Message: "not a valid HH:MM clock"}
	}
	if !v.Category.IsAbsence() {
		measurable := v.Hours.IsPositive() ||
			(v.StartTime != "" && v.EndTime != "")
		if !measurable {
			return &ValidationError{Field: "hours",
				Message: "either hours or a start/end pair is required"}
		}
	}
	if v.Category == CategoryEmergency {
		if !ValidSurcharge(v.SurchargePercent) {
			return &ValidationError{Field: "surcharge_percent",
				Message: "surcharge must be one of 0, 25, 50, 100"}
		}
	} else if v.SurchargePercent != 0 {
		return &ValidationError{Field: "surcharge_percent",
			Message: "surcharge only applies to emergency service"}
	}
	return nil
}

// =============================================================================
// CONFIRM / REJECT
// =============================================================================

// Confirm marks the entry as reviewed. Allowed for the assigned peer
// reviewer, or for management on late/location entries. Confirming an
// already-confirmed entry is a no-op.
func (s *Service) Confirm(ctx context.Context, actor Actor, id EntryID) (*Entry, error) {
	e, err := s.Entries.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Deleted {
		return nil, &StaleEntryError{EntryID: id, Operation: "confirm",
			Expected: e.Version, Found: e.Version}
	}
	if e.Confirmed() {
		return e, nil // idempotent
	}
	if e.Rejected() {
		return nil, ErrAlreadyRejected
	}
	if err := s.mayReview(actor, e, "confirm"); err != nil {
		return nil, err
	}

	now := s.now()
	e.ConfirmedAt = &now
	e.ConfirmedBy = actor.ID
	e.UpdatedAt = now
	if err := s.Entries.UpdateEntry(ctx, e); err != nil {
		return nil, err
	}
	s.notify(e.UserID)
	return e, nil
}

// Reject marks the entry as rejected with a mandatory reason. The entry
// stays visible to the owner for correction. Rejecting an already
// rejected entry updates the reason.
func (s *Service) Reject(ctx context.Context, actor Actor, id EntryID, reason string) (*Entry, error) {
	if reason == "" {
		return nil, ErrMissingReason
	}
	e, err := s.Entries.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Deleted {
		return nil, &StaleEntryError{EntryID: id, Operation: "reject",
			Expected: e.Version, Found: e.Version}
	}
	if e.Confirmed() {
		return nil, ErrAlreadyConfirmed
	}
	if err := s.mayReview(actor, e, "reject"); err != nil {
		return nil, err
	}

	now := s.now()
	e.RejectedAt = &now
	e.RejectedBy = actor.ID
	e.RejectionReason = reason
	e.UpdatedAt = now
	if err := s.Entries.UpdateEntry(ctx, e); err != nil {
		return nil, err
	}
	s.notify(e.UserID)
	return e, nil
}

// mayReview checks review authority: the assigned reviewer in the peer
// case, management authority in the office/late cases.
func (s *Service) mayReview(actor Actor, e *Entry, op string) error {
	if e.HasReviewer() && actor.ID == e.ReviewerID {
		return nil
	}
	if (e.Late || e.Category.IsLocation()) && s.Auth.CanManage(actor, e.UserID) {
		return nil
	}
	// Entries with a reviewer may also be settled by management when no
	// peer path applies; everything else is refused.
	if e.HasReviewer() && s.Auth.CanManage(actor, e.UserID) {
		return nil
	}
	return &PermissionError{Actor: actor.ID, Operation: op, EntryID: e.ID}
}

// =============================================================================
// EDIT
// =============================================================================

// RequestEdit applies new values to an entry. Owner edits of a draft
// (never-confirmed) entry apply directly and clear any rejection; every
// other edit is recorded as a pending change the owner must answer.
// The new values are live either way, because totals should reflect the
// proposed state while it awaits acknowledgement.
func (s *Service) RequestEdit(ctx context.Context, actor Actor, id EntryID, values EntryValues, reason string) (*Entry, error) {
	if reason == "" {
		return nil, ErrMissingReason
	}
	e, err := s.Entries.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Deleted || e.DeletionRequested() {
		return nil, &StaleEntryError{EntryID: id, Operation: "edit",
			Expected: e.Version, Found: e.Version}
	}
	if e.EditPendingAck {
		// The previous edit must be answered before the next one.
		return nil, &StaleEntryError{EntryID: id, Operation: "edit",
			Expected: e.Version, Found: e.Version}
	}
	isOwner := actor.ID == e.UserID
	if !isOwner && !s.Auth.CanManage(actor, e.UserID) {
		return nil, &PermissionError{Actor: actor.ID, Operation: "edit", EntryID: e.ID}
	}
	if values.Category == "" {
		values.Category = e.Category
	}
	if !values.Category.Valid() {
		return nil, &ValidationError{Field: "category", Message: "unknown category"}
	}
	if err := validateValues(values); err != nil {
		return nil, err
	}

	now := s.now()

	if isOwner && !e.Confirmed() {
		// Draft edit: correct in place and re-enter review from the top.
		e.ApplyValues(values)
		e.RejectedAt = nil
		e.RejectedBy = ""
		e.RejectionReason = ""
		e.UpdatedAt = now
		if err := s.Entries.UpdateEntry(ctx, e); err != nil {
			return nil, err
		}
		s.notify(e.UserID)
		return e, nil
	}

	ch := &ChangeRecord{
		ID:        ChangeID(uuid.NewString()),
		EntryID:   e.ID,
		OldValues: e.Snapshot(),
		NewValues: values,
		Reason:    reason,
		ActorID:   actor.ID,
		Status:    ChangePending,
		CreatedAt: now,
	}
	e.ApplyValues(values)
	e.EditPendingAck = true
	e.PendingChangeID = ch.ID
	e.UpdatedAt = now

	if err := s.History.ApplyChange(ctx, e, ch); err != nil {
		return nil, err
	}
	s.notify(e.UserID)
	return e, nil
}

// RespondToEdit is the owner's answer to a pending change. Accepting
// confirms the already-applied values; rejecting restores the prior
// values from the recorded snapshot. Responding when nothing is pending
// is a no-op.
func (s *Service) RespondToEdit(ctx context.Context, actor Actor, id EntryID, accept bool, note string) (*Entry, error) {
	e, err := s.Entries.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != e.UserID {
		return nil, &PermissionError{Actor: actor.ID, Operation: "answer edit on", EntryID: e.ID}
	}
	if !e.EditPendingAck {
		return e, nil // idempotent
	}
	ch, err := s.History.GetChange(ctx, e.PendingChangeID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ch.RespondedAt = &now
	ch.ResponseNote = note
	if accept {
		ch.Status = ChangeConfirmed
	} else {
		ch.Status = ChangeRejected
		e.ApplyValues(ch.OldValues)
	}
	e.EditPendingAck = false
	e.PendingChangeID = ""
	e.UpdatedAt = now

	if err := s.History.ApplyChange(ctx, e, ch); err != nil {
		return nil, err
	}
	s.notify(e.UserID)
	return e, nil
}

// =============================================================================
// DELETION
// =============================================================================

// RequestDeletion starts removing an entry. An owner deleting their own
// never-confirmed entry deletes immediately; any other case records a
// request the owner must confirm. Reason is mandatory.
func (s *Service) RequestDeletion(ctx context.Context, actor Actor, id EntryID, reason string) (*Entry, error) {
	if reason == "" {
		return nil, ErrMissingReason
	}
	e, err := s.Entries.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Deleted {
		return nil, &StaleEntryError{EntryID: id, Operation: "request deletion of",
			Expected: e.Version, Found: e.Version}
	}
	if e.DeletionRequested() {
		return e, nil // request already open
	}
	isOwner := actor.ID == e.UserID
	if !isOwner && !s.Auth.CanManage(actor, e.UserID) {
		return nil, &PermissionError{Actor: actor.ID, Operation: "delete", EntryID: e.ID}
	}

	now := s.now()
	if isOwner && !e.Confirmed() {
		s.applyDeletion(e, actor.ID, reason, now)
		e.DeletionAcknowledged = true // the owner deleted it themselves
	} else {
		e.DeletionRequestedAt = &now
		e.DeletionRequestedBy = actor.ID
		e.DeletionRequestNote = reason
	}
	e.UpdatedAt = now
	if err := s.Entries.UpdateEntry(ctx, e); err != nil {
		return nil, err
	}
	s.notify(e.UserID)
	return e, nil
}

// ConfirmDeletion is the owner's acknowledgement of a pending deletion
// request; the entry becomes deleted. Confirming an already-deleted
// entry is a no-op.
func (s *Service) ConfirmDeletion(ctx context.Context, actor Actor, id EntryID) (*Entry, error) {
	e, err := s.Entries.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Deleted {
		return e, nil // idempotent
	}
	if actor.ID != e.UserID {
		return nil, &PermissionError{Actor: actor.ID, Operation: "confirm deletion of", EntryID: e.ID}
	}
	if !e.DeletionRequested() {
		// Request was withdrawn underneath the confirmation.
		return nil, &StaleEntryError{EntryID: id, Operation: "confirm deletion of",
			Expected: e.Version, Found: e.Version}
	}

	now := s.now()
	s.applyDeletion(e, e.DeletionRequestedBy, e.DeletionRequestNote, now)
	e.DeletionAcknowledged = true
	e.DeletionRequestedAt = nil
	e.DeletionRequestedBy = ""
	e.DeletionRequestNote = ""
	e.UpdatedAt = now
	if err := s.Entries.UpdateEntry(ctx, e); err != nil {
		return nil, err
	}
	s.notify(e.UserID)
	return e, nil
}

// WithdrawDeletionRequest takes an open deletion request back. Allowed
// for the requester, the owner, or management. Withdrawing when no
// request is open is a no-op.
func (s *Service) WithdrawDeletionRequest(ctx context.Context, actor Actor, id EntryID) (*Entry, error) {
	e, err := s.Entries.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Deleted {
		return nil, &StaleEntryError{EntryID: id, Operation: "withdraw deletion of",
			Expected: e.Version, Found: e.Version}
	}
	if !e.DeletionRequested() {
		return e, nil // idempotent
	}
	allowed := actor.ID == e.UserID || actor.ID == e.DeletionRequestedBy ||
		s.Auth.CanManage(actor, e.UserID)
	if !allowed {
		return nil, &PermissionError{Actor: actor.ID, Operation: "withdraw deletion of", EntryID: e.ID}
	}

	now := s.now()
	e.DeletionRequestedAt = nil
	e.DeletionRequestedBy = ""
	e.DeletionRequestNote = ""
	e.UpdatedAt = now
	if err := s.Entries.UpdateEntry(ctx, e); err != nil {
		return nil, err
	}
	s.notify(e.UserID)
	return e, nil
}

// AcknowledgeDeletion is the owner's acknowledgement of an already
// applied deletion (the legacy direct soft-delete path). Idempotent.
func (s *Service) AcknowledgeDeletion(ctx context.Context, actor Actor, id EntryID) (*Entry, error) {
	e, err := s.Entries.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != e.UserID {
		return nil, &PermissionError{Actor: actor.ID, Operation: "acknowledge deletion of", EntryID: e.ID}
	}
	if !e.Deleted {
		return nil, &StaleEntryError{EntryID: id, Operation: "acknowledge deletion of",
			Expected: e.Version, Found: e.Version}
	}
	if e.DeletionAcknowledged {
		return e, nil // idempotent
	}

	e.DeletionAcknowledged = true
	e.UpdatedAt = s.now()
	if err := s.Entries.UpdateEntry(ctx, e); err != nil {
		return nil, err
	}
	s.notify(e.UserID)
	return e, nil
}

func (s *Service) applyDeletion(e *Entry, by UserID, reason string, at time.Time) {
	e.Deleted = true
	e.DeletedAt = &at
	e.DeletedBy = by
	e.DeletionReason = reason
}

// =============================================================================
// QUERIES
// =============================================================================

// OpenNotifications returns the owner's entries that still need their
// response: pending deletion requests, unacknowledged deletions, and
// edits awaiting acknowledgement.
func (s *Service) OpenNotifications(ctx context.Context, owner UserID) ([]*Entry, error) {
	return s.Entries.ListNotifications(ctx, owner)
}

// PendingReview returns the entries waiting on the given peer reviewer.
func (s *Service) PendingReview(ctx context.Context, reviewer UserID) ([]*Entry, error) {
	entries, err := s.Entries.ListByReviewer(ctx, reviewer)
	if err != nil {
		return nil, err
	}
	var pending []*Entry
	for _, e := range entries {
		if e.Status() == StatusPendingPeerReview {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

// IsLate reports whether an entry dated d would enter the late-entry
// approval path if created now.
func (s *Service) IsLate(d Date) bool {
	return s.Grace.IsLate(d, DateOf(s.now()))
}
