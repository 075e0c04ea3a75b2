/*
status.go - Computed entry status

PURPOSE:
  The persisted entry keeps independent nullable timestamp/flag fields
  (confirmed_at, rejected_at, deletion_requested_at, is_deleted, ...).
  Their combination implies a state machine; this file makes it explicit.
  StatusOf derives exactly one tag from the raw fields, with the ordering
  below as the adopted contract. Display and aggregation both go through
  this one function so they can never disagree.

PRECEDENCE (first match wins):
  0. deleted                    terminal; nothing else matters
  1. deletion requested         owner must respond before anything else
  2. edit awaiting owner ack    proposed values are live but reversible
  3. pending peer review        assigned reviewer other than the owner
  4. pending late approval      dated before the grace cutoff at creation
  5. pending office review      location categories
  6. confirmed
  7. rejected
  8. active                     ordinary entry, no review required

SEE ALSO:
  - lifecycle.go: transitions that mutate the underlying fields
*/
package worktime

// Status is the single mutually-exclusive review tag of an entry.
type Status string

const (
	StatusActive              Status = "active"
	StatusPendingPeerReview   Status = "pending_peer_review"
	StatusPendingOfficeReview Status = "pending_office_review"
	StatusPendingLateApproval Status = "pending_late_approval"
	StatusConfirmed           Status = "confirmed"
	StatusRejected            Status = "rejected"
	StatusDeletionRequested   Status = "deletion_requested"
	StatusEditPendingAck      Status = "edit_pending_ack"
	StatusDeleted             Status = "deleted"
)

// Pending reports whether the status still awaits somebody's action.
func (s Status) Pending() bool {
	switch s {
	case StatusPendingPeerReview, StatusPendingOfficeReview,
		StatusPendingLateApproval, StatusDeletionRequested,
		StatusEditPendingAck:
		return true
	}
	return false
}

// CountsTowardTotals reports whether an entry in this status contributes
// to balance figures. Pending review states still count (totals reflect
// reported time until a reviewer says otherwise); rejected and deleted
// entries do not.
func (s Status) CountsTowardTotals() bool {
	return s != StatusRejected && s != StatusDeleted
}

// StatusOf computes the entry's status tag from its raw fields.
func StatusOf(e *Entry) Status {
	if e.Deleted {
		return StatusDeleted
	}
	if e.DeletionRequested() {
		return StatusDeletionRequested
	}
	if e.EditPendingAck {
		return StatusEditPendingAck
	}
	if !e.Confirmed() && !e.Rejected() {
		if e.HasReviewer() {
			return StatusPendingPeerReview
		}
		if e.Late {
			return StatusPendingLateApproval
		}
		if e.Category.IsLocation() {
			return StatusPendingOfficeReview
		}
	}
	if e.Confirmed() {
		return StatusConfirmed
	}
	if e.Rejected() {
		return StatusRejected
	}
	return StatusActive
}

// Status is a convenience receiver form of StatusOf.
func (e *Entry) Status() Status { return StatusOf(e) }

// needsReview reports whether the entry enters any review path at all.
func (e *Entry) needsReview() bool {
	return e.HasReviewer() || e.Late || e.Category.IsLocation()
}
