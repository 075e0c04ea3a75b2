/*
Package quota manages yearly absence quotas and their change workflow.

PURPOSE:
  A user's vacation quota for a year (base entitlement plus carryover)
  may be changed by administration, but the change only settles once the
  employee has seen it: every change raises a notification carrying the
  old and new snapshot, which the employee acknowledges or rejects with
  a reason. Structurally this is the same confirm/reject pattern the
  entry lifecycle uses, scoped to one quota revision.

LOCKING:
  A locked quota (e.g. a closed year) refuses new change proposals.

SEE ALSO:
  - worktime/errors.go: shared error kinds
  - balance: Entitlement consumes base and carryover from here
*/
package quota

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/worktime-engine/worktime"
)

// =============================================================================
// TYPES
// =============================================================================

type NotificationID string

type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationConfirmed NotificationStatus = "confirmed"
	NotificationRejected  NotificationStatus = "rejected"
)

// Snapshot is the value set of a quota at one point in time.
type Snapshot struct {
	BaseDays      decimal.Decimal
	CarryoverDays decimal.Decimal
}

// YearlyQuota is one user's absence quota for one calendar year.
type YearlyQuota struct {
	UserID worktime.UserID
	Year   int

	BaseDays      decimal.Decimal
	CarryoverDays decimal.Decimal
	Locked        bool

	// History holds prior value sets, oldest first.
	History []Revision

	UpdatedAt time.Time
}

func (q *YearlyQuota) snapshot() Snapshot {
	return Snapshot{BaseDays: q.BaseDays, CarryoverDays: q.CarryoverDays}
}

// Revision is one superseded value set in the audit trail.
type Revision struct {
	Values    Snapshot
	ChangedBy worktime.UserID
	ChangedAt time.Time
}

// ChangeNotification links an old/new quota snapshot awaiting the
// employee's answer.
type ChangeNotification struct {
	ID     NotificationID
	UserID worktime.UserID
	Year   int

	Old Snapshot
	New Snapshot

	Status          NotificationStatus
	RejectionReason string

	CreatedBy   worktime.UserID
	CreatedAt   time.Time
	RespondedAt *time.Time
}

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	// GetQuota returns the quota, or nil when none exists for the year.
	GetQuota(ctx context.Context, user worktime.UserID, year int) (*YearlyQuota, error)
	PutQuota(ctx context.Context, q *YearlyQuota) error

	GetNotification(ctx context.Context, id NotificationID) (*ChangeNotification, error)
	PutNotification(ctx context.Context, n *ChangeNotification) error
	UpdateNotification(ctx context.Context, n *ChangeNotification) error

	// OpenNotifications returns the user's pending notifications.
	OpenNotifications(ctx context.Context, user worktime.UserID) ([]*ChangeNotification, error)
}

// =============================================================================
// SERVICE
// =============================================================================

// Service runs the quota change workflow.
type Service struct {
	Store Store
	Auth  worktime.Authority
	Feed  worktime.Feed // optional

	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) notify(user worktime.UserID) {
	if s.Feed != nil {
		s.Feed.Publish(user)
	}
}

// Propose applies a quota change and raises the notification the
// employee must answer. The change is live immediately (the new values
// are what balance calculations see) but stays flagged until answered.
func (s *Service) Propose(ctx context.Context, actor worktime.Actor,
	user worktime.UserID, year int, values Snapshot) (*ChangeNotification, error) {

	if !s.Auth.CanManage(actor, user) {
		return nil, &worktime.PermissionError{Actor: actor.ID, Operation: "change quota for"}
	}

	q, err := s.Store.GetQuota(ctx, user, year)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var old Snapshot
	if q == nil {
		q = &YearlyQuota{UserID: user, Year: year}
	} else {
		if q.Locked {
			return nil, worktime.ErrQuotaLocked
		}
		old = q.snapshot()
		q.History = append(q.History, Revision{
			Values:    old,
			ChangedBy: actor.ID,
			ChangedAt: now,
		})
	}
	q.BaseDays = values.BaseDays
	q.CarryoverDays = values.CarryoverDays
	q.UpdatedAt = now
	if err := s.Store.PutQuota(ctx, q); err != nil {
		return nil, err
	}

	n := &ChangeNotification{
		ID:        NotificationID(uuid.NewString()),
		UserID:    user,
		Year:      year,
		Old:       old,
		New:       values,
		Status:    NotificationPending,
		CreatedBy: actor.ID,
		CreatedAt: now,
	}
	if err := s.Store.PutNotification(ctx, n); err != nil {
		return nil, err
	}
	s.notify(user)
	return n, nil
}

// Acknowledge is the employee's acceptance. Idempotent: acknowledging a
// settled notification again is a no-op.
func (s *Service) Acknowledge(ctx context.Context, actor worktime.Actor, id NotificationID) (*ChangeNotification, error) {
	n, err := s.Store.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != n.UserID {
		return nil, &worktime.PermissionError{Actor: actor.ID, Operation: "acknowledge quota change for"}
	}
	if n.Status == NotificationConfirmed {
		return n, nil // idempotent
	}
	if n.Status == NotificationRejected {
		return nil, worktime.ErrAlreadyRejected
	}

	now := s.now()
	n.Status = NotificationConfirmed
	n.RespondedAt = &now
	if err := s.Store.UpdateNotification(ctx, n); err != nil {
		return nil, err
	}
	s.notify(n.UserID)
	return n, nil
}

// Reject is the employee's refusal; the reason is mandatory. The quota
// values are restored from the old snapshot.
func (s *Service) Reject(ctx context.Context, actor worktime.Actor, id NotificationID, reason string) (*ChangeNotification, error) {
	if reason == "" {
		return nil, worktime.ErrMissingReason
	}
	n, err := s.Store.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != n.UserID {
		return nil, &worktime.PermissionError{Actor: actor.ID, Operation: "reject quota change for"}
	}
	if n.Status == NotificationRejected {
		// Second rejection just updates the reason.
		n.RejectionReason = reason
		if err := s.Store.UpdateNotification(ctx, n); err != nil {
			return nil, err
		}
		return n, nil
	}
	if n.Status == NotificationConfirmed {
		return nil, worktime.ErrAlreadyConfirmed
	}

	q, err := s.Store.GetQuota(ctx, n.UserID, n.Year)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if q != nil {
		q.BaseDays = n.Old.BaseDays
		q.CarryoverDays = n.Old.CarryoverDays
		q.UpdatedAt = now
		q.History = append(q.History, Revision{
			Values:    n.New,
			ChangedBy: actor.ID,
			ChangedAt: now,
		})
		if err := s.Store.PutQuota(ctx, q); err != nil {
			return nil, err
		}
	}

	n.Status = NotificationRejected
	n.RejectionReason = reason
	n.RespondedAt = &now
	if err := s.Store.UpdateNotification(ctx, n); err != nil {
		return nil, err
	}
	s.notify(n.UserID)
	return n, nil
}
