/*
store.go - Persistence interfaces for entries and related data

PURPOSE:
  Defines the boundary between the engine and the durable store. The
  engine treats the store as a remote relational system reachable via
  request/response calls: every transition re-reads current state,
  mutates, and writes back with a version check. A write failure means
  the transition did not happen.

KEY INTERFACES:
  EntryStore:      entry reads, inserts, compare-and-apply updates
  HistoryStore:    change records, atomic entry+record writes
  AbsenceStore:    absence ranges
  WorkModelStore:  per-weekday target models
  AdjustmentStore: manual balance adjustments
  Feed:            change-notification fan-out ("user X changed")

VERSIONING:
  Entry.Version is the optimistic concurrency token. UpdateEntry must
  refuse a write whose version does not match the stored row and report
  it as a StaleEntryError, so a caller can re-read and retry.

IMPLEMENTATIONS:
  - worktime/store: in-memory, for tests
  - store/sqlite:   production SQLite

SEE ALSO:
  - lifecycle.go: the only writer of entries
  - balance:      read-only consumer
*/
package worktime

import "context"

// =============================================================================
// ENTRY STORE
// =============================================================================

type EntryStore interface {
	// GetEntry returns the entry or ErrEntryNotFound.
	GetEntry(ctx context.Context, id EntryID) (*Entry, error)

	// PutEntry inserts a new entry.
	PutEntry(ctx context.Context, e *Entry) error

	// UpdateEntry writes e if its Version matches the stored row, bumping
	// the version. A mismatch yields a StaleEntryError.
	UpdateEntry(ctx context.Context, e *Entry) error

	// ListEntries returns all entries for the user in [from, to],
	// including deleted and rejected ones; callers filter by status.
	ListEntries(ctx context.Context, user UserID, from, to Date) ([]*Entry, error)

	// ListByReviewer returns entries awaiting the given peer reviewer.
	ListByReviewer(ctx context.Context, reviewer UserID) ([]*Entry, error)

	// ListNotifications returns the owner's entries with open
	// acknowledgement duties: pending deletion requests, applied but
	// unacknowledged deletions, and edits awaiting the owner's response.
	ListNotifications(ctx context.Context, user UserID) ([]*Entry, error)

	// SubmittedThrough returns the latest date the user has finalized,
	// ok=false when the user never submitted.
	SubmittedThrough(ctx context.Context, user UserID) (Date, bool, error)

	// SetSubmittedThrough marks all days up to date as finalized.
	SetSubmittedThrough(ctx context.Context, user UserID, date Date) error
}

// =============================================================================
// HISTORY STORE
// =============================================================================

type HistoryStore interface {
	GetChange(ctx context.Context, id ChangeID) (*ChangeRecord, error)

	// ListChanges returns an entry's change records, oldest first.
	ListChanges(ctx context.Context, entry EntryID) ([]*ChangeRecord, error)

	// ApplyChange persists the updated entry and the change record in one
	// atomic write (upserting the record). The entry write follows
	// UpdateEntry's version rules.
	ApplyChange(ctx context.Context, e *Entry, ch *ChangeRecord) error
}

// =============================================================================
// SUPPORTING STORES
// =============================================================================

type AbsenceStore interface {
	ListAbsences(ctx context.Context, user UserID) ([]*Absence, error)
	PutAbsence(ctx context.Context, a *Absence) error
}

type WorkModelStore interface {
	// GetWorkModel returns the user's model, or nil when none configured.
	GetWorkModel(ctx context.Context, user UserID) (*WorkModel, error)
	PutWorkModel(ctx context.Context, m *WorkModel) error
}

type AdjustmentStore interface {
	ListAdjustments(ctx context.Context, user UserID) ([]*Adjustment, error)
	PutAdjustment(ctx context.Context, a *Adjustment) error
}

// Store is the full persistence surface a deployment provides.
type Store interface {
	EntryStore
	HistoryStore
	AbsenceStore
	WorkModelStore
	AdjustmentStore
}

// =============================================================================
// CHANGE FEED - "something changed for user X"
// =============================================================================

// Feed receives a user id after every successful transition. Consumers
// re-fetch and recompute; the event carries no interpreted payload.
type Feed interface {
	Publish(user UserID)
}

// ChannelFeed is a Feed backed by a buffered channel. Publish never
// blocks: when the buffer is full the event is dropped, which is safe
// because consumers recompute from the store anyway.
type ChannelFeed struct {
	C chan UserID
}

func NewChannelFeed(buffer int) *ChannelFeed {
	return &ChannelFeed{C: make(chan UserID, buffer)}
}

func (f *ChannelFeed) Publish(user UserID) {
	select {
	case f.C <- user:
	default:
	}
}
