// Package store provides worktime store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/worktime-engine/worktime"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements worktime.Store with maps. Entries are copied on every
// read and write so callers can never mutate stored state behind the
// version check.
type Memory struct {
	mu          sync.RWMutex
	entries     map[worktime.EntryID]*worktime.Entry
	changes     map[worktime.ChangeID]*worktime.ChangeRecord
	absences    map[worktime.UserID][]*worktime.Absence
	models      map[worktime.UserID]*worktime.WorkModel
	adjustments map[worktime.UserID][]*worktime.Adjustment
	submitted   map[worktime.UserID]worktime.Date
}

func NewMemory() *Memory {
	return &Memory{
		entries:     make(map[worktime.EntryID]*worktime.Entry),
		changes:     make(map[worktime.ChangeID]*worktime.ChangeRecord),
		absences:    make(map[worktime.UserID][]*worktime.Absence),
		models:      make(map[worktime.UserID]*worktime.WorkModel),
		adjustments: make(map[worktime.UserID][]*worktime.Adjustment),
		submitted:   make(map[worktime.UserID]worktime.Date),
	}
}

// =============================================================================
// ENTRY STORE
// =============================================================================

func (m *Memory) GetEntry(_ context.Context, id worktime.EntryID) (*worktime.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, worktime.ErrEntryNotFound
	}
	return copyEntry(e), nil
}

func (m *Memory) PutEntry(_ context.Context, e *worktime.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := copyEntry(e)
	stored.Version = 1
	m.entries[e.ID] = stored
	e.Version = 1
	return nil
}

func (m *Memory) UpdateEntry(_ context.Context, e *worktime.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateEntryLocked(e)
}

func (m *Memory) updateEntryLocked(e *worktime.Entry) error {
	stored, ok := m.entries[e.ID]
	if !ok {
		return worktime.ErrEntryNotFound
	}
	if stored.Version != e.Version {
		return &worktime.StaleEntryError{
			EntryID:   e.ID,
			Expected:  e.Version,
			Found:     stored.Version,
			Operation: "update",
		}
	}
	next := copyEntry(e)
	next.Version = stored.Version + 1
	m.entries[e.ID] = next
	e.Version = next.Version
	return nil
}

func (m *Memory) ListEntries(_ context.Context, user worktime.UserID, from, to worktime.Date) ([]*worktime.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*worktime.Entry
	for _, e := range m.entries {
		if e.UserID != user {
			continue
		}
		if from.BeforeOrEqual(e.Date) && e.Date.BeforeOrEqual(to) {
			result = append(result, copyEntry(e))
		}
	}
	sortEntries(result)
	return result, nil
}

func (m *Memory) ListByReviewer(_ context.Context, reviewer worktime.UserID) ([]*worktime.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*worktime.Entry
	for _, e := range m.entries {
		if e.ReviewerID == reviewer && e.UserID != reviewer {
			result = append(result, copyEntry(e))
		}
	}
	sortEntries(result)
	return result, nil
}

func (m *Memory) ListNotifications(_ context.Context, user worktime.UserID) ([]*worktime.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*worktime.Entry
	for _, e := range m.entries {
		if e.UserID != user {
			continue
		}
		open := e.DeletionRequested() ||
			(e.Deleted && !e.DeletionAcknowledged) ||
			e.EditPendingAck
		if open {
			result = append(result, copyEntry(e))
		}
	}
	sortEntries(result)
	return result, nil
}

func (m *Memory) SubmittedThrough(_ context.Context, user worktime.UserID) (worktime.Date, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.submitted[user]
	return d, ok, nil
}

func (m *Memory) SetSubmittedThrough(_ context.Context, user worktime.UserID, date worktime.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted[user] = date
	return nil
}

// =============================================================================
// HISTORY STORE
// =============================================================================

func (m *Memory) GetChange(_ context.Context, id worktime.ChangeID) (*worktime.ChangeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.changes[id]
	if !ok {
		return nil, worktime.ErrChangeNotFound
	}
	c := *ch
	return &c, nil
}

func (m *Memory) ListChanges(_ context.Context, entry worktime.EntryID) ([]*worktime.ChangeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*worktime.ChangeRecord
	for _, ch := range m.changes {
		if ch.EntryID == entry {
			c := *ch
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) ApplyChange(_ context.Context, e *worktime.Entry, ch *worktime.ChangeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.updateEntryLocked(e); err != nil {
		return err
	}
	c := *ch
	m.changes[ch.ID] = &c
	return nil
}

// =============================================================================
// SUPPORTING STORES
// =============================================================================

func (m *Memory) ListAbsences(_ context.Context, user worktime.UserID) ([]*worktime.Absence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*worktime.Absence, 0, len(m.absences[user]))
	for _, a := range m.absences[user] {
		c := *a
		result = append(result, &c)
	}
	return result, nil
}

func (m *Memory) PutAbsence(_ context.Context, a *worktime.Absence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *a
	m.absences[a.UserID] = append(m.absences[a.UserID], &c)
	return nil
}

func (m *Memory) GetWorkModel(_ context.Context, user worktime.UserID) (*worktime.WorkModel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mod, ok := m.models[user]
	if !ok {
		return nil, nil
	}
	c := *mod
	return &c, nil
}

func (m *Memory) PutWorkModel(_ context.Context, mod *worktime.WorkModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *mod
	m.models[mod.UserID] = &c
	return nil
}

func (m *Memory) ListAdjustments(_ context.Context, user worktime.UserID) ([]*worktime.Adjustment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*worktime.Adjustment, 0, len(m.adjustments[user]))
	for _, a := range m.adjustments[user] {
		c := *a
		result = append(result, &c)
	}
	return result, nil
}

func (m *Memory) PutAdjustment(_ context.Context, a *worktime.Adjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *a
	m.adjustments[a.UserID] = append(m.adjustments[a.UserID], &c)
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func copyEntry(e *worktime.Entry) *worktime.Entry {
	c := *e
	return &c
}

func sortEntries(entries []*worktime.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}
