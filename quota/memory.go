package quota

import (
	"context"
	"errors"
	"sync"

	"github.com/warp/worktime-engine/worktime"
)

// ErrNotificationNotFound is returned by stores for unknown notification ids.
var ErrNotificationNotFound = errors.New("quota notification not found")

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu            sync.RWMutex
	quotas        map[quotaKey]*YearlyQuota
	notifications map[NotificationID]*ChangeNotification
}

type quotaKey struct {
	User worktime.UserID
	Year int
}

func NewMemory() *Memory {
	return &Memory{
		quotas:        make(map[quotaKey]*YearlyQuota),
		notifications: make(map[NotificationID]*ChangeNotification),
	}
}

func (m *Memory) GetQuota(_ context.Context, user worktime.UserID, year int) (*YearlyQuota, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quotas[quotaKey{User: user, Year: year}]
	if !ok {
		return nil, nil
	}
	c := *q
	c.History = append([]Revision(nil), q.History...)
	return &c, nil
}

func (m *Memory) PutQuota(_ context.Context, q *YearlyQuota) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *q
	c.History = append([]Revision(nil), q.History...)
	m.quotas[quotaKey{User: q.UserID, Year: q.Year}] = &c
	return nil
}

func (m *Memory) GetNotification(_ context.Context, id NotificationID) (*ChangeNotification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notifications[id]
	if !ok {
		return nil, ErrNotificationNotFound
	}
	c := *n
	return &c, nil
}

func (m *Memory) PutNotification(_ context.Context, n *ChangeNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *n
	m.notifications[n.ID] = &c
	return nil
}

func (m *Memory) UpdateNotification(_ context.Context, n *ChangeNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notifications[n.ID]; !ok {
		return ErrNotificationNotFound
	}
	c := *n
	m.notifications[n.ID] = &c
	return nil
}

func (m *Memory) OpenNotifications(_ context.Context, user worktime.UserID) ([]*ChangeNotification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*ChangeNotification
	for _, n := range m.notifications {
		if n.UserID == user && n.Status == NotificationPending {
			c := *n
			result = append(result, &c)
		}
	}
	return result, nil
}
