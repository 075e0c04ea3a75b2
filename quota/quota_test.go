package quota_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/worktime-engine/quota"
	"github.com/warp/worktime-engine/worktime"
)

var (
	employee = worktime.Actor{ID: "emp-1", Role: worktime.RoleEmployee}
	admin    = worktime.Actor{ID: "admin-1", Role: worktime.RoleAdmin}
)

func newTestService() (*quota.Service, *quota.Memory) {
	mem := quota.NewMemory()
	svc := &quota.Service{
		Store: mem,
		Auth:  &worktime.StaticAuthority{},
		Now: func() time.Time {
			return time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)
		},
	}
	return svc, mem
}

func days(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestPropose_CreatesQuotaAndNotification(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	n, err := svc.Propose(ctx, admin, "emp-1", 2025, quota.Snapshot{
		BaseDays: days(30), CarryoverDays: days(2),
	})
	require.NoError(t, err)
	assert.Equal(t, quota.NotificationPending, n.Status)

	q, err := mem.GetQuota(ctx, "emp-1", 2025)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.True(t, q.BaseDays.Equal(days(30)), "change is live immediately")

	open, err := mem.OpenNotifications(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestPropose_KeepsAuditTrail(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	_, err := svc.Propose(ctx, admin, "emp-1", 2025, quota.Snapshot{BaseDays: days(30)})
	require.NoError(t, err)
	_, err = svc.Propose(ctx, admin, "emp-1", 2025, quota.Snapshot{BaseDays: days(28)})
	require.NoError(t, err)

	q, err := mem.GetQuota(ctx, "emp-1", 2025)
	require.NoError(t, err)
	require.Len(t, q.History, 1)
	assert.True(t, q.History[0].Values.BaseDays.Equal(days(30)))
	assert.True(t, q.BaseDays.Equal(days(28)))
}

func TestPropose_LockedQuotaRefused(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	require.NoError(t, mem.PutQuota(ctx, &quota.YearlyQuota{
		UserID: "emp-1", Year: 2024, BaseDays: days(30), Locked: true,
	}))
	_, err := svc.Propose(ctx, admin, "emp-1", 2024, quota.Snapshot{BaseDays: days(25)})
	assert.ErrorIs(t, err, worktime.ErrQuotaLocked)
}

func TestPropose_NonManagerRefused(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Propose(context.Background(), employee, "emp-2", 2025,
		quota.Snapshot{BaseDays: days(30)})
	assert.ErrorIs(t, err, worktime.ErrPermission)
}

func TestAcknowledge_Idempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	n, err := svc.Propose(ctx, admin, "emp-1", 2025, quota.Snapshot{BaseDays: days(30)})
	require.NoError(t, err)

	first, err := svc.Acknowledge(ctx, employee, n.ID)
	require.NoError(t, err)
	assert.Equal(t, quota.NotificationConfirmed, first.Status)

	second, err := svc.Acknowledge(ctx, employee, n.ID)
	require.NoError(t, err)
	assert.Equal(t, first.RespondedAt, second.RespondedAt)
}

func TestAcknowledge_OnlyTheEmployee(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	n, err := svc.Propose(ctx, admin, "emp-1", 2025, quota.Snapshot{BaseDays: days(30)})
	require.NoError(t, err)

	_, err = svc.Acknowledge(ctx, admin, n.ID)
	assert.ErrorIs(t, err, worktime.ErrPermission)
}

func TestReject_RequiresReasonAndRestoresOldValues(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	_, err := svc.Propose(ctx, admin, "emp-1", 2025, quota.Snapshot{BaseDays: days(30)})
	require.NoError(t, err)
	n2, err := svc.Propose(ctx, admin, "emp-1", 2025, quota.Snapshot{BaseDays: days(20)})
	require.NoError(t, err)

	_, err = svc.Reject(ctx, employee, n2.ID, "")
	assert.ErrorIs(t, err, worktime.ErrMissingReason)

	got, err := svc.Reject(ctx, employee, n2.ID, "my contract says 30")
	require.NoError(t, err)
	assert.Equal(t, quota.NotificationRejected, got.Status)

	q, err := mem.GetQuota(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assert.True(t, q.BaseDays.Equal(days(30)), "old snapshot restored, got %s", q.BaseDays)
}

func TestReject_SecondTimeUpdatesReason(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	n, err := svc.Propose(ctx, admin, "emp-1", 2025, quota.Snapshot{BaseDays: days(20)})
	require.NoError(t, err)
	_, err = svc.Reject(ctx, employee, n.ID, "first reason")
	require.NoError(t, err)

	got, err := svc.Reject(ctx, employee, n.ID, "better reason")
	require.NoError(t, err)
	assert.Equal(t, "better reason", got.RejectionReason)
}

func TestReject_AfterAcknowledgeRefused(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	n, err := svc.Propose(ctx, admin, "emp-1", 2025, quota.Snapshot{BaseDays: days(30)})
	require.NoError(t, err)
	_, err = svc.Acknowledge(ctx, employee, n.ID)
	require.NoError(t, err)

	_, err = svc.Reject(ctx, employee, n.ID, "changed my mind")
	assert.ErrorIs(t, err, worktime.ErrAlreadyConfirmed)
}
