package worktime_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/worktime-engine/worktime"
	"github.com/warp/worktime-engine/worktime/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	owner    = worktime.Actor{ID: "emp-1", Role: worktime.RoleEmployee}
	peer     = worktime.Actor{ID: "peer-1", Role: worktime.RoleEmployee}
	manager  = worktime.Actor{ID: "mgr-1", Role: worktime.RoleManager}
	stranger = worktime.Actor{ID: "other-1", Role: worktime.RoleEmployee}
)

func newTestService() (*worktime.Service, *store.Memory) {
	mem := store.NewMemory()
	svc := &worktime.Service{
		Entries: mem,
		History: mem,
		Auth: &worktime.StaticAuthority{
			Managers: map[worktime.UserID][]worktime.UserID{
				"mgr-1": {"emp-1", "peer-1"},
			},
		},
		// A fixed Tuesday keeps grace-period behavior deterministic.
		Now: func() time.Time {
			return time.Date(2025, time.March, 11, 9, 0, 0, 0, time.UTC)
		},
	}
	return svc, mem
}

func createInput(d worktime.Date) worktime.CreateInput {
	return worktime.CreateInput{
		UserID:   "emp-1",
		Date:     d,
		Category: worktime.CategoryWork,
		Values: worktime.EntryValues{
			StartTime:   "08:00",
			EndTime:     "16:00",
			Description: "project alpha",
		},
	}
}

func mustCreate(t *testing.T, svc *worktime.Service, in worktime.CreateInput) *worktime.Entry {
	t.Helper()
	e, err := svc.Create(context.Background(), owner, in)
	require.NoError(t, err)
	return e
}

func today() worktime.Date { return worktime.NewDate(2025, time.March, 11) }

// =============================================================================
// CREATE
// =============================================================================

func TestCreate_PlainEntryIsActive(t *testing.T) {
	svc, _ := newTestService()
	e := mustCreate(t, svc, createInput(today()))
	assert.Equal(t, worktime.StatusActive, e.Status())
	assert.False(t, e.Late)
}

func TestCreate_WithReviewerPendsPeerReview(t *testing.T) {
	svc, _ := newTestService()
	in := createInput(today())
	in.ReviewerID = "peer-1"
	e := mustCreate(t, svc, in)
	assert.Equal(t, worktime.StatusPendingPeerReview, e.Status())
}

func TestCreate_SelfReviewerIgnored(t *testing.T) {
	svc, _ := newTestService()
	in := createInput(today())
	in.ReviewerID = "emp-1"
	e := mustCreate(t, svc, in)
	assert.False(t, e.HasReviewer())
	assert.Equal(t, worktime.StatusActive, e.Status())
}

func TestCreate_MandatoryPeerReviewWithoutReviewer(t *testing.T) {
	svc, _ := newTestService()
	svc.Auth = &worktime.StaticAuthority{
		PeerReview: map[worktime.UserID]bool{"emp-1": true},
	}
	_, err := svc.Create(context.Background(), owner, createInput(today()))
	assert.ErrorIs(t, err, worktime.ErrMissingReviewer)
}

func TestCreate_LateEntryNeedsJustification(t *testing.T) {
	svc, _ := newTestService()

	// Tuesday March 11: cutoff is Friday March 7; March 5 is late.
	in := createInput(worktime.NewDate(2025, time.March, 5))
	_, err := svc.Create(context.Background(), owner, in)
	assert.ErrorIs(t, err, worktime.ErrValidation)

	in.LateJustification = "forgot to log after the customer visit"
	e, err := svc.Create(context.Background(), owner, in)
	require.NoError(t, err)
	assert.True(t, e.Late)
	assert.Equal(t, worktime.StatusPendingLateApproval, e.Status())
}

func TestCreate_LocationCategoryPendsOfficeReview(t *testing.T) {
	svc, _ := newTestService()
	in := createInput(today())
	in.Category = worktime.CategoryTravel
	e := mustCreate(t, svc, in)
	assert.Equal(t, worktime.StatusPendingOfficeReview, e.Status())
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	in := createInput(today())
	in.Values.Description = ""
	_, err := svc.Create(ctx, owner, in)
	assert.ErrorIs(t, err, worktime.ErrValidation, "empty description")

	in = createInput(today())
	in.Values.StartTime = ""
	in.Values.EndTime = ""
	_, err = svc.Create(ctx, owner, in)
	assert.ErrorIs(t, err, worktime.ErrValidation, "no measurement at all")

	in = createInput(today())
	in.Values.SurchargePercent = 50
	_, err = svc.Create(ctx, owner, in)
	assert.ErrorIs(t, err, worktime.ErrValidation, "surcharge on plain work")

	in = createInput(today())
	in.Category = worktime.CategoryEmergency
	in.Values.SurchargePercent = 30
	_, err = svc.Create(ctx, owner, in)
	assert.ErrorIs(t, err, worktime.ErrValidation, "surcharge not in 0/25/50/100")
}

func TestCreate_ByManagerOnBehalf(t *testing.T) {
	svc, _ := newTestService()
	e, err := svc.Create(context.Background(), manager, createInput(today()))
	require.NoError(t, err)
	assert.Equal(t, worktime.UserID("mgr-1"), e.CreatedBy)
	assert.Equal(t, worktime.UserID("emp-1"), e.UserID)
}

func TestCreate_ByStrangerRefused(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), stranger, createInput(today()))
	assert.ErrorIs(t, err, worktime.ErrPermission)
}

// =============================================================================
// CONFIRM / REJECT
// =============================================================================

func TestConfirm_ByAssignedReviewer(t *testing.T) {
	svc, _ := newTestService()
	in := createInput(today())
	in.ReviewerID = "peer-1"
	e := mustCreate(t, svc, in)

	got, err := svc.Confirm(context.Background(), peer, e.ID)
	require.NoError(t, err)
	assert.Equal(t, worktime.StatusConfirmed, got.Status())
	assert.Equal(t, worktime.UserID("peer-1"), got.ConfirmedBy)
}

func TestConfirm_Idempotent(t *testing.T) {
	// GIVEN: a confirmed entry
	// WHEN: the reviewer retries the confirmation
	// THEN: same final state, no error

	svc, _ := newTestService()
	in := createInput(today())
	in.ReviewerID = "peer-1"
	e := mustCreate(t, svc, in)

	ctx := context.Background()
	first, err := svc.Confirm(ctx, peer, e.ID)
	require.NoError(t, err)
	second, err := svc.Confirm(ctx, peer, e.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ConfirmedAt, second.ConfirmedAt)
	assert.Equal(t, first.ConfirmedBy, second.ConfirmedBy)
}

func TestConfirm_ByStrangerRefused(t *testing.T) {
	svc, _ := newTestService()
	in := createInput(today())
	in.ReviewerID = "peer-1"
	e := mustCreate(t, svc, in)

	_, err := svc.Confirm(context.Background(), stranger, e.ID)
	assert.ErrorIs(t, err, worktime.ErrPermission)
}

func TestConfirm_LateEntryByManager(t *testing.T) {
	svc, _ := newTestService()
	in := createInput(worktime.NewDate(2025, time.March, 5))
	in.LateJustification = "late customer visit"
	e := mustCreate(t, svc, in)

	got, err := svc.Confirm(context.Background(), manager, e.ID)
	require.NoError(t, err)
	assert.Equal(t, worktime.StatusConfirmed, got.Status())
}

func TestConfirm_RejectedEntryRefused(t *testing.T) {
	svc, _ := newTestService()
	in := createInput(today())
	in.ReviewerID = "peer-1"
	e := mustCreate(t, svc, in)

	ctx := context.Background()
	_, err := svc.Reject(ctx, peer, e.ID, "wrong project")
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, peer, e.ID)
	assert.ErrorIs(t, err, worktime.ErrAlreadyRejected)
}

func TestReject_RequiresReason(t *testing.T) {
	svc, _ := newTestService()
	in := createInput(today())
	in.ReviewerID = "peer-1"
	e := mustCreate(t, svc, in)

	_, err := svc.Reject(context.Background(), peer, e.ID, "")
	assert.ErrorIs(t, err, worktime.ErrMissingReason)
}

func TestReject_SecondRejectUpdatesReason(t *testing.T) {
	svc, _ := newTestService()
	in := createInput(today())
	in.ReviewerID = "peer-1"
	e := mustCreate(t, svc, in)

	ctx := context.Background()
	_, err := svc.Reject(ctx, peer, e.ID, "wrong project")
	require.NoError(t, err)

	_, err = svc.Reject(ctx, peer, e.ID, "")
	assert.ErrorIs(t, err, worktime.ErrMissingReason)

	got, err := svc.Reject(ctx, peer, e.ID, "also wrong hours")
	require.NoError(t, err)
	assert.Equal(t, "also wrong hours", got.RejectionReason)
}

func TestReject_ConfirmedEntryRefused(t *testing.T) {
	svc, _ := newTestService()
	in := createInput(today())
	in.ReviewerID = "peer-1"
	e := mustCreate(t, svc, in)

	ctx := context.Background()
	_, err := svc.Confirm(ctx, peer, e.ID)
	require.NoError(t, err)

	_, err = svc.Reject(ctx, peer, e.ID, "too late")
	assert.ErrorIs(t, err, worktime.ErrAlreadyConfirmed)
}

// =============================================================================
// EDIT
// =============================================================================

func newValues() worktime.EntryValues {
	return worktime.EntryValues{
		StartTime:   "09:00",
		EndTime:     "17:30",
		Description: "project alpha, corrected",
	}
}

func TestRequestEdit_OwnerDraftAppliesDirectly(t *testing.T) {
	svc, mem := newTestService()
	e := mustCreate(t, svc, createInput(today()))

	got, err := svc.RequestEdit(context.Background(), owner, e.ID, newValues(), "typo")
	require.NoError(t, err)
	assert.Equal(t, "09:00", got.StartTime)
	assert.False(t, got.EditPendingAck)

	// No history row for a draft edit.
	changes, err := mem.ListChanges(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestRequestEdit_OwnerCorrectionClearsRejection(t *testing.T) {
	// GIVEN: a rejected entry
	// WHEN: the owner corrects it
	// THEN: rejection fields clear and the review path restarts

	svc, _ := newTestService()
	in := createInput(today())
	in.ReviewerID = "peer-1"
	e := mustCreate(t, svc, in)

	ctx := context.Background()
	_, err := svc.Reject(ctx, peer, e.ID, "wrong hours")
	require.NoError(t, err)

	got, err := svc.RequestEdit(ctx, owner, e.ID, newValues(), "fixed the hours")
	require.NoError(t, err)
	assert.False(t, got.Rejected())
	assert.Equal(t, worktime.StatusPendingPeerReview, got.Status())
}

func TestRequestEdit_RequiresReason(t *testing.T) {
	svc, _ := newTestService()
	e := mustCreate(t, svc, createInput(today()))
	_, err := svc.RequestEdit(context.Background(), owner, e.ID, newValues(), "")
	assert.ErrorIs(t, err, worktime.ErrMissingReason)
}

func TestRequestEdit_ManagerEditCreatesPendingChange(t *testing.T) {
	// GIVEN: a confirmed entry
	// WHEN: a manager edits it
	// THEN: exactly one pending history row, values applied optimistically,
	//       entry flagged for owner acknowledgement

	svc, mem := newTestService()
	in := createInput(today())
	in.ReviewerID = "peer-1"
	e := mustCreate(t, svc, in)

	ctx := context.Background()
	_, err := svc.Confirm(ctx, peer, e.ID)
	require.NoError(t, err)

	got, err := svc.RequestEdit(ctx, manager, e.ID, newValues(), "customer billed 8.5h")
	require.NoError(t, err)
	assert.Equal(t, worktime.StatusEditPendingAck, got.Status())
	assert.Equal(t, "09:00", got.StartTime, "new values live immediately")

	changes, err := mem.ListChanges(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, worktime.ChangePending, changes[0].Status)
	assert.Equal(t, "08:00", changes[0].OldValues.StartTime)
	assert.Equal(t, "09:00", changes[0].NewValues.StartTime)
}

func TestRespondToEdit_AcceptConfirmsChange(t *testing.T) {
	svc, mem := newTestService()
	e := mustCreate(t, svc, createInput(today()))

	ctx := context.Background()
	_, err := svc.RequestEdit(ctx, manager, e.ID, newValues(), "correction")
	require.NoError(t, err)

	got, err := svc.RespondToEdit(ctx, owner, e.ID, true, "fine")
	require.NoError(t, err)
	assert.False(t, got.EditPendingAck)
	assert.Equal(t, "09:00", got.StartTime)

	changes, _ := mem.ListChanges(ctx, e.ID)
	require.Len(t, changes, 1)
	assert.Equal(t, worktime.ChangeConfirmed, changes[0].Status)
}

func TestRespondToEdit_RejectRestoresPriorValues(t *testing.T) {
	svc, mem := newTestService()
	in := createInput(today())
	in.Values.Hours = decimal.NewFromFloat(7.5)
	in.Values.StartTime = "08:00"
	in.Values.EndTime = "16:00"
	e := mustCreate(t, svc, in)

	ctx := context.Background()
	_, err := svc.RequestEdit(ctx, manager, e.ID, newValues(), "correction")
	require.NoError(t, err)

	got, err := svc.RespondToEdit(ctx, owner, e.ID, false, "that is not what I worked")
	require.NoError(t, err)
	assert.Equal(t, "08:00", got.StartTime)
	assert.Equal(t, "16:00", got.EndTime)
	assert.True(t, got.Hours.Equal(decimal.NewFromFloat(7.5)))
	assert.False(t, got.EditPendingAck)

	changes, _ := mem.ListChanges(ctx, e.ID)
	require.Len(t, changes, 1)
	assert.Equal(t, worktime.ChangeRejected, changes[0].Status)
	assert.Equal(t, "that is not what I worked", changes[0].ResponseNote)
}

func TestRespondToEdit_NothingPendingIsNoop(t *testing.T) {
	svc, _ := newTestService()
	e := mustCreate(t, svc, createInput(today()))
	got, err := svc.RespondToEdit(context.Background(), owner, e.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, worktime.StatusActive, got.Status())
}

func TestRequestEdit_SecondEditWhilePendingRefused(t *testing.T) {
	svc, _ := newTestService()
	e := mustCreate(t, svc, createInput(today()))

	ctx := context.Background()
	_, err := svc.RequestEdit(ctx, manager, e.ID, newValues(), "first")
	require.NoError(t, err)

	_, err = svc.RequestEdit(ctx, manager, e.ID, newValues(), "second")
	assert.ErrorIs(t, err, worktime.ErrConcurrentModification)
}

// =============================================================================
// DELETION
// =============================================================================

func TestRequestDeletion_OwnerDraftDeletesImmediately(t *testing.T) {
	svc, _ := newTestService()
	e := mustCreate(t, svc, createInput(today()))

	got, err := svc.RequestDeletion(context.Background(), owner, e.ID, "duplicate entry")
	require.NoError(t, err)
	assert.Equal(t, worktime.StatusDeleted, got.Status())
	assert.True(t, got.DeletionAcknowledged)
}

func TestRequestDeletion_ManagerCreatesRequest(t *testing.T) {
	svc, _ := newTestService()
	e := mustCreate(t, svc, createInput(today()))

	got, err := svc.RequestDeletion(context.Background(), manager, e.ID, "booked on wrong day")
	require.NoError(t, err)
	assert.Equal(t, worktime.StatusDeletionRequested, got.Status())
	assert.False(t, got.Deleted)
}

func TestRequestDeletion_RequiresReason(t *testing.T) {
	svc, _ := newTestService()
	e := mustCreate(t, svc, createInput(today()))
	_, err := svc.RequestDeletion(context.Background(), manager, e.ID, "")
	assert.ErrorIs(t, err, worktime.ErrMissingReason)
}

func TestConfirmDeletion_OwnerAcknowledges(t *testing.T) {
	svc, _ := newTestService()
	e := mustCreate(t, svc, createInput(today()))

	ctx := context.Background()
	_, err := svc.RequestDeletion(ctx, manager, e.ID, "booked on wrong day")
	require.NoError(t, err)

	got, err := svc.ConfirmDeletion(ctx, owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, worktime.StatusDeleted, got.Status())
	assert.Equal(t, worktime.UserID("mgr-1"), got.DeletedBy)
	assert.Equal(t, "booked on wrong day", got.DeletionReason)
	assert.False(t, got.DeletionRequested(), "request fields cleared")

	// Retried acknowledgement is a no-op.
	_, err = svc.ConfirmDeletion(ctx, owner, e.ID)
	assert.NoError(t, err)
}

func TestConfirmDeletion_OnlyOwner(t *testing.T) {
	svc, _ := newTestService()
	e := mustCreate(t, svc, createInput(today()))

	ctx := context.Background()
	_, err := svc.RequestDeletion(ctx, manager, e.ID, "wrong day")
	require.NoError(t, err)

	_, err = svc.ConfirmDeletion(ctx, manager, e.ID)
	assert.ErrorIs(t, err, worktime.ErrPermission)
}

func TestWithdrawDeletionRequest(t *testing.T) {
	svc, _ := newTestService()
	e := mustCreate(t, svc, createInput(today()))

	ctx := context.Background()
	_, err := svc.RequestDeletion(ctx, manager, e.ID, "wrong day")
	require.NoError(t, err)

	got, err := svc.WithdrawDeletionRequest(ctx, manager, e.ID)
	require.NoError(t, err)
	assert.Equal(t, worktime.StatusActive, got.Status())

	// Confirming after the withdrawal is a stale transition.
	_, err = svc.ConfirmDeletion(ctx, owner, e.ID)
	assert.ErrorIs(t, err, worktime.ErrConcurrentModification)
}

func TestAcknowledgeDeletion_LegacySoftDelete(t *testing.T) {
	// GIVEN: an entry soft-deleted directly (legacy path), not yet seen
	// WHEN: the owner acknowledges
	// THEN: the acknowledgement sticks and is idempotent

	svc, mem := newTestService()
	e := mustCreate(t, svc, createInput(today()))

	ctx := context.Background()
	stored, err := mem.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	now := time.Now()
	stored.Deleted = true
	stored.DeletedAt = &now
	stored.DeletedBy = "mgr-1"
	stored.DeletionReason = "cleanup"
	require.NoError(t, mem.UpdateEntry(ctx, stored))

	notes, err := svc.OpenNotifications(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, notes, 1)

	got, err := svc.AcknowledgeDeletion(ctx, owner, e.ID)
	require.NoError(t, err)
	assert.True(t, got.DeletionAcknowledged)

	_, err = svc.AcknowledgeDeletion(ctx, owner, e.ID)
	assert.NoError(t, err)

	notes, err = svc.OpenNotifications(ctx, "emp-1")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestStaleUpdateDetected(t *testing.T) {
	// GIVEN: two actors holding the same entry snapshot
	// WHEN: both write
	// THEN: the second write fails with a retryable conflict

	svc, mem := newTestService()
	e := mustCreate(t, svc, createInput(today()))

	ctx := context.Background()
	a, err := mem.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	b, err := mem.GetEntry(ctx, e.ID)
	require.NoError(t, err)

	a.Description = "first writer"
	require.NoError(t, mem.UpdateEntry(ctx, a))

	b.Description = "second writer"
	err = mem.UpdateEntry(ctx, b)
	assert.ErrorIs(t, err, worktime.ErrConcurrentModification)
	assert.True(t, worktime.IsRetryable(err))
}

// =============================================================================
// QUERIES & FEED
// =============================================================================

func TestPendingReview(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	in := createInput(today())
	in.ReviewerID = "peer-1"
	e1 := mustCreate(t, svc, in)
	in2 := createInput(today().AddDays(-1))
	in2.ReviewerID = "peer-1"
	e2 := mustCreate(t, svc, in2)

	_, err := svc.Confirm(ctx, peer, e1.ID)
	require.NoError(t, err)

	pending, err := svc.PendingReview(ctx, "peer-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, e2.ID, pending[0].ID)
}

func TestFeedPublishesOnTransitions(t *testing.T) {
	svc, _ := newTestService()
	feed := worktime.NewChannelFeed(16)
	svc.Feed = feed

	e := mustCreate(t, svc, createInput(today()))
	_, err := svc.RequestDeletion(context.Background(), owner, e.ID, "duplicate")
	require.NoError(t, err)

	assert.Len(t, feed.C, 2)
	assert.Equal(t, worktime.UserID("emp-1"), <-feed.C)
}

func TestIsLate(t *testing.T) {
	svc, _ := newTestService()
	// Today is Tuesday March 11; cutoff is Friday March 7.
	assert.False(t, svc.IsLate(worktime.NewDate(2025, time.March, 7)))
	assert.True(t, svc.IsLate(worktime.NewDate(2025, time.March, 6)))
}
