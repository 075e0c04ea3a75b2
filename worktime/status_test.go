package worktime_test

import (
	"testing"
	"time"

	"github.com/warp/worktime-engine/worktime"
)

func baseEntry() *worktime.Entry {
	return &worktime.Entry{
		ID:       "e-1",
		UserID:   "emp-1",
		Date:     worktime.NewDate(2025, time.March, 3),
		Category: worktime.CategoryWork,
	}
}

func TestStatusOf_Precedence(t *testing.T) {
	now := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		mutate func(e *worktime.Entry)
		want   worktime.Status
	}{
		{
			name:   "plain work entry is active",
			mutate: func(e *worktime.Entry) {},
			want:   worktime.StatusActive,
		},
		{
			name:   "assigned reviewer pends peer review",
			mutate: func(e *worktime.Entry) { e.ReviewerID = "peer-1" },
			want:   worktime.StatusPendingPeerReview,
		},
		{
			name:   "reviewer equal to owner is ignored",
			mutate: func(e *worktime.Entry) { e.ReviewerID = e.UserID },
			want:   worktime.StatusActive,
		},
		{
			name:   "late entry pends late approval",
			mutate: func(e *worktime.Entry) { e.Late = true },
			want:   worktime.StatusPendingLateApproval,
		},
		{
			name:   "location category pends office review",
			mutate: func(e *worktime.Entry) { e.Category = worktime.CategoryTravel },
			want:   worktime.StatusPendingOfficeReview,
		},
		{
			name: "peer review outranks late approval",
			mutate: func(e *worktime.Entry) {
				e.ReviewerID = "peer-1"
				e.Late = true
			},
			want: worktime.StatusPendingPeerReview,
		},
		{
			name: "late approval outranks office review",
			mutate: func(e *worktime.Entry) {
				e.Category = worktime.CategorySite
				e.Late = true
			},
			want: worktime.StatusPendingLateApproval,
		},
		{
			name:   "confirmed",
			mutate: func(e *worktime.Entry) { e.ConfirmedAt = &now },
			want:   worktime.StatusConfirmed,
		},
		{
			name: "confirmation ends the pending review states",
			mutate: func(e *worktime.Entry) {
				e.ReviewerID = "peer-1"
				e.Late = true
				e.Category = worktime.CategoryTravel
				e.ConfirmedAt = &now
			},
			want: worktime.StatusConfirmed,
		},
		{
			name:   "rejected",
			mutate: func(e *worktime.Entry) { e.RejectedAt = &now },
			want:   worktime.StatusRejected,
		},
		{
			name: "edit ack outranks review states",
			mutate: func(e *worktime.Entry) {
				e.ReviewerID = "peer-1"
				e.EditPendingAck = true
			},
			want: worktime.StatusEditPendingAck,
		},
		{
			name: "edit ack outranks confirmed",
			mutate: func(e *worktime.Entry) {
				e.ConfirmedAt = &now
				e.EditPendingAck = true
			},
			want: worktime.StatusEditPendingAck,
		},
		{
			name: "deletion request outranks edit ack",
			mutate: func(e *worktime.Entry) {
				e.EditPendingAck = true
				e.DeletionRequestedAt = &now
			},
			want: worktime.StatusDeletionRequested,
		},
		{
			name: "deletion request outranks confirmed",
			mutate: func(e *worktime.Entry) {
				e.ConfirmedAt = &now
				e.DeletionRequestedAt = &now
			},
			want: worktime.StatusDeletionRequested,
		},
		{
			name: "deleted is terminal",
			mutate: func(e *worktime.Entry) {
				e.ConfirmedAt = &now
				e.EditPendingAck = true
				e.Deleted = true
			},
			want: worktime.StatusDeleted,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := baseEntry()
			c.mutate(e)
			if got := e.Status(); got != c.want {
				t.Errorf("status = %s, want %s", got, c.want)
			}
		})
	}
}

func TestStatus_CountsTowardTotals(t *testing.T) {
	counting := []worktime.Status{
		worktime.StatusActive,
		worktime.StatusConfirmed,
		worktime.StatusPendingPeerReview,
		worktime.StatusPendingOfficeReview,
		worktime.StatusPendingLateApproval,
		worktime.StatusDeletionRequested,
		worktime.StatusEditPendingAck,
	}
	for _, s := range counting {
		if !s.CountsTowardTotals() {
			t.Errorf("%s should count toward totals", s)
		}
	}
	for _, s := range []worktime.Status{worktime.StatusRejected, worktime.StatusDeleted} {
		if s.CountsTowardTotals() {
			t.Errorf("%s should not count toward totals", s)
		}
	}
}
