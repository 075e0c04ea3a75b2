package worktime_test

import (
	"testing"
	"time"

	"github.com/warp/worktime-engine/worktime"
)

func TestGraceCutoff(t *testing.T) {
	policy := worktime.GracePolicy{}

	cases := []struct {
		name  string
		today worktime.Date
		want  worktime.Date
	}{
		{
			// Counting back from Monday: Sun and Sat are skipped for free,
			// Fri and Thu each consume one budget unit.
			name:  "monday lands on preceding thursday",
			today: worktime.NewDate(2025, time.March, 10), // Monday
			want:  worktime.NewDate(2025, time.March, 6),  // Thursday
		},
		{
			name:  "wednesday lands on monday",
			today: worktime.NewDate(2025, time.March, 12),
			want:  worktime.NewDate(2025, time.March, 10),
		},
		{
			name:  "tuesday crosses the weekend",
			today: worktime.NewDate(2025, time.March, 11),
			want:  worktime.NewDate(2025, time.March, 7), // Friday
		},
		{
			name:  "sunday lands on thursday",
			today: worktime.NewDate(2025, time.March, 9),
			want:  worktime.NewDate(2025, time.March, 6),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := policy.Cutoff(c.today)
			if !got.Equal(c.want) {
				t.Errorf("Cutoff(%s) = %s, want %s", c.today, got, c.want)
			}
		})
	}
}

func TestGraceIsLate(t *testing.T) {
	policy := worktime.GracePolicy{}
	monday := worktime.NewDate(2025, time.March, 10)

	// The cutoff itself (Thursday) may still be entered freely.
	if policy.IsLate(worktime.NewDate(2025, time.March, 6), monday) {
		t.Error("cutoff date itself should not be late")
	}
	// The day before the cutoff is late.
	if !policy.IsLate(worktime.NewDate(2025, time.March, 5), monday) {
		t.Error("day before cutoff should be late")
	}
	// Today and the future are never late.
	if policy.IsLate(monday, monday) {
		t.Error("today should not be late")
	}
}

func TestGraceCustomBudget(t *testing.T) {
	policy := worktime.GracePolicy{WorkingDays: 5}
	monday := worktime.NewDate(2025, time.March, 10)

	// Five working days back from Monday is the previous Monday.
	want := worktime.NewDate(2025, time.March, 3)
	if got := policy.Cutoff(monday); !got.Equal(want) {
		t.Errorf("Cutoff = %s, want %s", got, want)
	}
}
