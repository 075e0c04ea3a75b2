package balance_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/worktime-engine/balance"
	"github.com/warp/worktime-engine/worktime"
	"github.com/warp/worktime-engine/worktime/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const user = worktime.UserID("emp-1")

func eight() decimal.Decimal { return decimal.NewFromInt(8) }

func newCalc(t *testing.T) (*balance.Calculator, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	require.NoError(t, mem.PutWorkModel(context.Background(), &worktime.WorkModel{
		UserID: user,
		Targets: map[time.Weekday]decimal.Decimal{
			time.Monday:    eight(),
			time.Tuesday:   eight(),
			time.Wednesday: eight(),
			time.Thursday:  eight(),
			time.Friday:    eight(),
		},
		DefaultStart:    "08:00",
		EmploymentStart: worktime.NewDate(2025, time.January, 1),
	}))
	calc := &balance.Calculator{
		Entries:     mem,
		Absences:    mem,
		Models:      mem,
		Adjustments: mem,
	}
	return calc, mem
}

func putWork(t *testing.T, mem *store.Memory, d worktime.Date, start, end string) {
	t.Helper()
	require.NoError(t, mem.PutEntry(context.Background(), &worktime.Entry{
		ID:        worktime.EntryID(d.String() + "-" + start),
		UserID:    user,
		Date:      d,
		Category:  worktime.CategoryWork,
		StartTime: start,
		EndTime:   end,
	}))
}

// =============================================================================
// DAILY
// =============================================================================

func TestDailyTarget_FollowsWorkModel(t *testing.T) {
	calc, mem := newCalc(t)
	model, _ := mem.GetWorkModel(context.Background(), user)

	monday := worktime.NewDate(2025, time.March, 3)
	saturday := worktime.NewDate(2025, time.March, 1)
	assert.True(t, calc.DailyTarget(monday, model).Equal(eight()))
	assert.True(t, calc.DailyTarget(saturday, model).IsZero())
}

func TestDailyTarget_HalfDays(t *testing.T) {
	calc, mem := newCalc(t)
	model, _ := mem.GetWorkModel(context.Background(), user)

	// Dec 24 2025 is a Wednesday: half of the 8h target.
	xmasEve := worktime.NewDate(2025, time.December, 24)
	assert.True(t, calc.DailyTarget(xmasEve, model).Equal(decimal.NewFromInt(4)))

	// When the half-day lands on a weekend nothing changes.
	xmasEve23 := worktime.NewDate(2023, time.December, 24) // Sunday
	assert.True(t, calc.DailyTarget(xmasEve23, model).IsZero())
}

func TestDay_WorkAgainstTarget(t *testing.T) {
	calc, mem := newCalc(t)
	monday := worktime.NewDate(2025, time.March, 3)
	putWork(t, mem, monday, "08:00", "15:00")

	report, err := calc.Day(context.Background(), user, monday)
	require.NoError(t, err)
	assert.True(t, report.Stats.Target.Equal(eight()))
	assert.True(t, report.Stats.Actual.Equal(decimal.NewFromInt(7)))
	assert.True(t, report.Stats.Diff.Equal(decimal.NewFromInt(-1)))
}

func TestDailyActual_PaidAbsenceCreditsTarget(t *testing.T) {
	calc, mem := newCalc(t)
	ctx := context.Background()
	monday := worktime.NewDate(2025, time.March, 3)
	require.NoError(t, mem.PutAbsence(ctx, &worktime.Absence{
		ID: "a-1", UserID: user,
		From: monday, To: monday.AddDays(4),
		Category: worktime.CategoryVacation,
	}))

	report, err := calc.Day(ctx, user, monday)
	require.NoError(t, err)
	assert.True(t, report.Stats.Actual.Equal(eight()), "full target credit")
}

func TestDailyActual_WorkEntryBlocksAbsenceCredit(t *testing.T) {
	calc, mem := newCalc(t)
	ctx := context.Background()
	monday := worktime.NewDate(2025, time.March, 3)
	require.NoError(t, mem.PutAbsence(ctx, &worktime.Absence{
		ID: "a-1", UserID: user,
		From: monday, To: monday,
		Category: worktime.CategorySick,
	}))
	putWork(t, mem, monday, "08:00", "11:00")

	report, err := calc.Day(ctx, user, monday)
	require.NoError(t, err)
	assert.True(t, report.Stats.Actual.Equal(decimal.NewFromInt(3)),
		"conflicting work suppresses the credit, actual = %s", report.Stats.Actual)
}

func TestDailyActual_UnpaidAbsenceCreditsNothing(t *testing.T) {
	calc, mem := newCalc(t)
	ctx := context.Background()
	monday := worktime.NewDate(2025, time.March, 3)
	require.NoError(t, mem.PutAbsence(ctx, &worktime.Absence{
		ID: "a-1", UserID: user,
		From: monday, To: monday,
		Category: worktime.CategoryUnpaid,
	}))

	report, err := calc.Day(ctx, user, monday)
	require.NoError(t, err)
	assert.True(t, report.Stats.Actual.IsZero())
}

// =============================================================================
// MONTHLY
// =============================================================================

func TestMonthlyStats_EmptyMonth(t *testing.T) {
	// GIVEN: 8h Mon-Fri, 0h weekend, zero entries
	// WHEN: computing March 2025 (21 weekdays)
	// THEN: target=168, actual=0, diff=-168

	calc, _ := newCalc(t)
	stats, err := calc.MonthlyStats(context.Background(), user, 2025, time.March)
	require.NoError(t, err)
	assert.True(t, stats.Target.Equal(decimal.NewFromInt(168)), "target = %s", stats.Target)
	assert.True(t, stats.Actual.IsZero())
	assert.True(t, stats.Diff.Equal(decimal.NewFromInt(-168)))
}

func TestMonthlyStats_WithWorkAndVacation(t *testing.T) {
	calc, mem := newCalc(t)
	ctx := context.Background()

	// One full week worked 8h/day, one week of vacation.
	for i := 0; i < 5; i++ {
		putWork(t, mem, worktime.NewDate(2025, time.March, 3+i), "08:00", "16:00")
	}
	require.NoError(t, mem.PutAbsence(ctx, &worktime.Absence{
		ID: "a-1", UserID: user,
		From:     worktime.NewDate(2025, time.March, 10),
		To:       worktime.NewDate(2025, time.March, 14),
		Category: worktime.CategoryVacation,
	}))

	stats, err := calc.MonthlyStats(ctx, user, 2025, time.March)
	require.NoError(t, err)
	assert.True(t, stats.Actual.Equal(decimal.NewFromInt(80)), "actual = %s", stats.Actual)
	assert.True(t, stats.Diff.Equal(decimal.NewFromInt(-88)))
}

func TestMonthlyStats_HalfDaysReduceDecemberTarget(t *testing.T) {
	calc, _ := newCalc(t)
	stats, err := calc.MonthlyStats(context.Background(), user, 2025, time.December)
	require.NoError(t, err)
	// 23 weekdays * 8h minus two half days on Dec 24 and Dec 31.
	assert.True(t, stats.Target.Equal(decimal.NewFromInt(176)), "target = %s", stats.Target)
}

// =============================================================================
// LIFETIME
// =============================================================================

func TestLifetimeStats_UnsetCutoffLeavesOnlyAdjustments(t *testing.T) {
	calc, mem := newCalc(t)
	ctx := context.Background()
	require.NoError(t, mem.PutAdjustment(ctx, &worktime.Adjustment{
		ID: "adj-1", UserID: user,
		Hours:  decimal.NewFromFloat(12.5),
		Reason: "carried over from previous system",
	}))

	stats, err := calc.LifetimeStats(ctx, user)
	require.NoError(t, err)
	assert.True(t, stats.Target.IsZero())
	assert.True(t, stats.Actual.Equal(decimal.NewFromFloat(12.5)))
}

func TestLifetimeStats_SubmittedRange(t *testing.T) {
	calc, mem := newCalc(t)
	ctx := context.Background()

	// Employment started Jan 1; the first full week of January is
	// submitted. Jan 1-3 2025 are Wed-Fri, Jan 6-10 the next week.
	for _, d := range []int{1, 2, 3, 6, 7, 8, 9, 10} {
		putWork(t, mem, worktime.NewDate(2025, time.January, d), "08:00", "16:00")
	}
	require.NoError(t, mem.SetSubmittedThrough(ctx, user, worktime.NewDate(2025, time.January, 12)))
	require.NoError(t, mem.PutAdjustment(ctx, &worktime.Adjustment{
		ID: "adj-1", UserID: user,
		Hours:  decimal.NewFromInt(10),
		Reason: "starting balance",
	}))

	// Unsubmitted later work must not count.
	putWork(t, mem, worktime.NewDate(2025, time.January, 20), "08:00", "16:00")

	stats, err := calc.LifetimeStats(ctx, user)
	require.NoError(t, err)
	assert.True(t, stats.Target.Equal(decimal.NewFromInt(64)), "target = %s", stats.Target)
	assert.True(t, stats.Actual.Equal(decimal.NewFromInt(74)), "actual = %s", stats.Actual)
	assert.True(t, stats.Diff.Equal(decimal.NewFromInt(10)))
}

// =============================================================================
// ENTITLEMENT
// =============================================================================

func TestEntitlement(t *testing.T) {
	calc, mem := newCalc(t)
	ctx := context.Background()

	// 26 unpaid weekdays: June 2 through July 7, 2025.
	require.NoError(t, mem.PutAbsence(ctx, &worktime.Absence{
		ID: "a-1", UserID: user,
		From:     worktime.NewDate(2025, time.June, 2),
		To:       worktime.NewDate(2025, time.July, 7),
		Category: worktime.CategoryUnpaid,
	}))

	got, err := calc.Entitlement(ctx, user, 2025,
		decimal.NewFromInt(30), decimal.NewFromInt(2))
	require.NoError(t, err)
	// 30 + 2 - (26/260)*30 = 29
	assert.True(t, got.Equal(decimal.NewFromInt(29)), "entitlement = %s", got)
}

func TestEntitlement_FlooredAtZero(t *testing.T) {
	calc, mem := newCalc(t)
	ctx := context.Background()
	require.NoError(t, mem.PutAbsence(ctx, &worktime.Absence{
		ID: "a-1", UserID: user,
		From:     worktime.NewDate(2025, time.January, 1),
		To:       worktime.NewDate(2025, time.December, 31),
		Category: worktime.CategoryUnpaid,
	}))

	got, err := calc.Entitlement(ctx, user, 2025,
		decimal.NewFromInt(5), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestEntitlement_NoUnpaid(t *testing.T) {
	calc, _ := newCalc(t)
	got, err := calc.Entitlement(context.Background(), user, 2025,
		decimal.NewFromInt(30), decimal.NewFromInt(2))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(32)))
}
