/*
Package balance rolls entries, absences and adjustments into
target-vs-actual figures.

PURPOSE:
  Answers "how is this user doing against their work model?" at three
  scales: one day, one month, lifetime. All calculations are pure reads
  over a snapshot of the stores; nothing here mutates state, and a
  snapshot that turns out stale is corrected by simply recomputing on the
  next read.

DAILY RULES:
  target: the work model's hours for that weekday, halved on the
          configured half-day dates (default Dec 24 and Dec 31) when
          they land on a weekday
  actual: the reconciled net work total, plus full target credit when a
          paid absence covers the day and no work entries conflict;
          unpaid absence covers the day but credits nothing

LIFETIME RULES:
  The range runs from the user's employment start to the latest
  submitted/finalized date. Days past that cutoff are in flight and are
  excluded rather than double-counted; without any cutoff only the
  manual adjustments count. Adjustment hours are summed straight into
  the actual figure.

SEE ALSO:
  - worktime/reconcile.go: the per-day work total
  - quota: yearly vacation quota whose base feeds Entitlement
*/
package balance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/worktime-engine/worktime"
)

var (
	half        = decimal.NewFromFloat(0.5)
	workYearDays = decimal.NewFromInt(260)
)

// HalfDay is a recurring calendar date with a halved target.
type HalfDay struct {
	Month time.Month
	Day   int
}

// Config carries the caller-supplied aggregation knobs.
type Config struct {
	// HalfDays defaults to Dec 24 and Dec 31 when nil.
	HalfDays []HalfDay
}

func (c Config) halfDays() []HalfDay {
	if c.HalfDays != nil {
		return c.HalfDays
	}
	return []HalfDay{
		{Month: time.December, Day: 24},
		{Month: time.December, Day: 31},
	}
}

func (c Config) isHalfDay(d worktime.Date) bool {
	for _, h := range c.halfDays() {
		if d.Month() == h.Month && d.Day() == h.Day {
			return true
		}
	}
	return false
}

// Stats is a target-vs-actual pair for some range.
type Stats struct {
	Target decimal.Decimal
	Actual decimal.Decimal
	Diff   decimal.Decimal
}

func newStats(target, actual decimal.Decimal) Stats {
	return Stats{Target: target, Actual: actual, Diff: actual.Sub(target)}
}

// Calculator computes balances over the stores. All methods are
// read-only and safe for concurrent use.
type Calculator struct {
	Entries     worktime.EntryStore
	Absences    worktime.AbsenceStore
	Models      worktime.WorkModelStore
	Adjustments worktime.AdjustmentStore
	Config      Config
}

// =============================================================================
// DAILY
// =============================================================================

// DailyTarget is the expected hours for one day under the model.
func (c *Calculator) DailyTarget(d worktime.Date, model *worktime.WorkModel) decimal.Decimal {
	target := model.TargetFor(d)
	if c.Config.isHalfDay(d) && d.IsWorkday() {
		target = target.Mul(half)
	}
	return target
}

// DailyActual is the day's counted hours: reconciled work plus absence
// credit per the daily rules above.
func (c *Calculator) DailyActual(d worktime.Date, model *worktime.WorkModel,
	entries []*worktime.Entry, absences []*worktime.Absence) decimal.Decimal {

	totals := worktime.ComputeDayTotals(d, entries)
	actual := totals.Net()

	if credit := c.absenceCredit(d, model, absences, totals); credit.IsPositive() {
		actual = actual.Add(credit)
	}
	return actual
}

// absenceCredit grants the full daily target when a paid absence covers
// the day and no work entries conflict with it.
func (c *Calculator) absenceCredit(d worktime.Date, model *worktime.WorkModel,
	absences []*worktime.Absence, totals *worktime.DayTotals) decimal.Decimal {

	if totals.Work.IsPositive() {
		return decimal.Zero
	}
	for _, a := range absences {
		if !a.Covers(d) {
			continue
		}
		if a.Category.IsPaidAbsence() {
			return c.DailyTarget(d, model)
		}
		// Unpaid covers the day but credits nothing.
		return decimal.Zero
	}
	return decimal.Zero
}

// DayReport bundles one day's figures for display.
type DayReport struct {
	Date   worktime.Date
	Totals *worktime.DayTotals
	Stats  Stats
}

// Day computes a single day's report.
func (c *Calculator) Day(ctx context.Context, user worktime.UserID, d worktime.Date) (*DayReport, error) {
	model, err := c.Models.GetWorkModel(ctx, user)
	if err != nil {
		return nil, err
	}
	entries, err := c.Entries.ListEntries(ctx, user, d, d)
	if err != nil {
		return nil, err
	}
	absences, err := c.Absences.ListAbsences(ctx, user)
	if err != nil {
		return nil, err
	}
	totals := worktime.ComputeDayTotals(d, entries)
	target := c.DailyTarget(d, model)
	actual := c.DailyActual(d, model, entries, absences)
	return &DayReport{Date: d, Totals: totals, Stats: newStats(target, actual)}, nil
}

// =============================================================================
// RANGES
// =============================================================================

// Range sums daily figures over [from, to].
func (c *Calculator) Range(ctx context.Context, user worktime.UserID, from, to worktime.Date) (Stats, error) {
	if to.Before(from) {
		return newStats(decimal.Zero, decimal.Zero), nil
	}
	model, err := c.Models.GetWorkModel(ctx, user)
	if err != nil {
		return Stats{}, err
	}
	entries, err := c.Entries.ListEntries(ctx, user, from, to)
	if err != nil {
		return Stats{}, err
	}
	absences, err := c.Absences.ListAbsences(ctx, user)
	if err != nil {
		return Stats{}, err
	}

	target := decimal.Zero
	actual := decimal.Zero
	worktime.EachDay(from, to, func(d worktime.Date) {
		target = target.Add(c.DailyTarget(d, model))
		actual = actual.Add(c.DailyActual(d, model, entries, absences))
	})
	return newStats(target, actual), nil
}

// MonthlyStats sums daily figures over one calendar month.
func (c *Calculator) MonthlyStats(ctx context.Context, user worktime.UserID, year int, month time.Month) (Stats, error) {
	return c.Range(ctx, user,
		worktime.StartOfMonth(year, month), worktime.EndOfMonth(year, month))
}

// LifetimeStats sums from employment start to the submitted cutoff and
// adds the manual adjustments. An unset cutoff leaves only adjustments.
func (c *Calculator) LifetimeStats(ctx context.Context, user worktime.UserID) (Stats, error) {
	adjustments, err := c.Adjustments.ListAdjustments(ctx, user)
	if err != nil {
		return Stats{}, err
	}
	adjusted := decimal.Zero
	for _, a := range adjustments {
		adjusted = adjusted.Add(a.Hours)
	}

	cutoff, ok, err := c.Entries.SubmittedThrough(ctx, user)
	if err != nil {
		return Stats{}, err
	}
	if !ok {
		return newStats(decimal.Zero, adjusted), nil
	}

	model, err := c.Models.GetWorkModel(ctx, user)
	if err != nil {
		return Stats{}, err
	}
	start := worktime.Date{}
	if model != nil {
		start = model.EmploymentStart
	}
	if start.IsZero() || cutoff.Before(start) {
		return newStats(decimal.Zero, adjusted), nil
	}

	stats, err := c.Range(ctx, user, start, cutoff)
	if err != nil {
		return Stats{}, err
	}
	return newStats(stats.Target, stats.Actual.Add(adjusted)), nil
}

// =============================================================================
// VACATION ENTITLEMENT
// =============================================================================

// Entitlement is the effective vacation allowance for a year:
// base + carryover, reduced pro rata by unpaid weekdays against a
// 260-workday year, floored at zero.
func (c *Calculator) Entitlement(ctx context.Context, user worktime.UserID,
	year int, base, carryover decimal.Decimal) (decimal.Decimal, error) {

	absences, err := c.Absences.ListAbsences(ctx, user)
	if err != nil {
		return decimal.Zero, err
	}
	unpaid := 0
	for _, a := range absences {
		if a.Category == worktime.CategoryUnpaid {
			unpaid += a.WeekdayCount(year)
		}
	}
	reduction := decimal.NewFromInt(int64(unpaid)).Div(workYearDays).Mul(base)
	result := base.Add(carryover).Sub(reduction)
	if result.IsNegative() {
		return decimal.Zero, nil
	}
	return result, nil
}
