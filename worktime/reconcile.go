/*
reconcile.go - Net duration for one day

PURPOSE:
  Turns a day's categorized entries into net billable hours. Work-like
  entries lose the minutes they share with break entries, emergency
  service gains its surcharge, and categories that do not count toward
  totals are kept visible but excluded from the work sum.

CALCULATION ORDER (per work-like entry):
  1. raw minutes: manual hours when set, else start/end via interval
  2. minus overlap with every break entry of the day, floored at zero
  3. emergency only: multiply by (1 + surcharge/100)

ROBUSTNESS:
  Aggregation never fails on a malformed row. An entry that cannot be
  measured contributes zero and stays listed; one bad record must not
  blank the whole balance display.

SEE ALSO:
  - interval: minute arithmetic
  - balance: rolls day totals into monthly and lifetime figures
*/
package worktime

import (
	"github.com/shopspring/decimal"

	"github.com/warp/worktime-engine/interval"
)

var minutesPerHour = decimal.NewFromInt(60)

// EntryTotal is the reconciled figure for one entry.
type EntryTotal struct {
	EntryID          EntryID
	Category         Category
	Status           Status
	RawMinutes       int
	BreakOverlap     int // minutes removed by overlapping breaks
	Hours            decimal.Decimal
	CountsTowardWork bool
}

// DayTotals is the reconciled result for one user and one day.
type DayTotals struct {
	Date    Date
	Entries []EntryTotal

	Work      decimal.Decimal // net work-like hours including surcharges
	Break     decimal.Decimal
	Reduction decimal.Decimal // overtime reduction, shown separately
	Absence   decimal.Decimal // credited absence-category entries

	ByCategory map[Category]decimal.Decimal
}

// Net is the day's figure that counts against the target.
func (t *DayTotals) Net() decimal.Decimal {
	return t.Work.Add(t.Absence)
}

// ComputeDayTotals reconciles all entries of one day. Entries for other
// days, deleted and rejected entries are ignored for the work sum;
// deleted/rejected rows are dropped entirely, other entries are listed.
func ComputeDayTotals(date Date, entries []*Entry) *DayTotals {
	totals := &DayTotals{
		Date:       date,
		Work:       decimal.Zero,
		Break:      decimal.Zero,
		Reduction:  decimal.Zero,
		Absence:    decimal.Zero,
		ByCategory: make(map[Category]decimal.Decimal),
	}

	var day []*Entry
	for _, e := range entries {
		if e == nil || !e.Date.Equal(date) {
			continue
		}
		if !e.Status().CountsTowardTotals() {
			continue
		}
		day = append(day, e)
	}

	// Breaks first: work-like entries need them for overlap subtraction.
	var breaks []*Entry
	for _, e := range day {
		if e.Category == CategoryBreak {
			breaks = append(breaks, e)
		}
	}

	for _, e := range day {
		et := EntryTotal{
			EntryID:  e.ID,
			Category: e.Category,
			Status:   e.Status(),
		}

		switch {
		case e.Category == CategoryBreak:
			et.RawMinutes = rawMinutes(e)
			et.Hours = minutesToHours(et.RawMinutes)
			totals.Break = totals.Break.Add(et.Hours)

		case e.Category == CategoryOvertimeReduction:
			et.RawMinutes = rawMinutes(e)
			et.Hours = minutesToHours(et.RawMinutes)
			totals.Reduction = totals.Reduction.Add(et.Hours)

		case e.Category.IsAbsence():
			// Absence-category entries carry their credit directly and are
			// never reduced by breaks. Unpaid covers the day but credits 0.
			if e.Category.IsPaidAbsence() && e.Hours.IsPositive() {
				et.Hours = e.Hours
			} else {
				et.Hours = decimal.Zero
			}
			totals.Absence = totals.Absence.Add(et.Hours)

		case e.Category.IsWorkLike():
			et.RawMinutes = rawMinutes(e)
			et.BreakOverlap = breakOverlap(e, breaks)
			net := et.RawMinutes - et.BreakOverlap
			if net < 0 {
				net = 0
			}
			et.Hours = minutesToHours(net)
			if e.Category == CategoryEmergency && ValidSurcharge(e.SurchargePercent) {
				factor := decimal.NewFromInt(int64(100 + e.SurchargePercent)).
					Div(decimal.NewFromInt(100))
				et.Hours = et.Hours.Mul(factor)
			}
			et.CountsTowardWork = true
			totals.Work = totals.Work.Add(et.Hours)

		default:
			// Unknown category: contributes zero but stays listed.
			et.Hours = decimal.Zero
		}

		totals.ByCategory[e.Category] = totals.ByCategory[e.Category].Add(et.Hours)
		totals.Entries = append(totals.Entries, et)
	}

	return totals
}

// rawMinutes measures a single entry: manual hours win, otherwise the
// clock interval. Unmeasurable rows are worth zero.
func rawMinutes(e *Entry) int {
	if e.Hours.IsPositive() {
		return int(e.Hours.Mul(minutesPerHour).IntPart())
	}
	return interval.DurationMinutes(e.StartTime, e.EndTime)
}

// breakOverlap sums the minutes e shares with every break of the day.
// Entries without clock times cannot overlap anything.
func breakOverlap(e *Entry, breaks []*Entry) int {
	if e.StartTime == "" || e.EndTime == "" {
		return 0
	}
	sum := 0
	for _, b := range breaks {
		sum += interval.OverlapMinutes(e.StartTime, e.EndTime, b.StartTime, b.EndTime)
	}
	return sum
}

func minutesToHours(m int) decimal.Decimal {
	return decimal.NewFromInt(int64(m)).Div(minutesPerHour)
}
