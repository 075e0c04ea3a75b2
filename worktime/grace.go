/*
grace.go - Late-entry cutoff policy

PURPOSE:
  Entries for days long past need a justification and administrative
  approval. "Long past" is a rolling working-day count-back: the default
  budget of two working days means an entry created on a Monday may still
  freely cover the preceding Thursday, because Saturday and Sunday are
  stepped over without consuming budget.

SEE ALSO:
  - lifecycle.go: Create routes late entries into the approval path
*/
package worktime

// GracePolicy computes the late-entry cutoff. The zero value uses the
// standard two-working-day budget.
type GracePolicy struct {
	// WorkingDays is the count-back budget. Values < 1 mean the default.
	WorkingDays int
}

const defaultGraceDays = 2

// Cutoff returns the earliest date that may still be entered without the
// late-entry path. Stepping back from today, weekend days are skipped
// without consuming budget; each weekday consumes one unit.
func (p GracePolicy) Cutoff(today Date) Date {
	budget := p.WorkingDays
	if budget < 1 {
		budget = defaultGraceDays
	}
	d := today
	for budget > 0 {
		d = d.AddDays(-1)
		if d.IsWorkday() {
			budget--
		}
	}
	return d
}

// IsLate reports whether an entry dated entryDate, created on today,
// requires justification and administrative approval.
func (p GracePolicy) IsLate(entryDate, today Date) bool {
	return entryDate.Before(p.Cutoff(today))
}
