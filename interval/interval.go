/*
Package interval converts clock times into minute arithmetic.

PURPOSE:
  Everything in this package operates on "HH:MM" clock strings and plain
  integer minutes. Entries may carry only a manual hours value and no
  start/end pair, so malformed or missing clock input is a valid state:
  every function here degrades to 0 instead of returning an error.

KEY OPERATIONS:
  ToMinutes:       "08:30" -> 510
  DurationMinutes: start/end span, adding 24h when the end wraps past
                   midnight ("23:00" -> "01:00" is 120 minutes)
  OverlapMinutes:  shared minutes of two intervals, 0 when disjoint

MIDNIGHT CROSSING:
  A shift may start at 22:00 and end at 06:00. DurationMinutes detects
  end < start and adds a day before subtracting. Overlap computation is
  done in plain minute space and does not unwrap midnight: callers that
  need cross-midnight overlap split the interval first.

SEE ALSO:
  - worktime/reconcile.go: subtracts break overlap from work intervals
*/
package interval

import (
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// ToMinutes parses an "HH:MM" clock string into minutes since midnight.
// Malformed input yields 0.
func ToMinutes(clock string) int {
	h, m, ok := splitClock(clock)
	if !ok {
		return 0
	}
	return h*60 + m
}

// IsValidClock reports whether clock is a well-formed "HH:MM" string.
func IsValidClock(clock string) bool {
	_, _, ok := splitClock(clock)
	return ok
}

// DurationMinutes returns the span between two clock times in minutes.
// An end before the start is treated as crossing midnight. Malformed
// input on either side yields 0.
func DurationMinutes(start, end string) int {
	if !IsValidClock(start) || !IsValidClock(end) {
		return 0
	}
	s := ToMinutes(start)
	e := ToMinutes(end)
	if e < s {
		e += minutesPerDay
	}
	d := e - s
	if d < 0 {
		return 0
	}
	return d
}

// OverlapMinutes returns the number of minutes two intervals share.
// Empty or malformed intervals overlap nothing.
func OverlapMinutes(startA, endA, startB, endB string) int {
	if !IsValidClock(startA) || !IsValidClock(endA) ||
		!IsValidClock(startB) || !IsValidClock(endB) {
		return 0
	}
	sa, ea := ToMinutes(startA), ToMinutes(endA)
	sb, eb := ToMinutes(startB), ToMinutes(endB)
	if ea <= sa || eb <= sb {
		return 0
	}
	lo := sa
	if sb > lo {
		lo = sb
	}
	hi := ea
	if eb < hi {
		hi = eb
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

func splitClock(clock string) (h, m int, ok bool) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	m, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
