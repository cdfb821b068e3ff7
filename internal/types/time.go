package types

import "time"

// TimeLayout is the timestamp format used on the wire and in the ledger,
// matching the terminal's second-resolution clock.
const TimeLayout = "2006-01-02 15:04:05"

// ParseTime parses a ledger/bridge timestamp. The zero time is returned for
// empty or malformed values.
func ParseTime(s string) time.Time {
	t, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatTime renders t in the ledger/bridge timestamp format.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// SameLocalDay reports whether both instants fall on the same calendar date
// in the process-local time zone. This is the single "today" boundary used by
// the daily account-risk checks.
func SameLocalDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
