package claims

import "time"

// =============================================================================
// CLOCK - Injectable source of "now"
// =============================================================================

// Clock supplies the current local date/time. Every lifecycle date stamp
// and task due date goes through a Clock so tests can run deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock: wall-clock local time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// DateOnly truncates t to midnight in t's own location. Lifecycle dates
// are day-granular; keeping the local location avoids the previous-day
// skew a UTC truncation would cause in western timezones.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
