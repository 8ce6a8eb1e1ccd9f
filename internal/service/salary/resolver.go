package salary

import (
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/salary"
)

// calendarDate drops the clock and zone so DATE columns scanned as UTC
// compare correctly with local dates.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Latest picks the active version with the greatest effective date on or
// before asOf. Equal effective dates go to the most recently created one.
// Versions whose end date lies before asOf are skipped.
func Latest[T salary.Versioned](versions []T, asOf time.Time) (T, bool) {
	var (
		best  T
		found bool
	)
	target := calendarDate(asOf)

	for _, v := range versions {
		if !v.IsActive() {
			continue
		}
		effective := calendarDate(v.Effective())
		if effective.After(target) {
			continue
		}
		if end := v.Ended(); end != nil && calendarDate(*end).Before(target) {
			continue
		}
		if !found {
			best, found = v, true
			continue
		}
		bestEffective := calendarDate(best.Effective())
		if effective.After(bestEffective) ||
			(effective.Equal(bestEffective) && v.Created().After(best.Created())) {
			best = v
		}
	}
	return best, found
}
