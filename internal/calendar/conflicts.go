package calendar

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/hive-fieldops/backend/internal/models"
)

// DefaultSpan is the length assumed for an entry without an end time.
const DefaultSpan = time.Hour

// Span returns the half-open interval an entry occupies. An end time at or
// before the start, or a default span crossing midnight, rolls into the next
// day.
func Span(ev models.ScheduledEvent) (civil.DateTime, civil.DateTime) {
	start := civil.DateTime{Date: ev.Date, Time: ev.Time}
	if ev.EndTime == nil {
		return start, civil.DateTimeOf(start.In(time.UTC).Add(DefaultSpan))
	}
	end := civil.DateTime{Date: ev.Date, Time: *ev.EndTime}
	if !end.After(start) {
		end.Date = end.Date.AddDays(1)
	}
	return start, end
}

// Overlaps reports whether two entries share any instant. Touching intervals
// do not overlap.
func Overlaps(a, b models.ScheduledEvent) bool {
	aStart, aEnd := Span(a)
	bStart, bEnd := Span(b)
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Conflicts returns the entries of existing that overlap ev, in input order.
// Entries sharing ev's id are skipped.
func Conflicts(ev models.ScheduledEvent, existing []models.ScheduledEvent) []models.ScheduledEvent {
	out := []models.ScheduledEvent{}
	for _, other := range existing {
		if other.ID == ev.ID {
			continue
		}
		if Overlaps(ev, other) {
			out = append(out, other)
		}
	}
	return out
}
