package calendar

import (
	"reflect"
	"testing"

	"cloud.google.com/go/civil"

	"github.com/hive-fieldops/backend/internal/models"
)

func until(ev models.ScheduledEvent, hour, minute int) models.ScheduledEvent {
	end := civil.Time{Hour: hour, Minute: minute}
	ev.EndTime = &end
	return ev
}

func TestOverlaps(t *testing.T) {
	d := date(2024, 10, 15)
	cases := []struct {
		name string
		a, b models.ScheduledEvent
		want bool
	}{
		{"touching end to start", until(event("a", d, 9, 0), 10, 0), until(event("b", d, 10, 0), 11, 0), false},
		{"partial overlap", until(event("a", d, 9, 0), 10, 30), until(event("b", d, 10, 0), 11, 0), true},
		{"contained", until(event("a", d, 9, 0), 12, 0), until(event("b", d, 10, 0), 10, 15), true},
		{"same start", event("a", d, 14, 0), event("b", d, 14, 0), true},
		{"default span touches", event("a", d, 9, 0), event("b", d, 10, 0), false},
		{"default span overlaps", event("a", d, 9, 0), event("b", d, 9, 59), true},
		{"different days", event("a", d, 9, 0), event("b", date(2024, 10, 16), 9, 0), false},
		{"crosses midnight", event("a", d, 23, 30), event("b", date(2024, 10, 16), 0, 15), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.a, tc.b); got != tc.want {
				t.Fatalf("Overlaps(a, b) = %v, want %v", got, tc.want)
			}
			if got := Overlaps(tc.b, tc.a); got != tc.want {
				t.Fatalf("Overlaps(b, a) = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSpanRollsEndPastMidnight(t *testing.T) {
	d := date(2024, 12, 31)
	start, end := Span(until(event("late", d, 22, 0), 1, 0))
	if start.Date != d || end.Date != date(2025, 1, 1) || end.Time.Hour != 1 {
		t.Fatalf("unexpected span %s - %s", start, end)
	}
}

func TestConflictsSkipsSelf(t *testing.T) {
	d := date(2024, 10, 15)
	ev := until(event("new", d, 10, 0), 11, 0)
	existing := []models.ScheduledEvent{
		until(event("new", d, 10, 0), 11, 0),
		until(event("before", d, 9, 0), 10, 0),
		until(event("inside", d, 10, 30), 10, 45),
		event("after", d, 10, 59),
	}
	if got := ids(Conflicts(ev, existing)); !reflect.DeepEqual(got, []string{"inside", "after"}) {
		t.Fatalf("unexpected conflicts %v", got)
	}
	if got := Conflicts(ev, nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
