package calendar

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/hive-fieldops/backend/internal/models"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func event(id string, d civil.Date, hour, minute int) models.ScheduledEvent {
	return models.ScheduledEvent{
		ID:    id,
		Date:  d,
		Time:  civil.Time{Hour: hour, Minute: minute},
		Title: id,
		Kind:  models.EventKindService,
	}
}

func ids(evs []models.ScheduledEvent) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.ID)
	}
	return out
}

func TestMonthlyGridCoversWholeWeeks(t *testing.T) {
	cases := []struct {
		name      string
		ref       civil.Date
		weekStart time.Weekday
		start     civil.Date
		end       civil.Date
		rows      int
	}{
		{"october sunday start", date(2024, 10, 16), time.Sunday, date(2024, 9, 29), date(2024, 11, 2), 5},
		{"october monday start", date(2024, 10, 16), time.Monday, date(2024, 9, 30), date(2024, 11, 3), 5},
		{"february fits four rows", date(2015, 2, 10), time.Sunday, date(2015, 2, 1), date(2015, 2, 28), 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.WeekStart = tc.weekStart
			v, err := Generate(tc.ref, Monthly, nil, opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Start != tc.start || v.End != tc.end {
				t.Fatalf("expected %s..%s, got %s..%s", tc.start, tc.end, v.Start, v.End)
			}
			if len(v.Weeks) != tc.rows || len(v.Days) != tc.rows*7 {
				t.Fatalf("expected %d rows, got %d rows and %d days", tc.rows, len(v.Weeks), len(v.Days))
			}
			for _, row := range v.Weeks {
				if weekday(row[0].Date) != tc.weekStart {
					t.Fatalf("row starts on %s", weekday(row[0].Date))
				}
			}
			for i, b := range v.Days {
				if b.Date != tc.start.AddDays(i) {
					t.Fatalf("day %d is %s, expected contiguous dates", i, b.Date)
				}
				inMonth := b.Date.Month == tc.ref.Month
				if b.InMonth != inMonth {
					t.Fatalf("%s: expected in_month=%v", b.Date, inMonth)
				}
			}
		})
	}
}

func TestWeeklyStartsOnWeekStart(t *testing.T) {
	v, err := Generate(date(2024, 10, 16), Weekly, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.Days) != 7 || v.Days[0].Date != date(2024, 10, 13) || v.Days[6].Date != date(2024, 10, 19) {
		t.Fatalf("unexpected week: %s..%s (%d days)", v.Start, v.End, len(v.Days))
	}
	if len(v.Weeks) != 1 {
		t.Fatalf("expected a single row, got %d", len(v.Weeks))
	}
}

func TestDailyBucketsOnlyReferenceDate(t *testing.T) {
	ref := date(2024, 10, 15)
	events := []models.ScheduledEvent{
		event("late", ref, 16, 0),
		event("other-day", date(2024, 10, 16), 8, 0),
		event("early", ref, 9, 0),
	}
	v, err := Generate(ref, Daily, events, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.Days) != 1 || v.Weeks != nil {
		t.Fatalf("expected one bucket and no rows, got %+v", v)
	}
	if got := ids(v.Days[0].Events); !reflect.DeepEqual(got, []string{"early", "late"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestBucketsSortByTimeAndKeepInputOrderOnTies(t *testing.T) {
	d := date(2024, 10, 15)
	events := []models.ScheduledEvent{
		event("b", d, 10, 0),
		event("a", d, 9, 0),
		event("c", d, 10, 0),
		event("d", d, 9, 0),
	}
	opts := DefaultOptions()
	opts.WeekCap = 0
	v, err := Generate(d, Weekly, events, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, b := range v.Days {
		if b.Date != d {
			continue
		}
		if got := ids(b.Events); !reflect.DeepEqual(got, []string{"a", "d", "b", "c"}) {
			t.Fatalf("unexpected order %v", got)
		}
		return
	}
	t.Fatalf("bucket for %s not found", d)
}

func TestOverflowTruncation(t *testing.T) {
	d := date(2024, 10, 15)
	var events []models.ScheduledEvent
	for i, id := range []string{"e1", "e2", "e3", "e4", "e5"} {
		events = append(events, event(id, d, 8+i, 0))
	}

	cases := []struct {
		name     string
		g        Granularity
		dayCap   int
		visible  []string
		overflow int
	}{
		{"monthly", Monthly, 0, []string{"e1", "e2"}, 3},
		{"weekly", Weekly, 0, []string{"e1", "e2", "e3"}, 2},
		{"daily uncapped", Daily, 0, []string{"e1", "e2", "e3", "e4", "e5"}, 0},
		{"daily capped", Daily, 2, []string{"e1", "e2"}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.DayCap = tc.dayCap
			v, err := Generate(d, tc.g, events, opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, b := range v.Days {
				if b.Date != d {
					if b.Total != 0 {
						t.Fatalf("unexpected events on %s", b.Date)
					}
					continue
				}
				if got := ids(b.Events); !reflect.DeepEqual(got, tc.visible) {
					t.Fatalf("expected visible %v, got %v", tc.visible, got)
				}
				if b.Overflow != tc.overflow || b.Total != 5 {
					t.Fatalf("expected overflow %d total 5, got %d/%d", tc.overflow, b.Overflow, b.Total)
				}
			}
		})
	}
}

func TestGenerateDoesNotMutateInput(t *testing.T) {
	d := date(2024, 10, 15)
	events := []models.ScheduledEvent{event("b", d, 10, 0), event("a", d, 9, 0)}
	before := append([]models.ScheduledEvent(nil), events...)
	if _, err := Generate(d, Daily, events, DefaultOptions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(events, before) {
		t.Fatalf("input reordered: %v", ids(events))
	}
}

func TestNavigation(t *testing.T) {
	cases := []struct {
		name string
		ref  civil.Date
		g    Granularity
		next civil.Date
		prev civil.Date
	}{
		{"daily across month", date(2024, 10, 31), Daily, date(2024, 11, 1), date(2024, 10, 30)},
		{"weekly", date(2024, 10, 16), Weekly, date(2024, 10, 23), date(2024, 10, 9)},
		{"monthly keeps day", date(2024, 10, 15), Monthly, date(2024, 11, 15), date(2024, 9, 15)},
		{"monthly clamps 31st to 30th", date(2024, 10, 31), Monthly, date(2024, 11, 30), date(2024, 9, 30)},
		{"monthly clamps into leap february", date(2024, 1, 31), Monthly, date(2024, 2, 29), date(2023, 12, 31)},
		{"monthly across year", date(2024, 12, 31), Monthly, date(2025, 1, 31), date(2024, 11, 30)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Next(tc.ref, tc.g)
			if err != nil || next != tc.next {
				t.Fatalf("next: expected %s, got %s (%v)", tc.next, next, err)
			}
			prev, err := Previous(tc.ref, tc.g)
			if err != nil || prev != tc.prev {
				t.Fatalf("previous: expected %s, got %s (%v)", tc.prev, prev, err)
			}
		})
	}
}

func TestInvalidInput(t *testing.T) {
	if _, err := Generate(date(2024, 10, 1), Granularity("yearly"), nil, DefaultOptions()); !errors.Is(err, ErrUnknownGranularity) {
		t.Fatalf("expected ErrUnknownGranularity, got %v", err)
	}
	if _, err := Generate(date(2024, 2, 30), Monthly, nil, DefaultOptions()); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := Next(date(2024, 10, 1), Granularity("")); !errors.Is(err, ErrUnknownGranularity) {
		t.Fatalf("expected ErrUnknownGranularity, got %v", err)
	}
}

func TestParseGranularity(t *testing.T) {
	for in, want := range map[string]Granularity{"daily": Daily, " Week ": Weekly, "MONTHLY": Monthly} {
		if got, ok := ParseGranularity(in); !ok || got != want {
			t.Fatalf("%q: expected %s, got %s", in, want, got)
		}
	}
	if _, ok := ParseGranularity("year"); ok {
		t.Fatalf("expected year to be rejected")
	}
}
