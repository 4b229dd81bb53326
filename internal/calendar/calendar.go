// Package calendar buckets scheduled events into the day cells a daily, weekly
// or monthly calendar renders. Dates are compared as plain civil dates with no
// time zone conversion. Generate never mutates the events it is given.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/hive-fieldops/backend/internal/models"
)

type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

var (
	ErrUnknownGranularity = errors.New("unknown granularity")
	ErrInvalidDate        = errors.New("invalid reference date")
)

func ParseGranularity(s string) (Granularity, bool) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case Daily, Weekly, Monthly:
		return g, true
	case "day":
		return Daily, true
	case "week":
		return Weekly, true
	case "month":
		return Monthly, true
	}
	return "", false
}

// Options controls the grid layout and the per-cell display caps. A cap of
// zero or less shows every event.
type Options struct {
	WeekStart time.Weekday
	DayCap    int
	WeekCap   int
	MonthCap  int
}

func DefaultOptions() Options {
	return Options{
		WeekStart: time.Sunday,
		DayCap:    0,
		WeekCap:   3,
		MonthCap:  2,
	}
}

func (o Options) capFor(g Granularity) int {
	switch g {
	case Weekly:
		return o.WeekCap
	case Monthly:
		return o.MonthCap
	}
	return o.DayCap
}

// Bucket is one day cell. Events holds the visible subset in display order;
// Overflow is how many more events the cell holds beyond the cap.
type Bucket struct {
	Date     civil.Date              `json:"date"`
	InMonth  bool                    `json:"in_month"`
	Events   []models.ScheduledEvent `json:"events"`
	Overflow int                     `json:"overflow"`
	Total    int                     `json:"total"`
}

type View struct {
	Granularity Granularity `json:"granularity"`
	Reference   civil.Date  `json:"reference"`
	Start       civil.Date  `json:"start"`
	End         civil.Date  `json:"end"`
	Days        []Bucket    `json:"days"`
	// Weeks groups Days into rows of seven for weekly and monthly views.
	Weeks [][]Bucket `json:"weeks,omitempty"`
}

// Generate builds the view of granularity g around ref.
func Generate(ref civil.Date, g Granularity, events []models.ScheduledEvent, opts Options) (View, error) {
	start, end, err := Range(ref, g, opts.WeekStart)
	if err != nil {
		return View{}, err
	}

	n := end.DaysSince(start) + 1
	index := make(map[civil.Date]int, n)
	days := make([]Bucket, n)
	for i := 0; i < n; i++ {
		d := start.AddDays(i)
		index[d] = i
		days[i] = Bucket{
			Date:    d,
			InMonth: g != Monthly || (d.Year == ref.Year && d.Month == ref.Month),
		}
	}

	grouped := make([][]models.ScheduledEvent, n)
	for _, ev := range events {
		if i, ok := index[ev.Date]; ok {
			grouped[i] = append(grouped[i], ev)
		}
	}

	limit := opts.capFor(g)
	for i, evs := range grouped {
		sort.SliceStable(evs, func(a, b int) bool {
			return TimeBefore(evs[a].Time, evs[b].Time)
		})
		days[i].Total = len(evs)
		visible := evs
		if limit > 0 && len(evs) > limit {
			visible = evs[:limit]
			days[i].Overflow = len(evs) - limit
		}
		days[i].Events = append(make([]models.ScheduledEvent, 0, len(visible)), visible...)
	}

	view := View{
		Granularity: g,
		Reference:   ref,
		Start:       start,
		End:         end,
		Days:        days,
	}
	if g != Daily {
		for i := 0; i < len(days); i += 7 {
			view.Weeks = append(view.Weeks, days[i:i+7])
		}
	}
	return view, nil
}

// Range returns the first and last date a view of granularity g around ref
// covers. Stores use it to load only the events a view can show.
func Range(ref civil.Date, g Granularity, weekStart time.Weekday) (civil.Date, civil.Date, error) {
	if !ref.IsValid() {
		return civil.Date{}, civil.Date{}, fmt.Errorf("%w: %s", ErrInvalidDate, ref)
	}
	if weekStart < time.Sunday || weekStart > time.Saturday {
		return civil.Date{}, civil.Date{}, fmt.Errorf("invalid week start %d", weekStart)
	}
	switch g {
	case Daily:
		return ref, ref, nil
	case Weekly:
		start := startOfWeek(ref, weekStart)
		return start, start.AddDays(6), nil
	case Monthly:
		first := civil.Date{Year: ref.Year, Month: ref.Month, Day: 1}
		last := civil.Date{Year: ref.Year, Month: ref.Month, Day: daysIn(ref.Year, ref.Month)}
		return startOfWeek(first, weekStart), startOfWeek(last, weekStart).AddDays(6), nil
	}
	return civil.Date{}, civil.Date{}, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
}

// Next moves ref forward by one view: a day, a week or a calendar month.
func Next(ref civil.Date, g Granularity) (civil.Date, error) {
	return step(ref, g, 1)
}

func Previous(ref civil.Date, g Granularity) (civil.Date, error) {
	return step(ref, g, -1)
}

func step(ref civil.Date, g Granularity, dir int) (civil.Date, error) {
	if !ref.IsValid() {
		return civil.Date{}, fmt.Errorf("%w: %s", ErrInvalidDate, ref)
	}
	switch g {
	case Daily:
		return ref.AddDays(dir), nil
	case Weekly:
		return ref.AddDays(7 * dir), nil
	case Monthly:
		return addMonths(ref, dir), nil
	}
	return civil.Date{}, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
}

// addMonths keeps the day of month, clamped to the target month's length.
func addMonths(d civil.Date, n int) civil.Date {
	first := time.Date(d.Year, d.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := d.Day
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return civil.Date{Year: first.Year(), Month: first.Month(), Day: day}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

func startOfWeek(d civil.Date, weekStart time.Weekday) civil.Date {
	offset := (int(weekday(d)) - int(weekStart) + 7) % 7
	return d.AddDays(-offset)
}

// TimeBefore orders civil times of day.
func TimeBefore(a, b civil.Time) bool {
	if a.Hour != b.Hour {
		return a.Hour < b.Hour
	}
	if a.Minute != b.Minute {
		return a.Minute < b.Minute
	}
	if a.Second != b.Second {
		return a.Second < b.Second
	}
	return a.Nanosecond < b.Nanosecond
}
