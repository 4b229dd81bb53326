// Package ical renders calendar events as an RFC 5545 iCalendar feed.
package ical

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/civil"

	"github.com/hive-fieldops/backend/internal/calendar"
	"github.com/hive-fieldops/backend/internal/models"
)

// Feed holds metadata for the VCALENDAR wrapper.
type Feed struct {
	Name        string
	Description string
	TTL         time.Duration // suggested refresh interval
	// Location anchors civil dates and times. Nil emits floating local times.
	Location *time.Location
	// Stamp is used as DTSTAMP for events without a creation time.
	Stamp time.Time
}

// Generate produces a complete iCalendar document from a feed and its events.
func Generate(feed Feed, events []models.ScheduledEvent) string {
	var b strings.Builder

	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:-//hive-fieldops//scheduling//PT\r\n")
	b.WriteString("METHOD:PUBLISH\r\n")
	b.WriteString("CALSCALE:GREGORIAN\r\n")

	writeProp(&b, "NAME", escapeText(feed.Name))
	writeProp(&b, "X-WR-CALNAME", escapeText(feed.Name))
	if feed.Description != "" {
		writeProp(&b, "DESCRIPTION", escapeText(feed.Description))
		writeProp(&b, "X-WR-CALDESC", escapeText(feed.Description))
	}
	if feed.Location != nil {
		writeProp(&b, "X-WR-TIMEZONE", feed.Location.String())
	}
	if feed.TTL > 0 {
		dur := formatDuration(feed.TTL)
		writeProp(&b, "REFRESH-INTERVAL;VALUE=DURATION", dur)
		writeProp(&b, "X-PUBLISHED-TTL", dur)
	}

	for _, e := range events {
		writeEvent(&b, feed, e)
	}

	b.WriteString("END:VCALENDAR\r\n")
	return b.String()
}

func writeEvent(b *strings.Builder, feed Feed, e models.ScheduledEvent) {
	stamp := e.CreatedAt
	if stamp.IsZero() {
		stamp = feed.Stamp
	}

	b.WriteString("BEGIN:VEVENT\r\n")
	writeProp(b, "UID", uid(e))
	writeProp(b, "DTSTAMP", formatUTC(stamp))

	start, end := calendar.Span(e)
	writeProp(b, "DTSTART", formatLocal(start, feed.Location))
	writeProp(b, "DTEND", formatLocal(end, feed.Location))

	writeProp(b, "SUMMARY", escapeText(e.Title))
	if e.Description != "" {
		writeProp(b, "DESCRIPTION", escapeText(e.Description))
	}
	if e.Location != "" {
		writeProp(b, "LOCATION", escapeText(e.Location))
	}
	if e.Kind != "" {
		writeProp(b, "CATEGORIES", strings.ToUpper(string(e.Kind)))
	}
	if !e.CreatedAt.IsZero() {
		writeProp(b, "CREATED", formatUTC(e.CreatedAt))
	}

	if trigger, ok := reminderTrigger(e.Reminder); ok {
		b.WriteString("BEGIN:VALARM\r\n")
		writeProp(b, "TRIGGER", trigger)
		writeProp(b, "ACTION", "DISPLAY")
		writeProp(b, "DESCRIPTION", "Lembrete: "+escapeText(e.Title))
		b.WriteString("END:VALARM\r\n")
	}

	b.WriteString("END:VEVENT\r\n")
}

func uid(e models.ScheduledEvent) string {
	kind := e.Source.Type
	if kind == "" {
		kind = "event"
	}
	id := e.Source.ID
	if id == "" {
		id = e.ID
	}
	return fmt.Sprintf("%s-%s@hive-fieldops", kind, id)
}

func reminderTrigger(r models.Reminder) (string, bool) {
	switch r {
	case models.ReminderOneDayBefore:
		return "-P1D", true
	case models.ReminderTwoHoursBefore:
		return "-PT2H", true
	}
	return "", false
}

// writeProp folds lines at 75 octets without splitting a UTF-8 sequence.
func writeProp(b *strings.Builder, name, value string) {
	line := name + ":" + value
	limit := 75
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		// invalid UTF-8 has no rune start to back up to
		if cut == 0 {
			cut = limit
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		// continuation lines carry a leading space
		limit = 74
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

func formatUTC(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func formatLocal(dt civil.DateTime, loc *time.Location) string {
	if loc == nil {
		return dt.In(time.UTC).Format("20060102T150405")
	}
	return formatUTC(dt.In(loc))
}

// formatDuration converts a Go duration to an iCal DURATION value (e.g. PT1H, PT30M).
func formatDuration(d time.Duration) string {
	if d >= 24*time.Hour {
		return fmt.Sprintf("P%dD", int(d/(24*time.Hour)))
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("PT%dH%dM", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("PT%dH", hours)
	}
	return fmt.Sprintf("PT%dM", minutes)
}

// escapeText escapes special characters per RFC 5545 section 3.3.11.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ";", `\;`)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, "\r\n", `\n`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
