package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/hive-fieldops/backend/internal/calendar"
	"github.com/hive-fieldops/backend/internal/ical"
	"github.com/hive-fieldops/backend/internal/lifecycle"
	"github.com/hive-fieldops/backend/internal/models"
)

// NewEvent is a personal calendar entry as entered by a user.
type NewEvent struct {
	OwnerID     string
	Title       string
	Description string
	Date        civil.Date
	Time        civil.Time
	EndTime     *civil.Time
	Kind        models.EventKind
	Location    string
	Color       string
	Reminder    models.Reminder
}

// ScheduleConflictError rejects an entry that overlaps the owner's agenda.
type ScheduleConflictError struct {
	Conflicts []models.ScheduledEvent
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("schedule conflict with %d existing entries", len(e.Conflicts))
}

func (e *ScheduleConflictError) Unwrap() error { return ErrConflict }

var statusColors = map[models.Status]string{
	models.StatusApproved:   "#3b82f6",
	models.StatusInProgress: "#f59e0b",
	models.StatusCompleted:  "#10b981",
}

func (s *RequestService) CreateEvent(ctx context.Context, in NewEvent) (models.ScheduledEvent, error) {
	if strings.TrimSpace(in.Title) == "" {
		return models.ScheduledEvent{}, &lifecycle.ValidationError{Field: "title", Message: "is required"}
	}
	if strings.TrimSpace(in.OwnerID) == "" {
		return models.ScheduledEvent{}, &lifecycle.ValidationError{Field: "owner_id", Message: "is required"}
	}
	if !in.Date.IsValid() {
		return models.ScheduledEvent{}, &lifecycle.ValidationError{Field: "date", Message: "is not a valid date"}
	}
	if !in.Time.IsValid() || (in.EndTime != nil && !in.EndTime.IsValid()) {
		return models.ScheduledEvent{}, &lifecycle.ValidationError{Field: "time", Message: "is not a valid time"}
	}
	if in.EndTime != nil && !calendar.TimeBefore(in.Time, *in.EndTime) {
		return models.ScheduledEvent{}, &lifecycle.ValidationError{Field: "end_time", Message: "must be after time"}
	}
	switch in.Kind {
	case "":
		in.Kind = models.EventKindEvent
	case models.EventKindEvent, models.EventKindMeeting, models.EventKindPersonal:
	default:
		return models.ScheduledEvent{}, &lifecycle.ValidationError{Field: "kind", Message: "must be event, meeting or personal"}
	}
	switch in.Reminder {
	case "":
		in.Reminder = models.ReminderNone
	case models.ReminderNone, models.ReminderOneDayBefore, models.ReminderTwoHoursBefore:
	default:
		return models.ScheduledEvent{}, &lifecycle.ValidationError{Field: "reminder", Message: "is not a known reminder"}
	}

	id := uuid.NewString()
	ev := models.ScheduledEvent{
		ID:          id,
		Date:        in.Date,
		Time:        in.Time,
		EndTime:     in.EndTime,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Kind:        in.Kind,
		Location:    in.Location,
		Color:       in.Color,
		Reminder:    in.Reminder,
		OwnerID:     in.OwnerID,
		Source:      models.SourceRef{Type: models.SourcePersonalEvent, ID: id},
		CreatedAt:   s.now(),
	}
	conflicts, err := s.conflictsFor(ctx, ev)
	if err != nil {
		return models.ScheduledEvent{}, err
	}
	if len(conflicts) > 0 {
		return models.ScheduledEvent{}, &ScheduleConflictError{Conflicts: conflicts}
	}
	if err := s.Store.CreateEvent(ctx, ev); err != nil {
		s.Logger.Error().Err(err).Str("event_id", id).Msg("create event failed")
		return models.ScheduledEvent{}, err
	}
	return ev, nil
}

// EventConflicts lists the entries of the event owner's agenda that overlap
// the stored event.
func (s *RequestService) EventConflicts(ctx context.Context, id string) ([]models.ScheduledEvent, error) {
	ev, err := s.Store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.conflictsFor(ctx, ev)
}

// conflictsFor checks ev against the owner's personal events and assigned
// services from the day before through the day after.
func (s *RequestService) conflictsFor(ctx context.Context, ev models.ScheduledEvent) ([]models.ScheduledEvent, error) {
	existing, err := s.loadEvents(ctx, ev.Date.AddDays(-1), ev.Date.AddDays(1), ev.OwnerID)
	if err != nil {
		return nil, err
	}
	return calendar.Conflicts(ev, existing), nil
}

func (s *RequestService) DeleteEvent(ctx context.Context, id string) error {
	return s.Store.DeleteEvent(ctx, id)
}

// CalendarEvents loads everything a view around ref can show: the owner's
// personal events and the scheduled services. An empty ownerID shows every
// owner and every service.
func (s *RequestService) CalendarEvents(ctx context.Context, ref civil.Date, g calendar.Granularity, ownerID string) ([]models.ScheduledEvent, error) {
	from, to, err := calendar.Range(ref, g, s.Calendar.WeekStart)
	if err != nil {
		return nil, &lifecycle.ValidationError{Field: "date", Message: err.Error()}
	}
	return s.loadEvents(ctx, from, to, ownerID)
}

func (s *RequestService) loadEvents(ctx context.Context, from, to civil.Date, ownerID string) ([]models.ScheduledEvent, error) {
	personal, err := s.Store.ListEvents(ctx, from, to, ownerID)
	if err != nil {
		return nil, err
	}
	reqs, err := s.Store.ListRequests(ctx, RequestFilter{ScheduledFrom: &from, ScheduledTo: &to})
	if err != nil {
		return nil, err
	}

	events := append([]models.ScheduledEvent(nil), personal...)
	for _, r := range reqs {
		if ownerID != "" && !assignedTo(r, ownerID) {
			continue
		}
		if ev, ok := ServiceEvent(r); ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

func (s *RequestService) CalendarView(ctx context.Context, ref civil.Date, g calendar.Granularity, ownerID string) (calendar.View, error) {
	events, err := s.CalendarEvents(ctx, ref, g, ownerID)
	if err != nil {
		return calendar.View{}, err
	}
	view, err := calendar.Generate(ref, g, events, s.Calendar)
	if err != nil {
		return calendar.View{}, &lifecycle.ValidationError{Field: "view", Message: err.Error()}
	}
	return view, nil
}

// CalendarFeed renders the events of a view as an iCalendar document.
func (s *RequestService) CalendarFeed(ctx context.Context, ref civil.Date, g calendar.Granularity, ownerID string) (string, error) {
	events, err := s.CalendarEvents(ctx, ref, g, ownerID)
	if err != nil {
		return "", err
	}
	name := "Agenda"
	if ownerID != "" {
		name = fmt.Sprintf("Agenda %s", ownerID)
	}
	return ical.Generate(ical.Feed{
		Name:     name,
		TTL:      time.Hour,
		Location: s.Location,
		Stamp:    s.now(),
	}, events), nil
}

// ServiceEvent projects a scheduled request onto the calendar. Requests
// without a scheduled date, and cancelled or rejected ones, have no entry.
func ServiceEvent(r models.ServiceRequest) (models.ScheduledEvent, bool) {
	if r.ScheduledDate == nil || r.Status == models.StatusCancelled || r.Status == models.StatusRejected {
		return models.ScheduledEvent{}, false
	}
	var at civil.Time
	if r.ScheduledTime != nil {
		at = *r.ScheduledTime
	}
	title := r.ServiceType
	if r.ClientName != "" {
		title += " - " + r.ClientName
	}
	owner := ""
	if r.AssignedManagerID != nil {
		owner = *r.AssignedManagerID
	}
	return models.ScheduledEvent{
		ID:          "service-" + r.ID,
		Date:        *r.ScheduledDate,
		Time:        at,
		Title:       title,
		Description: r.ScheduledDescription,
		Kind:        models.EventKindService,
		Location:    r.ClientLocation,
		Color:       statusColors[r.Status],
		Reminder:    models.ReminderNone,
		OwnerID:     owner,
		Source:      models.SourceRef{Type: models.SourceServiceRequest, ID: r.ID},
		Payload: map[string]any{
			"request_id": r.ID,
			"status":     r.Status,
			"team_id":    r.AssignedTeamID,
		},
		CreatedAt: r.RequestedAt,
	}, true
}

func assignedTo(r models.ServiceRequest, ownerID string) bool {
	if r.AssignedManagerID != nil && *r.AssignedManagerID == ownerID {
		return true
	}
	if r.AssignedCollaboratorID != nil && *r.AssignedCollaboratorID == ownerID {
		return true
	}
	return false
}
