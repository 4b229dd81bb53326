package lifecycle

import (
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/hive-fieldops/backend/internal/models"
)

// RequestEdit lists the mutable request fields. Nil means unchanged.
type RequestEdit struct {
	ServiceType          *string
	Description          *string
	ScheduledDate        *civil.Date
	ScheduledTime        *civil.Time
	ScheduledDescription *string
	TeamID               *string
	TeamMembers          []string
}

func (e RequestEdit) fields() []string {
	var out []string
	if e.ServiceType != nil {
		out = append(out, "service_type")
	}
	if e.Description != nil {
		out = append(out, "description")
	}
	if e.ScheduledDate != nil {
		out = append(out, "scheduled_date")
	}
	if e.ScheduledTime != nil {
		out = append(out, "scheduled_time")
	}
	if e.ScheduledDescription != nil {
		out = append(out, "scheduled_description")
	}
	if e.TeamID != nil {
		out = append(out, "assigned_team_id")
	}
	if e.TeamMembers != nil {
		out = append(out, "assigned_team_members")
	}
	return out
}

// Edit changes mutable fields while the request is still editable (approved
// or earlier).
func Edit(req *models.ServiceRequest, e RequestEdit, at time.Time) error {
	if req == nil {
		return required("request")
	}
	fields := e.fields()
	if len(fields) == 0 {
		return &ValidationError{Field: "edit", Message: "no fields to change"}
	}
	if !req.Status.Editable() {
		return &ImmutableStateError{Status: req.Status, Field: fields[0]}
	}
	if e.ServiceType != nil && strings.TrimSpace(*e.ServiceType) == "" {
		return required("service_type")
	}
	if e.ScheduledDate != nil && !e.ScheduledDate.IsValid() {
		return &ValidationError{Field: "scheduled_date", Message: "is not a valid date"}
	}
	if e.ScheduledTime != nil && !e.ScheduledTime.IsValid() {
		return &ValidationError{Field: "scheduled_time", Message: "is not a valid time"}
	}

	if e.ServiceType != nil {
		req.ServiceType = strings.TrimSpace(*e.ServiceType)
	}
	if e.Description != nil {
		req.Description = strings.TrimSpace(*e.Description)
	}
	if e.ScheduledDate != nil {
		d := *e.ScheduledDate
		req.ScheduledDate = &d
	}
	if e.ScheduledTime != nil {
		t := *e.ScheduledTime
		req.ScheduledTime = &t
	}
	if e.ScheduledDescription != nil {
		req.ScheduledDescription = *e.ScheduledDescription
	}
	if e.TeamID != nil {
		req.AssignedTeamID = cloneString(e.TeamID)
	}
	if e.TeamMembers != nil {
		req.AssignedTeamMembers = append([]string(nil), e.TeamMembers...)
	}
	req.UpdatedAt = at
	return nil
}

// AddAvailableDate inserts d into the request's candidate dates, keeping them
// sorted and unique. Adding a date that is already present is a no-op.
func AddAvailableDate(req *models.ServiceRequest, d civil.Date, at time.Time) error {
	if req == nil {
		return required("request")
	}
	if !d.IsValid() {
		return &ValidationError{Field: "date", Message: "is not a valid date"}
	}
	i := sort.Search(len(req.AvailableDates), func(i int) bool {
		return !req.AvailableDates[i].Before(d)
	})
	if i < len(req.AvailableDates) && req.AvailableDates[i] == d {
		return nil
	}
	dates := make([]civil.Date, 0, len(req.AvailableDates)+1)
	dates = append(dates, req.AvailableDates[:i]...)
	dates = append(dates, d)
	dates = append(dates, req.AvailableDates[i:]...)
	req.AvailableDates = dates
	req.UpdatedAt = at
	return nil
}

func RemoveAvailableDate(req *models.ServiceRequest, d civil.Date, at time.Time) error {
	if req == nil {
		return required("request")
	}
	for i, existing := range req.AvailableDates {
		if existing == d {
			dates := make([]civil.Date, 0, len(req.AvailableDates)-1)
			dates = append(dates, req.AvailableDates[:i]...)
			dates = append(dates, req.AvailableDates[i+1:]...)
			req.AvailableDates = dates
			req.UpdatedAt = at
			return nil
		}
	}
	return &ValidationError{Field: "date", Message: "is not one of the available dates"}
}
