package lifecycle

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/hive-fieldops/backend/internal/models"
)

const (
	EventMarkUrgent     = "mark_urgent"
	EventDelegate       = "delegate"
	EventManagerRefuses = "manager_refuses"
	EventManagerAccepts = "manager_accepts"
	EventRedesignate    = "redesignate"
	EventApprove        = "approve"
	EventStart          = "start"
	EventComplete       = "complete"
	EventCancel         = "cancel"
	EventReject         = "reject"
)

// Event is a user intent against a request. The set is closed: only the types
// in this file implement it.
type Event interface {
	Name() string
	// validate checks the event's own guard against the current request. It
	// runs after the status check and must not mutate anything.
	validate(req *models.ServiceRequest) error
	// apply writes the event's effect and returns the history entry details.
	apply(req *models.ServiceRequest, at time.Time) models.StatusChange
}

// Assignment carries the optional team, collaborator and schedule decided on
// approval.
type Assignment struct {
	TeamID               *string
	TeamMembers          []string
	CollaboratorID       *string
	ScheduledDate        *civil.Date
	ScheduledTime        *civil.Time
	ScheduledDescription string
}

func (a Assignment) validate() error {
	if a.ScheduledDate != nil && !a.ScheduledDate.IsValid() {
		return &ValidationError{Field: "scheduled_date", Message: "is not a valid date"}
	}
	if a.ScheduledTime != nil && !a.ScheduledTime.IsValid() {
		return &ValidationError{Field: "scheduled_time", Message: "is not a valid time"}
	}
	return nil
}

func (a Assignment) applyTo(req *models.ServiceRequest) {
	if a.TeamID != nil {
		req.AssignedTeamID = cloneString(a.TeamID)
	}
	if a.TeamMembers != nil {
		req.AssignedTeamMembers = append([]string(nil), a.TeamMembers...)
	}
	if a.CollaboratorID != nil {
		req.AssignedCollaboratorID = cloneString(a.CollaboratorID)
	}
	if a.ScheduledDate != nil {
		d := *a.ScheduledDate
		req.ScheduledDate = &d
	}
	if a.ScheduledTime != nil {
		t := *a.ScheduledTime
		req.ScheduledTime = &t
	}
	if a.ScheduledDescription != "" {
		req.ScheduledDescription = a.ScheduledDescription
	}
}

type MarkUrgent struct{ Reason string }

func (MarkUrgent) Name() string { return EventMarkUrgent }

func (e MarkUrgent) validate(*models.ServiceRequest) error {
	return nonEmpty("reason", e.Reason)
}

func (e MarkUrgent) apply(req *models.ServiceRequest, _ time.Time) models.StatusChange {
	reason := strings.TrimSpace(e.Reason)
	req.UrgentReason = &reason
	return models.StatusChange{Reason: reason}
}

type Delegate struct{ ManagerID string }

func (Delegate) Name() string { return EventDelegate }

func (e Delegate) validate(*models.ServiceRequest) error {
	return nonEmpty("manager_id", e.ManagerID)
}

func (e Delegate) apply(req *models.ServiceRequest, _ time.Time) models.StatusChange {
	id := strings.TrimSpace(e.ManagerID)
	req.AssignedManagerID = &id
	return models.StatusChange{ManagerID: id}
}

type ManagerRefuses struct{ Reason string }

func (ManagerRefuses) Name() string { return EventManagerRefuses }

func (e ManagerRefuses) validate(*models.ServiceRequest) error {
	return nonEmpty("reason", e.Reason)
}

func (e ManagerRefuses) apply(req *models.ServiceRequest, at time.Time) models.StatusChange {
	reason := strings.TrimSpace(e.Reason)
	req.RefusalReason = &reason
	req.RefusalDate = &at
	return models.StatusChange{Reason: reason, ManagerID: deref(req.AssignedManagerID)}
}

type ManagerAccepts struct{ Assignment Assignment }

func (ManagerAccepts) Name() string { return EventManagerAccepts }

func (e ManagerAccepts) validate(*models.ServiceRequest) error { return e.Assignment.validate() }

func (e ManagerAccepts) apply(req *models.ServiceRequest, _ time.Time) models.StatusChange {
	e.Assignment.applyTo(req)
	return models.StatusChange{ManagerID: deref(req.AssignedManagerID)}
}

// Redesignate sends a refused request back to the pending pool so it can be
// delegated to a different manager.
type Redesignate struct{ ManagerID string }

func (Redesignate) Name() string { return EventRedesignate }

func (e Redesignate) validate(req *models.ServiceRequest) error {
	if err := nonEmpty("manager_id", e.ManagerID); err != nil {
		return err
	}
	if req.AssignedManagerID != nil && strings.TrimSpace(e.ManagerID) == *req.AssignedManagerID {
		return &ValidationError{Field: "manager_id", Message: "must differ from the manager who refused"}
	}
	return nil
}

func (e Redesignate) apply(req *models.ServiceRequest, _ time.Time) models.StatusChange {
	req.AssignedManagerID = nil
	req.RefusalReason = nil
	req.RefusalDate = nil
	return models.StatusChange{ManagerID: strings.TrimSpace(e.ManagerID)}
}

type Approve struct{ Assignment Assignment }

func (Approve) Name() string { return EventApprove }

func (e Approve) validate(*models.ServiceRequest) error { return e.Assignment.validate() }

func (e Approve) apply(req *models.ServiceRequest, _ time.Time) models.StatusChange {
	e.Assignment.applyTo(req)
	return models.StatusChange{}
}

type Start struct{}

func (Start) Name() string { return EventStart }
func (Start) validate(*models.ServiceRequest) error { return nil }
func (Start) apply(*models.ServiceRequest, time.Time) models.StatusChange { return models.StatusChange{} }

type Complete struct{}

func (Complete) Name() string { return EventComplete }
func (Complete) validate(*models.ServiceRequest) error { return nil }
func (Complete) apply(*models.ServiceRequest, time.Time) models.StatusChange { return models.StatusChange{} }

type Cancel struct{ Reason string }

func (Cancel) Name() string { return EventCancel }

func (e Cancel) validate(*models.ServiceRequest) error {
	return nonEmpty("reason", e.Reason)
}

func (e Cancel) apply(req *models.ServiceRequest, _ time.Time) models.StatusChange {
	reason := strings.TrimSpace(e.Reason)
	req.CancellationReason = &reason
	return models.StatusChange{Reason: reason}
}

type Reject struct{}

func (Reject) Name() string { return EventReject }
func (Reject) validate(*models.ServiceRequest) error { return nil }
func (Reject) apply(*models.ServiceRequest, time.Time) models.StatusChange { return models.StatusChange{} }

func nonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return required(field)
	}
	return nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
