// Package lifecycle owns the workflow of a service request: its legal status
// transitions, the edits allowed along the way, and the domain error kinds
// shared by the attachment operations.
//
// Every operation validates completely before it writes, so a failed call
// leaves the request exactly as it was.
package lifecycle

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/hive-fieldops/backend/internal/models"
)

const eventSubmit = "submit"

type transition struct {
	from []models.Status
	to   models.Status
}

var transitions = map[string]transition{
	EventMarkUrgent: {
		from: []models.Status{models.StatusPending},
		to:   models.StatusUrgent,
	},
	EventDelegate: {
		from: []models.Status{models.StatusPending},
		to:   models.StatusDelegated,
	},
	EventManagerRefuses: {
		from: []models.Status{models.StatusDelegated},
		to:   models.StatusRefusedByManager,
	},
	EventManagerAccepts: {
		from: []models.Status{models.StatusDelegated},
		to:   models.StatusApproved,
	},
	EventRedesignate: {
		from: []models.Status{models.StatusRefusedByManager},
		to:   models.StatusPending,
	},
	EventApprove: {
		from: []models.Status{models.StatusUrgent, models.StatusPending},
		to:   models.StatusApproved,
	},
	EventStart: {
		from: []models.Status{models.StatusApproved},
		to:   models.StatusInProgress,
	},
	EventComplete: {
		from: []models.Status{models.StatusInProgress},
		to:   models.StatusCompleted,
	},
	EventCancel: {
		from: []models.Status{
			models.StatusApproved,
			models.StatusInProgress,
			models.StatusPending,
			models.StatusUrgent,
			models.StatusDelegated,
		},
		to: models.StatusCancelled,
	},
	EventReject: {
		from: []models.Status{models.StatusPending, models.StatusUrgent, models.StatusDelegated},
		to:   models.StatusRejected,
	},
}

// EventNames lists every event in a stable display order.
var EventNames = []string{
	EventMarkUrgent,
	EventDelegate,
	EventManagerAccepts,
	EventManagerRefuses,
	EventRedesignate,
	EventApprove,
	EventStart,
	EventComplete,
	EventCancel,
	EventReject,
}

// Target returns the status an event leads to and whether it is legal from
// the given status.
func Target(from models.Status, event string) (models.Status, bool) {
	t, ok := transitions[event]
	if !ok {
		return "", false
	}
	for _, s := range t.from {
		if s == from {
			return t.to, true
		}
	}
	return "", false
}

// Allowed lists the events that are legal from status, in EventNames order.
func Allowed(status models.Status) []string {
	out := []string{}
	for _, name := range EventNames {
		if _, ok := Target(status, name); ok {
			out = append(out, name)
		}
	}
	return out
}

// Apply runs ev against req. The status check comes first, then the event's
// own guard; only when both pass are status, the event's fields and the
// history entry written.
func Apply(req *models.ServiceRequest, ev Event, at time.Time, actorID string) error {
	if req == nil {
		return required("request")
	}
	if ev == nil {
		return required("event")
	}
	to, ok := Target(req.Status, ev.Name())
	if !ok {
		return &InvalidTransitionError{Status: req.Status, Event: ev.Name()}
	}
	if err := ev.validate(req); err != nil {
		return err
	}

	from := req.Status
	change := ev.apply(req, at)
	change.From = from
	change.To = to
	change.Event = ev.Name()
	change.ActorID = actorID
	change.At = at

	req.Status = to
	req.History = append(req.History, change)
	req.UpdatedAt = at
	return nil
}

// Submission is what a client provides when opening a request.
type Submission struct {
	ClientID       string
	ClientName     string
	ClientArea     models.Area
	ClientLocation string
	ServiceType    string
	Description    string
	PreferredDate  civil.Date
}

// NewRequest is the only constructor for a request; it always starts pending.
func NewRequest(id string, sub Submission, at time.Time) (*models.ServiceRequest, error) {
	switch {
	case strings.TrimSpace(id) == "":
		return nil, required("id")
	case strings.TrimSpace(sub.ClientID) == "":
		return nil, required("client_id")
	case !sub.ClientArea.Valid():
		return nil, &ValidationError{Field: "client_area", Message: "must be one of norte, sul, leste, oeste, centro"}
	case strings.TrimSpace(sub.ServiceType) == "":
		return nil, required("service_type")
	case !sub.PreferredDate.IsValid():
		return nil, &ValidationError{Field: "preferred_date", Message: "is not a valid date"}
	}

	return &models.ServiceRequest{
		ID:             id,
		ClientID:       strings.TrimSpace(sub.ClientID),
		ClientName:     strings.TrimSpace(sub.ClientName),
		ClientArea:     sub.ClientArea,
		ClientLocation: strings.TrimSpace(sub.ClientLocation),
		ServiceType:    strings.TrimSpace(sub.ServiceType),
		Description:    strings.TrimSpace(sub.Description),
		RequestedAt:    at,
		PreferredDate:  sub.PreferredDate,
		Status:         models.StatusPending,
		AvailableDates: []civil.Date{},
		History: []models.StatusChange{{
			To:      models.StatusPending,
			Event:   eventSubmit,
			ActorID: strings.TrimSpace(sub.ClientID),
			At:      at,
		}},
		UpdatedAt: at,
	}, nil
}
