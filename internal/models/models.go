package models

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

type ServiceRequest struct {
	ID             string     `json:"id"`
	ClientID       string     `json:"client_id"`
	ClientName     string     `json:"client_name"`
	ClientArea     Area       `json:"client_area"`
	ClientLocation string     `json:"client_location,omitempty"`
	ServiceType    string     `json:"service_type"`
	Description    string     `json:"description"`
	RequestedAt    time.Time  `json:"requested_at"`
	PreferredDate  civil.Date `json:"preferred_date"`
	Status         Status     `json:"status"`

	AssignedManagerID      *string  `json:"assigned_manager_id"`
	AssignedTeamID         *string  `json:"assigned_team_id"`
	AssignedTeamMembers    []string `json:"assigned_team_members,omitempty"`
	AssignedCollaboratorID *string  `json:"assigned_collaborator_id"`

	UrgentReason       *string    `json:"urgent_reason"`
	RefusalReason      *string    `json:"refusal_reason"`
	RefusalDate        *time.Time `json:"refusal_date"`
	CancellationReason *string    `json:"cancellation_reason"`

	ScheduledDate        *civil.Date `json:"scheduled_date"`
	ScheduledTime        *civil.Time `json:"scheduled_time"`
	ScheduledDescription string      `json:"scheduled_description,omitempty"`

	AvailableDates     []civil.Date        `json:"available_dates"`
	Invoice            *Invoice            `json:"invoice"`
	PhotoDocumentation *PhotoDocumentation `json:"photo_documentation"`

	History   []StatusChange `json:"history"`
	Version   int            `json:"version"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// StatusChange is one entry of a request's append-only transition log.
type StatusChange struct {
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	Event     string    `json:"event"`
	Reason    string    `json:"reason,omitempty"`
	ManagerID string    `json:"manager_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	At        time.Time `json:"at"`
}

type Invoice struct {
	Number          string          `json:"number"`
	Amount          decimal.Decimal `json:"amount"`
	IssueDate       civil.Date      `json:"issue_date"`
	VisibleToClient bool            `json:"visible_to_client"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type PhotoDocumentation struct {
	ID           string    `json:"id"`
	BeforePhotos []string  `json:"before_photos"`
	AfterPhotos  []string  `json:"after_photos"`
	UploadDate   time.Time `json:"upload_date"`
	UploadedBy   string    `json:"uploaded_by"`
	UploadedByID string    `json:"uploaded_by_id"`
}

type EventKind string

const (
	EventKindEvent    EventKind = "event"
	EventKindService  EventKind = "service"
	EventKindMeeting  EventKind = "meeting"
	EventKindPersonal EventKind = "personal"
)

type Reminder string

const (
	ReminderNone           Reminder = "none"
	ReminderOneDayBefore   Reminder = "one_day_before"
	ReminderTwoHoursBefore Reminder = "two_hours_before"
)

// SourceRef points a calendar entry back at the domain object that owns it.
type SourceRef struct {
	Type string `json:"type"` // service_request | personal_event
	ID   string `json:"id"`
}

const (
	SourceServiceRequest = "service_request"
	SourcePersonalEvent  = "personal_event"
)

type ScheduledEvent struct {
	ID          string      `json:"id"`
	Date        civil.Date  `json:"date"`
	Time        civil.Time  `json:"time"`
	EndTime     *civil.Time `json:"end_time,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Kind        EventKind   `json:"kind"`
	Location    string      `json:"location,omitempty"`
	Color       string      `json:"color,omitempty"`
	Reminder    Reminder    `json:"reminder"`
	OwnerID     string      `json:"owner_id,omitempty"`
	Source      SourceRef   `json:"source"`
	Payload     any         `json:"payload,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

type Manager struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Areas       []Area `json:"areas"`
	Active      bool   `json:"active"`
	CurrentLoad int    `json:"current_load"`
}
