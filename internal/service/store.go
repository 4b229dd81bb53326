package service

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/hive-fieldops/backend/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write carries a stale version or
	// duplicates an existing id.
	ErrConflict = errors.New("conflict")
)

// Store is the persistence port. UpdateRequest treats req.Version as the
// version the caller loaded and stores req with Version+1; a mismatch yields
// ErrConflict.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type Store interface {
	CreateRequest(ctx context.Context, req models.ServiceRequest) error
	GetRequest(ctx context.Context, id string) (models.ServiceRequest, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]models.ServiceRequest, error)
	UpdateRequest(ctx context.Context, req models.ServiceRequest) error

	ListManagers(ctx context.Context) ([]models.Manager, error)

	CreateEvent(ctx context.Context, ev models.ScheduledEvent) error
	GetEvent(ctx context.Context, id string) (models.ScheduledEvent, error)
	ListEvents(ctx context.Context, from, to civil.Date, ownerID string) ([]models.ScheduledEvent, error)
	DeleteEvent(ctx context.Context, id string) error

	Ping(ctx context.Context) error
}

// RequestFilter narrows a request listing. Zero fields match everything.
type RequestFilter struct {
	Statuses []models.Status
	Area     models.Area
	// Query matches id, client name and service type, case-insensitively.
	Query string
	// From and To bound the preferred date, inclusive.
	From *civil.Date
	To   *civil.Date
	// ScheduledFrom and ScheduledTo bound the scheduled date, inclusive.
	// Requests without a scheduled date never match when either is set.
	ScheduledFrom *civil.Date
	ScheduledTo   *civil.Date
}

// Matches applies the filter in memory. Stores that cannot push a filter down
// to their backend use it after loading.
func (f RequestFilter) Matches(req models.ServiceRequest) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if s == req.Status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Area != "" && req.ClientArea != f.Area {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(req.ID), q) &&
			!strings.Contains(strings.ToLower(req.ClientName), q) &&
			!strings.Contains(strings.ToLower(req.ServiceType), q) {
			return false
		}
	}
	if f.From != nil && req.PreferredDate.Before(*f.From) {
		return false
	}
	if f.To != nil && req.PreferredDate.After(*f.To) {
		return false
	}
	if f.ScheduledFrom != nil || f.ScheduledTo != nil {
		if req.ScheduledDate == nil {
			return false
		}
		if f.ScheduledFrom != nil && req.ScheduledDate.Before(*f.ScheduledFrom) {
			return false
		}
		if f.ScheduledTo != nil && req.ScheduledDate.After(*f.ScheduledTo) {
			return false
		}
	}
	return true
}
