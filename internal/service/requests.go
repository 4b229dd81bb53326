package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/hive-fieldops/backend/internal/calendar"
	"github.com/hive-fieldops/backend/internal/escalation"
	"github.com/hive-fieldops/backend/internal/invoice"
	"github.com/hive-fieldops/backend/internal/lifecycle"
	"github.com/hive-fieldops/backend/internal/models"
)

// RequestService wires the request lifecycle to persistence and the clock.
// Every mutation loads the request, applies the domain operation at
// Clock.Now() and saves it back against the loaded version.
type RequestService struct {
	Store    Store
	Clock    clockwork.Clock
	Logger   zerolog.Logger
	Location *time.Location
	Calendar calendar.Options
	NewID    func(now time.Time) string
}

func NewRequestService(store Store, clock clockwork.Clock, logger zerolog.Logger) *RequestService {
	return &RequestService{
		Store:    store,
		Clock:    clock,
		Logger:   logger,
		Location: time.UTC,
		Calendar: calendar.DefaultOptions(),
		NewID:    NewRequestID,
	}
}

// NewRequestID builds ids shaped like REQ-2024-1A2B3C4D.
func NewRequestID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("REQ-%d-%s", now.Year(), suffix)
}

// RequestDetail is the read model of a single request.
type RequestDetail struct {
	models.ServiceRequest
	StatusLabel   string                     `json:"status_label"`
	Escalation    *escalation.Classification `json:"escalation,omitempty"`
	AllowedEvents []string                   `json:"allowed_events"`
}

func (s *RequestService) now() time.Time {
	return s.Clock.Now().UTC()
}

// Today is the current civil date in the service's location.
func (s *RequestService) Today() civil.Date {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return civil.DateOf(s.Clock.Now().In(loc))
}

func (s *RequestService) detail(req models.ServiceRequest, now time.Time) RequestDetail {
	d := RequestDetail{
		ServiceRequest: req,
		StatusLabel:    req.Status.Label(),
		AllowedEvents:  lifecycle.Allowed(req.Status),
	}
	if c, ok := escalation.ForRequest(req, now); ok {
		d.Escalation = &c
	}
	if d.AllowedEvents == nil {
		d.AllowedEvents = []string{}
	}
	return d
}

func (s *RequestService) Submit(ctx context.Context, sub lifecycle.Submission) (models.ServiceRequest, error) {
	now := s.now()
	req, err := lifecycle.NewRequest(s.NewID(now), sub, now)
	if err != nil {
		return models.ServiceRequest{}, err
	}
	req.History[0].ActorID = sub.ClientID
	if err := s.Store.CreateRequest(ctx, *req); err != nil {
		s.Logger.Error().Err(err).Str("request_id", req.ID).Msg("create request failed")
		return models.ServiceRequest{}, err
	}
	s.Logger.Info().
		Str("request_id", req.ID).
		Str("client_id", req.ClientID).
		Str("area", string(req.ClientArea)).
		Msg("request submitted")
	return *req, nil
}

func (s *RequestService) Get(ctx context.Context, id string) (RequestDetail, error) {
	req, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return RequestDetail{}, err
	}
	return s.detail(req, s.now()), nil
}

func (s *RequestService) List(ctx context.Context, filter RequestFilter) ([]RequestDetail, error) {
	reqs, err := s.Store.ListRequests(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]RequestDetail, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, s.detail(r, now))
	}
	return out, nil
}

// Transition applies a lifecycle event on behalf of actorID.
func (s *RequestService) Transition(ctx context.Context, id string, ev lifecycle.Event, actorID string) (models.ServiceRequest, error) {
	var from models.Status
	req, err := s.mutate(ctx, id, ev.Name(), func(req *models.ServiceRequest, now time.Time) error {
		from = req.Status
		return lifecycle.Apply(req, ev, now, actorID)
	})
	if err != nil {
		return models.ServiceRequest{}, err
	}
	s.Logger.Info().
		Str("request_id", id).
		Str("event", ev.Name()).
		Str("from", string(from)).
		Str("to", string(req.Status)).
		Str("actor_id", actorID).
		Msg("request transitioned")
	return req, nil
}

func (s *RequestService) Edit(ctx context.Context, id string, e lifecycle.RequestEdit) (models.ServiceRequest, error) {
	return s.mutate(ctx, id, "edit", func(req *models.ServiceRequest, now time.Time) error {
		return lifecycle.Edit(req, e, now)
	})
}

func (s *RequestService) AddAvailableDate(ctx context.Context, id string, d civil.Date) (models.ServiceRequest, error) {
	return s.mutate(ctx, id, "add_available_date", func(req *models.ServiceRequest, now time.Time) error {
		return lifecycle.AddAvailableDate(req, d, now)
	})
}

func (s *RequestService) RemoveAvailableDate(ctx context.Context, id string, d civil.Date) (models.ServiceRequest, error) {
	return s.mutate(ctx, id, "remove_available_date", func(req *models.ServiceRequest, now time.Time) error {
		return lifecycle.RemoveAvailableDate(req, d, now)
	})
}

func (s *RequestService) CreateInvoice(ctx context.Context, id string, d invoice.Data) (models.ServiceRequest, error) {
	return s.mutate(ctx, id, "create_invoice", func(req *models.ServiceRequest, now time.Time) error {
		return invoice.Create(req, d, now)
	})
}

func (s *RequestService) UpdateInvoice(ctx context.Context, id string, d invoice.Data) (models.ServiceRequest, error) {
	return s.mutate(ctx, id, "update_invoice", func(req *models.ServiceRequest, now time.Time) error {
		return invoice.Update(req, d, now)
	})
}

func (s *RequestService) ToggleInvoiceVisibility(ctx context.Context, id string) (models.ServiceRequest, error) {
	return s.mutate(ctx, id, "toggle_invoice_visibility", func(req *models.ServiceRequest, now time.Time) error {
		return invoice.ToggleVisibility(req, now)
	})
}

func (s *RequestService) DeleteInvoice(ctx context.Context, id string) (models.ServiceRequest, error) {
	return s.mutate(ctx, id, "delete_invoice", func(req *models.ServiceRequest, now time.Time) error {
		return invoice.Delete(req, now)
	})
}

// ClientInvoice returns the invoice a client may see, or ErrNotFound when
// there is none or it is still hidden.
func (s *RequestService) ClientInvoice(ctx context.Context, id string) (models.Invoice, error) {
	req, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return models.Invoice{}, err
	}
	inv := invoice.ClientView(req)
	if inv == nil {
		return models.Invoice{}, fmt.Errorf("invoice for %s: %w", id, ErrNotFound)
	}
	return *inv, nil
}

func (s *RequestService) AttachPhotos(ctx context.Context, id string, docs models.PhotoDocumentation) (models.ServiceRequest, error) {
	if docs.ID == "" {
		docs.ID = uuid.NewString()
	}
	return s.mutate(ctx, id, "attach_photos", func(req *models.ServiceRequest, now time.Time) error {
		return invoice.AttachPhotos(req, docs, now)
	})
}

func (s *RequestService) mutate(ctx context.Context, id, op string, fn func(req *models.ServiceRequest, now time.Time) error) (models.ServiceRequest, error) {
	req, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return models.ServiceRequest{}, err
	}
	if err := fn(&req, s.now()); err != nil {
		s.Logger.Debug().Err(err).Str("request_id", id).Str("op", op).Msg("operation rejected")
		return models.ServiceRequest{}, err
	}
	if err := s.Store.UpdateRequest(ctx, req); err != nil {
		s.Logger.Error().Err(err).Str("request_id", id).Str("op", op).Msg("update request failed")
		return models.ServiceRequest{}, err
	}
	req.Version++
	return req, nil
}
