package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/hive-fieldops/backend/internal/models"
	"github.com/hive-fieldops/backend/internal/service"
	"github.com/hive-fieldops/backend/internal/service/mocks"
)

var now = time.Date(2024, 10, 15, 10, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*gin.Engine, *mocks.MockStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := mocks.NewMockStore(gomock.NewController(t))
	svc := service.NewRequestService(store, clockwork.NewFakeClockAt(now), zerolog.Nop())
	svc.NewID = func(time.Time) string { return "REQ-2024-TEST0001" }
	h := &Handler{Service: svc, Validator: validator.New(), Logger: zerolog.Nop()}

	r := gin.New()
	r.GET("/healthz", h.Healthz)
	r.POST("/api/requests", h.RequestSubmit)
	r.GET("/api/requests/:id", h.RequestDetails)
	r.POST("/api/requests/:id/events/:event", h.RequestTransition)
	r.GET("/api/requests/:id/invoice/client", h.InvoiceClientView)
	r.GET("/api/calendar", h.CalendarView)
	r.GET("/api/calendar.ics", h.CalendarICS)
	r.POST("/api/events", h.EventCreate)
	r.GET("/api/events/:id/conflicts", h.EventConflicts)
	return r, store
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp.Error.Code
}

func pending() models.ServiceRequest {
	return models.ServiceRequest{
		ID:            "REQ-1",
		ClientID:      "client-1",
		ClientName:    "Maria Silva",
		ClientArea:    models.AreaNorte,
		ServiceType:   "Limpeza",
		RequestedAt:   now.Add(-100 * time.Minute),
		PreferredDate: civil.Date{Year: 2024, Month: 10, Day: 20},
		Status:        models.StatusPending,
		Version:       1,
	}
}

func TestHealthz(t *testing.T) {
	r, store := newTestEngine(t)
	store.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	w := do(r, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestRequestSubmit(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		r, store := newTestEngine(t)
		store.EXPECT().CreateRequest(gomock.Any(), gomock.Any()).Return(nil)
		w := do(r, http.MethodPost, "/api/requests", `{
			"client_id": "client-1",
			"client_name": "Maria Silva",
			"client_area": "Norte",
			"service_type": "Limpeza",
			"preferred_date": "2024-10-20"
		}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		var got models.ServiceRequest
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.ID != "REQ-2024-TEST0001" || got.Status != models.StatusPending || got.ClientArea != models.AreaNorte {
			t.Fatalf("unexpected request: %+v", got)
		}
	})

	cases := []struct {
		name string
		body string
		code string
	}{
		{"missing client", `{"client_area":"norte","service_type":"x","preferred_date":"2024-10-20"}`, "VALIDATION_ERROR"},
		{"unknown area", `{"client_id":"c","client_area":"mars","service_type":"x","preferred_date":"2024-10-20"}`, "VALIDATION_ERROR"},
		{"bad date", `{"client_id":"c","client_area":"norte","service_type":"x","preferred_date":"20/10/2024"}`, "VALIDATION_ERROR"},
		{"malformed json", `{"client_id":`, "INVALID_REQUEST"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestEngine(t)
			w := do(r, http.MethodPost, "/api/requests", tc.body)
			if w.Code != http.StatusBadRequest || errorCode(t, w) != tc.code {
				t.Fatalf("expected 400 %s, got %d %s", tc.code, w.Code, w.Body.String())
			}
		})
	}
}

func TestRequestDetails(t *testing.T) {
	r, store := newTestEngine(t)
	store.EXPECT().GetRequest(gomock.Any(), "REQ-1").Return(pending(), nil)
	store.EXPECT().GetRequest(gomock.Any(), "REQ-404").Return(models.ServiceRequest{}, service.ErrNotFound)

	w := do(r, http.MethodGet, "/api/requests/REQ-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var detail struct {
		StatusLabel string `json:"status_label"`
		Escalation  struct {
			Band string `json:"band"`
		} `json:"escalation"`
		AllowedEvents []string `json:"allowed_events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.StatusLabel != "Pendente" || detail.Escalation.Band != "urgent" || len(detail.AllowedEvents) == 0 {
		t.Fatalf("unexpected detail: %s", w.Body.String())
	}

	w = do(r, http.MethodGet, "/api/requests/REQ-404", "")
	if w.Code != http.StatusNotFound || errorCode(t, w) != "NOT_FOUND" {
		t.Fatalf("expected 404, got %d %s", w.Code, w.Body.String())
	}
}

func TestRequestTransition(t *testing.T) {
	t.Run("delegate", func(t *testing.T) {
		r, store := newTestEngine(t)
		store.EXPECT().GetRequest(gomock.Any(), "REQ-1").Return(pending(), nil)
		store.EXPECT().UpdateRequest(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req models.ServiceRequest) error {
				if req.Status != models.StatusDelegated || *req.AssignedManagerID != "mgr-norte" {
					t.Fatalf("unexpected saved request: %+v", req)
				}
				return nil
			},
		)
		w := do(r, http.MethodPost, "/api/requests/REQ-1/events/delegate", `{"manager_id":"mgr-norte","actor_id":"admin"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("start without body from pending is invalid", func(t *testing.T) {
		r, store := newTestEngine(t)
		store.EXPECT().GetRequest(gomock.Any(), "REQ-1").Return(pending(), nil)
		w := do(r, http.MethodPost, "/api/requests/REQ-1/events/start", "")
		if w.Code != http.StatusConflict || errorCode(t, w) != "INVALID_TRANSITION" {
			t.Fatalf("expected 409 INVALID_TRANSITION, got %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("mark urgent needs a reason", func(t *testing.T) {
		r, store := newTestEngine(t)
		store.EXPECT().GetRequest(gomock.Any(), "REQ-1").Return(pending(), nil)
		w := do(r, http.MethodPost, "/api/requests/REQ-1/events/mark-urgent", `{}`)
		if w.Code != http.StatusBadRequest || errorCode(t, w) != "VALIDATION_ERROR" {
			t.Fatalf("expected 400, got %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("stale version", func(t *testing.T) {
		r, store := newTestEngine(t)
		store.EXPECT().GetRequest(gomock.Any(), "REQ-1").Return(pending(), nil)
		store.EXPECT().UpdateRequest(gomock.Any(), gomock.Any()).Return(service.ErrConflict)
		w := do(r, http.MethodPost, "/api/requests/REQ-1/events/reject", "")
		if w.Code != http.StatusConflict || errorCode(t, w) != "CONFLICT" {
			t.Fatalf("expected 409 CONFLICT, got %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		r, _ := newTestEngine(t)
		w := do(r, http.MethodPost, "/api/requests/REQ-1/events/teleport", "")
		if w.Code != http.StatusNotFound || errorCode(t, w) != "UNKNOWN_EVENT" {
			t.Fatalf("expected 404 UNKNOWN_EVENT, got %d %s", w.Code, w.Body.String())
		}
	})
}

func TestInvoiceClientViewHidden(t *testing.T) {
	r, store := newTestEngine(t)
	req := pending()
	req.Status = models.StatusCompleted
	req.Invoice = &models.Invoice{Number: "NF-1", VisibleToClient: false}
	store.EXPECT().GetRequest(gomock.Any(), "REQ-1").Return(req, nil)

	w := do(r, http.MethodGet, "/api/requests/REQ-1/invoice/client", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected hidden invoice to be 404, got %d", w.Code)
	}
}

func TestCalendarEndpoints(t *testing.T) {
	t.Run("unknown view", func(t *testing.T) {
		r, _ := newTestEngine(t)
		w := do(r, http.MethodGet, "/api/calendar?view=yearly", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("weekly view with navigation", func(t *testing.T) {
		r, store := newTestEngine(t)
		store.EXPECT().ListEvents(gomock.Any(), civil.Date{Year: 2024, Month: 10, Day: 13}, civil.Date{Year: 2024, Month: 10, Day: 19}, "").Return(nil, nil)
		store.EXPECT().ListRequests(gomock.Any(), gomock.Any()).Return(nil, nil)
		w := do(r, http.MethodGet, "/api/calendar?view=weekly&date=2024-10-16", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			Start    string `json:"start"`
			Previous string `json:"previous"`
			Next     string `json:"next"`
			Days     []any  `json:"days"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Start != "2024-10-13" || resp.Previous != "2024-10-09" || resp.Next != "2024-10-23" || len(resp.Days) != 7 {
			t.Fatalf("unexpected view: %s", w.Body.String())
		}
	})

	t.Run("ics feed", func(t *testing.T) {
		r, store := newTestEngine(t)
		store.EXPECT().ListEvents(gomock.Any(), gomock.Any(), gomock.Any(), "mgr-norte").Return([]models.ScheduledEvent{{
			ID:    "ev-1",
			Date:  civil.Date{Year: 2024, Month: 10, Day: 16},
			Time:  civil.Time{Hour: 9},
			Title: "Reunião",
			Kind:  models.EventKindMeeting,
		}}, nil)
		store.EXPECT().ListRequests(gomock.Any(), gomock.Any()).Return(nil, nil)
		w := do(r, http.MethodGet, "/api/calendar.ics?view=daily&date=2024-10-16&owner=mgr-norte", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/calendar") {
			t.Fatalf("unexpected content type %q", w.Header().Get("Content-Type"))
		}
		body := w.Body.String()
		if !strings.HasPrefix(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "SUMMARY:Reunião") {
			t.Fatalf("unexpected feed:\n%s", body)
		}
	})
}

func TestEventCreate(t *testing.T) {
	r, store := newTestEngine(t)
	store.EXPECT().ListEvents(gomock.Any(), gomock.Any(), gomock.Any(), "mgr-norte").Return(nil, nil)
	store.EXPECT().ListRequests(gomock.Any(), gomock.Any()).Return(nil, nil)
	store.EXPECT().CreateEvent(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, ev models.ScheduledEvent) error {
			if ev.Time != (civil.Time{Hour: 14, Minute: 30}) || ev.EndTime == nil || ev.Kind != models.EventKindEvent {
				t.Fatalf("unexpected event: %+v", ev)
			}
			return nil
		},
	)
	w := do(r, http.MethodPost, "/api/events", `{"owner_id":"mgr-norte","title":"Visita","date":"2024-10-16","time":"14:30","end_time":"15:30"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, "/api/events", `{"owner_id":"mgr-norte","title":"Visita","date":"2024-10-16","time":"14:30","kind":"party"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", w.Code)
	}
}

func TestEventCreateScheduleConflict(t *testing.T) {
	r, store := newTestEngine(t)
	busy := models.ScheduledEvent{
		ID:      "ev-busy",
		Date:    civil.Date{Year: 2024, Month: 10, Day: 16},
		Time:    civil.Time{Hour: 15},
		Title:   "Reunião",
		OwnerID: "mgr-norte",
	}
	store.EXPECT().ListEvents(gomock.Any(), gomock.Any(), gomock.Any(), "mgr-norte").Return([]models.ScheduledEvent{busy}, nil)
	store.EXPECT().ListRequests(gomock.Any(), gomock.Any()).Return(nil, nil)

	w := do(r, http.MethodPost, "/api/events", `{"owner_id":"mgr-norte","title":"Visita","date":"2024-10-16","time":"14:30","end_time":"15:30"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Conflicts []models.ScheduledEvent `json:"conflicts"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "SCHEDULE_CONFLICT" || len(resp.Error.Details.Conflicts) != 1 || resp.Error.Details.Conflicts[0].ID != "ev-busy" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestEventConflictsRoute(t *testing.T) {
	r, store := newTestEngine(t)
	day := civil.Date{Year: 2024, Month: 10, Day: 16}
	stored := models.ScheduledEvent{ID: "ev-1", Date: day, Time: civil.Time{Hour: 9}, OwnerID: "mgr-norte"}
	other := models.ScheduledEvent{ID: "ev-2", Date: day, Time: civil.Time{Hour: 9, Minute: 45}, OwnerID: "mgr-norte"}

	store.EXPECT().GetEvent(gomock.Any(), "ev-1").Return(stored, nil)
	store.EXPECT().ListEvents(gomock.Any(), gomock.Any(), gomock.Any(), "mgr-norte").Return([]models.ScheduledEvent{stored, other}, nil)
	store.EXPECT().ListRequests(gomock.Any(), gomock.Any()).Return(nil, nil)
	w := do(r, http.MethodGet, "/api/events/ev-1/conflicts", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got []models.ScheduledEvent
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != "ev-2" {
		t.Fatalf("unexpected conflicts: %s", w.Body.String())
	}

	store.EXPECT().GetEvent(gomock.Any(), "nope").Return(models.ScheduledEvent{}, service.ErrNotFound)
	if w := do(r, http.MethodGet, "/api/events/nope/conflicts", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestParseTime(t *testing.T) {
	cases := []struct {
		in   string
		want civil.Time
		ok   bool
	}{
		{"09:00", civil.Time{Hour: 9}, true},
		{"23:59:30", civil.Time{Hour: 23, Minute: 59, Second: 30}, true},
		{" 07:05 ", civil.Time{Hour: 7, Minute: 5}, true},
		{"24:00", civil.Time{}, false},
		{"9h", civil.Time{}, false},
	}
	for _, tc := range cases {
		got, err := parseTime("time", tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Fatalf("parseTime(%q) = %v, %v", tc.in, got, err)
		}
	}
}
