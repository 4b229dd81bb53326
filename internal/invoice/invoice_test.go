package invoice

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/hive-fieldops/backend/internal/lifecycle"
	"github.com/hive-fieldops/backend/internal/models"
)

var at = time.Date(2024, 10, 20, 17, 0, 0, 0, time.UTC)

func request(status models.Status) *models.ServiceRequest {
	return &models.ServiceRequest{ID: "REQ-2024-001", Status: status}
}

func data() Data {
	return Data{
		Number:    "NF-2024-0042",
		Amount:    decimal.RequireFromString("350.00"),
		IssueDate: civil.Date{Year: 2024, Month: 10, Day: 20},
	}
}

func TestCreateRequiresCompleted(t *testing.T) {
	for _, status := range models.Statuses {
		req := request(status)
		err := Create(req, data(), at)
		if status == models.StatusCompleted {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			continue
		}
		var ise *lifecycle.IllegalStateError
		if !errors.As(err, &ise) {
			t.Fatalf("%s: expected IllegalStateError, got %v", status, err)
		}
		if req.Invoice != nil {
			t.Fatalf("%s: invoice attached to non-completed request", status)
		}
	}
}

func TestCreateStartsHiddenAndKeepsStatus(t *testing.T) {
	req := request(models.StatusCompleted)
	if err := Create(req, data(), at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Invoice == nil || req.Invoice.VisibleToClient {
		t.Fatalf("expected hidden invoice, got %+v", req.Invoice)
	}
	if !req.Invoice.Amount.Equal(decimal.RequireFromString("350")) || req.Invoice.Number != "NF-2024-0042" {
		t.Fatalf("unexpected invoice: %+v", req.Invoice)
	}
	if req.Status != models.StatusCompleted {
		t.Fatalf("status changed to %s", req.Status)
	}
	if err := Create(req, data(), at); !errors.Is(err, lifecycle.ErrIllegalState) {
		t.Fatalf("expected second create to fail, got %v", err)
	}
}

func TestDataValidation(t *testing.T) {
	cases := []struct {
		name  string
		mod   func(*Data)
		field string
	}{
		{"blank number", func(d *Data) { d.Number = "  " }, "number"},
		{"negative amount", func(d *Data) { d.Amount = decimal.NewFromInt(-1) }, "amount"},
		{"invalid date", func(d *Data) { d.IssueDate = civil.Date{Year: 2024, Month: 2, Day: 31} }, "issue_date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := data()
			tc.mod(&d)
			req := request(models.StatusCompleted)
			err := Create(req, d, at)
			var ve *lifecycle.ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected validation error on %s, got %v", tc.field, err)
			}
			if req.Invoice != nil {
				t.Fatalf("invoice attached despite invalid data")
			}
		})
	}

	if err := Create(request(models.StatusCompleted), Data{Number: "NF-0", IssueDate: data().IssueDate}, at); err != nil {
		t.Fatalf("zero amount should be accepted: %v", err)
	}
}

func TestUpdateToggleDelete(t *testing.T) {
	req := request(models.StatusCompleted)
	if err := Create(req, data(), at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	later := at.Add(time.Hour)
	if err := ToggleVisibility(req, later); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !req.Invoice.VisibleToClient {
		t.Fatalf("expected visible after toggle")
	}

	upd := data()
	upd.Amount = decimal.RequireFromString("410.50")
	if err := Update(req, upd, later); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !req.Invoice.Amount.Equal(decimal.RequireFromString("410.5")) || !req.Invoice.VisibleToClient {
		t.Fatalf("update lost fields: %+v", req.Invoice)
	}
	if !req.Invoice.CreatedAt.Equal(at) || !req.Invoice.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected timestamps: %+v", req.Invoice)
	}

	if err := Delete(req, later); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Invoice != nil || req.Status != models.StatusCompleted {
		t.Fatalf("expected invoice removed and status kept, got %+v", req)
	}
}

func TestOperationsWithoutInvoice(t *testing.T) {
	req := request(models.StatusCompleted)
	if err := Update(req, data(), at); !errors.Is(err, lifecycle.ErrIllegalState) {
		t.Fatalf("update: expected illegal state, got %v", err)
	}
	if err := ToggleVisibility(req, at); !errors.Is(err, lifecycle.ErrIllegalState) {
		t.Fatalf("toggle: expected illegal state, got %v", err)
	}
	if err := Delete(req, at); !errors.Is(err, lifecycle.ErrIllegalState) {
		t.Fatalf("delete: expected illegal state, got %v", err)
	}
}

func TestClientView(t *testing.T) {
	req := request(models.StatusCompleted)
	if ClientView(*req) != nil {
		t.Fatalf("expected nil without invoice")
	}
	if err := Create(req, data(), at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ClientView(*req) != nil {
		t.Fatalf("hidden invoice leaked to client view")
	}
	if err := ToggleVisibility(req, at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv := ClientView(*req); inv == nil || inv.Number != "NF-2024-0042" {
		t.Fatalf("expected visible invoice, got %+v", inv)
	}
}

func TestAttachPhotos(t *testing.T) {
	docs := models.PhotoDocumentation{
		ID:           "doc-1",
		BeforePhotos: []string{"before-1.jpg"},
		AfterPhotos:  []string{"after-1.jpg", "after-2.jpg"},
		UploadedBy:   "Carlos",
		UploadedByID: "col-3",
	}
	for _, status := range models.Statuses {
		req := request(status)
		err := AttachPhotos(req, docs, at)
		allowed := status == models.StatusInProgress || status == models.StatusCompleted
		if allowed {
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", status, err)
			}
			if req.PhotoDocumentation == nil || !req.PhotoDocumentation.UploadDate.Equal(at) {
				t.Fatalf("%s: photos not stored: %+v", status, req.PhotoDocumentation)
			}
			continue
		}
		if !errors.Is(err, lifecycle.ErrIllegalState) {
			t.Fatalf("%s: expected illegal state, got %v", status, err)
		}
	}

	if err := AttachPhotos(request(models.StatusCompleted), models.PhotoDocumentation{UploadedByID: "col-3"}, at); !errors.Is(err, lifecycle.ErrValidation) {
		t.Fatalf("expected validation error for empty photo set, got %v", err)
	}
}
