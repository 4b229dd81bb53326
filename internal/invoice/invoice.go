// Package invoice manages the records attached to a request once the work is
// done: the invoice and the before/after photo documentation. None of these
// operations change a request's status.
package invoice

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/hive-fieldops/backend/internal/lifecycle"
	"github.com/hive-fieldops/backend/internal/models"
)

// Data is the editable part of an invoice.
type Data struct {
	Number    string
	Amount    decimal.Decimal
	IssueDate civil.Date
}

func (d Data) validate() error {
	if strings.TrimSpace(d.Number) == "" {
		return &lifecycle.ValidationError{Field: "number", Message: "is required"}
	}
	if d.Amount.IsNegative() {
		return &lifecycle.ValidationError{Field: "amount", Message: "must not be negative"}
	}
	if !d.IssueDate.IsValid() {
		return &lifecycle.ValidationError{Field: "issue_date", Message: "is not a valid date"}
	}
	return nil
}

// Create attaches a new, client-hidden invoice to a completed request.
func Create(req *models.ServiceRequest, d Data, at time.Time) error {
	if req.Status != models.StatusCompleted {
		return &lifecycle.IllegalStateError{Status: req.Status, Operation: "create invoice", Reason: "request is not completed"}
	}
	if req.Invoice != nil {
		return &lifecycle.IllegalStateError{Status: req.Status, Operation: "create invoice", Reason: "invoice already exists"}
	}
	if err := d.validate(); err != nil {
		return err
	}
	req.Invoice = &models.Invoice{
		Number:          strings.TrimSpace(d.Number),
		Amount:          d.Amount,
		IssueDate:       d.IssueDate,
		VisibleToClient: false,
		CreatedAt:       at,
		UpdatedAt:       at,
	}
	req.UpdatedAt = at
	return nil
}

// Update replaces number, amount and issue date. Visibility is kept.
func Update(req *models.ServiceRequest, d Data, at time.Time) error {
	if err := requireInvoice(req, "update invoice"); err != nil {
		return err
	}
	if err := d.validate(); err != nil {
		return err
	}
	inv := *req.Invoice
	inv.Number = strings.TrimSpace(d.Number)
	inv.Amount = d.Amount
	inv.IssueDate = d.IssueDate
	inv.UpdatedAt = at
	req.Invoice = &inv
	req.UpdatedAt = at
	return nil
}

func ToggleVisibility(req *models.ServiceRequest, at time.Time) error {
	if err := requireInvoice(req, "toggle invoice visibility"); err != nil {
		return err
	}
	inv := *req.Invoice
	inv.VisibleToClient = !inv.VisibleToClient
	inv.UpdatedAt = at
	req.Invoice = &inv
	req.UpdatedAt = at
	return nil
}

// Delete detaches the invoice. The request stays completed.
func Delete(req *models.ServiceRequest, at time.Time) error {
	if err := requireInvoice(req, "delete invoice"); err != nil {
		return err
	}
	req.Invoice = nil
	req.UpdatedAt = at
	return nil
}

// ClientView returns the invoice as a client may see it: nil unless it exists
// and has been made visible.
func ClientView(req models.ServiceRequest) *models.Invoice {
	if req.Invoice == nil || !req.Invoice.VisibleToClient {
		return nil
	}
	inv := *req.Invoice
	return &inv
}

// AttachPhotos records before/after photo references. Collaborators document
// the work while it runs or once it is finished.
func AttachPhotos(req *models.ServiceRequest, docs models.PhotoDocumentation, at time.Time) error {
	if req.Status != models.StatusInProgress && req.Status != models.StatusCompleted {
		return &lifecycle.IllegalStateError{Status: req.Status, Operation: "attach photos", Reason: "work has not started"}
	}
	if len(docs.BeforePhotos) == 0 && len(docs.AfterPhotos) == 0 {
		return &lifecycle.ValidationError{Field: "photos", Message: "at least one photo is required"}
	}
	if strings.TrimSpace(docs.UploadedByID) == "" {
		return &lifecycle.ValidationError{Field: "uploaded_by_id", Message: "is required"}
	}
	if docs.UploadDate.IsZero() {
		docs.UploadDate = at
	}
	docs.BeforePhotos = append([]string(nil), docs.BeforePhotos...)
	docs.AfterPhotos = append([]string(nil), docs.AfterPhotos...)
	req.PhotoDocumentation = &docs
	req.UpdatedAt = at
	return nil
}

func requireInvoice(req *models.ServiceRequest, op string) error {
	if req.Invoice == nil {
		return &lifecycle.IllegalStateError{Status: req.Status, Operation: op, Reason: "request has no invoice"}
	}
	return nil
}
