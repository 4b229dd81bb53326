package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hive-fieldops/backend/internal/invoice"
	"github.com/hive-fieldops/backend/internal/models"
)

type InvoiceBody struct {
	Number    string           `json:"number" validate:"required"`
	Amount    *decimal.Decimal `json:"amount" validate:"required" swaggertype:"string" example:"150.00"`
	IssueDate string           `json:"issue_date" validate:"required"`
}

type PhotosBody struct {
	BeforePhotos []string `json:"before_photos"`
	AfterPhotos  []string `json:"after_photos"`
	UploadedBy   string   `json:"uploaded_by"`
	UploadedByID string   `json:"uploaded_by_id" validate:"required"`
}

func (h *Handler) invoiceData(c *gin.Context) (invoice.Data, bool) {
	var body InvoiceBody
	if !h.bind(c, &body, false) {
		return invoice.Data{}, false
	}
	issued, err := parseDate("issue_date", body.IssueDate)
	if err != nil {
		h.fail(c, err, "Invalid invoice")
		return invoice.Data{}, false
	}
	return invoice.Data{Number: body.Number, Amount: *body.Amount, IssueDate: issued}, true
}

// @Summary Create the invoice of a completed request
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param body body InvoiceBody true "Invoice"
// @Success 201 {object} models.ServiceRequest
// @Failure 409 {object} map[string]any
// @Router /api/requests/{id}/invoice [post]
func (h *Handler) InvoiceCreate(c *gin.Context) {
	d, ok := h.invoiceData(c)
	if !ok {
		return
	}
	req, err := h.Service.CreateInvoice(c.Request.Context(), c.Param("id"), d)
	if err != nil {
		h.fail(c, err, "Request")
		return
	}
	c.JSON(http.StatusCreated, req)
}

// @Summary Replace invoice data
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param body body InvoiceBody true "Invoice"
// @Success 200 {object} models.ServiceRequest
// @Router /api/requests/{id}/invoice [put]
func (h *Handler) InvoiceUpdate(c *gin.Context) {
	d, ok := h.invoiceData(c)
	if !ok {
		return
	}
	req, err := h.Service.UpdateInvoice(c.Request.Context(), c.Param("id"), d)
	if err != nil {
		h.fail(c, err, "Request")
		return
	}
	c.JSON(http.StatusOK, req)
}

// @Summary Toggle invoice visibility to the client
// @Tags invoices
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} models.ServiceRequest
// @Router /api/requests/{id}/invoice/visibility [post]
func (h *Handler) InvoiceToggleVisibility(c *gin.Context) {
	req, err := h.Service.ToggleInvoiceVisibility(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Request")
		return
	}
	c.JSON(http.StatusOK, req)
}

// @Summary Delete the invoice
// @Tags invoices
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} models.ServiceRequest
// @Router /api/requests/{id}/invoice [delete]
func (h *Handler) InvoiceDelete(c *gin.Context) {
	req, err := h.Service.DeleteInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Request")
		return
	}
	c.JSON(http.StatusOK, req)
}

// @Summary Invoice as seen by the client
// @Description 404 until the invoice is made visible.
// @Tags invoices
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} models.Invoice
// @Failure 404 {object} map[string]any
// @Router /api/requests/{id}/invoice/client [get]
func (h *Handler) InvoiceClientView(c *gin.Context) {
	inv, err := h.Service.ClientInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Invoice")
		return
	}
	c.JSON(http.StatusOK, inv)
}

// @Summary Attach before/after photo references
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param body body PhotosBody true "Photos"
// @Success 200 {object} models.ServiceRequest
// @Router /api/requests/{id}/photos [post]
func (h *Handler) PhotosAttach(c *gin.Context) {
	var body PhotosBody
	if !h.bind(c, &body, false) {
		return
	}
	req, err := h.Service.AttachPhotos(c.Request.Context(), c.Param("id"), models.PhotoDocumentation{
		BeforePhotos: body.BeforePhotos,
		AfterPhotos:  body.AfterPhotos,
		UploadedBy:   body.UploadedBy,
		UploadedByID: body.UploadedByID,
	})
	if err != nil {
		h.fail(c, err, "Request")
		return
	}
	c.JSON(http.StatusOK, req)
}
