package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/hive-fieldops/backend/internal/calendar"
	"github.com/hive-fieldops/backend/internal/lifecycle"
	"github.com/hive-fieldops/backend/internal/service"
)

type Handler struct {
	Service   *service.RequestService
	Validator *validator.Validate
	Logger    zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Service.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Store unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// fail maps domain and store errors onto HTTP responses.
func (h *Handler) fail(c *gin.Context, err error, message string) {
	var (
		verr *lifecycle.ValidationError
		terr *lifecycle.InvalidTransitionError
		merr *lifecycle.ImmutableStateError
		serr *lifecycle.IllegalStateError
		cerr *service.ScheduleConflictError
	)
	switch {
	case errors.As(err, &verr):
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), gin.H{"field": verr.Field})
	case errors.As(err, &terr):
		writeError(c, http.StatusConflict, "INVALID_TRANSITION", terr.Error(), gin.H{
			"status": terr.Status,
			"event":  terr.Event,
		})
	case errors.As(err, &merr):
		writeError(c, http.StatusConflict, "IMMUTABLE_STATE", merr.Error(), gin.H{"status": merr.Status})
	case errors.As(err, &serr):
		writeError(c, http.StatusConflict, "ILLEGAL_STATE", serr.Error(), gin.H{
			"status":    serr.Status,
			"operation": serr.Operation,
		})
	case errors.Is(err, calendar.ErrUnknownGranularity), errors.Is(err, calendar.ErrInvalidDate):
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.As(err, &cerr):
		writeError(c, http.StatusConflict, "SCHEDULE_CONFLICT", cerr.Error(), gin.H{"conflicts": cerr.Conflicts})
	case errors.Is(err, service.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", message+": not found", nil)
	case errors.Is(err, service.ErrConflict):
		writeError(c, http.StatusConflict, "CONFLICT", "Request was modified concurrently, reload and retry", nil)
	default:
		h.Logger.Error().Err(err).Str("request_id", c.GetString("X-Request-Id")).Msg(message)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
	}
}

// bind decodes an optional JSON body and validates it. An empty body leaves
// dst untouched.
func (h *Handler) bind(c *gin.Context, dst any, optional bool) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
			return false
		}
	}
	if err := h.Validator.Struct(dst); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return false
	}
	return true
}

func parseDate(field, raw string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(raw))
	if err != nil || !d.IsValid() {
		return civil.Date{}, &lifecycle.ValidationError{Field: field, Message: "must be a YYYY-MM-DD date"}
	}
	return d, nil
}

func parseOptionalDate(field string, raw *string) (*civil.Date, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	d, err := parseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseTime accepts HH:MM and HH:MM:SS.
func parseTime(field, raw string) (civil.Time, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) == len("15:04") {
		raw += ":00"
	}
	t, err := civil.ParseTime(raw)
	if err != nil || !t.IsValid() {
		return civil.Time{}, &lifecycle.ValidationError{Field: field, Message: "must be an HH:MM time"}
	}
	return t, nil
}

func parseOptionalTime(field string, raw *string) (*civil.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := parseTime(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
