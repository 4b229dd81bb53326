package handlers

import (
	"net/http"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"github.com/hive-fieldops/backend/internal/calendar"
	"github.com/hive-fieldops/backend/internal/lifecycle"
	"github.com/hive-fieldops/backend/internal/models"
	"github.com/hive-fieldops/backend/internal/service"
)

type EventBody struct {
	OwnerID     string  `json:"owner_id" validate:"required"`
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description"`
	Date        string  `json:"date" validate:"required"`
	Time        string  `json:"time" validate:"required"`
	EndTime     *string `json:"end_time"`
	Kind        string  `json:"kind" validate:"omitempty,oneof=event meeting personal"`
	Location    string  `json:"location"`
	Color       string  `json:"color" validate:"omitempty,hexcolor"`
	Reminder    string  `json:"reminder" validate:"omitempty,oneof=none one_day_before two_hours_before"`
}

type CalendarResponse struct {
	calendar.View
	Previous civil.Date `json:"previous" swaggertype:"string"`
	Next     civil.Date `json:"next" swaggertype:"string"`
}

// calendarQuery reads view, date and owner. The date defaults to today in the
// configured location and the view to monthly.
func (h *Handler) calendarQuery(c *gin.Context) (civil.Date, calendar.Granularity, string, error) {
	g, ok := calendar.ParseGranularity(c.DefaultQuery("view", string(calendar.Monthly)))
	if !ok {
		return civil.Date{}, "", "", &lifecycle.ValidationError{Field: "view", Message: "must be daily, weekly or monthly"}
	}
	ref := h.Service.Today()
	if raw := c.Query("date"); raw != "" {
		d, err := parseDate("date", raw)
		if err != nil {
			return civil.Date{}, "", "", err
		}
		ref = d
	}
	return ref, g, strings.TrimSpace(c.Query("owner")), nil
}

// @Summary Calendar view
// @Tags calendar
// @Produce json
// @Param view query string false "daily | weekly | monthly"
// @Param date query string false "Reference date (YYYY-MM-DD), defaults to today"
// @Param owner query string false "Only this owner's events and assigned services"
// @Success 200 {object} CalendarResponse
// @Router /api/calendar [get]
func (h *Handler) CalendarView(c *gin.Context) {
	ref, g, owner, err := h.calendarQuery(c)
	if err != nil {
		h.fail(c, err, "Invalid calendar query")
		return
	}
	view, err := h.Service.CalendarView(c.Request.Context(), ref, g, owner)
	if err != nil {
		h.fail(c, err, "Failed to build calendar")
		return
	}
	prev, _ := calendar.Previous(ref, g)
	next, _ := calendar.Next(ref, g)
	c.JSON(http.StatusOK, CalendarResponse{View: view, Previous: prev, Next: next})
}

// @Summary Calendar view as iCalendar
// @Tags calendar
// @Produce text/calendar
// @Param view query string false "daily | weekly | monthly"
// @Param date query string false "Reference date (YYYY-MM-DD)"
// @Param owner query string false "Owner filter"
// @Success 200 {string} string
// @Router /api/calendar.ics [get]
func (h *Handler) CalendarICS(c *gin.Context) {
	ref, g, owner, err := h.calendarQuery(c)
	if err != nil {
		h.fail(c, err, "Invalid calendar query")
		return
	}
	feed, err := h.Service.CalendarFeed(c.Request.Context(), ref, g, owner)
	if err != nil {
		h.fail(c, err, "Failed to build calendar feed")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="agenda.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}

// @Summary Create a personal calendar event
// @Tags calendar
// @Accept json
// @Produce json
// @Param body body EventBody true "Event"
// @Success 201 {object} models.ScheduledEvent
// @Router /api/events [post]
func (h *Handler) EventCreate(c *gin.Context) {
	var body EventBody
	if !h.bind(c, &body, false) {
		return
	}
	date, err := parseDate("date", body.Date)
	if err != nil {
		h.fail(c, err, "Invalid event")
		return
	}
	at, err := parseTime("time", body.Time)
	if err != nil {
		h.fail(c, err, "Invalid event")
		return
	}
	end, err := parseOptionalTime("end_time", body.EndTime)
	if err != nil {
		h.fail(c, err, "Invalid event")
		return
	}

	ev, err := h.Service.CreateEvent(c.Request.Context(), service.NewEvent{
		OwnerID:     body.OwnerID,
		Title:       body.Title,
		Description: body.Description,
		Date:        date,
		Time:        at,
		EndTime:     end,
		Kind:        models.EventKind(body.Kind),
		Location:    body.Location,
		Color:       body.Color,
		Reminder:    models.Reminder(body.Reminder),
	})
	if err != nil {
		h.fail(c, err, "Failed to create event")
		return
	}
	c.JSON(http.StatusCreated, ev)
}

// @Summary List entries overlapping a personal calendar event
// @Tags calendar
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {array} models.ScheduledEvent
// @Router /api/events/{id}/conflicts [get]
func (h *Handler) EventConflicts(c *gin.Context) {
	conflicts, err := h.Service.EventConflicts(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Event")
		return
	}
	c.JSON(http.StatusOK, conflicts)
}

// @Summary Delete a personal calendar event
// @Tags calendar
// @Param id path string true "Event ID"
// @Success 204
// @Router /api/events/{id} [delete]
func (h *Handler) EventDelete(c *gin.Context) {
	if err := h.Service.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Event")
		return
	}
	c.Status(http.StatusNoContent)
}
