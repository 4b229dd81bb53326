package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hive-fieldops/backend/internal/lifecycle"
	"github.com/hive-fieldops/backend/internal/models"
	"github.com/hive-fieldops/backend/internal/service"
)

type SubmitRequestBody struct {
	ClientID       string `json:"client_id" validate:"required"`
	ClientName     string `json:"client_name"`
	ClientArea     string `json:"client_area" validate:"required"`
	ClientLocation string `json:"client_location"`
	ServiceType    string `json:"service_type" validate:"required"`
	Description    string `json:"description"`
	PreferredDate  string `json:"preferred_date" validate:"required"`
}

type EditRequestBody struct {
	ServiceType          *string  `json:"service_type"`
	Description          *string  `json:"description"`
	ScheduledDate        *string  `json:"scheduled_date"`
	ScheduledTime        *string  `json:"scheduled_time"`
	ScheduledDescription *string  `json:"scheduled_description"`
	TeamID               *string  `json:"assigned_team_id"`
	TeamMembers          []string `json:"assigned_team_members"`
}

// TransitionBody carries the payload of every lifecycle event; each event
// reads only the fields it needs.
type TransitionBody struct {
	ActorID              string   `json:"actor_id"`
	Reason               string   `json:"reason"`
	ManagerID            string   `json:"manager_id"`
	TeamID               *string  `json:"team_id"`
	TeamMembers          []string `json:"team_members"`
	CollaboratorID       *string  `json:"collaborator_id"`
	ScheduledDate        *string  `json:"scheduled_date"`
	ScheduledTime        *string  `json:"scheduled_time"`
	ScheduledDescription string   `json:"scheduled_description"`
}

type AvailableDateBody struct {
	Date string `json:"date" validate:"required"`
}

// @Summary List service requests
// @Tags requests
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param area query string false "Client area"
// @Param q query string false "Search id, client name or service type"
// @Param from query string false "Preferred date lower bound (YYYY-MM-DD)"
// @Param to query string false "Preferred date upper bound (YYYY-MM-DD)"
// @Success 200 {object} map[string]any
// @Router /api/requests [get]
func (h *Handler) RequestsList(c *gin.Context) {
	filter := service.RequestFilter{Query: strings.TrimSpace(c.Query("q"))}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st, ok := models.ParseStatus(part)
			if !ok {
				writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown status", part)
				return
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}
	if raw := c.Query("area"); raw != "" {
		area, ok := models.ParseArea(raw)
		if !ok {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown area", raw)
			return
		}
		filter.Area = area
	}
	var err error
	from, to := c.Query("from"), c.Query("to")
	if filter.From, err = parseOptionalDate("from", &from); err != nil {
		h.fail(c, err, "Failed to list requests")
		return
	}
	if filter.To, err = parseOptionalDate("to", &to); err != nil {
		h.fail(c, err, "Failed to list requests")
		return
	}

	items, err := h.Service.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err, "Failed to list requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Submit a service request
// @Tags requests
// @Accept json
// @Produce json
// @Param body body SubmitRequestBody true "Request"
// @Success 201 {object} models.ServiceRequest
// @Failure 400 {object} map[string]any
// @Router /api/requests [post]
func (h *Handler) RequestSubmit(c *gin.Context) {
	var body SubmitRequestBody
	if !h.bind(c, &body, false) {
		return
	}
	preferred, err := parseDate("preferred_date", body.PreferredDate)
	if err != nil {
		h.fail(c, err, "Failed to submit request")
		return
	}
	area, _ := models.ParseArea(body.ClientArea)

	req, err := h.Service.Submit(c.Request.Context(), lifecycle.Submission{
		ClientID:       body.ClientID,
		ClientName:     body.ClientName,
		ClientArea:     area,
		ClientLocation: body.ClientLocation,
		ServiceType:    body.ServiceType,
		Description:    body.Description,
		PreferredDate:  preferred,
	})
	if err != nil {
		h.fail(c, err, "Failed to submit request")
		return
	}
	c.JSON(http.StatusCreated, req)
}

// @Summary Request details
// @Tags requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} service.RequestDetail
// @Failure 404 {object} map[string]any
// @Router /api/requests/{id} [get]
func (h *Handler) RequestDetails(c *gin.Context) {
	detail, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Request")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// @Summary Edit mutable request fields
// @Tags requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param body body EditRequestBody true "Changes"
// @Success 200 {object} models.ServiceRequest
// @Failure 409 {object} map[string]any
// @Router /api/requests/{id} [patch]
func (h *Handler) RequestEdit(c *gin.Context) {
	var body EditRequestBody
	if !h.bind(c, &body, false) {
		return
	}
	edit := lifecycle.RequestEdit{
		ServiceType:          body.ServiceType,
		Description:          body.Description,
		ScheduledDescription: body.ScheduledDescription,
		TeamID:               body.TeamID,
		TeamMembers:          body.TeamMembers,
	}
	var err error
	if edit.ScheduledDate, err = parseOptionalDate("scheduled_date", body.ScheduledDate); err != nil {
		h.fail(c, err, "Failed to edit request")
		return
	}
	if edit.ScheduledTime, err = parseOptionalTime("scheduled_time", body.ScheduledTime); err != nil {
		h.fail(c, err, "Failed to edit request")
		return
	}

	req, err := h.Service.Edit(c.Request.Context(), c.Param("id"), edit)
	if err != nil {
		h.fail(c, err, "Request")
		return
	}
	c.JSON(http.StatusOK, req)
}

// @Summary Apply a lifecycle event
// @Tags requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param event path string true "mark-urgent | delegate | manager-accepts | manager-refuses | redesignate | approve | start | complete | cancel | reject"
// @Param body body TransitionBody false "Event payload"
// @Success 200 {object} models.ServiceRequest
// @Failure 409 {object} map[string]any
// @Router /api/requests/{id}/events/{event} [post]
func (h *Handler) RequestTransition(c *gin.Context) {
	var body TransitionBody
	if !h.bind(c, &body, true) {
		return
	}
	name := strings.ReplaceAll(strings.ToLower(c.Param("event")), "-", "_")
	ev, err := buildEvent(name, body)
	if err != nil {
		h.fail(c, err, "Failed to apply event")
		return
	}
	if ev == nil {
		writeError(c, http.StatusNotFound, "UNKNOWN_EVENT", "Unknown event", c.Param("event"))
		return
	}

	req, err := h.Service.Transition(c.Request.Context(), c.Param("id"), ev, body.ActorID)
	if err != nil {
		h.fail(c, err, "Request")
		return
	}
	c.JSON(http.StatusOK, req)
}

func buildEvent(name string, body TransitionBody) (lifecycle.Event, error) {
	switch name {
	case lifecycle.EventMarkUrgent:
		return lifecycle.MarkUrgent{Reason: body.Reason}, nil
	case lifecycle.EventDelegate:
		return lifecycle.Delegate{ManagerID: body.ManagerID}, nil
	case lifecycle.EventManagerRefuses:
		return lifecycle.ManagerRefuses{Reason: body.Reason}, nil
	case lifecycle.EventRedesignate:
		return lifecycle.Redesignate{ManagerID: body.ManagerID}, nil
	case lifecycle.EventManagerAccepts, lifecycle.EventApprove:
		a, err := buildAssignment(body)
		if err != nil {
			return nil, err
		}
		if name == lifecycle.EventApprove {
			return lifecycle.Approve{Assignment: a}, nil
		}
		return lifecycle.ManagerAccepts{Assignment: a}, nil
	case lifecycle.EventStart:
		return lifecycle.Start{}, nil
	case lifecycle.EventComplete:
		return lifecycle.Complete{}, nil
	case lifecycle.EventCancel:
		return lifecycle.Cancel{Reason: body.Reason}, nil
	case lifecycle.EventReject:
		return lifecycle.Reject{}, nil
	}
	return nil, nil
}

func buildAssignment(body TransitionBody) (lifecycle.Assignment, error) {
	date, err := parseOptionalDate("scheduled_date", body.ScheduledDate)
	if err != nil {
		return lifecycle.Assignment{}, err
	}
	at, err := parseOptionalTime("scheduled_time", body.ScheduledTime)
	if err != nil {
		return lifecycle.Assignment{}, err
	}
	return lifecycle.Assignment{
		TeamID:               body.TeamID,
		TeamMembers:          body.TeamMembers,
		CollaboratorID:       body.CollaboratorID,
		ScheduledDate:        date,
		ScheduledTime:        at,
		ScheduledDescription: body.ScheduledDescription,
	}, nil
}

// @Summary Add a client availability date
// @Tags requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param body body AvailableDateBody true "Date"
// @Success 200 {object} models.ServiceRequest
// @Router /api/requests/{id}/available-dates [post]
func (h *Handler) AvailableDateAdd(c *gin.Context) {
	var body AvailableDateBody
	if !h.bind(c, &body, false) {
		return
	}
	d, err := parseDate("date", body.Date)
	if err != nil {
		h.fail(c, err, "Failed to add date")
		return
	}
	req, err := h.Service.AddAvailableDate(c.Request.Context(), c.Param("id"), d)
	if err != nil {
		h.fail(c, err, "Request")
		return
	}
	c.JSON(http.StatusOK, req)
}

// @Summary Remove a client availability date
// @Tags requests
// @Produce json
// @Param id path string true "Request ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} models.ServiceRequest
// @Router /api/requests/{id}/available-dates/{date} [delete]
func (h *Handler) AvailableDateRemove(c *gin.Context) {
	d, err := parseDate("date", c.Param("date"))
	if err != nil {
		h.fail(c, err, "Failed to remove date")
		return
	}
	req, err := h.Service.RemoveAvailableDate(c.Request.Context(), c.Param("id"), d)
	if err != nil {
		h.fail(c, err, "Request")
		return
	}
	c.JSON(http.StatusOK, req)
}
