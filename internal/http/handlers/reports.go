package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Request counts per status and escalation band
// @Tags reports
// @Produce json
// @Success 200 {object} service.Stats
// @Router /api/requests/stats [get]
func (h *Handler) RequestStats(c *gin.Context) {
	st, err := h.Service.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to compute stats")
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary Pending requests by elapsed time
// @Tags reports
// @Produce json
// @Success 200 {object} service.EscalationReport
// @Router /api/requests/escalations [get]
func (h *Handler) RequestEscalations(c *gin.Context) {
	report, err := h.Service.Escalations(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to build escalation report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// @Summary Suggest a manager for delegation
// @Tags reports
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} service.Suggestion
// @Failure 409 {object} map[string]any
// @Router /api/requests/{id}/manager-suggestions [get]
func (h *Handler) ManagerSuggestions(c *gin.Context) {
	s, err := h.Service.SuggestManagers(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Request")
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) ManagersList(c *gin.Context) {
	items, err := h.Service.Managers(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to list managers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
