package service

import (
	"sort"

	"github.com/hive-fieldops/backend/internal/lifecycle"
	"github.com/hive-fieldops/backend/internal/models"
	"github.com/hive-fieldops/backend/internal/utils"
)

const (
	ReasonNoActiveManagers = "NO_ACTIVE_MANAGERS"
	ReasonAreaNotCovered   = "AREA_NOT_COVERED"
	ReasonAllRefused       = "ALL_MANAGERS_REFUSED"
)

type EligibilityResult struct {
	Eligible   []models.Manager   `json:"eligible"`
	ReasonCode string             `json:"reason_code,omitempty"`
	ReasonText string             `json:"reason_text,omitempty"`
	Stages     []EligibilityStage `json:"stages"`
	Excluded   []string           `json:"excluded,omitempty"`
}

type EligibilityStage struct {
	Name       string           `json:"name"`
	Candidates []models.Manager `json:"candidates"`
}

// FilterEligibleManagers narrows managers down to those a request can be
// delegated to: active, covering the client's area, and not among the managers
// who already refused it.
func FilterEligibleManagers(managers []models.Manager, req models.ServiceRequest) EligibilityResult {
	var result EligibilityResult

	active := filterManagers(managers, func(m models.Manager) bool { return m.Active })
	result.Stages = append(result.Stages, EligibilityStage{Name: "active_managers", Candidates: active})
	if len(active) == 0 {
		result.ReasonCode = ReasonNoActiveManagers
		result.ReasonText = "No active managers"
		return result
	}

	inArea := filterManagers(active, func(m models.Manager) bool { return coversArea(m.Areas, req.ClientArea) })
	result.Stages = append(result.Stages, EligibilityStage{Name: "area_rule", Candidates: inArea})
	if len(inArea) == 0 {
		result.ReasonCode = ReasonAreaNotCovered
		result.ReasonText = "No active manager covers area " + string(req.ClientArea)
		return result
	}

	refused := refusingManagers(req)
	notRefused := filterManagers(inArea, func(m models.Manager) bool { return !refused[m.ID] })
	result.Stages = append(result.Stages, EligibilityStage{Name: "refusal_rule", Candidates: notRefused})
	for id := range refused {
		result.Excluded = append(result.Excluded, id)
	}
	sort.Strings(result.Excluded)
	if len(notRefused) == 0 {
		result.ReasonCode = ReasonAllRefused
		result.ReasonText = "Every manager covering the area already refused this request"
		return result
	}

	result.Eligible = notRefused
	return result
}

// PickAssignee orders eligible managers by load and returns the least loaded
// one with the two least loaded as candidates. Managers tied at the lowest load
// are chosen between by a stable hash of the request id. eligible must not be
// empty.
func PickAssignee(requestID string, eligible []models.Manager) (models.Manager, []models.Manager) {
	sorted := append([]models.Manager(nil), eligible...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CurrentLoad == sorted[j].CurrentLoad {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CurrentLoad < sorted[j].CurrentLoad
	})

	top := sorted
	if len(top) > 2 {
		top = sorted[:2]
	}
	tied := 1
	for tied < len(sorted) && sorted[tied].CurrentLoad == sorted[0].CurrentLoad {
		tied++
	}
	return sorted[utils.StableIndex(requestID, tied)], top
}

// refusingManagers collects every manager recorded as refusing the request,
// plus the currently assigned one when the request sits in refused_by_manager.
func refusingManagers(req models.ServiceRequest) map[string]bool {
	out := map[string]bool{}
	for _, h := range req.History {
		if h.Event == lifecycle.EventManagerRefuses && h.ManagerID != "" {
			out[h.ManagerID] = true
		}
	}
	if req.Status == models.StatusRefusedByManager && req.AssignedManagerID != nil {
		out[*req.AssignedManagerID] = true
	}
	return out
}

func coversArea(areas []models.Area, target models.Area) bool {
	for _, a := range areas {
		if a == target {
			return true
		}
	}
	return false
}

func filterManagers(managers []models.Manager, keep func(models.Manager) bool) []models.Manager {
	out := make([]models.Manager, 0, len(managers))
	for _, m := range managers {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
