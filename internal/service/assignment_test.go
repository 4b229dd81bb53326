package service

import (
	"testing"
	"time"

	"github.com/hive-fieldops/backend/internal/lifecycle"
	"github.com/hive-fieldops/backend/internal/models"
)

func TestFilterEligibleManagers(t *testing.T) {
	managers := []models.Manager{
		{ID: "m1", Active: true, Areas: []models.Area{models.AreaNorte, models.AreaCentro}},
		{ID: "m2", Active: false, Areas: []models.Area{models.AreaNorte}},
		{ID: "m3", Active: true, Areas: []models.Area{models.AreaSul}},
	}
	req := models.ServiceRequest{ID: "r1", ClientArea: models.AreaNorte, Status: models.StatusPending}

	res := FilterEligibleManagers(managers, req)
	if len(res.Eligible) != 1 || res.Eligible[0].ID != "m1" {
		t.Fatalf("expected only m1 eligible, got %+v", res.Eligible)
	}
	if len(res.Stages) != 3 {
		t.Fatalf("expected three stages, got %d", len(res.Stages))
	}
}

func TestFilterEligibleManagersReasonCodes(t *testing.T) {
	refusedBy := "m1"
	cases := []struct {
		name     string
		managers []models.Manager
		req      models.ServiceRequest
		code     string
	}{
		{
			name:     "nobody active",
			managers: []models.Manager{{ID: "m1", Areas: []models.Area{models.AreaSul}}},
			req:      models.ServiceRequest{ClientArea: models.AreaSul},
			code:     ReasonNoActiveManagers,
		},
		{
			name:     "area not covered",
			managers: []models.Manager{{ID: "m1", Active: true, Areas: []models.Area{models.AreaSul}}},
			req:      models.ServiceRequest{ClientArea: models.AreaLeste},
			code:     ReasonAreaNotCovered,
		},
		{
			name:     "only the refusing manager covers the area",
			managers: []models.Manager{{ID: "m1", Active: true, Areas: []models.Area{models.AreaSul}}},
			req: models.ServiceRequest{
				ClientArea:        models.AreaSul,
				Status:            models.StatusRefusedByManager,
				AssignedManagerID: &refusedBy,
			},
			code: ReasonAllRefused,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := FilterEligibleManagers(tc.managers, tc.req)
			if res.ReasonCode != tc.code || len(res.Eligible) != 0 {
				t.Fatalf("expected %s, got %s with %d eligible", tc.code, res.ReasonCode, len(res.Eligible))
			}
		})
	}
}

func TestFilterEligibleManagersExcludesPastRefusals(t *testing.T) {
	managers := []models.Manager{
		{ID: "m1", Active: true, Areas: []models.Area{models.AreaOeste}},
		{ID: "m2", Active: true, Areas: []models.Area{models.AreaOeste}},
	}
	req := models.ServiceRequest{
		ID:         "r1",
		ClientArea: models.AreaOeste,
		Status:     models.StatusPending,
		History: []models.StatusChange{
			{From: models.StatusDelegated, To: models.StatusRefusedByManager, Event: lifecycle.EventManagerRefuses, ManagerID: "m1", At: time.Now()},
		},
	}
	res := FilterEligibleManagers(managers, req)
	if len(res.Eligible) != 1 || res.Eligible[0].ID != "m2" {
		t.Fatalf("expected m2 only, got %+v", res.Eligible)
	}
	if len(res.Excluded) != 1 || res.Excluded[0] != "m1" {
		t.Fatalf("expected m1 reported as excluded, got %v", res.Excluded)
	}
}

func TestPickAssigneeDeterministic(t *testing.T) {
	eligible := []models.Manager{
		{ID: "m1", CurrentLoad: 5},
		{ID: "m2", CurrentLoad: 1},
		{ID: "m3", CurrentLoad: 1},
	}
	assignee1, top2 := PickAssignee("REQ-2024-001", eligible)
	assignee2, _ := PickAssignee("REQ-2024-001", eligible)
	if assignee1.ID != assignee2.ID {
		t.Fatalf("expected deterministic assignment")
	}
	if len(top2) != 2 {
		t.Fatalf("expected top2 length 2")
	}
	if assignee1.ID != "m2" && assignee1.ID != "m3" {
		t.Fatalf("expected one of the tied managers, got %s", assignee1.ID)
	}
	if eligible[0].ID != "m1" {
		t.Fatalf("input slice reordered")
	}
}

func TestPickAssigneePrefersLowerLoad(t *testing.T) {
	managers := []models.Manager{
		{ID: "m1", CurrentLoad: 5},
		{ID: "m2", CurrentLoad: 1},
		{ID: "m3", CurrentLoad: 3},
	}
	got, top := PickAssignee("REQ-2024-099", managers)
	if got.ID != "m2" {
		t.Fatalf("expected m2 as the least loaded, got %s", got.ID)
	}
	if top[0].ID != "m2" || top[1].ID != "m3" {
		t.Fatalf("expected m2, m3 as least loaded, got %+v", top)
	}
}

func TestPickAssigneeSingleCandidate(t *testing.T) {
	only := []models.Manager{{ID: "m7", CurrentLoad: 9}}
	got, top := PickAssignee("any", only)
	if got.ID != "m7" || len(top) != 1 {
		t.Fatalf("expected m7, got %+v", got)
	}
}
