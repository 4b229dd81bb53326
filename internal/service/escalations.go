package service

import (
	"context"
	"sort"
	"time"

	"github.com/hive-fieldops/backend/internal/escalation"
	"github.com/hive-fieldops/backend/internal/lifecycle"
	"github.com/hive-fieldops/backend/internal/models"
)

type EscalationEntry struct {
	RequestID      string                    `json:"request_id"`
	ClientName     string                    `json:"client_name"`
	ClientArea     models.Area               `json:"client_area"`
	ServiceType    string                    `json:"service_type"`
	Status         models.Status             `json:"status"`
	RequestedAt    time.Time                 `json:"requested_at"`
	Classification escalation.Classification `json:"classification"`
}

// EscalationReport lists every request still waiting for a first decision,
// longest waiting first, with per-band counts.
type EscalationReport struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Entries     []EscalationEntry       `json:"entries"`
	Counts      map[escalation.Band]int `json:"counts"`
}

type Stats struct {
	Total    int                   `json:"total"`
	ByStatus map[models.Status]int `json:"by_status"`
	// UrgentBand and CriticalBand count pending-family requests whose elapsed
	// time crossed the respective threshold.
	UrgentBand   int `json:"urgent_band"`
	CriticalBand int `json:"critical_band"`
}

func (s *RequestService) Escalations(ctx context.Context) (EscalationReport, error) {
	reqs, err := s.Store.ListRequests(ctx, RequestFilter{
		Statuses: []models.Status{models.StatusPending, models.StatusUrgent},
	})
	if err != nil {
		return EscalationReport{}, err
	}
	now := s.now()
	return BuildEscalationReport(reqs, now), nil
}

func BuildEscalationReport(reqs []models.ServiceRequest, now time.Time) EscalationReport {
	report := EscalationReport{
		GeneratedAt: now,
		Entries:     []EscalationEntry{},
		Counts: map[escalation.Band]int{
			escalation.BandNormal:   0,
			escalation.BandUrgent:   0,
			escalation.BandCritical: 0,
		},
	}
	for _, r := range reqs {
		c, ok := escalation.ForRequest(r, now)
		if !ok {
			continue
		}
		report.Counts[c.Band]++
		report.Entries = append(report.Entries, EscalationEntry{
			RequestID:      r.ID,
			ClientName:     r.ClientName,
			ClientArea:     r.ClientArea,
			ServiceType:    r.ServiceType,
			Status:         r.Status,
			RequestedAt:    r.RequestedAt,
			Classification: c,
		})
	}
	sort.SliceStable(report.Entries, func(i, j int) bool {
		a, b := report.Entries[i], report.Entries[j]
		if a.Classification.Elapsed != b.Classification.Elapsed {
			return a.Classification.Elapsed > b.Classification.Elapsed
		}
		return a.RequestID < b.RequestID
	})
	return report
}

func (s *RequestService) Stats(ctx context.Context) (Stats, error) {
	reqs, err := s.Store.ListRequests(ctx, RequestFilter{})
	if err != nil {
		return Stats{}, err
	}
	return BuildStats(reqs, s.now()), nil
}

func BuildStats(reqs []models.ServiceRequest, now time.Time) Stats {
	st := Stats{ByStatus: make(map[models.Status]int, len(models.Statuses))}
	for _, status := range models.Statuses {
		st.ByStatus[status] = 0
	}
	for _, r := range reqs {
		st.Total++
		st.ByStatus[r.Status]++
		if c, ok := escalation.ForRequest(r, now); ok {
			switch c.Band {
			case escalation.BandUrgent:
				st.UrgentBand++
			case escalation.BandCritical:
				st.CriticalBand++
			}
		}
	}
	return st
}

// Suggestion is the delegation advice for one request.
type Suggestion struct {
	RequestID   string            `json:"request_id"`
	Suggested   *models.Manager   `json:"suggested"`
	Candidates  []models.Manager  `json:"candidates"`
	Eligibility EligibilityResult `json:"eligibility"`
}

// SuggestManagers proposes a manager for a request that can be delegated or
// redesignated.
func (s *RequestService) SuggestManagers(ctx context.Context, id string) (Suggestion, error) {
	req, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return Suggestion{}, err
	}
	if _, ok := lifecycle.Target(req.Status, lifecycle.EventDelegate); !ok {
		if _, ok := lifecycle.Target(req.Status, lifecycle.EventRedesignate); !ok {
			return Suggestion{}, &lifecycle.IllegalStateError{
				Status:    req.Status,
				Operation: "suggest managers",
				Reason:    "request cannot be delegated",
			}
		}
	}
	managers, err := s.Store.ListManagers(ctx)
	if err != nil {
		return Suggestion{}, err
	}

	elig := FilterEligibleManagers(managers, req)
	out := Suggestion{RequestID: req.ID, Eligibility: elig, Candidates: []models.Manager{}}
	if len(elig.Eligible) == 0 {
		s.Logger.Info().Str("request_id", id).Str("reason_code", elig.ReasonCode).Msg("no eligible manager")
		return out, nil
	}
	pick, top := PickAssignee(req.ID, elig.Eligible)
	out.Suggested = &pick
	out.Candidates = top
	return out, nil
}

// Managers lists managers least loaded first.
func (s *RequestService) Managers(ctx context.Context) ([]models.Manager, error) {
	return s.Store.ListManagers(ctx)
}
