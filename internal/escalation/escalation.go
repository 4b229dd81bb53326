// Package escalation classifies how long a request has waited for a first
// answer. The result is advisory: it never changes a request's status.
package escalation

import (
	"time"

	"github.com/hive-fieldops/backend/internal/models"
)

type Band string

const (
	BandNormal   Band = "normal"
	BandUrgent   Band = "urgent"
	BandCritical Band = "critical"
)

const (
	UrgentAfter   = 90 * time.Minute
	CriticalAfter = 2 * time.Hour
)

type Classification struct {
	Hours   int           `json:"hours"`
	Minutes int           `json:"minutes"`
	Band    Band          `json:"band"`
	Elapsed time.Duration `json:"elapsed"`
}

// Classify buckets the time between requestedAt and now. A now before
// requestedAt counts as no time elapsed.
func Classify(requestedAt, now time.Time) Classification {
	elapsed := now.Sub(requestedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	band := BandNormal
	switch {
	case elapsed >= CriticalAfter:
		band = BandCritical
	case elapsed >= UrgentAfter:
		band = BandUrgent
	}

	return Classification{
		Hours:   int(elapsed / time.Hour),
		Minutes: int((elapsed % time.Hour) / time.Minute),
		Band:    band,
		Elapsed: elapsed,
	}
}

// ForRequest classifies req when it is still waiting on a first decision
// (pending or urgent); ok is false for every other status.
func ForRequest(req models.ServiceRequest, now time.Time) (Classification, bool) {
	if !req.Status.IsPendingFamily() {
		return Classification{}, false
	}
	return Classify(req.RequestedAt, now), true
}

// Rank orders bands so callers can compare severities.
func (b Band) Rank() int {
	switch b {
	case BandCritical:
		return 2
	case BandUrgent:
		return 1
	}
	return 0
}
