package db

import (
	"context"

	"github.com/hive-fieldops/backend/internal/models"
)

// ListManagers returns every manager with a load derived from the requests
// currently delegated to or being executed under them.
func (s *Store) ListManagers(ctx context.Context) ([]models.Manager, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT m.id, m.name, m.email, m.areas, m.active,
		       COUNT(r.id) AS current_load
		FROM managers m
		LEFT JOIN service_requests r
		       ON r.assigned_manager_id = m.id
		      AND r.status IN ('delegated', 'approved', 'in_progress')
		GROUP BY m.id, m.name, m.email, m.areas, m.active
		ORDER BY current_load ASC, m.id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Manager{}
	for rows.Next() {
		var m models.Manager
		var areas []string
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &areas, &m.Active, &m.CurrentLoad); err != nil {
			return nil, err
		}
		for _, a := range areas {
			m.Areas = append(m.Areas, models.Area(a))
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
