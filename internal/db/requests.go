package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"

	"github.com/hive-fieldops/backend/internal/models"
	"github.com/hive-fieldops/backend/internal/service"
)

// Requests are stored as a JSONB document next to the columns used for
// filtering. The document is the source of truth on reads.

func (s *Store) CreateRequest(ctx context.Context, req models.ServiceRequest) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		doc, err := json.Marshal(req)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO service_requests (
				id, client_id, client_name, client_area, service_type, status,
				requested_at, preferred_date, scheduled_date, assigned_manager_id,
				assigned_collaborator_id, doc, version, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`,
			req.ID, req.ClientID, req.ClientName, string(req.ClientArea), req.ServiceType, string(req.Status),
			req.RequestedAt, dateArg(&req.PreferredDate), dateArg(req.ScheduledDate), req.AssignedManagerID,
			req.AssignedCollaboratorID, doc, req.Version, updatedAt(req),
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("request %s: %w", req.ID, service.ErrConflict)
		}
		if err != nil {
			return err
		}
		return insertHistory(ctx, tx, req.ID, req.History)
	})
}

func (s *Store) GetRequest(ctx context.Context, id string) (models.ServiceRequest, error) {
	var doc []byte
	var version int
	err := s.Pool.QueryRow(ctx, `SELECT doc, version FROM service_requests WHERE id = $1`, id).Scan(&doc, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ServiceRequest{}, fmt.Errorf("request %s: %w", id, service.ErrNotFound)
	}
	if err != nil {
		return models.ServiceRequest{}, err
	}
	return decodeRequest(doc, version)
}

func (s *Store) ListRequests(ctx context.Context, f service.RequestFilter) ([]models.ServiceRequest, error) {
	query := `SELECT doc, version FROM service_requests`
	var args []any
	var wheres []string
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, st := range f.Statuses {
			statuses = append(statuses, string(st))
		}
		args = append(args, statuses)
		wheres = append(wheres, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if f.Area != "" {
		args = append(args, string(f.Area))
		wheres = append(wheres, fmt.Sprintf("client_area = $%d", len(args)))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		wheres = append(wheres, fmt.Sprintf("(id ILIKE $%d OR client_name ILIKE $%d OR service_type ILIKE $%d)", n, n, n))
	}
	if f.From != nil {
		args = append(args, dateArg(f.From))
		wheres = append(wheres, fmt.Sprintf("preferred_date >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, dateArg(f.To))
		wheres = append(wheres, fmt.Sprintf("preferred_date <= $%d", len(args)))
	}
	if f.ScheduledFrom != nil || f.ScheduledTo != nil {
		wheres = append(wheres, "scheduled_date IS NOT NULL")
	}
	if f.ScheduledFrom != nil {
		args = append(args, dateArg(f.ScheduledFrom))
		wheres = append(wheres, fmt.Sprintf("scheduled_date >= $%d", len(args)))
	}
	if f.ScheduledTo != nil {
		args = append(args, dateArg(f.ScheduledTo))
		wheres = append(wheres, fmt.Sprintf("scheduled_date <= $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY requested_at DESC, id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ServiceRequest{}
	for rows.Next() {
		var doc []byte
		var version int
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, err
		}
		req, err := decodeRequest(doc, version)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// UpdateRequest writes req if the stored version still equals req.Version and
// appends the history entries the stored log does not have yet.
func (s *Store) UpdateRequest(ctx context.Context, req models.ServiceRequest) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		next := req
		next.Version = req.Version + 1
		doc, err := json.Marshal(next)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE service_requests SET
				client_name = $3, service_type = $4, status = $5, scheduled_date = $6,
				assigned_manager_id = $7, assigned_collaborator_id = $8, doc = $9,
				version = version + 1, updated_at = $10
			WHERE id = $1 AND version = $2
		`,
			req.ID, req.Version, req.ClientName, req.ServiceType, string(req.Status), dateArg(req.ScheduledDate),
			req.AssignedManagerID, req.AssignedCollaboratorID, doc, updatedAt(req),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM service_requests WHERE id = $1)`, req.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("request %s: %w", req.ID, service.ErrNotFound)
			}
			return fmt.Errorf("request %s version %d: %w", req.ID, req.Version, service.ErrConflict)
		}

		var logged int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM service_status_history WHERE request_id = $1`, req.ID).Scan(&logged); err != nil {
			return err
		}
		if logged < len(req.History) {
			return insertHistory(ctx, tx, req.ID, req.History[logged:])
		}
		return nil
	})
}

func insertHistory(ctx context.Context, tx pgx.Tx, requestID string, entries []models.StatusChange) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(entries))
	for _, h := range entries {
		rows = append(rows, []any{requestID, string(h.From), string(h.To), h.Event, h.Reason, h.ManagerID, h.ActorID, h.At})
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"service_status_history"},
		[]string{"request_id", "from_status", "to_status", "event", "reason", "manager_id", "actor_id", "changed_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func decodeRequest(doc []byte, version int) (models.ServiceRequest, error) {
	var req models.ServiceRequest
	if err := json.Unmarshal(doc, &req); err != nil {
		return models.ServiceRequest{}, fmt.Errorf("decode request: %w", err)
	}
	req.Version = version
	if req.AvailableDates == nil {
		req.AvailableDates = []civil.Date{}
	}
	return req, nil
}

func dateArg(d *civil.Date) any {
	if d == nil {
		return nil
	}
	return d.In(time.UTC)
}

func updatedAt(req models.ServiceRequest) time.Time {
	if req.UpdatedAt.IsZero() {
		return req.RequestedAt
	}
	return req.UpdatedAt
}
