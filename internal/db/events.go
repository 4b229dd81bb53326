package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/hive-fieldops/backend/internal/models"
	"github.com/hive-fieldops/backend/internal/service"
)

func (s *Store) CreateEvent(ctx context.Context, ev models.ScheduledEvent) error {
	var end any
	if ev.EndTime != nil {
		end = timeArg(*ev.EndTime)
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO calendar_events (
			id, owner_id, event_date, event_time, end_time, title, description,
			kind, location, color, reminder, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		ev.ID, ev.OwnerID, ev.Date.In(time.UTC), timeArg(ev.Time), end, ev.Title, ev.Description,
		string(ev.Kind), ev.Location, ev.Color, string(ev.Reminder), ev.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("event %s: %w", ev.ID, service.ErrConflict)
	}
	return err
}

const eventColumns = `
		SELECT id, owner_id, event_date, event_time, end_time, title, description,
		       kind, location, color, reminder, created_at
		FROM calendar_events`

func (s *Store) GetEvent(ctx context.Context, id string) (models.ScheduledEvent, error) {
	ev, err := scanEvent(s.Pool.QueryRow(ctx, eventColumns+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ScheduledEvent{}, fmt.Errorf("event %s: %w", id, service.ErrNotFound)
	}
	return ev, err
}

func (s *Store) ListEvents(ctx context.Context, from, to civil.Date, ownerID string) ([]models.ScheduledEvent, error) {
	query := eventColumns + `
		WHERE event_date BETWEEN $1 AND $2`
	args := []any{from.In(time.UTC), to.In(time.UTC)}
	if ownerID != "" {
		args = append(args, ownerID)
		query += " AND owner_id = $3"
	}
	query += " ORDER BY event_date, event_time, created_at, id"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ScheduledEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM calendar_events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %s: %w", id, service.ErrNotFound)
	}
	return nil
}

func scanEvent(row pgx.Row) (models.ScheduledEvent, error) {
	var (
		ev             models.ScheduledEvent
		date           time.Time
		start, end     pgtype.Time
		kind, reminder string
	)
	if err := row.Scan(&ev.ID, &ev.OwnerID, &date, &start, &end, &ev.Title, &ev.Description,
		&kind, &ev.Location, &ev.Color, &reminder, &ev.CreatedAt); err != nil {
		return models.ScheduledEvent{}, err
	}
	ev.Date = civil.DateOf(date)
	ev.Time = civilTime(start)
	if end.Valid {
		t := civilTime(end)
		ev.EndTime = &t
	}
	ev.Kind = models.EventKind(kind)
	ev.Reminder = models.Reminder(reminder)
	ev.Source = models.SourceRef{Type: models.SourcePersonalEvent, ID: ev.ID}
	return ev, nil
}

func timeArg(t civil.Time) pgtype.Time {
	us := int64(((t.Hour*60+t.Minute)*60)+t.Second)*1_000_000 + int64(t.Nanosecond/1000)
	return pgtype.Time{Microseconds: us, Valid: true}
}

func civilTime(t pgtype.Time) civil.Time {
	us := t.Microseconds
	return civil.Time{
		Hour:       int(us / 3_600_000_000),
		Minute:     int(us / 60_000_000 % 60),
		Second:     int(us / 1_000_000 % 60),
		Nanosecond: int(us%1_000_000) * 1000,
	}
}
