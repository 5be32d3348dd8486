package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/timely-app/timely-backend/libs/db"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/gsync"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
)

const eventColumns = `
	id, user_id, title, location, start_time, end_time, all_day, color,
	repeat_rule, repeat_until, exceptions, COALESCE(importance, ''),
	COALESCE(google_event_id, ''), created_at`

type EventRepository struct {
	pool *db.Pool
}

func NewEventRepository(pool *db.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE user_id = $1
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListByUsers is the membership query behind the free-slot solver: one round
// trip fetches every stored event of every authorized user.
func (r *EventRepository) ListByUsers(ctx context.Context, userIDs []string) ([]model.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE user_id = ANY($1)
	`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListEndingAfter feeds the proposal conflict check.
func (r *EventRepository) ListEndingAfter(ctx context.Context, userID string, t time.Time) ([]model.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE user_id = $1 AND end_time > $2
	`, userID, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ApplyWrites commits a reconciliation batch atomically: either every update
// and insert lands or none do.
func (r *EventRepository) ApplyWrites(ctx context.Context, writes []gsync.Write) error {
	if len(writes) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, w := range writes {
		if w.ExistingID != "" {
			if err := updateEventTx(ctx, tx, w.ExistingID, w.Event); err != nil {
				return err
			}
			continue
		}
		if err := insertEventTx(ctx, tx, w.Event); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func insertEventTx(ctx context.Context, tx pgx.Tx, ev model.Event) error {
	id := ev.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO events
			(id, user_id, title, location, start_time, end_time, all_day, color,
			repeat_rule, repeat_until, exceptions, importance, google_event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''))
	`, id, ev.UserID, ev.Title, ev.Location, ev.Start, ev.End, ev.AllDay, ev.Color,
		ev.RepeatRule, ev.RepeatUntil, ev.Exceptions, ev.Importance, ev.GoogleEventID)
	return err
}

func updateEventTx(ctx context.Context, tx pgx.Tx, id string, ev model.Event) error {
	_, err := tx.Exec(ctx, `
		UPDATE events
		SET user_id = $2,
			title = $3,
			location = $4,
			start_time = $5,
			end_time = $6,
			all_day = $7,
			color = $8,
			repeat_rule = $9,
			repeat_until = $10,
			exceptions = $11,
			importance = $12,
			google_event_id = NULLIF($13, '')
		WHERE id = $1
	`, id, ev.UserID, ev.Title, ev.Location, ev.Start, ev.End, ev.AllDay, ev.Color,
		ev.RepeatRule, ev.RepeatUntil, ev.Exceptions, ev.Importance, ev.GoogleEventID)
	return err
}

func scanEvents(rows pgx.Rows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		var ev model.Event
		var repeatUntil *time.Time
		if err := rows.Scan(
			&ev.ID,
			&ev.UserID,
			&ev.Title,
			&ev.Location,
			&ev.Start,
			&ev.End,
			&ev.AllDay,
			&ev.Color,
			&ev.RepeatRule,
			&repeatUntil,
			&ev.Exceptions,
			&ev.Importance,
			&ev.GoogleEventID,
			&ev.CreatedAt,
		); err != nil {
			return nil, err
		}
		ev.RepeatUntil = repeatUntil
		events = append(events, ev)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
