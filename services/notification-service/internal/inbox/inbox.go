// Package inbox records which event ids this service has already processed.
// The outbox publisher delivers at-least-once, so the consumer checks here
// before acting on a message.
package inbox

import (
	"context"

	"github.com/timely-app/timely-backend/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// MarkProcessed claims an event id. It returns false when another delivery
// of the same event already claimed it.
func (r *Repository) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
