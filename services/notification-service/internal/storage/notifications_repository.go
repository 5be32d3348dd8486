package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/timely-app/timely-backend/libs/db"
)

type Notification struct {
	ID         string
	UserID     string
	Kind       string
	Title      string
	Body       string
	ProposalID string
	Status     string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, kind, title, body, proposal_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.UserID, n.Kind, n.Title, n.Body, n.ProposalID, n.Status)
	return err
}
