package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/timely-app/timely-backend/libs/db"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
)

type FriendshipRepository struct {
	pool *db.Pool
}

func NewFriendshipRepository(pool *db.Pool) *FriendshipRepository {
	return &FriendshipRepository{pool: pool}
}

func (r *FriendshipRepository) GetByPairID(ctx context.Context, pairID string) (model.Friendship, bool, error) {
	var f model.Friendship
	err := r.pool.QueryRow(ctx, `
		SELECT pair_id, user_a, user_b, requester_id, status, created_at
		FROM friendships
		WHERE pair_id = $1
	`, pairID).Scan(&f.PairID, &f.Users[0], &f.Users[1], &f.RequesterID, &f.Status, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Friendship{}, false, nil
		}
		return model.Friendship{}, false, err
	}
	return f, true, nil
}
