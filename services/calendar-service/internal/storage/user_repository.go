package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/timely-app/timely-backend/libs/db"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
)

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Get(ctx context.Context, userID string) (model.User, bool, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, COALESCE(first_name, ''), COALESCE(last_name, ''),
		       COALESCE(username, ''), COALESCE(email, ''),
		       COALESCE(schedule_permission, 'friends')
		FROM users
		WHERE id = $1
	`, userID).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &u.SchedulePermission)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, false, nil
		}
		return model.User{}, false, err
	}
	return u, true, nil
}
