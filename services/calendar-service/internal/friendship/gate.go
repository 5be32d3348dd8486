package friendship

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/timely-app/timely-backend/services/calendar-service/internal/apperr"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
)

// Store is the friendship lookup the gate needs from the record store.
type Store interface {
	// GetByPairID returns the relationship record for a sorted pair key,
	// reporting false when no record exists.
	GetByPairID(ctx context.Context, pairID string) (model.Friendship, bool, error)
}

// Gate decides which of the requested user ids a caller may query.
type Gate struct {
	store Store
}

func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Authorize checks every requested id against the friendship store. The
// caller is always authorized for themself; every other id must have an
// accepted relationship with the caller. Lookups run concurrently and the
// first failure aborts the whole set: authorization is all-or-nothing, so a
// single non-friend in the request denies the entire operation.
func (g *Gate) Authorize(ctx context.Context, callerID string, userIDs []string) ([]string, error) {
	authorized := []string{callerID}

	grp, grpCtx := errgroup.WithContext(ctx)
	for _, id := range userIDs {
		if id == callerID {
			continue
		}
		grp.Go(func() error {
			rec, ok, err := g.store.GetByPairID(grpCtx, model.PairID(callerID, id))
			if err != nil {
				return apperr.Wrap(apperr.Internal, "friendship lookup failed", err)
			}
			if !ok || rec.Status != model.FriendshipAccepted {
				return apperr.Newf(apperr.PermissionDenied,
					"you do not have permission to view the schedule of user %s", id)
			}
			return nil
		})
		authorized = append(authorized, id)
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return authorized, nil
}
