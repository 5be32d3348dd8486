package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/timely-app/timely-backend/services/calendar-service/internal/apperr"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/gsync"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
)

// EventStore is the slice of the events repository the handlers read and
// write through.
type EventStore interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Event, error)
	ListByUsers(ctx context.Context, userIDs []string) ([]model.Event, error)
	ListEndingAfter(ctx context.Context, userID string, t time.Time) ([]model.Event, error)
	ApplyWrites(ctx context.Context, writes []gsync.Write) error
}

type UserStore interface {
	Get(ctx context.Context, userID string) (model.User, bool, error)
}

type FriendshipStore interface {
	GetByPairID(ctx context.Context, pairID string) (model.Friendship, bool, error)
}

type ProposalStore interface {
	Insert(ctx context.Context, p model.Proposal) (model.Proposal, error)
	Respond(ctx context.Context, proposalID, callerID string, status model.ProposalStatus) (model.Proposal, error)
}

type TokenStore interface {
	Get(ctx context.Context, userID string) (string, bool, error)
	Put(ctx context.Context, userID, refreshToken string) error
	Delete(ctx context.Context, userID string) error
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy onto the wire format. The full cause
// goes to the log; clients get kind + public message only.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{
		"error": apperr.PublicMessage(err),
		"kind":  string(apperr.KindOf(err)),
	})
}
