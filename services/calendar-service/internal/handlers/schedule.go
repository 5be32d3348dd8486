package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/timely-app/timely-backend/libs/auth"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/apperr"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
)

type ScheduleHandler struct {
	users       UserStore
	friendships FriendshipStore
	events      EventStore
	logger      *slog.Logger
	now         func() time.Time
}

func NewScheduleHandler(users UserStore, friendships FriendshipStore, events EventStore, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		users:       users,
		friendships: friendships,
		events:      events,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type scheduleEventItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Location   string `json:"location,omitempty"`
	Start      string `json:"start"`
	End        string `json:"end"`
	AllDay     bool   `json:"allDay"`
	Color      int64  `json:"color"`
	RepeatRule string `json:"repeatRule"`
}

// Friend returns the future-or-ongoing events of an accepted friend.
func (h *ScheduleHandler) Friend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	callerID := auth.UserIDFromContext(ctx)

	friendID := strings.TrimSpace(r.URL.Query().Get("friendId"))
	if friendID == "" {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "friendId is required"))
		return
	}

	friend, ok, err := h.users.Get(ctx, friendID)
	if err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "failed to load user", err))
		return
	}
	if !ok {
		writeError(w, h.logger, apperr.New(apperr.NotFound, "user not found"))
		return
	}

	if friendID != callerID {
		rec, found, err := h.friendships.GetByPairID(ctx, model.PairID(callerID, friendID))
		if err != nil {
			writeError(w, h.logger, apperr.Wrap(apperr.Internal, "failed to load friendship", err))
			return
		}
		if !found || rec.Status != model.FriendshipAccepted {
			writeError(w, h.logger, apperr.New(apperr.PermissionDenied, "you are not friends with this user"))
			return
		}
		// The request/grant flow behind "request" permission does not exist
		// yet; until it does, such schedules stay hidden from everyone.
		if friend.SchedulePermission == "request" {
			writeError(w, h.logger, apperr.New(apperr.PermissionDenied, "this user's schedule is available on request only"))
			return
		}
	}

	all, err := h.events.ListByUser(ctx, friendID, 0)
	if err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "failed to load schedule", err))
		return
	}

	now := h.now()
	items := make([]scheduleEventItem, 0, len(all))
	for _, ev := range all {
		// Rows with unusable times are skipped rather than failing the whole
		// schedule.
		if ev.Start.IsZero() || ev.End.IsZero() {
			continue
		}
		if !ev.End.After(now) {
			continue
		}
		items = append(items, scheduleEventItem{
			ID:         ev.ID,
			Title:      ev.Title,
			Location:   ev.Location,
			Start:      ev.Start.UTC().Format(time.RFC3339),
			End:        ev.End.UTC().Format(time.RFC3339),
			AllDay:     ev.AllDay,
			Color:      ev.Color,
			RepeatRule: string(ev.RepeatRule),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": items})
}
