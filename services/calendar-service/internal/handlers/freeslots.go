package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/timely-app/timely-backend/libs/auth"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/apperr"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/freeslot"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/friendship"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/interval"
)

type FreeSlotsHandler struct {
	gate   *friendship.Gate
	events EventStore
	logger *slog.Logger
}

func NewFreeSlotsHandler(gate *friendship.Gate, events EventStore, logger *slog.Logger) *FreeSlotsHandler {
	return &FreeSlotsHandler{gate: gate, events: events, logger: logger}
}

type freeSlotsRequest struct {
	UserIDs         []string `json:"userIds"`
	DurationMinutes int      `json:"durationMinutes"`
	StartRangeISO   string   `json:"startRangeISO"`
	EndRangeISO     string   `json:"endRangeISO"`
}

// Find runs the authorization gate over every requested participant, then
// the free-slot solver over their combined schedules.
func (h *FreeSlotsHandler) Find(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	callerID := auth.UserIDFromContext(ctx)

	var req freeSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "invalid json body"))
		return
	}
	if len(req.UserIDs) == 0 {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "userIds is required"))
		return
	}
	if req.DurationMinutes <= 0 {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "durationMinutes must be positive"))
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartRangeISO)
	if err != nil {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "invalid startRangeISO"))
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndRangeISO)
	if err != nil {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "invalid endRangeISO"))
		return
	}
	if !end.After(start) {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "endRangeISO must be after startRangeISO"))
		return
	}

	authorized, err := h.gate.Authorize(ctx, callerID, req.UserIDs)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	events, err := h.events.ListByUsers(ctx, authorized)
	if err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "failed to load schedules", err))
		return
	}

	slots := freeslot.Find(events, interval.Span{Start: start, End: end}, time.Duration(req.DurationMinutes)*time.Minute)

	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.UTC().Format(time.RFC3339))
	}
	writeJSON(w, http.StatusOK, map[string]any{"availableSlots": out})
}
