package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/timely-app/timely-backend/libs/auth"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/apperr"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/interval"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
)

type ProposalHandler struct {
	proposals ProposalStore
	users     UserStore
	events    EventStore
	logger    *slog.Logger
}

func NewProposalHandler(proposals ProposalStore, users UserStore, events EventStore, logger *slog.Logger) *ProposalHandler {
	return &ProposalHandler{
		proposals: proposals,
		users:     users,
		events:    events,
		logger:    logger,
	}
}

type proposeRequest struct {
	RecipientID string `json:"recipientId"`
	EventData   struct {
		Title    string `json:"title"`
		Location string `json:"location"`
		StartISO string `json:"startISO"`
		EndISO   string `json:"endISO"`
	} `json:"eventData"`
}

// Create checks the proposed time against the recipient's stored master
// intervals and files a pending proposal when it fits. Recurring events are
// checked by their master interval only, so an occurrence later in the
// series will not register as a conflict.
func (h *ProposalHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	callerID := auth.UserIDFromContext(ctx)

	var req proposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "invalid json body"))
		return
	}
	req.RecipientID = strings.TrimSpace(req.RecipientID)
	req.EventData.Title = strings.TrimSpace(req.EventData.Title)
	if req.RecipientID == "" || req.EventData.Title == "" {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "recipientId and eventData.title are required"))
		return
	}
	if req.RecipientID == callerID {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "cannot propose an event to yourself"))
		return
	}
	start, err := time.Parse(time.RFC3339, req.EventData.StartISO)
	if err != nil {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "invalid eventData.startISO"))
		return
	}
	end, err := time.Parse(time.RFC3339, req.EventData.EndISO)
	if err != nil {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "invalid eventData.endISO"))
		return
	}
	if !end.After(start) {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "eventData.endISO must be after eventData.startISO"))
		return
	}

	if _, ok, err := h.users.Get(ctx, req.RecipientID); err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "failed to load recipient", err))
		return
	} else if !ok {
		writeError(w, h.logger, apperr.New(apperr.NotFound, "recipient not found"))
		return
	}

	candidates, err := h.events.ListEndingAfter(ctx, req.RecipientID, start)
	if err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "failed to load recipient schedule", err))
		return
	}
	for _, ev := range candidates {
		if interval.Overlaps(start, end, ev.Start, ev.End) {
			writeJSON(w, http.StatusOK, map[string]any{
				"success":               false,
				"reason":                "conflict",
				"conflictingEventTitle": ev.Title,
			})
			return
		}
	}

	proposer, _, err := h.users.Get(ctx, callerID)
	if err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "failed to load proposer", err))
		return
	}

	p, err := h.proposals.Insert(ctx, model.Proposal{
		ProposerID:   callerID,
		ProposerName: proposer.DisplayName(),
		RecipientID:  req.RecipientID,
		Title:        req.EventData.Title,
		Location:     strings.TrimSpace(req.EventData.Location),
		Start:        start,
		End:          end,
	})
	if err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "failed to store proposal", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"proposalId": p.ID,
	})
}

type respondRequest struct {
	ProposalID string `json:"proposalId"`
	Response   string `json:"response"`
}

// Respond settles a pending proposal. Accepting writes the event onto both
// calendars inside the store's transaction.
func (h *ProposalHandler) Respond(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	callerID := auth.UserIDFromContext(ctx)

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "invalid json body"))
		return
	}
	req.ProposalID = strings.TrimSpace(req.ProposalID)
	if req.ProposalID == "" {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "proposalId is required"))
		return
	}

	var status model.ProposalStatus
	switch req.Response {
	case "accepted":
		status = model.ProposalAccepted
	case "declined":
		status = model.ProposalDeclined
	default:
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, `response must be "accepted" or "declined"`))
		return
	}

	p, err := h.proposals.Respond(ctx, req.ProposalID, callerID, status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  string(p.Status),
	})
}
