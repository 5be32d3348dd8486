package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/timely-app/timely-backend/libs/auth"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/apperr"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/googlecal"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/gsync"
)

// TokenExchanger turns an OAuth authorization code into the token pair. The
// Google OAuth round trip lives behind this interface.
type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (googlecal.TokenPair, error)
}

const syncMaxResults = 250

type GoogleHandler struct {
	exchanger TokenExchanger
	provider  googlecal.Provider
	tokens    TokenStore
	events    EventStore
	logger    *slog.Logger
}

func NewGoogleHandler(exchanger TokenExchanger, provider googlecal.Provider, tokens TokenStore, events EventStore, logger *slog.Logger) *GoogleHandler {
	return &GoogleHandler{
		exchanger: exchanger,
		provider:  provider,
		tokens:    tokens,
		events:    events,
		logger:    logger,
	}
}

type storeTokenRequest struct {
	Code string `json:"code"`
}

// StoreToken exchanges the consent code and persists the refresh token. An
// exchange without a refresh token is reported as a soft failure: the user
// has to revoke the app's access and link again before syncing works.
func (h *GoogleHandler) StoreToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := auth.UserIDFromContext(r.Context())

	var req storeTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "code is required"))
		return
	}

	tok, err := h.exchanger.Exchange(r.Context(), strings.TrimSpace(req.Code))
	if err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "token exchange failed", err))
		return
	}
	if tok.RefreshToken == "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "no refresh token received; revoke the app's access in your Google account and connect again",
		})
		return
	}

	if err := h.tokens.Put(r.Context(), userID, tok.RefreshToken); err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "failed to store token", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type syncRequest struct {
	CalendarID string `json:"calendarId"`
}

// Sync pulls upcoming occurrences from the linked calendar and reconciles
// them into the user's stored events as one atomic batch.
func (h *GoogleHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	var req syncRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	calendarID := req.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	_, ok, err := h.tokens.Get(ctx, userID)
	if err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "failed to load credential", err))
		return
	}
	if !ok {
		writeError(w, h.logger, apperr.New(apperr.FailedPrecondition, "google calendar is not connected"))
		return
	}

	occurrences, err := h.provider.ListEvents(ctx, userID, calendarID, time.Now().UTC(), "UTC", syncMaxResults)
	if err != nil {
		if errors.Is(err, googlecal.ErrUnauthorized) {
			// Revoked or expired credential: drop it so the client re-runs consent.
			if delErr := h.tokens.Delete(ctx, userID); delErr != nil {
				h.logger.Error("failed to delete revoked credential", "err", delErr)
			}
			writeError(w, h.logger, apperr.New(apperr.Unauthenticated, "google credential expired; reconnect your calendar"))
			return
		}
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "calendar fetch failed", err))
		return
	}

	stored, err := h.events.ListByUser(ctx, userID, 0)
	if err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "failed to load events", err))
		return
	}

	writes := gsync.Reconcile(userID, occurrences, stored)
	if err := h.events.ApplyWrites(ctx, writes); err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "failed to apply sync", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("synced %d events", len(writes)),
	})
}
