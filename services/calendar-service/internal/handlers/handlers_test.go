package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/timely-app/timely-backend/libs/auth"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/gsync"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
)

const testSecret = "test-secret"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve runs one request through the auth middleware and the handler,
// returning the recorded response.
func serve(t *testing.T, h http.HandlerFunc, method, target, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	token, err := auth.SignHS256(auth.Claims{Sub: userID, Iat: time.Now().Unix()}, testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	auth.RequireHS256(h, testSecret).ServeHTTP(rec, req)
	return rec
}

func serveUnauthenticated(t *testing.T, h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	auth.RequireHS256(h, testSecret).ServeHTTP(rec, req)
	return rec
}

type fakeEventStore struct {
	events    []model.Event
	writes    []gsync.Write
	listErr   error
	applyErr  error
	listUsers []string
}

func (f *fakeEventStore) ListByUser(_ context.Context, userID string, _ int) ([]model.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Event
	for _, ev := range f.events {
		if ev.UserID == userID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEventStore) ListByUsers(_ context.Context, userIDs []string) ([]model.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.listUsers = userIDs
	ids := map[string]bool{}
	for _, id := range userIDs {
		ids[id] = true
	}
	var out []model.Event
	for _, ev := range f.events {
		if ids[ev.UserID] {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEventStore) ListEndingAfter(_ context.Context, userID string, t time.Time) ([]model.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Event
	for _, ev := range f.events {
		if ev.UserID == userID && ev.End.After(t) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEventStore) ApplyWrites(_ context.Context, writes []gsync.Write) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.writes = append(f.writes, writes...)
	return nil
}

type fakeUserStore struct {
	users map[string]model.User
}

func (f *fakeUserStore) Get(_ context.Context, id string) (model.User, bool, error) {
	u, ok := f.users[id]
	return u, ok, nil
}

type fakeFriendshipStore struct {
	records map[string]model.Friendship
}

func (f *fakeFriendshipStore) GetByPairID(_ context.Context, pairID string) (model.Friendship, bool, error) {
	rec, ok := f.records[pairID]
	return rec, ok, nil
}

type fakeProposalStore struct {
	inserted  []model.Proposal
	respondFn func(proposalID, callerID string, status model.ProposalStatus) (model.Proposal, error)
}

func (f *fakeProposalStore) Insert(_ context.Context, p model.Proposal) (model.Proposal, error) {
	if p.ID == "" {
		p.ID = "prop-1"
	}
	p.Status = model.ProposalPending
	f.inserted = append(f.inserted, p)
	return p, nil
}

func (f *fakeProposalStore) Respond(_ context.Context, proposalID, callerID string, status model.ProposalStatus) (model.Proposal, error) {
	if f.respondFn != nil {
		return f.respondFn(proposalID, callerID, status)
	}
	return model.Proposal{ID: proposalID, Status: status}, nil
}

type fakeTokenStore struct {
	tokens  map[string]string
	deleted []string
}

func (f *fakeTokenStore) Get(_ context.Context, userID string) (string, bool, error) {
	tok, ok := f.tokens[userID]
	return tok, ok, nil
}

func (f *fakeTokenStore) Put(_ context.Context, userID, refreshToken string) error {
	if f.tokens == nil {
		f.tokens = map[string]string{}
	}
	f.tokens[userID] = refreshToken
	return nil
}

func (f *fakeTokenStore) Delete(_ context.Context, userID string) error {
	delete(f.tokens, userID)
	f.deleted = append(f.deleted, userID)
	return nil
}
