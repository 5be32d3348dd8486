package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/timely-app/timely-backend/services/calendar-service/internal/apperr"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
)

func proposalUsers() *fakeUserStore {
	return &fakeUserStore{users: map[string]model.User{
		"alice": {ID: "alice", FirstName: "Alice", LastName: "Ng"},
		"bob":   {ID: "bob", Username: "bobby"},
	}}
}

func TestProposalCreateHappyPath(t *testing.T) {
	proposals := &fakeProposalStore{}
	h := NewProposalHandler(proposals, proposalUsers(), &fakeEventStore{}, discardLogger())

	body := `{"recipientId":"bob","eventData":{"title":"Coffee","location":"Cafe",` +
		`"startISO":"2026-05-04T10:00:00Z","endISO":"2026-05-04T11:00:00Z"}}`
	rec := serve(t, h.Create, http.MethodPost, "/api/v1/proposals", "alice", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success    bool   `json:"success"`
		ProposalID string `json:"proposalId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.ProposalID == "" {
		t.Fatalf("unexpected response: %s", rec.Body.String())
	}
	if len(proposals.inserted) != 1 {
		t.Fatalf("inserted %d proposals", len(proposals.inserted))
	}
	p := proposals.inserted[0]
	if p.ProposerName != "Alice Ng" {
		t.Fatalf("proposer name %q", p.ProposerName)
	}
	if p.Status != model.ProposalPending {
		t.Fatalf("status %q, want pending", p.Status)
	}
}

func TestProposalCreateConflict(t *testing.T) {
	start := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	events := &fakeEventStore{events: []model.Event{{
		UserID: "bob",
		Title:  "Dentist",
		Start:  start.Add(-30 * time.Minute),
		End:    start.Add(30 * time.Minute),
	}}}
	proposals := &fakeProposalStore{}
	h := NewProposalHandler(proposals, proposalUsers(), events, discardLogger())

	body := `{"recipientId":"bob","eventData":{"title":"Coffee",` +
		`"startISO":"2026-05-04T10:00:00Z","endISO":"2026-05-04T11:00:00Z"}}`
	rec := serve(t, h.Create, http.MethodPost, "/api/v1/proposals", "alice", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success               bool   `json:"success"`
		Reason                string `json:"reason"`
		ConflictingEventTitle string `json:"conflictingEventTitle"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.Reason != "conflict" || resp.ConflictingEventTitle != "Dentist" {
		t.Fatalf("unexpected response: %s", rec.Body.String())
	}
	if len(proposals.inserted) != 0 {
		t.Fatal("conflicting proposal must not be stored")
	}
}

func TestProposalCreateUnknownRecipient(t *testing.T) {
	h := NewProposalHandler(&fakeProposalStore{}, proposalUsers(), &fakeEventStore{}, discardLogger())
	body := `{"recipientId":"ghost","eventData":{"title":"Coffee",` +
		`"startISO":"2026-05-04T10:00:00Z","endISO":"2026-05-04T11:00:00Z"}}`
	rec := serve(t, h.Create, http.MethodPost, "/api/v1/proposals", "alice", body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404: %s", rec.Code, rec.Body.String())
	}
}

func TestProposalCreateValidation(t *testing.T) {
	h := NewProposalHandler(&fakeProposalStore{}, proposalUsers(), &fakeEventStore{}, discardLogger())

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"recipientId":"bob","eventData":{"startISO":"2026-05-04T10:00:00Z","endISO":"2026-05-04T11:00:00Z"}}`},
		{"self proposal", `{"recipientId":"alice","eventData":{"title":"Coffee","startISO":"2026-05-04T10:00:00Z","endISO":"2026-05-04T11:00:00Z"}}`},
		{"bad start", `{"recipientId":"bob","eventData":{"title":"Coffee","startISO":"tomorrow","endISO":"2026-05-04T11:00:00Z"}}`},
		{"inverted interval", `{"recipientId":"bob","eventData":{"title":"Coffee","startISO":"2026-05-04T11:00:00Z","endISO":"2026-05-04T10:00:00Z"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, h.Create, http.MethodPost, "/api/v1/proposals", "alice", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestProposalRespondMapsStoreErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", apperr.New(apperr.NotFound, "proposal not found"), http.StatusNotFound},
		{"wrong recipient", apperr.New(apperr.PermissionDenied, "only the recipient can respond to a proposal"), http.StatusForbidden},
		{"already settled", apperr.New(apperr.FailedPrecondition, "proposal already accepted"), http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			proposals := &fakeProposalStore{respondFn: func(_, _ string, _ model.ProposalStatus) (model.Proposal, error) {
				return model.Proposal{}, tc.err
			}}
			h := NewProposalHandler(proposals, proposalUsers(), &fakeEventStore{}, discardLogger())
			body := `{"proposalId":"prop-1","response":"accepted"}`
			rec := serve(t, h.Respond, http.MethodPost, "/api/v1/proposals/respond", "bob", body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status %d, want %d: %s", rec.Code, tc.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestProposalRespondRejectsUnknownResponse(t *testing.T) {
	h := NewProposalHandler(&fakeProposalStore{}, proposalUsers(), &fakeEventStore{}, discardLogger())
	body := `{"proposalId":"prop-1","response":"maybe"}`
	rec := serve(t, h.Respond, http.MethodPost, "/api/v1/proposals/respond", "bob", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400: %s", rec.Code, rec.Body.String())
	}
}
