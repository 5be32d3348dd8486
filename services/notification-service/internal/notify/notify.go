// Package notify turns proposal lifecycle events into stored notifications
// and push deliveries.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/timely-app/timely-backend/services/notification-service/internal/push"
	"github.com/timely-app/timely-backend/services/notification-service/internal/storage"
)

type NotificationStore interface {
	Insert(ctx context.Context, n storage.Notification) error
}

type Service struct {
	store  NotificationStore
	sender push.Sender
	logger *slog.Logger
}

func NewService(store NotificationStore, sender push.Sender, logger *slog.Logger) *Service {
	return &Service{store: store, sender: sender, logger: logger}
}

type proposalCreatedPayload struct {
	ProposalID   string    `json:"proposalId"`
	ProposerID   string    `json:"proposerId"`
	ProposerName string    `json:"proposerName"`
	RecipientID  string    `json:"recipientId"`
	Title        string    `json:"title"`
	Start        time.Time `json:"start"`
}

type proposalAcceptedPayload struct {
	ProposalID  string    `json:"proposalId"`
	ProposerID  string    `json:"proposerId"`
	RecipientID string    `json:"recipientId"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
}

// HandleProposalCreated notifies the recipient about a new pending proposal.
// Malformed payloads are logged and dropped, not retried.
func (s *Service) HandleProposalCreated(ctx context.Context, value []byte) error {
	var p proposalCreatedPayload
	if err := json.Unmarshal(value, &p); err != nil {
		s.logger.Error("invalid proposal.created payload", "err", err)
		return nil
	}
	if p.ProposalID == "" || p.RecipientID == "" {
		s.logger.Error("missing proposal.created fields")
		return nil
	}

	name := p.ProposerName
	if name == "" {
		name = "Someone"
	}
	title := "New event proposal"
	body := fmt.Sprintf("%s proposed %q on %s", name, p.Title, p.Start.UTC().Format("Jan 2 at 15:04"))

	return s.deliver(ctx, storage.Notification{
		UserID:     p.RecipientID,
		Kind:       "proposal_created",
		Title:      title,
		Body:       body,
		ProposalID: p.ProposalID,
	})
}

// HandleProposalAccepted notifies the proposer that the event is now on both
// calendars.
func (s *Service) HandleProposalAccepted(ctx context.Context, value []byte) error {
	var p proposalAcceptedPayload
	if err := json.Unmarshal(value, &p); err != nil {
		s.logger.Error("invalid proposal.accepted payload", "err", err)
		return nil
	}
	if p.ProposalID == "" || p.ProposerID == "" {
		s.logger.Error("missing proposal.accepted fields")
		return nil
	}

	title := "Proposal accepted"
	body := fmt.Sprintf("Your proposal %q was accepted and added to both calendars", p.Title)

	return s.deliver(ctx, storage.Notification{
		UserID:     p.ProposerID,
		Kind:       "proposal_accepted",
		Title:      title,
		Body:       body,
		ProposalID: p.ProposalID,
	})
}

// deliver persists first, then pushes. A failed push downgrades the stored
// status but does not fail the message: the notification is still visible
// in-app, and retrying would double-store.
func (s *Service) deliver(ctx context.Context, n storage.Notification) error {
	n.Status = "sent"
	if err := s.sender.Send(ctx, n.UserID, n.Title, n.Body); err != nil {
		s.logger.Error("push send failed", "err", err, "user_id", n.UserID)
		n.Status = "failed"
	}
	return s.store.Insert(ctx, n)
}
