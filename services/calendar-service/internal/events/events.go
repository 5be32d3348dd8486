// Package events defines the proposal lifecycle topics and payloads the
// calendar service publishes and the notification service consumes.
package events

import "time"

const (
	TopicProposalCreated  = "calendar.proposal.created.v1"
	TopicProposalAccepted = "calendar.proposal.accepted.v1"
)

type ProposalCreated struct {
	ProposalID   string    `json:"proposalId"`
	ProposerID   string    `json:"proposerId"`
	ProposerName string    `json:"proposerName"`
	RecipientID  string    `json:"recipientId"`
	Title        string    `json:"title"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
}

type ProposalAccepted struct {
	ProposalID  string    `json:"proposalId"`
	ProposerID  string    `json:"proposerId"`
	RecipientID string    `json:"recipientId"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}
