package model

import "time"

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalDeclined ProposalStatus = "declined"
)

// Proposal is an event one user offers to put on another user's calendar.
type Proposal struct {
	ID           string
	ProposerID   string
	ProposerName string
	RecipientID  string
	Title        string
	Location     string
	Start        time.Time
	End          time.Time
	Status       ProposalStatus
	CreatedAt    time.Time
}
