package model

import (
	"sort"
	"strings"
	"time"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipBlocked  FriendshipStatus = "blocked"
)

// Friendship is the symmetric relationship record between two users. Exactly
// one record exists per pair, keyed by PairID.
type Friendship struct {
	PairID      string
	Users       [2]string
	RequesterID string
	Status      FriendshipStatus
	CreatedAt   time.Time
}

// PairID builds the canonical friendship key: the two user ids sorted and
// joined with "_", so lookups are order-independent.
func PairID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}

// User holds the profile fields the calendar service reads.
type User struct {
	ID                 string
	FirstName          string
	LastName           string
	Username           string
	Email              string
	SchedulePermission string
}

// DisplayName resolves the human-readable name shown on proposals.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	if u.Email != "" {
		return u.Email
	}
	return "Someone"
}
