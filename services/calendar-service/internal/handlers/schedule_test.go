package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
)

func scheduleFixture(now time.Time) (*fakeUserStore, *fakeFriendshipStore, *fakeEventStore) {
	users := &fakeUserStore{users: map[string]model.User{
		"me":     {ID: "me"},
		"friend": {ID: "friend", SchedulePermission: "friends"},
		"shy":    {ID: "shy", SchedulePermission: "request"},
	}}
	pair := model.PairID("me", "friend")
	shyPair := model.PairID("me", "shy")
	friendships := &fakeFriendshipStore{records: map[string]model.Friendship{
		pair:    {PairID: pair, Status: model.FriendshipAccepted},
		shyPair: {PairID: shyPair, Status: model.FriendshipAccepted},
	}}
	events := &fakeEventStore{events: []model.Event{
		{ID: "past", UserID: "friend", Title: "Old", Start: now.Add(-3 * time.Hour), End: now.Add(-2 * time.Hour)},
		{ID: "ongoing", UserID: "friend", Title: "Now", Start: now.Add(-time.Hour), End: now.Add(time.Hour)},
		{ID: "future", UserID: "friend", Title: "Later", Start: now.Add(2 * time.Hour), End: now.Add(3 * time.Hour)},
		{ID: "broken", UserID: "friend", Title: "Broken"},
	}}
	return users, friendships, events
}

func TestFriendScheduleReturnsFutureAndOngoingOnly(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	users, friendships, events := scheduleFixture(now)
	h := NewScheduleHandler(users, friendships, events, discardLogger())
	h.now = func() time.Time { return now }

	rec := serve(t, h.Friend, http.MethodGet, "/api/v1/friends/schedule?friendId=friend", "me", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Events []scheduleEventItem `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Events) != 2 {
		t.Fatalf("got %d events, want ongoing+future: %s", len(resp.Events), rec.Body.String())
	}
	got := map[string]bool{}
	for _, ev := range resp.Events {
		got[ev.ID] = true
	}
	if !got["ongoing"] || !got["future"] {
		t.Fatalf("events %v", got)
	}
}

func TestFriendScheduleUnknownUser(t *testing.T) {
	users, friendships, events := scheduleFixture(time.Now())
	h := NewScheduleHandler(users, friendships, events, discardLogger())

	rec := serve(t, h.Friend, http.MethodGet, "/api/v1/friends/schedule?friendId=ghost", "me", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404: %s", rec.Code, rec.Body.String())
	}
}

func TestFriendScheduleRequiresAcceptedFriendship(t *testing.T) {
	users, _, events := scheduleFixture(time.Now())
	h := NewScheduleHandler(users, &fakeFriendshipStore{}, events, discardLogger())

	rec := serve(t, h.Friend, http.MethodGet, "/api/v1/friends/schedule?friendId=friend", "me", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d, want 403: %s", rec.Code, rec.Body.String())
	}
}

func TestFriendScheduleRequestPermissionStaysHidden(t *testing.T) {
	users, friendships, events := scheduleFixture(time.Now())
	h := NewScheduleHandler(users, friendships, events, discardLogger())

	rec := serve(t, h.Friend, http.MethodGet, "/api/v1/friends/schedule?friendId=shy", "me", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d, want 403: %s", rec.Code, rec.Body.String())
	}
}

func TestOwnScheduleSkipsFriendshipCheck(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	users, _, _ := scheduleFixture(now)
	events := &fakeEventStore{events: []model.Event{
		{ID: "mine", UserID: "me", Title: "Mine", Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)},
	}}
	h := NewScheduleHandler(users, &fakeFriendshipStore{}, events, discardLogger())
	h.now = func() time.Time { return now }

	rec := serve(t, h.Friend, http.MethodGet, "/api/v1/friends/schedule?friendId=me", "me", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
}
