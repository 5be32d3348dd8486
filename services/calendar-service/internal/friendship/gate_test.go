package friendship

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/timely-app/timely-backend/services/calendar-service/internal/apperr"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
)

type fakeStore struct {
	records map[string]model.Friendship
	err     error
}

func (f *fakeStore) GetByPairID(_ context.Context, pairID string) (model.Friendship, bool, error) {
	if f.err != nil {
		return model.Friendship{}, false, f.err
	}
	rec, ok := f.records[pairID]
	return rec, ok, nil
}

func accepted(a, b string) (string, model.Friendship) {
	id := model.PairID(a, b)
	return id, model.Friendship{PairID: id, Status: model.FriendshipAccepted}
}

func TestAuthorizeSelfOnly(t *testing.T) {
	gate := NewGate(&fakeStore{records: map[string]model.Friendship{}})
	got, err := gate.Authorize(context.Background(), "me", []string{"me"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "me" {
		t.Fatalf("got %v", got)
	}
}

func TestAuthorizeAcceptedFriends(t *testing.T) {
	records := map[string]model.Friendship{}
	for _, friend := range []string{"alice", "bob"} {
		id, rec := accepted("me", friend)
		records[id] = rec
	}
	gate := NewGate(&fakeStore{records: records})

	got, err := gate.Authorize(context.Background(), "me", []string{"me", "alice", "bob"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"me", "alice", "bob"} {
		if !slices.Contains(got, want) {
			t.Fatalf("missing %q in %v", want, got)
		}
	}
}

func TestAuthorizeAllOrNothing(t *testing.T) {
	// alice is an accepted friend, bob is not: the whole request must fail
	// and the error must name bob.
	id, rec := accepted("me", "alice")
	gate := NewGate(&fakeStore{records: map[string]model.Friendship{id: rec}})

	_, err := gate.Authorize(context.Background(), "me", []string{"me", "alice", "bob"})
	if err == nil {
		t.Fatal("expected permission error")
	}
	if apperr.KindOf(err) != apperr.PermissionDenied {
		t.Fatalf("kind %q, want permission-denied", apperr.KindOf(err))
	}
	if !strings.Contains(err.Error(), "bob") {
		t.Fatalf("error should reference the denied user: %v", err)
	}
}

func TestAuthorizePendingFriendshipDenied(t *testing.T) {
	id := model.PairID("me", "carol")
	gate := NewGate(&fakeStore{records: map[string]model.Friendship{
		id: {PairID: id, Status: model.FriendshipPending},
	}})

	_, err := gate.Authorize(context.Background(), "me", []string{"carol"})
	if apperr.KindOf(err) != apperr.PermissionDenied {
		t.Fatalf("pending friendship must be denied, got %v", err)
	}
}

func TestAuthorizeStoreFailureIsInternal(t *testing.T) {
	gate := NewGate(&fakeStore{err: errors.New("boom")})
	_, err := gate.Authorize(context.Background(), "me", []string{"dave"})
	if apperr.KindOf(err) != apperr.Internal {
		t.Fatalf("kind %q, want internal", apperr.KindOf(err))
	}
}
