package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"social-graph-backend/internal/models"
	"social-graph-backend/internal/repository"
	"social-graph-backend/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFriendFixture(t *testing.T) (*FriendService, *memory.Store, *recordingNotifier) {
	t.Helper()
	store := memory.New()
	notifier := &recordingNotifier{}
	return NewFriendService(store, notifier), store, notifier
}

// TestFriendLifecycleScenario walks send, accept and batch status end to end
func TestFriendLifecycleScenario(t *testing.T) {
	svc, store, notifier := newFriendFixture(t)
	ctx := context.Background()
	u1 := createUser(t, store, "alice")
	u2 := createUser(t, store, "bob")
	u3 := createUser(t, store, "carol")

	req, err := svc.SendFriendRequest(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestPending, req.Status)
	assert.Equal(t, u1.ID, req.SenderID)
	assert.Equal(t, u2.ID, req.ReceiverID)

	friend, err := svc.AcceptFriendRequest(ctx, u2.ID, req.ID)
	require.NoError(t, err)
	a, b := models.OrderedPair(u1.ID, u2.ID)
	assert.Equal(t, a, friend.User1ID)
	assert.Equal(t, b, friend.User2ID)

	stored, err := store.FriendRequests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestAccepted, stored.Status)

	statuses, err := svc.CheckFriendshipBatchStatus(ctx, u1.ID, []string{u2.ID, u3.ID})
	require.NoError(t, err)
	assert.Equal(t, []models.FriendshipStatusResult{
		{TargetID: u2.ID, Status: models.FriendshipFriends},
		{TargetID: u3.ID, Status: models.FriendshipNone},
	}, statuses)

	calls := notifier.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, u2.ID, calls[0].UserID)
	assert.Equal(t, models.NotificationFriendRequest, calls[0].Kind)
	assert.Equal(t, req.ID, calls[0].ReferenceID)
	assert.Contains(t, calls[0].Text, "alice")
	assert.Equal(t, u1.ID, calls[1].UserID)
	assert.Equal(t, models.NotificationFriendAccepted, calls[1].Kind)
	assert.Contains(t, calls[1].Text, "bob")
}

// TestSendFriendRequestStatuses checks PENDING and RECEIVED from each side
func TestSendFriendRequestStatuses(t *testing.T) {
	svc, store, _ := newFriendFixture(t)
	ctx := context.Background()
	a := createUser(t, store, "alice")
	b := createUser(t, store, "bob")

	_, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	status, err := svc.CheckFriendshipStatus(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipPending, status)

	status, err = svc.CheckFriendshipStatus(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipReceived, status)
}

// TestSendFriendRequestConflicts covers every rejected send
func TestSendFriendRequestConflicts(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate pending", func(t *testing.T) {
		svc, store, _ := newFriendFixture(t)
		a := createUser(t, store, "alice")
		b := createUser(t, store, "bob")

		_, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
		require.NoError(t, err)
		_, err = svc.SendFriendRequest(ctx, a.ID, b.ID)
		assert.ErrorIs(t, err, ErrConflict)

		outgoing, err := svc.ListOutgoingRequests(ctx, a.ID)
		require.NoError(t, err)
		assert.Len(t, outgoing, 1)
	})

	t.Run("reverse pending", func(t *testing.T) {
		svc, store, _ := newFriendFixture(t)
		a := createUser(t, store, "alice")
		b := createUser(t, store, "bob")

		_, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
		require.NoError(t, err)
		_, err = svc.SendFriendRequest(ctx, b.ID, a.ID)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("already friends", func(t *testing.T) {
		svc, store, _ := newFriendFixture(t)
		a := createUser(t, store, "alice")
		b := createUser(t, store, "bob")

		req, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
		require.NoError(t, err)
		_, err = svc.AcceptFriendRequest(ctx, b.ID, req.ID)
		require.NoError(t, err)

		_, err = svc.SendFriendRequest(ctx, a.ID, b.ID)
		assert.ErrorIs(t, err, ErrConflict)
		_, err = svc.SendFriendRequest(ctx, b.ID, a.ID)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("self", func(t *testing.T) {
		svc, store, notifier := newFriendFixture(t)
		a := createUser(t, store, "alice")

		_, err := svc.SendFriendRequest(ctx, a.ID, a.ID)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Empty(t, notifier.Calls())
	})
}

// TestSendFriendRequestUnknownUsers checks NotFound for missing and deleted users
func TestSendFriendRequestUnknownUsers(t *testing.T) {
	svc, store, notifier := newFriendFixture(t)
	ctx := context.Background()
	a := createUser(t, store, "alice")
	deleted := createUser(t, store, "gone")
	require.NoError(t, store.Users().SoftDelete(ctx, deleted.ID))

	_, err := svc.SendFriendRequest(ctx, a.ID, uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.SendFriendRequest(ctx, uuid.New().String(), a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.SendFriendRequest(ctx, a.ID, deleted.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, notifier.Calls())
}

// TestSendFriendRequestNotifierFailure checks that delivery errors do not undo the request
func TestSendFriendRequestNotifierFailure(t *testing.T) {
	store := memory.New()
	notifier := &recordingNotifier{err: errDeliveryDown}
	svc := NewFriendService(store, notifier)
	ctx := context.Background()
	a := createUser(t, store, "alice")
	b := createUser(t, store, "bob")

	req, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Len(t, notifier.Calls(), 1)

	incoming, err := svc.ListIncomingRequests(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, req.ID, incoming[0].ID)
}

// TestAnswerTerminalRequest checks InvalidState and unchanged status on terminal requests
func TestAnswerTerminalRequest(t *testing.T) {
	ctx := context.Background()

	for _, first := range []models.FriendRequestStatus{models.FriendRequestAccepted, models.FriendRequestRejected} {
		t.Run(string(first), func(t *testing.T) {
			svc, store, _ := newFriendFixture(t)
			a := createUser(t, store, "alice")
			b := createUser(t, store, "bob")

			req, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
			require.NoError(t, err)

			if first == models.FriendRequestAccepted {
				_, err = svc.AcceptFriendRequest(ctx, b.ID, req.ID)
			} else {
				_, err = svc.RejectFriendRequest(ctx, b.ID, req.ID)
			}
			require.NoError(t, err)

			_, err = svc.AcceptFriendRequest(ctx, b.ID, req.ID)
			assert.ErrorIs(t, err, ErrInvalidState)
			_, err = svc.RejectFriendRequest(ctx, b.ID, req.ID)
			assert.ErrorIs(t, err, ErrInvalidState)

			stored, err := store.FriendRequests().GetByID(ctx, req.ID)
			require.NoError(t, err)
			assert.Equal(t, first, stored.Status)
		})
	}
}

// TestAcceptFriendRequestErrors covers unknown ids, wrong actors and vanished users
func TestAcceptFriendRequestErrors(t *testing.T) {
	svc, store, _ := newFriendFixture(t)
	ctx := context.Background()
	a := createUser(t, store, "alice")
	b := createUser(t, store, "bob")
	c := createUser(t, store, "carol")

	_, err := svc.AcceptFriendRequest(ctx, b.ID, uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)

	req, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	_, err = svc.AcceptFriendRequest(ctx, a.ID, req.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.AcceptFriendRequest(ctx, c.ID, req.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.RejectFriendRequest(ctx, c.ID, req.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, store.Users().SoftDelete(ctx, a.ID))
	_, err = svc.AcceptFriendRequest(ctx, b.ID, req.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := store.FriendRequests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestPending, stored.Status)

	exists, err := store.Friends().Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestAcceptFriendRequestConflict checks that an existing friendship fails the
// accept and rolls the status change back
func TestAcceptFriendRequestConflict(t *testing.T) {
	svc, store, notifier := newFriendFixture(t)
	ctx := context.Background()
	a := createUser(t, store, "alice")
	b := createUser(t, store, "bob")

	req, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, store.Friends().Create(ctx, &models.Friend{
		ID: uuid.New().String(), User1ID: b.ID, User2ID: a.ID, Since: time.Now(),
	}))

	_, err = svc.AcceptFriendRequest(ctx, b.ID, req.ID)
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := store.FriendRequests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestPending, stored.Status)

	edges, err := store.Friends().ListForUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
	assert.Len(t, notifier.Calls(), 1)
}

// staleStore hides rows from the existence checks a transaction makes before
// inserting, as if a concurrent transaction committed them in between
type staleStore struct {
	repository.Store
}

func (s staleStore) FriendRequests() repository.FriendRequestStore {
	return stalePending{s.Store.FriendRequests()}
}

func (s staleStore) Friends() repository.FriendStore {
	return staleFriends{s.Store.Friends()}
}

func (s staleStore) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.InTx(ctx, func(tx repository.Store) error {
		return fn(staleStore{tx})
	})
}

type stalePending struct {
	repository.FriendRequestStore
}

func (stalePending) FindPending(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	return nil, fmt.Errorf("friend request %w", repository.ErrNotFound)
}

type staleFriends struct {
	repository.FriendStore
}

func (staleFriends) Exists(ctx context.Context, user1ID, user2ID string) (bool, error) {
	return false, nil
}

// TestCrossedRequestsCollideInStore checks that B->A racing A->B past the
// pending check is still refused by the store
func TestCrossedRequestsCollideInStore(t *testing.T) {
	store := memory.New()
	svc := NewFriendService(staleStore{store}, &recordingNotifier{})
	ctx := context.Background()
	a := createUser(t, store, "alice")
	b := createUser(t, store, "bob")

	_, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = svc.SendFriendRequest(ctx, b.ID, a.ID)
	assert.ErrorIs(t, err, ErrConflict)

	received, err := store.FriendRequests().ListByReceiver(ctx, a.ID, models.FriendRequestPending)
	require.NoError(t, err)
	assert.Empty(t, received)
}

// TestAcceptRacingFriendshipRollsBack checks that a friendship committed
// after the existence check still fails the accept without side effects
func TestAcceptRacingFriendshipRollsBack(t *testing.T) {
	store := memory.New()
	svc := NewFriendService(staleStore{store}, &recordingNotifier{})
	ctx := context.Background()
	a := createUser(t, store, "alice")
	b := createUser(t, store, "bob")

	req, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, store.Friends().Create(ctx, &models.Friend{
		ID: uuid.New().String(), User1ID: a.ID, User2ID: b.ID, Since: time.Now(),
	}))

	_, err = svc.AcceptFriendRequest(ctx, b.ID, req.ID)
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := store.FriendRequests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestPending, stored.Status)

	edges, err := store.Friends().ListForUser(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

// TestAcceptWithoutActor checks that an empty actor skips the receiver check
func TestAcceptWithoutActor(t *testing.T) {
	svc, store, _ := newFriendFixture(t)
	ctx := context.Background()
	a := createUser(t, store, "alice")
	b := createUser(t, store, "bob")

	req, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	_, err = svc.AcceptFriendRequest(ctx, "", req.ID)
	require.NoError(t, err)

	status, err := svc.CheckFriendshipStatus(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipFriends, status)
}

// TestConcurrentAnswers races accepts and rejects on one request
func TestConcurrentAnswers(t *testing.T) {
	svc, store, _ := newFriendFixture(t)
	ctx := context.Background()
	a := createUser(t, store, "alice")
	b := createUser(t, store, "bob")

	req, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = svc.AcceptFriendRequest(ctx, b.ID, req.ID)
			} else {
				_, err = svc.RejectFriendRequest(ctx, b.ID, req.ID)
			}
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrInvalidState)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)

	stored, err := store.FriendRequests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, stored.Status.Terminal())

	friends, err := store.Friends().ListForUser(ctx, a.ID)
	require.NoError(t, err)
	if stored.Status == models.FriendRequestAccepted {
		assert.Len(t, friends, 1)
	} else {
		assert.Empty(t, friends)
	}
}

// TestRejectThenResend checks that a rejected request does not block a new one
func TestRejectThenResend(t *testing.T) {
	svc, store, _ := newFriendFixture(t)
	ctx := context.Background()
	a := createUser(t, store, "alice")
	b := createUser(t, store, "bob")

	req, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	rejected, err := svc.RejectFriendRequest(ctx, b.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestRejected, rejected.Status)

	status, err := svc.CheckFriendshipStatus(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipNone, status)

	again, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.NotEqual(t, req.ID, again.ID)
}

// TestDeleteFriendRequest covers withdrawal by either party
func TestDeleteFriendRequest(t *testing.T) {
	svc, store, _ := newFriendFixture(t)
	ctx := context.Background()
	a := createUser(t, store, "alice")
	b := createUser(t, store, "bob")
	c := createUser(t, store, "carol")

	req, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteFriendRequest(ctx, c.ID, req.ID), ErrForbidden)
	require.NoError(t, svc.DeleteFriendRequest(ctx, a.ID, req.ID))
	assert.ErrorIs(t, svc.DeleteFriendRequest(ctx, a.ID, req.ID), ErrNotFound)

	status, err := svc.CheckFriendshipStatus(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipNone, status)

	req, err = svc.SendFriendRequest(ctx, b.ID, a.ID)
	require.NoError(t, err)
	_, err = svc.AcceptFriendRequest(ctx, a.ID, req.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteFriendRequest(ctx, b.ID, req.ID), ErrInvalidState)
}

// TestRemoveFriendship checks removal and the no-op on a missing friendship
func TestRemoveFriendship(t *testing.T) {
	svc, store, _ := newFriendFixture(t)
	ctx := context.Background()
	a := createUser(t, store, "alice")
	b := createUser(t, store, "bob")

	req, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = svc.AcceptFriendRequest(ctx, b.ID, req.ID)
	require.NoError(t, err)

	removed, err := svc.RemoveFriendship(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	status, err := svc.CheckFriendshipStatus(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipNone, status)

	removed, err = svc.RemoveFriendship(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = svc.SendFriendRequest(ctx, a.ID, b.ID)
	assert.NoError(t, err)
}

// TestCheckFriendshipBatchStatus checks ordering and failure modes of batch checks
func TestCheckFriendshipBatchStatus(t *testing.T) {
	svc, store, _ := newFriendFixture(t)
	ctx := context.Background()
	a := createUser(t, store, "alice")
	b := createUser(t, store, "bob")
	c := createUser(t, store, "carol")
	d := createUser(t, store, "dave")

	_, err := svc.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = svc.SendFriendRequest(ctx, c.ID, a.ID)
	require.NoError(t, err)

	unknown := uuid.New().String()
	statuses, err := svc.CheckFriendshipBatchStatus(ctx, a.ID, []string{d.ID, c.ID, unknown, b.ID})
	require.NoError(t, err)
	assert.Equal(t, []models.FriendshipStatusResult{
		{TargetID: d.ID, Status: models.FriendshipNone},
		{TargetID: c.ID, Status: models.FriendshipReceived},
		{TargetID: unknown, Status: models.FriendshipNone},
		{TargetID: b.ID, Status: models.FriendshipPending},
	}, statuses)

	statuses, err = svc.CheckFriendshipBatchStatus(ctx, a.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, statuses)

	_, err = svc.CheckFriendshipBatchStatus(ctx, unknown, []string{a.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	req, err := svc.SendFriendRequest(ctx, d.ID, a.ID)
	require.NoError(t, err)
	_, err = svc.AcceptFriendRequest(ctx, a.ID, req.ID)
	require.NoError(t, err)

	statuses, err = svc.CheckFriendshipBatchStatus(ctx, a.ID, []string{d.ID, b.ID, d.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, []models.FriendshipStatusResult{
		{TargetID: d.ID, Status: models.FriendshipFriends},
		{TargetID: b.ID, Status: models.FriendshipPending},
		{TargetID: d.ID, Status: models.FriendshipFriends},
		{TargetID: a.ID, Status: models.FriendshipNone},
	}, statuses)
}

// countingStore counts relationship lookups made against the store
type countingStore struct {
	repository.Store
	mu    sync.Mutex
	calls map[string]int
}

func (s *countingStore) count(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
}

func (s *countingStore) Calls() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.calls))
	for k, v := range s.calls {
		out[k] = v
	}
	return out
}

func (s *countingStore) Friends() repository.FriendStore {
	return countingFriends{FriendStore: s.Store.Friends(), s: s}
}

func (s *countingStore) FriendRequests() repository.FriendRequestStore {
	return countingRequests{FriendRequestStore: s.Store.FriendRequests(), s: s}
}

type countingFriends struct {
	repository.FriendStore
	s *countingStore
}

func (f countingFriends) Exists(ctx context.Context, user1ID, user2ID string) (bool, error) {
	f.s.count("Exists")
	return f.FriendStore.Exists(ctx, user1ID, user2ID)
}

func (f countingFriends) FriendsAmong(ctx context.Context, userID string, others []string) (map[string]bool, error) {
	f.s.count("FriendsAmong")
	return f.FriendStore.FriendsAmong(ctx, userID, others)
}

type countingRequests struct {
	repository.FriendRequestStore
	s *countingStore
}

func (r countingRequests) FindPending(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	r.s.count("FindPending")
	return r.FriendRequestStore.FindPending(ctx, senderID, receiverID)
}

func (r countingRequests) PendingAmong(ctx context.Context, userID string, others []string) (map[string]bool, map[string]bool, error) {
	r.s.count("PendingAmong")
	return r.FriendRequestStore.PendingAmong(ctx, userID, others)
}

// TestBatchStatusUsesBulkLookups checks the store is queried once per table
// regardless of how many targets are asked about
func TestBatchStatusUsesBulkLookups(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	me := createUser(t, store, "me")
	targets := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		targets = append(targets, createUser(t, store, fmt.Sprintf("user%d", i)).ID)
	}

	counting := &countingStore{Store: store, calls: make(map[string]int)}
	svc := NewFriendService(counting, &recordingNotifier{})

	statuses, err := svc.CheckFriendshipBatchStatus(ctx, me.ID, targets)
	require.NoError(t, err)
	require.Len(t, statuses, 100)
	for i, st := range statuses {
		assert.Equal(t, targets[i], st.TargetID)
		assert.Equal(t, models.FriendshipNone, st.Status)
	}

	assert.Equal(t, map[string]int{"FriendsAmong": 1, "PendingAmong": 1}, counting.Calls())
}

// TestGetFriendSuggestions checks the exclusion rules
func TestGetFriendSuggestions(t *testing.T) {
	svc, store, _ := newFriendFixture(t)
	ctx := context.Background()
	me := createUser(t, store, "me")
	friend := createUser(t, store, "friend")
	sentTo := createUser(t, store, "sentto")
	receivedFrom := createUser(t, store, "receivedfrom")
	rejected := createUser(t, store, "rejected")
	blocked := createUser(t, store, "blocked")
	deleted := createUser(t, store, "deleted")
	stranger := createUser(t, store, "stranger")

	req, err := svc.SendFriendRequest(ctx, me.ID, friend.ID)
	require.NoError(t, err)
	_, err = svc.AcceptFriendRequest(ctx, friend.ID, req.ID)
	require.NoError(t, err)

	_, err = svc.SendFriendRequest(ctx, me.ID, sentTo.ID)
	require.NoError(t, err)
	_, err = svc.SendFriendRequest(ctx, receivedFrom.ID, me.ID)
	require.NoError(t, err)

	req, err = svc.SendFriendRequest(ctx, me.ID, rejected.ID)
	require.NoError(t, err)
	_, err = svc.RejectFriendRequest(ctx, rejected.ID, req.ID)
	require.NoError(t, err)

	require.NoError(t, store.Users().SetBlocked(ctx, blocked.ID, true))
	require.NoError(t, store.Users().SoftDelete(ctx, deleted.ID))

	suggestions, err := svc.GetFriendSuggestions(ctx, me.ID)
	require.NoError(t, err)

	ids := make([]string, 0, len(suggestions))
	for _, u := range suggestions {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, []string{stranger.ID, rejected.ID}, ids)
}

// TestGetFriendSuggestionsLimit checks the result size cap
func TestGetFriendSuggestionsLimit(t *testing.T) {
	svc, store, _ := newFriendFixture(t)
	ctx := context.Background()
	me := createUser(t, store, "me")
	for i := 0; i < 30; i++ {
		createUser(t, store, fmt.Sprintf("user%02d", i))
	}

	suggestions, err := svc.GetFriendSuggestions(ctx, me.ID)
	require.NoError(t, err)
	assert.Len(t, suggestions, maxSuggestions)
	for _, u := range suggestions {
		assert.NotEqual(t, me.ID, u.ID)
	}

	_, err = svc.GetFriendSuggestions(ctx, uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestListFriends checks that deleted friends are hidden
func TestListFriends(t *testing.T) {
	svc, store, _ := newFriendFixture(t)
	ctx := context.Background()
	me := createUser(t, store, "me")
	b := createUser(t, store, "bob")
	c := createUser(t, store, "carol")

	for _, other := range []string{b.ID, c.ID} {
		req, err := svc.SendFriendRequest(ctx, me.ID, other)
		require.NoError(t, err)
		_, err = svc.AcceptFriendRequest(ctx, other, req.ID)
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	entries, err := svc.ListFriends(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, c.ID, entries[0].User.ID)

	ids, err := svc.FriendIDs(ctx, me.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{b.ID, c.ID}, ids)

	require.NoError(t, store.Users().SoftDelete(ctx, c.ID))
	entries, err = svc.ListFriends(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, b.ID, entries[0].User.ID)
}
