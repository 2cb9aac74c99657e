package services

import (
	"context"
	"testing"
	"time"

	"social-graph-backend/internal/models"
	"social-graph-backend/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNotifyDeliversToAllChannels checks storage, WebSocket and push delivery
func TestNotifyDeliversToAllChannels(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	user := createUser(t, store, "alice")
	token := "device-token"
	require.NoError(t, store.Users().UpdatePushToken(ctx, user.ID, &token))

	realtime := newFakeRealtime(user.ID)
	pusher := &fakePusher{}
	svc := NewNotificationService(store, realtime, pusher)

	require.NoError(t, svc.Notify(ctx, user.ID, models.NotificationFriendRequest, "req-1", "bob sent you a friend request"))
	svc.Wait()

	list, total, err := svc.List(ctx, user.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationFriendRequest, list[0].Kind)
	assert.Equal(t, "req-1", list[0].ReferenceID)
	assert.False(t, list[0].Read)

	sent := realtime.Sent(user.ID)
	require.Len(t, sent, 1)
	assert.Equal(t, "notification", sent[0].Type)
	require.NotNil(t, sent[0].Notification)
	assert.Equal(t, list[0].ID, sent[0].Notification.ID)

	assert.Equal(t, []pushCall{{Token: token, Kind: models.NotificationFriendRequest}}, pusher.Calls())
}

// TestNotifySkipsUnavailableChannels checks offline users and users without a device
func TestNotifySkipsUnavailableChannels(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	user := createUser(t, store, "alice")

	realtime := newFakeRealtime()
	pusher := &fakePusher{}
	svc := NewNotificationService(store, realtime, pusher)

	require.NoError(t, svc.Notify(ctx, user.ID, models.NotificationFriendAccepted, "req-1", "accepted"))
	svc.Wait()

	assert.Empty(t, realtime.Sent(user.ID))
	assert.Empty(t, pusher.Calls())

	_, total, err := svc.List(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

// TestNotifyDeliveryFailures checks that delivery errors never fail the call
func TestNotifyDeliveryFailures(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	user := createUser(t, store, "alice")
	token := "device-token"
	require.NoError(t, store.Users().UpdatePushToken(ctx, user.ID, &token))

	realtime := newFakeRealtime(user.ID)
	realtime.err = errDeliveryDown
	pusher := &fakePusher{err: errDeliveryDown}
	svc := NewNotificationService(store, realtime, pusher)

	require.NoError(t, svc.Notify(ctx, user.ID, models.NotificationMessage, "msg-1", "new message"))
	svc.Wait()
	assert.Len(t, pusher.Calls(), 1)

	_, total, err := svc.List(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

// TestNotifyDoesNotWaitForDelivery checks that a slow push provider never holds
// up the friend request that triggered it, nor sees the request context end
func TestNotifyDoesNotWaitForDelivery(t *testing.T) {
	store := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")
	token := "bob-device"
	require.NoError(t, store.Users().UpdatePushToken(ctx, bob.ID, &token))

	pusher := newBlockingPusher()
	notifications := NewNotificationService(store, nil, pusher)
	friends := NewFriendService(store, notifications)

	start := time.Now()
	_, err := friends.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	select {
	case <-pusher.started:
	case <-time.After(2 * time.Second):
		t.Fatal("push was never attempted")
	}
	cancel()
	close(pusher.release)
	notifications.Wait()

	calls := pusher.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, pushCall{Token: token, Kind: models.NotificationFriendRequest}, calls[0])
	assert.NoError(t, pusher.CtxErr())
}

// TestNotificationListPagination checks newest-first ordering and paging
func TestNotificationListPagination(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	user := createUser(t, store, "alice")
	other := createUser(t, store, "bob")
	svc := NewNotificationService(store, nil, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Notify(ctx, user.ID, models.NotificationMessage, uuid.New().String(), "hi"))
		time.Sleep(time.Millisecond)
	}
	require.NoError(t, svc.Notify(ctx, other.ID, models.NotificationMessage, uuid.New().String(), "hi"))

	all, total, err := svc.List(ctx, user.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt))
	}

	page, total, err := svc.List(ctx, user.ID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, all[2].ID, page[0].ID)
	assert.Equal(t, all[3].ID, page[1].ID)

	page, _, err = svc.List(ctx, user.ID, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

// TestNotificationMarkRead checks ownership on mark-read
func TestNotificationMarkRead(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	user := createUser(t, store, "alice")
	other := createUser(t, store, "bob")
	svc := NewNotificationService(store, nil, nil)

	require.NoError(t, svc.Notify(ctx, user.ID, models.NotificationFriendRequest, "req-1", "hi"))
	list, _, err := svc.List(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	assert.ErrorIs(t, svc.MarkRead(ctx, other.ID, id), ErrNotFound)
	assert.ErrorIs(t, svc.MarkRead(ctx, user.ID, uuid.New().String()), ErrNotFound)
	require.NoError(t, svc.MarkRead(ctx, user.ID, id))

	list, _, err = svc.List(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	assert.True(t, list[0].Read)
}
