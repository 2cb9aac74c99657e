package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"social-graph-backend/internal/models"
	"social-graph-backend/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// createUser inserts an active user straight into the store
func createUser(t *testing.T, store *memory.Store, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:          uuid.New().String(),
		Email:       username + "@example.com",
		Username:    username,
		DisplayName: username,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

type notifyCall struct {
	UserID      string
	Kind        models.NotificationKind
	ReferenceID string
	Text        string
}

// recordingNotifier records every call and returns err
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	err   error
}

func (n *recordingNotifier) Notify(ctx context.Context, userID string, kind models.NotificationKind, referenceID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{UserID: userID, Kind: kind, ReferenceID: referenceID, Text: text})
	return n.err
}

func (n *recordingNotifier) Calls() []notifyCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifyCall(nil), n.calls...)
}

// fakeRealtime pretends a fixed set of users is connected
type fakeRealtime struct {
	mu     sync.Mutex
	online map[string]bool
	sent   map[string][]WSMessage
	err    error
}

func newFakeRealtime(online ...string) *fakeRealtime {
	r := &fakeRealtime{online: make(map[string]bool), sent: make(map[string][]WSMessage)}
	for _, id := range online {
		r.online[id] = true
	}
	return r
}

func (r *fakeRealtime) IsOnline(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online[userID]
}

func (r *fakeRealtime) SendToUser(userID string, message WSMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent[userID] = append(r.sent[userID], message)
	return nil
}

func (r *fakeRealtime) Sent(userID string) []WSMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]WSMessage(nil), r.sent[userID]...)
}

type pushCall struct {
	Token string
	Kind  models.NotificationKind
}

type fakePusher struct {
	mu    sync.Mutex
	calls []pushCall
	err   error
}

func (p *fakePusher) Push(ctx context.Context, deviceToken string, n *models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, pushCall{Token: deviceToken, Kind: n.Kind})
	return p.err
}

func (p *fakePusher) Calls() []pushCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pushCall(nil), p.calls...)
}

// blockingPusher holds every push until release is closed
type blockingPusher struct {
	fakePusher
	started chan struct{}
	release chan struct{}
	once    sync.Once
	ctxErr  error
}

func newBlockingPusher() *blockingPusher {
	return &blockingPusher{started: make(chan struct{}), release: make(chan struct{})}
}

func (p *blockingPusher) Push(ctx context.Context, deviceToken string, n *models.Notification) error {
	p.once.Do(func() { close(p.started) })
	<-p.release
	p.mu.Lock()
	p.ctxErr = ctx.Err()
	p.mu.Unlock()
	return p.fakePusher.Push(ctx, deviceToken, n)
}

func (p *blockingPusher) CtxErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctxErr
}

var errDeliveryDown = errors.New("delivery down")
