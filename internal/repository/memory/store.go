// Package memory is an in-process implementation of repository.Store.
// Transactions are serialised: InTx holds the store lock for the whole
// callback and works on a copy that replaces the live state on success.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"social-graph-backend/internal/models"
	"social-graph-backend/internal/repository"
)

type pairKey struct{ a, b string }

func keyOf(user1ID, user2ID string) pairKey {
	a, b := models.OrderedPair(user1ID, user2ID)
	return pairKey{a, b}
}

type state struct {
	users         map[string]models.User
	requests      map[string]models.FriendRequest
	friends       map[pairKey]models.Friend
	notifications map[string]models.Notification
	messages      []models.Message
}

func newState() *state {
	return &state{
		users:         make(map[string]models.User),
		requests:      make(map[string]models.FriendRequest),
		friends:       make(map[pairKey]models.Friend),
		notifications: make(map[string]models.Notification),
	}
}

func (st *state) clone() *state {
	c := newState()
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.requests {
		c.requests[k] = v
	}
	for k, v := range st.friends {
		c.friends[k] = v
	}
	for k, v := range st.notifications {
		c.notifications[k] = v
	}
	c.messages = append([]models.Message(nil), st.messages...)
	return c
}

// Store keeps every table in maps guarded by a single mutex
type Store struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
}

// New creates an empty store
func New() *Store {
	return &Store{mu: &sync.Mutex{}, st: newState()}
}

func (s *Store) Users() repository.UserStore                   { return users{s} }
func (s *Store) FriendRequests() repository.FriendRequestStore { return friendRequests{s} }
func (s *Store) Friends() repository.FriendStore               { return friends{s} }
func (s *Store) Notifications() repository.NotificationStore   { return notifications{s} }
func (s *Store) Messages() repository.MessageStore             { return messages{s} }

// InTx runs fn against a private copy of the state and publishes the copy
// only if fn succeeds.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{mu: &sync.Mutex{}, st: s.st.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

func (s *Store) locked(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

type users struct{ s *Store }

func (r users) Create(ctx context.Context, user *models.User) error {
	return r.s.locked(func(st *state) error {
		for _, u := range st.users {
			if u.DeletedAt != nil {
				continue
			}
			if strings.EqualFold(u.Email, user.Email) || strings.EqualFold(u.Username, user.Username) {
				return fmt.Errorf("email or username taken: %w", repository.ErrDuplicate)
			}
		}
		st.users[user.ID] = *user
		return nil
	})
}

func (r users) GetByID(ctx context.Context, id string) (*models.User, error) {
	var out *models.User
	err := r.s.locked(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("user %w", repository.ErrNotFound)
		}
		out = &u
		return nil
	})
	return out, err
}

func (r users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	err := r.s.locked(func(st *state) error {
		for _, u := range st.users {
			if u.DeletedAt == nil && strings.EqualFold(u.Email, email) {
				out = &u
				return nil
			}
		}
		return fmt.Errorf("user %w", repository.ErrNotFound)
	})
	return out, err
}

func (r users) update(id string, fn func(u *models.User)) error {
	return r.s.locked(func(st *state) error {
		u, ok := st.users[id]
		if !ok || u.DeletedAt != nil {
			return fmt.Errorf("user %w", repository.ErrNotFound)
		}
		fn(&u)
		st.users[id] = u
		return nil
	})
}

func (r users) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	return r.update(userID, func(u *models.User) { u.DisplayName = displayName })
}

func (r users) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	return r.update(userID, func(u *models.User) { u.PushToken = pushToken })
}

func (r users) UpdateAvatarKey(ctx context.Context, userID string, avatarKey *string) error {
	return r.update(userID, func(u *models.User) { u.AvatarKey = avatarKey })
}

func (r users) SetBlocked(ctx context.Context, userID string, blocked bool) error {
	return r.update(userID, func(u *models.User) { u.IsBlocked = blocked })
}

func (r users) SoftDelete(ctx context.Context, userID string) error {
	return r.update(userID, func(u *models.User) {
		now := time.Now()
		u.DeletedAt = &now
		u.PushToken = nil
	})
}

func (r users) ListActiveExcluding(ctx context.Context, exclude []string, limit int) ([]*models.User, error) {
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	var out []*models.User
	err := r.s.locked(func(st *state) error {
		for _, u := range st.users {
			if len(out) >= limit {
				break
			}
			if _, ok := skip[u.ID]; ok || u.DeletedAt != nil || u.IsBlocked {
				continue
			}
			u := u
			out = append(out, &u)
		}
		return nil
	})
	return out, err
}

type friendRequests struct{ s *Store }

func (r friendRequests) Create(ctx context.Context, req *models.FriendRequest) error {
	return r.s.locked(func(st *state) error {
		if req.Status == models.FriendRequestPending {
			for _, existing := range st.requests {
				if existing.Status == models.FriendRequestPending &&
					keyOf(existing.SenderID, existing.ReceiverID) == keyOf(req.SenderID, req.ReceiverID) {
					return fmt.Errorf("pending friend request exists: %w", repository.ErrDuplicate)
				}
			}
		}
		st.requests[req.ID] = *req
		return nil
	})
}

func (r friendRequests) GetByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	var out *models.FriendRequest
	err := r.s.locked(func(st *state) error {
		req, ok := st.requests[id]
		if !ok {
			return fmt.Errorf("friend request %w", repository.ErrNotFound)
		}
		out = &req
		return nil
	})
	return out, err
}

func (r friendRequests) list(match func(req models.FriendRequest) bool) ([]*models.FriendRequest, error) {
	var out []*models.FriendRequest
	err := r.s.locked(func(st *state) error {
		for _, req := range st.requests {
			if match(req) {
				req := req
				out = append(out, &req)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r friendRequests) ListBySender(ctx context.Context, senderID string, status models.FriendRequestStatus) ([]*models.FriendRequest, error) {
	return r.list(func(req models.FriendRequest) bool {
		return req.SenderID == senderID && (status == "" || req.Status == status)
	})
}

func (r friendRequests) ListByReceiver(ctx context.Context, receiverID string, status models.FriendRequestStatus) ([]*models.FriendRequest, error) {
	return r.list(func(req models.FriendRequest) bool {
		return req.ReceiverID == receiverID && (status == "" || req.Status == status)
	})
}

func (r friendRequests) FindPending(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	reqs, err := r.list(func(req models.FriendRequest) bool {
		return req.SenderID == senderID && req.ReceiverID == receiverID && req.Status == models.FriendRequestPending
	})
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("pending friend request %w", repository.ErrNotFound)
	}
	return reqs[0], nil
}

func (r friendRequests) TransitionStatus(ctx context.Context, id string, from, to models.FriendRequestStatus) (bool, error) {
	var ok bool
	err := r.s.locked(func(st *state) error {
		req, exists := st.requests[id]
		if !exists || req.Status != from {
			return nil
		}
		req.Status = to
		req.UpdatedAt = time.Now()
		st.requests[id] = req
		ok = true
		return nil
	})
	return ok, err
}

func (r friendRequests) DeletePending(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.s.locked(func(st *state) error {
		req, exists := st.requests[id]
		if !exists || req.Status != models.FriendRequestPending {
			return nil
		}
		delete(st.requests, id)
		ok = true
		return nil
	})
	return ok, err
}

func (r friendRequests) PendingAmong(ctx context.Context, userID string, others []string) (map[string]bool, map[string]bool, error) {
	want := make(map[string]bool, len(others))
	for _, id := range others {
		want[id] = true
	}
	sent := make(map[string]bool)
	received := make(map[string]bool)
	err := r.s.locked(func(st *state) error {
		for _, req := range st.requests {
			if req.Status != models.FriendRequestPending {
				continue
			}
			switch {
			case req.SenderID == userID && want[req.ReceiverID]:
				sent[req.ReceiverID] = true
			case req.ReceiverID == userID && want[req.SenderID]:
				received[req.SenderID] = true
			}
		}
		return nil
	})
	return sent, received, err
}

type friends struct{ s *Store }

func (r friends) Exists(ctx context.Context, user1ID, user2ID string) (bool, error) {
	var ok bool
	err := r.s.locked(func(st *state) error {
		_, ok = st.friends[keyOf(user1ID, user2ID)]
		return nil
	})
	return ok, err
}

func (r friends) Create(ctx context.Context, friend *models.Friend) error {
	friend.User1ID, friend.User2ID = models.OrderedPair(friend.User1ID, friend.User2ID)
	return r.s.locked(func(st *state) error {
		k := keyOf(friend.User1ID, friend.User2ID)
		if _, ok := st.friends[k]; ok {
			return fmt.Errorf("friendship exists: %w", repository.ErrDuplicate)
		}
		st.friends[k] = *friend
		return nil
	})
}

func (r friends) FindBetween(ctx context.Context, user1ID, user2ID string) (*models.Friend, error) {
	var out *models.Friend
	err := r.s.locked(func(st *state) error {
		f, ok := st.friends[keyOf(user1ID, user2ID)]
		if !ok {
			return fmt.Errorf("friendship %w", repository.ErrNotFound)
		}
		out = &f
		return nil
	})
	return out, err
}

func (r friends) Delete(ctx context.Context, user1ID, user2ID string) (bool, error) {
	var ok bool
	err := r.s.locked(func(st *state) error {
		k := keyOf(user1ID, user2ID)
		if _, ok = st.friends[k]; ok {
			delete(st.friends, k)
		}
		return nil
	})
	return ok, err
}

func (r friends) ListForUser(ctx context.Context, userID string) ([]*models.Friend, error) {
	var out []*models.Friend
	err := r.s.locked(func(st *state) error {
		for _, f := range st.friends {
			if f.User1ID == userID || f.User2ID == userID {
				f := f
				out = append(out, &f)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Since.After(out[j].Since) })
	return out, err
}

func (r friends) FriendsAmong(ctx context.Context, userID string, others []string) (map[string]bool, error) {
	out := make(map[string]bool)
	err := r.s.locked(func(st *state) error {
		for _, id := range others {
			if _, ok := st.friends[keyOf(userID, id)]; ok {
				out[id] = true
			}
		}
		return nil
	})
	return out, err
}

type notifications struct{ s *Store }

func (r notifications) Create(ctx context.Context, n *models.Notification) error {
	return r.s.locked(func(st *state) error {
		st.notifications[n.ID] = *n
		return nil
	})
}

func (r notifications) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Notification, int, error) {
	var all []*models.Notification
	err := r.s.locked(func(st *state) error {
		for _, n := range st.notifications {
			if n.UserID == userID {
				n := n
				all = append(all, &n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, limit, offset), len(all), nil
}

func (r notifications) MarkRead(ctx context.Context, id, userID string) error {
	return r.s.locked(func(st *state) error {
		n, ok := st.notifications[id]
		if !ok || n.UserID != userID {
			return fmt.Errorf("notification %w", repository.ErrNotFound)
		}
		n.Read = true
		st.notifications[id] = n
		return nil
	})
}

type messages struct{ s *Store }

func (r messages) Create(ctx context.Context, msg *models.Message) error {
	return r.s.locked(func(st *state) error {
		st.messages = append(st.messages, *msg)
		return nil
	})
}

func (r messages) ListBetween(ctx context.Context, user1ID, user2ID string, limit, offset int) ([]*models.Message, error) {
	var all []*models.Message
	err := r.s.locked(func(st *state) error {
		for i := len(st.messages) - 1; i >= 0; i-- {
			m := st.messages[i]
			if (m.SenderID == user1ID && m.ReceiverID == user2ID) || (m.SenderID == user2ID && m.ReceiverID == user1ID) {
				all = append(all, &m)
			}
		}
		return nil
	})
	return page(all, limit, offset), err
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}
