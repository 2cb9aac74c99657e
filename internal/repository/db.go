package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert hits a unique constraint
	ErrDuplicate = errors.New("duplicate")
)

const uniqueViolation = "23505"

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgStore is the PostgreSQL implementation of Store
type PgStore struct {
	db   DBTX
	pool *pgxpool.Pool
}

// NewPgStore creates a store backed by a connection pool
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{db: pool, pool: pool}
}

func (s *PgStore) Users() UserStore                   { return NewUserRepository(s.db) }
func (s *PgStore) FriendRequests() FriendRequestStore { return NewFriendRequestRepository(s.db) }
func (s *PgStore) Friends() FriendStore               { return NewFriendRepository(s.db) }
func (s *PgStore) Notifications() NotificationStore   { return NewNotificationRepository(s.db) }
func (s *PgStore) Messages() MessageStore             { return NewMessageRepository(s.db) }

// InTx runs fn inside a single transaction. Calls made on a store that is
// already transactional join the enclosing transaction.
func (s *PgStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(&PgStore{db: tx})
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// notFound wraps pgx.ErrNoRows as ErrNotFound and everything else with msg
func notFound(err error, what, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
