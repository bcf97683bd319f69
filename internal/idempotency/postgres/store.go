// Package postgres keeps create-order responses in the idempotency_keys table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dejobratic/orderflow/internal/orders/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Column order matches the fields of ports.StoredResponse.
const (
	selectResponse = `SELECT status_code, body, order_id FROM idempotency_keys WHERE key = $1`
	insertResponse = `INSERT INTO idempotency_keys (key, status_code, body, order_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO NOTHING`
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Store struct {
	db querier
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// Get returns nil without error for an unknown key.
func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	rows, err := s.db.Query(ctx, selectResponse, key)
	if err != nil {
		return nil, fmt.Errorf("look up idempotency key %q: %w", key, err)
	}

	resp, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[ports.StoredResponse])
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("read idempotency key %q: %w", key, err)
	}
	return &resp, nil
}

// Save records response under key unless the key already holds one; the first
// response wins so every retry replays the same body.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	_, err := s.db.Exec(ctx, insertResponse, key, response.StatusCode, response.Body, response.OrderID)
	if err != nil {
		return fmt.Errorf("store idempotency key %q: %w", key, err)
	}
	return nil
}
