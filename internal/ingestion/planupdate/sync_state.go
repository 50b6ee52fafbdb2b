package planupdate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// SyncState is the outcome of the last refresh of one blog
type SyncState struct {
	BlogID        int64
	LastRunAt     time.Time
	LastSuccessAt *time.Time
	Status        string
	ErrorMessage  string
	PlanCount     int
}

type StateStore interface {
	RecordSuccess(ctx context.Context, blogID int64, planCount int) error
	RecordFailure(ctx context.Context, blogID int64, cause error) error
	Get(ctx context.Context, blogID int64) (*SyncState, error)
}

// PostgresStateStore keeps sync state in plan_sync_state through a pgx pool
type PostgresStateStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStateStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStateStore, error) {
	s := &PostgresStateStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStateStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS plan_sync_state (
		blog_id BIGINT PRIMARY KEY,
		last_run_at TIMESTAMPTZ NOT NULL,
		last_success_at TIMESTAMPTZ,
		status TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		plan_count INT NOT NULL DEFAULT 0
	)`)
	if err != nil {
		return fmt.Errorf("failed to init sync state schema: %w", err)
	}
	return nil
}

func (s *PostgresStateStore) RecordSuccess(ctx context.Context, blogID int64, planCount int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO plan_sync_state (blog_id, last_run_at, last_success_at, status, error_message, plan_count)
		 VALUES ($1, now(), now(), $2, '', $3)
		 ON CONFLICT (blog_id) DO UPDATE SET
		 last_run_at = now(), last_success_at = now(), status = $2, error_message = '', plan_count = $3`,
		blogID, StatusCompleted, planCount)
	return err
}

// RecordFailure keeps the previous success time and plan count
func (s *PostgresStateStore) RecordFailure(ctx context.Context, blogID int64, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO plan_sync_state (blog_id, last_run_at, status, error_message)
		 VALUES ($1, now(), $2, $3)
		 ON CONFLICT (blog_id) DO UPDATE SET
		 last_run_at = now(), status = $2, error_message = $3`,
		blogID, StatusFailed, msg)
	return err
}

// Get returns nil without error when the blog was never synced
func (s *PostgresStateStore) Get(ctx context.Context, blogID int64) (*SyncState, error) {
	var st SyncState
	err := s.pool.QueryRow(ctx,
		`SELECT blog_id, last_run_at, last_success_at, status, error_message, plan_count
		 FROM plan_sync_state WHERE blog_id = $1`, blogID).
		Scan(&st.BlogID, &st.LastRunAt, &st.LastSuccessAt, &st.Status, &st.ErrorMessage, &st.PlanCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}
