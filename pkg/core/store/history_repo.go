package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fre_viewer/pkg/models"
)

const createHistoryTable = `
	CREATE TABLE IF NOT EXISTS document_requests (
		id            UUID PRIMARY KEY,
		company       TEXT NOT NULL,
		item          TEXT NOT NULL,
		sequential_id TEXT,
		url           TEXT,
		outcome       TEXT NOT NULL,
		bytes         INTEGER NOT NULL DEFAULT 0,
		requested_at  TIMESTAMPTZ NOT NULL
	)`

// HistoryRepo stores one row per document retrieval attempt.
type HistoryRepo struct {
	pool *pgxpool.Pool
}

// NewHistoryRepo creates a repository on pool (usually GetPool()).
func NewHistoryRepo(pool *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

// EnsureSchema creates the history table if needed.
func (r *HistoryRepo) EnsureSchema(ctx context.Context) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}
	if _, err := r.pool.Exec(ctx, createHistoryTable); err != nil {
		return fmt.Errorf("failed to create document_requests: %w", err)
	}
	return nil
}

// Record inserts req, filling ID and RequestedAt when empty.
func (r *HistoryRepo) Record(ctx context.Context, req models.DocumentRequest) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}
	req = withDefaults(req)

	query := `
		INSERT INTO document_requests (id, company, item, sequential_id, url, outcome, bytes, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, uuid.MustParse(req.ID), req.Company, string(req.Item), req.SequentialID, req.URL, req.Outcome, req.Bytes, req.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to record document request: %w", err)
	}
	return nil
}

// ListRecent returns up to limit requests, newest first. An empty company lists all.
func (r *HistoryRepo) ListRecent(ctx context.Context, company string, limit int) ([]models.DocumentRequest, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT id::text, company, item, COALESCE(sequential_id, ''), COALESCE(url, ''), outcome, bytes, requested_at
		FROM document_requests
		WHERE ($1 = '' OR company = $1)
		ORDER BY requested_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, company, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.DocumentRequest, error) {
		var (
			req  models.DocumentRequest
			item string
		)
		err := row.Scan(&req.ID, &req.Company, &item, &req.SequentialID, &req.URL, &req.Outcome, &req.Bytes, &req.RequestedAt)
		req.Item = models.ReportItem(item)
		return req, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan history: %w", err)
	}
	return list, nil
}

func withDefaults(req models.DocumentRequest) models.DocumentRequest {
	if _, err := uuid.Parse(req.ID); err != nil {
		req.ID = uuid.NewString()
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	return req
}
