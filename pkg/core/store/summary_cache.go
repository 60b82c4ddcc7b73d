package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fre_viewer/pkg/models"
)

const createSummaryTable = `
	CREATE TABLE IF NOT EXISTS fre_summaries (
		sequential_id TEXT NOT NULL,
		item          TEXT NOT NULL,
		backend       TEXT NOT NULL,
		data          JSONB NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (sequential_id, item, backend)
	)`

// SummaryCache keeps generated summaries so a document is only sent to the LLM once.
// The database is primary when a pool is set; otherwise entries are JSON files.
type SummaryCache struct {
	pool    *pgxpool.Pool
	fileDir string
}

// NewSummaryCache returns a cache on pool, or on dir when pool is nil. An empty dir
// defaults to .cache/summaries.
func NewSummaryCache(pool *pgxpool.Pool, dir string) *SummaryCache {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "summaries")
	}
	if pool == nil {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("[Store] Summary cache dir %s unusable: %v", dir, err)
		}
	}
	return &SummaryCache{pool: pool, fileDir: dir}
}

// SummaryEntry is a cached summary with its provenance.
type SummaryEntry struct {
	Summary   models.Summary `json:"summary"`
	CreatedAt time.Time      `json:"created_at"`
}

// EnsureSchema creates the summaries table when the cache is database-backed.
func (c *SummaryCache) EnsureSchema(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	if _, err := c.pool.Exec(ctx, createSummaryTable); err != nil {
		return fmt.Errorf("failed to create fre_summaries: %w", err)
	}
	return nil
}

// Get returns the cached summary, or nil on a miss.
func (c *SummaryCache) Get(ctx context.Context, sequentialID string, item models.ReportItem, backend string) (*models.Summary, error) {
	if sequentialID == "" {
		return nil, nil
	}

	if c.pool != nil {
		var data []byte
		err := c.pool.QueryRow(ctx,
			`SELECT data FROM fre_summaries WHERE sequential_id = $1 AND item = $2 AND backend = $3`,
			sequentialID, string(item), backend).Scan(&data)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read cached summary: %w", err)
		}
		var entry SummaryEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached summary: %w", err)
		}
		return &entry.Summary, nil
	}

	data, err := os.ReadFile(c.path(sequentialID, item, backend))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	var entry SummaryEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache file: %w", err)
	}
	return &entry.Summary, nil
}

// Put stores s under its sequential id, item and backend.
func (c *SummaryCache) Put(ctx context.Context, s models.Summary) error {
	if s.SequentialID == "" {
		return fmt.Errorf("summary has no sequential id")
	}
	entry := SummaryEntry{Summary: s, CreatedAt: time.Now().UTC()}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	if c.pool != nil {
		_, err := c.pool.Exec(ctx, `
			INSERT INTO fre_summaries (sequential_id, item, backend, data, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (sequential_id, item, backend)
			DO UPDATE SET data = EXCLUDED.data, created_at = EXCLUDED.created_at`,
			s.SequentialID, string(s.Item), s.Backend, data, entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to save summary: %w", err)
		}
		return nil
	}

	path := c.path(s.SequentialID, s.Item, s.Backend)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return os.Rename(tmp, path)
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (c *SummaryCache) path(sequentialID string, item models.ReportItem, backend string) string {
	key := fmt.Sprintf("%s_%s_%s", sequentialID, item, backend)
	return filepath.Join(c.fileDir, unsafeKeyChars.ReplaceAllString(key, "-")+".json")
}
