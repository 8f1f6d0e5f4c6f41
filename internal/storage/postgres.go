package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/terskinalex/leetcode-activity-tracker/internal/apperr"
	"github.com/terskinalex/leetcode-activity-tracker/internal/config"
	"github.com/terskinalex/leetcode-activity-tracker/internal/models"
)

// PostgreSQLStorage implements Storage using a submissions table with id
// as primary key; upserts go through INSERT ... ON CONFLICT.
type PostgreSQLStorage struct {
	db *sql.DB
}

// NewPostgreSQLStorage creates a new PostgreSQL storage instance
func NewPostgreSQLStorage(cfg config.StorageConfig) (*PostgreSQLStorage, error) {
	if cfg.PostgresURI == "" {
		return nil, fmt.Errorf("POSTGRES_URI is not configured")
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	storage := &PostgreSQLStorage{db: db}
	if err := storage.ensureTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure table exists: %w", err)
	}

	return storage, nil
}

func (p *PostgreSQLStorage) ensureTable() error {
	_, err := p.db.Exec(`
		CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			title_slug TEXT NOT NULL,
			ts BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT '',
			difficulty TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(`CREATE INDEX IF NOT EXISTS submissions_ts_idx ON submissions (ts DESC)`)
	return err
}

// UpsertSubmissions inserts or replaces each submission by id, counting
// only fresh inserts as added.
func (p *PostgreSQLStorage) UpsertSubmissions(ctx context.Context, subs []models.Submission) (int, error) {
	added := 0
	for _, sub := range subs {
		var inserted bool
		err := p.db.QueryRowContext(ctx, `
			INSERT INTO submissions (id, title, title_slug, ts, status, language, difficulty)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				title_slug = EXCLUDED.title_slug,
				ts = EXCLUDED.ts,
				status = EXCLUDED.status,
				language = EXCLUDED.language,
				difficulty = EXCLUDED.difficulty
			RETURNING (xmax = 0)`,
			sub.ID, sub.Title, sub.TitleSlug, sub.Timestamp, sub.Status, sub.Language, sub.Difficulty,
		).Scan(&inserted)
		if err != nil {
			return added, apperr.Storage(err, "failed to upsert submission %s", sub.ID)
		}
		if inserted {
			added++
		}
	}

	return added, nil
}

// QueryRange returns submissions with start <= ts <= end, newest first.
func (p *PostgreSQLStorage) QueryRange(ctx context.Context, start, end int64) ([]models.Submission, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, title, title_slug, ts, status, language, difficulty
		FROM submissions
		WHERE ts BETWEEN $1 AND $2
		ORDER BY ts DESC`,
		start, end)
	if err != nil {
		return nil, apperr.Storage(err, "failed to query submissions")
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		var sub models.Submission
		if err := rows.Scan(&sub.ID, &sub.Title, &sub.TitleSlug, &sub.Timestamp, &sub.Status, &sub.Language, &sub.Difficulty); err != nil {
			return nil, apperr.Storage(err, "failed to scan submission row")
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err, "failed to read submission rows")
	}

	return subs, nil
}

// Reset drops and recreates the submissions table and its index.
func (p *PostgreSQLStorage) Reset(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `DROP TABLE IF EXISTS submissions`); err != nil {
		return apperr.Storage(err, "failed to drop submissions table")
	}
	if err := p.ensureTable(); err != nil {
		return apperr.Storage(err, "failed to recreate submissions table")
	}
	return nil
}

// Close closes the database connection pool.
func (p *PostgreSQLStorage) Close() error {
	return p.db.Close()
}
