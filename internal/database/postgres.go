package database

import (
	"context"
	"fmt"

	"pdf-rag/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the subset of *pgxpool.Pool used by DB
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// DB stores answered questions in Postgres
type DB struct {
	Pool Pool
}

// NewDB creates a new database connection
func NewDB(ctx context.Context, connStr string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Initialize sets up the history table and its indices
func (db *DB) Initialize(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS qa_history (
            id BIGSERIAL PRIMARY KEY,
            session_id TEXT NOT NULL,
            question TEXT NOT NULL,
            answer TEXT NOT NULL,
            citations TEXT[] NOT NULL DEFAULT '{}',
            chunk_count INTEGER NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create qa_history table: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS qa_history_session_idx ON qa_history (session_id, created_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("failed to create history index: %w", err)
	}

	return nil
}

// RecordAnswer stores an answer with its citations
func (db *DB) RecordAnswer(ctx context.Context, sessionID string, answer *models.Answer) error {
	citations := make([]string, len(answer.Citations))
	for i, c := range answer.Citations {
		citations[i] = fmt.Sprintf("%s p.%d", c.Source, c.Page)
	}

	_, err := db.Pool.Exec(ctx, `
        INSERT INTO qa_history (session_id, question, answer, citations, chunk_count, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `,
		sessionID,
		answer.Question,
		answer.Text,
		citations,
		len(answer.Sources),
		answer.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}
	return nil
}

// RecentAnswers returns the latest answers, newest first. An empty sessionID matches every session.
func (db *DB) RecentAnswers(ctx context.Context, sessionID string, limit int) ([]models.HistoryEntry, error) {
	var rows pgx.Rows
	var err error

	if sessionID != "" {
		rows, err = db.Pool.Query(ctx, `
			SELECT id, session_id, question, answer, citations, chunk_count, created_at
			FROM qa_history
			WHERE session_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`, sessionID, limit)
	} else {
		rows, err = db.Pool.Query(ctx, `
			SELECT id, session_id, question, answer, citations, chunk_count, created_at
			FROM qa_history
			ORDER BY created_at DESC, id DESC
			LIMIT $1
		`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return processRows(rows)
}

func processRows(rows pgx.Rows) ([]models.HistoryEntry, error) {
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&e.Question,
			&e.Answer,
			&e.Citations,
			&e.Chunks,
			&e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// Close closes the database connection
func (db *DB) Close() {
	db.Pool.Close()
}
