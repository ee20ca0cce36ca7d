package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"pdf-rag/internal/models"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &DB{Pool: mock}, mock
}

func TestInitialize(t *testing.T) {
	t.Run("ShouldCreateTableAndIndex", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS qa_history").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS qa_history_session_idx").WillReturnResult(pgxmock.NewResult("CREATE INDEX", 0))

		require.NoError(t, db.Initialize(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ShouldWrapFailures", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

		err := db.Initialize(context.Background())
		assert.ErrorContains(t, err, "failed to create qa_history table: permission denied")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecordAnswer(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	answer := &models.Answer{
		Question: "What is the refund window?",
		Text:     "Refunds are issued within 14 days.",
		Sources:  make([]models.SearchResult, 4),
		Citations: []models.Citation{
			{Source: "policy.pdf", Page: 3},
			{Source: "policy.pdf", Page: 7},
		},
		CreatedAt: now,
	}

	mock.ExpectExec("INSERT INTO qa_history").
		WithArgs("session-1", answer.Question, answer.Text, []string{"policy.pdf p.3", "policy.pdf p.7"}, 4, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, db.RecordAnswer(context.Background(), "session-1", answer))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentAnswers(t *testing.T) {
	columns := []string{"id", "session_id", "question", "answer", "citations", "chunk_count", "created_at"}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("ShouldFilterBySession", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT (.+) FROM qa_history WHERE session_id = \\$1").
			WithArgs("session-1", 10).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(int64(2), "session-1", "q2", "a2", []string{"x.pdf p.1"}, 4, now).
				AddRow(int64(1), "session-1", "q1", "a1", []string{}, 2, now.Add(-time.Minute)))

		entries, err := db.RecentAnswers(context.Background(), "session-1", 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "q2", entries[0].Question)
		assert.Equal(t, []string{"x.pdf p.1"}, entries[0].Citations)
		assert.Equal(t, 2, entries[1].Chunks)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ShouldListAllSessions", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT (.+) FROM qa_history ORDER BY").
			WithArgs(5).
			WillReturnRows(pgxmock.NewRows(columns))

		entries, err := db.RecentAnswers(context.Background(), "", 5)
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ShouldWrapQueryErrors", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))

		_, err := db.RecentAnswers(context.Background(), "", 5)
		assert.ErrorContains(t, err, "failed to query history")
	})
}
