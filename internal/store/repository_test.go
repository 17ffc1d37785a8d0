package store

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lxp-platform/qna-engine/internal/event"
	"github.com/lxp-platform/qna-engine/pkg/enums"
)

func setupStoreTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS question_events (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  occurred_at DATETIME NOT NULL,
  envelope TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  attempts INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func testEnvelope(questionID, eventID string) *event.Envelope {
	return &event.Envelope{
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
		Payload: event.QnaCreatedPayload{
			Course:  event.Course{UUID: "c-1", Title: "Intro to Go"},
			Section: event.Section{UUID: "s-1", Title: "Basics"},
			Lecture: event.Lecture{UUID: "l-1", Title: "Variables"},
			Qna: event.Qna{
				ID:        questionID,
				AuthorID:  "u-1",
				Title:     "What is a zero value?",
				Content:   "Where do zero values come from?",
				CreatedAt: time.Now().UTC(),
			},
		},
	}
}

func TestSavePendingRoundTrip(t *testing.T) {
	repo := NewRepository(setupStoreTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SavePending(ctx, testEnvelope("qna-1", "evt-123")))

	rows, err := repo.LoadUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "qna-1", row.ID)
	assert.Equal(t, "evt-123", row.EventID)
	assert.Equal(t, enums.StatusPending, row.Status)
	assert.Equal(t, 0, row.Attempts)
	assert.Nil(t, row.LastError)

	var env event.Envelope
	require.NoError(t, json.Unmarshal(row.Envelope, &env))
	assert.Equal(t, "evt-123", env.EventID)
	assert.Equal(t, "Intro to Go", env.Payload.Course.Title)
	assert.Equal(t, "What is a zero value?", env.Payload.Qna.Title)
}

func TestSavePendingIsIdempotent(t *testing.T) {
	repo := NewRepository(setupStoreTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SavePending(ctx, testEnvelope("qna-1", "evt-123")))
	require.NoError(t, repo.MarkProcessed(ctx, "qna-1"))

	// A redelivery of the same question must not resurrect or duplicate the row.
	require.NoError(t, repo.SavePending(ctx, testEnvelope("qna-1", "evt-456")))

	rows, err := repo.LoadUnprocessed(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)

	var count int64
	require.NoError(t, repo.db.Raw(`SELECT COUNT(*) FROM question_events`).Scan(&count).Error)
	assert.EqualValues(t, 1, count)

	var eventID string
	require.NoError(t, repo.db.Raw(`SELECT event_id FROM question_events WHERE id = 'qna-1'`).Scan(&eventID).Error)
	assert.Equal(t, "evt-123", eventID)
}

func TestMarkProcessedExcludesFromUnprocessed(t *testing.T) {
	repo := NewRepository(setupStoreTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SavePending(ctx, testEnvelope("qna-1", "evt-1")))
	require.NoError(t, repo.SavePending(ctx, testEnvelope("qna-2", "evt-2")))
	require.NoError(t, repo.MarkProcessed(ctx, "qna-1"))

	rows, err := repo.LoadUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "qna-2", rows[0].ID)
}

func TestMarkFailedRecordsErrorAndAttempts(t *testing.T) {
	repo := NewRepository(setupStoreTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SavePending(ctx, testEnvelope("qna-1", "evt-1")))
	require.NoError(t, repo.MarkFailed(ctx, "qna-1", "generation timed out"))

	rows, err := repo.LoadUnprocessed(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)

	var row struct {
		Status    string
		Attempts  int
		LastError string
	}
	require.NoError(t, repo.db.Raw(`SELECT status, attempts, last_error FROM question_events WHERE id = 'qna-1'`).Scan(&row).Error)
	assert.Equal(t, string(enums.StatusFailed), row.Status)
	assert.Equal(t, 1, row.Attempts)
	assert.Equal(t, "generation timed out", row.LastError)

	// Re-applying just re-increments.
	require.NoError(t, repo.MarkFailed(ctx, "qna-1", "still broken"))
	require.NoError(t, repo.db.Raw(`SELECT status, attempts, last_error FROM question_events WHERE id = 'qna-1'`).Scan(&row).Error)
	assert.Equal(t, 2, row.Attempts)
	assert.Equal(t, "still broken", row.LastError)
}

func TestLoadUnprocessedHonorsLimit(t *testing.T) {
	repo := NewRepository(setupStoreTestDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.SavePending(ctx, testEnvelope(fmt.Sprintf("qna-%d", i), fmt.Sprintf("evt-%d", i))))
	}

	rows, err := repo.LoadUnprocessed(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
