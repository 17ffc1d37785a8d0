package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lxp-platform/qna-engine/internal/event"
	"github.com/lxp-platform/qna-engine/pkg/db/models"
	"github.com/lxp-platform/qna-engine/pkg/enums"
)

// Repository is the sole authority over question-event persistence and
// status transitions. Every mutation is one atomic statement, so a crash
// between a worker step and its status update leaves the row PENDING.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SavePending inserts the envelope as a PENDING row keyed by question id.
// Inserting a duplicate question id is a silent no-op, which makes bus
// redeliveries safe to replay.
func (r *Repository) SavePending(ctx context.Context, env *event.Envelope) error {
	if env == nil {
		return fmt.Errorf("envelope is required")
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	record := models.QuestionEvent{
		ID:         env.QuestionID(),
		EventID:    env.EventID,
		OccurredAt: env.OccurredAt,
		Envelope:   raw,
		Status:     enums.StatusPending,
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("insert question event %s: %w", record.ID, err)
	}
	return nil
}

// LoadUnprocessed returns up to limit PENDING rows in insertion order.
func (r *Repository) LoadUnprocessed(ctx context.Context, limit int) ([]models.QuestionEvent, error) {
	var rows []models.QuestionEvent
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.StatusPending).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load unprocessed: %w", err)
	}
	return rows, nil
}

// MarkProcessed transitions the row to DONE. Re-applying to a DONE row is a
// no-op beyond refreshing updated_at.
func (r *Repository) MarkProcessed(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Model(&models.QuestionEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     enums.StatusDone,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("mark processed %s: %w", id, err)
	}
	return nil
}

// MarkFailed transitions the row to FAILED, increments attempts and records
// the most recent error message.
func (r *Repository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	err := r.db.WithContext(ctx).
		Model(&models.QuestionEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     enums.StatusFailed,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": errMsg,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("mark failed %s: %w", id, err)
	}
	return nil
}
