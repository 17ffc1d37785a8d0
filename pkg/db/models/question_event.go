package models

import (
	"encoding/json"
	"time"

	"github.com/lxp-platform/qna-engine/pkg/enums"
)

// QuestionEvent is one buffered "question created" event, keyed by the
// question id so redeliveries of the same question collapse into one row.
type QuestionEvent struct {
	ID         string            `gorm:"column:id;primaryKey"`
	EventID    string            `gorm:"column:event_id;not null"`
	OccurredAt time.Time         `gorm:"column:occurred_at;not null"`
	Envelope   json.RawMessage   `gorm:"column:envelope;type:jsonb;not null"`
	Status     enums.EventStatus `gorm:"column:status;not null;default:PENDING"`
	Attempts   int               `gorm:"column:attempts;not null;default:0"`
	LastError  *string           `gorm:"column:last_error"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table name independent of gorm pluralization.
func (QuestionEvent) TableName() string {
	return "question_events"
}
