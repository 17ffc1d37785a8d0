package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Course, Section and Lecture carry the teaching context the answer
// generator grounds its reply on.
type Course struct {
	UUID  string `json:"uuid" validate:"required"`
	Title string `json:"title" validate:"required"`
}

type Section struct {
	UUID  string `json:"uuid" validate:"required"`
	Title string `json:"title" validate:"required"`
}

type Lecture struct {
	UUID  string `json:"uuid" validate:"required"`
	Title string `json:"title" validate:"required"`
}

// Qna is the question a learner posted under a lecture.
type Qna struct {
	ID        string    `json:"id" validate:"required"`
	AuthorID  string    `json:"authorId" validate:"required"`
	Title     string    `json:"title" validate:"required"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// QnaCreatedPayload is the event body published when a question is created.
type QnaCreatedPayload struct {
	Course  Course  `json:"course" validate:"required"`
	Section Section `json:"section" validate:"required"`
	Lecture Lecture `json:"lecture" validate:"required"`
	Qna     Qna     `json:"qna" validate:"required"`
}

// Envelope is the full serialized event as it travels on the bus. It is
// stored verbatim so the worker can re-decode it for answer generation.
type Envelope struct {
	EventID       string            `json:"eventId" validate:"required"`
	OccurredAt    time.Time         `json:"occurredAt" validate:"required"`
	CorrelationID *string           `json:"correlationId,omitempty"`
	CausationID   *string           `json:"causationId,omitempty"`
	Payload       QnaCreatedPayload `json:"payload" validate:"required"`
}

// QuestionID returns the question id the envelope is keyed by.
func (e Envelope) QuestionID() string {
	return e.Payload.Qna.ID
}

var validate = validator.New()

// Decode parses and validates a raw envelope. Malformed input is a permanent
// error: redelivering the same bytes can never make them parse.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if err := validate.Struct(env); err != nil {
		return nil, fmt.Errorf("validate envelope: %w", err)
	}
	return &env, nil
}
