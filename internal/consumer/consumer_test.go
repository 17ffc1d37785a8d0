package consumer

import (
	"context"
	"errors"
	"io"
	"testing"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lxp-platform/qna-engine/internal/event"
	"github.com/lxp-platform/qna-engine/pkg/logger"
)

type fakeBuffer struct {
	saved []*event.Envelope
	err   error
}

func (f *fakeBuffer) SavePending(_ context.Context, env *event.Envelope) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, env)
	return nil
}

const validEnvelopeJSON = `{
	"eventId": "evt-1",
	"occurredAt": "2025-09-01T10:00:00Z",
	"payload": {
		"course": {"uuid": "c-1", "title": "Intro to Go"},
		"section": {"uuid": "s-1", "title": "Basics"},
		"lecture": {"uuid": "l-1", "title": "Variables"},
		"qna": {"id": "qna-1", "authorId": "u-1", "title": "Why zero values?", "content": "Please explain."}
	}
}`

func testConsumer(t *testing.T, store *fakeBuffer) *Consumer {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	c, err := NewConsumer(store, &pubsub.Subscriber{}, 32, logg)
	require.NoError(t, err)
	return c
}

func TestProcessBuffersValidEvent(t *testing.T) {
	store := &fakeBuffer{}
	c := testConsumer(t, store)

	result := c.process(context.Background(), &pubsub.Message{ID: "m-1", Data: []byte(validEnvelopeJSON)})

	assert.True(t, result.ack)
	assert.False(t, result.nack)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "evt-1", store.saved[0].EventID)
	assert.Equal(t, "qna-1", store.saved[0].QuestionID())
}

func TestProcessDropsMalformedEvent(t *testing.T) {
	store := &fakeBuffer{}
	c := testConsumer(t, store)

	result := c.process(context.Background(), &pubsub.Message{ID: "m-2", Data: []byte("{not json")})

	assert.True(t, result.ack)
	assert.False(t, result.nack)
	assert.Empty(t, store.saved)
}

func TestProcessDropsInvalidEvent(t *testing.T) {
	store := &fakeBuffer{}
	c := testConsumer(t, store)

	// Parses as JSON but misses required fields.
	result := c.process(context.Background(), &pubsub.Message{ID: "m-3", Data: []byte(`{"eventId":"evt-3"}`)})

	assert.True(t, result.ack)
	assert.Empty(t, store.saved)
}

func TestProcessNacksOnStoreFailure(t *testing.T) {
	store := &fakeBuffer{err: errors.New("db down")}
	c := testConsumer(t, store)

	result := c.process(context.Background(), &pubsub.Message{ID: "m-4", Data: []byte(validEnvelopeJSON)})

	assert.True(t, result.nack)
	assert.False(t, result.ack)
}

func TestNewConsumerValidatesInputs(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})

	_, err := NewConsumer(nil, &pubsub.Subscriber{}, 32, logg)
	require.Error(t, err)

	_, err = NewConsumer(&fakeBuffer{}, nil, 32, logg)
	require.Error(t, err)

	_, err = NewConsumer(&fakeBuffer{}, &pubsub.Subscriber{}, 32, nil)
	require.Error(t, err)
}
