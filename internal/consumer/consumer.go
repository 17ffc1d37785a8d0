package consumer

import (
	"context"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/lxp-platform/qna-engine/internal/event"
	"github.com/lxp-platform/qna-engine/pkg/logger"
)

type buffer interface {
	SavePending(ctx context.Context, env *event.Envelope) error
}

// Consumer buffers question-created events from the bus into the durable
// store. It never answers questions itself; acknowledged events are picked
// up later by the worker.
type Consumer struct {
	store        buffer
	subscription *pubsub.Subscriber
	prefetch     int
	logg         *logger.Logger
}

// NewConsumer builds a question-event consumer.
func NewConsumer(store buffer, subscription *pubsub.Subscriber, prefetch int, logg *logger.Logger) (*Consumer, error) {
	if store == nil {
		return nil, fmt.Errorf("event store required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("question subscription required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		store:        store,
		subscription: subscription,
		prefetch:     prefetch,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.prefetch > 0 {
		c.subscription.ReceiveSettings.MaxOutstandingMessages = c.prefetch
	}
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithField(ctx, "message_id", msg.ID)

	env, err := event.Decode(msg.Data)
	if err != nil {
		// Malformed events can never succeed; ack so the bus stops
		// redelivering them.
		c.logg.Error(logCtx, "dropping malformed question event", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":    env.EventID,
		"question_id": env.QuestionID(),
	})

	if err := c.store.SavePending(ctx, env); err != nil {
		c.logg.Error(logCtx, "failed to buffer question event", err)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "question event buffered")
	return processResult{ack: true}
}
