package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/lxp-platform/qna-engine/internal/answer"
	"github.com/lxp-platform/qna-engine/internal/event"
	"github.com/lxp-platform/qna-engine/pkg/db/models"
	"github.com/lxp-platform/qna-engine/pkg/logger"
	"github.com/lxp-platform/qna-engine/pkg/metrics"
)

const (
	// JobName identifies the pending-event job in schedules, logs and metrics.
	JobName = "process-pending"

	defaultBatchSize = 200
)

type eventStore interface {
	LoadUnprocessed(ctx context.Context, limit int) ([]models.QuestionEvent, error)
	MarkProcessed(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
}

type deliverer interface {
	Deliver(ctx context.Context, questionID, eventID, answerText, model string) error
}

// Params configure the pending-event worker.
type Params struct {
	Store     eventStore
	Generator answer.Generator
	Callback  deliverer
	Metrics   *metrics.WorkerMetrics
	Logger    *logger.Logger
	BatchSize int
}

// Worker drains PENDING question events: it generates an answer for each,
// delivers it to the callback and moves the record to a terminal status.
// Records are processed independently; one failure never blocks the rest
// of the batch.
type Worker struct {
	store     eventStore
	generator answer.Generator
	callback  deliverer
	metrics   *metrics.WorkerMetrics
	logg      *logger.Logger
	batchSize int
}

// NewWorker builds the pending-event worker.
func NewWorker(params Params) (*Worker, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("event store required")
	}
	if params.Generator == nil {
		return nil, fmt.Errorf("answer generator required")
	}
	if params.Callback == nil {
		return nil, fmt.Errorf("callback client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Worker{
		store:     params.Store,
		generator: params.Generator,
		callback:  params.Callback,
		metrics:   params.Metrics,
		logg:      params.Logger,
		batchSize: batchSize,
	}, nil
}

// Name implements the cron Job interface.
func (w *Worker) Name() string {
	return JobName
}

// Run implements the cron Job interface.
func (w *Worker) Run(ctx context.Context) error {
	return w.ProcessPending(ctx)
}

// ProcessPending fetches one batch of PENDING records and drives each to a
// terminal status. Only the batch fetch itself can fail the cycle; record
// failures are recorded on the row and the cycle moves on.
func (w *Worker) ProcessPending(ctx context.Context) error {
	start := time.Now()

	rows, err := w.store.LoadUnprocessed(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("load pending events: %w", err)
	}
	if len(rows) == 0 {
		w.metrics.ObserveCycle(JobName, time.Since(start))
		return nil
	}

	logCtx := w.logg.WithField(ctx, "batch_size", len(rows))
	w.logg.Info(logCtx, "processing pending question events")

	for i := range rows {
		w.processRecord(ctx, &rows[i])
	}

	w.metrics.ObserveCycle(JobName, time.Since(start))
	return nil
}

func (w *Worker) processRecord(ctx context.Context, record *models.QuestionEvent) {
	logCtx := w.logg.WithFields(ctx, map[string]any{
		"question_id": record.ID,
		"event_id":    record.EventID,
	})

	env, err := event.Decode(record.Envelope)
	if err != nil {
		w.fail(logCtx, record.ID, fmt.Errorf("decode stored envelope: %w", err))
		return
	}

	answerText, err := w.generator.Generate(ctx, answer.RequestFromEnvelope(env))
	if err != nil {
		w.fail(logCtx, record.ID, fmt.Errorf("generate answer: %w", err))
		return
	}

	if err := w.callback.Deliver(ctx, record.ID, record.EventID, answerText, w.generator.Model()); err != nil {
		w.fail(logCtx, record.ID, fmt.Errorf("deliver answer: %w", err))
		return
	}

	if err := w.store.MarkProcessed(ctx, record.ID); err != nil {
		// The answer went out; leaving the row PENDING means a redundant
		// delivery next cycle, which the idempotency key absorbs.
		w.logg.Error(logCtx, "failed to mark question event processed", err)
		return
	}

	w.metrics.IncDone(JobName)
	w.logg.Info(logCtx, "question event answered")
}

func (w *Worker) fail(logCtx context.Context, id string, cause error) {
	w.logg.Error(logCtx, "question event processing failed", cause)
	if err := w.store.MarkFailed(logCtx, id, cause.Error()); err != nil {
		w.logg.Error(logCtx, "failed to mark question event failed", err)
		return
	}
	w.metrics.IncFailed(JobName)
}
