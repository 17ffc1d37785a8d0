package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lxp-platform/qna-engine/pkg/config"
	pkgerrors "github.com/lxp-platform/qna-engine/pkg/errors"
	"github.com/lxp-platform/qna-engine/pkg/logger"
)

const (
	// Source identifies this engine in delivered answer bodies.
	Source = "qna-engine"

	defaultMaxAttempts          = 3
	responseBodyReadLimit int64 = 1024
	snippetLen                  = 64
)

var errBaseURLRequired = errors.New("callback base url is required")

// AnswerOut is the JSON body posted to the callback endpoint.
type AnswerOut struct {
	AnswerText string    `json:"answerText"`
	Model      string    `json:"model"`
	AnsweredAt time.Time `json:"answeredAt"`
	Source     string    `json:"source"`
	EventID    string    `json:"eventId"`
}

// Client delivers generated answers to the configured callback endpoint.
// Deliveries are keyed by the originating event id so the receiver can
// deduplicate repeats.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxAttempts int
	logg        *logger.Logger
	now         func() time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the callback client from configuration.
func NewClient(cfg config.CallbackConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(base, "/"),
		maxAttempts: attempts,
		logg:        logg,
		now:         time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Deliver posts the answer for the question, using the event id as the
// idempotency key. Server-class failures are retried up to the configured
// attempt limit; client errors surface immediately.
func (c *Client) Deliver(ctx context.Context, questionID, eventID, answerText, model string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "callback client not configured")
	}
	if strings.TrimSpace(questionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "question id is required")
	}
	if strings.TrimSpace(eventID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}

	c.logOutgoing(ctx, questionID, eventID, answerText)

	body, err := json.Marshal(AnswerOut{
		AnswerText: answerText,
		Model:      model,
		AnsweredAt: c.now().UTC(),
		Source:     Source,
		EventID:    eventID,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal answer body")
	}

	endpoint := fmt.Sprintf("%s/%s/answers", c.baseURL, url.PathEscape(questionID))

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		status, err := c.post(ctx, endpoint, eventID, body)
		if err != nil {
			lastErr = err
			continue
		}
		switch {
		case status < http.StatusBadRequest:
			return nil
		case status < http.StatusInternalServerError:
			return pkgerrors.New(pkgerrors.CodeRejected, fmt.Sprintf("callback rejected delivery with status %d", status))
		default:
			lastErr = fmt.Errorf("callback returned status %d", status)
		}
	}

	return pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, fmt.Sprintf("callback delivery failed after %d attempts", c.maxAttempts))
}

func (c *Client) post(ctx context.Context, endpoint, eventID string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", eventID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute callback request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, responseBodyReadLimit))
		_ = resp.Body.Close()
	}()

	return resp.StatusCode, nil
}

func (c *Client) logOutgoing(ctx context.Context, questionID, eventID, answerText string) {
	if c.logg == nil {
		return
	}
	head := answerText
	if len(head) > snippetLen {
		head = head[:snippetLen]
	}
	tail := answerText
	if len(tail) > snippetLen {
		tail = tail[len(tail)-snippetLen:]
	}
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"question_id": questionID,
		"event_id":    eventID,
		"answer_len":  len(answerText),
		"answer_head": head,
		"answer_tail": tail,
	})
	c.logg.Info(logCtx, "callback outgoing")
}
