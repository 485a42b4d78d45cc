// Package notify posts build progress to an external webhook. Like the
// signing bridge, nxbuild only owns the invocation contract: a JSON
// text payload per event, Slack-compatible. Delivery is best effort. A
// build must never fail because a chat channel is down, so every
// transport error is logged and swallowed.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nxtscape/nxbuild/pkg/logging"
)

// Notifier receives pipeline progress events.
type Notifier interface {
	// StageStarted fires before each pipeline stage runs.
	StageStarted(ctx context.Context, stage string)
	// BuildFailed fires once, for the stage that aborted the run.
	BuildFailed(ctx context.Context, stage string, err error)
}

// Nop discards every event. It backs runs with notifications disabled.
type Nop struct{}

func (Nop) StageStarted(context.Context, string) {}

func (Nop) BuildFailed(context.Context, string, error) {}

// Webhook posts events as {"text": ...} JSON messages.
type Webhook struct {
	url    string
	client *http.Client
	logger zerolog.Logger
}

// NewWebhook creates a Webhook poster. A nil client uses a short-lived
// default: a slow chat endpoint must not stall the build.
func NewWebhook(url string, client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Webhook{
		url:    url,
		client: client,
		logger: logging.GetLogger("notify"),
	}
}

// StageStarted implements Notifier.
func (w *Webhook) StageStarted(ctx context.Context, stage string) {
	w.post(ctx, fmt.Sprintf(":hammer_and_wrench: nxbuild: starting %s", stage))
}

// BuildFailed implements Notifier.
func (w *Webhook) BuildFailed(ctx context.Context, stage string, err error) {
	w.post(ctx, fmt.Sprintf(":x: nxbuild: %s failed: %v", stage, err))
}

func (w *Webhook) post(ctx context.Context, text string) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		w.logger.Warn().Err(err).Msg("Cannot encode notification")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		w.logger.Warn().Err(err).Msg("Cannot build notification request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Notification delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		w.logger.Warn().Int("status", resp.StatusCode).Msg("Notification rejected")
	}
}
