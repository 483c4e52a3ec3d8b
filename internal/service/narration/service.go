package narration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/parkjm/restock/internal/domain/models"
	"github.com/parkjm/restock/internal/metrics"
	"github.com/parkjm/restock/pkg/clients/agent"
)

const callTimeout = 60 * time.Second

// Result is one completed narration call.
type Result struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
	Narration string `json:"narration"`
}

// Service invokes the conversational agent to narrate low-stock conditions.
// Narration is advisory: it never blocks or fails the inventory workflow
// that triggered it, and failed calls are not retried (they carry no
// idempotency key, so a retry could duplicate outbound notifications).
type Service struct {
	client agent.Client
	logger *zap.Logger
}

// NewService wires a new narration service. client may be nil when the
// agent is not configured; calls then report the agent as unavailable.
func NewService(client agent.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, logger: logger}
}

// Narrate builds the low-stock prompt for the item, streams the agent's
// reply and returns the concatenated narration.
func (s *Service) Narrate(ctx context.Context, item models.Item) (*Result, error) {
	if s.client == nil {
		return nil, fmt.Errorf("narration agent not configured: %w", models.ErrUpstreamUnavailable)
	}

	prompt := buildPrompt(item)
	metrics.NarrationRequests.Inc()

	stream, err := s.client.Narrate(ctx, prompt)
	if err != nil {
		metrics.NarrationFailures.Inc()
		return nil, fmt.Errorf("invoke narration agent: %v: %w", err, models.ErrUpstreamUnavailable)
	}
	defer func() { _ = stream.Close() }()

	narration, err := stream.Collect()
	if err != nil {
		metrics.NarrationFailures.Inc()
		return nil, fmt.Errorf("read narration stream: %v: %w", err, models.ErrUpstreamUnavailable)
	}

	return &Result{
		SessionID: stream.SessionID,
		Prompt:    prompt,
		Narration: narration,
	}, nil
}

// NotifyAsync fires a narration call without blocking the caller. Errors
// are logged and counted only.
func (s *Service) NotifyAsync(item models.Item) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		result, err := s.Narrate(ctx, item)
		if err != nil {
			s.logger.Warn("narration failed",
				zap.String("qcode", item.Qcode),
				zap.Error(err))
			return
		}

		s.logger.Info("low stock narrated",
			zap.String("qcode", item.Qcode),
			zap.String("session_id", result.SessionID),
			zap.String("narration", result.Narration))
	}()
}

func buildPrompt(item models.Item) string {
	lines := []string{
		"Low stock notice. Summarize the situation and suggest an action.",
		fmt.Sprintf("- Q-CODE: %s", item.Qcode),
	}
	if item.Name != "" {
		lines = append(lines, fmt.Sprintf("- Name: %s", item.Name))
	}
	lines = append(lines,
		fmt.Sprintf("- Current stock: %g%s", item.CurrentStock, item.Unit),
		fmt.Sprintf("- Minimum stock: %g%s", item.MinStock, item.Unit),
	)
	return strings.Join(lines, "\n")
}
