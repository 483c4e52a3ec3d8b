package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	defaultModel   = "claude-3-haiku-20240307"
	maxTokens      = 1024

	systemPrompt = "You are an inventory assistant for a parts warehouse. " +
		"Given a low-stock notice, reply with a short plain-text summary of the " +
		"situation and a concrete restocking suggestion. Keep it under five sentences."
)

// Client defines the narration agent used to annotate low-stock conditions.
type Client interface {
	Narrate(ctx context.Context, prompt string) (*Stream, error)
}

type agentClient struct {
	httpClient *resty.Client
	model      string
}

// NewClient creates a configured narration client. baseURL and model fall
// back to the Anthropic messages API defaults when empty.
func NewClient(apiKey, baseURL, model string) Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(60 * time.Second)

	return &agentClient{httpClient: client, model: model}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageRequest struct {
	Model     string            `json:"model"`
	MaxTokens int               `json:"max_tokens"`
	Stream    bool              `json:"stream"`
	System    string            `json:"system"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Messages  []message         `json:"messages"`
}

// Narrate opens a streamed completion for the given prompt. Each call gets a
// fresh session id; there is no cross-call continuity. The returned stream is
// lazy, finite and non-restartable; the caller concatenates its fragments and
// must Close it when abandoning the stream early.
func (c *agentClient) Narrate(ctx context.Context, prompt string) (*Stream, error) {
	sessionID := uuid.NewString()

	reqBody := messageRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Stream:    true,
		System:    systemPrompt,
		Metadata:  map[string]string{"user_id": sessionID},
		Messages:  []message{{Role: "user", Content: prompt}},
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetDoNotParseResponse(true).
		Post("/v1/messages")
	if err != nil {
		return nil, fmt.Errorf("narration api call: %w", err)
	}

	body := resp.RawBody()
	if resp.StatusCode() >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(body, 4096))
		_ = body.Close()
		return nil, fmt.Errorf("narration api error: status=%d body=%s", resp.StatusCode(), strings.TrimSpace(string(detail)))
	}

	return &Stream{
		SessionID: sessionID,
		body:      body,
		scanner:   bufio.NewScanner(body),
	}, nil
}

// Stream is a finite sequence of narration text fragments decoded from the
// agent's server-sent events.
type Stream struct {
	SessionID string

	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

// Recv returns the next non-empty text fragment, or io.EOF once the stream
// has finished.
func (s *Stream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &event); err != nil {
			// Keep-alive and unknown payloads are skipped, not fatal.
			continue
		}

		switch event.Type {
		case "content_block_delta":
			if event.Delta.Text != "" {
				return event.Delta.Text, nil
			}
		case "message_stop":
			s.done = true
			_ = s.body.Close()
			return "", io.EOF
		}
	}

	s.done = true
	_ = s.body.Close()
	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("narration stream: %w", err)
	}
	return "", io.EOF
}

// Collect concatenates the remaining fragments into one narration text.
func (s *Stream) Collect() (string, error) {
	var sb strings.Builder
	for {
		fragment, err := s.Recv()
		if err == io.EOF {
			return strings.TrimSpace(sb.String()), nil
		}
		if err != nil {
			return strings.TrimSpace(sb.String()), err
		}
		sb.WriteString(fragment)
	}
}

// Close abandons the stream. Safe to call at any point.
func (s *Stream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.body.Close()
}
