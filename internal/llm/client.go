// Package llm talks to an OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/FranksOps/evp/internal/config"
	"github.com/FranksOps/evp/internal/metrics"
	"github.com/FranksOps/evp/pkg/httpclient"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultTimeout bounds a single completion request.
const DefaultTimeout = 120 * time.Second

// Request is a single-turn chat completion.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
}

// Completer generates text for a single-turn request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Client is a Completer backed by the official OpenAI SDK. Requests are never
// retried.
type Client struct {
	client openai.Client
}

var _ Completer = (*Client)(nil)

// NewClient builds a client from resolved settings.
func NewClient(s config.Settings, timeout time.Duration) (*Client, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	hc := httpclient.New(httpclient.Config{Timeout: timeout})
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithHTTPClient(hc.Client),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}

	return &Client{client: openai.NewClient(opts...)}, nil
}

// Complete issues one chat completion and returns the content of the first
// choice, or "" when the response carries none.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       req.Model,
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	})
	metrics.RecordCompletion(time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping confirms the endpoint is reachable, the key is accepted and the model
// exists, using one metadata request.
func (c *Client) Ping(ctx context.Context, model string) error {
	if _, err := c.client.Models.Get(ctx, model); err != nil {
		return fmt.Errorf("validate model %q: %w", model, err)
	}
	return nil
}
