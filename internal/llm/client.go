package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/savorly/restaurant-recommender/internal/config"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama-3.3-70b-versatile"
	defaultTimeout = 30 * time.Second
)

var (
	// ErrProviderUnavailable indicates the client could not be constructed,
	// typically because no API key is configured.
	ErrProviderUnavailable = errors.New("llm provider unavailable")
	// ErrRequestFailed indicates a single completion call errored out.
	ErrRequestFailed = errors.New("llm request failed")
)

// CompletionRequest carries the two chat messages plus optional per-call
// overrides. A nil override falls back to the process-level default.
type CompletionRequest struct {
	System      string
	User        string
	Model       string
	Temperature *float32
	MaxTokens   *int
}

// Client is a thin gateway over the Groq chat-completion API. It performs
// exactly one upstream call per Complete invocation; retry policy belongs to
// the caller.
type Client struct {
	api      *openai.Client
	defaults config.LLMConfig
}

// New builds a Groq client from the process configuration. It fails with
// ErrProviderUnavailable when no API key is present.
func New(cfg config.LLMConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: GROQ_API_KEY is not set", ErrProviderUnavailable)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api:      openai.NewClientWithConfig(clientCfg),
		defaults: cfg,
	}, nil
}

// Complete performs a single non-streaming chat completion and returns the
// response text. Transport failures, timeouts, non-2xx statuses and empty
// choice lists all surface as ErrRequestFailed.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.defaults.Model
	}
	temperature := c.defaults.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := c.defaults.MaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", ErrRequestFailed)
	}
	return resp.Choices[0].Message.Content, nil
}
