// Package llm holds the structured-output model adapters and the decorators
// every provider is wrapped in.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"decisionmap/application/ports"
	pkgerrors "decisionmap/pkg/errors"
)

const (
	DefaultOpenAIModel   = "gpt-4o-mini-2024-07-18"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	temperature = 0.2
	maxTokens   = 900
)

var (
	ErrMissingAPIKey = errors.New("llm: API key is not configured")
	ErrEmptyResponse = errors.New("llm: model returned no content")
)

// OpenAIConfig configures the chat completions adapter
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIClient calls the chat completions API with a strict json_schema
// response format.
type OpenAIClient struct {
	cfg    OpenAIConfig
	http   *http.Client
	logger *zap.Logger
}

// NewOpenAIClient creates an adapter. A missing key is reported per call.
func NewOpenAIClient(cfg OpenAIConfig, logger *zap.Logger) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 14 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Name implements ports.StructuredLLM
func (c *OpenAIClient) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string      `json:"name"`
	Schema interface{} `json:"schema"`
	Strict bool        `json:"strict"`
}

type responseFormat struct {
	Type       string           `json:"type"`
	JSONSchema jsonSchemaFormat `json:"json_schema"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
	Messages       []chatMessage  `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// CallStructured implements ports.StructuredLLM
func (c *OpenAIClient) CallStructured(ctx context.Context, req ports.StructuredRequest) (json.RawMessage, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		ResponseFormat: responseFormat{
			Type:       "json_schema",
			JSONSchema: jsonSchemaFormat{Name: req.Name, Schema: req.Schema, Strict: true},
		},
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, transportError(c.Name(), err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, transportError(c.Name(), fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			return nil, pkgerrors.NewUnavailableError(c.Name(), apiErr).WithDetail("status", resp.StatusCode)
		}
		return nil, pkgerrors.NewExternalError(c.Name(), apiErr).WithDetail("status", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, pkgerrors.NewExternalError(c.Name(), fmt.Errorf("decode response: %w", err))
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}
	content := decoded.Choices[0].Message.Content
	if !json.Valid([]byte(content)) {
		return nil, pkgerrors.NewSchemaError(req.Name, errors.New("content is not valid JSON"))
	}

	c.logger.Debug("OpenAI call completed",
		zap.String("schema", req.Name),
		zap.Duration("duration", time.Since(start)),
	)
	return json.RawMessage(content), nil
}

// transportError classifies a failed call: deadlines become timeouts,
// everything else an external error.
func transportError(service string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return pkgerrors.NewTimeoutError(service, err)
	}
	return pkgerrors.NewExternalError(service, err)
}
