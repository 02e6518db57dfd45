package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"decisionmap/application/ports"
	pkgerrors "decisionmap/pkg/errors"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClient asks Gemini for JSON constrained by the request schema
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiClient creates a Gemini adapter
func NewGeminiClient(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{client: client, model: model, logger: logger}, nil
}

// Name implements ports.StructuredLLM
func (c *GeminiClient) Name() string { return "gemini" }

// CallStructured implements ports.StructuredLLM
func (c *GeminiClient) CallStructured(ctx context.Context, req ports.StructuredRequest) (json.RawMessage, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(req.User, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		SystemInstruction:  genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:        genai.Ptr[float32](temperature),
		MaxOutputTokens:    maxTokens,
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: req.Schema,
	})
	if err != nil {
		return nil, transportError(c.Name(), err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, ErrEmptyResponse
	}
	if !json.Valid([]byte(text)) {
		return nil, pkgerrors.NewSchemaError(req.Name, errors.New("content is not valid JSON"))
	}
	return json.RawMessage(text), nil
}
