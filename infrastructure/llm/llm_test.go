package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decisionmap/application/ports"
	"decisionmap/infrastructure/config"
	pkgerrors "decisionmap/pkg/errors"
)

func greetingSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"greeting": {Type: "string"},
		},
		Required:             []string{"greeting"},
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}
}

func greetingRequest() ports.StructuredRequest {
	return ports.StructuredRequest{Name: "greeting", System: "sys", User: "user", Schema: greetingSchema()}
}

func TestOpenAIClient(t *testing.T) {
	t.Run("Should send a strict json_schema request and return the content", func(t *testing.T) {
		// Arrange
		var got map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"greeting\":\"привет\"}"}}]}`))
		}))
		defer server.Close()
		client := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL}, nil)

		// Act
		raw, err := client.CallStructured(context.Background(), greetingRequest())

		// Assert
		require.NoError(t, err)
		assert.JSONEq(t, `{"greeting":"привет"}`, string(raw))
		assert.Equal(t, DefaultOpenAIModel, got["model"])
		assert.Equal(t, 0.2, got["temperature"])
		assert.Equal(t, float64(900), got["max_tokens"])
		format := got["response_format"].(map[string]interface{})
		assert.Equal(t, "json_schema", format["type"])
		schema := format["json_schema"].(map[string]interface{})
		assert.Equal(t, "greeting", schema["name"])
		assert.Equal(t, true, schema["strict"])
		messages := got["messages"].([]interface{})
		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	})

	t.Run("Should fail without a key", func(t *testing.T) {
		_, err := NewOpenAIClient(OpenAIConfig{}, nil).CallStructured(context.Background(), greetingRequest())

		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("Should carry the body of a non-2xx response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL}, nil).CallStructured(context.Background(), greetingRequest())

		require.Error(t, err)
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
		assert.Contains(t, err.Error(), "429")
		assert.Contains(t, err.Error(), "quota")
	})

	t.Run("Should report a server failure as an external error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream broke", http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL}, nil).CallStructured(context.Background(), greetingRequest())

		require.Error(t, err)
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
		assert.Equal(t, http.StatusInternalServerError, pkgerrors.GetAppError(err).Details["status"])
	})

	t.Run("Should reject content that is not JSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"привет"}}]}`))
		}))
		defer server.Close()

		_, err := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL}, nil).CallStructured(context.Background(), greetingRequest())

		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeSchema))
	})

	t.Run("Should treat empty content as a failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
		}))
		defer server.Close()

		_, err := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL}, nil).CallStructured(context.Background(), greetingRequest())

		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("Should honour the context deadline", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL}, nil).CallStructured(ctx, greetingRequest())

		require.Error(t, err)
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeTimeout))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, "timeout", pkgerrors.Outcome(err))
	})
}

func TestMock(t *testing.T) {
	m := NewMock().
		Respond("greeting", json.RawMessage(`{"greeting":"a"}`)).
		Fail("greeting", errors.New("boom"))

	first, err := m.CallStructured(context.Background(), greetingRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"greeting":"a"}`, string(first))

	_, err = m.CallStructured(context.Background(), greetingRequest())
	assert.EqualError(t, err, "boom")

	_, err = m.CallStructured(context.Background(), greetingRequest())
	assert.ErrorIs(t, err, ErrNoScriptedAnswer)
	assert.Len(t, m.Calls(), 3)
}

func TestValidating(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		wantErr bool
	}{
		{"Should pass a conforming answer", `{"greeting":"привет"}`, false},
		{"Should reject a missing field", `{}`, true},
		{"Should reject an extra field", `{"greeting":"a","extra":1}`, true},
		{"Should reject a wrong type", `{"greeting":5}`, true},
		{"Should reject a non-object", `["greeting"]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidating(NewMock().Respond("greeting", json.RawMessage(tt.answer)))

			_, err := v.CallStructured(context.Background(), greetingRequest())

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSchemaViolation)
				assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeSchema))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBreaker(t *testing.T) {
	t.Run("Should open after consecutive failures", func(t *testing.T) {
		// Arrange
		m := NewMock()
		for i := 0; i < 3; i++ {
			m.Fail("greeting", errors.New("down"))
		}
		b := NewBreaker(m, BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, nil)

		// Act
		_, err1 := b.CallStructured(context.Background(), greetingRequest())
		_, err2 := b.CallStructured(context.Background(), greetingRequest())
		_, err3 := b.CallStructured(context.Background(), greetingRequest())

		// Assert
		assert.Error(t, err1)
		assert.Error(t, err2)
		assert.ErrorIs(t, err3, gobreaker.ErrOpenState)
		assert.True(t, pkgerrors.IsType(err3, pkgerrors.ErrorTypeUnavailable))
		assert.False(t, pkgerrors.IsType(err2, pkgerrors.ErrorTypeUnavailable))
		assert.Equal(t, gobreaker.StateOpen, b.State())
		assert.Len(t, m.Calls(), 2)
	})

	t.Run("Should pass answers through while closed", func(t *testing.T) {
		b := NewBreaker(NewMock().Respond("greeting", json.RawMessage(`{"greeting":"x"}`)), DefaultBreakerConfig(), nil)

		raw, err := b.CallStructured(context.Background(), greetingRequest())

		require.NoError(t, err)
		assert.JSONEq(t, `{"greeting":"x"}`, string(raw))
		assert.Equal(t, "mock", b.Name())
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Run("Should disable a provider without credentials", func(t *testing.T) {
		llm, err := NewFromConfig(context.Background(), &config.Config{LLMProvider: config.ProviderOpenAI}, nil)

		require.NoError(t, err)
		_, err = llm.CallStructured(context.Background(), greetingRequest())
		assert.ErrorIs(t, err, ErrDisabled)
	})

	t.Run("Should wrap the mock provider", func(t *testing.T) {
		llm, err := NewFromConfig(context.Background(), &config.Config{LLMProvider: config.ProviderMock, BreakerFailures: 3}, nil)

		require.NoError(t, err)
		assert.IsType(t, &Validating{}, llm)
		assert.Equal(t, "mock", llm.Name())
	})

	t.Run("Should reject unknown providers", func(t *testing.T) {
		_, err := NewFromConfig(context.Background(), &config.Config{LLMProvider: "other"}, nil)

		assert.Error(t, err)
	})
}
