package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"decisionmap/application/ports"
)

var (
	ErrDisabled         = errors.New("llm: model calls are disabled")
	ErrNoScriptedAnswer = errors.New("llm: no scripted answer")
)

// Disabled fails every call, so every stage takes its fallback
type Disabled struct{}

// Name implements ports.StructuredLLM
func (Disabled) Name() string { return "disabled" }

// CallStructured implements ports.StructuredLLM
func (Disabled) CallStructured(context.Context, ports.StructuredRequest) (json.RawMessage, error) {
	return nil, ErrDisabled
}

// Mock replays queued answers per schema name and records every request
type Mock struct {
	mu      sync.Mutex
	answers map[string][]mockAnswer
	calls   []ports.StructuredRequest
}

type mockAnswer struct {
	raw json.RawMessage
	err error
}

// NewMock creates an empty mock; unscripted calls fail
func NewMock() *Mock {
	return &Mock{answers: make(map[string][]mockAnswer)}
}

// Name implements ports.StructuredLLM
func (m *Mock) Name() string { return "mock" }

// Respond queues raw for the next call with the given schema name
func (m *Mock) Respond(schema string, raw json.RawMessage) *Mock {
	return m.enqueue(schema, mockAnswer{raw: raw})
}

// Fail queues err for the next call with the given schema name
func (m *Mock) Fail(schema string, err error) *Mock {
	return m.enqueue(schema, mockAnswer{err: err})
}

func (m *Mock) enqueue(schema string, a mockAnswer) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers[schema] = append(m.answers[schema], a)
	return m
}

// Calls returns the requests seen so far
func (m *Mock) Calls() []ports.StructuredRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.StructuredRequest(nil), m.calls...)
}

// CallStructured implements ports.StructuredLLM
func (m *Mock) CallStructured(ctx context.Context, req ports.StructuredRequest) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	queue := m.answers[req.Name]
	if len(queue) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoScriptedAnswer, req.Name)
	}
	next := queue[0]
	m.answers[req.Name] = queue[1:]
	return next.raw, next.err
}
