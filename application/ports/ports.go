// Package ports declares the collaborators the application layer depends on.
// Implementations live under infrastructure/.
package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"decisionmap/domain/events"
	"decisionmap/domain/history"
)

// StructuredRequest is one schema-constrained model call
type StructuredRequest struct {
	// Name identifies the schema to providers that require one
	Name   string
	System string
	User   string
	Schema *jsonschema.Schema
}

// StructuredLLM returns JSON conforming to the request schema. Any transport,
// decoding or schema failure is returned as an error.
type StructuredLLM interface {
	CallStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error)
	Name() string
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}

// HistoryRepository persists decision records
type HistoryRepository interface {
	// Save inserts or replaces a record
	Save(ctx context.Context, record history.DecisionRecord) error

	// GetByID returns ErrRecordNotFound when the id is unknown
	GetByID(ctx context.Context, id string) (history.DecisionRecord, error)

	// List returns records newest first
	List(ctx context.Context, opts history.ListOptions) (history.Page, error)

	Delete(ctx context.Context, id string) error

	// All returns every record, newest first
	All(ctx context.Context) ([]history.DecisionRecord, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Metrics records pipeline counters
type Metrics interface {
	MapBuilt(domain string, llmUsed bool, elapsed time.Duration)
	LLMCall(stage, outcome string)
	Fallback(stage string)
	RewriteCache(hit bool)
	NodesRewritten(source string, n int)
	Query(name, outcome string, elapsed time.Duration)
}

// Tracer wraps a pipeline stage in a trace span
type Tracer interface {
	TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) MapBuilt(string, bool, time.Duration) {}
func (NopMetrics) LLMCall(string, string)              {}
func (NopMetrics) Fallback(string)                     {}
func (NopMetrics) RewriteCache(bool)                   {}
func (NopMetrics) NodesRewritten(string, int)          {}
func (NopMetrics) Query(string, string, time.Duration) {}

// NopTracer runs stages untraced
type NopTracer struct{}

func (NopTracer) TraceFunction(ctx context.Context, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

// NopPublisher drops events
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, events.DomainEvent) error        { return nil }
func (NopPublisher) PublishBatch(context.Context, []events.DomainEvent) error { return nil }
