package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"
)

// Query represents a read-only query
type Query interface {
	Validate() error
}

// QueryHandler handles a specific query type
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// QueryHandlerFunc is an adapter to allow functions to be used as handlers
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

// Handle implements QueryHandler
func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// Middleware wraps a query handler
type Middleware func(next QueryHandler) QueryHandler

var (
	ErrHandlerNotFound  = errors.New("query handler not found")
	ErrValidationFailed = errors.New("query validation failed")
)

// QueryBus dispatches queries to their handlers
type QueryBus struct {
	handlers map[reflect.Type]QueryHandler
	mu       sync.RWMutex
}

// NewQueryBus creates a new query bus
func NewQueryBus() *QueryBus {
	return &QueryBus{
		handlers: make(map[reflect.Type]QueryHandler),
	}
}

// Register registers a handler for a query type, wrapped by middlewares
// in the given order.
func (b *QueryBus) Register(queryType Query, handler QueryHandler, middlewares ...Middleware) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(queryType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for query type %s", t.Name())
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	b.handlers[t] = handler
	return nil
}

// Ask dispatches a query to its handler and returns the result
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %T", ErrHandlerNotFound, query)
	}

	return handler.Handle(ctx, query)
}

// Cache interface for caching
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl int) error
}

// CachingMiddleware serves repeated queries from cache for ttl seconds.
// Only successful results are stored.
func CachingMiddleware(cache Cache, ttl int) Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			key := fmt.Sprintf("query:%T:%+v", query, query)
			if cached, found := cache.Get(ctx, key); found {
				return cached, nil
			}

			result, err := next.Handle(ctx, query)
			if err != nil {
				return nil, err
			}
			_ = cache.Set(ctx, key, result, ttl)
			return result, nil
		})
	}
}

// Metrics receives one observation per query
type Metrics interface {
	Query(name, outcome string, elapsed time.Duration)
}

// MetricsMiddleware times queries by type
func MetricsMiddleware(metrics Metrics) Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			start := time.Now()
			result, err := next.Handle(ctx, query)
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			metrics.Query(reflect.TypeOf(query).Name(), outcome, time.Since(start))
			return result, err
		})
	}
}
