package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"decisionmap/application/ports"
	pkgerrors "decisionmap/pkg/errors"
)

// BreakerConfig holds configuration for the circuit breaker
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing
	OpenTimeout time.Duration
	// HalfOpenRequests are let through while probing
	HalfOpenRequests uint32
}

// DefaultBreakerConfig returns the default breaker configuration
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    1,
	}
}

// Breaker short-circuits calls to a failing provider. A rejected call is an
// UNAVAILABLE AppError wrapping gobreaker.ErrOpenState or ErrTooManyRequests,
// which callers treat like any transport failure.
type Breaker struct {
	next ports.StructuredLLM
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next in a circuit breaker
func NewBreaker(next ports.StructuredLLM, cfg BreakerConfig, logger *zap.Logger) *Breaker {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultBreakerConfig().ConsecutiveFailures
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-" + next.Name(),
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A caller giving up is not a provider failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &Breaker{next: next, cb: cb}
}

// Name implements ports.StructuredLLM
func (b *Breaker) Name() string { return b.next.Name() }

// State reports the breaker state
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

// CallStructured implements ports.StructuredLLM
func (b *Breaker) CallStructured(ctx context.Context, req ports.StructuredRequest) (json.RawMessage, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.CallStructured(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, pkgerrors.NewUnavailableError(b.Name(), err)
	}
	if err != nil {
		return nil, err
	}
	return out.(json.RawMessage), nil
}
