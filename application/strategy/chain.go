// Package strategy runs ordered alternatives where the first success wins.
package strategy

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNoStrategy is returned when a chain holds no steps
var ErrNoStrategy = errors.New("strategy chain is empty")

// Step is a single alternative of a chain
type Step[I, O any] struct {
	Name    string
	Execute func(ctx context.Context, in I) (O, error)
}

// Outcome reports which step produced the result
type Outcome[O any] struct {
	Value O
	Step  string
	// Index of the winning step, 0 for the preferred one
	Index int
}

// Chain tries steps in order and returns the first result without error
type Chain[I, O any] struct {
	name   string
	steps  []Step[I, O]
	logger *zap.Logger
}

// NewChain creates an empty chain
func NewChain[I, O any](name string, logger *zap.Logger) *Chain[I, O] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain[I, O]{name: name, logger: logger}
}

// Then appends a step
func (c *Chain[I, O]) Then(name string, execute func(context.Context, I) (O, error)) *Chain[I, O] {
	c.steps = append(c.steps, Step[I, O]{Name: name, Execute: execute})
	return c
}

// Len returns the number of steps
func (c *Chain[I, O]) Len() int {
	return len(c.steps)
}

// Execute runs the chain. When every step fails the errors are joined.
func (c *Chain[I, O]) Execute(ctx context.Context, in I) (Outcome[O], error) {
	if len(c.steps) == 0 {
		return Outcome[O]{}, ErrNoStrategy
	}

	var errs []error
	for i, step := range c.steps {
		if err := ctx.Err(); err != nil && i < len(c.steps)-1 {
			// Cancelled: skip straight to the last resort
			errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
			continue
		}

		out, err := step.Execute(ctx, in)
		if err == nil {
			if i > 0 {
				c.logger.Warn("Strategy fell back",
					zap.String("chain", c.name),
					zap.String("step", step.Name),
					zap.Int("step_number", i+1),
				)
			} else {
				c.logger.Debug("Strategy succeeded",
					zap.String("chain", c.name),
					zap.String("step", step.Name),
				)
			}
			return Outcome[O]{Value: out, Step: step.Name, Index: i}, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
		c.logger.Warn("Strategy step failed",
			zap.String("chain", c.name),
			zap.String("step", step.Name),
			zap.Int("step_number", i+1),
			zap.Error(err),
		)
	}

	return Outcome[O]{}, fmt.Errorf("strategy chain %s exhausted: %w", c.name, errors.Join(errs...))
}

// RetryOnce wraps execute so that a result rejected by ok is retried a single
// time. A failing retry fails the step, so a chain moves on to its next step.
func RetryOnce[I, O any](
	execute func(context.Context, I) (O, error),
	ok func(O) bool,
	retry func(ctx context.Context, in I, first O) (O, error),
) func(context.Context, I) (O, error) {
	return func(ctx context.Context, in I) (O, error) {
		first, err := execute(ctx, in)
		if err != nil {
			return first, err
		}
		if ok(first) {
			return first, nil
		}
		second, err := retry(ctx, in, first)
		if err != nil {
			var zero O
			return zero, fmt.Errorf("retry: %w", err)
		}
		return second, nil
	}
}
