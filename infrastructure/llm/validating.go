package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"decisionmap/application/ports"
	pkgerrors "decisionmap/pkg/errors"
)

// ErrSchemaViolation marks answers that do not match the request schema. It
// is the cause of the SCHEMA AppError returned by Validating.
var ErrSchemaViolation = errors.New("llm: response violates schema")

// Validating rejects answers that do not conform to the request schema.
// Resolved schemas are kept per schema name.
type Validating struct {
	next     ports.StructuredLLM
	mu       sync.Mutex
	resolved map[string]*jsonschema.Resolved
}

// NewValidating wraps next with schema validation
func NewValidating(next ports.StructuredLLM) *Validating {
	return &Validating{next: next, resolved: make(map[string]*jsonschema.Resolved)}
}

// Name implements ports.StructuredLLM
func (v *Validating) Name() string { return v.next.Name() }

// CallStructured implements ports.StructuredLLM
func (v *Validating) CallStructured(ctx context.Context, req ports.StructuredRequest) (json.RawMessage, error) {
	raw, err := v.next.CallStructured(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Schema == nil {
		return raw, nil
	}

	resolved, err := v.resolve(req)
	if err != nil {
		return nil, err
	}
	var instance map[string]interface{}
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, pkgerrors.NewSchemaError(req.Name, fmt.Errorf("%w: not a JSON object: %v", ErrSchemaViolation, err))
	}
	if err := resolved.Validate(instance); err != nil {
		return nil, pkgerrors.NewSchemaError(req.Name, fmt.Errorf("%w: %v", ErrSchemaViolation, err))
	}
	return raw, nil
}

func (v *Validating) resolve(req ports.StructuredRequest) (*jsonschema.Resolved, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if r, ok := v.resolved[req.Name]; ok && req.Name != "" {
		return r, nil
	}
	r, err := req.Schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema %s: %w", req.Name, err)
	}
	if req.Name != "" {
		v.resolved[req.Name] = r
	}
	return r, nil
}
