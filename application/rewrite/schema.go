package rewrite

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"decisionmap/domain/grounding"
)

// SchemaName names the batch response format
const SchemaName = "rewrite_batch"

// BatchResponse is the decoded model answer for one batch
type BatchResponse struct {
	Nodes []grounding.Candidate `json:"nodes"`
}

// BatchSchema describes BatchResponse
func BatchSchema() *jsonschema.Schema {
	zero, one := 0.0, 1.0
	str := func() *jsonschema.Schema { return &jsonschema.Schema{Type: "string"} }
	return &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
		Properties: map[string]*jsonschema.Schema{
			"nodes": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type:                 "object",
					AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
					Properties: map[string]*jsonschema.Schema{
						"id":                str(),
						"title":             str(),
						"detail":            str(),
						"summary":           str(),
						"relevance_score":   {Type: "number", Minimum: &zero, Maximum: &one},
						"uncertainty":       {Type: "string", Enum: []any{"low", "medium", "high"}},
						"measurable_marker": str(),
						"evidence":          {Type: "array", Items: str()},
					},
					Required: []string{
						"id", "title", "detail", "summary",
						"relevance_score", "uncertainty", "measurable_marker", "evidence",
					},
				},
			},
		},
		Required: []string{"nodes"},
	}
}

// DecodeBatch parses a model answer
func DecodeBatch(raw json.RawMessage) (BatchResponse, error) {
	var resp BatchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return BatchResponse{}, fmt.Errorf("decode rewrite batch: %w", err)
	}
	return resp, nil
}
