package extraction

import (
	"github.com/google/jsonschema-go/jsonschema"

	"decisionmap/domain/core/entities"
)

// SchemaName is sent to providers that name their response formats
const SchemaName = "extracted_decision"

func closed() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

func stringArray() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}}
}

// Schema describes ExtractedDecision. Every property is required and no
// extra properties are allowed.
func Schema() *jsonschema.Schema {
	minOne := 1
	return &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: closed(),
		Properties: map[string]*jsonschema.Schema{
			"domain": {Type: "string", MinLength: &minOne},
			"timeHorizon": {
				Type:                 "object",
				AdditionalProperties: closed(),
				Properties: map[string]*jsonschema.Schema{
					"value": {Types: []string{"number", "null"}},
					"unit": {
						Types: []string{"string", "null"},
						Enum:  []any{entities.UnitWeeks, entities.UnitMonths, entities.UnitYears, nil},
					},
				},
				Required: []string{"value", "unit"},
			},
			"actors":         stringArray(),
			"resources":      stringArray(),
			"commitments":    stringArray(),
			"keyConstraints": stringArray(),
			"irreversibilitySignals": {
				Type:                 "object",
				AdditionalProperties: closed(),
				Properties: map[string]*jsonschema.Schema{
					"financial":      stringArray(),
					"time":           stringArray(),
					"organizational": stringArray(),
					"strategic":      stringArray(),
					"pnrCandidates": {
						Type: "array",
						Items: &jsonschema.Schema{
							Type:                 "object",
							AdditionalProperties: closed(),
							Properties: map[string]*jsonschema.Schema{
								"trigger": {Type: "string"},
								"why":     {Type: "string"},
							},
							Required: []string{"trigger", "why"},
						},
					},
				},
				Required: []string{"financial", "time", "organizational", "strategic", "pnrCandidates"},
			},
			"evidence": stringArray(),
		},
		Required: []string{
			"domain",
			"timeHorizon",
			"actors",
			"resources",
			"commitments",
			"keyConstraints",
			"irreversibilitySignals",
			"evidence",
		},
	}
}
