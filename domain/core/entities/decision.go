package entities

import (
	"strings"

	"decisionmap/domain/core/valueobjects"
)

// Option is one alternative of a decision
type Option struct {
	ID          string `json:"id" validate:"required,max=32"`
	Label       string `json:"label" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
}

// DecisionInput is the user-supplied description of a decision
type DecisionInput struct {
	Domain           valueobjects.DecisionDomain `json:"domain" validate:"required"`
	Title            string                      `json:"title" validate:"max=300"`
	CurrentStateText string                      `json:"currentStateText" validate:"max=5000"`
	Options          []Option                    `json:"options" validate:"dive"`
	Constraints      []string                    `json:"constraints" validate:"dive,max=1000"`
}

// UsableOptions returns options whose label is not blank
func (in DecisionInput) UsableOptions() []Option {
	out := make([]Option, 0, len(in.Options))
	for _, o := range in.Options {
		if strings.TrimSpace(o.Label) == "" {
			continue
		}
		out = append(out, o)
	}
	return out
}

// NonEmptyConstraints returns trimmed, non-blank constraints in order
func (in DecisionInput) NonEmptyConstraints() []string {
	out := make([]string, 0, len(in.Constraints))
	for _, c := range in.Constraints {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// OptionByID looks an option up
func (in DecisionInput) OptionByID(id string) (Option, bool) {
	for _, o := range in.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// DisplayTitle is the title shown on the current-state node
func (in DecisionInput) DisplayTitle() string {
	if t := strings.TrimSpace(in.Title); t != "" {
		return in.Title
	}
	return "Текущее состояние"
}
