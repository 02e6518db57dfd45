package grounding

import (
	"sort"
	"strings"

	"decisionmap/domain/core/entities"
	"decisionmap/pkg/textnorm"
)

// OptionAnchor is the grounded text of one option
type OptionAnchor struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// AnchorPack is the request-scoped vocabulary a rewrite may draw upon.
// Built once after extraction and discarded with the response.
type AnchorPack struct {
	DecisionTitle       string         `json:"decisionTitle"`
	DecisionDescription string         `json:"decisionDescription"`
	Options             []OptionAnchor `json:"options"`
	Constraints         []string       `json:"constraints"`
	Actors              []string       `json:"actors"`
	Resources           []string       `json:"resources"`
	Obligations         []string       `json:"obligations"`
	Signals             []string       `json:"signals"`

	// Anchors is deduplicated, lower-cased and sorted
	Anchors []string `json:"anchors"`
}

// BuildAnchorPack tokenizes every grounded field of the input and the
// extracted facts. extracted may be nil.
func BuildAnchorPack(in entities.DecisionInput, extracted *entities.ExtractedDecision) AnchorPack {
	pack := AnchorPack{
		DecisionTitle:       in.Title,
		DecisionDescription: in.CurrentStateText,
		Options:             make([]OptionAnchor, 0, len(in.Options)),
		Constraints:         in.NonEmptyConstraints(),
		Actors:              []string{},
		Resources:           []string{},
		Obligations:         []string{},
		Signals:             []string{},
	}

	fields := []string{in.Title, in.CurrentStateText}
	for _, o := range in.UsableOptions() {
		pack.Options = append(pack.Options, OptionAnchor{ID: o.ID, Label: o.Label, Description: o.Description})
		fields = append(fields, o.Label, o.Description)
	}
	fields = append(fields, pack.Constraints...)

	if extracted != nil {
		pack.Actors = nonBlank(extracted.Actors)
		pack.Resources = nonBlank(extracted.Resources)
		pack.Obligations = nonBlank(extracted.Commitments)
		sig := extracted.IrreversibilitySignals
		for _, group := range [][]string{sig.Financial, sig.Time, sig.Organizational, sig.Strategic} {
			pack.Signals = append(pack.Signals, nonBlank(group)...)
		}
		fields = append(fields, pack.Actors...)
		fields = append(fields, pack.Resources...)
		fields = append(fields, pack.Obligations...)
		fields = append(fields, pack.Signals...)
	}

	seen := make(map[string]struct{})
	for _, f := range fields {
		tokens := Tokenize(f)
		for _, a := range append(tokens, Phrases(tokens)...) {
			seen[a] = struct{}{}
		}
	}
	pack.Anchors = make([]string, 0, len(seen))
	for a := range seen {
		pack.Anchors = append(pack.Anchors, a)
	}
	sort.Strings(pack.Anchors)
	return pack
}

// OptionLabel returns the label of the option with the given id
func (p AnchorPack) OptionLabel(id string) (string, bool) {
	for _, o := range p.Options {
		if o.ID == id {
			return o.Label, true
		}
	}
	return "", false
}

// AllowedSet is the single-word vocabulary of the pack: every anchor word
// plus the raw tokens of the decision fields.
func (p AnchorPack) AllowedSet() AllowedSet {
	words := make([]string, 0, len(p.Anchors))
	for _, a := range p.Anchors {
		words = append(words, strings.Fields(a)...)
	}
	texts := []string{p.DecisionTitle, p.DecisionDescription}
	for _, o := range p.Options {
		texts = append(texts, o.Label, o.Description)
	}
	texts = append(texts, p.Constraints...)
	texts = append(texts, p.Actors...)
	texts = append(texts, p.Resources...)
	texts = append(texts, p.Obligations...)
	for _, t := range texts {
		words = append(words, Tokenize(t)...)
	}
	return NewAllowedSet(words...)
}

func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = textnorm.CollapseSpaces(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
