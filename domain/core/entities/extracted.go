package entities

import "strings"

// Horizon units the extractor may produce
const (
	UnitWeeks  = "недели"
	UnitMonths = "месяцы"
	UnitYears  = "годы"
)

// TimeHorizon is the decision horizon, both parts nullable
type TimeHorizon struct {
	Value *float64 `json:"value"`
	Unit  *string  `json:"unit"`
}

// PNRCandidate is a possible point of no return named in the text
type PNRCandidate struct {
	Trigger string `json:"trigger"`
	Why     string `json:"why"`
}

// IrreversibilitySignals are extracted phrases grouped by axis
type IrreversibilitySignals struct {
	Financial      []string       `json:"financial"`
	Time           []string       `json:"time"`
	Organizational []string       `json:"organizational"`
	Strategic      []string       `json:"strategic"`
	PNRCandidates  []PNRCandidate `json:"pnrCandidates"`
}

// ExtractedDecision is the structured facts pulled from the decision text
type ExtractedDecision struct {
	Domain                 string                 `json:"domain"`
	TimeHorizon            TimeHorizon            `json:"timeHorizon"`
	Actors                 []string               `json:"actors"`
	Resources              []string               `json:"resources"`
	Commitments            []string               `json:"commitments"`
	KeyConstraints         []string               `json:"keyConstraints"`
	IrreversibilitySignals IrreversibilitySignals `json:"irreversibilitySignals"`
	Evidence               []string               `json:"evidence"`
}

// Normalize replaces nil slices with empty ones so JSON output is stable
func (e *ExtractedDecision) Normalize() {
	nonNil := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}
	e.Actors = nonNil(e.Actors)
	e.Resources = nonNil(e.Resources)
	e.Commitments = nonNil(e.Commitments)
	e.KeyConstraints = nonNil(e.KeyConstraints)
	e.Evidence = nonNil(e.Evidence)
	s := &e.IrreversibilitySignals
	s.Financial = nonNil(s.Financial)
	s.Time = nonNil(s.Time)
	s.Organizational = nonNil(s.Organizational)
	s.Strategic = nonNil(s.Strategic)
	if s.PNRCandidates == nil {
		s.PNRCandidates = []PNRCandidate{}
	}
}

// FirstPNRTrigger returns the first candidate with a non-blank trigger
func (e *ExtractedDecision) FirstPNRTrigger() (string, bool) {
	if e == nil {
		return "", false
	}
	for _, c := range e.IrreversibilitySignals.PNRCandidates {
		if t := strings.TrimSpace(c.Trigger); t != "" {
			return t, true
		}
	}
	return "", false
}
