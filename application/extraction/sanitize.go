package extraction

import (
	"decisionmap/domain/core/entities"
	"decisionmap/pkg/textnorm"
)

// NoRussianData replaces a value that was Latin only
const NoRussianData = "Без данных на русском"

type sanitizer struct {
	dirty bool
}

func (s *sanitizer) text(v string) string {
	if !textnorm.HasLatin(v) {
		return v
	}
	s.dirty = true
	if cleaned := textnorm.StripLatin(v); cleaned != "" {
		return cleaned
	}
	return NoRussianData
}

func (s *sanitizer) list(items []string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = s.text(it)
	}
	return out
}

// Sanitize strips Latin runs from every text field. The flag reports whether
// anything had to be stripped.
func Sanitize(e entities.ExtractedDecision) (entities.ExtractedDecision, bool) {
	s := &sanitizer{}
	out := e
	out.Domain = s.text(e.Domain)
	out.Actors = s.list(e.Actors)
	out.Resources = s.list(e.Resources)
	out.Commitments = s.list(e.Commitments)
	out.KeyConstraints = s.list(e.KeyConstraints)
	out.Evidence = s.list(e.Evidence)

	sig := e.IrreversibilitySignals
	out.IrreversibilitySignals = entities.IrreversibilitySignals{
		Financial:      s.list(sig.Financial),
		Time:           s.list(sig.Time),
		Organizational: s.list(sig.Organizational),
		Strategic:      s.list(sig.Strategic),
		PNRCandidates:  make([]entities.PNRCandidate, len(sig.PNRCandidates)),
	}
	for i, c := range sig.PNRCandidates {
		out.IrreversibilitySignals.PNRCandidates[i] = entities.PNRCandidate{Trigger: s.text(c.Trigger), Why: s.text(c.Why)}
	}
	return out, s.dirty
}

func withoutLatin(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if !textnorm.HasLatin(it) {
			out = append(out, it)
		}
	}
	return out
}

// Purge drops Latin-bearing entries instead of cleaning them. Applied to the
// retry answer, which gets no further chance.
func Purge(e entities.ExtractedDecision) entities.ExtractedDecision {
	out := e
	if textnorm.HasLatin(e.Domain) {
		out.Domain = NoRussianData
	}
	out.Actors = withoutLatin(e.Actors)
	out.Resources = withoutLatin(e.Resources)
	out.Commitments = withoutLatin(e.Commitments)
	out.KeyConstraints = withoutLatin(e.KeyConstraints)
	out.Evidence = withoutLatin(e.Evidence)

	sig := e.IrreversibilitySignals
	out.IrreversibilitySignals = entities.IrreversibilitySignals{
		Financial:      withoutLatin(sig.Financial),
		Time:           withoutLatin(sig.Time),
		Organizational: withoutLatin(sig.Organizational),
		Strategic:      withoutLatin(sig.Strategic),
		PNRCandidates:  make([]entities.PNRCandidate, 0, len(sig.PNRCandidates)),
	}
	for _, c := range sig.PNRCandidates {
		if textnorm.HasLatin(c.Trigger) || textnorm.HasLatin(c.Why) {
			continue
		}
		out.IrreversibilitySignals.PNRCandidates = append(out.IrreversibilitySignals.PNRCandidates, c)
	}
	return out
}
