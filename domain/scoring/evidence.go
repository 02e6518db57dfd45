package scoring

import (
	"strings"

	"decisionmap/domain/core/entities"
	"decisionmap/pkg/textnorm"
)

// Confidence grades the input: a current-state narrative plus either
// two constraints or an option description is high.
func (s *Scorer) Confidence(in entities.DecisionInput) entities.Confidence {
	hasCurrent := strings.TrimSpace(in.CurrentStateText) != ""
	hasConstraints := len(in.NonEmptyConstraints()) >= s.cfg.ConfidenceConstraints
	hasDescriptions := false
	for _, o := range in.Options {
		if strings.TrimSpace(o.Description) != "" {
			hasDescriptions = true
			break
		}
	}

	switch {
	case hasCurrent && (hasConstraints || hasDescriptions):
		return entities.ConfidenceHigh
	case hasCurrent || hasConstraints:
		return entities.ConfidenceMedium
	default:
		return entities.ConfidenceLow
	}
}

// Evidence lists the input facts behind the metrics, at most EvidenceLimit
func (s *Scorer) Evidence(in entities.DecisionInput, extracted *entities.ExtractedDecision) []string {
	if extracted != nil {
		return s.extractedEvidence(in, extracted)
	}

	evidence := make([]string, 0, s.cfg.EvidenceLimit)
	if strings.TrimSpace(in.CurrentStateText) != "" {
		evidence = append(evidence, "Контекст: "+in.CurrentStateText)
	}
	for i, c := range in.Constraints {
		if i >= 2 {
			break
		}
		if strings.TrimSpace(c) != "" {
			evidence = append(evidence, "Ограничение: "+c)
		}
	}
	for i, o := range in.UsableOptions() {
		if i >= 2 {
			break
		}
		evidence = append(evidence, "Вариант: "+o.Label)
	}
	if len(evidence) > s.cfg.EvidenceLimit {
		evidence = evidence[:s.cfg.EvidenceLimit]
	}
	return evidence
}

func (s *Scorer) extractedEvidence(in entities.DecisionInput, extracted *entities.ExtractedDecision) []string {
	pool := make([]string, 0, len(extracted.Evidence)+len(in.Constraints))
	for _, e := range extracted.Evidence {
		if e = strings.TrimSpace(e); e != "" {
			pool = append(pool, e)
		}
	}
	for _, c := range in.Constraints {
		if item := strings.TrimSpace("Ограничение: " + c); item != "Ограничение:" {
			pool = append(pool, item)
		}
	}
	out := textnorm.Dedupe(pool)
	if len(out) > s.cfg.EvidenceLimit {
		out = out[:s.cfg.EvidenceLimit]
	}
	return out
}
