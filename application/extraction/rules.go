package extraction

import (
	"regexp"
	"strconv"
	"strings"

	"decisionmap/domain/core/entities"
	"decisionmap/pkg/textnorm"
)

var horizonPattern = regexp.MustCompile(`(?i)(\d+)\s*(недел|месяц|год)`)

// RuleBased derives facts from the raw input without a model
func RuleBased(in entities.DecisionInput) entities.ExtractedDecision {
	out := entities.ExtractedDecision{
		Domain:         in.Domain.String(),
		TimeHorizon:    horizon(strings.Join(in.Constraints, " ")),
		KeyConstraints: in.NonEmptyConstraints(),
	}

	for _, c := range in.Constraints {
		lower := textnorm.Lower(c)
		if textnorm.ContainsAny(lower, "бюджет", "капзат") {
			out.IrreversibilitySignals.Financial = append(out.IrreversibilitySignals.Financial, c)
		}
		if strings.Contains(lower, "срок") {
			out.IrreversibilitySignals.Time = append(out.IrreversibilitySignals.Time, c)
		}
	}

	if in.CurrentStateText != "" {
		out.Evidence = append(out.Evidence, "Контекст: "+in.CurrentStateText)
	} else {
		out.Evidence = append(out.Evidence, "Контекст не задан")
	}
	for i, c := range in.NonEmptyConstraints() {
		if i == 2 {
			break
		}
		out.Evidence = append(out.Evidence, "Ограничение: "+c)
	}

	out.Normalize()
	return out
}

func horizon(text string) entities.TimeHorizon {
	m := horizonPattern.FindStringSubmatch(text)
	if m == nil {
		return entities.TimeHorizon{}
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return entities.TimeHorizon{}
	}

	unit := entities.UnitMonths
	switch raw := textnorm.Lower(m[2]); {
	case strings.HasPrefix(raw, "нед"):
		unit = entities.UnitWeeks
	case strings.HasPrefix(raw, "год"):
		unit = entities.UnitYears
	}
	return entities.TimeHorizon{Value: &value, Unit: &unit}
}
