package grounding

import (
	"strings"

	"decisionmap/domain/config"
	"decisionmap/domain/core/entities"
	"decisionmap/domain/core/valueobjects"
	"decisionmap/pkg/textnorm"
)

// Fallback is rule-based node text built only from anchors
type Fallback struct {
	Detail      string
	MeasureType MeasureType
	Evidence    []string
}

var paddingSentences = []string{
	"Решение фиксирует текущее направление и делает откат сложным.",
	"Изменение потребует времени (2–4 недели минимум), дополнительных затрат и перестройки процессов.",
	"Через несколько месяцев откат становится дорогим и требует вовлечения команды.",
	"Откат займёт время и потребует дополнительных ресурсов.",
}

// FallbackDetail synthesizes a detail for n that passes the marker and
// length checks by construction.
func FallbackDetail(n entities.MapNode, pack AnchorPack, cfg *config.DomainConfig) Fallback {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	var parts, evidence []string

	if title := strings.TrimSpace(pack.DecisionTitle); title != "" {
		evidence = append(evidence, title)
		parts = append(parts, "Фиксация: "+title+".")
	}
	if n.OptionID != "" {
		if label, ok := pack.OptionLabel(n.OptionID); ok {
			evidence = append(evidence, label)
			parts = append(parts, "Изменение: "+label+".")
		}
	}
	if len(pack.Constraints) > 0 {
		c := pack.Constraints[0]
		evidence = append(evidence, c)
		parts = append(parts, "Ограничение: "+c+".")
	}

	measure, sentence := markerSentence(n.Tags)
	parts = append(parts, sentence)

	detail := strings.Join(parts, " ")
	for _, pad := range paddingSentences {
		if textnorm.RuneLen(detail) >= cfg.MinDetailLength {
			break
		}
		detail += " " + pad
	}

	return Fallback{
		Detail:      detail,
		MeasureType: measure,
		Evidence:    textnorm.Dedupe(evidence),
	}
}

func markerSentence(tags valueobjects.TagSet) (MeasureType, string) {
	switch {
	case tags.HasAny(valueobjects.TagFixedCost, valueobjects.TagSunkCost):
		return MeasureMoney, "Маркер: постоянные ежемесячные расходы."
	case tags.HasAny(valueobjects.TagHiringLock, valueobjects.TagOrgInertia):
		return MeasureRole, "Маркер: +1 постоянная роль, требует внимания руководителя."
	case tags.HasAny(valueobjects.TagLongTimeline, valueobjects.TagShortTimeline):
		return MeasureTime, "Маркер: через 2–4 недели откат становится сложным."
	default:
		return MeasureTime, "Маркер: через несколько месяцев откат требует времени и ресурсов."
	}
}
