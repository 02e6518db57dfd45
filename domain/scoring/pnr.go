package scoring

import (
	"strings"

	"decisionmap/domain/core/entities"
	"decisionmap/domain/core/valueobjects"
	"decisionmap/pkg/textnorm"
)

// PNR texts
const (
	PNRFixedText = "После найма 6+ инженеров и подписания 3‑летних инфраструктурных контрактов"
	PNROpenText  = "Фиксации пока нет, остаётся пространство для отката"
)

var pnrKeywords = []string{"контракт", "найм", "инфраструктур", "штат", "3 года", "подпис"}

// PointOfNoReturn decides whether an option crosses a point of no return.
// An extracted trigger takes precedence over the keyword heuristic.
func PointOfNoReturn(in entities.DecisionInput, tags valueobjects.TagSet, extracted *entities.ExtractedDecision) (bool, string) {
	if trigger, ok := extracted.FirstPNRTrigger(); ok {
		return true, trigger
	}

	source := textnorm.Lower(in.CurrentStateText + " " + strings.Join(in.Constraints, " "))
	if textnorm.ContainsAny(source, pnrKeywords...) ||
		tags.HasAny(valueobjects.TagInfraContracts, valueobjects.TagHiringLock) {
		return true, PNRFixedText
	}
	return false, PNROpenText
}
