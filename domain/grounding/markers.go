package grounding

import (
	"regexp"

	"decisionmap/pkg/textnorm"
)

// MeasureType names the category of a measurability marker
type MeasureType string

const (
	MeasureTime     MeasureType = "time"
	MeasureMoney    MeasureType = "money"
	MeasureRole     MeasureType = "role"
	MeasureProcess  MeasureType = "process"
	MeasureContract MeasureType = "contract"
)

type markerCategory struct {
	measure  MeasureType
	patterns []*regexp.Regexp
}

var markerBank = []markerCategory{
	{MeasureTime, compile(
		`через\s+\d+[–-]\d+\s+(недел|месяц|год)`,
		`в\s+течение\s+\d+\s+(недел|месяц|год)`,
		`через\s+полгода`,
		`через\s+\d+\s+месяц`,
		`откат\s+займ[ёе]т\s+(недел|месяц|год)`,
		`со\s+временем`,
		`месяц`,
		`недел`,
		`год`,
		`\d+\s+(недел|месяц|год)`,
	)},
	{MeasureMoney, compile(
		`ежемесячн`, `фиксированн`, `обязательств`, `стоимость`, `дорог`,
		`расход`, `бюджет`, `денег`, `затрат`,
	)},
	{MeasureRole, compile(
		`\+?\d+\s+(рол|человек|сотрудник)`,
		`ожидание\s+загрузки`,
		`требует\s+вовлечения`,
		`зависимость\s+от`,
		`конкретн`, `люд`, `команд`, `руководител`,
	)},
	{MeasureProcess, compile(
		`согласован`, `процесс`, `изменен`, `мгновенн`, `решен`, `проход`,
	)},
	{MeasureContract, compile(
		`долгосрочн`, `обязательств`, `контракт`, `обещан`, `отмен`, `устойчив`,
	)},
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// MeasurabilityMarker returns the category of the first marker found in text
func MeasurabilityMarker(text string) (MeasureType, bool) {
	lower := textnorm.Lower(text)
	for _, c := range markerBank {
		for _, p := range c.patterns {
			if p.MatchString(lower) {
				return c.measure, true
			}
		}
	}
	return "", false
}

// HasMeasurabilityMarker reports whether text matches any marker pattern
func HasMeasurabilityMarker(text string) bool {
	_, ok := MeasurabilityMarker(text)
	return ok
}
