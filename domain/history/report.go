package history

import (
	"fmt"
	"sort"
	"time"

	"decisionmap/domain/core/valueobjects"
)

// Rule confidence labels
const (
	ConfidenceLow    = "Низкая"
	ConfidenceMedium = "Средняя"
	ConfidenceHigh   = "Высокая"
)

const (
	maxRules       = 6
	maxExamples    = 4
	highImpactPct  = 65
	highMetricPct  = 60
	frequentPNR    = 0.5
	largeHistory   = 6
	minLargeMatch  = 3
	minSmallMatch  = 2
	topTagsOverall = 5
)

// RuleRecord points at a record that supports a rule
type RuleRecord struct {
	RecordID string    `json:"recordId"`
	Title    string    `json:"title"`
	When     time.Time `json:"when"`
	OptionID string    `json:"optionId,omitempty"`
}

// RuleEvidence backs a hidden rule
type RuleEvidence struct {
	Records    []RuleRecord `json:"records"`
	Indicators []string     `json:"indicators"`
	Examples   []string     `json:"examples"`
}

// RuleImpact averages the worst-option metrics of matched records
type RuleImpact struct {
	AvgOptionLossPct   int     `json:"avgOptionLossPct"`
	AvgIrreversibility int     `json:"avgIrreversibility"`
	PNRRate            float64 `json:"pnrRate"`
}

// HiddenRule is a lock-in pattern repeating across decisions
type HiddenRule struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Evidence    RuleEvidence `json:"evidence"`
	Impact      RuleImpact   `json:"impact"`
	Confidence  string       `json:"confidence"`
	Tags        []string     `json:"tags"`
}

// TagCount is a tag with its frequency
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ReportMeta holds the overall statistics
type ReportMeta struct {
	TopTagsOverall            []TagCount `json:"topTagsOverall"`
	AvgOptionLossOverall      int        `json:"avgOptionLossOverall"`
	AvgIrreversibilityOverall int        `json:"avgIrreversibilityOverall"`
	PNROverallRate            float64    `json:"pnrOverallRate"`
}

// HiddenRuleReport is the analysis of a record history
type HiddenRuleReport struct {
	GeneratedAt  time.Time    `json:"generatedAt"`
	TotalRecords int          `json:"totalRecords"`
	Rules        []HiddenRule `json:"rules"`
	Meta         ReportMeta   `json:"meta"`
}

type cluster struct {
	id          string
	title       string
	description string
	tags        []valueobjects.Tag
}

var clusters = []cluster{
	{
		id:          "org_lock",
		title:       "Раннее закрепление ролей и процессов",
		description: "Повторяются признаки организационной фиксации, что сужает пространство отката.",
		tags:        []valueobjects.Tag{valueobjects.TagHiringLock, valueobjects.TagOrgInertia},
	},
	{
		id:          "financial_lock",
		title:       "Фиксация инфраструктуры через обязательства",
		description: "В нескольких решениях повторяются капитальные или невозвратные затраты.",
		tags:        []valueobjects.Tag{valueobjects.TagFixedCost, valueobjects.TagSunkCost},
	},
	{
		id:          "vendor_lock",
		title:       "Зависимость от поставщика как общий паттерн",
		description: "Выборы приводят к повторяемой зависимости от поставщиков или экосистем.",
		tags:        []valueobjects.Tag{valueobjects.TagVendorLockin},
	},
	{
		id:          "long_timeline",
		title:       "Склонность к длинному циклу отката",
		description: "Медленный возврат к альтернативам встречается в нескольких случаях.",
		tags:        []valueobjects.Tag{valueobjects.TagLongTimeline, valueobjects.TagSlowRevert},
	},
	{
		id:          "strategic_closure",
		title:       "Сужение альтернативных стратегических направлений",
		description: "Повторяются признаки закрытия стратегических альтернатив.",
		tags:        []valueobjects.Tag{valueobjects.TagStrategicClosure},
	},
	{
		id:          "speed_vs_flex",
		title:       "Ускорение ценой гибкости экспериментов",
		description: "Быстрый запуск сочетается со снижением гибкости.",
		tags:        []valueobjects.Tag{valueobjects.TagSpeedHigh, valueobjects.TagFlexibilityLow},
	},
}

type features struct {
	record        DecisionRecord
	worstOptionID string
	worstLoss     int
	worstIrrevers int
	pnrAny        bool
	topTags       []string
	topTagSet     valueobjects.TagSet
}

func featuresOf(r DecisionRecord) features {
	f := features{record: r, worstOptionID: "A", pnrAny: r.Summary.AnyPNR()}
	if worst, ok := r.Summary.Worst(); ok {
		f.worstOptionID = worst.OptionID
		f.worstLoss = worst.OptionLossPct
		f.worstIrrevers = worst.Irreversibility
		f.topTags = worst.TopTags
	}
	f.topTagSet = valueobjects.ParseTags(f.topTags)
	return f
}

// GenerateHiddenRuleReport matches every record's worst option against the
// lock-in clusters and keeps the clusters that repeat.
func GenerateHiddenRuleReport(records []DecisionRecord, now time.Time) HiddenRuleReport {
	all := make([]features, len(records))
	for i, r := range records {
		all[i] = featuresOf(r)
	}

	report := HiddenRuleReport{
		GeneratedAt:  now.UTC(),
		TotalRecords: len(records),
		Rules:        []HiddenRule{},
		Meta:         overallMeta(all),
	}

	minMatches := minSmallMatch
	if len(records) >= largeHistory {
		minMatches = minLargeMatch
	}

	for _, c := range clusters {
		matched := make([]features, 0)
		for _, f := range all {
			if f.topTagSet.HasAny(c.tags...) {
				matched = append(matched, f)
			}
		}
		if len(matched) < minMatches {
			continue
		}
		report.Rules = append(report.Rules, buildRule(c, matched))
	}

	sort.SliceStable(report.Rules, func(i, j int) bool {
		a, b := report.Rules[i].Impact, report.Rules[j].Impact
		return a.AvgOptionLossPct+a.AvgIrreversibility > b.AvgOptionLossPct+b.AvgIrreversibility
	})
	if len(report.Rules) > maxRules {
		report.Rules = report.Rules[:maxRules]
	}
	return report
}

func buildRule(c cluster, matched []features) HiddenRule {
	var lossSum, irrSum, pnr int
	records := make([]RuleRecord, 0, len(matched))
	for _, f := range matched {
		lossSum += f.worstLoss
		irrSum += f.worstIrrevers
		if f.pnrAny {
			pnr++
		}
		records = append(records, RuleRecord{
			RecordID: f.record.ID,
			Title:    f.record.Title,
			When:     f.record.CreatedAt,
			OptionID: f.worstOptionID,
		})
	}
	n := float64(len(matched))
	impact := RuleImpact{
		AvgOptionLossPct:   valueobjects.RoundHalfUp(float64(lossSum) / n),
		AvgIrreversibility: valueobjects.RoundHalfUp(float64(irrSum) / n),
		PNRRate:            float64(pnr) / n,
	}

	tags := make([]string, len(c.tags))
	indicators := make([]string, 0, len(c.tags)+3)
	for i, t := range c.tags {
		tags[i] = string(t)
		indicators = append(indicators, t.HumanLabel())
	}
	indicators = append(indicators,
		pick(impact.AvgOptionLossPct >= highMetricPct, "высокая потеря опциональности", "умеренная потеря опциональности"),
		pick(impact.AvgIrreversibility >= highMetricPct, "высокая необратимость", "умеренная необратимость"),
		pick(impact.PNRRate >= frequentPNR, "часто встречается точка невозврата", "точка невозврата встречается редко"),
	)

	examples := make([]string, 0, maxExamples)
	for i, f := range matched {
		if i == maxExamples {
			break
		}
		tag := c.tags[0]
		if len(f.topTags) > 0 {
			tag = valueobjects.Tag(f.topTags[0])
		}
		examples = append(examples, fmt.Sprintf("В «%s» повторяется: %s (потеря %d%%, необратимость %d%%).",
			f.record.Title, tag.HumanLabel(), f.worstLoss, f.worstIrrevers))
	}

	return HiddenRule{
		ID:          c.id,
		Title:       c.title,
		Description: c.description,
		Evidence:    RuleEvidence{Records: records, Indicators: indicators, Examples: examples},
		Impact:      impact,
		Confidence:  ruleConfidence(len(matched), impact),
		Tags:        tags,
	}
}

func ruleConfidence(coverage int, impact RuleImpact) string {
	impactHigh := impact.AvgOptionLossPct >= highImpactPct || impact.AvgIrreversibility >= highImpactPct
	switch {
	case coverage >= 4 || (coverage >= 3 && impactHigh):
		return ConfidenceHigh
	case coverage <= 2 && !impactHigh:
		return ConfidenceLow
	default:
		return ConfidenceMedium
	}
}

func overallMeta(all []features) ReportMeta {
	meta := ReportMeta{TopTagsOverall: []TagCount{}}
	counts := make(map[string]int)
	var order []string
	var lossSum, irrSum, pnr int
	for _, f := range all {
		for _, t := range f.topTags {
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
		lossSum += f.worstLoss
		irrSum += f.worstIrrevers
		if f.pnrAny {
			pnr++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	for i, t := range order {
		if i == topTagsOverall {
			break
		}
		meta.TopTagsOverall = append(meta.TopTagsOverall, TagCount{Tag: t, Count: counts[t]})
	}

	if len(all) == 0 {
		return meta
	}
	n := float64(len(all))
	meta.AvgOptionLossOverall = valueobjects.RoundHalfUp(float64(lossSum) / n)
	meta.AvgIrreversibilityOverall = valueobjects.RoundHalfUp(float64(irrSum) / n)
	meta.PNROverallRate = float64(pnr) / n
	return meta
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
