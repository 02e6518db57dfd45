package scoring

import (
	"strings"

	"decisionmap/domain/core/aggregates"
	"decisionmap/domain/core/entities"
	"decisionmap/domain/core/valueobjects"
	"decisionmap/pkg/textnorm"
)

// ClosedFutures lists the outcome nodes the option cannot reach
func ClosedFutures(m *aggregates.DecisionMap, reach map[string]struct{}) []entities.ClosedFuture {
	out := make([]entities.ClosedFuture, 0)
	for _, n := range m.Nodes {
		if !n.IsOutcome() {
			continue
		}
		if _, ok := reach[n.ID]; ok {
			continue
		}
		related := n.Tags.Strings()
		if len(related) == 0 {
			related = TagsFromTitle(n.Title).Strings()
		}
		out = append(out, entities.ClosedFuture{
			Title:          n.Title,
			Category:       Categorize(n.Title, n.Tags),
			RelatedNodeIDs: []string{n.ID},
			RelatedTags:    related,
		})
	}
	return out
}

// Categorize buckets a closed future by its tags, then by title keywords
func Categorize(title string, tags valueobjects.TagSet) entities.ClosedCategory {
	for _, t := range tags {
		if strings.Contains(string(t), "org") || strings.Contains(string(t), "hiring") {
			return entities.CategoryOrg
		}
	}
	for _, t := range tags {
		if strings.Contains(string(t), "fixed_cost") || strings.Contains(string(t), "infra") {
			return entities.CategoryBudget
		}
	}
	lower := textnorm.Lower(title)
	switch {
	case textnorm.ContainsAny(lower, "бюджет", "капзат", "инфра"):
		return entities.CategoryBudget
	case textnorm.ContainsAny(lower, "команда", "процесс", "найм"):
		return entities.CategoryOrg
	default:
		return entities.CategoryStrategy
	}
}

var titleTagRules = []struct {
	keywords []string
	tag      valueobjects.Tag
}{
	{[]string{"платформ", "вендор", "контракт"}, valueobjects.TagVendorLockin},
	{[]string{"гибк", "манёвр"}, valueobjects.TagFlexibilityLow},
	{[]string{"инфраструктур", "капитал", "затрат"}, valueobjects.TagFixedCost},
	{[]string{"найм", "команда", "роль"}, valueobjects.TagHiringLock},
	{[]string{"срок", "цикл"}, valueobjects.TagLongTimeline},
	{[]string{"стратег"}, valueobjects.TagStrategicClosure},
	{[]string{"масштаб", "расшир"}, valueobjects.TagScopeGrowth},
}

// TagsFromTitle infers tags for nodes that carry none
func TagsFromTitle(title string) valueobjects.TagSet {
	lower := textnorm.Lower(title)
	tags := make([]valueobjects.Tag, 0, 2)
	for _, rule := range titleTagRules {
		if textnorm.ContainsAny(lower, rule.keywords...) {
			tags = append(tags, rule.tag)
		}
	}
	return valueobjects.NewTagSet(tags...)
}
