package synthesis

import (
	"decisionmap/domain/core/entities"
	"decisionmap/pkg/textnorm"
)

// Dedupe collapses near-identical future states of one option. A state
// matches an earlier one by normalized title first, then by tag similarity
// at or above threshold. The survivor keeps the earlier slot and is the one
// with the longer description; the earlier state wins ties.
func Dedupe(states []entities.MapNode, threshold float64) []entities.MapNode {
	unique := make([]entities.MapNode, 0, len(states))
	for _, st := range states {
		idx := indexByTitle(unique, textnorm.NormalizeTitle(st.Title))
		if idx < 0 {
			idx = indexBySimilarity(unique, st, threshold)
		}
		if idx < 0 {
			unique = append(unique, st)
			continue
		}
		if textnorm.RuneLen(st.Description) > textnorm.RuneLen(unique[idx].Description) {
			unique[idx] = st
		}
	}
	return unique
}

func indexByTitle(unique []entities.MapNode, normalized string) int {
	for i, u := range unique {
		if textnorm.NormalizeTitle(u.Title) == normalized {
			return i
		}
	}
	return -1
}

func indexBySimilarity(unique []entities.MapNode, st entities.MapNode, threshold float64) int {
	for i, u := range unique {
		if st.Tags.Similarity(u.Tags) >= threshold {
			return i
		}
	}
	return -1
}
