package rewrite

import (
	"sort"
	"strings"

	"decisionmap/domain/core/entities"
	"decisionmap/pkg/utils"
)

// CacheVersion prefixes every key; bump it when prompts change
const CacheVersion = "rewrite_v2"

// ExtractedHash fingerprints the extracted entities that reach the prompt
func ExtractedHash(extracted *entities.ExtractedDecision) string {
	if extracted == nil {
		return "no-extracted"
	}
	key := strings.Join([]string{
		extracted.Domain,
		strings.Join(extracted.Actors, ","),
		strings.Join(extracted.Resources, ","),
		strings.Join(extracted.Commitments, ","),
	}, "::")
	return utils.StringHashBase36(key)
}

// CacheKey addresses a batch by its content
func CacheKey(nodes []entities.MapNode, rc RewriteContext) string {
	ids := make([]string, len(nodes))
	texts := make([]string, len(nodes))
	kinds := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
		texts[i] = n.Title + "::" + originalDetail(n)
		kinds[i] = string(n.Type)
	}
	sort.Strings(ids)

	labels := make([]string, 0, len(rc.Pack.Options))
	for _, o := range rc.Pack.Options {
		labels = append(labels, o.ID+"="+o.Label)
	}

	return strings.Join([]string{
		CacheVersion,
		ExtractedHash(rc.Extracted),
		strings.Join(ids, "|"),
		strings.Join(texts, "||"),
		rc.Pack.DecisionTitle,
		strings.Join(labels, "|"),
		strings.Join(kinds, "|"),
	}, "::")
}
