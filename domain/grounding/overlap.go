package grounding

import (
	"strings"

	"decisionmap/pkg/textnorm"
)

const (
	// minRootRunes is the shortest allowed word that may match by containment
	minRootRunes = 4
	// minPrefixRunes is the shared prefix that makes two word forms match
	minPrefixRunes = 5
)

// AllowedSet is a lower-cased vocabulary with fuzzy word-form matching
type AllowedSet map[string]struct{}

// NewAllowedSet lower-cases and stores the given words
func NewAllowedSet(words ...string) AllowedSet {
	s := make(AllowedSet, len(words))
	for _, w := range words {
		w = textnorm.Lower(strings.TrimSpace(w))
		if w != "" {
			s[w] = struct{}{}
		}
	}
	return s
}

// Add inserts more words
func (s AllowedSet) Add(words ...string) {
	for _, w := range words {
		w = textnorm.Lower(strings.TrimSpace(w))
		if w != "" {
			s[w] = struct{}{}
		}
	}
}

// Matches reports whether token is an allowed word or a form of one.
// A form matches when one word contains the other and the shorter has at
// least four runes, or when both share a five-rune prefix.
func (s AllowedSet) Matches(token string) bool {
	if _, ok := s[token]; ok {
		return true
	}
	for w := range s {
		if wordFormsMatch(token, w) {
			return true
		}
	}
	return false
}

func wordFormsMatch(a, b string) bool {
	short, long := a, b
	if textnorm.RuneLen(short) > textnorm.RuneLen(long) {
		short, long = long, short
	}
	if textnorm.RuneLen(short) >= minRootRunes && strings.Contains(long, short) {
		return true
	}
	return commonPrefixRunes(a, b) >= minPrefixRunes
}

func commonPrefixRunes(a, b string) int {
	ar, br := []rune(a), []rune(b)
	n := 0
	for n < len(ar) && n < len(br) && ar[n] == br[n] {
		n++
	}
	return n
}

// OverlapRatio is the share of significant tokens in text that match the
// allowed set. Text without significant tokens scores zero.
func OverlapRatio(text string, allowed AllowedSet) float64 {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return 0
	}
	matched := 0
	for _, t := range tokens {
		if allowed.Matches(t) {
			matched++
		}
	}
	return float64(matched) / float64(len(tokens))
}
