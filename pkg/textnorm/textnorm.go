// Package textnorm holds the Unicode text helpers shared by synthesis,
// grounding and extraction.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lower lower-cases with Russian casing rules. A Caser is stateful, so one
// is created per call.
func Lower(s string) string {
	return cases.Lower(language.Russian).String(s)
}

// RuneLen counts characters, not bytes
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// CollapseSpaces squeezes whitespace runs to one space and trims
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeTitle lower-cases, drops everything but letters, digits and
// whitespace, then collapses whitespace.
func NormalizeTitle(s string) string {
	var b strings.Builder
	for _, r := range Lower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return CollapseSpaces(b.String())
}

// Words lower-cases, turns every non letter/digit into a separator and splits
func Words(s string) []string {
	lowered := Lower(s)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// HasLatin reports whether s contains an ASCII Latin letter
func HasLatin(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return true
		}
	}
	return false
}

// StripLatin removes ASCII Latin letters and collapses what is left
func StripLatin(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		b.WriteRune(r)
	}
	return CollapseSpaces(b.String())
}

// ContainsAny reports whether s contains any of the substrings
func ContainsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Dedupe keeps the first occurrence of every string, preserving order
func Dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
