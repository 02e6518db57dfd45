// Package grounding polices model-written node text: it builds the anchor
// vocabulary from user input, decides which nodes are weak, measures how much
// of a rewrite is traceable to the input and synthesizes rule-based text when
// a rewrite is rejected.
package grounding

import (
	"strings"

	"decisionmap/pkg/textnorm"
)

// MinTokenRunes is the shortest token that counts as significant
const MinTokenRunes = 3

var stopWords = map[string]struct{}{
	"и": {}, "в": {}, "на": {}, "с": {}, "по": {}, "для": {}, "от": {}, "до": {}, "из": {},
	"к": {}, "о": {}, "об": {}, "при": {}, "про": {}, "со": {}, "то": {}, "что": {}, "как": {},
	"так": {}, "это": {}, "этот": {}, "эта": {}, "эти": {}, "быть": {}, "есть": {}, "был": {},
	"была": {}, "было": {}, "были": {}, "стать": {}, "становиться": {}, "становится": {},
}

// IsStopWord reports whether w (already lower-cased) is ignored
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// Tokenize returns the significant tokens of text in order, duplicates kept
func Tokenize(text string) []string {
	words := textnorm.Words(text)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if textnorm.RuneLen(w) < MinTokenRunes || IsStopWord(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Phrases builds the contiguous 2- and 3-word windows over tokens
func Phrases(tokens []string) []string {
	if len(tokens) < 2 {
		return nil
	}
	out := make([]string, 0, 2*len(tokens))
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
		if i+2 < len(tokens) {
			out = append(out, strings.Join(tokens[i:i+3], " "))
		}
	}
	return out
}
