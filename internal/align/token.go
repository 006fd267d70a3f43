// Package align matches recognised transcript words against the
// scripted text the speaker was meant to read, carrying each script
// word's trailing punctuation onto the transcript timeline.
package align

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Token is one script word plus the punctuation run that follows it.
// Punct is "" for an unpunctuated word, "..." for an ellipsis run, or
// a single mark otherwise.
type Token struct {
	Word  string
	Punct string
}

var tokenPattern = regexp.MustCompile(`([\p{L}\p{N}_]+)([.,!?;:…]+)?`)

// ExtractTokens splits script text into word/punctuation tokens. A run
// of marks containing an ellipsis (three dots or the single-rune form)
// collapses to "..."; any other run keeps only its first mark.
func ExtractTokens(text string) []Token {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		punct := m[2]
		switch {
		case punct == "":
		case strings.Contains(punct, "...") || strings.ContainsRune(punct, '…'):
			punct = "..."
		default:
			punct = string([]rune(punct)[0])
		}
		tokens = append(tokens, Token{Word: m[1], Punct: punct})
	}
	return tokens
}

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// foldDiacritics removes combining marks. The Vietnamese đ is a base
// letter, not a mark, so it needs its own mapping.
func foldDiacritics(s string) string {
	folded, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		folded = s
	}
	folded = strings.ReplaceAll(folded, "đ", "d")
	folded = strings.ReplaceAll(folded, "Đ", "D")
	return folded
}

// Normalize lowercases a word, strips surrounding punctuation, and
// folds diacritics so that near-matches compare on skeleton letters.
func Normalize(word string) string {
	w := strings.ToLower(strings.TrimSpace(word))
	w = strings.TrimFunc(w, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return foldDiacritics(w)
}

// similarityThreshold is the minimum Levenshtein ratio for two
// normalized words to count as the same word.
const similarityThreshold = 0.75

// wordsMatch reports whether two normalized words are close enough to
// be the same spoken word: equal, one containing the other, or within
// the Levenshtein similarity threshold.
func wordsMatch(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	if a == b {
		return true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return similarity(a, b) >= similarityThreshold
}

// similarity returns 1 - distance/maxLen over runes.
func similarity(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}
