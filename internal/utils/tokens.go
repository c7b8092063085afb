package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token estimates use the four-characters-per-token rule of thumb. They drive
// budget warnings and attachment caps only.
const charsPerToken = 4

// TruncationMark ends text cut by TruncateToTokenLimit.
const TruncationMark = " […]"

// CountTokens estimates the number of tokens in text, rounding up.
func CountTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + charsPerToken - 1) / charsPerToken
}

// TruncateToTokenLimit cuts text to fit limit tokens, preferring a word
// boundary, and marks the cut with TruncationMark.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if CountTokens(text) <= limit {
		return text
	}
	mark := []rune(TruncationMark)
	cut := limit*charsPerToken - len(mark)
	if cut <= 0 {
		return ""
	}
	runes := []rune(text)[:cut]
	// back off to whitespace if one is close
	for i := len(runes) - 1; i > 0 && i >= cut-40; i-- {
		if unicode.IsSpace(runes[i]) {
			runes = runes[:i]
			break
		}
	}
	return strings.TrimRightFunc(string(runes), unicode.IsSpace) + TruncationMark
}

// TokenBreakdown returns a simple breakdown map of labeled sections to token counts.
func TokenBreakdown(sections map[string]string) map[string]int {
	out := make(map[string]int, len(sections))
	for k, v := range sections {
		out[k] = CountTokens(v)
	}
	return out
}
