package utils

import (
	"strings"
	"unicode"
)

// WordFilter drops repeated and unusable words from batch input
type WordFilter struct {
	seen  map[string]bool
	lower bool
}

// NewWordFilter creates a filter; with lower set, words differing only in case are repeats
func NewWordFilter(lower bool) *WordFilter {
	return &WordFilter{seen: make(map[string]bool), lower: lower}
}

// ShouldInclude checks if a word should be processed (valid and not seen before)
func (f *WordFilter) ShouldInclude(word string) bool {
	if !IsValidInput(word) {
		return false
	}
	key := word
	if f.lower {
		key = strings.ToLower(word)
	}
	if f.seen[key] {
		return false
	}
	f.seen[key] = true
	return true
}

// IsOnlyNumbers checks if a string consists entirely of numeric digits
func IsOnlyNumbers(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ContainsSpecialChars reports runes that are neither letters, marks, digits nor word-internal punctuation
func ContainsSpecialChars(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsMark(r) && !unicode.IsDigit(r) && r != '\'' && r != '-' {
			return true
		}
	}
	return false
}

// IsValidInput checks if input should be segmented at all
func IsValidInput(s string) bool {
	return len(s) > 0 && !IsOnlyNumbers(s) && !ContainsSpecialChars(s)
}
