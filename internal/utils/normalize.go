package utils

import (
	"strings"
	"unicode"
)

// IsSeparator reports runes that end a word in free text input
func IsSeparator(r rune) bool {
	if r == '\'' || r == '-' {
		return false
	}
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// SplitWords breaks a line of text into candidate words
func SplitWords(line string) []string {
	return strings.FieldsFunc(line, IsSeparator)
}
