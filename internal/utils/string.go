package utils

import (
	"strings"
	"unicode"
)

// CapitalInfo remembers which atoms of a word were upper case
type CapitalInfo struct {
	positions []int
	chars     []rune
}

// ProcessCapitals lowercases s and records its capitals by rune position.
// The info is nil when s has none.
func ProcessCapitals(s string) (string, *CapitalInfo) {
	var info *CapitalInfo
	i := 0
	for _, r := range s {
		if unicode.IsUpper(r) {
			if info == nil {
				info = &CapitalInfo{}
			}
			info.positions = append(info.positions, i)
			info.chars = append(info.chars, r)
		}
		i++
	}
	return strings.ToLower(s), info
}

// ApplyCapitals restores recorded capitals onto word
func ApplyCapitals(word string, info *CapitalInfo) string {
	if info == nil {
		return word
	}
	runes := []rune(word)
	for i, pos := range info.positions {
		if pos < len(runes) {
			runes[pos] = info.chars[i]
		}
	}
	return string(runes)
}

// ApplyCapitalsToParts restores capitals across consecutive parts of one word
func ApplyCapitalsToParts(parts []string, info *CapitalInfo) []string {
	if info == nil {
		return parts
	}
	restored := []rune(ApplyCapitals(strings.Join(parts, ""), info))
	out := make([]string, len(parts))
	start := 0
	for i, p := range parts {
		n := len([]rune(p))
		out[i] = string(restored[start : start+n])
		start += n
	}
	return out
}
