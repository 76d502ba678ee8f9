package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapitals(t *testing.T) {
	lower, info := ProcessCapitals("ÜberWalked")
	assert.Equal(t, "überwalked", lower)
	require.NotNil(t, info)
	assert.Equal(t, "ÜberWalked", ApplyCapitals(lower, info))
	assert.Equal(t, []string{"Über", "Walk", "ed"}, ApplyCapitalsToParts([]string{"über", "walk", "ed"}, info))

	lower, info = ProcessCapitals("cats")
	assert.Equal(t, "cats", lower)
	assert.Nil(t, info)
	assert.Equal(t, []string{"cat", "s"}, ApplyCapitalsToParts([]string{"cat", "s"}, info))
}

func TestSplitWordsAndFilter(t *testing.T) {
	words := SplitWords("The cats, the dogs; don't re-walk 42 times!")
	assert.Equal(t, []string{"The", "cats", "the", "dogs", "don't", "re-walk", "42", "times"}, words)

	f := NewWordFilter(true)
	var kept []string
	for _, w := range words {
		if f.ShouldInclude(w) {
			kept = append(kept, w)
		}
	}
	assert.Equal(t, []string{"The", "cats", "dogs", "don't", "re-walk", "times"}, kept)
	assert.False(t, IsValidInput("a+b"))
	assert.True(t, IsValidInput("café"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0", FormatWithCommas(0))
	assert.Equal(t, "999", FormatWithCommas(999))
	assert.Equal(t, "1,000", FormatWithCommas(1000))
	assert.Equal(t, "-12,345,678", FormatWithCommas(-12345678))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
}

func TestTOMLRecovery(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "c.toml")
	require.NoError(t, SaveTOMLFile(map[string]any{"engine": map[string]any{"k": 4, "on": true, "x": 0.5}}, path))

	data, err := ParseTOMLWithRecovery(path)
	require.NoError(t, err)
	sec, ok := ExtractSection(data, "engine")
	require.True(t, ok)
	k, ok := ExtractInt64(sec, "k")
	assert.True(t, ok)
	assert.Equal(t, int64(4), k)
	on, ok := ExtractBool(sec, "on")
	assert.True(t, ok && on)
	x, ok := ExtractFloat64(sec, "x")
	assert.True(t, ok)
	assert.Equal(t, 0.5, x)
	_, ok = ExtractString(sec, "k")
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("[engine\nk = "), 0o644))
	_, err = ParseTOMLWithRecovery(path)
	assert.Error(t, err)

	st := CheckDirStatus(filepath.Join(dir, "new"))
	assert.True(t, st.Exists)
	assert.True(t, st.Writable)
	assert.True(t, FileExists(path))
}
