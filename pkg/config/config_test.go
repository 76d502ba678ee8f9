package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/substitus/pkg/substitus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigMatchesEngineDefaults(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())

	o, err := c.EngineOptions()
	require.NoError(t, err)
	assert.Equal(t, substitus.DefaultOptions(), o)
	assert.Equal(t, uint64(1), c.ReadOptions().MinFrequency)
}

func TestInitConfigCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", FileName)

	c, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
	assert.FileExists(t, path)

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, c, again)
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
[engine]
k_most_frequent = 16
boundary_policy = "allow"

[segment]
threshold = 0.7
`), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 16, c.Engine.KMostFrequent)
	assert.Equal(t, 8, c.Engine.SquareSize)
	assert.Equal(t, 0.7, c.Segment.Threshold)

	o, err := c.EngineOptions()
	require.NoError(t, err)
	assert.Equal(t, substitus.AllowSameBoundaryAtom, o.BoundaryPolicy)
}

func TestLoadConfigRecoversSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	// square_size has the wrong type, so the typed decode fails
	require.NoError(t, os.WriteFile(path, []byte(`
[engine]
square_size = "big"
k_most_frequent = 12
neighborhood_sizes = [1, 4]

[train]
lowercase = false
`), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 12, c.Engine.KMostFrequent)
	assert.Equal(t, 8, c.Engine.SquareSize)
	assert.Equal(t, []int{1, 4}, c.Engine.NeighborhoodSizes)
	assert.False(t, c.Train.Lowercase)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("[engine]\nk_most_frequent = 0\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfigWithPriorityCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[segment]\nworkers = 2\n"), 0o644))

	c, used, err := LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 2, c.Segment.Workers)
}

func TestUpdateTunables(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	c := DefaultConfig()
	k := 7
	minFreq := int64(3)
	require.NoError(t, c.UpdateTunables(path, &minFreq, &k))

	saved, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, saved.Engine.KMostFrequent)
	assert.Equal(t, int64(3), saved.Engine.MinCompoundFrequency)

	bad := 0
	assert.ErrorIs(t, c.UpdateTunables("", nil, &bad), ErrInvalidConfig)
}

func TestRebuildConfigFileRestoresDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("APPDATA", dir)

	path, err := RebuildConfigFile()
	require.NoError(t, err)
	require.FileExists(t, path)

	require.NoError(t, os.WriteFile(path, []byte("[engine]\nk_most_frequent = 3\n"), 0o644))
	edited, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, edited.Engine.KMostFrequent)

	again, err := RebuildConfigFile()
	require.NoError(t, err)
	assert.Equal(t, path, again)
	restored, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), restored)
}
