package main

import (
	"testing"

	"github.com/bastiangx/substitus/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestCheckModes(t *testing.T) {
	tests := []struct {
		description string
		features    string
		segment     string
		wantErr     bool
	}{
		{"no features", "", "", false},
		{"features with batch", "f.tsv", "words.txt", false},
		{"features with stdin batch", "f.tsv", "-", false},
		{"features without batch", "f.tsv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			err := checkModes(tt.features, tt.segment)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	applyOverrides(cfg, 7, 0, 2, 0)

	assert.Equal(t, 7, cfg.Engine.KMostFrequent)
	assert.Equal(t, config.DefaultConfig().Engine.MinCompoundFrequency, cfg.Engine.MinCompoundFrequency)
	assert.Equal(t, 2, cfg.Engine.SquareSize)
	assert.Equal(t, config.DefaultConfig().Segment.Workers, cfg.Segment.Workers)
}
