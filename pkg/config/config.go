/*
Package config manages the TOML config of the substitus tools.

The file has one section per concern:

	[engine]   search and scoring tunables
	[segment]  how boundary probabilities become segmentations
	[train]    how frequency lists are read
	[server]   limits of the IPC server

Missing keys keep their defaults. A file that fails to decode as a whole is
salvaged section by section.
*/
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/bastiangx/substitus/internal/utils"
	"github.com/bastiangx/substitus/pkg/dictionary"
	"github.com/bastiangx/substitus/pkg/substitus"
	"github.com/charmbracelet/log"
)

// FileName is the default config file name
const FileName = "substitus.toml"

// ErrInvalidConfig reports values no component can run with.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the entire config structure
type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Segment SegmentConfig `toml:"segment"`
	Train   TrainConfig   `toml:"train"`
	Server  ServerConfig  `toml:"server"`
}

// EngineConfig mirrors substitus.Options.
type EngineConfig struct {
	MinCompoundFrequency int64  `toml:"min_compound_frequency"`
	KMostFrequent        int    `toml:"k_most_frequent"`
	SquareSize           int    `toml:"square_size"`
	BoundaryPolicy       string `toml:"boundary_policy"`
	NeighborhoodSizes    []int  `toml:"neighborhood_sizes"`
}

// SegmentConfig holds segmentation options.
type SegmentConfig struct {
	Threshold     float64 `toml:"threshold"`
	Normalize     bool    `toml:"normalize"`
	NormalizeMean float64 `toml:"normalize_mean"`
	Separator     string  `toml:"separator"`
	Workers       int     `toml:"workers"`
	CacheSize     int     `toml:"cache_size"`
}

// TrainConfig holds frequency list options.
type TrainConfig struct {
	Lowercase    bool   `toml:"lowercase"`
	MinFrequency int64  `toml:"min_frequency"`
	Snapshot     string `toml:"snapshot"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxWordLength   int  `toml:"max_word_length"`
	CollectMorphs   bool `toml:"collect_morphs"`
	AllowTune       bool `toml:"allow_tune"`
	PersistTunables bool `toml:"persist_tunables"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	o := substitus.DefaultOptions()
	return &Config{
		Engine: EngineConfig{
			MinCompoundFrequency: o.MinCompoundFrequency,
			KMostFrequent:        o.KMostFrequent,
			SquareSize:           o.SquareSize,
			BoundaryPolicy:       o.BoundaryPolicy.String(),
			NeighborhoodSizes:    o.NeighborhoodSizes,
		},
		Segment: SegmentConfig{
			Threshold:     0.5,
			Normalize:     false,
			NormalizeMean: 0.3,
			Separator:     "+",
			Workers:       4,
			CacheSize:     10000,
		},
		Train: TrainConfig{
			Lowercase:    true,
			MinFrequency: 1,
		},
		Server: ServerConfig{
			MaxWordLength:   64,
			CollectMorphs:   true,
			AllowTune:       true,
			PersistTunables: false,
		},
	}
}

// Validate rejects values that would make a component fail later.
func (c *Config) Validate() error {
	if _, err := c.EngineOptions(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Segment.Threshold < 0 || c.Segment.Threshold > 1 {
		return fmt.Errorf("%w: segment threshold %v outside [0,1]", ErrInvalidConfig, c.Segment.Threshold)
	}
	if c.Segment.Workers < 1 {
		return fmt.Errorf("%w: segment workers %d < 1", ErrInvalidConfig, c.Segment.Workers)
	}
	if c.Segment.CacheSize < 0 {
		return fmt.Errorf("%w: segment cache size %d < 0", ErrInvalidConfig, c.Segment.CacheSize)
	}
	if c.Train.MinFrequency < 0 {
		return fmt.Errorf("%w: train min frequency %d < 0", ErrInvalidConfig, c.Train.MinFrequency)
	}
	if c.Server.MaxWordLength < 1 {
		return fmt.Errorf("%w: server max word length %d < 1", ErrInvalidConfig, c.Server.MaxWordLength)
	}
	return nil
}

// EngineOptions converts the engine section.
func (c *Config) EngineOptions() (substitus.Options, error) {
	policy, err := substitus.ParseBoundaryPolicy(c.Engine.BoundaryPolicy)
	if err != nil {
		return substitus.Options{}, err
	}
	o := substitus.Options{
		MinCompoundFrequency: c.Engine.MinCompoundFrequency,
		KMostFrequent:        c.Engine.KMostFrequent,
		SquareSize:           c.Engine.SquareSize,
		BoundaryPolicy:       policy,
		NeighborhoodSizes:    append([]int(nil), c.Engine.NeighborhoodSizes...),
	}
	return o, o.Validate()
}

// ReadOptions converts the train section.
func (c *Config) ReadOptions() dictionary.ReadOptions {
	return dictionary.ReadOptions{
		Lowercase:    c.Train.Lowercase,
		MinFrequency: uint64(max(c.Train.MinFrequency, 0)),
	}
}

// GetDefaultConfigPath returns the default path for substitus.toml
func GetDefaultConfigPath() (string, error) {
	pr, err := utils.NewPathResolver()
	if err != nil {
		return "", err
	}
	return pr.GetConfigPath(FileName), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from the -config flag
// 2. Default path: [UserConfigDir]/substitus/substitus.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file at %s: %w", configPath, err)
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}
	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. Decode errors fall back to section-wise
// recovery; values that decode but do not validate are an error.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if _, err := utils.LoadTOMLFile(configPath, config); err != nil {
		config = tryPartialParse(configPath)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return config, nil
}

// tryPartialParse salvages every section that parses
func tryPartialParse(configPath string) *Config {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config
	}

	if section, ok := utils.ExtractSection(tempConfig, "engine"); ok {
		extractEngineConfig(section, &config.Engine)
	}
	if section, ok := utils.ExtractSection(tempConfig, "segment"); ok {
		extractSegmentConfig(section, &config.Segment)
	}
	if section, ok := utils.ExtractSection(tempConfig, "train"); ok {
		extractTrainConfig(section, &config.Train)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	return config
}

func extractEngineConfig(data map[string]any, engine *EngineConfig) {
	if val, ok := utils.ExtractInt64(data, "min_compound_frequency"); ok {
		engine.MinCompoundFrequency = val
	}
	if val, ok := utils.ExtractInt64(data, "k_most_frequent"); ok {
		engine.KMostFrequent = int(val)
	}
	if val, ok := utils.ExtractInt64(data, "square_size"); ok {
		engine.SquareSize = int(val)
	}
	if val, ok := utils.ExtractString(data, "boundary_policy"); ok {
		engine.BoundaryPolicy = val
	}
	if vals, ok := data["neighborhood_sizes"].([]any); ok {
		sizes := make([]int, 0, len(vals))
		for _, v := range vals {
			if n, ok := v.(int64); ok {
				sizes = append(sizes, int(n))
			}
		}
		engine.NeighborhoodSizes = sizes
	}
}

func extractSegmentConfig(data map[string]any, segment *SegmentConfig) {
	if val, ok := utils.ExtractFloat64(data, "threshold"); ok {
		segment.Threshold = val
	}
	if val, ok := utils.ExtractBool(data, "normalize"); ok {
		segment.Normalize = val
	}
	if val, ok := utils.ExtractFloat64(data, "normalize_mean"); ok {
		segment.NormalizeMean = val
	}
	if val, ok := utils.ExtractString(data, "separator"); ok {
		segment.Separator = val
	}
	if val, ok := utils.ExtractInt64(data, "workers"); ok {
		segment.Workers = int(val)
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		segment.CacheSize = int(val)
	}
}

func extractTrainConfig(data map[string]any, train *TrainConfig) {
	if val, ok := utils.ExtractBool(data, "lowercase"); ok {
		train.Lowercase = val
	}
	if val, ok := utils.ExtractInt64(data, "min_frequency"); ok {
		train.MinFrequency = val
	}
	if val, ok := utils.ExtractString(data, "snapshot"); ok {
		train.Snapshot = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_word_length"); ok {
		server.MaxWordLength = int(val)
	}
	if val, ok := utils.ExtractBool(data, "collect_morphs"); ok {
		server.CollectMorphs = val
	}
	if val, ok := utils.ExtractBool(data, "allow_tune"); ok {
		server.AllowTune = val
	}
	if val, ok := utils.ExtractBool(data, "persist_tunables"); ok {
		server.PersistTunables = val
	}
}

// RebuildConfigFile force creates a new substitus.toml at the default path
func RebuildConfigFile() (string, error) {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	return defaultPath, SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "builtin defaults"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// UpdateTunables changes the search tunables and saves to file when configPath is set
func (c *Config) UpdateTunables(configPath string, minCompoundFrequency *int64, kMostFrequent *int) error {
	if minCompoundFrequency != nil {
		c.Engine.MinCompoundFrequency = *minCompoundFrequency
	}
	if kMostFrequent != nil {
		c.Engine.KMostFrequent = *kMostFrequent
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if configPath == "" {
		return nil
	}
	return SaveConfig(c, configPath)
}
