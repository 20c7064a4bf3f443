// Package config loads flywheel's vault-local configuration using a
// two-layer pattern: a YAML file read directly for structural fields,
// with environment variable overrides applied afterward via viper.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds the tunables left to the surrounding system: debounce/flush
// windows, excluded directories, default strictness, size and cache-age
// limits, and suppression thresholds.
type Config struct {
	VaultRoot string `yaml:"-"`

	DebounceMS int `yaml:"debounce-ms"`
	FlushMS    int `yaml:"flush-ms"`

	ExcludedDirs []string `yaml:"excluded-dirs"`

	DefaultStrictnessWrite   string `yaml:"default-strictness-write"`
	DefaultStrictnessSuggest string `yaml:"default-strictness-suggest"`
	MaxSuggestions           int    `yaml:"max-suggestions"`

	MaxFileSizeBytes    int64 `yaml:"max-file-size-bytes"`
	IndexCacheMaxAgeMin int   `yaml:"index-cache-max-age-min"`

	SuppressionMinSamples int     `yaml:"suppression-min-samples"`
	SuppressionFPRate     float64 `yaml:"suppression-fp-rate"`
}

// Default returns the configuration a fresh vault gets before any
// config.yaml override is applied.
func Default(vaultRoot string) *Config {
	return &Config{
		VaultRoot:                vaultRoot,
		DebounceMS:               200,
		FlushMS:                  1000,
		ExcludedDirs:             []string{".git", ".flywheel", "attachments", "templates"},
		DefaultStrictnessWrite:   "conservative",
		DefaultStrictnessSuggest: "balanced",
		MaxSuggestions:           3,
		MaxFileSizeBytes:         10 * 1024 * 1024,
		IndexCacheMaxAgeMin:      24 * 60,
		SuppressionMinSamples:    10,
		SuppressionFPRate:        0.30,
	}
}

// DebounceWindow and FlushWindow convert the millisecond config fields to
// time.Duration for use by the pipeline package.
func (c *Config) DebounceWindow() time.Duration { return time.Duration(c.DebounceMS) * time.Millisecond }
func (c *Config) FlushWindow() time.Duration    { return time.Duration(c.FlushMS) * time.Millisecond }

// Load reads <vaultRoot>/.flywheel/config.yaml if present, falling back to
// Default on any error so callers always get a usable config, then applies
// environment variable overrides via viper.
func Load(vaultRoot string) *Config {
	cfg := Default(vaultRoot)

	configPath := filepath.Join(vaultRoot, ".flywheel", "config.yaml")
	data, err := os.ReadFile(configPath) // #nosec G304 - path built from a caller-supplied vault root
	if err == nil {
		_ = yaml.Unmarshal(data, cfg)
		cfg.VaultRoot = vaultRoot
	}

	applyEnvOverrides(cfg)
	return cfg
}

// applyEnvOverrides layers the FLYWHEEL_VAULT, FLYWHEEL_DEBOUNCE_MS,
// FLYWHEEL_FLUSH_MS and FLYWHEEL_MAX_SUGGESTIONS environment variables on
// top of the file-loaded config via viper. No command-line flags are bound
// here.
func applyEnvOverrides(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix("FLYWHEEL")
	v.AutomaticEnv()

	if v.IsSet("VAULT") {
		cfg.VaultRoot = v.GetString("VAULT")
	}
	if v.IsSet("DEBOUNCE_MS") {
		cfg.DebounceMS = v.GetInt("DEBOUNCE_MS")
	}
	if v.IsSet("FLUSH_MS") {
		cfg.FlushMS = v.GetInt("FLUSH_MS")
	}
	if v.IsSet("MAX_SUGGESTIONS") {
		cfg.MaxSuggestions = v.GetInt("MAX_SUGGESTIONS")
	}
}

// DiscoverVaultRoot walks upward from start looking for a ".flywheel"
// marker directory. Returns start itself if no marker is found anywhere
// above it.
func DiscoverVaultRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return start
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ".flywheel")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}
