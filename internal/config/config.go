// Package config loads the scanner's YAML configuration file and layers
// CLI overrides on top of it, following the same Load/Save shape as
// codenerd's internal/config package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Config holds the YAML fields of the configuration file. Every field is a
// plain defaulted value, since the precedence layering (CLI > file >
// default) happens in cmd/pathbuster by checking cobra's flag-changed bit,
// not here. Only the scan settings below have a field: targets, input
// file, payloads, raw request, wordlist, single path, wordlist directory,
// wordlist manipulation, extensions, dirsearch mode, header, methods,
// output path and format, and verbosity are read from the command line
// only. NoColor is loaded from the file but cmd/pathbuster does not read
// it.
type Config struct {
	Rate           int    `yaml:"rate"`
	Concurrency    int    `yaml:"concurrency"`
	TimeoutSeconds int    `yaml:"timeout"`
	Workers        int    `yaml:"workers"`
	Proxy          string `yaml:"proxy"`

	FollowRedirects bool   `yaml:"follow_redirects"`
	DropAfterFail   string `yaml:"drop_after_fail"`
	ValidateStatus  string `yaml:"validate_status"`
	FingerprintStatus string `yaml:"fingerprint_status"`

	FilterStatus string `yaml:"filter_status"`
	FilterSize   string `yaml:"filter_size"`
	FilterWords  string `yaml:"filter_words"`
	FilterLines  string `yaml:"filter_lines"`
	FilterRegex  []string `yaml:"filter_regex"`

	StartDepth         int    `yaml:"start_depth"`
	MaxDepth           int    `yaml:"max_depth"`
	TraversalStrategy  string `yaml:"traversal_strategy"`
	IgnoreTrailingSlash bool  `yaml:"ignore_trailing_slash"`
	SkipValidation     bool   `yaml:"skip_validation"`
	SkipBrute          bool   `yaml:"skip_brute"`
	AutoCollab         bool   `yaml:"auto_collab"`

	WordlistStatus        string `yaml:"wordlist_status"`
	BruteQueueConcurrency int    `yaml:"brute_queue_concurrency"`

	DisableFingerprinting bool   `yaml:"disable_fingerprinting"`
	WafTest               string `yaml:"waf_test"`
	TechOverride          string `yaml:"tech_override"`

	DisableWafBypass bool     `yaml:"disable_waf_bypass"`
	BypassLevel      int      `yaml:"bypass_level"`
	BypassTransform  []string `yaml:"bypass_transform"`

	ResponseDiffThreshold string `yaml:"response_diff_threshold"`

	NoColor         bool `yaml:"no_color"`
	DisableShowAll  bool `yaml:"disable_show_all"`
}

// DefaultConfig returns the scanner's built-in defaults, matching the
// values runner.rs::Options::default() carries and spec.md §3's stated
// invariant defaults (bypass_level default 1, sift3 threshold default
// [0,1000] — see DESIGN.md's Open Question resolutions for why this
// diverges from the commented example in the original config template).
func DefaultConfig() *Config {
	return &Config{
		Rate:                  1000,
		Concurrency:           1000,
		TimeoutSeconds:        10,
		Workers:               10,
		DropAfterFail:         "302,301",
		ValidateStatus:        "404",
		FingerprintStatus:     "400,500",
		StartDepth:            0,
		MaxDepth:              5,
		TraversalStrategy:     "greedy",
		WordlistStatus:        "200",
		BruteQueueConcurrency: 0,
		BypassLevel:           1,
		ResponseDiffThreshold: "0-1000",
	}
}

// DefaultConfigPath returns "${HOME}/.pathbuster/config.yml".
func DefaultConfigPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".pathbuster", "config.yml"), nil
}

// ExpandTilde expands a leading "~/" (or bare "~") in path to the caller's
// home directory.
func ExpandTilde(path string) (string, error) {
	return homedir.Expand(path)
}

// Load reads the YAML config file at path, falling back to DefaultConfig
// when the file does not exist. A present-but-invalid file is a fatal
// configuration error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	expanded, err := ExpandTilde(path)
	if err != nil {
		return nil, fmt.Errorf("expanding config path %q: %w", path, err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", expanded, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", expanded, err)
	}

	return cfg, nil
}

// Save writes cfg as YAML to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	expanded, err := ExpandTilde(path)
	if err != nil {
		return fmt.Errorf("expanding config path %q: %w", path, err)
	}

	dir := filepath.Dir(expanded)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(expanded, data, 0644); err != nil {
		return fmt.Errorf("writing config file %s: %w", expanded, err)
	}

	return nil
}

// EnsureDefaultConfigFile writes the default configuration to path if no
// file exists there yet, so first-run operators get a commented starting
// point. It is a no-op if the file is already present.
func EnsureDefaultConfigFile(path string) error {
	expanded, err := ExpandTilde(path)
	if err != nil {
		return fmt.Errorf("expanding config path %q: %w", path, err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking config file %s: %w", expanded, err)
	}
	return DefaultConfig().Save(expanded)
}

// ParseThreshold parses a "MIN-MAX" range string into two floats. Rejects
// a negative minimum or a minimum not strictly less than the maximum, per
// spec.md §3's invariant "0 ≤ start < end".
func ParseThreshold(value string) (start, end float64, err error) {
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid threshold range %q, expected MIN-MAX", value)
	}
	if _, err := fmt.Sscanf(parts[0], "%f", &start); err != nil {
		return 0, 0, fmt.Errorf("invalid threshold minimum in %q: %w", value, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%f", &end); err != nil {
		return 0, 0, fmt.Errorf("invalid threshold maximum in %q: %w", value, err)
	}
	if start < 0 {
		return 0, 0, fmt.Errorf("threshold minimum must be >= 0 in %q", value)
	}
	if start >= end {
		return 0, 0, fmt.Errorf("threshold minimum must be < maximum in %q", value)
	}
	return start, end, nil
}
