package config

import (
	"runtime"

	"github.com/mvp-joe/propscan/internal/autogen/dsl"
)

// Config represents the complete propscan configuration.
// It can be loaded from .propscan/config.yml with environment variable overrides.
type Config struct {
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Scan     ScanConfig     `yaml:"scan" mapstructure:"scan"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// PathsConfig defines which files to analyze and which to ignore.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for Ruby files
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to ignore
}

// ScanConfig controls the file scanner.
type ScanConfig struct {
	Workers   int `yaml:"workers" mapstructure:"workers"`       // concurrent file analyses
	CacheSize int `yaml:"cache_size" mapstructure:"cache_size"` // records kept between rescans
}

// AnalysisConfig controls the DSL walker.
type AnalysisConfig struct {
	ScopeMode string `yaml:"scope_mode" mapstructure:"scope_mode"` // "frames" or "legacy"
}

// StorageConfig defines where scan results are persisted.
type StorageConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"` // SQLite file, relative to the project root
}

// OutputConfig defines how records are printed.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // "json" or "yaml"
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include: []string{
				"**/*.rb",
				"**/*.rbi",
			},
			Ignore: []string{
				"vendor/**",
				"node_modules/**",
				".git/**",
				"tmp/**",
				"log/**",
				"sorbet/rbi/**",
			},
		},
		Scan: ScanConfig{
			Workers:   runtime.NumCPU(),
			CacheSize: 10_000,
		},
		Analysis: AnalysisConfig{
			ScopeMode: string(dsl.ScopeFrames),
		},
		Storage: StorageConfig{
			DBPath: ".propscan/records.db",
		},
		Output: OutputConfig{
			Format: "json",
		},
	}
}

// ScopeMode returns the configured walker mode.
func (c *Config) ScopeMode() dsl.ScopeMode {
	mode, err := dsl.ParseScopeMode(c.Analysis.ScopeMode)
	if err != nil {
		return dsl.ScopeFrames
	}
	return mode
}

// GetSourceExtensions extracts unique file extensions from the include patterns.
// Returns extensions with leading dot (e.g., []string{".rb", ".rbi"}).
func (c *Config) GetSourceExtensions() []string {
	seen := make(map[string]bool)
	var extensions []string
	for _, pattern := range c.Paths.Include {
		if ext := extractExtension(pattern); ext != "" && !seen[ext] {
			seen[ext] = true
			extensions = append(extensions, ext)
		}
	}
	return extensions
}

// extractExtension extracts the file extension from a glob pattern.
// Returns empty string if pattern doesn't match a simple extension pattern.
// Examples: "**/*.rb" -> ".rb", "*.rbi" -> ".rbi"
func extractExtension(pattern string) string {
	for i := len(pattern) - 1; i >= 1; i-- {
		if pattern[i] == '.' && pattern[i-1] == '*' {
			return pattern[i:]
		}
	}
	return ""
}
