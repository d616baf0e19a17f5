package config

import "path/filepath"

// StateDirName is exodoc's per-project work directory. It holds the tool
// configuration, the search index, and the extraction ledger, and is always
// excluded from discovery and watching.
const StateDirName = ".exodoc"

// Config represents the complete exodoc configuration.
// It can be loaded from .exodoc/config.yaml with environment variable overrides.
type Config struct {
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Migration MigrationConfig `yaml:"migration" mapstructure:"migration"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
}

// PathsConfig defines which source files to process.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for Rust sources
	Exclude []string `yaml:"exclude" mapstructure:"exclude"` // glob patterns to skip
}

// MigrationConfig tunes the migration pipeline.
type MigrationConfig struct {
	Workers     int    `yaml:"workers" mapstructure:"workers"`           // parallel file workers, 0 = one per CPU
	Docs        string `yaml:"docs" mapstructure:"docs"`                 // output root override; empty resolves via Cargo.toml
	InlinePaths bool   `yaml:"inline_paths" mapstructure:"inline_paths"` // embed the docs path into reference attributes
}

// SearchConfig tunes the docs search surface.
type SearchConfig struct {
	Limit int `yaml:"limit" mapstructure:"limit"` // default result count for exodoc search
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include: []string{"**/*.rs"},
			Exclude: []string{
				"target/**",
				".git/**",
			},
		},
		Migration: MigrationConfig{
			Workers: 0,
		},
		Search: SearchConfig{
			Limit: 10,
		},
	}
}

// IndexPath is where the bleve search index lives for a project root.
func IndexPath(rootDir string) string {
	return filepath.Join(rootDir, StateDirName, "index.bleve")
}

// LedgerPath is where the extraction ledger lives for a project root.
func LedgerPath(rootDir string) string {
	return filepath.Join(rootDir, StateDirName, "ledger.db")
}
