// Package config provides configuration management for the harvester.
// It defines configuration structures and default values for catalog
// discovery, archive retrieval, and conversion.
package config

import (
	"path/filepath"
	"runtime"
	"time"
)

// Config holds harvester configuration
type Config struct {
	// Catalog discovery
	CatalogURL   string `mapstructure:"catalog_url" yaml:"catalog_url"`     // Catalog page listing archive links
	LinkSelector string `mapstructure:"link_selector" yaml:"link_selector"` // CSS selector matching archive anchors

	// Retrieval
	OutputRoot     string        `mapstructure:"output_root" yaml:"output_root"`         // Root directory for staging/ and converted/
	RequestDelay   float64       `mapstructure:"request_delay" yaml:"request_delay"`     // Delay between requests per host, in seconds (0 disables)
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"` // Time allowed for response headers
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`           // HTTP User-Agent header

	// Conversion
	Concurrency int      `mapstructure:"concurrency" yaml:"concurrency"`         // Number of concurrent conversion workers
	Extensions  []string `mapstructure:"file_extensions" yaml:"file_extensions"` // Extensions marking convertible database files
	DateFormat  string   `mapstructure:"date_format" yaml:"date_format"`         // strftime format passed to the export tool

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"` // debug, info, warn, error
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`   // Optional log file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		CatalogURL:     "https://nces.ed.gov/ipeds/use-the-data/download-access-database",
		LinkSelector:   "table.ipeds-table a[href$='.zip']",
		OutputRoot:     "out/raw",
		RequestDelay:   0,
		RequestTimeout: 30 * time.Second,
		UserAgent:      "mdbharvest/1.0",
		Concurrency:    runtime.NumCPU(),
		Extensions:     []string{".mdb", ".accdb"},
		DateFormat:     "%Y-%m-%d %H:%M:%S",
		LogLevel:       "info",
	}
}

// StagingDir returns the directory retrieved archive entries are written to.
func (c *Config) StagingDir() string {
	return filepath.Join(c.OutputRoot, "staging")
}

// ConvertedDir returns the directory converted databases are written to.
func (c *Config) ConvertedDir() string {
	return filepath.Join(c.OutputRoot, "converted")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.CatalogURL == "" {
		return ErrEmptyCatalogURL
	}

	if c.LinkSelector == "" {
		return ErrEmptyLinkSelector
	}

	if c.OutputRoot == "" {
		return ErrEmptyOutputRoot
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.RequestDelay < 0 {
		return ErrInvalidDelay
	}

	if len(c.Extensions) == 0 {
		return ErrNoExtensions
	}

	return nil
}
