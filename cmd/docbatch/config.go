package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
)

// Config holds all configuration for the batch service.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`

	// TemplatesDir contains the selectable *.html templates and their
	// image assets.
	TemplatesDir string `yaml:"templatesDir"`

	// OutputDir receives the generated PDFs and result.zip.
	OutputDir string `yaml:"outputDir"`

	// UploadsDir stages uploaded spreadsheets.
	UploadsDir string `yaml:"uploadsDir"`

	// CounterFile persists the daily document counter.
	CounterFile string `yaml:"counterFile"`

	// FilenameColumn names the spreadsheet column used for output
	// filenames (empty = always positional names).
	FilenameColumn string `yaml:"filenameColumn"`

	// NoticeDateFormat formats the generated NOTICE_DATE field
	// (tokens: YYYY, MM, DD, ... or a preset name).
	NoticeDateFormat string `yaml:"noticeDateFormat"`

	// RenderTimeout bounds a single page render, e.g. "30s".
	RenderTimeout string `yaml:"renderTimeout"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Addr:             ":3000",
		TemplatesDir:     "templates",
		OutputDir:        "output",
		UploadsDir:       "uploads",
		CounterFile:      "counter.json",
		FilenameColumn:   "NAME",
		NoticeDateFormat: "DD.MM.YYYY",
		RenderTimeout:    "30s",
	}
}

// LoadConfig reads a YAML config file. Unknown keys are rejected so typos
// fail loudly. Missing fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if _, err := cfg.Timeout(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return cfg, nil
}

// Timeout parses RenderTimeout into a duration.
func (c *Config) Timeout() (time.Duration, error) {
	if c.RenderTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.RenderTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid renderTimeout %q: %v", c.RenderTimeout, err)
	}
	return d, nil
}
