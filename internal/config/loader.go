package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".digigraph.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the digigraph YAML configuration file.
// Every field is optional; unset fields leave the flag/default value in
// place. CLI flags that were set explicitly win over the file.
type File struct {
	// BaseURL overrides the wiki host.
	BaseURL string `yaml:"baseURL,omitempty"`

	// StartSite overrides the fresh-crawl seed page.
	StartSite string `yaml:"startSite,omitempty"`

	// MinReferences overrides the non-card citation floor.
	MinReferences *int `yaml:"minReferences,omitempty"`

	// LowEvoThreshold overrides the minimum-reference bypass threshold.
	LowEvoThreshold *int `yaml:"lowEvoThreshold,omitempty"`

	// IgnoreCardOnlyRefs toggles the card-only candidate filter.
	IgnoreCardOnlyRefs *bool `yaml:"ignoreCardOnlyRefs,omitempty"`

	// AssumeCardsFilled toggles the classifier's no-fetch escape hatch.
	AssumeCardsFilled *bool `yaml:"assumeCardsFilled,omitempty"`

	// FetchDelay overrides the uncached-fetch pacing delay,
	// e.g. "1.5s" or "750ms".
	FetchDelay string `yaml:"fetchDelay,omitempty"`

	// UserAgent overrides the HTTP User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// DBDir overrides the database directory.
	DBDir string `yaml:"dbDir,omitempty"`
}

// LoadConfigFile loads configuration overrides from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers
// should handle this based on whether the path was explicitly specified
// by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
//  1. If configPath is specified, use it directly
//  2. Look for .digigraph.yaml in the current directory
//  3. Look for it in the XDG config directory
//
// Returns the path if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}

// Apply merges file values into the config. Only fields set in the file
// are copied; everything else keeps its current value.
func (cf *File) Apply(cfg *Config) error {
	if cf.BaseURL != "" {
		cfg.BaseURL = cf.BaseURL
	}
	if cf.StartSite != "" {
		cfg.StartSite = cf.StartSite
	}
	if cf.MinReferences != nil {
		cfg.MinReferences = *cf.MinReferences
	}
	if cf.LowEvoThreshold != nil {
		cfg.LowEvoThreshold = *cf.LowEvoThreshold
	}
	if cf.IgnoreCardOnlyRefs != nil {
		cfg.IgnoreCardOnlyRefs = *cf.IgnoreCardOnlyRefs
	}
	if cf.AssumeCardsFilled != nil {
		cfg.AssumeCardsFilled = *cf.AssumeCardsFilled
	}
	if cf.FetchDelay != "" {
		d, err := time.ParseDuration(cf.FetchDelay)
		if err != nil {
			return err
		}
		cfg.FetchDelay = d
	}
	if cf.UserAgent != "" {
		cfg.UserAgent = cf.UserAgent
	}
	if cf.DBDir != "" {
		cfg.DBDir = cf.DBDir
	}
	return nil
}
