// Package config loads catalog settings from a YAML file.
//
// A missing file is not an error: Load returns DefaultSettings. Keys present
// in the file override the defaults; absent keys keep them.
//
//	roots: [/lib/simready]
//	default_physics: RigidBody
//	recurse: true
//	source:
//	  kind: s3
//	  s3: {endpoint: localhost:9000, bucket: assets}
package config

import (
	"fmt"
	"os"

	"github.com/agentic-research/simready/internal/ingest"
	"github.com/agentic-research/simready/internal/log"
	"github.com/agentic-research/simready/internal/search"
	"github.com/agentic-research/simready/internal/source"
	"github.com/agentic-research/simready/internal/writeback"
	"gopkg.in/yaml.v3"
)

// Settings holds all configuration options.
type Settings struct {
	// Catalog
	Roots          []string `yaml:"roots"`
	DefaultPhysics string   `yaml:"default_physics"`
	ListingFile    string   `yaml:"listing_file"`
	Selector       string   `yaml:"selector"`
	Recurse        bool     `yaml:"recurse"`
	Concurrency    int      `yaml:"concurrency"`
	SubsetPolicy   string   `yaml:"subset_policy"` // inclusive, strict

	Log    LogSettings    `yaml:"log"`
	Source source.Options `yaml:"source"`
}

type LogSettings struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	JSON    bool   `yaml:"json"`
	NoColor bool   `yaml:"no_color"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		DefaultPhysics: "RigidBody",
		ListingFile:    ingest.DefaultListingFile,
		Selector:       ingest.DefaultSelector,
		Recurse:        true,
		Concurrency:    8,
		SubsetPolicy:   search.Inclusive.String(),
		Log:            LogSettings{Level: "info"},
		Source:         source.Options{Kind: source.KindLocal},
	}
}

// Load reads settings from a YAML file.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

// Save writes settings to a YAML file.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return writeback.WriteFile(path, data, 0o644)
}

func (s *Settings) Validate() error {
	if _, err := s.Policy(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(s.Log.Level); err != nil {
		return err
	}
	if s.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	return nil
}

func (s *Settings) Policy() (search.SubsetPolicy, error) {
	return search.ParseSubsetPolicy(s.SubsetPolicy)
}

// LogOptions converts the log section for log.New.
func (s *Settings) LogOptions(name string) log.Options {
	level, err := log.ParseLevel(s.Log.Level)
	if err != nil {
		level = log.Info
	}
	return log.Options{
		Name:    name,
		Level:   level,
		File:    s.Log.File,
		JSON:    s.Log.JSON,
		NoColor: s.Log.NoColor,
	}
}
