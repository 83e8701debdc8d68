package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	pkgconfig "wpdesk/internal/pkg/config"
)

// Provider names accepted in the overrides file.
const (
	ProviderOpenverse = "openverse"
	ProviderPixabay   = "pixabay"
	ProviderUnsplash  = "unsplash"
	ProviderPexels    = "pexels"
	ProviderWordPress = "wordpress"
)

var knownProviders = map[string]bool{
	ProviderOpenverse: true,
	ProviderPixabay:   true,
	ProviderUnsplash:  true,
	ProviderPexels:    true,
	ProviderWordPress: true,
}

// ProviderSettings overrides the defaults of one upstream. Zero fields keep
// the default.
type ProviderSettings struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries *int          `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
	// Pace spaces queued requests to this many per second. Pixabay only.
	Pace  float64 `yaml:"pace"`
	Burst int     `yaml:"burst"`
}

type overridesFile struct {
	Providers map[string]ProviderSettings `yaml:"providers"`
}

// LoadProviderOverrides reads a YAML file of the form
//
//	providers:
//	  pixabay:
//	    timeout: 20s
//	    max_retries: 2
//	    pace: 1.5
//
// Unknown provider names and unknown fields are rejected.
func LoadProviderOverrides(path string) (map[string]ProviderSettings, error) {
	// #nosec G304 -- path comes from the operator's environment
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseProviderOverrides(data)
}

// ParseProviderOverrides decodes and validates an overrides document.
func ParseProviderOverrides(data []byte) (map[string]ProviderSettings, error) {
	var doc overridesFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if doc.Providers == nil {
		doc.Providers = map[string]ProviderSettings{}
	}

	names := make([]string, 0, len(doc.Providers))
	for name := range doc.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if !knownProviders[name] {
			errs = append(errs, fmt.Errorf("unknown provider %q", name))
			continue
		}
		if err := doc.Providers[name].validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return doc.Providers, nil
}

func (s ProviderSettings) validate() error {
	if s.BaseURL != "" {
		if err := pkgconfig.ValidateHTTPURL(s.BaseURL); err != nil {
			return fmt.Errorf("base_url: %w", err)
		}
	}
	if s.Timeout < 0 || s.BaseDelay < 0 || s.MaxDelay < 0 {
		return errors.New("durations must not be negative")
	}
	if s.MaxRetries != nil {
		if err := pkgconfig.IntRange(0, 10)(*s.MaxRetries); err != nil {
			return fmt.Errorf("max_retries: %w", err)
		}
	}
	if s.Pace < 0 || s.Burst < 0 {
		return errors.New("pace and burst must not be negative")
	}
	return nil
}

// Resolved is the effective configuration for one upstream.
type Resolved struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Pace       float64
	Burst      int
}

// For merges the overrides for name onto the shared retry defaults.
// BaseURL and Timeout stay empty when not overridden, so the adapter keeps
// its own defaults.
func (c *Config) For(name string) Resolved {
	r := Resolved{
		MaxRetries: c.Retry.MaxRetries,
		BaseDelay:  c.Retry.BaseDelay,
		MaxDelay:   c.Retry.MaxDelay,
	}
	s, ok := c.Providers.Overrides[name]
	if !ok {
		return r
	}
	r.BaseURL = s.BaseURL
	r.Timeout = s.Timeout
	if s.MaxRetries != nil {
		r.MaxRetries = *s.MaxRetries
	}
	if s.BaseDelay > 0 {
		r.BaseDelay = s.BaseDelay
	}
	if s.MaxDelay > 0 {
		r.MaxDelay = s.MaxDelay
	}
	r.Pace = s.Pace
	r.Burst = s.Burst
	return r
}
