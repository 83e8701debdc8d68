// Package config loads validated settings from the environment.
//
// Loaders never fail. A value that is missing yields the default silently; a
// value that does not parse or does not validate yields the default together
// with a warning, so a typo in one variable cannot keep the server from
// starting.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of loading one setting.
type Result[T any] struct {
	Key             string
	Value           T
	Warning         string
	FallbackApplied bool
}

func load[T any](key string, def T, parse func(string) (T, error), validate func(T) error) Result[T] {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return Result[T]{Key: key, Value: def}
	}

	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return Result[T]{
			Key:             key,
			Value:           def,
			Warning:         fmt.Sprintf("invalid %s=%q: %v, using default %v", key, raw, err, def),
			FallbackApplied: true,
		}
	}
	return Result[T]{Key: key, Value: v}
}

// LoadEnvString reads key, validating it when validate is non-nil.
func LoadEnvString(key, def string, validate func(string) error) Result[string] {
	return load(key, def, func(s string) (string, error) { return s, nil }, validate)
}

// LoadEnvInt reads key as a base-10 integer.
func LoadEnvInt(key string, def int, validate func(int) error) Result[int] {
	return load(key, def, strconv.Atoi, validate)
}

// LoadEnvDuration reads key in time.ParseDuration syntax.
func LoadEnvDuration(key string, def time.Duration, validate func(time.Duration) error) Result[time.Duration] {
	return load(key, def, time.ParseDuration, validate)
}

// LoadEnvFloat reads key as a float64.
func LoadEnvFloat(key string, def float64, validate func(float64) error) Result[float64] {
	return load(key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }, validate)
}

// LoadEnvBool reads key with strconv.ParseBool.
func LoadEnvBool(key string, def bool) Result[bool] {
	return load(key, def, strconv.ParseBool, nil)
}

// Recorder collects the warnings of a group of loads.
type Recorder struct {
	Warnings []string
	metrics  *Metrics
}

// NewRecorder returns a Recorder reporting fallbacks to m. m may be nil.
func NewRecorder(m *Metrics) *Recorder {
	return &Recorder{metrics: m}
}

// Track records r and returns its value.
func Track[T any](rec *Recorder, r Result[T]) T {
	if r.FallbackApplied {
		rec.Warnings = append(rec.Warnings, r.Warning)
		if rec.metrics != nil {
			rec.metrics.RecordFallback(r.Key)
		}
	}
	return r.Value
}

// Finish stamps the load time and reports whether any fallback is in effect.
func (rec *Recorder) Finish() {
	if rec.metrics == nil {
		return
	}
	rec.metrics.RecordLoad(len(rec.Warnings) > 0)
}
