// Package config loads the YAML configuration shared by the jdql commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend kinds.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config is the root of a jdql.yaml file.
//
//	backend:
//	  kind: sqlite
//	  path: ./data.db
//	cache:
//	  max_entries: 1024
//	mappings: ./mappings
//	log:
//	  level: debug
//	  format: json
type Config struct {
	Backend  Backend `yaml:"backend"`
	Cache    Cache   `yaml:"cache"`
	Mappings string  `yaml:"mappings,omitempty"`
	Log      Log     `yaml:"log"`
}

// Backend selects the storage the document and key-value commands run
// against.
type Backend struct {
	Kind string `yaml:"kind"`
	// Path is the sqlite file or badger directory. Empty keeps the data in
	// memory.
	Path string `yaml:"path,omitempty"`
}

// Cache bounds the parsed-query caches.
type Cache struct {
	// MaxEntries is the per-dialect LRU bound. Zero means unbounded.
	MaxEntries int `yaml:"max_entries"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Backend: Backend{Kind: BackendMemory},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// Load reads and validates the YAML file at path. Missing keys keep their
// defaults; unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates YAML configuration.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated values and bounds.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend.Kind {
	case BackendMemory, BackendSQLite, BackendBadger:
	default:
		errs = append(errs, fmt.Errorf("backend.kind: unknown backend %q", c.Backend.Kind))
	}
	if c.Cache.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("cache.max_entries: must not be negative"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Logger builds a logger writing to w as configured.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: unknown level %q", s)
	}
	return level, nil
}
