// Package config loads commandlang settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/AlexanderGrooff/commandlang-go/internal/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COMMANDLANG_"

// Config holds the runtime settings of the CLI and its dispatcher.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`
	// MaxInFlight bounds concurrently running dispatched commands.
	MaxInFlight int `yaml:"max_in_flight"`
	// MaxDepth bounds how many custom commands may dispatch each other in a
	// chain.
	MaxDepth     int    `yaml:"max_depth"`
	CommandsFile string `yaml:"commands_file"`
	CommandsDir  string `yaml:"commands_dir"`
	ContextFile  string `yaml:"context_file"`
	// CacheTemplates is the parsed-template cache size; 0 disables caching.
	CacheTemplates int `yaml:"cache_templates"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:       "WARN",
		MaxInFlight:    16,
		MaxDepth:       4,
		CacheTemplates: 256,
	}
}

// Load builds the configuration (priority order, lowest first):
// 1. Built-in defaults
// 2. The YAML file at path, or at $COMMANDLANG_CONFIG when path is empty
// 3. Variables from envFile (".env" when empty); a missing file is skipped
// 4. COMMANDLANG_* process environment variables
//
// Relative paths inside the YAML file are resolved against its directory.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		dotenv = map[string]string{}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if path == "" {
		path, _ = lookup(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges a YAML file into cfg. Unknown keys are rejected.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	baseDir := filepath.Dir(path)
	for _, p := range []*string{&cfg.CommandsFile, &cfg.CommandsDir, &cfg.ContextFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(baseDir, *p)
		}
	}
	return nil
}

// applyEnvOverrides applies COMMANDLANG_* variables on top of cfg.
func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LOG_LEVEL":     &cfg.LogLevel,
		"COMMANDS_FILE": &cfg.CommandsFile,
		"COMMANDS_DIR":  &cfg.CommandsDir,
		"CONTEXT_FILE":  &cfg.ContextFile,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MAX_IN_FLIGHT":   &cfg.MaxInFlight,
		"MAX_DEPTH":       &cfg.MaxDepth,
		"CACHE_TEMPLATES": &cfg.CacheTemplates,
	}
	for key, dst := range ints {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err)
		}
		*dst = n
	}

	if v, ok := lookup(EnvPrefix + "LOG_PRETTY"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sLOG_PRETTY %q: %w", EnvPrefix, v, err)
		}
		cfg.LogPretty = b
	}
	return nil
}

var validLevels = map[string]bool{
	"DEBUG": true, "TRACE": true, "INFO": true, "WARN": true, "WARNING": true,
	"ERROR": true, "OFF": true, "NONE": true, "DISABLED": true,
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !validLevels[strings.ToUpper(strings.TrimSpace(c.LogLevel))] {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.MaxInFlight < 1 {
		return fmt.Errorf("max_in_flight must be at least 1, got %d", c.MaxInFlight)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if c.CacheTemplates < 0 {
		return fmt.Errorf("cache_templates must not be negative, got %d", c.CacheTemplates)
	}
	return nil
}

// Logging converts the log settings into a logging.Config.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.LogLevel)
	cfg.Pretty = c.LogPretty
	return cfg
}
