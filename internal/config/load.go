package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file and default values.
const (
	EnvCrossrefMailto = "PUBCHECK_CROSSREF_MAILTO"
	EnvStoragePath    = "PUBCHECK_STORAGE_PATH"
)

// LoadFile reads a YAML configuration file into cfg. Keys absent from the file keep
// the values already in cfg, so callers pass a config from New().
//
// Example:
//
//	registry:
//	  mailto: ops@example.org
//	  timeout: 15s
//	storage:
//	  backend: sqlite
//	  path: /var/lib/pubcheck/verdicts.db
//	rules:
//	  options:
//	    in_time:
//	      threshold: 48h
func LoadFile(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("load config: nil config")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// empty file
			return nil
		}
		return fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to cfg.
func ApplyEnvOverrides(cfg *Config) {
	if val := strings.TrimSpace(os.Getenv(EnvCrossrefMailto)); val != "" {
		cfg.Registry.Mailto = val
	}
	if val := strings.TrimSpace(os.Getenv(EnvStoragePath)); val != "" {
		cfg.Storage.Path = val
	}
}
