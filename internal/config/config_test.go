package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := New()
	cfg.Input.Paths = []string{"submissions/"}
	return cfg
}

func TestValidate_RequiresPaths(t *testing.T) {
	cfg := New()
	cfg.Input.Paths = []string{" ", ""}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestValidate_NormalizesCommaDelimitedPatterns(t *testing.T) {
	cfg := validConfig()
	cfg.Input.Include = []string{"10.1016/*, 10.1103/*", ",,"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	want := []string{"10.1016/*", "10.1103/*"}
	if !reflect.DeepEqual(cfg.Input.Include, want) {
		t.Fatalf("Include normalized mismatch: got %v want %v", cfg.Input.Include, want)
	}
}

func TestParseRuleOptionAssignments(t *testing.T) {
	got, err := ParseRuleOptionAssignments([]string{
		"in_time.threshold=48h",
		"founded_by.pattern=.{0,10}scoap(3){0,1}.{0,10}",
		"files.allow.dois=10.1/a,10.1/b",
		"cc_licence.pattern=", // empty value allowed
	})
	if err != nil {
		t.Fatalf("ParseRuleOptionAssignments returned error: %v", err)
	}
	if got["in_time"]["threshold"] != "48h" {
		t.Fatalf("unexpected parsed value: %v", got)
	}
	if got["founded_by"]["pattern"] != ".{0,10}scoap(3){0,1}.{0,10}" {
		t.Fatalf("expected commas in values to be preserved: %v", got)
	}
	if got["files"]["allow.dois"] != "10.1/a,10.1/b" {
		t.Fatalf("unexpected parsed value: %v", got)
	}
	if v, ok := got["cc_licence"]["pattern"]; !ok || v != "" {
		t.Fatalf("expected empty string value to be preserved: %v", got)
	}
}

func TestParseRuleOptionAssignments_ErrorsOnInvalidSyntax(t *testing.T) {
	tests := []struct {
		name   string
		values []string
	}{
		{name: "missing_equals", values: []string{"a.b"}},
		{name: "missing_dot", values: []string{"ab=true"}},
		{name: "empty_rule", values: []string{".b=true"}},
		{name: "empty_opt", values: []string{"a.=true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRuleOptionAssignments(tt.values); err == nil {
				t.Fatalf("expected error, got nil")
			}
		})
	}
}

func TestValidate_RejectsInvalidSetSyntax(t *testing.T) {
	cfg := validConfig()
	cfg.Rules.Set = []string{"nope"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestRuleOptions_SetOverridesFile(t *testing.T) {
	cfg := validConfig()
	cfg.Rules.Options = map[string]map[string]string{
		"in_time":    {"threshold": "48h"},
		"cc_licence": {"pattern": "cc0"},
	}
	cfg.Rules.Set = []string{"in_time.threshold=12h"}

	got, err := cfg.RuleOptions()
	if err != nil {
		t.Fatalf("RuleOptions() returned error: %v", err)
	}
	if got["in_time"]["threshold"] != "12h" {
		t.Fatalf("expected --set to win, got %v", got)
	}
	if got["cc_licence"]["pattern"] != "cc0" {
		t.Fatalf("expected file option to be kept, got %v", got)
	}
	if cfg.Rules.Options["in_time"]["threshold"] != "48h" {
		t.Fatalf("file options must not be mutated")
	}
}

func TestValidate_RejectsInvalidConsoleFormat(t *testing.T) {
	for _, format := range []string{"", "   ", "yaml"} {
		t.Run(format, func(t *testing.T) {
			cfg := validConfig()
			cfg.Output.ConsoleFormat = format
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error, got nil")
			}
		})
	}
}

func TestValidate_AllowsKnownConsoleFormats(t *testing.T) {
	for _, format := range []string{"text", "json", "ndjson"} {
		t.Run(format, func(t *testing.T) {
			cfg := validConfig()
			cfg.Output.ConsoleFormat = format
			if err := cfg.Validate(); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidate_NormalizesConsoleFilterStatus(t *testing.T) {
	cfg := validConfig()
	cfg.Output.ConsoleFilterStatus = []string{" fail ", "Error"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !reflect.DeepEqual(cfg.Output.ConsoleFilterStatus, []string{"FAIL", "ERROR"}) {
		t.Fatalf("unexpected statuses: %v", cfg.Output.ConsoleFilterStatus)
	}

	cfg.Output.ConsoleFilterStatus = []string{"SKIPPED"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestValidate_InfersOutFormat(t *testing.T) {
	tests := []struct {
		out     string
		want    string
		wantErr bool
	}{
		{out: "verdicts.json", want: "json"},
		{out: "verdicts.NDJSON", want: "ndjson"},
		{out: "verdicts", wantErr: true},
		{out: "verdicts.csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.out, func(t *testing.T) {
			cfg := validConfig()
			cfg.Output.Out = tt.out
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Output.OutFormat != tt.want {
				t.Fatalf("want %q, got %q", tt.want, cfg.Output.OutFormat)
			}
		})
	}
}

func TestValidate_Storage(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
		want    string
	}{
		{name: "default memory", mutate: func(cfg *Config) {}, want: "memory"},
		{name: "normalized sqlite", mutate: func(cfg *Config) { cfg.Storage.Backend = " SQLite " }, want: "sqlite"},
		{name: "none", mutate: func(cfg *Config) { cfg.Storage.Backend = "none" }, want: "none"},
		{name: "sqlite without path", mutate: func(cfg *Config) {
			cfg.Storage.Backend = "sqlite"
			cfg.Storage.Path = " "
		}, wantErr: true},
		{name: "unknown backend", mutate: func(cfg *Config) { cfg.Storage.Backend = "postgres" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Storage.Backend != tt.want {
				t.Fatalf("want %q, got %q", tt.want, cfg.Storage.Backend)
			}
		})
	}
}

func TestValidate_RejectsInvalidRuntimeBounds(t *testing.T) {
	tests := []struct {
		name      string
		mutateCfg func(cfg *Config)
	}{
		{name: "negative_max_submissions", mutateCfg: func(cfg *Config) { cfg.Input.MaxSubmissions = -1 }},
		{name: "zero_concurrency", mutateCfg: func(cfg *Config) { cfg.Runtime.Concurrency = 0 }},
		{name: "negative_timeout", mutateCfg: func(cfg *Config) { cfg.Runtime.Timeout = -1 }},
		{name: "zero_registry_timeout", mutateCfg: func(cfg *Config) { cfg.Registry.Timeout = 0 }},
		{name: "zero_extract_timeout", mutateCfg: func(cfg *Config) { cfg.Extraction.Timeout = 0 }},
		{name: "bad_registry_url", mutateCfg: func(cfg *Config) { cfg.Registry.BaseURL = "ftp://example.org" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutateCfg(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error, got nil")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pubcheck.yaml")
	body := `
registry:
  mailto: ops@example.org
  timeout: 15s
extraction:
  timeout: 10m
storage:
  backend: sqlite
  path: /tmp/verdicts.db
rules:
  options:
    in_time:
      threshold: 48h
runtime:
  concurrency: 8
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := New()
	if err := LoadFile(path, cfg); err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if cfg.Registry.Mailto != "ops@example.org" || cfg.Registry.Timeout != 15*time.Second {
		t.Fatalf("unexpected registry config: %+v", cfg.Registry)
	}
	if cfg.Extraction.Timeout != 10*time.Minute || cfg.Extraction.PDFToText != "pdftotext" {
		t.Fatalf("unexpected extraction config: %+v", cfg.Extraction)
	}
	if cfg.Registry.BaseURL != DefaultRegistryURL {
		t.Fatalf("expected default base URL to be kept, got %q", cfg.Registry.BaseURL)
	}
	if cfg.Storage.Backend != "sqlite" || cfg.Storage.Path != "/tmp/verdicts.db" {
		t.Fatalf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Rules.Options["in_time"]["threshold"] != "48h" {
		t.Fatalf("unexpected rule options: %v", cfg.Rules.Options)
	}
	if cfg.Runtime.Concurrency != 8 || cfg.Runtime.Timeout != 5*time.Minute {
		t.Fatalf("unexpected runtime config: %+v", cfg.Runtime)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "unknown.yaml")
	if err := os.WriteFile(unknown, []byte("registry:\n  mailbox: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := LoadFile(filepath.Join(dir, "missing.yaml"), New()); err == nil {
		t.Fatal("expected error for missing file")
	}
	if err := LoadFile(unknown, New()); err == nil {
		t.Fatal("expected error for unknown key")
	}
	if err := LoadFile(empty, New()); err != nil {
		t.Fatalf("expected empty file to be accepted, got %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvCrossrefMailto, "env@example.org")
	t.Setenv(EnvStoragePath, "/data/pubcheck.db")

	cfg := New()
	ApplyEnvOverrides(cfg)
	if cfg.Registry.Mailto != "env@example.org" {
		t.Fatalf("unexpected mailto %q", cfg.Registry.Mailto)
	}
	if cfg.Storage.Path != "/data/pubcheck.db" {
		t.Fatalf("unexpected storage path %q", cfg.Storage.Path)
	}
}
