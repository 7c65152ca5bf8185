package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect check
	// behavior, keep these in sync:
	// - CLI flags in internal/cli/check.go (and fileOverrides there)
	// - YAML keys documented in load.go
	Input      Input      `yaml:"input"`
	Rules      Rules      `yaml:"rules"`
	Registry   Registry   `yaml:"registry"`
	Extraction Extraction `yaml:"extraction"`
	Storage    Storage    `yaml:"storage"`
	Output     Output     `yaml:"output"`
	Runtime    Runtime    `yaml:"runtime"`
}

type Input struct {
	// Paths lists submission files and directories (positional args of `check`).
	// Directories are walked recursively for *.json files.
	Paths []string `yaml:"paths"`

	// Include filters submissions by primary DOI using Go path.Match style (see --include).
	// Matching is case-insensitive.
	Include []string `yaml:"include"`

	// Exclude filters submissions by primary DOI (see --exclude). Same matching rules as Include.
	Exclude []string `yaml:"exclude"`

	// MaxSubmissions limits how many submissions to evaluate (see --max-submissions). 0 means unlimited.
	MaxSubmissions int `yaml:"max_submissions"`

	// Watch keeps running and evaluates submission files as they appear in the
	// given directories (see --watch).
	Watch bool `yaml:"watch"`
}

type Rules struct {
	// Set provides per-rule option overrides from the CLI.
	// Entries are of the form ruleID.option=value (repeatable; see --set).
	Set []string `yaml:"-"`

	// Options holds per-rule options from the config file, keyed by rule ID.
	// --set entries take precedence.
	Options map[string]map[string]string `yaml:"options"`
}

type Registry struct {
	// BaseURL is the Crossref REST API root (see --crossref-url).
	BaseURL string `yaml:"base_url"`

	// Mailto is the contact address sent in the User-Agent (see --mailto,
	// PUBCHECK_CROSSREF_MAILTO).
	Mailto string `yaml:"mailto"`

	// Timeout bounds a single registry lookup (see --registry-timeout). Must be > 0.
	Timeout time.Duration `yaml:"timeout"`
}

type Extraction struct {
	// PDFToText is the pdftotext executable (see --pdftotext).
	PDFToText string `yaml:"pdftotext"`

	// Timeout bounds one document download plus its extraction (see
	// --extract-timeout). Must be > 0.
	Timeout time.Duration `yaml:"timeout"`
}

type Storage struct {
	// Backend selects where verdicts are persisted (see --store).
	// Allowed values: memory, sqlite, none.
	Backend string `yaml:"backend"`

	// Path is the SQLite database file (see --db, PUBCHECK_STORAGE_PATH).
	Path string `yaml:"path"`

	// RetentionMaxAge is the default age after which `verdicts prune` deletes verdicts.
	RetentionMaxAge time.Duration `yaml:"retention_max_age"`

	// PruneSchedule is a cron expression for `verdicts prune --schedule`.
	PruneSchedule string `yaml:"prune_schedule"`
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string `yaml:"console_format"`

	// ConsoleFilterStatus filters console output by result status (see --console-filter-status).
	// Allowed values: PASS, FAIL, ERROR.
	ConsoleFilterStatus []string `yaml:"console_filter_status"`

	// Report writes a Markdown report to this path (see --report).
	Report string `yaml:"report"`

	// Out writes structured output to this path (see --out).
	Out string `yaml:"out"`

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string `yaml:"out_format"`

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string `yaml:"emit"`

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool `yaml:"no_console"`

	// MetricsOut writes Prometheus metrics in text exposition format to this path
	// after the run (see --metrics-out).
	MetricsOut string `yaml:"metrics_out"`
}

type Runtime struct {
	// Concurrency controls how many submissions are evaluated in parallel (see --concurrency).
	// Must be >= 1. A single evaluation is always sequential.
	Concurrency int `yaml:"concurrency"`

	// Timeout is the global timeout for the run (see --timeout). Must be > 0.
	Timeout time.Duration `yaml:"timeout"`

	// TolerateErrors persists verdicts whose evaluation errored (see --tolerate-errors).
	TolerateErrors bool `yaml:"tolerate_errors"`

	// Verbose enables more detailed diagnostics (primarily for registry failures).
	Verbose bool `yaml:"-"`
}

const (
	DefaultRegistryURL     = "https://api.crossref.org"
	DefaultStoragePath     = "pubcheck.db"
	DefaultExtractTimeout  = 2 * time.Minute
	DefaultRetentionMaxAge = 30 * 24 * time.Hour
	DefaultPruneSchedule   = "0 3 * * *"
)

func New() *Config {
	return &Config{
		Registry: Registry{
			BaseURL: DefaultRegistryURL,
			Timeout: 10 * time.Second,
		},
		Extraction: Extraction{
			PDFToText: "pdftotext",
			Timeout:   DefaultExtractTimeout,
		},
		Storage: Storage{
			Backend:         "memory",
			Path:            DefaultStoragePath,
			RetentionMaxAge: DefaultRetentionMaxAge,
			PruneSchedule:   DefaultPruneSchedule,
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Concurrency: 4,
			Timeout:     5 * time.Minute,
		},
	}
}

func (c *Config) Validate() error {
	c.Input.Paths = trimList(c.Input.Paths)
	c.Input.Include = splitCommaList(c.Input.Include)
	c.Input.Exclude = splitCommaList(c.Input.Exclude)
	c.Rules.Set = trimList(c.Rules.Set)

	if len(c.Input.Paths) == 0 {
		return errors.New("at least one submission file or directory must be provided")
	}
	if c.Input.MaxSubmissions < 0 {
		return errors.New("--max-submissions must be >= 0")
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	for i, status := range c.Output.ConsoleFilterStatus {
		v := strings.ToUpper(strings.TrimSpace(status))
		if v != "PASS" && v != "FAIL" && v != "ERROR" {
			return fmt.Errorf("unsupported --console-filter-status value: %s (must be one of: PASS, FAIL, ERROR)", status)
		}
		c.Output.ConsoleFilterStatus[i] = v
	}

	for _, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v == "" {
			return errors.New("--emit must be one of: json, ndjson")
		}
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", v)
		}
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	if err := c.Registry.Validate(); err != nil {
		return err
	}
	if c.Extraction.Timeout <= 0 {
		return errors.New("--extract-timeout must be > 0")
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}

	// Runtime validation
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	// Rule option syntax validation (rule.option=value)
	if len(c.Rules.Set) > 0 {
		if _, err := ParseRuleOptionAssignments(c.Rules.Set); err != nil {
			return err
		}
	}

	return nil
}

func (r *Registry) Validate() error {
	r.BaseURL = strings.TrimRight(strings.TrimSpace(r.BaseURL), "/")
	if r.BaseURL == "" {
		r.BaseURL = DefaultRegistryURL
	}
	u, err := url.Parse(r.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid --crossref-url: %q", r.BaseURL)
	}
	r.Mailto = strings.TrimSpace(r.Mailto)
	if r.Timeout <= 0 {
		return errors.New("--registry-timeout must be > 0")
	}
	return nil
}

func (s *Storage) Validate() error {
	s.Backend = normalizeEnumValue(s.Backend)
	if s.Backend == "" {
		s.Backend = "memory"
	}
	switch s.Backend {
	case "memory", "none":
	case "sqlite":
		s.Path = strings.TrimSpace(s.Path)
		if s.Path == "" {
			return errors.New("--db must be set when --store=sqlite")
		}
	default:
		return fmt.Errorf("unsupported --store: %s (must be one of: memory, sqlite, none)", s.Backend)
	}
	if s.RetentionMaxAge < 0 {
		return errors.New("retention max age must be >= 0")
	}
	return nil
}

// RuleOptions merges per-rule options from the config file with --set overrides.
func (c *Config) RuleOptions() (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	for ruleID, opts := range c.Rules.Options {
		out[ruleID] = make(map[string]string, len(opts))
		for k, v := range opts {
			out[ruleID][k] = v
		}
	}
	overrides, err := ParseRuleOptionAssignments(c.Rules.Set)
	if err != nil {
		return nil, err
	}
	for ruleID, opts := range overrides {
		if _, ok := out[ruleID]; !ok {
			out[ruleID] = make(map[string]string)
		}
		for k, v := range opts {
			out[ruleID][k] = v
		}
	}
	return out, nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ParseRuleOptionAssignments parses values of the form "ruleID.option=value".
//
// Notes:
//   - Each entry is one assignment. Values may contain commas and dots
//     (e.g. "files.allow.dois=10.1/a,10.1/b" or a regular expression).
//   - This validates syntax only (no validation of rule IDs or option names).
//   - Empty values are allowed ("rule.option=").
func ParseRuleOptionAssignments(values []string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	for _, raw := range trimList(values) {
		left, value, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set entry %q: expected rule.option=value", raw)
		}
		value = strings.TrimSpace(value)
		ruleID, opt, ok := strings.Cut(strings.TrimSpace(left), ".")
		if !ok {
			return nil, fmt.Errorf("invalid --set entry %q: expected rule.option=value", raw)
		}
		ruleID = strings.TrimSpace(ruleID)
		opt = strings.TrimSpace(opt)
		if ruleID == "" || opt == "" {
			return nil, fmt.Errorf("invalid --set entry %q: expected non-empty rule and option", raw)
		}
		if _, ok := out[ruleID]; !ok {
			out[ruleID] = make(map[string]string)
		}
		out[ruleID][opt] = value
	}
	return out, nil
}

func trimList(values []string) []string {
	var out []string
	for _, v := range values {
		if p := strings.TrimSpace(v); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
