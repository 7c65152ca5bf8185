// Package flags defines canonical CLI flag names shared across the CLI and engine.
// Keeping these as constants helps avoid drift between Cobra flag wiring and other
// code paths that need to reference flags (e.g. config file overrides and the
// reproducibility command in reports).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Registry.Mailto, flags.FlagMailto, "", "...")
//	arg := "--" + flags.FlagMailto
package flags

const (
	// Global
	FlagConfig    = "config"
	FlagVerbose   = "verbose"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"

	// Input
	FlagInclude        = "include"
	FlagExclude        = "exclude"
	FlagMaxSubmissions = "max-submissions"
	FlagWatch          = "watch"

	// Rules
	FlagSet = "set"

	// Registry
	FlagCrossrefURL     = "crossref-url"
	FlagMailto          = "mailto"
	FlagRegistryTimeout = "registry-timeout"

	// Extraction
	FlagPDFToText      = "pdftotext"
	FlagExtractTimeout = "extract-timeout"

	// Storage
	FlagStore     = "store"
	FlagDB        = "db"
	FlagOlderThan = "older-than"
	FlagSchedule  = "schedule"

	// Verdict queries
	FlagFormat = "format"
	FlagKey    = "key"
	FlagStatus = "status"
	FlagSince  = "since"
	FlagLimit  = "limit"

	// Output
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagReport              = "report"
	FlagOut                 = "out"
	FlagOutFormat           = "out-format"
	FlagEmit                = "emit"
	FlagNoConsole           = "no-console"
	FlagMetricsOut          = "metrics-out"

	// Runtime
	FlagConcurrency    = "concurrency"
	FlagTimeout        = "timeout"
	FlagTolerateErrors = "tolerate-errors"
)
