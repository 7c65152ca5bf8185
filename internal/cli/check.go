package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pubcheck/internal/config"
	"pubcheck/internal/engine"
	"pubcheck/internal/flags"
)

var cfg = config.New()

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Evaluate submission records against the compliance rules",
	Long: `Evaluate submission records and report one verdict per submission.

Each path is a submission file (a JSON object or an array of objects) or a
directory, which is walked recursively for *.json files.

Every rule runs for every submission. Derived data (the document text and the
Crossref creation date) is computed at most once per submission. A rule that
cannot be evaluated is reported as ERROR and does not stop the other rules.

Configuration:
	Values are taken from (lowest to highest precedence): built-in defaults,
	the --config file, environment variables (PUBCHECK_CROSSREF_MAILTO,
	PUBCHECK_STORAGE_PATH), then flags given on the command line.

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown compliance report
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events with a
	"type" field (run.started, verdict, run.finished).

Exit codes:
	0 = every submission is compliant
	1 = at least one submission is non-compliant
	2 = partial failure (some rules errored)
	3 = fatal error (check did not run)

Examples:
	# Check one record
	pubcheck check submission.json

	# Check an inbox and keep verdicts in SQLite
	pubcheck check ./inbox --store sqlite --db pubcheck.db

	# Relax the receipt window and stream machine-readable events
	pubcheck check ./inbox --set in_time.threshold=48h --no-console --emit ndjson

	# Keep evaluating new files as they arrive
	pubcheck check ./inbox --watch
`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 && cmd.Flags().NFlag() == 0 && configPath == "" {
			_ = cmd.Help()
			return
		}

		if err := loadCheckConfig(cmd, args, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		eng, err := engine.FromConfig(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		code := eng.Run(ctx, cfg)
		stop()
		if err := eng.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing verdict store: %v\n", err)
		}
		os.Exit(code)
	},
}

// loadCheckConfig merges the config file and environment into dst. Flags the user
// set explicitly keep their values; positional args replace file paths.
func loadCheckConfig(cmd *cobra.Command, args []string, dst *config.Config) error {
	src := config.New()
	if configPath != "" {
		if err := config.LoadFile(configPath, src); err != nil {
			return err
		}
	}
	config.ApplyEnvOverrides(src)

	applyFileConfig(cmd, dst, src)

	if len(args) > 0 {
		dst.Input.Paths = args
	} else {
		dst.Input.Paths = src.Input.Paths
	}
	return nil
}

// fileOverrides maps each check flag to the config field it controls. File and
// environment values apply only when the flag was not given.
var fileOverrides = []struct {
	flag  string
	apply func(dst, src *config.Config)
}{
	{flags.FlagInclude, func(d, s *config.Config) { d.Input.Include = s.Input.Include }},
	{flags.FlagExclude, func(d, s *config.Config) { d.Input.Exclude = s.Input.Exclude }},
	{flags.FlagMaxSubmissions, func(d, s *config.Config) { d.Input.MaxSubmissions = s.Input.MaxSubmissions }},
	{flags.FlagWatch, func(d, s *config.Config) { d.Input.Watch = s.Input.Watch }},
	{flags.FlagCrossrefURL, func(d, s *config.Config) { d.Registry.BaseURL = s.Registry.BaseURL }},
	{flags.FlagMailto, func(d, s *config.Config) { d.Registry.Mailto = s.Registry.Mailto }},
	{flags.FlagRegistryTimeout, func(d, s *config.Config) { d.Registry.Timeout = s.Registry.Timeout }},
	{flags.FlagPDFToText, func(d, s *config.Config) { d.Extraction.PDFToText = s.Extraction.PDFToText }},
	{flags.FlagExtractTimeout, func(d, s *config.Config) { d.Extraction.Timeout = s.Extraction.Timeout }},
	{flags.FlagStore, func(d, s *config.Config) { d.Storage.Backend = s.Storage.Backend }},
	{flags.FlagDB, func(d, s *config.Config) { d.Storage.Path = s.Storage.Path }},
	{flags.FlagConsoleFormat, func(d, s *config.Config) { d.Output.ConsoleFormat = s.Output.ConsoleFormat }},
	{flags.FlagConsoleFilterStatus, func(d, s *config.Config) { d.Output.ConsoleFilterStatus = s.Output.ConsoleFilterStatus }},
	{flags.FlagReport, func(d, s *config.Config) { d.Output.Report = s.Output.Report }},
	{flags.FlagOut, func(d, s *config.Config) { d.Output.Out = s.Output.Out }},
	{flags.FlagOutFormat, func(d, s *config.Config) { d.Output.OutFormat = s.Output.OutFormat }},
	{flags.FlagEmit, func(d, s *config.Config) { d.Output.Emit = s.Output.Emit }},
	{flags.FlagNoConsole, func(d, s *config.Config) { d.Output.NoConsole = s.Output.NoConsole }},
	{flags.FlagMetricsOut, func(d, s *config.Config) { d.Output.MetricsOut = s.Output.MetricsOut }},
	{flags.FlagConcurrency, func(d, s *config.Config) { d.Runtime.Concurrency = s.Runtime.Concurrency }},
	{flags.FlagTimeout, func(d, s *config.Config) { d.Runtime.Timeout = s.Runtime.Timeout }},
	{flags.FlagTolerateErrors, func(d, s *config.Config) { d.Runtime.TolerateErrors = s.Runtime.TolerateErrors }},
}

func applyFileConfig(cmd *cobra.Command, dst, src *config.Config) {
	for _, o := range fileOverrides {
		if cmd != nil && cmd.Flags().Changed(o.flag) {
			continue
		}
		o.apply(dst, src)
	}

	// No flags for these; --set entries are merged on top of Rules.Options.
	dst.Rules.Options = src.Rules.Options
	dst.Storage.RetentionMaxAge = src.Storage.RetentionMaxAge
	dst.Storage.PruneSchedule = src.Storage.PruneSchedule
}

func init() {
	rootCmd.AddCommand(checkCmd)

	// MAINTAINER NOTE: If you add/change/remove any check-affecting flags here,
	// keep fileOverrides above and the YAML keys in internal/config in sync.

	// Input
	checkCmd.Flags().StringSliceVar(&cfg.Input.Include, flags.FlagInclude, nil, "Include DOI pattern(s) (repeatable; comma-separated accepted). Go path.Match style, case-insensitive")
	checkCmd.Flags().StringSliceVar(&cfg.Input.Exclude, flags.FlagExclude, nil, "Exclude DOI pattern(s) (repeatable; comma-separated accepted). Same matching rules as --include")
	checkCmd.Flags().IntVar(&cfg.Input.MaxSubmissions, flags.FlagMaxSubmissions, 0, "Maximum number of submissions to evaluate (0 = unlimited)")
	checkCmd.Flags().BoolVar(&cfg.Input.Watch, flags.FlagWatch, false, "Keep running and evaluate submission files as they appear in the given directories")

	// Rules
	checkCmd.Flags().StringArrayVar(&cfg.Rules.Set, flags.FlagSet, nil, "Per-rule option as ruleID.option=value (repeatable)")

	// Registry
	checkCmd.Flags().StringVar(&cfg.Registry.BaseURL, flags.FlagCrossrefURL, cfg.Registry.BaseURL, "Crossref REST API base URL")
	checkCmd.Flags().StringVar(&cfg.Registry.Mailto, flags.FlagMailto, "", "Contact address sent to Crossref (polite pool)")
	checkCmd.Flags().DurationVar(&cfg.Registry.Timeout, flags.FlagRegistryTimeout, cfg.Registry.Timeout, "Timeout for a single registry lookup")

	// Extraction
	checkCmd.Flags().StringVar(&cfg.Extraction.PDFToText, flags.FlagPDFToText, cfg.Extraction.PDFToText, "pdftotext executable used for text extraction")
	checkCmd.Flags().DurationVar(&cfg.Extraction.Timeout, flags.FlagExtractTimeout, cfg.Extraction.Timeout, "Timeout for downloading and extracting one document")

	// Storage
	checkCmd.Flags().StringVar(&cfg.Storage.Backend, flags.FlagStore, cfg.Storage.Backend, "Verdict store: memory|sqlite|none")
	checkCmd.Flags().StringVar(&cfg.Storage.Path, flags.FlagDB, cfg.Storage.Path, "SQLite database path for --store=sqlite")
	checkCmd.Flags().BoolVar(&cfg.Runtime.TolerateErrors, flags.FlagTolerateErrors, false, "Persist verdicts even when some rules errored")

	// Output
	checkCmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson (default: text)")
	checkCmd.Flags().StringSliceVar(&cfg.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Filter console output by verdict status (PASS, FAIL, ERROR). Comma-separated.")
	checkCmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	checkCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	checkCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	checkCmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	checkCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out/--report)")
	checkCmd.Flags().StringVar(&cfg.Output.MetricsOut, flags.FlagMetricsOut, "", "Write Prometheus metrics (text format) to this path after the run")

	// Runtime
	checkCmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Submissions evaluated in parallel")
	checkCmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout (ignored with --watch)")
}
