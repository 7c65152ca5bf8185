package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pubcheck/internal/flags"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "pubcheck",
	Short: "Evaluate publication submissions against the compliance rules",
	Long: `pubcheck evaluates submitted publication records against a fixed, ordered set of
compliance rules and reports a pass/fail verdict with per-rule details.

Rules are evaluated in this order: files, in_time, founded_by, author_rights,
cc_licence. A submission is compliant only if every rule passes.

Examples:
	# Show available commands and global flags
	pubcheck --help

	# Check a directory of submission records
	pubcheck check ./inbox

	# List rules
	pubcheck rules list

	# Show the latest stored verdict for a DOI
	pubcheck verdicts show 10.1016/j.physletb.2021.136000 --db pubcheck.db

	# Print build info
	pubcheck version

Output:
	By default, commands write human-readable output to stdout.
	Logs go to stderr (see --log-level and --log-format).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd.ErrOrStderr(), logLevel, logFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, flags.FlagConfig, "", "Path to a YAML configuration file (flags override file values)")
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (prints every registry call and full error details)")
	rootCmd.PersistentFlags().StringVar(&logLevel, flags.FlagLogLevel, "warn", "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&logFormat, flags.FlagLogFormat, "text", "Log format: text|json")
}

// setupLogging installs the default slog handler on w.
func setupLogging(w io.Writer, level, format string) error {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "", "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return fmt.Errorf("unsupported --log-level: %s (must be one of: debug, info, warn, error)", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("unsupported --log-format: %s (must be one of: text, json)", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
