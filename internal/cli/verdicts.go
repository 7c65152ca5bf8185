package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pubcheck/internal/config"
	"pubcheck/internal/flags"
	"pubcheck/internal/output"
	"pubcheck/internal/store"
	"pubcheck/internal/store/retention"
)

var (
	verdictsDB     string
	verdictsFormat string

	verdictsListKey    string
	verdictsListStatus string
	verdictsListSince  time.Duration
	verdictsListLimit  int

	pruneOlderThan time.Duration
	pruneSchedule  string
)

var verdictsCmd = &cobra.Command{
	Use:   "verdicts",
	Short: "Inspect and prune stored verdicts",
	Long: `Inspect and prune verdicts persisted by "pubcheck check --store sqlite".

The database path is taken from --db, then PUBCHECK_STORAGE_PATH, then
storage.path in the --config file, then pubcheck.db.

Examples:
  # Latest verdict for a DOI or record ID
  pubcheck verdicts show 10.1016/j.physletb.2021.136000

  # Failed verdicts of the last day
  pubcheck verdicts list --status fail --since 24h

  # Delete verdicts older than 30 days
  pubcheck verdicts prune --older-than 720h
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var verdictsShowCmd = &cobra.Command{
	Use:   "show <record-id|doi>",
	Short: "Show the latest verdict for a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openVerdictStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := st.Latest(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no verdict found for %s", args[0])
		}
		if err != nil {
			return err
		}
		return printVerdicts(cmd.OutOrStdout(), verdictsFormat, []*store.Record{rec})
	},
}

var verdictsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored verdicts, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := buildVerdictQuery(verdictsListKey, verdictsListStatus, verdictsListSince, verdictsListLimit, time.Now())
		if err != nil {
			return err
		}

		st, _, err := openVerdictStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		recs, err := st.List(cmd.Context(), q)
		if err != nil {
			return err
		}
		if len(recs) == 0 && verdictsFormat == "text" {
			fmt.Fprintln(cmd.OutOrStdout(), "No verdicts found.")
			return nil
		}
		return printVerdicts(cmd.OutOrStdout(), verdictsFormat, recs)
	},
}

var verdictsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete verdicts older than the retention window",
	Long: `Delete verdicts older than the retention window.

Without --schedule the store is pruned once. With --schedule (standard five-field
cron syntax) pubcheck keeps running and prunes on every tick until interrupted.

Examples:
  pubcheck verdicts prune --older-than 720h
  pubcheck verdicts prune --schedule "0 3 * * *"
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, vc, err := openVerdictStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		maxAge := vc.Storage.RetentionMaxAge
		if cmd.Flags().Changed(flags.FlagOlderThan) {
			maxAge = pruneOlderThan
		}
		pruner := retention.NewPruner(st, maxAge)

		if !cmd.Flags().Changed(flags.FlagSchedule) {
			deleted, err := pruner.Prune(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d verdicts older than %s.\n", deleted, maxAge)
			return nil
		}

		schedule := strings.TrimSpace(pruneSchedule)
		if schedule == "" {
			schedule = vc.Storage.PruneSchedule
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sched := retention.NewScheduler(pruner, schedule)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		if next := sched.NextRun(); next != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Pruning verdicts older than %s on %q (next run %s).\n", maxAge, schedule, next.Format(time.RFC3339))
		}
		<-ctx.Done()
		sched.Stop()
		return nil
	},
}

// openVerdictStore opens the SQLite verdict store. The memory backend keeps nothing
// between runs, so the verdicts commands always read SQLite.
func openVerdictStore(cmd *cobra.Command) (store.Store, *config.Config, error) {
	vc := config.New()
	if configPath != "" {
		if err := config.LoadFile(configPath, vc); err != nil {
			return nil, nil, err
		}
	}
	config.ApplyEnvOverrides(vc)
	if cmd != nil && cmd.Flags().Changed(flags.FlagDB) {
		vc.Storage.Path = verdictsDB
	}
	vc.Storage.Backend = "sqlite"
	if err := vc.Storage.Validate(); err != nil {
		return nil, nil, err
	}

	if _, err := os.Stat(vc.Storage.Path); err != nil {
		return nil, nil, fmt.Errorf("verdict database %q: %w", vc.Storage.Path, err)
	}
	st, err := store.NewSQLiteStore(vc.Storage.Path)
	if err != nil {
		return nil, nil, err
	}
	return st, vc, nil
}

func buildVerdictQuery(key, status string, since time.Duration, limit int, now time.Time) (store.Query, error) {
	q := store.Query{Key: strings.TrimSpace(key), Limit: limit}
	if limit < 0 {
		return q, errors.New("--limit must be >= 0")
	}
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "":
	case "pass":
		passed := true
		q.Passed = &passed
	case "fail":
		passed := false
		q.Passed = &passed
	default:
		return q, fmt.Errorf("unsupported --status: %s (must be one of: pass, fail)", status)
	}
	if since < 0 {
		return q, errors.New("--since must be >= 0")
	}
	if since > 0 {
		q.Since = now.Add(-since)
	}
	return q, nil
}

func printVerdicts(w io.Writer, format string, recs []*store.Record) error {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "text", "json", "ndjson":
	default:
		return fmt.Errorf("unsupported --format: %s (must be one of: text, json, ndjson)", format)
	}

	sink := output.NewConsoleSink(w, format)
	faint := color.New(color.Faint)
	for _, rec := range recs {
		if format == "text" {
			faint.Fprintf(w, "record %s, evaluated %s\n", rec.RecordID, rec.EvaluatedAt.Format(time.RFC3339))
		}
		if err := sink.Write(rec); err != nil {
			return err
		}
	}
	return sink.Close()
}

func init() {
	rootCmd.AddCommand(verdictsCmd)
	verdictsCmd.PersistentFlags().StringVar(&verdictsDB, flags.FlagDB, config.DefaultStoragePath, "SQLite database path")
	verdictsCmd.PersistentFlags().StringVar(&verdictsFormat, flags.FlagFormat, "text", "Output format: text|json|ndjson")

	verdictsCmd.AddCommand(verdictsShowCmd)

	verdictsCmd.AddCommand(verdictsListCmd)
	verdictsListCmd.Flags().StringVar(&verdictsListKey, flags.FlagKey, "", "Only verdicts for this record ID or DOI")
	verdictsListCmd.Flags().StringVar(&verdictsListStatus, flags.FlagStatus, "", "Only verdicts with this outcome: pass|fail")
	verdictsListCmd.Flags().DurationVar(&verdictsListSince, flags.FlagSince, 0, "Only verdicts evaluated within this duration (e.g. 24h)")
	verdictsListCmd.Flags().IntVar(&verdictsListLimit, flags.FlagLimit, 20, "Maximum number of verdicts (0 = unlimited)")

	verdictsCmd.AddCommand(verdictsPruneCmd)
	verdictsPruneCmd.Flags().DurationVar(&pruneOlderThan, flags.FlagOlderThan, config.DefaultRetentionMaxAge, "Delete verdicts evaluated longer ago than this")
	verdictsPruneCmd.Flags().StringVar(&pruneSchedule, flags.FlagSchedule, "", "Cron schedule for continuous pruning (empty = storage.prune_schedule)")
}
