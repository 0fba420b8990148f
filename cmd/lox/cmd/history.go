package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/msto63/lox/foundation/utils/stringx"
	"github.com/msto63/lox/internal/store"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyKind   string
	historyOrigin string
	historyFailed bool
	historyFormat string

	pruneOlderThan time.Duration
	pruneVacuum    bool

	logsLevel string
	logsSince time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long: `List runs recorded by --record or by the server.

Examples:
  lox history --limit 10
  lox history --kind parse --failed
  lox history show <run-id>
  lox history logs --level warn
  lox history prune --older-than 168h`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openStore(); err != nil {
			return err
		}
		run, err := app.store.GetRun(commandContext(cmd), args[0])
		if err != nil {
			return err
		}
		if historyFormat != "text" {
			return writeStructured(cmd.OutOrStdout(), historyFormat, run)
		}
		printRun(cmd.OutOrStdout(), run)
		return nil
	},
}

var historyLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "List stored log entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openStore(); err != nil {
			return err
		}
		filter := store.LogFilter{Level: logsLevel, Limit: historyLimit}
		if logsSince > 0 {
			filter.Since = time.Now().Add(-logsSince)
		}
		entries, err := app.store.ListLogs(commandContext(cmd), filter)
		if err != nil {
			return err
		}
		if historyFormat != "text" {
			return writeStructured(cmd.OutOrStdout(), historyFormat, entries)
		}
		out := cmd.OutOrStdout()
		for _, e := range entries {
			line := fmt.Sprintf("%s %-5s %s", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Level, e.Message)
			if e.Error != "" {
				line += ": " + e.Error
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the history store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openStore(); err != nil {
			return err
		}
		stats, err := app.store.Stats(commandContext(cmd))
		if err != nil {
			return err
		}
		if historyFormat != "text" {
			return writeStructured(cmd.OutOrStdout(), historyFormat, stats)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "runs:        %d (%d failed)\n", stats.Runs, stats.FailedRuns)
		fmt.Fprintf(out, "diagnostics: %d\n", stats.Diagnostics)
		fmt.Fprintf(out, "logs:        %d\n", stats.Logs)
		return nil
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs and logs older than a duration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openStore(); err != nil {
			return err
		}
		olderThan := pruneOlderThan
		if olderThan <= 0 {
			olderThan = time.Duration(app.cfg.Store.RetentionDays) * 24 * time.Hour
		}
		ctx := commandContext(cmd)
		n, err := app.store.Prune(ctx, olderThan)
		if err != nil {
			return err
		}
		if pruneVacuum {
			if err := app.store.Vacuum(ctx); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d rows older than %s\n", n, olderThan)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd, historyLogsCmd, historyStatsCmd, historyPruneCmd)

	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", 20, "maximum entries")
	historyCmd.PersistentFlags().StringVarP(&historyFormat, "format", "f", "text", "output format: text, json, yaml")
	historyCmd.Flags().StringVar(&historyKind, "kind", "", "only scan or parse runs")
	historyCmd.Flags().StringVar(&historyOrigin, "origin", "", "only runs from cli, repl, grpc or http")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "only runs with diagnostics")

	historyPruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "age cutoff (default: store.retention_days)")
	historyPruneCmd.Flags().BoolVar(&pruneVacuum, "vacuum", false, "compact the database afterwards")

	historyLogsCmd.Flags().StringVar(&logsLevel, "level", "", "minimum level")
	historyLogsCmd.Flags().DurationVar(&logsSince, "since", 0, "only entries newer than this")
}

func runHistory(cmd *cobra.Command, args []string) error {
	kind := store.RunKind(historyKind)
	if kind != "" && kind != store.RunKindScan && kind != store.RunKindParse {
		return &exitError{code: ExitUsage, err: fmt.Errorf("unknown kind %q", historyKind)}
	}
	if err := openStore(); err != nil {
		return err
	}

	runs, err := app.store.ListRuns(commandContext(cmd), store.RunFilter{
		Kind:       kind,
		Origin:     historyOrigin,
		FailedOnly: historyFailed,
		Limit:      historyLimit,
	})
	if err != nil {
		return err
	}

	if historyFormat != "text" {
		return writeStructured(cmd.OutOrStdout(), historyFormat, runs)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs recorded")
		return nil
	}
	for _, r := range runs {
		status := "ok"
		if !r.OK {
			status = fmt.Sprintf("%d diag", len(r.Diagnostics))
		}
		fmt.Fprintf(out, "%s  %s  %-5s %-5s %-8s %s\n",
			r.ID[:8],
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Kind, r.Origin, status,
			stringx.Truncate(oneLine(r.Preview), 40, "..."))
	}
	return nil
}

func printRun(w io.Writer, r *store.Run) {
	fmt.Fprintf(w, "ID:        %s\n", r.ID)
	fmt.Fprintf(w, "Kind:      %s\n", r.Kind)
	fmt.Fprintf(w, "Time:      %s\n", r.Timestamp.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "Origin:    %s\n", r.Origin)
	if r.RequestID != "" {
		fmt.Fprintf(w, "Request:   %s\n", r.RequestID)
	}
	fmt.Fprintf(w, "Source:    %d bytes, sha256 %s\n", r.SourceBytes, r.SourceHash)
	fmt.Fprintf(w, "Tokens:    %d\n", r.TokenCount)
	fmt.Fprintf(w, "Duration:  %s\n", r.Duration)
	fmt.Fprintf(w, "Preview:   %s\n", oneLine(r.Preview))
	for _, d := range r.Diagnostics {
		fmt.Fprintf(w, "  %s\n", d.String())
	}
}

func oneLine(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r == '\n' || r == '\r' || r == '\t' {
			out[i] = ' '
		}
	}
	return string(out)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
