package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/abdul-hamid-achik/shapespec/packages/core/config"
	"github.com/abdul-hamid-achik/shapespec/packages/history"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded run outcomes",
	Long: `Show the runs recorded by 'shapespec run --history <file>', newest first.
The database location comes from --history, SHAPESPEC_HISTORY or the
historyPath config setting.

Examples:
  shapespec history --history runs.db
  shapespec history --limit 5`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().StringVar(&historyFlag, "history", getEnvString("SHAPESPEC_HISTORY", ""), "SQLite file recording run outcomes (env: SHAPESPEC_HISTORY)")
	historyCmd.Flags().StringVar(&configFlag, "config", getEnvString("SHAPESPEC_CONFIG", ""), "Path to config file (env: SHAPESPEC_CONFIG)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to show (0 for all)")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	path := historyFlag
	if path == "" {
		cfg, err := config.LoadConfig(configFlag)
		if err != nil {
			return exitError(ExitConfigError, err)
		}
		path = cfg.HistoryPath
	}
	if path == "" {
		return exitError(ExitUsageError, errors.New("no history database configured (use --history)"))
	}

	store, err := history.Open(path)
	if err != nil {
		return exitError(ExitConfigError, err)
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	printRuns(cmd, runs)
	return nil
}

func printRuns(cmd *cobra.Command, runs []history.Run) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tRESULT\tSUITES\tDURATION\tRUN")
	for _, run := range runs {
		headline := green(run.Headline)
		if !run.Success {
			headline = red(run.Headline)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			headline,
			run.Suites,
			run.Duration.Round(time.Millisecond),
			run.ID,
		)
	}
	_ = w.Flush()
}
