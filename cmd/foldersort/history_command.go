package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"foldersort/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var keep int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List recorded runs, or show one run with its failures",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			if keep > 0 {
				removed, err := store.Prune(cmd.Context(), keep)
				if err != nil {
					return err
				}
				if !jsonOutput && removed > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d runs\n", removed)
				}
			}

			if len(args) == 1 {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, run)
				}
				printRun(cmd, run)
				return nil
			}

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.StartedAt.Local().Format(time.DateTime),
					run.Kind,
					run.Status,
					strconv.Itoa(run.Moved) + "/" + strconv.Itoa(run.Planned),
					strconv.Itoa(run.FailureCount),
					runLabel(run),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				left("Run"), left("Started"), left("Kind"), left("Status"),
				right("Moved"), right("Failures"), left("Root"),
			}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().IntVar(&keep, "prune", 0, "Delete all but the newest N runs first")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func runLabel(run history.Run) string {
	if run.Source != "" {
		return run.Source
	}
	return run.Root
}

func printRun(cmd *cobra.Command, run *history.Run) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintf(out, "Run %s\n", run.ID)
	fmt.Fprintln(out, renderStatusLine("Kind", statusInfo, run.Kind, colorize))
	fmt.Fprintln(out, renderStatusLine("Root", statusInfo, run.Root, colorize))
	if run.Source != "" {
		fmt.Fprintln(out, renderStatusLine("Source", statusInfo, run.Source, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Status", runStatusKind(run.Status), run.Status, colorize))
	fmt.Fprintln(out, renderStatusLine("Moved", statusInfo, fmt.Sprintf("%d of %d", run.Moved, run.Planned), colorize))
	fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, run.Duration().Round(time.Millisecond).String(), colorize))
	if run.ErrorMessage != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, run.ErrorMessage, colorize))
	}
	if run.ArtifactKey != "" {
		fmt.Fprintln(out, renderStatusLine("Artifact", statusInfo, run.ArtifactKey, colorize))
	}
	if len(run.Failures) == 0 {
		return
	}
	rows := make([][]string, 0, len(run.Failures))
	for _, f := range run.Failures {
		target := f.File
		if target == "" {
			target = f.Path
		}
		rows = append(rows, []string{f.Severity, f.Kind, target, f.Message})
	}
	fmt.Fprintln(out, renderTable(
		[]column{left("Severity"), left("Kind"), left("Target"), left("Message")}, rows,
	))
}
