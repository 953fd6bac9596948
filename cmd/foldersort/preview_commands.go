package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"foldersort/internal/classify"
	"foldersort/internal/tree"
)

type classification struct {
	File     string `json:"file"`
	Category string `json:"category"`
	Type     string `json:"type"`
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "classify NAME...",
		Short: "Show the folders each filename would be sorted into",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rules, err := cfg.RuleSet()
			if err != nil {
				return err
			}
			classifier := classify.New(rules)

			results := make([]classification, 0, len(args))
			for _, name := range args {
				category, fileType := classifier.Classify(name)
				results = append(results, classification{File: name, Category: category, Type: fileType})
			}
			if jsonOutput {
				return writeJSON(cmd, results)
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.File, r.Category, r.Type})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{left("File"), left("Category"), left("Type")}, rows,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "plan DIR",
		Short: "Preview how the files in DIR would be sorted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.planRunner()
			if err != nil {
				return err
			}
			t, err := runner.Plan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			entries := t.Entries()
			if jsonOutput {
				return writeJSON(cmd, struct {
					Root    string      `json:"root"`
					Stats   tree.Stats  `json:"stats"`
					Entries []planEntry `json:"entries"`
				}{Root: args[0], Stats: t.Stats(), Entries: planEntries(entries)})
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "Nothing to sort in %s\n", args[0])
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Category, e.Type, e.File})
			}
			fmt.Fprintln(out, renderTable(
				[]column{left("Category"), left("Type"), left("File")}, rows,
			))
			stats := t.Stats()
			fmt.Fprintf(out, "%d files into %d categories (%d type folders)\n", stats.Files, stats.Categories, stats.Types)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

type planEntry struct {
	Category string `json:"category"`
	Type     string `json:"type"`
	File     string `json:"file"`
}

func planEntries(entries []tree.Entry) []planEntry {
	out := make([]planEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, planEntry{Category: e.Category, Type: e.Type, File: e.File})
	}
	return out
}
