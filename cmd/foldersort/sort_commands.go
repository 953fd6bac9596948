package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"foldersort/internal/archive"
	"foldersort/internal/fileutil"
	"foldersort/internal/history"
	"foldersort/internal/sorter"
	"foldersort/internal/staging"
	"foldersort/internal/workflow"
)

// errRunFailed is returned after the summary has been printed so the process
// exits non-zero without repeating the details.
var errRunFailed = errors.New("sort finished with errors")

func newSortCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "sort DIR",
		Short: "Sort the files directly inside DIR into category folders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(runner *workflow.Runner, _ *history.Store) error {
				result, err := runner.SortDirectory(cmd.Context(), args[0])
				if result != nil {
					if writeErr := printResult(cmd, result, jsonOutput); writeErr != nil {
						return writeErr
					}
				}
				if err != nil {
					return err
				}
				if workflow.Failed(result.Report) {
					return errRunFailed
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run result as JSON")
	return cmd
}

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "archive IN.zip",
		Short: "Sort the contents of a ZIP archive into a new archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if !strings.EqualFold(filepath.Ext(input), ".zip") {
				return fmt.Errorf("%s is not a ZIP archive", input)
			}
			name := archive.SecureFilename(filepath.Base(input))
			if name == "" || archive.StemName(name) == "" {
				return fmt.Errorf("%s has no usable file name", input)
			}
			target := strings.TrimSpace(outputPath)
			if target == "" {
				target = filepath.Join(filepath.Dir(input), workflow.OutputName(name))
			}
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("output %s already exists", target)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withRunner(func(runner *workflow.Runner, _ *history.Store) error {
				job, err := staging.NewJob(cfg.Paths.WorkDir)
				if err != nil {
					return err
				}
				defer job.Cleanup()

				upload := job.UploadPath(name)
				if err := fileutil.CopyFileVerified(input, upload); err != nil {
					return fmt.Errorf("stage archive: %w", err)
				}
				result, err := runner.SortArchive(cmd.Context(), job, upload, name)
				if err != nil {
					if result != nil {
						_ = printResult(cmd, result, jsonOutput)
					}
					return err
				}
				if err := fileutil.CopyFileVerified(result.Output, target); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				result.Output = target
				if err := printResult(cmd, result, jsonOutput); err != nil {
					return err
				}
				if workflow.Failed(result.Report) {
					return errRunFailed
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination for the sorted archive (default: Sorted_<name>.zip next to the input)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run result as JSON")
	return cmd
}

func printResult(cmd *cobra.Command, result *workflow.Result, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(cmd, result)
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintf(out, "Run %s\n", result.RunID)
	fmt.Fprintln(out, renderStatusLine("Root", statusInfo, result.Root, colorize))
	fmt.Fprintln(out, renderStatusLine("Status", runStatusKind(result.Status), result.Status, colorize))
	if rep := result.Report; rep != nil {
		fmt.Fprintln(out, renderStatusLine("Moved", statusInfo, fmt.Sprintf("%d of %d", rep.Moved, rep.Planned), colorize))
		if rep.Directories > 0 {
			fmt.Fprintln(out, renderStatusLine("Folders created", statusInfo, fmt.Sprintf("%d", rep.Directories), colorize))
		}
		for _, f := range rep.Failures {
			fmt.Fprintln(out, renderStatusLine(failureLabel(f), severityKind(f.Severity), f.Message, colorize))
		}
	}
	if result.Output != "" {
		fmt.Fprintln(out, renderStatusLine("Output", statusInfo, result.Output, colorize))
	}
	if result.Artifact != nil {
		fmt.Fprintln(out, renderStatusLine("Published", statusOK, result.Artifact.Bucket+"/"+result.Artifact.Key, colorize))
	}
	return nil
}

func failureLabel(f sorter.Failure) string {
	if f.File != "" {
		return f.File
	}
	if f.Type != "" {
		return f.Category + "/" + f.Type
	}
	return f.Category
}
