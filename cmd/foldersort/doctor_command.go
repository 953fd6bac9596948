package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"foldersort/internal/notifications"
	"foldersort/internal/preflight"
	"foldersort/internal/staging"
)

var errDoctorFailed = errors.New("one or more checks failed")

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var checkBind bool
	var sendTest bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, rules and storage before running",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			if checkBind {
				results = append(results, preflight.CheckBindAddress(cfg.Paths.APIBind))
			}

			for _, line := range renderSectionHeader("Checks", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, r := range results {
				fmt.Fprintln(out, renderStatusLine(r.Name, checkKind(r.Passed), r.Detail, colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Publishing", statusInfo, "enabled: "+yesNo(cfg.Publish.Enabled), colorize))
			notifyEnabled := cfg.Notifications.NtfyTopic != ""
			fmt.Fprintln(out, renderStatusLine("Notifications", statusInfo, "enabled: "+yesNo(notifyEnabled), colorize))
			if sendTest && notifyEnabled {
				result := preflight.Result{Name: "Test notification", Passed: true, Detail: "sent"}
				if err := notifications.New(cfg.Notifications).TestNotification(cmd.Context()); err != nil {
					result = preflight.Result{Name: "Test notification", Detail: err.Error()}
				}
				results = append(results, result)
				fmt.Fprintln(out, renderStatusLine(result.Name, checkKind(result.Passed), result.Detail, colorize))
			}

			dirs, err := staging.ListDirectories(cfg.Paths.WorkDir)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Staged jobs", statusWarn, err.Error(), colorize))
			} else {
				var total int64
				for _, d := range dirs {
					total += d.Size
				}
				kind := statusOK
				if len(dirs) > 0 {
					kind = statusInfo
				}
				fmt.Fprintln(out, renderStatusLine("Staged jobs", kind, fmt.Sprintf("%d (%s)", len(dirs), formatBytes(total)), colorize))
			}

			if !preflight.AllPassed(results) {
				return errDoctorFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkBind, "bind", false, "Also verify the API bind address is free")
	cmd.Flags().BoolVar(&sendTest, "notify", false, "Send a test notification when ntfy is configured")
	return cmd
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
