package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mintwatch/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check directories, storage, minter and notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			results := preflight.RunAll(cmd.Context(), cfg)
			lines := make([]string, 0, len(results)+1)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			notify := preflight.CheckNotificationsFromConfig(cfg)
			if cfg.Notifications.NtfyTopic == "" {
				lines = append(lines, renderStatusLine(notify.Name, statusInfo, notify.Detail, colorize))
			}
			printSection(stdout, "Preflight", colorize, lines...)

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d preflight checks failed", len(failed), len(results))
			}
			return nil
		},
	}
}
