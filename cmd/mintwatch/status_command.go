package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mintwatch/internal/config"
	"mintwatch/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, watcher and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			client, dialErr := ctx.dialClient()
			if dialErr != nil {
				if asJSON {
					return dialErr
				}
				renderOffline(stdout, ctx.configValue(), dialErr, colorize)
				return nil
			}
			defer client.Close()

			resp, err := client.Status()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, resp)
			}
			renderStatus(stdout, resp, time.Now(), colorize)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	return cmd
}

func renderOffline(w io.Writer, cfg *config.Config, dialErr error, colorize bool) {
	lines := []string{renderStatusLine("Daemon", statusError, "Not running", colorize)}
	if cfg != nil {
		lines = append(lines,
			renderStatusLine("Inbox", statusInfo, cfg.Paths.InboxDir, colorize),
			renderStatusLine("Network", networkKind(cfg.Network.Cluster), cfg.Network.Cluster, colorize),
		)
	}
	printSection(w, "Daemon", colorize, lines...)
	fmt.Fprintln(w)
	fmt.Fprintln(w, dialErr)
}

func renderStatus(w io.Writer, resp *ipc.StatusResponse, now time.Time, colorize bool) {
	daemonLine := renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", resp.PID), colorize)
	if !resp.Running {
		daemonLine = renderStatusLine("Daemon", statusWarn, fmt.Sprintf("Idle (pid %d)", resp.PID), colorize)
	}
	watcherLine := renderStatusLine("Watcher", statusOK, "Active", colorize)
	if !resp.WatcherActive {
		watcherLine = renderStatusLine("Watcher", statusWarn, "Paused (resume with `mintwatch watcher start`)", colorize)
	}
	lines := []string{
		daemonLine,
		watcherLine,
		renderStatusLine("Inbox", statusInfo, resp.Inbox, colorize),
		renderStatusLine("Network", networkKind(resp.Network), resp.Network, colorize),
		renderStatusLine("Uptime", statusInfo, resp.Uptime.Round(time.Second).String(), colorize),
	}
	if resp.LogPath != "" {
		lines = append(lines, renderStatusLine("Log", statusInfo, resp.LogPath, colorize))
	}
	printSection(w, "Daemon", colorize, lines...)
	fmt.Fprintln(w)

	errorsKind := statusOK
	if resp.Stats.Errors > 0 {
		errorsKind = statusWarn
	}
	lines = []string{
		renderStatusLine("Minted", statusInfo, humanize.Comma(int64(resp.Stats.TotalMinted)), colorize),
		renderStatusLine("Processed", statusInfo, humanize.Comma(int64(resp.Stats.TotalProcessed)), colorize),
		renderStatusLine("Errors", errorsKind, humanize.Comma(int64(resp.Stats.Errors)), colorize),
		renderStatusLine("In flight", statusInfo, fmt.Sprintf("%d", resp.InFlight), colorize),
		renderStatusLine("Settling", statusInfo, fmt.Sprintf("%d", resp.PendingTimers), colorize),
		renderStatusLine("Remembered", statusInfo, fmt.Sprintf("%d", resp.Remembered), colorize),
	}
	if msg := strings.TrimSpace(resp.LastError); msg != "" {
		lines = append(lines, renderStatusLine("Last error", statusError, msg, colorize))
	}
	printSection(w, "Pipeline", colorize, lines...)
	fmt.Fprintln(w)

	printSection(w, "Folders", colorize)
	if len(resp.Tasks) == 0 {
		fmt.Fprintln(w, "No folders in progress")
		return
	}
	rows := make([][]string, 0, len(resp.Tasks))
	for _, task := range resp.Tasks {
		rows = append(rows, []string{
			task.Folder,
			string(task.State),
			humanize.RelTime(task.UpdatedAt, now, "ago", "from now"),
			task.RequestID,
		})
	}
	fmt.Fprintln(w, renderTable([]column{
		{header: "Folder", maxWidth: 40},
		{header: "State"},
		{header: "Updated"},
		{header: "Run"},
	}, rows))
}

func networkKind(cluster string) statusKind {
	if cluster == config.ClusterMainnet {
		return statusWarn
	}
	return statusInfo
}
