package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mintwatch/internal/ipc"
)

func newWatcherCommand(ctx *commandContext) *cobra.Command {
	watcherCmd := &cobra.Command{
		Use:   "watcher",
		Short: "Pause or resume inbox watching",
	}

	watcherCmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Resume watching the inbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.WatcherStart()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch {
				case resp.Message != "":
					fmt.Fprintln(out, resp.Message)
				case resp.Started:
					fmt.Fprintln(out, "Watcher started")
				default:
					fmt.Fprintln(out, "Watcher already running")
				}
				return nil
			})
		},
	})

	watcherCmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop watching; folders already in flight finish",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.WatcherStop()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !resp.Stopped {
					fmt.Fprintln(out, "Watcher was not running")
					return nil
				}
				fmt.Fprintln(out, "Watcher stopped")
				if resp.InFlight > 0 {
					fmt.Fprintf(out, "%d folder(s) still in flight will finish\n", resp.InFlight)
				}
				return nil
			})
		},
	})

	return watcherCmd
}
