package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mintwatch/internal/ipc"
)

const defaultListLimit = 20

func newMintedCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "minted",
		Short: "List minted assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Minted(limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Records) == 0 {
					fmt.Fprintln(stdout, "Nothing minted yet")
					return nil
				}
				now := time.Now()
				rows := make([][]string, 0, len(resp.Records))
				for _, rec := range resp.Records {
					rows = append(rows, []string{
						fmt.Sprintf("%d", rec.ID),
						rec.Folder,
						rec.Name,
						rec.MintAddress,
						rec.Network,
						humanize.RelTime(rec.MintedAt, now, "ago", "from now"),
					})
				}
				fmt.Fprintln(stdout, renderTable([]column{
					{header: "ID", align: alignRight},
					{header: "Folder", maxWidth: 32},
					{header: "Name", maxWidth: 32},
					{header: "Mint address"},
					{header: "Network"},
					{header: "Minted"},
				}, rows))
				fmt.Fprintf(stdout, "Showing %d of %s minted\n", len(resp.Records), humanize.Comma(int64(resp.Total)))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultListLimit, "Most recent records to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")
	return cmd
}

func newFailuresCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "failures",
		Short: "List folders that failed, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Failures(limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Failures) == 0 {
					fmt.Fprintln(stdout, "No failures recorded")
					return nil
				}
				now := time.Now()
				rows := make([][]string, 0, len(resp.Failures))
				for _, f := range resp.Failures {
					rows = append(rows, []string{
						f.Folder,
						f.State,
						f.Kind,
						humanize.RelTime(f.FailedAt, now, "ago", "from now"),
						f.Message,
					})
				}
				fmt.Fprintln(stdout, renderTable([]column{
					{header: "Folder", maxWidth: 32},
					{header: "State"},
					{header: "Kind"},
					{header: "Failed"},
					{header: "Message", maxWidth: 60},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultListLimit, "Most recent failures to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print failures as JSON")
	return cmd
}
