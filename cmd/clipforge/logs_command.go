package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/apiclient"
	"clipforge/internal/logs"
)

// followWait stays below the API client's request timeout so follow polls
// return before the transport gives up.
const followWait = 8 * time.Second

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			if client, err := ctx.dialClient(); err == nil && client.Ping(cmd.Context()) == nil {
				return streamRemoteLogs(cmd, client, lines, follow)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logPath := filepath.Join(cfg.Paths.LogDir, "clipforge.log")
			return streamLocalLogs(cmd, logPath, lines, follow)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep polling for new lines")
	return cmd
}

func streamRemoteLogs(cmd *cobra.Command, client *apiclient.Client, lines int, follow bool) error {
	out := cmd.OutOrStdout()
	query := apiclient.LogQuery{Offset: -1, Limit: lines}
	for {
		resp, err := client.TailLogs(cmd.Context(), query)
		if err != nil {
			return err
		}
		for _, line := range resp.Lines {
			fmt.Fprintln(out, line)
		}
		if !follow {
			return nil
		}
		query = apiclient.LogQuery{Offset: resp.Offset, Follow: true, Wait: followWait}
		select {
		case <-cmd.Context().Done():
			return nil
		default:
		}
	}
}

func streamLocalLogs(cmd *cobra.Command, logPath string, lines int, follow bool) error {
	out := cmd.OutOrStdout()
	result, err := logs.Tail(cmd.Context(), logPath, logs.TailOptions{Offset: -1, Limit: lines})
	if err != nil {
		return err
	}
	for _, line := range result.Lines {
		fmt.Fprintln(out, line)
	}
	if !follow {
		return nil
	}
	offset := result.Offset
	for {
		result, err := logs.Tail(cmd.Context(), logPath, logs.TailOptions{Offset: offset, Follow: true, Wait: followWait})
		if err != nil {
			if cmd.Context().Err() != nil {
				return nil
			}
			return err
		}
		for _, line := range result.Lines {
			fmt.Fprintln(out, line)
		}
		offset = result.Offset
	}
}
