package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipforge/internal/api"
	"clipforge/internal/deps"
	"clipforge/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Reach for the running daemon first; fall back to a local view.
			if client, err := ctx.dialClient(); err == nil {
				if status, apiErr := client.Status(cmd.Context()); apiErr == nil {
					if ctx.jsonOutput() {
						return writeJSON(cmd, status)
					}
					return printDaemonStatus(cmd, *status)
				}
			}

			return ctx.withStore(func(store *queue.Store) error {
				clipStats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				exportStats, err := store.ExportStats(cmd.Context())
				if err != nil {
					return err
				}
				offline := api.DaemonStatus{
					Workflow: api.WorkflowStatus{
						ClipStats:   api.MergeStats(clipStats),
						ExportStats: api.MergeStats(exportStats),
					},
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, offline)
				}
				return printDaemonStatus(cmd, offline)
			})
		},
	}
}

func printDaemonStatus(cmd *cobra.Command, status api.DaemonStatus) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("ClipForge Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	runningKind := statusError
	runningDetail := "not running"
	if status.Running {
		runningKind = statusOK
		runningDetail = fmt.Sprintf("pid %d", status.PID)
	}
	fmt.Fprintln(out, renderStatusLine("Daemon", runningKind, runningDetail, colorize))
	if status.QueueDBPath != "" {
		fmt.Fprintln(out, renderStatusLine("Queue DB", statusInfo, status.QueueDBPath, colorize))
	}
	if status.Workflow.LastError != "" {
		fmt.Fprintln(out, renderStatusLine("Last error", statusError, status.Workflow.LastError, colorize))
	}

	for _, health := range status.Workflow.StageHealth {
		kind := statusOK
		detail := "ready"
		if !health.Ready {
			kind = statusWarn
			detail = health.Detail
		}
		fmt.Fprintln(out, renderStatusLine("Stage "+health.Name, kind, detail, colorize))
	}

	for _, dep := range deps.CheckBinaries(deps.Defaults()) {
		kind := statusOK
		detail := dep.Command
		if !dep.Available {
			kind = statusWarn
			if !dep.Optional {
				kind = statusError
			}
			detail = dep.Detail
		}
		fmt.Fprintln(out, renderStatusLine(dep.Name, kind, detail, colorize))
	}

	fmt.Fprintln(out)
	rows := make([][]string, 0, len(queue.AllStatuses()))
	for _, s := range queue.AllStatuses() {
		key := string(s)
		rows = append(rows, []string{
			key,
			fmt.Sprintf("%d", status.Workflow.ClipStats[key]),
			fmt.Sprintf("%d", status.Workflow.ExportStats[key]),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Status", "Clips", "Exports"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))
	return nil
}
