package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"clipforge/internal/api"
	"clipforge/internal/queue"
	"clipforge/internal/queueaccess"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the work queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueExportsCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueueAccess(cmd.Context(), func(access queueaccess.Access) error {
				stats, err := access.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, stats)
				}

				rows := make([][]string, 0, len(queue.AllStatuses()))
				for _, status := range queue.AllStatuses() {
					key := string(status)
					rows = append(rows, []string{
						key,
						strconv.Itoa(stats.Clips[key]),
						strconv.Itoa(stats.Exports[key]),
					})
				}
				table := renderTable(
					[]string{"Status", "Clips", "Exports"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked clips",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueueAccess(cmd.Context(), func(access queueaccess.Access) error {
				items, err := access.ListClips(cmd.Context(), listStatuses)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.ClipListResponse{Items: items})
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range api.SortClipsNewestFirst(items) {
					rows = append(rows, []string{
						item.ID,
						truncate(item.Title, 40),
						item.SourceType,
						item.Status,
						formatSeconds(item.Duration),
						item.Progress.Stage,
					})
				}
				table := renderTable(
					[]string{"ID", "Title", "Source", "Status", "Duration", "Stage"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (pending, processing, completed, failed)")
	return cmd
}

func newQueueExportsCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "exports",
		Short: "List export jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueueAccess(cmd.Context(), func(access queueaccess.Access) error {
				items, err := access.ListExports(cmd.Context(), listStatuses)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.ExportListResponse{Items: items})
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No export jobs")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						item.ID,
						item.ClipID,
						item.Format,
						item.StylePack,
						item.Status,
						item.OutputURL,
					})
				}
				table := renderTable(
					[]string{"ID", "Clip", "Format", "Style", "Status", "Output"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (pending, processing, completed, failed)")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	var exports bool

	cmd := &cobra.Command{
		Use:   "retry [id...]",
		Short: "Reset failed jobs back to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				var updated int64
				var err error
				if exports {
					updated, err = store.RetryFailedExports(cmd.Context(), args...)
				} else {
					updated, err = store.RetryFailedClips(cmd.Context(), args...)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d job(s) to pending\n", updated)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&exports, "exports", false, "Retry failed export jobs instead of clips")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var completed bool
	var failed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if completed && failed {
				return fmt.Errorf("--completed and --failed are mutually exclusive")
			}
			return ctx.withStore(func(store *queue.Store) error {
				var removed int64
				var err error
				switch {
				case completed:
					removed, err = store.ClearCompletedClips(cmd.Context())
				case failed:
					removed, err = store.ClearFailedClips(cmd.Context())
				default:
					removed, err = store.Clear(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d clip(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "Remove only completed clips")
	cmd.Flags().BoolVar(&failed, "failed", false, "Remove only failed clips")
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue database diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				summary, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				dbHealth, err := store.CheckHealth(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{
						"summary":  summary,
						"database": dbHealth,
					})
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Queue Health", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Database", boolKind(dbHealth.DatabaseExists && dbHealth.IntegrityCheck), dbHealth.DBPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Schema", statusInfo, dbHealth.SchemaVersion, colorize))
				fmt.Fprintln(out, renderStatusLine("Clips", statusInfo, fmt.Sprintf("%d total (%d pending, %d processing, %d completed, %d failed)",
					summary.Total, summary.Pending, summary.Processing, summary.Completed, summary.Failed), colorize))
				fmt.Fprintln(out, renderStatusLine("Exports", statusInfo, strconv.Itoa(dbHealth.TotalExports), colorize))
				if dbHealth.Error != "" {
					fmt.Fprintln(out, renderStatusLine("Error", statusError, dbHealth.Error, colorize))
				}
				return nil
			})
		},
	}
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return strconv.FormatFloat(seconds, 'f', 0, 64) + "s"
}

func truncate(value string, limit int) string {
	trimmed := strings.TrimSpace(value)
	if limit <= 3 || len(trimmed) <= limit {
		return trimmed
	}
	return trimmed[:limit-3] + "..."
}
