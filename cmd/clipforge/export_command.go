package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"clipforge/internal/api"
	"clipforge/internal/daemon"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var format string
	var style string
	var settings string
	var options string

	cmd := &cobra.Command{
		Use:   "export <clip-id>",
		Short: "Queue a vertical export for a completed clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clipID := args[0]

			if client, err := ctx.dialClient(); err == nil && client.Ping(cmd.Context()) == nil {
				export, apiErr := client.CreateExport(cmd.Context(), api.ExportRequest{
					ClipID:    clipID,
					Format:    format,
					StylePack: style,
					Settings:  json.RawMessage(settings),
					Options:   json.RawMessage(options),
				})
				if apiErr != nil {
					return apiErr
				}
				return printQueuedExport(cmd, ctx, *export)
			}

			return ctx.withDaemon(func(d *daemon.Daemon) error {
				export, err := d.CreateExport(cmd.Context(), clipID, format, style, settings, options)
				if err != nil {
					return err
				}
				return printQueuedExport(cmd, ctx, api.FromExport(export))
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "shorts", "Target platform format (tiktok, reels, shorts)")
	cmd.Flags().StringVar(&style, "style", "", "Style pack (clean, neon, esports)")
	cmd.Flags().StringVar(&settings, "settings", "", "Render settings overrides as JSON")
	cmd.Flags().StringVar(&options, "options", "", "Processing options as JSON")
	return cmd
}

func printQueuedExport(cmd *cobra.Command, ctx *commandContext, export api.ExportItem) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, export)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Queued export %s\n", export.ID)
	fmt.Fprintf(out, "Clip: %s\n", export.ClipID)
	fmt.Fprintf(out, "Format: %s  Style: %s\n", export.Format, export.StylePack)
	fmt.Fprintf(out, "Status: %s\n", export.Status)
	return nil
}
