package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipforge/internal/api"
	"clipforge/internal/daemon"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var title string
	var duration float64

	cmd := &cobra.Command{
		Use:   "ingest <source>",
		Short: "Queue a Twitch clip, VOD, or video file for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]

			// Prefer the running daemon so its lanes pick the clip up directly.
			if client, err := ctx.dialClient(); err == nil && client.Ping(cmd.Context()) == nil {
				clip, apiErr := client.Ingest(cmd.Context(), api.IngestRequest{
					Source:   source,
					Title:    title,
					Duration: duration,
				})
				if apiErr != nil {
					return apiErr
				}
				return printQueuedClip(cmd, ctx, *clip)
			}

			return ctx.withDaemon(func(d *daemon.Daemon) error {
				clip, err := d.AddSource(cmd.Context(), source, title, duration)
				if err != nil {
					return err
				}
				return printQueuedClip(cmd, ctx, api.FromClip(clip))
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Display title for the clip")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Source duration in seconds (required for uploads without metadata)")
	return cmd
}

func printQueuedClip(cmd *cobra.Command, ctx *commandContext, clip api.ClipItem) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, clip)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Queued %s (%s)\n", clip.ID, clip.SourceType)
	if clip.Title != "" {
		fmt.Fprintf(out, "Title: %s\n", clip.Title)
	}
	fmt.Fprintf(out, "Status: %s\n", clip.Status)
	return nil
}
