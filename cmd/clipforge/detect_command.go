package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clipforge/internal/api"
	"clipforge/internal/detect"
	"clipforge/internal/highlights"
	"clipforge/internal/logging"
	"clipforge/internal/queue"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <clip-id>",
		Short: "Re-run highlight detection for an ingested clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				clip, err := store.GetClip(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if clip == nil {
					return fmt.Errorf("clip %s not found", args[0])
				}
				if clip.VideoURL == "" || clip.Duration <= 0 {
					return fmt.Errorf("clip %s has not been ingested yet; run the daemon or `clipforge ingest` first", clip.ID)
				}

				detector := detect.NewDetector(cfg, store, logging.NewNop())
				if err := detector.Prepare(cmd.Context(), clip); err != nil {
					return err
				}
				if err := detector.Execute(cmd.Context(), clip); err != nil {
					return err
				}
				if err := store.UpdateClip(cmd.Context(), clip); err != nil {
					return err
				}

				detections, err := store.DetectionsForClip(cmd.Context(), clip.ID)
				if err != nil {
					return err
				}
				return printDetections(cmd, ctx, clip, detections)
			})
		},
	}
	return cmd
}

func printDetections(cmd *cobra.Command, ctx *commandContext, clip *queue.Clip, detections []queue.Detection) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, api.FromDetections(detections))
	}
	out := cmd.OutOrStdout()
	if len(detections) == 0 {
		fmt.Fprintf(out, "No detections for %s\n", clip.ID)
		return nil
	}

	rows := make([][]string, 0, len(detections))
	for _, det := range detections {
		rows = append(rows, []string{
			det.Category,
			highlights.FormatTimestamp(det.Timestamp),
			strconv.FormatFloat(det.Confidence, 'f', 2, 64),
		})
	}
	table := renderTable(
		[]string{"Category", "Timestamp", "Confidence"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	)
	fmt.Fprintln(out, table)
	fmt.Fprintf(out, "%d detections for %s\n", len(detections), clip.ID)
	return nil
}
