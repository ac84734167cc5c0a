package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clipforge/internal/api"
	"clipforge/internal/queueaccess"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <clip-id>",
		Short: "Show a clip with its detections, captions, and exports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueueAccess(cmd.Context(), func(access queueaccess.Access) error {
				detail, err := access.DescribeClip(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if detail == nil {
					return fmt.Errorf("clip %s not found", args[0])
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, detail)
				}
				return printClipDetail(cmd, *detail)
			})
		},
	}
}

func printClipDetail(cmd *cobra.Command, detail api.ClipDetail) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	clip := detail.Clip

	for _, line := range renderSectionHeader("Clip "+clip.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Title", statusInfo, clip.Title, colorize))
	fmt.Fprintln(out, renderStatusLine("Source", statusInfo, fmt.Sprintf("%s %s", clip.SourceType, clip.SourceURL), colorize))
	fmt.Fprintln(out, renderStatusLine("Status", clipStatusKind(clip.Status), clip.Progress.Stage, colorize))
	if clip.GameTitle != "" {
		fmt.Fprintln(out, renderStatusLine("Game", statusInfo, clip.GameTitle, colorize))
	}
	if clip.Duration > 0 {
		fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, formatSeconds(clip.Duration), colorize))
	}
	if clip.ErrorMessage != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, clip.ErrorMessage, colorize))
	}

	if len(detail.Detections) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(detail.Detections))
		for _, det := range detail.Detections {
			rows = append(rows, []string{
				det.Category,
				strconv.FormatFloat(det.Timestamp, 'f', 1, 64),
				strconv.FormatFloat(det.Confidence, 'f', 2, 64),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Category", "Timestamp", "Confidence"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight},
		))
	}

	if len(detail.Captions) > 0 {
		fmt.Fprintf(out, "\n%d caption segment(s)\n", len(detail.Captions))
	}

	if len(detail.Exports) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(detail.Exports))
		for _, export := range detail.Exports {
			rows = append(rows, []string{export.ID, export.Format, export.StylePack, export.Status, export.OutputURL})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Export", "Format", "Style", "Status", "Output"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
		))
	}

	if len(detail.Children) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(detail.Children))
		for _, child := range detail.Children {
			rows = append(rows, []string{child.ID, truncate(child.Title, 50), formatSeconds(child.Duration)})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Derived Clip", "Title", "Duration"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight},
		))
	}
	return nil
}

func clipStatusKind(status string) statusKind {
	switch status {
	case "completed":
		return statusOK
	case "failed":
		return statusError
	case "processing":
		return statusWarn
	default:
		return statusInfo
	}
}
