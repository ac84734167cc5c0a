package api

import (
	"encoding/json"
	"sort"
	"time"

	"clipforge/internal/queue"
	"clipforge/internal/workflow"
)

// FromClip converts a clip record to its API representation.
func FromClip(clip *queue.Clip) ClipItem {
	if clip == nil {
		return ClipItem{}
	}
	dto := ClipItem{
		ID:           clip.ID,
		Title:        clip.Title,
		SourceType:   string(clip.SourceType),
		SourceURL:    clip.SourceURL,
		VideoURL:     clip.VideoURL,
		ThumbnailURL: clip.ThumbnailURL,
		Duration:     clip.Duration,
		GameTitle:    clip.GameTitle,
		ParentID:     clip.ParentID,
		Status:       string(clip.Status),
		Progress: JobProgress{
			Stage:   clip.ProgressStage,
			Message: clip.ProgressMessage,
		},
		ErrorMessage: clip.ErrorMessage,
	}
	dto.CreatedAt = formatTime(clip.CreatedAt)
	dto.UpdatedAt = formatTime(clip.UpdatedAt)
	if clip.CompletedAt != nil {
		dto.CompletedAt = formatTime(*clip.CompletedAt)
	}
	return dto
}

// FromClips converts a slice of clip records into API DTOs.
func FromClips(clips []*queue.Clip) []ClipItem {
	if len(clips) == 0 {
		return nil
	}
	out := make([]ClipItem, 0, len(clips))
	for _, clip := range clips {
		out = append(out, FromClip(clip))
	}
	return out
}

// FromExport converts an export record to its API representation.
func FromExport(export *queue.Export) ExportItem {
	if export == nil {
		return ExportItem{}
	}
	dto := ExportItem{
		ID:         export.ID,
		ClipID:     export.ClipID,
		StylePack:  export.StylePack,
		Format:     export.Format,
		Status:     string(export.Status),
		OutputURL:  export.OutputURL,
		OutputSize: export.OutputSize,
		Progress: JobProgress{
			Stage:   export.ProgressStage,
			Message: export.ProgressMessage,
		},
		ErrorMessage: export.ErrorMessage,
	}
	dto.CreatedAt = formatTime(export.CreatedAt)
	dto.UpdatedAt = formatTime(export.UpdatedAt)
	if export.CompletedAt != nil {
		dto.CompletedAt = formatTime(*export.CompletedAt)
	}
	return dto
}

// FromExports converts a slice of export records into API DTOs.
func FromExports(exports []*queue.Export) []ExportItem {
	if len(exports) == 0 {
		return nil
	}
	out := make([]ExportItem, 0, len(exports))
	for _, export := range exports {
		out = append(out, FromExport(export))
	}
	return out
}

// FromDetections converts persisted detections into API DTOs.
func FromDetections(detections []queue.Detection) []DetectionItem {
	if len(detections) == 0 {
		return nil
	}
	out := make([]DetectionItem, 0, len(detections))
	for _, det := range detections {
		item := DetectionItem{
			Category:   det.Category,
			Timestamp:  det.Timestamp,
			Confidence: det.Confidence,
		}
		if det.MetadataJSON != "" {
			item.Metadata = json.RawMessage(det.MetadataJSON)
		}
		out = append(out, item)
	}
	return out
}

// FromCaptions converts persisted captions into API DTOs.
func FromCaptions(captions []queue.Caption) []CaptionItem {
	if len(captions) == 0 {
		return nil
	}
	out := make([]CaptionItem, 0, len(captions))
	for _, caption := range captions {
		out = append(out, CaptionItem{
			Start: caption.Start,
			End:   caption.End,
			Text:  caption.Text,
		})
	}
	return out
}

// FromStatusSummary converts workflow status into the API representation.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	return WorkflowStatus{
		Running:     summary.Running,
		ClipStats:   MergeStats(summary.ClipStats),
		ExportStats: MergeStats(summary.ExportStats),
		LastError:   summary.LastError,
		StageHealth: StageHealthSlice(summary),
	}
}

// MergeStats normalizes queue stats so every known status has an entry.
func MergeStats(stats map[queue.Status]int) map[string]int {
	merged := make(map[string]int, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		merged[string(status)] = stats[status]
	}
	return merged
}

// StageHealthSlice flattens stage health into a deterministic order.
func StageHealthSlice(summary workflow.StatusSummary) []StageHealth {
	if len(summary.StageHealth) == 0 {
		return nil
	}
	out := make([]StageHealth, 0, len(summary.StageHealth))
	for name, health := range summary.StageHealth {
		out = append(out, StageHealth{
			Name:   name,
			Ready:  health.Ready,
			Detail: health.Detail,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SortClipsNewestFirst orders clips by CreatedAt descending, breaking ties by ID.
func SortClipsNewestFirst(items []ClipItem) []ClipItem {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]ClipItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		ti := ParseQueueTime(sorted[i].CreatedAt)
		tj := ParseQueueTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})
	return sorted
}

// ParseQueueTime parses API timestamps back into time values for display.
func ParseQueueTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
