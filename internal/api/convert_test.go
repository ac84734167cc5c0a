package api

import (
	"testing"
	"time"

	"clipforge/internal/queue"
	"clipforge/internal/stage"
	"clipforge/internal/workflow"
)

func TestFromClipFormatsFields(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	completed := created.Add(2 * time.Minute)
	clip := &queue.Clip{
		ID:              "clip-1",
		Title:           "Ace Round",
		SourceType:      queue.SourceTwitchClip,
		SourceURL:       "https://clips.twitch.tv/AceRound",
		VideoURL:        "file:///media/clip-1.mp4",
		Duration:        42.5,
		GameTitle:       "VALORANT",
		Status:          queue.StatusCompleted,
		ProgressStage:   "Analyzed",
		ProgressMessage: "4 detections",
		CreatedAt:       created,
		UpdatedAt:       completed,
		CompletedAt:     &completed,
	}

	dto := FromClip(clip)
	if dto.ID != "clip-1" || dto.Title != "Ace Round" {
		t.Fatalf("unexpected identity fields: %+v", dto)
	}
	if dto.SourceType != "twitch_clip" || dto.Status != "completed" {
		t.Fatalf("unexpected enum rendering: %+v", dto)
	}
	if dto.Progress.Stage != "Analyzed" || dto.Progress.Message != "4 detections" {
		t.Fatalf("unexpected progress: %+v", dto.Progress)
	}
	if dto.CreatedAt != "2026-03-14T09:26:53.000Z" {
		t.Fatalf("unexpected created timestamp: %q", dto.CreatedAt)
	}
	if dto.CompletedAt == "" {
		t.Fatal("expected completed timestamp")
	}
	if !ParseQueueTime(dto.CreatedAt).Equal(created) {
		t.Fatalf("timestamp did not round-trip: %q", dto.CreatedAt)
	}
}

func TestFromClipNil(t *testing.T) {
	if dto := FromClip(nil); dto.ID != "" {
		t.Fatalf("expected zero value for nil clip, got %+v", dto)
	}
}

func TestFromExportIncludesOutput(t *testing.T) {
	export := &queue.Export{
		ID:         "exp-1",
		ClipID:     "clip-1",
		StylePack:  "esports",
		Format:     "shorts",
		Status:     queue.StatusCompleted,
		OutputURL:  "file:///media/exp-1.mp4",
		OutputSize: 2048,
		CreatedAt:  time.Now().UTC(),
	}
	dto := FromExport(export)
	if dto.OutputURL != export.OutputURL || dto.OutputSize != 2048 {
		t.Fatalf("unexpected output fields: %+v", dto)
	}
	if dto.Format != "shorts" || dto.StylePack != "esports" {
		t.Fatalf("unexpected format fields: %+v", dto)
	}
}

func TestFromDetectionsCarriesMetadata(t *testing.T) {
	items := FromDetections([]queue.Detection{
		{Category: "kill", Timestamp: 30, Confidence: 0.85, MetadataJSON: `{"source":"transcript"}`},
		{Category: "hype", Timestamp: 90, Confidence: 0.7},
	})
	if len(items) != 2 {
		t.Fatalf("unexpected item count: %d", len(items))
	}
	if string(items[0].Metadata) != `{"source":"transcript"}` {
		t.Fatalf("unexpected metadata: %s", items[0].Metadata)
	}
	if items[1].Metadata != nil {
		t.Fatalf("expected empty metadata to be omitted, got %s", items[1].Metadata)
	}
}

func TestMergeStatsFillsMissingStatuses(t *testing.T) {
	merged := MergeStats(map[queue.Status]int{queue.StatusPending: 2})
	if merged["pending"] != 2 {
		t.Fatalf("unexpected pending count: %d", merged["pending"])
	}
	for _, status := range []string{"processing", "completed", "failed"} {
		if count, ok := merged[status]; !ok || count != 0 {
			t.Fatalf("expected zero entry for %s, got %d (present=%v)", status, count, ok)
		}
	}
}

func TestFromStatusSummaryOrdersStageHealth(t *testing.T) {
	summary := workflow.StatusSummary{
		Running:   true,
		LastError: "boom",
		StageHealth: map[string]stage.Health{
			"ingest": {Name: "ingest", Ready: true},
			"detect": {Name: "detect", Ready: false, Detail: "sample interval must be positive"},
			"export": {Name: "export", Ready: true},
		},
	}
	status := FromStatusSummary(summary)
	if !status.Running || status.LastError != "boom" {
		t.Fatalf("unexpected summary fields: %+v", status)
	}
	names := make([]string, 0, len(status.StageHealth))
	for _, health := range status.StageHealth {
		names = append(names, health.Name)
	}
	want := []string{"detect", "export", "ingest"}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("unexpected stage order: %v", names)
		}
	}
	if status.StageHealth[0].Detail == "" {
		t.Fatal("expected detail on unhealthy stage")
	}
}

func TestSortClipsNewestFirst(t *testing.T) {
	now := time.Now().UTC()
	items := []ClipItem{
		{ID: "a", CreatedAt: now.Add(-time.Hour).Format(dateTimeFormat)},
		{ID: "b", CreatedAt: now.Format(dateTimeFormat)},
		{ID: "c", CreatedAt: now.Format(dateTimeFormat)},
	}
	sorted := SortClipsNewestFirst(items)
	if sorted[0].ID != "c" || sorted[1].ID != "b" || sorted[2].ID != "a" {
		t.Fatalf("unexpected order: %+v", sorted)
	}
}
