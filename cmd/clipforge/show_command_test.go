package main

import (
	"context"
	"testing"
	"time"

	"clipforge/internal/queue"
)

func TestShowCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	clip, err := env.store.NewClip(ctx, "Pentakill Moment", queue.SourceTwitchClip, "https://clips.twitch.tv/Penta")
	if err != nil {
		t.Fatalf("new clip: %v", err)
	}
	clip.GameTitle = "League of Legends"
	clip.Duration = 42
	clip.MarkCompleted(time.Now())
	if err := env.store.UpdateClip(ctx, clip); err != nil {
		t.Fatalf("update clip: %v", err)
	}

	detections := []queue.Detection{
		{Category: "kill", Timestamp: 12.5, Confidence: 0.9},
		{Category: "victory", Timestamp: 35, Confidence: 0.7},
	}
	if err := env.store.ReplaceDetections(ctx, clip.ID, detections); err != nil {
		t.Fatalf("replace detections: %v", err)
	}

	if _, err := env.store.NewExport(ctx, clip.ID, "clean", "shorts", "{}", "{}"); err != nil {
		t.Fatalf("new export: %v", err)
	}

	out, _, err := runCLI(t, []string{"show", clip.ID}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "Pentakill Moment")
	requireContains(t, out, "League of Legends")
	requireContains(t, out, "kill")
	requireContains(t, out, "victory")
	requireContains(t, out, "shorts")

	if _, _, err := runCLI(t, []string{"show", "missing-clip"}, env.configPath); err == nil {
		t.Fatal("expected missing clip to error")
	}
}
