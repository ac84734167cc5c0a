package main

import (
	"context"
	"strings"
	"testing"

	"clipforge/internal/queue"
)

func TestQueueStatusAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	if _, err := env.store.NewClip(ctx, "Ranked Grind", queue.SourceTwitchClip, "https://clips.twitch.tv/AlphaClip"); err != nil {
		t.Fatalf("alpha clip: %v", err)
	}

	beta, err := env.store.NewClip(ctx, "Scrim VOD", queue.SourceTwitchVOD, "https://www.twitch.tv/videos/123456")
	if err != nil {
		t.Fatalf("beta clip: %v", err)
	}
	beta.SetFailed("resolve failed")
	if err := env.store.UpdateClip(ctx, beta); err != nil {
		t.Fatalf("mark beta failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "pending")
	requireContains(t, out, "failed")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Ranked Grind")
	requireContains(t, out, "Scrim VOD")

	out, _, err = runCLI(t, []string{"queue", "list", "--status", "failed"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list --status failed: %v", err)
	}
	requireContains(t, out, "Scrim VOD")
	if strings.Contains(out, "Ranked Grind") {
		t.Fatalf("expected failed-only listing, got %q", out)
	}
}

func TestQueueRetryAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	alpha, err := env.store.NewClip(ctx, "Alpha", queue.SourceUpload, "/videos/alpha.mp4")
	if err != nil {
		t.Fatalf("alpha: %v", err)
	}
	alpha.SetFailed("render error")
	if err := env.store.UpdateClip(ctx, alpha); err != nil {
		t.Fatalf("alpha failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "retry"}, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Reset 1 job(s) to pending")

	updated, err := env.store.GetClip(ctx, alpha.ID)
	if err != nil {
		t.Fatalf("lookup alpha: %v", err)
	}
	if updated.Status != queue.StatusPending {
		t.Fatalf("expected pending, got %s", updated.Status)
	}

	updated.SetFailed("render error again")
	if err := env.store.UpdateClip(ctx, updated); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	out, _, err = runCLI(t, []string{"queue", "clear", "--failed"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear failed: %v", err)
	}
	requireContains(t, out, "Removed 1 clip(s)")

	out, _, err = runCLI(t, []string{"queue", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Removed")

	if _, _, err := runCLI(t, []string{"queue", "clear", "--completed", "--failed"}, env.configPath); err == nil {
		t.Fatal("expected mutually exclusive flags to error")
	}
}

func TestQueueHealthCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"queue", "health"}, env.configPath)
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	requireContains(t, out, "Queue Health")
	requireContains(t, out, "Database")
	requireContains(t, out, "Clips")
}
