package daemon_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"clipforge/internal/config"
	"clipforge/internal/daemon"
	"clipforge/internal/detect"
	"clipforge/internal/export"
	"clipforge/internal/ingest"
	"clipforge/internal/logging"
	"clipforge/internal/queue"
	"clipforge/internal/services"
	"clipforge/internal/storage"
	"clipforge/internal/testsupport"
	"clipforge/internal/workflow"
)

type flatSampler struct{}

func (flatSampler) Sample(float64) float64 { return 0 }

func newDaemon(t *testing.T, opts ...testsupport.ConfigOption) (*daemon.Daemon, *config.Config, *queue.Store) {
	t.Helper()

	opts = append([]testsupport.ConfigOption{testsupport.WithMockRender()}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1
	cfg.Workflow.HeartbeatInterval = 1
	cfg.Workflow.HeartbeatTimeout = 30

	store := testsupport.MustOpenStore(t, cfg)
	media, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("storage.NewLocal: %v", err)
	}

	stages := workflow.StageSet{
		Ingester: ingest.NewIngesterWithDependencies(cfg, store, logging.NewNop(), nil, media, nil, nil),
		Detector: detect.NewDetectorWithDependencies(cfg, store, logging.NewNop(), nil, flatSampler{}, nil),
		Exporter: export.NewExporterWithDependencies(cfg, store, logging.NewNop(), nil, media, nil),
	}
	manager := workflow.NewManager(cfg, store, logging.NewNop(), stages)

	d, err := daemon.New(cfg, store, logging.NewNop(), manager)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)
	return d, cfg, store
}

func completedClip(t *testing.T, store *queue.Store, duration float64) *queue.Clip {
	t.Helper()
	clip := testsupport.NewClip(t, store, "Ace Round", queue.SourceUpload, "/tmp/ace.mp4")
	clip.Status = queue.StatusCompleted
	clip.Duration = duration
	clip.VideoURL = "file:///media/ace.mp4"
	if err := store.UpdateClip(context.Background(), clip); err != nil {
		t.Fatalf("UpdateClip: %v", err)
	}
	return clip
}

func TestDaemonStartStop(t *testing.T) {
	d, cfg, _ := newDaemon(t)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status := d.Status(context.Background())
	if !status.Running || !status.Workflow.Running {
		t.Fatalf("expected running daemon, got %+v", status)
	}
	if status.PID != os.Getpid() {
		t.Fatalf("unexpected pid: %d", status.PID)
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "clipforged.lock")
	if status.LockFilePath != lockPath {
		t.Fatalf("unexpected lock path: %q", status.LockFilePath)
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Fatalf("expected lock file: %v", err)
	}

	d.Stop()
	if d.Status(context.Background()).Running {
		t.Fatal("daemon still reports running after stop")
	}
}

func TestDaemonSecondInstanceRejected(t *testing.T) {
	first, cfg, store := newDaemon(t)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	stages := workflow.StageSet{
		Ingester: ingest.NewIngesterWithDependencies(cfg, store, logging.NewNop(), nil, nil, nil, nil),
		Detector: detect.NewDetectorWithDependencies(cfg, store, logging.NewNop(), nil, flatSampler{}, nil),
		Exporter: export.NewExporterWithDependencies(cfg, store, logging.NewNop(), nil, nil, nil),
	}
	second, err := daemon.New(cfg, store, logging.NewNop(), workflow.NewManager(cfg, store, logging.NewNop(), stages))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second instance to be rejected")
	}
}

func TestDaemonAddSourceClassifies(t *testing.T) {
	d, _, _ := newDaemon(t)
	ctx := context.Background()

	clip, err := d.AddSource(ctx, "https://clips.twitch.tv/FunnySlugName", "", 0)
	if err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if clip.SourceType != queue.SourceTwitchClip || clip.Status != queue.StatusPending {
		t.Fatalf("unexpected clip: %+v", clip)
	}

	vod, err := d.AddSource(ctx, "https://www.twitch.tv/videos/123456789", "", 0)
	if err != nil {
		t.Fatalf("AddSource vod: %v", err)
	}
	if vod.SourceType != queue.SourceTwitchVOD {
		t.Fatalf("unexpected source type: %s", vod.SourceType)
	}
}

func TestDaemonAddSourceLocalFile(t *testing.T) {
	d, _, _ := newDaemon(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "ranked-grind.mp4")
	testsupport.WriteFile(t, path, 1024)

	clip, err := d.AddSource(ctx, path, "", 95)
	if err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if clip.SourceType != queue.SourceUpload {
		t.Fatalf("unexpected source type: %s", clip.SourceType)
	}
	if clip.Title != "ranked-grind" {
		t.Fatalf("expected title from filename, got %q", clip.Title)
	}
	if clip.Duration != 95 {
		t.Fatalf("expected preset duration, got %v", clip.Duration)
	}
}

func TestDaemonAddSourceRejectsBadInput(t *testing.T) {
	d, _, _ := newDaemon(t)
	ctx := context.Background()

	if _, err := d.AddSource(ctx, "   ", "", 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for blank source, got %v", err)
	}
	if _, err := d.AddSource(ctx, filepath.Join(t.TempDir(), "missing.mp4"), "", 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing file, got %v", err)
	}

	badExt := filepath.Join(t.TempDir(), "notes.txt")
	testsupport.WriteFile(t, badExt, 16)
	if _, err := d.AddSource(ctx, badExt, "", 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unsupported extension, got %v", err)
	}
}

func TestDaemonCreateExport(t *testing.T) {
	d, _, store := newDaemon(t)
	ctx := context.Background()

	clip := completedClip(t, store, 45)
	export, err := d.CreateExport(ctx, clip.ID, "shorts", "", "", "")
	if err != nil {
		t.Fatalf("CreateExport: %v", err)
	}
	if export.Format != "shorts" || export.StylePack != "clean" {
		t.Fatalf("unexpected export: %+v", export)
	}
	if export.Status != queue.StatusPending {
		t.Fatalf("unexpected export status: %s", export.Status)
	}
}

func TestDaemonCreateExportValidation(t *testing.T) {
	d, _, store := newDaemon(t)
	ctx := context.Background()

	if _, err := d.CreateExport(ctx, "missing", "shorts", "", "", ""); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}

	pending := testsupport.NewClip(t, store, "Pending", queue.SourceUpload, "/tmp/p.mp4")
	if _, err := d.CreateExport(ctx, pending.ID, "shorts", "", "", ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for non-completed clip, got %v", err)
	}

	long := completedClip(t, store, 90)
	if _, err := d.CreateExport(ctx, long.ID, "shorts", "", "", ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected duration validation error, got %v", err)
	}
	if _, err := d.CreateExport(ctx, long.ID, "betamax", "", "", ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestDaemonQueueMaintenance(t *testing.T) {
	d, _, store := newDaemon(t)
	ctx := context.Background()

	failed := testsupport.NewClip(t, store, "Broken", queue.SourceUpload, "/tmp/b.mp4")
	failed.SetFailed("ingest exploded")
	if err := store.UpdateClip(ctx, failed); err != nil {
		t.Fatalf("UpdateClip: %v", err)
	}
	completedClip(t, store, 30)

	retried, err := d.RetryFailed(ctx, []string{failed.ID})
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if retried != 1 {
		t.Fatalf("unexpected retry count: %d", retried)
	}
	current, err := store.GetClip(ctx, failed.ID)
	if err != nil {
		t.Fatalf("GetClip: %v", err)
	}
	if current.Status != queue.StatusPending || current.ErrorMessage != "" {
		t.Fatalf("retry did not reset clip: %+v", current)
	}

	removed, err := d.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	if removed != 1 {
		t.Fatalf("unexpected cleared count: %d", removed)
	}

	health, err := d.QueueHealth(ctx)
	if err != nil {
		t.Fatalf("QueueHealth: %v", err)
	}
	if health.Pending == 0 {
		t.Fatalf("expected pending clips in health summary: %+v", health)
	}

	dbHealth, err := d.DatabaseHealth(ctx)
	if err != nil {
		t.Fatalf("DatabaseHealth: %v", err)
	}
	if !dbHealth.DatabaseExists || !dbHealth.IntegrityCheck {
		t.Fatalf("unexpected database health: %+v", dbHealth)
	}
}

func TestDaemonTestNotificationUnconfigured(t *testing.T) {
	d, _, _ := newDaemon(t)
	sent, detail, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if sent || detail == "" {
		t.Fatalf("expected unsent notification with detail, got sent=%v detail=%q", sent, detail)
	}
}
