package export_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"clipforge/internal/export"
	"clipforge/internal/logging"
	"clipforge/internal/queue"
	"clipforge/internal/renderspec"
	"clipforge/internal/services"
	"clipforge/internal/services/renderapi"
	"clipforge/internal/storage"
	"clipforge/internal/testsupport"
)

type stubRenderer struct {
	result   *renderapi.Result
	err      error
	payload  string
	rendered any
}

func (s *stubRenderer) Render(_ context.Context, spec any) (*renderapi.Result, error) {
	s.rendered = spec
	return s.result, s.err
}

func (s *stubRenderer) Download(context.Context, string) (io.ReadCloser, int64, error) {
	if s.payload == "" {
		s.payload = "rendered bytes"
	}
	return io.NopCloser(strings.NewReader(s.payload)), int64(len(s.payload)), nil
}

func newMediaStore(t *testing.T) *storage.Local {
	t.Helper()
	media, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("storage.NewLocal: %v", err)
	}
	return media
}

func readyClip(t *testing.T, store *queue.Store, duration float64) *queue.Clip {
	t.Helper()
	clip := testsupport.NewClip(t, store, "Ace Round", queue.SourceTwitchClip, "https://clips.twitch.tv/slug")
	clip.VideoURL = "https://cdn.example.com/clip.mp4"
	clip.Duration = duration
	clip.Status = queue.StatusCompleted
	if err := store.UpdateClip(context.Background(), clip); err != nil {
		t.Fatalf("UpdateClip: %v", err)
	}
	return clip
}

func newExport(t *testing.T, store *queue.Store, clipID, pack, format string) *queue.Export {
	t.Helper()
	job, err := store.NewExport(context.Background(), clipID, pack, format, "", "")
	if err != nil {
		t.Fatalf("NewExport: %v", err)
	}
	return job
}

func TestExecuteRendersAndStoresOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	clip := readyClip(t, store, 45)
	renderer := &stubRenderer{result: &renderapi.Result{JobID: "job-1", URL: "https://renders.example.com/out.mp4"}}
	exporter := export.NewExporterWithDependencies(cfg, store, logging.NewNop(), renderer, newMediaStore(t), nil)

	job := newExport(t, store, clip.ID, "esports", "tiktok")
	if err := exporter.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := exporter.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !strings.HasPrefix(job.OutputURL, "file://") {
		t.Fatalf("output url = %q, want media store URL", job.OutputURL)
	}
	if job.OutputSize != int64(len("rendered bytes")) {
		t.Fatalf("output size = %d", job.OutputSize)
	}
	if job.ProgressStage != "Exported" {
		t.Fatalf("progress stage = %q", job.ProgressStage)
	}

	spec, ok := renderer.rendered.(*renderspec.Spec)
	if !ok {
		t.Fatalf("rendered payload type %T", renderer.rendered)
	}
	if spec.Output.AspectRatio != "9:16" {
		t.Fatalf("submitted aspect = %q, want format aspect", spec.Output.AspectRatio)
	}
}

func TestExecuteMockModeSkipsProvider(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMockRender())
	store := testsupport.MustOpenStore(t, cfg)
	clip := readyClip(t, store, 45)
	exporter := export.NewExporterWithDependencies(cfg, store, logging.NewNop(), nil, newMediaStore(t), nil)

	job := newExport(t, store, clip.ID, "", "reels")
	if err := exporter.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if job.OutputURL != clip.VideoURL {
		t.Fatalf("mock output url = %q, want source video url", job.OutputURL)
	}
}

func TestExecuteWithoutProviderOrMockFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	clip := readyClip(t, store, 45)
	exporter := export.NewExporterWithDependencies(cfg, store, logging.NewNop(), nil, newMediaStore(t), nil)

	job := newExport(t, store, clip.ID, "", "tiktok")
	err := exporter.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration", err)
	}
}

func TestExecuteRejectsOverlongClipForFormat(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMockRender())
	store := testsupport.MustOpenStore(t, cfg)
	clip := readyClip(t, store, 90)
	exporter := export.NewExporterWithDependencies(cfg, store, logging.NewNop(), nil, newMediaStore(t), nil)

	job := newExport(t, store, clip.ID, "", "shorts")
	err := exporter.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestExecuteRejectsUnknownFormatAndMissingClip(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMockRender())
	store := testsupport.MustOpenStore(t, cfg)
	clip := readyClip(t, store, 45)
	exporter := export.NewExporterWithDependencies(cfg, store, logging.NewNop(), nil, newMediaStore(t), nil)

	badFormat := newExport(t, store, clip.ID, "", "mystery")
	if err := exporter.Execute(context.Background(), badFormat); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("unknown format err = %v", err)
	}

	orphan := &queue.Export{ID: "none", ClipID: "missing-clip", Format: "tiktok"}
	if err := exporter.Execute(context.Background(), orphan); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("missing clip err = %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMockRender())
	store := testsupport.MustOpenStore(t, cfg)
	exporter := export.NewExporterWithDependencies(cfg, store, logging.NewNop(), nil, newMediaStore(t), nil)
	if health := exporter.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("health = %+v", health)
	}

	plain := testsupport.NewConfig(t)
	unready := export.NewExporterWithDependencies(plain, store, logging.NewNop(), nil, newMediaStore(t), nil)
	if health := unready.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy without provider or mock")
	}
}
