package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"log/slog"

	"clipforge/internal/config"
	"clipforge/internal/highlights"
	"clipforge/internal/logging"
	"clipforge/internal/notifications"
	"clipforge/internal/queue"
	"clipforge/internal/renderspec"
	"clipforge/internal/services"
	"clipforge/internal/services/renderapi"
	"clipforge/internal/stage"
	"clipforge/internal/storage"
	"clipforge/internal/textutil"
)

// Renderer is the slice of the render client the exporter needs.
type Renderer interface {
	Render(ctx context.Context, spec any) (*renderapi.Result, error)
	Download(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// Exporter manages the vertical export workflow.
type Exporter struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	renderer Renderer
	media    storage.Store
	notifier notifications.Service
}

// NewExporter constructs the export handler using default dependencies.
func NewExporter(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Exporter, error) {
	var renderer Renderer
	if cfg.RenderConfigured() {
		client, err := renderapi.New(
			cfg.Render.APIKey,
			cfg.Render.BaseURL,
			time.Duration(cfg.Render.PollInterval)*time.Second,
			cfg.Render.MaxPollAttempts,
		)
		if err != nil {
			logger.Warn("render client unavailable", logging.Error(err))
		} else {
			renderer = client
		}
	}
	media, err := storage.NewLocal(cfg.Paths.MediaDir)
	if err != nil {
		return nil, fmt.Errorf("open media store: %w", err)
	}
	return NewExporterWithDependencies(cfg, store, logger, renderer, media, notifications.NewService(cfg)), nil
}

// NewExporterWithDependencies allows injecting all collaborators (used in tests).
func NewExporterWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, renderer Renderer, media storage.Store, notifier notifications.Service) *Exporter {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "exporter"))
	}
	return &Exporter{store: store, cfg: cfg, logger: stageLogger, renderer: renderer, media: media, notifier: notifier}
}

func (e *Exporter) Prepare(ctx context.Context, export *queue.Export) error {
	logger := logging.WithContext(ctx, e.logger)
	export.ProgressStage = "Exporting"
	export.ProgressMessage = "Building render spec"
	export.ErrorMessage = ""
	logger.Info(
		"starting export",
		logging.String("export_id", export.ID),
		logging.String("clip_id", export.ClipID),
		logging.String("format", export.Format),
		logging.String("style_pack", export.StylePack),
		logging.Bool("mock", e.cfg != nil && e.cfg.Render.Mock),
	)
	return nil
}

func (e *Exporter) Execute(ctx context.Context, export *queue.Export) error {
	logger := logging.WithContext(ctx, e.logger)

	clip, err := e.store.GetClip(ctx, export.ClipID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "export", "load clip", "Failed to load source clip", err)
	}
	if clip == nil {
		return services.Wrap(services.ErrValidation, "export", "load clip",
			fmt.Sprintf("Clip %s not found", export.ClipID), nil)
	}

	format, err := renderspec.ResolveFormat(export.Format)
	if err != nil {
		return err
	}
	if err := renderspec.ValidateClipDuration(format, clip.Duration); err != nil {
		return err
	}
	pack, err := renderspec.ResolveStylePack(export.StylePack)
	if err != nil {
		return err
	}

	opts, settings, err := e.decodeJob(export)
	if err != nil {
		return err
	}

	detections, err := e.loadDetections(ctx, export.ClipID)
	if err != nil {
		return err
	}
	captions, err := e.store.CaptionsForClip(ctx, export.ClipID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "export", "load captions", "Failed to load captions", err)
	}

	spec, err := renderspec.BuildForFormat(clip, format, pack, detections, captions, opts, settings)
	if err != nil {
		return err
	}

	if e.cfg.Render.Mock {
		// Mock mode skips rendering entirely and republishes the source.
		export.OutputURL = clip.VideoURL
		export.OutputSize = 0
		export.ProgressStage = "Exported"
		export.ProgressMessage = "Mock render completed"
		logger.Info("mock export completed", logging.String("export_id", export.ID))
		e.notifyCompleted(ctx, logger, clip, export)
		return nil
	}

	if e.renderer == nil {
		return services.Wrap(services.ErrConfiguration, "export", "render",
			"Render provider not configured; set render.api_key or enable render.mock", nil)
	}

	export.ProgressMessage = "Rendering"
	result, err := e.renderer.Render(ctx, spec)
	if err != nil {
		return err
	}

	export.ProgressMessage = "Downloading render output"
	body, size, err := e.renderer.Download(ctx, result.URL)
	if err != nil {
		return err
	}
	defer body.Close()

	key, err := e.media.Save(body, storage.FileInfo{
		Filename:    fmt.Sprintf("%s-%s.mp4", textutil.SanitizeToken(clip.Title), format.Key),
		ContentType: "video/mp4",
		Size:        size,
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "export", "store output", "Failed to store render output", err)
	}

	export.OutputURL = e.media.URL(key)
	if stored, err := e.media.Size(key); err == nil {
		export.OutputSize = stored
	} else {
		export.OutputSize = size
	}
	export.ProgressStage = "Exported"
	export.ProgressMessage = "Render completed"
	logger.Info(
		"export completed",
		logging.String("export_id", export.ID),
		logging.String("render_job_id", result.JobID),
		logging.String("output_url", export.OutputURL),
		logging.Int64("output_size", export.OutputSize),
	)
	e.notifyCompleted(ctx, logger, clip, export)
	return nil
}

// HealthCheck verifies export dependencies.
func (e *Exporter) HealthCheck(ctx context.Context) stage.Health {
	const name = "exporter"
	if e.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if e.media == nil {
		return stage.Unhealthy(name, "media store unavailable")
	}
	if !e.cfg.Render.Mock && e.renderer == nil {
		return stage.Unhealthy(name, "render provider not configured")
	}
	return stage.Healthy(name)
}

// decodeJob applies the job's stored option and setting overrides on top of
// the configured render defaults.
func (e *Exporter) decodeJob(export *queue.Export) (renderspec.Options, renderspec.Settings, error) {
	var opts renderspec.Options
	if raw := strings.TrimSpace(export.OptionsJSON); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			return opts, renderspec.Settings{}, services.Wrap(services.ErrValidation, "export", "decode options",
				"Export options are not valid JSON", err)
		}
	}
	settings := renderspec.Settings{
		Resolution: e.cfg.Render.Resolution,
		FPS:        e.cfg.Render.FPS,
	}
	if raw := strings.TrimSpace(export.SettingsJSON); raw != "" {
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			return opts, settings, services.Wrap(services.ErrValidation, "export", "decode settings",
				"Export settings are not valid JSON", err)
		}
	}
	return opts, settings, nil
}

func (e *Exporter) loadDetections(ctx context.Context, clipID string) ([]highlights.Detection, error) {
	stored, err := e.store.DetectionsForClip(ctx, clipID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "export", "load detections", "Failed to load detections", err)
	}
	detections := make([]highlights.Detection, 0, len(stored))
	for _, record := range stored {
		detection := highlights.Detection{
			Category:   highlights.Category(record.Category),
			Timestamp:  record.Timestamp,
			Confidence: record.Confidence,
		}
		if record.MetadataJSON != "" {
			if err := json.Unmarshal([]byte(record.MetadataJSON), &detection.Metadata); err != nil {
				return nil, services.Wrap(services.ErrTransient, "export", "decode detection metadata",
					"Stored detection metadata is not valid JSON", err)
			}
		}
		detections = append(detections, detection)
	}
	return detections, nil
}

func (e *Exporter) notifyCompleted(ctx context.Context, logger *slog.Logger, clip *queue.Clip, export *queue.Export) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Publish(ctx, notifications.EventExportCompleted, notifications.Payload{
		"title":  clip.Title,
		"format": export.Format,
	}); err != nil {
		logger.Warn("export notification failed", logging.Error(err))
	}
}
