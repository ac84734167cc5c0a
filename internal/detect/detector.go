package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clipforge/internal/config"
	"clipforge/internal/highlights"
	"clipforge/internal/logging"
	"clipforge/internal/notifications"
	"clipforge/internal/queue"
	"clipforge/internal/services"
	"clipforge/internal/services/transcribe"
	"clipforge/internal/stage"
)

// Detector manages the highlight analysis workflow.
type Detector struct {
	store       *queue.Store
	cfg         *config.Config
	logger      *slog.Logger
	transcriber highlights.Transcriber
	sampler     highlights.IntensitySampler
	notifier    notifications.Service
}

// NewDetector constructs the detect handler using default dependencies.
func NewDetector(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Detector {
	var transcriber highlights.Transcriber
	if cfg.TranscriptionConfigured() {
		client, err := transcribe.New(
			cfg.Transcription.APIKey,
			cfg.Transcription.BaseURL,
			time.Duration(cfg.Transcription.PollInterval)*time.Second,
			cfg.Transcription.MaxPollAttempts,
		)
		if err != nil {
			logger.Warn("transcription client unavailable", logging.Error(err))
		} else {
			transcriber = client
		}
	}
	sampler := highlights.NewRandomSampler(cfg.Detection.Seed)
	return NewDetectorWithDependencies(cfg, store, logger, transcriber, sampler, notifications.NewService(cfg))
}

// NewDetectorWithDependencies allows injecting all collaborators (used in tests).
func NewDetectorWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, transcriber highlights.Transcriber, sampler highlights.IntensitySampler, notifier notifications.Service) *Detector {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "detector"))
	}
	return &Detector{store: store, cfg: cfg, logger: stageLogger, transcriber: transcriber, sampler: sampler, notifier: notifier}
}

func (d *Detector) Prepare(ctx context.Context, clip *queue.Clip) error {
	logger := logging.WithContext(ctx, d.logger)
	clip.SetProgress("Analyzing", "Running highlight detection")
	clip.ErrorMessage = ""
	logger.Info(
		"starting analysis",
		logging.String("clip_id", clip.ID),
		logging.String("game_title", clip.GameTitle),
		logging.Float64("duration", clip.Duration),
		logging.Bool("transcription_enabled", d.transcriber != nil),
	)
	return nil
}

func (d *Detector) Execute(ctx context.Context, clip *queue.Clip) error {
	logger := logging.WithContext(ctx, d.logger)

	profile := highlights.ResolveProfile(clip.GameTitle)
	source := highlights.Source{
		VideoURL: clip.VideoURL,
		Duration: clip.Duration,
		Profile:  profile,
	}

	interval := float64(d.cfg.Detection.SampleInterval)
	detectors := []highlights.Detector{
		highlights.NewAmplitudeDetector(d.sampler, interval),
		highlights.NewMotionDetector(d.sampler, interval),
	}

	var capture *capturingTranscriber
	if d.transcriber != nil {
		capture = &capturingTranscriber{inner: d.transcriber}
		detectors = append(detectors, highlights.NewTranscriptDetector(capture))
	}

	analyzer := highlights.NewAnalyzer(detectors, highlights.NewFallbackDetector(d.sampler), d.logger)
	merged, err := analyzer.Analyze(ctx, source)
	if err != nil {
		return err
	}

	persisted, err := toQueueDetections(clip.ID, merged)
	if err != nil {
		return services.Wrap(services.ErrTransient, "detect", "encode detections", "Failed to encode detection metadata", err)
	}
	if err := d.store.ReplaceDetections(ctx, clip.ID, persisted); err != nil {
		return services.Wrap(services.ErrTransient, "detect", "persist detections", "Failed to persist detections", err)
	}

	if capture != nil {
		if err := d.store.ReplaceCaptions(ctx, clip.ID, toCaptions(clip.ID, capture.take())); err != nil {
			return services.Wrap(services.ErrTransient, "detect", "persist captions", "Failed to persist captions", err)
		}
	}

	var derived int
	if d.cfg.Detection.AutoClip {
		derived, err = d.deriveClips(ctx, clip, profile, merged)
		if err != nil {
			return err
		}
	}

	clip.SetProgress("Analyzed", fmt.Sprintf("%d detections, %d clips derived", len(merged), derived))
	logger.Info(
		"analysis completed",
		logging.String("clip_id", clip.ID),
		logging.String("profile", profile.Name),
		logging.Int("detections", len(merged)),
		logging.Int("derived_clips", derived),
	)

	if d.notifier != nil {
		if err := d.notifier.Publish(ctx, notifications.EventClipAnalyzed, notifications.Payload{
			"title":      clip.Title,
			"highlights": strconv.Itoa(len(merged)),
		}); err != nil {
			logger.Warn("analysis notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies detect dependencies. Transcription is optional; the
// heuristic and fallback detectors keep the stage functional without it.
func (d *Detector) HealthCheck(ctx context.Context) stage.Health {
	const name = "detector"
	if d.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if d.cfg.Detection.SampleInterval <= 0 {
		return stage.Unhealthy(name, "sample interval must be positive")
	}
	if d.sampler == nil {
		return stage.Unhealthy(name, "intensity sampler unavailable")
	}
	return stage.Healthy(name)
}

// deriveClips enqueues a completed child clip for each selected highlight.
func (d *Detector) deriveClips(ctx context.Context, clip *queue.Clip, profile highlights.Profile, merged []highlights.Detection) (int, error) {
	selected := highlights.Select(merged, clip.Duration)
	caser := cases.Title(language.English)
	for _, detection := range selected {
		title := fmt.Sprintf("%s - %s @ %s",
			strings.TrimSpace(clip.Title),
			caser.String(string(detection.Category)),
			highlights.FormatTimestamp(detection.Timestamp),
		)
		if _, err := d.store.NewDerivedClip(ctx, clip, title, profile.ClipDuration); err != nil {
			return 0, services.Wrap(services.ErrTransient, "detect", "derive clip", "Failed to enqueue derived clip", err)
		}
	}
	return len(selected), nil
}

func toQueueDetections(clipID string, detections []highlights.Detection) ([]queue.Detection, error) {
	out := make([]queue.Detection, 0, len(detections))
	for _, detection := range detections {
		metadata, err := json.Marshal(detection.Metadata)
		if err != nil {
			return nil, err
		}
		out = append(out, queue.Detection{
			ClipID:       clipID,
			Category:     string(detection.Category),
			Timestamp:    detection.Timestamp,
			Confidence:   detection.Confidence,
			MetadataJSON: string(metadata),
		})
	}
	return out, nil
}

func toCaptions(clipID string, segments []transcribe.Segment) []queue.Caption {
	out := make([]queue.Caption, 0, len(segments))
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		out = append(out, queue.Caption{
			ClipID: clipID,
			Start:  segment.Start,
			End:    segment.End,
			Text:   text,
		})
	}
	return out
}

// capturingTranscriber records the segments of the last transcription so the
// stage can persist captions without a second provider round trip.
type capturingTranscriber struct {
	inner    highlights.Transcriber
	mu       sync.Mutex
	segments []transcribe.Segment
}

func (c *capturingTranscriber) Transcribe(ctx context.Context, audioURL string) ([]transcribe.Segment, error) {
	segments, err := c.inner.Transcribe(ctx, audioURL)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.segments = segments
	c.mu.Unlock()
	return segments, nil
}

func (c *capturingTranscriber) take() []transcribe.Segment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.segments
}
