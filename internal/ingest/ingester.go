package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"log/slog"

	"clipforge/internal/config"
	"clipforge/internal/deps"
	"clipforge/internal/ffprobe"
	"clipforge/internal/logging"
	"clipforge/internal/notifications"
	"clipforge/internal/queue"
	"clipforge/internal/services"
	"clipforge/internal/services/twitch"
	"clipforge/internal/stage"
	"clipforge/internal/storage"
)

// Resolver resolves twitch clip and VOD URLs into direct media URLs.
type Resolver interface {
	ResolveClip(ctx context.Context, clipURL string) (*twitch.Video, error)
	ResolveVOD(ctx context.Context, vodURL string) (*twitch.Video, error)
}

// Ingester manages the source resolution workflow.
type Ingester struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	resolver Resolver
	media    storage.Store
	client   *http.Client
	notifier notifications.Service
}

// NewIngester constructs the ingest handler using default dependencies.
func NewIngester(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Ingester, error) {
	var resolver Resolver
	if cfg.TwitchConfigured() {
		client, err := twitch.New(cfg.Twitch.ClientID, cfg.Twitch.ClientSecret, cfg.Twitch.BaseURL, cfg.Twitch.AuthURL)
		if err != nil {
			logger.Warn("twitch client unavailable", logging.Error(err))
		} else {
			resolver = client
		}
	}
	media, err := storage.NewLocal(cfg.Paths.MediaDir)
	if err != nil {
		return nil, fmt.Errorf("open media store: %w", err)
	}
	return NewIngesterWithDependencies(cfg, store, logger, resolver, media, nil, notifications.NewService(cfg)), nil
}

// NewIngesterWithDependencies allows injecting all collaborators (used in tests).
func NewIngesterWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, resolver Resolver, media storage.Store, client *http.Client, notifier notifications.Service) *Ingester {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "ingester"))
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Ingester{store: store, cfg: cfg, logger: stageLogger, resolver: resolver, media: media, client: client, notifier: notifier}
}

// ClassifySource maps a raw source reference onto a queue source type.
func ClassifySource(raw string) queue.SourceType {
	switch {
	case twitch.IsClipURL(raw):
		return queue.SourceTwitchClip
	case twitch.IsVODURL(raw):
		return queue.SourceTwitchVOD
	default:
		return queue.SourceUpload
	}
}

func (i *Ingester) Prepare(ctx context.Context, clip *queue.Clip) error {
	logger := logging.WithContext(ctx, i.logger)
	clip.SetProgress("Ingesting", "Resolving source")
	clip.ErrorMessage = ""
	logger.Info(
		"starting ingest",
		logging.String("clip_id", clip.ID),
		logging.String("source_type", string(clip.SourceType)),
		logging.String("source_url", strings.TrimSpace(clip.SourceURL)),
	)
	return nil
}

func (i *Ingester) Execute(ctx context.Context, clip *queue.Clip) error {
	logger := logging.WithContext(ctx, i.logger)

	var err error
	switch clip.SourceType {
	case queue.SourceTwitchClip:
		err = i.resolveTwitch(ctx, clip, false)
	case queue.SourceTwitchVOD:
		err = i.resolveTwitch(ctx, clip, true)
	case queue.SourceUpload:
		err = i.importUpload(ctx, clip)
	default:
		err = services.Wrap(services.ErrValidation, "ingest", "classify source",
			fmt.Sprintf("unknown source type %q", clip.SourceType), nil)
	}
	if err != nil {
		return err
	}

	if clip.Duration <= 0 {
		return services.Wrap(services.ErrValidation, "ingest", "validate duration",
			"Source has no usable duration; supply a positive duration for uploads", nil)
	}
	if strings.TrimSpace(clip.VideoURL) == "" {
		return services.Wrap(services.ErrValidation, "ingest", "validate media",
			"Source resolution produced no video URL", nil)
	}

	clip.SetProgress("Ingested", "Source media resolved")
	if i.store != nil {
		if err := i.store.UpdateClip(ctx, clip); err != nil {
			logger.Warn("failed to persist ingest progress", logging.Error(err))
		}
	}
	logger.Info(
		"ingest completed",
		logging.String("clip_id", clip.ID),
		logging.String("video_url", clip.VideoURL),
		logging.Float64("duration", clip.Duration),
		logging.String("game_title", clip.GameTitle),
	)

	if i.notifier != nil {
		if err := i.notifier.Publish(ctx, notifications.EventClipIngested, notifications.Payload{
			"title":  clip.Title,
			"source": string(clip.SourceType),
		}); err != nil {
			logger.Warn("ingest notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies ingest dependencies.
func (i *Ingester) HealthCheck(ctx context.Context) stage.Health {
	const name = "ingester"
	if i.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(i.cfg.Paths.MediaDir) == "" {
		return stage.Unhealthy(name, "media directory not configured")
	}
	if i.media == nil {
		return stage.Unhealthy(name, "media store unavailable")
	}
	return stage.Healthy(name)
}

func (i *Ingester) resolveTwitch(ctx context.Context, clip *queue.Clip, vod bool) error {
	if i.resolver == nil {
		return services.Wrap(services.ErrConfiguration, "ingest", "resolve twitch source",
			"Twitch credentials not configured; set twitch.client_id and twitch.client_secret", nil)
	}

	var (
		video *twitch.Video
		err   error
	)
	if vod {
		video, err = i.resolver.ResolveVOD(ctx, clip.SourceURL)
	} else {
		video, err = i.resolver.ResolveClip(ctx, clip.SourceURL)
	}
	if err != nil {
		return err
	}

	if strings.TrimSpace(clip.Title) == "" && video.Title != "" {
		clip.Title = video.Title
	}
	clip.VideoURL = video.VideoURL
	clip.ThumbnailURL = video.ThumbnailURL
	if video.Duration > 0 {
		clip.Duration = video.Duration
	}
	if video.GameTitle != "" {
		clip.GameTitle = video.GameTitle
	}
	return nil
}

// importUpload copies the upload source into the media store. Both local
// paths and direct http(s) URLs are accepted. Missing durations are probed
// with ffprobe when the binary is installed; otherwise the caller must have
// set one on the clip already.
func (i *Ingester) importUpload(ctx context.Context, clip *queue.Clip) error {
	source := strings.TrimSpace(clip.SourceURL)
	if source == "" {
		return services.Wrap(services.ErrValidation, "ingest", "import upload", "Upload source is empty", nil)
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		reader, info, err := i.fetchRemote(ctx, source)
		if err != nil {
			return err
		}
		defer reader.Close()

		key, err := i.media.Save(reader, info)
		if err != nil {
			return services.Wrap(services.ErrTransient, "ingest", "store upload", "Failed to copy upload into media store", err)
		}
		clip.VideoURL = i.media.URL(key)
		return nil
	}
	return i.importLocal(ctx, clip, source)
}

// importLocal prefers the verified file import when the store supports it and
// fills a missing duration by probing the source file.
func (i *Ingester) importLocal(ctx context.Context, clip *queue.Clip, path string) error {
	if clip.Duration <= 0 {
		if probe := deps.FFprobe(); probe.Available {
			result, err := ffprobe.Inspect(ctx, probe.Command, path)
			if err != nil {
				return services.Wrap(services.ErrValidation, "ingest", "probe upload",
					"Failed to probe upload duration", err)
			}
			if !result.HasVideoStream() {
				return services.Wrap(services.ErrValidation, "ingest", "probe upload",
					"Upload contains no video stream", nil)
			}
			clip.Duration = result.DurationSeconds()
		}
	}

	if importer, ok := i.media.(storage.FileImporter); ok {
		info := storage.FileInfo{Filename: filepath.Base(path)}
		key, err := importer.ImportFile(path, info)
		if err != nil {
			return services.Wrap(services.ErrTransient, "ingest", "store upload", "Failed to copy upload into media store", err)
		}
		clip.VideoURL = i.media.URL(key)
		return nil
	}

	reader, info, err := openLocal(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	key, err := i.media.Save(reader, info)
	if err != nil {
		return services.Wrap(services.ErrTransient, "ingest", "store upload", "Failed to copy upload into media store", err)
	}
	clip.VideoURL = i.media.URL(key)
	return nil
}

func (i *Ingester) fetchRemote(ctx context.Context, url string) (io.ReadCloser, storage.FileInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, storage.FileInfo{}, services.Wrap(services.ErrValidation, "ingest", "fetch upload", "Invalid upload URL", err)
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return nil, storage.FileInfo{}, services.Wrap(services.ErrTransient, "ingest", "fetch upload", "Failed to download upload source", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, storage.FileInfo{}, services.Wrap(services.ErrProvider, "ingest", "fetch upload",
			"Upload source returned "+strconv.Itoa(resp.StatusCode), nil)
	}
	info := storage.FileInfo{
		Filename:    filepath.Base(req.URL.Path),
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}
	return resp.Body, info, nil
}

func openLocal(path string) (io.ReadCloser, storage.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, storage.FileInfo{}, services.Wrap(services.ErrValidation, "ingest", "open upload",
			"Upload source file not readable", err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, storage.FileInfo{}, services.Wrap(services.ErrTransient, "ingest", "stat upload",
			"Failed to stat upload source", err)
	}
	info := storage.FileInfo{
		Filename: filepath.Base(path),
		Size:     stat.Size(),
	}
	return f, info, nil
}
