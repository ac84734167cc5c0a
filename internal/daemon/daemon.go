package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"clipforge/internal/config"
	"clipforge/internal/ingest"
	"clipforge/internal/logging"
	"clipforge/internal/logs"
	"clipforge/internal/notifications"
	"clipforge/internal/queue"
	"clipforge/internal/renderspec"
	"clipforge/internal/services"
	"clipforge/internal/textutil"
	"clipforge/internal/workflow"
)

// uploadFileExtensions lists the local file types accepted for manual ingestion.
var uploadFileExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".mov":  {},
	".webm": {},
}

// Daemon coordinates the background processing services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	api      *apiServer

	lockPath string
	logPath  string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "clipforged.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		workflow: wf,
		lockPath: lockPath,
		logPath:  filepath.Join(cfg.Paths.LogDir, "clipforge.log"),
		lock:     flock.New(lockPath),
	}
	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start launches the workflow manager, binds the API server, and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another clipforge daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.workflow.Stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("clipforge daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("clipforge daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound API listener address, or empty when the API is disabled.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// AddSource enqueues a new source for ingestion. Twitch URLs are classified
// automatically; anything else is treated as an upload. Local upload paths
// must point at an existing video file.
func (d *Daemon) AddSource(ctx context.Context, source, title string, duration float64) (*queue.Clip, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, services.Wrap(services.ErrValidation, "daemon", "add source", "Source is required", nil)
	}

	sourceType := ingest.ClassifySource(trimmed)
	if sourceType == queue.SourceUpload && !isRemoteSource(trimmed) {
		absPath, err := filepath.Abs(trimmed)
		if err != nil {
			return nil, fmt.Errorf("resolve source path: %w", err)
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "daemon", "add source", fmt.Sprintf("Source file %s not found", absPath), err)
		}
		if info.IsDir() {
			return nil, services.Wrap(services.ErrValidation, "daemon", "add source", fmt.Sprintf("Source path %s is a directory", absPath), nil)
		}
		ext := strings.ToLower(filepath.Ext(info.Name()))
		if _, ok := uploadFileExtensions[ext]; !ok {
			return nil, services.Wrap(services.ErrValidation, "daemon", "add source", fmt.Sprintf("Unsupported file extension %q", ext), nil)
		}
		trimmed = absPath
		if strings.TrimSpace(title) == "" {
			title = strings.TrimSuffix(info.Name(), ext)
		}
	}

	clip, err := d.store.NewClip(ctx, textutil.SanitizeFileName(title), sourceType, trimmed)
	if err != nil {
		return nil, fmt.Errorf("enqueue source: %w", err)
	}
	if duration > 0 {
		clip.Duration = duration
		if err := d.store.UpdateClip(ctx, clip); err != nil {
			return nil, fmt.Errorf("persist source duration: %w", err)
		}
	}
	d.logger.Info("source queued",
		logging.String(logging.FieldClipID, clip.ID),
		logging.String("source_type", string(sourceType)),
		logging.String("source", trimmed))
	return clip, nil
}

// CreateExport validates and enqueues a vertical export job for a completed clip.
func (d *Daemon) CreateExport(ctx context.Context, clipID, formatKey, stylePack, settingsJSON, optionsJSON string) (*queue.Export, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	clip, err := d.store.GetClip(ctx, strings.TrimSpace(clipID))
	if err != nil {
		return nil, err
	}
	if clip == nil {
		return nil, services.Wrap(services.ErrNotFound, "daemon", "create export", fmt.Sprintf("Clip %s not found", clipID), nil)
	}
	if clip.Status != queue.StatusCompleted {
		return nil, services.Wrap(services.ErrValidation, "daemon", "create export", fmt.Sprintf("Clip %s is %s; only completed clips can be exported", clip.ID, clip.Status), nil)
	}
	format, err := renderspec.ResolveFormat(formatKey)
	if err != nil {
		return nil, err
	}
	if err := renderspec.ValidateClipDuration(format, clip.Duration); err != nil {
		return nil, err
	}
	pack, err := renderspec.ResolveStylePack(stylePack)
	if err != nil {
		return nil, err
	}

	export, err := d.store.NewExport(ctx, clip.ID, pack.Key, format.Key, settingsJSON, optionsJSON)
	if err != nil {
		return nil, fmt.Errorf("enqueue export: %w", err)
	}
	d.logger.Info("export queued",
		logging.String(logging.FieldExportID, export.ID),
		logging.String(logging.FieldClipID, clip.ID),
		logging.String("format", format.Key))
	return export, nil
}

// ListClips returns clips filtered by optional statuses.
func (d *Daemon) ListClips(ctx context.Context, statuses []queue.Status) ([]*queue.Clip, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	return d.store.ListClips(ctx, statuses...)
}

// ListExports returns export jobs filtered by optional statuses.
func (d *Daemon) ListExports(ctx context.Context, statuses []queue.Status) ([]*queue.Export, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	return d.store.ListExports(ctx, statuses...)
}

// ClearQueue removes all clips and their dependent records.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.Clear(ctx)
}

// ClearCompleted removes only completed clips.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ClearCompletedClips(ctx)
}

// ClearFailed removes only failed clips.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ClearFailedClips(ctx)
}

// RetryFailed resets failed clips (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []string) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.RetryFailedClips(ctx, ids...)
}

// RetryFailedExports resets failed export jobs back to pending.
func (d *Daemon) RetryFailedExports(ctx context.Context, ids []string) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.RetryFailedExports(ctx, ids...)
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	if d.store == nil {
		return queue.HealthSummary{}, errors.New("queue store unavailable")
	}
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	if d.store == nil {
		return queue.DatabaseHealth{}, errors.New("queue store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// TailLog reads lines from the daemon's current log file. The file follows the
// clipforge.log pointer maintained at startup, so restarts keep serving the
// active run's log.
func (d *Daemon) TailLog(ctx context.Context, opts logs.TailOptions) (logs.TailResult, error) {
	return logs.Tail(ctx, d.logPath, opts)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	summary := d.workflow.Status(ctx)
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     summary,
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
	}
}

func isRemoteSource(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}
