package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"log/slog"

	"clipforge/internal/logging"
	"clipforge/internal/notifications"
	"clipforge/internal/queue"
	"clipforge/internal/stage"
)

func (m *Manager) runClipLane(ctx context.Context) {
	defer m.wg.Done()
	logger := logging.NewComponentLogger(m.logger, "clip-lane")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.heartbeat.ReclaimClips(ctx, logger); err != nil {
			logger.Warn("reclaim stale clips failed; stuck clips may remain",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}

		clip, err := m.store.ClaimClip(ctx, queue.StatusPending, queue.StatusProcessing)
		if err != nil {
			m.handleClaimError(ctx, logger, err)
			continue
		}
		if clip == nil {
			m.waitOrShutdown(ctx, m.pollInterval)
			continue
		}

		if err := m.processClip(ctx, logger, clip); errors.Is(err, context.Canceled) {
			return
		}
	}
}

func (m *Manager) runExportLane(ctx context.Context) {
	defer m.wg.Done()
	logger := logging.NewComponentLogger(m.logger, "export-lane")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.heartbeat.ReclaimExports(ctx, logger); err != nil {
			logger.Warn("reclaim stale exports failed; stuck exports may remain",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}

		export, err := m.store.ClaimExport(ctx)
		if err != nil {
			m.handleClaimError(ctx, logger, err)
			continue
		}
		if export == nil {
			m.waitOrShutdown(ctx, m.pollInterval)
			continue
		}

		if err := m.processExport(ctx, logger, export); errors.Is(err, context.Canceled) {
			return
		}
	}
}

// processClip carries a freshly claimed clip through ingest and detect. The
// clip stays in processing throughout; a failure in either stage fails the
// clip, and only a full pass marks it completed.
func (m *Manager) processClip(ctx context.Context, laneLogger *slog.Logger, clip *queue.Clip) error {
	logger := laneLogger.With(logging.String("clip_id", clip.ID))
	start := time.Now()

	stages := []struct {
		name    string
		handler stage.Handler
	}{
		{"ingest", m.stages.Ingester},
		{"detect", m.stages.Detector},
	}

	for _, stg := range stages {
		if err := stg.handler.Prepare(ctx, clip); err != nil {
			m.failClip(ctx, logger, stg.name, clip, err)
			return err
		}
		if err := m.store.UpdateClip(ctx, clip); err != nil {
			logger.Error("failed to persist stage preparation", logging.Error(err))
			m.setLastError(err)
			return err
		}

		execErr := m.executeClipStage(ctx, stg.handler, clip)
		if execErr != nil {
			if errors.Is(execErr, context.Canceled) {
				logger.Debug("stage interrupted by shutdown", logging.String("stage", stg.name))
				return execErr
			}
			m.failClip(ctx, logger, stg.name, clip, execErr)
			return execErr
		}
		if err := m.store.UpdateClip(ctx, clip); err != nil {
			logger.Error("failed to persist stage result", logging.Error(err))
			m.setLastError(err)
			return err
		}
	}

	clip.MarkCompleted(time.Now())
	if err := m.store.UpdateClip(ctx, clip); err != nil {
		logger.Error("failed to persist clip completion", logging.Error(err))
		m.setLastError(err)
		return err
	}
	logger.Info("clip completed",
		logging.String("title", strings.TrimSpace(clip.Title)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (m *Manager) processExport(ctx context.Context, laneLogger *slog.Logger, export *queue.Export) error {
	logger := laneLogger.With(logging.String("export_id", export.ID))
	start := time.Now()

	if err := m.stages.Exporter.Prepare(ctx, export); err != nil {
		m.failExport(ctx, logger, export, err)
		return err
	}
	if err := m.store.UpdateExport(ctx, export); err != nil {
		logger.Error("failed to persist export preparation", logging.Error(err))
		m.setLastError(err)
		return err
	}

	execErr := m.executeExportStage(ctx, export)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			logger.Debug("export interrupted by shutdown")
			return execErr
		}
		m.failExport(ctx, logger, export, execErr)
		return execErr
	}

	export.MarkCompleted(time.Now())
	if err := m.store.UpdateExport(ctx, export); err != nil {
		logger.Error("failed to persist export completion", logging.Error(err))
		m.setLastError(err)
		return err
	}
	logger.Info("export completed",
		logging.String("format", export.Format),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (m *Manager) executeClipStage(ctx context.Context, handler stage.Handler, clip *queue.Clip) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartClipLoop(hbCtx, &hbWG, clip.ID)

	execErr := handler.Execute(ctx, clip)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) executeExportStage(ctx context.Context, export *queue.Export) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartExportLoop(hbCtx, &hbWG, export.ID)

	execErr := m.stages.Exporter.Execute(ctx, export)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) failClip(ctx context.Context, logger *slog.Logger, stageName string, clip *queue.Clip, stageErr error) {
	message := failureMessage(stageName, stageErr)
	clip.SetFailed(message)
	logger.Error("stage failed",
		logging.String("stage", stageName),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)
	if err := m.store.UpdateClip(ctx, clip); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("failed to persist clip failure", logging.Error(err))
	}
	m.setLastError(stageErr)
	m.notifyError(ctx, logger, stageName, stageErr)
}

func (m *Manager) failExport(ctx context.Context, logger *slog.Logger, export *queue.Export, stageErr error) {
	message := failureMessage("export", stageErr)
	export.SetFailed(message)
	logger.Error("export failed",
		logging.String("error_message", message),
		logging.Error(stageErr),
	)
	if err := m.store.UpdateExport(ctx, export); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("failed to persist export failure", logging.Error(err))
	}
	m.setLastError(stageErr)
	m.notifyError(ctx, logger, "export", stageErr)
}

func (m *Manager) handleClaimError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logger.Error("failed to claim next job",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
	m.waitOrShutdown(ctx, m.retryInterval)
}

func (m *Manager) notifyError(ctx context.Context, logger *slog.Logger, stageName string, stageErr error) {
	if m.notifier == nil || stageErr == nil {
		return
	}
	payload := notifications.Payload{
		"context": stageName,
		"error":   strings.TrimSpace(stageErr.Error()),
	}
	if err := m.notifier.Publish(ctx, notifications.EventError, payload); err != nil {
		logger.Warn("error notification failed", logging.Error(err))
	}
}

func failureMessage(stageName string, stageErr error) string {
	if stageErr == nil {
		return stageName + " failed without error detail"
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = stageName + " failed"
	}
	return message
}
