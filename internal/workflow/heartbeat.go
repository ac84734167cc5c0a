package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"log/slog"

	"clipforge/internal/logging"
	"clipforge/internal/queue"
)

// HeartbeatMonitor manages job heartbeats and stale job reclamation.
type HeartbeatMonitor struct {
	store    *queue.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

// NewHeartbeatMonitor creates a new monitor.
func NewHeartbeatMonitor(store *queue.Store, logger *slog.Logger, interval, timeout time.Duration) *HeartbeatMonitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HeartbeatMonitor{
		store:    store,
		logger:   logging.NewComponentLogger(logger, "workflow-heartbeat"),
		interval: interval,
		timeout:  timeout,
	}
}

// ReclaimClips resets processing clips whose heartbeats have gone stale.
func (h *HeartbeatMonitor) ReclaimClips(ctx context.Context, logger *slog.Logger) error {
	if h.timeout <= 0 {
		return nil
	}
	reclaimed, err := h.store.ReclaimStaleClips(ctx, time.Now().Add(-h.timeout))
	if err != nil {
		return err
	}
	if reclaimed > 0 {
		logger.Info("reclaimed stale clips", logging.Int64("count", reclaimed))
	}
	return nil
}

// ReclaimExports resets processing exports whose heartbeats have gone stale.
func (h *HeartbeatMonitor) ReclaimExports(ctx context.Context, logger *slog.Logger) error {
	if h.timeout <= 0 {
		return nil
	}
	reclaimed, err := h.store.ReclaimStaleExports(ctx, time.Now().Add(-h.timeout))
	if err != nil {
		return err
	}
	if reclaimed > 0 {
		logger.Info("reclaimed stale exports", logging.Int64("count", reclaimed))
	}
	return nil
}

// StartClipLoop runs a heartbeat updater for a clip until context cancellation.
func (h *HeartbeatMonitor) StartClipLoop(ctx context.Context, wg *sync.WaitGroup, clipID string) {
	h.loop(ctx, wg, func(loopCtx context.Context) error {
		return h.store.UpdateClipHeartbeat(loopCtx, clipID)
	})
}

// StartExportLoop runs a heartbeat updater for an export until context cancellation.
func (h *HeartbeatMonitor) StartExportLoop(ctx context.Context, wg *sync.WaitGroup, exportID string) {
	h.loop(ctx, wg, func(loopCtx context.Context) error {
		return h.store.UpdateExportHeartbeat(loopCtx, exportID)
	})
}

func (h *HeartbeatMonitor) loop(ctx context.Context, wg *sync.WaitGroup, beat func(context.Context) error) {
	defer wg.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	logger := logging.WithContext(ctx, h.logger)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := beat(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Info("daemon shutting down, heartbeat update cancelled")
				} else {
					logger.Warn("heartbeat update failed", logging.Error(err))
				}
			}
		}
	}
}
