package workflow

import (
	"context"

	"clipforge/internal/logging"
	"clipforge/internal/queue"
	"clipforge/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	LastError   string
	ClipStats   map[queue.Status]int
	ExportStats map[queue.Status]int
	StageHealth map[string]stage.Health
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	stages := m.stages
	m.mu.RUnlock()

	clipStats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read clip stats", logging.Error(err))
	}
	exportStats, err := m.store.ExportStats(ctx)
	if err != nil {
		m.logger.Warn("failed to read export stats", logging.Error(err))
	}

	health := make(map[string]stage.Health, 3)
	if stages.Ingester != nil {
		health["ingest"] = stages.Ingester.HealthCheck(ctx)
	}
	if stages.Detector != nil {
		health["detect"] = stages.Detector.HealthCheck(ctx)
	}
	if stages.Exporter != nil {
		health["export"] = stages.Exporter.HealthCheck(ctx)
	}

	summary := StatusSummary{
		Running:     running,
		ClipStats:   clipStats,
		ExportStats: exportStats,
		StageHealth: health,
	}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	return summary
}
