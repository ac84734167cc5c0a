package stage

import (
	"context"

	"clipforge/internal/queue"
)

// Handler describes the contract the workflow manager needs from each clip
// processing stage.
type Handler interface {
	Prepare(context.Context, *queue.Clip) error
	Execute(context.Context, *queue.Clip) error
	HealthCheck(context.Context) Health
}

// ExportHandler is the equivalent contract for the export lane.
type ExportHandler interface {
	Prepare(context.Context, *queue.Export) error
	Execute(context.Context, *queue.Export) error
	HealthCheck(context.Context) Health
}
