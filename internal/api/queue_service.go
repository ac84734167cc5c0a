package api

import (
	"context"

	"clipforge/internal/queue"
)

// QueueReader abstracts queue persistence interactions needed for API queries.
type QueueReader interface {
	ListClips(ctx context.Context, statuses ...queue.Status) ([]*queue.Clip, error)
	GetClip(ctx context.Context, id string) (*queue.Clip, error)
	ChildClips(ctx context.Context, parentID string) ([]*queue.Clip, error)
	DetectionsForClip(ctx context.Context, clipID string) ([]queue.Detection, error)
	CaptionsForClip(ctx context.Context, clipID string) ([]queue.Caption, error)
	ListExports(ctx context.Context, statuses ...queue.Status) ([]*queue.Export, error)
	GetExport(ctx context.Context, id string) (*queue.Export, error)
	ExportsForClip(ctx context.Context, clipID string) ([]*queue.Export, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	ExportStats(ctx context.Context) (map[queue.Status]int, error)
}

// QueueService exposes read-only queue operations returning API DTOs.
type QueueService struct {
	store QueueReader
}

// NewQueueService constructs a QueueService around the provided reader.
func NewQueueService(store QueueReader) *QueueService {
	if store == nil {
		return nil
	}
	return &QueueService{store: store}
}

// ListClips returns clips filtered by status.
func (s *QueueService) ListClips(ctx context.Context, statuses ...queue.Status) ([]ClipItem, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	clips, err := s.store.ListClips(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromClips(clips), nil
}

// ListExports returns export jobs filtered by status.
func (s *QueueService) ListExports(ctx context.Context, statuses ...queue.Status) ([]ExportItem, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	exports, err := s.store.ListExports(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromExports(exports), nil
}

// DescribeClip fetches a clip with its detections, captions, exports, and
// derived children. Returns nil when the clip does not exist.
func (s *QueueService) DescribeClip(ctx context.Context, id string) (*ClipDetail, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	clip, err := s.store.GetClip(ctx, id)
	if err != nil || clip == nil {
		return nil, err
	}
	detail := &ClipDetail{Clip: FromClip(clip)}
	if detections, err := s.store.DetectionsForClip(ctx, id); err == nil {
		detail.Detections = FromDetections(detections)
	} else {
		return nil, err
	}
	if captions, err := s.store.CaptionsForClip(ctx, id); err == nil {
		detail.Captions = FromCaptions(captions)
	} else {
		return nil, err
	}
	if exports, err := s.store.ExportsForClip(ctx, id); err == nil {
		detail.Exports = FromExports(exports)
	} else {
		return nil, err
	}
	if children, err := s.store.ChildClips(ctx, id); err == nil {
		detail.Children = FromClips(children)
	} else {
		return nil, err
	}
	return detail, nil
}

// DescribeExport fetches a single export job. Returns nil when absent.
func (s *QueueService) DescribeExport(ctx context.Context, id string) (*ExportItem, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	export, err := s.store.GetExport(ctx, id)
	if err != nil || export == nil {
		return nil, err
	}
	dto := FromExport(export)
	return &dto, nil
}

// Stats returns normalized queue counts for both tables.
func (s *QueueService) Stats(ctx context.Context) (QueueStatsResponse, error) {
	if s == nil || s.store == nil {
		return QueueStatsResponse{}, nil
	}
	clipStats, err := s.store.Stats(ctx)
	if err != nil {
		return QueueStatsResponse{}, err
	}
	exportStats, err := s.store.ExportStats(ctx)
	if err != nil {
		return QueueStatsResponse{}, err
	}
	return QueueStatsResponse{
		Clips:   MergeStats(clipStats),
		Exports: MergeStats(exportStats),
	}, nil
}
