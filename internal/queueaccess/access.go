// Package queueaccess lets CLI commands read queue state through the daemon
// API when it is reachable and fall back to direct store access otherwise.
package queueaccess

import (
	"context"

	"clipforge/internal/api"
	"clipforge/internal/apiclient"
	"clipforge/internal/queue"
)

// Access provides queue queries regardless of API or direct store backing.
type Access interface {
	Stats(ctx context.Context) (api.QueueStatsResponse, error)
	ListClips(ctx context.Context, statuses []string) ([]api.ClipItem, error)
	DescribeClip(ctx context.Context, id string) (*api.ClipDetail, error)
	ListExports(ctx context.Context, statuses []string) ([]api.ExportItem, error)
	DescribeExport(ctx context.Context, id string) (*api.ExportItem, error)
}

// NewRemoteAccess returns an Access backed by the daemon HTTP API.
func NewRemoteAccess(client *apiclient.Client) Access {
	return &remoteAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct DB access.
func NewStoreAccess(store *queue.Store) Access {
	return &storeAccess{service: api.NewQueueService(store)}
}

type remoteAccess struct {
	client *apiclient.Client
}

func (a *remoteAccess) Stats(ctx context.Context) (api.QueueStatsResponse, error) {
	stats, err := a.client.Stats(ctx)
	if err != nil {
		return api.QueueStatsResponse{}, err
	}
	return *stats, nil
}

func (a *remoteAccess) ListClips(ctx context.Context, statuses []string) ([]api.ClipItem, error) {
	return a.client.ListClips(ctx, statuses)
}

func (a *remoteAccess) DescribeClip(ctx context.Context, id string) (*api.ClipDetail, error) {
	return a.client.DescribeClip(ctx, id)
}

func (a *remoteAccess) ListExports(ctx context.Context, statuses []string) ([]api.ExportItem, error) {
	return a.client.ListExports(ctx, statuses)
}

func (a *remoteAccess) DescribeExport(ctx context.Context, id string) (*api.ExportItem, error) {
	return a.client.DescribeExport(ctx, id)
}

type storeAccess struct {
	service *api.QueueService
}

func (a *storeAccess) Stats(ctx context.Context) (api.QueueStatsResponse, error) {
	return a.service.Stats(ctx)
}

func (a *storeAccess) ListClips(ctx context.Context, statuses []string) ([]api.ClipItem, error) {
	return a.service.ListClips(ctx, parseStatuses(statuses)...)
}

func (a *storeAccess) DescribeClip(ctx context.Context, id string) (*api.ClipDetail, error) {
	return a.service.DescribeClip(ctx, id)
}

func (a *storeAccess) ListExports(ctx context.Context, statuses []string) ([]api.ExportItem, error) {
	return a.service.ListExports(ctx, parseStatuses(statuses)...)
}

func (a *storeAccess) DescribeExport(ctx context.Context, id string) (*api.ExportItem, error) {
	return a.service.DescribeExport(ctx, id)
}

func parseStatuses(values []string) []queue.Status {
	var statuses []queue.Status
	for _, value := range values {
		if parsed, ok := queue.ParseStatus(value); ok {
			statuses = append(statuses, parsed)
		}
	}
	return statuses
}
