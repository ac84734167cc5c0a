package queueaccess

import (
	"context"
	"fmt"

	"clipforge/internal/apiclient"
	"clipforge/internal/queue"
)

// Session represents a queue access handle and its cleanup function.
type Session struct {
	Access Access
	Remote bool
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenWithFallback tries API-backed access first, then falls back to direct store access.
func OpenWithFallback(
	ctx context.Context,
	dial func() (*apiclient.Client, error),
	openStore func() (*queue.Store, error),
) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil && client.Ping(ctx) == nil {
			return Session{
				Access: NewRemoteAccess(client),
				Remote: true,
			}, nil
		}
	}

	if openStore == nil {
		return Session{}, fmt.Errorf("open queue store: no store opener configured")
	}
	store, err := openStore()
	if err != nil {
		return Session{}, fmt.Errorf("open queue store: %w", err)
	}
	return Session{
		Access: NewStoreAccess(store),
		close:  store.Close,
	}, nil
}
