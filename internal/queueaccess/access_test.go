package queueaccess_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"clipforge/internal/api"
	"clipforge/internal/apiclient"
	"clipforge/internal/queue"
	"clipforge/internal/queueaccess"
	"clipforge/internal/testsupport"
)

func TestOpenWithFallbackPrefersRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/status":
			json.NewEncoder(w).Encode(api.DaemonStatus{Running: true})
		case "/api/clips":
			json.NewEncoder(w).Encode(api.ClipListResponse{Items: []api.ClipItem{{ID: "remote-clip"}}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	session, err := queueaccess.OpenWithFallback(
		context.Background(),
		func() (*apiclient.Client, error) { return apiclient.New(server.URL, ""), nil },
		nil,
	)
	if err != nil {
		t.Fatalf("OpenWithFallback: %v", err)
	}
	defer session.Close()
	if !session.Remote {
		t.Fatal("expected remote-backed session")
	}

	items, err := session.Access.ListClips(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListClips: %v", err)
	}
	if len(items) != 1 || items[0].ID != "remote-clip" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestOpenWithFallbackUsesStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	clip := testsupport.NewClip(t, store, "Local Clip", queue.SourceUpload, "/tmp/local.mp4")

	session, err := queueaccess.OpenWithFallback(
		context.Background(),
		func() (*apiclient.Client, error) { return nil, errors.New("daemon offline") },
		func() (*queue.Store, error) { return store, nil },
	)
	if err != nil {
		t.Fatalf("OpenWithFallback: %v", err)
	}
	if session.Remote {
		t.Fatal("expected store-backed session")
	}

	detail, err := session.Access.DescribeClip(context.Background(), clip.ID)
	if err != nil {
		t.Fatalf("DescribeClip: %v", err)
	}
	if detail == nil || detail.Clip.Title != "Local Clip" {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}
