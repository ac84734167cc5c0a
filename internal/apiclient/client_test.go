package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"clipforge/internal/api"
)

func TestClientStatusAndAuth(t *testing.T) {
	var sawAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/status" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(api.DaemonStatus{Running: true, PID: 42})
	}))
	defer server.Close()

	client := New(server.URL, "sekrit")
	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.PID != 42 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if sawAuth != "Bearer sekrit" {
		t.Fatalf("unexpected auth header: %q", sawAuth)
	}
}

func TestClientBareHostPort(t *testing.T) {
	client := New("127.0.0.1:9999", "")
	if client.baseURL != "http://127.0.0.1:9999" {
		t.Fatalf("unexpected base url: %q", client.baseURL)
	}
}

func TestClientListClipsStatusFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.URL.Query()["status"]
		if len(got) != 2 || got[0] != "pending" || got[1] != "failed" {
			t.Errorf("unexpected status filter: %v", got)
		}
		json.NewEncoder(w).Encode(api.ClipListResponse{Items: []api.ClipItem{{ID: "clip-1"}}})
	}))
	defer server.Close()

	items, err := New(server.URL, "").ListClips(context.Background(), []string{"pending", " failed "})
	if err != nil {
		t.Fatalf("ListClips: %v", err)
	}
	if len(items) != 1 || items[0].ID != "clip-1" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestClientDescribeClipNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "clip not found"})
	}))
	defer server.Close()

	detail, err := New(server.URL, "").DescribeClip(context.Background(), "nope")
	if err != nil {
		t.Fatalf("DescribeClip: %v", err)
	}
	if detail != nil {
		t.Fatalf("expected nil detail, got %+v", detail)
	}
}

func TestClientErrorPayloadSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Source is required"})
	}))
	defer server.Close()

	_, err := New(server.URL, "").Ingest(context.Background(), api.IngestRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	statusErr, ok := err.(*StatusError)
	if !ok || statusErr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected error: %v", err)
	}
	if statusErr.Message != "Source is required" {
		t.Fatalf("unexpected message: %q", statusErr.Message)
	}
}

func TestClientCreateExport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/exports" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req api.ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ClipID != "clip-1" || req.Format != "shorts" {
			t.Errorf("unexpected request payload: %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(api.ExportItem{ID: "exp-1", ClipID: req.ClipID, Format: req.Format})
	}))
	defer server.Close()

	export, err := New(server.URL, "").CreateExport(context.Background(), api.ExportRequest{ClipID: "clip-1", Format: "shorts"})
	if err != nil {
		t.Fatalf("CreateExport: %v", err)
	}
	if export.ID != "exp-1" {
		t.Fatalf("unexpected export: %+v", export)
	}
}
