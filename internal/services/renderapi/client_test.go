package renderapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"clipforge/internal/services"
	"clipforge/internal/services/renderapi"
)

func newClient(t *testing.T, baseURL string, maxAttempts int) *renderapi.Client {
	t.Helper()
	client, err := renderapi.New("key", baseURL, time.Millisecond, maxAttempts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestRenderCompletes(t *testing.T) {
	var polls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "key" {
			t.Errorf("missing api key header")
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/render":
			var spec map[string]any
			if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
				t.Errorf("decode spec: %v", err)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":  true,
				"response": map[string]string{"id": "job-1"},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/render/job-1":
			status := "rendering"
			url := ""
			if polls.Add(1) >= 3 {
				status = "done"
				url = "https://cdn.example.com/out.mp4"
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":  true,
				"response": map[string]string{"id": "job-1", "status": status, "url": url},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newClient(t, server.URL, 20)
	result, err := client.Render(context.Background(), map[string]string{"timeline": "x"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if result.JobID != "job-1" || result.URL != "https://cdn.example.com/out.mp4" {
		t.Fatalf("result = %+v", result)
	}
}

func TestRenderFailedJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":  true,
				"response": map[string]string{"id": "job-2"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"response": map[string]string{"id": "job-2", "status": "failed", "error": "asset fetch failed"},
		})
	}))
	defer server.Close()

	client := newClient(t, server.URL, 5)
	_, err := client.Render(context.Background(), map[string]string{})
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("error %v should be a provider error", err)
	}
}

func TestRenderTimesOutAfterMaxAttempts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":  true,
				"response": map[string]string{"id": "job-3"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"response": map[string]string{"id": "job-3", "status": "queued"},
		})
	}))
	defer server.Close()

	client := newClient(t, server.URL, 3)
	_, err := client.Render(context.Background(), map[string]string{})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("error %v should be a timeout", err)
	}
}

func TestRenderSubmitRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad timeline"}`))
	}))
	defer server.Close()

	client := newClient(t, server.URL, 3)
	_, err := client.Render(context.Background(), map[string]string{})
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("error %v should be a provider error", err)
	}
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("rendered bytes"))
	}))
	defer server.Close()

	client := newClient(t, server.URL, 3)
	body, _, err := client.Download(context.Background(), server.URL+"/out.mp4")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "rendered bytes" {
		t.Fatalf("data = %q", data)
	}
}
