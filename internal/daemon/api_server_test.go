package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipforge/internal/api"
	"clipforge/internal/queue"
	"clipforge/internal/testsupport"
)

func startAPI(t *testing.T, opts ...testsupport.ConfigOption) (string, *queue.Store) {
	t.Helper()
	d, _, store := newDaemon(t, opts...)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := d.APIAddr()
	if addr == "" {
		t.Fatal("expected api server address")
	}
	return "http://" + addr, store
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func postJSON(t *testing.T, url string, payload any, out any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestAPIStatus(t *testing.T) {
	base, _ := startAPI(t)

	var status api.DaemonStatus
	resp := getJSON(t, base+"/api/status", &status)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}
	if !status.Running || !status.Workflow.Running {
		t.Fatalf("expected running daemon: %+v", status)
	}
	if len(status.Workflow.StageHealth) != 3 {
		t.Fatalf("expected three stage health entries: %+v", status.Workflow.StageHealth)
	}
	if status.QueueDBPath == "" || status.LockFilePath == "" {
		t.Fatalf("expected paths in status: %+v", status)
	}
}

func TestAPIIngestAndListClips(t *testing.T) {
	base, _ := startAPI(t)

	var created api.ClipItem
	resp := postJSON(t, base+"/api/ingest", api.IngestRequest{
		Source: "https://clips.twitch.tv/FunnySlugName",
		Title:  "Ace Round",
	}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected ingest status: %d", resp.StatusCode)
	}
	if created.ID == "" || created.SourceType != "twitch_clip" {
		t.Fatalf("unexpected created clip: %+v", created)
	}

	var list api.ClipListResponse
	if resp := getJSON(t, base+"/api/clips", &list); resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected list status: %d", resp.StatusCode)
	}
	if len(list.Items) != 1 || list.Items[0].ID != created.ID {
		t.Fatalf("unexpected clip list: %+v", list.Items)
	}

	var detail api.ClipDetail
	if resp := getJSON(t, base+"/api/clips/"+created.ID, &detail); resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected detail status: %d", resp.StatusCode)
	}
	if detail.Clip.ID != created.ID {
		t.Fatalf("unexpected clip detail: %+v", detail)
	}

	if resp := getJSON(t, base+"/api/clips/nope", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown clip, got %d", resp.StatusCode)
	}
}

func TestAPIIngestRejectsInvalid(t *testing.T) {
	base, _ := startAPI(t)

	resp := postJSON(t, base+"/api/ingest", api.IngestRequest{Source: "   "}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank source, got %d", resp.StatusCode)
	}
	if resp := getJSON(t, base+"/api/ingest", nil); resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET ingest, got %d", resp.StatusCode)
	}
}

func TestAPIExportLifecycle(t *testing.T) {
	base, store := startAPI(t)
	clip := completedClip(t, store, 45)

	var created api.ExportItem
	resp := postJSON(t, base+"/api/exports", api.ExportRequest{
		ClipID: clip.ID,
		Format: "shorts",
	}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected export status: %d", resp.StatusCode)
	}
	if created.Format != "shorts" || created.StylePack != "clean" {
		t.Fatalf("unexpected export: %+v", created)
	}

	var item api.ExportItem
	if resp := getJSON(t, base+"/api/exports/"+created.ID, &item); resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected export fetch status: %d", resp.StatusCode)
	}
	if item.ClipID != clip.ID {
		t.Fatalf("unexpected export item: %+v", item)
	}

	var list api.ExportListResponse
	if resp := getJSON(t, base+"/api/exports", &list); resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected export list status: %d", resp.StatusCode)
	}
	if len(list.Items) == 0 {
		t.Fatal("expected export list entries")
	}

	if resp := postJSON(t, base+"/api/exports", api.ExportRequest{ClipID: "missing", Format: "shorts"}, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown clip, got %d", resp.StatusCode)
	}
	if resp := postJSON(t, base+"/api/exports", api.ExportRequest{ClipID: clip.ID, Format: "betamax"}, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", resp.StatusCode)
	}
}

func TestAPIStats(t *testing.T) {
	base, store := startAPI(t)
	completedClip(t, store, 30)

	var stats api.QueueStatsResponse
	if resp := getJSON(t, base+"/api/stats", &stats); resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected stats status: %d", resp.StatusCode)
	}
	if stats.Clips["completed"] != 1 {
		t.Fatalf("unexpected clip stats: %+v", stats.Clips)
	}
	if _, ok := stats.Exports["pending"]; !ok {
		t.Fatalf("expected normalized export stats: %+v", stats.Exports)
	}
}

func TestAPIBearerAuth(t *testing.T) {
	base, _ := startAPI(t, testsupport.WithAPIToken("sekrit"))

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, base+"/api/status", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", "sekrit"))
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("GET status with token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}

	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("GET status with bad token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", resp.StatusCode)
	}
}

func TestAPILogsTail(t *testing.T) {
	d, cfg, _ := newDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	base := "http://" + d.APIAddr()

	logPath := filepath.Join(cfg.Paths.LogDir, "clipforge.log")
	if err := os.WriteFile(logPath, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	var tail api.LogTailResponse
	resp := getJSON(t, base+"/api/logs?limit=2", &tail)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}
	if len(tail.Lines) != 2 || tail.Lines[0] != "two" || tail.Lines[1] != "three" {
		t.Fatalf("unexpected lines: %#v", tail.Lines)
	}
	if tail.Offset == 0 {
		t.Fatal("expected offset to advance")
	}

	resp = getJSON(t, fmt.Sprintf("%s/api/logs?offset=%d", base, tail.Offset), &tail)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}
	if len(tail.Lines) != 0 {
		t.Fatalf("expected no new lines, got %#v", tail.Lines)
	}

	resp = getJSON(t, base+"/api/logs?offset=bogus", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad offset, got %d", resp.StatusCode)
	}
}
