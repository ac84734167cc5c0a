package ffprobe

import (
	"context"
	"testing"
)

func TestDurationSeconds(t *testing.T) {
	result := Result{Format: Format{Duration: "123.45"}}
	if got := result.DurationSeconds(); got != 123.45 {
		t.Fatalf("unexpected duration: %v", got)
	}

	for _, raw := range []string{"", "  ", "bad", "-5"} {
		result := Result{Format: Format{Duration: raw}}
		if got := result.DurationSeconds(); got != 0 {
			t.Fatalf("expected 0 for %q, got %v", raw, got)
		}
	}
}

func TestHasVideoStream(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio"}, {CodecType: "VIDEO"}}}
	if !result.HasVideoStream() {
		t.Fatal("expected video stream to be detected")
	}

	result = Result{Streams: []Stream{{CodecType: "audio"}}}
	if result.HasVideoStream() {
		t.Fatal("expected no video stream")
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
