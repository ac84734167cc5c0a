package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ClipItem describes a tracked clip in a transport-friendly format.
type ClipItem struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	SourceType   string       `json:"sourceType"`
	SourceURL    string       `json:"sourceUrl"`
	VideoURL     string       `json:"videoUrl,omitempty"`
	ThumbnailURL string       `json:"thumbnailUrl,omitempty"`
	Duration     float64      `json:"duration"`
	GameTitle    string       `json:"gameTitle,omitempty"`
	ParentID     string       `json:"parentId,omitempty"`
	Status       string       `json:"status"`
	Progress     JobProgress  `json:"progress"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	CreatedAt    string       `json:"createdAt,omitempty"`
	UpdatedAt    string       `json:"updatedAt,omitempty"`
	CompletedAt  string       `json:"completedAt,omitempty"`
}

// JobProgress captures stage progress information for a queue record.
type JobProgress struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// ExportItem describes a vertical export job in a transport-friendly format.
type ExportItem struct {
	ID           string      `json:"id"`
	ClipID       string      `json:"clipId"`
	StylePack    string      `json:"stylePack"`
	Format       string      `json:"format"`
	Status       string      `json:"status"`
	Progress     JobProgress `json:"progress"`
	OutputURL    string      `json:"outputUrl,omitempty"`
	OutputSize   int64       `json:"outputSize,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
	CreatedAt    string      `json:"createdAt,omitempty"`
	UpdatedAt    string      `json:"updatedAt,omitempty"`
	CompletedAt  string      `json:"completedAt,omitempty"`
}

// DetectionItem mirrors a persisted highlight detection.
type DetectionItem struct {
	Category   string          `json:"category"`
	Timestamp  float64         `json:"timestamp"`
	Confidence float64         `json:"confidence"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// CaptionItem mirrors a persisted transcript segment.
type CaptionItem struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// ClipDetail aggregates a clip with its detections, captions, exports, and
// derived children.
type ClipDetail struct {
	Clip       ClipItem        `json:"clip"`
	Detections []DetectionItem `json:"detections,omitempty"`
	Captions   []CaptionItem   `json:"captions,omitempty"`
	Exports    []ExportItem    `json:"exports,omitempty"`
	Children   []ClipItem      `json:"children,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	ClipStats   map[string]int `json:"clipStats"`
	ExportStats map[string]int `json:"exportStats"`
	LastError   string         `json:"lastError,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueDBPath  string         `json:"queueDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	Workflow     WorkflowStatus `json:"workflow"`
}

// LogTailResponse carries a chunk of daemon log lines plus the offset to
// resume tailing from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// QueueStatsResponse provides normalized queue stats for both tables.
type QueueStatsResponse struct {
	Clips   map[string]int `json:"clips"`
	Exports map[string]int `json:"exports"`
}

// ClipListResponse wraps a collection of clips for API responses.
type ClipListResponse struct {
	Items []ClipItem `json:"items"`
}

// ExportListResponse wraps a collection of export jobs.
type ExportListResponse struct {
	Items []ExportItem `json:"items"`
}

// IngestRequest enqueues a new source for ingestion.
type IngestRequest struct {
	Source   string  `json:"source"`
	Title    string  `json:"title,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// ExportRequest enqueues a vertical export for a completed clip.
type ExportRequest struct {
	ClipID    string          `json:"clipId"`
	Format    string          `json:"format"`
	StylePack string          `json:"stylePack,omitempty"`
	Settings  json.RawMessage `json:"settings,omitempty"`
	Options   json.RawMessage `json:"options,omitempty"`
}
