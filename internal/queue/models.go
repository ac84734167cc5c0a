package queue

import (
	"errors"
	"strings"
	"time"
)

// Status represents the lifecycle of a clip or export job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// DaemonStopReason is the error message set when jobs are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ErrTerminalStatus is returned by updates that would move a completed or
// failed record back into an active status. Retrying goes through
// RetryFailedClips and RetryFailedExports instead.
var ErrTerminalStatus = errors.New("record is in a terminal status")

// SourceType identifies where a clip's video came from.
type SourceType string

const (
	SourceTwitchClip SourceType = "twitch_clip"
	SourceTwitchVOD  SourceType = "twitch_vod"
	SourceUpload     SourceType = "upload"
)

// Clip represents a source video tracked through ingest and detection.
type Clip struct {
	ID              string
	Title           string
	SourceType      SourceType
	SourceURL       string
	VideoURL        string
	ThumbnailURL    string
	Duration        float64
	GameTitle       string
	ParentID        string
	Status          Status
	ErrorMessage    string
	ProgressStage   string
	ProgressMessage string
	LastHeartbeat   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// IsAutoClip reports whether the clip was derived from another clip's detections.
func (c Clip) IsAutoClip() bool {
	return c.ParentID != ""
}

// SetProgress updates the progress fields together.
func (c *Clip) SetProgress(stage, message string) {
	c.ProgressStage = stage
	c.ProgressMessage = message
}

// SetFailed marks the clip as failed with the given error message.
func (c *Clip) SetFailed(message string) {
	c.Status = StatusFailed
	c.ErrorMessage = message
	c.ProgressStage = "Failed"
	c.ProgressMessage = message
	c.LastHeartbeat = nil
}

// MarkCompleted moves the clip to completed and stamps the completion time.
func (c *Clip) MarkCompleted(now time.Time) {
	c.Status = StatusCompleted
	c.ErrorMessage = ""
	c.LastHeartbeat = nil
	completed := now.UTC()
	c.CompletedAt = &completed
}

// Detection is a persisted highlight detection attached to a clip.
type Detection struct {
	ID           int64
	ClipID       string
	Category     string
	Timestamp    float64
	Confidence   float64
	MetadataJSON string
}

// Caption is a persisted transcript segment attached to a clip.
type Caption struct {
	ID     int64
	ClipID string
	Start  float64
	End    float64
	Text   string
}

// Export represents a vertical export job for a completed clip.
type Export struct {
	ID              string
	ClipID          string
	StylePack       string
	Format          string
	Status          Status
	SettingsJSON    string
	OptionsJSON     string
	OutputURL       string
	OutputSize      int64
	ErrorMessage    string
	ProgressStage   string
	ProgressMessage string
	LastHeartbeat   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// SetFailed marks the export as failed with the given error message.
func (e *Export) SetFailed(message string) {
	e.Status = StatusFailed
	e.ErrorMessage = message
	e.ProgressStage = "Failed"
	e.ProgressMessage = message
	e.LastHeartbeat = nil
}

// MarkCompleted moves the export to completed and stamps the completion time.
func (e *Export) MarkCompleted(now time.Time) {
	e.Status = StatusCompleted
	e.ErrorMessage = ""
	e.LastHeartbeat = nil
	completed := now.UTC()
	e.CompletedAt = &completed
}

// HealthSummary describes aggregated record counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	IntegrityCheck   bool
	TotalClips       int
	TotalExports     int
	Error            string
}
