package config

import (
	"fmt"
	"strings"
)

var knownResolutions = map[string]struct{}{
	"preview": {},
	"mobile":  {},
	"sd":      {},
	"hd":      {},
	"1080":    {},
}

// normalize expands path fields and fills empty values from defaults so the
// rest of the program never has to re-check for blanks.
func (c *Config) normalize() error {
	defaults := Default()

	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaults.Paths.StagingDir
	}
	if strings.TrimSpace(c.Paths.MediaDir) == "" {
		c.Paths.MediaDir = defaults.Paths.MediaDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaults.Paths.LogDir
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		c.Paths.APIBind = defaults.Paths.APIBind
	}

	for name, field := range map[string]*string{
		"staging_dir": &c.Paths.StagingDir,
		"media_dir":   &c.Paths.MediaDir,
		"log_dir":     &c.Paths.LogDir,
	} {
		expanded, err := expandPath(*field)
		if err != nil {
			return fmt.Errorf("expand %s: %w", name, err)
		}
		*field = expanded
	}

	if strings.TrimSpace(c.Twitch.BaseURL) == "" {
		c.Twitch.BaseURL = defaults.Twitch.BaseURL
	}
	if strings.TrimSpace(c.Twitch.AuthURL) == "" {
		c.Twitch.AuthURL = defaults.Twitch.AuthURL
	}
	if strings.TrimSpace(c.Transcription.BaseURL) == "" {
		c.Transcription.BaseURL = defaults.Transcription.BaseURL
	}
	if strings.TrimSpace(c.Render.BaseURL) == "" {
		c.Render.BaseURL = defaults.Render.BaseURL
	}
	if strings.TrimSpace(c.Render.Resolution) == "" {
		c.Render.Resolution = defaults.Render.Resolution
	}
	c.Render.Resolution = strings.ToLower(strings.TrimSpace(c.Render.Resolution))

	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaults.Logging.Level
	}

	return nil
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	var problems []string

	if c.Transcription.PollInterval <= 0 {
		problems = append(problems, "transcription.poll_interval must be greater than zero")
	}
	if c.Transcription.MaxPollAttempts <= 0 {
		problems = append(problems, "transcription.max_poll_attempts must be greater than zero")
	}
	if c.Render.PollInterval <= 0 {
		problems = append(problems, "render.poll_interval must be greater than zero")
	}
	if c.Render.MaxPollAttempts <= 0 {
		problems = append(problems, "render.max_poll_attempts must be greater than zero")
	}
	if c.Render.FPS <= 0 {
		problems = append(problems, "render.fps must be greater than zero")
	}
	if _, ok := knownResolutions[c.Render.Resolution]; !ok {
		problems = append(problems, fmt.Sprintf("render.resolution %q is not a supported resolution", c.Render.Resolution))
	}
	if c.Detection.SampleInterval <= 0 {
		problems = append(problems, "detection.sample_interval must be greater than zero")
	}
	if c.Detection.SampleInterval > 60 {
		problems = append(problems, "detection.sample_interval must be 60 seconds or less")
	}
	if c.Workflow.QueuePollInterval <= 0 {
		problems = append(problems, "workflow.queue_poll_interval must be greater than zero")
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		problems = append(problems, "workflow.error_retry_interval must be greater than zero")
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		problems = append(problems, "workflow.heartbeat_interval must be greater than zero")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		problems = append(problems, "workflow.heartbeat_timeout must exceed workflow.heartbeat_interval")
	}
	if c.Notifications.RequestTimeout <= 0 {
		problems = append(problems, "notifications.request_timeout must be greater than zero")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
