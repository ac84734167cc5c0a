package config

const (
	defaultStagingDir = "~/.local/share/clipforge/staging"
	defaultMediaDir   = "~/.local/share/clipforge/media"
	defaultLogDir     = "~/.local/share/clipforge/logs"
	defaultAPIBind    = "127.0.0.1:7496"

	defaultTwitchBaseURL = "https://api.twitch.tv/helix"
	defaultTwitchAuthURL = "https://id.twitch.tv/oauth2/token"

	defaultTranscriptionBaseURL      = "https://api.assemblyai.com/v2"
	defaultTranscriptionPollInterval = 3
	defaultTranscriptionMaxAttempts  = 100

	defaultRenderBaseURL      = "https://api.shotstack.io/v1"
	defaultRenderPollInterval = 5
	defaultRenderMaxAttempts  = 60
	defaultRenderResolution   = "hd"
	defaultRenderFPS          = 30

	defaultDetectionSampleInterval = 3

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			MediaDir:   defaultMediaDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Twitch: Twitch{
			BaseURL: defaultTwitchBaseURL,
			AuthURL: defaultTwitchAuthURL,
		},
		Transcription: Transcription{
			BaseURL:         defaultTranscriptionBaseURL,
			PollInterval:    defaultTranscriptionPollInterval,
			MaxPollAttempts: defaultTranscriptionMaxAttempts,
		},
		Render: Render{
			BaseURL:         defaultRenderBaseURL,
			PollInterval:    defaultRenderPollInterval,
			MaxPollAttempts: defaultRenderMaxAttempts,
			Resolution:      defaultRenderResolution,
			FPS:             defaultRenderFPS,
		},
		Detection: Detection{
			AutoClip:       true,
			SampleInterval: defaultDetectionSampleInterval,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Clips:          true,
			Exports:        true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  5,
			ErrorRetryInterval: 10,
			HeartbeatInterval:  10,
			HeartbeatTimeout:   120,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
