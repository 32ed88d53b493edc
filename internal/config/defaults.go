package config

const (
	defaultConfigPath               = "~/.config/clipstudio/config.toml"
	defaultStateDir                 = "~/.local/share/clipstudio"
	defaultLogDir                   = "~/.local/share/clipstudio/logs"
	defaultLogRetentionDays         = 30
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultGenerationBaseURL        = "http://127.0.0.1:3001"
	defaultPollIntervalSeconds      = 3
	defaultGenerationTimeoutSeconds = 30
	defaultStitchTimeoutSeconds     = 300
	defaultLibraryFile              = "library.db"
	defaultHandoffExchange          = "clipstudio.videos"
	defaultHandoffRoutingKey        = "video.finalized"
	defaultScheduleURLTemplate      = "/schedule?videoId=%s"
	defaultArchivePrefix            = "clipstudio"
	defaultNotifyRequestTimeout     = 10
	defaultAPIBind                  = "127.0.0.1:7491"
	envGenerationToken              = "CLIPSTUDIO_GENERATION_TOKEN"
	envStitchToken                  = "CLIPSTUDIO_STITCH_TOKEN"
	envLibraryDSN                   = "CLIPSTUDIO_LIBRARY_DSN"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Generation: Generation{
			BaseURL:               defaultGenerationBaseURL,
			PollIntervalSeconds:   defaultPollIntervalSeconds,
			RequestTimeoutSeconds: defaultGenerationTimeoutSeconds,
		},
		Stitch: Stitch{
			RequestTimeoutSeconds: defaultStitchTimeoutSeconds,
		},
		Library: Library{
			Driver: LibraryDriverSQLite,
		},
		Handoff: Handoff{
			Mode:                HandoffModeLog,
			Exchange:            defaultHandoffExchange,
			RoutingKey:          defaultHandoffRoutingKey,
			ScheduleURLTemplate: defaultScheduleURLTemplate,
		},
		Archive: Archive{
			Prefix: defaultArchivePrefix,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Clips:          true,
			Merges:         true,
			Finalize:       true,
			Errors:         true,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
