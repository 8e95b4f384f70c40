package config

// DefaultConfig returns a Config populated with all default values.
// Name is left empty: there is no sensible default for who owns the archive.
func DefaultConfig() *Config {
	return &Config{
		Name: "",
		Archive: ArchiveConfig{
			Path:            "~/facebook/messages/inbox",
			FragmentPattern: "message*.json",
			StickersDir:     "stickers_used",
		},
		Report: ReportConfig{
			TopN:     50,
			Timezone: "Local",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
