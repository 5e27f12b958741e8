package config

const (
	defaultServerURL        = "http://localhost:39639"
	defaultDownloadDir      = "~/Pictures/darkroom"
	defaultResizeDebounceMS = 500
	defaultTimeoutSeconds   = 0
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
	defaultPreviewOutput    = "preview.jpg"
)

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		ServerURL:   defaultServerURL,
		DownloadDir: defaultDownloadDir,
		Preview: Preview{
			ResizeDebounceMS: defaultResizeDebounceMS,
			Output:           defaultPreviewOutput,
		},
		HTTP: HTTP{
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
