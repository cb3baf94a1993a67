package config

const (
	defaultConfigPath         = "~/.config/filesort/config.toml"
	defaultDataDirFallback    = "~/.local/share/filesort"
	defaultLogDir             = "~/.local/share/filesort/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultCaptionBaseURL     = "https://api.openai.com/v1"
	defaultCaptionModel       = "gpt-4o-mini"
	defaultCaptionPrompt      = "Give a one word generic description of what is present in the image"
	defaultCaptionTimeout     = 60
	defaultCaptionMaxWidth    = 1024
	defaultCaptionJPEGQuality = 85
	defaultCaptionRPM         = 30
	defaultCaptionConcurrency = 2
	maxCaptionConcurrency     = 16
	reservedImagesFolderName  = "images"
	sampleAPIKeyPlaceholder   = "your_openai_api_key_here"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir(),
			LogDir:  defaultLogDir,
		},
		Caption: Caption{
			Enabled:           true,
			BaseURL:           defaultCaptionBaseURL,
			Model:             defaultCaptionModel,
			Prompt:            defaultCaptionPrompt,
			TimeoutSeconds:    defaultCaptionTimeout,
			MaxWidth:          defaultCaptionMaxWidth,
			JPEGQuality:       defaultCaptionJPEGQuality,
			RequestsPerMinute: defaultCaptionRPM,
			Concurrency:       defaultCaptionConcurrency,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
