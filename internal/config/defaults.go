package config

const (
	defaultDataDir               = "~/.local/share/storyreel/data"
	defaultWorkspaceDir          = "~/.local/share/storyreel/workspace"
	defaultLogDir                = "~/.local/share/storyreel/logs"
	defaultAPIBind               = "127.0.0.1:7519"
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "google/gemini-3-flash-preview"
	defaultLLMReferer            = "https://github.com/storyreel/storyreel"
	defaultLLMTitle              = "Storyreel Pipeline"
	defaultLLMTimeoutSeconds     = 120
	defaultTranscriptionBaseURL  = "https://api.openai.com/v1/audio/transcriptions"
	defaultTranscriptionModel    = "whisper-1"
	defaultTranscriptionTimeout  = 300
	defaultLargeFileThresholdMiB = 20
	defaultChunkSeconds          = 300
	defaultImagesBaseURL         = "https://api.openai.com/v1/images/generations"
	defaultImagesModel           = "gpt-image-1"
	defaultImagesSize            = "1024x1024"
	defaultImagesTimeout         = 120
	defaultLintMinWords          = 50
	defaultLintMaxWords          = 80
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
			APIBind:      defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Transcription: Transcription{
			BaseURL:               defaultTranscriptionBaseURL,
			Model:                 defaultTranscriptionModel,
			TimeoutSeconds:        defaultTranscriptionTimeout,
			LargeFileThresholdMiB: defaultLargeFileThresholdMiB,
			ChunkSeconds:          defaultChunkSeconds,
		},
		Images: Images{
			Enabled:        false,
			BaseURL:        defaultImagesBaseURL,
			Model:          defaultImagesModel,
			Size:           defaultImagesSize,
			TimeoutSeconds: defaultImagesTimeout,
		},
		Lint: Lint{
			Enabled:  true,
			MinWords: defaultLintMinWords,
			MaxWords: defaultLintMaxWords,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
