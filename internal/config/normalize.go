package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeTranscription()
	c.normalizeImages()
	c.normalizeLint()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		c.Paths.WorkspaceDir = defaultWorkspaceDir
	}
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.APIKey = strings.TrimSpace(c.Transcription.APIKey)
	if strings.TrimSpace(c.Transcription.BaseURL) == "" {
		c.Transcription.BaseURL = defaultTranscriptionBaseURL
	}
	if strings.TrimSpace(c.Transcription.Model) == "" {
		c.Transcription.Model = defaultTranscriptionModel
	}
	if c.Transcription.TimeoutSeconds <= 0 {
		c.Transcription.TimeoutSeconds = defaultTranscriptionTimeout
	}
	if c.Transcription.LargeFileThresholdMiB <= 0 {
		c.Transcription.LargeFileThresholdMiB = defaultLargeFileThresholdMiB
	}
	if c.Transcription.ChunkSeconds <= 0 {
		c.Transcription.ChunkSeconds = defaultChunkSeconds
	}
}

func (c *Config) normalizeImages() {
	c.Images.APIKey = strings.TrimSpace(c.Images.APIKey)
	if strings.TrimSpace(c.Images.BaseURL) == "" {
		c.Images.BaseURL = defaultImagesBaseURL
	}
	if strings.TrimSpace(c.Images.Model) == "" {
		c.Images.Model = defaultImagesModel
	}
	if strings.TrimSpace(c.Images.Size) == "" {
		c.Images.Size = defaultImagesSize
	}
	if c.Images.TimeoutSeconds <= 0 {
		c.Images.TimeoutSeconds = defaultImagesTimeout
	}
}

func (c *Config) normalizeLint() {
	if c.Lint.MinWords <= 0 {
		c.Lint.MinWords = defaultLintMinWords
	}
	if c.Lint.MaxWords <= 0 {
		c.Lint.MaxWords = defaultLintMaxWords
	}
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}
