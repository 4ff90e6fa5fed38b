package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLint(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateForPipeline checks the additional secrets a full pipeline run needs.
// It is separate from Validate so read-only commands (status, show, lint)
// work without provider credentials.
func (c *Config) ValidateForPipeline() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required. Set STORYREEL_LLM_API_KEY or edit the config file (create with 'storyreel config init')")
	}
	if c.Transcription.APIKey == "" {
		return fmt.Errorf("transcription.api_key is required. Set STORYREEL_TRANSCRIPTION_API_KEY or edit the config file")
	}
	if c.Images.Enabled && c.Images.APIKey == "" {
		return errors.New("images.api_key is required when images.enabled is true")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		return errors.New("paths.workspace_dir must be set")
	}
	return nil
}

func (c *Config) validateLint() error {
	if c.Lint.MinWords < 1 {
		return errors.New("lint.min_words must be positive")
	}
	if c.Lint.MaxWords < c.Lint.MinWords {
		return fmt.Errorf("lint.max_words (%d) must be >= lint.min_words (%d)", c.Lint.MaxWords, c.Lint.MinWords)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
