package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"storyreel/internal/audio"
	"storyreel/internal/config"
	"storyreel/internal/document"
	"storyreel/internal/logging"
	"storyreel/internal/pipeline"
	"storyreel/internal/progress"
	"storyreel/internal/services/imagegen"
	"storyreel/internal/services/llm"
	"storyreel/internal/services/transcribe"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		// Secrets may live in a local .env; absence is not an error.
		_ = godotenv.Load()

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) buildLogger(cfg *config.Config) (*slog.Logger, error) {
	outputs := []string{"stderr"}
	if cfg.Paths.LogDir != "" {
		outputs = append(outputs, filepath.Join(cfg.Paths.LogDir, "storyreel.log"))
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
	})
}

func (c *commandContext) openStore(cfg *config.Config) (*document.Store, error) {
	return document.Open(cfg)
}

// buildPipeline assembles the orchestrator with live providers.
func (c *commandContext) buildPipeline(cfg *config.Config, store *document.Store, tracker *progress.Tracker, logger *slog.Logger) *pipeline.Pipeline {
	chat := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	transcriber := transcribe.NewClient(transcribe.Config{
		APIKey:         cfg.Transcription.APIKey,
		BaseURL:        cfg.Transcription.BaseURL,
		Model:          cfg.Transcription.Model,
		TimeoutSeconds: cfg.Transcription.TimeoutSeconds,
	})

	var images pipeline.ImageGenerator
	if cfg.Images.Enabled {
		client := imagegen.NewClient(imagegen.Config{
			APIKey:         cfg.Images.APIKey,
			BaseURL:        cfg.Images.BaseURL,
			Model:          cfg.Images.Model,
			Size:           cfg.Images.Size,
			TimeoutSeconds: cfg.Images.TimeoutSeconds,
		})
		images = pipeline.NewImageClient(client, filepath.Join(cfg.Paths.WorkspaceDir, "images"))
	}

	return pipeline.New(pipeline.Options{
		Config:      cfg,
		Store:       store,
		Tracker:     tracker,
		Logger:      logger,
		Transcriber: transcriber,
		Researcher:  pipeline.NewLLMResearcher(chat),
		Analyzer:    audio.NewAnalyzer(cfg.Audio.AnalyzerCommand, cfg.FFprobeBinary()),
		Extractor:   pipeline.NewLLMAssetExtractor(chat),
		Synthesizer: pipeline.NewLLMSynthesizer(chat),
		Images:      images,
	})
}
