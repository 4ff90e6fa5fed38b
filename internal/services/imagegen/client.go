package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultHTTPTimeout = 120 * time.Second

// Config captures the runtime settings for the image generation endpoint.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Size           string
	TimeoutSeconds int
}

// Client generates reference images for extracted assets.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an image generation client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Size:           strings.TrimSpace(cfg.Size),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.openai.com/v1/images/generations"
	}
	if client.cfg.Size == "" {
		client.cfg.Size = "1024x1024"
	}
	return client
}

type generationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type generationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate renders the prompt and writes the resulting image into dir. The
// returned path is the saved PNG file.
func (c *Client) Generate(ctx context.Context, prompt, dir, name string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", errors.New("imagegen: api key required")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("imagegen: prompt required")
	}
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("imagegen: output directory required")
	}

	encoded, err := json.Marshal(generationRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		N:      1,
		Size:   c.cfg.Size,
	})
	if err != nil {
		return "", fmt.Errorf("imagegen: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("imagegen: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("imagegen: http error: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("imagegen: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("imagegen: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed generationResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("imagegen: decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("imagegen: api error: %s", strings.TrimSpace(parsed.Error.Message))
	}
	if len(parsed.Data) == 0 {
		return "", errors.New("imagegen: empty response data")
	}

	image, err := c.imageBytes(ctx, parsed.Data[0].B64JSON, parsed.Data[0].URL)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("imagegen: create output directory: %w", err)
	}
	outPath := filepath.Join(dir, sanitizeFileName(name)+".png")
	if err := os.WriteFile(outPath, image, 0o644); err != nil {
		return "", fmt.Errorf("imagegen: write image: %w", err)
	}
	return outPath, nil
}

func (c *Client) imageBytes(ctx context.Context, b64, imageURL string) ([]byte, error) {
	if b64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("imagegen: decode image payload: %w", err)
		}
		return decoded, nil
	}
	if imageURL == "" {
		return nil, errors.New("imagegen: response carried neither payload nor url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("imagegen: fetch image: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagegen: fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("imagegen: fetch image: http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("imagegen: fetch image: %w", err)
	}
	return data, nil
}

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return "asset"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "asset"
	}
	return b.String()
}
