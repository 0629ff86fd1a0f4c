// Package gemini implements the extraction and refinement collaborators on
// top of Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/joseph-ayodele/prp-express/internal/llm"
)

// Config for the Gemini client.
type Config struct {
	APIKey             string
	Model              string // default "gemini-2.5-flash"
	ExtractTemperature float32
	RefineTemperature  float32
	Timeout            time.Duration // per call
}

// generator is the slice of *genai.Models we use.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	cfg    Config
	models generator
	log    *slog.Logger
}

var _ llm.Collaborator = (*Client)(nil)

// NewClient creates a Gemini-backed collaborator.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newWithGenerator(cfg, client.Models, logger), nil
}

func newWithGenerator(cfg Config, g generator, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, models: g, log: logger}
}

// ExtractSection implements llm.Extractor.
func (c *Client) ExtractSection(ctx context.Context, subject, rawText string) (*llm.ExtractedFields, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("llm.extract.start",
		"req_id", rid,
		"provider", "gemini",
		"model", c.cfg.Model,
		"subject", subject,
		"text_len", len(rawText),
	)

	text, err := c.generate(ctx, llm.BuildExtractionPrompt(subject, rawText), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.cfg.ExtractTemperature),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		c.log.Error("llm.extract.generate_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	out, err := llm.ParseExtraction(text, c.log)
	if err != nil {
		c.log.Error("llm.extract.decode_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"absent", out == nil,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// Refine implements llm.Refiner.
func (c *Client) Refine(ctx context.Context, fieldLabel, currentText string) (string, error) {
	start := time.Now()
	text, err := c.generate(ctx, llm.BuildRefinePrompt(fieldLabel, currentText), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.cfg.RefineTemperature),
	})
	if err != nil {
		c.log.Error("llm.refine.generate_error", "field", fieldLabel, "error", err)
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty refinement")
	}
	c.log.Info("llm.refine.ok",
		"field", fieldLabel,
		"out_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (c *Client) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}
