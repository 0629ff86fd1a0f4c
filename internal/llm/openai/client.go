package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/prp-express/internal/llm"
)

var _ llm.Collaborator = (*Client)(nil)

// ExtractSection implements llm.Extractor using chat/completions in JSON mode.
func (c *Client) ExtractSection(ctx context.Context, subject, rawText string) (*llm.ExtractedFields, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"provider", "openai",
		"model", c.cfg.Model,
		"subject", subject,
		"text_len", len(rawText),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.ExtractTemperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "user", "content": llm.BuildExtractionPrompt(subject, rawText)},
		},
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	out, err := llm.ParseExtraction(content, c.log)
	if err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "content_len", len(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
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
	rid := uuid.New().String()
	start := time.Now()

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.RefineTemperature,
		"messages": []map[string]any{
			{"role": "user", "content": llm.BuildRefinePrompt(fieldLabel, currentText)},
		},
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		c.log.Error("llm.refine.http_error", "req_id", rid, "field", fieldLabel, "error", err)
		return "", err
	}
	text := strings.TrimSpace(content)
	if text == "" {
		return "", errors.New("empty refinement")
	}

	c.log.Info("llm.refine.ok",
		"req_id", rid,
		"field", fieldLabel,
		"in_len", len(currentText),
		"out_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// complete posts a chat/completions request and returns the first choice's content.
func (c *Client) complete(ctx context.Context, body map[string]any) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	raw, _, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.log)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", errors.New("no choices in openai response")
	}
	return cc.Choices[0].Message.Content, nil
}
