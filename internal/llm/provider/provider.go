// Package provider builds the configured LLM collaborator.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/prp-express/internal/common"
	"github.com/joseph-ayodele/prp-express/internal/llm"
	"github.com/joseph-ayodele/prp-express/internal/llm/gemini"
	"github.com/joseph-ayodele/prp-express/internal/llm/openai"
)

// New returns the collaborator named by cfg.Provider.
func New(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Collaborator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", common.ProviderGemini:
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:             cfg.APIKey,
			Model:              cfg.Model,
			ExtractTemperature: cfg.ExtractTemperature,
			RefineTemperature:  cfg.RefineTemperature,
			Timeout:            cfg.Timeout,
		}, logger.With("provider", common.ProviderGemini))
		if err != nil {
			return nil, err
		}
		return c, nil
	case common.ProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:             cfg.APIKey,
			BaseURL:            cfg.BaseURL,
			Model:              cfg.Model,
			ExtractTemperature: cfg.ExtractTemperature,
			RefineTemperature:  cfg.RefineTemperature,
			Timeout:            cfg.Timeout,
		}, logger.With("provider", common.ProviderOpenAI)), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
