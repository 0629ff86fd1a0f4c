package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// ParseExtraction turns a model's text answer into ExtractedFields.
// Blank content and a bare JSON null yield (nil, nil): the caller treats
// that as "not found".
// Content is validated strictly first; on failure it goes through
// NormalizeAndSanitizeJSON and is validated again.
func ParseExtraction(content string, logger *slog.Logger) (*ExtractedFields, error) {
	if logger == nil {
		logger = slog.Default()
	}
	content = StripCodeFence(content)
	if trimmed := strings.TrimSpace(content); trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	raw := []byte(content)
	schema := BuildSectionJSONSchema()

	if err := ValidateJSONAgainstSchema(schema, raw); err != nil {
		cleaned, dropped, sErr := NormalizeAndSanitizeJSON(raw, logger)
		if sErr != nil {
			return nil, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			return nil, fmt.Errorf("schema validation failed: %w", vErr)
		}
		logger.Warn("llm.extract.lenient_sanitize_applied", "dropped", dropped)
		raw = cleaned
	}

	var out ExtractedFields
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return &out, nil
}
