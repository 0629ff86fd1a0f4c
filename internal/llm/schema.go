package llm

// SectionKeys are the keys an extraction response may carry.
var SectionKeys = []string{"previousActions", "difficultiesStrengths", "unmetEvaluationCriteria"}

// BuildSectionJSONSchema returns the JSON-Schema (draft 2020-12 subset) for an
// extraction response. Every key is optional; unknown keys are rejected so the
// lenient pass gets a chance to clean them up.
func BuildSectionJSONSchema() map[string]any {
	props := make(map[string]any, len(SectionKeys))
	for _, k := range SectionKeys {
		props[k] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}
