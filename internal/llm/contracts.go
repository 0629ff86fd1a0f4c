package llm

import (
	"context"
	"strings"
)

// ExtractedFields is the normalized shape we want back from an extraction call.
// Keys the model omits decode to "".
type ExtractedFields struct {
	PreviousActions         string `json:"previousActions"`
	DifficultiesStrengths   string `json:"difficultiesStrengths"`
	UnmetEvaluationCriteria string `json:"unmetEvaluationCriteria"`
}

// Empty reports whether all three sections are blank.
func (f ExtractedFields) Empty() bool {
	return strings.TrimSpace(f.PreviousActions) == "" &&
		strings.TrimSpace(f.DifficultiesStrengths) == "" &&
		strings.TrimSpace(f.UnmetEvaluationCriteria) == ""
}

// Extractor pulls the subject-specific sections out of a prior-year PSP.
// A nil result with a nil error means the model returned nothing usable.
type Extractor interface {
	ExtractSection(ctx context.Context, subject, rawText string) (*ExtractedFields, error)
}

// Refiner rewrites one report section in formal teaching language.
// It returns non-empty text or an error.
type Refiner interface {
	Refine(ctx context.Context, fieldLabel, currentText string) (string, error)
}

// Collaborator is a provider that can do both.
type Collaborator interface {
	Extractor
	Refiner
}
