package constants

import (
	"strings"
)

// Field names one editable slot of a report record. The record id is
// deliberately not a Field, so it can never be written through the field API.
type Field string

const (
	StudentName             Field = "studentName"
	Subject                 Field = "subject"
	IsTakingSubject         Field = "isTakingSubject"
	ResponsibleTeacher      Field = "responsibleTeacher"
	PreviousActions         Field = "previousActions"
	DifficultiesStrengths   Field = "difficultiesStrengths"
	UnmetEvaluationCriteria Field = "unmetEvaluationCriteria"
	MethodologicalProposal  Field = "methodologicalProposal"
	DetailedEvaluationPlan  Field = "detailedEvaluationPlan"
	RawPSP                  Field = "rawPSP"
)

// FieldInfo describes how a field is labelled and whether it gates completeness.
type FieldInfo struct {
	Label       string // shown in the UI and sent to the refinement collaborator
	ExportTitle string // first column of the exported PRP sheet; empty when not exported
	Required    bool
}

var fieldInfo = map[Field]FieldInfo{
	StudentName:             {Label: "Alumno"},
	Subject:                 {Label: "1. Materia Principal", ExportTitle: "MATERIA", Required: true},
	IsTakingSubject:         {Label: "2. Cursa la materia", ExportTitle: "CURSA", Required: true},
	ResponsibleTeacher:      {Label: "3. Docente", ExportTitle: "DOCENTE", Required: true},
	PreviousActions:         {Label: "4. Actuaciones Curso Anterior", ExportTitle: "ACTUACIONES CURSO ANTERIOR", Required: true},
	DifficultiesStrengths:   {Label: "5. Dificultades / Fortalezas", ExportTitle: "DIFICULTADES / FORTALEZAS", Required: true},
	UnmetEvaluationCriteria: {Label: "6. Criterios No Superados", ExportTitle: "CRITERIOS NO SUPERADOS", Required: true},
	MethodologicalProposal:  {Label: "7. Propuesta Metodológica", ExportTitle: "PROPUESTA METODOLÓGICA", Required: true},
	DetailedEvaluationPlan:  {Label: "8. Plan de Evaluación Detallado", ExportTitle: "PLAN DE EVALUACIÓN DETALLADO", Required: true},
	RawPSP:                  {Label: "PSP"},
}

var allFields = []Field{
	StudentName,
	Subject,
	IsTakingSubject,
	ResponsibleTeacher,
	PreviousActions,
	DifficultiesStrengths,
	UnmetEvaluationCriteria,
	MethodologicalProposal,
	DetailedEvaluationPlan,
	RawPSP,
}

// ExportOrder is the fixed row order of the exported PRP sheet. It is also
// the set of fields that must be non-blank for a record to be complete.
var ExportOrder = []Field{
	Subject,
	IsTakingSubject,
	ResponsibleTeacher,
	PreviousActions,
	DifficultiesStrengths,
	UnmetEvaluationCriteria,
	MethodologicalProposal,
	DetailedEvaluationPlan,
}

// ExtractedFields are the slots filled by the extraction collaborator.
var ExtractedFields = []Field{
	PreviousActions,
	DifficultiesStrengths,
	UnmetEvaluationCriteria,
}

// Info returns the descriptor for f.
func (f Field) Info() FieldInfo {
	return fieldInfo[f]
}

// Label is shorthand for f.Info().Label.
func (f Field) Label() string {
	return fieldInfo[f].Label
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	_, ok := fieldInfo[f]
	return ok
}

// AllFields returns every field in display order.
func AllFields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// ParseField resolves user or wire input to a Field. Matching is
// case-insensitive on the wire name, with a few Spanish/English aliases.
func ParseField(input string) (Field, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]Field{
		"name":         StudentName,
		"alumno":       StudentName,
		"student":      StudentName,
		"materia":      Subject,
		"cursa":        IsTakingSubject,
		"taking":       IsTakingSubject,
		"docente":      ResponsibleTeacher,
		"teacher":      ResponsibleTeacher,
		"actuaciones":  PreviousActions,
		"dificultades": DifficultiesStrengths,
		"criterios":    UnmetEvaluationCriteria,
		"propuesta":    MethodologicalProposal,
		"proposal":     MethodologicalProposal,
		"plan":         DetailedEvaluationPlan,
		"psp":          RawPSP,
	}
	if f, ok := synonyms[normalized]; ok {
		return f, true
	}

	for _, f := range allFields {
		if normalized == strings.ToLower(string(f)) {
			return f, true
		}
	}
	return "", false
}
