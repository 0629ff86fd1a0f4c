package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/prp-express/constants"
)

// Report is one student's PRP record plus its extraction status.
type Report struct {
	ID                      uuid.UUID              `json:"id"`
	StudentName             string                 `json:"studentName"`
	Subject                 string                 `json:"subject"`
	IsTakingSubject         string                 `json:"isTakingSubject"`
	ResponsibleTeacher      string                 `json:"responsibleTeacher"`
	PreviousActions         string                 `json:"previousActions"`
	DifficultiesStrengths   string                 `json:"difficultiesStrengths"`
	UnmetEvaluationCriteria string                 `json:"unmetEvaluationCriteria"`
	MethodologicalProposal  string                 `json:"methodologicalProposal"`
	DetailedEvaluationPlan  string                 `json:"detailedEvaluationPlan"`
	RawPSP                  string                 `json:"rawPSP,omitempty"`
	Status                  constants.ReportStatus `json:"status"`
	SourceFile              string                 `json:"sourceFile,omitempty"`
	CreatedAt               time.Time              `json:"createdAt"`
	UpdatedAt               time.Time              `json:"updatedAt"`
}

// NewReport returns an idle report with a fresh id and default field values.
func NewReport(studentName, rawPSP, subject string) Report {
	now := time.Now().UTC()
	return Report{
		ID:              uuid.New(),
		StudentName:     studentName,
		Subject:         subject,
		IsTakingSubject: constants.TakingYes,
		RawPSP:          rawPSP,
		Status:          constants.StatusIdle,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

var accessors = map[constants.Field]func(*Report) *string{
	constants.StudentName:             func(r *Report) *string { return &r.StudentName },
	constants.Subject:                 func(r *Report) *string { return &r.Subject },
	constants.IsTakingSubject:         func(r *Report) *string { return &r.IsTakingSubject },
	constants.ResponsibleTeacher:      func(r *Report) *string { return &r.ResponsibleTeacher },
	constants.PreviousActions:         func(r *Report) *string { return &r.PreviousActions },
	constants.DifficultiesStrengths:   func(r *Report) *string { return &r.DifficultiesStrengths },
	constants.UnmetEvaluationCriteria: func(r *Report) *string { return &r.UnmetEvaluationCriteria },
	constants.MethodologicalProposal:  func(r *Report) *string { return &r.MethodologicalProposal },
	constants.DetailedEvaluationPlan:  func(r *Report) *string { return &r.DetailedEvaluationPlan },
	constants.RawPSP:                  func(r *Report) *string { return &r.RawPSP },
}

// Get returns the current value of f, or "" for an unknown field.
func (r *Report) Get(f constants.Field) string {
	acc, ok := accessors[f]
	if !ok {
		return ""
	}
	return *acc(r)
}

// Set overwrites f. It reports false for an unknown field.
func (r *Report) Set(f constants.Field, value string) bool {
	acc, ok := accessors[f]
	if !ok {
		return false
	}
	*acc(r) = value
	r.UpdatedAt = time.Now().UTC()
	return true
}

// IsComplete reports whether every exported field is non-blank.
func (r *Report) IsComplete() bool {
	for _, f := range constants.ExportOrder {
		if strings.TrimSpace(r.Get(f)) == "" {
			return false
		}
	}
	return true
}

// MissingFields lists the exported fields that are still blank, in export order.
func (r *Report) MissingFields() []constants.Field {
	var missing []constants.Field
	for _, f := range constants.ExportOrder {
		if strings.TrimSpace(r.Get(f)) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Extractable reports whether the record has the inputs extraction needs.
func (r *Report) Extractable() bool {
	return strings.TrimSpace(r.Subject) != "" && strings.TrimSpace(r.RawPSP) != ""
}

// DisplayName is the student name, or a positional fallback.
func (r *Report) DisplayName(fallback string) string {
	if name := strings.TrimSpace(r.StudentName); name != "" {
		return name
	}
	return fallback
}
