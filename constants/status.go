package constants

// ReportStatus is the extraction status of a report record.
type ReportStatus string

// Stable values (these exact strings go over the wire).
const (
	StatusIdle       ReportStatus = "idle"       // nothing requested yet
	StatusExtracting ReportStatus = "extracting" // extraction in flight
	StatusCompleted  ReportStatus = "completed"  // extraction found the subject
	StatusNotFound   ReportStatus = "notFound"   // subject absent, or extraction failed
)

// Terminal reports whether s is a resolved extraction state.
func (s ReportStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusNotFound
}

// TakingSubject values for the "is taking the subject" field.
const (
	TakingYes = "YES"
	TakingNo  = "NO"
)
