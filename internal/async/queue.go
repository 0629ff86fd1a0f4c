package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/prp-express/internal/llm"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("extraction queue is shut down")

// Job asks for one record's sections to be extracted. Subject and RawText
// are snapshots taken when the job was submitted.
type Job struct {
	ReportID    uuid.UUID
	Subject     string
	RawText     string
	Sink        ResultSink // receives the Result; usually the owning session store
	SubmittedAt time.Time
	TraceID     string
}

// Result is the outcome of one Job. Fields is nil when the collaborator found
// nothing; Err is set when the call itself failed.
type Result struct {
	ReportID uuid.UUID
	Fields   *llm.ExtractedFields
	Err      error
	Elapsed  time.Duration
	TraceID  string
}

// ResultSink applies finished extractions.
type ResultSink interface {
	ApplyExtraction(res Result)
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
