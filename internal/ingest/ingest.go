package ingest

import (
	"context"

	"github.com/google/uuid"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string
	ReportID     string
	StudentName  string
	Deduplicated bool
	Skipped      bool // nothing to ingest (no PSP sheet, empty text, unreadable workbook)
	HashHex      string
	TextLen      int
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Skipped      uint32
	Failed       uint32
}

// Sink is the session the ingested text lands in.
type Sink interface {
	IngestFile(ctx context.Context, name, rawText, subject string) uuid.UUID
	Subject() string
	Has(id uuid.UUID) bool
}

// Ingestor is the behavior the CLI and server depend on.
type Ingestor interface {
	// IngestPath reads one file into the session.
	IngestPath(ctx context.Context, path string) (IngestionResult, error)
	// IngestContent ingests an in-memory file, e.g. an upload.
	IngestContent(ctx context.Context, name string, data []byte) (IngestionResult, error)
	// IngestDirectory ingests all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
