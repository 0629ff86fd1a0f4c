package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/prp-express/internal/common"
)

// ErrNoSubject is returned when the session has no subject to extract for.
var ErrNoSubject = common.NewAppError("NO_SUBJECT", "session subject is not set", common.ErrPrecondition)

// FSIngestor reads PSP files into a session. Content whose record is still
// in the session is reported as deduplicated and not added again.
type FSIngestor struct {
	sink   Sink
	logger *slog.Logger

	mu     sync.Mutex
	seen   map[string]uuid.UUID // content hash -> report id
	claims map[string]*hashClaim
}

// hashClaim serializes ingests of identical content.
type hashClaim struct {
	mu   sync.Mutex
	refs int
}

var _ Ingestor = (*FSIngestor)(nil)

func NewFSIngestor(sink Sink, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{
		sink:   sink,
		logger: logger,
		seen:   make(map[string]uuid.UUID),
		claims: make(map[string]*hashClaim),
	}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return IngestionResult{SourcePath: path}, fmt.Errorf("abs path: %w", err)
	}
	if !AllowedExt(filepath.Ext(abs)) {
		return IngestionResult{SourcePath: abs}, fmt.Errorf("%w: %q", ErrUnsupportedFile, filepath.Ext(abs))
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return IngestionResult{SourcePath: abs}, fmt.Errorf("read: %w", err)
	}
	res, err := i.IngestContent(ctx, filepath.Base(abs), data)
	res.SourcePath = abs
	return res, err
}

func (i *FSIngestor) IngestContent(ctx context.Context, name string, data []byte) (IngestionResult, error) {
	out := IngestionResult{SourcePath: name}
	if strings.TrimSpace(i.sink.Subject()) == "" {
		return out, ErrNoSubject
	}

	sum := sha256.Sum256(data)
	out.HashHex = hex.EncodeToString(sum[:])

	release := i.claim(out.HashHex)
	defer release()

	i.mu.Lock()
	prev, seen := i.seen[out.HashHex]
	i.mu.Unlock()
	if seen && i.sink.Has(prev) {
		out.ReportID, out.Deduplicated = prev.String(), true
		i.logger.Info("ingest.file.dedup", "file", name, "report_id", out.ReportID)
		return out, nil
	}

	text, ok, err := ReadSource(name, data)
	if err != nil {
		if AllowedExt(extOf(name)) {
			// Legacy .xls and damaged workbooks are not fatal for a batch.
			i.logger.Warn("ingest.file.unreadable", "file", name, "error", err)
			out.Skipped, out.Err = true, err.Error()
			return out, nil
		}
		return out, err
	}
	if !ok || text == "" {
		i.logger.Info("ingest.file.skipped", "file", name, "reason", "no PSP content")
		out.Skipped = true
		return out, nil
	}

	id := i.sink.IngestFile(ctx, name, text, i.sink.Subject())
	out.ReportID = id.String()
	out.TextLen = len(text)

	i.mu.Lock()
	i.seen[out.HashHex] = id
	i.mu.Unlock()

	i.logger.Info("ingest.file.ok", "file", name, "report_id", out.ReportID, "text_len", out.TextLen)
	return out, nil
}

// claim blocks until no other ingest of the same content is in progress.
// The returned func releases it.
func (i *FSIngestor) claim(hash string) func() {
	i.mu.Lock()
	c, ok := i.claims[hash]
	if !ok {
		c = &hashClaim{}
		i.claims[hash] = c
	}
	c.refs++
	i.mu.Unlock()

	c.mu.Lock()
	return func() {
		c.mu.Unlock()
		i.mu.Lock()
		if c.refs--; c.refs == 0 {
			delete(i.claims, hash)
		}
		i.mu.Unlock()
	}
}
