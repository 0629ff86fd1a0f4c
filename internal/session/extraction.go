package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/prp-express/constants"
	"github.com/joseph-ayodele/prp-express/internal/async"
	"github.com/joseph-ayodele/prp-express/internal/common"
)

var errNoQueue = errors.New("no extraction queue configured")

// Extract moves the record to extracting and submits it to the queue.
// The record must have both a subject and PSP text. A submission failure
// is resolved immediately as a failed extraction.
func (s *Store) Extract(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrRecordNotFound
	}
	rec := &s.records[i]
	if !rec.Extractable() {
		s.mu.Unlock()
		return ErrNotExtractable
	}
	rec.Status = constants.StatusExtracting
	rec.UpdatedAt = time.Now().UTC()
	job := async.Job{
		ReportID:    rec.ID,
		Subject:     rec.Subject,
		RawText:     rec.RawPSP,
		Sink:        s,
		SubmittedAt: time.Now(),
		TraceID:     common.RequestIDFromContext(ctx),
	}
	s.broadcastLocked()
	s.mu.Unlock()

	// The queue's workers call back into ApplyExtraction, so the lock must
	// be released before submitting.
	err := errNoQueue
	if s.queue != nil {
		err = s.queue.Enqueue(ctx, job)
	}
	if err != nil {
		s.logger.Error("session.extract.enqueue_failed", "report_id", id, "error", err)
		s.ApplyExtraction(async.Result{ReportID: id, Err: err, TraceID: job.TraceID})
		return nil
	}
	s.logger.Debug("session.extract.queued", "report_id", id, "trace_id", job.TraceID)
	return nil
}

// ApplyExtraction resolves an extraction. Results for records that no
// longer exist are dropped. Found sections are stored with surrounding
// whitespace trimmed.
func (s *Store) ApplyExtraction(res async.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(res.ReportID)
	if i < 0 {
		s.logger.Info("session.extract.dropped", "report_id", res.ReportID, "reason", "record removed")
		return
	}
	rec := &s.records[i]

	switch {
	case res.Err != nil:
		rec.Status = constants.StatusNotFound
		s.logger.Warn("session.extract.failed", "report_id", rec.ID, "error", res.Err, "elapsed", res.Elapsed)
	case res.Fields == nil || res.Fields.Empty():
		rec.Status = constants.StatusNotFound
		rec.PreviousActions = ""
		rec.DifficultiesStrengths = ""
		rec.UnmetEvaluationCriteria = ""
		s.logger.Info("session.extract.not_found", "report_id", rec.ID, "subject", rec.Subject, "elapsed", res.Elapsed)
	default:
		rec.Status = constants.StatusCompleted
		rec.PreviousActions = strings.TrimSpace(res.Fields.PreviousActions)
		rec.DifficultiesStrengths = strings.TrimSpace(res.Fields.DifficultiesStrengths)
		rec.UnmetEvaluationCriteria = strings.TrimSpace(res.Fields.UnmetEvaluationCriteria)
		s.logger.Info("session.extract.ok", "report_id", rec.ID, "elapsed", res.Elapsed)
	}
	rec.UpdatedAt = time.Now().UTC()
	s.broadcastLocked()
}
