// Package session holds the in-memory state of one report-building session:
// the ordered report records, which one is active, the shared subject, and
// the extraction/refinement workflows that mutate them.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/prp-express/constants"
	"github.com/joseph-ayodele/prp-express/internal/async"
	"github.com/joseph-ayodele/prp-express/internal/entity"
	"github.com/joseph-ayodele/prp-express/internal/llm"
	"github.com/joseph-ayodele/prp-express/internal/utils"
)

// Store owns the records of one session. Every method takes the store lock,
// so each call is one indivisible turn; collaborator calls happen outside it.
type Store struct {
	id      uuid.UUID
	queue   async.Queue
	refiner llm.Refiner
	logger  *slog.Logger

	mu        sync.Mutex
	records   []entity.Report
	activeID  uuid.UUID
	subject   string
	busyField constants.Field
	changed   chan struct{}
}

var _ async.ResultSink = (*Store)(nil)

// NewStore returns an empty session. queue receives extraction jobs and
// refiner serves Refine; either may be nil, in which case the matching
// workflow resolves as a failure.
func NewStore(queue async.Queue, refiner llm.Refiner, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	return &Store{
		id:      id,
		queue:   queue,
		refiner: refiner,
		logger:  logger.With("session_id", id.String()),
		changed: make(chan struct{}),
	}
}

// ID identifies the session.
func (s *Store) ID() uuid.UUID { return s.id }

// SetSubject sets the session-wide subject copied into new records.
func (s *Store) SetSubject(subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subject = subject
}

// Subject returns the session-wide subject.
func (s *Store) Subject() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subject
}

// AddRecord appends a manual record. It becomes active only when nothing is.
func (s *Store) AddRecord(studentName, rawText, subject string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := entity.NewReport(studentName, rawText, subject)
	s.appendLocked(r)
	s.logger.Info("session.record.added", "report_id", r.ID, "records", len(s.records))
	return r.ID
}

// IngestFile appends a record named after the file and immediately starts
// extraction for it. When subject or text is blank the record stays idle.
func (s *Store) IngestFile(ctx context.Context, name, rawText, subject string) uuid.UUID {
	s.mu.Lock()
	r := entity.NewReport(utils.StudentNameFromFile(name), rawText, subject)
	r.SourceFile = name
	s.appendLocked(r)
	s.mu.Unlock()

	s.logger.Info("session.record.ingested", "report_id", r.ID, "file", name, "text_len", len(rawText))
	if err := s.Extract(ctx, r.ID); err != nil {
		s.logger.Warn("session.extract.skipped", "report_id", r.ID, "reason", err)
	}
	return r.ID
}

func (s *Store) appendLocked(r entity.Report) {
	s.records = append(s.records, r)
	if s.activeID == uuid.Nil {
		s.activeID = r.ID
	}
	s.broadcastLocked()
}

// RemoveRecord deletes a record. Removing the active record selects the
// first remaining one, or none.
func (s *Store) RemoveRecord(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	if s.activeID == id {
		s.reselectLocked()
	}
	s.broadcastLocked()
	s.logger.Info("session.record.removed", "report_id", id, "records", len(s.records))
	return true
}

// SetActive selects a record. Unknown ids are ignored.
func (s *Store) SetActive(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(id) < 0 {
		return false
	}
	s.activeID = id
	s.broadcastLocked()
	return true
}

// UpdateField overwrites one field. uuid.Nil targets the active record.
// It reports false, changing nothing, when the target or field is unknown.
func (s *Store) UpdateField(id uuid.UUID, field constants.Field, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == uuid.Nil {
		id = s.activeID
	}
	i := s.indexLocked(id)
	if i < 0 || !field.Valid() {
		return false
	}
	s.records[i].Set(field, value)
	s.broadcastLocked()
	return true
}

// ClearNotFound removes every record whose extraction found nothing and
// returns how many were removed.
func (s *Store) ClearNotFound() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	removed := 0
	activeGone := false
	for _, r := range s.records {
		if r.Status == constants.StatusNotFound {
			removed++
			if r.ID == s.activeID {
				activeGone = true
			}
			continue
		}
		kept = append(kept, r)
	}
	clear(s.records[len(kept):])
	s.records = kept
	if activeGone {
		s.reselectLocked()
	}
	if removed > 0 {
		s.broadcastLocked()
		s.logger.Info("session.not_found.cleared", "removed", removed, "records", len(s.records))
	}
	return removed
}

func (s *Store) reselectLocked() {
	if len(s.records) > 0 {
		s.activeID = s.records[0].ID
		return
	}
	s.activeID = uuid.Nil
}

func (s *Store) indexLocked(id uuid.UUID) int {
	if id == uuid.Nil {
		return -1
	}
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

// broadcastLocked wakes everyone blocked in waitFor.
func (s *Store) broadcastLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// Records returns a copy of every record in collection order.
func (s *Store) Records() []entity.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Report, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns a copy of one record.
func (s *Store) Get(id uuid.UUID) (entity.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return entity.Report{}, false
	}
	return s.records[i], true
}

// Has reports whether a record exists.
func (s *Store) Has(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(id) >= 0
}

// Active returns a copy of the active record.
func (s *Store) Active() (entity.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(s.activeID)
	if i < 0 {
		return entity.Report{}, false
	}
	return s.records[i], true
}

// ActiveID returns the active record id, or uuid.Nil.
func (s *Store) ActiveID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// HasNotFound reports whether any record is in the notFound state.
func (s *Store) HasNotFound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].Status == constants.StatusNotFound {
			return true
		}
	}
	return false
}

// AllComplete reports whether the session has records and all are complete.
func (s *Store) AllComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return false
	}
	for i := range s.records {
		if !s.records[i].IsComplete() {
			return false
		}
	}
	return true
}

// Settled blocks until no record is extracting.
func (s *Store) Settled(ctx context.Context) error {
	return s.waitFor(ctx, func() bool {
		for i := range s.records {
			if s.records[i].Status == constants.StatusExtracting {
				return false
			}
		}
		return true
	})
}

// WaitRecord blocks until the record has left the extracting state or has
// been removed. It returns the record and whether it still exists.
func (s *Store) WaitRecord(ctx context.Context, id uuid.UUID) (entity.Report, bool, error) {
	var (
		out   entity.Report
		found bool
	)
	err := s.waitFor(ctx, func() bool {
		i := s.indexLocked(id)
		if i < 0 {
			found = false
			return true
		}
		out, found = s.records[i], true
		return out.Status != constants.StatusExtracting
	})
	return out, found, err
}

// waitFor evaluates cond under the lock after every change until it holds.
func (s *Store) waitFor(ctx context.Context, cond func() bool) error {
	for {
		s.mu.Lock()
		if cond() {
			s.mu.Unlock()
			return nil
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
