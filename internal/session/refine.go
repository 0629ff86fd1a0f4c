package session

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/prp-express/constants"
)

// MinRefineRunes is the shortest trimmed text worth sending for refinement.
const MinRefineRunes = 5

// BusyField returns the field currently being refined, or "".
func (s *Store) BusyField() constants.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busyField
}

// Refine rewrites one field of the active record through the refiner.
// Only one refinement runs per session at a time. The result lands on the
// record that was active when the call started, if it still exists.
func (s *Store) Refine(ctx context.Context, field constants.Field) (string, error) {
	if !field.Valid() {
		return "", ErrUnknownField
	}

	s.mu.Lock()
	ai := s.indexLocked(s.activeID)
	if ai < 0 {
		s.mu.Unlock()
		return "", ErrNoActiveRecord
	}
	id := s.records[ai].ID
	current := strings.TrimSpace(s.records[ai].Get(field))
	if utf8.RuneCountInString(current) < MinRefineRunes {
		s.mu.Unlock()
		return "", ErrTooShort
	}
	if s.busyField != "" {
		s.mu.Unlock()
		return "", ErrRefineBusy
	}
	s.busyField = field
	s.broadcastLocked()
	s.mu.Unlock()

	start := time.Now()
	refined, err := s.callRefiner(ctx, field, current)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busyField = ""
	defer s.broadcastLocked()

	if err != nil {
		s.logger.Warn("session.refine.failed", "report_id", id, "field", field, "error", err, "elapsed", time.Since(start))
		return "", ErrRefinementFailed
	}
	i := s.indexLocked(id)
	if i < 0 {
		s.logger.Info("session.refine.dropped", "report_id", id, "field", field, "reason", "record removed")
		return refined, nil
	}
	s.records[i].Set(field, refined)
	s.logger.Info("session.refine.ok", "report_id", id, "field", field, "elapsed", time.Since(start))
	return refined, nil
}

func (s *Store) callRefiner(ctx context.Context, field constants.Field, current string) (string, error) {
	if s.refiner == nil {
		return "", errors.New("no refiner configured")
	}
	out, err := s.refiner.Refine(ctx, field.Label(), current)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("refiner returned empty text")
	}
	return out, nil
}
