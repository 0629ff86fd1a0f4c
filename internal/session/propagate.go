package session

import (
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/prp-express/constants"
)

// AllRecords targets every record except the active one.
var AllRecords = uuid.Nil

// Propagate copies the active record's current value of field onto target,
// or onto every other record when target is AllRecords. It returns the
// number of records written. Either every target is written or none is.
func (s *Store) Propagate(field constants.Field, target uuid.UUID) (int, error) {
	if !field.Valid() {
		return 0, ErrUnknownField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ai := s.indexLocked(s.activeID)
	if ai < 0 {
		return 0, ErrNoActiveRecord
	}
	value := s.records[ai].Get(field)
	if strings.TrimSpace(value) == "" {
		return 0, ErrEmptyValue
	}

	var targets []int
	if target == AllRecords {
		for i := range s.records {
			if i != ai {
				targets = append(targets, i)
			}
		}
	} else {
		if target == s.activeID {
			return 0, ErrInvalidTarget
		}
		ti := s.indexLocked(target)
		if ti < 0 {
			return 0, ErrRecordNotFound
		}
		targets = []int{ti}
	}

	for _, i := range targets {
		s.records[i].Set(field, value)
	}
	if len(targets) > 0 {
		s.broadcastLocked()
	}
	s.logger.Info("session.propagate.ok", "field", field, "source", s.activeID, "written", len(targets))
	return len(targets), nil
}
