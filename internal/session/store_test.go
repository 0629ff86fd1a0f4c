package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/prp-express/constants"
	"github.com/joseph-ayodele/prp-express/internal/async"
	"github.com/joseph-ayodele/prp-express/internal/llm"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// heldQueue keeps jobs until the test releases them.
type heldQueue struct {
	mu   sync.Mutex
	jobs []async.Job
	err  error
}

func (q *heldQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *heldQueue) Shutdown(context.Context) {}

func (q *heldQueue) take(t *testing.T) async.Job {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	require.NotEmpty(t, q.jobs)
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job
}

func fillExportable(t *testing.T, s *Store, id uuid.UUID) {
	t.Helper()
	for _, f := range constants.ExportOrder {
		require.True(t, s.UpdateField(id, f, "value "+string(f)))
	}
}

func TestAddRecord_FirstBecomesActive(t *testing.T) {
	s := NewStore(nil, nil, quietLogger())
	a := s.AddRecord("Ana", "", "Math")
	b := s.AddRecord("Luis", "", "Math")

	assert.Equal(t, a, s.ActiveID())
	assert.Equal(t, 2, s.Len())

	rec, ok := s.Get(b)
	require.True(t, ok)
	assert.Equal(t, constants.StatusIdle, rec.Status)
	assert.Equal(t, constants.TakingYes, rec.IsTakingSubject)
	assert.Equal(t, "Math", rec.Subject)
}

func TestAddRecord_EmptySubjectAllowed(t *testing.T) {
	s := NewStore(nil, nil, quietLogger())
	id := s.AddRecord("", "", "")
	rec, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "", rec.Subject)
	assert.Equal(t, constants.StatusIdle, rec.Status)
}

func TestRemoveRecord_ReselectsFirst(t *testing.T) {
	s := NewStore(nil, nil, quietLogger())
	a := s.AddRecord("A", "", "")
	b := s.AddRecord("B", "", "")
	c := s.AddRecord("C", "", "")

	require.True(t, s.SetActive(c))
	require.True(t, s.RemoveRecord(c))
	assert.Equal(t, a, s.ActiveID())

	require.True(t, s.RemoveRecord(a))
	assert.Equal(t, b, s.ActiveID())

	require.True(t, s.RemoveRecord(b))
	assert.Equal(t, uuid.Nil, s.ActiveID())
	_, ok := s.Active()
	assert.False(t, ok)

	assert.False(t, s.RemoveRecord(b))
}

func TestRemoveRecord_NonActiveKeepsSelection(t *testing.T) {
	s := NewStore(nil, nil, quietLogger())
	a := s.AddRecord("A", "", "")
	b := s.AddRecord("B", "", "")
	require.True(t, s.RemoveRecord(b))
	assert.Equal(t, a, s.ActiveID())
}

func TestSetActive_UnknownIsNoop(t *testing.T) {
	s := NewStore(nil, nil, quietLogger())
	a := s.AddRecord("A", "", "")
	assert.False(t, s.SetActive(uuid.New()))
	assert.Equal(t, a, s.ActiveID())
}

func TestUpdateField(t *testing.T) {
	s := NewStore(nil, nil, quietLogger())

	t.Run("no active record", func(t *testing.T) {
		assert.False(t, s.UpdateField(uuid.Nil, constants.ResponsibleTeacher, "x"))
	})

	a := s.AddRecord("A", "", "")
	b := s.AddRecord("B", "", "")

	t.Run("nil id targets active", func(t *testing.T) {
		require.True(t, s.UpdateField(uuid.Nil, constants.ResponsibleTeacher, "Sra. Ruiz"))
		rec, _ := s.Get(a)
		assert.Equal(t, "Sra. Ruiz", rec.ResponsibleTeacher)
	})

	t.Run("explicit id", func(t *testing.T) {
		require.True(t, s.UpdateField(b, constants.IsTakingSubject, constants.TakingNo))
		rec, _ := s.Get(b)
		assert.Equal(t, constants.TakingNo, rec.IsTakingSubject)
	})

	t.Run("unknown id", func(t *testing.T) {
		before := s.Records()
		assert.False(t, s.UpdateField(uuid.New(), constants.ResponsibleTeacher, "x"))
		assert.Equal(t, before, s.Records())
	})

	t.Run("unknown field", func(t *testing.T) {
		assert.False(t, s.UpdateField(a, constants.Field("id"), "x"))
	})
}

func TestClearNotFound(t *testing.T) {
	q := &heldQueue{}
	s := NewStore(q, nil, quietLogger())
	keep := s.AddRecord("keep", "", "")
	gone1 := s.IngestFile(context.Background(), "gone1.txt", "psp", "Math")
	gone2 := s.IngestFile(context.Background(), "gone2.txt", "psp", "Math")
	s.ApplyExtraction(async.Result{ReportID: q.take(t).ReportID})
	s.ApplyExtraction(async.Result{ReportID: q.take(t).ReportID, Err: errors.New("boom")})

	require.True(t, s.SetActive(gone2))
	require.True(t, s.HasNotFound())

	assert.Equal(t, 2, s.ClearNotFound())
	assert.False(t, s.HasNotFound())
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, keep, s.ActiveID())
	_, ok := s.Get(gone1)
	assert.False(t, ok)

	assert.Equal(t, 0, s.ClearNotFound())
}

func TestAllComplete(t *testing.T) {
	s := NewStore(nil, nil, quietLogger())
	assert.False(t, s.AllComplete(), "empty session is never complete")

	a := s.AddRecord("A", "", "")
	b := s.AddRecord("B", "", "")
	fillExportable(t, s, a)
	assert.False(t, s.AllComplete())

	fillExportable(t, s, b)
	assert.True(t, s.AllComplete())

	require.True(t, s.UpdateField(b, constants.MethodologicalProposal, "   "))
	assert.False(t, s.AllComplete())
}

func TestRecords_ReturnsCopy(t *testing.T) {
	s := NewStore(nil, nil, quietLogger())
	id := s.AddRecord("A", "", "")
	recs := s.Records()
	recs[0].StudentName = "changed"
	rec, _ := s.Get(id)
	assert.Equal(t, "A", rec.StudentName)
}

func TestSubject(t *testing.T) {
	s := NewStore(nil, nil, quietLogger())
	s.SetSubject("Lengua")
	assert.Equal(t, "Lengua", s.Subject())
}

// Compile-time check that the fake satisfies the refiner contract.
var _ llm.Refiner = (*fakeRefiner)(nil)

func TestActiveAlwaysValid(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	s := NewStore(nil, nil, quietLogger())
	var ids []uuid.UUID

	for step := 0; step < 500; step++ {
		switch op := rng.IntN(4); {
		case op < 2 || len(ids) == 0:
			ids = append(ids, s.AddRecord("", "", ""))
		case op == 2:
			i := rng.IntN(len(ids))
			s.RemoveRecord(ids[i])
			ids = append(ids[:i], ids[i+1:]...)
		default:
			s.SetActive(ids[rng.IntN(len(ids))])
		}

		active := s.ActiveID()
		if len(ids) == 0 {
			require.Equal(t, uuid.Nil, active, "step %d", step)
			continue
		}
		_, ok := s.Get(active)
		require.True(t, ok, "step %d: active id %s is not a record", step, active)
	}
}
