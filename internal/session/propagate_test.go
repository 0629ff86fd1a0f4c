package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/prp-express/constants"
)

func TestPropagate_AllRecords(t *testing.T) {
	s := NewStore(nil, nil, quietLogger())
	a := s.AddRecord("A", "", "")
	b := s.AddRecord("B", "", "")
	c := s.AddRecord("C", "", "")
	require.True(t, s.UpdateField(a, constants.ResponsibleTeacher, "T"))

	n, err := s.Propagate(constants.ResponsibleTeacher, AllRecords)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []uuid.UUID{a, b, c} {
		rec, _ := s.Get(id)
		assert.Equal(t, "T", rec.ResponsibleTeacher)
	}
}

func TestPropagate_SingleTarget(t *testing.T) {
	s := NewStore(nil, nil, quietLogger())
	a := s.AddRecord("A", "", "")
	b := s.AddRecord("B", "", "")
	c := s.AddRecord("C", "", "")
	require.True(t, s.UpdateField(a, constants.MethodologicalProposal, "trabajo cooperativo"))

	n, err := s.Propagate(constants.MethodologicalProposal, b)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, _ := s.Get(b)
	assert.Equal(t, "trabajo cooperativo", rec.MethodologicalProposal)
	rec, _ = s.Get(c)
	assert.Empty(t, rec.MethodologicalProposal)
}

func TestPropagate_Errors(t *testing.T) {
	s := NewStore(nil, nil, quietLogger())

	_, err := s.Propagate(constants.ResponsibleTeacher, AllRecords)
	assert.ErrorIs(t, err, ErrNoActiveRecord)

	a := s.AddRecord("A", "", "")
	b := s.AddRecord("B", "", "")

	_, err = s.Propagate(constants.ResponsibleTeacher, AllRecords)
	assert.ErrorIs(t, err, ErrEmptyValue)

	require.True(t, s.UpdateField(a, constants.ResponsibleTeacher, "T"))

	_, err = s.Propagate(constants.ResponsibleTeacher, uuid.New())
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = s.Propagate(constants.ResponsibleTeacher, a)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = s.Propagate(constants.Field("bogus"), b)
	assert.ErrorIs(t, err, ErrUnknownField)

	rec, _ := s.Get(b)
	assert.Empty(t, rec.ResponsibleTeacher, "failed propagation must not write")
}

func TestPropagate_ReadsValueAtCallTime(t *testing.T) {
	s := NewStore(nil, nil, quietLogger())
	a := s.AddRecord("A", "", "")
	b := s.AddRecord("B", "", "")

	require.True(t, s.UpdateField(a, constants.DetailedEvaluationPlan, "v1"))
	require.True(t, s.UpdateField(a, constants.DetailedEvaluationPlan, "v2"))
	_, err := s.Propagate(constants.DetailedEvaluationPlan, AllRecords)
	require.NoError(t, err)

	rec, _ := s.Get(b)
	assert.Equal(t, "v2", rec.DetailedEvaluationPlan)
}
