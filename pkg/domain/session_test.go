package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSession(t *testing.T) {
	s := NewSession("id", 1, testExercise("ex-2", 3))

	assert.Equal(t, "id", s.ID)
	assert.Equal(t, 1, s.ExerciseIndex)
	assert.Equal(t, "ex-2", s.ExerciseID)
	assert.Equal(t, []string{"", "", ""}, s.Answers)
	assert.Equal(t, []bool{false, false, false}, s.HintVisible)
	assert.Equal(t, PhaseInProgress, s.Phase())
	assert.Nil(t, s.Score)
}

func TestSession_SnapshotIsDeep(t *testing.T) {
	s := NewSession("id", 0, testExercise("ex", 4))
	score := 50
	s.Score = &score
	s.Completed = true

	c := s.Snapshot()
	c.Answers[0] = "changed"
	c.HintVisible[0] = true
	*c.Score = 100

	assert.Equal(t, "", s.Answers[0])
	assert.False(t, s.HintVisible[0])
	assert.Equal(t, 50, *s.Score)
	assert.Equal(t, PhaseCompleted, c.Phase())
}

func TestCheckIndex(t *testing.T) {
	assert.NoError(t, CheckIndex("op", 0, 4))
	assert.NoError(t, CheckIndex("op", 3, 4))

	err := CheckIndex("goto_step", 5, 4)
	assert.ErrorIs(t, err, ErrOutOfRange)

	var rangeErr *RangeError
	assert.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, 5, rangeErr.Index)
	assert.Equal(t, "goto_step: index 5 out of range [0, 4)", err.Error())

	assert.ErrorIs(t, CheckIndex("set_answer", -1, 4), ErrOutOfRange)
}
