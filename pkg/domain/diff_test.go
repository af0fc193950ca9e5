package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExercise(id string, steps int) Exercise {
	ex := Exercise{ID: id, Title: id}
	for i := 0; i < steps; i++ {
		ex.Steps = append(ex.Steps, Step{Title: "step", Prompt: "prompt"})
	}
	return ex
}

func TestDiff(t *testing.T) {
	t.Run("Initial Load (Old is Nil)", func(t *testing.T) {
		s := NewSession("sess-1", 0, testExercise("ex", 4))
		d := Diff(nil, s)
		require.NotNil(t, d)
		assert.Equal(t, "sess-1", d.SessionID)
		assert.Equal(t, 0, *d.ExerciseIndex)
		assert.Equal(t, 0, *d.StepIndex)
		assert.Len(t, d.Answers, 4)
		assert.Len(t, d.Hints, 4)
		assert.False(t, *d.Completed)
		assert.Nil(t, d.Score)
	})

	t.Run("No Changes", func(t *testing.T) {
		s := NewSession("sess-1", 0, testExercise("ex", 4))
		assert.Nil(t, Diff(s, s.Snapshot()))
	})

	t.Run("Answer and Step", func(t *testing.T) {
		old := NewSession("sess-1", 0, testExercise("ex", 4))
		next := old.Snapshot()
		next.StepIndex = 2
		next.Answers[1] = "hello"

		d := Diff(old, next)
		require.NotNil(t, d)
		assert.Nil(t, d.ExerciseIndex)
		assert.Equal(t, 2, *d.StepIndex)
		assert.Equal(t, map[int]string{1: "hello"}, d.Answers)
		assert.Nil(t, d.Hints)
		assert.Nil(t, d.Completed)
	})

	t.Run("Completion and Reset", func(t *testing.T) {
		old := NewSession("sess-1", 0, testExercise("ex", 4))
		done := old.Snapshot()
		done.Completed = true
		done.Score = ptr(75)

		d := Diff(old, done)
		require.NotNil(t, d)
		assert.True(t, *d.Completed)
		assert.Equal(t, 75, *d.Score)

		d = Diff(done, old)
		require.NotNil(t, d)
		assert.False(t, *d.Completed)
		assert.True(t, d.ScoreCleared)
	})

	t.Run("JSON omits unchanged fields", func(t *testing.T) {
		old := NewSession("sess-1", 0, testExercise("ex", 4))
		next := old.Snapshot()
		next.HintVisible[3] = true

		data, err := json.Marshal(Diff(old, next))
		require.NoError(t, err)
		assert.JSONEq(t, `{"session_id":"sess-1","hints":{"3":true}}`, string(data))
	})
}
