package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
	st, err := ParseState("service_selection")
	require.NoError(t, err)
	require.Equal(t, StateServiceSelection, st)

	_, err = ParseState("teleport")
	require.Error(t, err)

	_, err = ParseState("")
	require.Error(t, err)
}

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to State
		want     bool
	}{
		{StateInit, StateServiceSelection, true},
		{StateInit, StateDateSelection, false},
		{StateServiceSelection, StateProfessionalSelection, true},
		{StateServiceSelection, StateDateSelection, true},
		{StateServiceSelection, StateTimeSelection, false},
		{StateProfessionalSelection, StateDateSelection, true},
		{StateDateSelection, StateTimeSelection, true},
		{StateTimeSelection, StateConfirmation, true},
		{StateConfirmation, StateCompleted, true},
		{StateConfirmation, StateCancelled, true},
		{StateCompleted, StateServiceSelection, false},
		{StateCancelled, StateInit, false},
		{StateDateSelection, StateConfirmation, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateCancelled.Terminal())
	assert.False(t, StateInit.Terminal())
	assert.False(t, StateConfirmation.Terminal())
}

func TestProgressValues(t *testing.T) {
	assert.Equal(t, 0, StateInit.Progress())
	assert.Equal(t, 20, StateServiceSelection.Progress())
	assert.Equal(t, 40, StateProfessionalSelection.Progress())
	assert.Equal(t, 60, StateDateSelection.Progress())
	assert.Equal(t, 80, StateTimeSelection.Progress())
	assert.Equal(t, 90, StateConfirmation.Progress())
	assert.Equal(t, 100, StateCompleted.Progress())
	assert.Equal(t, 0, StateCancelled.Progress())
}

func TestNextStepsNeverEmptyForKnownStates(t *testing.T) {
	for _, st := range []State{
		StateInit, StateServiceSelection, StateProfessionalSelection,
		StateDateSelection, StateTimeSelection, StateConfirmation,
		StateCompleted, StateCancelled,
	} {
		assert.NotEmpty(t, st.NextSteps(), "state %s", st)
	}
}
