package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateMachine_AllowedTransitions(t *testing.T) {
	sm := NewStateMachine()

	assert.True(t, sm.CanTransition(StatusPending, StatusProcessing))
	assert.True(t, sm.CanTransition(StatusProcessing, StatusIndexed))
	assert.True(t, sm.CanTransition(StatusProcessing, StatusFailed))
	// 失败后允许重投重新处理
	assert.True(t, sm.CanTransition(StatusFailed, StatusProcessing))
}

func TestStateMachine_ForbiddenTransitions(t *testing.T) {
	sm := NewStateMachine()

	assert.False(t, sm.CanTransition(StatusPending, StatusIndexed))
	assert.False(t, sm.CanTransition(StatusPending, StatusFailed))
	assert.False(t, sm.CanTransition(StatusIndexed, StatusProcessing))
	assert.False(t, sm.CanTransition(StatusIndexed, StatusFailed))
	assert.False(t, sm.CanTransition(StatusFailed, StatusIndexed))
	assert.False(t, sm.CanTransition("unknown", StatusProcessing))
}

func TestStateMachine_Validate(t *testing.T) {
	sm := NewStateMachine()

	assert.NoError(t, sm.Validate(StatusPending, StatusProcessing))

	err := sm.Validate(StatusIndexed, StatusFailed)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid transition")
}

func TestStateMachine_IsTerminal(t *testing.T) {
	sm := NewStateMachine()

	assert.True(t, sm.IsTerminal(StatusIndexed))
	assert.True(t, sm.IsTerminal(StatusFailed))
	assert.False(t, sm.IsTerminal(StatusPending))
	assert.False(t, sm.IsTerminal(StatusProcessing))
}
