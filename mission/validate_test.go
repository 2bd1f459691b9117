package mission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwick-systems/missioncore/runtime"
)

func noopStep(id string, deps ...string) Step {
	return Step{ID: id, Name: id, Type: StepNoop, DependsOn: deps}
}

func TestValidate_RejectsEmptyMission(t *testing.T) {
	m := Mission{Version: "1", Name: "empty"}
	err := m.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, runtime.ErrEmptyMission)
	assert.Equal(t, runtime.KindConfig, runtime.KindOf(err))
}

func TestValidate_NoopPipelineSucceeds(t *testing.T) {
	m := Mission{Version: "1", Name: "n", Steps: []Step{
		noopStep("a"),
		noopStep("b", "a"),
	}}
	assert.NoError(t, m.Validate())
}

func TestValidate_RejectsSelfDependency(t *testing.T) {
	m := Mission{Version: "1", Name: "n", Steps: []Step{
		noopStep("a", "a"),
	}}
	err := m.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, runtime.ErrSelfDependency)
}

func TestValidate_RejectsCycleLengthTwo(t *testing.T) {
	m := Mission{Version: "1", Name: "n", Steps: []Step{
		noopStep("a", "b"),
		noopStep("b", "a"),
	}}
	err := m.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, runtime.ErrCycle)
}

func TestValidate_RejectsDuplicateID(t *testing.T) {
	m := Mission{Version: "1", Name: "n", Steps: []Step{
		noopStep("a"),
		noopStep("a"),
	}}
	err := m.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, runtime.ErrDuplicateStep)
}

func TestValidate_RejectsUnknownDependency(t *testing.T) {
	m := Mission{Version: "1", Name: "n", Steps: []Step{
		noopStep("a", "ghost"),
	}}
	err := m.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, runtime.ErrUnknownDependency)
}

func TestValidate_RejectsZeroTimeout(t *testing.T) {
	zero := 0
	s := noopStep("a")
	s.TimeoutSeconds = &zero
	m := Mission{Version: "1", Name: "n", Steps: []Step{s}}
	err := m.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, runtime.ErrInvalidTimeout)
}

func TestValidate_RejectsUnknownStepType(t *testing.T) {
	m := Mission{Version: "1", Name: "n", Steps: []Step{
		{ID: "a", Type: StepType("not_a_real_type")},
	}}
	err := m.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, runtime.ErrUnknownStepType)
}

func TestEffectiveConfig_AppliesDefaults(t *testing.T) {
	m := Mission{Version: "1", Name: "n", Steps: []Step{noopStep("a")}}
	cfg := m.EffectiveConfig()
	assert.Equal(t, DefaultMaxParallelSteps, cfg.MaxParallelSteps)
	assert.Equal(t, DefaultTimeoutSeconds, cfg.TimeoutSeconds)
	assert.True(t, cfg.FailFast)
}

func TestDAG_ExecutionLevels(t *testing.T) {
	m := Mission{Version: "1", Name: "n", Steps: []Step{
		noopStep("a"),
		noopStep("b", "a"),
		noopStep("c", "a"),
		noopStep("d", "b", "c"),
	}}
	require.NoError(t, m.Validate())
	levels := m.DAG().ExecutionLevels()
	require.Len(t, levels, 3)
	assert.ElementsMatch(t, []string{"a"}, levels[0])
	assert.ElementsMatch(t, []string{"b", "c"}, levels[1])
	assert.ElementsMatch(t, []string{"d"}, levels[2])
}

func TestDAG_TransitiveDependents(t *testing.T) {
	m := Mission{Version: "1", Name: "n", Steps: []Step{
		noopStep("a"),
		noopStep("b", "a"),
		noopStep("c", "b"),
	}}
	require.NoError(t, m.Validate())
	assert.ElementsMatch(t, []string{"b", "c"}, m.DAG().TransitiveDependents("a"))
}
