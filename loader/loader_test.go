package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwick-systems/missioncore/mission"
)

const sampleYAML = `
version: "1"
name: build-and-notify
steps:
  - id: build
    step_type: BUILD
    parameters:
      target: all
  - id: notify
    step_type: Command
    depends_on: [build]
    parameters:
      command: echo
`

func TestFromYAML_NormalizesStepTypeCase(t *testing.T) {
	m, err := FromYAML([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, mission.StepBuild, m.Steps[0].Type)
	assert.Equal(t, mission.StepCommand, m.Steps[1].Type)
}

func TestFromYAML_RejectsInvalidMission(t *testing.T) {
	_, err := FromYAML([]byte(`version: "1"
name: broken
steps:
  - id: a
    step_type: noop
    depends_on: [missing]
`))
	require.Error(t, err)
}

func TestFromJSON_ParsesEquivalentDocument(t *testing.T) {
	m, err := FromJSON([]byte(`{"version":"1","name":"x","steps":[{"id":"a","step_type":"noop"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "x", m.Name)
	assert.Len(t, m.Steps, 1)
}
