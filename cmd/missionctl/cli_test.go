package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwick-systems/missioncore/audit"
	"github.com/fenwick-systems/missioncore/mission"
	"github.com/fenwick-systems/missioncore/policy"
	"github.com/fenwick-systems/missioncore/runtime"
)

func TestLoadMission_ParsesYAMLByDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.mission.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: "1"
name: sample
steps:
  - id: a
    step_type: noop
`), 0o644))

	m, err := loadMission(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", m.Name)
}

func TestLoadMission_ParsesJSONByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.mission.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"1","name":"sample","steps":[{"id":"a","step_type":"noop"}]}`), 0o644))

	m, err := loadMission(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", m.Name)
}

func TestLoadMission_RejectsMissingFile(t *testing.T) {
	_, err := loadMission(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPreflightPolicyCheck_DeniesWhenRuleBlocksStepType(t *testing.T) {
	engine := policy.NewEngine(policy.Allow, runtime.NoOpLogger{})
	engine.AddRule(policy.NewRule("deny-command", "no commands", policy.Deny).WithActions("tool:command"))

	m := &mission.Mission{Name: "m", Steps: []mission.Step{{ID: "a", Type: mission.StepCommand}}}
	denied, reason := preflightPolicyCheck(m, engine)
	assert.True(t, denied)
	assert.Equal(t, "a", reason.stepID)
}

func TestPreflightPolicyCheck_AllowsWhenNoRuleMatches(t *testing.T) {
	engine := policy.NewEngine(policy.Allow, runtime.NoOpLogger{})
	m := &mission.Mission{Name: "m", Steps: []mission.Step{{ID: "a", Type: mission.StepNoop}}}
	denied, _ := preflightPolicyCheck(m, engine)
	assert.False(t, denied)
}

func TestRenderReportMarkdown_IncludesCoreSections(t *testing.T) {
	rep := audit.Report{
		Start: time.Now().Add(-time.Hour), End: time.Now(),
		TotalRecords: 3, ErrorRate: 0.33,
		TopActors: []audit.CountedKey{{Key: "agent-1", Count: 2}},
	}
	out := renderReportMarkdown(rep)
	assert.Contains(t, out, "Total records")
	assert.Contains(t, out, "agent-1")
	assert.Contains(t, out, "Compliance")
}
