// Package loader parses mission documents (YAML or JSON) into
// mission.Mission values, normalizing case-insensitive step types and
// applying the same defaults the in-memory Mission.EffectiveConfig
// path applies, then validating before handing the result back.
// Grounded on the teacher's WorkflowEngine.ParseWorkflowYAML (parse,
// then validate, return the typed definition) and rustchain's
// core/mission.rs::load_mission.
package loader

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fenwick-systems/missioncore/mission"
	"github.com/fenwick-systems/missioncore/runtime"
)

// rawMission mirrors mission.Mission's shape but keeps StepType as a
// plain string so normalizeStepTypes can lower-case it before the
// typed StepType enum ever sees it.
type rawMission struct {
	Version     string    `yaml:"version" json:"version"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Steps       []rawStep `yaml:"steps" json:"steps"`
	Config      *mission.Config `yaml:"config,omitempty" json:"config,omitempty"`
}

type rawStep struct {
	ID              string                 `yaml:"id" json:"id"`
	Name            string                 `yaml:"name" json:"name"`
	Type            string                 `yaml:"step_type" json:"step_type"`
	DependsOn       []string               `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	TimeoutSeconds  *int                   `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	ContinueOnError bool                   `yaml:"continue_on_error,omitempty" json:"continue_on_error,omitempty"`
	Parameters      map[string]interface{} `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Metadata        map[string]interface{} `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// FromYAML parses a mission document written as YAML.
func FromYAML(data []byte) (*mission.Mission, error) {
	var raw rawMission
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, runtime.NewMissionError("loader.FromYAML", runtime.KindConfig, "", fmt.Errorf("parsing mission YAML: %w", err))
	}
	return finish(raw)
}

// FromJSON parses a mission document written as JSON.
func FromJSON(data []byte) (*mission.Mission, error) {
	var raw rawMission
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, runtime.NewMissionError("loader.FromJSON", runtime.KindConfig, "", fmt.Errorf("parsing mission JSON: %w", err))
	}
	return finish(raw)
}

func finish(raw rawMission) (*mission.Mission, error) {
	m := &mission.Mission{
		Version: raw.Version, Name: raw.Name, Description: raw.Description, Config: raw.Config,
	}
	m.Steps = make([]mission.Step, 0, len(raw.Steps))
	for _, rs := range raw.Steps {
		m.Steps = append(m.Steps, mission.Step{
			ID: rs.ID, Name: rs.Name, Type: mission.StepType(strings.ToLower(strings.TrimSpace(rs.Type))),
			DependsOn: rs.DependsOn, TimeoutSeconds: rs.TimeoutSeconds, ContinueOnError: rs.ContinueOnError,
			Parameters: rs.Parameters, Metadata: rs.Metadata,
		})
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
