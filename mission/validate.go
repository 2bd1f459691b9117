package mission

import (
	"fmt"

	"github.com/fenwick-systems/missioncore/runtime"
)

// Validate checks every invariant spec.md §3/§8 demands: non-empty
// step list, unique ids, known step types, no self-dependency, positive
// timeouts, every dependency resolving to a declared step, and an
// acyclic graph. It returns the first violation found, wrapped as a
// ConfigError so callers can surface it at the mission boundary without
// having executed any step.
func (m Mission) Validate() error {
	if len(m.Steps) == 0 {
		return runtime.NewMissionError("Mission.Validate", runtime.KindConfig, "",
			fmt.Errorf("%w: mission %q declares no steps", runtime.ErrEmptyMission, m.Name))
	}

	seen := make(map[string]bool, len(m.Steps))
	for _, s := range m.Steps {
		if s.ID == "" {
			return runtime.NewMissionError("Mission.Validate", runtime.KindConfig, "",
				fmt.Errorf("step with empty id in mission %q", m.Name))
		}
		if seen[s.ID] {
			return runtime.NewMissionError("Mission.Validate", runtime.KindConfig, s.ID,
				fmt.Errorf("%w: %q", runtime.ErrDuplicateStep, s.ID))
		}
		seen[s.ID] = true

		if !s.Type.IsKnown() {
			return runtime.NewMissionError("Mission.Validate", runtime.KindConfig, s.ID,
				fmt.Errorf("%w: %q", runtime.ErrUnknownStepType, s.Type))
		}

		if s.TimeoutSeconds != nil && *s.TimeoutSeconds <= 0 {
			return runtime.NewMissionError("Mission.Validate", runtime.KindConfig, s.ID,
				fmt.Errorf("%w: step %q has timeout_seconds=%d", runtime.ErrInvalidTimeout, s.ID, *s.TimeoutSeconds))
		}

		for _, dep := range s.DependsOn {
			if dep == s.ID {
				return runtime.NewMissionError("Mission.Validate", runtime.KindConfig, s.ID,
					fmt.Errorf("%w: %q", runtime.ErrSelfDependency, s.ID))
			}
		}
	}

	for _, s := range m.Steps {
		for _, dep := range s.DependsOn {
			if !seen[dep] {
				return runtime.NewMissionError("Mission.Validate", runtime.KindConfig, s.ID,
					fmt.Errorf("%w: step %q depends on unknown step %q", runtime.ErrUnknownDependency, s.ID, dep))
			}
		}
	}

	dag := BuildDAG(m.Steps)
	if err := dag.validateAcyclic(); err != nil {
		return err
	}

	if m.Config != nil {
		if m.Config.MaxParallelSteps < 0 {
			return runtime.NewMissionError("Mission.Validate", runtime.KindConfig, "",
				fmt.Errorf("config.max_parallel_steps must not be negative"))
		}
		if m.Config.TimeoutSeconds < 0 {
			return runtime.NewMissionError("Mission.Validate", runtime.KindConfig, "",
				fmt.Errorf("config.timeout_seconds must not be negative"))
		}
	}

	return nil
}

// DAG builds this mission's dependency graph. Callers should call
// Validate first; DAG does not re-check acyclicity.
func (m Mission) DAG() *DAG {
	return BuildDAG(m.Steps)
}
