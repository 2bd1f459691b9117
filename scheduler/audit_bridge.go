package scheduler

import (
	"github.com/fenwick-systems/missioncore/audit"
	"github.com/fenwick-systems/missioncore/mission"
)

// auditOutcome maps a step's terminal StepStatus onto audit.Outcome.
func auditOutcome(status mission.StepStatus) audit.Outcome {
	switch status {
	case mission.StatusSuccess:
		return audit.OutcomeSuccess
	case mission.StatusTimedOut:
		return audit.OutcomeFailure
	case mission.StatusSkipped:
		return audit.OutcomeWarning
	default:
		return audit.OutcomeFailure
	}
}

// auditRisk assigns a coarse risk level by step type: command/system/
// git steps touch the host directly and are High; database and network
// steps are Medium; everything else is Low. The policy engine's own rules (not this mapping) are what
// actually gate dangerous actions — this only shapes the audit record
// compliance rules later evaluate.
func auditRisk(step mission.Step) audit.RiskLevel {
	switch step.Type {
	case mission.StepCommand, mission.StepSystem, mission.StepGit:
		return audit.RiskHigh
	case mission.StepDatabase, mission.StepNetwork:
		return audit.RiskMedium
	default:
		return audit.RiskLow
	}
}

// auditInputForStep builds the audit record for one finished step. A
// denied step (policy or sandbox rejection ahead of dispatch) reports
// outcome Blocked with a policy_violation detail instead of the status
// derived outcome, and its risk is floored at High, per spec.md §4.1
// step 1 and the §8 scenario 3 worked example.
func auditInputForStep(missionName string, step mission.Step, status mission.StepStatus, denied bool, res *mission.StepResult) audit.NewRecordInput {
	outcome := auditOutcome(status)
	risk := auditRisk(step)
	details := map[string]interface{}{
		"duration_ms": res.Duration.Milliseconds(),
		"error":       res.Error,
	}
	if denied {
		outcome = audit.OutcomeBlocked
		details["policy_violation"] = true
		if risk != audit.RiskCritical {
			risk = audit.RiskHigh
		}
	}
	return audit.NewRecordInput{
		Kind:     audit.EventStepExecution,
		Actor:    missionName,
		Resource: step.ID,
		Action:   string(step.Type),
		Outcome:  outcome,
		Risk:     risk,
		Details:  details,
		Metadata: map[string]interface{}{
			"mission_id": missionName,
			"step_id":    step.ID,
		},
	}
}
