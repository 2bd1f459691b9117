package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fenwick-systems/missioncore/mission"
	"github.com/fenwick-systems/missioncore/policy"
	"github.com/fenwick-systems/missioncore/scheduler"
)

var runCmd = &cobra.Command{
	Use:   "run <mission>",
	Short: "Execute a mission's DAG against the scheduler",
	Args:  cobra.ExactArgs(1),
	RunE:  runMission,
}

func runMission(cmd *cobra.Command, args []string) error {
	path := args[0]
	m, err := loadMission(path)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "invalid mission: %v\n", err)
		os.Exit(exitInvalidMission)
	}

	rc, err := newRuntimeContext(cmd)
	if err != nil {
		return err
	}
	defer rc.Close()

	if denied, reason := preflightPolicyCheck(m, rc.Policy); denied {
		fmt.Fprintf(cmd.OutOrStdout(), "policy denied step %q before execution: %s\n", reason.stepID, reason.explanation)
		os.Exit(exitPolicyDenied)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := scheduler.New(rc).Run(ctx, m)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "run failed to start: %v\n", err)
		os.Exit(exitRuntimeError)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)

	if result.Status == mission.MissionFailed {
		os.Exit(exitRuntimeError)
	}
	os.Exit(exitSuccess)
	return nil
}

type preflightDenial struct {
	stepID      string
	explanation string
}

// preflightPolicyCheck evaluates every non-noop step's action key
// against the policy engine before the scheduler runs any of them. A mission whose
// steps would be denied regardless of runtime parameters is rejected
// up front rather than discovered one failed step at a time — the
// "policy denial at startup" outcome the CLI's exit code 3 names,
// distinct from a policy decision that depends on a step's resolved
// parameters and can only be made at dispatch time inside the
// scheduler itself.
func preflightPolicyCheck(m *mission.Mission, engine *policy.Engine) (bool, preflightDenial) {
	pctx := policy.NewContext(m.Name)
	for _, step := range m.Steps {
		if step.Type == mission.StepNoop {
			continue
		}
		decision := engine.Evaluate(step.Type.ActionKey(), pctx)
		if !decision.Allowed {
			return true, preflightDenial{stepID: step.ID, explanation: decision.Reason}
		}
	}
	return false, preflightDenial{}
}
