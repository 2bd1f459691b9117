// Package scheduler executes a mission.Mission's DAG: bounded-
// concurrency dispatch level by level, policy/sandbox admission ahead
// of every tool call, an audit record for every step that runs (skipped
// steps get none), and the
// continue_on_error/fail_fast/skip-cascade dispatch policy. Grounded on
// the teacher's orchestration/workflow_engine.go (executeDAG's worker
// pool, executeStep's span/log/deadline shape), generalized from
// HTTP-service-call steps to registry.Tool dispatch.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/fenwick-systems/missioncore/engine"
	"github.com/fenwick-systems/missioncore/mission"
	"github.com/fenwick-systems/missioncore/policy"
	"github.com/fenwick-systems/missioncore/registry"
	"github.com/fenwick-systems/missioncore/runtime"
	"github.com/fenwick-systems/missioncore/sandbox"
)

var tracer = otel.Tracer("github.com/fenwick-systems/missioncore/scheduler")

// Scheduler runs missions against a shared RuntimeContext.
type Scheduler struct {
	rc *engine.RuntimeContext
}

// New creates a Scheduler bound to rc.
func New(rc *engine.RuntimeContext) *Scheduler {
	return &Scheduler{rc: rc}
}

// Run validates m, then executes its DAG level by level with
// concurrency bounded by the mission's effective MaxParallelSteps.
// Cancellation propagates cooperatively: ctx is derived with the
// mission's overall timeout, and a fail-fast failure cancels it so
// in-flight steps observe cancellation at their next await point.
func (s *Scheduler) Run(ctx context.Context, m *mission.Mission) (*mission.MissionResult, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	cfg := m.EffectiveConfig()
	dag := m.DAG()
	levels := dag.ExecutionLevels()

	missionCtx := runtime.WithMissionID(ctx, m.Name)
	runCtx, cancel := context.WithTimeout(missionCtx, time.Duration(cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	runCtx, span := tracer.Start(runCtx, "mission.run", trace.WithAttributes(attribute.String("mission.name", m.Name)))
	defer span.End()

	result := &mission.MissionResult{
		MissionName: m.Name,
		Status:      mission.MissionSuccess,
		Steps:       make(map[string]*mission.StepResult, len(m.Steps)),
		StartedAt:   time.Now(),
	}
	stepByID := make(map[string]mission.Step, len(m.Steps))
	for _, step := range m.Steps {
		stepByID[step.ID] = step
		result.Steps[step.ID] = &mission.StepResult{StepID: step.ID, Status: mission.StatusPending}
	}

	var mu sync.Mutex
	skipped := make(map[string]bool)
	abandoned := false

	sem := semaphore.NewWeighted(int64(cfg.MaxParallelSteps))

	for _, level := range levels {
		if abandoned {
			for _, id := range level {
				s.markSkipped(result, &mu, id)
			}
			continue
		}

		var wg sync.WaitGroup
		for _, stepID := range level {
			stepID := stepID

			mu.Lock()
			isSkipped := skipped[stepID]
			mu.Unlock()
			if isSkipped {
				s.markSkipped(result, &mu, stepID)
				continue
			}

			if err := sem.Acquire(runCtx, 1); err != nil {
				s.markSkipped(result, &mu, stepID)
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)

				step := stepByID[stepID]
				stepResult := s.runStep(runCtx, m.Name, step, cfg)

				mu.Lock()
				result.Steps[stepID] = stepResult
				if stepResult.Status.IsFailure() && !step.ContinueOnError {
					result.Status = mission.MissionFailed
					if result.FailureStepID == "" {
						result.FailureStepID = stepID
						result.FailureReason = stepResult.Error
					}
					if cfg.FailFast {
						abandoned = true
						cancel()
					} else {
						for _, dep := range dag.TransitiveDependents(stepID) {
							skipped[dep] = true
						}
					}
				}
				mu.Unlock()
			}()
		}
		wg.Wait()
	}

	result.EndedAt = time.Now()
	result.Duration = result.EndedAt.Sub(result.StartedAt)
	if result.Status == mission.MissionFailed {
		span.SetStatus(codes.Error, result.FailureReason)
	}
	return result, nil
}

func (s *Scheduler) markSkipped(result *mission.MissionResult, mu *sync.Mutex, stepID string) {
	mu.Lock()
	defer mu.Unlock()
	if existing := result.Steps[stepID]; existing != nil && existing.Status.IsTerminal() {
		return
	}
	now := time.Now()
	result.Steps[stepID] = &mission.StepResult{StepID: stepID, Status: mission.StatusSkipped, StartedAt: now, EndedAt: now}
}

// runStep performs the per-step admission pipeline: policy check,
// sandbox check, deadline computation, tool dispatch, audit write.
func (s *Scheduler) runStep(ctx context.Context, missionName string, step mission.Step, cfg mission.Config) *mission.StepResult {
	stepCtx, span := tracer.Start(ctx, "mission.step", trace.WithAttributes(
		attribute.String("step.id", step.ID), attribute.String("step.type", string(step.Type))))
	defer span.End()

	start := time.Now()
	res := &mission.StepResult{StepID: step.ID, Status: mission.StatusRunning, StartedAt: start}

	deadline := step.Timeout(time.Duration(cfg.TimeoutSeconds) * time.Second)
	if remaining, ok := ctx.Deadline(); ok {
		if left := time.Until(remaining); left < deadline {
			deadline = left
		}
	}
	cctx, cancel := context.WithTimeout(stepCtx, deadline)
	defer cancel()

	s.rc.Perf.Start(step.ID)
	defer s.rc.Perf.Stop(step.ID)

	if step.Type == mission.StepNoop {
		return s.finish(res, start, mission.StatusSuccess, map[string]interface{}{"noop": true}, "", missionName, step)
	}

	policyCtx := policy.NewContext(s.rc.Config.AgentID)
	for k, v := range step.Parameters {
		policyCtx = policyCtx.WithMetadata(k, v)
	}
	decision := s.rc.Policy.Evaluate(step.Type.ActionKey(), policyCtx)
	if !decision.Allowed {
		return s.finishDenied(res, start, fmt.Sprintf("policy denied: %s", decision.Reason), missionName, step)
	}

	if err := s.admitSandbox(step); err != nil {
		return s.finishDenied(res, start, err.Error(), missionName, step)
	}

	toolName, ok := step.Type.ToolName()
	if step.Type == mission.StepTool {
		if explicit, ok2 := step.Parameters["tool"].(string); ok2 {
			toolName, ok = explicit, true
		}
	}
	if !ok {
		return s.finish(res, start, mission.StatusFailed, nil,
			fmt.Sprintf("no tool mapped for step type %q", step.Type), missionName, step)
	}

	call := registry.Call{ToolName: toolName, Parameters: step.Parameters, ContinueOnError: step.ContinueOnError,
		Metadata: map[string]interface{}{"mission_id": missionName, "step_id": step.ID}}
	toolResult := s.rc.Tools.Execute(cctx, call)

	status := mission.StatusSuccess
	errMsg := ""
	if !toolResult.Success {
		status = mission.StatusFailed
		errMsg = toolResult.Error
		if cctx.Err() != nil {
			status = mission.StatusTimedOut
			errMsg = fmt.Sprintf("step %q exceeded its deadline", step.ID)
		}
	}
	return s.finish(res, start, status, toolResult.Output, errMsg, missionName, step)
}

func (s *Scheduler) admitSandbox(step mission.Step) error {
	desc := sandbox.ActionDescriptor{}
	if path, ok := step.Parameters["path"].(string); ok {
		desc.Path = path
	}
	if command, ok := step.Parameters["command"].(string); ok {
		desc.Command = command
	}
	if desc.Path == "" && desc.Command == "" {
		return nil
	}
	return sandbox.Validate(desc)
}

// finish records a step's normal terminal outcome (success, tool
// failure, or timeout) and appends its audit record. Skipped steps are
// recorded by markSkipped, which writes no audit record.
func (s *Scheduler) finish(res *mission.StepResult, start time.Time, status mission.StepStatus, output interface{}, errMsg string, missionName string, step mission.Step) *mission.StepResult {
	return s.finishResult(res, start, status, output, errMsg, missionName, step, false)
}

// finishDenied records a step rejected before dispatch by the policy
// engine or the sandbox: status is Failed per spec.md §8 scenario 3,
// but the audit record's outcome is Blocked, not Failure.
func (s *Scheduler) finishDenied(res *mission.StepResult, start time.Time, errMsg string, missionName string, step mission.Step) *mission.StepResult {
	return s.finishResult(res, start, mission.StatusFailed, nil, errMsg, missionName, step, true)
}

func (s *Scheduler) finishResult(res *mission.StepResult, start time.Time, status mission.StepStatus, output interface{}, errMsg string, missionName string, step mission.Step, denied bool) *mission.StepResult {
	res.Status = status
	res.Output = output
	res.Error = errMsg
	res.EndedAt = time.Now()
	res.Duration = res.EndedAt.Sub(start)

	_, _ = s.rc.Audit.Append(auditInputForStep(missionName, step, status, denied, res))
	return res
}
