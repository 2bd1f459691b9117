package runtime

import (
	"errors"
	"fmt"
)

// Sentinel errors for the taxonomy in spec §7. Wrap these with
// MissionError to preserve the step/operation context while still
// supporting errors.Is comparisons.
var (
	ErrCycle            = errors.New("mission graph contains a cycle")
	ErrDuplicateStep    = errors.New("duplicate step id")
	ErrUnknownDependency = errors.New("dependency refers to unknown step")
	ErrSelfDependency   = errors.New("step depends on itself")
	ErrInvalidTimeout   = errors.New("step timeout must be strictly positive")
	ErrEmptyMission     = errors.New("mission has no steps")
	ErrUnknownStepType  = errors.New("unknown step type")

	ErrPolicyDenied     = errors.New("policy denied action")
	ErrSandboxViolation = errors.New("sandbox rejected action")
	ErrToolNotFound     = errors.New("tool not found")
	ErrInvalidParameters = errors.New("invalid tool parameters")
	ErrTimeout          = errors.New("deadline exceeded")
	ErrCancelled        = errors.New("execution cancelled")
	ErrInternal         = errors.New("internal error")

	ErrSessionDestroyed = errors.New("sandbox session destroyed")
	ErrPathEscape       = errors.New("path escapes sandbox root")

	ErrChainBroken = errors.New("audit chain integrity check failed")
)

// ErrorKind classifies a MissionError per spec §7's taxonomy.
type ErrorKind string

const (
	KindConfig   ErrorKind = "ConfigError"
	KindPolicy   ErrorKind = "PolicyDenied"
	KindSandbox  ErrorKind = "SandboxViolation"
	KindTool     ErrorKind = "ToolError"
	KindTimeout  ErrorKind = "Timeout"
	KindCancelled ErrorKind = "Cancelled"
	KindInternal ErrorKind = "InternalError"
	KindAudit    ErrorKind = "AuditError"
)

// MissionError carries the operation, error kind, and implicated step id
// alongside the wrapped cause, the way the teacher's FrameworkError
// carries Op/Kind/ID.
type MissionError struct {
	Op     string
	Kind   ErrorKind
	StepID string
	Err    error
}

func (e *MissionError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("%s[%s] step %s: %v", e.Kind, e.Op, e.StepID, e.Err)
	}
	return fmt.Sprintf("%s[%s]: %v", e.Kind, e.Op, e.Err)
}

func (e *MissionError) Unwrap() error { return e.Err }

func NewMissionError(op string, kind ErrorKind, stepID string, err error) *MissionError {
	return &MissionError{Op: op, Kind: kind, StepID: stepID, Err: err}
}

func IsPolicyDenied(err error) bool  { return errors.Is(err, ErrPolicyDenied) }
func IsSandboxViolation(err error) bool { return errors.Is(err, ErrSandboxViolation) }
func IsTimeout(err error) bool       { return errors.Is(err, ErrTimeout) }
func IsCancelled(err error) bool     { return errors.Is(err, ErrCancelled) }
func IsToolNotFound(err error) bool  { return errors.Is(err, ErrToolNotFound) }

// KindOf extracts the ErrorKind from err if it (or something it wraps)
// is a *MissionError; otherwise returns KindInternal.
func KindOf(err error) ErrorKind {
	var me *MissionError
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindInternal
}
