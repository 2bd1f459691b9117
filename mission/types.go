// Package mission defines the mission/step data model and the
// invariants a Mission must satisfy before the scheduler will run it.
package mission

import "time"

// StepType tags the kind of work a Step performs. The set is treated as
// extensible but closed at mission-validation time per spec: validation
// rejects any tag IsKnown doesn't recognize.
type StepType string

const (
	StepNoop     StepType = "noop"
	StepCommand  StepType = "command"
	StepHttp     StepType = "http"
	StepLlm      StepType = "llm"
	StepTool     StepType = "tool"
	StepRagQuery StepType = "rag_query"
	StepRagAdd   StepType = "rag_add"
	StepChain    StepType = "chain"
	StepAgent    StepType = "agent"

	StepFilesystem StepType = "filesystem"
	StepParse      StepType = "parse"
	StepBuild      StepType = "build"
	StepGit        StepType = "git"
	StepSystem     StepType = "system"
	StepDatabase   StepType = "database"
	StepNetwork    StepType = "network"
	StepAiMl       StepType = "ai_ml"
)

// knownStepTypes is the closed enum checked at validation time. New
// types are added here; IsKnown is the single point of truth the
// scheduler and loader both defer to.
var knownStepTypes = map[StepType]bool{
	StepNoop: true, StepCommand: true, StepHttp: true, StepLlm: true,
	StepTool: true, StepRagQuery: true, StepRagAdd: true, StepChain: true,
	StepAgent: true, StepFilesystem: true, StepParse: true, StepBuild: true,
	StepGit: true, StepSystem: true, StepDatabase: true, StepNetwork: true,
	StepAiMl: true,
}

// IsKnown reports whether t is a recognized StepType.
func (t StepType) IsKnown() bool {
	return knownStepTypes[t]
}

// ActionKey is the lower-cased "tool:<StepType>" string the Policy
// Engine matches rule action patterns against.
func (t StepType) ActionKey() string {
	return "tool:" + string(t)
}

// toolNameByType maps a StepType onto the registry.Tool name the
// scheduler dispatches to. StepNetwork and StepSystem fold onto the
// http/command built-ins respectively; StepFilesystem dispatches to
// create_file, the only filesystem built-in this repo ships.
var toolNameByType = map[StepType]string{
	StepCommand:    "command",
	StepHttp:       "http",
	StepNetwork:    "http",
	StepFilesystem: "create_file",
	StepSystem:     "command",
	StepLlm:        "llm",
	StepRagQuery:   "rag_query",
	StepRagAdd:     "rag_add",
	StepGit:        "git",
	StepDatabase:   "database",
	StepAiMl:       "ai_ml",
	StepParse:      "parse",
	StepBuild:      "build",
	StepChain:      "chain",
	StepAgent:      "agent",
}

// ToolName returns the registry.Tool name this step type dispatches to.
// StepTool steps carry their target tool name in Parameters["tool"]
// instead, and StepNoop never reaches the registry at all.
func (t StepType) ToolName() (string, bool) {
	name, ok := toolNameByType[t]
	return name, ok
}

// Step is one node of the mission DAG.
type Step struct {
	ID              string                 `yaml:"id" json:"id"`
	Name            string                 `yaml:"name" json:"name"`
	Type            StepType               `yaml:"step_type" json:"step_type"`
	DependsOn       []string               `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	TimeoutSeconds  *int                   `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	ContinueOnError bool                   `yaml:"continue_on_error,omitempty" json:"continue_on_error,omitempty"`
	Parameters      map[string]interface{} `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Metadata        map[string]interface{} `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Timeout resolves the step's effective per-step timeout, falling back
// to the mission-wide default when unset.
func (s Step) Timeout(missionDefault time.Duration) time.Duration {
	if s.TimeoutSeconds == nil {
		return missionDefault
	}
	return time.Duration(*s.TimeoutSeconds) * time.Second
}

// Config holds mission-wide execution defaults.
type Config struct {
	MaxParallelSteps int  `yaml:"max_parallel_steps,omitempty" json:"max_parallel_steps,omitempty"`
	TimeoutSeconds   int  `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	FailFast         bool `yaml:"fail_fast,omitempty" json:"fail_fast,omitempty"`
}

const (
	DefaultMaxParallelSteps = 4
	DefaultTimeoutSeconds   = 300
)

// WithDefaults returns a copy of cfg with zero-valued fields filled in
// per spec.md §3 (max_parallel_steps=4, timeout_seconds=300, fail_fast
// defaults true — note the zero value of bool is false, so FailFast is
// normalized by the loader rather than here; see mission.Normalize).
func (cfg Config) WithDefaults() Config {
	if cfg.MaxParallelSteps <= 0 {
		cfg.MaxParallelSteps = DefaultMaxParallelSteps
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	return cfg
}

// Mission is a declarative DAG of steps executed as one unit.
type Mission struct {
	Version     string  `yaml:"version" json:"version"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Steps       []Step  `yaml:"steps" json:"steps"`
	Config      *Config `yaml:"config,omitempty" json:"config,omitempty"`
}

// EffectiveConfig returns the mission's Config with defaults applied,
// synthesizing one if the mission didn't declare any.
func (m Mission) EffectiveConfig() Config {
	if m.Config == nil {
		cfg := Config{FailFast: true}
		return cfg.WithDefaults()
	}
	cfg := *m.Config
	return cfg.WithDefaults()
}

// StepStatus is the terminal (or in-flight) state of one step.
type StepStatus string

const (
	StatusPending StepStatus = "Pending"
	StatusRunning StepStatus = "Running"
	StatusSuccess StepStatus = "Success"
	StatusFailed  StepStatus = "Failed"
	StatusSkipped StepStatus = "Skipped"
	StatusTimedOut StepStatus = "TimedOut"
)

// IsFailure reports whether s is a non-success terminal state that
// should fail its mission and cascade-skip dependents: both an
// outright failure and a deadline timeout count.
func (s StepStatus) IsFailure() bool {
	return s == StatusFailed || s == StatusTimedOut
}

// IsTerminal reports whether s is a state the scheduler will not
// transition out of.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusSkipped, StatusTimedOut:
		return true
	default:
		return false
	}
}

// StepResult is the outcome of one executed (or skipped) step.
type StepResult struct {
	StepID    string        `json:"step_id"`
	Status    StepStatus    `json:"status"`
	Output    interface{}   `json:"output,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
}

// MissionStatus is the overall outcome of a mission run.
type MissionStatus string

const (
	MissionSuccess MissionStatus = "Success"
	MissionFailed  MissionStatus = "Failed"
)

// MissionResult is returned by the scheduler's Execute contract.
type MissionResult struct {
	MissionName string                 `json:"mission_name"`
	Status      MissionStatus          `json:"status"`
	Steps       map[string]*StepResult `json:"steps"`
	StartedAt   time.Time              `json:"started_at"`
	EndedAt     time.Time              `json:"ended_at"`
	Duration    time.Duration          `json:"duration"`
	// FailureStepID and FailureReason name the first terminal failure
	// the way spec.md §7 requires a failed mission to carry a primary
	// error summary.
	FailureStepID string `json:"failure_step_id,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}
