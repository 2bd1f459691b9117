// Package engine bundles the long-lived collaborators every mission
// run shares: audit log, policy engine, sandbox manager, tool registry,
// feature registry, perf collector, logger, and config. It exists
// separately from runtime so that runtime can stay a leaf package (no
// imports of audit/policy/sandbox/registry/feature) while those domain
// packages still import runtime one-directionally for Logger/Config/
// errors. Grounded on rustchain's core/mod.rs::RuntimeContext.
package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fenwick-systems/missioncore/audit"
	"github.com/fenwick-systems/missioncore/feature"
	"github.com/fenwick-systems/missioncore/policy"
	"github.com/fenwick-systems/missioncore/registry"
	"github.com/fenwick-systems/missioncore/runtime"
	"github.com/fenwick-systems/missioncore/sandbox"
	toolgit "github.com/fenwick-systems/missioncore/tools/git"
	toolhttp "github.com/fenwick-systems/missioncore/tools/http"
	toolllm "github.com/fenwick-systems/missioncore/tools/llm"
	"github.com/fenwick-systems/missioncore/tools/rag"
	"github.com/fenwick-systems/missioncore/tools/sqltool"
)

// RuntimeContext is the bundle handed to a scheduler for the lifetime
// of a mission run.
type RuntimeContext struct {
	Config   *runtime.Config
	Logger   runtime.Logger
	Perf     *runtime.PerfCollector
	Audit    *audit.Log
	Policy   *policy.Engine
	Sandbox  *sandbox.Manager
	Tools    *registry.Registry
	Features *feature.Registry

	db  *sqltool.Tool
	rag *rag.Store
}

// Close releases resources the bundle opened itself (the database/sql
// handle backing the "database" tool, and the Postgres connection
// backing the rag tools if configured). Collaborators constructed by
// the caller (logger, metrics registerer) are left untouched.
func (rc *RuntimeContext) Close() error {
	if rc.db != nil {
		if err := rc.db.Close(); err != nil {
			return err
		}
	}
	if rc.rag != nil {
		return rc.rag.Close()
	}
	return nil
}

// New wires every collaborator from cfg, the way rustchain's
// RuntimeContext::new constructs its Arc-wrapped fields in sequence.
// The caller supplies logger (nil defaults to runtime.NoOpLogger) and a
// prometheus.Registerer for the perf collector (nil disables metrics
// export, matching the rest of this package's optional-instrumentation
// convention).
func New(cfg *runtime.Config, logger runtime.Logger, metrics prometheus.Registerer) (*RuntimeContext, error) {
	if logger == nil {
		logger = runtime.NoOpLogger{}
	}

	auditLog, err := audit.Open(cfg.AuditDir,
		audit.WithRetention(cfg.AuditRetentionWindow, audit.RetentionCutBehavior(cfg.AuditRetentionCut)),
		audit.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	policyEngine := policy.NewEngine(policy.Effect(cfg.PolicyDefaultEffect), logger)
	policy.LoadDefaults(policyEngine)

	sandboxMgr, err := sandbox.NewManager(cfg.SandboxRoot)
	if err != nil {
		return nil, err
	}

	tools := registry.New(logger)
	tools.Register(registry.NewCreateFileTool(cfg.SandboxRoot))
	tools.Register(toolhttp.New())
	tools.Register(registry.NewCommandTool())
	tools.Register(toolgit.New(cfg.SandboxRoot))

	dbTool, err := sqltool.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, runtime.NewMissionError("engine.New", runtime.KindConfig, "", err)
	}
	tools.Register(dbTool)

	// rag_add/rag_query and llm are optional: they need a Postgres+
	// pgvector instance and an LLM API key respectively, neither of
	// which every deployment of this core has. Skip registration
	// rather than fail engine.New when unconfigured, the same
	// optional-collaborator posture rustchain's RuntimeContext takes
	// with its own Option<RagSystem>.
	var ragStore *rag.Store
	if cfg.RagPostgresDSN != "" {
		ragStore, err = rag.Open(cfg.RagPostgresDSN)
		if err != nil {
			return nil, runtime.NewMissionError("engine.New", runtime.KindConfig, "", err)
		}
		tools.Register(rag.NewAddTool(ragStore))
		tools.Register(rag.NewQueryTool(ragStore))
	}
	if cfg.LLMAPIKey != "" {
		tools.Register(toolllm.New(toolllm.Config{
			APIKey: cfg.LLMAPIKey, BaseURL: cfg.LLMBaseURL, Model: cfg.LLMModel,
			MaxTokens: cfg.LLMMaxTokens, Temperature: float32(cfg.LLMTemperature),
		}))
	}

	return &RuntimeContext{
		Config:   cfg,
		Logger:   logger,
		Perf:     runtime.NewPerfCollector(metrics),
		Audit:    auditLog,
		Policy:   policyEngine,
		Sandbox:  sandboxMgr,
		Tools:    tools,
		Features: feature.New(),
		db:       dbTool,
		rag:      ragStore,
	}, nil
}
