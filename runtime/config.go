package runtime

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the mission engine's process-wide settings, read from
// environment variables, the way the teacher's core.Config loads
// GOMIND_* variables. The struct tags document each variable and its
// default; applyDefaults and applyEnv apply them by hand. Fields here
// are scoped to what
// the mission core itself needs rather than the teacher's full HTTP/
// discovery/AI surface.
type Config struct {
	AgentID   string `env:"MISSIONCORE_AGENT_ID" default:"missioncore"`
	AgentName string `env:"MISSIONCORE_AGENT_NAME" default:"mission-execution-core"`

	MaxParallelSteps int           `env:"MISSIONCORE_MAX_PARALLEL_STEPS" default:"4"`
	MissionTimeout    time.Duration `env:"MISSIONCORE_MISSION_TIMEOUT" default:"300s"`
	FailFast          bool          `env:"MISSIONCORE_FAIL_FAST" default:"true"`

	AuditDir             string `env:"MISSIONCORE_AUDIT_DIR" default:"./audit"`
	AuditRedisURL        string `env:"MISSIONCORE_AUDIT_REDIS_URL,REDIS_URL" default:""`
	AuditRetentionCut    string `env:"MISSIONCORE_AUDIT_RETENTION_CUT" default:"RefuseAcrossCut"`
	AuditRetentionWindow time.Duration `env:"MISSIONCORE_AUDIT_RETENTION_WINDOW" default:"0"`

	PolicyDefaultEffect string `env:"MISSIONCORE_POLICY_DEFAULT_EFFECT" default:"Deny"`

	SandboxRoot string `env:"MISSIONCORE_SANDBOX_ROOT" default:"./sandbox"`

	DatabaseDSN string `env:"MISSIONCORE_DATABASE_DSN" default:"missioncore.db"`

	RagPostgresDSN string `env:"MISSIONCORE_RAG_POSTGRES_DSN" default:""`

	LLMAPIKey      string  `env:"MISSIONCORE_LLM_API_KEY,OPENAI_API_KEY" default:""`
	LLMBaseURL     string  `env:"MISSIONCORE_LLM_BASE_URL" default:""`
	LLMModel       string  `env:"MISSIONCORE_LLM_MODEL" default:"gpt-4o-mini"`
	LLMMaxTokens   int     `env:"MISSIONCORE_LLM_MAX_TOKENS" default:"1024"`
	LLMTemperature float64 `env:"MISSIONCORE_LLM_TEMPERATURE" default:"0.7"`

	LogLevel  string `env:"MISSIONCORE_LOG_LEVEL" default:"info"`
	LogFormat string `env:"MISSIONCORE_LOG_FORMAT" default:"json"`

	MetricsEnabled bool   `env:"MISSIONCORE_METRICS_ENABLED" default:"false"`
	TracingEnabled bool   `env:"MISSIONCORE_TRACING_ENABLED" default:"false"`
	OTLPEndpoint   string `env:"MISSIONCORE_OTLP_ENDPOINT,OTEL_EXPORTER_OTLP_ENDPOINT" default:""`
}

// Option mutates a Config after defaults and environment overrides have
// been applied, following the teacher's functional-options pattern for
// NewConfig.
type Option func(*Config)

func WithAgentID(id string) Option {
	return func(c *Config) { c.AgentID = id }
}

func WithMaxParallelSteps(n int) Option {
	return func(c *Config) { c.MaxParallelSteps = n }
}

func WithMissionTimeout(d time.Duration) Option {
	return func(c *Config) { c.MissionTimeout = d }
}

func WithFailFast(b bool) Option {
	return func(c *Config) { c.FailFast = b }
}

func WithSandboxRoot(path string) Option {
	return func(c *Config) { c.SandboxRoot = path }
}

func WithDatabaseDSN(dsn string) Option {
	return func(c *Config) { c.DatabaseDSN = dsn }
}

func WithAuditDir(path string) Option {
	return func(c *Config) { c.AuditDir = path }
}

// NewConfig builds a Config by applying struct-tag defaults, then
// environment variable overrides, then any explicit Options — the same
// precedence order as the teacher's core.NewConfig.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := applyDefaults(c); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}
	if err := applyEnv(c); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects configurations that would make the engine unusable.
// A zero-step mission is a ConfigError per spec §8; likewise a
// non-positive concurrency or timeout here is a ConfigError since every
// mission derives its defaults from these fields.
func (c *Config) Validate() error {
	if c.MaxParallelSteps <= 0 {
		return NewMissionError("Config.Validate", KindConfig, "", fmt.Errorf("MaxParallelSteps must be positive, got %d", c.MaxParallelSteps))
	}
	if c.MissionTimeout <= 0 {
		return NewMissionError("Config.Validate", KindConfig, "", fmt.Errorf("MissionTimeout must be positive, got %s", c.MissionTimeout))
	}
	switch c.AuditRetentionCut {
	case "NewGenesis", "RefuseAcrossCut":
	default:
		return NewMissionError("Config.Validate", KindConfig, "", fmt.Errorf("unknown AuditRetentionCut %q", c.AuditRetentionCut))
	}
	switch strings.ToLower(c.PolicyDefaultEffect) {
	case "allow", "deny":
	default:
		return NewMissionError("Config.Validate", KindConfig, "", fmt.Errorf("unknown PolicyDefaultEffect %q", c.PolicyDefaultEffect))
	}
	return nil
}

// applyDefaults assigns every field its default directly rather than
// walking the struct tags by reflection, since Config is small and
// fixed; the values match the `default` tags above. It runs before the
// env pass, mirroring the teacher's approach.
func applyDefaults(c *Config) error {
	c.AgentID = "missioncore"
	c.AgentName = "mission-execution-core"
	c.MaxParallelSteps = 4
	c.MissionTimeout = 300 * time.Second
	c.FailFast = true
	c.AuditDir = "./audit"
	c.AuditRedisURL = ""
	c.AuditRetentionCut = "RefuseAcrossCut"
	c.AuditRetentionWindow = 0
	c.PolicyDefaultEffect = "Deny"
	c.SandboxRoot = "./sandbox"
	c.DatabaseDSN = "missioncore.db"
	c.RagPostgresDSN = ""
	c.LLMAPIKey = ""
	c.LLMBaseURL = ""
	c.LLMModel = "gpt-4o-mini"
	c.LLMMaxTokens = 1024
	c.LLMTemperature = 0.7
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.MetricsEnabled = false
	c.TracingEnabled = false
	c.OTLPEndpoint = ""
	return nil
}

// applyEnv overrides defaults from environment variables. Each field
// supports the teacher's comma-separated fallback alias convention
// (e.g. "MISSIONCORE_AUDIT_REDIS_URL,REDIS_URL" tries the first name,
// then falls back to the second).
func applyEnv(c *Config) error {
	c.AgentID = envOr("MISSIONCORE_AGENT_ID", c.AgentID)
	c.AgentName = envOr("MISSIONCORE_AGENT_NAME", c.AgentName)
	c.AuditDir = envOr("MISSIONCORE_AUDIT_DIR", c.AuditDir)
	c.AuditRedisURL = envOrAlias(c.AuditRedisURL, "MISSIONCORE_AUDIT_REDIS_URL", "REDIS_URL")
	c.AuditRetentionCut = envOr("MISSIONCORE_AUDIT_RETENTION_CUT", c.AuditRetentionCut)
	c.PolicyDefaultEffect = envOr("MISSIONCORE_POLICY_DEFAULT_EFFECT", c.PolicyDefaultEffect)
	c.SandboxRoot = envOr("MISSIONCORE_SANDBOX_ROOT", c.SandboxRoot)
	c.DatabaseDSN = envOr("MISSIONCORE_DATABASE_DSN", c.DatabaseDSN)
	c.RagPostgresDSN = envOr("MISSIONCORE_RAG_POSTGRES_DSN", c.RagPostgresDSN)
	c.LLMAPIKey = envOrAlias(c.LLMAPIKey, "MISSIONCORE_LLM_API_KEY", "OPENAI_API_KEY")
	c.LLMBaseURL = envOr("MISSIONCORE_LLM_BASE_URL", c.LLMBaseURL)
	c.LLMModel = envOr("MISSIONCORE_LLM_MODEL", c.LLMModel)
	c.LogLevel = envOr("MISSIONCORE_LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOr("MISSIONCORE_LOG_FORMAT", c.LogFormat)
	c.OTLPEndpoint = envOrAlias(c.OTLPEndpoint, "MISSIONCORE_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")

	if v, ok := os.LookupEnv("MISSIONCORE_MAX_PARALLEL_STEPS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MISSIONCORE_MAX_PARALLEL_STEPS: %w", err)
		}
		c.MaxParallelSteps = n
	}
	if v, ok := os.LookupEnv("MISSIONCORE_MISSION_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MISSIONCORE_MISSION_TIMEOUT: %w", err)
		}
		c.MissionTimeout = d
	}
	if v, ok := os.LookupEnv("MISSIONCORE_AUDIT_RETENTION_WINDOW"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MISSIONCORE_AUDIT_RETENTION_WINDOW: %w", err)
		}
		c.AuditRetentionWindow = d
	}
	if v, ok := os.LookupEnv("MISSIONCORE_FAIL_FAST"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MISSIONCORE_FAIL_FAST: %w", err)
		}
		c.FailFast = b
	}
	if v, ok := os.LookupEnv("MISSIONCORE_METRICS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MISSIONCORE_METRICS_ENABLED: %w", err)
		}
		c.MetricsEnabled = b
	}
	if v, ok := os.LookupEnv("MISSIONCORE_LLM_MAX_TOKENS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MISSIONCORE_LLM_MAX_TOKENS: %w", err)
		}
		c.LLMMaxTokens = n
	}
	if v, ok := os.LookupEnv("MISSIONCORE_LLM_TEMPERATURE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MISSIONCORE_LLM_TEMPERATURE: %w", err)
		}
		c.LLMTemperature = f
	}
	if v, ok := os.LookupEnv("MISSIONCORE_TRACING_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MISSIONCORE_TRACING_ENABLED: %w", err)
		}
		c.TracingEnabled = b
	}
	return nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envOrAlias(fallback string, keys ...string) string {
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			return v
		}
	}
	return fallback
}
