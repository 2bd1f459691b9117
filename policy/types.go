// Package policy implements the rule-based allow/deny decision engine
// that gates every step the scheduler runs, transliterated from
// rustchain's EnhancedPolicyEngine (policy/mod.rs) into idiomatic Go.
package policy

import "time"

// Effect is a rule's outcome when it matches.
type Effect string

const (
	Allow Effect = "Allow"
	Deny  Effect = "Deny"
)

// ConditionOperator is the closed set of comparisons a PolicyCondition
// may use.
type ConditionOperator string

const (
	Equals      ConditionOperator = "Equals"
	NotEquals   ConditionOperator = "NotEquals"
	In          ConditionOperator = "In"
	NotIn       ConditionOperator = "NotIn"
	GreaterThan ConditionOperator = "GreaterThan"
	LessThan    ConditionOperator = "LessThan"
	Contains    ConditionOperator = "Contains"
	ContainsAny ConditionOperator = "ContainsAny"
)

// Condition is one field/operator/value test evaluated against a
// Context. All of a rule's conditions must hold for the rule to match.
type Condition struct {
	Field    string            `yaml:"field" json:"field"`
	Operator ConditionOperator `yaml:"operator" json:"operator"`
	Value    interface{}       `yaml:"value" json:"value"`
}

// Rule is one named, prioritized policy rule.
type Rule struct {
	ID          string      `yaml:"id" json:"id"`
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description" json:"description"`
	Effect      Effect      `yaml:"effect" json:"effect"`
	Priority    uint32      `yaml:"priority" json:"priority"`
	Actions     []string    `yaml:"actions" json:"actions"`
	Conditions  []Condition `yaml:"conditions,omitempty" json:"conditions,omitempty"`
}

// NewRule builds a rule with priority 100 and no actions/conditions,
// mirroring rustchain's PolicyRule::new + with_* builder chain.
func NewRule(id, name string, effect Effect) Rule {
	return Rule{ID: id, Name: name, Effect: effect, Priority: 100}
}

func (r Rule) WithDescription(d string) Rule { r.Description = d; return r }
func (r Rule) WithPriority(p uint32) Rule    { r.Priority = p; return r }
func (r Rule) WithActions(actions ...string) Rule {
	r.Actions = append([]string(nil), actions...)
	return r
}
func (r Rule) WithCondition(c Condition) Rule {
	r.Conditions = append(append([]Condition(nil), r.Conditions...), c)
	return r
}

// Context carries everything a Condition might read: the agent
// identity plus an open metadata bag the scheduler populates with step
// parameters and synthetic fields (time_of_day, resource_type, ...).
type Context struct {
	AgentID   string
	Timestamp time.Time
	Metadata  map[string]interface{}
}

// NewContext starts a Context for agentID, timestamped now.
func NewContext(agentID string) Context {
	return Context{AgentID: agentID, Timestamp: time.Now(), Metadata: map[string]interface{}{}}
}

func (c Context) WithMetadata(key string, value interface{}) Context {
	merged := make(map[string]interface{}, len(c.Metadata)+1)
	for k, v := range c.Metadata {
		merged[k] = v
	}
	merged[key] = value
	c.Metadata = merged
	return c
}

// Decision is the result of evaluating an action against a Context.
type Decision struct {
	Allowed   bool
	RuleID    string // empty when no rule matched
	Reason    string
}
