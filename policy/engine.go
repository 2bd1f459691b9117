package policy

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fenwick-systems/missioncore/runtime"
)

// Engine is the rule-based allow/deny decision engine the scheduler
// consults before every step, grounded on rustchain's
// EnhancedPolicyEngine. Rule mutation takes an exclusive lock per
// spec.md §5 ("policy engine rules: read-mostly; admin mutations take
// an exclusive lock"); evaluation only reads.
type Engine struct {
	mu            sync.RWMutex
	rules         map[string]Rule
	defaultEffect Effect
	logger        runtime.Logger
}

// NewEngine builds an empty engine with the given default effect
// (spec.md §4.2 default Deny) and logger for the overlap warning.
func NewEngine(defaultEffect Effect, logger runtime.Logger) *Engine {
	if logger == nil {
		logger = runtime.NoOpLogger{}
	}
	return &Engine{rules: make(map[string]Rule), defaultEffect: defaultEffect, logger: logger}
}

// AddRule inserts or replaces a rule. Adding a rule whose priority and
// action patterns overlap an existing rule logs a warning through the
// engine's logger rather than rejecting it, per spec.md §9 ("Policy
// rule overlap"). The warning goes to the logger only; no audit record
// is written for it.
func (e *Engine) AddRule(rule Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.rules {
		if existing.ID == rule.ID {
			continue
		}
		if existing.Priority == rule.Priority && actionsOverlap(existing.Actions, rule.Actions) {
			e.logger.Warn("policy rule priority/action overlap", map[string]interface{}{
				"rule_id":          rule.ID,
				"conflicts_with":   existing.ID,
				"priority":         rule.Priority,
			})
		}
	}
	e.rules[rule.ID] = rule
}

// RemoveRule deletes a rule by id. Removing an unknown id is a no-op,
// matching the engine's tolerant mutation style elsewhere.
func (e *Engine) RemoveRule(ruleID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.rules, ruleID)
}

// SetDefaultEffect changes the fallback effect applied when no rule
// matches.
func (e *Engine) SetDefaultEffect(effect Effect) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaultEffect = effect
}

// Rule looks up a rule by id.
func (e *Engine) Rule(ruleID string) (Rule, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.rules[ruleID]
	return r, ok
}

// Rules returns every registered rule, in no particular order.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Rule, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, r)
	}
	return out
}

// Evaluate resolves the single decision for action under ctx: collect
// every matching rule, sort by priority descending, and apply the
// first. With no match, the engine's default effect applies and
// RuleID is empty. Evaluate never returns an error — malformed
// conditions simply fail to match, per spec.md §4.2's failure model.
func (e *Engine) Evaluate(action string, ctx Context) Decision {
	e.mu.RLock()
	matching := make([]Rule, 0)
	for _, r := range e.rules {
		if r.Matches(action, ctx) {
			matching = append(matching, r)
		}
	}
	defaultEffect := e.defaultEffect
	e.mu.RUnlock()

	if len(matching) == 0 {
		return Decision{
			Allowed: defaultEffect == Allow,
			Reason:  fmt.Sprintf("no matching rule, default: %s", defaultEffect),
		}
	}

	sort.SliceStable(matching, func(i, j int) bool { return matching[i].Priority > matching[j].Priority })
	top := matching[0]
	return Decision{
		Allowed: top.Effect == Allow,
		RuleID:  top.ID,
		Reason:  fmt.Sprintf("%s (rule: %s)", top.Description, top.ID),
	}
}

// actionsOverlap reports whether any pattern in a1 could match the
// same action as any pattern in a2: identical patterns, either side
// being the universal "*", or a prefix-glob relationship between the
// two — transliterated from rustchain's rules_overlap.
func actionsOverlap(a1, a2 []string) bool {
	for _, x := range a1 {
		for _, y := range a2 {
			if x == y || x == "*" || y == "*" {
				return true
			}
			if strings.HasSuffix(x, "*") && strings.HasPrefix(y, strings.TrimSuffix(x, "*")) {
				return true
			}
			if strings.HasSuffix(y, "*") && strings.HasPrefix(x, strings.TrimSuffix(y, "*")) {
				return true
			}
		}
	}
	return false
}
