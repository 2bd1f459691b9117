// Package audit implements the append-only, hash-chained audit log:
// tamper-evident event storage, structured query, reporting, and
// integrity verification. Chain mechanics are grounded on
// karin478-Apex's internal/audit/logger.go (JSONL + SHA-256 chaining);
// the compliance rule set is transliterated from rustchain's
// core/audit.rs::check_compliance_violations.
package audit

import "time"

// EventKind tags what sort of event a record describes.
type EventKind string

const (
	EventAuthentication EventKind = "Authentication"
	EventAuthorization  EventKind = "Authorization"
	EventDataAccess     EventKind = "DataAccess"
	EventPolicyViolation EventKind = "PolicyViolation"
	EventStepExecution  EventKind = "StepExecution"
	EventToolExecution  EventKind = "ToolExecution"
	EventSecurityEvent  EventKind = "SecurityEvent"
)

// Outcome is the result of the audited action.
type Outcome string

const (
	OutcomeSuccess Outcome = "Success"
	OutcomeFailure Outcome = "Failure"
	OutcomeWarning Outcome = "Warning"
	OutcomeBlocked Outcome = "Blocked"
	OutcomePartial Outcome = "Partial"
)

// RiskLevel is the severity the event is tagged with.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

var riskOrder = map[RiskLevel]int{RiskLow: 0, RiskMedium: 1, RiskHigh: 2, RiskCritical: 3}

// Record is one append-only audit entry. PreviousHash/ChainHash form
// the tamper-evident chain: PreviousHash is the prior record's
// ChainHash (or "genesis" for the first record), and ChainHash hashes
// this record's content plus PreviousHash.
type Record struct {
	ID           string                 `json:"id" yaml:"id"`
	Timestamp    time.Time              `json:"timestamp" yaml:"timestamp"`
	Kind         EventKind              `json:"event_kind" yaml:"event_kind"`
	Actor        string                 `json:"actor" yaml:"actor"`
	Resource     string                 `json:"resource" yaml:"resource"`
	Action       string                 `json:"action" yaml:"action"`
	Outcome      Outcome                `json:"outcome" yaml:"outcome"`
	Risk         RiskLevel              `json:"risk_level" yaml:"risk_level"`
	Details      map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	PreviousHash string                 `json:"previous_hash" yaml:"previous_hash"`
	ChainHash    string                 `json:"chain_hash" yaml:"chain_hash"`
}

// genesisSentinel is the previous_hash value recorded for the first
// entry in a chain, per spec.md §4.5.
const genesisSentinel = "genesis"

// NewRecordInput is what a caller supplies to Append; ID, Timestamp,
// PreviousHash and ChainHash are computed by the log.
type NewRecordInput struct {
	Kind     EventKind
	Actor    string
	Resource string
	Action   string
	Outcome  Outcome
	Risk     RiskLevel
	Details  map[string]interface{}
	Metadata map[string]interface{}
}

// Filter selects a subset of records for Query/Report/Export. Every
// populated field is ANDed together.
type Filter struct {
	Start, End    time.Time
	Kinds         []EventKind
	Outcomes      []Outcome
	Risks         []RiskLevel
	Actors        []string
	Resources     []string
	Actions       []string
	Tags          []string
	MissionID     string
	CorrelationID string
	Limit, Offset int
}

func (f Filter) matches(r Record) bool {
	if !f.Start.IsZero() && r.Timestamp.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && r.Timestamp.After(f.End) {
		return false
	}
	if len(f.Kinds) > 0 && !containsKind(f.Kinds, r.Kind) {
		return false
	}
	if len(f.Outcomes) > 0 && !containsOutcome(f.Outcomes, r.Outcome) {
		return false
	}
	if len(f.Risks) > 0 && !containsRisk(f.Risks, r.Risk) {
		return false
	}
	if len(f.Actors) > 0 && !containsString(f.Actors, r.Actor) {
		return false
	}
	if len(f.Resources) > 0 && !containsString(f.Resources, r.Resource) {
		return false
	}
	if len(f.Actions) > 0 && !containsString(f.Actions, r.Action) {
		return false
	}
	if f.MissionID != "" && fmtString(r.Metadata["mission_id"]) != f.MissionID {
		return false
	}
	if f.CorrelationID != "" && fmtString(r.Metadata["correlation_id"]) != f.CorrelationID {
		return false
	}
	if len(f.Tags) > 0 {
		tags, _ := r.Metadata["tags"].([]interface{})
		found := false
		for _, want := range f.Tags {
			for _, got := range tags {
				if fmtString(got) == want {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsKind(set []EventKind, v EventKind) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
func containsOutcome(set []Outcome, v Outcome) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
func containsRisk(set []RiskLevel, v RiskLevel) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
func fmtString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// Violation is one compliance-rule hit found during Report.
type Violation struct {
	Rule      string    `json:"rule"`
	Severity  RiskLevel `json:"severity"`
	RecordID  string    `json:"record_id"`
	Detail    string    `json:"detail"`
}

// SecurityHighlight groups clustered high-risk events for the report.
type SecurityHighlight struct {
	Kind              EventKind `json:"kind"`
	Count             int       `json:"count"`
	First             time.Time `json:"first"`
	Last              time.Time `json:"last"`
	AffectedResources []string  `json:"affected_resources"`
}

// ComplianceStatus is the fixed-rule-set compliance evaluation for a
// report window.
type ComplianceStatus struct {
	Violations []Violation `json:"violations"`
	Score      float64     `json:"score"`
}

// Report is the aggregate view over a time window.
type Report struct {
	Start, End        time.Time
	TotalRecords      int
	CountsByKind      map[EventKind]int
	CountsByOutcome   map[Outcome]int
	CountsByRisk      map[RiskLevel]int
	TopActors         []CountedKey
	TopResources      []CountedKey
	AvgExecutionMs    float64
	MaxExecutionMs    float64
	ErrorRate         float64
	SecurityHighlights []SecurityHighlight
	Compliance        ComplianceStatus
}

// CountedKey is a (name, count) pair used for top-N report sections.
type CountedKey struct {
	Key   string
	Count int
}

// VerifyResult is the outcome of walking the chain.
type VerifyResult struct {
	OK           bool
	CorruptedIDs []string
}
