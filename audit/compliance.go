package audit

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// complianceRule evaluates one fixed rule over a window of records,
// appending any violations it finds. The set below is transliterated
// from rustchain's core/audit.rs::check_compliance_violations.
type complianceRule func(records []Record) []Violation

var complianceRules = []complianceRule{
	ruleExcessiveFailedAttempts,
	ruleUnauthorizedPrivilegedOperation,
	ruleOffHoursDataAccess,
	ruleHighRiskWithoutApproval,
	ruleSuspiciousGeographicAccess,
	ruleRapidConsecutiveOperations,
	ruleIncompleteAuditTrail,
	rulePolicyViolation,
	ruleMissingSessionTracking,
	ruleUntrackedToolExecution,
}

const failedAttemptThreshold = 4

// ruleExcessiveFailedAttempts flags an actor with failedAttemptThreshold
// or more failures in the window.
func ruleExcessiveFailedAttempts(records []Record) []Violation {
	byActor := map[string][]Record{}
	for _, r := range records {
		if r.Outcome == OutcomeFailure {
			byActor[r.Actor] = append(byActor[r.Actor], r)
		}
	}
	var out []Violation
	for actor, fails := range byActor {
		if len(fails) >= failedAttemptThreshold {
			out = append(out, Violation{
				Rule: "excessive_failed_attempts", Severity: RiskHigh, RecordID: fails[len(fails)-1].ID,
				Detail: fmt.Sprintf("actor %q had %d failed attempts", actor, len(fails)),
			})
		}
	}
	return out
}

// isPrivilegedAction reports whether action names a privileged
// operation (delete/admin/root), per the Rust original's substring
// match rather than an anchored prefix.
func isPrivilegedAction(action string) bool {
	return strings.Contains(action, "delete") || strings.Contains(action, "admin") || strings.Contains(action, "root")
}

// ruleUnauthorizedPrivilegedOperation flags a privileged action
// (delete/admin/root) whose details carry neither an
// authorization_token nor an admin_approval.
func ruleUnauthorizedPrivilegedOperation(records []Record) []Violation {
	var out []Violation
	for _, r := range records {
		if !isPrivilegedAction(r.Action) {
			continue
		}
		_, hasToken := r.Details["authorization_token"]
		_, hasApproval := r.Details["admin_approval"]
		if hasToken || hasApproval {
			continue
		}
		out = append(out, Violation{
			Rule: "unauthorized_privileged_operation", Severity: RiskCritical, RecordID: r.ID,
			Detail: fmt.Sprintf("actor %q performed privileged action %q on %q without authorization", r.Actor, r.Action, r.Resource),
		})
	}
	return out
}

// ruleOffHoursDataAccess flags DataAccess events whose UTC hour is
// earlier than 06 or later than 22 (22:00-22:59 is not flagged).
func ruleOffHoursDataAccess(records []Record) []Violation {
	var out []Violation
	for _, r := range records {
		if r.Kind != EventDataAccess {
			continue
		}
		hour := r.Timestamp.UTC().Hour()
		if hour < 6 || hour > 22 {
			out = append(out, Violation{
				Rule: "off_hours_data_access", Severity: RiskMedium, RecordID: r.ID,
				Detail: fmt.Sprintf("data access at %02d:00 UTC by %q", hour, r.Actor),
			})
		}
	}
	return out
}

// ruleHighRiskWithoutApproval flags High- or Critical-risk records
// whose details lack a supervisor_approval or emergency_override.
func ruleHighRiskWithoutApproval(records []Record) []Violation {
	var out []Violation
	for _, r := range records {
		if r.Risk != RiskHigh && r.Risk != RiskCritical {
			continue
		}
		_, approved := r.Details["supervisor_approval"]
		_, overridden := r.Details["emergency_override"]
		if approved || overridden {
			continue
		}
		out = append(out, Violation{
			Rule: "high_risk_without_approval", Severity: RiskHigh, RecordID: r.ID,
			Detail: fmt.Sprintf("%s-risk action %q on %q lacks supervisor approval", r.Risk, r.Action, r.Resource),
		})
	}
	return out
}

// ruleSuspiciousGeographicAccess flags any record whose geo_location
// detail names a known anonymization pattern.
func ruleSuspiciousGeographicAccess(records []Record) []Violation {
	var out []Violation
	for _, r := range records {
		loc, ok := r.Details["geo_location"].(string)
		if !ok {
			continue
		}
		if strings.Contains(loc, "tor") || strings.Contains(loc, "proxy") || strings.Contains(loc, "suspicious") {
			out = append(out, Violation{
				Rule: "suspicious_geographic_access", Severity: RiskHigh, RecordID: r.ID,
				Detail: fmt.Sprintf("actor %q accessed from %q", r.Actor, loc),
			})
		}
	}
	return out
}

// ruleRapidConsecutiveOperations flags an actor whose consecutive
// records are less than one second apart.
func ruleRapidConsecutiveOperations(records []Record) []Violation {
	byActor := map[string][]Record{}
	for _, r := range records {
		byActor[r.Actor] = append(byActor[r.Actor], r)
	}
	var out []Violation
	for actor, rs := range byActor {
		sort.Slice(rs, func(i, j int) bool { return rs[i].Timestamp.Before(rs[j].Timestamp) })
		for i := 1; i < len(rs); i++ {
			gap := rs[i].Timestamp.Sub(rs[i-1].Timestamp)
			if gap < time.Second {
				out = append(out, Violation{
					Rule: "rapid_consecutive_operations", Severity: RiskMedium, RecordID: rs[i].ID,
					Detail: fmt.Sprintf("actor %q issued consecutive operations %s apart", actor, gap),
				})
			}
		}
	}
	return out
}

// ruleIncompleteAuditTrail flags any record missing its chain hash or
// previous hash (the genesis sentinel counts as present).
func ruleIncompleteAuditTrail(records []Record) []Violation {
	var out []Violation
	for _, r := range records {
		if r.ChainHash == "" || r.PreviousHash == "" {
			out = append(out, Violation{
				Rule: "incomplete_audit_trail", Severity: RiskCritical, RecordID: r.ID,
				Detail: "record is missing its chain hash or previous hash",
			})
		}
	}
	return out
}

// rulePolicyViolation flags a Blocked outcome whose details carry a
// policy_violation key.
func rulePolicyViolation(records []Record) []Violation {
	var out []Violation
	for _, r := range records {
		if r.Outcome != OutcomeBlocked {
			continue
		}
		if _, ok := r.Details["policy_violation"]; !ok {
			continue
		}
		out = append(out, Violation{
			Rule: "policy_violation", Severity: RiskHigh, RecordID: r.ID,
			Detail: fmt.Sprintf("policy violation by %q: %q on %q", r.Actor, r.Action, r.Resource),
		})
	}
	return out
}

// ruleMissingSessionTracking flags Authentication/Authorization
// records whose metadata lacks a session_id.
func ruleMissingSessionTracking(records []Record) []Violation {
	var out []Violation
	for _, r := range records {
		if r.Kind != EventAuthentication && r.Kind != EventAuthorization {
			continue
		}
		if _, ok := r.Metadata["session_id"]; ok {
			continue
		}
		out = append(out, Violation{
			Rule: "missing_session_tracking", Severity: RiskMedium, RecordID: r.ID,
			Detail: "security-sensitive operation performed without session tracking",
		})
	}
	return out
}

// ruleUntrackedToolExecution flags ToolExecution records whose
// metadata lacks a tool_name.
func ruleUntrackedToolExecution(records []Record) []Violation {
	var out []Violation
	for _, r := range records {
		if r.Kind != EventToolExecution {
			continue
		}
		if _, ok := r.Metadata["tool_name"]; ok {
			continue
		}
		out = append(out, Violation{
			Rule: "untracked_tool_execution", Severity: RiskLow, RecordID: r.ID,
			Detail: fmt.Sprintf("tool execution %q on %q has no recorded tool name", r.Action, r.Resource),
		})
	}
	return out
}

// evaluateCompliance runs every rule over records and derives an
// aggregate 0-100 score: 100*passed/total (passed records being those
// that didn't fail outright), minus a weighted penalty per violation
// severity, floored at 0.
func evaluateCompliance(records []Record) ComplianceStatus {
	var violations []Violation
	for _, rule := range complianceRules {
		violations = append(violations, rule(records)...)
	}
	sort.SliceStable(violations, func(i, j int) bool {
		return riskOrder[violations[i].Severity] > riskOrder[violations[j].Severity]
	})

	penalty := 0.0
	for _, v := range violations {
		switch v.Severity {
		case RiskCritical:
			penalty += 10
		case RiskHigh:
			penalty += 5
		case RiskMedium:
			penalty += 2
		case RiskLow:
			penalty += 1
		}
	}

	base := 100.0
	if len(records) > 0 {
		failed := 0
		for _, r := range records {
			if r.Outcome == OutcomeFailure {
				failed++
			}
		}
		base = float64(len(records)-failed) / float64(len(records)) * 100
	}

	score := base - penalty
	if score < 0 {
		score = 0
	}
	return ComplianceStatus{Violations: violations, Score: score}
}

