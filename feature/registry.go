// Package feature implements the feature-availability registry: a
// fixed category -> feature-name map (core always-on, the rest gated
// by plugin registration) used to answer "is X available" and "require
// X or fail" queries. Grounded verbatim on rustchain's
// core/features.rs::FeatureRegistry/FeatureDetector.
package feature

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fenwick-systems/missioncore/runtime"
)

// Category names mirror rustchain's FeatureRegistry categories.
const (
	CategoryCore         = "core"
	CategoryAuth         = "auth"
	CategoryCompliance   = "compliance"
	CategoryMonitoring   = "monitoring"
	CategoryMultiTenant  = "multi_tenant"
	CategoryAIAdvanced   = "ai_advanced"
)

// categoryFeatures is the static feature/category map. core is always
// available; every other category's features must be registered as a
// plugin via Registry.Enable before is_available reports true.
var categoryFeatures = map[string][]string{
	CategoryCore: {
		"mission_execution", "dag_orchestration", "hash_chained_audit",
		"agent_reasoning", "tool_framework", "llm_integration",
		"safety_validation", "policy_engine", "audit_system",
		"variable_scoping", "async_recursion",
	},
	CategoryAuth: {
		"jwt_auth", "oauth2", "rbac", "multi_factor_auth",
		"ldap_integration", "saml_sso",
	},
	CategoryCompliance: {
		"gdpr_compliance", "hipaa_compliance", "sox_compliance",
		"pci_dss_compliance", "enhanced_auditing", "data_retention_policies",
		"audit_trail_encryption",
	},
	CategoryMonitoring: {
		"prometheus_metrics", "performance_dashboard", "alerting_system",
		"resource_tracking", "anomaly_detection", "distributed_tracing",
		"custom_dashboards",
	},
	CategoryMultiTenant: {
		"tenant_isolation", "resource_quotas", "tenant_specific_configs",
		"cross_tenant_analytics",
	},
	CategoryAIAdvanced: {
		"custom_model_training", "model_fine_tuning",
		"enterprise_model_catalog", "model_performance_analytics",
	},
}

// Status is the detailed result of a single feature query.
type Status struct {
	Feature   string
	Available bool
	Category  string
	Reason    string
}

// CategorySummary rolls up Status entries for one category.
type CategorySummary struct {
	Name      string
	Available int
	Total     int
	Features  []Status
}

// Summary is the full availability report across every category.
type Summary struct {
	Categories     map[string]CategorySummary
	TotalAvailable int
	TotalFeatures  int
}

// Registry answers feature-availability queries. core features are
// always on; any other category's features become available only once
// a plugin registers them via Enable, modeling this repo's
// community/plugin split in place of rustchain's compile-time
// community/enterprise edition split.
type Registry struct {
	mu      sync.RWMutex
	enabled map[string]bool
}

// New creates a Registry with only the core category enabled.
func New() *Registry {
	return &Registry{enabled: map[string]bool{}}
}

// Enable activates every feature in category (a plugin's registration
// call). category must be a known category name.
func (r *Registry) Enable(category string) error {
	if _, ok := categoryFeatures[category]; !ok {
		return runtime.NewMissionError("feature.Enable", runtime.KindConfig, "",
			fmt.Errorf("unknown feature category %q", category))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled[category] = true
	return nil
}

// Disable deactivates a previously-enabled category. core cannot be
// disabled.
func (r *Registry) Disable(category string) {
	if category == CategoryCore {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.enabled, category)
}

func (r *Registry) categoryOf(feature string) string {
	for cat, features := range categoryFeatures {
		for _, f := range features {
			if f == feature {
				return cat
			}
		}
	}
	return ""
}

// IsAvailable reports whether feature is usable right now, along with
// its category and, when unavailable, why.
func (r *Registry) IsAvailable(feature string) Status {
	cat := r.categoryOf(feature)
	if cat == "" {
		return Status{Feature: feature, Available: false, Reason: "unknown feature"}
	}

	r.mu.RLock()
	available := cat == CategoryCore || r.enabled[cat]
	r.mu.RUnlock()

	reason := ""
	if !available {
		reason = fmt.Sprintf("feature plugin for category %q not registered", cat)
	}
	return Status{Feature: feature, Available: available, Category: cat, Reason: reason}
}

// RequireFeature returns an error unless feature is available.
func (r *Registry) RequireFeature(feature string) error {
	status := r.IsAvailable(feature)
	if status.Available {
		return nil
	}
	return runtime.NewMissionError("feature.RequireFeature", runtime.KindConfig, "",
		fmt.Errorf("feature %q not available: %s", feature, status.Reason))
}

// CategoryStatus returns Status for every feature in category.
func (r *Registry) CategoryStatus(category string) []Status {
	features := categoryFeatures[category]
	out := make([]Status, 0, len(features))
	for _, f := range features {
		out = append(out, r.IsAvailable(f))
	}
	return out
}

// Categories returns every known category name, sorted.
func (r *Registry) Categories() []string {
	out := make([]string, 0, len(categoryFeatures))
	for cat := range categoryFeatures {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// FeatureSummary builds the full availability report.
func (r *Registry) FeatureSummary() Summary {
	summary := Summary{Categories: map[string]CategorySummary{}}
	for _, cat := range r.Categories() {
		statuses := r.CategoryStatus(cat)
		available := 0
		for _, s := range statuses {
			if s.Available {
				available++
			}
		}
		summary.Categories[cat] = CategorySummary{Name: cat, Available: available, Total: len(statuses), Features: statuses}
		summary.TotalAvailable += available
		summary.TotalFeatures += len(statuses)
	}
	return summary
}
