package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAvailable_CoreAlwaysOn(t *testing.T) {
	r := New()
	status := r.IsAvailable("policy_engine")
	assert.True(t, status.Available)
	assert.Equal(t, CategoryCore, status.Category)
}

func TestIsAvailable_GatedUntilEnabled(t *testing.T) {
	r := New()
	status := r.IsAvailable("jwt_auth")
	assert.False(t, status.Available)
	assert.NotEmpty(t, status.Reason)

	require.NoError(t, r.Enable(CategoryAuth))
	status = r.IsAvailable("jwt_auth")
	assert.True(t, status.Available)
}

func TestIsAvailable_UnknownFeature(t *testing.T) {
	r := New()
	status := r.IsAvailable("not_a_real_feature")
	assert.False(t, status.Available)
	assert.Empty(t, status.Category)
}

func TestRequireFeature_ErrorsWhenUnavailable(t *testing.T) {
	r := New()
	err := r.RequireFeature("sox_compliance")
	require.Error(t, err)

	require.NoError(t, r.Enable(CategoryCompliance))
	assert.NoError(t, r.RequireFeature("sox_compliance"))
}

func TestEnable_RejectsUnknownCategory(t *testing.T) {
	r := New()
	err := r.Enable("not_a_category")
	require.Error(t, err)
}

func TestDisable_CoreCannotBeDisabled(t *testing.T) {
	r := New()
	r.Disable(CategoryCore)
	assert.True(t, r.IsAvailable("policy_engine").Available)
}

func TestFeatureSummary_CountsAcrossCategories(t *testing.T) {
	r := New()
	require.NoError(t, r.Enable(CategoryMonitoring))

	summary := r.FeatureSummary()
	assert.Greater(t, summary.TotalFeatures, summary.TotalAvailable)
	coreSummary := summary.Categories[CategoryCore]
	assert.Equal(t, coreSummary.Total, coreSummary.Available)
	monSummary := summary.Categories[CategoryMonitoring]
	assert.Equal(t, monSummary.Total, monSummary.Available)
}
