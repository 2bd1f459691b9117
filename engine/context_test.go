package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwick-systems/missioncore/policy"
	"github.com/fenwick-systems/missioncore/runtime"
)

func TestNew_WiresEveryCollaborator(t *testing.T) {
	dir := t.TempDir()
	cfg, err := runtime.NewConfig(
		runtime.WithAuditDir(dir+"/audit"),
		runtime.WithSandboxRoot(dir+"/sandbox"),
		runtime.WithDatabaseDSN(":memory:"),
	)
	require.NoError(t, err)

	ctx, err := New(cfg, nil, nil)
	require.NoError(t, err)
	defer ctx.Close()

	assert.NotNil(t, ctx.Audit)
	assert.NotNil(t, ctx.Policy)
	assert.NotNil(t, ctx.Sandbox)
	assert.NotNil(t, ctx.Tools)
	assert.NotNil(t, ctx.Features)
	assert.NotNil(t, ctx.Perf)

	_, ok := ctx.Tools.Lookup("create_file")
	assert.True(t, ok)
	_, ok = ctx.Tools.Lookup("database")
	assert.True(t, ok)

	decision := ctx.Policy.Evaluate("tool:command",policy.NewContext("agent-1").WithMetadata("command", "rm -rf /"))
	assert.False(t, decision.Allowed)
}
