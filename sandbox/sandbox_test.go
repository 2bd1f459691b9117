package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_RejectsAbsolutePath(t *testing.T) {
	err := Validate(ActionDescriptor{Path: "/etc/passwd"})
	require.Error(t, err)
}

func TestValidate_RejectsParentEscape(t *testing.T) {
	err := Validate(ActionDescriptor{Path: "../../etc/passwd"})
	require.Error(t, err)
}

func TestValidate_AllowsPlainRelativePath(t *testing.T) {
	assert.NoError(t, Validate(ActionDescriptor{Path: "data/out.txt"}))
}

func TestValidate_RejectsDangerousCommand(t *testing.T) {
	err := Validate(ActionDescriptor{Command: "rm -rf /"})
	require.Error(t, err)
}

func TestValidate_RejectsShellMetacharacters(t *testing.T) {
	err := Validate(ActionDescriptor{Command: "echo hi; rm file"})
	require.Error(t, err)
}

func TestValidate_AllowsSafeCommand(t *testing.T) {
	assert.NoError(t, Validate(ActionDescriptor{Command: "echo hi"}))
}

func TestSession_WriteReadRoundTrip(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)
	s, err := mgr.CreateSession(DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, s.WriteFile("a/b.txt", []byte("hello")))
	data, err := s.ReadFile("a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestSession_RejectsEscapingPath(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)
	s, err := mgr.CreateSession(DefaultConfig())
	require.NoError(t, err)

	err = s.WriteFile("../escape.txt", []byte("x"))
	require.Error(t, err)

	err = s.WriteFile("/absolute.txt", []byte("x"))
	require.Error(t, err)
}

func TestSession_DestroyRejectsFurtherOps(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)
	s, err := mgr.CreateSession(DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, s.Destroy())
	err = s.WriteFile("x.txt", []byte("x"))
	require.Error(t, err)
}

func TestSession_ExecuteCommandAllowList(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.AllowedCommands = []string{"echo"}
	cfg.TimeoutSeconds = 5
	s, err := mgr.CreateSession(cfg)
	require.NoError(t, err)

	_, err = s.ExecuteCommand(context.Background(), "whoami", nil)
	require.Error(t, err)

	res, err := s.ExecuteCommand(context.Background(), "echo", []string{"hi"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
}

func TestManager_DestroySessionRemovesIt(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)
	s, err := mgr.CreateSession(DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, mgr.DestroySession(s.ID()))
	_, err = mgr.Session(s.ID())
	require.Error(t, err)
}
