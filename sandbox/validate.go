// Package sandbox constrains filesystem and command steps, grounded on
// rustchain's EnhancedSandbox (sandbox/mod.rs): an inline admissibility
// check used ahead of simple tool dispatch, and a session-scoped
// isolated filesystem for missions that opt into full isolation.
package sandbox

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fenwick-systems/missioncore/runtime"
)

// dangerousPatterns mirrors rustchain's dangerous-command checks:
// destructive commands and shell metacharacters that would let a
// declared "command" parameter break out of its own invocation.
var dangerousPatterns = []string{"rm -rf", "sudo", "format", "mkfs", ":(){ :|:& };:"}

var shellMetacharacters = regexp.MustCompile(`[&|;` + "`" + `$]`)

// reservedNames blocks filenames that collide with well-known system
// paths or device files regardless of the path they're nested under.
var reservedNames = map[string]bool{
	"passwd": true, "shadow": true, "sudoers": true,
	"/dev/null": true, "/dev/zero": true, "/dev/random": true,
}

// ActionDescriptor is what the scheduler asks the Sandbox to admit
// before invoking a filesystem- or process-touching tool.
type ActionDescriptor struct {
	Path    string // declared file path, if any
	Command string // declared shell command, if any
}

// Validate performs the inline admissibility check: path escape,
// disallowed `..` components, reserved filenames, and dangerous
// command patterns. A nil return means the action is admitted.
func Validate(desc ActionDescriptor) error {
	if desc.Path != "" {
		if err := validatePath(desc.Path); err != nil {
			return err
		}
	}
	if desc.Command != "" {
		if err := validateCommand(desc.Command); err != nil {
			return err
		}
	}
	return nil
}

func validatePath(path string) error {
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) {
		return runtime.NewMissionError("sandbox.Validate", runtime.KindSandbox, "",
			fmt.Errorf("%w: absolute path %q not permitted", runtime.ErrPathEscape, path))
	}
	for _, part := range strings.Split(clean, string(filepath.Separator)) {
		if part == ".." {
			return runtime.NewMissionError("sandbox.Validate", runtime.KindSandbox, "",
				fmt.Errorf("%w: %q escapes via '..'", runtime.ErrPathEscape, path))
		}
	}
	base := filepath.Base(clean)
	if reservedNames[strings.ToLower(base)] || reservedNames[strings.ToLower(path)] {
		return runtime.NewMissionError("sandbox.Validate", runtime.KindSandbox, "",
			fmt.Errorf("%w: reserved filename %q", runtime.ErrSandboxViolation, base))
	}
	return nil
}

func validateCommand(command string) error {
	lower := strings.ToLower(command)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return runtime.NewMissionError("sandbox.Validate", runtime.KindSandbox, "",
				fmt.Errorf("%w: command matches dangerous pattern %q", runtime.ErrSandboxViolation, pattern))
		}
	}
	if shellMetacharacters.MatchString(command) {
		return runtime.NewMissionError("sandbox.Validate", runtime.KindSandbox, "",
			fmt.Errorf("%w: command contains shell metacharacters", runtime.ErrSandboxViolation))
	}
	return nil
}
