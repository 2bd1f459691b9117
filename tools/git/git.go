// Package git is the StepGit tool: clone/commit/push against a local
// working tree, backed by go-git rather than shelling out to the git
// binary. The dependency choice is grounded on the other_examples pack
// (alexisbeaulieu97-Streamy, dagu-org-dagu, gridctl-gridctl,
// stacklok-toolhive all vendor github.com/go-git/go-git/v5 for exactly
// this "drive git from Go" role); none of those repos is the chosen
// teacher, so the call shapes below follow go-git's own published API
// rather than a specific pack file.
package git

import (
	"context"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/fenwick-systems/missioncore/registry"
	"github.com/fenwick-systems/missioncore/sandbox"
)

// Tool implements registry.Tool for the "clone", "commit", and "push"
// git operations a mission step can request via the "operation"
// parameter.
type Tool struct {
	rootDir string
}

// New roots all repository working trees at rootDir, the same sandbox
// root every filesystem-touching tool is constrained to.
func New(rootDir string) *Tool { return &Tool{rootDir: rootDir} }

func (t *Tool) Name() string        { return "git" }
func (t *Tool) Description() string { return "Clones, commits, and pushes a git working tree" }

func (t *Tool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"operation": map[string]interface{}{"type": "string", "enum": []string{"clone", "commit", "push"}},
			"path":      map[string]interface{}{"type": "string", "description": "Working tree path, relative to the sandbox root"},
			"url":       map[string]interface{}{"type": "string", "description": "Remote URL (clone only)"},
			"message":   map[string]interface{}{"type": "string", "description": "Commit message (commit only)"},
			"author":    map[string]interface{}{"type": "string", "description": "Commit author name (commit only)"},
			"email":     map[string]interface{}{"type": "string", "description": "Commit author email (commit only)"},
			"remote":    map[string]interface{}{"type": "string", "description": "Remote name to push (push only), default origin"},
			"username":  map[string]interface{}{"type": "string", "description": "Basic-auth username (push only)"},
			"password":  map[string]interface{}{"type": "string", "description": "Basic-auth password or token (push only)"},
		},
		"required": []string{"operation", "path"},
	}
}

func (t *Tool) Execute(ctx context.Context, call registry.Call) (registry.Result, error) {
	start := time.Now()
	op, _ := call.Parameters["operation"].(string)
	path, _ := call.Parameters["path"].(string)
	if op == "" || path == "" {
		return failResult(start, fmt.Errorf("missing 'operation' or 'path' parameter")), nil
	}
	if err := sandbox.Validate(sandbox.ActionDescriptor{Path: path}); err != nil {
		return failResult(start, fmt.Errorf("git blocked by sandbox: %w", err)), nil
	}
	full := t.rootDir + "/" + path

	switch op {
	case "clone":
		url, _ := call.Parameters["url"].(string)
		if url == "" {
			return failResult(start, fmt.Errorf("missing 'url' parameter for clone")), nil
		}
		_, err := git.PlainCloneContext(ctx, full, false, &git.CloneOptions{URL: url})
		if err != nil {
			return failResult(start, err), nil
		}
		return okResult(start, map[string]interface{}{"path": path, "url": url}), nil

	case "commit":
		repo, err := git.PlainOpen(full)
		if err != nil {
			return failResult(start, err), nil
		}
		wt, err := repo.Worktree()
		if err != nil {
			return failResult(start, err), nil
		}
		if _, err := wt.Add("."); err != nil {
			return failResult(start, err), nil
		}
		message, _ := call.Parameters["message"].(string)
		if message == "" {
			message = "mission commit"
		}
		author, _ := call.Parameters["author"].(string)
		if author == "" {
			author = "missioncore"
		}
		email, _ := call.Parameters["email"].(string)
		if email == "" {
			email = "missioncore@localhost"
		}
		hash, err := wt.Commit(message, &git.CommitOptions{
			Author: &object.Signature{Name: author, Email: email, When: time.Now()},
		})
		if err != nil {
			return failResult(start, err), nil
		}
		return okResult(start, map[string]interface{}{"path": path, "commit": hash.String()}), nil

	case "push":
		repo, err := git.PlainOpen(full)
		if err != nil {
			return failResult(start, err), nil
		}
		remote, _ := call.Parameters["remote"].(string)
		if remote == "" {
			remote = "origin"
		}
		opts := &git.PushOptions{RemoteName: remote}
		if user, ok := call.Parameters["username"].(string); ok && user != "" {
			pass, _ := call.Parameters["password"].(string)
			opts.Auth = &http.BasicAuth{Username: user, Password: pass}
		}
		if err := repo.PushContext(ctx, opts); err != nil {
			return failResult(start, err), nil
		}
		return okResult(start, map[string]interface{}{"path": path, "remote": remote}), nil

	default:
		return failResult(start, fmt.Errorf("unsupported git operation: %s", op)), nil
	}
}

func failResult(start time.Time, err error) registry.Result {
	return registry.Result{Success: false, Output: map[string]interface{}{"error": err.Error()}, Error: err.Error(), ExecutionTimeMs: time.Since(start).Milliseconds()}
}

func okResult(start time.Time, output map[string]interface{}) registry.Result {
	return registry.Result{Success: true, Output: output, ExecutionTimeMs: time.Since(start).Milliseconds()}
}
