package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const envTemplate = `MISSIONCORE_AGENT_ID=%s
MISSIONCORE_SANDBOX_ROOT=./sandbox
MISSIONCORE_AUDIT_DIR=./audit
MISSIONCORE_DATABASE_DSN=./missioncore.db
`

var initCmd = &cobra.Command{
	Use:   "init <project>",
	Short: "Scaffold a new project directory with sandbox, audit, and missions layout",
	Args:  cobra.ExactArgs(1),
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := args[0]
	if _, err := os.Stat(root); err == nil {
		return fmt.Errorf("%s already exists", root)
	}

	for _, dir := range []string{"sandbox", "audit", "missions"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	envPath := filepath.Join(root, ".env")
	if err := os.WriteFile(envPath, []byte(fmt.Sprintf(envTemplate, filepath.Base(root))), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", envPath, err)
	}

	missionPath := filepath.Join(root, "missions", "hello.mission.yaml")
	if err := os.WriteFile(missionPath, []byte(fmt.Sprintf(missionTemplate, "hello")), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", missionPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "initialized project at %s\n", root)
	return nil
}
