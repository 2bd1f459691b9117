package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const missionTemplate = `version: "1"
name: %s
description: ""
steps:
  - id: step-one
    step_type: noop
    parameters: {}
`

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Scaffold a new mission document with a single noop step",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	path := name + ".mission.yaml"
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	if err := os.WriteFile(path, []byte(fmt.Sprintf(missionTemplate, name)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", filepath.Clean(path))
	return nil
}
