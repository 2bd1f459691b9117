// Command missionctl is the operator-facing entry point for the mission
// execution core: run a mission, validate one without executing it,
// scaffold a new mission or project, and report on the audit log.
// Command wiring follows the teacher's cmd/apex layout (one file per
// subcommand, a package-level *cobra.Command, registered from main).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes follow the mission core's external contract: 0 success,
// 1 runtime failure, 2 invalid mission document, 3 policy denial
// discovered before any step ran.
const (
	exitSuccess        = 0
	exitRuntimeError   = 1
	exitInvalidMission = 2
	exitPolicyDenied   = 3
)

var rootCmd = &cobra.Command{
	Use:   "missionctl",
	Short: "Mission execution core control CLI",
	Long:  "missionctl runs and inspects missions against the DAG scheduler, policy engine, sandbox, and tamper-evident audit log.",
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitRuntimeError)
	}
}
