package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fenwick-systems/missioncore/engine"
	"github.com/fenwick-systems/missioncore/runtime"
)

// Persistent flags every subcommand that touches a RuntimeContext
// shares, bound into viper the way the teacher's rootCmd binds its
// profile flags in cmd/divinesense/main.go.
func init() {
	rootCmd.PersistentFlags().String("sandbox-root", "", "override MISSIONCORE_SANDBOX_ROOT")
	rootCmd.PersistentFlags().String("audit-dir", "", "override MISSIONCORE_AUDIT_DIR")
	rootCmd.PersistentFlags().String("database-dsn", "", "override MISSIONCORE_DATABASE_DSN")
	rootCmd.PersistentFlags().Int("max-parallel-steps", 0, "override MISSIONCORE_MAX_PARALLEL_STEPS")

	_ = viper.BindPFlag("sandbox-root", rootCmd.PersistentFlags().Lookup("sandbox-root"))
	_ = viper.BindPFlag("audit-dir", rootCmd.PersistentFlags().Lookup("audit-dir"))
	_ = viper.BindPFlag("database-dsn", rootCmd.PersistentFlags().Lookup("database-dsn"))
	_ = viper.BindPFlag("max-parallel-steps", rootCmd.PersistentFlags().Lookup("max-parallel-steps"))
}

// newRuntimeContext loads Config from the environment, layers any
// flag overrides bound into viper on top, and wires a RuntimeContext.
// Callers are responsible for calling Close on the result.
func newRuntimeContext(cmd *cobra.Command) (*engine.RuntimeContext, error) {
	var opts []runtime.Option
	if v := viper.GetString("sandbox-root"); v != "" {
		opts = append(opts, runtime.WithSandboxRoot(v))
	}
	if v := viper.GetString("audit-dir"); v != "" {
		opts = append(opts, runtime.WithAuditDir(v))
	}
	if v := viper.GetString("database-dsn"); v != "" {
		opts = append(opts, runtime.WithDatabaseDSN(v))
	}
	if v := viper.GetInt("max-parallel-steps"); v > 0 {
		opts = append(opts, runtime.WithMaxParallelSteps(v))
	}

	cfg, err := runtime.NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	level := runtime.ParseLevel(cfg.LogLevel)
	logger := runtime.NewStdLogger(cmd.ErrOrStderr(), level)

	return engine.New(cfg, logger, nil)
}
