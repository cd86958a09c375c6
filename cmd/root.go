// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franciscoabsampaio/swellow/cmd/flags"
	"github.com/franciscoabsampaio/swellow/internal/connstr"
	"github.com/franciscoabsampaio/swellow/internal/logging"
	"github.com/franciscoabsampaio/swellow/pkg/config"
	"github.com/franciscoabsampaio/swellow/pkg/engine"
	"github.com/franciscoabsampaio/swellow/pkg/engine/postgres"
	"github.com/franciscoabsampaio/swellow/pkg/engine/sparkcommon"
	"github.com/franciscoabsampaio/swellow/pkg/engine/sparkdelta"
	"github.com/franciscoabsampaio/swellow/pkg/engine/sparkiceberg"
	"github.com/franciscoabsampaio/swellow/pkg/jsonenvelope"
	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
)

// Version is the swellow binary version, stamped at release time.
var Version = "development"

func init() {
	viper.SetEnvPrefix("SWELLOW")
	viper.AutomaticEnv()

	flags.RegisterGlobal(rootCmd)
}

var rootCmd = &cobra.Command{
	Use:          "swellow",
	Short:        "SQL-first schema migrations for PostgreSQL and Spark Connect",
	SilenceUsage: true,
	Version:      Version,
}

// loadConfig assembles and validates a config.Config from the bound
// flags/env, the command boundary every subcommand calls first.
func loadConfig() (config.Config, error) {
	c := config.Config{
		DB:          flags.DB(),
		Dir:         flags.Dir(),
		Engine:      config.Engine(flags.Engine()),
		Verbosity:   flags.Verbosity(),
		Quiet:       flags.Quiet(),
		JSON:        flags.JSON(),
		IgnoreLocks: flags.IgnoreLocks(),
	}
	if err := c.Validate(); err != nil {
		return config.Config{}, err
	}
	return c, nil
}

// newLogger builds the leveled logger for a resolved Config.
func newLogger(c config.Config) *logging.Logger {
	return logging.New(logging.LevelFromFlags(c.Verbosity, c.Quiet), c.JSON)
}

// newAdapter builds the engine.Adapter named by c.Engine. Spark engines are
// wired with sparkDialer, which production builds must replace with a real
// Spark Connect gRPC client — none ships in this module, so it reports
// ConnectivityError if ever invoked outside tests.
func newAdapter(c config.Config) (engine.Adapter, error) {
	switch c.Engine {
	case config.EnginePostgres:
		return postgres.Adapter{}, nil
	case config.EngineSparkDelta:
		return sparkdelta.New(sparkDialer), nil
	case config.EngineSparkIceberg:
		return sparkiceberg.New(sparkDialer), nil
	default:
		return nil, swerrs.ArgumentError{Reason: fmt.Sprintf("unknown engine %q", c.Engine)}
	}
}

// sparkDialer is the production Dialer for both Spark engines. No real
// Spark Connect Go client is available to wire in here; adapters are
// exercised against a fake SparkSession in pkg/engine/sparkcommon's tests
// instead. A real deployment replaces this function with one backed by an
// actual Spark Connect client.
func sparkDialer(ctx context.Context, sc connstr.SparkConnect) (sparkcommon.SparkSession, error) {
	return nil, swerrs.ConnectivityError{
		Engine: "spark-connect",
		Cause:  fmt.Errorf("no Spark Connect client is wired into this build for %s", sc.HostPort),
	}
}

// resolveConnString scopes c.DB to the swellow schema via search_path for
// PostgreSQL; other engines address the schema in every statement instead,
// so their connection string passes through unchanged.
func resolveConnString(c config.Config) (string, error) {
	if c.Engine == config.EnginePostgres {
		return postgres.WithSearchPath(c.DB)
	}
	return c.DB, nil
}

// fail writes the §6.5 JSON error envelope to stdout when json is set,
// then returns err unchanged so cobra's own human-readable error path
// (stderr) still fires for non-JSON callers.
func fail(json bool, command string, err error) error {
	if json {
		_ = jsonenvelope.WriteError(os.Stdout, command, err)
	}
	return err
}

// Execute registers every subcommand and runs the root command.
func Execute() error {
	rootCmd.AddCommand(peckCmd())
	rootCmd.AddCommand(upCmd())
	rootCmd.AddCommand(downCmd())
	rootCmd.AddCommand(snapshotCmd())
	rootCmd.AddCommand(validateCmd())

	return rootCmd.Execute()
}
