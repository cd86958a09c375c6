// SPDX-License-Identifier: Apache-2.0

// Package flags exposes typed accessors over viper-bound global flags.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func DB() string        { return viper.GetString("DB") }
func Dir() string       { return viper.GetString("DIR") }
func Engine() string    { return viper.GetString("ENGINE") }
func Verbosity() int    { return viper.GetInt("VERBOSITY") }
func Quiet() bool       { return viper.GetBool("QUIET") }
func JSON() bool        { return viper.GetBool("JSON") }
func IgnoreLocks() bool { return viper.GetBool("IGNORE_LOCKS") }

// RegisterGlobal attaches the global connection/output flags to cmd and
// binds them into viper under the keys the accessors above read.
func RegisterGlobal(cmd *cobra.Command) {
	cmd.PersistentFlags().String("db", "", "Connection string for the target engine")
	cmd.PersistentFlags().String("dir", "migrations", "Migrations directory")
	cmd.PersistentFlags().String("engine", "postgres", "One of postgres, spark-delta, spark-iceberg")
	cmd.PersistentFlags().CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Silence all but ERROR output; overrides -v")
	cmd.PersistentFlags().Bool("json", false, "Emit machine-readable JSON instead of human logs")
	cmd.PersistentFlags().Bool("ignore-locks", false, "Bypass advisory lock acquisition")

	viper.BindPFlag("DB", cmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("DIR", cmd.PersistentFlags().Lookup("dir"))
	viper.BindPFlag("ENGINE", cmd.PersistentFlags().Lookup("engine"))
	viper.BindPFlag("VERBOSITY", cmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("QUIET", cmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("JSON", cmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("IGNORE_LOCKS", cmd.PersistentFlags().Lookup("ignore-locks"))

	// These three are part of the CLI's documented contract under their
	// own names, rather than the SWELLOW_-prefixed names AutomaticEnv
	// would otherwise derive.
	viper.BindEnv("DB", "DB_CONNECTION_STRING")
	viper.BindEnv("DIR", "MIGRATION_DIRECTORY")
	viper.BindEnv("ENGINE", "ENGINE")
}
