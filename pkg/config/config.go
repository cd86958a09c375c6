// SPDX-License-Identifier: Apache-2.0

// Package config builds and validates the Config every command boundary
// needs, constructed from viper-bound flags/env.
package config

import (
	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
)

// Engine is one of the three supported backend tags.
type Engine string

const (
	EnginePostgres     Engine = "postgres"
	EngineSparkDelta   Engine = "spark-delta"
	EngineSparkIceberg Engine = "spark-iceberg"
)

func (e Engine) valid() bool {
	switch e {
	case EnginePostgres, EngineSparkDelta, EngineSparkIceberg:
		return true
	default:
		return false
	}
}

// Config is the fully-resolved set of options every command acts on.
type Config struct {
	DB          string
	Dir         string
	Engine      Engine
	Verbosity   int
	Quiet       bool
	JSON        bool
	IgnoreLocks bool
}

// Validate checks the invariants the command boundary must enforce before
// dispatching to the core: a non-empty migrations directory, a known engine
// tag and a non-empty DB connection string. It does not check DB
// reachability; that is Connect's job.
func (c Config) Validate() error {
	if c.Dir == "" {
		return swerrs.ArgumentError{Reason: "--dir (or MIGRATION_DIRECTORY) must be set"}
	}
	if !c.Engine.valid() {
		return swerrs.ArgumentError{Reason: "--engine must be one of postgres, spark-delta, spark-iceberg"}
	}
	if c.DB == "" {
		return swerrs.ArgumentError{Reason: "--db (or DB_CONNECTION_STRING) must be set"}
	}
	return nil
}
