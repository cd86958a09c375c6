// SPDX-License-Identifier: Apache-2.0

// Package engine defines the narrow contract every backend (PostgreSQL,
// Spark Connect with Delta, Spark Connect with Iceberg) must satisfy. It is
// the only surface the records store, planner and executor depend on; no
// other package imports database/sql or a driver directly.
package engine

import "context"

// Session is a live connection to the target engine. Its concrete type is
// opaque to callers outside the adapter package that created it.
type Session interface {
	Close() error
}

// Tx is a unit of work opened by Begin. Engines without transactional DDL
// (the Spark engines) return a NoOpTx; Rollback on a NoOpTx always fails
// with swerrs.DryRunUnsupportedError.
type Tx interface {
	isTx()
}

// LockGuard represents a held advisory lock. Release must be safe to call
// exactly once and must run on every exit path, including panics, which is
// why callers acquire it with `defer guard.Release(ctx)` immediately after
// a successful AcquireLock.
type LockGuard interface {
	Release(ctx context.Context) error
}

// RecordedRow is the wire-level shape of one swellow.records row, before
// the records package has validated its Status against the enumeration.
type RecordedRow struct {
	VersionID        int64
	ObjectType       string
	ObjectNameBefore string
	ObjectNameAfter  string
	Status           string
	Checksum         string
	CreatedAtUnix    int64
	UpdatedAtUnix    int64
}

// Adapter is the per-backend implementation of the database contract.
type Adapter interface {
	// Name identifies the engine for diagnostics and error messages, e.g.
	// "postgres", "spark-delta", "spark-iceberg".
	Name() string

	// SupportsDryRun reports whether the engine can roll back DDL inside a
	// transaction, a prerequisite for `up --dry-run`.
	SupportsDryRun() bool

	// SupportsTransactionalDDL reports whether Begin/Commit/Rollback wrap
	// DDL execution in a real transaction.
	SupportsTransactionalDDL() bool

	// Connect establishes authentication and reachability. It must fail
	// fast with swerrs.ConnectivityError if the engine cannot be reached.
	Connect(ctx context.Context, connString string) (Session, error)

	// EnsureRecordsSchema creates the swellow schema and records table if
	// absent. Must be idempotent under concurrent callers.
	EnsureRecordsSchema(ctx context.Context, s Session) error

	// FetchRecords returns every row of swellow.records, in no particular
	// order; callers that need ordering sort themselves.
	FetchRecords(ctx context.Context, s Session) ([]RecordedRow, error)

	// Begin opens a unit of work. Engines without transactional DDL return
	// a NoOpTx.
	Begin(ctx context.Context, s Session) (Tx, error)

	// Commit finalizes a unit of work opened by Begin.
	Commit(ctx context.Context, tx Tx) error

	// Rollback discards a unit of work opened by Begin. Rollback on a
	// NoOpTx always returns swerrs.DryRunUnsupportedError.
	Rollback(ctx context.Context, tx Tx) error

	// Execute submits sql as a single script, using whichever
	// engine-native mechanism is appropriate for multi-statement scripts.
	Execute(ctx context.Context, tx Tx, sql string) error

	// AcquireLock obtains the process-wide advisory lock. When
	// ignoreLocks is true, acquisition is bypassed entirely and a no-op
	// guard is returned (the caller is responsible for logging the
	// override at WARN).
	AcquireLock(ctx context.Context, s Session, ignoreLocks bool) (LockGuard, error)

	// UpsertRecord inserts or updates a row by its composite key.
	UpsertRecord(ctx context.Context, tx Tx, row RecordedRow) error

	// Snapshot produces SQL that recreates the current schema.
	Snapshot(ctx context.Context, s Session) (string, error)
}

// NoOpTx is returned by Begin on engines without transactional DDL.
type NoOpTx struct{}

func (NoOpTx) isTx() {}
