// SPDX-License-Identifier: Apache-2.0

// Package postgres implements engine.Adapter against a real PostgreSQL
// server via database/sql and lib/pq, retrying records-schema bootstrap and
// reads with exponential backoff on lock_not_available (55P03).
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/cloudflare/backoff"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/franciscoabsampaio/swellow/internal/connstr"
	"github.com/franciscoabsampaio/swellow/pkg/engine"
	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
)

const (
	lockNotAvailableCode pq.ErrorCode = "55P03"
	maxBackoffDuration                = 1 * time.Minute
	backoffInterval                   = 1 * time.Second

	schemaName = "swellow"
	tableName  = "records"

	// advisoryLockKey is an arbitrary fixed key all swellow processes
	// contend on; one key is enough since swellow only ever runs one plan
	// at a time against a given database.
	advisoryLockKey = int64(0x73775f6c6f636b) // the bytes of "sw_lock" read as a big-endian integer
)

// Adapter implements engine.Adapter for PostgreSQL.
type Adapter struct {
	DumpBinary string // defaults to "pg_dump" if empty
}

// session wraps the *sql.DB the adapter connected, plus the connection
// string it was opened with so Snapshot can hand pg_dump the same target.
type session struct {
	db         *sql.DB
	connString string
}

func (s *session) Close() error { return s.db.Close() }

// tx wraps a live *sql.Tx. It embeds engine.NoOpTx purely to promote the
// real isTx marker method — unexported interface methods are scoped to
// the package that declares them, so a locally-declared isTx() here would
// not satisfy engine.Tx.
type tx struct {
	engine.NoOpTx
	t *sql.Tx
}

// lockGuard releases a session-level advisory lock on Release.
type lockGuard struct {
	db     *sql.DB
	noOp   bool
	key    int64
	holder bool
}

func (g *lockGuard) Release(ctx context.Context) error {
	if g.noOp || !g.holder {
		return nil
	}
	_, err := g.db.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, g.key)
	return err
}

func (Adapter) Name() string                  { return "postgres" }
func (Adapter) SupportsDryRun() bool           { return true }
func (Adapter) SupportsTransactionalDDL() bool { return true }

// Connect opens the pool and verifies reachability with a Ping.
func (a Adapter) Connect(ctx context.Context, connString string) (engine.Session, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, swerrs.ConnectivityError{Engine: "postgres", Cause: err}
	}
	if err := db.PingContext(ctx); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Class() == "28" {
			return nil, swerrs.AuthFailureError{Cause: err}
		}
		return nil, swerrs.ConnectivityError{Engine: "postgres", Cause: err}
	}
	return &session{db: db, connString: connString}, nil
}

// EnsureRecordsSchema creates swellow.records if absent.
func (a Adapter) EnsureRecordsSchema(ctx context.Context, s engine.Session) error {
	db := s.(*session).db
	_, err := a.execWithRetry(ctx, db, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schemaName))
	if err != nil {
		return err
	}
	_, err = a.execWithRetry(ctx, db, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s.%s (
	version_id         BIGINT NOT NULL,
	object_type        TEXT NOT NULL,
	object_name_before TEXT NOT NULL DEFAULT '',
	object_name_after  TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL,
	checksum           TEXT NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (version_id, object_type, object_name_before, object_name_after)
)`, schemaName, tableName))
	return err
}

// FetchRecords returns every row of swellow.records.
func (a Adapter) FetchRecords(ctx context.Context, s engine.Session) ([]engine.RecordedRow, error) {
	db := s.(*session).db
	rows, err := a.queryWithRetry(ctx, db, fmt.Sprintf(`
SELECT version_id, object_type, object_name_before, object_name_after, status, checksum,
       extract(epoch from created_at)::bigint, extract(epoch from updated_at)::bigint
FROM %s.%s`, schemaName, tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.RecordedRow
	for rows.Next() {
		var r engine.RecordedRow
		if err := rows.Scan(&r.VersionID, &r.ObjectType, &r.ObjectNameBefore, &r.ObjectNameAfter,
			&r.Status, &r.Checksum, &r.CreatedAtUnix, &r.UpdatedAtUnix); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Begin opens a real transaction.
func (a Adapter) Begin(ctx context.Context, s engine.Session) (engine.Tx, error) {
	t, err := s.(*session).db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &tx{t: t}, nil
}

func (a Adapter) Commit(ctx context.Context, t engine.Tx) error {
	return t.(*tx).t.Commit()
}

func (a Adapter) Rollback(ctx context.Context, t engine.Tx) error {
	return t.(*tx).t.Rollback()
}

// Execute submits sql as a single multi-statement simple query. Postgres's
// simple query protocol runs a semicolon-delimited script as an implicit
// transaction block, which is sufficient here since callers already wrap
// Execute in Begin/Commit.
func (a Adapter) Execute(ctx context.Context, t engine.Tx, sql string) error {
	_, err := t.(*tx).t.ExecContext(ctx, sql)
	if err != nil {
		return swerrs.ExecutionFailedError{Cause: err}
	}
	return nil
}

// AcquireLock takes a session-level (non-transaction-scoped) advisory lock
// so it survives across the Begin/Commit boundary of the plan it guards.
func (a Adapter) AcquireLock(ctx context.Context, s engine.Session, ignoreLocks bool) (engine.LockGuard, error) {
	if ignoreLocks {
		return &lockGuard{noOp: true}, nil
	}

	db := s.(*session).db
	var acquired bool
	if err := db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, advisoryLockKey).Scan(&acquired); err != nil {
		return nil, err
	}
	if !acquired {
		return nil, swerrs.LockedError{}
	}
	return &lockGuard{db: db, key: advisoryLockKey, holder: true}, nil
}

// UpsertRecord writes one row of swellow.records.
func (a Adapter) UpsertRecord(ctx context.Context, t engine.Tx, row engine.RecordedRow) error {
	_, err := t.(*tx).t.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s.%s (version_id, object_type, object_name_before, object_name_after, status, checksum, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (version_id, object_type, object_name_before, object_name_after) DO UPDATE SET
	status             = EXCLUDED.status,
	checksum           = EXCLUDED.checksum,
	updated_at         = now()
`, schemaName, tableName),
		row.VersionID, row.ObjectType, row.ObjectNameBefore, row.ObjectNameAfter, row.Status, row.Checksum)
	return err
}

// Snapshot shells out to pg_dump --schema-only against the connection string
// the session was opened with and returns its stdout. Each run is tagged
// with a uuid that appears in the SnapshotFailedError if pg_dump fails.
func (a Adapter) Snapshot(ctx context.Context, s engine.Session) (string, error) {
	connString := s.(*session).connString

	bin := a.DumpBinary
	if bin == "" {
		bin = "pg_dump"
	}

	runID := uuid.NewString()
	cmd := exec.CommandContext(ctx, bin, "--schema-only", "--no-owner", "--no-privileges", connString)
	out, err := cmd.Output()
	if err != nil {
		return "", swerrs.SnapshotFailedError{Cause: fmt.Errorf("pg_dump run %s: %w", runID, err)}
	}
	return string(out), nil
}

func (a Adapter) execWithRetry(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	b := backoff.New(maxBackoffDuration, backoffInterval)
	for {
		res, err := db.ExecContext(ctx, query, args...)
		if err == nil {
			return res, nil
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == lockNotAvailableCode {
			if werr := sleepCtx(ctx, b.Duration()); werr != nil {
				return nil, werr
			}
			continue
		}
		return nil, err
	}
}

func (a Adapter) queryWithRetry(ctx context.Context, db *sql.DB, query string, args ...any) (*sql.Rows, error) {
	b := backoff.New(maxBackoffDuration, backoffInterval)
	for {
		rows, err := db.QueryContext(ctx, query, args...)
		if err == nil {
			return rows, nil
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == lockNotAvailableCode {
			if werr := sleepCtx(ctx, b.Duration()); werr != nil {
				return nil, werr
			}
			continue
		}
		return nil, err
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// WithSearchPath is a convenience used by cmd/ to scope a connection string
// to the swellow schema before calling Connect, reusing connstr as-is.
func WithSearchPath(connString string) (string, error) {
	return connstr.AppendSearchPathOption(connString, schemaName)
}
