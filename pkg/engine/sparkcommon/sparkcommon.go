// SPDX-License-Identifier: Apache-2.0

// Package sparkcommon holds the behavior shared by the Spark Connect
// engines (Delta and Iceberg): neither supports transactional DDL or real
// locking, so both emulate the engine.Adapter contract against a narrow
// SparkSession the same way — only Snapshot differs per catalog flavor,
// which is why sparkdelta and sparkiceberg each embed Base and override it.
package sparkcommon

import (
	"context"
	"fmt"

	"github.com/franciscoabsampaio/swellow/internal/connstr"
	"github.com/franciscoabsampaio/swellow/pkg/engine"
	"github.com/franciscoabsampaio/swellow/pkg/sqlsplit"
	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
)

// Row is one row of a Spark Connect query result, keyed by column name.
type Row map[string]any

// SparkSession is the narrow surface a real Spark Connect gRPC client (e.g.
// github.com/apache/spark-connect-go) would implement. swellow never talks
// gRPC directly; it only needs to submit a SQL plan and read rows back.
type SparkSession interface {
	ExecutePlan(ctx context.Context, sql string) ([]Row, error)
	Close() error
}

// Dialer opens a SparkSession for a parsed connection string. Adapters
// inject this so tests can substitute a fake SparkSession without a real
// cluster.
type Dialer func(ctx context.Context, sc connstr.SparkConnect) (SparkSession, error)

const schemaName = "swellow"
const tableName = "records"

// session wraps a connected SparkSession.
type session struct{ sp SparkSession }

func (s *session) Close() error { return s.sp.Close() }

// tx is always a NoOpTx on Spark engines; execute runs outside any
// transactional envelope. It embeds engine.NoOpTx purely to promote the
// real isTx marker method — unexported interface methods are scoped to
// the package that declares them, so a locally-declared isTx() here would
// not satisfy engine.Tx.
type tx struct {
	engine.NoOpTx
	s *session
}

// lockGuard deletes the sentinel lock row on Release.
type lockGuard struct {
	s    *session
	noOp bool
}

func (g *lockGuard) Release(ctx context.Context) error {
	if g.noOp {
		return nil
	}
	_, err := g.s.sp.ExecutePlan(ctx, fmt.Sprintf(
		`DELETE FROM %s.%s WHERE version_id = 0 AND object_type = 'lock'`, schemaName, tableName))
	return err
}

// Base implements every engine.Adapter method common to both Spark
// flavors. A concrete adapter embeds Base and overrides Name and Snapshot.
type Base struct {
	Dialer Dialer
}

func (Base) SupportsDryRun() bool           { return false }
func (Base) SupportsTransactionalDDL() bool { return false }

func (b Base) Connect(ctx context.Context, connString string) (engine.Session, error) {
	sc, err := connstr.ParseSparkConnect(connString)
	if err != nil {
		return nil, err
	}
	sp, err := b.Dialer(ctx, sc)
	if err != nil {
		return nil, swerrs.ConnectivityError{Engine: "spark-connect", Cause: err}
	}
	return &session{sp: sp}, nil
}

func (b Base) EnsureRecordsSchema(ctx context.Context, s engine.Session) error {
	sess := s.(*session)
	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", schemaName),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	version_id BIGINT,
	object_type STRING,
	object_name_before STRING,
	object_name_after STRING,
	status STRING,
	checksum STRING,
	created_at TIMESTAMP,
	updated_at TIMESTAMP
) USING DELTA`, schemaName, tableName),
	}
	for _, stmt := range stmts {
		if _, err := sess.sp.ExecutePlan(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (b Base) FetchRecords(ctx context.Context, s engine.Session) ([]engine.RecordedRow, error) {
	sess := s.(*session)
	rows, err := sess.sp.ExecutePlan(ctx, fmt.Sprintf(
		`SELECT version_id, object_type, object_name_before, object_name_after, status, checksum,
		        unix_timestamp(created_at), unix_timestamp(updated_at)
		 FROM %s.%s WHERE object_type != 'lock'`, schemaName, tableName))
	if err != nil {
		return nil, err
	}

	out := make([]engine.RecordedRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, engine.RecordedRow{
			VersionID:        toInt64(r["version_id"]),
			ObjectType:       toString(r["object_type"]),
			ObjectNameBefore: toString(r["object_name_before"]),
			ObjectNameAfter:  toString(r["object_name_after"]),
			Status:           toString(r["status"]),
			Checksum:         toString(r["checksum"]),
			CreatedAtUnix:    toInt64(r["unix_timestamp(created_at)"]),
			UpdatedAtUnix:    toInt64(r["unix_timestamp(updated_at)"]),
		})
	}
	return out, nil
}

// Begin always returns a NoOpTx: Spark Connect has no transactional DDL.
func (b Base) Begin(ctx context.Context, s engine.Session) (engine.Tx, error) {
	return &tx{s: s.(*session)}, nil
}

func (b Base) Commit(ctx context.Context, t engine.Tx) error { return nil }

func (b Base) Rollback(ctx context.Context, t engine.Tx) error {
	return swerrs.DryRunUnsupportedError{Engine: "spark-connect"}
}

// Execute splits sql into top-level statements and submits them
// sequentially, per the contract's "Spark Connect: statement-by-statement
// splitting ... with each statement sent as a separate ExecutePlan".
func (b Base) Execute(ctx context.Context, t engine.Tx, sql string) error {
	sess := t.(*tx).s
	for _, stmt := range sqlsplit.Statements(sql) {
		if _, err := sess.sp.ExecutePlan(ctx, stmt); err != nil {
			return swerrs.ExecutionFailedError{Cause: err}
		}
	}
	return nil
}

// Query runs a read-only statement and returns its rows, for use by
// concrete adapters' Snapshot implementations (catalog/table enumeration),
// which need result rows rather than just success/failure.
func (b Base) Query(ctx context.Context, t engine.Tx, sql string) ([]Row, error) {
	sess := t.(*tx).s
	return sess.sp.ExecutePlan(ctx, sql)
}

// AcquireLock emulates the PostgreSQL advisory lock with a sentinel row,
// non-blocking: it selects for an existing sentinel row, fails with
// LockedError if one is found, and otherwise inserts one. The row is not
// read back after the insert, and the select and insert are two separate
// statements.
func (b Base) AcquireLock(ctx context.Context, s engine.Session, ignoreLocks bool) (engine.LockGuard, error) {
	if ignoreLocks {
		return &lockGuard{noOp: true}, nil
	}
	sess := s.(*session)

	existing, err := sess.sp.ExecutePlan(ctx, fmt.Sprintf(
		`SELECT version_id FROM %s.%s WHERE version_id = 0 AND object_type = 'lock'`, schemaName, tableName))
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, swerrs.LockedError{}
	}

	_, err = sess.sp.ExecutePlan(ctx, fmt.Sprintf(
		`INSERT INTO %s.%s (version_id, object_type, status) VALUES (0, 'lock', 'LOCKED')`, schemaName, tableName))
	if err != nil {
		return nil, err
	}

	return &lockGuard{s: sess}, nil
}

func (b Base) UpsertRecord(ctx context.Context, t engine.Tx, row engine.RecordedRow) error {
	sess := t.(*tx).s
	_, err := sess.sp.ExecutePlan(ctx, fmt.Sprintf(`
MERGE INTO %[1]s.%[2]s AS target
USING (SELECT %[3]d AS version_id, '%[4]s' AS object_type, '%[5]s' AS object_name_before, '%[6]s' AS object_name_after, '%[7]s' AS status, '%[8]s' AS checksum) AS source
ON target.version_id = source.version_id AND target.object_type = source.object_type
	AND target.object_name_before = source.object_name_before AND target.object_name_after = source.object_name_after
WHEN MATCHED THEN UPDATE SET status = source.status, checksum = source.checksum, updated_at = current_timestamp()
WHEN NOT MATCHED THEN INSERT (version_id, object_type, object_name_before, object_name_after, status, checksum, created_at, updated_at)
  VALUES (source.version_id, source.object_type, source.object_name_before, source.object_name_after, source.status, source.checksum, current_timestamp(), current_timestamp())
`, schemaName, tableName, row.VersionID, row.ObjectType, row.ObjectNameBefore, row.ObjectNameAfter, row.Status, row.Checksum))
	return err
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
