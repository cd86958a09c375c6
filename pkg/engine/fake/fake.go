// SPDX-License-Identifier: Apache-2.0

// Package fake is an in-memory engine.Adapter used by the planner and
// executor unit tests so they can exercise real record/lock bookkeeping
// without a live database. Rather than being a pure no-op, this fake
// actually holds state, because the planner and executor need to observe
// what they wrote.
package fake

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/franciscoabsampaio/swellow/pkg/engine"
	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
)

// Adapter is an in-memory stand-in for a real backend. It is not safe for
// concurrent plans against the same instance beyond what AcquireLock
// enforces; that restriction matches production.
type Adapter struct {
	DryRun              bool
	TransactionalDDL    bool
	ExecuteFailOnSubstr string // if non-empty, Execute fails when sql contains this substring

	mu      sync.Mutex
	records map[string]engine.RecordedRow // keyed by versionID+objectType+objectNameBefore+objectNameAfter
	locked  bool

	ExecutedStatements []string // audit trail, in call order, across all transactions
	SnapshotCalls      int
}

type fakeSession struct{ a *Adapter }

func (fakeSession) Close() error { return nil }

// fakeTx embeds engine.NoOpTx purely to promote the real isTx marker
// method — unexported interface methods are scoped to the package that
// declares them, so a locally-declared isTx() here would not satisfy
// engine.Tx.
type fakeTx struct {
	engine.NoOpTx
	a      *Adapter
	staged map[string]engine.RecordedRow
	writes []string
}

type fakeLock struct{ a *Adapter }

func (l *fakeLock) Release(ctx context.Context) error {
	l.a.mu.Lock()
	defer l.a.mu.Unlock()
	l.a.locked = false
	return nil
}

func New() *Adapter {
	return &Adapter{TransactionalDDL: true, DryRun: true, records: make(map[string]engine.RecordedRow)}
}

func (Adapter) Name() string                      { return "fake" }
func (a *Adapter) SupportsDryRun() bool           { return a.DryRun }
func (a *Adapter) SupportsTransactionalDDL() bool { return a.TransactionalDDL }

func (a *Adapter) Connect(ctx context.Context, connString string) (engine.Session, error) {
	return fakeSession{a: a}, nil
}

func (a *Adapter) EnsureRecordsSchema(ctx context.Context, s engine.Session) error { return nil }

func (a *Adapter) FetchRecords(ctx context.Context, s engine.Session) ([]engine.RecordedRow, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]engine.RecordedRow, 0, len(a.records))
	for _, r := range a.records {
		out = append(out, r)
	}
	return out, nil
}

func (a *Adapter) Begin(ctx context.Context, s engine.Session) (engine.Tx, error) {
	if !a.TransactionalDDL {
		return engine.NoOpTx{}, nil
	}
	a.mu.Lock()
	staged := make(map[string]engine.RecordedRow, len(a.records))
	for k, v := range a.records {
		staged[k] = v
	}
	a.mu.Unlock()
	return &fakeTx{a: a, staged: staged}, nil
}

func (a *Adapter) Commit(ctx context.Context, tx engine.Tx) error {
	ft, ok := tx.(*fakeTx)
	if !ok {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = ft.staged
	a.ExecutedStatements = append(a.ExecutedStatements, ft.writes...)
	return nil
}

func (a *Adapter) Rollback(ctx context.Context, tx engine.Tx) error {
	if _, ok := tx.(engine.NoOpTx); ok {
		return swerrs.DryRunUnsupportedError{Engine: a.Name()}
	}
	return nil
}

func (a *Adapter) Execute(ctx context.Context, tx engine.Tx, sql string) error {
	if a.ExecuteFailOnSubstr != "" && strings.Contains(sql, a.ExecuteFailOnSubstr) {
		return swerrs.ExecutionFailedError{Cause: errors.New("simulated failure")}
	}
	if ft, ok := tx.(*fakeTx); ok {
		ft.writes = append(ft.writes, sql)
	} else {
		a.mu.Lock()
		a.ExecutedStatements = append(a.ExecutedStatements, sql)
		a.mu.Unlock()
	}
	return nil
}

func (a *Adapter) AcquireLock(ctx context.Context, s engine.Session, ignoreLocks bool) (engine.LockGuard, error) {
	if ignoreLocks {
		return &fakeLock{a: a}, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.locked {
		return nil, swerrs.LockedError{}
	}
	a.locked = true
	return &fakeLock{a: a}, nil
}

func (a *Adapter) UpsertRecord(ctx context.Context, tx engine.Tx, row engine.RecordedRow) error {
	key := recordKey(row.VersionID, row.ObjectType, row.ObjectNameBefore, row.ObjectNameAfter)
	if ft, ok := tx.(*fakeTx); ok {
		ft.staged[key] = row
		return nil
	}
	a.mu.Lock()
	a.records[key] = row
	a.mu.Unlock()
	return nil
}

func (a *Adapter) Snapshot(ctx context.Context, s engine.Session) (string, error) {
	a.mu.Lock()
	a.SnapshotCalls++
	a.mu.Unlock()
	return "-- fake snapshot --", nil
}

func recordKey(versionID int64, objectType, objectNameBefore, objectNameAfter string) string {
	return objectType + "/" + strconv.FormatInt(versionID, 10) + "/" + objectNameBefore + "/" + objectNameAfter
}
