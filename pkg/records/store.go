// SPDX-License-Identifier: Apache-2.0

// Package records is a typed view over engine.Adapter's raw record rows. It
// never caches between calls: every query re-reads the engine, because the
// planner must always reconcile against the database's current truth.
package records

import (
	"context"
	"sort"
	"time"

	"github.com/franciscoabsampaio/swellow/pkg/engine"
	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
	"github.com/franciscoabsampaio/swellow/pkg/swmigration"
)

// Store reads and writes swmigration.RecordedMigration rows through an
// engine.Adapter.
type Store struct {
	Adapter engine.Adapter
}

// All fetches every record, validating each row's status and sorting
// ascending by VersionID. A row with a status outside the known
// enumeration is reported as swerrs.CorruptRecordError rather than
// silently dropped or coerced.
func (s Store) All(ctx context.Context, session engine.Session) ([]swmigration.RecordedMigration, error) {
	rows, err := s.Adapter.FetchRecords(ctx, session)
	if err != nil {
		return nil, err
	}

	out := make([]swmigration.RecordedMigration, 0, len(rows))
	for _, row := range rows {
		status := swmigration.Status(row.Status)
		if !status.Valid() {
			return nil, swerrs.CorruptRecordError{VersionID: row.VersionID, Status: row.Status}
		}
		out = append(out, swmigration.RecordedMigration{
			VersionID:        row.VersionID,
			ObjectType:       row.ObjectType,
			ObjectNameBefore: row.ObjectNameBefore,
			ObjectNameAfter:  row.ObjectNameAfter,
			Status:           status,
			Checksum:         row.Checksum,
			CreatedAt:        time.Unix(row.CreatedAtUnix, 0).UTC(),
			UpdatedAt:        time.Unix(row.UpdatedAtUnix, 0).UTC(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].VersionID < out[j].VersionID })

	return out, nil
}

// ByVersion returns the record for versionID, if one exists.
func (s Store) ByVersion(ctx context.Context, session engine.Session, versionID int64) (*swmigration.RecordedMigration, error) {
	all, err := s.All(ctx, session)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].VersionID == versionID {
			return &all[i], nil
		}
	}
	return nil, nil
}

// CurrentVersion returns the highest VersionID with an Active record, or
// zero if no record is Active.
func (s Store) CurrentVersion(ctx context.Context, session engine.Session) (int64, error) {
	all, err := s.All(ctx, session)
	if err != nil {
		return 0, err
	}

	var current int64
	for _, r := range all {
		if r.Active() && r.VersionID > current {
			current = r.VersionID
		}
	}
	return current, nil
}

// Upsert writes one record within tx.
func (s Store) Upsert(ctx context.Context, tx engine.Tx, rec swmigration.RecordedMigration) error {
	return s.Adapter.UpsertRecord(ctx, tx, engine.RecordedRow{
		VersionID:        rec.VersionID,
		ObjectType:       rec.ObjectType,
		ObjectNameBefore: rec.ObjectNameBefore,
		ObjectNameAfter:  rec.ObjectNameAfter,
		Status:           string(rec.Status),
		Checksum:         rec.Checksum,
	})
}
