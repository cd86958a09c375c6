// SPDX-License-Identifier: Apache-2.0

// Package sparkiceberg implements engine.Adapter for Spark Connect against
// an Iceberg catalog. Unlike sparkdelta, Iceberg's catalog implementation
// exposes a native SHOW CREATE TABLE, so Snapshot is a direct enumeration
// rather than a DESCRIBE-based reconstruction.
package sparkiceberg

import (
	"context"
	"fmt"
	"strings"

	"github.com/franciscoabsampaio/swellow/pkg/engine"
	"github.com/franciscoabsampaio/swellow/pkg/engine/sparkcommon"
	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
)

// Adapter is the Iceberg-flavored Spark Connect engine.
type Adapter struct {
	sparkcommon.Base
}

func New(dialer sparkcommon.Dialer) Adapter {
	return Adapter{Base: sparkcommon.Base{Dialer: dialer}}
}

func (Adapter) Name() string { return "spark-iceberg" }

// Snapshot enumerates every database/table reachable from the session and
// asks the catalog for its native CREATE TABLE text.
func (a Adapter) Snapshot(ctx context.Context, s engine.Session) (string, error) {
	base := a.Base

	t, err := base.Begin(ctx, s)
	if err != nil {
		return "", swerrs.SnapshotFailedError{Cause: err}
	}

	databases, err := base.Query(ctx, t, "SHOW DATABASES")
	if err != nil {
		return "", swerrs.SnapshotFailedError{Cause: err}
	}

	var out strings.Builder
	for _, dbRow := range databases {
		dbName := firstString(dbRow)
		if dbName == "" || dbName == "swellow" {
			continue
		}
		fmt.Fprintf(&out, "CREATE DATABASE IF NOT EXISTS %s;\n", dbName)

		tables, err := base.Query(ctx, t, fmt.Sprintf("SHOW TABLES IN %s", dbName))
		if err != nil {
			return "", swerrs.SnapshotFailedError{Cause: err}
		}

		for _, tblRow := range tables {
			tblName := stringField(tblRow, "tableName")
			if tblName == "" {
				continue
			}
			qualified := dbName + "." + tblName

			ddlRows, err := base.Query(ctx, t, fmt.Sprintf("SHOW CREATE TABLE %s", qualified))
			if err != nil {
				return "", swerrs.SnapshotFailedError{Cause: err}
			}
			for _, r := range ddlRows {
				out.WriteString(firstString(r))
				out.WriteString(";\n")
			}
		}
	}

	return out.String(), nil
}

func firstString(row map[string]any) string {
	for _, v := range row {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func stringField(row map[string]any, key string) string {
	if v, ok := row[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
