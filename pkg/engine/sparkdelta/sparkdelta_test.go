// SPDX-License-Identifier: Apache-2.0

package sparkdelta_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franciscoabsampaio/swellow/internal/connstr"
	"github.com/franciscoabsampaio/swellow/pkg/engine/sparkcommon"
	"github.com/franciscoabsampaio/swellow/pkg/engine/sparkdelta"
)

// catalogSession is a fake SparkSession with just enough catalog
// introspection to drive Snapshot: one database, one table, one column.
type catalogSession struct{}

func (catalogSession) Close() error { return nil }

func (catalogSession) ExecutePlan(ctx context.Context, sql string) ([]sparkcommon.Row, error) {
	switch {
	case sql == "SHOW DATABASES":
		return []sparkcommon.Row{{"namespace": "analytics"}}, nil
	case strings.HasPrefix(sql, "SHOW TABLES IN"):
		return []sparkcommon.Row{{"tableName": "events"}}, nil
	case strings.HasPrefix(sql, "DESCRIBE TABLE"):
		return []sparkcommon.Row{
			{"col_name": "id", "data_type": "bigint"},
			{"col_name": "payload", "data_type": "string"},
		}, nil
	case strings.HasPrefix(sql, "DESCRIBE DETAIL"):
		return []sparkcommon.Row{{"location": "s3://bucket/analytics/events"}}, nil
	default:
		return nil, nil
	}
}

func newAdapter(t *testing.T) (sparkdelta.Adapter, sparkcommon.SparkSession) {
	t.Helper()
	sess := catalogSession{}
	a := sparkdelta.New(func(ctx context.Context, sc connstr.SparkConnect) (sparkcommon.SparkSession, error) {
		return sess, nil
	})
	return a, sess
}

func TestSnapshotReconstructsCreateTableFromDescribe(t *testing.T) {
	t.Parallel()

	a, _ := newAdapter(t)
	s, err := a.Connect(context.Background(), "sc://localhost:15002/;use_ssl=true;")
	require.NoError(t, err)

	ddl, err := a.Snapshot(context.Background(), s)
	require.NoError(t, err)

	assert.Contains(t, ddl, "CREATE DATABASE IF NOT EXISTS analytics;")
	assert.Contains(t, ddl, "CREATE TABLE analytics.events (")
	assert.Contains(t, ddl, "id bigint,")
	assert.Contains(t, ddl, "payload string")
	assert.Contains(t, ddl, ") USING DELTA LOCATION 's3://bucket/analytics/events';")
}

func TestSnapshotSkipsTheRecordsSchema(t *testing.T) {
	t.Parallel()

	sess := recordingSession{dbs: []string{"swellow", "analytics"}}
	a := sparkdelta.New(func(ctx context.Context, sc connstr.SparkConnect) (sparkcommon.SparkSession, error) {
		return &sess, nil
	})
	s, err := a.Connect(context.Background(), "sc://localhost:15002/;use_ssl=true;")
	require.NoError(t, err)

	ddl, err := a.Snapshot(context.Background(), s)
	require.NoError(t, err)
	assert.NotContains(t, ddl, "swellow")
}

// recordingSession reports a configurable set of databases and nothing
// else, to verify Snapshot's "swellow" exclusion without tying the test to
// the full table/column enumeration.
type recordingSession struct{ dbs []string }

func (s *recordingSession) Close() error { return nil }

func (s *recordingSession) ExecutePlan(ctx context.Context, sql string) ([]sparkcommon.Row, error) {
	if sql == "SHOW DATABASES" {
		rows := make([]sparkcommon.Row, 0, len(s.dbs))
		for _, db := range s.dbs {
			rows = append(rows, sparkcommon.Row{"namespace": db})
		}
		return rows, nil
	}
	return nil, nil
}
