// SPDX-License-Identifier: Apache-2.0

package sqlsplit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/franciscoabsampaio/swellow/pkg/sqlsplit"
)

func TestStatementsSplitsOnTopLevelSemicolons(t *testing.T) {
	t.Parallel()

	stmts := sqlsplit.Statements(`
CREATE TABLE t (id INT);
INSERT INTO t VALUES (1);
`)
	assert.Equal(t, []string{"CREATE TABLE t (id INT)", "INSERT INTO t VALUES (1)"}, stmts)
}

func TestStatementsIgnoresSemicolonsInsideStringLiterals(t *testing.T) {
	t.Parallel()

	stmts := sqlsplit.Statements(`INSERT INTO t VALUES ('a;b');`)
	assert.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "'a;b'")
}

func TestStatementsIgnoresSemicolonsInsideLineComments(t *testing.T) {
	t.Parallel()

	stmts := sqlsplit.Statements("SELECT 1; -- trailing; comment\nSELECT 2;")
	assert.Len(t, stmts, 2)
}

func TestStatementsIgnoresSemicolonsInsideBlockComments(t *testing.T) {
	t.Parallel()

	stmts := sqlsplit.Statements("SELECT 1; /* a; b; c */ SELECT 2;")
	assert.Len(t, stmts, 2)
}

func TestStatementsIgnoresSemicolonsInsideDollarQuotedBlocks(t *testing.T) {
	t.Parallel()

	stmts := sqlsplit.Statements(`
CREATE FUNCTION f() RETURNS void AS $body$
BEGIN
  SELECT 1; SELECT 2;
END;
$body$ LANGUAGE plpgsql;
`)
	assert.Len(t, stmts, 1)
}

func TestStatementsIgnoresSemicolonsInsideDoubleQuotedIdentifiers(t *testing.T) {
	t.Parallel()

	stmts := sqlsplit.Statements(`SELECT * FROM "weird;table";`)
	assert.Len(t, stmts, 1)
}

func TestStatementsDropsEmptyStatements(t *testing.T) {
	t.Parallel()

	stmts := sqlsplit.Statements("SELECT 1;;  ;\nSELECT 2;")
	assert.Len(t, stmts, 2)
}

func TestBreakingWarningsDetectsDropTable(t *testing.T) {
	t.Parallel()

	warnings := sqlsplit.BreakingWarnings("DROP TABLE users")
	assert.NotEmpty(t, warnings)
}

func TestBreakingWarningsDetectsTruncateCaseInsensitive(t *testing.T) {
	t.Parallel()

	warnings := sqlsplit.BreakingWarnings("truncate users")
	assert.NotEmpty(t, warnings)
}

func TestBreakingWarningsDetectsAlterDrop(t *testing.T) {
	t.Parallel()

	warnings := sqlsplit.BreakingWarnings("ALTER TABLE users DROP COLUMN email")
	assert.NotEmpty(t, warnings)
}

func TestBreakingWarningsIgnoresMatchesInsideStringLiterals(t *testing.T) {
	t.Parallel()

	warnings := sqlsplit.BreakingWarnings(`INSERT INTO logs VALUES ('ran DROP TABLE users')`)
	assert.Empty(t, warnings)
}

func TestBreakingWarningsEmptyForBenignStatement(t *testing.T) {
	t.Parallel()

	warnings := sqlsplit.BreakingWarnings("CREATE TABLE t (id INT)")
	assert.Empty(t, warnings)
}
