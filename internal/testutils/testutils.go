// SPDX-License-Identifier: Apache-2.0

package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// defaultPostgresVersion is used when POSTGRES_VERSION is unset.
const defaultPostgresVersion = "15.3"

// tConnStr holds the connection string to the container started by
// SharedTestMain, shared by every test in the package that calls it.
var tConnStr string

// SharedTestMain starts a single postgres container for every test in a
// package. Each test then creates its own throwaway database against it via
// WithConnectionToContainer.
func SharedTestMain(m *testing.M) {
	ctx := context.Background()

	waitForLogs := wait.
		ForLog("database system is ready to accept connections").
		WithOccurrence(2).
		WithStartupTimeout(5 * time.Second)

	pgVersion := os.Getenv("POSTGRES_VERSION")
	if pgVersion == "" {
		pgVersion = defaultPostgresVersion
	}

	ctr, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:"+pgVersion),
		testcontainers.WithWaitStrategy(waitForLogs),
	)
	if err != nil {
		os.Exit(1)
	}

	tConnStr, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		os.Exit(1)
	}

	exitCode := m.Run()

	if err := ctr.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %v", err)
	}

	os.Exit(exitCode)
}

// WithConnectionToContainer creates a throwaway database in the shared
// container and hands the caller a connection and connection string to it.
func WithConnectionToContainer(t *testing.T, fn func(db *sql.DB, connStr string)) {
	t.Helper()
	db, connStr, _ := setupTestDatabase(t)
	fn(db, connStr)
}

// WithConnectionAndNameToContainer is WithConnectionToContainer plus the
// generated database name, needed by tests that grant privileges on it.
func WithConnectionAndNameToContainer(t *testing.T, fn func(db *sql.DB, connStr, dbName string)) {
	t.Helper()
	db, connStr, dbName := setupTestDatabase(t)
	fn(db, connStr, dbName)
}

func setupTestDatabase(t *testing.T) (*sql.DB, string, string) {
	t.Helper()
	ctx := context.Background()

	tDB, err := sql.Open("postgres", tConnStr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := tDB.Close(); err != nil {
			t.Fatalf("failed to close database connection: %v", err)
		}
	})

	dbName := randomDBName()

	_, err = tDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName)))
	if err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(tConnStr)
	if err != nil {
		t.Fatal(err)
	}
	u.Path = "/" + dbName
	connStr := u.String()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("failed to close database connection: %v", err)
		}
	})

	return db, connStr, dbName
}

func randomDBName() string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 12)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return "swellow_test_" + string(b)
}
