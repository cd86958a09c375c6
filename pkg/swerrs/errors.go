// SPDX-License-Identifier: Apache-2.0

// Package swerrs holds the stable error taxonomy exposed across the CLI
// boundary and the JSON envelope. Every member is its own struct so callers
// can branch on kind with errors.As instead of string matching.
package swerrs

import "fmt"

// Kind is one of the stable taxonomy identifiers.
type Kind string

const (
	KindArgumentError          Kind = "ArgumentError"
	KindConnectivity           Kind = "Connectivity"
	KindAuthFailure            Kind = "AuthFailure"
	KindInsecureToken          Kind = "InsecureToken"
	KindMalformedDirectoryName Kind = "MalformedDirectoryName"
	KindDuplicateVersion       Kind = "DuplicateVersion"
	KindEmptyMigration         Kind = "EmptyMigration"
	KindDownOnlyMigration      Kind = "DownOnlyMigration"
	KindMissingUp              Kind = "MissingUp"
	KindMissingDown            Kind = "MissingDown"
	KindChecksumMismatch       Kind = "ChecksumMismatch"
	KindCorruptRecord          Kind = "CorruptRecord"
	KindLocked                 Kind = "Locked"
	KindDryRunUnsupported      Kind = "DryRunUnsupported"
	KindExecutionFailed        Kind = "ExecutionFailed"
	KindPartialApply           Kind = "PartialApply"
	KindCancelled              Kind = "Cancelled"
	KindSnapshotFailed         Kind = "SnapshotFailed"
	KindFailedRecordExists     Kind = "FailedRecordExists"
	KindTargetNotFound         Kind = "TargetNotFound"
	KindInvalidMetadata        Kind = "InvalidMetadata"
)

// ArgumentError is a bad flag or missing environment variable.
type ArgumentError struct {
	Reason string
}

func (e ArgumentError) Error() string { return e.Reason }
func (e ArgumentError) Kind() Kind    { return KindArgumentError }

// ConnectivityError wraps a failure to reach the target engine.
type ConnectivityError struct {
	Engine string
	Cause  error
}

func (e ConnectivityError) Error() string {
	return fmt.Sprintf("unable to reach %s: %s", e.Engine, e.Cause)
}
func (e ConnectivityError) Kind() Kind    { return KindConnectivity }
func (e ConnectivityError) Unwrap() error { return e.Cause }

// AuthFailureError is returned when the engine rejects credentials.
type AuthFailureError struct {
	Cause error
}

func (e AuthFailureError) Error() string { return fmt.Sprintf("authentication failed: %s", e.Cause) }
func (e AuthFailureError) Kind() Kind    { return KindAuthFailure }
func (e AuthFailureError) Unwrap() error { return e.Cause }

// InsecureTokenError is returned when a Spark Connect string carries a
// token without use_ssl=true.
type InsecureTokenError struct{}

func (e InsecureTokenError) Error() string {
	return "connection string carries a token without use_ssl=true"
}
func (e InsecureTokenError) Kind() Kind { return KindInsecureToken }

// MalformedDirectoryNameError is a loader entry that doesn't match the
// version-prefix naming convention.
type MalformedDirectoryNameError struct {
	Name string
}

func (e MalformedDirectoryNameError) Error() string {
	return fmt.Sprintf("migration directory name %q does not match NNNNNN_slug", e.Name)
}
func (e MalformedDirectoryNameError) Kind() Kind { return KindMalformedDirectoryName }

// DuplicateVersionError is two on-disk directories sharing a version_id.
type DuplicateVersionError struct {
	VersionID int64
}

func (e DuplicateVersionError) Error() string {
	return fmt.Sprintf("version %d is defined by more than one migration directory", e.VersionID)
}
func (e DuplicateVersionError) Kind() Kind { return KindDuplicateVersion }

// EmptyMigrationError is a migration directory with neither up.sql nor
// down.sql.
type EmptyMigrationError struct {
	VersionID int64
}

func (e EmptyMigrationError) Error() string {
	return fmt.Sprintf("migration %d has neither up.sql nor down.sql", e.VersionID)
}
func (e EmptyMigrationError) Kind() Kind { return KindEmptyMigration }

// DownOnlyMigrationError is a migration directory with down.sql but no
// up.sql — rejected by the loader rather than silently ignored, per
// DESIGN.md. The loader does not consult the records table for this check.
type DownOnlyMigrationError struct {
	VersionID int64
}

func (e DownOnlyMigrationError) Error() string {
	return fmt.Sprintf("migration %d has a down.sql but no up.sql", e.VersionID)
}
func (e DownOnlyMigrationError) Kind() Kind { return KindDownOnlyMigration }

// MissingUpError is a planned up-step whose migration has no up.sql.
type MissingUpError struct {
	VersionID int64
}

func (e MissingUpError) Error() string {
	return fmt.Sprintf("migration %d has no up.sql", e.VersionID)
}
func (e MissingUpError) Kind() Kind { return KindMissingUp }

// MissingDownError is a planned down-step whose migration has no down.sql.
type MissingDownError struct {
	VersionID int64
}

func (e MissingDownError) Error() string {
	return fmt.Sprintf("migration %d has no down.sql", e.VersionID)
}
func (e MissingDownError) Kind() Kind { return KindMissingDown }

// ChecksumMismatchError is tamper detection: the on-disk up.sql no longer
// matches the checksum recorded when it was applied.
type ChecksumMismatchError struct {
	VersionID      int64
	RecordChecksum string
	LocalChecksum  string
}

func (e ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for migration %d: recorded %s, on-disk %s",
		e.VersionID, e.RecordChecksum, e.LocalChecksum)
}
func (e ChecksumMismatchError) Kind() Kind { return KindChecksumMismatch }

// CorruptRecordError is a records row with a status outside the known
// enumeration.
type CorruptRecordError struct {
	VersionID int64
	Status    string
}

func (e CorruptRecordError) Error() string {
	return fmt.Sprintf("record for migration %d has unknown status %q", e.VersionID, e.Status)
}
func (e CorruptRecordError) Kind() Kind { return KindCorruptRecord }

// LockedError is returned when the advisory lock is held by another
// migrator.
type LockedError struct {
	Holder string
}

func (e LockedError) Error() string {
	if e.Holder == "" {
		return "the swellow migrator lock is held by another process"
	}
	return fmt.Sprintf("the swellow migrator lock is held by %s", e.Holder)
}
func (e LockedError) Kind() Kind { return KindLocked }

// DryRunUnsupportedError is returned when --dry-run is requested on an
// engine that cannot roll back DDL.
type DryRunUnsupportedError struct {
	Engine string
}

func (e DryRunUnsupportedError) Error() string {
	return fmt.Sprintf("%s does not support transactional rollback of DDL, dry-run is unavailable", e.Engine)
}
func (e DryRunUnsupportedError) Kind() Kind { return KindDryRunUnsupported }

// ExecutionFailedError carries the original engine error plus the
// offending step's identity.
type ExecutionFailedError struct {
	VersionID int64
	Direction string
	Cause     error
}

func (e ExecutionFailedError) Error() string {
	return fmt.Sprintf("executing %s migration %d: %s", e.Direction, e.VersionID, e.Cause)
}
func (e ExecutionFailedError) Kind() Kind    { return KindExecutionFailed }
func (e ExecutionFailedError) Unwrap() error { return e.Cause }

// PartialApplyError flags an inconsistent records/DDL state mid-run on a
// non-transactional engine.
type PartialApplyError struct {
	VersionID int64
	Detail    string
}

func (e PartialApplyError) Error() string {
	return fmt.Sprintf("migration %d may be partially applied: %s", e.VersionID, e.Detail)
}
func (e PartialApplyError) Kind() Kind { return KindPartialApply }

// CancelledError wraps a cooperative cancellation between plan steps.
type CancelledError struct {
	Cause error
}

func (e CancelledError) Error() string {
	if e.Cause == nil {
		return "cancelled"
	}
	return fmt.Sprintf("cancelled: %s", e.Cause)
}
func (e CancelledError) Kind() Kind    { return KindCancelled }
func (e CancelledError) Unwrap() error { return e.Cause }

// SnapshotFailedError wraps a failure producing a schema snapshot.
type SnapshotFailedError struct {
	Cause error
}

func (e SnapshotFailedError) Error() string { return fmt.Sprintf("snapshot failed: %s", e.Cause) }
func (e SnapshotFailedError) Kind() Kind    { return KindSnapshotFailed }
func (e SnapshotFailedError) Unwrap() error { return e.Cause }

// FailedRecordExistsError blocks a plan from re-attempting a version whose
// last attempt left a FAILED record, absent an explicit operator override.
type FailedRecordExistsError struct {
	VersionID int64
}

func (e FailedRecordExistsError) Error() string {
	return fmt.Sprintf("migration %d previously failed; pass --retry-failed to retry it", e.VersionID)
}
func (e FailedRecordExistsError) Kind() Kind { return KindFailedRecordExists }

// TargetNotFoundError is a requested --target-version-id that doesn't
// exist on disk.
type TargetNotFoundError struct {
	VersionID int64
}

func (e TargetNotFoundError) Error() string {
	return fmt.Sprintf("target version %d is not present in the migrations directory", e.VersionID)
}
func (e TargetNotFoundError) Kind() Kind { return KindTargetNotFound }

// InvalidMetadataError is an optional meta.yaml sidecar that fails to parse
// as YAML or fails schema validation.
type InvalidMetadataError struct {
	VersionID int64
	Cause     error
}

func (e InvalidMetadataError) Error() string {
	return fmt.Sprintf("meta.yaml for migration %d is invalid: %s", e.VersionID, e.Cause)
}
func (e InvalidMetadataError) Kind() Kind    { return KindInvalidMetadata }
func (e InvalidMetadataError) Unwrap() error { return e.Cause }
