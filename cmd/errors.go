// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"

	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
)

// ExitCode maps a swerrs.Kind to the process exit code documented in
// SPEC_FULL.md §6.1. Unknown errors (not constructed by pkg/swerrs) exit 1,
// the same bucket as a user argument mistake.
func ExitCode(err error) int {
	var k interface{ Kind() swerrs.Kind }
	if !errors.As(err, &k) {
		return 1
	}

	switch k.Kind() {
	case swerrs.KindArgumentError,
		swerrs.KindMalformedDirectoryName,
		swerrs.KindDuplicateVersion,
		swerrs.KindEmptyMigration,
		swerrs.KindDownOnlyMigration,
		swerrs.KindInvalidMetadata:
		return 1
	case swerrs.KindChecksumMismatch,
		swerrs.KindMissingUp,
		swerrs.KindMissingDown,
		swerrs.KindCorruptRecord,
		swerrs.KindTargetNotFound,
		swerrs.KindFailedRecordExists,
		swerrs.KindDryRunUnsupported:
		return 2
	case swerrs.KindExecutionFailed,
		swerrs.KindPartialApply,
		swerrs.KindSnapshotFailed:
		return 3
	case swerrs.KindConnectivity,
		swerrs.KindAuthFailure,
		swerrs.KindInsecureToken:
		return 4
	case swerrs.KindLocked:
		return 5
	case swerrs.KindCancelled:
		return 130
	default:
		return 1
	}
}
