// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
)

func TestExitCodeMapsKnownKinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{swerrs.ArgumentError{Reason: "bad"}, 1},
		{swerrs.ChecksumMismatchError{VersionID: 1}, 2},
		{swerrs.ExecutionFailedError{VersionID: 1}, 3},
		{swerrs.ConnectivityError{Engine: "postgres"}, 4},
		{swerrs.LockedError{}, 5},
		{swerrs.CancelledError{}, 130},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, ExitCode(c.err))
	}
}

func TestExitCodeDefaultsToOneForUnknownError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, ExitCode(errors.New("boom")))
}
