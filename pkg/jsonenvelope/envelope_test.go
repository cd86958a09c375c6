// SPDX-License-Identifier: Apache-2.0

package jsonenvelope_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franciscoabsampaio/swellow/pkg/jsonenvelope"
	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
)

func TestWriteSuccessProducesOKEnvelope(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, jsonenvelope.WriteSuccess(&buf, "peck", map[string]any{"current_version": 3}))

	var env jsonenvelope.Envelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.True(t, env.OK)
	assert.Equal(t, "peck", env.Command)
	assert.Nil(t, env.Error)
}

func TestWriteErrorCarriesSwerrsKind(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := swerrs.LockedError{Holder: "pid-123"}
	require.NoError(t, jsonenvelope.WriteError(&buf, "up", err))

	var env jsonenvelope.Envelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.False(t, env.OK)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(swerrs.KindLocked), env.Error.Kind)
}
