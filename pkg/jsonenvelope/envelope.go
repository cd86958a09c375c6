// SPDX-License-Identifier: Apache-2.0

// Package jsonenvelope is the single JSON shape every swellow command
// writes to stdout when --json is set.
package jsonenvelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
)

// ErrorDetail is the "error" member of the envelope.
type ErrorDetail struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// Envelope is the top-level JSON object written for every command.
type Envelope struct {
	OK      bool         `json:"ok"`
	Command string       `json:"command"`
	Data    any          `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// Kinder is implemented by every swerrs type; matched with errors.As by
// WriteError so JSON output always carries the taxonomy's stable Kind.
type Kinder interface {
	Kind() swerrs.Kind
}

// WriteSuccess writes {"ok": true, "command": command, "data": data}.
func WriteSuccess(w io.Writer, command string, data any) error {
	return write(w, Envelope{OK: true, Command: command, Data: data})
}

// WriteError writes {"ok": false, "command": command, "error": {...}}. If
// err implements Kinder its Kind is used verbatim; otherwise the kind is
// reported as "Unknown".
func WriteError(w io.Writer, command string, err error) error {
	kind := "Unknown"
	var k Kinder
	if errors.As(err, &k) {
		kind = string(k.Kind())
	}
	return write(w, Envelope{
		OK:      false,
		Command: command,
		Error:   &ErrorDetail{Kind: kind, Message: err.Error()},
	})
}

func write(w io.Writer, env Envelope) error {
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
