// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"usage", Usagef("unknown command %q", "frob"), 2},
		{"wrapped usage", fmt.Errorf("serve: %w", Usagef("bad flag")), 2},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ExitCode(test.err); got != test.want {
				t.Errorf("ExitCode(%v) = %d, want %d", test.err, got, test.want)
			}
		})
	}
}

func TestReport(t *testing.T) {
	var output bytes.Buffer
	report(&output, Usagef("unknown command %q", "frob"))
	if got := output.String(); got != "error: unknown command \"frob\"\n" {
		t.Errorf("report wrote %q", got)
	}
}
