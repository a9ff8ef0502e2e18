package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/matty6409/album-cleaner/internal/exitcode"
)

func TestWithExitCodeNilError(t *testing.T) {
	if err := withExitCode(exitcode.InvalidConfig, nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestMapExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitcode.Success},
		{"coded", withExitCode(exitcode.MissingCredential, errors.New("no key")), exitcode.MissingCredential},
		{"wrapped coded", fmt.Errorf("outer: %w", withExitCode(exitcode.Interrupted, errors.New("stop"))), exitcode.Interrupted},
		{"unknown flag", errors.New(`unknown flag: --bogus`), exitcode.InvalidUsage},
		{"unknown command", errors.New(`unknown command "frobnicate"`), exitcode.InvalidUsage},
		{"plain", errors.New("boom"), exitcode.RuntimeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapExitCode(tt.err); got != tt.want {
				t.Fatalf("mapExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := withExitCode(exitcode.RuntimeFailure, inner)
	if !errors.Is(err, inner) {
		t.Fatalf("expected unwrap to reach inner error")
	}
}
