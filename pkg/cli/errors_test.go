package cli

import (
	"errors"
	"fmt"
	"testing"

	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
	"mercator-hq/rsql/pkg/rsql/token"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("output", "unknown format")
	if got, want := err.Error(), "config error in output: unknown format"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCommandError(t *testing.T) {
	inner := errors.New("database is locked")
	err := NewCommandError("query", inner)

	if got, want := err.Error(), "command query failed: database is locked"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is(err, inner) = false, want true")
	}
}

func TestExitCode(t *testing.T) {
	syntax := rsqlerrors.New(rsqlerrors.ErrorTypeSyntax, token.Position{Line: 1, Column: 3}, "unexpected end")
	list := rsqlerrors.NewErrorList()
	list.Add(syntax)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitFailure},
		{"config", NewConfigError("x", "y"), ExitFailure},
		{"query", syntax, ExitInvalidQuery},
		{"wrapped query", NewCommandError("parse", fmt.Errorf("line 2: %w", syntax)), ExitInvalidQuery},
		{"list", list, ExitInvalidQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
