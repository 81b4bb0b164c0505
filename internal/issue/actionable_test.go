// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "check spack"},
			expected: "failed to check spack",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "report software",
				Resource:  "foo",
			},
			expected: "failed to report software: foo",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "read environment descriptor",
				Resource:  "/opt/spack/var/spack/environments/foo/spack.yaml",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to read environment descriptor: /opt/spack/var/spack/environments/foo/spack.yaml: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	wrapped := WrapWithContext(fs.ErrNotExist, "hash environment", "foo")
	if !errors.Is(wrapped, fs.ErrNotExist) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if WrapWithContext(nil, "op", "res") != nil {
		t.Error("WrapWithContext(nil) should return nil")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("exit status 1")
	err := NewErrorContext().
		WithOperation("run command").
		WithResource("foo").
		WithSuggestion("Run 'spack env list'").
		WithSuggestion("Check SPACK_ROOT").
		Wrap(&wrapErr{msg: "activation failed", err: inner}).
		Build()

	plain := err.Format(false)
	for _, want := range []string{"failed to run command: foo", "• Run 'spack env list'", "• Check SPACK_ROOT"} {
		if !strings.Contains(plain, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, plain)
		}
	}
	if strings.Contains(plain, "Error chain") {
		t.Error("non-verbose output should not include the error chain")
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "1. activation failed", "2. exit status 1"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, verbose)
		}
	}
}

type wrapErr struct {
	msg string
	err error
}

func (e *wrapErr) Error() string { return e.msg }
func (e *wrapErr) Unwrap() error { return e.err }

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation should return untyped nil, got %v", err)
	}

	ae := NewErrorContext().WithOperation("decorate command").WithResource("foo").Build()
	if ae.Operation != "decorate command" || ae.Resource != "foo" {
		t.Errorf("Build() = %+v", ae)
	}
}
