// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
	ErrInvalidExitCode = errors.New("invalid exit code")
	// ErrCommandFailed is the sentinel error wrapped by ExitError.
	ErrCommandFailed = errors.New("command failed")
	// ErrRuntimeNotAvailable is returned when a runtime cannot run on this host.
	ErrRuntimeNotAvailable = errors.New("runtime not available")
	// ErrEmptyScript is returned when there is nothing to execute.
	ErrEmptyScript = errors.New("script has no content to execute")
	// ErrShellNotFound is returned when the native runtime finds no shell.
	ErrShellNotFound = errors.New("no shell found")
)

type (
	// ExitCode represents a process exit status code.
	// Exit codes are in the range 0-255 on POSIX systems.
	// The zero value (0) means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range (0-255).
	InvalidExitCodeError struct {
		Value ExitCode
	}

	// ExitError reports a script that ran but exited non-zero.
	ExitError struct {
		Code ExitCode
		// Stderr holds captured standard error, when the runtime captured it.
		Stderr string
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Error implements the error interface.
func (e *ExitError) Error() string {
	msg := "exit status " + e.Code.String()
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Unwrap returns ErrCommandFailed for errors.Is() compatibility.
func (e *ExitError) Unwrap() error { return ErrCommandFailed }

// Validate returns an *InvalidExitCodeError when the code is outside 0-255.
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
