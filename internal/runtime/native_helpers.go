// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"errors"
	"io"
	"os/exec"
)

type (
	// executeOutput configures where script output is directed during execution.
	// It abstracts the difference between streaming (to ctx.Stdout/Stderr) and
	// capturing (to bytes.Buffer) execution modes.
	executeOutput struct {
		stdout io.Writer
		stderr io.Writer
	}

	// capturedOutput holds the captured stdout and stderr buffers.
	capturedOutput struct {
		stdout bytes.Buffer
		stderr bytes.Buffer
	}
)

// newStreamingOutput streams to the provided writers.
func newStreamingOutput(stdout, stderr io.Writer) *executeOutput {
	return &executeOutput{stdout: stdout, stderr: stderr}
}

// newCapturingOutput captures to internal buffers and returns them alongside.
func newCapturingOutput() (*executeOutput, *capturedOutput) {
	captured := &capturedOutput{}
	return &executeOutput{
		stdout: &captured.stdout,
		stderr: &captured.stderr,
	}, captured
}

// extractExitCode turns a process error into a Result, carrying captured output.
func extractExitCode(err error, captured *capturedOutput) *Result {
	result := &Result{}

	if captured != nil {
		result.Output = captured.stdout.String()
		result.ErrOutput = captured.stderr.String()
	}

	if err == nil {
		return result
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The process ran and returned non-zero. A signal-terminated process
		// reports -1, which is folded into a generic failure.
		code := ExitCode(exitErr.ExitCode())
		if validateErr := code.Validate(); validateErr != nil {
			result.ExitCode = 1
			result.Error = validateErr
			return result
		}
		result.ExitCode = code
		return result
	}

	result.ExitCode = 1
	result.Error = err
	return result
}
