// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"
	"os"
	"os/exec"
)

// NativeRuntime executes scripts using the host shell
type NativeRuntime struct {
	// Shell overrides the default shell
	Shell string
	// ShellArgs are arguments passed to the shell before the script
	ShellArgs []string
}

// NewNativeRuntime creates a new native runtime
func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{}
}

// Name returns the runtime name
func (r *NativeRuntime) Name() string {
	return string(RuntimeTypeNative)
}

// Available returns whether a shell can be found
func (r *NativeRuntime) Available() bool {
	_, err := r.getShell()
	return err == nil
}

// Validate checks if a script can be executed
func (r *NativeRuntime) Validate(ctx *ExecutionContext) error {
	return validateScript(ctx)
}

// Execute runs a script with the host shell, streaming its output
func (r *NativeRuntime) Execute(ctx *ExecutionContext) *Result {
	out := newStreamingOutput(ctx.Stdout, ctx.Stderr)
	return r.run(ctx, out, nil)
}

// ExecuteCapture runs a script and captures its output
func (r *NativeRuntime) ExecuteCapture(ctx *ExecutionContext) *Result {
	out, captured := newCapturingOutput()
	return r.run(ctx, out, captured)
}

func (r *NativeRuntime) run(ctx *ExecutionContext, out *executeOutput, captured *capturedOutput) *Result {
	shell, err := r.getShell()
	if err != nil {
		return NewErrorResult(1, err)
	}

	args := append(r.getShellArgs(), ctx.Script)
	cmd := exec.CommandContext(execContext(ctx), shell, args...)
	cmd.Dir = ctx.WorkDir
	cmd.Env = buildEnv(ctx)
	cmd.Stdout = out.stdout
	cmd.Stderr = out.stderr
	if captured == nil {
		cmd.Stdin = ctx.Stdin
	}

	runErr := cmd.Run()
	if ctxErr := execContext(ctx).Err(); runErr != nil && ctxErr != nil {
		return NewErrorResult(1, fmt.Errorf("script canceled: %w", ctxErr))
	}
	return extractExitCode(runErr, captured)
}

// getShell determines which shell to use
func (r *NativeRuntime) getShell() (string, error) {
	if r.Shell != "" {
		path, err := exec.LookPath(r.Shell)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrShellNotFound, r.Shell, err)
		}
		return path, nil
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		if path, err := exec.LookPath(shell); err == nil {
			return path, nil
		}
	}
	for _, candidate := range []string{"bash", "sh"} {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", ErrShellNotFound
}

// getShellArgs returns the arguments to pass to the shell before the script
func (r *NativeRuntime) getShellArgs() []string {
	if len(r.ShellArgs) > 0 {
		return append([]string(nil), r.ShellArgs...)
	}
	return []string{"-c"}
}
