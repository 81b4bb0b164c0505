// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRuntime executes scripts using the embedded mvdan/sh interpreter.
// External programs such as spack are still executed as host processes.
type VirtualRuntime struct{}

// NewVirtualRuntime creates a new virtual runtime
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{}
}

// Name returns the runtime name
func (r *VirtualRuntime) Name() string {
	return string(RuntimeTypeVirtual)
}

// Available returns true; the interpreter is built in
func (r *VirtualRuntime) Available() bool {
	return true
}

// Validate checks that the script is non-empty and parses
func (r *VirtualRuntime) Validate(ctx *ExecutionContext) error {
	if err := validateScript(ctx); err != nil {
		return err
	}
	if _, err := parseScript(ctx.Script); err != nil {
		return fmt.Errorf("script syntax error: %w", err)
	}
	return nil
}

// Execute runs a script with the interpreter, streaming its output
func (r *VirtualRuntime) Execute(ctx *ExecutionContext) *Result {
	return r.run(ctx, newStreamingOutput(ctx.Stdout, ctx.Stderr), nil)
}

// ExecuteCapture runs a script and captures its output
func (r *VirtualRuntime) ExecuteCapture(ctx *ExecutionContext) *Result {
	out, captured := newCapturingOutput()
	return r.run(ctx, out, captured)
}

func (r *VirtualRuntime) run(ctx *ExecutionContext, out *executeOutput, captured *capturedOutput) *Result {
	prog, err := parseScript(ctx.Script)
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to parse script: %w", err))
	}

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(buildEnv(ctx)...)),
		interp.StdIO(ctx.Stdin, out.stdout, out.stderr),
	}
	if captured != nil {
		opts[1] = interp.StdIO(nil, out.stdout, out.stderr)
	}
	if ctx.WorkDir != "" {
		opts = append(opts, interp.Dir(ctx.WorkDir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to create interpreter: %w", err))
	}

	result := &Result{}
	runErr := runner.Run(execContext(ctx), prog)
	if captured != nil {
		result.Output = captured.stdout.String()
		result.ErrOutput = captured.stderr.String()
	}
	if runErr != nil {
		var exitStatus interp.ExitStatus
		if errors.As(runErr, &exitStatus) {
			result.ExitCode = ExitCode(exitStatus)
			return result
		}
		result.ExitCode = 1
		result.Error = fmt.Errorf("script execution failed: %w", runErr)
	}
	return result
}

func parseScript(script string) (*syntax.File, error) {
	return syntax.NewParser().Parse(strings.NewReader(script), "script")
}
