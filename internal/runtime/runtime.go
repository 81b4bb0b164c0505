// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/google/uuid"
)

// Runtime type constants for different execution environments.
const (
	RuntimeTypeNative  RuntimeType = "native"
	RuntimeTypeVirtual RuntimeType = "virtual"

	// ExecutionIDEnvVar carries the execution ID into the script environment.
	ExecutionIDEnvVar = "SPACKENV_EXECUTION_ID"
)

type (
	// ExecutionContext contains all information needed to execute a script.
	ExecutionContext struct {
		// Context is the Go context for cancellation
		Context context.Context
		// Script is the shell script to run
		Script string
		// Stdout is where to write standard output
		Stdout io.Writer
		// Stderr is where to write standard error
		Stderr io.Writer
		// Stdin is where to read standard input
		Stdin io.Reader
		// ExtraEnv is added on top of the inherited process environment
		ExtraEnv map[string]string
		// WorkDir overrides the working directory
		WorkDir string
		// ExecutionID is a unique identifier for this execution.
		ExecutionID string
	}

	// Result contains the result of a script execution
	Result struct {
		// ExitCode is the exit code of the script
		ExitCode ExitCode
		// Error is set for failures other than a non-zero exit
		Error error
		// Output contains captured stdout (if captured)
		Output string
		// ErrOutput contains captured stderr (if captured)
		ErrOutput string
	}

	// Runtime defines the interface for script execution
	Runtime interface {
		// Name returns the runtime name
		Name() string
		// Execute runs a script in this runtime
		Execute(ctx *ExecutionContext) *Result
		// Available returns whether this runtime is available on the current system
		Available() bool
		// Validate checks if a script can be executed with this runtime
		Validate(ctx *ExecutionContext) error
	}

	// CapturingRuntime is implemented by runtimes that support capturing output.
	CapturingRuntime interface {
		// ExecuteCapture runs a script and captures stdout/stderr.
		ExecuteCapture(ctx *ExecutionContext) *Result
	}

	// RuntimeType identifies the type of runtime.
	//
	//nolint:revive // RuntimeType is more descriptive than Type for external callers
	RuntimeType string

	// Registry holds all available runtimes
	Registry struct {
		runtimes map[RuntimeType]Runtime
	}
)

// NewExecutionContext creates an execution context wired to the process stdio.
func NewExecutionContext(ctx context.Context, script string) *ExecutionContext {
	return &ExecutionContext{
		Context:     ctx,
		Script:      script,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Stdin:       os.Stdin,
		ExtraEnv:    make(map[string]string),
		ExecutionID: uuid.NewString(),
	}
}

// Success returns true if the script executed successfully
func (r *Result) Success() bool {
	return r.ExitCode.IsSuccess() && r.Error == nil
}

// Err returns nil on success, Error when set, and an *ExitError for a non-zero exit.
func (r *Result) Err() error {
	if r.Error != nil {
		return r.Error
	}
	if !r.ExitCode.IsSuccess() {
		return &ExitError{Code: r.ExitCode, Stderr: r.ErrOutput}
	}
	return nil
}

// NewRegistry creates a new runtime registry
func NewRegistry() *Registry {
	return &Registry{
		runtimes: make(map[RuntimeType]Runtime),
	}
}

// NewDefaultRegistry registers the native and virtual runtimes.
func NewDefaultRegistry(shell string) *Registry {
	r := NewRegistry()
	native := NewNativeRuntime()
	native.Shell = shell
	r.Register(RuntimeTypeNative, native)
	r.Register(RuntimeTypeVirtual, NewVirtualRuntime())
	return r
}

// Register adds a runtime to the registry
func (r *Registry) Register(typ RuntimeType, rt Runtime) {
	r.runtimes[typ] = rt
}

// Get returns a runtime by type
func (r *Registry) Get(typ RuntimeType) (Runtime, error) {
	rt, ok := r.runtimes[typ]
	if !ok {
		return nil, fmt.Errorf("runtime '%s' not registered", typ)
	}
	return rt, nil
}

// Available returns all available runtimes in lexical order
func (r *Registry) Available() []RuntimeType {
	var types []RuntimeType
	for typ, rt := range r.runtimes {
		if rt.Available() {
			types = append(types, typ)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Run checks that rt is available, validates ctx and executes it. With capture
// set, a CapturingRuntime collects stdout and stderr into the Result instead of
// streaming them; other runtimes stream as usual.
func Run(rt Runtime, ctx *ExecutionContext, capture bool) *Result {
	if !rt.Available() {
		return NewErrorResult(1, fmt.Errorf("%w: %s", ErrRuntimeNotAvailable, rt.Name()))
	}

	if err := rt.Validate(ctx); err != nil {
		return NewErrorResult(1, err)
	}

	if capturing, ok := rt.(CapturingRuntime); ok && capture {
		return capturing.ExecuteCapture(ctx)
	}
	return rt.Execute(ctx)
}

// EnvToSlice converts a map of environment variables to a sorted KEY=VALUE slice
func EnvToSlice(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// buildEnv returns the process environment with the context's extra variables
// and the execution ID appended, so they win over inherited values.
func buildEnv(ctx *ExecutionContext) []string {
	extra := make(map[string]string, len(ctx.ExtraEnv)+1)
	for k, v := range ctx.ExtraEnv {
		extra[k] = v
	}
	if ctx.ExecutionID != "" {
		extra[ExecutionIDEnvVar] = ctx.ExecutionID
	}
	return append(os.Environ(), EnvToSlice(extra)...)
}

// validateScript is shared by all runtimes.
func validateScript(ctx *ExecutionContext) error {
	if ctx == nil || ctx.Script == "" {
		return ErrEmptyScript
	}
	return nil
}

// execContext returns the context to run under, defaulting to Background.
func execContext(ctx *ExecutionContext) context.Context {
	if ctx.Context == nil {
		return context.Background()
	}
	return ctx.Context
}
