// SPDX-License-Identifier: MPL-2.0

package spack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/syntax"

	"github.com/invowk/spackenv/internal/runtime"
	"github.com/invowk/spackenv/pkg/sdm"
)

const (
	// DefaultExecutable is the spack command looked up on PATH.
	DefaultExecutable = "spack"
	// DescriptorFileName is the file name of a Spack environment descriptor.
	DescriptorFileName = "spack.yaml"

	activateCmd = "spack env activate"
)

// specPattern extracts the package name and a leading numeric version from a
// spec string such as "zlib@1.2.11" or "py-numpy@1.26+blas".
var specPattern = regexp.MustCompile(`^([^@^]+)@([\d.]+)`)

var (
	_ sdm.DeployableEnv  = (*Env)(nil)
	_ sdm.ArchiveableEnv = (*Env)(nil)
)

type (
	// Options configures an Env.
	Options struct {
		// Root is the Spack installation prefix ($SPACK_ROOT). Required.
		Root string
		// Executable is the spack command name or path. Defaults to "spack".
		Executable string
		// Logger receives debug output. Defaults to a discarding logger.
		Logger *log.Logger
		// Checker overrides the availability check. Defaults to DefaultChecker.
		Checker Checker
		// Runtime executes commands for RunCmd. Defaults to the native runtime.
		Runtime runtime.Runtime
		// SourceSetupEnv prefixes RunCmd scripts with Spack's setup-env.sh so the
		// spack shell function used by "spack env activate" is defined.
		SourceSetupEnv bool
		// CaptureOutput buffers RunCmd output. Stdout is copied to Stdout once the
		// command exits; stderr goes to Stderr on success and into the returned
		// *runtime.ExitError on failure.
		CaptureOutput bool
		// Stdout and Stderr receive RunCmd output. Default to the process streams.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Env is a handle on one Spack named environment.
	Env struct {
		spec   *EnvSpec
		opts   Options
		logger *log.Logger

		checkOnce sync.Once
		checkErr  error
	}

	descriptor struct {
		Spack struct {
			Specs []yaml.Node `yaml:"specs"`
		} `yaml:"spack"`
	}
)

// NewEnv creates a handle for spec and runs the availability check once.
// An empty Root fails with a MissingEnvVarError for SPACK_ROOT.
func NewEnv(ctx context.Context, spec *EnvSpec, opts Options) (*Env, error) {
	if spec == nil {
		return nil, &sdm.InvalidSpecError{Kind: Kind, Reason: "spec is nil"}
	}
	if opts.Root == "" {
		return nil, &MissingEnvVarError{Name: RootEnvVar}
	}
	if opts.Executable == "" {
		opts.Executable = DefaultExecutable
	}
	if opts.Checker == nil {
		opts.Checker = DefaultChecker
	}
	if opts.Runtime == nil {
		opts.Runtime = runtime.NewNativeRuntime()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	e := &Env{
		spec:   spec,
		opts:   opts,
		logger: logger.With("env", spec.Name()),
	}
	if err := e.Check(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Factory adapts NewEnv to an sdm.Factory for use with sdm.Registry.
func Factory(opts Options) sdm.Factory {
	return func(ctx context.Context, spec sdm.EnvSpec) (sdm.Env, error) {
		s, ok := spec.(*EnvSpec)
		if !ok {
			return nil, &sdm.InvalidSpecError{Kind: Kind, Reason: fmt.Sprintf("unexpected spec kind %q", spec.Kind())}
		}
		return NewEnv(ctx, s, opts)
	}
}

// Spec returns the wrapped spec.
func (e *Env) Spec() sdm.EnvSpec { return e.spec }

// Name returns the environment name.
func (e *Env) Name() string { return e.spec.Name() }

// Root returns the Spack root the handle was built with.
func (e *Env) Root() string { return e.opts.Root }

// Check runs the availability check on first call and returns its stored
// outcome on every later call.
func (e *Env) Check(ctx context.Context) error {
	e.checkOnce.Do(func() {
		e.checkErr = e.opts.Checker(ctx, e.opts.Root, e.opts.Executable)
		if e.checkErr != nil {
			e.logger.Debug("spack check failed", "root", e.opts.Root, "err", e.checkErr)
		} else {
			e.logger.Debug("spack check passed", "root", e.opts.Root)
		}
	})
	return e.checkErr
}

// DescriptorPath returns <root>/var/spack/environments/<name>/spack.yaml.
func (e *Env) DescriptorPath() string {
	return filepath.Join(e.opts.Root, "var", "spack", "environments", e.spec.Name(), DescriptorFileName)
}

// DecorateShellCmd prefixes cmd with the activation of this environment.
// The name is spliced verbatim; NewEnvSpec only admits names free of shell
// metacharacters.
func (e *Env) DecorateShellCmd(cmd string) string {
	return activateCmd + " " + e.spec.Name() + " && " + cmd
}

// RecordHash streams the raw descriptor bytes into w.
func (e *Env) RecordHash(w io.Writer) error {
	f, err := e.openDescriptor()
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := io.Copy(w, f)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", f.Name(), err)
	}
	e.logger.Debug("recorded descriptor hash", "path", f.Name(), "bytes", n)
	return nil
}

// ReportSoftware returns the name and version of every spec string in
// spack.specs that pins a numeric version, in file order.
func (e *Env) ReportSoftware() ([]sdm.SoftwareReport, error) {
	f, err := e.openDescriptor()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var desc descriptor
	if err := yaml.NewDecoder(f).Decode(&desc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w %s: %w", ErrDescriptorParse, f.Name(), err)
	}

	reports := make([]sdm.SoftwareReport, 0, len(desc.Spack.Specs))
	for i := range desc.Spack.Specs {
		node := &desc.Spack.Specs[i]
		if node.Kind == yaml.AliasNode && node.Alias != nil {
			node = node.Alias
		}
		if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!str" {
			e.logger.Debug("skipping non-string spec entry", "line", node.Line)
			continue
		}
		m := specPattern.FindStringSubmatch(node.Value)
		if m == nil {
			e.logger.Debug("skipping spec without version", "spec", node.Value)
			continue
		}
		reports = append(reports, sdm.SoftwareReport{Name: m[1], Version: m[2]})
	}
	return reports, nil
}

// RunCmd runs cmd through the configured runtime and fails with a
// *runtime.ExitError when it exits non-zero, or with
// runtime.ErrRuntimeNotAvailable when the runtime cannot run on this host.
func (e *Env) RunCmd(ctx context.Context, cmd string) error {
	script := cmd
	if e.opts.SourceSetupEnv {
		setup, err := syntax.Quote(filepath.Join(e.opts.Root, "share", "spack", "setup-env.sh"), syntax.LangBash)
		if err != nil {
			return fmt.Errorf("cannot quote spack setup script path: %w", err)
		}
		script = ". " + setup + " && " + cmd
	}

	execCtx := runtime.NewExecutionContext(ctx, script)
	execCtx.Stdout = e.opts.Stdout
	execCtx.Stderr = e.opts.Stderr
	execCtx.ExtraEnv[RootEnvVar] = e.opts.Root

	e.logger.Debug("running command", "runtime", e.opts.Runtime.Name(), "execution_id", execCtx.ExecutionID, "capture", e.opts.CaptureOutput)
	result := runtime.Run(e.opts.Runtime, execCtx, e.opts.CaptureOutput)
	if e.opts.CaptureOutput {
		if _, err := io.WriteString(e.opts.Stdout, result.Output); err != nil {
			return fmt.Errorf("failed to write command output: %w", err)
		}
		if result.Success() {
			if _, err := io.WriteString(e.opts.Stderr, result.ErrOutput); err != nil {
				return fmt.Errorf("failed to write command output: %w", err)
			}
		}
	}
	return result.Err()
}

// Capabilities returns the empty set; Spack environments are used as they are.
func (e *Env) Capabilities() sdm.Capabilities { return sdm.Capabilities{} }

// Deploy is not supported.
func (e *Env) Deploy(context.Context) error { return e.notSupported("deploy") }

// Remove is not supported.
func (e *Env) Remove(context.Context) error { return e.notSupported("remove") }

// Archive is not supported.
func (e *Env) Archive(context.Context) error { return e.notSupported("archive") }

// IsDeploymentPathPortable reports false; Spack installs embed absolute paths.
func (e *Env) IsDeploymentPathPortable() bool { return false }

func (e *Env) notSupported(op string) error {
	return fmt.Errorf("spack environment %s: %s: %w", e.spec.Name(), op, sdm.ErrNotSupported)
}

func (e *Env) openDescriptor() (*os.File, error) {
	path := e.DescriptorPath()
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &DescriptorNotFoundError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}
