// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/syntax"

	"github.com/invowk/spackenv/internal/config"
	"github.com/invowk/spackenv/internal/issue"
	"github.com/invowk/spackenv/internal/runtime"
	"github.com/invowk/spackenv/internal/spack"
	"github.com/invowk/spackenv/pkg/sdm"
)

// session is the per-invocation state derived from flags and configuration.
type session struct {
	app      *App
	cfg      *config.Config
	specs    []sdm.SettingSpec
	settings sdm.Settings
	logger   *log.Logger
	verbose  bool
}

// loadOptions returns the config loading options selected by --config.
func (f *rootFlags) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: f.cfgFile}
}

// flagValues returns the --sdm-spack-* flags that were set explicitly.
func (f *rootFlags) flagValues(cmd *cobra.Command) map[string]string {
	values := make(map[string]string)
	for name, val := range f.settings {
		if cmd.Flags().Changed(sdm.SettingSpec{Name: name}.FlagName(spack.PluginName)) {
			values[name] = *val
		}
	}
	return values
}

// newSession loads configuration and resolves the plugin settings.
func (a *App) newSession(cmd *cobra.Command, flags *rootFlags) (*session, error) {
	cfg, err := a.Config.Load(cmd.Context(), flags.loadOptions())
	if err != nil {
		return nil, a.serviceError(err, flags.verbose, "")
	}

	verbose := flags.verbose || cfg.UI.Verbose
	logger := newLogger(a.stderr, verbose)
	style := string(cfg.UI.ColorScheme)

	specs := spack.SettingSpecs(cfg.SpackRoot.String(), cfg.SpackExecutable)
	settings, err := sdm.ResolveSettings(spack.PluginName, specs, flags.flagValues(cmd), a.LookupEnv)
	if err != nil {
		return nil, a.serviceError(err, verbose, style)
	}
	logger.Debug("resolved settings", "root", settings.String(spack.SettingRoot), "executable", settings.String(spack.SettingExecutable))

	return &session{
		app:      a,
		cfg:      cfg,
		specs:    specs,
		settings: settings,
		logger:   logger,
		verbose:  verbose,
	}, nil
}

// serviceError classifies err and wraps it for rendering.
func (a *App) serviceError(err error, verbose bool, style string) error {
	issueID, msg := classifyError(err, verbose)
	return newServiceError(err, issueID, msg, style)
}

// fail wraps err with the session's verbosity and color scheme.
func (s *session) fail(err error) error {
	return s.app.serviceError(err, s.verbose, string(s.cfg.UI.ColorScheme))
}

// failIn wraps err in an ActionableError naming the operation and resource,
// with remediation hints for the environment env, then classifies it.
func (s *session) failIn(env, operation, resource string, err error) error {
	ec := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		Wrap(err)
	for _, sug := range suggestionsFor(err, env) {
		ec.WithSuggestion(sug)
	}
	return s.fail(ec.BuildError())
}

func suggestionsFor(err error, env string) []string {
	switch {
	case errors.Is(err, spack.ErrMissingEnvVar):
		return []string{"Export SPACK_ROOT or pass --sdm-spack-root <dir>"}
	case errors.Is(err, spack.ErrRootNotFound):
		return []string{"Point SPACK_ROOT at an existing Spack checkout"}
	case errors.Is(err, spack.ErrSpackNotFound):
		return []string{
			"Add $SPACK_ROOT/bin to PATH",
			"Or set spack_executable in the config file",
		}
	case errors.Is(err, spack.ErrInvalidEnvName), errors.Is(err, sdm.ErrInvalidSpec):
		return []string{"Environment names may only contain letters, digits, '.', '_' and '-'"}
	case errors.Is(err, spack.ErrDescriptorNotFound):
		return []string{
			fmt.Sprintf("Create the environment with 'spack env create %s'", env),
			"List existing environments with 'spack env list'",
		}
	case errors.Is(err, spack.ErrDescriptorParse):
		return []string{"Fix the YAML syntax in spack.yaml"}
	case errors.Is(err, runtime.ErrShellNotFound), errors.Is(err, runtime.ErrRuntimeNotAvailable):
		return []string{"Set 'shell' in the config file or pass --runtime virtual"}
	case errors.Is(err, runtime.ErrCommandFailed):
		return []string{fmt.Sprintf("Check that 'spack env activate %s' works in an interactive shell", env)}
	}
	return nil
}

// runtimeFor returns the runtime named by mode, or the configured default.
// Runtimes that cannot run on this host are rejected.
func (s *session) runtimeFor(mode string) (runtime.Runtime, error) {
	if mode == "" {
		mode = s.cfg.DefaultRuntime.String()
	}
	if valid, errs := config.RuntimeMode(mode).IsValid(); !valid {
		return nil, errs[0]
	}

	reg := runtime.NewDefaultRegistry(s.cfg.Shell)
	typ := runtime.RuntimeType(mode)
	if avail := reg.Available(); !slices.Contains(avail, typ) {
		names := make([]string, len(avail))
		for i, t := range avail {
			names[i] = string(t)
		}
		return nil, fmt.Errorf("%w: %s (available: %s)", runtime.ErrRuntimeNotAvailable, mode, strings.Join(names, ", "))
	}
	return reg.Get(typ)
}

// openEnv builds the handle for name. Construction runs the availability check.
func (s *session) openEnv(ctx context.Context, name string, rt runtime.Runtime) (*spack.Env, error) {
	return s.openEnvWith(ctx, name, rt, false)
}

func (s *session) openEnvWith(ctx context.Context, name string, rt runtime.Runtime, capture bool) (*spack.Env, error) {
	spec, err := spack.NewEnvSpec(name)
	if err != nil {
		return nil, s.failIn(name, "open spack environment", name, err)
	}

	opts := spack.OptionsFromSettings(s.settings, spack.Options{
		Logger:         s.logger,
		Checker:        s.app.Checker,
		Runtime:        rt,
		SourceSetupEnv: s.cfg.SourceSetupEnv,
		CaptureOutput:  capture,
		Stdout:         s.app.stdout,
		Stderr:         s.app.stderr,
	})
	env, err := spack.NewEnv(ctx, spec, opts)
	if err != nil {
		return nil, s.failIn(name, "open spack environment", name, err)
	}
	return env, nil
}

// shellCommand joins command-line arguments into a script. A single argument
// is taken as a script verbatim; otherwise every argument after the first is
// shell-quoted so it reaches the command as one word.
func shellCommand(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	words := make([]string, len(args))
	words[0] = args[0]
	for i, arg := range args[1:] {
		quoted, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("cannot quote argument %q: %w", arg, err)
		}
		words[i+1] = quoted
	}
	return strings.Join(words, " "), nil
}
