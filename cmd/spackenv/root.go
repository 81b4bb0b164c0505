// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/invowk/spackenv/internal/config"
	"github.com/invowk/spackenv/internal/spack"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	verbose bool
	cfgFile string
	// settings holds --sdm-spack-<name> values keyed by setting name.
	settings map[string]*string
}

// NewRootCommand builds the spackenv command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{settings: make(map[string]*string)}

	rootCmd := &cobra.Command{
		Use:   "spackenv",
		Short: "Run workflow commands inside Spack named environments",
		Long: TitleStyle.Render("spackenv") + SubtitleStyle.Render(" - Spack environments for workflow steps") + `

spackenv locates a Spack named environment, wraps shell commands with
'spack env activate', hashes the environment definition and reports the
package versions it pins.

` + SubtitleStyle.Render("Examples:") + `
  spackenv check myenv                 Verify Spack and the environment root
  spackenv report myenv                List pinned packages
  spackenv hash myenv                  Print the sha256 of spack.yaml
  spackenv run myenv -- python -V      Run a command in the environment
  spackenv config show                 Show current configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&flags.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/spackenv/config.cue)")
	for _, spec := range spack.SettingSpecs("", "") {
		help := spec.Help
		if spec.EnvVar {
			help += fmt.Sprintf(" (env %s)", spec.EnvVarName(spack.PluginName))
		}
		flags.settings[spec.Name] = pf.String(spec.FlagName(spack.PluginName), "", help)
	}

	rootCmd.AddCommand(
		newCheckCommand(app, flags),
		newPathCommand(app, flags),
		newDecorateCommand(app, flags),
		newHashCommand(app, flags),
		newReportCommand(app, flags),
		newRunCommand(app, flags),
		newSettingsCommand(app, flags),
		newConfigCommand(app, flags),
		newCompletionCommand(),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// errorHandler renders ServiceErrors with their catalog entry and falls back
// to fang's default output for everything else.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		renderServiceError(w, svcErr)
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// newLogger returns the CLI logger. Debug output is enabled by --verbose or
// ui.verbose.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Level:  log.WarnLevel,
		Prefix: config.AppName,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
