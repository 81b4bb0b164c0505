// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/invowk/spackenv/internal/runtime"
	"github.com/invowk/spackenv/internal/spack"
	"github.com/invowk/spackenv/pkg/sdm"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func newCheckCommand(app *App, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check <env>",
		Short: "Verify that Spack is usable for an environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return err
			}
			env, err := s.openEnv(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s spack is available (root: %s)\n", SuccessStyle.Render("✓"), env.Root())
			if _, err := os.Stat(env.DescriptorPath()); err != nil {
				fmt.Fprintf(app.stdout, "%s environment %s has no %s\n", WarningStyle.Render("!"), env.Name(), env.DescriptorPath())
			}
			return nil
		},
	}
}

func newPathCommand(app *App, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "path <env>",
		Short: "Print the spack.yaml path of an environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return err
			}
			env, err := s.openEnv(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, env.DescriptorPath())
			return nil
		},
	}
}

func newDecorateCommand(app *App, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "decorate <env> -- <command...>",
		Short: "Print a command wrapped with environment activation",
		Long: `Print a command wrapped with environment activation.

A single command argument is used as a shell script verbatim. With several
arguments, every argument after the first is shell-quoted:

  spackenv decorate foo -- 'make -j4 && make install'
  spackenv decorate foo -- sh -c 'echo a b'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := shellCommand(args[1:])
			if err != nil {
				return err
			}
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return err
			}
			env, err := s.openEnv(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, env.DecorateShellCmd(script))
			return nil
		},
	}
}

func newHashCommand(app *App, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "hash <env>",
		Short: "Print the sha256 of an environment's spack.yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return err
			}
			env, err := s.openEnv(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			h := sha256.New()
			if err := env.RecordHash(h); err != nil {
				return s.failIn(env.Name(), "hash environment descriptor", env.DescriptorPath(), err)
			}
			fmt.Fprintln(app.stdout, hex.EncodeToString(h.Sum(nil)))
			return nil
		},
	}
}

func newReportCommand(app *App, flags *rootFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <env>",
		Short: "List the package versions pinned by an environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatTable && format != formatJSON {
				return fmt.Errorf("invalid --format %q: must be %q or %q", format, formatTable, formatJSON)
			}
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return err
			}
			env, err := s.openEnv(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			reports, err := env.ReportSoftware()
			if err != nil {
				return s.failIn(env.Name(), "report software", env.DescriptorPath(), err)
			}

			if format == formatJSON {
				enc := json.NewEncoder(app.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}
			if len(reports) == 0 {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("(no pinned packages)"))
				return nil
			}
			fmt.Fprintln(app.stdout, renderReportTable(reports))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", formatTable, "output format (table or json)")
	return cmd
}

// renderReportTable renders reports as a two-column table.
func renderReportTable(reports []sdm.SoftwareReport) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
		Headers("PACKAGE", "VERSION").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	for _, r := range reports {
		t.Row(r.Name, r.Version)
	}
	return t.String()
}

func newRunCommand(app *App, flags *rootFlags) *cobra.Command {
	var (
		runtimeMode string
		capture     bool
	)

	cmd := &cobra.Command{
		Use:   "run <env> -- <command...>",
		Short: "Run a command inside an environment",
		Long: `Run a command inside a Spack environment.

The command is wrapped with 'spack env activate <env> &&'. When
source_setup_env is enabled, Spack's setup-env.sh is sourced first so the
activation has shell integration. Command arguments are joined as for
'decorate'.

With --capture, output is buffered and the standard error of a failing
command is shown in the error report instead of streaming.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := shellCommand(args[1:])
			if err != nil {
				return err
			}
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return err
			}
			rt, err := s.runtimeFor(runtimeMode)
			if err != nil {
				return s.failIn(args[0], "select runtime", runtimeMode, err)
			}
			env, err := s.openEnvWith(cmd.Context(), args[0], rt, capture)
			if err != nil {
				return err
			}

			err = env.RunCmd(cmd.Context(), env.DecorateShellCmd(script))
			var exitErr *runtime.ExitError
			if errors.As(err, &exitErr) {
				if strings.TrimSpace(exitErr.Stderr) == "" {
					// The command already reported on the terminal.
					return &ExitError{Code: exitErr.Code}
				}
				return &ExitError{Code: exitErr.Code, Err: s.failIn(env.Name(), "run command", script, err)}
			}
			if err != nil {
				return s.failIn(env.Name(), "run command", script, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runtimeMode, "runtime", "", "runtime to use (native or virtual; default from config)")
	cmd.Flags().BoolVar(&capture, "capture", false, "buffer output and report stderr of a failing command")
	return cmd
}

func newSettingsCommand(app *App, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show resolved Spack plugin settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return err
			}
			values := s.settings.Unparse(s.specs)
			for _, spec := range s.specs {
				val, ok := values[spec.Name]
				if !ok {
					val = SubtitleStyle.Render("(unset)")
				}
				fmt.Fprintf(app.stdout, "%s: %s\n", CmdStyle.Render(spec.Name), val)
				source := "--" + spec.FlagName(spack.PluginName)
				if spec.EnvVar {
					source += ", $" + spec.EnvVarName(spack.PluginName)
				}
				fmt.Fprintf(app.stdout, "  %s\n", VerboseStyle.Render(source))
			}
			return nil
		},
	}
}
