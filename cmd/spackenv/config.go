// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/invowk/spackenv/internal/config"
)

// newConfigCommand creates the `spackenv config` command tree.
func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage spackenv configuration",
		Long: `Manage spackenv configuration.

Configuration is stored in:
  - Linux: ~/.config/spackenv/config.cue
  - macOS: ~/Library/Application Support/spackenv/config.cue
  - Windows: %APPDATA%\spackenv\config.cue

SPACK_ROOT, when set, overrides spack_root.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app, flags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig(flags.loadOptions())
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _, err := config.FilePath(flags.loadOptions())
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd, app, flags, args[0], args[1])
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), flags.loadOptions())
			if err != nil {
				return app.serviceError(err, flags.verbose, "")
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App, flags *rootFlags) error {
	cfg, err := app.Config.Load(cmd.Context(), flags.loadOptions())
	if err != nil {
		return app.serviceError(err, flags.verbose, "")
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	out := app.stdout

	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)

	path, exists, err := config.FilePath(flags.loadOptions())
	if err == nil && exists {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(out)

	root := valueStyle.Render(cfg.SpackRoot.String())
	if cfg.SpackRoot == "" {
		root = SubtitleStyle.Render("(unset)")
	}
	shell := valueStyle.Render(cfg.Shell)
	if cfg.Shell == "" {
		shell = SubtitleStyle.Render("(auto)")
	}
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("spack_root"), root)
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("spack_executable"), valueStyle.Render(cfg.SpackExecutable))
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("default_runtime"), valueStyle.Render(cfg.DefaultRuntime.String()))
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("shell"), shell)
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("source_setup_env"), valueStyle.Render(fmt.Sprintf("%v", cfg.SourceSetupEnv)))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(out, "  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(out, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

// configKeys lists the keys accepted by 'config set'.
const configKeys = "spack_root, spack_executable, default_runtime, shell, source_setup_env, ui.color_scheme, ui.verbose"

func setConfigValue(cmd *cobra.Command, app *App, flags *rootFlags, key, value string) error {
	cfg, err := app.Config.Load(cmd.Context(), flags.loadOptions())
	if err != nil {
		return app.serviceError(err, flags.verbose, "")
	}

	switch key {
	case "spack_root":
		cfg.SpackRoot = config.SpackRootPath(value)
	case "spack_executable":
		if value == "" {
			return errors.New("spack_executable must not be empty")
		}
		cfg.SpackExecutable = value
	case "default_runtime":
		cfg.DefaultRuntime = config.RuntimeMode(value)
	case "shell":
		cfg.Shell = value
	case "source_setup_env", "ui.verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: must be true or false", key, value)
		}
		if key == "ui.verbose" {
			cfg.UI.Verbose = b
		} else {
			cfg.SourceSetupEnv = b
		}
	case "ui.color_scheme":
		cfg.UI.ColorScheme = config.ColorScheme(value)
	default:
		return fmt.Errorf("unknown configuration key: %s\nValid keys: %s", key, configKeys)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return errors.Join(errs...)
	}
	if err := config.Save(flags.loadOptions(), cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(app.stdout, "%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}
