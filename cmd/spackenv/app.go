// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"os"

	"github.com/invowk/spackenv/internal/config"
	"github.com/invowk/spackenv/internal/spack"
)

type (
	// App wires CLI services and shared dependencies. Cobra handlers receive an
	// App reference instead of reading package globals.
	App struct {
		Config    config.Provider
		Checker   spack.Checker
		LookupEnv func(string) (string, bool)
		stdout    io.Writer
		stderr    io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		// Checker overrides the Spack availability check.
		Checker spack.Checker
		// LookupEnv resolves SDM_SPACK_* variables. Defaults to os.LookupEnv.
		LookupEnv func(string) (string, bool)
		Stdout    io.Writer
		Stderr    io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Checker == nil {
		deps.Checker = spack.DefaultChecker
	}
	if deps.LookupEnv == nil {
		deps.LookupEnv = os.LookupEnv
	}

	return &App{
		Config:    deps.Config,
		Checker:   deps.Checker,
		LookupEnv: deps.LookupEnv,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
}
