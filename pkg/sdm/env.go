// SPDX-License-Identifier: MPL-2.0

package sdm

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
)

const (
	// Deployable marks handles that can create and remove their environment.
	Deployable Capability = "deployable"
	// Archiveable marks handles that can archive their environment.
	Archiveable Capability = "archiveable"
)

// ErrNotSupported is returned by lifecycle operations a handle does not implement.
var ErrNotSupported = errors.New("operation not supported by this environment")

type (
	// Capability is an optional lifecycle feature of an environment handle.
	Capability string

	// Capabilities is the set of optional features a handle declares.
	Capabilities []Capability

	// Env is a handle on one environment described by an EnvSpec.
	Env interface {
		// Spec returns the spec this handle wraps.
		Spec() EnvSpec
		// Check verifies that the backing tool is usable. Implementations run the
		// underlying check at most once and return the same outcome afterwards.
		Check(ctx context.Context) error
		// DecorateShellCmd returns cmd prefixed so that it runs inside the environment.
		DecorateShellCmd(cmd string) string
		// RecordHash writes the environment definition into a hash accumulator.
		RecordHash(w io.Writer) error
		// ReportSoftware lists the software provided by the environment.
		ReportSoftware() ([]SoftwareReport, error)
		// Capabilities returns the optional lifecycle features of the handle.
		Capabilities() Capabilities
	}

	// DeployableEnv is implemented by handles declaring the Deployable capability.
	DeployableEnv interface {
		Env
		Deploy(ctx context.Context) error
		Remove(ctx context.Context) error
		IsDeploymentPathPortable() bool
	}

	// ArchiveableEnv is implemented by handles declaring the Archiveable capability.
	ArchiveableEnv interface {
		Env
		Archive(ctx context.Context) error
	}
)

// Has reports whether the set contains c.
func (c Capabilities) Has(capability Capability) bool {
	return slices.Contains(c, capability)
}

// String returns a comma separated list, or "none" for the empty set.
func (c Capabilities) String() string {
	if len(c) == 0 {
		return "none"
	}
	names := make([]string, len(c))
	for i, capability := range c {
		names[i] = string(capability)
	}
	return strings.Join(names, ", ")
}

// AsDeployable returns env as a DeployableEnv when it declares the capability.
func AsDeployable(env Env) (DeployableEnv, bool) {
	if !env.Capabilities().Has(Deployable) {
		return nil, false
	}
	d, ok := env.(DeployableEnv)
	return d, ok
}

// AsArchiveable returns env as an ArchiveableEnv when it declares the capability.
func AsArchiveable(env Env) (ArchiveableEnv, bool) {
	if !env.Capabilities().Has(Archiveable) {
		return nil, false
	}
	a, ok := env.(ArchiveableEnv)
	return a, ok
}
