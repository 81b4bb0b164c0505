// SPDX-License-Identifier: MPL-2.0

package spack

import (
	"errors"
	"fmt"

	"github.com/invowk/spackenv/pkg/sdm"
)

var (
	// ErrInvalidEnvName is the sentinel error wrapped by InvalidEnvNameError.
	ErrInvalidEnvName = errors.New("invalid spack environment name")
	// ErrMissingEnvVar is the sentinel error wrapped by MissingEnvVarError.
	ErrMissingEnvVar = errors.New("required environment variable not set")
	// ErrSpackNotFound is the sentinel error wrapped by SpackNotFoundError.
	ErrSpackNotFound = errors.New("spack executable not found")
	// ErrRootNotFound is the sentinel error wrapped by RootNotFoundError.
	ErrRootNotFound = errors.New("spack root not found")
	// ErrDescriptorNotFound is the sentinel error wrapped by DescriptorNotFoundError.
	ErrDescriptorNotFound = errors.New("spack environment descriptor not found")
	// ErrDescriptorParse is returned when spack.yaml is not valid YAML.
	ErrDescriptorParse = errors.New("failed to parse spack environment descriptor")
)

type (
	// InvalidEnvNameError is returned when an environment name is not a safe
	// Spack environment name. It also matches sdm.ErrInvalidSpec.
	InvalidEnvNameError struct {
		Name string
	}

	// MissingEnvVarError is returned when a required environment variable,
	// such as SPACK_ROOT, is unset.
	MissingEnvVarError struct {
		Name string
	}

	// SpackNotFoundError is returned when the spack executable cannot be resolved.
	SpackNotFoundError struct {
		Executable string
		Root       string
	}

	// RootNotFoundError is returned when the Spack root is not a directory.
	RootNotFoundError struct {
		Path string
		Err  error
	}

	// DescriptorNotFoundError is returned when spack.yaml does not exist.
	// It matches both ErrDescriptorNotFound and the underlying fs error.
	DescriptorNotFoundError struct {
		Path string
		Err  error
	}
)

func (e *InvalidEnvNameError) Error() string {
	return fmt.Sprintf("invalid spack environment name %q: must match %s", e.Name, envNamePattern)
}

// Unwrap returns both the package sentinel and sdm.ErrInvalidSpec.
func (e *InvalidEnvNameError) Unwrap() []error {
	return []error{ErrInvalidEnvName, sdm.ErrInvalidSpec}
}

func (e *MissingEnvVarError) Error() string {
	return fmt.Sprintf("environment variable %s is not set", e.Name)
}

// Unwrap returns ErrMissingEnvVar for errors.Is() compatibility.
func (e *MissingEnvVarError) Unwrap() error { return ErrMissingEnvVar }

func (e *SpackNotFoundError) Error() string {
	return fmt.Sprintf("spack executable %q not found in PATH or under %s", e.Executable, e.Root)
}

// Unwrap returns ErrSpackNotFound for errors.Is() compatibility.
func (e *SpackNotFoundError) Unwrap() error { return ErrSpackNotFound }

func (e *RootNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("spack root %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("spack root %s is not a directory", e.Path)
}

// Unwrap returns ErrRootNotFound and the underlying stat error, if any.
func (e *RootNotFoundError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRootNotFound}
	}
	return []error{ErrRootNotFound, e.Err}
}

func (e *DescriptorNotFoundError) Error() string {
	return fmt.Sprintf("spack environment descriptor %s not found", e.Path)
}

// Unwrap returns ErrDescriptorNotFound and the underlying fs error.
func (e *DescriptorNotFoundError) Unwrap() []error {
	return []error{ErrDescriptorNotFound, e.Err}
}
