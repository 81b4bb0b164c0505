// SPDX-License-Identifier: MPL-2.0

package spack

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
)

// Checker verifies that Spack is usable for the given root and executable.
type Checker func(ctx context.Context, root, executable string) error

// DefaultChecker verifies that root is a directory and that the spack
// executable resolves either on PATH or at <root>/bin/spack.
func DefaultChecker(ctx context.Context, root, executable string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(root)
	if err != nil {
		return &RootNotFoundError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return &RootNotFoundError{Path: root}
	}

	if _, err := ResolveExecutable(root, executable); err != nil {
		return err
	}
	return nil
}

// ResolveExecutable returns the path of the spack executable. An executable
// name is looked up on PATH first, then under <root>/bin.
func ResolveExecutable(root, executable string) (string, error) {
	if executable == "" {
		executable = DefaultExecutable
	}
	if path, err := exec.LookPath(executable); err == nil {
		return path, nil
	}
	if filepath.IsAbs(executable) {
		return "", &SpackNotFoundError{Executable: executable, Root: root}
	}

	bundled := filepath.Join(root, "bin", filepath.Base(executable))
	info, err := os.Stat(bundled)
	if err != nil || info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return "", &SpackNotFoundError{Executable: executable, Root: root}
	}
	return bundled, nil
}
