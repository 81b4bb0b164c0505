// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// fakeSpackScript stands in for bin/spack. It only needs to be executable.
const fakeSpackScript = "#!/bin/sh\necho \"fake spack $*\"\n"

// SpackRoot is a throwaway Spack installation layout rooted in a temp dir.
type SpackRoot struct {
	Dir string
}

// NewSpackRoot creates <tmp>/bin/spack and an empty environments directory.
func NewSpackRoot(t testing.TB) *SpackRoot {
	t.Helper()
	dir := t.TempDir()
	MustMkdirAll(t, filepath.Join(dir, "bin"), 0o755)
	MustMkdirAll(t, filepath.Join(dir, "var", "spack", "environments"), 0o755)
	if err := os.WriteFile(filepath.Join(dir, "bin", "spack"), []byte(fakeSpackScript), 0o755); err != nil {
		t.Fatalf("failed to write fake spack: %v", err)
	}
	return &SpackRoot{Dir: dir}
}

// DescriptorPath returns the spack.yaml path of the named environment.
func (r *SpackRoot) DescriptorPath(env string) string {
	return filepath.Join(r.Dir, "var", "spack", "environments", env, "spack.yaml")
}

// AddEnv writes content as the spack.yaml of the named environment and
// returns the file path.
func (r *SpackRoot) AddEnv(t testing.TB, env, content string) string {
	t.Helper()
	path := r.DescriptorPath(env)
	MustMkdirAll(t, filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// SetupEnvScript writes share/spack/setup-env.sh with the given body and
// returns its path.
func (r *SpackRoot) SetupEnvScript(t testing.TB, body string) string {
	t.Helper()
	path := filepath.Join(r.Dir, "share", "spack", "setup-env.sh")
	MustMkdirAll(t, filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
