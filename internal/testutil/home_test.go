// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"runtime"
	"testing"
)

func TestSetHomeDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("HOME is not consulted on Windows")
	}

	original := os.Getenv("HOME")
	dir := t.TempDir()

	t.Run("override", func(t *testing.T) {
		SetHomeDir(t, dir)
		if got, err := os.UserHomeDir(); err != nil || got != dir {
			t.Errorf("UserHomeDir() = %q, %v, want %q", got, err, dir)
		}
	})

	if got := os.Getenv("HOME"); got != original {
		t.Errorf("HOME after subtest = %q, want %q", got, original)
	}
}
