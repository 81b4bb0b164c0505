// SPDX-License-Identifier: MPL-2.0

package spack

import (
	"context"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"

	"github.com/invowk/spackenv/internal/testutil"
	"github.com/invowk/spackenv/pkg/sdm"
)

const (
	spackImage         = "spack/ubuntu-jammy:latest"
	containerSpackRoot = "/opt/spack"
)

// checkTestcontainersAvailable safely checks if testcontainers can be used.
// The provider lookup can panic when no Docker socket is configured.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// TestEnv_Integration creates a real Spack environment in a container and
// checks that the descriptor it writes is read back correctly.
func TestEnv_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping spack integration test: testcontainers provider not available")
	}

	sem := testutil.ContainerSemaphore()
	sem <- struct{}{}
	defer func() { <-sem }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	ctr, err := testcontainers.Run(ctx, spackImage,
		testcontainers.WithEntrypoint("sleep"),
		testcontainers.WithCmd("infinity"),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("failed to start %s: %v", spackImage, err)
	}

	spackBin := containerSpackRoot + "/bin/spack"
	mustExec(ctx, t, ctr, spackBin, "env", "create", "demo")
	mustExec(ctx, t, ctr, spackBin, "-e", "demo", "add", "zlib@1.3.1", "bzip2")

	// Copy the descriptor into a local root so the handle reads Spack's own output.
	containerEnv := newIntegrationEnv(ctx, t, ctr)

	t.Run("ReportSoftware", func(t *testing.T) {
		got, err := containerEnv.ReportSoftware()
		if err != nil {
			t.Fatalf("ReportSoftware() error = %v", err)
		}
		want := []sdm.SoftwareReport{{Name: "zlib", Version: "1.3.1"}}
		if !slices.Equal(got, want) {
			t.Errorf("ReportSoftware() = %v, want %v", got, want)
		}
	})

	t.Run("DecorateShellCmd", func(t *testing.T) {
		script := ". " + containerSpackRoot + "/share/spack/setup-env.sh && " +
			containerEnv.DecorateShellCmd(`echo "active=$SPACK_ENV"`)
		out := mustExec(ctx, t, ctr, "bash", "-c", script)
		if !strings.Contains(out, "active="+containerSpackRoot+"/var/spack/environments/demo") {
			t.Errorf("activated command output = %q", out)
		}
	})
}

func newIntegrationEnv(ctx context.Context, t *testing.T, ctr testcontainers.Container) *Env {
	t.Helper()

	rc, err := ctr.CopyFileFromContainer(ctx, containerSpackRoot+"/var/spack/environments/demo/spack.yaml")
	if err != nil {
		t.Fatalf("failed to copy spack.yaml: %v", err)
	}
	defer testutil.DeferClose(t, rc)()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("failed to read spack.yaml: %v", err)
	}

	root := testutil.NewSpackRoot(t)
	root.AddEnv(t, "demo", string(data))
	return newTestEnv(t, root, "demo", Options{Checker: DefaultChecker})
}

func mustExec(ctx context.Context, t *testing.T, ctr testcontainers.Container, cmd ...string) string {
	t.Helper()

	code, reader, err := ctr.Exec(ctx, cmd, tcexec.Multiplexed())
	if err != nil {
		t.Fatalf("exec %v: %v", cmd, err)
	}
	out, _ := io.ReadAll(reader)
	if code != 0 {
		t.Fatalf("exec %v exited %d: %s", cmd, code, out)
	}
	return string(out)
}
