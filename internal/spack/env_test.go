// SPDX-License-Identifier: MPL-2.0

package spack

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/invowk/spackenv/internal/runtime"
	"github.com/invowk/spackenv/internal/testutil"
	"github.com/invowk/spackenv/pkg/sdm"
)

const sampleDescriptor = `spack:
  specs:
  - gcc@11.2.0
  - zlib@1.2.11
  - boost
  view: true
`

func noopChecker(context.Context, string, string) error { return nil }

// newTestEnv builds a handle on a fake root without touching the real spack.
func newTestEnv(t *testing.T, root *testutil.SpackRoot, name string, opts Options) *Env {
	t.Helper()
	spec, err := NewEnvSpec(name)
	if err != nil {
		t.Fatalf("NewEnvSpec(%q) error = %v", name, err)
	}
	opts.Root = root.Dir
	if opts.Checker == nil {
		opts.Checker = noopChecker
	}
	env, err := NewEnv(context.Background(), spec, opts)
	if err != nil {
		t.Fatalf("NewEnv() error = %v", err)
	}
	return env
}

func TestEnv_DecorateShellCmd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		cmd  string
		want string
	}{
		{env: "foo", cmd: "echo hi", want: "spack env activate foo && echo hi"},
		{env: "py3.11_base-env", cmd: "python -V", want: "spack env activate py3.11_base-env && python -V"},
		// Reserved words are plain arguments after "activate".
		{env: "if", cmd: "echo hi", want: "spack env activate if && echo hi"},
		{env: "done", cmd: "echo hi", want: "spack env activate done && echo hi"},
		{env: "select", cmd: "echo hi", want: "spack env activate select && echo hi"},
		{env: "function", cmd: "echo hi", want: "spack env activate function && echo hi"},
		{env: "time", cmd: "echo hi", want: "spack env activate time && echo hi"},
	}

	root := testutil.NewSpackRoot(t)
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, root, tt.env, Options{})
			if got := env.DecorateShellCmd(tt.cmd); got != tt.want {
				t.Errorf("DecorateShellCmd(%q) = %q, want %q", tt.cmd, got, tt.want)
			}
		})
	}
}

func TestEnv_DescriptorPath(t *testing.T) {
	t.Parallel()

	root := testutil.NewSpackRoot(t)
	env := newTestEnv(t, root, "foo", Options{})
	want := filepath.Join(root.Dir, "var", "spack", "environments", "foo", "spack.yaml")
	if got := env.DescriptorPath(); got != want {
		t.Errorf("DescriptorPath() = %q, want %q", got, want)
	}
}

func TestEnv_ReportSoftware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		descriptor string
		want       []sdm.SoftwareReport
	}{
		{
			name:       "pinned and unpinned",
			descriptor: sampleDescriptor,
			want: []sdm.SoftwareReport{
				{Name: "gcc", Version: "11.2.0"},
				{Name: "zlib", Version: "1.2.11"},
			},
		},
		{
			name: "variants and dependencies",
			descriptor: `spack:
  specs:
  - py-numpy@1.26.4+blas ^openblas@0.3.26
  - hdf5@1.14.3 ~mpi
  - cmake@=3.27.9
  - "mpich@4.1"
`,
			want: []sdm.SoftwareReport{
				{Name: "py-numpy", Version: "1.26.4"},
				{Name: "hdf5", Version: "1.14.3"},
				{Name: "mpich", Version: "4.1"},
			},
		},
		{
			name: "matrix entries are skipped",
			descriptor: `spack:
  specs:
  - matrix:
    - [zlib, bzip2]
    - ['%gcc@12']
  - 42
  - openssl@3.1.4
`,
			want: []sdm.SoftwareReport{{Name: "openssl", Version: "3.1.4"}},
		},
		{
			name:       "duplicates kept in order",
			descriptor: "spack:\n  specs: [zlib@1.3, zlib@1.3]\n",
			want:       []sdm.SoftwareReport{{Name: "zlib", Version: "1.3"}, {Name: "zlib", Version: "1.3"}},
		},
		{
			name:       "aliases resolve to their anchor",
			descriptor: "spack:\n  specs: [&g gcc@11.2.0, *g, boost]\n",
			want:       []sdm.SoftwareReport{{Name: "gcc", Version: "11.2.0"}, {Name: "gcc", Version: "11.2.0"}},
		},
		{
			name: "alias to a matrix is skipped",
			descriptor: `spack:
  definitions:
  - m: &m
      matrix:
      - [zlib]
  specs:
  - *m
  - zlib@1.3.1
`,
			want: []sdm.SoftwareReport{{Name: "zlib", Version: "1.3.1"}},
		},
		{name: "no specs key", descriptor: "spack:\n  view: true\n", want: []sdm.SoftwareReport{}},
		{name: "no spack key", descriptor: "other: 1\n", want: []sdm.SoftwareReport{}},
		{name: "empty file", descriptor: "", want: []sdm.SoftwareReport{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := testutil.NewSpackRoot(t)
			root.AddEnv(t, "foo", tt.descriptor)
			env := newTestEnv(t, root, "foo", Options{})

			got, err := env.ReportSoftware()
			if err != nil {
				t.Fatalf("ReportSoftware() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ReportSoftware() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnv_ReportSoftware_ParseError(t *testing.T) {
	t.Parallel()

	root := testutil.NewSpackRoot(t)
	root.AddEnv(t, "foo", "spack:\n  specs: [gcc@11\n")
	env := newTestEnv(t, root, "foo", Options{})

	_, err := env.ReportSoftware()
	if !errors.Is(err, ErrDescriptorParse) {
		t.Errorf("ReportSoftware() error = %v, want ErrDescriptorParse", err)
	}
}

func TestEnv_RecordHash(t *testing.T) {
	t.Parallel()

	root := testutil.NewSpackRoot(t)
	path := root.AddEnv(t, "foo", sampleDescriptor)
	env := newTestEnv(t, root, "foo", Options{})

	digest := func() []byte {
		t.Helper()
		h := sha256.New()
		if err := env.RecordHash(h); err != nil {
			t.Fatalf("RecordHash() error = %v", err)
		}
		return h.Sum(nil)
	}

	first := digest()
	if !bytes.Equal(first, digest()) {
		t.Fatal("RecordHash() is not deterministic")
	}
	want := sha256.Sum256([]byte(sampleDescriptor))
	if !bytes.Equal(first, want[:]) {
		t.Errorf("RecordHash() should feed the raw file bytes")
	}

	// A semantically irrelevant whitespace change still changes the hash.
	if err := os.WriteFile(path, []byte(sampleDescriptor+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(first, digest()) {
		t.Error("RecordHash() should be byte sensitive")
	}
}

func TestEnv_MissingDescriptor(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testutil.NewSpackRoot(t), "absent", Options{})

	_, reportErr := env.ReportSoftware()
	hashErr := env.RecordHash(sha256.New())

	for name, err := range map[string]error{"ReportSoftware": reportErr, "RecordHash": hashErr} {
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("%s() error = %v, want fs.ErrNotExist", name, err)
		}
		if !errors.Is(err, ErrDescriptorNotFound) {
			t.Errorf("%s() error = %v, want ErrDescriptorNotFound", name, err)
		}
	}
}

func TestEnv_CheckRunsOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	checker := func(context.Context, string, string) error {
		calls.Add(1)
		return nil
	}
	env := newTestEnv(t, testutil.NewSpackRoot(t), "foo", Options{Checker: checker})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := env.Check(context.Background()); err != nil {
				t.Errorf("Check() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("checker ran %d times, want 1", got)
	}
}

func TestNewEnv_CheckFailure(t *testing.T) {
	t.Parallel()

	spec, _ := NewEnvSpec("foo")
	wantErr := &SpackNotFoundError{Executable: "spack", Root: "/nowhere"}
	_, err := NewEnv(context.Background(), spec, Options{
		Root:    "/nowhere",
		Checker: func(context.Context, string, string) error { return wantErr },
	})
	if !errors.Is(err, ErrSpackNotFound) {
		t.Errorf("NewEnv() error = %v, want ErrSpackNotFound", err)
	}
}

func TestNewEnv_MissingRoot(t *testing.T) {
	t.Parallel()

	spec, _ := NewEnvSpec("foo")
	_, err := NewEnv(context.Background(), spec, Options{Checker: noopChecker})

	var envErr *MissingEnvVarError
	if !errors.As(err, &envErr) || envErr.Name != "SPACK_ROOT" {
		t.Fatalf("NewEnv() error = %v, want MissingEnvVarError for SPACK_ROOT", err)
	}
	if !errors.Is(err, ErrMissingEnvVar) {
		t.Error("error should match ErrMissingEnvVar")
	}
}

func TestEnv_LifecycleNotSupported(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testutil.NewSpackRoot(t), "foo", Options{})
	ctx := context.Background()

	if caps := env.Capabilities(); len(caps) != 0 {
		t.Errorf("Capabilities() = %v, want none", caps)
	}
	if _, ok := sdm.AsDeployable(env); ok {
		t.Error("spack env should not be deployable")
	}
	for name, err := range map[string]error{
		"Deploy":  env.Deploy(ctx),
		"Remove":  env.Remove(ctx),
		"Archive": env.Archive(ctx),
	} {
		if !errors.Is(err, sdm.ErrNotSupported) {
			t.Errorf("%s() error = %v, want ErrNotSupported", name, err)
		}
	}
	if env.IsDeploymentPathPortable() {
		t.Error("IsDeploymentPathPortable() = true")
	}
}

// fakeSetupEnv defines a spack shell function, as the real setup-env.sh does.
const fakeSetupEnv = `spack() { echo "spack $*"; }
`

func testRuntimes(t *testing.T) []runtime.Runtime {
	t.Helper()
	rts := []runtime.Runtime{runtime.NewVirtualRuntime()}
	if _, err := exec.LookPath("sh"); err == nil {
		native := runtime.NewNativeRuntime()
		native.Shell = "sh"
		rts = append(rts, native)
	}
	return rts
}

func TestEnv_RunCmd(t *testing.T) {
	t.Parallel()

	for _, rt := range testRuntimes(t) {
		t.Run(rt.Name(), func(t *testing.T) {
			t.Parallel()

			root := testutil.NewSpackRoot(t)
			root.SetupEnvScript(t, fakeSetupEnv)

			var stdout bytes.Buffer
			env := newTestEnv(t, root, "foo", Options{
				Runtime:        rt,
				SourceSetupEnv: true,
				Stdout:         &stdout,
				Stderr:         &bytes.Buffer{},
			})

			if err := env.RunCmd(context.Background(), env.DecorateShellCmd(`echo "root=$SPACK_ROOT"`)); err != nil {
				t.Fatalf("RunCmd() error = %v", err)
			}
			want := "spack env activate foo\nroot=" + root.Dir + "\n"
			if stdout.String() != want {
				t.Errorf("stdout = %q, want %q", stdout.String(), want)
			}
		})
	}
}

func TestEnv_RunCmd_NonZeroExit(t *testing.T) {
	t.Parallel()

	for _, rt := range testRuntimes(t) {
		t.Run(rt.Name(), func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, testutil.NewSpackRoot(t), "foo", Options{
				Runtime: rt,
				Stdout:  &bytes.Buffer{},
				Stderr:  &bytes.Buffer{},
			})

			err := env.RunCmd(context.Background(), "exit 7")
			var exitErr *runtime.ExitError
			if !errors.As(err, &exitErr) || exitErr.Code != 7 {
				t.Errorf("RunCmd() error = %v, want *runtime.ExitError with code 7", err)
			}
		})
	}
}

func TestEnv_RunCmd_CaptureOutput(t *testing.T) {
	t.Parallel()

	for _, rt := range testRuntimes(t) {
		t.Run(rt.Name(), func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			env := newTestEnv(t, testutil.NewSpackRoot(t), "foo", Options{
				Runtime:       rt,
				CaptureOutput: true,
				Stdout:        &stdout,
				Stderr:        &stderr,
			})

			if err := env.RunCmd(context.Background(), "echo ok; echo note >&2"); err != nil {
				t.Fatalf("RunCmd() error = %v", err)
			}
			if stdout.String() != "ok\n" || stderr.String() != "note\n" {
				t.Errorf("stdout = %q, stderr = %q", stdout.String(), stderr.String())
			}

			stdout.Reset()
			stderr.Reset()
			err := env.RunCmd(context.Background(), "echo partial; echo '==> Error: no such env' >&2; exit 1")
			var exitErr *runtime.ExitError
			if !errors.As(err, &exitErr) {
				t.Fatalf("RunCmd() error = %v, want *runtime.ExitError", err)
			}
			if exitErr.Stderr != "==> Error: no such env\n" {
				t.Errorf("ExitError.Stderr = %q", exitErr.Stderr)
			}
			if stdout.String() != "partial\n" || stderr.Len() != 0 {
				t.Errorf("stdout = %q, stderr = %q", stdout.String(), stderr.String())
			}
		})
	}
}

func TestEnv_RunCmd_RuntimeUnavailable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testutil.NewSpackRoot(t), "foo", Options{
		Runtime: &runtime.NativeRuntime{Shell: "definitely-not-a-shell-xyz"},
	})
	if err := env.RunCmd(context.Background(), "true"); !errors.Is(err, runtime.ErrRuntimeNotAvailable) {
		t.Errorf("RunCmd() error = %v, want ErrRuntimeNotAvailable", err)
	}
}

func TestDefaultChecker(t *testing.T) {
	t.Parallel()

	root := testutil.NewSpackRoot(t)
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	tests := []struct {
		name       string
		root       string
		executable string
		wantErr    error
	}{
		{name: "bundled executable", root: root.Dir, executable: "spack"},
		{name: "missing root", root: filepath.Join(root.Dir, "missing"), executable: "spack", wantErr: ErrRootNotFound},
		{name: "root is a file", root: file, executable: "spack", wantErr: ErrRootNotFound},
		{name: "unknown executable", root: root.Dir, executable: "spack-does-not-exist-xyz", wantErr: ErrSpackNotFound},
		{name: "absolute executable", root: root.Dir, executable: "/nonexistent/spack", wantErr: ErrSpackNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := DefaultChecker(ctx, tt.root, tt.executable)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("DefaultChecker() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DefaultChecker() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_DedupByName(t *testing.T) {
	t.Parallel()

	root := testutil.NewSpackRoot(t)
	var calls atomic.Int32
	reg := sdm.NewRegistry(Factory(Options{
		Root: root.Dir,
		Checker: func(context.Context, string, string) error {
			calls.Add(1)
			return nil
		},
	}))

	ctx := context.Background()
	foo1, _ := NewEnvSpec("foo")
	foo2, _ := NewEnvSpec("foo")
	bar, _ := NewEnvSpec("bar")

	a, err := reg.Get(ctx, foo1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := reg.Get(ctx, foo2)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("specs with the same envName should share a handle")
	}
	if _, err := reg.Get(ctx, bar); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("checker ran %d times, want 2", got)
	}
}
