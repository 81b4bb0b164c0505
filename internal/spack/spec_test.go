// SPDX-License-Identifier: MPL-2.0

package spack

import (
	"errors"
	"slices"
	"testing"

	"github.com/invowk/spackenv/pkg/sdm"
)

func TestNewEnvSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		envName     string
		wantErr     error
		wantNameErr bool
	}{
		{name: "simple", envName: "foo"},
		{name: "dotted and dashed", envName: "py3.11-cuda_12"},
		{name: "empty", envName: "", wantErr: sdm.ErrInvalidSpec},
		{name: "whitespace", envName: "   ", wantErr: sdm.ErrInvalidSpec},
		{name: "command injection", envName: "foo; rm -rf ~", wantErr: ErrInvalidEnvName, wantNameErr: true},
		{name: "subshell", envName: "$(id)", wantErr: ErrInvalidEnvName, wantNameErr: true},
		{name: "leading dash", envName: "-foo", wantErr: ErrInvalidEnvName, wantNameErr: true},
		{name: "path", envName: "../foo", wantErr: ErrInvalidEnvName, wantNameErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			spec, err := NewEnvSpec(tt.envName)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("NewEnvSpec(%q) error = %v", tt.envName, err)
				}
				if spec.Name() != tt.envName {
					t.Errorf("Name() = %q, want %q", spec.Name(), tt.envName)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewEnvSpec(%q) error = %v, want %v", tt.envName, err, tt.wantErr)
			}
			if tt.wantNameErr && !errors.Is(err, sdm.ErrInvalidSpec) {
				t.Errorf("invalid name error should also match sdm.ErrInvalidSpec: %v", err)
			}
		})
	}
}

func TestNewEnvSpec_MissingNameMessage(t *testing.T) {
	t.Parallel()

	_, err := NewEnvSpec("")
	var specErr *sdm.InvalidSpecError
	if !errors.As(err, &specErr) {
		t.Fatalf("error = %T, want *sdm.InvalidSpecError", err)
	}
	if specErr.Kind != Kind || specErr.Reason != "exactly one of envName must be set" {
		t.Errorf("InvalidSpecError = %+v", specErr)
	}
}

func TestEnvSpec_Attributes(t *testing.T) {
	t.Parallel()

	spec, err := NewEnvSpec("foo")
	if err != nil {
		t.Fatal(err)
	}

	if got := spec.IdentityAttributes(); !slices.Equal(got, []string{"envName"}) {
		t.Errorf("IdentityAttributes() = %v, want [envName]", got)
	}
	if got := spec.SourcePathAttributes(); got == nil || len(got) != 0 {
		t.Errorf("SourcePathAttributes() = %#v, want empty non-nil slice", got)
	}
	if v, ok := spec.Attr("envName"); !ok || v != "foo" {
		t.Errorf("Attr(envName) = %q, %v", v, ok)
	}
	if _, ok := spec.Attr("path"); ok {
		t.Error("Attr(path) should not exist")
	}
	if got := sdm.IdentityKey(spec); got != "spack:envName=foo" {
		t.Errorf("IdentityKey() = %q", got)
	}
}
