// SPDX-License-Identifier: MPL-2.0

package spack

import (
	"regexp"
	"strings"

	"github.com/invowk/spackenv/pkg/sdm"
)

const (
	// Kind is the plugin kind reported by EnvSpec.
	Kind = "spack"
	// EnvNameAttr is the only identity attribute of a Spack spec.
	EnvNameAttr = "envName"

	envNamePattern = `^[A-Za-z0-9][A-Za-z0-9._-]*$`
)

var envNameRegex = regexp.MustCompile(envNamePattern)

// EnvSpec references an existing Spack named environment.
type EnvSpec struct {
	name string
}

// NewEnvSpec creates a spec for the named environment. The name is required
// and must not contain shell metacharacters, because it is spliced into the
// activation command.
func NewEnvSpec(name string) (*EnvSpec, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &sdm.InvalidSpecError{Kind: Kind, Reason: "exactly one of envName must be set"}
	}
	if !envNameRegex.MatchString(name) {
		return nil, &InvalidEnvNameError{Name: name}
	}
	return &EnvSpec{name: name}, nil
}

// Name returns the environment name.
func (s *EnvSpec) Name() string { return s.name }

// Kind returns "spack".
func (s *EnvSpec) Kind() string { return Kind }

// IdentityAttributes returns ["envName"].
func (s *EnvSpec) IdentityAttributes() []string { return []string{EnvNameAttr} }

// SourcePathAttributes returns an empty slice; named environments live under
// the Spack root, not next to the workflow.
func (s *EnvSpec) SourcePathAttributes() []string { return []string{} }

// Attr returns the value of the named attribute.
func (s *EnvSpec) Attr(name string) (string, bool) {
	if name == EnvNameAttr {
		return s.name, true
	}
	return "", false
}

func (s *EnvSpec) String() string { return s.name }
