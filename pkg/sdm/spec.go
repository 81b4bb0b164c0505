// SPDX-License-Identifier: MPL-2.0

package sdm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSpec is the sentinel error wrapped by InvalidSpecError.
var ErrInvalidSpec = errors.New("invalid environment spec")

type (
	// EnvSpec describes an existing or to-be-created environment.
	EnvSpec interface {
		// Kind names the plugin that owns the spec (e.g., "spack").
		Kind() string
		// IdentityAttributes lists the attributes that identify the environment.
		// The host uses them to build deduplication and cache keys.
		IdentityAttributes() []string
		// SourcePathAttributes lists attributes holding paths relative to the
		// workflow source. An empty slice means none need resolution.
		SourcePathAttributes() []string
		// Attr returns the string value of the named attribute.
		Attr(name string) (string, bool)
	}

	// InvalidSpecError is returned when an EnvSpec cannot be constructed.
	// It wraps ErrInvalidSpec for errors.Is() compatibility.
	InvalidSpecError struct {
		Kind   string
		Reason string
	}
)

// Error implements the error interface for InvalidSpecError.
func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid %s environment spec: %s", e.Kind, e.Reason)
}

// Unwrap returns ErrInvalidSpec for errors.Is() compatibility.
func (e *InvalidSpecError) Unwrap() error { return ErrInvalidSpec }

// IdentityKey builds a stable key from the spec kind and its identity attribute
// values, e.g. "spack:envName=foo". Attributes are kept in declaration order.
func IdentityKey(spec EnvSpec) string {
	var sb strings.Builder
	sb.WriteString(spec.Kind())
	sb.WriteString(":")
	for i, attr := range spec.IdentityAttributes() {
		if i > 0 {
			sb.WriteString(",")
		}
		val, _ := spec.Attr(attr)
		sb.WriteString(attr)
		sb.WriteString("=")
		sb.WriteString(val)
	}
	return sb.String()
}
