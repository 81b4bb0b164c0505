// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions selects where configuration is read from. The zero value
	// reads config.cue from ConfigDir, falling back to defaults.
	LoadOptions struct {
		// ConfigFilePath is an explicit file (the --config flag); it must exist.
		ConfigFilePath string
		// ConfigDirPath replaces ConfigDir when set.
		ConfigDirPath string
	}

	// Provider yields the configuration for one CLI invocation.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	// ProviderFunc adapts a plain function to a Provider.
	ProviderFunc func(ctx context.Context, opts LoadOptions) (*Config, error)
)

// Load calls f.
func (f ProviderFunc) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return f(ctx, opts)
}

// NewProvider returns the Provider backed by config.cue, SPACK_ROOT and the
// built-in defaults.
func NewProvider() Provider {
	return ProviderFunc(loadWithOptions)
}
