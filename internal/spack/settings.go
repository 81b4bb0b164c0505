// SPDX-License-Identifier: MPL-2.0

package spack

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/invowk/spackenv/pkg/sdm"
)

const (
	// PluginName prefixes the plugin's flags and environment variables.
	PluginName = "spack"
	// RootEnvVar is the variable Spack itself uses for its installation prefix.
	RootEnvVar = "SPACK_ROOT"

	SettingRoot       = "root"
	SettingExecutable = "executable"
	SettingMyParam    = "myparam"
)

// SettingSpecs declares the plugin settings. defaultRoot is typically the
// value of $SPACK_ROOT or the configured spack_root.
func SettingSpecs(defaultRoot, defaultExecutable string) []sdm.SettingSpec {
	if defaultExecutable == "" {
		defaultExecutable = DefaultExecutable
	}
	return []sdm.SettingSpec{
		{
			// Not required here; NewEnv reports a missing root as unset SPACK_ROOT.
			Name:    SettingRoot,
			Help:    "Spack installation prefix holding var/spack/environments",
			Default: defaultRoot,
			EnvVar:  true,
			Parse:   parseRoot,
			Unparse: unparseString,
		},
		{
			Name:    SettingExecutable,
			Help:    "spack command name or path",
			Default: defaultExecutable,
		},
		{
			Name:    SettingMyParam,
			Help:    "Example integer setting; not used by environment handling",
			Parse:   parseInt,
			Unparse: unparseInt,
		},
	}
}

// OptionsFromSettings copies resolved settings into base.
func OptionsFromSettings(s sdm.Settings, base Options) Options {
	if root, ok := s[SettingRoot].(string); ok {
		base.Root = root
	}
	if exe := s.String(SettingExecutable); exe != "" {
		base.Executable = exe
	}
	return base
}

func parseRoot(v string) (any, error) {
	if !filepath.IsAbs(v) {
		return nil, fmt.Errorf("path %q must be absolute", v)
	}
	return filepath.Clean(v), nil
}

func unparseString(v any) string { return v.(string) }

func parseInt(v string) (any, error) { return strconv.Atoi(v) }

func unparseInt(v any) string { return strconv.Itoa(v.(int)) }
