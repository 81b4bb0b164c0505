// SPDX-License-Identifier: MPL-2.0

package sdm

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// settingPrefix is prepended to derived flag and environment variable names.
const settingPrefix = "sdm"

var (
	// ErrMissingSetting is returned when a required setting has no value.
	ErrMissingSetting = errors.New("missing required setting")
	// ErrInvalidSetting is returned when a setting value fails its parse hook.
	ErrInvalidSetting = errors.New("invalid setting value")
	// ErrInvalidSettingSpec is returned when a setting declaration is malformed.
	ErrInvalidSettingSpec = errors.New("invalid setting declaration")
)

type (
	// SettingSpec declares one plugin setting. The host derives a CLI flag
	// (--sdm-<plugin>-<name>) and, when EnvVar is set, an environment variable
	// (SDM_<PLUGIN>_<NAME>) from it.
	SettingSpec struct {
		// Name is the setting name in kebab case (e.g., "root").
		Name string
		// Help is shown in CLI help output.
		Help string
		// Default is used when neither flag nor environment variable provides a value.
		Default string
		// EnvVar enables reading the value from the derived environment variable.
		EnvVar bool
		// Parse converts the raw string into a typed value. Nil keeps the string.
		Parse func(string) (any, error)
		// Unparse converts a parsed value back into its string form.
		// It must be set whenever Parse is set.
		Unparse func(any) string
		// Required makes resolution fail when no value is available.
		Required bool
	}

	// Settings holds resolved setting values keyed by setting name.
	Settings map[string]any

	// MissingSettingError is returned when a required setting has no value.
	MissingSettingError struct {
		Name   string
		Flag   string
		EnvVar string
	}

	// InvalidSettingError is returned when a parse hook rejects a value.
	InvalidSettingError struct {
		Name  string
		Value string
		Err   error
	}

	// InvalidSettingSpecError is returned when a SettingSpec is malformed.
	InvalidSettingSpecError struct {
		Name   string
		Reason string
	}
)

// FlagName returns the CLI flag name for the setting, without leading dashes.
func (s SettingSpec) FlagName(plugin string) string {
	return strings.ToLower(settingPrefix + "-" + plugin + "-" + s.Name)
}

// EnvVarName returns the environment variable backing the setting.
func (s SettingSpec) EnvVarName(plugin string) string {
	return strings.ToUpper(strings.ReplaceAll(settingPrefix+"_"+plugin+"_"+s.Name, "-", "_"))
}

// IsValid returns whether the declaration is well formed.
func (s SettingSpec) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, &InvalidSettingSpecError{Name: s.Name, Reason: "name must be non-empty"})
	}
	if (s.Parse == nil) != (s.Unparse == nil) {
		errs = append(errs, &InvalidSettingSpecError{Name: s.Name, Reason: "parse and unparse hooks must be set together"})
	}
	if len(errs) > 0 {
		return false, errs
	}
	return true, nil
}

// ResolveSettings resolves every declared setting. Values come from flags first,
// then from the derived environment variable (for EnvVar settings), then from
// the declared default. Settings without any value are left out of the result
// unless they are required.
func ResolveSettings(plugin string, specs []SettingSpec, flags map[string]string, lookupEnv func(string) (string, bool)) (Settings, error) {
	resolved := make(Settings, len(specs))
	for _, spec := range specs {
		if valid, errs := spec.IsValid(); !valid {
			return nil, errors.Join(errs...)
		}

		raw, ok := flags[spec.Name]
		if !ok && spec.EnvVar && lookupEnv != nil {
			raw, ok = lookupEnv(spec.EnvVarName(plugin))
		}
		if !ok || raw == "" {
			raw, ok = spec.Default, spec.Default != ""
		}
		if !ok {
			if spec.Required {
				return nil, &MissingSettingError{
					Name:   spec.Name,
					Flag:   "--" + spec.FlagName(plugin),
					EnvVar: envVarHint(plugin, spec),
				}
			}
			continue
		}

		if spec.Parse == nil {
			resolved[spec.Name] = raw
			continue
		}
		val, err := spec.Parse(raw)
		if err != nil {
			return nil, &InvalidSettingError{Name: spec.Name, Value: raw, Err: err}
		}
		resolved[spec.Name] = val
	}
	return resolved, nil
}

func envVarHint(plugin string, spec SettingSpec) string {
	if !spec.EnvVar {
		return ""
	}
	return spec.EnvVarName(plugin)
}

// String returns the named setting as a string, or "" when unset or not a string.
func (s Settings) String(name string) string {
	v, _ := s[name].(string)
	return v
}

// Unparse renders resolved values back to strings using each spec's Unparse hook.
func (s Settings) Unparse(specs []SettingSpec) map[string]string {
	out := make(map[string]string, len(s))
	for _, spec := range specs {
		val, ok := s[spec.Name]
		if !ok {
			continue
		}
		if spec.Unparse != nil {
			out[spec.Name] = spec.Unparse(val)
			continue
		}
		out[spec.Name] = fmt.Sprint(val)
	}
	return out
}

// Names returns the resolved setting names in lexical order.
func (s Settings) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Error implements the error interface for MissingSettingError.
func (e *MissingSettingError) Error() string {
	if e.EnvVar != "" {
		return fmt.Sprintf("setting %q is required: pass %s or set %s", e.Name, e.Flag, e.EnvVar)
	}
	return fmt.Sprintf("setting %q is required: pass %s", e.Name, e.Flag)
}

// Unwrap returns ErrMissingSetting for errors.Is() compatibility.
func (e *MissingSettingError) Unwrap() error { return ErrMissingSetting }

// Error implements the error interface for InvalidSettingError.
func (e *InvalidSettingError) Error() string {
	return fmt.Sprintf("invalid value %q for setting %q: %v", e.Value, e.Name, e.Err)
}

// Unwrap returns both ErrInvalidSetting and the parse error.
func (e *InvalidSettingError) Unwrap() []error { return []error{ErrInvalidSetting, e.Err} }

// Error implements the error interface for InvalidSettingSpecError.
func (e *InvalidSettingSpecError) Error() string {
	return fmt.Sprintf("invalid setting declaration %q: %s", e.Name, e.Reason)
}

// Unwrap returns ErrInvalidSettingSpec for errors.Is() compatibility.
func (e *InvalidSettingSpecError) Unwrap() error { return ErrInvalidSettingSpec }
