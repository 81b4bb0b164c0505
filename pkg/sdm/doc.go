// SPDX-License-Identifier: MPL-2.0

// Package sdm defines the software deployment contract between a workflow host
// and an environment plugin.
//
// A plugin supplies an EnvSpec describing an environment reference and an Env
// handle wrapping it. The host uses the handle to activate the environment around
// shell commands (DecorateShellCmd), to fold the environment definition into
// reproducibility hashes (RecordHash) and to list installed software
// (ReportSoftware). Optional lifecycle operations are advertised through a
// Capabilities set instead of being assumed.
//
// Plugin settings are declared with SettingSpec and resolved from CLI flags,
// environment variables and defaults by ResolveSettings.
package sdm
