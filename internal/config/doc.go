// SPDX-License-Identifier: MPL-2.0

// Package config handles spackenv configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/spackenv/config.cue (or the XDG equivalent
// on Linux, ~/Library/Application Support/spackenv/config.cue on macOS,
// %APPDATA%\spackenv\config.cue on Windows) and validated against the embedded
// config_schema.cue. The SPACK_ROOT environment variable is bound to spack_root
// and takes precedence over the file.
package config
