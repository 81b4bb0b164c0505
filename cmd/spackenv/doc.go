// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for spackenv.
//
// Every subcommand resolves the Spack plugin settings (flags, SDM_SPACK_*
// environment variables, then configuration), builds a handle for the named
// environment and calls one operation on it.
package cmd
