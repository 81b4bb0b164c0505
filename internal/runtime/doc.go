// SPDX-License-Identifier: MPL-2.0

// Package runtime executes shell scripts for spackenv.
//
// Two runtime implementations are available:
//   - native: runs the script with the host shell ($SHELL, bash or sh)
//   - virtual: runs the script with the embedded mvdan/sh interpreter
//
// Both implement Runtime (Name, Execute, Available, Validate) and CapturingRuntime.
// A non-zero exit status is reported through Result.ExitCode; Result.Err turns
// it into an *ExitError for callers that treat any failure as fatal.
package runtime
