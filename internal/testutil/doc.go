// SPDX-License-Identifier: MPL-2.0

// Package testutil holds test helpers shared across packages: fake Spack
// installations (NewSpackRoot), home directory overrides (SetHomeDir),
// fail-fast filesystem helpers and a semaphore bounding container tests.
package testutil
