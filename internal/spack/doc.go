// SPDX-License-Identifier: MPL-2.0

// Package spack implements the sdm environment contract on top of Spack named
// environments.
//
// A handle locates the environment descriptor at
// <root>/var/spack/environments/<name>/spack.yaml, wraps shell commands with
// "spack env activate", hashes the descriptor bytes and reports the pinned
// package versions listed under spack.specs.
package spack
