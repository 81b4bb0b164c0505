// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates user files against embedded CUE schemas and turns
// CUE errors into messages with JSON-path prefixes.
package cueutil
