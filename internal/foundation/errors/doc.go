// Package errors provides foundational, type-safe error primitives used across assetpipe.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, compile, filesystem, build, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for exit codes and stderr presentation
//
// Builds are deterministic, so nothing in this package models retries: a
// failed build is fixed by the developer and re-run.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "write artifact failed").
//		WithContext("path", target).
//		WithContext("op", "write").
//		Build()
package errors
