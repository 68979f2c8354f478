/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package verifier

// Config controls which verification path runs and how fast-path
// failures are handled, mirroring ristretto_classfile's
// VerifierConfig.
type Config struct {
	// ForceInference skips the fast path entirely, always running the
	// worklist inference verifier. Useful for testing the slow path
	// against class files that do carry a StackMapTable.
	ForceInference bool

	// AllowInferenceFallback governs spec.md §9's resolved Open
	// Question: when true, a fast-path failure caused by the absence
	// of a StackMapTable (not a malformed one) falls back to
	// inference; a malformed-table error is always surfaced, never
	// silently swallowed. When false, any fast-path failure is
	// returned as-is.
	AllowInferenceFallback bool
}

// DefaultConfig matches the JVM's default behaviour: use the fast
// path when the class version requires it, fall back to inference
// otherwise.
func DefaultConfig() Config {
	return Config{AllowInferenceFallback: true}
}
