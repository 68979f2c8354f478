/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package modules implements JPMS-style module resolution: descriptors,
// finders (system image, module path, automatic modules), breadth-first
// resolution into a ResolvedConfiguration, and the runtime access
// checker, per spec.md §4.4. Grounded on ristretto_classloader's
// module/{finder,resolution}.rs.
package modules

import "fmt"

// ModuleNotFound reports a root or required module absent from every
// finder consulted during resolution.
type ModuleNotFound struct {
	Name string
}

func (e *ModuleNotFound) Error() string {
	return fmt.Sprintf("modules: module %q not found", e.Name)
}

// SplitPackage reports a package claimed by two distinct resolved
// modules (spec.md §4.4 "Split-package check").
type SplitPackage struct {
	Package string
	Module1 string
	Module2 string
}

func (e *SplitPackage) Error() string {
	return fmt.Sprintf("modules: package %q found in both module %q and module %q", e.Package, e.Module1, e.Module2)
}

// DescriptorParseError wraps a failure to build a ModuleDescriptor
// from a module-info.class's Module attribute or automatic-module
// name derivation.
type DescriptorParseError struct {
	Context string
	Err     error
}

func (e *DescriptorParseError) Error() string {
	return fmt.Sprintf("modules: descriptor parse error: %s: %v", e.Context, e.Err)
}

func (e *DescriptorParseError) Unwrap() error { return e.Err }
