/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package modules

// Source identifies where a module was found, which in turn decides
// whether it is treated as automatic (read-all, export-all).
type Source int

const (
	SourceSystem Source = iota
	SourceModulePath
	SourceAutomatic
)

// Reference is a located, described module: its descriptor plus where
// it came from and, for module-path modules, the backing jar or
// directory path.
type Reference struct {
	descriptor *ModuleDescriptor
	source     Source
	path       string // jar file or exploded directory; empty for system modules
}

// NewReference builds a Reference. path is empty when the module has
// no on-disk backing (synthesised or embedded in a system image
// already fully read into the descriptor).
func NewReference(descriptor *ModuleDescriptor, source Source, path string) *Reference {
	return &Reference{descriptor: descriptor, source: source, path: path}
}

func (r *Reference) Name() string                   { return r.descriptor.Name }
func (r *Reference) Descriptor() *ModuleDescriptor   { return r.descriptor }
func (r *Reference) Source() Source                 { return r.source }
func (r *Reference) Path() string                   { return r.path }
func (r *Reference) IsAutomatic() bool              { return r.source == SourceAutomatic }
