/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"github.com/theseus-rs/ristretto-sub006/types"
)

// Hierarchy adapts a Loader into vtype.ClassHierarchy, the narrow
// interface the verifier needs for subtype/merge queries. Kept
// separate from Loader itself so verifier never imports classloader
// (avoiding the import cycle noted in vtype.ClassHierarchy's doc
// comment): callers construct a Hierarchy and pass it as the
// interface value.
type Hierarchy struct {
	Loader *Loader
}

func NewHierarchy(l *Loader) *Hierarchy {
	return &Hierarchy{Loader: l}
}

const objectClassName = "java/lang/Object"

// IsSubclassOf walks sub's superclass chain (loading ancestors on
// demand) looking for super, and separately checks sub's transitive
// interfaces when super is itself an interface.
func (h *Hierarchy) IsSubclassOf(sub, super string) (bool, error) {
	if sub == super {
		return true, nil
	}
	if super == objectClassName {
		return true, nil
	}

	klass, err := h.Loader.LoadClass(sub)
	if err != nil {
		return false, err
	}

	for _, iface := range klass.Interfaces {
		if iface == super {
			return true, nil
		}
		ok, err := h.IsSubclassOf(iface, super)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	if klass.SuperName == "" {
		return false, nil
	}
	return h.IsSubclassOf(klass.SuperName, super)
}

// CommonSuperclass returns the least common superclass of a and b,
// falling back to java/lang/Object when their class chains share
// nothing closer (spec.md §4.2).
func (h *Hierarchy) CommonSuperclass(a, b string) (string, error) {
	if a == b {
		return a, nil
	}

	ancestorsOfA, err := h.ancestors(a)
	if err != nil {
		return "", err
	}
	ancestorsOfB, err := h.ancestors(b)
	if err != nil {
		return "", err
	}

	bSet := make(map[string]bool, len(ancestorsOfB))
	for _, name := range ancestorsOfB {
		bSet[name] = true
	}
	for _, name := range ancestorsOfA {
		if bSet[name] {
			return name, nil
		}
	}
	return objectClassName, nil
}

// ancestors returns name's superclass chain, self-inclusive, ending at
// java/lang/Object.
func (h *Hierarchy) ancestors(name string) ([]string, error) {
	var chain []string
	for name != "" {
		chain = append(chain, name)
		if name == objectClassName {
			break
		}
		klass, err := h.Loader.LoadClass(name)
		if err != nil {
			return nil, err
		}
		if klass.SuperName == "" {
			break
		}
		name = klass.SuperName
	}
	if len(chain) == 0 || chain[len(chain)-1] != objectClassName {
		chain = append(chain, objectClassName)
	}
	return chain, nil
}

// IsArray reports whether name is an array descriptor.
func (h *Hierarchy) IsArray(name string) bool {
	return types.IsArray(name)
}

// ArrayElement returns the element descriptor/class name of an array
// type, unwrapping a single '[' and, for object-element arrays,
// stripping the 'L'...';' wrapper so callers receive a plain class
// name consistent with how IsSubclassOf expects its arguments.
func (h *Hierarchy) ArrayElement(name string) (string, bool) {
	elem, ok := types.ElementDescriptor(name)
	if !ok {
		return "", false
	}
	if className, ok := types.ClassNameFromObjectDescriptor(elem); ok {
		return className, true
	}
	return elem, true
}
