/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024-6 by the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

// Package vtype is the verifier's type lattice: the small closed set
// of "verification types" spec.md §4.2 defines, plus the merge
// (least-upper-bound) operation the two verification paths share.
// Grounded on the implicit VerificationType lattice used throughout
// ristretto_classfile's stackmap/unified verifiers.
package vtype

import "fmt"

// Kind discriminates a VerificationType.
type Kind int

const (
	KindTop Kind = iota
	KindInteger
	KindFloat
	KindLong
	KindDouble
	KindNull
	KindUninitializedThis
	KindUninitialized // carries Offset: the instruction index of the `new` that produced it
	KindObject        // carries ClassName
)

// VerificationType is one entry in a verifier frame's locals or
// operand stack.
type VerificationType struct {
	Kind      Kind
	ClassName string // valid when Kind == KindObject
	Offset    int    // valid when Kind == KindUninitialized
}

var (
	Top                = VerificationType{Kind: KindTop}
	Integer            = VerificationType{Kind: KindInteger}
	Float              = VerificationType{Kind: KindFloat}
	Long               = VerificationType{Kind: KindLong}
	Double             = VerificationType{Kind: KindDouble}
	Null               = VerificationType{Kind: KindNull}
	UninitializedThis  = VerificationType{Kind: KindUninitializedThis}
)

// Object returns the verification type for a loaded/loadable
// reference type named className (e.g. "java/lang/String", or an
// array descriptor such as "[Ljava/lang/String;").
func Object(className string) VerificationType {
	return VerificationType{Kind: KindObject, ClassName: className}
}

// Uninitialized returns the verification type for an object under
// construction, keyed by the instruction index of the `new` that
// allocated it.
func Uninitialized(offset int) VerificationType {
	return VerificationType{Kind: KindUninitialized, Offset: offset}
}

// IsCategory2 reports whether t occupies two locals/stack slots.
func (t VerificationType) IsCategory2() bool {
	return t.Kind == KindLong || t.Kind == KindDouble
}

// IsReference reports whether t is some flavor of object reference
// (including Null and the uninitialized variants, which are reference
// types pending construction).
func (t VerificationType) IsReference() bool {
	switch t.Kind {
	case KindNull, KindUninitializedThis, KindUninitialized, KindObject:
		return true
	default:
		return false
	}
}

func (t VerificationType) String() string {
	switch t.Kind {
	case KindTop:
		return "top"
	case KindInteger:
		return "int"
	case KindFloat:
		return "float"
	case KindLong:
		return "long"
	case KindDouble:
		return "double"
	case KindNull:
		return "null"
	case KindUninitializedThis:
		return "uninitializedThis"
	case KindUninitialized:
		return fmt.Sprintf("uninitialized(%d)", t.Offset)
	case KindObject:
		return t.ClassName
	default:
		return "?"
	}
}

func (t VerificationType) Equal(o VerificationType) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindObject:
		return t.ClassName == o.ClassName
	case KindUninitialized:
		return t.Offset == o.Offset
	default:
		return true
	}
}

// ClassHierarchy answers the subtype queries the merge and assignment
// checks need. It is supplied by the class loader (spec.md's
// "VerificationContext"); kept as a narrow interface here so the
// verifier doesn't import the loader package directly (avoiding the
// import cycle classloader -> verifier -> classloader).
type ClassHierarchy interface {
	// IsSubclassOf reports whether `sub` is sub or equal to `super`
	// (a loaded/loadable class or interface name).
	IsSubclassOf(sub, super string) (bool, error)
	// CommonSuperclass returns the least common superclass of a and b,
	// falling back to "java/lang/Object" when they share no closer
	// ancestor (spec.md §4.2).
	CommonSuperclass(a, b string) (string, error)
	// IsArray reports whether name is an array descriptor (e.g. "[I").
	IsArray(name string) bool
	// ArrayElement returns the element-type descriptor/class name of
	// an array type, e.g. "[Ljava/lang/String;" -> "java/lang/String".
	ArrayElement(name string) (string, bool)
}

// Merge computes the least upper bound of a and b per spec.md §4.2:
//   - Top is absorbing (merging with Top always yields Top... except
//     the other operand being the SAME type, handled by the early
//     equality check below -- Top only wins when the types actually
//     differ and neither is just "unset").
//   - Null merges with any reference type to produce that type.
//   - category-2 types only merge with themselves.
//   - UninitializedThis/Uninitialized never merge with an initialized
//     reference.
//   - reference types merge to their common Object superclass, with
//     special handling for arrays of the same element kind.
func Merge(a, b VerificationType, hierarchy ClassHierarchy) (VerificationType, error) {
	if a.Equal(b) {
		return a, nil
	}
	if a.Kind == KindTop || b.Kind == KindTop {
		return Top, nil
	}

	// category-2 types merge only with themselves (already excluded by
	// the equality check above), so any mismatch here invalidates the slot.
	if a.IsCategory2() || b.IsCategory2() {
		return Top, nil
	}

	if a.Kind == KindNull && b.IsReference() {
		return b, nil
	}
	if b.Kind == KindNull && a.IsReference() {
		return a, nil
	}

	// Uninitialized markers never merge with an initialized reference
	// or with each other (different offsets/this-ness are genuinely
	// different types).
	if a.Kind == KindUninitializedThis || a.Kind == KindUninitialized ||
		b.Kind == KindUninitializedThis || b.Kind == KindUninitialized {
		return Top, nil
	}

	if a.Kind != KindObject || b.Kind != KindObject {
		// e.g. int merged with a reference: never valid.
		return Top, nil
	}

	if hierarchy == nil {
		return Object("java/lang/Object"), nil
	}

	aIsArray := hierarchy.IsArray(a.ClassName)
	bIsArray := hierarchy.IsArray(b.ClassName)
	if aIsArray && bIsArray {
		aElem, _ := hierarchy.ArrayElement(a.ClassName)
		bElem, _ := hierarchy.ArrayElement(b.ClassName)
		if aElem == bElem {
			return a, nil
		}
		return Object("java/lang/Object"), nil
	}
	if aIsArray != bIsArray {
		return Object("java/lang/Object"), nil
	}

	common, err := hierarchy.CommonSuperclass(a.ClassName, b.ClassName)
	if err != nil {
		return VerificationType{}, err
	}
	return Object(common), nil
}

// AssignableTo reports whether `from` may be used where `to` is
// expected -- the pointwise subtyping test the fast-path verifier
// applies when comparing the current frame against a recorded
// stack-map frame (spec.md §4.3: "require the recorded frame at the
// target to be >= the current frame").
func AssignableTo(from, to VerificationType, hierarchy ClassHierarchy) (bool, error) {
	if to.Kind == KindTop {
		return true, nil
	}
	if from.Equal(to) {
		return true, nil
	}
	if from.Kind == KindNull && to.IsReference() &&
		to.Kind != KindUninitializedThis && to.Kind != KindUninitialized {
		return true, nil
	}
	if from.IsCategory2() || to.IsCategory2() {
		return false, nil
	}
	if from.Kind != KindObject || to.Kind != KindObject {
		return false, nil
	}
	if hierarchy == nil {
		return to.ClassName == "java/lang/Object", nil
	}
	return hierarchy.IsSubclassOf(from.ClassName, to.ClassName)
}
