/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// AccessFlags is the bitmask shared by classes, fields, and methods.
// Not every bit is meaningful in every context; callers test only the
// bits relevant to what they parsed.
type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020 // classes
	AccSynchronized AccessFlags = 0x0020 // methods
	AccVolatile     AccessFlags = 0x0040
	AccBridge       AccessFlags = 0x0040 // methods
	AccTransient    AccessFlags = 0x0080
	AccVarargs      AccessFlags = 0x0080 // methods
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccModule       AccessFlags = 0x8000
)

func (f AccessFlags) Has(bit AccessFlags) bool { return f&bit != 0 }

// Version is the class file's major.minor version tuple.
type Version struct {
	Major uint16
	Minor uint16
}

// semverString renders a major.minor class file version as the
// "vX.Y.Z" form golang.org/x/mod/semver expects, so version-gate
// comparisons go through the same ordering logic the ecosystem uses
// for module version constraints rather than a hand-rolled compare.
func (v Version) semverString() string {
	return fmt.Sprintf("v%d.%d.0", v.Major, v.Minor)
}

// RequiresStackMapTable reports whether this version requires the
// StackMapTable-driven fast verification path (spec.md §4.3: "Required
// for class files at or above version 50").
func (v Version) RequiresStackMapTable() bool {
	return semver.Compare(v.semverString(), version50.semverString()) >= 0
}

var version50 = Version{Major: 50}

// ClassFile is the parsed image of a .class file (spec.md §3).
type ClassFile struct {
	Version Version

	ConstantPool *ConstantPool

	AccessFlags AccessFlags
	ThisClass   uint16 // CP index of a CONSTANT_Class_info
	SuperClass  uint16 // 0 means no superclass (only java/lang/Object)

	Interfaces []uint16 // CP indices of CONSTANT_Class_info

	Fields  []*Field
	Methods []*Method

	Attributes []Attribute
}

// ThisClassName resolves ThisClass through the constant pool.
func (c *ClassFile) ThisClassName() (string, error) {
	return c.ConstantPool.ClassNameAt(int(c.ThisClass))
}

// SuperClassName resolves SuperClass, returning "" when SuperClass==0
// (only java/lang/Object itself has no superclass).
func (c *ClassFile) SuperClassName() (string, error) {
	if c.SuperClass == 0 {
		return "", nil
	}
	return c.ConstantPool.ClassNameAt(int(c.SuperClass))
}

// InterfaceNames resolves every entry of Interfaces.
func (c *ClassFile) InterfaceNames() ([]string, error) {
	names := make([]string, len(c.Interfaces))
	for i, idx := range c.Interfaces {
		n, err := c.ConstantPool.ClassNameAt(int(idx))
		if err != nil {
			return nil, err
		}
		names[i] = n
	}
	return names, nil
}

// Field is a parsed field_info structure.
type Field struct {
	AccessFlags AccessFlags
	NameIndex   uint16
	DescIndex   uint16
	Attributes  []Attribute
}

// Method is a parsed method_info structure.
type Method struct {
	AccessFlags AccessFlags
	NameIndex   uint16
	DescIndex   uint16
	Attributes  []Attribute

	// Code is nil for abstract/native methods, set for all others.
	// Spec.md §4.3 forbids a Code attribute on abstract/native methods
	// and requires one on every other method; the verifier checks this
	// invariant (see verifier.CheckCodePresence).
	Code *CodeAttribute
}

// IsAbstractOrNative reports whether m is exempt from needing a Code
// attribute.
func (m *Method) IsAbstractOrNative() bool {
	return m.AccessFlags.Has(AccAbstract) || m.AccessFlags.Has(AccNative)
}
