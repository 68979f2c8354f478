/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import "fmt"

// InvalidMagic is returned when a class file doesn't begin with
// 0xCAFEBABE.
type InvalidMagic struct{ Got uint32 }

func (e *InvalidMagic) Error() string {
	return fmt.Sprintf("invalid magic number: got 0x%08X, want 0xCAFEBABE", e.Got)
}

// UnsupportedVersion is returned when the major/minor version tuple is
// outside the range this engine understands.
type UnsupportedVersion struct{ Major, Minor uint16 }

func (e *UnsupportedVersion) Error() string {
	return fmt.Sprintf("unsupported class file version %d.%d", e.Major, e.Minor)
}

// InvalidConstantPoolIndex is returned when an index doesn't resolve
// within the constant pool (out of range, index 0, or the unusable
// second slot of a long/double).
type InvalidConstantPoolIndex struct{ Index int }

func (e *InvalidConstantPoolIndex) Error() string {
	return fmt.Sprintf("invalid constant pool index: %d", e.Index)
}

// InvalidConstantPoolIndexType is returned when an index resolves to
// an entry of the wrong kind for the context requesting it.
type InvalidConstantPoolIndexType struct {
	Index    int
	Want, Got Tag
}

func (e *InvalidConstantPoolIndexType) Error() string {
	return fmt.Sprintf("constant pool index %d: expected tag %d, got %d", e.Index, e.Want, e.Got)
}

// TruncatedInput is returned when the byte stream ends before a
// structure the codec expected to be able to read in full.
type TruncatedInput struct{ Context string }

func (e *TruncatedInput) Error() string {
	return fmt.Sprintf("truncated class file input: %s", e.Context)
}

// InvalidTargetTypeCode is returned when a type-annotation's
// target_type byte isn't one of the 0x00-0x4B codes the JVM
// specification defines (spec.md §4.1).
type InvalidTargetTypeCode struct{ Code byte }

func (e *InvalidTargetTypeCode) Error() string {
	return fmt.Sprintf("invalid type annotation target_type code: 0x%02X", e.Code)
}
