/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package verifier

import (
	"fmt"

	"github.com/theseus-rs/ristretto-sub006/classfile"
	"github.com/theseus-rs/ristretto-sub006/vtype"
)

// Frame is the verifier's common frame representation shared by both
// verification paths (spec.md §4.3). Locals are slot-indexed, with a
// Top entry after each category-2 value; the stack holds one entry per
// value, category-2 values included.
type Frame struct {
	Locals []vtype.VerificationType
	Stack  []vtype.VerificationType
}

// Clone returns a deep-enough copy for a frame that will be mutated
// independently (e.g. one successor of a branch).
func (f Frame) Clone() Frame {
	locals := make([]vtype.VerificationType, len(f.Locals))
	copy(locals, f.Locals)
	stack := make([]vtype.VerificationType, len(f.Stack))
	copy(stack, f.Stack)
	return Frame{Locals: locals, Stack: stack}
}

// resolveVType bridges classfile's wire-level VType into vtype's
// resolved VerificationType. Object entries carry a constant-pool
// index rather than a class name directly, which is why this
// function -- and not classfile itself -- needs the constant pool.
func resolveVType(cp *classfile.ConstantPool, vt classfile.VType) (vtype.VerificationType, error) {
	switch vt.Tag {
	case classfile.VTypeTop:
		return vtype.Top, nil
	case classfile.VTypeInteger:
		return vtype.Integer, nil
	case classfile.VTypeFloat:
		return vtype.Float, nil
	case classfile.VTypeLong:
		return vtype.Long, nil
	case classfile.VTypeDouble:
		return vtype.Double, nil
	case classfile.VTypeNull:
		return vtype.Null, nil
	case classfile.VTypeUninitializedThis:
		return vtype.UninitializedThis, nil
	case classfile.VTypeObject:
		name, err := cp.ClassNameAt(int(vt.CPIndex))
		if err != nil {
			return vtype.VerificationType{}, err
		}
		return vtype.Object(name), nil
	case classfile.VTypeUninitialized:
		return vtype.Uninitialized(vt.Offset), nil
	default:
		return vtype.VerificationType{}, fmt.Errorf("verifier: unrecognised VType tag %d", vt.Tag)
	}
}

// resolveFrame converts an absolute StackMapFrame (still in wire
// VType form) into a verifier Frame.
func resolveFrame(cp *classfile.ConstantPool, f classfile.StackMapFrame) (Frame, error) {
	locals := make([]vtype.VerificationType, len(f.Locals))
	for i, l := range f.Locals {
		rl, err := resolveVType(cp, l)
		if err != nil {
			return Frame{}, err
		}
		locals[i] = rl
	}
	stack := make([]vtype.VerificationType, len(f.Stack))
	for i, s := range f.Stack {
		rs, err := resolveVType(cp, s)
		if err != nil {
			return Frame{}, err
		}
		stack[i] = rs
	}
	return Frame{Locals: locals, Stack: stack}, nil
}

// implicitInitialFrame builds the frame a method starts execution
// with: `this` (for non-static methods, UninitializedThis inside a
// constructor, Object(className) otherwise) followed by its
// descriptor's parameter types, category-2 types contributing exactly
// one VerificationType entry (spec.md §4.2/§4.3, JVMS 4.10.1.6).
func implicitInitialFrame(cp *classfile.ConstantPool, className string, m *classfile.Method, md *classfile.MethodDescriptor) (Frame, error) {
	var locals []vtype.VerificationType
	if !m.AccessFlags.Has(classfile.AccStatic) {
		name, err := cp.UTF8At(int(m.NameIndex))
		if err != nil {
			return Frame{}, err
		}
		if name == "<init>" {
			locals = append(locals, vtype.UninitializedThis)
		} else {
			locals = append(locals, vtype.Object(className))
		}
	}
	for _, p := range md.Parameters {
		locals = append(locals, fieldTypeToVerificationType(p))
	}
	return Frame{Locals: locals, Stack: nil}, nil
}

func fieldTypeToVerificationType(f classfile.FieldType) vtype.VerificationType {
	switch f.Kind {
	case classfile.FieldInt, classfile.FieldByte, classfile.FieldChar, classfile.FieldShort, classfile.FieldBoolean:
		return vtype.Integer
	case classfile.FieldLong:
		return vtype.Long
	case classfile.FieldFloat:
		return vtype.Float
	case classfile.FieldDouble:
		return vtype.Double
	case classfile.FieldObject:
		return vtype.Object(f.ClassName)
	case classfile.FieldArray:
		return vtype.Object(f.Descriptor())
	default:
		return vtype.Top
	}
}
