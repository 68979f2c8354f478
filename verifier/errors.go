/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package verifier implements the bytecode verifier: a StackMapTable-
// driven fast path, a worklist type-inference slow path, the
// cross-cutting structural checks both paths share, and a per-method
// result cache. Grounded on ristretto_classfile's verifiers/bytecode
// module family (stackmap.rs, cache.rs, unified.rs) and
// verifiers/{code,record}.rs, reshaped into jacobin's classloader
// check-function idiom.
package verifier

import "fmt"

// VerifyError is the verifier's catch-all failure, carrying the
// method/class context a caller needs to build a Java
// VerifyError/ClassFormatError (spec.md §4.3).
type VerifyError struct {
	Class   string
	Method  string
	Context string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verifier: %s.%s: %s", e.Class, e.Method, e.Context)
}

// InvalidStackFrameOffset reports a StackMapTable frame whose offset
// doesn't land on a real instruction boundary (spec.md §4.3).
type InvalidStackFrameOffset struct {
	InstructionIndex int
}

func (e *InvalidStackFrameOffset) Error() string {
	return fmt.Sprintf("verifier: invalid stack frame offset at instruction index %d", e.InstructionIndex)
}

// InvalidInstructionOffset reports a branch or switch target outside
// the method's instruction range.
type InvalidInstructionOffset struct {
	Target int
}

func (e *InvalidInstructionOffset) Error() string {
	return fmt.Sprintf("verifier: invalid instruction offset %d", e.Target)
}

// MissingCode reports a concrete (non-abstract, non-native) method
// with no Code attribute, or an abstract/native method that has one
// (spec.md §4.3 "Code is forbidden on native/abstract methods and
// required on every other method").
type MissingCode struct {
	Method    string
	HasCode   bool
	WantsCode bool
}

func (e *MissingCode) Error() string {
	if e.HasCode {
		return fmt.Sprintf("verifier: method %s is native or abstract but has a Code attribute", e.Method)
	}
	return fmt.Sprintf("verifier: method %s is missing a required Code attribute", e.Method)
}

// SplitRecordComponent reports a record class with a duplicate
// component name, per spec.md §4.3's Record-attribute check.
type SplitRecordComponent struct {
	Class     string
	Component string
}

func (e *SplitRecordComponent) Error() string {
	return fmt.Sprintf("verifier: record %s declares component %q more than once", e.Class, e.Component)
}
