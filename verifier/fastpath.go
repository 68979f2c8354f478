/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package verifier

import (
	"fmt"

	"github.com/theseus-rs/ristretto-sub006/classfile"
	"github.com/theseus-rs/ristretto-sub006/opcodes"
	"github.com/theseus-rs/ristretto-sub006/vtype"
)

// fastPathVerify runs the StackMapTable-driven single forward pass
// (spec.md §4.3 "Fast path"), grounded on ristretto_classfile's
// fast_path.rs. It returns nil on success, or the first VerifyError-
// family error encountered; nonexistence of a StackMapTable (as
// opposed to a malformed one) is reported via errNeedsFallback so the
// caller can apply the resolved fallback policy.
func fastPathVerify(cp *classfile.ConstantPool, className string, m *classfile.Method, hierarchy vtype.ClassHierarchy) error {
	code := m.Code
	name, err := cp.UTF8At(int(m.NameIndex))
	if err != nil {
		return err
	}
	descriptor, err := cp.UTF8At(int(m.DescIndex))
	if err != nil {
		return err
	}
	md, err := classfile.ParseMethodDescriptor(descriptor)
	if err != nil {
		return err
	}

	if code.StackMapTable == nil {
		return errNeedsFallback
	}

	initial, err := implicitInitialFrame(cp, className, m, md)
	if err != nil {
		return err
	}

	recorded := make(map[int]Frame, len(code.StackMapTable.Frames))
	for _, f := range code.StackMapTable.Frames {
		if f.InstructionIndex < 0 || f.InstructionIndex >= len(code.Instructions) {
			return &InvalidStackFrameOffset{InstructionIndex: f.InstructionIndex}
		}
		resolved, err := resolveFrame(cp, f)
		if err != nil {
			return err
		}
		recorded[f.InstructionIndex] = Frame{
			Locals: expandLocals(resolved.Locals, code.MaxLocals),
			Stack:  resolved.Stack,
		}
	}

	current := Frame{
		Locals: expandLocals(initial.Locals, code.MaxLocals),
		Stack:  nil,
	}

	for idx, insn := range code.Instructions {
		if idx > 0 {
			if rf, ok := recorded[idx]; ok {
				if err := assignableFrame(current, rf, hierarchy); err != nil {
					return &VerifyError{Class: className, Method: name, Context: err.Error()}
				}
				current = rf.Clone()
			}
		}

		if err := applyEffect(cp, &current, insn, idx); err != nil {
			return &VerifyError{Class: className, Method: name, Context: fmt.Sprintf("at instruction %d (%s): %v", idx, opcodes.Name(insn.Op), err)}
		}

		if insn.Switch != nil {
			if err := checkBranchTarget(current, recorded, insn.Switch.Default, hierarchy, className, name); err != nil {
				return err
			}
			for _, t := range insn.Switch.Targets {
				if err := checkBranchTarget(current, recorded, t, hierarchy, className, name); err != nil {
					return err
				}
			}
			continue
		}
		if opcodes.IsBranch(insn.Op) {
			if err := checkBranchTarget(current, recorded, insn.BranchTarget, hierarchy, className, name); err != nil {
				return err
			}
		}
	}

	return nil
}

// errNeedsFallback is a sentinel the caller checks with errors.Is-
// style identity comparison to distinguish "no table, try inference"
// from a genuine verification failure.
var errNeedsFallback = fmt.Errorf("verifier: method has no StackMapTable")

func checkBranchTarget(current Frame, recorded map[int]Frame, target int, hierarchy vtype.ClassHierarchy, className, methodName string) error {
	rf, ok := recorded[target]
	if !ok {
		return &VerifyError{Class: className, Method: methodName, Context: fmt.Sprintf("branch target %d has no recorded frame", target)}
	}
	if err := assignableFrame(current, rf, hierarchy); err != nil {
		return &VerifyError{Class: className, Method: methodName, Context: fmt.Sprintf("branch to %d: %v", target, err)}
	}
	return nil
}

// assignableFrame requires the recorded frame to be >= current
// (pointwise subtyping), per spec.md §4.3.
func assignableFrame(current, recorded Frame, hierarchy vtype.ClassHierarchy) error {
	if len(current.Locals) != len(recorded.Locals) {
		return fmt.Errorf("locals length mismatch: %d vs %d", len(current.Locals), len(recorded.Locals))
	}
	for i := range current.Locals {
		ok, err := vtype.AssignableTo(current.Locals[i], recorded.Locals[i], hierarchy)
		if err != nil {
			return err
		}
		if !ok && recorded.Locals[i].Kind != vtype.KindTop {
			return fmt.Errorf("local %d: %s not assignable to %s", i, current.Locals[i], recorded.Locals[i])
		}
	}
	if len(current.Stack) != len(recorded.Stack) {
		return fmt.Errorf("stack depth mismatch: %d vs %d", len(current.Stack), len(recorded.Stack))
	}
	for i := range current.Stack {
		ok, err := vtype.AssignableTo(current.Stack[i], recorded.Stack[i], hierarchy)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("stack %d: %s not assignable to %s", i, current.Stack[i], recorded.Stack[i])
		}
	}
	return nil
}
