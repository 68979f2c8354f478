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

// inferenceVerify is the slow path: a worklist of instructions, each
// with an entry frame, run to a fixpoint via the §4.2 merge operation
// at every join point (spec.md §4.3 "Slow path"), grounded on
// ristretto_classfile's inference.rs worklist shape. Used when no
// StackMapTable is present, or as the resolved fallback for a
// fast-path failure caused by that absence (spec.md §9).
func inferenceVerify(cp *classfile.ConstantPool, className string, m *classfile.Method, hierarchy vtype.ClassHierarchy) error {
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
	initial, err := implicitInitialFrame(cp, className, m, md)
	if err != nil {
		return err
	}

	entry := make(map[int]*Frame, len(code.Instructions))
	entry[0] = &Frame{
		Locals: expandLocals(initial.Locals, code.MaxLocals),
		Stack:  nil,
	}

	worklist := []int{0}

	propagate := func(target int, f Frame) error {
		if target < 0 || target >= len(code.Instructions) {
			return &InvalidInstructionOffset{Target: target}
		}
		existing, ok := entry[target]
		if !ok {
			clone := f.Clone()
			entry[target] = &clone
			worklist = append(worklist, target)
			return nil
		}
		merged, changed, err := mergeFrame(*existing, f, hierarchy)
		if err != nil {
			return &VerifyError{Class: className, Method: name, Context: fmt.Sprintf("merging frame at %d: %v", target, err)}
		}
		if changed {
			entry[target] = &merged
			worklist = append(worklist, target)
		}
		return nil
	}

	for len(worklist) > 0 {
		idx := worklist[0]
		worklist = worklist[1:]
		if idx >= len(code.Instructions) {
			continue
		}
		start, ok := entry[idx]
		if !ok {
			continue
		}
		current := start.Clone()
		insn := code.Instructions[idx]

		if err := applyEffect(cp, &current, insn, idx); err != nil {
			return &VerifyError{Class: className, Method: name, Context: fmt.Sprintf("at instruction %d (%s): %v", idx, opcodes.Name(insn.Op), err)}
		}

		switch {
		case insn.Switch != nil:
			if err := propagate(insn.Switch.Default, current); err != nil {
				return err
			}
			for _, t := range insn.Switch.Targets {
				if err := propagate(t, current); err != nil {
					return err
				}
			}
		case opcodes.IsBranch(insn.Op):
			if err := propagate(insn.BranchTarget, current); err != nil {
				return err
			}
			if isConditionalBranch(insn.Op) && idx+1 < len(code.Instructions) {
				if err := propagate(idx+1, current); err != nil {
					return err
				}
			}
		case opcodes.IsReturn(insn.Op) || insn.Op == opcodes.ATHROW:
			// terminal: no successor
		default:
			if idx+1 < len(code.Instructions) {
				if err := propagate(idx+1, current); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func isConditionalBranch(op opcodes.Opcode) bool {
	switch op {
	case opcodes.GOTO, opcodes.GOTO_W, opcodes.JSR, opcodes.JSR_W,
		opcodes.TABLESWITCH, opcodes.LOOKUPSWITCH:
		return false
	default:
		return opcodes.IsBranch(op)
	}
}

// mergeFrame applies §4.2's Merge pointwise across locals and stack,
// reporting whether the result differs from a (the prior entry
// frame), which drives the worklist's fixpoint termination.
func mergeFrame(a, b Frame, hierarchy vtype.ClassHierarchy) (Frame, bool, error) {
	if len(a.Stack) != len(b.Stack) {
		return Frame{}, false, fmt.Errorf("stack depth mismatch at join: %d vs %d", len(a.Stack), len(b.Stack))
	}
	locals := make([]vtype.VerificationType, len(a.Locals))
	changed := false
	for i := range a.Locals {
		m, err := vtype.Merge(a.Locals[i], b.Locals[i], hierarchy)
		if err != nil {
			return Frame{}, false, err
		}
		if !m.Equal(a.Locals[i]) {
			changed = true
		}
		locals[i] = m
	}
	stack := make([]vtype.VerificationType, len(a.Stack))
	for i := range a.Stack {
		m, err := vtype.Merge(a.Stack[i], b.Stack[i], hierarchy)
		if err != nil {
			return Frame{}, false, err
		}
		if !m.Equal(a.Stack[i]) {
			changed = true
		}
		stack[i] = m
	}
	return Frame{Locals: locals, Stack: stack}, changed, nil
}
