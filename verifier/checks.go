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
)

// CheckCodePresence enforces spec.md §4.3's "Code is forbidden on
// native/abstract methods and required on every other method".
func CheckCodePresence(m *classfile.Method) error {
	if m.IsAbstractOrNative() {
		if m.Code != nil {
			return &MissingCode{HasCode: true, WantsCode: false}
		}
		return nil
	}
	if m.Code == nil {
		return &MissingCode{HasCode: false, WantsCode: true}
	}
	return nil
}

// CheckMaxLocals enforces "max_locals must be at least enough to hold
// this (non-static) plus parameter slots (Long/Double counted as 2)".
func CheckMaxLocals(m *classfile.Method, md *classfile.MethodDescriptor) error {
	need := md.ParameterSlots()
	if !m.AccessFlags.Has(classfile.AccStatic) {
		need++
	}
	if m.Code.MaxLocals < need {
		return fmt.Errorf("verifier: max_locals %d too small for %d required slots", m.Code.MaxLocals, need)
	}
	return nil
}

// CheckJumpTargetsInRange validates every branch/switch target index
// falls within the method's instruction list.
func CheckJumpTargetsInRange(code *classfile.CodeAttribute) error {
	n := len(code.Instructions)
	inRange := func(idx int) error {
		if idx < 0 || idx >= n {
			return &InvalidInstructionOffset{Target: idx}
		}
		return nil
	}
	for _, insn := range code.Instructions {
		if insn.Switch != nil {
			if err := inRange(insn.Switch.Default); err != nil {
				return err
			}
			for _, t := range insn.Switch.Targets {
				if err := inRange(t); err != nil {
					return err
				}
			}
			continue
		}
		// BranchTarget is meaningful only for actual branch opcodes;
		// zero-valued for every other instruction kind, so gate on
		// IsBranch rather than inspecting the field unconditionally.
		if opcodeIsBranch(insn) {
			if err := inRange(insn.BranchTarget); err != nil {
				return err
			}
		}
	}
	for _, et := range code.ExceptionTable {
		if err := inRange(et.HandlerPC); err != nil {
			return err
		}
	}
	return nil
}

// CheckFramesAtJumpTargets enforces "for version >= 50, every jump
// target must have a corresponding frame; absence is VerifyError".
func CheckFramesAtJumpTargets(version classfile.Version, code *classfile.CodeAttribute) error {
	if !version.RequiresStackMapTable() {
		return nil
	}
	framed := map[int]bool{}
	if code.StackMapTable != nil {
		for _, f := range code.StackMapTable.Frames {
			framed[f.InstructionIndex] = true
		}
	}
	check := func(idx int) error {
		if !framed[idx] {
			return &VerifyError{Context: fmt.Sprintf("jump target at instruction %d has no stack map frame", idx)}
		}
		return nil
	}
	for _, insn := range code.Instructions {
		if insn.Switch != nil {
			if err := check(insn.Switch.Default); err != nil {
				return err
			}
			for _, t := range insn.Switch.Targets {
				if err := check(t); err != nil {
					return err
				}
			}
			continue
		}
		if opcodeIsBranch(insn) {
			if err := check(insn.BranchTarget); err != nil {
				return err
			}
		}
	}
	return nil
}

func opcodeIsBranch(insn classfile.Instruction) bool {
	return opcodes.IsBranch(insn.Op)
}

// CheckRecordComponents enforces spec.md §4.3's Record-attribute
// check: component names unique, each descriptor well-formed.
func CheckRecordComponents(cp *classfile.ConstantPool, className string, rec *classfile.RecordAttribute) error {
	seen := map[string]bool{}
	for _, c := range rec.Components {
		name, err := cp.UTF8At(int(c.NameIndex))
		if err != nil {
			return err
		}
		if seen[name] {
			return &SplitRecordComponent{Class: className, Component: name}
		}
		seen[name] = true
		descriptor, err := cp.UTF8At(int(c.DescIndex))
		if err != nil {
			return err
		}
		if _, err := classfile.ParseFieldDescriptor(descriptor); err != nil {
			return fmt.Errorf("verifier: record %s component %q: %w", className, name, err)
		}
	}
	return nil
}
