/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"encoding/binary"
	"fmt"

	"github.com/theseus-rs/ristretto-sub006/opcodes"
)

// decodeInstructions decodes a method's raw bytecode into a slice of
// Instructions with every branch target and switch offset still
// expressed in the original byte-offset space; canonicalizeBranches
// converts them to instruction indices afterwards, once the full
// byte-offset -> instruction-index map is known (spec.md §4.1).
func decodeInstructions(code []byte) ([]Instruction, map[int]int, error) {
	var instrs []Instruction
	offsetToIndex := map[int]int{}

	pos := 0
	for pos < len(code) {
		start := pos
		op := opcodes.Opcode(code[pos])
		pos++

		info, ok := opcodes.Table[op]
		if !ok {
			return nil, nil, fmt.Errorf("classfile: unimplemented opcode 0x%02X at offset %d", op, start)
		}

		inst := Instruction{Op: op, ByteOffset: start}

		switch op {
		case opcodes.TABLESWITCH, opcodes.LOOKUPSWITCH:
			// Padding to next 4-byte boundary measured from the start
			// of the method's bytecode (i.e. from offset 0), per JVMS.
			for (pos % 4) != 0 {
				pos++
			}
			if pos+4 > len(code) {
				return nil, nil, &TruncatedInput{Context: "tableswitch/lookupswitch default"}
			}
			defaultOffset := int(int32(binary.BigEndian.Uint32(code[pos:])))
			pos += 4
			sw := &SwitchData{Default: start + defaultOffset}

			if op == opcodes.TABLESWITCH {
				sw.IsTableForm = true
				if pos+8 > len(code) {
					return nil, nil, &TruncatedInput{Context: "tableswitch low/high"}
				}
				low := int32(binary.BigEndian.Uint32(code[pos:]))
				pos += 4
				high := int32(binary.BigEndian.Uint32(code[pos:]))
				pos += 4
				sw.Low, sw.High = int(low), int(high)
				count := int(high) - int(low) + 1
				if count < 0 {
					return nil, nil, fmt.Errorf("classfile: tableswitch with high < low at offset %d", start)
				}
				sw.Targets = make([]int, count)
				for i := 0; i < count; i++ {
					if pos+4 > len(code) {
						return nil, nil, &TruncatedInput{Context: "tableswitch target"}
					}
					off := int(int32(binary.BigEndian.Uint32(code[pos:])))
					sw.Targets[i] = start + off
					pos += 4
				}
			} else {
				if pos+4 > len(code) {
					return nil, nil, &TruncatedInput{Context: "lookupswitch npairs"}
				}
				npairs := int(int32(binary.BigEndian.Uint32(code[pos:])))
				pos += 4
				sw.Keys = make([]int32, npairs)
				sw.Targets = make([]int, npairs)
				for i := 0; i < npairs; i++ {
					if pos+8 > len(code) {
						return nil, nil, &TruncatedInput{Context: "lookupswitch pair"}
					}
					key := int32(binary.BigEndian.Uint32(code[pos:]))
					pos += 4
					off := int(int32(binary.BigEndian.Uint32(code[pos:])))
					pos += 4
					sw.Keys[i] = key
					sw.Targets[i] = start + off
				}
			}
			inst.Switch = sw

		case opcodes.WIDE:
			if pos >= len(code) {
				return nil, nil, &TruncatedInput{Context: "wide opcode"}
			}
			widened := opcodes.Opcode(code[pos])
			pos++
			if pos+2 > len(code) {
				return nil, nil, &TruncatedInput{Context: "wide index"}
			}
			idx := int(binary.BigEndian.Uint16(code[pos:]))
			pos += 2
			inst.IntOperand = idx
			if widened == opcodes.IINC {
				if pos+2 > len(code) {
					return nil, nil, &TruncatedInput{Context: "wide iinc const"}
				}
				inst.IntOperand2 = int(int16(binary.BigEndian.Uint16(code[pos:])))
				pos += 2
				inst.Op = opcodes.IINC
			} else {
				inst.Op = widened
			}

		default:
			if opcodes.IsBranch(op) {
				width := info.Operands
				if pos+width > len(code) {
					return nil, nil, &TruncatedInput{Context: "branch offset"}
				}
				var off int
				if width == 4 {
					off = int(int32(binary.BigEndian.Uint32(code[pos:])))
				} else {
					off = int(int16(binary.BigEndian.Uint16(code[pos:])))
				}
				inst.BranchTarget = start + off
				pos += width
			} else if info.Operands > 0 {
				if pos+info.Operands > len(code) {
					return nil, nil, &TruncatedInput{Context: fmt.Sprintf("operands for %s", info.Name)}
				}
				switch op {
				case opcodes.IINC:
					inst.IntOperand = int(code[pos])
					inst.IntOperand2 = int(int8(code[pos+1]))
				case opcodes.BIPUSH:
					inst.IntOperand = int(int8(code[pos]))
				case opcodes.SIPUSH:
					inst.IntOperand = int(int16(binary.BigEndian.Uint16(code[pos:])))
				case opcodes.MULTIANEWARRAY:
					inst.IntOperand = int(binary.BigEndian.Uint16(code[pos:]))
					inst.IntOperand2 = int(code[pos+2])
				case opcodes.INVOKEINTERFACE:
					inst.IntOperand = int(binary.BigEndian.Uint16(code[pos:]))
					inst.IntOperand2 = int(code[pos+2]) // count; code[pos+3] is reserved 0
				case opcodes.INVOKEDYNAMIC:
					inst.IntOperand = int(binary.BigEndian.Uint16(code[pos:]))
				default:
					if info.Operands == 1 {
						inst.IntOperand = int(code[pos])
					} else if info.Operands == 2 {
						inst.IntOperand = int(binary.BigEndian.Uint16(code[pos:]))
					}
				}
				pos += info.Operands
			}
		}

		offsetToIndex[start] = len(instrs)
		instrs = append(instrs, inst)
	}

	return instrs, offsetToIndex, nil
}

// canonicalizeBranches rewrites every branch/switch target from a raw
// byte offset to its instruction index, per spec.md §4.1. It must run
// after decodeInstructions has produced the complete offsetToIndex
// map, since a forward branch's target instruction may not have been
// decoded yet when the branch itself was read.
func canonicalizeBranches(instrs []Instruction, offsetToIndex map[int]int) error {
	for i := range instrs {
		inst := &instrs[i]
		if opcodes.IsBranch(inst.Op) && inst.Switch == nil {
			idx, ok := offsetToIndex[inst.BranchTarget]
			if !ok {
				return fmt.Errorf("classfile: branch at instruction %d targets invalid offset %d", i, inst.BranchTarget)
			}
			inst.BranchTarget = idx
		}
		if inst.Switch != nil {
			sw := inst.Switch
			idx, ok := offsetToIndex[sw.Default]
			if !ok {
				return fmt.Errorf("classfile: switch at instruction %d has invalid default offset %d", i, sw.Default)
			}
			sw.Default = idx
			for t := range sw.Targets {
				idx, ok := offsetToIndex[sw.Targets[t]]
				if !ok {
					return fmt.Errorf("classfile: switch at instruction %d has invalid target offset %d", i, sw.Targets[t])
				}
				sw.Targets[t] = idx
			}
		}
	}
	return nil
}
