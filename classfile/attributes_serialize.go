/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"fmt"

	"github.com/theseus-rs/ristretto-sub006/opcodes"
)

// serializeAttributes writes an attributes_count-prefixed list,
// resolving each attribute's name_index against cp (every name this
// engine emits was read from cp during Parse, so it's always present).
// owningMethod is non-nil only when serializing a method's own
// attributes, mirroring parseAttributes -- needed so a Code
// attribute's StackMapTable can rebuild the same implicit initial
// frame the parser used.
func serializeAttributes(w *writer, attrs []Attribute, cp *ConstantPool, owningMethod *Method) error {
	w.u2(uint16(len(attrs)))
	for _, a := range attrs {
		nameIdx, err := cp.UTF8Index(a.AttrName())
		if err != nil {
			return err
		}
		data, err := serializeOneAttribute(a, cp, owningMethod)
		if err != nil {
			return err
		}
		w.u2(nameIdx)
		w.u4(uint32(len(data)))
		w.bytes(data)
	}
	return nil
}

func serializeOneAttribute(a Attribute, cp *ConstantPool, owningMethod *Method) ([]byte, error) {
	w := &writer{}
	switch v := a.(type) {
	case *Unknown:
		return v.Data, nil

	case *CodeAttribute:
		if err := serializeCodeAttribute(w, v, cp, owningMethod); err != nil {
			return nil, err
		}

	case *StackMapTableAttribute:
		serializeStackMapTable(w, v)

	case *LineNumberTableAttribute:
		w.u2(uint16(len(v.Entries)))
		for _, e := range v.Entries {
			w.u2(uint16(e.InstructionIndex))
			w.u2(uint16(e.LineNumber))
		}

	case *LocalVariableTableAttribute:
		w.u2(uint16(len(v.Entries)))
		for _, e := range v.Entries {
			w.u2(uint16(e.StartPC))
			w.u2(uint16(e.Length))
			w.u2(e.NameIndex)
			w.u2(e.DescIndex)
			w.u2(e.Index)
		}

	case *ExceptionsAttribute:
		w.u2(uint16(len(v.ExceptionIndexTable)))
		for _, idx := range v.ExceptionIndexTable {
			w.u2(idx)
		}

	case *InnerClassesAttribute:
		w.u2(uint16(len(v.Classes)))
		for _, c := range v.Classes {
			w.u2(c.InnerClassInfoIndex)
			w.u2(c.OuterClassInfoIndex)
			w.u2(c.InnerNameIndex)
			w.u2(uint16(c.InnerClassAccessFlags))
		}

	case *SourceFileAttribute:
		w.u2(v.SourceFileIndex)

	case *SignatureAttribute:
		w.u2(v.SignatureIndex)

	case *RuntimeVisibleAnnotationsAttribute:
		w.u2(uint16(len(v.Annotations)))
		for _, an := range v.Annotations {
			w.u2(an.TypeIndex)
			w.bytes(an.ElementValuePairs)
		}

	case *RuntimeVisibleTypeAnnotationsAttribute:
		w.u2(uint16(len(v.Annotations)))
		for _, ta := range v.Annotations {
			w.u1(byte(ta.TargetType))
			w.bytes(ta.Rest)
		}

	case *BootstrapMethodsAttribute:
		w.u2(uint16(len(v.Methods)))
		for _, m := range v.Methods {
			w.u2(m.MethodRefIndex)
			w.u2(uint16(len(m.Arguments)))
			for _, arg := range m.Arguments {
				w.u2(arg)
			}
		}

	case *ModuleAttribute:
		serializeModuleAttribute(w, v)

	case *RecordAttribute:
		w.u2(uint16(len(v.Components)))
		for _, c := range v.Components {
			w.u2(c.NameIndex)
			w.u2(c.DescIndex)
			if err := serializeAttributes(w, c.Attributes, cp, nil); err != nil {
				return nil, err
			}
		}

	case *NestHostAttribute:
		w.u2(v.HostClassIndex)

	case *NestMembersAttribute:
		w.u2(uint16(len(v.Classes)))
		for _, c := range v.Classes {
			w.u2(c)
		}

	case *PermittedSubclassesAttribute:
		w.u2(uint16(len(v.Classes)))
		for _, c := range v.Classes {
			w.u2(c)
		}

	default:
		return nil, fmt.Errorf("classfile: unserializable attribute type %T", a)
	}

	return w.buf, nil
}

func serializeModuleAttribute(w *writer, m *ModuleAttribute) {
	w.u2(m.NameIndex)
	w.u2(m.Flags)
	w.u2(m.VersionIndex)

	w.u2(uint16(len(m.Requires)))
	for _, r := range m.Requires {
		w.u2(r.Index)
		w.u2(r.Flags)
		w.u2(0) // requires_version_index: not tracked, see ModuleRequires doc
	}

	w.u2(uint16(len(m.Exports)))
	for _, e := range m.Exports {
		w.u2(e.Index)
		w.u2(e.Flags)
		w.u2(uint16(len(e.ToIndex)))
		for _, t := range e.ToIndex {
			w.u2(t)
		}
	}

	w.u2(uint16(len(m.Opens)))
	for _, o := range m.Opens {
		w.u2(o.Index)
		w.u2(o.Flags)
		w.u2(uint16(len(o.ToIndex)))
		for _, t := range o.ToIndex {
			w.u2(t)
		}
	}

	w.u2(uint16(len(m.Uses)))
	for _, u := range m.Uses {
		w.u2(u)
	}

	w.u2(uint16(len(m.Provides)))
	for _, p := range m.Provides {
		w.u2(p.Index)
		w.u2(uint16(len(p.WithIndex)))
		for _, wi := range p.WithIndex {
			w.u2(wi)
		}
	}
}

// serializeCodeAttribute re-encodes a decoded Code attribute back to
// bytes, de-canonicalising instruction indices back to byte offsets
// for branches, switch targets, the exception table, and any
// StackMapTable sub-attribute.
func serializeCodeAttribute(w *writer, ca *CodeAttribute, cp *ConstantPool, owningMethod *Method) error {
	w.u2(uint16(ca.MaxStack))
	w.u2(uint16(ca.MaxLocals))

	code, indexToOffset, err := encodeInstructions(ca.Instructions)
	if err != nil {
		return err
	}
	w.u4(uint32(len(code)))
	w.bytes(code)

	w.u2(uint16(len(ca.ExceptionTable)))
	for _, e := range ca.ExceptionTable {
		w.u2(uint16(instructionOffset(indexToOffset, e.StartPC, len(code))))
		w.u2(uint16(instructionOffset(indexToOffset, e.EndPC, len(code))))
		w.u2(uint16(instructionOffset(indexToOffset, e.HandlerPC, len(code))))
		w.u2(e.CatchClass)
	}

	initialLocals, err := implicitInitialLocals(cp, owningMethod)
	if err != nil {
		return err
	}

	// Sub-attributes: StackMapTable needs the byte-offset map (and the
	// method's implicit initial frame) to de-canonicalise, so it's
	// handled specially rather than through the generic
	// serializeAttributes dispatch.
	w.u2(uint16(len(ca.Attributes)))
	for _, a := range ca.Attributes {
		nameIdx, err := cp.UTF8Index(a.AttrName())
		if err != nil {
			return err
		}
		if smt, ok := a.(*StackMapTableAttribute); ok {
			sub := &writer{}
			serializeStackMapTableWithOffsets(sub, smt, indexToOffset, initialLocals)
			w.u2(nameIdx)
			w.u4(uint32(len(sub.buf)))
			w.bytes(sub.buf)
			continue
		}
		data, err := serializeOneAttribute(a, cp, owningMethod)
		if err != nil {
			return err
		}
		w.u2(nameIdx)
		w.u4(uint32(len(data)))
		w.bytes(data)
	}

	return nil
}

func instructionOffset(indexToOffset []int, idx, codeLen int) int {
	if idx >= 0 && idx < len(indexToOffset) {
		return indexToOffset[idx]
	}
	return codeLen // one-past-the-end, for EndPC == len(instructions)
}

// encodeInstructions is decodeInstructions's inverse: it re-emits raw
// bytecode from canonicalised Instructions, producing the
// instruction-index -> byte-offset map needed to de-canonicalise
// branch targets, exception table entries, and StackMapTable offsets.
// Two passes are required because tableswitch/lookupswitch padding and
// every branch offset depend on byte positions that aren't known until
// every preceding instruction's encoded width is known.
func encodeInstructions(instrs []Instruction) ([]byte, []int, error) {
	indexToOffset := make([]int, len(instrs)+1)
	pos := 0
	for i, inst := range instrs {
		indexToOffset[i] = pos
		pos += instructionWidth(inst, pos)
	}
	indexToOffset[len(instrs)] = pos

	code := make([]byte, 0, pos)
	for i, inst := range instrs {
		buf, err := encodeInstruction(inst, indexToOffset[i], indexToOffset)
		if err != nil {
			return nil, nil, err
		}
		code = append(code, buf...)
	}
	return code, indexToOffset, nil
}

func instructionWidth(inst Instruction, bytePos int) int {
	if inst.Switch != nil {
		padded := bytePos + 1
		for padded%4 != 0 {
			padded++
		}
		width := 1 + (padded - (bytePos + 1)) + 8 // opcode + pad + default + (low/high or npairs)
		if inst.Switch.IsTableForm {
			width += 4 * len(inst.Switch.Targets)
		} else {
			width += 8 * len(inst.Switch.Targets)
		}
		return width
	}
	if inst.Op == opcodes.IINC {
		return 3
	}
	info, ok := opcodes.Table[inst.Op]
	if !ok {
		return 1
	}
	if opcodes.IsBranch(inst.Op) {
		return 1 + info.Operands
	}
	return 1 + info.Operands
}

func encodeInstruction(inst Instruction, bytePos int, indexToOffset []int) ([]byte, error) {
	w := &writer{}

	if inst.Switch != nil {
		op := opcodes.TABLESWITCH
		if !inst.Switch.IsTableForm {
			op = opcodes.LOOKUPSWITCH
		}
		w.u1(byte(op))
		for (len(w.buf)+bytePos)%4 != 0 {
			w.u1(0)
		}
		w.u4(uint32(int32(indexToOffset[inst.Switch.Default] - bytePos)))
		if inst.Switch.IsTableForm {
			w.u4(uint32(int32(inst.Switch.Low)))
			w.u4(uint32(int32(inst.Switch.High)))
			for _, t := range inst.Switch.Targets {
				w.u4(uint32(int32(indexToOffset[t] - bytePos)))
			}
		} else {
			w.u4(uint32(int32(len(inst.Switch.Keys))))
			for i, k := range inst.Switch.Keys {
				w.u4(uint32(k))
				w.u4(uint32(int32(indexToOffset[inst.Switch.Targets[i]] - bytePos)))
			}
		}
		return w.buf, nil
	}

	w.u1(byte(inst.Op))
	info, ok := opcodes.Table[inst.Op]
	if !ok {
		return nil, fmt.Errorf("classfile: unencodable opcode 0x%02X", inst.Op)
	}

	if opcodes.IsBranch(inst.Op) {
		rel := indexToOffset[inst.BranchTarget] - bytePos
		if info.Operands == 4 {
			w.u4(uint32(int32(rel)))
		} else {
			w.u2(uint16(int16(rel)))
		}
		return w.buf, nil
	}

	switch inst.Op {
	case opcodes.IINC:
		w.u1(byte(inst.IntOperand))
		w.u1(byte(int8(inst.IntOperand2)))
	case opcodes.BIPUSH:
		w.u1(byte(int8(inst.IntOperand)))
	case opcodes.SIPUSH:
		w.u2(uint16(int16(inst.IntOperand)))
	case opcodes.MULTIANEWARRAY:
		w.u2(uint16(inst.IntOperand))
		w.u1(byte(inst.IntOperand2))
	case opcodes.INVOKEINTERFACE:
		w.u2(uint16(inst.IntOperand))
		w.u1(byte(inst.IntOperand2))
		w.u1(0)
	case opcodes.INVOKEDYNAMIC:
		w.u2(uint16(inst.IntOperand))
		w.u2(0)
	default:
		if info.Operands == 1 {
			w.u1(byte(inst.IntOperand))
		} else if info.Operands == 2 {
			w.u2(uint16(inst.IntOperand))
		}
	}
	return w.buf, nil
}

func serializeStackMapTable(w *writer, smt *StackMapTableAttribute) {
	// Used only when no enclosing Code attribute's byte-offset map is
	// available (e.g. re-serializing a standalone attribute); frames
	// are emitted with InstructionIndex treated as already being a
	// byte offset, which is correct only immediately after parsing and
	// before any index-space canonicalisation. Real round-trips go
	// through serializeStackMapTableWithOffsets from serializeCodeAttribute.
	identity := make([]int, 0)
	serializeStackMapTableWithOffsets(w, smt, identity, nil)
}

// serializeStackMapTableWithOffsets is parseStackMapTable's inverse.
// initialLocals must be the same implicit initial frame
// implicitInitialLocals produced when the table was parsed, so that
// the first emitted frame, encoded relative to that implicit frame,
// matches what the parser would reconstruct from this same encoding.
func serializeStackMapTableWithOffsets(w *writer, smt *StackMapTableAttribute, indexToOffset []int, initialLocals []VType) {
	toOffset := func(idx int) int {
		if indexToOffset != nil && idx < len(indexToOffset) {
			return indexToOffset[idx]
		}
		return idx
	}

	w.u2(uint16(len(smt.Frames)))
	prevOffset := -1
	prevLocals := initialLocals
	for _, f := range smt.Frames {
		offset := toOffset(f.InstructionIndex)
		var delta int
		if prevOffset == -1 {
			delta = offset
		} else {
			delta = offset - prevOffset - 1
		}
		prevOffset = offset

		switch {
		case len(f.Stack) == 0 && sameLocals(prevLocals, f.Locals):
			emitSameFrame(w, delta)
		case len(f.Stack) == 1 && sameLocals(prevLocals, f.Locals):
			emitSameLocals1StackItemFrame(w, delta, f.Stack[0], indexToOffset)
		case len(f.Locals) < len(prevLocals) && isPrefix(f.Locals, prevLocals):
			chop := len(prevLocals) - len(f.Locals)
			w.u1(byte(251 - chop))
			w.u2(uint16(delta))
		case len(f.Locals) > len(prevLocals) && isPrefix(prevLocals, f.Locals) && len(f.Stack) == 0 && len(f.Locals)-len(prevLocals) <= 3:
			appended := f.Locals[len(prevLocals):]
			w.u1(byte(251 + len(appended)))
			w.u2(uint16(delta))
			for _, vt := range appended {
				emitVerificationType(w, vt, indexToOffset)
			}
		default:
			w.u1(255)
			w.u2(uint16(delta))
			w.u2(uint16(len(f.Locals)))
			for _, vt := range f.Locals {
				emitVerificationType(w, vt, indexToOffset)
			}
			w.u2(uint16(len(f.Stack)))
			for _, vt := range f.Stack {
				emitVerificationType(w, vt, indexToOffset)
			}
		}
		prevLocals = f.Locals
	}
}

func sameLocals(a, b []VType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isPrefix(prefix, full []VType) bool {
	if len(prefix) > len(full) {
		return false
	}
	for i := range prefix {
		if prefix[i] != full[i] {
			return false
		}
	}
	return true
}

func emitSameFrame(w *writer, delta int) {
	if delta <= 63 {
		w.u1(byte(delta))
	} else {
		w.u1(251)
		w.u2(uint16(delta))
	}
}

func emitSameLocals1StackItemFrame(w *writer, delta int, stack VType, indexToOffset []int) {
	if delta <= 63 {
		w.u1(byte(64 + delta))
	} else {
		w.u1(247)
		w.u2(uint16(delta))
	}
	emitVerificationType(w, stack, indexToOffset)
}

func emitVerificationType(w *writer, vt VType, indexToOffset []int) {
	w.u1(byte(vt.Tag))
	switch vt.Tag {
	case VTypeObject:
		w.u2(vt.CPIndex)
	case VTypeUninitialized:
		off := vt.Offset
		if indexToOffset != nil && off < len(indexToOffset) {
			off = indexToOffset[off]
		}
		w.u2(uint16(off))
	}
}
