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

// expandLocals turns a StackMapTable's compact locals list (one
// VerificationType per logical value, per JVMS 4.10.1.6) into the
// raw, slot-indexed array the interpreter and this verifier's forward
// pass use to resolve ILOAD/ASTORE/etc.'s slot operand directly:
// category-2 entries occupy their own slot plus a Top placeholder in
// the following slot, then the whole array is padded with Top up to
// totalSlots.
func expandLocals(compact []vtype.VerificationType, totalSlots int) []vtype.VerificationType {
	raw := make([]vtype.VerificationType, 0, totalSlots)
	for _, v := range compact {
		raw = append(raw, v)
		if v.IsCategory2() {
			raw = append(raw, vtype.Top)
		}
	}
	for len(raw) < totalSlots {
		raw = append(raw, vtype.Top)
	}
	return raw
}

func push(f *Frame, v vtype.VerificationType) {
	f.Stack = append(f.Stack, v)
}

func pop(f *Frame) (vtype.VerificationType, error) {
	if len(f.Stack) == 0 {
		return vtype.VerificationType{}, fmt.Errorf("verifier: operand stack underflow")
	}
	v := f.Stack[len(f.Stack)-1]
	f.Stack = f.Stack[:len(f.Stack)-1]
	return v, nil
}

func popN(f *Frame, n int) error {
	for i := 0; i < n; i++ {
		if _, err := pop(f); err != nil {
			return err
		}
	}
	return nil
}

func loadLocal(f *Frame, slot int) (vtype.VerificationType, error) {
	if slot < 0 || slot >= len(f.Locals) {
		return vtype.VerificationType{}, fmt.Errorf("verifier: local slot %d out of range", slot)
	}
	return f.Locals[slot], nil
}

func storeLocal(f *Frame, slot int, v vtype.VerificationType) error {
	if slot < 0 || slot >= len(f.Locals) {
		return fmt.Errorf("verifier: local slot %d out of range", slot)
	}
	f.Locals[slot] = v
	if v.IsCategory2() {
		if slot+1 >= len(f.Locals) {
			return fmt.Errorf("verifier: local slot %d out of range", slot+1)
		}
		f.Locals[slot+1] = vtype.Top
	}
	return nil
}

// applyEffect mutates frame in place per op's abstract stack/locals
// effect, grounded on ristretto_classfile's fast_path.rs opcode
// dispatch (the per-instruction abstract interpretation both the fast
// and slow paths share). idx is insn's position in the instruction
// list, needed to key an Uninitialized(offset) for `new`.
func applyEffect(cp *classfile.ConstantPool, frame *Frame, insn classfile.Instruction, idx int) error {
	op := insn.Op
	switch {
	case op == opcodes.NOP:
		return nil

	case op == opcodes.ACONST_NULL:
		push(frame, vtype.Null)
		return nil

	case op >= opcodes.ICONST_M1 && op <= opcodes.ICONST_5:
		push(frame, vtype.Integer)
		return nil
	case op == opcodes.LCONST_0 || op == opcodes.LCONST_1:
		push(frame, vtype.Long)
		return nil
	case op == opcodes.FCONST_0 || op == opcodes.FCONST_1 || op == opcodes.FCONST_2:
		push(frame, vtype.Float)
		return nil
	case op == opcodes.DCONST_0 || op == opcodes.DCONST_1:
		push(frame, vtype.Double)
		return nil
	case op == opcodes.BIPUSH || op == opcodes.SIPUSH:
		push(frame, vtype.Integer)
		return nil

	case op == opcodes.LDC || op == opcodes.LDC_W || op == opcodes.LDC2_W:
		return applyLdc(cp, frame, insn)

	case op == opcodes.ILOAD || (op >= opcodes.ILOAD_0 && op <= opcodes.ILOAD_3):
		v, err := loadLocal(frame, loadStoreSlot(op, opcodes.ILOAD, opcodes.ILOAD_0, insn))
		if err != nil {
			return err
		}
		push(frame, v)
		return nil
	case op == opcodes.LLOAD || (op >= opcodes.LLOAD_0 && op <= opcodes.LLOAD_3):
		v, err := loadLocal(frame, loadStoreSlot(op, opcodes.LLOAD, opcodes.LLOAD_0, insn))
		if err != nil {
			return err
		}
		push(frame, v)
		return nil
	case op == opcodes.FLOAD || (op >= opcodes.FLOAD_0 && op <= opcodes.FLOAD_3):
		v, err := loadLocal(frame, loadStoreSlot(op, opcodes.FLOAD, opcodes.FLOAD_0, insn))
		if err != nil {
			return err
		}
		push(frame, v)
		return nil
	case op == opcodes.DLOAD || (op >= opcodes.DLOAD_0 && op <= opcodes.DLOAD_3):
		v, err := loadLocal(frame, loadStoreSlot(op, opcodes.DLOAD, opcodes.DLOAD_0, insn))
		if err != nil {
			return err
		}
		push(frame, v)
		return nil
	case op == opcodes.ALOAD || (op >= opcodes.ALOAD_0 && op <= opcodes.ALOAD_3):
		v, err := loadLocal(frame, loadStoreSlot(op, opcodes.ALOAD, opcodes.ALOAD_0, insn))
		if err != nil {
			return err
		}
		push(frame, v)
		return nil

	case op == opcodes.ISTORE || (op >= opcodes.ISTORE_0 && op <= opcodes.ISTORE_3):
		v, err := pop(frame)
		if err != nil {
			return err
		}
		return storeLocal(frame, loadStoreSlot(op, opcodes.ISTORE, opcodes.ISTORE_0, insn), v)
	case op == opcodes.LSTORE || (op >= opcodes.LSTORE_0 && op <= opcodes.LSTORE_3):
		v, err := pop(frame)
		if err != nil {
			return err
		}
		return storeLocal(frame, loadStoreSlot(op, opcodes.LSTORE, opcodes.LSTORE_0, insn), v)
	case op == opcodes.FSTORE || (op >= opcodes.FSTORE_0 && op <= opcodes.FSTORE_3):
		v, err := pop(frame)
		if err != nil {
			return err
		}
		return storeLocal(frame, loadStoreSlot(op, opcodes.FSTORE, opcodes.FSTORE_0, insn), v)
	case op == opcodes.DSTORE || (op >= opcodes.DSTORE_0 && op <= opcodes.DSTORE_3):
		v, err := pop(frame)
		if err != nil {
			return err
		}
		return storeLocal(frame, loadStoreSlot(op, opcodes.DSTORE, opcodes.DSTORE_0, insn), v)
	case op == opcodes.ASTORE || (op >= opcodes.ASTORE_0 && op <= opcodes.ASTORE_3):
		v, err := pop(frame)
		if err != nil {
			return err
		}
		return storeLocal(frame, loadStoreSlot(op, opcodes.ASTORE, opcodes.ASTORE_0, insn), v)

	case op == opcodes.IALOAD || op == opcodes.BALOAD || op == opcodes.CALOAD || op == opcodes.SALOAD:
		return arrayLoad(frame, vtype.Integer)
	case op == opcodes.LALOAD:
		return arrayLoad(frame, vtype.Long)
	case op == opcodes.FALOAD:
		return arrayLoad(frame, vtype.Float)
	case op == opcodes.DALOAD:
		return arrayLoad(frame, vtype.Double)
	case op == opcodes.AALOAD:
		return arrayLoadRef(frame)

	case op == opcodes.IASTORE || op == opcodes.BASTORE || op == opcodes.CASTORE || op == opcodes.SASTORE ||
		op == opcodes.LASTORE || op == opcodes.FASTORE || op == opcodes.DASTORE || op == opcodes.AASTORE:
		return popN(frame, 3) // arrayref, index, value

	case op == opcodes.POP:
		return popN(frame, 1)
	case op == opcodes.POP2:
		// a long/double is one stack entry here, so pop2 removes one
		// such value or two category-1 values.
		v, err := pop(frame)
		if err != nil {
			return err
		}
		if v.IsCategory2() {
			return nil
		}
		return popN(frame, 1)
	case op == opcodes.DUP:
		return dup(frame, 1, 0)
	case op == opcodes.DUP_X1:
		return dup(frame, 1, 1)
	case op == opcodes.DUP_X2:
		return dup(frame, 1, 2)
	case op == opcodes.DUP2:
		if n := len(frame.Stack); n > 0 && frame.Stack[n-1].IsCategory2() {
			return dup(frame, 1, 0)
		}
		return dup(frame, 2, 0)
	case op == opcodes.DUP2_X1:
		return dup(frame, 2, 1)
	case op == opcodes.DUP2_X2:
		return dup(frame, 2, 2)
	case op == opcodes.SWAP:
		a, err := pop(frame)
		if err != nil {
			return err
		}
		b, err := pop(frame)
		if err != nil {
			return err
		}
		push(frame, a)
		push(frame, b)
		return nil

	case isBinaryArith(op):
		if err := popN(frame, 2); err != nil {
			return err
		}
		return pushArith(frame, op)
	case isUnaryArith(op):
		return nil // pop+push same type, net no-op on the type, value changes only

	case op == opcodes.IINC:
		return nil

	case isConversion(op):
		return applyConversion(frame, op)

	case op == opcodes.LCMP || op == opcodes.FCMPL || op == opcodes.FCMPG || op == opcodes.DCMPL || op == opcodes.DCMPG:
		if err := popN(frame, 2); err != nil {
			return err
		}
		push(frame, vtype.Integer)
		return nil

	case opcodes.IsBranch(op):
		return applyBranch(frame, op)

	case opcodes.IsReturn(op):
		if op != opcodes.RETURN {
			if _, err := pop(frame); err != nil {
				return err
			}
		}
		return nil

	case op == opcodes.GETSTATIC:
		return applyGetField(cp, frame, insn, false)
	case op == opcodes.PUTSTATIC:
		return applyPutField(cp, frame, insn, false)
	case op == opcodes.GETFIELD:
		return applyGetField(cp, frame, insn, true)
	case op == opcodes.PUTFIELD:
		return applyPutField(cp, frame, insn, true)

	case op == opcodes.INVOKEVIRTUAL || op == opcodes.INVOKESPECIAL || op == opcodes.INVOKESTATIC ||
		op == opcodes.INVOKEINTERFACE || op == opcodes.INVOKEDYNAMIC:
		return applyInvoke(cp, frame, insn)

	case op == opcodes.NEW:
		push(frame, vtype.Uninitialized(idx))
		return nil
	case op == opcodes.NEWARRAY:
		if _, err := pop(frame); err != nil {
			return err
		}
		push(frame, vtype.Object(newarrayDescriptor(insn.IntOperand)))
		return nil
	case op == opcodes.ANEWARRAY:
		if _, err := pop(frame); err != nil {
			return err
		}
		className, err := cp.ClassNameAt(insn.IntOperand)
		if err != nil {
			return err
		}
		push(frame, vtype.Object("["+refDescriptor(className)))
		return nil
	case op == opcodes.MULTIANEWARRAY:
		if err := popN(frame, insn.IntOperand2); err != nil {
			return err
		}
		className, err := cp.ClassNameAt(insn.IntOperand)
		if err != nil {
			return err
		}
		push(frame, vtype.Object(className))
		return nil
	case op == opcodes.ARRAYLENGTH:
		if _, err := pop(frame); err != nil {
			return err
		}
		push(frame, vtype.Integer)
		return nil
	case op == opcodes.ATHROW:
		_, err := pop(frame)
		return err
	case op == opcodes.CHECKCAST:
		if _, err := pop(frame); err != nil {
			return err
		}
		className, err := cp.ClassNameAt(insn.IntOperand)
		if err != nil {
			return err
		}
		push(frame, vtype.Object(className))
		return nil
	case op == opcodes.INSTANCEOF:
		if _, err := pop(frame); err != nil {
			return err
		}
		push(frame, vtype.Integer)
		return nil
	case op == opcodes.MONITORENTER || op == opcodes.MONITOREXIT:
		_, err := pop(frame)
		return err

	default:
		return fmt.Errorf("verifier: no abstract effect defined for opcode %s", opcodes.Name(op))
	}
}

// loadStoreSlot resolves the local-variable slot a load/store opcode
// addresses: the wide form carries it in IntOperand, the `_N` forms
// encode it in the opcode value itself (spec.md's decoder leaves
// IntOperand at its zero value for those, per instruction_codec.go).
func loadStoreSlot(op, wideForm, form0 opcodes.Opcode, insn classfile.Instruction) int {
	if op == wideForm {
		return insn.IntOperand
	}
	return int(op - form0)
}

func arrayLoad(frame *Frame, elem vtype.VerificationType) error {
	if err := popN(frame, 2); err != nil { // arrayref, index
		return err
	}
	push(frame, elem)
	return nil
}

func arrayLoadRef(frame *Frame) error {
	if _, err := pop(frame); err != nil { // index
		return err
	}
	arrRef, err := pop(frame) // arrayref
	if err != nil {
		return err
	}
	elemName := arrRef.ClassName
	if len(elemName) > 0 && elemName[0] == '[' {
		push(frame, vtype.Object(elemName[1:]))
	} else {
		push(frame, vtype.Object("java/lang/Object"))
	}
	return nil
}

func dup(frame *Frame, words, gap int) error {
	if len(frame.Stack) < words+gap {
		return fmt.Errorf("verifier: operand stack underflow in dup")
	}
	top := append([]vtype.VerificationType{}, frame.Stack[len(frame.Stack)-words:]...)
	insertAt := len(frame.Stack) - words - gap
	rest := append([]vtype.VerificationType{}, frame.Stack[insertAt:]...)
	frame.Stack = append(frame.Stack[:insertAt], top...)
	frame.Stack = append(frame.Stack, rest...)
	return nil
}

func isBinaryArith(op opcodes.Opcode) bool {
	switch op {
	case opcodes.IADD, opcodes.LADD, opcodes.FADD, opcodes.DADD,
		opcodes.ISUB, opcodes.LSUB, opcodes.FSUB, opcodes.DSUB,
		opcodes.IMUL, opcodes.LMUL, opcodes.FMUL, opcodes.DMUL,
		opcodes.IDIV, opcodes.LDIV, opcodes.FDIV, opcodes.DDIV,
		opcodes.IREM, opcodes.LREM, opcodes.FREM, opcodes.DREM,
		opcodes.ISHL, opcodes.LSHL, opcodes.ISHR, opcodes.LSHR,
		opcodes.IUSHR, opcodes.LUSHR,
		opcodes.IAND, opcodes.LAND, opcodes.IOR, opcodes.LOR, opcodes.IXOR, opcodes.LXOR:
		return true
	default:
		return false
	}
}

func isUnaryArith(op opcodes.Opcode) bool {
	switch op {
	case opcodes.INEG, opcodes.LNEG, opcodes.FNEG, opcodes.DNEG:
		return true
	default:
		return false
	}
}

func pushArith(frame *Frame, op opcodes.Opcode) error {
	switch op {
	case opcodes.LADD, opcodes.LSUB, opcodes.LMUL, opcodes.LDIV, opcodes.LREM,
		opcodes.LSHL, opcodes.LSHR, opcodes.LUSHR, opcodes.LAND, opcodes.LOR, opcodes.LXOR:
		push(frame, vtype.Long)
	case opcodes.FADD, opcodes.FSUB, opcodes.FMUL, opcodes.FDIV, opcodes.FREM:
		push(frame, vtype.Float)
	case opcodes.DADD, opcodes.DSUB, opcodes.DMUL, opcodes.DDIV, opcodes.DREM:
		push(frame, vtype.Double)
	default:
		push(frame, vtype.Integer)
	}
	return nil
}

func isConversion(op opcodes.Opcode) bool {
	switch op {
	case opcodes.I2L, opcodes.I2F, opcodes.I2D, opcodes.L2I, opcodes.L2F, opcodes.L2D,
		opcodes.F2I, opcodes.F2L, opcodes.F2D, opcodes.D2I, opcodes.D2L, opcodes.D2F,
		opcodes.I2B, opcodes.I2C, opcodes.I2S:
		return true
	default:
		return false
	}
}

func applyConversion(frame *Frame, op opcodes.Opcode) error {
	if _, err := pop(frame); err != nil {
		return err
	}
	switch op {
	case opcodes.I2L, opcodes.F2L, opcodes.D2L:
		push(frame, vtype.Long)
	case opcodes.I2F, opcodes.L2F, opcodes.D2F:
		push(frame, vtype.Float)
	case opcodes.I2D, opcodes.L2D, opcodes.F2D:
		push(frame, vtype.Double)
	default: // L2I, F2I, D2I, I2B, I2C, I2S
		push(frame, vtype.Integer)
	}
	return nil
}

func applyBranch(frame *Frame, op opcodes.Opcode) error {
	switch op {
	case opcodes.GOTO, opcodes.GOTO_W, opcodes.JSR, opcodes.JSR_W:
		if op == opcodes.JSR || op == opcodes.JSR_W {
			push(frame, vtype.Top) // return address, opaque to this lattice
		}
		return nil
	case opcodes.IFEQ, opcodes.IFNE, opcodes.IFLT, opcodes.IFGE, opcodes.IFGT, opcodes.IFLE,
		opcodes.IFNULL, opcodes.IFNONNULL:
		_, err := pop(frame)
		return err
	case opcodes.IF_ICMPEQ, opcodes.IF_ICMPNE, opcodes.IF_ICMPLT, opcodes.IF_ICMPGE,
		opcodes.IF_ICMPGT, opcodes.IF_ICMPLE, opcodes.IF_ACMPEQ, opcodes.IF_ACMPNE:
		return popN(frame, 2)
	case opcodes.TABLESWITCH, opcodes.LOOKUPSWITCH:
		_, err := pop(frame)
		return err
	default:
		return fmt.Errorf("verifier: unhandled branch opcode %s", opcodes.Name(op))
	}
}

func applyLdc(cp *classfile.ConstantPool, frame *Frame, insn classfile.Instruction) error {
	entry, err := cp.Get(insn.IntOperand)
	if err != nil {
		return err
	}
	switch entry.Tag {
	case classfile.TagInteger:
		push(frame, vtype.Integer)
	case classfile.TagFloat:
		push(frame, vtype.Float)
	case classfile.TagLong:
		push(frame, vtype.Long)
	case classfile.TagDouble:
		push(frame, vtype.Double)
	case classfile.TagString:
		push(frame, vtype.Object("java/lang/String"))
	case classfile.TagClass:
		push(frame, vtype.Object("java/lang/Class"))
	case classfile.TagMethodHandle:
		push(frame, vtype.Object("java/lang/invoke/MethodHandle"))
	case classfile.TagMethodType:
		push(frame, vtype.Object("java/lang/invoke/MethodType"))
	case classfile.TagDynamic:
		push(frame, vtype.Object("java/lang/Object"))
	default:
		return fmt.Errorf("verifier: ldc of unsupported constant-pool tag %v", entry.Tag)
	}
	return nil
}

func applyGetField(cp *classfile.ConstantPool, frame *Frame, insn classfile.Instruction, hasRef bool) error {
	_, _, descriptor, err := cp.MemberRefAt(insn.IntOperand)
	if err != nil {
		return err
	}
	ft, err := classfile.ParseFieldDescriptor(descriptor)
	if err != nil {
		return err
	}
	if hasRef {
		if _, err := pop(frame); err != nil {
			return err
		}
	}
	push(frame, fieldTypeToVerificationType(ft))
	return nil
}

func applyPutField(cp *classfile.ConstantPool, frame *Frame, insn classfile.Instruction, hasRef bool) error {
	if _, err := pop(frame); err != nil { // value
		return err
	}
	if hasRef {
		if _, err := pop(frame); err != nil { // objectref
			return err
		}
	}
	return nil
}

func applyInvoke(cp *classfile.ConstantPool, frame *Frame, insn classfile.Instruction) error {
	var descriptor string
	var err error
	if insn.Op == opcodes.INVOKEDYNAMIC {
		entry, gErr := cp.GetOfType(insn.IntOperand, classfile.TagInvokeDynamic)
		if gErr != nil {
			return gErr
		}
		_, descriptor, err = cp.NameAndTypeAt(int(entry.NameAndTypeIndex))
	} else {
		_, _, descriptor, err = cp.MemberRefAt(insn.IntOperand)
	}
	if err != nil {
		return err
	}
	md, err := classfile.ParseMethodDescriptor(descriptor)
	if err != nil {
		return err
	}
	if err := popN(frame, len(md.Parameters)); err != nil {
		return err
	}
	if insn.Op != opcodes.INVOKESTATIC && insn.Op != opcodes.INVOKEDYNAMIC {
		if _, err := pop(frame); err != nil { // objectref
			return err
		}
	}
	if md.ReturnType.Kind != classfile.FieldVoid {
		push(frame, fieldTypeToVerificationType(md.ReturnType))
	}
	return nil
}

func newarrayDescriptor(atype int) string {
	switch atype {
	case 4:
		return "[Z"
	case 5:
		return "[C"
	case 6:
		return "[F"
	case 7:
		return "[D"
	case 8:
		return "[B"
	case 9:
		return "[S"
	case 10:
		return "[I"
	case 11:
		return "[J"
	default:
		return "[?"
	}
}

func refDescriptor(className string) string {
	if len(className) > 0 && className[0] == '[' {
		return className
	}
	return "L" + className + ";"
}
