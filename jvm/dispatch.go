/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2022-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"fmt"
	"math"

	"github.com/theseus-rs/ristretto-sub006/classfile"
	"github.com/theseus-rs/ristretto-sub006/excnames"
	"github.com/theseus-rs/ristretto-sub006/exceptions"
	"github.com/theseus-rs/ristretto-sub006/frames"
	"github.com/theseus-rs/ristretto-sub006/object"
	"github.com/theseus-rs/ristretto-sub006/opcodes"
	"github.com/theseus-rs/ristretto-sub006/thread"
)

// runFrame drives f's program counter through method's instructions,
// one opcode category per spec.md §4.9's module breakdown. Returns
// the method's return value (nil for void) or the uncaught
// *exceptions.Throwable that unwound past this frame.
func (e *Engine) runFrame(th *thread.Thread, f *frames.Frame, klass *object.Class, method *classfile.Method) ([]frames.Value, error) {
	code := method.Code
	cp := klass.ConstantPool

	for {
		instr := code.Instructions[f.PC]
		thrown, ret, done, err := e.step(th, f, klass, cp, instr)
		if err != nil {
			return nil, err
		}
		if thrown != nil {
			if handled := e.dispatchException(f, code, cp, thrown, f.PC); handled {
				continue
			}
			return nil, thrown
		}
		if done {
			return ret, nil
		}
	}
}

// dispatchException searches method's exception table for a handler
// covering atPC whose catch class matches thrown's class (spec.md
// §4.9 "Exception table lookup"); on a match it resets the operand
// stack to just the thrown object and moves PC to the handler.
func (e *Engine) dispatchException(f *frames.Frame, code *classfile.CodeAttribute, cp *classfile.ConstantPool, thrown *exceptions.Throwable, atPC int) bool {
	for _, ent := range code.ExceptionTable {
		if atPC < ent.StartPC || atPC >= ent.EndPC {
			continue
		}
		if ent.CatchClass != 0 {
			catchName, err := cp.ClassNameAt(int(ent.CatchClass))
			if err != nil {
				continue
			}
			ok, err := e.Hierarchy.IsSubclassOf(thrown.ClassName, catchName)
			if err != nil || !ok {
				continue
			}
		}
		f.Stack = f.Stack[:0]
		f.Push(frames.ObjectValue(thrown.Obj))
		f.PC = ent.HandlerPC
		return true
	}
	return false
}

// step executes one instruction. Its (thrown, ret, done) results are
// mutually exclusive: thrown != nil means an exception was raised at
// this PC; done means a return opcode ran and ret is its value(s).
// Neither set means f.PC has already been advanced and the loop
// should fetch the next instruction.
func (e *Engine) step(th *thread.Thread, f *frames.Frame, klass *object.Class, cp *classfile.ConstantPool, instr classfile.Instruction) (*exceptions.Throwable, []frames.Value, bool, error) {
	op := instr.Op
	next := f.PC + 1

	switch op {
	case opcodes.NOP:
		// no-op

	case opcodes.ACONST_NULL:
		f.Push(frames.NullValue())
	case opcodes.ICONST_M1, opcodes.ICONST_0, opcodes.ICONST_1, opcodes.ICONST_2,
		opcodes.ICONST_3, opcodes.ICONST_4, opcodes.ICONST_5:
		f.Push(frames.IntValue(int32(op) - int32(opcodes.ICONST_0)))
	case opcodes.LCONST_0, opcodes.LCONST_1:
		f.Push(frames.LongValue(int64(op) - int64(opcodes.LCONST_0)))
	case opcodes.FCONST_0, opcodes.FCONST_1, opcodes.FCONST_2:
		f.Push(frames.FloatValue(float32(int(op) - int(opcodes.FCONST_0))))
	case opcodes.DCONST_0, opcodes.DCONST_1:
		f.Push(frames.DoubleValue(float64(int(op) - int(opcodes.DCONST_0))))
	case opcodes.BIPUSH, opcodes.SIPUSH:
		f.Push(frames.IntValue(int32(instr.IntOperand)))
	case opcodes.LDC, opcodes.LDC_W, opcodes.LDC2_W:
		v, err := loadConstant(cp, instr.IntOperand)
		if err != nil {
			return exceptions.AsThrowable(err), nil, false, nil
		}
		f.Push(v)

	case opcodes.ILOAD, opcodes.ILOAD_0, opcodes.ILOAD_1, opcodes.ILOAD_2, opcodes.ILOAD_3:
		f.Push(f.GetLocal(loadSlot(op, opcodes.ILOAD, opcodes.ILOAD_0, instr)))
	case opcodes.LLOAD, opcodes.LLOAD_0, opcodes.LLOAD_1, opcodes.LLOAD_2, opcodes.LLOAD_3:
		f.Push(f.GetLocal(loadSlot(op, opcodes.LLOAD, opcodes.LLOAD_0, instr)))
	case opcodes.FLOAD, opcodes.FLOAD_0, opcodes.FLOAD_1, opcodes.FLOAD_2, opcodes.FLOAD_3:
		f.Push(f.GetLocal(loadSlot(op, opcodes.FLOAD, opcodes.FLOAD_0, instr)))
	case opcodes.DLOAD, opcodes.DLOAD_0, opcodes.DLOAD_1, opcodes.DLOAD_2, opcodes.DLOAD_3:
		f.Push(f.GetLocal(loadSlot(op, opcodes.DLOAD, opcodes.DLOAD_0, instr)))
	case opcodes.ALOAD, opcodes.ALOAD_0, opcodes.ALOAD_1, opcodes.ALOAD_2, opcodes.ALOAD_3:
		f.Push(f.GetLocal(loadSlot(op, opcodes.ALOAD, opcodes.ALOAD_0, instr)))

	case opcodes.ISTORE, opcodes.ISTORE_0, opcodes.ISTORE_1, opcodes.ISTORE_2, opcodes.ISTORE_3:
		f.SetLocal(loadSlot(op, opcodes.ISTORE, opcodes.ISTORE_0, instr), f.Pop())
	case opcodes.LSTORE, opcodes.LSTORE_0, opcodes.LSTORE_1, opcodes.LSTORE_2, opcodes.LSTORE_3:
		f.SetLocal(loadSlot(op, opcodes.LSTORE, opcodes.LSTORE_0, instr), f.Pop())
	case opcodes.FSTORE, opcodes.FSTORE_0, opcodes.FSTORE_1, opcodes.FSTORE_2, opcodes.FSTORE_3:
		f.SetLocal(loadSlot(op, opcodes.FSTORE, opcodes.FSTORE_0, instr), f.Pop())
	case opcodes.DSTORE, opcodes.DSTORE_0, opcodes.DSTORE_1, opcodes.DSTORE_2, opcodes.DSTORE_3:
		f.SetLocal(loadSlot(op, opcodes.DSTORE, opcodes.DSTORE_0, instr), f.Pop())
	case opcodes.ASTORE, opcodes.ASTORE_0, opcodes.ASTORE_1, opcodes.ASTORE_2, opcodes.ASTORE_3:
		f.SetLocal(loadSlot(op, opcodes.ASTORE, opcodes.ASTORE_0, instr), f.Pop())

	case opcodes.POP:
		f.Pop()
	case opcodes.POP2:
		// a category-2 value (long/double) occupies a single stack
		// slot in this frame model, so popping "two words" means
		// popping one such value or two category-1 values.
		v := f.Pop()
		if v.Category() == 1 {
			f.Pop()
		}
	case opcodes.DUP:
		v := f.Peek()
		f.Push(v)
	case opcodes.DUP_X1:
		v1, v2 := f.Pop(), f.Pop()
		f.Push(v1)
		f.Push(v2)
		f.Push(v1)
	case opcodes.DUP_X2:
		v1, v2, v3 := f.Pop(), f.Pop(), f.Pop()
		f.Push(v1)
		f.Push(v3)
		f.Push(v2)
		f.Push(v1)
	case opcodes.DUP2:
		v1 := f.Pop()
		if v1.Category() == 2 {
			f.Push(v1)
			f.Push(v1)
			break
		}
		v2 := f.Pop()
		f.Push(v2)
		f.Push(v1)
		f.Push(v2)
		f.Push(v1)
	case opcodes.DUP2_X1:
		// form 1 only (three category-1 values); the category-2-on-top
		// form is rarer and unhandled here.
		v1, v2, v3 := f.Pop(), f.Pop(), f.Pop()
		f.Push(v2)
		f.Push(v1)
		f.Push(v3)
		f.Push(v2)
		f.Push(v1)
	case opcodes.DUP2_X2:
		v1, v2, v3, v4 := f.Pop(), f.Pop(), f.Pop(), f.Pop()
		f.Push(v2)
		f.Push(v1)
		f.Push(v4)
		f.Push(v3)
		f.Push(v2)
		f.Push(v1)
	case opcodes.SWAP:
		v1, v2 := f.Pop(), f.Pop()
		f.Push(v1)
		f.Push(v2)

	case opcodes.IADD, opcodes.ISUB, opcodes.IMUL, opcodes.IDIV, opcodes.IREM,
		opcodes.IAND, opcodes.IOR, opcodes.IXOR, opcodes.ISHL, opcodes.ISHR, opcodes.IUSHR:
		thrown, err := intArith(f, op)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}
	case opcodes.LADD, opcodes.LSUB, opcodes.LMUL, opcodes.LDIV, opcodes.LREM,
		opcodes.LAND, opcodes.LOR, opcodes.LXOR, opcodes.LSHL, opcodes.LSHR, opcodes.LUSHR:
		thrown, err := longArith(f, op)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}
	case opcodes.FADD, opcodes.FSUB, opcodes.FMUL, opcodes.FDIV, opcodes.FREM:
		floatArith(f, op)
	case opcodes.DADD, opcodes.DSUB, opcodes.DMUL, opcodes.DDIV, opcodes.DREM:
		doubleArith(f, op)
	case opcodes.INEG:
		v, _ := f.Pop().AsInt()
		f.Push(frames.IntValue(-v))
	case opcodes.LNEG:
		v, _ := f.Pop().AsLong()
		f.Push(frames.LongValue(-v))
	case opcodes.FNEG:
		v, _ := f.Pop().AsFloat()
		f.Push(frames.FloatValue(-v))
	case opcodes.DNEG:
		v, _ := f.Pop().AsDouble()
		f.Push(frames.DoubleValue(-v))
	case opcodes.IINC:
		v := f.GetLocal(instr.IntOperand)
		iv, _ := v.AsInt()
		f.SetLocal(instr.IntOperand, frames.IntValue(iv+int32(instr.IntOperand2)))

	case opcodes.I2L:
		v, _ := f.Pop().AsInt()
		f.Push(frames.LongValue(int64(v)))
	case opcodes.I2F:
		v, _ := f.Pop().AsInt()
		f.Push(frames.FloatValue(float32(v)))
	case opcodes.I2D:
		v, _ := f.Pop().AsInt()
		f.Push(frames.DoubleValue(float64(v)))
	case opcodes.L2I:
		v, _ := f.Pop().AsLong()
		f.Push(frames.IntValue(int32(v)))
	case opcodes.L2F:
		v, _ := f.Pop().AsLong()
		f.Push(frames.FloatValue(float32(v)))
	case opcodes.L2D:
		v, _ := f.Pop().AsLong()
		f.Push(frames.DoubleValue(float64(v)))
	case opcodes.F2I:
		v, _ := f.Pop().AsFloat()
		f.Push(frames.IntValue(int32(v)))
	case opcodes.F2L:
		v, _ := f.Pop().AsFloat()
		f.Push(frames.LongValue(int64(v)))
	case opcodes.F2D:
		v, _ := f.Pop().AsFloat()
		f.Push(frames.DoubleValue(float64(v)))
	case opcodes.D2I:
		v, _ := f.Pop().AsDouble()
		f.Push(frames.IntValue(int32(v)))
	case opcodes.D2L:
		v, _ := f.Pop().AsDouble()
		f.Push(frames.LongValue(int64(v)))
	case opcodes.D2F:
		v, _ := f.Pop().AsDouble()
		f.Push(frames.FloatValue(float32(v)))
	case opcodes.I2B:
		v, _ := f.Pop().AsInt()
		f.Push(frames.IntValue(int32(int8(v))))
	case opcodes.I2C:
		v, _ := f.Pop().AsInt()
		f.Push(frames.IntValue(int32(uint16(v))))
	case opcodes.I2S:
		v, _ := f.Pop().AsInt()
		f.Push(frames.IntValue(int32(int16(v))))

	case opcodes.LCMP:
		b, _ := f.Pop().AsLong()
		a, _ := f.Pop().AsLong()
		f.Push(frames.IntValue(int32(cmp(a, b))))
	case opcodes.FCMPL, opcodes.FCMPG:
		b, _ := f.Pop().AsFloat()
		a, _ := f.Pop().AsFloat()
		f.Push(frames.IntValue(floatCmp(float64(a), float64(b), op == opcodes.FCMPG)))
	case opcodes.DCMPL, opcodes.DCMPG:
		b, _ := f.Pop().AsDouble()
		a, _ := f.Pop().AsDouble()
		f.Push(frames.IntValue(floatCmp(a, b, op == opcodes.DCMPG)))

	case opcodes.IFEQ, opcodes.IFNE, opcodes.IFLT, opcodes.IFGE, opcodes.IFGT, opcodes.IFLE:
		v, _ := f.Pop().AsInt()
		if intCompareUnary(op, v) {
			next = instr.BranchTarget
		}
	case opcodes.IF_ICMPEQ, opcodes.IF_ICMPNE, opcodes.IF_ICMPLT,
		opcodes.IF_ICMPGE, opcodes.IF_ICMPGT, opcodes.IF_ICMPLE:
		b, _ := f.Pop().AsInt()
		a, _ := f.Pop().AsInt()
		if intCompareBinary(op, a, b) {
			next = instr.BranchTarget
		}
	case opcodes.IF_ACMPEQ, opcodes.IF_ACMPNE:
		b, _ := f.Pop().AsRef()
		a, _ := f.Pop().AsRef()
		eq := a == b
		if (op == opcodes.IF_ACMPEQ) == eq {
			next = instr.BranchTarget
		}
	case opcodes.IFNULL, opcodes.IFNONNULL:
		v, _ := f.Pop().AsRef()
		isNull := v == nil
		if (op == opcodes.IFNULL) == isNull {
			next = instr.BranchTarget
		}
	case opcodes.GOTO, opcodes.GOTO_W:
		next = instr.BranchTarget
	case opcodes.JSR, opcodes.JSR_W:
		f.Push(frames.ReturnAddress(next))
		next = instr.BranchTarget
	case opcodes.RET:
		v := f.GetLocal(instr.IntOperand)
		next = v.Addr
	case opcodes.TABLESWITCH:
		v, _ := f.Pop().AsInt()
		sw := instr.Switch
		if int(v) < sw.Low || int(v) > sw.High {
			next = sw.Default
		} else {
			next = sw.Targets[int(v)-sw.Low]
		}
	case opcodes.LOOKUPSWITCH:
		v, _ := f.Pop().AsInt()
		sw := instr.Switch
		next = sw.Default
		for i, k := range sw.Keys {
			if k == v {
				next = sw.Targets[i]
				break
			}
		}

	case opcodes.IRETURN, opcodes.FRETURN, opcodes.LRETURN, opcodes.DRETURN, opcodes.ARETURN:
		return nil, []frames.Value{f.Pop()}, true, nil
	case opcodes.RETURN:
		return nil, nil, true, nil

	case opcodes.GETSTATIC:
		thrown, _, _, err := e.execGetStatic(th, f, cp, instr)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}
	case opcodes.PUTSTATIC:
		thrown, _, _, err := e.execPutStatic(th, f, cp, instr)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}
	case opcodes.GETFIELD:
		thrown, _, _, err := e.execGetField(f, cp, instr)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}
	case opcodes.PUTFIELD:
		thrown, _, _, err := e.execPutField(f, cp, instr)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}

	case opcodes.NEW:
		thrown, _, _, err := e.execNew(th, f, cp, instr)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}
	case opcodes.NEWARRAY:
		thrown, _, _, err := e.execNewArray(f, instr)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}
	case opcodes.ANEWARRAY:
		thrown, _, _, err := e.execANewArray(f, cp, instr)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}
	case opcodes.ARRAYLENGTH:
		thrown, _, _, err := e.execArrayLength(f)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}
	case opcodes.MULTIANEWARRAY:
		thrown, _, _, err := e.execMultiANewArray(f, cp, instr)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}

	case opcodes.IALOAD, opcodes.LALOAD, opcodes.FALOAD, opcodes.DALOAD,
		opcodes.AALOAD, opcodes.BALOAD, opcodes.CALOAD, opcodes.SALOAD:
		thrown, _, _, err := e.execArrayLoad(f, op)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}
	case opcodes.IASTORE, opcodes.LASTORE, opcodes.FASTORE, opcodes.DASTORE,
		opcodes.AASTORE, opcodes.BASTORE, opcodes.CASTORE, opcodes.SASTORE:
		thrown, _, _, err := e.execArrayStore(f, op)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}

	case opcodes.CHECKCAST:
		thrown, _, _, err := e.execCheckCast(f, cp, instr)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}
	case opcodes.INSTANCEOF:
		thrown, _, _, err := e.execInstanceOf(f, cp, instr)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}

	case opcodes.INVOKESTATIC:
		thrown, _, _, err := e.execInvokeStatic(th, f, cp, instr)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}
	case opcodes.INVOKESPECIAL:
		thrown, _, _, err := e.execInvokeSpecial(th, f, klass, cp, instr)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}
	case opcodes.INVOKEVIRTUAL, opcodes.INVOKEINTERFACE:
		thrown, _, _, err := e.execInvokeVirtual(th, f, cp, instr)
		if thrown != nil || err != nil {
			return thrown, nil, false, err
		}

	case opcodes.ATHROW:
		v, _ := f.Pop().AsRef()
		obj, _ := v.(*object.Object)
		if obj == nil {
			return exceptions.NullPointerException("athrow of null"), nil, false, nil
		}
		return &exceptions.Throwable{ClassName: obj.KlassName, Obj: obj}, nil, false, nil

	case opcodes.MONITORENTER:
		v, _ := f.Pop().AsRef()
		obj, _ := v.(*object.Object)
		if obj == nil {
			return exceptions.NullPointerException("monitorenter on null"), nil, false, nil
		}
		e.Monitors.MonitorFor(obj).Acquire(th.ID())
	case opcodes.MONITOREXIT:
		v, _ := f.Pop().AsRef()
		obj, _ := v.(*object.Object)
		if obj == nil {
			return exceptions.NullPointerException("monitorexit on null"), nil, false, nil
		}
		if _, err := e.Monitors.MonitorFor(obj).Release(th.ID()); err != nil {
			return exceptions.New(excnames.IllegalMonitorStateException, err.Error()), nil, false, nil
		}

	default:
		// invokedynamic's call-site/bootstrap-method machinery (JVMS
		// 4.4.10, 6.5 invokedynamic) isn't modeled by this engine, so it
		// falls through here along with any opcode this switch hasn't
		// named. wide never reaches this switch: instruction_codec.go
		// folds a wide prefix into the widened opcode's own IntOperand
		// at decode time, so f.PC here always sees e.g. ILOAD or IINC
		// directly.
		return nil, nil, false, fmt.Errorf("jvm: unimplemented opcode %s", opcodes.Name(op))
	}

	f.PC = next
	return nil, nil, false, nil
}

// loadSlot returns the local-variable index an _N-suffixed or indexed
// load/store opcode targets.
func loadSlot(op, indexedOp, zeroOp opcodes.Opcode, instr classfile.Instruction) int {
	if op == indexedOp {
		return instr.IntOperand
	}
	return int(op) - int(zeroOp)
}

func cmp(a, b int64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// floatCmp implements fcmpg/dcmpg (NaN -> 1) and fcmpl/dcmpl (NaN -> -1).
func floatCmp(a, b float64, nanIsPositive bool) int32 {
	if math.IsNaN(a) || math.IsNaN(b) {
		if nanIsPositive {
			return 1
		}
		return -1
	}
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func intCompareUnary(op opcodes.Opcode, v int32) bool {
	switch op {
	case opcodes.IFEQ:
		return v == 0
	case opcodes.IFNE:
		return v != 0
	case opcodes.IFLT:
		return v < 0
	case opcodes.IFGE:
		return v >= 0
	case opcodes.IFGT:
		return v > 0
	case opcodes.IFLE:
		return v <= 0
	default:
		return false
	}
}

func intCompareBinary(op opcodes.Opcode, a, b int32) bool {
	switch op {
	case opcodes.IF_ICMPEQ:
		return a == b
	case opcodes.IF_ICMPNE:
		return a != b
	case opcodes.IF_ICMPLT:
		return a < b
	case opcodes.IF_ICMPGE:
		return a >= b
	case opcodes.IF_ICMPGT:
		return a > b
	case opcodes.IF_ICMPLE:
		return a <= b
	default:
		return false
	}
}

func intArith(f *frames.Frame, op opcodes.Opcode) (*exceptions.Throwable, error) {
	b, _ := f.Pop().AsInt()
	a, _ := f.Pop().AsInt()
	switch op {
	case opcodes.IADD:
		f.Push(frames.IntValue(a + b))
	case opcodes.ISUB:
		f.Push(frames.IntValue(a - b))
	case opcodes.IMUL:
		f.Push(frames.IntValue(a * b))
	case opcodes.IDIV:
		if b == 0 {
			return exceptions.ArithmeticException("/ by zero"), nil
		}
		f.Push(frames.IntValue(a / b))
	case opcodes.IREM:
		if b == 0 {
			return exceptions.ArithmeticException("/ by zero"), nil
		}
		f.Push(frames.IntValue(a % b))
	case opcodes.IAND:
		f.Push(frames.IntValue(a & b))
	case opcodes.IOR:
		f.Push(frames.IntValue(a | b))
	case opcodes.IXOR:
		f.Push(frames.IntValue(a ^ b))
	case opcodes.ISHL:
		f.Push(frames.IntValue(a << (uint32(b) & 0x1f)))
	case opcodes.ISHR:
		f.Push(frames.IntValue(a >> (uint32(b) & 0x1f)))
	case opcodes.IUSHR:
		f.Push(frames.IntValue(int32(uint32(a) >> (uint32(b) & 0x1f))))
	}
	return nil, nil
}

func longArith(f *frames.Frame, op opcodes.Opcode) (*exceptions.Throwable, error) {
	b, _ := f.Pop().AsLong()
	a, _ := f.Pop().AsLong()
	switch op {
	case opcodes.LADD:
		f.Push(frames.LongValue(a + b))
	case opcodes.LSUB:
		f.Push(frames.LongValue(a - b))
	case opcodes.LMUL:
		f.Push(frames.LongValue(a * b))
	case opcodes.LDIV:
		if b == 0 {
			return exceptions.ArithmeticException("/ by zero"), nil
		}
		f.Push(frames.LongValue(a / b))
	case opcodes.LREM:
		if b == 0 {
			return exceptions.ArithmeticException("/ by zero"), nil
		}
		f.Push(frames.LongValue(a % b))
	case opcodes.LAND:
		f.Push(frames.LongValue(a & b))
	case opcodes.LOR:
		f.Push(frames.LongValue(a | b))
	case opcodes.LXOR:
		f.Push(frames.LongValue(a ^ b))
	case opcodes.LSHL:
		f.Push(frames.LongValue(a << (uint64(b) & 0x3f)))
	case opcodes.LSHR:
		f.Push(frames.LongValue(a >> (uint64(b) & 0x3f)))
	case opcodes.LUSHR:
		f.Push(frames.LongValue(int64(uint64(a) >> (uint64(b) & 0x3f))))
	}
	return nil, nil
}

func floatArith(f *frames.Frame, op opcodes.Opcode) {
	b, _ := f.Pop().AsFloat()
	a, _ := f.Pop().AsFloat()
	switch op {
	case opcodes.FADD:
		f.Push(frames.FloatValue(a + b))
	case opcodes.FSUB:
		f.Push(frames.FloatValue(a - b))
	case opcodes.FMUL:
		f.Push(frames.FloatValue(a * b))
	case opcodes.FDIV:
		f.Push(frames.FloatValue(a / b))
	case opcodes.FREM:
		f.Push(frames.FloatValue(float32(math.Mod(float64(a), float64(b)))))
	}
}

func doubleArith(f *frames.Frame, op opcodes.Opcode) {
	b, _ := f.Pop().AsDouble()
	a, _ := f.Pop().AsDouble()
	switch op {
	case opcodes.DADD:
		f.Push(frames.DoubleValue(a + b))
	case opcodes.DSUB:
		f.Push(frames.DoubleValue(a - b))
	case opcodes.DMUL:
		f.Push(frames.DoubleValue(a * b))
	case opcodes.DDIV:
		f.Push(frames.DoubleValue(a / b))
	case opcodes.DREM:
		f.Push(frames.DoubleValue(math.Mod(a, b)))
	}
}

// loadConstant resolves an ldc/ldc_w/ldc2_w operand's constant-pool
// entry into a frames.Value. CONSTANT_String is resolved through the
// stringpool-backed representation object.StringObjectFromGoString
// builds; CONSTANT_Class resolves to that same placeholder string
// object rather than a real java.lang.Class instance, since this
// engine has no Class-mirror object model yet. Method-handle/dynamic
// constants are out of scope for this engine's incremental
// instruction coverage.
func loadConstant(cp *classfile.ConstantPool, index int) (frames.Value, error) {
	entry, err := cp.Get(index)
	if err != nil {
		return frames.Value{}, err
	}
	switch entry.Tag {
	case classfile.TagInteger:
		return frames.IntValue(entry.IntVal), nil
	case classfile.TagFloat:
		return frames.FloatValue(entry.FloatVal), nil
	case classfile.TagLong:
		return frames.LongValue(entry.LongVal), nil
	case classfile.TagDouble:
		return frames.DoubleValue(entry.DoubleVal), nil
	case classfile.TagString:
		s, err := cp.UTF8At(int(entry.UTF8Index))
		if err != nil {
			return frames.Value{}, err
		}
		return frames.ObjectValue(object.StringObjectFromGoString(s)), nil
	case classfile.TagClass:
		name, err := cp.ClassNameAt(index)
		if err != nil {
			return frames.Value{}, err
		}
		return frames.ObjectValue(object.StringObjectFromGoString(name)), nil
	default:
		return frames.Value{}, fmt.Errorf("jvm: unsupported ldc constant tag %d", entry.Tag)
	}
}
