/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2022-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theseus-rs/ristretto-sub006/classfile"
	"github.com/theseus-rs/ristretto-sub006/classloader"
	"github.com/theseus-rs/ristretto-sub006/exceptions"
	"github.com/theseus-rs/ristretto-sub006/frames"
	"github.com/theseus-rs/ristretto-sub006/object"
	"github.com/theseus-rs/ristretto-sub006/opcodes"
	"github.com/theseus-rs/ristretto-sub006/thread"
)

func newTestEngine() *Engine {
	loader := classloader.NewLoader("test", nil, nil)
	return NewEngine(loader)
}

func instr(op opcodes.Opcode) classfile.Instruction { return classfile.Instruction{Op: op} }

func withOperand(op opcodes.Opcode, n int) classfile.Instruction {
	return classfile.Instruction{Op: op, IntOperand: n}
}

func codeOf(instrs ...classfile.Instruction) *classfile.CodeAttribute {
	return &classfile.CodeAttribute{MaxStack: 8, MaxLocals: 8, Instructions: instrs}
}

func methodOf(code *classfile.CodeAttribute) *classfile.Method {
	return &classfile.Method{Code: code}
}

func TestIntArithmeticAndReturn(t *testing.T) {
	e := newTestEngine()
	klass := object.NewClass("Calc", "", nil)
	klass.ConstantPool = classfile.NewConstantPool(1)
	code := codeOf(
		withOperand(opcodes.BIPUSH, 7),
		withOperand(opcodes.BIPUSH, 35),
		instr(opcodes.IADD),
		instr(opcodes.IRETURN),
	)
	ret, err := e.ExecuteMethod(thread.NewThread(), klass, methodOf(code), nil)
	require.NoError(t, err)
	require.Len(t, ret, 1)
	v, err := ret[0].AsInt()
	require.NoError(t, err)
	require.Equal(t, int32(42), v)
}

func TestIntDivisionByZeroThrowsArithmeticException(t *testing.T) {
	e := newTestEngine()
	klass := object.NewClass("Calc", "", nil)
	klass.ConstantPool = classfile.NewConstantPool(1)
	code := codeOf(
		withOperand(opcodes.BIPUSH, 1),
		withOperand(opcodes.BIPUSH, 0),
		instr(opcodes.IDIV),
		instr(opcodes.IRETURN),
	)
	_, err := e.ExecuteMethod(thread.NewThread(), klass, methodOf(code), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ArithmeticException")
}

func TestBranchOnIfIcmpgeSkipsFalseBranch(t *testing.T) {
	e := newTestEngine()
	klass := object.NewClass("Calc", "", nil)
	klass.ConstantPool = classfile.NewConstantPool(1)
	// if (3 >= 2) goto 4; [3:] return (dead); [4:] push 111; ireturn.
	code := codeOf(
		withOperand(opcodes.BIPUSH, 3),                                 // 0
		withOperand(opcodes.BIPUSH, 2),                                 // 1
		classfile.Instruction{Op: opcodes.IF_ICMPGE, BranchTarget: 4},  // 2
		instr(opcodes.RETURN),                                         // 3: unreachable sentinel (void return)
		withOperand(opcodes.SIPUSH, 111),                               // 4
		instr(opcodes.IRETURN),                                        // 5
	)
	ret, err := e.ExecuteMethod(thread.NewThread(), klass, methodOf(code), nil)
	require.NoError(t, err)
	v, err := ret[0].AsInt()
	require.NoError(t, err)
	require.Equal(t, int32(111), v)
}

func TestPop2PopsOneCategory2Value(t *testing.T) {
	e := newTestEngine()
	klass := object.NewClass("Calc", "", nil)
	klass.ConstantPool = classfile.NewConstantPool(1)
	code := codeOf(
		withOperand(opcodes.BIPUSH, 9), // left on the stack underneath
		instr(opcodes.LCONST_1),        // category 2, popped whole by POP2
		instr(opcodes.POP2),
		instr(opcodes.IRETURN),
	)
	ret, err := e.ExecuteMethod(thread.NewThread(), klass, methodOf(code), nil)
	require.NoError(t, err)
	v, err := ret[0].AsInt()
	require.NoError(t, err)
	require.Equal(t, int32(9), v)
}

func TestDup2OnCategory1PairDuplicatesBothValues(t *testing.T) {
	e := newTestEngine()
	klass := object.NewClass("Calc", "", nil)
	klass.ConstantPool = classfile.NewConstantPool(1)
	// stack: 1, 2 -> dup2 -> 1, 2, 1, 2 -> pop, pop -> 1, 2 -> iadd -> 3
	code := codeOf(
		withOperand(opcodes.BIPUSH, 1),
		withOperand(opcodes.BIPUSH, 2),
		instr(opcodes.DUP2),
		instr(opcodes.POP),
		instr(opcodes.POP),
		instr(opcodes.IADD),
		instr(opcodes.IRETURN),
	)
	ret, err := e.ExecuteMethod(thread.NewThread(), klass, methodOf(code), nil)
	require.NoError(t, err)
	v, err := ret[0].AsInt()
	require.NoError(t, err)
	require.Equal(t, int32(3), v)
}

func TestTableswitchPicksMatchingCase(t *testing.T) {
	e := newTestEngine()
	klass := object.NewClass("Calc", "", nil)
	klass.ConstantPool = classfile.NewConstantPool(1)
	code := codeOf(
		withOperand(opcodes.BIPUSH, 1), // 0
		classfile.Instruction{Op: opcodes.TABLESWITCH, Switch: &classfile.SwitchData{
			Low: 0, High: 2, Targets: []int{3, 5, 7}, Default: 9,
		}}, // 1
		instr(opcodes.RETURN), // 2 (padding, unreachable)
		withOperand(opcodes.SIPUSH, 900), // 3: case 0
		instr(opcodes.IRETURN),           // 4
		withOperand(opcodes.SIPUSH, 901), // 5: case 1
		instr(opcodes.IRETURN),           // 6
		withOperand(opcodes.SIPUSH, 902), // 7: case 2
		instr(opcodes.IRETURN),           // 8
		withOperand(opcodes.SIPUSH, 999), // 9: default
		instr(opcodes.IRETURN),           // 10
	)
	ret, err := e.ExecuteMethod(thread.NewThread(), klass, methodOf(code), nil)
	require.NoError(t, err)
	v, err := ret[0].AsInt()
	require.NoError(t, err)
	require.Equal(t, int32(901), v)
}

// buildClassWithField assembles the raw bytes of a class with a single
// field (static or instance) and no methods, grounded on
// classloader_test.go's buildTrivialClass helper, extended to carry a
// field_info entry so classFromClassFile populates the field tables
// getstatic/putstatic and new rely on.
func buildClassWithField(thisName, fieldName, fieldDesc string, static bool) []byte {
	var buf bytes.Buffer
	u1 := func(v byte) { buf.WriteByte(v) }
	u2 := func(v uint16) { binary.Write(&buf, binary.BigEndian, v) }
	u4 := func(v uint32) { binary.Write(&buf, binary.BigEndian, v) }
	utf8 := func(s string) {
		u1(1) // CONSTANT_Utf8
		u2(uint16(len(s)))
		buf.WriteString(s)
	}
	classEntry := func(utf8Index uint16) {
		u1(7) // CONSTANT_Class
		u2(utf8Index)
	}

	u4(0xCAFEBABE)
	u2(0)  // minor
	u2(61) // major

	// #1 utf8(thisName) #2 class(1) #3 utf8(fieldName) #4 utf8(fieldDesc)
	u2(5) // constant_pool_count = count+1
	utf8(thisName)
	classEntry(1)
	utf8(fieldName)
	utf8(fieldDesc)

	u2(uint16(0x0021)) // ACC_PUBLIC | ACC_SUPER
	u2(2)               // this_class
	u2(0)                // super_class: none, so no superclass is loaded
	u2(0)                // interfaces_count

	u2(1) // fields_count
	var flags uint16 = 0x0001
	if static {
		flags |= 0x0008
	}
	u2(flags)
	u2(3) // name_index -> fieldName
	u2(4) // descriptor_index -> fieldDesc
	u2(0) // attributes_count

	u2(0) // methods_count
	u2(0) // class attributes_count

	return buf.Bytes()
}

func TestGetstaticPutstaticRoundTrip(t *testing.T) {
	loader := classloader.NewLoader("test", nil, nil)
	e := NewEngine(loader)

	data := buildClassWithField("Counter", "count", "I", true)
	owner, err := loader.DefineClass(data)
	require.NoError(t, err)
	require.Equal(t, []string{"count"}, owner.StaticFieldNames)

	cp := classfile.NewConstantPool(8)
	cp.Entries[1] = classfile.CpEntry{Tag: classfile.TagUTF8, UTF8: "Counter"}
	cp.Entries[2] = classfile.CpEntry{Tag: classfile.TagClass, UTF8Index: 1}
	cp.Entries[3] = classfile.CpEntry{Tag: classfile.TagUTF8, UTF8: "count"}
	cp.Entries[4] = classfile.CpEntry{Tag: classfile.TagUTF8, UTF8: "I"}
	cp.Entries[5] = classfile.CpEntry{Tag: classfile.TagNameAndType, NameIndex: 3, DescIndex: 4}
	cp.Entries[6] = classfile.CpEntry{Tag: classfile.TagFieldRef, ClassIndex: 2, NameAndTypeIndex: 5}

	runner := object.NewClass("Runner", "", nil)
	runner.ConstantPool = cp
	code := codeOf(
		withOperand(opcodes.BIPUSH, 5),
		withOperand(opcodes.PUTSTATIC, 6),
		withOperand(opcodes.GETSTATIC, 6),
		instr(opcodes.IRETURN),
	)

	ret, err := e.ExecuteMethod(thread.NewThread(), runner, methodOf(code), nil)
	require.NoError(t, err)
	v, err := ret[0].AsInt()
	require.NoError(t, err)
	require.Equal(t, int32(5), v)
}

func TestNewObjectZeroInitializesFieldsAndRegistersWithGC(t *testing.T) {
	loader := classloader.NewLoader("test", nil, nil)
	e := NewEngine(loader)

	data := buildClassWithField("Plain", "x", "I", false)
	_, err := loader.DefineClass(data)
	require.NoError(t, err)

	cp := classfile.NewConstantPool(4)
	cp.Entries[1] = classfile.CpEntry{Tag: classfile.TagUTF8, UTF8: "Plain"}
	cp.Entries[2] = classfile.CpEntry{Tag: classfile.TagClass, UTF8Index: 1}

	runner := object.NewClass("Runner", "", nil)
	runner.ConstantPool = cp
	code := codeOf(
		withOperand(opcodes.NEW, 2),
		instr(opcodes.ARETURN),
	)

	before := e.GC.Statistics().BytesAllocated
	ret, err := e.ExecuteMethod(thread.NewThread(), runner, methodOf(code), nil)
	require.NoError(t, err)
	ref, err := ret[0].AsRef()
	require.NoError(t, err)
	obj, ok := ref.(*object.Object)
	require.True(t, ok)
	require.Equal(t, "Plain", obj.KlassName)
	field, ok := obj.GetField("x")
	require.True(t, ok)
	require.Equal(t, int32(0), field.Fvalue)
	require.Greater(t, e.GC.Statistics().BytesAllocated, before)
}

func TestMultiANewArrayBuildsNestedDimensions(t *testing.T) {
	e := newTestEngine()
	cp := classfile.NewConstantPool(4)
	cp.Entries[1] = classfile.CpEntry{Tag: classfile.TagUTF8, UTF8: "[[I"}
	cp.Entries[2] = classfile.CpEntry{Tag: classfile.TagClass, UTF8Index: 1}

	klass := object.NewClass("Arrays", "", nil)
	klass.ConstantPool = cp
	code := codeOf(
		withOperand(opcodes.BIPUSH, 2), // outer dim
		withOperand(opcodes.BIPUSH, 3), // inner dim
		classfile.Instruction{Op: opcodes.MULTIANEWARRAY, IntOperand: 2, IntOperand2: 2},
		instr(opcodes.ARETURN),
	)

	ret, err := e.ExecuteMethod(thread.NewThread(), klass, methodOf(code), nil)
	require.NoError(t, err)
	ref, err := ret[0].AsRef()
	require.NoError(t, err)
	arr, ok := ref.(*object.Array)
	require.True(t, ok)
	require.Equal(t, 2, arr.Len())
	inner, ok := arr.Elements.([]*object.Array)
	require.True(t, ok)
	require.Equal(t, 3, inner[0].Len())
	require.Equal(t, 3, inner[1].Len())
}

func TestDispatchExceptionMatchesCatchAllHandler(t *testing.T) {
	e := newTestEngine()
	klass := object.NewClass("Plain", "", nil)
	exc := object.NewObject(klass)
	thrown := &exceptions.Throwable{ClassName: "Plain", Obj: exc}

	code := &classfile.CodeAttribute{
		MaxStack: 4, MaxLocals: 0,
		Instructions: []classfile.Instruction{
			instr(opcodes.ATHROW),
			instr(opcodes.POP),
			instr(opcodes.RETURN),
		},
		ExceptionTable: []classfile.ExceptionTableEntry{
			{StartPC: 0, EndPC: 1, HandlerPC: 1, CatchClass: 0},
		},
	}

	f := frames.NewFrame(klass.Name, "run", "()V", 0, 4)
	handled := e.dispatchException(f, code, klass.ConstantPool, thrown, 0)
	require.True(t, handled)
	require.Equal(t, 1, f.PC)
	require.Equal(t, 1, len(f.Stack))
}

func TestDispatchExceptionReturnsFalseWhenPCOutsideRange(t *testing.T) {
	e := newTestEngine()
	klass := object.NewClass("Plain", "", nil)
	exc := object.NewObject(klass)
	thrown := &exceptions.Throwable{ClassName: "Plain", Obj: exc}

	code := &classfile.CodeAttribute{
		MaxStack: 4, MaxLocals: 0,
		Instructions: []classfile.Instruction{instr(opcodes.ATHROW), instr(opcodes.RETURN)},
		ExceptionTable: []classfile.ExceptionTableEntry{
			{StartPC: 5, EndPC: 6, HandlerPC: 1, CatchClass: 0},
		},
	}

	f := frames.NewFrame(klass.Name, "run", "()V", 0, 4)
	require.False(t, e.dispatchException(f, code, klass.ConstantPool, thrown, 0))
}
