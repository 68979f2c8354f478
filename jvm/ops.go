/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2022-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"fmt"

	"github.com/theseus-rs/ristretto-sub006/classfile"
	"github.com/theseus-rs/ristretto-sub006/excnames"
	"github.com/theseus-rs/ristretto-sub006/exceptions"
	"github.com/theseus-rs/ristretto-sub006/frames"
	"github.com/theseus-rs/ristretto-sub006/methodref"
	"github.com/theseus-rs/ristretto-sub006/object"
	"github.com/theseus-rs/ristretto-sub006/opcodes"
	"github.com/theseus-rs/ristretto-sub006/statics"
	"github.com/theseus-rs/ristretto-sub006/thread"
	"github.com/theseus-rs/ristretto-sub006/types"
)

// staticKindFor classifies a static field's descriptor into the Kind
// package statics stores it under.
func staticKindFor(descriptor string) statics.Kind {
	switch types.DefaultFor(descriptor) {
	case types.DefaultLong:
		return statics.Long
	case types.DefaultFloat:
		return statics.Float
	case types.DefaultDouble:
		return statics.Double
	case types.DefaultBoolean:
		return statics.Boolean
	case types.DefaultReference:
		return statics.Reference
	default:
		return statics.Int
	}
}

// defaultStaticValue is the JVM default value for descriptor, stored
// in package statics' normalized int64/float64/reference shape.
func defaultStaticValue(descriptor string) any {
	switch types.DefaultFor(descriptor) {
	case types.DefaultLong, types.DefaultBoolean:
		return int64(0)
	case types.DefaultFloat, types.DefaultDouble:
		return float64(0)
	case types.DefaultReference:
		return (*object.Object)(nil)
	default:
		return int64(0)
	}
}

// staticToValue converts a stored static into the frames.Value the
// operand stack expects.
func staticToValue(s *statics.Static) frames.Value {
	switch s.Kind {
	case statics.Long:
		return frames.LongValue(s.Value.(int64))
	case statics.Float:
		return frames.FloatValue(float32(s.Value.(float64)))
	case statics.Double:
		return frames.DoubleValue(s.Value.(float64))
	case statics.Reference:
		if s.Value == nil {
			return frames.NullValue()
		}
		obj, _ := s.Value.(*object.Object)
		if obj == nil {
			return frames.NullValue()
		}
		return frames.ObjectValue(obj)
	default: // Int, Boolean
		return frames.IntValue(int32(s.Value.(int64)))
	}
}

// valueToStatic converts an operand-stack value into the storage
// shape package statics keeps for kind.
func valueToStatic(v frames.Value, kind statics.Kind) any {
	switch kind {
	case statics.Long:
		lv, _ := v.AsLong()
		return lv
	case statics.Float:
		fv, _ := v.AsFloat()
		return float64(fv)
	case statics.Double:
		dv, _ := v.AsDouble()
		return dv
	case statics.Reference:
		rv, _ := v.AsRef()
		return rv
	default: // Int, Boolean
		iv, _ := v.AsInt()
		return int64(iv)
	}
}

// frameValueFromField converts an object field's stored value (see
// object.NewObject's defaultValue) into a frames.Value.
func frameValueFromField(field object.Field) frames.Value {
	switch types.DefaultFor(field.Ftype) {
	case types.DefaultLong:
		v, _ := field.Fvalue.(int64)
		return frames.LongValue(v)
	case types.DefaultFloat:
		v, _ := field.Fvalue.(float32)
		return frames.FloatValue(v)
	case types.DefaultDouble:
		v, _ := field.Fvalue.(float64)
		return frames.DoubleValue(v)
	case types.DefaultBoolean:
		v, _ := field.Fvalue.(bool)
		if v {
			return frames.IntValue(1)
		}
		return frames.IntValue(0)
	case types.DefaultReference:
		obj, _ := field.Fvalue.(*object.Object)
		if obj == nil {
			return frames.NullValue()
		}
		return frames.ObjectValue(obj)
	default:
		v, _ := field.Fvalue.(int32)
		return frames.IntValue(v)
	}
}

// fieldValueFromFrame is frameValueFromField's inverse, used by
// putfield/putstatic to store a popped operand back in field layout.
func fieldValueFromFrame(v frames.Value, descriptor string) any {
	switch types.DefaultFor(descriptor) {
	case types.DefaultLong:
		lv, _ := v.AsLong()
		return lv
	case types.DefaultFloat:
		fv, _ := v.AsFloat()
		return fv
	case types.DefaultDouble:
		dv, _ := v.AsDouble()
		return dv
	case types.DefaultBoolean:
		iv, _ := v.AsInt()
		return iv != 0
	case types.DefaultReference:
		rv, _ := v.AsRef()
		obj, _ := rv.(*object.Object)
		return obj
	default:
		iv, _ := v.AsInt()
		return iv
	}
}

// popArgs pops len(params) operands off f's stack in call order (the
// verifier guarantees the stack holds exactly these, pushed
// left-to-right).
func popArgs(f *frames.Frame, params []string) []frames.Value {
	args := make([]frames.Value, len(params))
	for i := len(params) - 1; i >= 0; i-- {
		args[i] = f.Pop()
	}
	return args
}

// pushResult pushes a called method's return value, a no-op for void
// methods.
func pushResult(f *frames.Frame, result []frames.Value, returnDescriptor string) {
	if returnDescriptor == "" || returnDescriptor == "V" || len(result) == 0 {
		return
	}
	f.Push(result[0])
}

func (e *Engine) execGetStatic(th *thread.Thread, f *frames.Frame, cp *classfile.ConstantPool, instr classfile.Instruction) (*exceptions.Throwable, []frames.Value, bool, error) {
	className, fieldName, _, err := cp.MemberRefAt(instr.IntOperand)
	if err != nil {
		return nil, nil, false, err
	}
	owner, err := e.Loader.LoadClass(className)
	if err != nil {
		return exceptions.New(excnames.NoClassDefFoundError, className), nil, false, nil
	}
	if err := e.ensureInitialized(th, owner); err != nil {
		return exceptions.AsThrowable(err), nil, false, nil
	}
	s, ok := e.Statics.GetStaticValue(className, fieldName)
	if !ok {
		return exceptions.New(excnames.NoSuchFieldError, className+"."+fieldName), nil, false, nil
	}
	f.Push(staticToValue(s))
	return nil, nil, false, nil
}

func (e *Engine) execPutStatic(th *thread.Thread, f *frames.Frame, cp *classfile.ConstantPool, instr classfile.Instruction) (*exceptions.Throwable, []frames.Value, bool, error) {
	className, fieldName, _, err := cp.MemberRefAt(instr.IntOperand)
	if err != nil {
		return nil, nil, false, err
	}
	owner, err := e.Loader.LoadClass(className)
	if err != nil {
		return exceptions.New(excnames.NoClassDefFoundError, className), nil, false, nil
	}
	if err := e.ensureInitialized(th, owner); err != nil {
		return exceptions.AsThrowable(err), nil, false, nil
	}
	v := f.Pop()
	s, ok := e.Statics.GetStaticValue(className, fieldName)
	if !ok {
		return exceptions.New(excnames.NoSuchFieldError, className+"."+fieldName), nil, false, nil
	}
	e.Statics.SetStaticValue(className, fieldName, valueToStatic(v, s.Kind))
	return nil, nil, false, nil
}

func (e *Engine) execGetField(f *frames.Frame, cp *classfile.ConstantPool, instr classfile.Instruction) (*exceptions.Throwable, []frames.Value, bool, error) {
	_, fieldName, _, err := cp.MemberRefAt(instr.IntOperand)
	if err != nil {
		return nil, nil, false, err
	}
	ref, err := f.Pop().AsRef()
	if err != nil {
		return nil, nil, false, err
	}
	obj, _ := ref.(*object.Object)
	if obj == nil {
		return exceptions.NullPointerException("getfield on null"), nil, false, nil
	}
	field, ok := obj.GetField(fieldName)
	if !ok {
		return exceptions.New(excnames.NoSuchFieldError, fieldName), nil, false, nil
	}
	f.Push(frameValueFromField(field))
	return nil, nil, false, nil
}

func (e *Engine) execPutField(f *frames.Frame, cp *classfile.ConstantPool, instr classfile.Instruction) (*exceptions.Throwable, []frames.Value, bool, error) {
	_, fieldName, descriptor, err := cp.MemberRefAt(instr.IntOperand)
	if err != nil {
		return nil, nil, false, err
	}
	value := f.Pop()
	ref, err := f.Pop().AsRef()
	if err != nil {
		return nil, nil, false, err
	}
	obj, _ := ref.(*object.Object)
	if obj == nil {
		return exceptions.NullPointerException("putfield on null"), nil, false, nil
	}
	obj.SetField(fieldName, descriptor, fieldValueFromFrame(value, descriptor))
	return nil, nil, false, nil
}

func (e *Engine) execNew(th *thread.Thread, f *frames.Frame, cp *classfile.ConstantPool, instr classfile.Instruction) (*exceptions.Throwable, []frames.Value, bool, error) {
	className, err := cp.ClassNameAt(instr.IntOperand)
	if err != nil {
		return nil, nil, false, err
	}
	klass, err := e.Loader.LoadClass(className)
	if err != nil {
		return exceptions.New(excnames.NoClassDefFoundError, className), nil, false, nil
	}
	if err := e.ensureInitialized(th, klass); err != nil {
		return exceptions.AsThrowable(err), nil, false, nil
	}
	obj := object.NewObject(klass)
	e.GC.RegisterObject(obj, uint64(16+8*len(klass.FieldNames)))
	f.Push(frames.ObjectValue(obj))
	return nil, nil, false, nil
}

// arrayTypeDescriptor maps newarray's atype operand (JVMS 6.5
// "newarray") to a field descriptor.
func arrayTypeDescriptor(atype int) string {
	switch atype {
	case 4:
		return "Z"
	case 5:
		return "C"
	case 6:
		return "F"
	case 7:
		return "D"
	case 8:
		return "B"
	case 9:
		return "S"
	case 10:
		return "I"
	case 11:
		return "J"
	default:
		return "I"
	}
}

func (e *Engine) execNewArray(f *frames.Frame, instr classfile.Instruction) (*exceptions.Throwable, []frames.Value, bool, error) {
	n, err := f.Pop().AsInt()
	if err != nil {
		return nil, nil, false, err
	}
	if n < 0 {
		return exceptions.NegativeArraySize(n), nil, false, nil
	}
	arr, err := object.NewArray(arrayTypeDescriptor(instr.IntOperand), int(n))
	if err != nil {
		return nil, nil, false, err
	}
	e.GC.RegisterObject(arr, uint64(8*int(n)))
	f.Push(frames.ObjectValue(arr))
	return nil, nil, false, nil
}

func (e *Engine) execANewArray(f *frames.Frame, cp *classfile.ConstantPool, instr classfile.Instruction) (*exceptions.Throwable, []frames.Value, bool, error) {
	n, err := f.Pop().AsInt()
	if err != nil {
		return nil, nil, false, err
	}
	if n < 0 {
		return exceptions.NegativeArraySize(n), nil, false, nil
	}
	className, err := cp.ClassNameAt(instr.IntOperand)
	if err != nil {
		return nil, nil, false, err
	}
	elemDesc := className
	if !types.IsArray(elemDesc) {
		elemDesc = "L" + className + ";"
	}
	arr, err := object.NewArray(elemDesc, int(n))
	if err != nil {
		return nil, nil, false, err
	}
	e.GC.RegisterObject(arr, uint64(8*int(n)))
	f.Push(frames.ObjectValue(arr))
	return nil, nil, false, nil
}

func (e *Engine) execArrayLength(f *frames.Frame) (*exceptions.Throwable, []frames.Value, bool, error) {
	ref, err := f.Pop().AsRef()
	if err != nil {
		return nil, nil, false, err
	}
	arr, _ := ref.(*object.Array)
	if arr == nil {
		return exceptions.NullPointerException("arraylength on null"), nil, false, nil
	}
	f.Push(frames.IntValue(int32(arr.Len())))
	return nil, nil, false, nil
}

// buildMultiArray recursively allocates the dimensions of a
// multianewarray, per JVMS 6.5 "multianewarray": dimension i+1 is only
// allocated once dimension i's slots exist to hold it.
func buildMultiArray(descriptor string, counts []int32) (*object.Array, error) {
	elemDesc, ok := types.ElementDescriptor(descriptor)
	if !ok {
		return nil, fmt.Errorf("jvm: %q is not an array descriptor", descriptor)
	}
	arr, err := object.NewArray(elemDesc, int(counts[0]))
	if err != nil {
		return nil, err
	}
	if len(counts) == 1 {
		return arr, nil
	}
	sub, ok := arr.Elements.([]*object.Array)
	if !ok {
		return arr, nil
	}
	for i := range sub {
		child, err := buildMultiArray(elemDesc, counts[1:])
		if err != nil {
			return nil, err
		}
		sub[i] = child
	}
	return arr, nil
}

func (e *Engine) execMultiANewArray(f *frames.Frame, cp *classfile.ConstantPool, instr classfile.Instruction) (*exceptions.Throwable, []frames.Value, bool, error) {
	dims := instr.IntOperand2
	counts := make([]int32, dims)
	for i := dims - 1; i >= 0; i-- {
		v, err := f.Pop().AsInt()
		if err != nil {
			return nil, nil, false, err
		}
		counts[i] = v
	}
	for _, c := range counts {
		if c < 0 {
			return exceptions.NegativeArraySize(c), nil, false, nil
		}
	}
	descriptor, err := cp.ClassNameAt(instr.IntOperand)
	if err != nil {
		return nil, nil, false, err
	}
	arr, err := buildMultiArray(descriptor, counts)
	if err != nil {
		return nil, nil, false, err
	}
	e.GC.RegisterObject(arr, uint64(8*len(counts)))
	f.Push(frames.ObjectValue(arr))
	return nil, nil, false, nil
}

func arrayElementToValue(arr *object.Array, idx int) (frames.Value, error) {
	switch e := arr.Elements.(type) {
	case []int32:
		return frames.IntValue(e[idx]), nil
	case []int64:
		return frames.LongValue(e[idx]), nil
	case []float32:
		return frames.FloatValue(e[idx]), nil
	case []float64:
		return frames.DoubleValue(e[idx]), nil
	case []int8:
		return frames.IntValue(int32(e[idx])), nil
	case []bool:
		if e[idx] {
			return frames.IntValue(1), nil
		}
		return frames.IntValue(0), nil
	case []*object.Object:
		if e[idx] == nil {
			return frames.NullValue(), nil
		}
		return frames.ObjectValue(e[idx]), nil
	case []*object.Array:
		if e[idx] == nil {
			return frames.NullValue(), nil
		}
		return frames.ObjectValue(e[idx]), nil
	default:
		return frames.Value{}, fmt.Errorf("jvm: unsupported array element storage %T", arr.Elements)
	}
}

func storeArrayElement(arr *object.Array, idx int, v frames.Value) error {
	switch e := arr.Elements.(type) {
	case []int32:
		iv, err := v.AsInt()
		if err != nil {
			return err
		}
		e[idx] = iv
	case []int64:
		lv, err := v.AsLong()
		if err != nil {
			return err
		}
		e[idx] = lv
	case []float32:
		fv, err := v.AsFloat()
		if err != nil {
			return err
		}
		e[idx] = fv
	case []float64:
		dv, err := v.AsDouble()
		if err != nil {
			return err
		}
		e[idx] = dv
	case []int8:
		iv, err := v.AsInt()
		if err != nil {
			return err
		}
		e[idx] = int8(iv)
	case []bool:
		iv, err := v.AsInt()
		if err != nil {
			return err
		}
		e[idx] = iv != 0
	case []*object.Object:
		rv, err := v.AsRef()
		if err != nil {
			return err
		}
		obj, _ := rv.(*object.Object)
		e[idx] = obj
	case []*object.Array:
		rv, err := v.AsRef()
		if err != nil {
			return err
		}
		sub, _ := rv.(*object.Array)
		e[idx] = sub
	default:
		return fmt.Errorf("jvm: unsupported array element storage %T", arr.Elements)
	}
	return nil
}

func (e *Engine) execArrayLoad(f *frames.Frame, op opcodes.Opcode) (*exceptions.Throwable, []frames.Value, bool, error) {
	idx, err := f.Pop().AsInt()
	if err != nil {
		return nil, nil, false, err
	}
	ref, err := f.Pop().AsRef()
	if err != nil {
		return nil, nil, false, err
	}
	if ref == nil {
		return exceptions.NullPointerException("array load on null"), nil, false, nil
	}
	arr, ok := ref.(*object.Array)
	if !ok {
		return nil, nil, false, fmt.Errorf("jvm: %T is not an array", ref)
	}
	if idx < 0 || int(idx) >= arr.Len() {
		return exceptions.ArrayIndexOutOfBounds(int(idx), arr.Len()), nil, false, nil
	}
	v, err := arrayElementToValue(arr, int(idx))
	if err != nil {
		return nil, nil, false, err
	}
	f.Push(v)
	return nil, nil, false, nil
}

func (e *Engine) execArrayStore(f *frames.Frame, op opcodes.Opcode) (*exceptions.Throwable, []frames.Value, bool, error) {
	value := f.Pop()
	idx, err := f.Pop().AsInt()
	if err != nil {
		return nil, nil, false, err
	}
	ref, err := f.Pop().AsRef()
	if err != nil {
		return nil, nil, false, err
	}
	if ref == nil {
		return exceptions.NullPointerException("array store on null"), nil, false, nil
	}
	arr, ok := ref.(*object.Array)
	if !ok {
		return nil, nil, false, fmt.Errorf("jvm: %T is not an array", ref)
	}
	if idx < 0 || int(idx) >= arr.Len() {
		return exceptions.ArrayIndexOutOfBounds(int(idx), arr.Len()), nil, false, nil
	}
	if err := storeArrayElement(arr, int(idx), value); err != nil {
		return nil, nil, false, err
	}
	return nil, nil, false, nil
}

func (e *Engine) execCheckCast(f *frames.Frame, cp *classfile.ConstantPool, instr classfile.Instruction) (*exceptions.Throwable, []frames.Value, bool, error) {
	ref, err := f.Peek().AsRef()
	if err != nil {
		return nil, nil, false, err
	}
	if ref == nil {
		return nil, nil, false, nil
	}
	obj, ok := ref.(*object.Object)
	if !ok {
		// array-to-array casts are not checked for covariance here.
		return nil, nil, false, nil
	}
	targetName, err := cp.ClassNameAt(instr.IntOperand)
	if err != nil {
		return nil, nil, false, err
	}
	if types.IsArray(targetName) {
		return nil, nil, false, nil
	}
	match, err := e.Hierarchy.IsSubclassOf(obj.KlassName, targetName)
	if err != nil {
		return exceptions.AsThrowable(err), nil, false, nil
	}
	if !match {
		return exceptions.ClassCastException(obj.KlassName, targetName), nil, false, nil
	}
	return nil, nil, false, nil
}

func (e *Engine) execInstanceOf(f *frames.Frame, cp *classfile.ConstantPool, instr classfile.Instruction) (*exceptions.Throwable, []frames.Value, bool, error) {
	ref, err := f.Pop().AsRef()
	if err != nil {
		return nil, nil, false, err
	}
	if ref == nil {
		f.Push(frames.IntValue(0))
		return nil, nil, false, nil
	}
	obj, ok := ref.(*object.Object)
	if !ok {
		f.Push(frames.IntValue(0))
		return nil, nil, false, nil
	}
	targetName, err := cp.ClassNameAt(instr.IntOperand)
	if err != nil {
		return nil, nil, false, err
	}
	result := int32(0)
	if !types.IsArray(targetName) {
		match, err := e.Hierarchy.IsSubclassOf(obj.KlassName, targetName)
		if err != nil {
			return exceptions.AsThrowable(err), nil, false, nil
		}
		if match {
			result = 1
		}
	}
	f.Push(frames.IntValue(result))
	return nil, nil, false, nil
}

func (e *Engine) execInvokeStatic(th *thread.Thread, f *frames.Frame, cp *classfile.ConstantPool, instr classfile.Instruction) (*exceptions.Throwable, []frames.Value, bool, error) {
	className, methodName, descriptor, err := cp.MemberRefAt(instr.IntOperand)
	if err != nil {
		return nil, nil, false, err
	}
	owner, err := e.Loader.LoadClass(className)
	if err != nil {
		return exceptions.New(excnames.NoClassDefFoundError, className), nil, false, nil
	}
	if err := e.ensureInitialized(th, owner); err != nil {
		return exceptions.AsThrowable(err), nil, false, nil
	}
	declaring, method, ok := e.findMethod(owner, methodName, descriptor)
	if !ok {
		return exceptions.NoSuchMethodError(className, methodName, descriptor), nil, false, nil
	}
	args := popArgs(f, types.FieldDescriptors(descriptor))
	result, err := e.ExecuteMethod(th, declaring, method, args)
	if err != nil {
		return exceptions.AsThrowable(err), nil, false, nil
	}
	pushResult(f, result, types.ReturnDescriptor(descriptor))
	return nil, nil, false, nil
}

func (e *Engine) execInvokeSpecial(th *thread.Thread, f *frames.Frame, klass *object.Class, cp *classfile.ConstantPool, instr classfile.Instruction) (*exceptions.Throwable, []frames.Value, bool, error) {
	className, methodName, descriptor, err := cp.MemberRefAt(instr.IntOperand)
	if err != nil {
		return nil, nil, false, err
	}
	owner, err := e.Loader.LoadClass(className)
	if err != nil {
		return exceptions.New(excnames.NoClassDefFoundError, className), nil, false, nil
	}
	declaring, method, ok := e.findMethod(owner, methodName, descriptor)
	if !ok {
		return exceptions.NoSuchMethodError(className, methodName, descriptor), nil, false, nil
	}
	args := popArgs(f, types.FieldDescriptors(descriptor))
	ref, err := f.Pop().AsRef()
	if err != nil {
		return nil, nil, false, err
	}
	obj, _ := ref.(*object.Object)
	if obj == nil {
		return exceptions.NullPointerException("invokespecial on null"), nil, false, nil
	}
	fullArgs := append([]frames.Value{frames.ObjectValue(obj)}, args...)
	result, err := e.ExecuteMethod(th, declaring, method, fullArgs)
	if err != nil {
		return exceptions.AsThrowable(err), nil, false, nil
	}
	pushResult(f, result, types.ReturnDescriptor(descriptor))
	return nil, nil, false, nil
}

// execInvokeVirtual handles both invokevirtual and invokeinterface:
// both dispatch on the receiver's actual runtime class rather than the
// constant pool's declared class. Resolution is cached in
// e.MethodRefs keyed by the receiver's dynamic class rather than the
// caller's class, the natural analogue of a per-receiver-type vtable
// cache (spec.md §4.6's resolve-once contract, adapted here from a
// per-call-site cache to a per-receiver-type one since invokevirtual's
// target genuinely varies with the receiver).
func (e *Engine) execInvokeVirtual(th *thread.Thread, f *frames.Frame, cp *classfile.ConstantPool, instr classfile.Instruction) (*exceptions.Throwable, []frames.Value, bool, error) {
	className, methodName, descriptor, err := cp.MemberRefAt(instr.IntOperand)
	if err != nil {
		return nil, nil, false, err
	}
	args := popArgs(f, types.FieldDescriptors(descriptor))
	ref, err := f.Pop().AsRef()
	if err != nil {
		return nil, nil, false, err
	}
	obj, _ := ref.(*object.Object)
	if obj == nil {
		return exceptions.NullPointerException("invokevirtual on null"), nil, false, nil
	}

	startClass := obj.Klass
	if startClass == nil {
		startClass, err = e.Loader.LoadClass(className)
		if err != nil {
			return exceptions.New(excnames.NoClassDefFoundError, className), nil, false, nil
		}
	}

	key := methodref.Key{CallerClass: startClass.Name, CPIndex: uint16(instr.IntOperand)}
	var declaring *object.Class
	var method *classfile.Method
	if resolved, resErr, ok := e.MethodRefs.Get(key); ok {
		if resErr != nil {
			return exceptions.AsThrowable(resErr), nil, false, nil
		}
		declaring = resolved.DeclaringClass
		method, ok = declaring.FindMethod(resolved.MethodName, resolved.MethodDescriptor)
		if !ok {
			return exceptions.NoSuchMethodError(startClass.Name, methodName, descriptor), nil, false, nil
		}
	} else {
		var found bool
		declaring, method, found = e.findMethod(startClass, methodName, descriptor)
		if !found {
			failure := &methodref.ResolutionError{Kind: methodref.NoSuchMethod, Message: methodName + descriptor}
			e.MethodRefs.StoreFailed(key, failure)
			return exceptions.NoSuchMethodError(startClass.Name, methodName, descriptor), nil, false, nil
		}
		e.MethodRefs.StoreResolved(key, methodref.NewResolved(declaring, methodName, descriptor, descriptor, methodref.Virtual))
	}

	fullArgs := append([]frames.Value{frames.ObjectValue(obj)}, args...)
	result, err := e.ExecuteMethod(th, declaring, method, fullArgs)
	if err != nil {
		return exceptions.AsThrowable(err), nil, false, nil
	}
	pushResult(f, result, types.ReturnDescriptor(descriptor))
	return nil, nil, false, nil
}
