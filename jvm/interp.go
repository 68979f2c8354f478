/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2022-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package jvm is the bytecode interpreter: the opcode-dispatch loop
// spec.md §4.9 describes, driving class initialization (JVMS 5.5),
// method invocation, object/array creation, and exception unwinding
// over the frames/object/classloader/methodref/monitor/thread
// packages. Grounded on jacobin's own jvm package (instantiate.go's
// "recheck: goto recheck" class-wait idiom, initializerBlock.go's
// static-field pass), generalized into a full instruction set driven
// by the opcodes.Table rather than the teacher's handful of
// hand-tested opcodes.
package jvm

import (
	"fmt"
	"runtime"

	"github.com/theseus-rs/ristretto-sub006/classfile"
	"github.com/theseus-rs/ristretto-sub006/classloader"
	"github.com/theseus-rs/ristretto-sub006/excnames"
	"github.com/theseus-rs/ristretto-sub006/exceptions"
	"github.com/theseus-rs/ristretto-sub006/frames"
	"github.com/theseus-rs/ristretto-sub006/gc"
	"github.com/theseus-rs/ristretto-sub006/log"
	"github.com/theseus-rs/ristretto-sub006/methodref"
	"github.com/theseus-rs/ristretto-sub006/monitor"
	"github.com/theseus-rs/ristretto-sub006/object"
	"github.com/theseus-rs/ristretto-sub006/opcodes"
	"github.com/theseus-rs/ristretto-sub006/statics"
	"github.com/theseus-rs/ristretto-sub006/thread"
)

// NativeFunc is a gfunction-registered native method: the shim
// package provides these, keyed by class/method/descriptor; the
// interpreter calls one whenever the method has ACC_NATIVE or
// ACC_ABSTRACT set (spec.md §6).
type NativeFunc func(th *thread.Thread, args []frames.Value) ([]frames.Value, error)

// Engine ties the runtime packages together into something that can
// actually run a method, mirroring the globals jacobin's jvm package
// reaches for implicitly (classloader.Classes, a process-wide
// MethodArea) but threaded explicitly instead of through package
// state, so more than one Engine (e.g. one per test) can coexist.
type Engine struct {
	Loader     *classloader.Loader
	Hierarchy  *classloader.Hierarchy
	Monitors   *monitor.Registry
	MethodRefs *methodref.Cache
	Statics    *statics.Table
	GC         *gc.Collector
	Natives    map[string]NativeFunc // key: "class.method:descriptor"
}

// NewEngine wires a fresh Engine around loader.
func NewEngine(loader *classloader.Loader) *Engine {
	return &Engine{
		Loader:     loader,
		Hierarchy:  classloader.NewHierarchy(loader),
		Monitors:   monitor.NewRegistry(),
		MethodRefs: methodref.NewCache(),
		Statics:    statics.GetStaticsTable(),
		GC:         gc.New(),
		Natives:    make(map[string]NativeFunc),
	}
}

// RegisterNative installs a native method shim under its
// "class.method:descriptor" key.
func (e *Engine) RegisterNative(className, methodName, descriptor string, fn NativeFunc) {
	e.Natives[className+"."+methodName+":"+descriptor] = fn
}

// Execute resolves className.methodName(descriptor) and runs it to
// completion, returning its return value(s) (zero or one frames.Value;
// JVM methods return at most one value, long/double included as a
// single logical Value here even though they occupy two frame slots).
func (e *Engine) Execute(th *thread.Thread, className, methodName, descriptor string, args []frames.Value) ([]frames.Value, error) {
	klass, err := e.Loader.LoadClass(className)
	if err != nil {
		return nil, err
	}
	declaring, method, ok := e.findMethod(klass, methodName, descriptor)
	if !ok {
		return nil, exceptions.NoSuchMethodError(className, methodName, descriptor)
	}
	return e.ExecuteMethod(th, declaring, method, args)
}

// findMethod walks the superclass chain starting at klass looking for
// name:descriptor, the method-resolution order spec.md §4.9 assumes
// (interfaces are not walked here; default-method resolution is out of
// scope for this engine).
func (e *Engine) findMethod(klass *object.Class, name, descriptor string) (*object.Class, *classfile.Method, bool) {
	for current := klass; current != nil; {
		if m, ok := current.FindMethod(name, descriptor); ok {
			return current, m, true
		}
		if current.SuperName == "" {
			break
		}
		next, err := e.Loader.LoadClass(current.SuperName)
		if err != nil {
			return nil, nil, false
		}
		current = next
	}
	return nil, nil, false
}

// ExecuteMethod runs a single, already-resolved method invocation.
func (e *Engine) ExecuteMethod(th *thread.Thread, declaring *object.Class, method *classfile.Method, args []frames.Value) ([]frames.Value, error) {
	name, _ := declaring.ConstantPool.UTF8At(int(method.NameIndex))
	descriptor, _ := declaring.ConstantPool.UTF8At(int(method.DescIndex))

	if method.IsAbstractOrNative() {
		if fn, ok := e.Natives[declaring.Name+"."+name+":"+descriptor]; ok {
			return fn(th, args)
		}
		return nil, exceptions.New(excnames.UnsatisfiedLinkError, declaring.Name+"."+name+descriptor)
	}

	if th.Depth() >= maxCallDepth {
		return nil, exceptions.StackOverflowError()
	}

	frame := frames.NewFrame(declaring.Name, name, descriptor, method.Code.MaxLocals, method.Code.MaxStack)
	slot := 0
	for _, v := range args {
		frame.SetLocal(slot, v)
		slot += v.Category()
	}

	th.PushFrame(frame)
	defer th.PopFrame()

	result, err := e.runFrame(th, frame, declaring, method)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// maxCallDepth bounds recursion so a runaway interpreter loop fails
// with StackOverflowError instead of exhausting the Go goroutine stack.
const maxCallDepth = 2048

// registerStatics seeds the statics table with klass's own static
// fields at their JVM default values (spec.md §4.5), a no-op if this
// class's statics are already registered (e.g. a prior failed
// initialization attempt that still left its Error state recorded).
func (e *Engine) registerStatics(klass *object.Class) {
	if e.Statics.HasClass(klass.Name) {
		return
	}
	for _, name := range klass.StaticFieldNames {
		desc := klass.StaticFieldTypes[name]
		e.Statics.AddStatic(klass.Name, name, &statics.Static{
			Kind:       staticKindFor(desc),
			Value:      defaultStaticValue(desc),
			ClassName:  klass.Name,
			FieldName:  name,
			Descriptor: desc,
		})
	}
}

// ensureInitialized drives JVMS 5.5's <clinit> state machine for
// klass, initializing its superclass first. Mirrors jacobin's
// instantiate.go "recheck: goto recheck" idiom for the case where
// another thread is already running <clinit>: this engine polls
// rather than blocking on a channel, matching that same
// poll-until-state-changes shape.
func (e *Engine) ensureInitialized(th *thread.Thread, klass *object.Class) error {
	if klass.State() == object.Initialized {
		return nil
	}
	if klass.SuperName != "" {
		super, err := e.Loader.LoadClass(klass.SuperName)
		if err != nil {
			return err
		}
		if err := e.ensureInitialized(th, super); err != nil {
			return err
		}
	}

	proceed, reentrant := klass.BeginInit(th.ID())
	if !reentrant && !proceed {
		th.SetStatus(thread.WaitingOnClinit)
		for klass.State() == object.Initializing {
			runtime.Gosched()
		}
		th.SetStatus(thread.Runnable)
		if klass.State() == object.Error {
			return exceptions.New(excnames.NoClassDefFoundError, klass.Name)
		}
		return nil
	}
	if reentrant {
		return nil
	}

	e.registerStatics(klass)

	clinit, ok := klass.FindMethod("<clinit>", "()V")
	if ok {
		if _, err := e.ExecuteMethod(th, klass, clinit, nil); err != nil {
			klass.FinishInit(false)
			return exceptions.ExceptionInInitializerError(exceptions.AsThrowable(err))
		}
	}
	klass.FinishInit(true)
	_ = log.Log(fmt.Sprintf("initialized %s", klass.Name), log.CLASS)
	return nil
}
