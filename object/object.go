/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package object is the runtime representation of loaded classes and
// the instances/arrays created from them (spec.md §3 "Class (runtime)"
// and "Object (runtime)"). A Class is produced once by the class
// loader and shared by every instance; an Object carries only a back
// pointer to its Class plus its own field values, following jacobin's
// FieldTable convention (map keyed by field name) rather than a flat
// slot array, since a class's field layout isn't needed anywhere else
// in this engine.
package object

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/theseus-rs/ristretto-sub006/classfile"
	"github.com/theseus-rs/ristretto-sub006/gc"
	"github.com/theseus-rs/ristretto-sub006/types"
)

// InitState is a Class's position in the <clinit> state machine of
// spec.md §4.5: Uninitialized -> Initializing -> Initialized, or
// Initializing -> Error on a failed class initializer (which then
// permanently raises NoClassDefFoundError on every later use, per
// JVMS 5.5).
type InitState int32

const (
	Uninitialized InitState = iota
	Initializing
	Initialized
	Error
)

func (s InitState) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Initializing:
		return "Initializing"
	case Initialized:
		return "Initialized"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// Class is the runtime image of a loaded class or interface: its
// identity, its place in the hierarchy, and the mutable state the
// class loader and interpreter both need (init state, static-field
// metadata lives in package statics, keyed by this Class's Name).
type Class struct {
	Name       string // fully-qualified, slash-separated ("java/lang/String")
	SuperName  string // "" only for java/lang/Object
	Interfaces []string
	Loader     string // classloader name that defined this class ("bootstrap", "app", ...)
	Module     string // owning module name, "" for the unnamed module

	AccessFlags  uint16
	IsInterface  bool
	FieldNames   []string          // declared instance field names, in declaration order
	FieldTypes   map[string]string // field name -> descriptor

	// StaticFieldNames/StaticFieldTypes record this class's own static
	// fields so package jvm can seed package statics with their default
	// values before <clinit> runs (spec.md §4.5), without re-parsing the
	// class file a second time.
	StaticFieldNames []string
	StaticFieldTypes map[string]string

	// ConstantPool and Methods give the interpreter what it needs to
	// run this class's bytecode without re-parsing the class file on
	// every invocation; keyed "name:descriptor" since overloads share
	// a name. Both are nil for synthetic classes that never run code
	// (array classes, primitive wrapper placeholders).
	ConstantPool *classfile.ConstantPool
	Methods      map[string]*classfile.Method

	state    atomic.Int32
	initOnce sync.Mutex
	initTID  int64 // thread ID currently running <clinit>, for reentrance detection
}

// FindMethod looks up a method declared directly on this class by
// name and descriptor; callers walk SuperName themselves to search
// the inheritance chain (spec.md §4.9's method resolution order).
func (c *Class) FindMethod(name, descriptor string) (*classfile.Method, bool) {
	m, ok := c.Methods[name+":"+descriptor]
	return m, ok
}

// NewClass creates a Class in the Uninitialized state.
func NewClass(name, superName string, interfaces []string) *Class {
	c := &Class{
		Name:             name,
		SuperName:        superName,
		Interfaces:       interfaces,
		FieldTypes:       make(map[string]string),
		StaticFieldTypes: make(map[string]string),
	}
	c.state.Store(int32(Uninitialized))
	c.initTID = -1
	return c
}

func (c *Class) State() InitState { return InitState(c.state.Load()) }

// BeginInit transitions Uninitialized -> Initializing for the given
// thread ID. Returns false (and leaves state untouched) if another
// thread already owns initialization and the caller must block, or if
// the same thread re-enters its own <clinit> (the reentrant case,
// which must proceed without re-running <clinit>).
func (c *Class) BeginInit(threadID int64) (proceed, alreadyInitializing bool) {
	c.initOnce.Lock()
	defer c.initOnce.Unlock()

	switch InitState(c.state.Load()) {
	case Initialized:
		return false, false
	case Initializing:
		return false, c.initTID == threadID
	case Error:
		return false, false
	default:
		c.initTID = threadID
		c.state.Store(int32(Initializing))
		return true, false
	}
}

// FinishInit transitions Initializing -> Initialized (ok) or -> Error.
func (c *Class) FinishInit(ok bool) {
	c.initOnce.Lock()
	defer c.initOnce.Unlock()
	if ok {
		c.state.Store(int32(Initialized))
	} else {
		c.state.Store(int32(Error))
	}
}

// Field is one instance (or static) field's runtime value, tagged
// with its descriptor so untyped `any` storage stays self-describing
// for gfunction shims and the debugger alike.
type Field struct {
	Ftype  string // field descriptor, e.g. "I", "Ljava/lang/String;"
	Fvalue any
}

// FieldTable is an object's (or, via statics.Table, a class's) named
// field storage.
type FieldTable map[string]Field

// Object is a single heap instance of a Class.
type Object struct {
	Klass      *Class
	KlassName  string
	FieldTable FieldTable

	// MarkWord is not read or written by package gc, which keeps each
	// object's mark bit in its own registry entry.
	MarkWord uint32
}

// MakeEmptyObject creates an Object with no Klass/fields attached,
// used by gfunction shims that synthesize throwables or wrapper
// objects outside the normal `new`+<init> path.
func MakeEmptyObject() *Object {
	return &Object{FieldTable: make(FieldTable)}
}

// NewObject creates an Object of klass, zero-initializing every
// declared instance field per spec.md §3's default-value rule.
func NewObject(klass *Class) *Object {
	obj := &Object{
		Klass:      klass,
		KlassName:  klass.Name,
		FieldTable: make(FieldTable, len(klass.FieldNames)),
	}
	for _, name := range klass.FieldNames {
		desc := klass.FieldTypes[name]
		obj.FieldTable[name] = Field{Ftype: desc, Fvalue: defaultValue(desc)}
	}
	return obj
}

func defaultValue(descriptor string) any {
	switch types.DefaultFor(descriptor) {
	case types.DefaultLong:
		return int64(0)
	case types.DefaultFloat:
		return float32(0)
	case types.DefaultDouble:
		return float64(0)
	case types.DefaultBoolean:
		return false
	case types.DefaultReference:
		return (*Object)(nil)
	default:
		return int32(0)
	}
}

// GetField returns the named field's value and whether it exists.
func (o *Object) GetField(name string) (Field, bool) {
	f, ok := o.FieldTable[name]
	return f, ok
}

// SetField overwrites the named field's value, creating the entry if
// absent (used when synthesizing objects outside normal layout, e.g.
// exceptions.NewThrowable).
func (o *Object) SetField(name, descriptor string, value any) {
	o.FieldTable[name] = Field{Ftype: descriptor, Fvalue: value}
}

func (o *Object) String() string {
	return fmt.Sprintf("%s@%p", o.KlassName, o)
}

// References reports every reference-typed field's live object, so
// package gc can trace the object graph from a root set (spec.md
// §4.7). Primitive fields hold no outgoing references.
func (o *Object) References() []gc.Traceable {
	var refs []gc.Traceable
	for _, f := range o.FieldTable {
		if ref, ok := f.Fvalue.(*Object); ok && ref != nil {
			refs = append(refs, ref)
		}
	}
	return refs
}

// Array is a JVM array instance: a single contiguous Go slice tagged
// with its element descriptor, per spec.md §3's array shape. Arrays of
// object-reference type store *Object elements, arrays of array type
// store *Array elements (multianewarray's nested dimensions), and
// primitive arrays store the Go-native numeric type directly (no
// boxing), mirroring jacobin's javaByteArray convention of typed
// slices rather than []any.
type Array struct {
	ElementType string // element descriptor: "I", "Ljava/lang/String;", "[I", ...
	Elements    any    // a Go slice: []int32, []int64, []float32, []float64, []int8, []bool, []*Object, []*Array
}

// NewArray allocates a zero-initialized array of n elements of
// elementType.
func NewArray(elementType string, n int) (*Array, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative array length %d", n)
	}
	var elements any
	switch {
	case types.IsArray(elementType):
		elements = make([]*Array, n)
	case types.DefaultFor(elementType) == types.DefaultLong:
		elements = make([]int64, n)
	case types.DefaultFor(elementType) == types.DefaultFloat:
		elements = make([]float32, n)
	case types.DefaultFor(elementType) == types.DefaultDouble:
		elements = make([]float64, n)
	case types.DefaultFor(elementType) == types.DefaultBoolean:
		elements = make([]bool, n)
	case types.DefaultFor(elementType) == types.DefaultReference:
		elements = make([]*Object, n)
	case elementType == "B":
		elements = make([]int8, n)
	default:
		elements = make([]int32, n)
	}
	return &Array{ElementType: elementType, Elements: elements}, nil
}

// References reports the live element objects of a reference- or
// array-typed array, for package gc's graph trace; primitive-element
// arrays have no outgoing references.
func (a *Array) References() []gc.Traceable {
	switch elems := a.Elements.(type) {
	case []*Object:
		refs := make([]gc.Traceable, 0, len(elems))
		for _, e := range elems {
			if e != nil {
				refs = append(refs, e)
			}
		}
		return refs
	case []*Array:
		refs := make([]gc.Traceable, 0, len(elems))
		for _, e := range elems {
			if e != nil {
				refs = append(refs, e)
			}
		}
		return refs
	default:
		return nil
	}
}

// Len returns the array's element count.
func (a *Array) Len() int {
	switch e := a.Elements.(type) {
	case []int32:
		return len(e)
	case []int64:
		return len(e)
	case []float32:
		return len(e)
	case []float64:
		return len(e)
	case []int8:
		return len(e)
	case []bool:
		return len(e)
	case []*Object:
		return len(e)
	case []*Array:
		return len(e)
	default:
		return 0
	}
}
