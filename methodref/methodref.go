/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package methodref caches invoke* resolution results so that JPMS
// readability/exports checks and Java access checks run once per
// constant-pool method reference, not once per invocation (spec.md
// §4.6). Grounded on ristretto_vm's method_ref_cache.rs, translated
// from its DashMap-based design to the mutex-guarded map convention
// package verifier already uses for its own result cache.
package methodref

import (
	"fmt"
	"sync"

	"github.com/theseus-rs/ristretto-sub006/excnames"
	"github.com/theseus-rs/ristretto-sub006/object"
	"github.com/theseus-rs/ristretto-sub006/types"
)

// Key identifies one method reference in one caller class's constant
// pool.
type Key struct {
	CallerClass string
	CPIndex     uint16
}

// InvokeKind is the invoke* instruction family that produced a Key.
type InvokeKind int

const (
	Static InvokeKind = iota
	Special
	Virtual
	Interface
)

// Resolved is a successfully resolved method reference: everything the
// interpreter needs to perform the call without re-checking access.
type Resolved struct {
	DeclaringClass *object.Class
	MethodName     string
	MethodDescriptor string
	InvokeKind     InvokeKind

	// IsPolymorphic marks MethodHandle.invoke/invokeExact/VarHandle
	// accessor methods, whose param count/return presence come from the
	// call-site descriptor rather than the method's own descriptor
	// (spec.md §4.6 point 5).
	IsPolymorphic bool
	ParamCount    int
	HasReturnType bool
}

// polymorphicMethods mirrors ristretto_classloader's POLYMORPHIC_METHODS
// table: (class, method name) pairs whose signature is determined at
// each call site rather than fixed at declaration.
var polymorphicMethods = map[[2]string]bool{
	{"java/lang/invoke/MethodHandle", "invoke"}:           true,
	{"java/lang/invoke/MethodHandle", "invokeExact"}:       true,
	{"java/lang/invoke/MethodHandle", "invokeBasic"}:       true,
	{"java/lang/invoke/VarHandle", "get"}:                  true,
	{"java/lang/invoke/VarHandle", "set"}:                  true,
	{"java/lang/invoke/VarHandle", "compareAndSet"}:        true,
	{"java/lang/invoke/VarHandle", "getAndSet"}:            true,
}

// IsPolymorphic reports whether className.methodName is a
// signature-polymorphic method.
func IsPolymorphic(className, methodName string) bool {
	return polymorphicMethods[[2]string{className, methodName}]
}

// NewResolved builds a Resolved entry, computing IsPolymorphic/
// ParamCount/HasReturnType once up front so steady-state invocation
// never recomputes them.
func NewResolved(declaringClass *object.Class, methodName, declaredDescriptor, callSiteDescriptor string, kind InvokeKind) *Resolved {
	poly := IsPolymorphic(declaringClass.Name, methodName)

	descriptor := declaredDescriptor
	if poly {
		descriptor = callSiteDescriptor
	}
	params := types.FieldDescriptors(descriptor)
	ret := types.ReturnDescriptor(descriptor)

	return &Resolved{
		DeclaringClass:    declaringClass,
		MethodName:        methodName,
		MethodDescriptor:  descriptor,
		InvokeKind:        kind,
		IsPolymorphic:     poly,
		ParamCount:        len(params),
		HasReturnType:     ret != "" && ret != "V",
	}
}

// ErrorKind classifies why resolution failed, mapped to the spec.md
// §7 Go error each kind represents.
type ErrorKind int

const (
	ModuleNotReadable ErrorKind = iota
	PackageNotExported
	MemberNotAccessible
	NoSuchMethod
	IncompatibleClassChange
)

// ResolutionError is a cached resolution failure; Error() produces the
// message the eventual Java exception carries.
type ResolutionError struct {
	Kind    ErrorKind
	Message string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: %s", e.exceptionName(), e.Message)
}

func (e *ResolutionError) exceptionName() string {
	switch e.Kind {
	case ModuleNotReadable, PackageNotExported, MemberNotAccessible:
		return excnames.IllegalAccessError
	case NoSuchMethod:
		return excnames.NoSuchMethodError
	case IncompatibleClassChange:
		return excnames.IncompatibleClassChangeError
	default:
		return excnames.NoSuchMethodError
	}
}

// state is one Key's resolution status: resolving (recursion guard),
// resolved, or permanently failed.
type state struct {
	resolving bool
	resolved  *Resolved
	failed    *ResolutionError
}

// Cache is the thread-safe method-reference resolution cache.
type Cache struct {
	mu     sync.Mutex
	states map[Key]*state
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{states: make(map[Key]*state)}
}

// Get returns a previously-cached outcome. The second return is false
// if the key has never been seen, or is still mid-resolution (the
// caller should treat that the same as a miss and either wait or
// detect recursion via MarkResolving).
func (c *Cache) Get(key Key) (*Resolved, error, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.states[key]
	if !ok || s.resolving {
		return nil, nil, false
	}
	if s.failed != nil {
		return nil, s.failed, true
	}
	return s.resolved, nil, true
}

// MarkResolving records that key is now being resolved, for recursion
// detection. Returns false if key is already being resolved by
// (recursively) the same call chain.
func (c *Cache) MarkResolving(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.states[key]; ok && s.resolving {
		return false
	}
	c.states[key] = &state{resolving: true}
	return true
}

// StoreResolved records a successful resolution.
func (c *Cache) StoreResolved(key Key, resolved *Resolved) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[key] = &state{resolved: resolved}
}

// StoreFailed records a permanent resolution failure.
func (c *Cache) StoreFailed(key Key, err *ResolutionError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[key] = &state{failed: err}
}

// Remove drops key's cached state entirely, used when a failed
// resolution should be retried (e.g. after --add-reads changes the
// module graph).
func (c *Cache) Remove(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, key)
}

// Len reports the number of cached keys (resolving, resolved, or failed).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.states)
}
