/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package exceptions builds the Throwable objects the interpreter
// raises for JVM error conditions (spec.md §7's exception table) and
// carries them back up through Go's own error-return convention,
// grounded on daimatz-gojvm's JavaException wrapper (pkg/vm/
// exception.go) generalized with excnames' full exception-name table
// and a captured stack trace.
package exceptions

import (
	"fmt"

	"github.com/theseus-rs/ristretto-sub006/excnames"
	"github.com/theseus-rs/ristretto-sub006/object"
)

// Throwable wraps a java/lang/Throwable instance being propagated as
// a Go error, so the interpreter's call chain can use plain `return
// nil, err` unwinding instead of a side channel.
type Throwable struct {
	ClassName  string
	Message    string
	StackTrace []string
	Cause      *Throwable
	Obj        *object.Object
}

func (t *Throwable) Error() string {
	if t.Message == "" {
		return t.ClassName
	}
	return fmt.Sprintf("%s: %s", t.ClassName, t.Message)
}

// New builds a Throwable of className with the given detail message,
// synthesizing a minimal *object.Object carrying the standard
// java/lang/Throwable fields (spec.md §6 gfunction shims read these
// back out via GetField).
func New(className, message string) *Throwable {
	obj := object.MakeEmptyObject()
	obj.KlassName = className
	obj.SetField("detailMessage", "Ljava/lang/String;", object.StringObjectFromGoString(message))
	obj.SetField("cause", "Ljava/lang/Throwable;", (*object.Object)(nil))
	return &Throwable{ClassName: className, Message: message, Obj: obj}
}

// Newf is New with fmt.Sprintf-style message formatting.
func Newf(className, format string, args ...any) *Throwable {
	return New(className, fmt.Sprintf(format, args...))
}

// WithStackTrace attaches a captured call-stack snapshot (typically
// thread.Thread.StackTrace()) to t, returning t for chaining at the
// athrow site.
func (t *Throwable) WithStackTrace(trace []string) *Throwable {
	t.StackTrace = trace
	return t
}

// WithCause chains a causing Throwable, mirroring
// Throwable.initCause's single-assignment contract (cause may only be
// set once, not enforced here since this is the construction path,
// not the Java-visible API).
func (t *Throwable) WithCause(cause *Throwable) *Throwable {
	t.Cause = cause
	if cause != nil {
		t.Obj.SetField("cause", "Ljava/lang/Throwable;", cause.Obj)
	}
	return t
}

// NullPointerException, ArithmeticException, etc. are convenience
// constructors for the exceptions the interpreter itself raises
// (spec.md §7's "Runtime" row), saving every opcode handler from
// spelling out exceptions.New(excnames.NullPointerException, ...).

func NullPointerException(detail string) *Throwable {
	return New(excnames.NullPointerException, detail)
}

func ArrayIndexOutOfBounds(index, length int) *Throwable {
	return Newf(excnames.ArrayIndexOutOfBoundsException, "Index %d out of bounds for length %d", index, length)
}

func NegativeArraySize(length int32) *Throwable {
	return Newf(excnames.NegativeArraySizeException, "%d", length)
}

func ArithmeticException(detail string) *Throwable {
	return New(excnames.ArithmeticException, detail)
}

func ClassCastException(from, to string) *Throwable {
	return Newf(excnames.ClassCastException, "class %s cannot be cast to class %s", from, to)
}

func StackOverflowError() *Throwable {
	return New(excnames.StackOverflowError, "")
}

func NoSuchMethodError(className, name, descriptor string) *Throwable {
	return Newf(excnames.NoSuchMethodError, "%s.%s%s", className, name, descriptor)
}

func AbstractMethodError(className, name, descriptor string) *Throwable {
	return Newf(excnames.AbstractMethodError, "%s.%s%s", className, name, descriptor)
}

func IncompatibleClassChangeError(detail string) *Throwable {
	return New(excnames.IncompatibleClassChangeError, detail)
}

// ExceptionInInitializerError wraps a <clinit> failure per JVMS
// 5.5, keeping the original throwable as Cause.
func ExceptionInInitializerError(cause *Throwable) *Throwable {
	return New(excnames.ExceptionInInitializerError, "").WithCause(cause)
}

// AsThrowable recovers a *Throwable from an arbitrary error, wrapping
// any non-Throwable Go error as an opaque java/lang/Throwable so a Go
// I/O or runtime error surfaced through a gfunction shim still
// propagates as something catchable from Java bytecode.
func AsThrowable(err error) *Throwable {
	if err == nil {
		return nil
	}
	if t, ok := err.(*Throwable); ok {
		return t
	}
	return New(excnames.Throwable, err.Error())
}
