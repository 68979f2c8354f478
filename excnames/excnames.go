/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023-6 by the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

// Package excnames is the table of fully-qualified Java exception and
// error class names this engine is able to throw. It exists so that
// the interpreter, verifier, and class loader can all refer to the
// same literal strings without typos scattering across the codebase.
package excnames

// Runtime exceptions (spec.md §7 "Runtime" row).
const (
	NullPointerException           = "java/lang/NullPointerException"
	ArrayIndexOutOfBoundsException  = "java/lang/ArrayIndexOutOfBoundsException"
	NegativeArraySizeException     = "java/lang/NegativeArraySizeException"
	ArithmeticException             = "java/lang/ArithmeticException"
	ClassCastException              = "java/lang/ClassCastException"
	IllegalMonitorStateException   = "java/lang/IllegalMonitorStateException"
	InterruptedException            = "java/lang/InterruptedException"
	IllegalArgumentException        = "java/lang/IllegalArgumentException"
	IllegalStateException           = "java/lang/IllegalStateException"
	ArrayStoreException             = "java/lang/ArrayStoreException"
	UnsupportedOperationException   = "java/lang/UnsupportedOperationException"
	CloneNotSupportedException      = "java/lang/CloneNotSupportedException"
)

// Linkage errors (spec.md §7 "Linkage" row).
const (
	NoClassDefFoundError    = "java/lang/NoClassDefFoundError"
	NoSuchMethodError       = "java/lang/NoSuchMethodError"
	NoSuchFieldError        = "java/lang/NoSuchFieldError"
	IllegalAccessError      = "java/lang/IllegalAccessError"
	IncompatibleClassChangeError = "java/lang/IncompatibleClassChangeError"
	AbstractMethodError     = "java/lang/AbstractMethodError"
	UnsatisfiedLinkError    = "java/lang/UnsatisfiedLinkError"
)

// Class-format / verify errors (spec.md §7 rows 1-2).
const (
	ClassFormatError        = "java/lang/ClassFormatError"
	UnsupportedClassVersionError = "java/lang/UnsupportedClassVersionError"
	VerifyError             = "java/lang/VerifyError"
)

// Initialization errors (spec.md §7 "Initialization" row).
const ExceptionInInitializerError = "java/lang/ExceptionInInitializerError"

// Resource errors (spec.md §7 "Resource" row).
const (
	OutOfMemoryError   = "java/lang/OutOfMemoryError"
	StackOverflowError = "java/lang/StackOverflowError"
)

// Reflective-access error used by the module system's "deep access"
// checks (spec.md §4.4).
const InaccessibleObjectException = "java/lang/reflect/InaccessibleObjectException"

// Throwable is the root of every exception/error name above; used when
// an exception-table entry's catch-class index is 0 ("catch any").
const Throwable = "java/lang/Throwable"
