/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"strings"
	"unicode"

	"github.com/theseus-rs/ristretto-sub006/stringpool"
)

// StringClassName is the class this engine uses to represent
// java/lang/String instances internally: a byte array under the
// "value" field, matching the JDK's own Latin1/UTF16 compact-string
// layout closely enough for this engine's purposes.
const StringClassName = "java/lang/String"

// NewStringObject creates an empty java/lang/String instance backed
// by an empty byte array.
func NewStringObject() *Object {
	obj := &Object{KlassName: StringClassName, FieldTable: make(FieldTable)}
	obj.FieldTable["value"] = Field{Ftype: "[B", Fvalue: []byte{}}
	return obj
}

// StringObjectFromGoString creates a java/lang/String instance whose
// "value" field holds the UTF-8 bytes of s.
func StringObjectFromGoString(s string) *Object {
	obj := NewStringObject()
	obj.FieldTable["value"] = Field{Ftype: "[B", Fvalue: []byte(s)}
	return obj
}

// GoStringFromStringObject extracts the Go string backing a
// java/lang/String instance's "value" field, or "" if obj isn't one.
func GoStringFromStringObject(obj *Object) string {
	if obj == nil || obj.KlassName != StringClassName {
		return ""
	}
	f, ok := obj.FieldTable["value"]
	if !ok {
		return ""
	}
	b, ok := f.Fvalue.([]byte)
	if !ok {
		return ""
	}
	return string(b)
}

// StringObjectFromPoolIndex rebuilds a java/lang/String instance from
// a previously-interned stringpool index. The interpreter's ldc of a
// CONSTANT_String builds its string with StringObjectFromGoString.
func StringObjectFromPoolIndex(pool *stringpool.Pool, idx uint32) *Object {
	return StringObjectFromGoString(pool.GetStringByIndex(idx))
}

// ByteArrayEquals compares two byte slices for exact equality, nil-safe.
func ByteArrayEquals(a, b []byte) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
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

// ByteArrayEqualsIgnoreCase compares two byte slices as ASCII text,
// case-insensitively.
func ByteArrayEqualsIgnoreCase(a, b []byte) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if unicode.ToLower(rune(a[i])) != unicode.ToLower(rune(b[i])) {
			return false
		}
	}
	return true
}

// UpperCaseGoString mirrors java/lang/String.toUpperCase for the
// ASCII fast path gfunction shims rely on.
func UpperCaseGoString(s string) string {
	return strings.ToUpper(s)
}
