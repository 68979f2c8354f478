/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package types holds the handful of JVM type facts that every other
// package needs and none of them owns: field-descriptor parsing,
// category-2 (long/double) detection, and the default value each
// descriptor zero-initializes to (spec.md §3's Class/Object/Array
// layout). It deliberately has no dependencies of its own so that
// classfile, object, frames, and classloader can all import it
// without risk of a cycle.
package types

import "strings"

// Category reports how many local-variable/operand-stack slots a
// descriptor occupies: 2 for long/double, 1 for everything else
// (spec.md §4.8).
func Category(descriptor string) int {
	switch descriptor {
	case "J", "D":
		return 2
	default:
		return 1
	}
}

// IsReference reports whether descriptor names a class, interface, or
// array type rather than a primitive.
func IsReference(descriptor string) bool {
	return strings.HasPrefix(descriptor, "L") || strings.HasPrefix(descriptor, "[")
}

// IsArray reports whether descriptor is an array type.
func IsArray(descriptor string) bool {
	return strings.HasPrefix(descriptor, "[")
}

// ArrayDimensions counts the leading '[' of an array descriptor.
func ArrayDimensions(descriptor string) int {
	n := 0
	for n < len(descriptor) && descriptor[n] == '[' {
		n++
	}
	return n
}

// ElementDescriptor strips one leading '[' from an array descriptor.
// Returns ("", false) if descriptor isn't an array type.
func ElementDescriptor(descriptor string) (string, bool) {
	if !strings.HasPrefix(descriptor, "[") {
		return "", false
	}
	return descriptor[1:], true
}

// ClassNameFromObjectDescriptor strips the leading 'L' and trailing
// ';' from an object descriptor ("Ljava/lang/String;" ->
// "java/lang/String"). Returns ("", false) for anything else.
func ClassNameFromObjectDescriptor(descriptor string) (string, bool) {
	if !strings.HasPrefix(descriptor, "L") || !strings.HasSuffix(descriptor, ";") {
		return "", false
	}
	return descriptor[1 : len(descriptor)-1], true
}

// FieldDescriptors splits a method descriptor's parameter list into
// individual field descriptors, e.g. "(ILjava/lang/String;[B)V" ->
// ["I", "Ljava/lang/String;", "[B"].
func FieldDescriptors(methodDescriptor string) []string {
	start := strings.IndexByte(methodDescriptor, '(')
	end := strings.IndexByte(methodDescriptor, ')')
	if start < 0 || end < 0 || end <= start {
		return nil
	}
	body := methodDescriptor[start+1 : end]

	var out []string
	for i := 0; i < len(body); {
		j := descriptorEnd(body, i)
		out = append(out, body[i:j])
		i = j
	}
	return out
}

// ReturnDescriptor returns the portion of a method descriptor after
// the closing ')'.
func ReturnDescriptor(methodDescriptor string) string {
	end := strings.IndexByte(methodDescriptor, ')')
	if end < 0 {
		return ""
	}
	return methodDescriptor[end+1:]
}

// descriptorEnd returns the index just past one complete field
// descriptor starting at i.
func descriptorEnd(s string, i int) int {
	j := i
	for j < len(s) && s[j] == '[' {
		j++
	}
	if j >= len(s) {
		return j
	}
	if s[j] == 'L' {
		for j < len(s) && s[j] != ';' {
			j++
		}
		return j + 1
	}
	return j + 1
}

// DefaultValueKind reports the JVM default value for descriptor, used
// to zero-initialize fields per spec.md §3.
type DefaultValueKind int

const (
	DefaultInt DefaultValueKind = iota
	DefaultLong
	DefaultFloat
	DefaultDouble
	DefaultBoolean
	DefaultReference
)

// DefaultFor classifies a field descriptor's default-value kind.
func DefaultFor(descriptor string) DefaultValueKind {
	switch {
	case descriptor == "J":
		return DefaultLong
	case descriptor == "F":
		return DefaultFloat
	case descriptor == "D":
		return DefaultDouble
	case descriptor == "Z":
		return DefaultBoolean
	case IsReference(descriptor):
		return DefaultReference
	default:
		return DefaultInt
	}
}
