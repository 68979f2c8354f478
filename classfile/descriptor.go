/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"fmt"
	"sync"
)

// FieldType is one element of a parsed descriptor: a primitive kind,
// a reference (class name), or an array (element + dimensions).
type FieldType struct {
	Kind      FieldKind
	ClassName string // valid when Kind == FieldObject
	ArrayDims int    // not set by the parser; array depth is the Element chain
	Element   *FieldType // valid when Kind == FieldArray
}

type FieldKind int

const (
	FieldByte FieldKind = iota
	FieldChar
	FieldDouble
	FieldFloat
	FieldInt
	FieldLong
	FieldShort
	FieldBoolean
	FieldVoid
	FieldObject
	FieldArray
)

// IsCategory2 reports whether this field type occupies two local/
// operand slots at runtime (spec.md §3 "Value").
func (f FieldType) IsCategory2() bool {
	return f.Kind == FieldLong || f.Kind == FieldDouble
}

// Descriptor returns the JVM field-descriptor string for f, e.g. "I",
// "Ljava/lang/String;", "[[I".
func (f FieldType) Descriptor() string {
	switch f.Kind {
	case FieldByte:
		return "B"
	case FieldChar:
		return "C"
	case FieldDouble:
		return "D"
	case FieldFloat:
		return "F"
	case FieldInt:
		return "I"
	case FieldLong:
		return "J"
	case FieldShort:
		return "S"
	case FieldBoolean:
		return "Z"
	case FieldVoid:
		return "V"
	case FieldObject:
		return "L" + f.ClassName + ";"
	case FieldArray:
		return "[" + f.Element.Descriptor()
	default:
		return "?"
	}
}

// MethodDescriptor is a parsed method signature: ordered parameter
// types and an optional return type (spec.md §3 "Method/Field").
type MethodDescriptor struct {
	Parameters []FieldType
	ReturnType FieldType // Kind == FieldVoid when the method returns nothing
}

var descriptorCache sync.Map // string -> *MethodDescriptor, per spec.md §4.3 "Caching"

// ParseMethodDescriptor parses a method descriptor such as
// "(II)V" or "(Ljava/lang/String;I)Ljava/lang/Object;", caching the
// result by the raw descriptor string (spec.md §4.3: "a parsed-
// descriptor cache deduplicates descriptor parsing").
func ParseMethodDescriptor(desc string) (*MethodDescriptor, error) {
	if cached, ok := descriptorCache.Load(desc); ok {
		return cached.(*MethodDescriptor), nil
	}
	if len(desc) == 0 || desc[0] != '(' {
		return nil, fmt.Errorf("classfile: malformed method descriptor %q", desc)
	}
	pos := 1
	var params []FieldType
	for pos < len(desc) && desc[pos] != ')' {
		ft, next, err := parseFieldType(desc, pos)
		if err != nil {
			return nil, err
		}
		params = append(params, ft)
		pos = next
	}
	if pos >= len(desc) {
		return nil, fmt.Errorf("classfile: unterminated method descriptor %q", desc)
	}
	pos++ // skip ')'
	ret, next, err := parseFieldType(desc, pos)
	if err != nil {
		return nil, err
	}
	if next != len(desc) {
		return nil, fmt.Errorf("classfile: trailing data in method descriptor %q", desc)
	}
	md := &MethodDescriptor{Parameters: params, ReturnType: ret}
	descriptorCache.Store(desc, md)
	return md, nil
}

// ParameterSlots returns the number of locals/operand slots the
// parameter list occupies, counting category-2 types twice (spec.md
// §4.3 "max_locals must be at least enough to hold this (non-static)
// plus parameter slots (Long/Double counted as 2)").
func (m *MethodDescriptor) ParameterSlots() int {
	n := 0
	for _, p := range m.Parameters {
		n++
		if p.IsCategory2() {
			n++
		}
	}
	return n
}

func parseFieldType(desc string, pos int) (FieldType, int, error) {
	if pos >= len(desc) {
		return FieldType{}, pos, fmt.Errorf("classfile: descriptor ended unexpectedly: %q", desc)
	}
	switch desc[pos] {
	case 'B':
		return FieldType{Kind: FieldByte}, pos + 1, nil
	case 'C':
		return FieldType{Kind: FieldChar}, pos + 1, nil
	case 'D':
		return FieldType{Kind: FieldDouble}, pos + 1, nil
	case 'F':
		return FieldType{Kind: FieldFloat}, pos + 1, nil
	case 'I':
		return FieldType{Kind: FieldInt}, pos + 1, nil
	case 'J':
		return FieldType{Kind: FieldLong}, pos + 1, nil
	case 'S':
		return FieldType{Kind: FieldShort}, pos + 1, nil
	case 'Z':
		return FieldType{Kind: FieldBoolean}, pos + 1, nil
	case 'V':
		return FieldType{Kind: FieldVoid}, pos + 1, nil
	case 'L':
		end := pos + 1
		for end < len(desc) && desc[end] != ';' {
			end++
		}
		if end >= len(desc) {
			return FieldType{}, pos, fmt.Errorf("classfile: unterminated class descriptor in %q", desc)
		}
		return FieldType{Kind: FieldObject, ClassName: desc[pos+1 : end]}, end + 1, nil
	case '[':
		elem, next, err := parseFieldType(desc, pos+1)
		if err != nil {
			return FieldType{}, pos, err
		}
		return FieldType{Kind: FieldArray, Element: &elem}, next, nil
	default:
		return FieldType{}, pos, fmt.Errorf("classfile: unrecognized descriptor character %q in %q", desc[pos], desc)
	}
}

// ParseFieldDescriptor parses a single field descriptor, e.g. "I" or
// "[Ljava/lang/String;".
func ParseFieldDescriptor(desc string) (FieldType, error) {
	ft, next, err := parseFieldType(desc, 0)
	if err != nil {
		return FieldType{}, err
	}
	if next != len(desc) {
		return FieldType{}, fmt.Errorf("classfile: trailing data in field descriptor %q", desc)
	}
	return ft, nil
}
