/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024-6 by the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package classfile

// TargetType decodes the 1-byte target_type discriminant of a
// type_annotation structure (JVMS §4.7.20), spec.md §4.1's "Target-type
// attribute". Grounded on
// _examples/original_source/ristretto_classfile/src/attributes/target_type.rs,
// which models each target type as a distinct case; the Go rendering
// below is a byte-valued enum with one constant per target_type code,
// and Kind maps each code to the target_info layout it uses.
type TargetType byte

const (
	TargetTypeClassTypeParameter              TargetType = 0x00
	TargetTypeMethodTypeParameter              TargetType = 0x01
	TargetTypeClassExtends                     TargetType = 0x10
	TargetTypeClassTypeParameterBound          TargetType = 0x11
	TargetTypeMethodTypeParameterBound         TargetType = 0x12
	TargetTypeField                            TargetType = 0x13
	TargetTypeMethodReturnType                 TargetType = 0x14
	TargetTypeMethodReceiverType                TargetType = 0x15
	TargetTypeMethodFormalParameter            TargetType = 0x16
	TargetTypeThrows                           TargetType = 0x17
	TargetTypeLocalVariable                    TargetType = 0x40
	TargetTypeResourceVariable                 TargetType = 0x41
	TargetTypeExceptionParameter                TargetType = 0x42
	TargetTypeInstanceof                       TargetType = 0x43
	TargetTypeNew                              TargetType = 0x44
	TargetTypeConstructorReference             TargetType = 0x45
	TargetTypeMethodReference                  TargetType = 0x46
	TargetTypeCast                             TargetType = 0x47
	TargetTypeConstructorInvocationTypeArgument TargetType = 0x48
	TargetTypeMethodInvocationTypeArgument      TargetType = 0x49
	TargetTypeConstructorReferenceTypeArgument  TargetType = 0x4A
	TargetTypeMethodReferenceTypeArgument       TargetType = 0x4B
)

// validTargetTypes is the closed set of codes the JVM specification
// defines; anything else is fatal (spec.md §4.1: "unknown codes are
// fatal").
var validTargetTypes = map[TargetType]bool{
	TargetTypeClassTypeParameter: true, TargetTypeMethodTypeParameter: true,
	TargetTypeClassExtends: true, TargetTypeClassTypeParameterBound: true,
	TargetTypeMethodTypeParameterBound: true, TargetTypeField: true,
	TargetTypeMethodReturnType: true, TargetTypeMethodReceiverType: true,
	TargetTypeMethodFormalParameter: true, TargetTypeThrows: true,
	TargetTypeLocalVariable: true, TargetTypeResourceVariable: true,
	TargetTypeExceptionParameter: true, TargetTypeInstanceof: true,
	TargetTypeNew: true, TargetTypeConstructorReference: true,
	TargetTypeMethodReference: true, TargetTypeCast: true,
	TargetTypeConstructorInvocationTypeArgument: true,
	TargetTypeMethodInvocationTypeArgument:      true,
	TargetTypeConstructorReferenceTypeArgument:  true,
	TargetTypeMethodReferenceTypeArgument:       true,
}

// ParseTargetType validates code against the known set and returns the
// corresponding TargetType, or InvalidTargetTypeCode if code isn't one
// of the JVM specification's defined values.
func ParseTargetType(code byte) (TargetType, error) {
	tt := TargetType(code)
	if !validTargetTypes[tt] {
		return 0, &InvalidTargetTypeCode{Code: code}
	}
	return tt, nil
}

// TargetInfoKind identifies which of the type_annotation structure's
// ten target_info layouts applies to a given TargetType, per JVMS
// §4.7.20.1.
type TargetInfoKind int

const (
	TargetInfoTypeParameter TargetInfoKind = iota
	TargetInfoSupertype
	TargetInfoTypeParameterBound
	TargetInfoEmpty
	TargetInfoFormalParameter
	TargetInfoThrows
	TargetInfoLocalVar
	TargetInfoCatch
	TargetInfoOffset
	TargetInfoTypeArgument
)

// Kind maps a TargetType to the target_info layout it uses.
func (tt TargetType) Kind() TargetInfoKind {
	switch tt {
	case TargetTypeClassTypeParameter, TargetTypeMethodTypeParameter:
		return TargetInfoTypeParameter
	case TargetTypeClassExtends:
		return TargetInfoSupertype
	case TargetTypeClassTypeParameterBound, TargetTypeMethodTypeParameterBound:
		return TargetInfoTypeParameterBound
	case TargetTypeField, TargetTypeMethodReturnType, TargetTypeMethodReceiverType:
		return TargetInfoEmpty
	case TargetTypeMethodFormalParameter:
		return TargetInfoFormalParameter
	case TargetTypeThrows:
		return TargetInfoThrows
	case TargetTypeLocalVariable, TargetTypeResourceVariable:
		return TargetInfoLocalVar
	case TargetTypeExceptionParameter:
		return TargetInfoCatch
	case TargetTypeInstanceof, TargetTypeNew, TargetTypeConstructorReference, TargetTypeMethodReference:
		return TargetInfoOffset
	default:
		return TargetInfoTypeArgument
	}
}
