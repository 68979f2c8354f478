/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import "fmt"

// parseAttributes reads an attributes_count-prefixed list of generic
// attribute_info structures, dispatching to a concrete decoder by
// name where this engine understands the attribute and otherwise
// preserving the raw bytes (spec.md §3 "unknown (preserve bytes)").
// owningMethod is non-nil only when parsing a method's attributes, so
// Code can build the implicit first stack-map frame from the method's
// descriptor and staticness.
func parseAttributes(r *reader, cp *ConstantPool, owningMethod *Method) ([]Attribute, error) {
	count, err := r.u2("attributes_count")
	if err != nil {
		return nil, err
	}
	attrs := make([]Attribute, 0, count)
	for i := 0; i < int(count); i++ {
		nameIdx, err := r.u2("attribute_name_index")
		if err != nil {
			return nil, err
		}
		name, err := cp.UTF8At(int(nameIdx))
		if err != nil {
			return nil, err
		}
		length, err := r.u4("attribute_length")
		if err != nil {
			return nil, err
		}
		raw, err := r.bytes(int(length), "attribute_info.info")
		if err != nil {
			return nil, err
		}

		attr, err := parseOneAttribute(name, raw, cp, owningMethod)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func parseOneAttribute(name string, raw []byte, cp *ConstantPool, owningMethod *Method) (Attribute, error) {
	sub := newReader(raw)
	switch name {
	case "Code":
		return parseCodeAttribute(sub, cp, owningMethod)
	case "StackMapTable":
		initial, err := implicitInitialLocals(cp, owningMethod)
		if err != nil {
			return nil, err
		}
		return parseStackMapTable(sub, initial)
	case "LineNumberTable":
		return parseLineNumberTable(sub)
	case "LocalVariableTable", "LocalVariableTypeTable":
		return parseLocalVariableTable(sub)
	case "Exceptions":
		return parseExceptionsAttribute(sub)
	case "InnerClasses":
		return parseInnerClasses(sub)
	case "SourceFile":
		idx, err := sub.u2("SourceFile.sourcefile_index")
		if err != nil {
			return nil, err
		}
		return &SourceFileAttribute{SourceFileIndex: idx}, nil
	case "Signature":
		idx, err := sub.u2("Signature.signature_index")
		if err != nil {
			return nil, err
		}
		return &SignatureAttribute{SignatureIndex: idx}, nil
	case "RuntimeVisibleAnnotations":
		return parseRuntimeVisibleAnnotations(sub)
	case "RuntimeVisibleTypeAnnotations", "RuntimeInvisibleTypeAnnotations":
		return parseTypeAnnotations(sub, name)
	case "BootstrapMethods":
		return parseBootstrapMethods(sub)
	case "Module":
		return parseModuleAttribute(sub)
	case "Record":
		return parseRecordAttribute(sub, cp)
	case "NestHost":
		idx, err := sub.u2("NestHost.host_class_index")
		if err != nil {
			return nil, err
		}
		return &NestHostAttribute{HostClassIndex: idx}, nil
	case "NestMembers":
		classes, err := parseU2List(sub, "NestMembers.classes")
		if err != nil {
			return nil, err
		}
		return &NestMembersAttribute{Classes: classes}, nil
	case "PermittedSubclasses":
		classes, err := parseU2List(sub, "PermittedSubclasses.classes")
		if err != nil {
			return nil, err
		}
		return &PermittedSubclassesAttribute{Classes: classes}, nil
	default:
		return &Unknown{Name: name, Data: raw}, nil
	}
}

func parseU2List(r *reader, context string) ([]uint16, error) {
	count, err := r.u2(context + ".count")
	if err != nil {
		return nil, err
	}
	out := make([]uint16, count)
	for i := range out {
		out[i], err = r.u2(context)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseCodeAttribute(r *reader, cp *ConstantPool, owningMethod *Method) (*CodeAttribute, error) {
	maxStack, err := r.u2("Code.max_stack")
	if err != nil {
		return nil, err
	}
	maxLocals, err := r.u2("Code.max_locals")
	if err != nil {
		return nil, err
	}
	codeLength, err := r.u4("Code.code_length")
	if err != nil {
		return nil, err
	}
	code, err := r.bytes(int(codeLength), "Code.code")
	if err != nil {
		return nil, err
	}

	instrs, offsetToIndex, err := decodeInstructions(code)
	if err != nil {
		return nil, err
	}

	excCount, err := r.u2("Code.exception_table_length")
	if err != nil {
		return nil, err
	}
	excTable := make([]ExceptionTableEntry, excCount)
	for i := range excTable {
		startPC, err := r.u2("exception_table.start_pc")
		if err != nil {
			return nil, err
		}
		endPC, err := r.u2("exception_table.end_pc")
		if err != nil {
			return nil, err
		}
		handlerPC, err := r.u2("exception_table.handler_pc")
		if err != nil {
			return nil, err
		}
		catchType, err := r.u2("exception_table.catch_type")
		if err != nil {
			return nil, err
		}
		startIdx, endIdx, handlerIdx, err := canonicalizeExceptionRange(offsetToIndex, int(codeLength), int(startPC), int(endPC), int(handlerPC))
		if err != nil {
			return nil, err
		}
		excTable[i] = ExceptionTableEntry{StartPC: startIdx, EndPC: endIdx, HandlerPC: handlerIdx, CatchClass: catchType}
	}

	if err := canonicalizeBranches(instrs, offsetToIndex); err != nil {
		return nil, err
	}

	subAttrs, err := parseAttributes(r, cp, owningMethod)
	if err != nil {
		return nil, err
	}

	ca := &CodeAttribute{
		MaxStack:          int(maxStack),
		MaxLocals:         int(maxLocals),
		Instructions:      instrs,
		ByteOffsetToIndex: offsetToIndex,
		ExceptionTable:    excTable,
		Attributes:        subAttrs,
	}

	for _, a := range subAttrs {
		if smt, ok := a.(*StackMapTableAttribute); ok {
			if err := canonicalizeStackMapOffsets(smt, instrs, offsetToIndex); err != nil {
				return nil, err
			}
			ca.StackMapTable = smt
		}
	}

	return ca, nil
}

// canonicalizeExceptionRange maps an exception table row's byte
// offsets to instruction indices. end_pc is exclusive and may equal
// the code length (meaning "through the last instruction"), so it's
// looked up against a synthetic one-past-the-end index rather than
// offsetToIndex directly.
func canonicalizeExceptionRange(offsetToIndex map[int]int, codeLength, startPC, endPC, handlerPC int) (int, int, int, error) {
	startIdx, ok := offsetToIndex[startPC]
	if !ok {
		return 0, 0, 0, fmt.Errorf("classfile: exception table start_pc %d is not an instruction boundary", startPC)
	}
	var endIdx int
	if endPC == codeLength {
		endIdx = len(offsetToIndex)
	} else {
		idx, ok := offsetToIndex[endPC]
		if !ok {
			return 0, 0, 0, fmt.Errorf("classfile: exception table end_pc %d is not an instruction boundary", endPC)
		}
		endIdx = idx
	}
	handlerIdx, ok := offsetToIndex[handlerPC]
	if !ok {
		return 0, 0, 0, fmt.Errorf("classfile: exception table handler_pc %d is not an instruction boundary", handlerPC)
	}
	return startIdx, endIdx, handlerIdx, nil
}

// implicitInitialLocals builds the locals list a method's frame starts
// with before any StackMapTable entry is applied: per JVMS 4.10.1.6,
// this is the receiver (for non-static methods, VTypeUninitializedThis
// inside a constructor, VTypeObject otherwise) followed by one
// verification-type entry per parameter (category-2 types still
// contribute a single entry; the second slot they occupy is implicit).
// Reference parameter types get a zero-valued CPIndex sentinel since
// they don't correspond to any cpool entry's index here -- the
// verifier resolves actual class identity from the method descriptor
// directly rather than through this placeholder.
func implicitInitialLocals(cp *ConstantPool, m *Method) ([]VType, error) {
	if m == nil {
		return nil, nil
	}
	var locals []VType
	if !m.AccessFlags.Has(AccStatic) {
		name, err := cp.UTF8At(int(m.NameIndex))
		if err != nil {
			return nil, err
		}
		if name == "<init>" {
			locals = append(locals, VType{Tag: VTypeUninitializedThis})
		} else {
			locals = append(locals, VType{Tag: VTypeObject})
		}
	}
	descStr, err := cp.UTF8At(int(m.DescIndex))
	if err != nil {
		return nil, err
	}
	desc, err := ParseMethodDescriptor(descStr)
	if err != nil {
		return nil, err
	}
	for _, p := range desc.Parameters {
		locals = append(locals, fieldTypeToVType(p))
	}
	return locals, nil
}

func fieldTypeToVType(f FieldType) VType {
	switch f.Kind {
	case FieldInt, FieldByte, FieldChar, FieldShort, FieldBoolean:
		return VType{Tag: VTypeInteger}
	case FieldLong:
		return VType{Tag: VTypeLong}
	case FieldFloat:
		return VType{Tag: VTypeFloat}
	case FieldDouble:
		return VType{Tag: VTypeDouble}
	default: // FieldObject, FieldArray
		return VType{Tag: VTypeObject}
	}
}

// parseStackMapTable decodes the delta-encoded StackMapTable into a
// sequence of frames whose InstructionIndex field still holds a raw
// byte offset at this point; canonicalizeStackMapOffsets finishes the
// job once the owning Code attribute's offsetToIndex map is available,
// and also reconstructs each frame's full (not delta) locals/stack
// relative to the previous frame, per spec.md §4.3's "absolute (not
// delta) instruction-indexed frames". initialLocals is the method's
// implicit starting frame (nil when the StackMapTable isn't nested
// under a known method, in which case frame 0 must be FULL_FRAME).
func parseStackMapTable(r *reader, initialLocals []VType) (*StackMapTableAttribute, error) {
	count, err := r.u2("StackMapTable.number_of_entries")
	if err != nil {
		return nil, err
	}

	type rawFrame struct {
		kind        byte
		offsetDelta int
		locals      []VType // APPEND: new locals only; FULL: full set; others: unused
		stack       []VType // SAME_LOCALS_1_STACK_ITEM*: 1 entry; FULL: full set
		chop        int     // CHOP: number of trailing locals to remove
	}
	raws := make([]rawFrame, count)

	for i := 0; i < int(count); i++ {
		frameType, err := r.u1("stack_map_frame.frame_type")
		if err != nil {
			return nil, err
		}
		rf := rawFrame{kind: frameType}
		switch {
		case frameType <= 63:
			rf.offsetDelta = int(frameType)
		case frameType <= 127:
			rf.offsetDelta = int(frameType) - 64
			vt, err := parseVerificationType(r)
			if err != nil {
				return nil, err
			}
			rf.stack = []VType{vt}
		case frameType == 247:
			delta, err := r.u2("same_locals_1_stack_item_frame_extended.offset_delta")
			if err != nil {
				return nil, err
			}
			rf.offsetDelta = int(delta)
			vt, err := parseVerificationType(r)
			if err != nil {
				return nil, err
			}
			rf.stack = []VType{vt}
		case frameType >= 248 && frameType <= 250:
			delta, err := r.u2("chop_frame.offset_delta")
			if err != nil {
				return nil, err
			}
			rf.offsetDelta = int(delta)
			rf.chop = 251 - int(frameType)
		case frameType == 251:
			delta, err := r.u2("same_frame_extended.offset_delta")
			if err != nil {
				return nil, err
			}
			rf.offsetDelta = int(delta)
		case frameType >= 252 && frameType <= 254:
			delta, err := r.u2("append_frame.offset_delta")
			if err != nil {
				return nil, err
			}
			rf.offsetDelta = int(delta)
			n := int(frameType) - 251
			rf.locals = make([]VType, n)
			for j := 0; j < n; j++ {
				vt, err := parseVerificationType(r)
				if err != nil {
					return nil, err
				}
				rf.locals[j] = vt
			}
		case frameType == 255:
			delta, err := r.u2("full_frame.offset_delta")
			if err != nil {
				return nil, err
			}
			rf.offsetDelta = int(delta)
			numLocals, err := r.u2("full_frame.number_of_locals")
			if err != nil {
				return nil, err
			}
			rf.locals = make([]VType, numLocals)
			for j := range rf.locals {
				vt, err := parseVerificationType(r)
				if err != nil {
					return nil, err
				}
				rf.locals[j] = vt
			}
			numStack, err := r.u2("full_frame.number_of_stack_items")
			if err != nil {
				return nil, err
			}
			rf.stack = make([]VType, numStack)
			for j := range rf.stack {
				vt, err := parseVerificationType(r)
				if err != nil {
					return nil, err
				}
				rf.stack[j] = vt
			}
		default:
			return nil, fmt.Errorf("classfile: reserved StackMapTable frame_type %d", frameType)
		}
		raws[i] = rf
	}

	// Reconstruct absolute locals per frame, starting from the method's
	// implicit initial frame so that a first entry of CHOP or APPEND
	// type (legal per JVMS 4.7.4) resolves against the receiver and
	// parameter locals rather than an empty list.
	smt := &StackMapTableAttribute{Frames: make([]StackMapFrame, len(raws))}
	prevLocals := initialLocals
	offsetAccum := -1 // first entry's delta IS the offset; later entries add delta+1
	for i, rf := range raws {
		var offset int
		if i == 0 {
			offset = rf.offsetDelta
		} else {
			offset = offsetAccum + rf.offsetDelta + 1
		}
		offsetAccum = offset

		var locals []VType
		switch {
		case rf.chop > 0:
			locals = append([]VType{}, prevLocals...)
			for k := 0; k < rf.chop && len(locals) > 0; k++ {
				locals = locals[:len(locals)-1]
			}
		case len(rf.locals) > 0 && rf.kind >= 252 && rf.kind <= 254:
			locals = append(append([]VType{}, prevLocals...), rf.locals...)
		case rf.kind == 255:
			locals = rf.locals
		default:
			locals = prevLocals
		}
		prevLocals = locals

		smt.Frames[i] = StackMapFrame{
			InstructionIndex: offset, // still a byte offset; fixed up below
			Locals:           locals,
			Stack:            rf.stack,
		}
	}

	return smt, nil
}

func parseVerificationType(r *reader) (VType, error) {
	tag, err := r.u1("verification_type_info.tag")
	if err != nil {
		return VType{}, err
	}
	switch tag {
	case 0:
		return VType{Tag: VTypeTop}, nil
	case 1:
		return VType{Tag: VTypeInteger}, nil
	case 2:
		return VType{Tag: VTypeFloat}, nil
	case 3:
		return VType{Tag: VTypeDouble}, nil
	case 4:
		return VType{Tag: VTypeLong}, nil
	case 5:
		return VType{Tag: VTypeNull}, nil
	case 6:
		return VType{Tag: VTypeUninitializedThis}, nil
	case 7:
		idx, err := r.u2("Object_variable_info.cpool_index")
		if err != nil {
			return VType{}, err
		}
		return VType{Tag: VTypeObject, CPIndex: idx}, nil
	case 8:
		offset, err := r.u2("Uninitialized_variable_info.offset")
		if err != nil {
			return VType{}, err
		}
		return VType{Tag: VTypeUninitialized, Offset: int(offset)}, nil
	default:
		return VType{}, fmt.Errorf("classfile: invalid verification_type_info tag %d", tag)
	}
}

// canonicalizeStackMapOffsets converts each frame's InstructionIndex
// from a byte offset to an instruction index, validating that the
// offset actually lands on an instruction boundary (spec.md §4.3
// "validate every frame offset is a real instruction boundary").
func canonicalizeStackMapOffsets(smt *StackMapTableAttribute, instrs []Instruction, offsetToIndex map[int]int) error {
	for i := range smt.Frames {
		f := &smt.Frames[i]
		idx, ok := offsetToIndex[f.InstructionIndex]
		if !ok {
			return &InvalidStackFrameOffset{ByteOffset: f.InstructionIndex}
		}
		f.InstructionIndex = idx
		for j := range f.Locals {
			if f.Locals[j].Tag == VTypeUninitialized {
				uidx, ok := offsetToIndex[f.Locals[j].Offset]
				if !ok {
					return &InvalidStackFrameOffset{ByteOffset: f.Locals[j].Offset}
				}
				f.Locals[j].Offset = uidx
			}
		}
		for j := range f.Stack {
			if f.Stack[j].Tag == VTypeUninitialized {
				uidx, ok := offsetToIndex[f.Stack[j].Offset]
				if !ok {
					return &InvalidStackFrameOffset{ByteOffset: f.Stack[j].Offset}
				}
				f.Stack[j].Offset = uidx
			}
		}
	}
	_ = instrs
	return nil
}

// InvalidStackFrameOffset is returned when a StackMapTable entry's
// (reconstructed) offset doesn't land on a real instruction boundary.
type InvalidStackFrameOffset struct{ ByteOffset int }

func (e *InvalidStackFrameOffset) Error() string {
	return fmt.Sprintf("invalid stack map frame offset: byte offset %d is not an instruction boundary", e.ByteOffset)
}

func parseLineNumberTable(r *reader) (*LineNumberTableAttribute, error) {
	count, err := r.u2("LineNumberTable.line_number_table_length")
	if err != nil {
		return nil, err
	}
	entries := make([]BytecodeToSourceLine, count)
	for i := range entries {
		pc, err := r.u2("line_number_table.start_pc")
		if err != nil {
			return nil, err
		}
		line, err := r.u2("line_number_table.line_number")
		if err != nil {
			return nil, err
		}
		entries[i] = BytecodeToSourceLine{InstructionIndex: int(pc), LineNumber: int(line)}
	}
	return &LineNumberTableAttribute{Entries: entries}, nil
}

func parseLocalVariableTable(r *reader) (*LocalVariableTableAttribute, error) {
	count, err := r.u2("LocalVariableTable.local_variable_table_length")
	if err != nil {
		return nil, err
	}
	entries := make([]LocalVariableEntry, count)
	for i := range entries {
		startPC, err := r.u2("local_variable_table.start_pc")
		if err != nil {
			return nil, err
		}
		length, err := r.u2("local_variable_table.length")
		if err != nil {
			return nil, err
		}
		nameIdx, err := r.u2("local_variable_table.name_index")
		if err != nil {
			return nil, err
		}
		descIdx, err := r.u2("local_variable_table.descriptor_index")
		if err != nil {
			return nil, err
		}
		index, err := r.u2("local_variable_table.index")
		if err != nil {
			return nil, err
		}
		entries[i] = LocalVariableEntry{
			StartPC: int(startPC), Length: int(length),
			NameIndex: nameIdx, DescIndex: descIdx, Index: index,
		}
	}
	return &LocalVariableTableAttribute{Entries: entries}, nil
}

func parseExceptionsAttribute(r *reader) (*ExceptionsAttribute, error) {
	list, err := parseU2List(r, "Exceptions.exception_index_table")
	if err != nil {
		return nil, err
	}
	return &ExceptionsAttribute{ExceptionIndexTable: list}, nil
}

func parseInnerClasses(r *reader) (*InnerClassesAttribute, error) {
	count, err := r.u2("InnerClasses.number_of_classes")
	if err != nil {
		return nil, err
	}
	entries := make([]InnerClassEntry, count)
	for i := range entries {
		inner, err := r.u2("inner_classes.inner_class_info_index")
		if err != nil {
			return nil, err
		}
		outer, err := r.u2("inner_classes.outer_class_info_index")
		if err != nil {
			return nil, err
		}
		name, err := r.u2("inner_classes.inner_name_index")
		if err != nil {
			return nil, err
		}
		flags, err := r.u2("inner_classes.inner_class_access_flags")
		if err != nil {
			return nil, err
		}
		entries[i] = InnerClassEntry{
			InnerClassInfoIndex: inner, OuterClassInfoIndex: outer,
			InnerNameIndex: name, InnerClassAccessFlags: AccessFlags(flags),
		}
	}
	return &InnerClassesAttribute{Classes: entries}, nil
}

func parseRuntimeVisibleAnnotations(r *reader) (*RuntimeVisibleAnnotationsAttribute, error) {
	count, err := r.u2("RuntimeVisibleAnnotations.num_annotations")
	if err != nil {
		return nil, err
	}
	out := make([]Annotation, count)
	for i := range out {
		typeIdx, err := r.u2("annotation.type_index")
		if err != nil {
			return nil, err
		}
		rest := r.data[r.pos:]
		out[i] = Annotation{TypeIndex: typeIdx, ElementValuePairs: rest}
		r.pos = len(r.data) // annotation element values aren't interpreted; consume the rest
		break
	}
	return &RuntimeVisibleAnnotationsAttribute{Annotations: out}, nil
}

// parseTypeAnnotations decodes a RuntimeVisible/InvisibleTypeAnnotations
// attribute far enough to validate and preserve each entry's
// target_type discriminant (spec.md §4.1); the target_info/type_path/
// element_value_pairs that follow are opaque payload this engine
// never interprets, mirroring parseRuntimeVisibleAnnotations above.
func parseTypeAnnotations(r *reader, name string) (*RuntimeVisibleTypeAnnotationsAttribute, error) {
	count, err := r.u2("TypeAnnotations.num_annotations")
	if err != nil {
		return nil, err
	}
	out := make([]TypeAnnotation, 0, count)
	for i := 0; i < int(count); i++ {
		code, err := r.u1("type_annotation.target_type")
		if err != nil {
			return nil, err
		}
		tt, err := ParseTargetType(code)
		if err != nil {
			return nil, err
		}
		rest := r.data[r.pos:]
		out = append(out, TypeAnnotation{TargetType: tt, Rest: rest})
		r.pos = len(r.data)
		break
	}
	return &RuntimeVisibleTypeAnnotationsAttribute{Name: name, Annotations: out}, nil
}

func parseBootstrapMethods(r *reader) (*BootstrapMethodsAttribute, error) {
	count, err := r.u2("BootstrapMethods.num_bootstrap_methods")
	if err != nil {
		return nil, err
	}
	methods := make([]BootstrapMethod, count)
	for i := range methods {
		refIdx, err := r.u2("bootstrap_method.bootstrap_method_ref")
		if err != nil {
			return nil, err
		}
		args, err := parseU2List(r, "bootstrap_method.bootstrap_arguments")
		if err != nil {
			return nil, err
		}
		methods[i] = BootstrapMethod{MethodRefIndex: refIdx, Arguments: args}
	}
	return &BootstrapMethodsAttribute{Methods: methods}, nil
}

func parseModuleAttribute(r *reader) (*ModuleAttribute, error) {
	nameIdx, err := r.u2("Module.module_name_index")
	if err != nil {
		return nil, err
	}
	flags, err := r.u2("Module.module_flags")
	if err != nil {
		return nil, err
	}
	versionIdx, err := r.u2("Module.module_version_index")
	if err != nil {
		return nil, err
	}
	m := &ModuleAttribute{NameIndex: nameIdx, Flags: flags, VersionIndex: versionIdx}

	reqCount, err := r.u2("Module.requires_count")
	if err != nil {
		return nil, err
	}
	m.Requires = make([]ModuleRequires, reqCount)
	for i := range m.Requires {
		idx, err := r.u2("requires.requires_index")
		if err != nil {
			return nil, err
		}
		rflags, err := r.u2("requires.requires_flags")
		if err != nil {
			return nil, err
		}
		if _, err := r.u2("requires.requires_version_index"); err != nil {
			return nil, err
		}
		m.Requires[i] = ModuleRequires{Index: idx, Flags: rflags}
	}

	expCount, err := r.u2("Module.exports_count")
	if err != nil {
		return nil, err
	}
	m.Exports = make([]ModuleExports, expCount)
	for i := range m.Exports {
		idx, err := r.u2("exports.exports_index")
		if err != nil {
			return nil, err
		}
		eflags, err := r.u2("exports.exports_flags")
		if err != nil {
			return nil, err
		}
		toList, err := parseU2List(r, "exports.exports_to")
		if err != nil {
			return nil, err
		}
		m.Exports[i] = ModuleExports{Index: idx, Flags: eflags, ToIndex: toList}
	}

	opensCount, err := r.u2("Module.opens_count")
	if err != nil {
		return nil, err
	}
	m.Opens = make([]ModuleOpens, opensCount)
	for i := range m.Opens {
		idx, err := r.u2("opens.opens_index")
		if err != nil {
			return nil, err
		}
		oflags, err := r.u2("opens.opens_flags")
		if err != nil {
			return nil, err
		}
		toList, err := parseU2List(r, "opens.opens_to")
		if err != nil {
			return nil, err
		}
		m.Opens[i] = ModuleOpens{Index: idx, Flags: oflags, ToIndex: toList}
	}

	usesList, err := parseU2List(r, "Module.uses_index")
	if err != nil {
		return nil, err
	}
	m.Uses = usesList

	providesCount, err := r.u2("Module.provides_count")
	if err != nil {
		return nil, err
	}
	m.Provides = make([]ModuleProvides, providesCount)
	for i := range m.Provides {
		idx, err := r.u2("provides.provides_index")
		if err != nil {
			return nil, err
		}
		withList, err := parseU2List(r, "provides.provides_with")
		if err != nil {
			return nil, err
		}
		m.Provides[i] = ModuleProvides{Index: idx, WithIndex: withList}
	}

	return m, nil
}

func parseRecordAttribute(r *reader, cp *ConstantPool) (*RecordAttribute, error) {
	count, err := r.u2("Record.components_count")
	if err != nil {
		return nil, err
	}
	components := make([]RecordComponent, count)
	for i := range components {
		nameIdx, err := r.u2("record_component_info.name_index")
		if err != nil {
			return nil, err
		}
		descIdx, err := r.u2("record_component_info.descriptor_index")
		if err != nil {
			return nil, err
		}
		attrs, err := parseAttributes(r, cp, nil)
		if err != nil {
			return nil, err
		}
		components[i] = RecordComponent{NameIndex: nameIdx, DescIndex: descIdx, Attributes: attrs}
	}
	return &RecordAttribute{Components: components}, nil
}
