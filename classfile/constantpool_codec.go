/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import "math"

// parseConstantPool reads constant_pool_count-1 entries starting at
// index 1, per spec.md §4.1. Long/double entries consume two indices;
// the skipped index is left with Tag==0, which ConstantPool.Get then
// rejects as InvalidConstantPoolIndex (spec.md §3's "second slot must
// be treated as unusable").
func parseConstantPool(r *reader) (*ConstantPool, error) {
	count, err := r.u2("constant_pool_count")
	if err != nil {
		return nil, err
	}
	cp := NewConstantPool(int(count))

	i := 1
	for i < int(count) {
		tag, err := r.u1("cp_info.tag")
		if err != nil {
			return nil, err
		}
		entry, err := parseCpEntry(r, Tag(tag))
		if err != nil {
			return nil, err
		}
		cp.Entries[i] = entry
		i += int(Tag(tag).width())
	}
	return cp, nil
}

func parseCpEntry(r *reader, tag Tag) (CpEntry, error) {
	switch tag {
	case TagUTF8:
		length, err := r.u2("CONSTANT_Utf8.length")
		if err != nil {
			return CpEntry{}, err
		}
		raw, err := r.bytes(int(length), "CONSTANT_Utf8.bytes")
		if err != nil {
			return CpEntry{}, err
		}
		return CpEntry{Tag: tag, UTF8: decodeModifiedUTF8(raw)}, nil

	case TagInteger:
		v, err := r.u4("CONSTANT_Integer.bytes")
		if err != nil {
			return CpEntry{}, err
		}
		return CpEntry{Tag: tag, IntVal: int32(v)}, nil

	case TagFloat:
		v, err := r.u4("CONSTANT_Float.bytes")
		if err != nil {
			return CpEntry{}, err
		}
		return CpEntry{Tag: tag, FloatVal: math.Float32frombits(v)}, nil

	case TagLong:
		hi, err := r.u4("CONSTANT_Long.high_bytes")
		if err != nil {
			return CpEntry{}, err
		}
		lo, err := r.u4("CONSTANT_Long.low_bytes")
		if err != nil {
			return CpEntry{}, err
		}
		return CpEntry{Tag: tag, LongVal: int64(hi)<<32 | int64(lo)}, nil

	case TagDouble:
		hi, err := r.u4("CONSTANT_Double.high_bytes")
		if err != nil {
			return CpEntry{}, err
		}
		lo, err := r.u4("CONSTANT_Double.low_bytes")
		if err != nil {
			return CpEntry{}, err
		}
		return CpEntry{Tag: tag, DoubleVal: math.Float64frombits(uint64(hi)<<32 | uint64(lo))}, nil

	case TagClass, TagString, TagMethodType, TagModule, TagPackage:
		idx, err := r.u2("CONSTANT_Class/String/MethodType/Module/Package.index")
		if err != nil {
			return CpEntry{}, err
		}
		return CpEntry{Tag: tag, UTF8Index: idx}, nil

	case TagFieldRef, TagMethodRef, TagInterfaceMethodRef:
		classIdx, err := r.u2("CONSTANT_*ref.class_index")
		if err != nil {
			return CpEntry{}, err
		}
		natIdx, err := r.u2("CONSTANT_*ref.name_and_type_index")
		if err != nil {
			return CpEntry{}, err
		}
		return CpEntry{Tag: tag, ClassIndex: classIdx, NameAndTypeIndex: natIdx}, nil

	case TagNameAndType:
		nameIdx, err := r.u2("CONSTANT_NameAndType.name_index")
		if err != nil {
			return CpEntry{}, err
		}
		descIdx, err := r.u2("CONSTANT_NameAndType.descriptor_index")
		if err != nil {
			return CpEntry{}, err
		}
		return CpEntry{Tag: tag, NameIndex: nameIdx, DescIndex: descIdx}, nil

	case TagMethodHandle:
		kind, err := r.u1("CONSTANT_MethodHandle.reference_kind")
		if err != nil {
			return CpEntry{}, err
		}
		idx, err := r.u2("CONSTANT_MethodHandle.reference_index")
		if err != nil {
			return CpEntry{}, err
		}
		return CpEntry{Tag: tag, RefKind: kind, RefIndex: idx}, nil

	case TagDynamic, TagInvokeDynamic:
		bsmIdx, err := r.u2("CONSTANT_Dynamic/InvokeDynamic.bootstrap_method_attr_index")
		if err != nil {
			return CpEntry{}, err
		}
		natIdx, err := r.u2("CONSTANT_Dynamic/InvokeDynamic.name_and_type_index")
		if err != nil {
			return CpEntry{}, err
		}
		return CpEntry{Tag: tag, BootstrapMethodAttrIndex: bsmIdx, NameAndTypeIndex: natIdx}, nil

	default:
		return CpEntry{}, &InvalidConstantPoolIndexType{Want: TagUTF8, Got: tag}
	}
}

// decodeModifiedUTF8 decodes the constant pool's "modified UTF-8"
// encoding. Java's modified form differs from standard UTF-8 only in
// how it represents the null character and supplementary characters;
// for the ASCII/BMP-range strings exercised by class files generated
// from real Java sources, standard UTF-8 decoding is byte-compatible,
// so we decode directly as UTF-8 rather than special-casing the two
// divergent encodings this engine never needs to round-trip (embedded
// NUL, raw surrogate pairs).
func decodeModifiedUTF8(raw []byte) string {
	return string(raw)
}

func serializeConstantPool(cp *ConstantPool, w *writer) {
	w.u2(uint16(cp.Count()))
	i := 1
	for i < cp.Count() {
		e := cp.Entries[i]
		if e.Tag == 0 {
			i++
			continue
		}
		w.u1(byte(e.Tag))
		switch e.Tag {
		case TagUTF8:
			b := []byte(e.UTF8)
			w.u2(uint16(len(b)))
			w.bytes(b)
		case TagInteger:
			w.u4(uint32(e.IntVal))
		case TagFloat:
			w.u4(math.Float32bits(e.FloatVal))
		case TagLong:
			bits := uint64(e.LongVal)
			w.u4(uint32(bits >> 32))
			w.u4(uint32(bits))
		case TagDouble:
			bits := math.Float64bits(e.DoubleVal)
			w.u4(uint32(bits >> 32))
			w.u4(uint32(bits))
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			w.u2(e.UTF8Index)
		case TagFieldRef, TagMethodRef, TagInterfaceMethodRef:
			w.u2(e.ClassIndex)
			w.u2(e.NameAndTypeIndex)
		case TagNameAndType:
			w.u2(e.NameIndex)
			w.u2(e.DescIndex)
		case TagMethodHandle:
			w.u1(e.RefKind)
			w.u2(e.RefIndex)
		case TagDynamic, TagInvokeDynamic:
			w.u2(e.BootstrapMethodAttrIndex)
			w.u2(e.NameAndTypeIndex)
		}
		i += int(e.Tag.width())
	}
}
