/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

const classMagic = 0xCAFEBABE

// Parse decodes a complete .class file image into a ClassFile, per
// spec.md §4.1. Every multi-byte field is big-endian; the constant
// pool is parsed first since everything else indexes into it.
func Parse(data []byte) (*ClassFile, error) {
	r := newReader(data)

	magic, err := r.u4("magic")
	if err != nil {
		return nil, err
	}
	if magic != classMagic {
		return nil, &InvalidMagic{Got: magic}
	}

	minor, err := r.u2("minor_version")
	if err != nil {
		return nil, err
	}
	major, err := r.u2("major_version")
	if err != nil {
		return nil, err
	}
	version := Version{Major: major, Minor: minor}

	cp, err := parseConstantPool(r)
	if err != nil {
		return nil, err
	}

	accessFlags, err := r.u2("access_flags")
	if err != nil {
		return nil, err
	}
	thisClass, err := r.u2("this_class")
	if err != nil {
		return nil, err
	}
	superClass, err := r.u2("super_class")
	if err != nil {
		return nil, err
	}

	ifaceCount, err := r.u2("interfaces_count")
	if err != nil {
		return nil, err
	}
	interfaces := make([]uint16, ifaceCount)
	for i := range interfaces {
		interfaces[i], err = r.u2("interfaces")
		if err != nil {
			return nil, err
		}
	}

	fieldsCount, err := r.u2("fields_count")
	if err != nil {
		return nil, err
	}
	fields := make([]*Field, fieldsCount)
	for i := range fields {
		f, err := parseField(r, cp)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}

	methodsCount, err := r.u2("methods_count")
	if err != nil {
		return nil, err
	}
	methods := make([]*Method, methodsCount)
	for i := range methods {
		m, err := parseMethod(r, cp)
		if err != nil {
			return nil, err
		}
		methods[i] = m
	}

	classAttrs, err := parseAttributes(r, cp, nil)
	if err != nil {
		return nil, err
	}

	return &ClassFile{
		Version:      version,
		ConstantPool: cp,
		AccessFlags:  AccessFlags(accessFlags),
		ThisClass:    thisClass,
		SuperClass:   superClass,
		Interfaces:   interfaces,
		Fields:       fields,
		Methods:      methods,
		Attributes:   classAttrs,
	}, nil
}

func parseField(r *reader, cp *ConstantPool) (*Field, error) {
	accessFlags, err := r.u2("field_info.access_flags")
	if err != nil {
		return nil, err
	}
	nameIdx, err := r.u2("field_info.name_index")
	if err != nil {
		return nil, err
	}
	descIdx, err := r.u2("field_info.descriptor_index")
	if err != nil {
		return nil, err
	}
	attrs, err := parseAttributes(r, cp, nil)
	if err != nil {
		return nil, err
	}
	return &Field{
		AccessFlags: AccessFlags(accessFlags),
		NameIndex:   nameIdx,
		DescIndex:   descIdx,
		Attributes:  attrs,
	}, nil
}

func parseMethod(r *reader, cp *ConstantPool) (*Method, error) {
	accessFlags, err := r.u2("method_info.access_flags")
	if err != nil {
		return nil, err
	}
	nameIdx, err := r.u2("method_info.name_index")
	if err != nil {
		return nil, err
	}
	descIdx, err := r.u2("method_info.descriptor_index")
	if err != nil {
		return nil, err
	}

	m := &Method{
		AccessFlags: AccessFlags(accessFlags),
		NameIndex:   nameIdx,
		DescIndex:   descIdx,
	}

	attrs, err := parseAttributes(r, cp, m)
	if err != nil {
		return nil, err
	}
	m.Attributes = attrs
	for _, a := range attrs {
		if code, ok := a.(*CodeAttribute); ok {
			m.Code = code
		}
	}
	return m, nil
}

// Serialize re-encodes a ClassFile into its binary form. Attributes
// this engine doesn't interpret round-trip byte-for-byte via Unknown;
// attributes it does interpret (Code, StackMapTable, ...) are
// re-derived from their structured form, which is why Serialize
// de-canonicalises branch targets and stack-map offsets back to byte
// offsets rather than reusing any cached raw bytes.
func Serialize(cf *ClassFile) ([]byte, error) {
	w := &writer{}
	w.u4(classMagic)
	w.u2(cf.Version.Minor)
	w.u2(cf.Version.Major)

	serializeConstantPool(cf.ConstantPool, w)

	w.u2(uint16(cf.AccessFlags))
	w.u2(cf.ThisClass)
	w.u2(cf.SuperClass)

	w.u2(uint16(len(cf.Interfaces)))
	for _, i := range cf.Interfaces {
		w.u2(i)
	}

	w.u2(uint16(len(cf.Fields)))
	for _, f := range cf.Fields {
		w.u2(uint16(f.AccessFlags))
		w.u2(f.NameIndex)
		w.u2(f.DescIndex)
		if err := serializeAttributes(w, f.Attributes, cf.ConstantPool, nil); err != nil {
			return nil, err
		}
	}

	w.u2(uint16(len(cf.Methods)))
	for _, m := range cf.Methods {
		w.u2(uint16(m.AccessFlags))
		w.u2(m.NameIndex)
		w.u2(m.DescIndex)
		if err := serializeAttributes(w, m.Attributes, cf.ConstantPool, m); err != nil {
			return nil, err
		}
	}

	if err := serializeAttributes(w, cf.Attributes, cf.ConstantPool, nil); err != nil {
		return nil, err
	}

	return w.buf, nil
}
