/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import "fmt"

// Tag identifies the kind of one constant-pool entry, per spec.md §3
// "ConstantPool".
type Tag byte

const (
	TagUTF8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldRef           Tag = 9
	TagMethodRef          Tag = 10
	TagInterfaceMethodRef Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

// CpEntry is one constant-pool slot. Only the fields relevant to Tag
// are meaningful; this mirrors jacobin's CPutils.go tagged-union
// style (CpType) but keeps the payload inline instead of split across
// parallel per-kind arrays, which is unnecessary in Go where we have
// real sum types via a tagged struct.
type CpEntry struct {
	Tag Tag

	// TagUTF8
	UTF8 string

	// TagInteger / TagFloat / TagLong / TagDouble
	IntVal    int32
	FloatVal  float32
	LongVal   int64
	DoubleVal float64

	// TagClass, TagString, TagMethodType, TagModule, TagPackage: index
	// of a UTF8 entry.
	UTF8Index uint16

	// TagFieldRef / TagMethodRef / TagInterfaceMethodRef
	ClassIndex       uint16
	NameAndTypeIndex uint16

	// TagNameAndType
	NameIndex uint16
	DescIndex uint16

	// TagMethodHandle
	RefKind  byte
	RefIndex uint16

	// TagDynamic / TagInvokeDynamic
	BootstrapMethodAttrIndex uint16
	// NameAndTypeIndex reused above for these two kinds.
}

// ConstantPool is the ordered, 1-based table of tagged entries,
// per spec.md §3. Index 0 is always the reserved zero value; long and
// double entries additionally make their second slot unusable, which
// is encoded here by leaving that slot's Tag at zero (no valid tag is
// zero) so any accidental reference fails fast.
type ConstantPool struct {
	Entries []CpEntry // Entries[0] is the reserved slot
}

// NewConstantPool allocates a pool with capacity for `count` entries
// as encoded in the class file's constant_pool_count field (which is
// one more than the highest valid index, because index 0 is reserved
// and double/long width entries still count as 2 towards `count`).
func NewConstantPool(count int) *ConstantPool {
	return &ConstantPool{Entries: make([]CpEntry, count)}
}

// Count returns the number of addressable slots, including the
// reserved slot 0 and any unusable second-half slots.
func (cp *ConstantPool) Count() int { return len(cp.Entries) }

func (cp *ConstantPool) inRange(index int) bool {
	return index >= 1 && index < len(cp.Entries)
}

// Get returns the entry at index, or an error if the index is out of
// range or addresses an unusable second slot of a long/double.
func (cp *ConstantPool) Get(index int) (*CpEntry, error) {
	if !cp.inRange(index) {
		return nil, &InvalidConstantPoolIndex{Index: index}
	}
	e := &cp.Entries[index]
	if e.Tag == 0 {
		return nil, &InvalidConstantPoolIndex{Index: index}
	}
	return e, nil
}

// GetOfType returns the entry at index, additionally verifying its tag
// matches want.
func (cp *ConstantPool) GetOfType(index int, want Tag) (*CpEntry, error) {
	e, err := cp.Get(index)
	if err != nil {
		return nil, err
	}
	if e.Tag != want {
		return nil, &InvalidConstantPoolIndexType{Index: index, Want: want, Got: e.Tag}
	}
	return e, nil
}

// UTF8At returns the UTF-8 string stored at index.
func (cp *ConstantPool) UTF8At(index int) (string, error) {
	e, err := cp.GetOfType(index, TagUTF8)
	if err != nil {
		return "", err
	}
	return e.UTF8, nil
}

// ClassNameAt resolves a CONSTANT_Class_info at index to the class's
// binary name (e.g. "java/lang/Object").
func (cp *ConstantPool) ClassNameAt(index int) (string, error) {
	e, err := cp.GetOfType(index, TagClass)
	if err != nil {
		return "", err
	}
	return cp.UTF8At(int(e.UTF8Index))
}

// ModuleNameAt resolves a CONSTANT_Module_info at index to the
// module's name (e.g. "java.base").
func (cp *ConstantPool) ModuleNameAt(index int) (string, error) {
	e, err := cp.GetOfType(index, TagModule)
	if err != nil {
		return "", err
	}
	return cp.UTF8At(int(e.UTF8Index))
}

// PackageNameAt resolves a CONSTANT_Package_info at index to the
// package's binary name (e.g. "java/lang").
func (cp *ConstantPool) PackageNameAt(index int) (string, error) {
	e, err := cp.GetOfType(index, TagPackage)
	if err != nil {
		return "", err
	}
	return cp.UTF8At(int(e.UTF8Index))
}

// NameAndTypeAt resolves a CONSTANT_NameAndType_info at index into its
// name and descriptor strings.
func (cp *ConstantPool) NameAndTypeAt(index int) (name, desc string, err error) {
	e, err := cp.GetOfType(index, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	name, err = cp.UTF8At(int(e.NameIndex))
	if err != nil {
		return "", "", err
	}
	desc, err = cp.UTF8At(int(e.DescIndex))
	if err != nil {
		return "", "", err
	}
	return name, desc, nil
}

// MemberRefAt resolves a field/method/interface-method ref at index
// (any of the three ref tags) into (className, memberName,
// descriptor). Grounded on jacobin's CPutils.go GetMethInfoFromCPmethref.
func (cp *ConstantPool) MemberRefAt(index int) (className, memberName, descriptor string, err error) {
	e, err := cp.Get(index)
	if err != nil {
		return "", "", "", err
	}
	switch e.Tag {
	case TagFieldRef, TagMethodRef, TagInterfaceMethodRef:
	default:
		return "", "", "", &InvalidConstantPoolIndexType{Index: index, Want: TagMethodRef, Got: e.Tag}
	}
	className, err = cp.ClassNameAt(int(e.ClassIndex))
	if err != nil {
		return "", "", "", err
	}
	memberName, descriptor, err = cp.NameAndTypeAt(int(e.NameAndTypeIndex))
	if err != nil {
		return "", "", "", err
	}
	return className, memberName, descriptor, nil
}

// UTF8Index returns the index of a CONSTANT_Utf8_info entry whose
// value equals s, for re-deriving an attribute_name_index when
// serializing. Every attribute name this engine emits was read from
// the pool in the first place (Parse always populates it before
// Serialize runs on the same ClassFile), so linear scan is acceptable
// here and avoids maintaining a reverse index for the uncommon
// serialize path.
func (cp *ConstantPool) UTF8Index(s string) (uint16, error) {
	for i, e := range cp.Entries {
		if e.Tag == TagUTF8 && e.UTF8 == s {
			return uint16(i), nil
		}
	}
	return 0, fmt.Errorf("classfile: no constant pool UTF8 entry for %q", s)
}

// width returns how many consecutive constant-pool slots this tag
// occupies: 2 for long/double, 1 otherwise (spec.md §3).
func (t Tag) width() int {
	if t == TagLong || t == TagDouble {
		return 2
	}
	return 1
}
