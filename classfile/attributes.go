/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

// Attribute is the sum type over every attribute kind spec.md §3
// names. Each concrete type below implements it; AttrName returns the
// attribute_name_index's resolved string so generic code (serializers,
// dumpers) doesn't need a type switch just to print a name.
type Attribute interface {
	AttrName() string
}

// Unknown preserves the raw bytes of any attribute this engine doesn't
// interpret, per spec.md §3's "unknown (preserve bytes)" -- round-trip
// serialization must reproduce attributes it doesn't understand
// byte-for-byte.
type Unknown struct {
	Name string
	Data []byte
}

func (a *Unknown) AttrName() string { return a.Name }

// CodeAttribute is the Code attribute: the method's bytecode plus its
// exception table and sub-attributes. Appears at most once per method
// (spec.md §3 invariant), never on abstract/native methods.
type CodeAttribute struct {
	MaxStack  int
	MaxLocals int

	// Instructions is the decoded bytecode. Branch targets inside each
	// Instruction are already canonicalised to indices into this
	// slice, not raw byte offsets (spec.md §4.1).
	Instructions []Instruction

	// ByteOffsetToIndex maps the original byte offset of each decoded
	// instruction to its index in Instructions. Needed to canonicalise
	// StackMapTable offsets (which are byte deltas) and exception
	// table pcs, both encoded in the original byte-offset space.
	ByteOffsetToIndex map[int]int

	ExceptionTable []ExceptionTableEntry

	Attributes []Attribute

	// StackMapTable, if present, is also reachable via Attributes but
	// hoisted here because the verifier's fast path needs it directly
	// and may not want to do attribute-kind dispatch twice.
	StackMapTable *StackMapTableAttribute
}

func (a *CodeAttribute) AttrName() string { return "Code" }

// ExceptionTableEntry is one row of a Code attribute's exception
// table (spec.md §4.9 "Exception table lookup"). StartPC/EndPC/
// HandlerPC are instruction indices (canonicalised at parse time);
// CatchClass is 0 for "catch any" (a finally block).
type ExceptionTableEntry struct {
	StartPC    int
	EndPC      int
	HandlerPC  int
	CatchClass uint16 // CP index of a CONSTANT_Class_info, or 0
}

// StackMapFrame is one absolute (not delta-encoded) entry of a
// StackMapTable, indexed to an instruction (spec.md §4.3: "Decode the
// StackMapTable into absolute ... instruction-indexed frames").
type StackMapFrame struct {
	InstructionIndex int
	Locals           []VType
	Stack            []VType
}

// VType is the wire encoding of a verification type inside a
// StackMapTable entry, before it's been related to the verifier's
// vtype.VerificationType (which additionally needs a ClassHierarchy to
// resolve CP-indexed Object entries into class names). Kept separate
// from vtype to avoid classfile depending on vtype -- the verifier
// package bridges the two.
type VType struct {
	Tag       VTypeTag
	CPIndex   uint16 // valid when Tag == VTypeObject
	Offset    int    // valid when Tag == VTypeUninitialized (instruction index of `new`)
}

type VTypeTag byte

const (
	VTypeTop VTypeTag = iota
	VTypeInteger
	VTypeFloat
	VTypeDouble
	VTypeLong
	VTypeNull
	VTypeUninitializedThis
	VTypeObject
	VTypeUninitialized
)

// StackMapTableAttribute holds every absolute frame recorded for a
// method's Code attribute.
type StackMapTableAttribute struct {
	Frames []StackMapFrame
}

func (a *StackMapTableAttribute) AttrName() string { return "StackMapTable" }

// LineNumberTable maps bytecode offsets back to source lines.
type LineNumberTableAttribute struct {
	Entries []BytecodeToSourceLine
}

func (a *LineNumberTableAttribute) AttrName() string { return "LineNumberTable" }

// BytecodeToSourceLine is one row of a LineNumberTable. Despite its
// name, InstructionIndex holds the raw start_pc byte offset: unlike
// branch targets, line-number entries are not canonicalised.
type BytecodeToSourceLine struct {
	InstructionIndex int
	LineNumber       int
}

// LocalVariableTableAttribute records the names/types/scopes of local
// variables, used by debuggers, not by execution.
type LocalVariableTableAttribute struct {
	Entries []LocalVariableEntry
}

func (a *LocalVariableTableAttribute) AttrName() string { return "LocalVariableTable" }

type LocalVariableEntry struct {
	StartPC   int
	Length    int
	NameIndex uint16
	DescIndex uint16
	Index     uint16
}

// ExceptionsAttribute lists the checked exceptions a method declares
// via `throws`.
type ExceptionsAttribute struct {
	ExceptionIndexTable []uint16 // CP indices of CONSTANT_Class_info
}

func (a *ExceptionsAttribute) AttrName() string { return "Exceptions" }

// InnerClassesAttribute records nested-class relationships.
type InnerClassesAttribute struct {
	Classes []InnerClassEntry
}

func (a *InnerClassesAttribute) AttrName() string { return "InnerClasses" }

type InnerClassEntry struct {
	InnerClassInfoIndex   uint16
	OuterClassInfoIndex   uint16
	InnerNameIndex        uint16
	InnerClassAccessFlags AccessFlags
}

// SourceFileAttribute names the source file a class was compiled from.
type SourceFileAttribute struct {
	SourceFileIndex uint16 // CP index of a UTF8 entry
}

func (a *SourceFileAttribute) AttrName() string { return "SourceFile" }

// SignatureAttribute carries a generic-type signature string.
type SignatureAttribute struct {
	SignatureIndex uint16
}

func (a *SignatureAttribute) AttrName() string { return "Signature" }

// Annotation is one @Annotation instance; ElementValuePairs are left
// as raw name/value-blob pairs since interpreting annotation element
// values is out of this engine's scope (spec.md's "out of scope" list
// implicitly covers reflection-only metadata).
type Annotation struct {
	TypeIndex         uint16
	ElementValuePairs []byte // raw, unparsed
}

// RuntimeVisibleAnnotationsAttribute lists a class/field/method's
// runtime-visible annotations.
type RuntimeVisibleAnnotationsAttribute struct {
	Annotations []Annotation
}

func (a *RuntimeVisibleAnnotationsAttribute) AttrName() string { return "RuntimeVisibleAnnotations" }

// TypeAnnotation is one entry of a RuntimeVisibleTypeAnnotations or
// RuntimeInvisibleTypeAnnotations attribute: a type_annotation
// structure (JVMS §4.7.20) discriminated by TargetType. TargetInfo and
// the remaining target_path/type_index/element_value_pairs fields are
// left as raw bytes -- this engine only needs to recognise the target
// codes spec.md §4.1 calls out, not interpret annotation payloads.
type TypeAnnotation struct {
	TargetType TargetType
	Rest       []byte // target_info onward, unparsed
}

// RuntimeVisibleTypeAnnotationsAttribute lists a class/field/method/
// Code attribute's type annotations (spec.md §4.1 "Target-type
// attribute"). Name distinguishes the visible and invisible variants,
// which share an identical structure (JVMS §4.7.20).
type RuntimeVisibleTypeAnnotationsAttribute struct {
	Name        string
	Annotations []TypeAnnotation
}

func (a *RuntimeVisibleTypeAnnotationsAttribute) AttrName() string { return a.Name }

// BootstrapMethodsAttribute backs invokedynamic call sites.
type BootstrapMethodsAttribute struct {
	Methods []BootstrapMethod
}

func (a *BootstrapMethodsAttribute) AttrName() string { return "BootstrapMethods" }

type BootstrapMethod struct {
	MethodRefIndex uint16 // CP index of a CONSTANT_MethodHandle_info
	Arguments      []uint16
}

// ModuleRequires/Exports/Opens/Provides mirror the module-info.class
// structures spec.md §3 "Module, ResolvedConfiguration" describes.
type ModuleRequires struct {
	Index uint16 // CP index of a CONSTANT_Module_info
	Flags uint16
}

const (
	ModuleRequiresTransitive uint16 = 0x0020
	ModuleRequiresStatic     uint16 = 0x0040
)

type ModuleExports struct {
	Index   uint16 // CP index of a CONSTANT_Package_info
	Flags   uint16
	ToIndex []uint16 // CP indices of CONSTANT_Module_info, empty => unqualified
}

type ModuleOpens struct {
	Index   uint16
	Flags   uint16
	ToIndex []uint16
}

type ModuleProvides struct {
	Index         uint16 // CP index of CONSTANT_Class_info (the service)
	WithIndex     []uint16
}

// ModuleAttribute is the Module attribute carried on a module-info
// class file.
type ModuleAttribute struct {
	NameIndex    uint16
	Flags        uint16
	VersionIndex uint16 // 0 if absent

	Requires []ModuleRequires
	Exports  []ModuleExports
	Opens    []ModuleOpens
	Uses     []uint16 // CP indices of CONSTANT_Class_info
	Provides []ModuleProvides
}

func (a *ModuleAttribute) AttrName() string { return "Module" }

const (
	ModuleFlagOpen      uint16 = 0x0020
	ModuleFlagMandated  uint16 = 0x8000
	ModuleFlagSynthetic uint16 = 0x1000
)

// RecordComponent is one component of a `record` class.
type RecordComponent struct {
	NameIndex uint16
	DescIndex uint16
	Attributes []Attribute
}

// RecordAttribute lists a record class's components (spec.md §4.3
// "Record attribute").
type RecordAttribute struct {
	Components []RecordComponent
}

func (a *RecordAttribute) AttrName() string { return "Record" }

// NestHostAttribute names the nest host of a nestmate class.
type NestHostAttribute struct {
	HostClassIndex uint16
}

func (a *NestHostAttribute) AttrName() string { return "NestHost" }

// NestMembersAttribute lists the member classes of a nest host.
type NestMembersAttribute struct {
	Classes []uint16
}

func (a *NestMembersAttribute) AttrName() string { return "NestMembers" }

// PermittedSubclassesAttribute lists a sealed class's allowed subtypes.
type PermittedSubclassesAttribute struct {
	Classes []uint16
}

func (a *PermittedSubclassesAttribute) AttrName() string { return "PermittedSubclasses" }
