/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package verifier

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theseus-rs/ristretto-sub006/classfile"
	"github.com/theseus-rs/ristretto-sub006/opcodes"
)

// buildExampleClass constructs (without going through the byte codec)
// a class Example extends java/lang/Object with a single static
// method main(I)I whose body is `iload_0; ireturn`. version controls
// whether RequiresStackMapTable is in effect; withStackMapTable, when true,
// attaches an (empty, since this body has no jump targets) non-nil
// StackMapTable so the fast path has a table to work with.
func buildExampleClass(major uint16, withStackMapTable bool) *classfile.ClassFile {
	cp := &classfile.ConstantPool{Entries: []classfile.CpEntry{
		{},                                                       // 0 reserved
		{Tag: classfile.TagUTF8, UTF8: "Example"},                // 1
		{Tag: classfile.TagClass, UTF8Index: 1},                  // 2
		{Tag: classfile.TagUTF8, UTF8: "java/lang/Object"},       // 3
		{Tag: classfile.TagClass, UTF8Index: 3},                  // 4
		{Tag: classfile.TagUTF8, UTF8: "main"},                   // 5
		{Tag: classfile.TagUTF8, UTF8: "(I)I"},                   // 6
	}}

	code := &classfile.CodeAttribute{
		MaxStack:  1,
		MaxLocals: 1,
		Instructions: []classfile.Instruction{
			{Op: opcodes.ILOAD_0},
			{Op: opcodes.IRETURN},
		},
	}
	if withStackMapTable {
		code.StackMapTable = &classfile.StackMapTableAttribute{}
	}

	method := &classfile.Method{
		AccessFlags: classfile.AccPublic | classfile.AccStatic,
		NameIndex:   5,
		DescIndex:   6,
		Code:        code,
	}

	return &classfile.ClassFile{
		Version:      classfile.Version{Major: major},
		ConstantPool: cp,
		AccessFlags:  classfile.AccPublic | classfile.AccSuper,
		ThisClass:    2,
		SuperClass:   4,
		Methods:      []*classfile.Method{method},
	}
}

func TestVerifyMethodFastPathStraightLine(t *testing.T) {
	cf := buildExampleClass(61, true)
	result, err := VerifyMethod(cf, cf.Methods[0], nil, DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, PathFastPath, result.Path)
}

func TestVerifyMethodInferenceWhenVersionBelow50(t *testing.T) {
	cf := buildExampleClass(49, false)
	result, err := VerifyMethod(cf, cf.Methods[0], nil, DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, PathInference, result.Path)
}

func TestVerifyMethodFallsBackWhenTableAbsent(t *testing.T) {
	cf := buildExampleClass(61, false)
	cfg := DefaultConfig()
	cfg.AllowInferenceFallback = true
	result, err := VerifyMethod(cf, cf.Methods[0], nil, cfg)
	require.NoError(t, err)
	require.Equal(t, PathInference, result.Path)
}

func TestVerifyMethodNoFallbackReportsAbsence(t *testing.T) {
	cf := buildExampleClass(61, false)
	cfg := Config{AllowInferenceFallback: false}
	_, err := VerifyMethod(cf, cf.Methods[0], nil, cfg)
	require.Error(t, err)
}

func TestCheckCodePresenceAbstractWithCode(t *testing.T) {
	m := &classfile.Method{
		AccessFlags: classfile.AccAbstract,
		Code:        &classfile.CodeAttribute{},
	}
	err := CheckCodePresence(m)
	require.Error(t, err)
	var mc *MissingCode
	require.ErrorAs(t, err, &mc)
	require.True(t, mc.HasCode)
}

func TestCheckCodePresenceConcreteMissingCode(t *testing.T) {
	m := &classfile.Method{AccessFlags: classfile.AccPublic}
	err := CheckCodePresence(m)
	require.Error(t, err)
}

func TestCheckMaxLocalsInsufficient(t *testing.T) {
	m := &classfile.Method{
		AccessFlags: classfile.AccPublic, // instance method, needs a `this` slot
		Code:        &classfile.CodeAttribute{MaxLocals: 1},
	}
	md := &classfile.MethodDescriptor{Parameters: []classfile.FieldType{{Kind: classfile.FieldInt}}}
	err := CheckMaxLocals(m, md)
	require.Error(t, err)
}

func TestVerifyMethodCachedHitsOnSecondCall(t *testing.T) {
	cf := buildExampleClass(61, true)
	cache := NewCache(true)

	r1, err := VerifyMethodCached(cf, cf.Methods[0], nil, DefaultConfig(), cache)
	require.NoError(t, err)
	require.Equal(t, PathFastPath, r1.Path)

	r2, err := VerifyMethodCached(cf, cf.Methods[0], nil, DefaultConfig(), cache)
	require.NoError(t, err)
	require.Equal(t, PathCached, r2.Path)

	stats := cache.Stats()
	require.Equal(t, uint64(1), stats.ResultHits)
}

func TestVerifyClassChecksRecordComponents(t *testing.T) {
	cf := buildExampleClass(61, true)
	cp := cf.ConstantPool
	cp.Entries = append(cp.Entries,
		classfile.CpEntry{Tag: classfile.TagUTF8, UTF8: "x"}, // 7
		classfile.CpEntry{Tag: classfile.TagUTF8, UTF8: "I"}, // 8
	)
	cf.Attributes = []classfile.Attribute{
		&classfile.RecordAttribute{Components: []classfile.RecordComponent{
			{NameIndex: 7, DescIndex: 8},
			{NameIndex: 7, DescIndex: 8}, // duplicate name "x"
		}},
	}
	_, err := VerifyClass(cf, nil, DefaultConfig(), nil)
	require.Error(t, err)
	var dup *SplitRecordComponent
	require.ErrorAs(t, err, &dup)
}
