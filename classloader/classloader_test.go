/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildTrivialClass assembles the bytes of a class with no fields,
// methods, or attributes: just enough for LoadClass/DefineClass to
// exercise the superclass chain. superName == "" produces
// java/lang/Object itself (super_class == 0).
func buildTrivialClass(thisName, superName string) []byte {
	var buf bytes.Buffer
	u1 := func(v byte) { buf.WriteByte(v) }
	u2 := func(v uint16) { binary.Write(&buf, binary.BigEndian, v) }
	u4 := func(v uint32) { binary.Write(&buf, binary.BigEndian, v) }
	utf8 := func(s string) {
		u1(1) // CONSTANT_Utf8
		u2(uint16(len(s)))
		buf.WriteString(s)
	}
	classEntry := func(utf8Index uint16) {
		u1(7) // CONSTANT_Class
		u2(utf8Index)
	}

	u4(0xCAFEBABE)
	u2(0)  // minor
	u2(61) // major

	var count uint16 = 1
	if superName != "" {
		count = 5
	} else {
		count = 3
	}
	u2(count) // constant_pool_count: entries written below + 1

	utf8(thisName) // #1
	classEntry(1)  // #2
	if superName != "" {
		utf8(superName) // #3
		classEntry(3)   // #4
	}

	u2(uint16(0x0021)) // ACC_PUBLIC | ACC_SUPER
	u2(2)               // this_class
	if superName != "" {
		u2(4) // super_class
	} else {
		u2(0)
	}
	u2(0) // interfaces_count
	u2(0) // fields_count
	u2(0) // methods_count
	u2(0) // class attributes_count

	return buf.Bytes()
}

func writeClassFile(t *testing.T, dir, binaryName string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, binaryName+".class")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestLoadClassResolvesSuperclassChain(t *testing.T) {
	dir := t.TempDir()
	writeClassFile(t, dir, "java/lang/Object", buildTrivialClass("java/lang/Object", ""))
	writeClassFile(t, dir, "com/example/Base", buildTrivialClass("com/example/Base", "java/lang/Object"))
	writeClassFile(t, dir, "com/example/Sub", buildTrivialClass("com/example/Sub", "com/example/Base"))

	loader := NewLoader("test", nil, NewDirectorySource(dir))
	klass, err := loader.LoadClass("com/example/Sub")
	require.NoError(t, err)
	require.Equal(t, "com/example/Sub", klass.Name)
	require.Equal(t, "com/example/Base", klass.SuperName)

	_, ok := loader.FindLoadedClass("com/example/Base")
	require.True(t, ok)
	_, ok = loader.FindLoadedClass("java/lang/Object")
	require.True(t, ok)
}

func TestLoadClassMissingReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader("test", nil, NewDirectorySource(dir))
	_, err := loader.LoadClass("nope/Missing")
	require.Error(t, err)
	var nf *ClassNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestInitOrderIsRootToLeaf(t *testing.T) {
	dir := t.TempDir()
	writeClassFile(t, dir, "java/lang/Object", buildTrivialClass("java/lang/Object", ""))
	writeClassFile(t, dir, "com/example/Base", buildTrivialClass("com/example/Base", "java/lang/Object"))
	writeClassFile(t, dir, "com/example/Sub", buildTrivialClass("com/example/Sub", "com/example/Base"))

	loader := NewLoader("test", nil, NewDirectorySource(dir))
	_, err := loader.LoadClass("com/example/Sub")
	require.NoError(t, err)

	order, err := loader.InitOrder("com/example/Sub")
	require.NoError(t, err)
	require.Equal(t, []string{"java/lang/Object", "com/example/Base", "com/example/Sub"}, order)
}

func TestHierarchyIsSubclassOf(t *testing.T) {
	dir := t.TempDir()
	writeClassFile(t, dir, "java/lang/Object", buildTrivialClass("java/lang/Object", ""))
	writeClassFile(t, dir, "com/example/Base", buildTrivialClass("com/example/Base", "java/lang/Object"))
	writeClassFile(t, dir, "com/example/Sub", buildTrivialClass("com/example/Sub", "com/example/Base"))

	loader := NewLoader("test", nil, NewDirectorySource(dir))
	h := NewHierarchy(loader)

	ok, err := h.IsSubclassOf("com/example/Sub", "com/example/Base")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = h.IsSubclassOf("com/example/Base", "com/example/Sub")
	require.NoError(t, err)
	require.False(t, ok)

	common, err := h.CommonSuperclass("com/example/Sub", "com/example/Base")
	require.NoError(t, err)
	require.Equal(t, "com/example/Base", common)
}

func TestHierarchyArrayHelpers(t *testing.T) {
	h := NewHierarchy(NewLoader("test", nil, nil))
	require.True(t, h.IsArray("[Ljava/lang/String;"))
	elem, ok := h.ArrayElement("[Ljava/lang/String;")
	require.True(t, ok)
	require.Equal(t, "java/lang/String", elem)

	elem, ok = h.ArrayElement("[I")
	require.True(t, ok)
	require.Equal(t, "I", elem)
}
