/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theseus-rs/ristretto-sub006/opcodes"
)

// buildMinimalClass assembles the bytes of a tiny but structurally
// complete class file: a public class Example extends java/lang/Object
// with a single static method main(I)I whose body is `iload_0; ireturn`,
// carrying a StackMapTable with one SAME frame.
func buildMinimalClass() []byte {
	w := &writer{}
	w.u4(classMagic)
	w.u2(0)  // minor
	w.u2(61) // major (Java 17)

	// Constant pool: 1=Utf8"Example" 2=Class#1 3=Utf8"java/lang/Object"
	// 4=Class#3 5=Utf8"main" 6=Utf8"(I)I" 7=Utf8"Code" 8=Utf8"StackMapTable"
	entries := []func(){
		func() { w.u1(byte(TagUTF8)); w.u2(7); w.bytes([]byte("Example")) },
		func() { w.u1(byte(TagClass)); w.u2(1) },
		func() { w.u1(byte(TagUTF8)); w.u2(16); w.bytes([]byte("java/lang/Object")) },
		func() { w.u1(byte(TagClass)); w.u2(3) },
		func() { w.u1(byte(TagUTF8)); w.u2(4); w.bytes([]byte("main")) },
		func() { w.u1(byte(TagUTF8)); w.u2(4); w.bytes([]byte("(I)I")) },
		func() { w.u1(byte(TagUTF8)); w.u2(4); w.bytes([]byte("Code")) },
		func() { w.u1(byte(TagUTF8)); w.u2(14); w.bytes([]byte("StackMapTable")) },
	}
	w.u2(uint16(len(entries) + 1))
	for _, e := range entries {
		e()
	}

	w.u2(uint16(AccPublic | AccSuper)) // access_flags
	w.u2(2)                            // this_class
	w.u2(4)                            // super_class
	w.u2(0)                            // interfaces_count
	w.u2(0)                            // fields_count

	w.u2(1) // methods_count
	w.u2(uint16(AccPublic | AccStatic))
	w.u2(5) // name_index -> "main"
	w.u2(6) // descriptor_index -> "(I)I"
	w.u2(1) // attributes_count (Code)

	w.u2(7) // attribute_name_index -> "Code"
	code := &writer{}
	code.u2(1) // max_stack
	code.u2(1) // max_locals
	body := []byte{byte(opcodes.ILOAD_0), byte(opcodes.IRETURN)}
	code.u4(uint32(len(body)))
	code.bytes(body)
	code.u2(0) // exception_table_length
	code.u2(1) // Code's attributes_count (StackMapTable)
	code.u2(8) // attribute_name_index -> "StackMapTable"
	smtBody := []byte{0, 1, 1} // number_of_entries=1, frame_type=1 (SAME, delta 1)
	code.u4(uint32(len(smtBody)))
	code.bytes(smtBody)

	w.u4(uint32(len(code.buf)))
	w.bytes(code.buf)

	w.u2(0) // class attributes_count

	return w.buf
}

func TestParseMinimalClass(t *testing.T) {
	data := buildMinimalClass()
	cf, err := Parse(data)
	require.NoError(t, err)

	require.Equal(t, Version{Major: 61, Minor: 0}, cf.Version)

	name, err := cf.ThisClassName()
	require.NoError(t, err)
	require.Equal(t, "Example", name)

	super, err := cf.SuperClassName()
	require.NoError(t, err)
	require.Equal(t, "java/lang/Object", super)

	require.Len(t, cf.Methods, 1)
	m := cf.Methods[0]
	require.NotNil(t, m.Code)
	require.Equal(t, 1, m.Code.MaxStack)
	require.Equal(t, 1, m.Code.MaxLocals)
	require.Len(t, m.Code.Instructions, 2)
	require.Equal(t, opcodes.ILOAD_0, m.Code.Instructions[0].Op)
	require.Equal(t, opcodes.IRETURN, m.Code.Instructions[1].Op)

	require.NotNil(t, m.Code.StackMapTable)
	require.Len(t, m.Code.StackMapTable.Frames, 1)
	require.Equal(t, 1, m.Code.StackMapTable.Frames[0].InstructionIndex)
}

func TestParseSerializeRoundTrip(t *testing.T) {
	data := buildMinimalClass()
	cf, err := Parse(data)
	require.NoError(t, err)

	out, err := Serialize(cf)
	require.NoError(t, err)

	cf2, err := Parse(out)
	require.NoError(t, err)

	name1, _ := cf.ThisClassName()
	name2, _ := cf2.ThisClassName()
	require.Equal(t, name1, name2)
	require.Equal(t, cf.Version, cf2.Version)
	require.Len(t, cf2.Methods, len(cf.Methods))
	require.Equal(t, cf.Methods[0].Code.Instructions, cf2.Methods[0].Code.Instructions)
	require.Equal(t, cf.Methods[0].Code.StackMapTable.Frames, cf2.Methods[0].Code.StackMapTable.Frames)
}

func TestParseInvalidMagic(t *testing.T) {
	_, err := Parse([]byte{0, 0, 0, 0})
	require.Error(t, err)
	var im *InvalidMagic
	require.ErrorAs(t, err, &im)
}

func TestParseTruncated(t *testing.T) {
	data := buildMinimalClass()
	_, err := Parse(data[:len(data)-10])
	require.Error(t, err)
}

// FuzzParse exercises Parse against arbitrary byte streams: the codec
// must never panic, only return an error, on malformed input (spec.md
// §4.1's InvalidMagic/InvalidConstantPoolIndex/TruncatedInput family).
func FuzzParse(f *testing.F) {
	f.Add(buildMinimalClass())
	f.Add([]byte{0xCA, 0xFE, 0xBA, 0xBE})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Parse panicked on input: %v", r)
			}
		}()
		cf, err := Parse(data)
		if err != nil {
			return
		}
		_, _ = Serialize(cf)
	})
}
