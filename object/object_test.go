/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewObjectZeroInitializesFields(t *testing.T) {
	klass := NewClass("com/example/Point", "java/lang/Object", nil)
	klass.FieldNames = []string{"x", "y", "label"}
	klass.FieldTypes = map[string]string{
		"x":     "I",
		"y":     "J",
		"label": "Ljava/lang/String;",
	}

	obj := NewObject(klass)
	x, ok := obj.GetField("x")
	require.True(t, ok)
	require.Equal(t, int32(0), x.Fvalue)

	y, ok := obj.GetField("y")
	require.True(t, ok)
	require.Equal(t, int64(0), y.Fvalue)

	label, ok := obj.GetField("label")
	require.True(t, ok)
	require.Nil(t, label.Fvalue)
}

func TestMakeEmptyObjectHasNoFields(t *testing.T) {
	obj := MakeEmptyObject()
	require.NotNil(t, obj.FieldTable)
	require.Empty(t, obj.FieldTable)
}

func TestClassInitStateMachine(t *testing.T) {
	klass := NewClass("com/example/Widget", "java/lang/Object", nil)
	require.Equal(t, Uninitialized, klass.State())

	proceed, reentrant := klass.BeginInit(1)
	require.True(t, proceed)
	require.False(t, reentrant)
	require.Equal(t, Initializing, klass.State())

	// A second thread must wait, not re-run <clinit>.
	proceed, reentrant = klass.BeginInit(2)
	require.False(t, proceed)
	require.False(t, reentrant)

	// The owning thread re-entering sees the reentrant case.
	proceed, reentrant = klass.BeginInit(1)
	require.False(t, proceed)
	require.True(t, reentrant)

	klass.FinishInit(true)
	require.Equal(t, Initialized, klass.State())
}

func TestClassInitFailurePermanentlyErrors(t *testing.T) {
	klass := NewClass("com/example/Broken", "java/lang/Object", nil)
	klass.BeginInit(1)
	klass.FinishInit(false)
	require.Equal(t, Error, klass.State())

	proceed, _ := klass.BeginInit(2)
	require.False(t, proceed)
}

func TestStringObjectRoundTrip(t *testing.T) {
	obj := StringObjectFromGoString("hello")
	require.Equal(t, "hello", GoStringFromStringObject(obj))
}

func TestArrayAllocation(t *testing.T) {
	arr, err := NewArray("I", 4)
	require.NoError(t, err)
	require.Equal(t, 4, arr.Len())
	ints, ok := arr.Elements.([]int32)
	require.True(t, ok)
	require.Equal(t, []int32{0, 0, 0, 0}, ints)
}

func TestArrayNegativeLengthRejected(t *testing.T) {
	_, err := NewArray("I", -1)
	require.Error(t, err)
}

func TestByteArrayEqualsIgnoreCase(t *testing.T) {
	require.True(t, ByteArrayEqualsIgnoreCase([]byte("ABC"), []byte("abc")))
	require.False(t, ByteArrayEqualsIgnoreCase([]byte("ABC"), []byte("abd")))
}
