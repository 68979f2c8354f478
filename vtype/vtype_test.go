/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024-6 by the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package vtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHierarchy is a minimal ClassHierarchy stub for lattice tests
// that never need to actually resolve the standard library.
type fakeHierarchy struct {
	supers map[string]string // class -> direct superclass
}

func (h *fakeHierarchy) IsSubclassOf(sub, super string) (bool, error) {
	for c := sub; c != ""; c = h.supers[c] {
		if c == super {
			return true, nil
		}
	}
	return false, nil
}

func (h *fakeHierarchy) CommonSuperclass(a, b string) (string, error) {
	ancestors := map[string]bool{}
	for c := a; c != ""; c = h.supers[c] {
		ancestors[c] = true
	}
	for c := b; c != ""; c = h.supers[c] {
		if ancestors[c] {
			return c, nil
		}
	}
	return "java/lang/Object", nil
}

func (h *fakeHierarchy) IsArray(name string) bool {
	return len(name) > 0 && name[0] == '['
}

func (h *fakeHierarchy) ArrayElement(name string) (string, bool) {
	if !h.IsArray(name) {
		return "", false
	}
	return name[1:], true
}

func newFakeHierarchy() *fakeHierarchy {
	return &fakeHierarchy{supers: map[string]string{
		"java/lang/Integer": "java/lang/Number",
		"java/lang/Long":    "java/lang/Number",
		"java/lang/Number":  "java/lang/Object",
		"java/lang/String":  "java/lang/Object",
	}}
}

func TestMergeIdenticalTypes(t *testing.T) {
	merged, err := Merge(Integer, Integer, nil)
	require.NoError(t, err)
	assert.Equal(t, Integer, merged)
}

func TestMergeNullWithReference(t *testing.T) {
	merged, err := Merge(Null, Object("java/lang/String"), nil)
	require.NoError(t, err)
	assert.Equal(t, Object("java/lang/String"), merged)

	merged, err = Merge(Object("java/lang/String"), Null, nil)
	require.NoError(t, err)
	assert.Equal(t, Object("java/lang/String"), merged)
}

func TestMergeCategory2MismatchIsTop(t *testing.T) {
	merged, err := Merge(Long, Double, nil)
	require.NoError(t, err)
	assert.Equal(t, Top, merged)

	merged, err = Merge(Long, Integer, nil)
	require.NoError(t, err)
	assert.Equal(t, Top, merged)
}

func TestMergeUninitializedNeverMergesWithInitialized(t *testing.T) {
	merged, err := Merge(UninitializedThis, Object("java/lang/Object"), nil)
	require.NoError(t, err)
	assert.Equal(t, Top, merged)

	merged, err = Merge(Uninitialized(4), Uninitialized(9), nil)
	require.NoError(t, err)
	assert.Equal(t, Top, merged)
}

func TestMergeReferenceTypesToCommonSuperclass(t *testing.T) {
	h := newFakeHierarchy()
	merged, err := Merge(Object("java/lang/Integer"), Object("java/lang/Long"), h)
	require.NoError(t, err)
	assert.Equal(t, Object("java/lang/Number"), merged)
}

func TestMergeUnrelatedReferencesFallBackToObject(t *testing.T) {
	h := newFakeHierarchy()
	merged, err := Merge(Object("java/lang/Integer"), Object("java/lang/String"), h)
	require.NoError(t, err)
	assert.Equal(t, Object("java/lang/Object"), merged)
}

func TestMergeArraysOfSameElementKind(t *testing.T) {
	h := newFakeHierarchy()
	merged, err := Merge(Object("[Ljava/lang/String;"), Object("[Ljava/lang/String;"), h)
	require.NoError(t, err)
	assert.Equal(t, Object("[Ljava/lang/String;"), merged)
}

func TestMergeArrayWithNonArrayFallsBackToObject(t *testing.T) {
	h := newFakeHierarchy()
	merged, err := Merge(Object("[I"), Object("java/lang/String"), h)
	require.NoError(t, err)
	assert.Equal(t, Object("java/lang/Object"), merged)
}

func TestAssignableToTopAlwaysTrue(t *testing.T) {
	ok, err := AssignableTo(Integer, Top, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAssignableToSubclass(t *testing.T) {
	h := newFakeHierarchy()
	ok, err := AssignableTo(Object("java/lang/Integer"), Object("java/lang/Number"), h)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = AssignableTo(Object("java/lang/Number"), Object("java/lang/Integer"), h)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsCategory2(t *testing.T) {
	assert.True(t, Long.IsCategory2())
	assert.True(t, Double.IsCategory2())
	assert.False(t, Integer.IsCategory2())
	assert.False(t, Object("java/lang/Object").IsCategory2())
}
