/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package methodref

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theseus-rs/ristretto-sub006/object"
)

func TestMarkResolvingDetectsRecursion(t *testing.T) {
	c := NewCache()
	key := Key{CallerClass: "com/example/A", CPIndex: 3}
	require.True(t, c.MarkResolving(key))
	require.False(t, c.MarkResolving(key))
}

func TestStoreAndGetResolved(t *testing.T) {
	c := NewCache()
	key := Key{CallerClass: "com/example/A", CPIndex: 3}
	klass := object.NewClass("com/example/B", "java/lang/Object", nil)
	resolved := NewResolved(klass, "doIt", "(I)V", "(I)V", Virtual)

	c.StoreResolved(key, resolved)
	got, err, ok := c.Get(key)
	require.True(t, ok)
	require.NoError(t, err)
	require.Same(t, resolved, got)
}

func TestStoreAndGetFailed(t *testing.T) {
	c := NewCache()
	key := Key{CallerClass: "com/example/A", CPIndex: 3}
	failure := &ResolutionError{Kind: NoSuchMethod, Message: "doIt(I)V"}
	c.StoreFailed(key, failure)

	_, err, ok := c.Get(key)
	require.True(t, ok)
	require.Error(t, err)
	require.Equal(t, failure, err)
}

func TestUnresolvedKeyIsMiss(t *testing.T) {
	c := NewCache()
	_, _, ok := c.Get(Key{CallerClass: "x", CPIndex: 1})
	require.False(t, ok)
}

func TestPolymorphicMethodComputesCallSiteArity(t *testing.T) {
	klass := object.NewClass("java/lang/invoke/MethodHandle", "java/lang/Object", nil)
	resolved := NewResolved(klass, "invoke", "([Ljava/lang/Object;)Ljava/lang/Object;", "(ILjava/lang/String;)J", Virtual)
	require.True(t, resolved.IsPolymorphic)
	require.Equal(t, 2, resolved.ParamCount)
	require.True(t, resolved.HasReturnType)
}

func TestNonPolymorphicUsesDeclaredDescriptor(t *testing.T) {
	klass := object.NewClass("com/example/B", "java/lang/Object", nil)
	resolved := NewResolved(klass, "doIt", "(IJ)V", "ignored", Static)
	require.False(t, resolved.IsPolymorphic)
	require.Equal(t, 2, resolved.ParamCount)
	require.False(t, resolved.HasReturnType)
}
