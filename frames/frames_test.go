/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frames

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushPopOrdering(t *testing.T) {
	f := NewFrame("C", "m", "()V", 0, 4)
	f.Push(IntValue(1))
	f.Push(IntValue(2))
	require.Equal(t, int32(2), f.Pop().I)
	require.Equal(t, int32(1), f.Pop().I)
}

func TestSetLocalClearsSecondSlotForCategory2(t *testing.T) {
	f := NewFrame("C", "m", "(J)V", 3, 2)
	f.SetLocal(0, LongValue(42))
	v, err := f.GetLocal(0).AsLong()
	require.NoError(t, err)
	require.Equal(t, int64(42), v)
	require.Equal(t, Unused, f.GetLocal(1).Kind)
}

func TestTypedAccessorMismatch(t *testing.T) {
	_, err := IntValue(1).AsLong()
	require.Error(t, err)
	var mismatch *TypeMismatch
	require.ErrorAs(t, err, &mismatch)
}

func TestCategoryOfLongAndDouble(t *testing.T) {
	require.Equal(t, 2, LongValue(1).Category())
	require.Equal(t, 2, DoubleValue(1).Category())
	require.Equal(t, 1, IntValue(1).Category())
	require.Equal(t, 1, NullValue().Category())
}
