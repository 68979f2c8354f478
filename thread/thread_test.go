/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package thread

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theseus-rs/ristretto-sub006/frames"
)

func TestNewThreadDefaultName(t *testing.T) {
	th := NewThread()
	require.Contains(t, th.Name(), "Thread-")
	require.Equal(t, New, th.Status())
}

func TestFrameStackPushPopDepth(t *testing.T) {
	th := NewThread()
	require.Equal(t, 0, th.Depth())

	f1 := frames.NewFrame("C", "a", "()V", 0, 0)
	f2 := frames.NewFrame("C", "b", "()V", 0, 0)
	th.PushFrame(f1)
	th.PushFrame(f2)
	require.Equal(t, 2, th.Depth())
	require.Same(t, f2, th.CurrentFrame())

	require.Same(t, f2, th.PopFrame())
	require.Same(t, f1, th.CurrentFrame())
}

func TestStackTraceOrdersNewestFirst(t *testing.T) {
	th := NewThread()
	th.PushFrame(frames.NewFrame("C", "older", "()V", 0, 0))
	th.PushFrame(frames.NewFrame("C", "newer", "()V", 0, 0))

	trace := th.StackTrace()
	require.Equal(t, []string{"C.newer", "C.older"}, trace)
}

func TestClinitWaitersBoundsConcurrency(t *testing.T) {
	gate := NewClinitWaiters(1)
	ctx := context.Background()
	require.NoError(t, gate.Wait(ctx))

	ctxTimeout, cancel := context.WithCancel(ctx)
	cancel()
	err := gate.Wait(ctxTimeout)
	require.Error(t, err)

	gate.Done()
	require.NoError(t, gate.Wait(ctx))
}
