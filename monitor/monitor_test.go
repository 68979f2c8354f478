/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireReleaseRoundTrip(t *testing.T) {
	m := New()
	m.Acquire(1)
	full, err := m.Release(1)
	require.NoError(t, err)
	require.True(t, full)
}

func TestReentrantAcquireNeedsMatchingReleases(t *testing.T) {
	m := New()
	m.Acquire(1)
	m.Acquire(1)
	require.Equal(t, 2, m.HoldCount(1))

	full, err := m.Release(1)
	require.NoError(t, err)
	require.False(t, full)

	full, err = m.Release(1)
	require.NoError(t, err)
	require.True(t, full)
}

func TestReleaseByNonOwnerFails(t *testing.T) {
	m := New()
	m.Acquire(1)
	_, err := m.Release(2)
	require.Error(t, err)
	var ims *IllegalMonitorState
	require.ErrorAs(t, err, &ims)
}

func TestNotifyByNonOwnerFails(t *testing.T) {
	m := New()
	m.Acquire(1)
	defer m.Release(1)
	err := m.Notify(2)
	require.Error(t, err)
}

func TestWaitNotifyWakesWaiter(t *testing.T) {
	m := New()
	m.Acquire(1)

	woken := make(chan struct{})
	go func() {
		m.Acquire(2)
		defer m.Release(2)
		require.NoError(t, m.Wait(2))
		close(woken)
	}()

	time.Sleep(20 * time.Millisecond)
	_, err := m.Release(1)
	require.NoError(t, err)

	m.Acquire(1)
	require.NoError(t, m.Notify(1))
	m.Release(1)

	select {
	case <-woken:
	case <-time.After(time.Second):
		t.Fatal("waiter was never woken")
	}
}

func TestRegistryReusesMonitorForSameIdentity(t *testing.T) {
	r := NewRegistry()
	obj := new(int)
	m1 := r.MonitorFor(obj)
	m2 := r.MonitorFor(obj)
	require.Same(t, m1, m2)
}
