/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// stubObject is a minimal Traceable for exercising the collector
// without pulling in package object (which already depends on gc).
type stubObject struct {
	name string
	refs []Traceable
}

func (s *stubObject) References() []Traceable { return s.refs }

type finalizingObject struct {
	stubObject
	finalized *bool
}

func (f *finalizingObject) Finalize() { *f.finalized = true }

func TestCollectBeforeStartIsNoop(t *testing.T) {
	c := New()
	require.NoError(t, c.Collect())
	require.Equal(t, uint64(0), c.Statistics().CollectionsStarted)
}

func TestRootSurvivesCollection(t *testing.T) {
	c := New()
	c.Start()

	root := &stubObject{name: "root"}
	c.RegisterObject(root, 4)
	guard := c.NewRoot(root)
	defer guard.Release()

	require.NoError(t, c.Collect())

	stats := c.Statistics()
	require.Equal(t, uint64(1), stats.CollectionsStarted)
	require.Equal(t, uint64(1), stats.CollectionsCompleted)
	require.Equal(t, uint64(4), stats.BytesAllocated)
	require.Equal(t, uint64(0), stats.BytesFreed)
}

func TestUnrootedObjectIsCollected(t *testing.T) {
	c := New()
	c.Start()

	garbage := &stubObject{name: "garbage"}
	c.RegisterObject(garbage, 8)

	require.NoError(t, c.Collect())

	stats := c.Statistics()
	require.Equal(t, uint64(8), stats.BytesFreed)
}

func TestReachableViaRootSurvives(t *testing.T) {
	c := New()
	c.Start()

	child := &stubObject{name: "child"}
	parent := &stubObject{name: "parent", refs: []Traceable{child}}
	c.RegisterObject(parent, 4)
	c.RegisterObject(child, 4)
	guard := c.NewRoot(parent)
	defer guard.Release()

	require.NoError(t, c.Collect())
	require.Equal(t, uint64(0), c.Statistics().BytesFreed)
}

func TestReleasedRootBecomesCollectible(t *testing.T) {
	c := New()
	c.Start()

	obj := &stubObject{name: "obj"}
	c.RegisterObject(obj, 4)
	guard := c.NewRoot(obj)
	require.NoError(t, c.Collect())
	require.Equal(t, uint64(0), c.Statistics().BytesFreed)

	guard.Release()
	require.NoError(t, c.Collect())
	require.Equal(t, uint64(4), c.Statistics().BytesFreed)
}

func TestStopThenCollectIsNoop(t *testing.T) {
	c := New()
	c.Start()
	c.Stop()
	require.NoError(t, c.Collect())
	require.Equal(t, uint64(0), c.Statistics().CollectionsStarted)

	// stopping twice must not panic or error
	c.Stop()
}

func TestFinalizerQueuedOnSweep(t *testing.T) {
	c := New()
	c.Start()

	finalized := false
	obj := &finalizingObject{stubObject: stubObject{name: "f"}, finalized: &finalized}
	c.RegisterObject(obj, 4)

	require.NoError(t, c.Collect())
	require.False(t, finalized, "finalizer must not run during Collect itself")

	c.DrainFinalizers()
	require.True(t, finalized)
}

func TestParallelMarkAboveThreshold(t *testing.T) {
	c := NewWithConfig(Configuration{
		Threads:           4,
		ParallelThreshold: 1,
	})
	c.Start()

	var guards []*RootGuard
	for i := 0; i < 10; i++ {
		obj := &stubObject{name: "root"}
		c.RegisterObject(obj, 1)
		guards = append(guards, c.NewRoot(obj))
	}
	defer func() {
		for _, g := range guards {
			g.Release()
		}
	}()

	require.NoError(t, c.Collect())
	require.Equal(t, uint64(0), c.Statistics().BytesFreed)
}

func TestShouldCollectCrossesAllocationThreshold(t *testing.T) {
	c := NewWithConfig(Configuration{AllocationThreshold: 10})
	require.False(t, c.ShouldCollect())
	c.RegisterObject(&stubObject{}, 16)
	require.True(t, c.ShouldCollect())
}
