/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package monitor implements the per-object lock every Java object
// carries: mutual exclusion plus wait/notify/notifyAll (spec.md
// §4.10). Grounded on ristretto_vm's monitor.rs, translated from its
// tokio::sync::Notify + semaphore design to sync.Mutex + sync.Cond,
// Go's native reentrant-lock-by-hand idiom -- a goroutine-blocking
// condition variable is the direct analogue of an async Notify here.
package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/theseus-rs/ristretto-sub006/excnames"
)

// Monitor is one object's lock: reentrant for its owning thread,
// supporting Object.wait/notify/notifyAll semantics.
type Monitor struct {
	mu         sync.Mutex
	cond       *sync.Cond
	owner      int64 // 0 means unowned; real thread IDs are assumed non-zero
	entryCount int
}

// New creates an unlocked monitor.
func New() *Monitor {
	m := &Monitor{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// IllegalMonitorState is returned whenever a caller not holding the
// monitor attempts release/wait/notify (spec.md §7).
type IllegalMonitorState struct{ Detail string }

func (e *IllegalMonitorState) Error() string {
	return fmt.Sprintf("%s: %s", excnames.IllegalMonitorStateException, e.Detail)
}

// Acquire locks the monitor for threadID, blocking until available.
// Reentrant: the owning thread may call Acquire again without
// blocking, incrementing the entry count.
func (m *Monitor) Acquire(threadID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.owner == threadID {
		m.entryCount++
		return
	}
	for m.owner != 0 {
		m.cond.Wait()
	}
	m.owner = threadID
	m.entryCount = 1
}

// Release decrements the entry count, fully releasing the monitor
// (and waking one blocked Acquire-er) when it reaches zero. Returns
// whether the release was full (vs. a nested monitorexit still
// leaving the thread holding the lock).
func (m *Monitor) Release(threadID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.owner != threadID {
		return false, &IllegalMonitorState{Detail: "current thread does not own the monitor"}
	}
	m.entryCount--
	if m.entryCount == 0 {
		m.owner = 0
		m.cond.Signal()
		return true, nil
	}
	return false, nil
}

// Wait releases the monitor entirely, blocks until Notify/NotifyAll,
// then re-acquires it at the same entry count the caller held before
// waiting (JLS 17.2.1's full wait/re-acquire contract).
func (m *Monitor) Wait(threadID int64) error {
	return m.waitFor(threadID, nil)
}

// WaitTimeout is Wait with a bound, matching Object.wait(long)
// (spec.md §6's "Supplemented Features" timed wait). It returns false
// (no error) when the deadline has passed by the time the monitor is
// re-acquired, so a notification arriving just before the deadline can
// still be reported as a timeout.
func (m *Monitor) WaitTimeout(threadID int64, timeout time.Duration) (notified bool, err error) {
	deadline := time.Now().Add(timeout)
	err = m.waitFor(threadID, &deadline)
	if err != nil {
		return false, err
	}
	return time.Now().Before(deadline), nil
}

func (m *Monitor) waitFor(threadID int64, deadline *time.Time) error {
	m.mu.Lock()
	if m.owner != threadID {
		m.mu.Unlock()
		return &IllegalMonitorState{Detail: "current thread does not own the monitor"}
	}
	savedCount := m.entryCount
	m.owner = 0
	m.entryCount = 0
	m.cond.Signal()

	if deadline == nil {
		m.cond.Wait()
	} else {
		m.waitUntil(*deadline)
	}

	for m.owner != 0 {
		m.cond.Wait()
	}
	m.owner = threadID
	m.entryCount = savedCount
	m.mu.Unlock()
	return nil
}

// waitUntil blocks on m.cond until woken or deadline passes. sync.Cond
// has no built-in timeout, so a timer goroutine performs a Broadcast
// at the deadline to unblock a waiter that's still parked; the caller
// re-acquires and resumes either way, matching wait_timeout's own
// "either way, re-acquire" contract upstream.
func (m *Monitor) waitUntil(deadline time.Time) {
	timer := time.AfterFunc(time.Until(deadline), m.cond.Broadcast)
	defer timer.Stop()
	m.cond.Wait()
}

// Notify wakes exactly one thread blocked in Wait.
func (m *Monitor) Notify(threadID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != threadID {
		return &IllegalMonitorState{Detail: "current thread does not own the monitor"}
	}
	m.cond.Signal()
	return nil
}

// NotifyAll wakes every thread blocked in Wait.
func (m *Monitor) NotifyAll(threadID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != threadID {
		return &IllegalMonitorState{Detail: "current thread does not own the monitor"}
	}
	m.cond.Broadcast()
	return nil
}

// HoldCount reports threadID's reentrancy depth on the monitor, or 0
// if threadID does not own it.
func (m *Monitor) HoldCount(threadID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != threadID {
		return 0
	}
	return m.entryCount
}

// Registry maps object identities to their Monitor, created lazily on
// first synchronized entry -- mirroring ristretto_vm's MonitorRegistry
// keyed by object identity rather than embedding a Monitor in every
// object.Object (most objects are never synchronized on).
type Registry struct {
	mu       sync.Mutex
	monitors map[any]*Monitor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{monitors: make(map[any]*Monitor)}
}

// MonitorFor returns the Monitor for identity, creating one if this is
// the first synchronized entry on that object.
func (r *Registry) MonitorFor(identity any) *Monitor {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.monitors[identity]
	if !ok {
		m = New()
		r.monitors[identity] = m
	}
	return m
}
