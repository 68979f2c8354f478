/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package thread is a single Java thread's interpreter state: its
// identity, its frame stack (spec.md §5), and its current status.
// Grounded on ristretto_vm's thread.rs, translated from its Arc<RwLock<...>>
// fields to a single mutex guarding plain Go fields, since a Thread is
// only ever driven by its own goroutine plus the occasional cross-
// thread status/name read (Thread.getName(), jstack-style dumps).
package thread

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/theseus-rs/ristretto-sub006/frames"
)

// Status is a thread's coarse execution state, surfaced to
// Thread.getState().
type Status int32

const (
	New Status = iota
	Runnable
	BlockedOnMonitor
	WaitingOnClinit
	Waiting
	Terminated
)

var nextID atomic.Int64

// Thread is one Java thread of execution.
type Thread struct {
	id int64

	mu        sync.RWMutex
	name      string
	status    Status
	javaObj   any // *object.Object for this Thread's java.lang.Thread peer; any to avoid an object<->thread import cycle
	frameStack []*frames.Frame
}

// NewThread creates a thread with an auto-assigned id and default name
// "Thread-N", matching jacobin/ristretto's naming convention.
func NewThread() *Thread {
	id := nextID.Add(1)
	return &Thread{id: id, name: fmt.Sprintf("Thread-%d", id), status: New}
}

func (t *Thread) ID() int64 { return t.id }

func (t *Thread) Name() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.name
}

func (t *Thread) SetName(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.name = name
}

func (t *Thread) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *Thread) SetStatus(s Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = s
}

func (t *Thread) JavaObject() any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.javaObj
}

func (t *Thread) SetJavaObject(obj any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.javaObj = obj
}

// PushFrame enters a new method invocation.
func (t *Thread) PushFrame(f *frames.Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frameStack = append(t.frameStack, f)
}

// PopFrame returns from the current method invocation.
func (t *Thread) PopFrame() *frames.Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.frameStack) - 1
	f := t.frameStack[n]
	t.frameStack = t.frameStack[:n]
	return f
}

// CurrentFrame returns the top of the call stack, or nil if the
// thread isn't currently executing any method.
func (t *Thread) CurrentFrame() *frames.Frame {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.frameStack) == 0 {
		return nil
	}
	return t.frameStack[len(t.frameStack)-1]
}

// Depth reports the current call-stack depth, checked against a
// configured limit to raise StackOverflowError (spec.md §7).
func (t *Thread) Depth() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.frameStack)
}

// StackTrace returns a snapshot of className.methodName pairs from
// the current frame down to the oldest, for exception stack traces.
func (t *Thread) StackTrace() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	trace := make([]string, len(t.frameStack))
	for i, f := range t.frameStack {
		trace[len(trace)-1-i] = f.ClassName + "." + f.MethodName
	}
	return trace
}

// ClinitWaiters bounds how many threads may simultaneously block
// waiting for some other thread's <clinit> to finish, so a pathological
// initializer cycle shows up as a diagnosable backlog instead of an
// unbounded number of parked goroutines (spec.md §4.7's parallel-
// marking use of golang.org/x/sync/errgroup is the same family of
// "bound the fan-out" concern, here applied to class-init waiters
// instead of GC mark workers). jvm.Engine's class-initialization wait
// polls the class state and does not go through this gate.
type ClinitWaiters struct {
	sem *semaphore.Weighted
}

// NewClinitWaiters creates a waiter gate allowing up to max concurrent
// waiters.
func NewClinitWaiters(max int64) *ClinitWaiters {
	return &ClinitWaiters{sem: semaphore.NewWeighted(max)}
}

// Wait blocks until a waiter slot is free or ctx is cancelled.
func (c *ClinitWaiters) Wait(ctx context.Context) error {
	return c.sem.Acquire(ctx, 1)
}

// Done releases the waiter slot acquired by Wait.
func (c *ClinitWaiters) Done() {
	c.sem.Release(1)
}
