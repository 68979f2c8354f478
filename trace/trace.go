/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023-6 by the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

// Package trace is the structured diagnostic sink that package log
// writes through to. It records VM lifecycle events -- class loads,
// verification outcomes, GC cycles, monitor contention -- as
// structured fields rather than formatted strings, so they can be
// filtered and aggregated by tooling instead of grepped.
package trace

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.Disabled)
)

// Configure sets the destination and minimum level for structured
// trace output. A nil writer means os.Stderr; enabled=false disables
// output, which is also the state before the first call. No package
// in this module calls Configure.
func Configure(w io.Writer, enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	level := zerolog.Disabled
	if enabled {
		level = zerolog.InfoLevel
	}
	if w == nil {
		w = os.Stderr
	}
	logger = zerolog.New(w).With().Timestamp().Logger().Level(level)
}

// Event records a single named diagnostic event with a free-form
// message. Component-specific helpers (ClassLoaded, GCCycle, ...)
// build on this with structured fields instead of folding everything
// into the message string.
func Event(kind, msg string) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Info().Str("kind", kind).Msg(msg)
}

// ClassLoaded records that a class finished loading and linking.
func ClassLoaded(className, loader string) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Info().Str("kind", "class_loaded").Str("class", className).Str("loader", loader).Send()
}

// VerifyResult records the outcome of verifying one method.
func VerifyResult(className, methodName, descriptor string, ok bool, reason string) {
	mu.RLock()
	defer mu.RUnlock()
	ev := logger.Info().Str("kind", "verify").
		Str("class", className).Str("method", methodName).Str("descriptor", descriptor).
		Bool("ok", ok)
	if reason != "" {
		ev = ev.Str("reason", reason)
	}
	ev.Send()
}

// GCCycle records the statistics of one completed garbage-collection
// cycle.
func GCCycle(started, completed uint64, bytesAllocated, bytesFreed uint64) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Info().Str("kind", "gc_cycle").
		Uint64("collections_started", started).
		Uint64("collections_completed", completed).
		Uint64("bytes_allocated", bytesAllocated).
		Uint64("bytes_freed", bytesFreed).Send()
}

// MonitorContention records that a thread blocked trying to enter a
// monitor already held by another thread.
func MonitorContention(objectID uintptr, waitingThread, ownerThread uint64) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Warn().Str("kind", "monitor_contention").
		Uint64("object_id", uint64(objectID)).
		Uint64("waiting_thread", waitingThread).
		Uint64("owner_thread", ownerThread).Send()
}
