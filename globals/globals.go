/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package globals holds a process-wide VM context: system properties,
// the runtime-access overrides from --add-reads/--add-exports/
// --add-opens, and the handful of flags that affect every subsystem
// (strict-JDK mode, verify mode, the JVM's own display name). It is
// one of several package-level singletons in this module: classloader
// (its well-known loaders and module graph), statics, stringpool and
// log also keep package-level state of their own.
package globals

import "sync"

// VerifyMode selects how aggressively class verification runs, per
// spec.md §6's "verify-mode (none/remote/all)".
type VerifyMode int

const (
	VerifyRemote VerifyMode = iota // default: verify only classes loaded from outside the bootstrap path
	VerifyNone
	VerifyAll
)

// Globals is the VM-wide context. InitGlobals replaces the single
// process-wide instance, so every caller of InitGlobals and
// GetGlobalRef, tests included, shares that one instance.
type Globals struct {
	JacobinName string // the display name of this VM build, shown in diagnostics
	StrictJDK   bool   // reject non-conformant class files instead of tolerating them

	VerifyMode VerifyMode

	// Command-line-surface overrides, spec.md §6.
	AddModules    []string
	LimitModules  []string
	AddReads      map[string][]string            // module -> modules it additionally reads
	AddExports    map[string]map[string][]string // module -> package -> target modules
	AddOpens      map[string]map[string][]string // module -> package -> target modules
	PatchModule   map[string]string              // module -> replacement path
	SystemProps   map[string]string

	mu sync.RWMutex
}

var (
	ref  *Globals
	once sync.Mutex
)

// InitGlobals creates (or resets) the process-wide Globals instance
// and returns it. name becomes Globals.JacobinName.
func InitGlobals(name string) *Globals {
	once.Lock()
	defer once.Unlock()
	ref = &Globals{
		JacobinName:  name,
		VerifyMode:   VerifyRemote,
		AddReads:     map[string][]string{},
		AddExports:   map[string]map[string][]string{},
		AddOpens:     map[string]map[string][]string{},
		PatchModule:  map[string]string{},
		SystemProps:  map[string]string{},
	}
	return ref
}

// GetGlobalRef returns the process-wide Globals instance, creating a
// default one (name "ristretto") if InitGlobals hasn't been called
// yet -- this mirrors jacobin's lazy-init convention so that packages
// exercised standalone in tests never see a nil ref.
func GetGlobalRef() *Globals {
	once.Lock()
	defer once.Unlock()
	if ref == nil {
		ref = &Globals{
			JacobinName:  "ristretto",
			VerifyMode:   VerifyRemote,
			AddReads:     map[string][]string{},
			AddExports:   map[string]map[string][]string{},
			AddOpens:     map[string]map[string][]string{},
			PatchModule:  map[string]string{},
			SystemProps:  map[string]string{},
		}
	}
	return ref
}

// SetProperty sets a -Dk=v system property.
func (g *Globals) SetProperty(key, value string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.SystemProps[key] = value
}

// GetProperty reads a system property, returning "" if unset.
func (g *Globals) GetProperty(key string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.SystemProps[key]
}
