/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package statics is the VM-wide table of class (static) variables,
// keyed "className.fieldName" exactly as jacobin keys its own statics
// table. Class initialization (spec.md §4.5's bottom-up <clinit> walk)
// populates this table with each static field's default value before
// <clinit> runs and overwrites it; field access opcodes (getstatic/
// putstatic) read and write through here rather than through the
// Class object itself, so that a class's statics outlive any one
// instance.
package statics

import "sync"

// Kind classifies what's stored in a Static entry, mirroring the
// category distinctions frames.Value makes for locals/operand stack.
type Kind int

const (
	Int Kind = iota
	Long
	Float
	Double
	Boolean
	Reference
)

// Static is one class (static) variable's current value.
type Static struct {
	Kind  Kind
	Value any // int64, float64, or a reference (object pointer / nil)

	// ClassName/FieldName/Descriptor identify the field this slot backs,
	// kept for diagnostics (NoSuchFieldError messages).
	ClassName  string
	FieldName  string
	Descriptor string
}

// Table is the VM-wide static-variable store.
type Table struct {
	mu      sync.RWMutex
	entries map[string]*Static
}

var (
	global     *Table
	globalOnce sync.Once
)

// GetStaticsTable returns the process-wide table, creating it on first
// use.
func GetStaticsTable() *Table {
	globalOnce.Do(func() { global = New() })
	return global
}

// New creates an empty table; used by tests that want isolation from
// the process-wide singleton.
func New() *Table {
	return &Table{entries: make(map[string]*Static)}
}

func key(className, fieldName string) string {
	return className + "." + fieldName
}

// AddStatic inserts or replaces the entry for className.fieldName.
func (t *Table) AddStatic(className, fieldName string, s *Static) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key(className, fieldName)] = s
}

// GetStaticValue returns the current value and whether the field
// exists at all.
func (t *Table) GetStaticValue(className, fieldName string) (*Static, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.entries[key(className, fieldName)]
	return s, ok
}

// SetStaticValue overwrites an existing entry's value, leaving its
// Kind/descriptor metadata untouched. Returns false if the field was
// never added via AddStatic (a NoSuchFieldError condition upstream).
func (t *Table) SetStaticValue(className, fieldName string, value any) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.entries[key(className, fieldName)]
	if !ok {
		return false
	}
	s.Value = value
	return true
}

// HasClass reports whether any static of className has been
// registered, used by jvm.Engine to tell whether a class's
// statics still need seeding with their default values.
func (t *Table) HasClass(className string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	prefix := className + "."
	for k := range t.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
