/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package log is the JVM-visible leveled logging façade. Every other
// package calls log.Log(msg, level) rather than writing to stdout/
// stderr directly, so that verbosity is controlled in one place. The
// façade writes through to the structured sink in package trace for
// anything at FINE or louder, keeping the console output terse while
// still making machine-readable diagnostics available.
package log

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/theseus-rs/ristretto-sub006/trace"
)

// Level is the verbosity of a single log call, ordered least to most
// verbose. SEVERE is always shown; TRACE_INST floods the console and
// is meant for bytecode-by-bytecode diagnosis.
type Level int

const (
	SEVERE Level = iota
	WARNING
	INFO
	CONFIG
	CLASS
	FINE
	FINEST
	TRACE_INST
)

var levelNames = map[Level]string{
	SEVERE: "SEVERE", WARNING: "WARNING", INFO: "INFO", CONFIG: "CONFIG",
	CLASS: "CLASS", FINE: "FINE", FINEST: "FINEST", TRACE_INST: "TRACE_INST",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "UNKNOWN"
}

var (
	mutex        sync.Mutex
	currentLevel = WARNING
)

// Init resets the logger to its default verbosity. Call once at VM
// startup before any other package logs.
func Init() {
	mutex.Lock()
	defer mutex.Unlock()
	currentLevel = WARNING
}

// SetLogLevel changes the minimum level that will be printed. Levels
// are cumulative: setting FINE also shows SEVERE/WARNING/INFO/CONFIG/
// CLASS.
func SetLogLevel(l Level) error {
	if _, ok := levelNames[l]; !ok {
		return errors.New("invalid log level")
	}
	mutex.Lock()
	defer mutex.Unlock()
	currentLevel = l
	return nil
}

// GetLogLevel returns the currently configured minimum level.
func GetLogLevel() Level {
	mutex.Lock()
	defer mutex.Unlock()
	return currentLevel
}

// Log prints msg to stderr if level is at or below the configured
// verbosity, and forwards it to the structured trace sink whenever
// level is FINE or louder, so those events remain queryable even when
// the console is quiet. It returns an error only when level itself is
// invalid.
func Log(msg string, level Level) error {
	if _, ok := levelNames[level]; !ok {
		return fmt.Errorf("invalid log level: %d", level)
	}

	mutex.Lock()
	shouldPrint := level <= currentLevel
	mutex.Unlock()

	if shouldPrint {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", level, msg)
	}

	if level <= FINE {
		trace.Event(level.String(), msg)
	}
	return nil
}
