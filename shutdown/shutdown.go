/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package shutdown sequences process exit: Exit prints a message on
// stderr and calls the exit function with the status for a Code, and
// tests can replace that function via SetExiter. Exit does not flush
// logs, and no other package in this module calls it.
package shutdown

import (
	"fmt"
	"os"
)

// Code classifies why the VM is exiting.
type Code int

const (
	OK                Code = 0
	JVMExited         Code = 1 // normal System.exit() or main() return
	UncaughtException Code = 2
	LinkageFailure    Code = 3
	VerifyFailure     Code = 4
	InternalError     Code = 5
)

// Exiter abstracts process exit so tests can intercept it instead of
// killing the test binary.
type Exiter func(status int)

var exit Exiter = os.Exit

// SetExiter overrides the exit function; used by tests. Returns the
// previous exiter so the test can restore it.
func SetExiter(e Exiter) Exiter {
	prev := exit
	exit = e
	return prev
}

// Exit reports msg (if non-empty) and terminates the process with the
// exit status conventionally associated with code.
func Exit(code Code, msg string) {
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	exit(int(code))
}
