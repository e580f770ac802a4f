/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2022-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package shutdown centralizes process-exit so that tests can intercept it
// instead of having os.Exit calls scattered (and untestable) across the
// engine.
package shutdown

import "os"

// ExitStatus identifies why the engine is terminating.
type ExitStatus int

const (
	OK ExitStatus = iota
	JVM_EXCEPTION
	APP_EXCEPTION
	UNHANDLED_EXCEPTION
	JVM_ERROR
)

// exitFunc is swapped out by tests so that Exit doesn't tear down the test
// binary itself.
var exitFunc = os.Exit

// Exit terminates the process (or, under test, invokes the installed
// stand-in) with a code derived from status.
func Exit(status ExitStatus) {
	exitFunc(int(status))
}

// SetExitFunc installs a replacement for os.Exit, for use by tests.
func SetExitFunc(f func(int)) {
	exitFunc = f
}
