/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"fmt"
	"sync"
)

// Initializer runs a loaded class's <clinit>, invoked by Ensure the
// first time a caller needs an Initialized class. The interpreter
// supplies this so classloader doesn't need to import it back.
type Initializer func(lc *LoadedClass) error

// Ensure drives a loaded class through Uninitialized -> Initializing ->
// Initialized|Erroneous. Calling
// Ensure from the thread already performing this class's initialization
// (reentrant <clinit> triggering, e.g. a static factory calling back
// into itself) returns immediately rather than deadlocking; a call from
// any other thread blocks until the owning thread finishes.
func (lc *LoadedClass) Ensure(threadID uint64, run Initializer) error {
	lc.mu.Lock()
	if lc.cond == nil {
		lc.cond = sync.NewCond(&lc.mu)
	}

	for lc.state == Initializing && lc.initThread != threadID {
		lc.cond.Wait()
	}

	switch lc.state {
	case Initialized:
		lc.mu.Unlock()
		return nil
	case Erroneous:
		err := lc.initErr
		lc.mu.Unlock()
		return fmt.Errorf("classloader: %s failed to initialize: %w", lc.Name, err)
	case Initializing:
		// only reachable when initThread == threadID: reentrant <clinit>.
		lc.mu.Unlock()
		return nil
	}

	lc.state = Initializing
	lc.initThread = threadID
	lc.mu.Unlock()

	err := run(lc)

	lc.mu.Lock()
	if err != nil {
		lc.state = Erroneous
		lc.initErr = err
	} else {
		lc.state = Initialized
	}
	lc.cond.Broadcast()
	lc.mu.Unlock()
	return err
}

// State reports the class's current initialization state.
func (lc *LoadedClass) State() InitState {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.state
}
