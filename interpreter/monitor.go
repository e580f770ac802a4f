/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"sync"

	"ristretto/object"
)

// monitor is a per-object lock supporting reentrance from the thread that
// currently owns it, built on the same sync.Cond-guarded wait idiom
// classloader.Ensure and gc.Collector.Collect already use in this
// codebase for condition-variable blocking.
type monitor struct {
	mu    sync.Mutex
	cond  *sync.Cond
	owner uint64
	depth int
}

func newMonitorObj() *monitor {
	m := &monitor{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// enter blocks until threadID either finds the monitor free or already
// owns it, then increments the reentrance depth.
func (m *monitor) enter(threadID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.depth > 0 && m.owner != threadID {
		m.cond.Wait()
	}
	m.owner = threadID
	m.depth++
}

// exit releases one level of ownership, waking any thread blocked in
// enter once depth returns to zero. Reports false (IllegalMonitorState,
// in the caller's terms) when threadID does not hold the monitor.
func (m *monitor) exit(threadID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.depth == 0 || m.owner != threadID {
		return false
	}
	m.depth--
	if m.depth == 0 {
		m.cond.Broadcast()
	}
	return true
}

// monitorTable maps live objects to their monitor, created lazily on
// first monitorenter.
type monitorTable struct {
	mu    sync.Mutex
	byObj map[*object.Object]*monitor
}

func newMonitorTable() *monitorTable {
	return &monitorTable{byObj: make(map[*object.Object]*monitor)}
}

func (t *monitorTable) get(o *object.Object) *monitor {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.byObj[o]
	if !ok {
		m = newMonitorObj()
		t.byObj[o] = m
	}
	return m
}

func (t *monitorTable) enter(o *object.Object, threadID uint64) { t.get(o).enter(threadID) }
func (t *monitorTable) exit(o *object.Object, threadID uint64) bool { return t.get(o).exit(threadID) }
