/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package gc implements a tracing, tri-color, concurrent collector over
// engine-allocated objects. A background goroutine may run a
// collection cycle while allocator goroutines keep running; a Dijkstra
// insertion write barrier keeps an already-black object's newly stored
// white reference from being swept out from under it.
package gc

import "sync"

// Color is a Ref's tri-color mark state.
type Color int

const (
	White Color = iota // not yet visited this cycle; swept if still White at sweep time
	Grey               // reachable, not yet scanned
	Black              // reachable and fully scanned
)

// Traceable is implemented by anything the collector can allocate and
// trace. Trace must call visit once for every Ref it directly references;
// the collector handles transitive closure.
type Traceable interface {
	Trace(visit func(*Ref))
}

// Ref is a handle to one collector-managed allocation.
type Ref struct {
	mu    sync.Mutex
	color Color
	value Traceable
}

// Value returns the underlying traceable object.
func (r *Ref) Value() Traceable {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

func (r *Ref) getColor() Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.color
}

func (r *Ref) setColor(c Color) {
	r.mu.Lock()
	r.color = c
	r.mu.Unlock()
}

// PtrEq reports whether a and b are the same allocation.
func PtrEq(a, b *Ref) bool { return a == b }

// Configuration controls a Collector's opportunistic-collection behavior.
type Configuration struct {
	// AllocationThreshold is the cumulative byte count, since the end of
	// the previous cycle, that triggers an opportunistic collection
	//.
	AllocationThreshold uint64
}

// DefaultConfiguration matches the engine's globals.Globals default.
var DefaultConfiguration = Configuration{AllocationThreshold: 4 << 20}

// Statistics exposes monotonic collector counters.
type Statistics struct {
	CollectionsStarted uint64
	BytesAllocated     uint64
}

// Collector is a heap of Traceable allocations plus a set of GC roots.
// Reachability is computed from the roots on every cycle; anything not
// reached is swept.
type Collector struct {
	mu         sync.Mutex
	cond       *sync.Cond
	cfg        Configuration
	objects    []*Ref
	roots      map[*Ref]struct{}
	stats      Statistics
	sinceCycle uint64
	collecting bool

	// barrierGrey is the mark worklist the write barrier feeds: every
	// referent shaded Grey by a concurrent store lands here so the
	// running (or next) cycle traces it rather than leaving its own
	// children White.
	barrierGrey []*Ref

	started   bool
	stopCh    chan struct{}
	triggerCh chan struct{}
}

// New constructs a Collector with DefaultConfiguration.
func New() *Collector { return WithConfig(DefaultConfiguration) }

// WithConfig constructs a Collector with the given configuration.
func WithConfig(cfg Configuration) *Collector {
	c := &Collector{cfg: cfg, roots: make(map[*Ref]struct{})}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Start launches the background collector goroutine. Calling Start on an
// already-started Collector is a no-op.
func (c *Collector) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.stopCh = make(chan struct{})
	c.triggerCh = make(chan struct{}, 1)
	c.mu.Unlock()
	go c.loop()
}

// Stop halts the background goroutine. Safe to call on a Collector that
// was never started.
func (c *Collector) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	close(c.stopCh)
	c.mu.Unlock()
}

func (c *Collector) loop() {
	for {
		select {
		case <-c.triggerCh:
			c.Collect()
		case <-c.stopCh:
			return
		}
	}
}

// Allocate registers v as a new collector-managed object of the given
// byte size, returning a Ref the caller stores wherever it needs to hold
// a reference to v. Crossing the configured AllocationThreshold since the
// last cycle schedules an opportunistic collection.
func (c *Collector) Allocate(v Traceable, size uint64) *Ref {
	ref := &Ref{color: White, value: v}

	c.mu.Lock()
	c.objects = append(c.objects, ref)
	c.stats.BytesAllocated += size
	c.sinceCycle += size
	trigger := c.cfg.AllocationThreshold > 0 && c.sinceCycle >= c.cfg.AllocationThreshold
	if trigger {
		c.sinceCycle = 0
	}
	c.mu.Unlock()

	if trigger {
		select {
		case c.triggerCh <- struct{}{}:
		default: // a cycle is already queued or running; coalesce
		}
	}
	return ref
}

// AddRoot marks ref as a GC root.
func (c *Collector) AddRoot(ref *Ref) {
	c.mu.Lock()
	c.roots[ref] = struct{}{}
	c.mu.Unlock()
}

// RemoveRoot unmarks ref as a GC root.
func (c *Collector) RemoveRoot(ref *Ref) {
	c.mu.Lock()
	delete(c.roots, ref)
	c.mu.Unlock()
}

// WriteBarrier must be called whenever holder stores referent into one of
// its fields. If holder is Black and referent is White, referent is
// shaded Grey and enqueued on the barrier worklist, so the running cycle
// traces it (reaching its still-White children) instead of merely
// sparing the referent itself from the sweep.
func (c *Collector) WriteBarrier(holder, referent *Ref) {
	if referent == nil || holder.getColor() != Black {
		return
	}
	if referent.getColor() == White {
		referent.setColor(Grey)
		c.mu.Lock()
		c.barrierGrey = append(c.barrierGrey, referent)
		c.mu.Unlock()
	}
}

// Collect runs one mark-sweep cycle, or, if a cycle is already in
// progress, waits for that cycle to finish instead of starting a second
// one.
func (c *Collector) Collect() {
	c.mu.Lock()
	if c.collecting {
		for c.collecting {
			c.cond.Wait()
		}
		c.mu.Unlock()
		return
	}
	c.collecting = true
	c.stats.CollectionsStarted++
	c.mu.Unlock()

	c.runCycle()

	c.mu.Lock()
	c.collecting = false
	c.sinceCycle = 0
	c.cond.Broadcast()
	c.mu.Unlock()
}

// runCycle performs the collector's four-step cycle: snapshot roots,
// mark them grey, drain the grey set tracing outgoing references, then
// sweep anything left White. Draining alternates with the barrier
// worklist until both are empty; the final emptiness check and the
// sweep happen under the same lock the barrier enqueues with, so a
// store either feeds this cycle's drain or happens-after the sweep and
// is retried by the next cycle.
func (c *Collector) runCycle() {
	c.mu.Lock()
	roots := make([]*Ref, 0, len(c.roots))
	for r := range c.roots {
		roots = append(roots, r)
	}
	objects := append([]*Ref(nil), c.objects...)
	c.mu.Unlock()

	for _, r := range objects {
		r.setColor(White)
	}

	grey := make([]*Ref, 0, len(roots))
	for _, r := range roots {
		if r.getColor() == White {
			r.setColor(Grey)
			grey = append(grey, r)
		}
	}

	for {
		for len(grey) > 0 {
			n := len(grey) - 1
			r := grey[n]
			grey = grey[:n]

			value := r.Value()
			if value != nil {
				value.Trace(func(child *Ref) {
					if child != nil && child.getColor() == White {
						child.setColor(Grey)
						grey = append(grey, child)
					}
				})
			}
			r.setColor(Black)
		}

		c.mu.Lock()
		pending := c.barrierGrey
		c.barrierGrey = nil
		if len(pending) == 0 {
			live := c.objects[:0]
			for _, r := range c.objects {
				if r.getColor() != White {
					live = append(live, r)
				}
			}
			c.objects = live
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		for _, r := range pending {
			// The cycle-start color reset may have washed a shade out;
			// re-shade so the drain traces it either way.
			if r.getColor() != Black {
				r.setColor(Grey)
				grey = append(grey, r)
			}
		}
	}
}

// Statistics returns a snapshot of the collector's monotonic counters.
func (c *Collector) Statistics() Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Len reports how many live (not-yet-swept) allocations the collector is
// currently tracking.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.objects)
}
