/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"sync"

	"ristretto/frames"
	"ristretto/gc"
	"ristretto/object"
	"ristretto/statics"
)

// heapTable maps every interpreter-allocated object to its collector
// handle, so field stores can route through the write barrier and root
// walks can translate a plain *object.Object into the *gc.Ref the
// collector traces.
type heapTable struct {
	mu   sync.Mutex
	refs map[*object.Object]*gc.Ref
}

func newHeapTable() *heapTable {
	return &heapTable{refs: make(map[*object.Object]*gc.Ref)}
}

func (h *heapTable) lookup(o *object.Object) *gc.Ref {
	if o == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refs[o]
}

func (h *heapTable) remember(o *object.Object, ref *gc.Ref) {
	h.mu.Lock()
	h.refs[o] = ref
	h.mu.Unlock()
}

// heapCell adapts one object to gc.Traceable: Trace visits every object
// reference held by the object's fields, including the elements of
// reference arrays.
type heapCell struct {
	heap *heapTable
	obj  *object.Object
}

func (c *heapCell) Trace(visit func(*gc.Ref)) {
	for _, fld := range c.obj.FieldTable {
		traceFieldValue(c.heap, fld.Fvalue, visit)
	}
}

func traceFieldValue(heap *heapTable, v any, visit func(*gc.Ref)) {
	switch val := v.(type) {
	case *object.Object:
		if ref := heap.lookup(val); ref != nil {
			visit(ref)
		}
	case *object.Reference:
		if val == nil {
			return
		}
		if val.Kind == object.ArrayRef {
			for _, el := range val.Refs {
				if ref := heap.lookup(el); ref != nil {
					visit(ref)
				}
			}
		}
		if val.Object != nil {
			if ref := heap.lookup(val.Object); ref != nil {
				visit(ref)
			}
		}
	}
}

// allocate registers obj with the collector and remembers its handle.
// size is a rough slot-count-based estimate; the collector only uses it
// for the opportunistic-collection threshold, not for layout.
func (m *Machine) allocate(obj *object.Object) *gc.Ref {
	size := uint64(16 + 16*len(obj.FieldTable))
	ref := m.Collector.Allocate(&heapCell{heap: m.heap, obj: obj}, size)
	m.heap.remember(obj, ref)
	return ref
}

// barrier runs the collector's grey-on-store write barrier for a store
// of referent into one of holder's fields.
func (m *Machine) barrier(holder, referent *object.Object) {
	if holder == nil || referent == nil {
		return
	}
	href := m.heap.lookup(holder)
	rref := m.heap.lookup(referent)
	if href != nil && rref != nil {
		m.Collector.WriteBarrier(href, rref)
	}
}

// stackRoot adapts a thread's frame stack to gc.Traceable, visiting
// every object reference in any live frame's operand stack or locals.
type stackRoot struct {
	heap  *heapTable
	stack *frames.Stack
}

func (r *stackRoot) Trace(visit func(*gc.Ref)) {
	for _, f := range r.stack.Frames() {
		for _, v := range f.Locals {
			if v.Kind == frames.KindObject && v.Ref != nil {
				if ref := r.heap.lookup(v.Ref); ref != nil {
					visit(ref)
				}
			}
		}
		if f.Stack == nil {
			continue
		}
		for _, v := range f.Stack.Values() {
			if v.Kind == frames.KindObject && v.Ref != nil {
				if ref := r.heap.lookup(v.Ref); ref != nil {
					visit(ref)
				}
			}
		}
	}
}

// RegisterThreadRoot makes a thread's whole frame stack visible to the
// collector as a root. The returned handle must be
// passed to UnregisterThreadRoot when the thread exits.
func (m *Machine) RegisterThreadRoot(stack *frames.Stack) *gc.Ref {
	ref := m.Collector.Allocate(&stackRoot{heap: m.heap, stack: stack}, 0)
	m.Collector.AddRoot(ref)
	return ref
}

// UnregisterThreadRoot removes a root installed by RegisterThreadRoot.
func (m *Machine) UnregisterThreadRoot(ref *gc.Ref) {
	m.Collector.RemoveRoot(ref)
}

// staticsRoot adapts the process-wide statics table to gc.Traceable, so
// loaded-class static fields count as collector roots.
type staticsRoot struct {
	heap *heapTable
}

func (r *staticsRoot) Trace(visit func(*gc.Ref)) {
	statics.Range(func(_ string, s statics.Static) {
		traceFieldValue(r.heap, s.Value, visit)
	})
}
