/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package thread owns the per-thread execution state: the
// invocation stack, the pending exception, the interrupt flag, and the
// thread table the engine uses to enumerate live threads. Each thread
// runs its own interpreter loop on its own goroutine; frames are never
// shared across threads.
package thread

import (
	"runtime"
	"sync"
	"sync/atomic"

	"ristretto/classfile"
	"ristretto/classloader"
	"ristretto/frames"
	"ristretto/gc"
	"ristretto/interpreter"
	"ristretto/object"
)

// ExecThread is one thread of Java execution. Its frame Stack is private
// to the owning goroutine; the collector sees it only through the root
// registered at creation.
type ExecThread struct {
	ID      uint64
	Stack   *frames.Stack
	Machine *interpreter.Machine

	// PendingException holds the last uncaught Java exception this
	// thread's top-level invocation produced, nil while none is pending.
	PendingException *object.Object

	interrupted atomic.Bool
	gcRoot      *gc.Ref
}

// threadTable is the engine's live-thread registry. Write-seldom,
// read-often; a shared read lock suffices.
var (
	threadTableMutex sync.RWMutex
	threadTable      = make(map[uint64]*ExecThread)
)

// CreateThread builds a thread bound to machine, registers its frame
// stack as a GC root, and adds it to the thread table.
func CreateThread(machine *interpreter.Machine) *ExecThread {
	stack := frames.NewStack()
	t := &ExecThread{
		ID:      stack.ID,
		Stack:   stack,
		Machine: machine,
	}
	if machine != nil {
		t.gcRoot = machine.RegisterThreadRoot(stack)
	}
	threadTableMutex.Lock()
	threadTable[t.ID] = t
	threadTableMutex.Unlock()
	return t
}

// Exit removes the thread from the table and withdraws its GC root. The
// thread must not execute again afterwards.
func (t *ExecThread) Exit() {
	if t.Machine != nil && t.gcRoot != nil {
		t.Machine.UnregisterThreadRoot(t.gcRoot)
		t.gcRoot = nil
	}
	threadTableMutex.Lock()
	delete(threadTable, t.ID)
	threadTableMutex.Unlock()
}

// GetThread looks a live thread up by ID.
func GetThread(id uint64) (*ExecThread, bool) {
	threadTableMutex.RLock()
	defer threadTableMutex.RUnlock()
	t, ok := threadTable[id]
	return t, ok
}

// ThreadCount reports the number of live threads.
func ThreadCount() int {
	threadTableMutex.RLock()
	defer threadTableMutex.RUnlock()
	return len(threadTable)
}

// RunMethod executes method on this thread to completion. An uncaught
// Java exception is recorded as the thread's pending exception and also
// returned; host-side errors pass through unchanged.
func (t *ExecThread) RunMethod(lc *classloader.LoadedClass, method *classfile.MethodInfo, args []frames.Value) (*frames.Value, error) {
	t.PendingException = nil
	ret, err := t.Machine.Invoke(t.Stack, lc, method, args)
	if thrown, ok := err.(*interpreter.ThrownException); ok {
		t.PendingException = thrown.Exception
	}
	return ret, err
}

// Result is one asynchronous invocation's completion.
type Result struct {
	Value *frames.Value
	Err   error
}

// Start runs method asynchronously on the thread's own goroutine, the
// engine's model for an async method call. The returned
// channel delivers the single completion result.
func (t *ExecThread) Start(lc *classloader.LoadedClass, method *classfile.MethodInfo, args []frames.Value) <-chan Result {
	done := make(chan Result, 1)
	go func() {
		ret, err := t.RunMethod(lc, method, args)
		done <- Result{Value: ret, Err: err}
	}()
	return done
}

// Interrupt flips the thread's interrupt flag, observable at the next
// suspension point.
func (t *ExecThread) Interrupt() {
	t.interrupted.Store(true)
}

// Interrupted reports and clears the interrupt flag, matching
// Thread.interrupted()'s test-and-clear contract.
func (t *ExecThread) Interrupted() bool {
	return t.interrupted.Swap(false)
}

// IsInterrupted reports the flag without clearing it.
func (t *ExecThread) IsInterrupted() bool {
	return t.interrupted.Load()
}

// Yield cedes the processor to another runnable goroutine, the explicit
// cooperative suspension point.
func (t *ExecThread) Yield() {
	runtime.Gosched()
}
