/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package interpreter implements the fetch-decode-execute loop driven
// by a frame's program counter: the full non-JIT opcode set,
// exception-table dispatch on throw, and virtual/static/special method
// invocation by walking a class's method table.
package interpreter

import (
	"encoding/binary"

	"ristretto/classfile"
	"ristretto/classloader"
	"ristretto/frames"
	"ristretto/gc"
)

// Machine bundles the resources a running thread's interpreter loop
// consults: the class loader that resolves invocation and field-access
// targets, the collector allocations are routed through, and the
// reentrant monitor table `monitorenter`/`monitorexit` acquire. One
// Machine is shared by every thread; per-thread state lives entirely in the frames.Stack the
// caller supplies to Run.
type Machine struct {
	Loader    *classloader.Classloader
	Collector *gc.Collector
	monitors  *monitorTable
	heap      *heapTable
	MaxDepth  int // 0 means unbounded

	// TraceInstructions emits one trace line per executed opcode, gated
	// here rather than inside trace so the formatting cost is skipped
	// entirely when off.
	TraceInstructions bool
}

// NewMachine constructs a Machine over loader, with its own collector and
// monitor table. The statics table is registered as a permanent GC root
// immediately, before any thread begins interpretation.
func NewMachine(loader *classloader.Classloader) *Machine {
	m := &Machine{Loader: loader, Collector: gc.New(), monitors: newMonitorTable(), heap: newHeapTable()}
	root := m.Collector.Allocate(&staticsRoot{heap: m.heap}, 0)
	m.Collector.AddRoot(root)
	return m
}

// resultKind tags the four outcomes a single opcode step may produce:
// continue, return a value, throw, or call into a new frame.
type resultKind int

const (
	resultContinue resultKind = iota
	resultReturn
	resultThrow
	resultCallInto
)

type stepResult struct {
	kind      resultKind
	value     *frames.Value
	exception *ThrownException
	callee    *frames.Frame
}

// Invoke runs method on class starting from an empty operand stack and the
// given argument values bound to locals 0..len(args)-1, pushing onto
// threadStack for the duration of the call and popping on return. It is
// the entry point both for a fresh thread's main method and for any
// invocation opcode's CallInto.
func (m *Machine) Invoke(threadStack *frames.Stack, class *classloader.LoadedClass, method *classfile.MethodInfo, args []frames.Value) (*frames.Value, error) {
	f, err := frames.New(class, method)
	if err != nil {
		return nil, err
	}
	for i, a := range args {
		if i < len(f.Locals) {
			f.Locals[i] = a
		}
	}
	if err := threadStack.Push(f, m.MaxDepth); err != nil {
		return nil, err
	}
	defer threadStack.Pop()
	return m.Run(threadStack, f)
}

// Run drives f's fetch-decode-execute loop to completion: a normal
// return, an exception that escapes every handler in f (propagated to the
// caller as a *ThrownException error), or a nested CallInto that this
// loop executes synchronously via Invoke before continuing f.
func (m *Machine) Run(threadStack *frames.Stack, f *frames.Frame) (*frames.Value, error) {
	for {
		res, err := m.step(threadStack, f)
		if err != nil {
			thrown, ok := err.(*ThrownException)
			if !ok {
				return nil, err
			}
			handled, herr := m.dispatchException(f, thrown)
			if herr != nil {
				return nil, herr
			}
			if handled {
				continue
			}
			return nil, thrown
		}
		switch res.kind {
		case resultContinue:
			continue
		case resultReturn:
			return res.value, nil
		case resultThrow:
			handled, herr := m.dispatchException(f, res.exception)
			if herr != nil {
				return nil, herr
			}
			if handled {
				continue
			}
			return nil, res.exception
		case resultCallInto:
			// The callee frame was already sized by step(); run it to
			// completion and push its result (if any) onto f's stack.
			if err := threadStack.Push(res.callee, m.MaxDepth); err != nil {
				return nil, err
			}
			retVal, rerr := m.Run(threadStack, res.callee)
			threadStack.Pop()
			if rerr != nil {
				thrown, ok := rerr.(*ThrownException)
				if !ok {
					return nil, rerr
				}
				handled, herr := m.dispatchException(f, thrown)
				if herr != nil {
					return nil, herr
				}
				if handled {
					continue
				}
				return nil, thrown
			}
			if retVal != nil {
				if err := f.Stack.Push(*retVal); err != nil {
					return nil, err
				}
			}
		}
	}
}

// dispatchException walks f's exception table for an entry covering the
// pc at which the throw occurred, whose catch type is assignable from the
// exception's class. On a match it
// clears the operand stack, pushes the exception, and jumps to the
// handler; the caller's loop continues executing f. Returns false (no
// error) when no handler matches, so the caller can pop the frame and
// propagate to its own caller.
func (m *Machine) dispatchException(f *frames.Frame, thrown *ThrownException) (bool, error) {
	code := f.Method.Code
	if code == nil {
		return false, nil
	}
	for _, et := range code.ExceptionTable {
		if f.PC < int(et.StartPC) || f.PC >= int(et.EndPC) {
			continue
		}
		matches := et.CatchType == 0 // 0 means catch-all (finally)
		if !matches {
			className, err := f.Class.ClassFile.ConstantPool.ClassName(et.CatchType)
			if err != nil {
				return false, err
			}
			catchClass, err := m.Loader.Load(className)
			if err != nil {
				return false, err
			}
			ok, err := classloader.IsAssignableFrom(catchClass, thrown.Exception.Klass)
			if err != nil {
				return false, err
			}
			matches = ok
		}
		if matches {
			f.Stack = frames.NewOperandStack(int(code.MaxStack))
			if err := f.Stack.PushObject(thrown.Exception); err != nil {
				return false, err
			}
			f.PC = int(et.HandlerPC)
			return true, nil
		}
	}
	return false, nil
}

func readU8(code []byte, pc int) byte   { return code[pc] }
func readU16(code []byte, pc int) uint16 { return binary.BigEndian.Uint16(code[pc : pc+2]) }
func readI16(code []byte, pc int) int16  { return int16(readU16(code, pc)) }
func readI32(code []byte, pc int) int32 {
	return int32(binary.BigEndian.Uint32(code[pc : pc+4]))
}
