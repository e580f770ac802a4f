/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"fmt"

	"ristretto/classloader"
	"ristretto/excNames"
	"ristretto/object"
)

// ThrownException carries a materialized Java exception object up through
// Go's error-return plumbing so the exception table walk in step.go and
// Run's caller-unwind loop can inspect its class without a type switch on
// every frame boundary.
type ThrownException struct {
	Exception *object.Object
}

func (e *ThrownException) Error() string {
	if e.Exception == nil {
		return "interpreter: thrown exception (nil object)"
	}
	return fmt.Sprintf("interpreter: thrown %s", e.Exception.Klass.Name)
}

// NewException builds a minimal exception object of the named JDK kind.
// It does not run a constructor (no Java-level <init> invocation): a
// bare, zero-valued instance is sufficient for the engine's own runtime
// checks to report a class name the catch-type match can compare against.
func NewException(loader *classloader.Classloader, kind excNames.JVMExceptionType, message string) (*ThrownException, error) {
	klass, err := loader.Load(excNames.GetExceptionNameFromType(kind))
	if err != nil {
		return nil, fmt.Errorf("interpreter: loading exception class: %w", err)
	}
	obj, err := object.NewObject(klass)
	if err != nil {
		return nil, fmt.Errorf("interpreter: allocating exception object: %w", err)
	}
	if message != "" {
		_ = obj.SetField("detailMessage", message)
	}
	return &ThrownException{Exception: obj}, nil
}

// ErrUnresolvedMethod reports a virtual/static/special dispatch that found
// no matching method in the receiver class or its superclass chain.
type ErrUnresolvedMethod struct {
	Class, Name, Descriptor string
}

func (e *ErrUnresolvedMethod) Error() string {
	return fmt.Sprintf("interpreter: no method %s.%s%s", e.Class, e.Name, e.Descriptor)
}

// ErrUnresolvedField reports a field access that found no matching field.
type ErrUnresolvedField struct {
	Class, Name string
}

func (e *ErrUnresolvedField) Error() string {
	return fmt.Sprintf("interpreter: no field %s.%s", e.Class, e.Name)
}

// ErrUnknownOpcode reports a byte the dispatch switch has no case for.
type ErrUnknownOpcode struct{ Opcode byte }

func (e *ErrUnknownOpcode) Error() string {
	return fmt.Sprintf("interpreter: unknown opcode 0x%02X", e.Opcode)
}

// ErrPCOutOfRange reports a program counter outside the method's code
// array, which the verifier should have made impossible.
type ErrPCOutOfRange struct{ PC, CodeLen int }

func (e *ErrPCOutOfRange) Error() string {
	return fmt.Sprintf("interpreter: pc %d outside code of length %d", e.PC, e.CodeLen)
}

// ErrLocalOutOfRange reports a local-variable index at or beyond
// max_locals.
type ErrLocalOutOfRange struct{ Index, MaxLocals int }

func (e *ErrLocalOutOfRange) Error() string {
	return fmt.Sprintf("interpreter: local index %d outside max_locals %d", e.Index, e.MaxLocals)
}
