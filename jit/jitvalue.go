/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jit

import (
	"fmt"
	"math"
)

// JitValue discriminants.
const (
	DiscNone int8 = 0
	DiscI32  int8 = 1
	DiscI64  int8 = 2
	DiscF32  int8 = 3
	DiscF64  int8 = 4
)

// JitValue is the union type values take when crossing the boundary to
// or from native code. F32 payloads hold the IEEE-754 bit pattern
// zero-extended into the 64-bit payload.
type JitValue struct {
	Discriminant int8
	Payload      uint64
}

// ErrInvalidValue reports a typed extraction whose discriminant did not
// match the requested type.
type ErrInvalidValue struct {
	Expected, Actual int8
}

func (e *ErrInvalidValue) Error() string {
	return fmt.Sprintf("jit: invalid value: expected discriminant %d, actual %d", e.Expected, e.Actual)
}

// None is the JitValue equivalent of "no value" (a void return).
func None() JitValue { return JitValue{Discriminant: DiscNone} }

func FromI32(v int32) JitValue {
	return JitValue{Discriminant: DiscI32, Payload: uint64(uint32(v))}
}

func FromI64(v int64) JitValue {
	return JitValue{Discriminant: DiscI64, Payload: uint64(v)}
}

func FromF32(v float32) JitValue {
	return JitValue{Discriminant: DiscF32, Payload: uint64(math.Float32bits(v))}
}

func FromF64(v float64) JitValue {
	return JitValue{Discriminant: DiscF64, Payload: math.Float64bits(v)}
}

// IsNone reports whether the value is the no-value marker.
func (v JitValue) IsNone() bool { return v.Discriminant == DiscNone }

func (v JitValue) AsI32() (int32, error) {
	if v.Discriminant != DiscI32 {
		return 0, &ErrInvalidValue{Expected: DiscI32, Actual: v.Discriminant}
	}
	return int32(uint32(v.Payload)), nil
}

func (v JitValue) AsI64() (int64, error) {
	if v.Discriminant != DiscI64 {
		return 0, &ErrInvalidValue{Expected: DiscI64, Actual: v.Discriminant}
	}
	return int64(v.Payload), nil
}

func (v JitValue) AsF32() (float32, error) {
	if v.Discriminant != DiscF32 {
		return 0, &ErrInvalidValue{Expected: DiscF32, Actual: v.Discriminant}
	}
	return math.Float32frombits(uint32(v.Payload)), nil
}

func (v JitValue) AsF64() (float64, error) {
	if v.Discriminant != DiscF64 {
		return 0, &ErrInvalidValue{Expected: DiscF64, Actual: v.Discriminant}
	}
	return math.Float64frombits(v.Payload), nil
}
