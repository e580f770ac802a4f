/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package frames implements the per-invocation operand stack and local
// variable array plus the per-thread stack of frames
//.
package frames

import "ristretto/object"

// Kind tags which alternative of Value is populated.
type Kind int

const (
	KindInt Kind = iota
	KindLong
	KindFloat
	KindDouble
	KindObject
	// KindReturnAddress backs jsr/ret.
	KindReturnAddress
)

// Value is one operand-stack slot or local-variable slot. Exactly one of
// I/L/F/D/Ref/RetAddr is meaningful, selected by Kind.
type Value struct {
	Kind    Kind
	I       int32
	L       int64
	F       float32
	D       float64
	Ref     *object.Object // nil means the Java null reference
	RetAddr int
}

func Int(i int32) Value         { return Value{Kind: KindInt, I: i} }
func Long(l int64) Value        { return Value{Kind: KindLong, L: l} }
func Float(f float32) Value     { return Value{Kind: KindFloat, F: f} }
func Double(d float64) Value    { return Value{Kind: KindDouble, D: d} }
func Object(o *object.Object) Value { return Value{Kind: KindObject, Ref: o} }
func ReturnAddress(pc int) Value { return Value{Kind: KindReturnAddress, RetAddr: pc} }

// IsCategory1 reports whether v occupies a single logical stack/local slot
// (everything except Long and Double).
func (v Value) IsCategory1() bool { return v.Kind != KindLong && v.Kind != KindDouble }
