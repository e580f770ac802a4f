/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"fmt"

	"ristretto/types"
)

// ReferenceKind tags which alternative of Reference is populated
// (byte/char/short/int/long/float/double arrays, plus a general
// object-element array and a bare Object).
type ReferenceKind int

const (
	ByteArrayRef ReferenceKind = iota
	CharArrayRef
	ShortArrayRef
	IntArrayRef
	LongArrayRef
	FloatArrayRef
	DoubleArrayRef
	ArrayRef   // array of object references; ElementClass names the component type
	ObjectRef  // a single object reference, not an array
)

// Reference is a runtime array or object reference. Exactly one of the
// typed slices/Object below is populated, selected by Kind — a single
// tagged struct rather than an interface-per-kind hierarchy, since
// arrays need in-place element mutation that a sum-of-types interface
// doesn't give cheaply.
type Reference struct {
	Kind         ReferenceKind
	ElementClass string // populated only for ArrayRef: the component class name

	Bytes   []types.JavaByte
	Chars   []uint16
	Shorts  []int16
	Ints    []int32
	Longs   []int64
	Floats  []float32
	Doubles []float64
	Refs    []*Object

	Object *Object // populated only for ObjectRef
}

// NewByteArray, NewCharArray, ... construct a zero-filled Reference of the
// requested kind and length, the array-creation counterpart to the scalar
// zeroValue used for object fields.
func NewByteArray(n int) *Reference   { return &Reference{Kind: ByteArrayRef, Bytes: make([]types.JavaByte, n)} }
func NewCharArray(n int) *Reference   { return &Reference{Kind: CharArrayRef, Chars: make([]uint16, n)} }
func NewShortArray(n int) *Reference  { return &Reference{Kind: ShortArrayRef, Shorts: make([]int16, n)} }
func NewIntArray(n int) *Reference    { return &Reference{Kind: IntArrayRef, Ints: make([]int32, n)} }
func NewLongArray(n int) *Reference   { return &Reference{Kind: LongArrayRef, Longs: make([]int64, n)} }
func NewFloatArray(n int) *Reference  { return &Reference{Kind: FloatArrayRef, Floats: make([]float32, n)} }
func NewDoubleArray(n int) *Reference { return &Reference{Kind: DoubleArrayRef, Doubles: make([]float64, n)} }

// NewArray constructs a reference array of n elements whose component type
// is elementClass.
func NewArray(elementClass string, n int) *Reference {
	return &Reference{Kind: ArrayRef, ElementClass: elementClass, Refs: make([]*Object, n)}
}

// Len reports the array's element count, regardless of kind.
func (r *Reference) Len() int {
	switch r.Kind {
	case ByteArrayRef:
		return len(r.Bytes)
	case CharArrayRef:
		return len(r.Chars)
	case ShortArrayRef:
		return len(r.Shorts)
	case IntArrayRef:
		return len(r.Ints)
	case LongArrayRef:
		return len(r.Longs)
	case FloatArrayRef:
		return len(r.Floats)
	case DoubleArrayRef:
		return len(r.Doubles)
	case ArrayRef:
		return len(r.Refs)
	default:
		return 0
	}
}

// ErrIndexOOB is returned by Get/Set on an out-of-range array index,
// matching java.lang.ArrayIndexOutOfBoundsException's role.
var ErrIndexOOB = fmt.Errorf("array index out of bounds")

// Get reads element i, returned as the Go type appropriate to Kind
// (int32 for byte/short/char/int, int64 for long, float32/float64, or
// *Object for ArrayRef).
func (r *Reference) Get(i int) (any, error) {
	if i < 0 || i >= r.Len() {
		return nil, ErrIndexOOB
	}
	switch r.Kind {
	case ByteArrayRef:
		return int32(r.Bytes[i]), nil
	case CharArrayRef:
		return rune(r.Chars[i]), nil
	case ShortArrayRef:
		return int32(r.Shorts[i]), nil
	case IntArrayRef:
		return r.Ints[i], nil
	case LongArrayRef:
		return r.Longs[i], nil
	case FloatArrayRef:
		return r.Floats[i], nil
	case DoubleArrayRef:
		return r.Doubles[i], nil
	case ArrayRef:
		return r.Refs[i], nil
	default:
		return nil, fmt.Errorf("object: unrecognized reference kind %d", r.Kind)
	}
}

// Set writes value into element i, narrowing int32 sources the way
// Object.SetField does for byte/short/char component types.
func (r *Reference) Set(i int, value any) error {
	if i < 0 || i >= r.Len() {
		return ErrIndexOOB
	}
	switch r.Kind {
	case ByteArrayRef:
		r.Bytes[i] = types.JavaByte(int8(asInt32(value)))
	case CharArrayRef:
		r.Chars[i] = uint16(asInt32(value))
	case ShortArrayRef:
		r.Shorts[i] = int16(asInt32(value))
	case IntArrayRef:
		r.Ints[i] = asInt32(value)
	case LongArrayRef:
		r.Longs[i], _ = value.(int64)
	case FloatArrayRef:
		r.Floats[i], _ = value.(float32)
	case DoubleArrayRef:
		r.Doubles[i], _ = value.(float64)
	case ArrayRef:
		obj, _ := value.(*Object)
		r.Refs[i] = obj
	default:
		return fmt.Errorf("object: unrecognized reference kind %d", r.Kind)
	}
	return nil
}

func asInt32(value any) int32 {
	switch v := value.(type) {
	case int32:
		return v
	case int:
		return int32(v)
	default:
		return 0
	}
}
