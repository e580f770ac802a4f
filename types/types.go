/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package types defines the descriptor-tag vocabulary shared across the
// engine: the single-character field-descriptor types the class file uses
// (B, C, D, F, I, J, S, Z, L..., [...) plus the handful of pseudo-types
// the engine needs internally (byte arrays, reference pool indices).
package types

// JavaByte is a signed 8-bit Java byte, kept distinct from Go's unsigned
// byte so that object fields round-trip through sign extension correctly.
type JavaByte int8

// Field-descriptor type tags, one character each, per the class-file spec.
const (
	Bool      = "Z"
	Byte      = "B"
	Char      = "C"
	Double    = "D"
	Float     = "F"
	Int       = "I"
	Long      = "J"
	Short     = "S"
	Void      = "V"
	Ref       = "L"
	Array     = "["
	ByteArray = "[B"
	CharArray = "[C"
	IntArray  = "[I"
	RefArray  = "[L"

	// Static-field marker prefix "X". object.NewObject leaves static
	// fields out of a FieldTable, so no FieldTable descriptor carries it.
	Static = "X"
)

// Java booleans live inside ints on the operand stack; intrinsics return these rather than Go bools.
const (
	JavaBoolTrue  = int64(1)
	JavaBoolFalse = int64(0)
)

// StringClassName is the fully qualified name of java/lang/String, used
// pervasively enough (object field decoding, intrinsic dispatch) to merit
// its own constant rather than a repeated literal.
const StringClassName = "java/lang/String"

// StringPoolStringIndex names stringPool slot 1, the first slot after the
// sentinel. No code in the engine compares against it; String objects are
// recognized by comparing Klass.Name with StringClassName.
const StringPoolStringIndex = uint32(1)

// IsCategory2 reports whether a field/operand descriptor occupies two
// logical JVM stack/local slots (Long, Double).
func IsCategory2(descriptor string) bool {
	if descriptor == "" {
		return false
	}
	switch string(descriptor[0]) {
	case Long, Double:
		return true
	default:
		return false
	}
}

// IsReference reports whether a descriptor denotes an object or array
// reference type, as opposed to a primitive.
func IsReference(descriptor string) bool {
	if descriptor == "" {
		return false
	}
	switch string(descriptor[0]) {
	case Ref, Array:
		return true
	default:
		return false
	}
}
