/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"bytes"
	"testing"
)

// a one-element Array wrapping one Annotation
// wrapping one Byte element value.
func TestAnnotationElementRoundTrip(t *testing.T) {
	elem := AnnotationElement{
		Tag: ElemArray,
		ArrayValues: []AnnotationElement{
			{
				Tag: ElemAnnotation,
				NestedAnnotation: &Annotation{
					TypeIndex: 3,
					Elements: []AnnotationElementPair{
						{NameIndex: 1, Value: AnnotationElement{Tag: ElemByte, ConstValueIndex: 42}},
					},
				},
			},
		},
	}

	encoded, err := elem.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	want := []byte{0x5B, 0x00, 0x01, 0x40, 0x00, 0x03, 0x00, 0x01, 0x00, 0x01, 0x42, 0x00, 0x2A}
	if !bytes.Equal(encoded, want) {
		t.Fatalf("ToBytes = % X, want % X", encoded, want)
	}

	decoded, n, err := AnnotationElementFromBytes(encoded)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if n != len(encoded) {
		t.Fatalf("consumed %d bytes, want %d", n, len(encoded))
	}
	if decoded.Tag != ElemArray || len(decoded.ArrayValues) != 1 {
		t.Fatalf("decoded shape mismatch: %+v", decoded)
	}
	nested := decoded.ArrayValues[0].NestedAnnotation
	if nested == nil || nested.TypeIndex != 3 || len(nested.Elements) != 1 {
		t.Fatalf("nested annotation mismatch: %+v", nested)
	}
	inner := nested.Elements[0]
	if inner.NameIndex != 1 || inner.Value.Tag != ElemByte || inner.Value.ConstValueIndex != 42 {
		t.Fatalf("inner element mismatch: %+v", inner)
	}
}

func TestAnnotationArrayTooLarge(t *testing.T) {
	elem := AnnotationElement{Tag: ElemArray, ArrayValues: make([]AnnotationElement, 65536)}
	if _, err := elem.ToBytes(); err != ErrArrayTooLarge {
		t.Fatalf("expected ErrArrayTooLarge, got %v", err)
	}
}

func TestAnnotationElementInvalidTag(t *testing.T) {
	_, _, err := AnnotationElementFromBytes([]byte{0xFF, 0x00, 0x00})
	if err == nil {
		t.Fatal("expected an error for an invalid annotation tag")
	}
}
