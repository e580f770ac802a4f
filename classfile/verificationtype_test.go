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

// the Object tag carries a two-byte constant-pool index payload.
func TestVerificationTypeRoundTrip(t *testing.T) {
	vt := Object(15)
	encoded := vt.ToBytes()
	want := []byte{0x07, 0x00, 0x0F}
	if !bytes.Equal(encoded, want) {
		t.Fatalf("ToBytes = % X, want % X", encoded, want)
	}

	decoded, n, err := VerificationTypeFromBytes(encoded)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if n != 3 || decoded != vt {
		t.Fatalf("decoded %+v (%d bytes), want %+v", decoded, n, vt)
	}
}

func TestVerificationTypeSingleByteForms(t *testing.T) {
	for _, tag := range []VerificationTypeTag{VTTop, VTInteger, VTFloat, VTDouble, VTLong, VTNull, VTUninitializedThis} {
		vt := VerificationType{Tag: tag}
		encoded := vt.ToBytes()
		if len(encoded) != 1 {
			t.Fatalf("tag %d: encoded length = %d, want 1", tag, len(encoded))
		}
		decoded, n, err := VerificationTypeFromBytes(encoded)
		if err != nil || n != 1 || decoded != vt {
			t.Fatalf("tag %d round trip failed: %+v, %d, %v", tag, decoded, n, err)
		}
	}
}

func TestVerificationTypeInvalidTag(t *testing.T) {
	_, _, err := VerificationTypeFromBytes([]byte{0x09})
	if err == nil {
		t.Fatal("expected an error for an invalid verification-type tag")
	}
}

func TestJoinVerificationTypesUnequalPrimitivesJoinToTop(t *testing.T) {
	joined := JoinVerificationTypes(VerificationType{Tag: VTInteger}, VerificationType{Tag: VTFloat}, nil)
	if joined.Tag != VTTop {
		t.Fatalf("join(Integer, Float) = %+v, want Top", joined)
	}
}

func TestJoinVerificationTypesIdenticalObjectsJoinToThemselves(t *testing.T) {
	a := Object(5)
	joined := JoinVerificationTypes(a, a, nil)
	if joined != a {
		t.Fatalf("join(a, a) = %+v, want %+v", joined, a)
	}
}
