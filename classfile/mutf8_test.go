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

// scenario 1: the special two-byte null encoding.
func TestMUTF8NullEncoding(t *testing.T) {
	encoded := EncodeMUTF8([]rune{0x0000})
	want := []byte{0xC0, 0x80}
	if !bytes.Equal(encoded, want) {
		t.Fatalf("encode(U+0000) = % X, want % X", encoded, want)
	}

	decoded, err := DecodeMUTF8(want)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 || decoded[0] != 0x0000 {
		t.Fatalf("decode(% X) = %v, want [U+0000]", want, decoded)
	}
}

// scenario 2: a supplementary code point encoded as a surrogate pair.
func TestMUTF8SupplementaryEncoding(t *testing.T) {
	encoded := EncodeMUTF8([]rune{0x1F600})
	want := []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}
	if !bytes.Equal(encoded, want) {
		t.Fatalf("encode(U+1F600) = % X, want % X", encoded, want)
	}

	decoded, err := DecodeMUTF8(want)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 || decoded[0] != 0x1F600 {
		t.Fatalf("decode(% X) = %v, want [U+1F600]", want, decoded)
	}
}

func TestMUTF8RejectsFourByteSequence(t *testing.T) {
	// a standard UTF-8 four-byte lead byte, never valid MUTF-8.
	_, err := DecodeMUTF8([]byte{0xF0, 0x9F, 0x98, 0x80})
	if err == nil {
		t.Fatal("expected an error decoding a four-byte UTF-8 sequence")
	}
}

func TestMUTF8IsolatedSurrogateDecodesToReplacement(t *testing.T) {
	// an isolated high surrogate U+D800 encoded as its own three-byte form.
	isolated := []byte{0xED, 0xA0, 0x80}
	decoded, err := DecodeMUTF8(isolated)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 || decoded[0] != 0xFFFD {
		t.Fatalf("decode(isolated surrogate) = %v, want [U+FFFD]", decoded)
	}
}

func TestMUTF8RoundTrip(t *testing.T) {
	cases := []string{"", "hello", "café au lait", "\U0001F600multi\U0001F601"}
	for _, s := range cases {
		encoded := EncodeMUTF8String(s)
		decoded, err := DecodeMUTF8String(encoded)
		if err != nil {
			t.Fatalf("decode(%q): %v", s, err)
		}
		if decoded != s {
			t.Fatalf("round trip %q -> % X -> %q", s, encoded, decoded)
		}
	}
}
