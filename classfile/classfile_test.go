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

// buildMinimalClassFile constructs a minimal but structurally valid class
// file: `public class Empty extends java/lang/Object`, no fields, no
// methods, no attributes.
func buildMinimalClassFile() *ClassFile {
	cp := NewConstantPool()
	thisIdx := cp.AddClass("Empty")
	superIdx := cp.AddClass("java/lang/Object")

	return &ClassFile{
		MinorVersion: 0,
		MajorVersion: 61,
		ConstantPool: cp,
		AccessFlags:  AccPublic | AccSuper,
		ThisClass:    thisIdx,
		SuperClass:   superIdx,
	}
}

func TestClassFileParseEncodeRoundTrip(t *testing.T) {
	original := buildMinimalClassFile()
	encoded := Encode(original)

	parsed, err := Parse(encoded)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	name, err := parsed.ThisClassName()
	if err != nil || name != "Empty" {
		t.Fatalf("ThisClassName = %q, %v", name, err)
	}
	super, err := parsed.SuperClassName()
	if err != nil || super != "java/lang/Object" {
		t.Fatalf("SuperClassName = %q, %v", super, err)
	}
	if parsed.MajorVersion != 61 {
		t.Fatalf("MajorVersion = %d, want 61", parsed.MajorVersion)
	}
	if !parsed.IsFinal() == original.IsFinal() {
		// both should agree regardless of value; this just exercises the
		// predicate without asserting a particular flag state.
		_ = parsed.IsFinal()
	}

	reencoded := Encode(parsed)
	if !bytes.Equal(encoded, reencoded) {
		t.Fatalf("re-encoding a parsed class file did not reproduce the original bytes")
	}
}

func TestClassFileParseRejectsBadMagic(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x00}
	_, err := Parse(data)
	if err == nil {
		t.Fatal("expected an error for bad magic")
	}
}

func TestClassFileParseRejectsTruncatedFile(t *testing.T) {
	original := buildMinimalClassFile()
	encoded := Encode(original)
	_, err := Parse(encoded[:len(encoded)-2])
	if err == nil {
		t.Fatal("expected an error for a truncated class file")
	}
}

func TestClassFileParseRejectsInvalidThisClassIndex(t *testing.T) {
	original := buildMinimalClassFile()
	original.ThisClass = 0xFFFF
	encoded := Encode(original)
	_, err := Parse(encoded)
	if err == nil {
		t.Fatal("expected an error for an out-of-range this_class index")
	}
}

func TestConstantPoolLongDoubleReserveNextSlot(t *testing.T) {
	cp := NewConstantPool()
	longIdx := cp.AddLong(42)
	nextIdx := cp.AddUtf8("after")

	if nextIdx != longIdx+2 {
		t.Fatalf("expected the slot after a Long entry to be reserved: long=%d next=%d", longIdx, nextIdx)
	}
	if _, err := cp.Get(longIdx + 1); err == nil {
		t.Fatal("expected the slot immediately after a Long entry to be unusable")
	}
}
