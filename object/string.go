/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"fmt"
	"unicode/utf16"

	"ristretto/classfile"
	"ristretto/classloader"
	"ristretto/types"
)

// javaSEMajorVersion8 is the class-file major version emitted by javac 8;
// String decoding splits at this boundary.
const javaSEMajorVersion8 = 52

// AsString decodes obj's backing "value" field as a Go string:
// class-file versions greater than 8 store the backing array as MUTF-8
// bytes, versions 8 and earlier store it as raw UTF-16 code units.
func AsString(obj *Object) (string, error) {
	if obj.Klass == nil || obj.Klass.Name != types.StringClassName {
		return "", fmt.Errorf("object: expected a %s value", types.StringClassName)
	}
	f := obj.GetField("value")
	if f == nil {
		return "", fmt.Errorf("object: %s has no value field", types.StringClassName)
	}
	ref, ok := f.Fvalue.(*Reference)
	if !ok || ref == nil {
		return "", fmt.Errorf("object: expected an array field value")
	}

	if obj.Klass.MajorVersion() <= javaSEMajorVersion8 {
		if ref.Kind != CharArrayRef {
			return "", fmt.Errorf("object: expected a char array value")
		}
		return string(utf16.Decode(ref.Chars)), nil
	}
	if ref.Kind != ByteArrayRef {
		return "", fmt.Errorf("object: expected a byte array value")
	}
	raw := make([]byte, len(ref.Bytes))
	for i, b := range ref.Bytes {
		raw[i] = byte(b)
	}
	runes, err := classfile.DecodeMUTF8(raw)
	if err != nil {
		return "", fmt.Errorf("object: %w", err)
	}
	return string(runes), nil
}

// NewStringObject builds a java/lang/String instance backed by a MUTF-8
// byte array (the representation class-file versions beyond Java 8 use),
// the convenience constructor intrinsics reach for instead of walking
// through full class loading for every literal.
func NewStringObject(klass *classloader.LoadedClass, s string) *Object {
	obj := &Object{Klass: klass, FieldTable: make(FieldTable)}
	encoded := classfile.EncodeMUTF8String(s)
	ref := NewByteArray(len(encoded))
	for i, b := range encoded {
		ref.Bytes[i] = types.JavaByte(int8(b))
	}
	obj.FieldTable["value"] = &Field{Ftype: types.ByteArray, Fvalue: ref}
	return obj
}

// StringObjectFromGoString builds a String instance without requiring the
// caller to hold a class handle: the String class is resolved through the
// application loader when available, left nil otherwise (intrinsics run
// before any class is installed in some tests; a nil Klass only matters
// to AsString's strict path).
func StringObjectFromGoString(s string) *Object {
	klass, _ := classloader.AppCL.Load(types.StringClassName)
	return NewStringObject(klass, s)
}

// GoStringFromStringObject is AsString's tolerant sibling: it decodes
// whatever backing array the object carries and returns "" for anything
// that isn't a recognizable String. Intrinsics prefer this shape because
// a malformed argument becomes a Java exception at a higher level, not a
// Go error threaded through every string helper.
func GoStringFromStringObject(obj *Object) string {
	if obj == nil {
		return ""
	}
	f := obj.GetField("value")
	if f == nil {
		return ""
	}
	ref, ok := f.Fvalue.(*Reference)
	if !ok || ref == nil {
		return ""
	}
	switch ref.Kind {
	case ByteArrayRef:
		raw := GoByteArrayFromJavaByteArray(ref.Bytes)
		if runes, err := classfile.DecodeMUTF8(raw); err == nil {
			return string(runes)
		}
		return string(raw)
	case CharArrayRef:
		return string(utf16.Decode(ref.Chars))
	default:
		return ""
	}
}

// ByteArrayFromStringObject returns the String's backing bytes as a Go
// byte slice, nil when obj isn't byte-array backed.
func ByteArrayFromStringObject(obj *Object) []byte {
	jb := JavaByteArrayFromStringObject(obj)
	if jb == nil {
		return nil
	}
	return GoByteArrayFromJavaByteArray(jb)
}

// UpdateStringObjectFromBytes rewrites obj's backing array in place from
// raw MUTF-8/ASCII bytes, the String.<init> family's workhorse.
func UpdateStringObjectFromBytes(obj *Object, raw []byte) {
	ref := NewByteArray(len(raw))
	for i, b := range raw {
		ref.Bytes[i] = types.JavaByte(int8(b))
	}
	obj.FieldTable["value"] = &Field{Ftype: types.ByteArray, Fvalue: ref}
}
