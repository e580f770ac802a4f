/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"strings"
	"unicode"

	"ristretto/classloader"
	"ristretto/stringPool"
	"ristretto/types"
)

// GoStringFromJavaByteArray converts a Java byte array to a Go string by
// truncating each element to its low 8 bits, the inverse of
// JavaByteArrayFromGoString.
func GoStringFromJavaByteArray(jbarr []types.JavaByte) string {
	var sb strings.Builder
	for _, b := range jbarr {
		sb.WriteByte(byte(b))
	}
	return sb.String()
}

func JavaByteArrayFromGoString(str string) []types.JavaByte {
	jbarr := make([]types.JavaByte, len(str))
	for i := 0; i < len(str); i++ {
		jbarr[i] = types.JavaByte(str[i])
	}
	return jbarr
}

func JavaByteArrayFromGoByteArray(gbarr []byte) []types.JavaByte {
	jbarr := make([]types.JavaByte, len(gbarr))
	for i, b := range gbarr {
		jbarr[i] = types.JavaByte(b)
	}
	return jbarr
}

func GoByteArrayFromJavaByteArray(jbarr []types.JavaByte) []byte {
	gbarr := make([]byte, len(jbarr))
	for i, b := range jbarr {
		gbarr[i] = byte(b)
	}
	return gbarr
}

// JavaByteArrayFromStringObject extracts the backing byte array from a
// java/lang/String object built by NewStringObject, or nil if obj isn't a
// post-Java-8 String backed by a byte array.
func JavaByteArrayFromStringObject(obj *Object) []types.JavaByte {
	if obj == nil || obj.Klass == nil || obj.Klass.Name != types.StringClassName {
		return nil
	}
	f := obj.GetField("value")
	if f == nil {
		return nil
	}
	ref, ok := f.Fvalue.(*Reference)
	if !ok || ref == nil || ref.Kind != ByteArrayRef {
		return nil
	}
	return ref.Bytes
}

// StringObjectFromJavaByteArray builds a String object directly from an
// already-encoded byte array, bypassing NewStringObject's Go-string entry
// point for callers that already hold MUTF-8 bytes (e.g. a deserialized
// constant-pool UTF-8 entry).
func StringObjectFromJavaByteArray(klass *classloader.LoadedClass, bytes []types.JavaByte) *Object {
	obj := &Object{Klass: klass, FieldTable: make(FieldTable)}
	ref := &Reference{Kind: ByteArrayRef, Bytes: bytes}
	obj.FieldTable["value"] = &Field{Ftype: types.ByteArray, Fvalue: ref}
	return obj
}

// JavaByteArrayFromStringPoolIndex looks up an interned Go string by its
// stringPool index and re-encodes it as a Java byte array.
func JavaByteArrayFromStringPoolIndex(index uint32) []types.JavaByte {
	if index < stringPool.GetStringPoolSize() {
		str := *stringPool.GetStringPointer(index)
		return JavaByteArrayFromGoString(str)
	}
	return nil
}

func JavaByteArrayEquals(jbarr1, jbarr2 []types.JavaByte) bool {
	if jbarr1 == nil || jbarr2 == nil {
		return jbarr1 == nil && jbarr2 == nil
	}
	if len(jbarr1) != len(jbarr2) {
		return false
	}
	for i, b := range jbarr1 {
		if b != jbarr2[i] {
			return false
		}
	}
	return true
}

func JavaByteArrayEqualsIgnoreCase(jbarr1, jbarr2 []types.JavaByte) bool {
	if jbarr1 == nil || jbarr2 == nil {
		return jbarr1 == nil && jbarr2 == nil
	}
	if len(jbarr1) != len(jbarr2) {
		return false
	}
	for i, b := range jbarr1 {
		if unicode.ToLower(rune(b)) != unicode.ToLower(rune(jbarr2[i])) {
			return false
		}
	}
	return true
}
