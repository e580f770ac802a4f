/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"ristretto/classloader"
	"ristretto/object"
	"ristretto/types"
)

// Array-object construction for intrinsic return values. The layout
// matches the interpreter's: an Object of the synthetic array class
// whose "value" field holds the element container. The class handle is
// resolved best-effort through the application loader; a nil Klass is
// tolerated everywhere an intrinsic result flows.

func arrayObject(arrayClassName string, ref *object.Reference) *object.Object {
	klass, _ := classloader.AppCL.Load(arrayClassName)
	return &object.Object{Klass: klass, FieldTable: object.FieldTable{
		"value": &object.Field{Ftype: arrayClassName, Fvalue: ref},
	}}
}

func byteArrayObject(raw []byte) *object.Object {
	ref := object.NewByteArray(len(raw))
	for i, b := range raw {
		ref.Bytes[i] = types.JavaByte(int8(b))
	}
	return arrayObject(types.ByteArray, ref)
}

func charArrayObject(chars []uint16) *object.Object {
	ref := object.NewCharArray(len(chars))
	copy(ref.Chars, chars)
	return arrayObject(types.CharArray, ref)
}

func stringArrayObject(strs []string) *object.Object {
	ref := object.NewArray(types.StringClassName, len(strs))
	for i, s := range strs {
		ref.Refs[i] = object.StringObjectFromGoString(s)
	}
	return arrayObject("[Ljava/lang/String;", ref)
}

// charArrayContents reads a char-array argument's elements, nil when the
// object isn't char-array backed.
func charArrayContents(obj *object.Object) []uint16 {
	if obj == nil {
		return nil
	}
	fld := obj.GetField("value")
	if fld == nil {
		return nil
	}
	ref, ok := fld.Fvalue.(*object.Reference)
	if !ok || ref == nil || ref.Kind != object.CharArrayRef {
		return nil
	}
	return ref.Chars
}
