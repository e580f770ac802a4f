/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"strings"
	"testing"

	"ristretto/classfile"
	"ristretto/classloader"
	"ristretto/globals"
	"ristretto/types"
)

// buildClassWithFields constructs a minimal class file with super and one
// instance field plus one static field, to exercise NewObject's
// self-then-parent, statics-excluded enumeration.
func buildClassWithFields(t *testing.T, name, super string, fields []testField) []byte {
	t.Helper()
	cp := classfile.NewConstantPool()
	thisIdx := cp.AddClass(name)
	superIdx := cp.AddClass(super)

	var fis []classfile.FieldInfo
	for _, tf := range fields {
		nameIdx := cp.AddUtf8(tf.name)
		descIdx := cp.AddUtf8(tf.descriptor)
		flags := uint16(0)
		if tf.static {
			flags |= classfile.AccStatic
		}
		fis = append(fis, classfile.FieldInfo{AccessFlags: flags, NameIndex: nameIdx, DescriptorIndex: descIdx})
	}

	cf := &classfile.ClassFile{
		MinorVersion: 0,
		MajorVersion: 61,
		ConstantPool: cp,
		AccessFlags:  classfile.AccPublic | classfile.AccSuper,
		ThisClass:    thisIdx,
		SuperClass:   superIdx,
		Fields:       fis,
	}
	return classfile.Encode(cf)
}

type testField struct {
	name       string
	descriptor string
	static     bool
}

func loadWithFields(t *testing.T, cl *classloader.Classloader, name, super string, fields []testField) *classloader.LoadedClass {
	t.Helper()
	lc, err := cl.LoadClassFromBytes(buildClassWithFields(t, name, super, fields), true)
	if err != nil {
		t.Fatalf("LoadClassFromBytes(%s): %v", name, err)
	}
	return lc
}

func newTestClassloader(t *testing.T) *classloader.Classloader {
	t.Helper()
	globals.InitGlobals("test")
	return classloader.NewClassloader("test", nil)
}

func TestNewObjectEnumeratesSelfAndParentFields(t *testing.T) {
	cl := newTestClassloader(t)
	loadWithFields(t, cl, "java/lang/Object", "java/lang/Object", nil).ClassFile.SuperClass = 0
	loadWithFields(t, cl, "com/example/Base", "java/lang/Object", []testField{
		{name: "baseInt", descriptor: types.Int},
		{name: "staticFlag", descriptor: types.Bool, static: true},
	})
	sub := loadWithFields(t, cl, "com/example/Sub", "com/example/Base", []testField{
		{name: "subFloat", descriptor: types.Float},
	})

	obj, err := NewObject(sub)
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}
	if _, ok := obj.FieldTable["baseInt"]; !ok {
		t.Error("expected inherited field baseInt to be enumerated")
	}
	if _, ok := obj.FieldTable["subFloat"]; !ok {
		t.Error("expected declared field subFloat to be enumerated")
	}
	if _, ok := obj.FieldTable["staticFlag"]; ok {
		t.Error("static fields must not be enumerated as instance fields")
	}
	if obj.FieldTable["baseInt"].Fvalue != int32(0) {
		t.Errorf("baseInt zero value = %v, want int32(0)", obj.FieldTable["baseInt"].Fvalue)
	}
}

func TestNewObjectFirstWriteWinsOnShadowedField(t *testing.T) {
	cl := newTestClassloader(t)
	loadWithFields(t, cl, "java/lang/Object", "java/lang/Object", nil).ClassFile.SuperClass = 0
	loadWithFields(t, cl, "com/example/Base", "java/lang/Object", []testField{
		{name: "x", descriptor: types.Int},
	})
	sub := loadWithFields(t, cl, "com/example/Sub", "com/example/Base", []testField{
		{name: "x", descriptor: types.Long},
	})

	obj, err := NewObject(sub)
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}
	if obj.FieldTable["x"].Ftype != types.Long {
		t.Errorf("Ftype = %q, want %q (subclass declaration should win)", obj.FieldTable["x"].Ftype, types.Long)
	}
}

func TestSetFieldNarrowsIntToByte(t *testing.T) {
	cl := newTestClassloader(t)
	loadWithFields(t, cl, "java/lang/Object", "java/lang/Object", nil).ClassFile.SuperClass = 0
	klass := loadWithFields(t, cl, "com/example/Widget", "java/lang/Object", []testField{
		{name: "b", descriptor: types.Byte},
	})

	obj, err := NewObject(klass)
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}
	if err := obj.SetField("b", int32(0x1FF)); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	wide := int32(0x1FF)
	if obj.FieldTable["b"].Fvalue != int32(int8(wide)) {
		t.Errorf("narrowed byte = %v, want %v", obj.FieldTable["b"].Fvalue, int32(int8(wide)))
	}
}

func TestInstanceOfDelegatesToAssignability(t *testing.T) {
	cl := newTestClassloader(t)
	object := loadWithFields(t, cl, "java/lang/Object", "java/lang/Object", nil)
	object.ClassFile.SuperClass = 0
	sub := loadWithFields(t, cl, "com/example/Sub", "java/lang/Object", nil)

	obj, err := NewObject(sub)
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}
	ok, err := obj.InstanceOf(object)
	if err != nil || !ok {
		t.Fatalf("InstanceOf(Object) = %v, %v; want true, nil", ok, err)
	}
}

func TestObjectStringIncludesClassAndFields(t *testing.T) {
	cl := newTestClassloader(t)
	loadWithFields(t, cl, "java/lang/Object", "java/lang/Object", nil).ClassFile.SuperClass = 0
	klass := loadWithFields(t, cl, "com/example/Widget", "java/lang/Object", []testField{
		{name: "count", descriptor: types.Int},
	})
	obj, err := NewObject(klass)
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}
	s := obj.String()
	if !strings.Contains(s, "com/example/Widget") || !strings.Contains(s, "count") {
		t.Errorf("String() = %q, expected class name and field name present", s)
	}
}

func TestStringRoundTripPostJava8UsesMutf8ByteArray(t *testing.T) {
	cl := newTestClassloader(t)
	object := loadWithFields(t, cl, "java/lang/Object", "java/lang/Object", nil)
	object.ClassFile.SuperClass = 0
	strKlass := loadWithFields(t, cl, "java/lang/String", "java/lang/Object", []testField{
		{name: "value", descriptor: types.ByteArray},
	})

	obj := NewStringObject(strKlass, "hello")
	got, err := AsString(obj)
	if err != nil {
		t.Fatalf("AsString: %v", err)
	}
	if got != "hello" {
		t.Errorf("AsString = %q, want %q", got, "hello")
	}
}

func TestStringRoundTripJava8UsesUtf16CharArray(t *testing.T) {
	cl := newTestClassloader(t)
	loadWithFields(t, cl, "java/lang/Object", "java/lang/Object", nil).ClassFile.SuperClass = 0
	cp := classfile.NewConstantPool()
	thisIdx := cp.AddClass("java/lang/String")
	superIdx := cp.AddClass("java/lang/Object")
	cf := &classfile.ClassFile{
		MinorVersion: 0,
		MajorVersion: 52, // Java 8
		ConstantPool: cp,
		AccessFlags:  classfile.AccPublic,
		ThisClass:    thisIdx,
		SuperClass:   superIdx,
	}
	strKlass, err := cl.LoadClassFromBytes(classfile.Encode(cf), true)
	if err != nil {
		t.Fatalf("LoadClassFromBytes: %v", err)
	}

	obj := &Object{Klass: strKlass, FieldTable: make(FieldTable)}
	ref := NewCharArray(len("hi"))
	for i, r := range "hi" {
		ref.Chars[i] = uint16(r)
	}
	obj.FieldTable["value"] = &Field{Ftype: types.CharArray, Fvalue: ref}

	got, err := AsString(obj)
	if err != nil {
		t.Fatalf("AsString: %v", err)
	}
	if got != "hi" {
		t.Errorf("AsString = %q, want %q", got, "hi")
	}
}
