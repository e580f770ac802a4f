/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package object implements the engine's runtime object layout: instance
// fields, array references, and the assignability-delegating instance_of
// check. It sits above classloader (which owns class
// resolution and the field declarations themselves) and below gc (which
// traces Object/Reference graphs for collection).
package object

import (
	"fmt"
	"strings"

	"ristretto/classfile"
	"ristretto/classloader"
)

// Field holds one instance field's declared type tag and current value.
// Fvalue's dynamic type depends on Ftype: bool for Z, int32 for B/C/S/I,
// int64 for J, float32 for F, float64 for D, a *Reference for arrays, a
// *Object for object references.
type Field struct {
	Ftype  string
	Fvalue any
}

// FieldTable is the name-indexed storage for one object's instance fields.
type FieldTable map[string]*Field

// Object is a runtime instance of a loaded class: its class handle plus
// the flattened field table produced by NewObject's self-then-parent
// enumeration.
type Object struct {
	Klass      *classloader.LoadedClass
	FieldTable FieldTable
}

// NewObject enumerates klass's instance fields by walking self -> parent
// -> parent..., skipping static fields and keeping the first declaration
// seen for a given name, and returns a zero-valued Object
// ready for the interpreter's <init> dispatch to populate.
func NewObject(klass *classloader.LoadedClass) (*Object, error) {
	obj := &Object{Klass: klass, FieldTable: make(FieldTable)}
	for cur := klass; cur != nil; {
		for _, name := range cur.DeclaredFieldNames() {
			if _, exists := obj.FieldTable[name]; exists {
				continue // first-write-wins: a subclass's field shadows the ancestor's
			}
			fi, ok := cur.DeclaredField(name)
			if !ok || fi.AccessFlags&classfile.AccStatic != 0 {
				continue
			}
			descriptor, err := fieldDescriptor(cur, fi)
			if err != nil {
				return nil, fmt.Errorf("object: %w", err)
			}
			obj.FieldTable[name] = &Field{Ftype: descriptor, Fvalue: zeroValue(descriptor)}
		}
		parent, err := cur.Parent()
		if err != nil {
			return nil, fmt.Errorf("object: resolving parent of %s: %w", cur.Name, err)
		}
		cur = parent
	}
	return obj, nil
}

func fieldDescriptor(lc *classloader.LoadedClass, fi *classfile.FieldInfo) (string, error) {
	entry, err := lc.ClassFile.ConstantPool.Get(fi.DescriptorIndex)
	if err != nil {
		return "", err
	}
	return entry.AsString()
}

// zeroValue returns a type-appropriate default for a freshly allocated
// field, mirroring the JVM's guarantee that every field starts at its
// type's zero value before any constructor runs.
func zeroValue(descriptor string) any {
	if descriptor == "" {
		return nil
	}
	switch descriptor[0] {
	case 'Z':
		return false
	case 'B', 'S', 'I':
		return int32(0)
	case 'C':
		return rune(0)
	case 'J':
		return int64(0)
	case 'F':
		return float32(0)
	case 'D':
		return float64(0)
	default:
		return nil // object/array references start nil
	}
}

// InstanceOf delegates to the classloader's assignability rule over the
// object's own class.
func (o *Object) InstanceOf(target *classloader.LoadedClass) (bool, error) {
	return classloader.IsAssignableFrom(target, o.Klass)
}

// GetField returns the named field, or nil if it isn't present.
func (o *Object) GetField(name string) *Field {
	return o.FieldTable[name]
}

// SetField stores value into the named field, narrowing an int32 source
// into byte/char/short slots the way a Java assignment to a narrower
// local would.
func (o *Object) SetField(name string, value any) error {
	f, ok := o.FieldTable[name]
	if !ok {
		return fmt.Errorf("object: %s has no field %q", o.className(), name)
	}
	f.Fvalue = narrow(f.Ftype, value)
	return nil
}

func narrow(descriptor string, value any) any {
	if descriptor == "" {
		return value
	}
	iv, ok := value.(int32)
	if !ok {
		return value
	}
	switch descriptor[0] {
	case 'B':
		return int32(int8(iv))
	case 'C':
		return rune(uint16(iv))
	case 'S':
		return int32(int16(iv))
	default:
		return value
	}
}

func (o *Object) className() string {
	if o.Klass == nil {
		return "<unknown>"
	}
	return o.Klass.Name
}

// String renders a "class Klass fieldName(type)=value" debug view, used by
// logging and test failure messages; it is not the Java
// toString() dispatch (that belongs to the interpreter/gfunction).
func (o *Object) String() string {
	var sb strings.Builder
	sb.WriteString("class ")
	sb.WriteString(o.className())
	for name, f := range o.FieldTable {
		fmt.Fprintf(&sb, " %s(%s)=%v", name, f.Ftype, f.Fvalue)
	}
	return sb.String()
}
