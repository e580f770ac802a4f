/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"testing"

	"ristretto/classfile"
	"ristretto/globals"
)

func buildClass(t *testing.T, name, super string) []byte {
	t.Helper()
	cp := classfile.NewConstantPool()
	thisIdx := cp.AddClass(name)
	superIdx := cp.AddClass(super)
	cf := &classfile.ClassFile{
		MinorVersion: 0,
		MajorVersion: 61,
		ConstantPool: cp,
		AccessFlags:  classfile.AccPublic | classfile.AccSuper,
		ThisClass:    thisIdx,
		SuperClass:   superIdx,
	}
	return classfile.Encode(cf)
}

func TestInitWiresDelegationHierarchy(t *testing.T) {
	globals.InitGlobals("test")
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if AppCL.Parent != &ExtensionCL || ExtensionCL.Parent != &BootstrapCL || BootstrapCL.Parent != nil {
		t.Fatal("expected Bootstrap <- Extension <- App delegation chain")
	}
}

func TestLoadClassFromBytesCachesByName(t *testing.T) {
	globals.InitGlobals("test")
	cl := &Classloader{Name: "test", classes: make(map[string]*LoadedClass)}

	raw := buildClass(t, "com/example/Foo", "java/lang/Object")
	lc1, err := cl.LoadClassFromBytes(raw, true)
	if err != nil {
		t.Fatalf("LoadClassFromBytes: %v", err)
	}
	if lc1.Name != "com/example/Foo" {
		t.Fatalf("Name = %q, want com/example/Foo", lc1.Name)
	}

	lc2, err := cl.LoadClassFromBytes(raw, true)
	if err != nil {
		t.Fatalf("LoadClassFromBytes (second): %v", err)
	}
	if lc1 != lc2 {
		t.Fatal("expected the same handle for a repeated load of the same class")
	}
}

func TestLoadDelegatesToParentFirst(t *testing.T) {
	globals.InitGlobals("test")
	parent := &Classloader{Name: "parent", classes: make(map[string]*LoadedClass)}
	child := &Classloader{Name: "child", Parent: parent, classes: make(map[string]*LoadedClass)}

	raw := buildClass(t, "com/example/Bar", "java/lang/Object")
	if _, err := parent.LoadClassFromBytes(raw, true); err != nil {
		t.Fatalf("LoadClassFromBytes on parent: %v", err)
	}

	lc, err := child.Load("com/example/Bar")
	if err != nil {
		t.Fatalf("Load via child: %v", err)
	}
	if lc.Loader != parent {
		t.Fatalf("expected the class resolved via the parent loader, got loader %q", lc.Loader.Name)
	}
}

func TestLoadSynthesizesArrayClass(t *testing.T) {
	globals.InitGlobals("test")
	cl := &Classloader{Name: "test", classes: make(map[string]*LoadedClass)}

	arr, err := cl.Load("[I")
	if err != nil {
		t.Fatalf("Load([I): %v", err)
	}
	if !arr.IsArray() || arr.ArrayDimensions != 1 || arr.ComponentName != "I" {
		t.Fatalf("unexpected array class shape: %+v", arr)
	}
}

func TestLoadUnknownClassFails(t *testing.T) {
	globals.InitGlobals("test")
	cl := &Classloader{Name: "test", classes: make(map[string]*LoadedClass)}
	if _, err := cl.Load("com/example/DoesNotExist"); err == nil {
		t.Fatal("expected an error for an unresolvable class name")
	}
}

func TestEnsureIsReentrantForOwningThread(t *testing.T) {
	globals.InitGlobals("test")
	lc := &LoadedClass{Name: "com/example/Reentrant"}

	callCount := 0
	err := lc.Ensure(1, func(*LoadedClass) error {
		callCount++
		// simulate <clinit> calling back into itself on the same thread.
		return lc.Ensure(1, func(*LoadedClass) error {
			t.Fatal("reentrant Ensure should not re-run the initializer")
			return nil
		})
	})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if callCount != 1 {
		t.Fatalf("initializer ran %d times, want 1", callCount)
	}
	if lc.State() != Initialized {
		t.Fatalf("state = %v, want Initialized", lc.State())
	}
}

func TestEnsurePropagatesInitializerError(t *testing.T) {
	globals.InitGlobals("test")
	lc := &LoadedClass{Name: "com/example/Bad"}
	err := lc.Ensure(1, func(*LoadedClass) error {
		return CFE("boom")
	})
	if err == nil {
		t.Fatal("expected Ensure to propagate the initializer's error")
	}
	if lc.State() != Erroneous {
		t.Fatalf("state = %v, want Erroneous", lc.State())
	}
}
