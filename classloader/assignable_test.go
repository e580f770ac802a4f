/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"testing"

	"ristretto/globals"
	"ristretto/verifier"
)

func loadTestClass(t *testing.T, cl *Classloader, name, super string) *LoadedClass {
	t.Helper()
	lc, err := cl.LoadClassFromBytes(buildClass(t, name, super), true)
	if err != nil {
		t.Fatalf("LoadClassFromBytes(%s): %v", name, err)
	}
	return lc
}

// java/lang/Object is assignable from every class.
func TestIsAssignableFromObjectAcceptsEverything(t *testing.T) {
	globals.InitGlobals("test")
	cl := &Classloader{Name: "test", classes: make(map[string]*LoadedClass)}
	object := loadTestClass(t, cl, "java/lang/Object", "java/lang/Object")
	object.ClassFile.SuperClass = 0 // java/lang/Object has no super

	sub := loadTestClass(t, cl, "com/example/Sub", "java/lang/Object")

	ok, err := IsAssignableFrom(object, sub)
	if err != nil || !ok {
		t.Fatalf("is_assignable_from(Object, Sub) = %v, %v; want true, nil", ok, err)
	}
}

// Assignability is reflexive.
func TestIsAssignableFromReflexive(t *testing.T) {
	globals.InitGlobals("test")
	cl := &Classloader{Name: "test", classes: make(map[string]*LoadedClass)}
	loadTestClass(t, cl, "java/lang/Object", "java/lang/Object").ClassFile.SuperClass = 0
	c := loadTestClass(t, cl, "com/example/C", "java/lang/Object")

	ok, err := IsAssignableFrom(c, c)
	if err != nil || !ok {
		t.Fatalf("is_assignable_from(C, C) = %v, %v; want true, nil", ok, err)
	}
}

func TestIsAssignableFromWalksSuperclassChain(t *testing.T) {
	globals.InitGlobals("test")
	cl := &Classloader{Name: "test", classes: make(map[string]*LoadedClass)}
	loadTestClass(t, cl, "java/lang/Object", "java/lang/Object").ClassFile.SuperClass = 0
	base := loadTestClass(t, cl, "com/example/Base", "java/lang/Object")
	loadTestClass(t, cl, "com/example/Derived", "com/example/Base")

	derived, err := cl.Load("com/example/Derived")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ok, err := IsAssignableFrom(base, derived)
	if err != nil || !ok {
		t.Fatalf("is_assignable_from(Base, Derived) = %v, %v; want true, nil", ok, err)
	}

	ok, err = IsAssignableFrom(derived, base)
	if err != nil || ok {
		t.Fatalf("is_assignable_from(Derived, Base) = %v, %v; want false, nil", ok, err)
	}
}

// For arrays of object component with matching dimensions, assignability
// recurses on the component types.
func TestIsAssignableFromArraysRecurseOnComponent(t *testing.T) {
	globals.InitGlobals("test")
	cl := &Classloader{Name: "test", classes: make(map[string]*LoadedClass)}
	loadTestClass(t, cl, "java/lang/Object", "java/lang/Object").ClassFile.SuperClass = 0
	loadTestClass(t, cl, "com/example/Base", "java/lang/Object")
	loadTestClass(t, cl, "com/example/Derived", "com/example/Base")

	targetArr, err := cl.Load("[Lcom/example/Base;")
	if err != nil {
		t.Fatalf("Load target array: %v", err)
	}
	sourceArr, err := cl.Load("[Lcom/example/Derived;")
	if err != nil {
		t.Fatalf("Load source array: %v", err)
	}

	ok, err := IsAssignableFrom(targetArr, sourceArr)
	if err != nil || !ok {
		t.Fatalf("is_assignable_from([Base, [Derived) = %v, %v; want true, nil", ok, err)
	}
}

func TestIsAssignableFromPrimitiveArraysRequireExactMatch(t *testing.T) {
	globals.InitGlobals("test")
	cl := &Classloader{Name: "test", classes: make(map[string]*LoadedClass)}

	intArr, err := cl.Load("[I")
	if err != nil {
		t.Fatalf("Load [I: %v", err)
	}
	longArr, err := cl.Load("[J")
	if err != nil {
		t.Fatalf("Load [J: %v", err)
	}

	ok, err := IsAssignableFrom(intArr, longArr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("[I should not be assignable from [J")
	}
}

func TestIsAssignableFromMultiDimArrayToObjectArray(t *testing.T) {
	globals.InitGlobals("test")
	cl := &Classloader{Name: "test", classes: make(map[string]*LoadedClass)}
	loadTestClass(t, cl, "java/lang/Object", "java/lang/Object").ClassFile.SuperClass = 0

	objectArr, err := cl.Load("[Ljava/lang/Object;")
	if err != nil {
		t.Fatalf("Load [Ljava/lang/Object;: %v", err)
	}
	multiArr, err := cl.Load("[[I")
	if err != nil {
		t.Fatalf("Load [[I: %v", err)
	}

	ok, err := IsAssignableFrom(objectArr, multiArr)
	if err != nil || !ok {
		t.Fatalf("is_assignable_from([Ljava/lang/Object;, [[I) = %v, %v; want true, nil", ok, err)
	}
}

// The verifier's object-type join walks the loader's type graph for the
// nearest common supertype once the resolver is installed.
func TestCommonSupertypeWalksTheClassGraph(t *testing.T) {
	globals.InitGlobals("test")
	cl := &Classloader{Name: "test", classes: make(map[string]*LoadedClass)}
	object := loadTestClass(t, cl, "java/lang/Object", "java/lang/Object")
	object.ClassFile.SuperClass = 0
	loadTestClass(t, cl, "com/example/Base", "java/lang/Object")
	loadTestClass(t, cl, "com/example/Left", "com/example/Base")
	loadTestClass(t, cl, "com/example/Right", "com/example/Base")
	loadTestClass(t, cl, "com/example/Unrelated", "java/lang/Object")

	super, ok := cl.CommonSupertype("com/example/Left", "com/example/Right")
	if !ok || super != "com/example/Base" {
		t.Fatalf("CommonSupertype = %q, %v; want com/example/Base", super, ok)
	}

	super, ok = cl.CommonSupertype("com/example/Left", "com/example/Unrelated")
	if !ok || super != "java/lang/Object" {
		t.Fatalf("CommonSupertype = %q, %v; want java/lang/Object", super, ok)
	}

	InstallVerifierResolver(cl)
	defer verifier.SetSupertypeResolver(nil)
	if got := verifier.JoinObjectNames("com/example/Left", "com/example/Right"); got != "com/example/Base" {
		t.Errorf("JoinObjectNames through the installed resolver = %q, want com/example/Base", got)
	}
}
