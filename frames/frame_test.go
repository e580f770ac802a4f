/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frames

import (
	"testing"

	"ristretto/classfile"
	"ristretto/classloader"
	"ristretto/globals"
)

func testMethod(maxStack, maxLocals uint16) *classfile.MethodInfo {
	return &classfile.MethodInfo{
		Code: &classfile.CodeAttribute{MaxStack: maxStack, MaxLocals: maxLocals, Code: []byte{0xB1}},
	}
}

func TestNewFrameSizesFromCodeAttribute(t *testing.T) {
	globals.InitGlobals("test")
	class := &classloader.LoadedClass{Name: "com/example/Foo"}
	f, err := New(class, testMethod(4, 3))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(f.Locals) != 3 {
		t.Fatalf("len(Locals) = %d, want 3", len(f.Locals))
	}
	if err := f.Stack.PushInt(1); err != nil {
		t.Fatalf("push within max_stack should succeed: %v", err)
	}
}

func TestNewFrameRejectsAbstractMethod(t *testing.T) {
	class := &classloader.LoadedClass{Name: "com/example/Foo"}
	if _, err := New(class, &classfile.MethodInfo{}); err == nil {
		t.Fatal("expected an error for a method with no Code attribute")
	}
}

func TestStackPushPopOrdering(t *testing.T) {
	s := NewStack()
	class := &classloader.LoadedClass{Name: "com/example/Foo"}
	f1, _ := New(class, testMethod(1, 1))
	f2, _ := New(class, testMethod(1, 1))

	if err := s.Push(f1, 0); err != nil {
		t.Fatalf("push f1: %v", err)
	}
	if err := s.Push(f2, 0); err != nil {
		t.Fatalf("push f2: %v", err)
	}
	if s.Current() != f2 {
		t.Fatal("Current() should be the most recently pushed frame")
	}
	if popped := s.Pop(); popped != f2 {
		t.Fatal("Pop() should return f2 first (LIFO)")
	}
	if popped := s.Pop(); popped != f1 {
		t.Fatal("Pop() should then return f1")
	}
	if s.Pop() != nil {
		t.Fatal("Pop() on an empty stack should return nil")
	}
}

func TestStackRejectsPushPastDepthLimit(t *testing.T) {
	s := NewStack()
	class := &classloader.LoadedClass{Name: "com/example/Foo"}
	f1, _ := New(class, testMethod(1, 1))
	f2, _ := New(class, testMethod(1, 1))

	if err := s.Push(f1, 1); err != nil {
		t.Fatalf("push f1: %v", err)
	}
	if err := s.Push(f2, 1); err == nil {
		t.Fatal("expected ErrFrameDepthExceeded at the configured limit")
	}
}

func TestStackFramesSnapshotIsOutermostFirst(t *testing.T) {
	s := NewStack()
	class := &classloader.LoadedClass{Name: "com/example/Foo"}
	f1, _ := New(class, testMethod(1, 1))
	f2, _ := New(class, testMethod(1, 1))
	_ = s.Push(f1, 0)
	_ = s.Push(f2, 0)

	got := s.Frames()
	if len(got) != 2 || got[0] != f1 || got[1] != f2 {
		t.Fatalf("Frames() = %v, want [f1, f2]", got)
	}
}
