/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frames

import "testing"

func TestPushOverflow(t *testing.T) {
	s := NewOperandStack(1)
	if err := s.PushInt(1); err != nil {
		t.Fatalf("first push: %v", err)
	}
	if err := s.PushInt(2); err != ErrStackOverflow {
		t.Fatalf("err = %v, want ErrStackOverflow", err)
	}
}

func TestPopUnderflow(t *testing.T) {
	s := NewOperandStack(1)
	if _, err := s.Pop(); err != ErrStackUnderflow {
		t.Fatalf("err = %v, want ErrStackUnderflow", err)
	}
}

func TestTypedPopMismatchReturnsInvalidOperand(t *testing.T) {
	s := NewOperandStack(1)
	if err := s.PushInt(1); err != nil {
		t.Fatalf("push: %v", err)
	}
	if _, err := s.PopLong(); err == nil {
		t.Fatal("expected an InvalidOperandError popping an int as a long")
	}
}

func TestPeekIsNonDestructive(t *testing.T) {
	s := NewOperandStack(1)
	if err := s.PushInt(7); err != nil {
		t.Fatalf("push: %v", err)
	}
	v, err := s.Peek()
	if err != nil || v.I != 7 {
		t.Fatalf("Peek() = %v, %v; want 7, nil", v, err)
	}
	if s.Len() != 1 {
		t.Fatalf("Peek should not remove; Len() = %d, want 1", s.Len())
	}
}

func TestDup(t *testing.T) {
	s := NewOperandStack(2)
	_ = s.PushObject(nil)
	if err := s.Dup(); err != nil {
		t.Fatalf("Dup: %v", err)
	}
	if _, err := s.PopObject(); err != nil {
		t.Fatalf("pop 1: %v", err)
	}
	if _, err := s.PopObject(); err != nil {
		t.Fatalf("pop 2: %v", err)
	}
}

func TestDupX1(t *testing.T) {
	s := NewOperandStack(3)
	_ = s.PushInt(2)
	_ = s.PushInt(1)
	if err := s.DupX1(); err != nil {
		t.Fatalf("DupX1: %v", err)
	}
	want := []int32{1, 2, 1}
	for i := len(want) - 1; i >= 0; i-- {
		v, err := s.PopInt()
		if err != nil || v != want[i] {
			t.Fatalf("pop[%d] = %v, %v; want %d", i, v, err, want[i])
		}
	}
}

func TestDupX2Form1AllCategory1(t *testing.T) {
	s := NewOperandStack(4)
	_ = s.PushInt(3)
	_ = s.PushInt(2)
	_ = s.PushInt(1)
	if err := s.DupX2(); err != nil {
		t.Fatalf("DupX2: %v", err)
	}
	want := []int32{1, 2, 3, 1}
	for i := len(want) - 1; i >= 0; i-- {
		v, err := s.PopInt()
		if err != nil || v != want[i] {
			t.Fatalf("pop[%d] = %v, %v; want %d", i, v, err, want[i])
		}
	}
}

func TestDupX2Form2Category2Second(t *testing.T) {
	s := NewOperandStack(3)
	_ = s.PushLong(2)
	_ = s.PushInt(1)
	if err := s.DupX2(); err != nil {
		t.Fatalf("DupX2: %v", err)
	}
	if v, err := s.PopInt(); err != nil || v != 1 {
		t.Fatalf("top = %v, %v; want 1", v, err)
	}
	if v, err := s.PopLong(); err != nil || v != 2 {
		t.Fatalf("mid = %v, %v; want 2", v, err)
	}
	if v, err := s.PopInt(); err != nil || v != 1 {
		t.Fatalf("bottom = %v, %v; want 1", v, err)
	}
}

func TestDup2Form1TwoCategory1(t *testing.T) {
	s := NewOperandStack(4)
	_ = s.PushInt(2)
	_ = s.PushInt(1)
	if err := s.Dup2(); err != nil {
		t.Fatalf("Dup2: %v", err)
	}
	want := []int32{2, 1, 2, 1}
	for i := len(want) - 1; i >= 0; i-- {
		v, err := s.PopInt()
		if err != nil || v != want[i] {
			t.Fatalf("pop[%d] = %v, %v; want %d", i, v, err, want[i])
		}
	}
}

func TestDup2Form2OneCategory2(t *testing.T) {
	s := NewOperandStack(2)
	_ = s.PushLong(1)
	if err := s.Dup2(); err != nil {
		t.Fatalf("Dup2: %v", err)
	}
	if v, err := s.PopLong(); err != nil || v != 1 {
		t.Fatalf("top = %v, %v; want 1", v, err)
	}
	if v, err := s.PopLong(); err != nil || v != 1 {
		t.Fatalf("bottom = %v, %v; want 1", v, err)
	}
}

func TestDup2X2Form4TwoLongs(t *testing.T) {
	s := NewOperandStack(3)
	_ = s.PushLong(2)
	_ = s.PushLong(1)
	if err := s.Dup2X2(); err != nil {
		t.Fatalf("Dup2X2: %v", err)
	}
	want := []int64{1, 2, 1}
	for i := len(want) - 1; i >= 0; i-- {
		v, err := s.PopLong()
		if err != nil || v != want[i] {
			t.Fatalf("pop[%d] = %v, %v; want %d", i, v, err, want[i])
		}
	}
}

func TestSwap(t *testing.T) {
	s := NewOperandStack(2)
	_ = s.PushInt(2)
	_ = s.PushInt(1)
	if err := s.Swap(); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if v, err := s.PopInt(); err != nil || v != 2 {
		t.Fatalf("top = %v, %v; want 2", v, err)
	}
	if v, err := s.PopInt(); err != nil || v != 1 {
		t.Fatalf("bottom = %v, %v; want 1", v, err)
	}
}
