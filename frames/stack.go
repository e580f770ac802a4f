/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frames

import "ristretto/object"

// OperandStack is a method invocation's bounded value stack.
type OperandStack struct {
	values []Value
	max    int
}

// NewOperandStack constructs an empty stack bounded at maxStack entries
// (the Code attribute's max_stack).
func NewOperandStack(maxStack int) *OperandStack {
	return &OperandStack{values: make([]Value, 0, maxStack), max: maxStack}
}

// Len reports the number of slots currently occupied.
func (s *OperandStack) Len() int { return len(s.values) }

// Values returns a snapshot of the stack's contents, bottom first. The
// collector's root walk uses this to see every object reference a live
// frame still holds.
func (s *OperandStack) Values() []Value {
	out := make([]Value, len(s.values))
	copy(out, s.values)
	return out
}

// IsEmpty reports whether the stack has no entries.
func (s *OperandStack) IsEmpty() bool { return len(s.values) == 0 }

// Push appends v, failing with ErrStackOverflow at capacity.
func (s *OperandStack) Push(v Value) error {
	if len(s.values) >= s.max {
		return ErrStackOverflow
	}
	s.values = append(s.values, v)
	return nil
}

// Pop removes and returns the top value, failing with ErrStackUnderflow
// when empty.
func (s *OperandStack) Pop() (Value, error) {
	if len(s.values) == 0 {
		return Value{}, ErrStackUnderflow
	}
	n := len(s.values) - 1
	v := s.values[n]
	s.values = s.values[:n]
	return v, nil
}

// Peek returns the top value without removing it.
func (s *OperandStack) Peek() (Value, error) {
	if len(s.values) == 0 {
		return Value{}, ErrStackUnderflow
	}
	return s.values[len(s.values)-1], nil
}

func (s *OperandStack) popExpect(k Kind) (Value, error) {
	v, err := s.Pop()
	if err != nil {
		return Value{}, err
	}
	if v.Kind != k {
		return Value{}, &InvalidOperandError{Expected: k, Actual: v.Kind}
	}
	return v, nil
}

func (s *OperandStack) PushInt(i int32) error      { return s.Push(Int(i)) }
func (s *OperandStack) PushLong(l int64) error     { return s.Push(Long(l)) }
func (s *OperandStack) PushFloat(f float32) error  { return s.Push(Float(f)) }
func (s *OperandStack) PushDouble(d float64) error { return s.Push(Double(d)) }
func (s *OperandStack) PushObject(o *object.Object) error {
	return s.Push(Value{Kind: KindObject, Ref: o})
}

func (s *OperandStack) PopInt() (int32, error) {
	v, err := s.popExpect(KindInt)
	return v.I, err
}
func (s *OperandStack) PopLong() (int64, error) {
	v, err := s.popExpect(KindLong)
	return v.L, err
}
func (s *OperandStack) PopFloat() (float32, error) {
	v, err := s.popExpect(KindFloat)
	return v.F, err
}
func (s *OperandStack) PopDouble() (float64, error) {
	v, err := s.popExpect(KindDouble)
	return v.D, err
}
func (s *OperandStack) PopObject() (*object.Object, error) {
	v, err := s.popExpect(KindObject)
	return v.Ref, err
}

// Dup implements the JVM `dup` instruction: ..., value ->
// ..., value, value.
func (s *OperandStack) Dup() error {
	v, err := s.Pop()
	if err != nil {
		return err
	}
	if err := s.Push(v); err != nil {
		return err
	}
	return s.Push(v)
}

// DupX1 implements `dup_x1`: ..., value2, value1 -> ..., value1, value2,
// value1.
func (s *OperandStack) DupX1() error {
	v1, err := s.Pop()
	if err != nil {
		return err
	}
	v2, err := s.Pop()
	if err != nil {
		return err
	}
	return pushAll(s, v1, v2, v1)
}

// DupX2 implements `dup_x2`, branching on whether the second operand is
// category 1 or category 2.
func (s *OperandStack) DupX2() error {
	v1, err := s.Pop()
	if err != nil {
		return err
	}
	v2, err := s.Pop()
	if err != nil {
		return err
	}
	if v2.IsCategory1() {
		v3, err := s.Pop()
		if err != nil {
			return err
		}
		return pushAll(s, v1, v3, v2, v1)
	}
	return pushAll(s, v1, v2, v1)
}

// Dup2 implements `dup2`.
func (s *OperandStack) Dup2() error {
	v1, err := s.Pop()
	if err != nil {
		return err
	}
	if v1.IsCategory1() {
		v2, err := s.Pop()
		if err != nil {
			return err
		}
		return pushAll(s, v2, v1, v2, v1)
	}
	return pushAll(s, v1, v1)
}

// Dup2X1 implements `dup2_x1`.
func (s *OperandStack) Dup2X1() error {
	v1, err := s.Pop()
	if err != nil {
		return err
	}
	v2, err := s.Pop()
	if err != nil {
		return err
	}
	if v1.IsCategory1() {
		v3, err := s.Pop()
		if err != nil {
			return err
		}
		return pushAll(s, v2, v1, v3, v2, v1)
	}
	return pushAll(s, v1, v2, v1)
}

// Dup2X2 implements `dup2_x2`, the four-form variant.
func (s *OperandStack) Dup2X2() error {
	v1, err := s.Pop()
	if err != nil {
		return err
	}
	v2, err := s.Pop()
	if err != nil {
		return err
	}
	if v1.IsCategory1() {
		v3, err := s.Pop()
		if err != nil {
			return err
		}
		if v3.IsCategory1() {
			v4, err := s.Pop()
			if err != nil {
				return err
			}
			return pushAll(s, v2, v1, v4, v3, v2, v1)
		}
		return pushAll(s, v2, v1, v3, v2, v1)
	}
	if v2.IsCategory1() {
		v3, err := s.Pop()
		if err != nil {
			return err
		}
		return pushAll(s, v1, v3, v2, v1)
	}
	return pushAll(s, v1, v2, v1)
}

// Swap implements `swap`: its behavior on category-2 operands is
// unspecified by the JVM spec, so this always exchanges the raw top two
// slots regardless of category (documented Open Question decision).
func (s *OperandStack) Swap() error {
	v1, err := s.Pop()
	if err != nil {
		return err
	}
	v2, err := s.Pop()
	if err != nil {
		return err
	}
	return pushAll(s, v1, v2)
}

func pushAll(s *OperandStack, values ...Value) error {
	for _, v := range values {
		if err := s.Push(v); err != nil {
			return err
		}
	}
	return nil
}
