/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeStackAllTypes(t *testing.T) {
	s := NewTypeStack()
	s.PushInt()
	s.PushLong()
	s.PushFloat()
	s.PushDouble()
	s.PushObject()

	require.Equal(t, 5, s.Len())
	assert.NoError(t, s.PopObject())
	assert.NoError(t, s.PopDouble())
	assert.NoError(t, s.PopFloat())
	assert.NoError(t, s.PopLong())
	assert.NoError(t, s.PopInt())
	assert.True(t, s.IsEmpty())
}

func TestTypeStackUnderflow(t *testing.T) {
	s := NewTypeStack()
	_, err := s.Pop()
	assert.ErrorIs(t, err, ErrTypeStackUnderflow)
	assert.Error(t, s.PopInt())
}

func TestTypeStackTypedPopMismatch(t *testing.T) {
	s := NewTypeStack()
	s.PushLong()
	err := s.PopInt()
	require.Error(t, err)
	var mismatch *ErrTypeMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, I32, mismatch.Expected)
	assert.Equal(t, I64, mismatch.Actual)
}

func TestTypeStackCloneIsIndependent(t *testing.T) {
	s := NewTypeStack()
	s.PushInt()
	clone := s.Clone()
	clone.PushLong()

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 2, clone.Len())
	assert.False(t, s.Equal(clone))
}

func TestTypeStackEqual(t *testing.T) {
	a := NewTypeStack()
	b := NewTypeStack()
	a.PushInt()
	a.PushFloat()
	b.PushInt()
	b.PushFloat()
	assert.True(t, a.Equal(b))

	b.PushObject()
	assert.False(t, a.Equal(b))
}
