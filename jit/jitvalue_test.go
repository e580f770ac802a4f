/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJitValueRoundTrips(t *testing.T) {
	i32, err := FromI32(-42).AsI32()
	require.NoError(t, err)
	assert.Equal(t, int32(-42), i32)

	i64, err := FromI64(math.MinInt64).AsI64()
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), i64)

	f32, err := FromF32(3.5).AsF32()
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), f32)

	f64, err := FromF64(-0.0).AsF64()
	require.NoError(t, err)
	assert.Equal(t, math.Signbit(-0.0), math.Signbit(f64), "signed zero must survive")
}

func TestJitValueF32PayloadIsZeroExtendedBitPattern(t *testing.T) {
	v := FromF32(1.0)
	assert.Equal(t, uint64(math.Float32bits(1.0)), v.Payload)
	assert.Zero(t, v.Payload>>32, "upper payload bits must stay zero")
}

func TestJitValueMismatchedDiscriminant(t *testing.T) {
	_, err := FromI32(1).AsI64()
	var invalid *ErrInvalidValue
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, DiscI64, invalid.Expected)
	assert.Equal(t, DiscI32, invalid.Actual)
}

func TestJitValueNone(t *testing.T) {
	assert.True(t, None().IsNone())
	assert.False(t, FromI32(0).IsNone())
}

func TestJitValueNaNPayloadPreserved(t *testing.T) {
	nanBits := uint32(0x7FC00001) // a quiet NaN with payload bits set
	v := FromF32(math.Float32frombits(nanBits))
	got, err := v.AsF32()
	require.NoError(t, err)
	assert.Equal(t, nanBits, math.Float32bits(got))
}
