/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import "math"

// saturateFloat64ToInt32 implements the JVM's f2i/d2i narrowing rule (JLS
// 5.1.3): NaN maps to zero, values outside int32's range saturate at the
// nearest bound, everything else truncates toward zero. Go's float-to-int
// conversion is implementation-defined outside the target's range, so this
// cannot be left to a bare cast the way l2i/i2b can.
func saturateFloat64ToInt32(v float64) int32 {
	if math.IsNaN(v) {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	if v <= math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

// saturateFloat64ToInt64 implements f2l/d2l's narrowing rule.
func saturateFloat64ToInt64(v float64) int64 {
	if math.IsNaN(v) {
		return 0
	}
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	if v <= math.MinInt64 {
		return math.MinInt64
	}
	return int64(v)
}
