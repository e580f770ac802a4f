/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frames

import (
	"errors"
	"fmt"
)

// ErrStackOverflow is returned by Push when the operand stack is already
// at its max_stack capacity.
var ErrStackOverflow = errors.New("frames: operand stack overflow")

// ErrStackUnderflow is returned by Pop/Peek on an empty operand stack.
var ErrStackUnderflow = errors.New("frames: operand stack underflow")

// InvalidOperandError is returned by a typed Pop* accessor when the slot's
// actual Kind doesn't match what the caller asked for.
type InvalidOperandError struct {
	Expected Kind
	Actual   Kind
}

func (e *InvalidOperandError) Error() string {
	return fmt.Sprintf("frames: invalid operand: expected kind %d, got %d", e.Expected, e.Actual)
}
