/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package verifier

import (
	"strings"
	"testing"

	"ristretto/classfile"
)

func TestVerifyCodeNilCodePointer(t *testing.T) {
	err := VerifyCode(nil, nil)
	if err == nil || !strings.Contains(err.Error(), "ptr to code segment is nil") {
		t.Fatalf("expected nil-code error, got %v", err)
	}
}

func TestVerifyCodeEmptyCode(t *testing.T) {
	code := &classfile.CodeAttribute{Code: nil}
	err := VerifyCode(code, nil)
	if err == nil || !strings.Contains(err.Error(), "empty code segment") {
		t.Fatalf("expected empty-code error, got %v", err)
	}
}

func TestVerifyCodeValidSimpleBody(t *testing.T) {
	// nop, aconst_null, return
	code := &classfile.CodeAttribute{Code: []byte{0x00, 0x01, 0xB1}, MaxStack: 1, MaxLocals: 1}
	if err := VerifyCode(code, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifyCodeRejectsTruncatedOperand(t *testing.T) {
	// bipush with no operand byte
	code := &classfile.CodeAttribute{Code: []byte{0x10}, MaxStack: 1, MaxLocals: 1}
	err := VerifyCode(code, nil)
	if err == nil || !strings.Contains(err.Error(), "invalid bytecode or argument") {
		t.Fatalf("expected a truncated-operand error, got %v", err)
	}
}

func TestVerifyCodeRejectsHandlerOffBoundary(t *testing.T) {
	// nop, nop, return — handler_pc 1 is mid-instruction... actually 1 IS a
	// boundary here since both nops are 1 byte; use a 2-byte instruction to
	// land mid-instruction instead: bipush 5 (2 bytes), return.
	code := &classfile.CodeAttribute{
		Code:      []byte{0x10, 0x05, 0xB1},
		MaxStack:  1,
		MaxLocals: 1,
		ExceptionTable: []classfile.ExceptionTableEntry{
			{StartPC: 0, EndPC: 3, HandlerPC: 1},
		},
	}
	err := VerifyCode(code, nil)
	if err == nil || !strings.Contains(err.Error(), "instruction boundary") {
		t.Fatalf("expected a boundary error, got %v", err)
	}
}

func TestVerifyCodeAcceptsValidExceptionTable(t *testing.T) {
	code := &classfile.CodeAttribute{
		Code:      []byte{0x10, 0x05, 0xB1},
		MaxStack:  1,
		MaxLocals: 1,
		ExceptionTable: []classfile.ExceptionTableEntry{
			{StartPC: 0, EndPC: 2, HandlerPC: 2},
		},
	}
	if err := VerifyCode(code, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpcodeLengthTableswitch(t *testing.T) {
	// tableswitch at pc=0: opcode (1) + pad to next 4-byte boundary (3) +
	// default offset (4) + low (4) + high (4) + two jump offsets (2*4),
	// for a total of 1+3+4+4+4+8 = 24 bytes. low=0, high=1.
	code := make([]byte, 24)
	code[0] = 0xAA
	code[15] = 1 // high = 1 (big-endian, low 4 bytes already zero)
	n, err := opcodeLength(code, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 24 {
		t.Fatalf("tableswitch length = %d, want 24", n)
	}
}
