/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package verifier

import (
	"ristretto/classfile"
)

// VerifyCode runs the code-layer checks: exception-table,
// branch-target, and bounds validation over a single method's bytecode,
// ahead of the typed dataflow pass. cp resolves exception_table catch
// types; pass nil to skip that check (e.g. when called before a class's
// constant pool is fully linked).
func VerifyCode(code *classfile.CodeAttribute, cp *classfile.ConstantPool) error {
	if code == nil {
		return verifyErr("Code", "ptr to code segment is nil")
	}
	if len(code.Code) == 0 {
		return verifyErr("Code", "empty code segment in non-abstract method")
	}

	length := len(code.Code)
	branchTargets, err := instructionBoundaries(code.Code)
	if err != nil {
		return err
	}

	for i, exc := range code.ExceptionTable {
		if int(exc.StartPC) >= length || int(exc.EndPC) > length || exc.StartPC >= exc.EndPC {
			return verifyErr("exception_table", "entry %d has an invalid [start_pc, end_pc) range", i)
		}
		if !branchTargets[exc.StartPC] || (exc.EndPC != uint16(length) && !branchTargets[exc.EndPC]) {
			return verifyErr("exception_table", "entry %d's range does not fall on instruction boundaries", i)
		}
		if !branchTargets[exc.HandlerPC] {
			return verifyErr("exception_table", "entry %d's handler_pc %d is not an instruction boundary", i, exc.HandlerPC)
		}
		if exc.CatchType != 0 && cp != nil {
			if _, err := cp.GetExpect(exc.CatchType, classfile.TagClass); err != nil {
				return verifyErr("exception_table", "entry %d has an invalid catch_type index: %v", i, err)
			}
		}
	}

	return nil
}

// instructionBoundaries walks code once, decoding each instruction's
// length via opcodeLength, and returns the set of byte offsets that begin
// an instruction. Any offset not in this set is an invalid branch/handler
// target.
func instructionBoundaries(code []byte) (map[uint16]bool, error) {
	boundaries := make(map[uint16]bool, len(code))
	pc := 0
	for pc < len(code) {
		boundaries[uint16(pc)] = true
		n, err := opcodeLength(code, pc)
		if err != nil {
			return nil, err
		}
		pc += n
	}
	boundaries[uint16(len(code))] = true // one-past-the-end is a valid end_pc
	return boundaries, nil
}

// opcodeLength returns the total instruction length (opcode byte plus
// operands) for the instruction starting at code[pc].
// tableswitch/lookupswitch carry variable-length padding
// and operand counts that must be read from the bytecode itself.
func opcodeLength(code []byte, pc int) (int, error) {
	op := code[pc]
	fixed, ok := fixedOperandLengths[op]
	if ok {
		if pc+1+fixed > len(code) {
			return 0, verifyErr("Code", "invalid bytecode or argument at pc %d: truncated operand", pc)
		}
		return 1 + fixed, nil
	}

	switch op {
	case opWide:
		if pc+1 >= len(code) {
			return 0, verifyErr("Code", "invalid bytecode or argument at pc %d: truncated wide prefix", pc)
		}
		modified := code[pc+1]
		if modified == opIinc {
			return 6, nil
		}
		return 4, nil
	case opTableswitch:
		return switchLength(code, pc, true)
	case opLookupswitch:
		return switchLength(code, pc, false)
	default:
		return 0, verifyErr("Code", "invalid bytecode or argument at pc %d: unrecognized opcode 0x%02X", pc, op)
	}
}

func switchLength(code []byte, pc int, isTable bool) (int, error) {
	pad := (4 - (pc+1)%4) % 4
	cursor := pc + 1 + pad
	if cursor+4 > len(code) {
		return 0, verifyErr("Code", "invalid bytecode or argument at pc %d: truncated switch default", pc)
	}
	cursor += 4 // default offset
	if isTable {
		if cursor+8 > len(code) {
			return 0, verifyErr("Code", "invalid bytecode or argument at pc %d: truncated tableswitch bounds", pc)
		}
		low := be32(code[cursor:])
		high := be32(code[cursor+4:])
		cursor += 8
		if high < low {
			return 0, verifyErr("Code", "invalid bytecode or argument at pc %d: tableswitch high < low", pc)
		}
		count := int64(high) - int64(low) + 1
		cursor += int(count) * 4
	} else {
		if cursor+4 > len(code) {
			return 0, verifyErr("Code", "invalid bytecode or argument at pc %d: truncated lookupswitch count", pc)
		}
		npairs := be32(code[cursor:])
		cursor += 4
		cursor += int(npairs) * 8
	}
	if cursor > len(code) {
		return 0, verifyErr("Code", "invalid bytecode or argument at pc %d: switch extends past code end", pc)
	}
	return cursor - pc, nil
}

func be32(b []byte) int32 {
	return int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

const (
	opWide        = 0xC4
	opIinc        = 0x84
	opTableswitch = 0xAA
	opLookupswitch = 0xAB
)

// fixedOperandLengths maps an opcode to the number of fixed operand
// bytes that follow it (excluding wide/tableswitch/lookupswitch, handled
// separately above). Opcodes not listed here and not one of the three
// variable-length forms are rejected as unrecognized.
var fixedOperandLengths = buildFixedOperandLengths()

func buildFixedOperandLengths() map[byte]int {
	m := map[byte]int{}
	// no-operand opcodes: constants, stack ops, arithmetic, conversions,
	// comparisons, category-1/2 loads and stores by _0.._3 suffix,
	// array loads/stores, monitorenter/exit, the zero-operand returns.
	for op := 0x00; op <= 0x0F; op++ {
		m[byte(op)] = 0
	}
	for op := 0x1A; op <= 0x35; op++ {
		m[byte(op)] = 0
	}
	for op := 0x3B; op <= 0x83; op++ {
		m[byte(op)] = 0
	}
	for op := 0x85; op <= 0x98; op++ {
		m[byte(op)] = 0
	}
	for _, op := range []byte{0xAC, 0xAD, 0xAE, 0xAF, 0xB0, 0xB1, 0xBE, 0xBF, 0xC2, 0xC3} {
		m[op] = 0
	}

	// one-byte operand: bipush, ldc, iload/lload/fload/dload/aload/istore/
	// lstore/fstore/dstore/astore/ret (non-wide forms), newarray.
	for _, op := range []byte{0x10, 0x12, 0x15, 0x16, 0x17, 0x18, 0x19, 0x36, 0x37, 0x38, 0x39, 0x3A, 0xA9, 0xBC} {
		m[op] = 1
	}

	// two-byte operand: sipush, ldc_w, ldc2_w, the *_w field/method refs,
	// new/anewarray/checkcast/instanceof, if*/goto/jsr (16-bit offsets).
	for _, op := range []byte{
		0x11, 0x13, 0x14,
		0x99, 0x9A, 0x9B, 0x9C, 0x9D, 0x9E, 0x9F, 0xA0, 0xA1, 0xA2, 0xA3, 0xA4,
		0xA5, 0xA6, 0xA7, 0xA8, 0xB2, 0xB3, 0xB4, 0xB5, 0xB6, 0xB7, 0xB8, 0xBB,
		0xBD, 0xC0, 0xC1, 0xC6, 0xC7,
	} {
		m[op] = 2
	}

	m[0x84] = 2 // iinc: index (1 byte) + const (1 byte)
	m[0xC5] = 3 // multianewarray: index (2 bytes) + dimensions (1 byte)
	m[0xB9] = 4 // invokeinterface: index (2 bytes), count, 0
	m[0xBA] = 4 // invokedynamic: index (2 bytes) + 2 reserved zero bytes
	m[0xC8] = 4 // goto_w
	m[0xC9] = 4 // jsr_w
	return m
}
