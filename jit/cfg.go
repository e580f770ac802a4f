/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jit

import (
	"encoding/binary"
	"fmt"

	"ristretto/classfile"
	"ristretto/interpreter"
)

// Block is one basic block of the compiled method's control-flow graph,
// keyed by the byte offset of its first instruction. Params is the
// operand-stack type signature at block entry; every edge into the block
// must arrive with exactly this signature.
type Block struct {
	Address int
	Params  []TypeTag
}

// ErrBlockSignatureMismatch reports two control-flow edges reaching the
// same block with different entry-stack signatures, which makes the
// method uncompilable.
type ErrBlockSignatureMismatch struct {
	Address            int
	Existing, Incoming []TypeTag
}

func (e *ErrBlockSignatureMismatch) Error() string {
	return fmt.Sprintf("jit: conflicting entry stacks for block at %d: %v vs %v",
		e.Address, e.Existing, e.Incoming)
}

// ErrUnsupportedOpcode marks a method (or region) the compiler declines;
// the caller falls back to the interpreter.
type ErrUnsupportedOpcode struct {
	Opcode byte
	PC     int
}

func (e *ErrUnsupportedOpcode) Error() string {
	return fmt.Sprintf("jit: unsupported opcode 0x%02X at pc %d", e.Opcode, e.PC)
}

// ErrBadBranchTarget reports a branch whose computed target address is
// negative or past the end of the code.
type ErrBadBranchTarget struct {
	PC, Target int
}

func (e *ErrBadBranchTarget) Error() string {
	return fmt.Sprintf("jit: branch at pc %d targets invalid address %d", e.PC, e.Target)
}

// BuildBlocks derives the basic-block graph for a method's bytecode by
// simulating instructions linearly over a running TypeStack. Block 0 is
// the method entry with an empty stack; each branch/switch/goto records
// (or verifies) the target block's entry-stack signature and creates the
// block lazily.
func BuildBlocks(cp *classfile.ConstantPool, code []byte) (map[int]*Block, error) {
	blocks := map[int]*Block{0: {Address: 0}}
	stackStates := map[int]*TypeStack{0: NewTypeStack()}
	stack := NewTypeStack()

	pc := 0
	for pc < len(code) {
		if entry, ok := stackStates[pc]; ok {
			stack = entry.Clone()
		}

		op := code[pc]
		length, err := simulate(stack, cp, code, pc)
		if err != nil {
			return nil, err
		}

		recordTarget := func(target int) error {
			if target < 0 || target >= len(code) {
				return &ErrBadBranchTarget{PC: pc, Target: target}
			}
			if existing, ok := stackStates[target]; ok {
				if !existing.Equal(stack) {
					return &ErrBlockSignatureMismatch{
						Address:  target,
						Existing: existing.ToSlice(),
						Incoming: stack.ToSlice(),
					}
				}
			} else {
				stackStates[target] = stack.Clone()
			}
			if _, ok := blocks[target]; !ok {
				blocks[target] = &Block{Address: target, Params: stackStates[target].ToSlice()}
			}
			return nil
		}

		switch op {
		case interpreter.OpIfeq, interpreter.OpIfne, interpreter.OpIflt,
			interpreter.OpIfge, interpreter.OpIfgt, interpreter.OpIfle,
			interpreter.OpIfIcmpeq, interpreter.OpIfIcmpne, interpreter.OpIfIcmplt,
			interpreter.OpIfIcmpge, interpreter.OpIfIcmpgt, interpreter.OpIfIcmple,
			interpreter.OpIfnull, interpreter.OpIfnonnull:
			then := pc + int(int16(binary.BigEndian.Uint16(code[pc+1:])))
			if err := recordTarget(then); err != nil {
				return nil, err
			}
			if err := recordTarget(pc + length); err != nil {
				return nil, err
			}
		case interpreter.OpGoto:
			target := pc + int(int16(binary.BigEndian.Uint16(code[pc+1:])))
			if err := recordTarget(target); err != nil {
				return nil, err
			}
		case interpreter.OpGotoW:
			target := pc + int(int32(binary.BigEndian.Uint32(code[pc+1:])))
			if err := recordTarget(target); err != nil {
				return nil, err
			}
		case interpreter.OpTableswitch, interpreter.OpLookupswitch:
			pos := pc + 1
			pos += (4 - pos%4) % 4
			def := pc + int(int32(binary.BigEndian.Uint32(code[pos:])))
			if err := recordTarget(def); err != nil {
				return nil, err
			}
			if op == interpreter.OpTableswitch {
				low := int(int32(binary.BigEndian.Uint32(code[pos+4:])))
				high := int(int32(binary.BigEndian.Uint32(code[pos+8:])))
				for i := 0; i <= high-low; i++ {
					target := pc + int(int32(binary.BigEndian.Uint32(code[pos+12+4*i:])))
					if err := recordTarget(target); err != nil {
						return nil, err
					}
				}
			} else {
				npairs := int(int32(binary.BigEndian.Uint32(code[pos+4:])))
				for i := 0; i < npairs; i++ {
					target := pc + int(int32(binary.BigEndian.Uint32(code[pos+12+8*i:])))
					if err := recordTarget(target); err != nil {
						return nil, err
					}
				}
			}
		}

		pc += length
	}

	// Fill entry-stack params for blocks discovered after their state was
	// recorded (the entry block keeps its empty signature).
	for addr, b := range blocks {
		if state, ok := stackStates[addr]; ok {
			b.Params = state.ToSlice()
		}
	}
	return blocks, nil
}

// simulate applies one instruction's stack effect to stack and returns
// the instruction's byte length. Opcodes outside the compiler's
// vocabulary produce ErrUnsupportedOpcode.
func simulate(stack *TypeStack, cp *classfile.ConstantPool, code []byte, pc int) (int, error) {
	op := code[pc]
	switch op {
	case interpreter.OpNop:
		return 1, nil

	case interpreter.OpAconstNull:
		stack.PushObject()
		return 1, nil
	case interpreter.OpIconstM1, interpreter.OpIconst0, interpreter.OpIconst1,
		interpreter.OpIconst2, interpreter.OpIconst3, interpreter.OpIconst4, interpreter.OpIconst5:
		stack.PushInt()
		return 1, nil
	case interpreter.OpLconst0, interpreter.OpLconst1:
		stack.PushLong()
		return 1, nil
	case interpreter.OpFconst0, interpreter.OpFconst1, interpreter.OpFconst2:
		stack.PushFloat()
		return 1, nil
	case interpreter.OpDconst0, interpreter.OpDconst1:
		stack.PushDouble()
		return 1, nil
	case interpreter.OpBipush:
		stack.PushInt()
		return 2, nil
	case interpreter.OpSipush:
		stack.PushInt()
		return 3, nil

	case interpreter.OpLdc, interpreter.OpLdcW, interpreter.OpLdc2W:
		length := 3
		var idx uint16
		if op == interpreter.OpLdc {
			length = 2
			idx = uint16(code[pc+1])
		} else {
			idx = binary.BigEndian.Uint16(code[pc+1:])
		}
		entry, err := cp.Get(idx)
		if err != nil {
			return 0, err
		}
		switch entry.Tag {
		case classfile.TagInteger:
			stack.PushInt()
		case classfile.TagFloat:
			stack.PushFloat()
		case classfile.TagLong:
			stack.PushLong()
		case classfile.TagDouble:
			stack.PushDouble()
		case classfile.TagString, classfile.TagClass:
			stack.PushObject()
		default:
			return 0, &ErrUnsupportedOpcode{Opcode: op, PC: pc}
		}
		return length, nil

	case interpreter.OpIload, interpreter.OpFload, interpreter.OpLload,
		interpreter.OpDload, interpreter.OpAload:
		pushLoad(stack, op)
		return 2, nil
	case interpreter.OpIload0, interpreter.OpIload1, interpreter.OpIload2, interpreter.OpIload3:
		stack.PushInt()
		return 1, nil
	case interpreter.OpLload0, interpreter.OpLload1, interpreter.OpLload2, interpreter.OpLload3:
		stack.PushLong()
		return 1, nil
	case interpreter.OpFload0, interpreter.OpFload1, interpreter.OpFload2, interpreter.OpFload3:
		stack.PushFloat()
		return 1, nil
	case interpreter.OpDload0, interpreter.OpDload1, interpreter.OpDload2, interpreter.OpDload3:
		stack.PushDouble()
		return 1, nil
	case interpreter.OpAload0, interpreter.OpAload1, interpreter.OpAload2, interpreter.OpAload3:
		stack.PushObject()
		return 1, nil

	case interpreter.OpIstore, interpreter.OpLstore, interpreter.OpFstore,
		interpreter.OpDstore, interpreter.OpAstore:
		if _, err := stack.Pop(); err != nil {
			return 0, err
		}
		return 2, nil
	case interpreter.OpIstore0, interpreter.OpIstore1, interpreter.OpIstore2, interpreter.OpIstore3,
		interpreter.OpLstore0, interpreter.OpLstore1, interpreter.OpLstore2, interpreter.OpLstore3,
		interpreter.OpFstore0, interpreter.OpFstore1, interpreter.OpFstore2, interpreter.OpFstore3,
		interpreter.OpDstore0, interpreter.OpDstore1, interpreter.OpDstore2, interpreter.OpDstore3,
		interpreter.OpAstore0, interpreter.OpAstore1, interpreter.OpAstore2, interpreter.OpAstore3:
		if _, err := stack.Pop(); err != nil {
			return 0, err
		}
		return 1, nil

	case interpreter.OpPop:
		if _, err := stack.Pop(); err != nil {
			return 0, err
		}
		return 1, nil
	case interpreter.OpDup:
		t, err := stack.Pop()
		if err != nil {
			return 0, err
		}
		stack.Push(t)
		stack.Push(t)
		return 1, nil
	case interpreter.OpSwap:
		t1, err := stack.Pop()
		if err != nil {
			return 0, err
		}
		t2, err := stack.Pop()
		if err != nil {
			return 0, err
		}
		stack.Push(t1)
		stack.Push(t2)
		return 1, nil

	case interpreter.OpIadd, interpreter.OpIsub, interpreter.OpImul,
		interpreter.OpIdiv, interpreter.OpIrem,
		interpreter.OpIshl, interpreter.OpIshr, interpreter.OpIushr,
		interpreter.OpIand, interpreter.OpIor, interpreter.OpIxor:
		if err := stack.PopInt(); err != nil {
			return 0, err
		}
		if err := stack.PopInt(); err != nil {
			return 0, err
		}
		stack.PushInt()
		return 1, nil
	case interpreter.OpIneg:
		if err := stack.PopInt(); err != nil {
			return 0, err
		}
		stack.PushInt()
		return 1, nil

	case interpreter.OpLadd, interpreter.OpLsub, interpreter.OpLmul,
		interpreter.OpLdiv, interpreter.OpLrem,
		interpreter.OpLand, interpreter.OpLor, interpreter.OpLxor:
		if err := stack.PopLong(); err != nil {
			return 0, err
		}
		if err := stack.PopLong(); err != nil {
			return 0, err
		}
		stack.PushLong()
		return 1, nil
	case interpreter.OpLshl, interpreter.OpLshr, interpreter.OpLushr:
		if err := stack.PopInt(); err != nil {
			return 0, err
		}
		if err := stack.PopLong(); err != nil {
			return 0, err
		}
		stack.PushLong()
		return 1, nil
	case interpreter.OpLneg:
		if err := stack.PopLong(); err != nil {
			return 0, err
		}
		stack.PushLong()
		return 1, nil

	case interpreter.OpFadd, interpreter.OpFsub, interpreter.OpFmul,
		interpreter.OpFdiv, interpreter.OpFrem:
		if err := stack.PopFloat(); err != nil {
			return 0, err
		}
		if err := stack.PopFloat(); err != nil {
			return 0, err
		}
		stack.PushFloat()
		return 1, nil
	case interpreter.OpFneg:
		if err := stack.PopFloat(); err != nil {
			return 0, err
		}
		stack.PushFloat()
		return 1, nil

	case interpreter.OpDadd, interpreter.OpDsub, interpreter.OpDmul,
		interpreter.OpDdiv, interpreter.OpDrem:
		if err := stack.PopDouble(); err != nil {
			return 0, err
		}
		if err := stack.PopDouble(); err != nil {
			return 0, err
		}
		stack.PushDouble()
		return 1, nil
	case interpreter.OpDneg:
		if err := stack.PopDouble(); err != nil {
			return 0, err
		}
		stack.PushDouble()
		return 1, nil

	case interpreter.OpIinc:
		return 3, nil

	case interpreter.OpI2l:
		return 1, convert(stack, I32, I64)
	case interpreter.OpI2f:
		return 1, convert(stack, I32, F32)
	case interpreter.OpI2d:
		return 1, convert(stack, I32, F64)
	case interpreter.OpL2i:
		return 1, convert(stack, I64, I32)
	case interpreter.OpL2f:
		return 1, convert(stack, I64, F32)
	case interpreter.OpL2d:
		return 1, convert(stack, I64, F64)
	case interpreter.OpF2i:
		return 1, convert(stack, F32, I32)
	case interpreter.OpF2l:
		return 1, convert(stack, F32, I64)
	case interpreter.OpF2d:
		return 1, convert(stack, F32, F64)
	case interpreter.OpD2i:
		return 1, convert(stack, F64, I32)
	case interpreter.OpD2l:
		return 1, convert(stack, F64, I64)
	case interpreter.OpD2f:
		return 1, convert(stack, F64, F32)
	case interpreter.OpI2b, interpreter.OpI2c, interpreter.OpI2s:
		return 1, convert(stack, I32, I32)

	case interpreter.OpLcmp:
		if err := stack.PopLong(); err != nil {
			return 0, err
		}
		if err := stack.PopLong(); err != nil {
			return 0, err
		}
		stack.PushInt()
		return 1, nil
	case interpreter.OpFcmpl, interpreter.OpFcmpg:
		if err := stack.PopFloat(); err != nil {
			return 0, err
		}
		if err := stack.PopFloat(); err != nil {
			return 0, err
		}
		stack.PushInt()
		return 1, nil
	case interpreter.OpDcmpl, interpreter.OpDcmpg:
		if err := stack.PopDouble(); err != nil {
			return 0, err
		}
		if err := stack.PopDouble(); err != nil {
			return 0, err
		}
		stack.PushInt()
		return 1, nil

	case interpreter.OpIfeq, interpreter.OpIfne, interpreter.OpIflt,
		interpreter.OpIfge, interpreter.OpIfgt, interpreter.OpIfle:
		if err := stack.PopInt(); err != nil {
			return 0, err
		}
		return 3, nil
	case interpreter.OpIfIcmpeq, interpreter.OpIfIcmpne, interpreter.OpIfIcmplt,
		interpreter.OpIfIcmpge, interpreter.OpIfIcmpgt, interpreter.OpIfIcmple:
		if err := stack.PopInt(); err != nil {
			return 0, err
		}
		if err := stack.PopInt(); err != nil {
			return 0, err
		}
		return 3, nil
	case interpreter.OpIfnull, interpreter.OpIfnonnull:
		if err := stack.PopObject(); err != nil {
			return 0, err
		}
		return 3, nil

	case interpreter.OpGoto:
		return 3, nil
	case interpreter.OpGotoW:
		return 5, nil

	case interpreter.OpTableswitch, interpreter.OpLookupswitch:
		if err := stack.PopInt(); err != nil {
			return 0, err
		}
		pos := pc + 1
		pos += (4 - pos%4) % 4
		if op == interpreter.OpTableswitch {
			low := int(int32(binary.BigEndian.Uint32(code[pos+4:])))
			high := int(int32(binary.BigEndian.Uint32(code[pos+8:])))
			return pos + 12 + 4*(high-low+1) - pc, nil
		}
		npairs := int(int32(binary.BigEndian.Uint32(code[pos+4:])))
		return pos + 8 + 8*npairs - pc, nil

	case interpreter.OpIreturn:
		return 1, stack.PopInt()
	case interpreter.OpLreturn:
		return 1, stack.PopLong()
	case interpreter.OpFreturn:
		return 1, stack.PopFloat()
	case interpreter.OpDreturn:
		return 1, stack.PopDouble()
	case interpreter.OpAreturn:
		return 1, stack.PopObject()
	case interpreter.OpReturn:
		return 1, nil

	default:
		return 0, &ErrUnsupportedOpcode{Opcode: op, PC: pc}
	}
}

func pushLoad(stack *TypeStack, op byte) {
	switch op {
	case interpreter.OpIload:
		stack.PushInt()
	case interpreter.OpLload:
		stack.PushLong()
	case interpreter.OpFload:
		stack.PushFloat()
	case interpreter.OpDload:
		stack.PushDouble()
	case interpreter.OpAload:
		stack.PushObject()
	}
}

func convert(stack *TypeStack, from, to TypeTag) error {
	if err := stack.popType(from); err != nil {
		return err
	}
	stack.Push(to)
	return nil
}
