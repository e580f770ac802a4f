/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jit

import (
	"fmt"

	asm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"ristretto/interpreter"
)

// amd64Builder lowers a scanned candidate to x86-64 machine code. The
// generated sequence follows a simple register convention:
//
//	DI — base pointer of the int64 operand-stack slots
//	BX — current stack height, in slots
//	AX — scratch / returned stack height
//
// Each push writes (DI)(BX*8) and increments BX; each binary op pops
// into AX and folds into the new top-of-stack slot in place. The
// epilogue returns the final height in AX so the caller can resync its
// logical stack.
type amd64Builder struct{}

// Build compiles code[candidate.Start:candidate.End] into machine code.
func (b *amd64Builder) Build(candidate CompilationCandidate, code []byte) ([]byte, error) {
	builder, err := asm.NewBuilder("amd64", 64)
	if err != nil {
		return nil, fmt.Errorf("jit: creating assembler: %w", err)
	}

	pc := candidate.Start
	for pc < candidate.End {
		op := code[pc]
		switch op {
		case interpreter.OpIconstM1, interpreter.OpIconst0, interpreter.OpIconst1,
			interpreter.OpIconst2, interpreter.OpIconst3, interpreter.OpIconst4,
			interpreter.OpIconst5:
			emitPushConst(builder, int64(op)-int64(interpreter.OpIconst0))
			pc++
		case interpreter.OpBipush:
			emitPushConst(builder, int64(int8(code[pc+1])))
			pc += 2
		case interpreter.OpSipush:
			emitPushConst(builder, int64(int16(uint16(code[pc+1])<<8|uint16(code[pc+2]))))
			pc += 3
		case interpreter.OpIadd:
			emitBinaryOp(builder, x86.AADDQ)
			pc++
		case interpreter.OpIsub:
			emitBinaryOp(builder, x86.ASUBQ)
			pc++
		case interpreter.OpIand:
			emitBinaryOp(builder, x86.AANDQ)
			pc++
		case interpreter.OpIor:
			emitBinaryOp(builder, x86.AORQ)
			pc++
		case interpreter.OpIxor:
			emitBinaryOp(builder, x86.AXORQ)
			pc++
		case interpreter.OpImul:
			emitMul(builder)
			pc++
		case interpreter.OpIneg:
			emitNeg(builder)
			pc++
		default:
			return nil, &ErrUnsupportedOpcode{Opcode: op, PC: pc}
		}
	}

	emitEpilogue(builder)
	return builder.Assemble(), nil
}

func topOfStack(offsetSlots int64) obj.Addr {
	return obj.Addr{
		Type:   obj.TYPE_MEM,
		Reg:    x86.REG_DI,
		Index:  x86.REG_BX,
		Scale:  8,
		Offset: offsetSlots * 8,
	}
}

func register(reg int16) obj.Addr {
	return obj.Addr{Type: obj.TYPE_REG, Reg: reg}
}

func constant(v int64) obj.Addr {
	return obj.Addr{Type: obj.TYPE_CONST, Offset: v}
}

func emit(builder *asm.Builder, as obj.As, from, to obj.Addr) {
	p := builder.NewProg()
	p.As = as
	p.From = from
	p.To = to
	builder.AddInstruction(p)
}

func emitUnary(builder *asm.Builder, as obj.As, to obj.Addr) {
	p := builder.NewProg()
	p.As = as
	p.To = to
	builder.AddInstruction(p)
}

// MOVQ $c, (DI)(BX*8); INCQ BX
func emitPushConst(builder *asm.Builder, v int64) {
	emit(builder, x86.AMOVQ, constant(v), topOfStack(0))
	emitUnary(builder, x86.AINCQ, register(x86.REG_BX))
}

// DECQ BX; MOVQ (DI)(BX*8), AX; OPQ AX, -8(DI)(BX*8)
func emitBinaryOp(builder *asm.Builder, as obj.As) {
	emitUnary(builder, x86.ADECQ, register(x86.REG_BX))
	emit(builder, x86.AMOVQ, topOfStack(0), register(x86.REG_AX))
	emit(builder, as, register(x86.REG_AX), topOfStack(-1))
}

// imul has no reg-to-mem form, so the second operand rides through CX.
func emitMul(builder *asm.Builder) {
	emitUnary(builder, x86.ADECQ, register(x86.REG_BX))
	emit(builder, x86.AMOVQ, topOfStack(0), register(x86.REG_AX))
	emit(builder, x86.AMOVQ, topOfStack(-1), register(x86.REG_CX))
	emit(builder, x86.AIMULQ, register(x86.REG_AX), register(x86.REG_CX))
	emit(builder, x86.AMOVQ, register(x86.REG_CX), topOfStack(-1))
}

// NEGQ -8(DI)(BX*8)
func emitNeg(builder *asm.Builder) {
	emitUnary(builder, x86.ANEGQ, topOfStack(-1))
}

// MOVQ BX, AX; RET
func emitEpilogue(builder *asm.Builder) {
	emit(builder, x86.AMOVQ, register(x86.REG_BX), register(x86.REG_AX))
	p := builder.NewProg()
	p.As = obj.ARET
	builder.AddInstruction(p)
}
