/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jit

import "ristretto/interpreter"

// A CompilationCandidate is a maximal run of instructions the native
// builder can lower: straight-line integer stack arithmetic with its
// constant pushes. Start/End are byte offsets into the method's code;
// End is exclusive. Metrics gate compilation so trivial runs stay on
// the interpreter.
type CompilationCandidate struct {
	Start, End int
	Metrics    Metrics
}

// Metrics counts what a candidate contains, mirroring the decision
// inputs the compile gate uses.
type Metrics struct {
	IntegerOps   int
	StackPushes  int
	Instructions int
}

// Bounds returns the candidate's [start, end) byte range.
func (c *CompilationCandidate) Bounds() (int, int) { return c.Start, c.End }

// minArithSequence is the smallest number of arithmetic ops worth the
// call-out overhead into native code.
const minArithSequence = 2

// ScanFunc walks a method's bytecode and returns the ordered,
// non-overlapping candidate runs worth compiling. Any opcode outside the
// supported set (every heap access, branch, or invocation among them)
// ends the current run, which is what keeps JIT-interpreter parity
// trivial: compiled regions cannot touch the heap, so the interpreter's
// write barrier remains the only reference-store path.
func ScanFunc(code []byte) []CompilationCandidate {
	var out []CompilationCandidate
	var cur *CompilationCandidate

	flush := func(end int) {
		if cur != nil {
			cur.End = end
			if cur.Metrics.IntegerOps >= minArithSequence {
				out = append(out, *cur)
			}
			cur = nil
		}
	}

	pc := 0
	for pc < len(code) {
		op := code[pc]
		length, arith, push, ok := scanStep(op)
		if !ok {
			flush(pc)
			// Skip the unsupported instruction; switches have variable
			// length, so a run never resumes after one in this model.
			if op == interpreter.OpTableswitch || op == interpreter.OpLookupswitch {
				break
			}
			pc += length
			continue
		}
		if cur == nil {
			cur = &CompilationCandidate{Start: pc}
		}
		cur.Metrics.Instructions++
		if arith {
			cur.Metrics.IntegerOps++
		}
		if push {
			cur.Metrics.StackPushes++
		}
		pc += length
	}
	flush(pc)
	return out
}

// scanStep classifies one opcode for the scanner: its length, whether it
// is an arithmetic op, whether it pushes a constant, and whether the
// native builder supports it at all. Unsupported opcodes report their
// length so the scan can continue past them.
func scanStep(op byte) (length int, arith, push, supported bool) {
	switch op {
	case interpreter.OpIconstM1, interpreter.OpIconst0, interpreter.OpIconst1,
		interpreter.OpIconst2, interpreter.OpIconst3, interpreter.OpIconst4,
		interpreter.OpIconst5:
		return 1, false, true, true
	case interpreter.OpBipush:
		return 2, false, true, true
	case interpreter.OpSipush:
		return 3, false, true, true
	case interpreter.OpIadd, interpreter.OpIsub, interpreter.OpImul,
		interpreter.OpIand, interpreter.OpIor, interpreter.OpIxor,
		interpreter.OpIneg:
		return 1, true, false, true
	default:
		return unsupportedLength(op), false, false, false
	}
}

// unsupportedLength gives the scanner enough length information to step
// over instructions it won't compile. Variable-length switches return 1
// and are handled by the caller ending the scan.
func unsupportedLength(op byte) int {
	switch op {
	case interpreter.OpBipush, interpreter.OpLdc, interpreter.OpIload,
		interpreter.OpLload, interpreter.OpFload, interpreter.OpDload,
		interpreter.OpAload, interpreter.OpIstore, interpreter.OpLstore,
		interpreter.OpFstore, interpreter.OpDstore, interpreter.OpAstore,
		interpreter.OpRet, interpreter.OpNewarray:
		return 2
	case interpreter.OpSipush, interpreter.OpLdcW, interpreter.OpLdc2W,
		interpreter.OpIinc,
		interpreter.OpIfeq, interpreter.OpIfne, interpreter.OpIflt,
		interpreter.OpIfge, interpreter.OpIfgt, interpreter.OpIfle,
		interpreter.OpIfIcmpeq, interpreter.OpIfIcmpne, interpreter.OpIfIcmplt,
		interpreter.OpIfIcmpge, interpreter.OpIfIcmpgt, interpreter.OpIfIcmple,
		interpreter.OpIfAcmpeq, interpreter.OpIfAcmpne,
		interpreter.OpGoto, interpreter.OpJsr,
		interpreter.OpIfnull, interpreter.OpIfnonnull,
		interpreter.OpGetstatic, interpreter.OpPutstatic,
		interpreter.OpGetfield, interpreter.OpPutfield,
		interpreter.OpInvokevirtual, interpreter.OpInvokespecial,
		interpreter.OpInvokestatic,
		interpreter.OpNew, interpreter.OpAnewarray,
		interpreter.OpCheckcast, interpreter.OpInstanceof:
		return 3
	case interpreter.OpMultianewarray:
		return 4
	case interpreter.OpInvokeinterface, interpreter.OpInvokedynamic,
		interpreter.OpGotoW, interpreter.OpJsrW:
		return 5
	default:
		return 1
	}
}
