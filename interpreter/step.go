/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"fmt"
	"math"

	"ristretto/excNames"
	"ristretto/frames"
	"ristretto/trace"
)

var contResult = stepResult{kind: resultContinue}

// throwJava materializes a runtime error as a Java exception
// and returns it through the error channel Run's unwind loop expects.
func (m *Machine) throwJava(kind excNames.JVMExceptionType, msg string) (stepResult, error) {
	thrown, err := NewException(m.Loader, kind, msg)
	if err != nil {
		// The exception class itself isn't loadable: a host error, not a
		// Java exception.
		return stepResult{}, err
	}
	return stepResult{}, thrown
}

// step executes the single instruction at f.PC, advancing the program
// counter. It is the body of the fetch-decode-execute loop; Run
// drives it and interprets the returned stepResult.
func (m *Machine) step(threadStack *frames.Stack, f *frames.Frame) (stepResult, error) {
	code := f.Method.Code.Code
	if f.PC < 0 || f.PC >= len(code) {
		return stepResult{}, &ErrPCOutOfRange{PC: f.PC, CodeLen: len(code)}
	}
	op := code[f.PC]
	stack := f.Stack
	if m.TraceInstructions {
		_ = trace.Trace(fmt.Sprintf("class: %s, pc: %d, opcode: 0x%02X, stack: %d deep",
			f.Class.Name, f.PC, op, stack.Len()))
	}

	switch op {

	// --- constants ---

	case OpNop:
		f.PC++
		return contResult, nil
	case OpAconstNull:
		f.PC++
		return contResult, stack.PushObject(nil)
	case OpIconstM1, OpIconst0, OpIconst1, OpIconst2, OpIconst3, OpIconst4, OpIconst5:
		f.PC++
		return contResult, stack.PushInt(int32(op) - int32(OpIconst0))
	case OpLconst0, OpLconst1:
		f.PC++
		return contResult, stack.PushLong(int64(op - OpLconst0))
	case OpFconst0, OpFconst1, OpFconst2:
		f.PC++
		return contResult, stack.PushFloat(float32(op - OpFconst0))
	case OpDconst0, OpDconst1:
		f.PC++
		return contResult, stack.PushDouble(float64(op - OpDconst0))
	case OpBipush:
		v := int32(int8(code[f.PC+1]))
		f.PC += 2
		return contResult, stack.PushInt(v)
	case OpSipush:
		v := int32(readI16(code, f.PC+1))
		f.PC += 3
		return contResult, stack.PushInt(v)
	case OpLdc:
		idx := uint16(code[f.PC+1])
		f.PC += 2
		return m.pushLoadableConstant(f, idx, false)
	case OpLdcW:
		idx := readU16(code, f.PC+1)
		f.PC += 3
		return m.pushLoadableConstant(f, idx, false)
	case OpLdc2W:
		idx := readU16(code, f.PC+1)
		f.PC += 3
		return m.pushLoadableConstant(f, idx, true)

	// --- loads ---

	case OpIload, OpLload, OpFload, OpDload, OpAload:
		idx := int(code[f.PC+1])
		f.PC += 2
		return contResult, m.loadLocal(f, op, idx)
	case OpIload0, OpIload1, OpIload2, OpIload3:
		idx := int(op - OpIload0)
		f.PC++
		return contResult, m.loadLocal(f, OpIload, idx)
	case OpLload0, OpLload1, OpLload2, OpLload3:
		idx := int(op - OpLload0)
		f.PC++
		return contResult, m.loadLocal(f, OpLload, idx)
	case OpFload0, OpFload1, OpFload2, OpFload3:
		idx := int(op - OpFload0)
		f.PC++
		return contResult, m.loadLocal(f, OpFload, idx)
	case OpDload0, OpDload1, OpDload2, OpDload3:
		idx := int(op - OpDload0)
		f.PC++
		return contResult, m.loadLocal(f, OpDload, idx)
	case OpAload0, OpAload1, OpAload2, OpAload3:
		idx := int(op - OpAload0)
		f.PC++
		return contResult, m.loadLocal(f, OpAload, idx)

	case OpIaload, OpLaload, OpFaload, OpDaload, OpAaload, OpBaload, OpCaload, OpSaload:
		f.PC++
		return m.arrayLoad(f, op)

	// --- stores ---

	case OpIstore, OpLstore, OpFstore, OpDstore, OpAstore:
		idx := int(code[f.PC+1])
		f.PC += 2
		return m.storeLocal(f, op, idx)
	case OpIstore0, OpIstore1, OpIstore2, OpIstore3:
		idx := int(op - OpIstore0)
		f.PC++
		return m.storeLocal(f, OpIstore, idx)
	case OpLstore0, OpLstore1, OpLstore2, OpLstore3:
		idx := int(op - OpLstore0)
		f.PC++
		return m.storeLocal(f, OpLstore, idx)
	case OpFstore0, OpFstore1, OpFstore2, OpFstore3:
		idx := int(op - OpFstore0)
		f.PC++
		return m.storeLocal(f, OpFstore, idx)
	case OpDstore0, OpDstore1, OpDstore2, OpDstore3:
		idx := int(op - OpDstore0)
		f.PC++
		return m.storeLocal(f, OpDstore, idx)
	case OpAstore0, OpAstore1, OpAstore2, OpAstore3:
		idx := int(op - OpAstore0)
		f.PC++
		return m.storeLocal(f, OpAstore, idx)

	case OpIastore, OpLastore, OpFastore, OpDastore, OpAastore, OpBastore, OpCastore, OpSastore:
		f.PC++
		return m.arrayStore(f, op)

	// --- stack manipulation ---

	case OpPop:
		f.PC++
		_, err := stack.Pop()
		return contResult, err
	case OpPop2:
		f.PC++
		v, err := stack.Pop()
		if err != nil {
			return stepResult{}, err
		}
		if v.IsCategory1() {
			_, err = stack.Pop()
		}
		return contResult, err
	case OpDup:
		f.PC++
		return contResult, stack.Dup()
	case OpDupX1:
		f.PC++
		return contResult, stack.DupX1()
	case OpDupX2:
		f.PC++
		return contResult, stack.DupX2()
	case OpDup2:
		f.PC++
		return contResult, stack.Dup2()
	case OpDup2X1:
		f.PC++
		return contResult, stack.Dup2X1()
	case OpDup2X2:
		f.PC++
		return contResult, stack.Dup2X2()
	case OpSwap:
		f.PC++
		return contResult, stack.Swap()

	// --- integer and long arithmetic ---

	case OpIadd, OpIsub, OpImul, OpIand, OpIor, OpIxor:
		f.PC++
		b, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		a, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		var r int32
		switch op {
		case OpIadd:
			r = a + b
		case OpIsub:
			r = a - b
		case OpImul:
			r = a * b
		case OpIand:
			r = a & b
		case OpIor:
			r = a | b
		case OpIxor:
			r = a ^ b
		}
		return contResult, stack.PushInt(r)

	case OpIdiv, OpIrem:
		f.PC++
		b, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		a, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		if b == 0 {
			f.PC-- // the handler search must see the pc of the faulting instruction
			return m.throwJava(excNames.ArithmeticException, "/ by zero")
		}
		if op == OpIdiv {
			return contResult, stack.PushInt(a / b)
		}
		return contResult, stack.PushInt(a % b)

	case OpLadd, OpLsub, OpLmul, OpLand, OpLor, OpLxor:
		f.PC++
		b, err := stack.PopLong()
		if err != nil {
			return stepResult{}, err
		}
		a, err := stack.PopLong()
		if err != nil {
			return stepResult{}, err
		}
		var r int64
		switch op {
		case OpLadd:
			r = a + b
		case OpLsub:
			r = a - b
		case OpLmul:
			r = a * b
		case OpLand:
			r = a & b
		case OpLor:
			r = a | b
		case OpLxor:
			r = a ^ b
		}
		return contResult, stack.PushLong(r)

	case OpLdiv, OpLrem:
		f.PC++
		b, err := stack.PopLong()
		if err != nil {
			return stepResult{}, err
		}
		a, err := stack.PopLong()
		if err != nil {
			return stepResult{}, err
		}
		if b == 0 {
			f.PC--
			return m.throwJava(excNames.ArithmeticException, "/ by zero")
		}
		if op == OpLdiv {
			return contResult, stack.PushLong(a / b)
		}
		return contResult, stack.PushLong(a % b)

	case OpFadd, OpFsub, OpFmul, OpFdiv, OpFrem:
		f.PC++
		b, err := stack.PopFloat()
		if err != nil {
			return stepResult{}, err
		}
		a, err := stack.PopFloat()
		if err != nil {
			return stepResult{}, err
		}
		var r float32
		switch op {
		case OpFadd:
			r = a + b
		case OpFsub:
			r = a - b
		case OpFmul:
			r = a * b
		case OpFdiv:
			r = a / b // IEEE-754: 0 divisor yields Inf/NaN, never a trap
		case OpFrem:
			r = float32(math.Mod(float64(a), float64(b)))
		}
		return contResult, stack.PushFloat(r)

	case OpDadd, OpDsub, OpDmul, OpDdiv, OpDrem:
		f.PC++
		b, err := stack.PopDouble()
		if err != nil {
			return stepResult{}, err
		}
		a, err := stack.PopDouble()
		if err != nil {
			return stepResult{}, err
		}
		var r float64
		switch op {
		case OpDadd:
			r = a + b
		case OpDsub:
			r = a - b
		case OpDmul:
			r = a * b
		case OpDdiv:
			r = a / b
		case OpDrem:
			r = math.Mod(a, b)
		}
		return contResult, stack.PushDouble(r)

	case OpIneg:
		f.PC++
		a, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushInt(-a)
	case OpLneg:
		f.PC++
		a, err := stack.PopLong()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushLong(-a)
	case OpFneg:
		f.PC++
		a, err := stack.PopFloat()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushFloat(-a)
	case OpDneg:
		f.PC++
		a, err := stack.PopDouble()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushDouble(-a)

	case OpIshl, OpIshr, OpIushr:
		f.PC++
		s, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		a, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		shift := uint32(s) & 0x1F
		var r int32
		switch op {
		case OpIshl:
			r = a << shift
		case OpIshr:
			r = a >> shift
		case OpIushr:
			r = int32(uint32(a) >> shift)
		}
		return contResult, stack.PushInt(r)

	case OpLshl, OpLshr, OpLushr:
		f.PC++
		s, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		a, err := stack.PopLong()
		if err != nil {
			return stepResult{}, err
		}
		shift := uint32(s) & 0x3F
		var r int64
		switch op {
		case OpLshl:
			r = a << shift
		case OpLshr:
			r = a >> shift
		case OpLushr:
			r = int64(uint64(a) >> shift)
		}
		return contResult, stack.PushLong(r)

	case OpIinc:
		idx := int(code[f.PC+1])
		delta := int32(int8(code[f.PC+2]))
		f.PC += 3
		if idx >= len(f.Locals) {
			return stepResult{}, &ErrLocalOutOfRange{Index: idx, MaxLocals: len(f.Locals)}
		}
		if f.Locals[idx].Kind != frames.KindInt {
			return stepResult{}, &frames.InvalidOperandError{Expected: frames.KindInt, Actual: f.Locals[idx].Kind}
		}
		f.Locals[idx].I += delta
		return contResult, nil

	// --- conversions ---

	case OpI2l:
		f.PC++
		a, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushLong(int64(a))
	case OpI2f:
		f.PC++
		a, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushFloat(float32(a))
	case OpI2d:
		f.PC++
		a, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushDouble(float64(a))
	case OpL2i:
		f.PC++
		a, err := stack.PopLong()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushInt(int32(a))
	case OpL2f:
		f.PC++
		a, err := stack.PopLong()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushFloat(float32(a))
	case OpL2d:
		f.PC++
		a, err := stack.PopLong()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushDouble(float64(a))
	case OpF2i:
		f.PC++
		a, err := stack.PopFloat()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushInt(saturateFloat64ToInt32(float64(a)))
	case OpF2l:
		f.PC++
		a, err := stack.PopFloat()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushLong(saturateFloat64ToInt64(float64(a)))
	case OpF2d:
		f.PC++
		a, err := stack.PopFloat()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushDouble(float64(a))
	case OpD2i:
		f.PC++
		a, err := stack.PopDouble()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushInt(saturateFloat64ToInt32(a))
	case OpD2l:
		f.PC++
		a, err := stack.PopDouble()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushLong(saturateFloat64ToInt64(a))
	case OpD2f:
		f.PC++
		a, err := stack.PopDouble()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushFloat(float32(a))
	case OpI2b:
		f.PC++
		a, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushInt(int32(int8(a)))
	case OpI2c:
		f.PC++
		a, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushInt(int32(uint16(a)))
	case OpI2s:
		f.PC++
		a, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushInt(int32(int16(a)))

	// --- comparisons ---

	case OpLcmp:
		f.PC++
		b, err := stack.PopLong()
		if err != nil {
			return stepResult{}, err
		}
		a, err := stack.PopLong()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushInt(cmpOrdered(a, b))

	case OpFcmpl, OpFcmpg:
		f.PC++
		b, err := stack.PopFloat()
		if err != nil {
			return stepResult{}, err
		}
		a, err := stack.PopFloat()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushInt(cmpFloating(float64(a), float64(b), op == OpFcmpg))

	case OpDcmpl, OpDcmpg:
		f.PC++
		b, err := stack.PopDouble()
		if err != nil {
			return stepResult{}, err
		}
		a, err := stack.PopDouble()
		if err != nil {
			return stepResult{}, err
		}
		return contResult, stack.PushInt(cmpFloating(a, b, op == OpDcmpg))

	// --- branches ---

	case OpIfeq, OpIfne, OpIflt, OpIfge, OpIfgt, OpIfle:
		target := f.PC + int(readI16(code, f.PC+1))
		v, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		var taken bool
		switch op {
		case OpIfeq:
			taken = v == 0
		case OpIfne:
			taken = v != 0
		case OpIflt:
			taken = v < 0
		case OpIfge:
			taken = v >= 0
		case OpIfgt:
			taken = v > 0
		case OpIfle:
			taken = v <= 0
		}
		if taken {
			f.PC = target
		} else {
			f.PC += 3
		}
		return contResult, nil

	case OpIfIcmpeq, OpIfIcmpne, OpIfIcmplt, OpIfIcmpge, OpIfIcmpgt, OpIfIcmple:
		target := f.PC + int(readI16(code, f.PC+1))
		b, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		a, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		var taken bool
		switch op {
		case OpIfIcmpeq:
			taken = a == b
		case OpIfIcmpne:
			taken = a != b
		case OpIfIcmplt:
			taken = a < b
		case OpIfIcmpge:
			taken = a >= b
		case OpIfIcmpgt:
			taken = a > b
		case OpIfIcmple:
			taken = a <= b
		}
		if taken {
			f.PC = target
		} else {
			f.PC += 3
		}
		return contResult, nil

	case OpIfAcmpeq, OpIfAcmpne:
		target := f.PC + int(readI16(code, f.PC+1))
		b, err := stack.PopObject()
		if err != nil {
			return stepResult{}, err
		}
		a, err := stack.PopObject()
		if err != nil {
			return stepResult{}, err
		}
		taken := a == b // reference identity, not equals()
		if op == OpIfAcmpne {
			taken = !taken
		}
		if taken {
			f.PC = target
		} else {
			f.PC += 3
		}
		return contResult, nil

	case OpIfnull, OpIfnonnull:
		target := f.PC + int(readI16(code, f.PC+1))
		v, err := stack.PopObject()
		if err != nil {
			return stepResult{}, err
		}
		taken := v == nil
		if op == OpIfnonnull {
			taken = !taken
		}
		if taken {
			f.PC = target
		} else {
			f.PC += 3
		}
		return contResult, nil

	case OpGoto:
		f.PC += int(readI16(code, f.PC+1))
		return contResult, nil
	case OpGotoW:
		f.PC += int(readI32(code, f.PC+1))
		return contResult, nil

	case OpJsr:
		target := f.PC + int(readI16(code, f.PC+1))
		if err := stack.Push(frames.ReturnAddress(f.PC + 3)); err != nil {
			return stepResult{}, err
		}
		f.PC = target
		return contResult, nil
	case OpJsrW:
		target := f.PC + int(readI32(code, f.PC+1))
		if err := stack.Push(frames.ReturnAddress(f.PC + 5)); err != nil {
			return stepResult{}, err
		}
		f.PC = target
		return contResult, nil
	case OpRet:
		idx := int(code[f.PC+1])
		if idx >= len(f.Locals) {
			return stepResult{}, &ErrLocalOutOfRange{Index: idx, MaxLocals: len(f.Locals)}
		}
		if f.Locals[idx].Kind != frames.KindReturnAddress {
			return stepResult{}, &frames.InvalidOperandError{Expected: frames.KindReturnAddress, Actual: f.Locals[idx].Kind}
		}
		f.PC = f.Locals[idx].RetAddr
		return contResult, nil

	case OpTableswitch:
		base := f.PC
		pos := base + 1
		pos += (4 - pos%4) % 4 // skip the alignment padding
		def := int(readI32(code, pos))
		low := int(readI32(code, pos+4))
		high := int(readI32(code, pos+8))
		v, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		if int(v) < low || int(v) > high {
			f.PC = base + def
		} else {
			f.PC = base + int(readI32(code, pos+12+4*(int(v)-low)))
		}
		return contResult, nil

	case OpLookupswitch:
		base := f.PC
		pos := base + 1
		pos += (4 - pos%4) % 4
		def := int(readI32(code, pos))
		npairs := int(readI32(code, pos+4))
		v, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		f.PC = base + def
		for i := 0; i < npairs; i++ {
			match := readI32(code, pos+8+8*i)
			if match == v {
				f.PC = base + int(readI32(code, pos+12+8*i))
				break
			}
		}
		return contResult, nil

	// --- returns ---

	case OpIreturn:
		v, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		rv := frames.Int(v)
		return stepResult{kind: resultReturn, value: &rv}, nil
	case OpLreturn:
		v, err := stack.PopLong()
		if err != nil {
			return stepResult{}, err
		}
		rv := frames.Long(v)
		return stepResult{kind: resultReturn, value: &rv}, nil
	case OpFreturn:
		v, err := stack.PopFloat()
		if err != nil {
			return stepResult{}, err
		}
		rv := frames.Float(v)
		return stepResult{kind: resultReturn, value: &rv}, nil
	case OpDreturn:
		v, err := stack.PopDouble()
		if err != nil {
			return stepResult{}, err
		}
		rv := frames.Double(v)
		return stepResult{kind: resultReturn, value: &rv}, nil
	case OpAreturn:
		v, err := stack.PopObject()
		if err != nil {
			return stepResult{}, err
		}
		rv := frames.Object(v)
		return stepResult{kind: resultReturn, value: &rv}, nil
	case OpReturn:
		return stepResult{kind: resultReturn}, nil

	// --- wide prefix ---

	case OpWide:
		return m.stepWide(f)

	// --- everything touching classes, objects, fields, methods ---

	default:
		return m.stepObjectOps(threadStack, f, op)
	}
}

// stepWide handles the wide-prefixed forms of the local-variable opcodes
// (two-byte local index, two-byte iinc delta).
func (m *Machine) stepWide(f *frames.Frame) (stepResult, error) {
	code := f.Method.Code.Code
	op := code[f.PC+1]
	idx := int(readU16(code, f.PC+2))
	switch op {
	case OpIload, OpLload, OpFload, OpDload, OpAload:
		f.PC += 4
		return contResult, m.loadLocal(f, op, idx)
	case OpIstore, OpLstore, OpFstore, OpDstore, OpAstore:
		f.PC += 4
		return m.storeLocal(f, op, idx)
	case OpRet:
		if idx >= len(f.Locals) {
			return stepResult{}, &ErrLocalOutOfRange{Index: idx, MaxLocals: len(f.Locals)}
		}
		if f.Locals[idx].Kind != frames.KindReturnAddress {
			return stepResult{}, &frames.InvalidOperandError{Expected: frames.KindReturnAddress, Actual: f.Locals[idx].Kind}
		}
		f.PC = f.Locals[idx].RetAddr
		return contResult, nil
	case OpIinc:
		delta := int32(readI16(code, f.PC+4))
		f.PC += 6
		if idx >= len(f.Locals) {
			return stepResult{}, &ErrLocalOutOfRange{Index: idx, MaxLocals: len(f.Locals)}
		}
		if f.Locals[idx].Kind != frames.KindInt {
			return stepResult{}, &frames.InvalidOperandError{Expected: frames.KindInt, Actual: f.Locals[idx].Kind}
		}
		f.Locals[idx].I += delta
		return contResult, nil
	default:
		return stepResult{}, &ErrUnknownOpcode{Opcode: op}
	}
}

// loadLocal pushes local idx, checking both the index bound and that the
// slot holds the kind the opcode expects.
func (m *Machine) loadLocal(f *frames.Frame, op byte, idx int) error {
	if idx < 0 || idx >= len(f.Locals) {
		return &ErrLocalOutOfRange{Index: idx, MaxLocals: len(f.Locals)}
	}
	v := f.Locals[idx]
	var want frames.Kind
	switch op {
	case OpIload:
		want = frames.KindInt
	case OpLload:
		want = frames.KindLong
	case OpFload:
		want = frames.KindFloat
	case OpDload:
		want = frames.KindDouble
	case OpAload:
		want = frames.KindObject
	}
	if v.Kind != want {
		return &frames.InvalidOperandError{Expected: want, Actual: v.Kind}
	}
	return f.Stack.Push(v)
}

// storeLocal pops into local idx. Category-2 values also clobber the
// following slot.
func (m *Machine) storeLocal(f *frames.Frame, op byte, idx int) (stepResult, error) {
	if idx < 0 || idx >= len(f.Locals) {
		return stepResult{}, &ErrLocalOutOfRange{Index: idx, MaxLocals: len(f.Locals)}
	}
	v, err := f.Stack.Pop()
	if err != nil {
		return stepResult{}, err
	}
	var want frames.Kind
	switch op {
	case OpIstore:
		want = frames.KindInt
	case OpLstore:
		want = frames.KindLong
	case OpFstore:
		want = frames.KindFloat
	case OpDstore:
		want = frames.KindDouble
	case OpAstore:
		want = frames.KindObject
		// astore is also specified to accept a returnAddress, for the jsr
		// discipline's "store the return address in a local" prologue.
		if v.Kind == frames.KindReturnAddress {
			f.Locals[idx] = v
			return contResult, nil
		}
	}
	if v.Kind != want {
		return stepResult{}, &frames.InvalidOperandError{Expected: want, Actual: v.Kind}
	}
	f.Locals[idx] = v
	if !v.IsCategory1() && idx+1 < len(f.Locals) {
		f.Locals[idx+1] = frames.Value{Kind: frames.KindInt} // shadow slot
	}
	return contResult, nil
}

// cmpOrdered is lcmp's three-way comparison.
func cmpOrdered(a, b int64) int32 {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// cmpFloating implements fcmpl/fcmpg/dcmpl/dcmpg: the g-variant pushes 1
// on NaN, the l-variant -1 (JVMS 6.5.fcmp_op).
func cmpFloating(a, b float64, nanIsPositive bool) int32 {
	if math.IsNaN(a) || math.IsNaN(b) {
		if nanIsPositive {
			return 1
		}
		return -1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
