/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package verifier

import (
	"ristretto/classfile"
	"ristretto/util"
)

// simulateInstr applies the typed stack effect of the instruction at pc
// to state, failing when an operand's type doesn't satisfy the opcode's
// contract: arithmetic on the wrong primitive, a reference where an int
// is required, a load from a local of the wrong type, and so on.
//
// jsr return addresses are modeled as Top and ret is not re-checked
// against them (the permissive jsr/ret discipline globals.PermissiveJsrRet
// documents); astore accepts Top for the same reason.
func simulateInstr(state *frameState, cf *classfile.ClassFile, code *classfile.CodeAttribute, pc int) error {
	bytecode := code.Code
	cp := cf.ConstantPool
	maxStack := int(code.MaxStack)
	op := bytecode[pc]

	push := func(v vtype) error { return state.push(maxStack, v) }
	binary := func(operand vtype) error {
		if err := state.popTag(operand); err != nil {
			return err
		}
		if err := state.popTag(operand); err != nil {
			return err
		}
		return push(operand)
	}
	unary := func(operand vtype) error {
		if err := state.popTag(operand); err != nil {
			return err
		}
		return push(operand)
	}
	convert := func(from, to vtype) error {
		if err := state.popTag(from); err != nil {
			return err
		}
		return push(to)
	}
	compare := func(operand vtype) error {
		if err := state.popTag(operand); err != nil {
			return err
		}
		if err := state.popTag(operand); err != nil {
			return err
		}
		return push(vInt)
	}
	loadLocal := func(idx int, want vtype) error {
		if idx >= len(state.locals) {
			return verifyErr("verifier", "load from local %d beyond max_locals %d", idx, len(state.locals))
		}
		v := state.locals[idx]
		if v.tag != want.tag {
			return verifyErr("verifier", "local %d holds %s where %s is required at pc %d", idx, v, want, pc)
		}
		return push(v)
	}
	loadRefLocal := func(idx int) error {
		if idx >= len(state.locals) {
			return verifyErr("verifier", "load from local %d beyond max_locals %d", idx, len(state.locals))
		}
		v := state.locals[idx]
		if !v.isReference() {
			return verifyErr("verifier", "local %d holds %s where a reference is required at pc %d", idx, v, pc)
		}
		return push(v)
	}
	storeLocal := func(idx int, want vtype) error {
		if idx >= len(state.locals) {
			return verifyErr("verifier", "store to local %d beyond max_locals %d", idx, len(state.locals))
		}
		v, err := state.pop()
		if err != nil {
			return err
		}
		if want.tag != classfile.VTTop && v.tag != want.tag {
			return verifyErr("verifier", "expected %s for the store at pc %d, found %s", want, pc, v)
		}
		state.locals[idx] = v
		if v.isCategory2() && idx+1 < len(state.locals) {
			state.locals[idx+1] = vTop
		}
		return nil
	}
	storeRefLocal := func(idx int) error {
		if idx >= len(state.locals) {
			return verifyErr("verifier", "store to local %d beyond max_locals %d", idx, len(state.locals))
		}
		v, err := state.pop()
		if err != nil {
			return err
		}
		// Top is a jsr return address; astore is the designated way to
		// park one in a local.
		if !v.isReference() && v.tag != classfile.VTTop {
			return verifyErr("verifier", "expected a reference for the store at pc %d, found %s", pc, v)
		}
		state.locals[idx] = v
		return nil
	}
	arrayLoad := func(element vtype) error {
		if err := state.popTag(vInt); err != nil {
			return err
		}
		if _, err := state.popReference(); err != nil {
			return err
		}
		return push(element)
	}
	arrayStore := func(element vtype) error {
		if element.tag == classfile.VTObject {
			if _, err := state.popReference(); err != nil {
				return err
			}
		} else if err := state.popTag(element); err != nil {
			return err
		}
		if err := state.popTag(vInt); err != nil {
			return err
		}
		_, err := state.popReference()
		return err
	}

	switch op {
	case 0x00: // nop
		return nil

	// --- constants ---
	case 0x01: // aconst_null
		return push(vNull)
	case 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08: // iconst_*
		return push(vInt)
	case 0x09, 0x0A: // lconst_*
		return push(vLong)
	case 0x0B, 0x0C, 0x0D: // fconst_*
		return push(vFloat)
	case 0x0E, 0x0F: // dconst_*
		return push(vDouble)
	case 0x10, 0x11: // bipush, sipush
		return push(vInt)

	case 0x12, 0x13, 0x14: // ldc, ldc_w, ldc2_w
		var idx uint16
		if op == 0x12 {
			idx = uint16(bytecode[pc+1])
		} else {
			idx = be16(bytecode[pc+1:])
		}
		entry, err := cp.Get(idx)
		if err != nil {
			return verifyErr("verifier", "ldc at pc %d references an invalid constant: %v", pc, err)
		}
		switch entry.Tag {
		case classfile.TagInteger:
			return push(vInt)
		case classfile.TagFloat:
			return push(vFloat)
		case classfile.TagLong:
			return push(vLong)
		case classfile.TagDouble:
			return push(vDouble)
		case classfile.TagString:
			return push(vObject("java/lang/String"))
		case classfile.TagClass:
			return push(vObject("java/lang/Class"))
		case classfile.TagMethodType:
			return push(vObject("java/lang/invoke/MethodType"))
		case classfile.TagMethodHandle:
			return push(vObject("java/lang/invoke/MethodHandle"))
		default:
			return verifyErr("verifier", "ldc at pc %d references a non-loadable constant kind %d", pc, entry.Tag)
		}

	// --- loads ---
	case 0x15: // iload
		return loadLocal(int(bytecode[pc+1]), vInt)
	case 0x16: // lload
		return loadLocal(int(bytecode[pc+1]), vLong)
	case 0x17: // fload
		return loadLocal(int(bytecode[pc+1]), vFloat)
	case 0x18: // dload
		return loadLocal(int(bytecode[pc+1]), vDouble)
	case 0x19: // aload
		return loadRefLocal(int(bytecode[pc+1]))
	case 0x1A, 0x1B, 0x1C, 0x1D: // iload_<n>
		return loadLocal(int(op-0x1A), vInt)
	case 0x1E, 0x1F, 0x20, 0x21: // lload_<n>
		return loadLocal(int(op-0x1E), vLong)
	case 0x22, 0x23, 0x24, 0x25: // fload_<n>
		return loadLocal(int(op-0x22), vFloat)
	case 0x26, 0x27, 0x28, 0x29: // dload_<n>
		return loadLocal(int(op-0x26), vDouble)
	case 0x2A, 0x2B, 0x2C, 0x2D: // aload_<n>
		return loadRefLocal(int(op - 0x2A))

	case 0x2E: // iaload
		return arrayLoad(vInt)
	case 0x2F: // laload
		return arrayLoad(vLong)
	case 0x30: // faload
		return arrayLoad(vFloat)
	case 0x31: // daload
		return arrayLoad(vDouble)
	case 0x32: // aaload
		if err := state.popTag(vInt); err != nil {
			return err
		}
		array, err := state.popReference()
		if err != nil {
			return err
		}
		return push(componentType(array))
	case 0x33, 0x34, 0x35: // baload, caload, saload
		return arrayLoad(vInt)

	// --- stores ---
	case 0x36: // istore
		return storeLocal(int(bytecode[pc+1]), vInt)
	case 0x37: // lstore
		return storeLocal(int(bytecode[pc+1]), vLong)
	case 0x38: // fstore
		return storeLocal(int(bytecode[pc+1]), vFloat)
	case 0x39: // dstore
		return storeLocal(int(bytecode[pc+1]), vDouble)
	case 0x3A: // astore
		return storeRefLocal(int(bytecode[pc+1]))
	case 0x3B, 0x3C, 0x3D, 0x3E: // istore_<n>
		return storeLocal(int(op-0x3B), vInt)
	case 0x3F, 0x40, 0x41, 0x42: // lstore_<n>
		return storeLocal(int(op-0x3F), vLong)
	case 0x43, 0x44, 0x45, 0x46: // fstore_<n>
		return storeLocal(int(op-0x43), vFloat)
	case 0x47, 0x48, 0x49, 0x4A: // dstore_<n>
		return storeLocal(int(op-0x47), vDouble)
	case 0x4B, 0x4C, 0x4D, 0x4E: // astore_<n>
		return storeRefLocal(int(op - 0x4B))

	case 0x4F: // iastore
		return arrayStore(vInt)
	case 0x50: // lastore
		return arrayStore(vLong)
	case 0x51: // fastore
		return arrayStore(vFloat)
	case 0x52: // dastore
		return arrayStore(vDouble)
	case 0x53: // aastore
		return arrayStore(vObject("java/lang/Object"))
	case 0x54, 0x55, 0x56: // bastore, castore, sastore
		return arrayStore(vInt)

	// --- stack manipulation ---
	case 0x57: // pop
		v, err := state.pop()
		if err != nil {
			return err
		}
		if v.isCategory2() {
			return verifyErr("verifier", "pop of a category-2 value at pc %d", pc)
		}
		return nil
	case 0x58: // pop2
		v, err := state.pop()
		if err != nil {
			return err
		}
		if !v.isCategory2() {
			_, err = state.pop()
		}
		return err
	case 0x59: // dup
		v, err := state.pop()
		if err != nil {
			return err
		}
		if v.isCategory2() {
			return verifyErr("verifier", "dup of a category-2 value at pc %d", pc)
		}
		if err := push(v); err != nil {
			return err
		}
		return push(v)
	case 0x5A: // dup_x1
		v1, err := state.pop()
		if err != nil {
			return err
		}
		v2, err := state.pop()
		if err != nil {
			return err
		}
		if v1.isCategory2() || v2.isCategory2() {
			return verifyErr("verifier", "dup_x1 of a category-2 value at pc %d", pc)
		}
		return pushAll(state, maxStack, v1, v2, v1)
	case 0x5B: // dup_x2
		v1, err := state.pop()
		if err != nil {
			return err
		}
		v2, err := state.pop()
		if err != nil {
			return err
		}
		if !v2.isCategory2() {
			v3, err := state.pop()
			if err != nil {
				return err
			}
			return pushAll(state, maxStack, v1, v3, v2, v1)
		}
		return pushAll(state, maxStack, v1, v2, v1)
	case 0x5C: // dup2
		v1, err := state.pop()
		if err != nil {
			return err
		}
		if !v1.isCategory2() {
			v2, err := state.pop()
			if err != nil {
				return err
			}
			return pushAll(state, maxStack, v2, v1, v2, v1)
		}
		return pushAll(state, maxStack, v1, v1)
	case 0x5D: // dup2_x1
		v1, err := state.pop()
		if err != nil {
			return err
		}
		v2, err := state.pop()
		if err != nil {
			return err
		}
		if !v1.isCategory2() {
			v3, err := state.pop()
			if err != nil {
				return err
			}
			return pushAll(state, maxStack, v2, v1, v3, v2, v1)
		}
		return pushAll(state, maxStack, v1, v2, v1)
	case 0x5E: // dup2_x2
		v1, err := state.pop()
		if err != nil {
			return err
		}
		v2, err := state.pop()
		if err != nil {
			return err
		}
		if !v1.isCategory2() {
			v3, err := state.pop()
			if err != nil {
				return err
			}
			if !v3.isCategory2() {
				v4, err := state.pop()
				if err != nil {
					return err
				}
				return pushAll(state, maxStack, v2, v1, v4, v3, v2, v1)
			}
			return pushAll(state, maxStack, v2, v1, v3, v2, v1)
		}
		if !v2.isCategory2() {
			v3, err := state.pop()
			if err != nil {
				return err
			}
			return pushAll(state, maxStack, v1, v3, v2, v1)
		}
		return pushAll(state, maxStack, v1, v2, v1)
	case 0x5F: // swap — deliberately unchecked, matching the engine's
		// category-agnostic swap
		v1, err := state.pop()
		if err != nil {
			return err
		}
		v2, err := state.pop()
		if err != nil {
			return err
		}
		return pushAll(state, maxStack, v1, v2)

	// --- arithmetic ---
	case 0x60, 0x64, 0x68, 0x6C, 0x70, 0x7E, 0x80, 0x82: // iadd..ixor
		return binary(vInt)
	case 0x61, 0x65, 0x69, 0x6D, 0x71, 0x7F, 0x81, 0x83: // ladd..lxor
		return binary(vLong)
	case 0x62, 0x66, 0x6A, 0x6E, 0x72: // fadd..frem
		return binary(vFloat)
	case 0x63, 0x67, 0x6B, 0x6F, 0x73: // dadd..drem
		return binary(vDouble)
	case 0x74: // ineg
		return unary(vInt)
	case 0x75: // lneg
		return unary(vLong)
	case 0x76: // fneg
		return unary(vFloat)
	case 0x77: // dneg
		return unary(vDouble)
	case 0x78, 0x7A, 0x7C: // ishl, ishr, iushr
		return binary(vInt)
	case 0x79, 0x7B, 0x7D: // lshl, lshr, lushr — shift amount is an int
		if err := state.popTag(vInt); err != nil {
			return err
		}
		return unary(vLong)
	case 0x84: // iinc
		idx := int(bytecode[pc+1])
		if idx >= len(state.locals) {
			return verifyErr("verifier", "iinc of local %d beyond max_locals %d", idx, len(state.locals))
		}
		if state.locals[idx].tag != classfile.VTInteger {
			return verifyErr("verifier", "iinc of local %d holding %s at pc %d", idx, state.locals[idx], pc)
		}
		return nil

	// --- conversions ---
	case 0x85: // i2l
		return convert(vInt, vLong)
	case 0x86: // i2f
		return convert(vInt, vFloat)
	case 0x87: // i2d
		return convert(vInt, vDouble)
	case 0x88: // l2i
		return convert(vLong, vInt)
	case 0x89: // l2f
		return convert(vLong, vFloat)
	case 0x8A: // l2d
		return convert(vLong, vDouble)
	case 0x8B: // f2i
		return convert(vFloat, vInt)
	case 0x8C: // f2l
		return convert(vFloat, vLong)
	case 0x8D: // f2d
		return convert(vFloat, vDouble)
	case 0x8E: // d2i
		return convert(vDouble, vInt)
	case 0x8F: // d2l
		return convert(vDouble, vLong)
	case 0x90: // d2f
		return convert(vDouble, vFloat)
	case 0x91, 0x92, 0x93: // i2b, i2c, i2s
		return convert(vInt, vInt)

	// --- comparisons and branches ---
	case 0x94: // lcmp
		return compare(vLong)
	case 0x95, 0x96: // fcmpl, fcmpg
		return compare(vFloat)
	case 0x97, 0x98: // dcmpl, dcmpg
		return compare(vDouble)
	case 0x99, 0x9A, 0x9B, 0x9C, 0x9D, 0x9E: // ifeq..ifle
		return state.popTag(vInt)
	case 0x9F, 0xA0, 0xA1, 0xA2, 0xA3, 0xA4: // if_icmp*
		if err := state.popTag(vInt); err != nil {
			return err
		}
		return state.popTag(vInt)
	case 0xA5, 0xA6: // if_acmpeq, if_acmpne
		if _, err := state.popReference(); err != nil {
			return err
		}
		_, err := state.popReference()
		return err
	case 0xA7, 0xC8: // goto, goto_w
		return nil
	case 0xA8, 0xC9: // jsr, jsr_w: push the return address, modeled as Top
		return push(vTop)
	case 0xA9: // ret
		return nil

	case 0xAA, 0xAB: // tableswitch, lookupswitch
		return state.popTag(vInt)

	// --- returns ---
	case 0xAC: // ireturn
		return state.popTag(vInt)
	case 0xAD: // lreturn
		return state.popTag(vLong)
	case 0xAE: // freturn
		return state.popTag(vFloat)
	case 0xAF: // dreturn
		return state.popTag(vDouble)
	case 0xB0: // areturn
		_, err := state.popReference()
		return err
	case 0xB1: // return
		return nil

	// --- fields ---
	case 0xB2: // getstatic
		_, _, descriptor, err := cp.FieldRefInfo(be16(bytecode[pc+1:]))
		if err != nil {
			return verifyErr("verifier", "getstatic at pc %d: %v", pc, err)
		}
		return push(vtypeOfDescriptor(descriptor))
	case 0xB3: // putstatic
		_, _, descriptor, err := cp.FieldRefInfo(be16(bytecode[pc+1:]))
		if err != nil {
			return verifyErr("verifier", "putstatic at pc %d: %v", pc, err)
		}
		return popValueOfType(state, vtypeOfDescriptor(descriptor), pc)
	case 0xB4: // getfield
		_, _, descriptor, err := cp.FieldRefInfo(be16(bytecode[pc+1:]))
		if err != nil {
			return verifyErr("verifier", "getfield at pc %d: %v", pc, err)
		}
		if _, err := state.popReference(); err != nil {
			return err
		}
		return push(vtypeOfDescriptor(descriptor))
	case 0xB5: // putfield
		_, _, descriptor, err := cp.FieldRefInfo(be16(bytecode[pc+1:]))
		if err != nil {
			return verifyErr("verifier", "putfield at pc %d: %v", pc, err)
		}
		if err := popValueOfType(state, vtypeOfDescriptor(descriptor), pc); err != nil {
			return err
		}
		_, err = state.popReference()
		return err

	// --- invocation ---
	case 0xB6, 0xB7, 0xB9: // invokevirtual, invokespecial, invokeinterface
		_, _, descriptor, err := cp.MethodRefInfo(be16(bytecode[pc+1:]))
		if err != nil {
			return verifyErr("verifier", "invocation at pc %d: %v", pc, err)
		}
		if err := popArguments(state, descriptor, pc); err != nil {
			return err
		}
		if _, err := state.popReference(); err != nil {
			return err
		}
		return pushReturn(state, maxStack, descriptor)
	case 0xB8: // invokestatic
		_, _, descriptor, err := cp.MethodRefInfo(be16(bytecode[pc+1:]))
		if err != nil {
			return verifyErr("verifier", "invokestatic at pc %d: %v", pc, err)
		}
		if err := popArguments(state, descriptor, pc); err != nil {
			return err
		}
		return pushReturn(state, maxStack, descriptor)
	case 0xBA: // invokedynamic
		entry, err := cp.GetExpect(be16(bytecode[pc+1:]), classfile.TagInvokeDynamic)
		if err != nil {
			return verifyErr("verifier", "invokedynamic at pc %d: %v", pc, err)
		}
		_, descriptor, err := cp.NameAndType(entry.NameAndTypeIndex)
		if err != nil {
			return verifyErr("verifier", "invokedynamic at pc %d: %v", pc, err)
		}
		if err := popArguments(state, descriptor, pc); err != nil {
			return err
		}
		return pushReturn(state, maxStack, descriptor)

	// --- objects and arrays ---
	case 0xBB: // new
		name, err := cp.ClassName(be16(bytecode[pc+1:]))
		if err != nil {
			return verifyErr("verifier", "new at pc %d: %v", pc, err)
		}
		return push(vObject(name))
	case 0xBC: // newarray
		if err := state.popTag(vInt); err != nil {
			return err
		}
		return push(vObject(primitiveArrayName(bytecode[pc+1])))
	case 0xBD: // anewarray
		name, err := cp.ClassName(be16(bytecode[pc+1:]))
		if err != nil {
			return verifyErr("verifier", "anewarray at pc %d: %v", pc, err)
		}
		if err := state.popTag(vInt); err != nil {
			return err
		}
		if name != "" && name[0] == '[' {
			return push(vObject("[" + name))
		}
		return push(vObject("[L" + name + ";"))
	case 0xBE: // arraylength
		if _, err := state.popReference(); err != nil {
			return err
		}
		return push(vInt)
	case 0xBF: // athrow
		_, err := state.popReference()
		return err
	case 0xC0: // checkcast
		name, err := cp.ClassName(be16(bytecode[pc+1:]))
		if err != nil {
			return verifyErr("verifier", "checkcast at pc %d: %v", pc, err)
		}
		if _, err := state.popReference(); err != nil {
			return err
		}
		return push(vObject(name))
	case 0xC1: // instanceof
		if _, err := state.popReference(); err != nil {
			return err
		}
		return push(vInt)
	case 0xC2, 0xC3: // monitorenter, monitorexit
		_, err := state.popReference()
		return err

	case 0xC4: // wide
		return simulateWide(state, code, pc)

	case 0xC5: // multianewarray
		name, err := cp.ClassName(be16(bytecode[pc+1:]))
		if err != nil {
			return verifyErr("verifier", "multianewarray at pc %d: %v", pc, err)
		}
		dims := int(bytecode[pc+3])
		for i := 0; i < dims; i++ {
			if err := state.popTag(vInt); err != nil {
				return err
			}
		}
		return push(vObject(name))

	case 0xC6, 0xC7: // ifnull, ifnonnull
		_, err := state.popReference()
		return err

	default:
		return verifyErr("verifier", "invalid bytecode or argument at pc %d: unrecognized opcode 0x%02X", pc, op)
	}
}

func simulateWide(state *frameState, code *classfile.CodeAttribute, pc int) error {
	bytecode := code.Code
	modified := bytecode[pc+1]
	idx := int(be16(bytecode[pc+2:]))
	switch modified {
	case 0x15:
		return loadWide(state, code, idx, vInt)
	case 0x16:
		return loadWide(state, code, idx, vLong)
	case 0x17:
		return loadWide(state, code, idx, vFloat)
	case 0x18:
		return loadWide(state, code, idx, vDouble)
	case 0x19:
		if idx >= len(state.locals) || !state.locals[idx].isReference() {
			return verifyErr("verifier", "wide aload of local %d at pc %d", idx, pc)
		}
		return state.push(int(code.MaxStack), state.locals[idx])
	case 0x36, 0x37, 0x38, 0x39:
		want := map[byte]vtype{0x36: vInt, 0x37: vLong, 0x38: vFloat, 0x39: vDouble}[modified]
		v, err := state.pop()
		if err != nil {
			return err
		}
		if v.tag != want.tag {
			return verifyErr("verifier", "wide store at pc %d expects %s, found %s", pc, want, v)
		}
		if idx >= len(state.locals) {
			return verifyErr("verifier", "wide store to local %d beyond max_locals %d", idx, len(state.locals))
		}
		state.locals[idx] = v
		if v.isCategory2() && idx+1 < len(state.locals) {
			state.locals[idx+1] = vTop
		}
		return nil
	case 0x3A: // wide astore
		v, err := state.pop()
		if err != nil {
			return err
		}
		if !v.isReference() && v.tag != classfile.VTTop {
			return verifyErr("verifier", "wide astore of %s at pc %d", v, pc)
		}
		if idx >= len(state.locals) {
			return verifyErr("verifier", "wide store to local %d beyond max_locals %d", idx, len(state.locals))
		}
		state.locals[idx] = v
		return nil
	case 0xA9: // wide ret
		return nil
	case 0x84: // wide iinc
		if idx >= len(state.locals) || state.locals[idx].tag != classfile.VTInteger {
			return verifyErr("verifier", "wide iinc of local %d at pc %d", idx, pc)
		}
		return nil
	default:
		return verifyErr("verifier", "invalid wide-modified opcode 0x%02X at pc %d", modified, pc)
	}
}

func loadWide(state *frameState, code *classfile.CodeAttribute, idx int, want vtype) error {
	if idx >= len(state.locals) || state.locals[idx].tag != want.tag {
		return verifyErr("verifier", "wide load of local %d expects %s", idx, want)
	}
	return state.push(int(code.MaxStack), state.locals[idx])
}

func pushAll(state *frameState, maxStack int, values ...vtype) error {
	for _, v := range values {
		if err := state.push(maxStack, v); err != nil {
			return err
		}
	}
	return nil
}

// popValueOfType pops a value and checks it satisfies the declared
// field/parameter type.
func popValueOfType(state *frameState, want vtype, pc int) error {
	v, err := state.pop()
	if err != nil {
		return err
	}
	if want.tag == classfile.VTObject {
		if !v.isReference() {
			return verifyErr("verifier", "expected a reference for %s at pc %d, found %s", want, pc, v)
		}
		if !assignableToObject(v, want.className) {
			return verifyErr("verifier", "%s is not assignable to %s at pc %d", v, want, pc)
		}
		return nil
	}
	if v.tag != want.tag {
		return verifyErr("verifier", "expected %s at pc %d, found %s", want, pc, v)
	}
	return nil
}

// popArguments pops a method descriptor's parameters right-to-left,
// checking each against the declared type.
func popArguments(state *frameState, descriptor string, pc int) error {
	params := util.ParseIncomingParamsFromMethTypeString(descriptor)
	for i := len(params) - 1; i >= 0; i-- {
		if err := popValueOfType(state, vtypeOfDescriptor(params[i]), pc); err != nil {
			return err
		}
	}
	return nil
}

func pushReturn(state *frameState, maxStack int, descriptor string) error {
	ret := util.MethodReturnType(descriptor)
	if ret == "" || ret == "V" {
		return nil
	}
	return state.push(maxStack, vtypeOfDescriptor(ret))
}

func primitiveArrayName(atype byte) string {
	switch atype {
	case 4:
		return "[Z"
	case 5:
		return "[C"
	case 6:
		return "[F"
	case 7:
		return "[D"
	case 8:
		return "[B"
	case 9:
		return "[S"
	case 10:
		return "[I"
	case 11:
		return "[J"
	default:
		return "[Ljava/lang/Object;"
	}
}

// successors returns the set of instruction offsets control can flow to
// immediately after the instruction at pc. Terminal instructions
// (returns, throw, ret) produce no successors.
func successors(code *classfile.CodeAttribute, pc uint16) ([]uint16, bool) {
	op := code.Code[pc]
	n, err := opcodeLength(code.Code, int(pc))
	if err != nil {
		return nil, false
	}
	fallthroughPC := pc + uint16(n)

	switch op {
	case 0xAC, 0xAD, 0xAE, 0xAF, 0xB0, 0xB1, 0xBF: // *return, athrow
		return nil, true
	case 0xA9: // ret: the dynamic target is a stored return address
		return nil, true
	case 0xA7: // goto
		target := pc + uint16(int16(be16(code.Code[pc+1:])))
		return []uint16{target}, true
	case 0xC8: // goto_w
		target := uint16(int32(pc) + be32(code.Code[pc+1:]))
		return []uint16{target}, true
	case 0x99, 0x9A, 0x9B, 0x9C, 0x9D, 0x9E, 0x9F, 0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6, 0xC6, 0xC7:
		target := pc + uint16(int16(be16(code.Code[pc+1:])))
		return []uint16{target, fallthroughPC}, true
	case 0xA8: // jsr
		target := pc + uint16(int16(be16(code.Code[pc+1:])))
		return []uint16{target, fallthroughPC}, true
	case 0xC9: // jsr_w
		target := uint16(int32(pc) + be32(code.Code[pc+1:]))
		return []uint16{target, fallthroughPC}, true
	case 0xAA: // tableswitch
		pos := int(pc) + 1
		pos += (4 - pos%4) % 4
		out := []uint16{uint16(int32(pc) + be32(code.Code[pos:]))}
		low := be32(code.Code[pos+4:])
		high := be32(code.Code[pos+8:])
		for i := 0; i <= int(high-low); i++ {
			out = append(out, uint16(int32(pc)+be32(code.Code[pos+12+4*i:])))
		}
		return out, true
	case 0xAB: // lookupswitch
		pos := int(pc) + 1
		pos += (4 - pos%4) % 4
		out := []uint16{uint16(int32(pc) + be32(code.Code[pos:]))}
		npairs := int(be32(code.Code[pos+4:]))
		for i := 0; i < npairs; i++ {
			out = append(out, uint16(int32(pc)+be32(code.Code[pos+12+8*i:])))
		}
		return out, true
	case 0xC4: // wide ret has no static successor; other wide forms fall through
		if code.Code[pc+1] == 0xA9 {
			return nil, true
		}
		return []uint16{fallthroughPC}, true
	default:
		if int(fallthroughPC) > len(code.Code) {
			return nil, false
		}
		return []uint16{fallthroughPC}, true
	}
}

func be16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}
