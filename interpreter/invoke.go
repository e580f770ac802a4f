/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"fmt"

	"ristretto/classfile"
	"ristretto/classloader"
	"ristretto/excNames"
	"ristretto/frames"
	"ristretto/gfunction"
	"ristretto/object"
	"ristretto/statics"
	"ristretto/types"
	"ristretto/util"
)

// stepObjectOps handles every opcode that needs the constant pool, the
// class loader, or the heap: ldc-family constants were already peeled off
// in step; this covers field access, invocation, allocation, array
// element access, casts, throw, and monitors.
func (m *Machine) stepObjectOps(threadStack *frames.Stack, f *frames.Frame, op byte) (stepResult, error) {
	code := f.Method.Code.Code
	cp := f.Class.ClassFile.ConstantPool
	stack := f.Stack

	switch op {

	case OpGetstatic, OpPutstatic:
		idx := readU16(code, f.PC+1)
		className, fieldName, descriptor, err := cp.FieldRefInfo(idx)
		if err != nil {
			return stepResult{}, err
		}
		lc, err := m.Loader.Load(className)
		if err != nil {
			return stepResult{}, err
		}
		if err := m.EnsureInitialized(threadStack, lc); err != nil {
			return stepResult{}, err
		}
		if op == OpGetstatic {
			f.PC += 3
			raw, ok := statics.GetStaticValue(className, fieldName)
			if !ok {
				return contResult, stack.Push(zeroValueFor(descriptor))
			}
			v, err := staticToValue(descriptor, raw)
			if err != nil {
				return stepResult{}, err
			}
			return contResult, stack.Push(v)
		}
		v, err := stack.Pop()
		if err != nil {
			return stepResult{}, err
		}
		f.PC += 3
		if err := statics.AddStatic(className+"."+fieldName, statics.Static{Type: descriptor, Value: valueToStatic(descriptor, v)}); err != nil {
			return stepResult{}, err
		}
		return contResult, nil

	case OpGetfield:
		idx := readU16(code, f.PC+1)
		_, fieldName, descriptor, err := cp.FieldRefInfo(idx)
		if err != nil {
			return stepResult{}, err
		}
		obj, err := stack.PopObject()
		if err != nil {
			return stepResult{}, err
		}
		if obj == nil {
			return m.throwJava(excNames.NullPointerException,
				fmt.Sprintf("cannot read field %q because the target is null", fieldName))
		}
		fld := obj.GetField(fieldName)
		if fld == nil {
			return stepResult{}, &ErrUnresolvedField{Class: obj.Klass.Name, Name: fieldName}
		}
		v, err := fieldToValue(descriptor, fld)
		if err != nil {
			return stepResult{}, err
		}
		f.PC += 3
		return contResult, stack.Push(v)

	case OpPutfield:
		idx := readU16(code, f.PC+1)
		_, fieldName, descriptor, err := cp.FieldRefInfo(idx)
		if err != nil {
			return stepResult{}, err
		}
		v, err := stack.Pop()
		if err != nil {
			return stepResult{}, err
		}
		obj, err := stack.PopObject()
		if err != nil {
			return stepResult{}, err
		}
		if obj == nil {
			return m.throwJava(excNames.NullPointerException,
				fmt.Sprintf("cannot assign field %q because the target is null", fieldName))
		}
		fld := obj.GetField(fieldName)
		if fld == nil {
			return stepResult{}, &ErrUnresolvedField{Class: obj.Klass.Name, Name: fieldName}
		}
		fld.Fvalue = valueForField(descriptor, v)
		if v.Kind == frames.KindObject && v.Ref != nil {
			m.barrier(obj, v.Ref)
		}
		f.PC += 3
		return contResult, nil

	case OpInvokestatic:
		idx := readU16(code, f.PC+1)
		return m.invoke(threadStack, f, idx, invokeStatic, f.PC+3)
	case OpInvokevirtual:
		idx := readU16(code, f.PC+1)
		return m.invoke(threadStack, f, idx, invokeVirtual, f.PC+3)
	case OpInvokespecial:
		idx := readU16(code, f.PC+1)
		return m.invoke(threadStack, f, idx, invokeSpecial, f.PC+3)
	case OpInvokeinterface:
		idx := readU16(code, f.PC+1)
		// count and the trailing zero byte carry no information this model needs
		return m.invoke(threadStack, f, idx, invokeInterface, f.PC+5)

	case OpInvokedynamic:
		idx := readU16(code, f.PC+1)
		return m.invokeDynamic(f, idx, f.PC+5)

	case OpNew:
		idx := readU16(code, f.PC+1)
		className, err := cp.ClassName(idx)
		if err != nil {
			return stepResult{}, err
		}
		lc, err := m.Loader.Load(className)
		if err != nil {
			return stepResult{}, err
		}
		if err := m.EnsureInitialized(threadStack, lc); err != nil {
			return stepResult{}, err
		}
		obj, err := object.NewObject(lc)
		if err != nil {
			return stepResult{}, err
		}
		m.allocate(obj)
		f.PC += 3
		return contResult, stack.PushObject(obj)

	case OpNewarray:
		atype := code[f.PC+1]
		n, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		if n < 0 {
			return m.throwJava(excNames.NegativeArraySizeException, fmt.Sprintf("%d", n))
		}
		obj, err := m.newPrimitiveArray(atype, int(n))
		if err != nil {
			return stepResult{}, err
		}
		f.PC += 2
		return contResult, stack.PushObject(obj)

	case OpAnewarray:
		idx := readU16(code, f.PC+1)
		componentName, err := cp.ClassName(idx)
		if err != nil {
			return stepResult{}, err
		}
		n, err := stack.PopInt()
		if err != nil {
			return stepResult{}, err
		}
		if n < 0 {
			return m.throwJava(excNames.NegativeArraySizeException, fmt.Sprintf("%d", n))
		}
		obj, err := m.newReferenceArray(componentName, int(n))
		if err != nil {
			return stepResult{}, err
		}
		f.PC += 3
		return contResult, stack.PushObject(obj)

	case OpMultianewarray:
		idx := readU16(code, f.PC+1)
		dims := int(code[f.PC+3])
		arrayName, err := cp.ClassName(idx)
		if err != nil {
			return stepResult{}, err
		}
		counts := make([]int, dims)
		for i := dims - 1; i >= 0; i-- {
			n, err := stack.PopInt()
			if err != nil {
				return stepResult{}, err
			}
			if n < 0 {
				return m.throwJava(excNames.NegativeArraySizeException, fmt.Sprintf("%d", n))
			}
			counts[i] = int(n)
		}
		obj, err := m.newMultiArray(arrayName, counts)
		if err != nil {
			return stepResult{}, err
		}
		f.PC += 4
		return contResult, stack.PushObject(obj)

	case OpArraylength:
		obj, err := stack.PopObject()
		if err != nil {
			return stepResult{}, err
		}
		if obj == nil {
			return m.throwJava(excNames.NullPointerException, "cannot read the array length because the array is null")
		}
		ref, ok := arrayContents(obj)
		if !ok {
			return stepResult{}, fmt.Errorf("interpreter: arraylength on non-array %s", obj.Klass.Name)
		}
		f.PC++
		return contResult, stack.PushInt(int32(ref.Len()))

	case OpInstanceof:
		idx := readU16(code, f.PC+1)
		targetName, err := cp.ClassName(idx)
		if err != nil {
			return stepResult{}, err
		}
		obj, err := stack.PopObject()
		if err != nil {
			return stepResult{}, err
		}
		f.PC += 3
		if obj == nil {
			return contResult, stack.PushInt(0)
		}
		target, err := m.Loader.Load(targetName)
		if err != nil {
			return stepResult{}, err
		}
		ok, err := obj.InstanceOf(target)
		if err != nil {
			return stepResult{}, err
		}
		if ok {
			return contResult, stack.PushInt(1)
		}
		return contResult, stack.PushInt(0)

	case OpCheckcast:
		idx := readU16(code, f.PC+1)
		targetName, err := cp.ClassName(idx)
		if err != nil {
			return stepResult{}, err
		}
		v, err := stack.Peek()
		if err != nil {
			return stepResult{}, err
		}
		if v.Kind != frames.KindObject {
			return stepResult{}, &frames.InvalidOperandError{Expected: frames.KindObject, Actual: v.Kind}
		}
		if v.Ref == nil {
			f.PC += 3
			return contResult, nil // null passes any checkcast
		}
		target, err := m.Loader.Load(targetName)
		if err != nil {
			return stepResult{}, err
		}
		ok, err := v.Ref.InstanceOf(target)
		if err != nil {
			return stepResult{}, err
		}
		if !ok {
			return m.throwJava(excNames.ClassCastException,
				fmt.Sprintf("class %s cannot be cast to class %s",
					util.ConvertInternalClassNameToUserFormat(v.Ref.Klass.Name),
					util.ConvertInternalClassNameToUserFormat(targetName)))
		}
		f.PC += 3
		return contResult, nil

	case OpAthrow:
		obj, err := stack.PopObject()
		if err != nil {
			return stepResult{}, err
		}
		if obj == nil {
			return m.throwJava(excNames.NullPointerException, "throw of a null exception")
		}
		return stepResult{}, &ThrownException{Exception: obj}

	case OpMonitorenter:
		obj, err := stack.PopObject()
		if err != nil {
			return stepResult{}, err
		}
		if obj == nil {
			return m.throwJava(excNames.NullPointerException, "monitorenter on null")
		}
		m.monitors.enter(obj, threadStack.ID)
		f.PC++
		return contResult, nil

	case OpMonitorexit:
		obj, err := stack.PopObject()
		if err != nil {
			return stepResult{}, err
		}
		if obj == nil {
			return m.throwJava(excNames.NullPointerException, "monitorexit on null")
		}
		if !m.monitors.exit(obj, threadStack.ID) {
			return m.throwJava(excNames.IllegalMonitorStateException, "current thread is not the monitor owner")
		}
		f.PC++
		return contResult, nil

	default:
		return stepResult{}, &ErrUnknownOpcode{Opcode: op}
	}
}

// invokeKind distinguishes the four resolution disciplines of the
// invocation opcodes.
type invokeKind int

const (
	invokeStatic invokeKind = iota
	invokeVirtual
	invokeSpecial
	invokeInterface
)

// invoke resolves and calls the method named by constant-pool entry idx.
// Intrinsics (gfunction registry hits) are executed inline; bytecode
// targets come back as CallInto for Run to push. next is the pc of the
// following instruction; f.PC only advances there on success, so a
// thrown exception's handler search still sees the invoke site's pc.
func (m *Machine) invoke(threadStack *frames.Stack, f *frames.Frame, idx uint16, kind invokeKind, next int) (stepResult, error) {
	cp := f.Class.ClassFile.ConstantPool
	className, methodName, descriptor, err := cp.MethodRefInfo(idx)
	if err != nil {
		return stepResult{}, err
	}

	params := util.ParseIncomingParamsFromMethTypeString(descriptor)
	args := make([]frames.Value, len(params))
	for i := len(params) - 1; i >= 0; i-- {
		v, perr := f.Stack.Pop()
		if perr != nil {
			return stepResult{}, perr
		}
		args[i] = v
	}

	var receiver *object.Object
	if kind != invokeStatic {
		v, perr := f.Stack.Pop()
		if perr != nil {
			return stepResult{}, perr
		}
		if v.Kind != frames.KindObject {
			return stepResult{}, &frames.InvalidOperandError{Expected: frames.KindObject, Actual: v.Kind}
		}
		receiver = v.Ref
		if receiver == nil {
			return m.throwJava(excNames.NullPointerException,
				fmt.Sprintf("cannot invoke %q because the receiver is null", methodName))
		}
	}

	// Intrinsic dispatch consults the receiver's actual class for virtual
	// sends, the named class otherwise.
	ownerName := className
	if kind == invokeVirtual || kind == invokeInterface {
		ownerName = receiver.Klass.Name
	}
	if res, handled, gerr := m.tryIntrinsic(f, ownerName, className, methodName, descriptor, receiver, args, next); handled {
		return res, gerr
	}

	// Resolve the bytecode target.
	var declaring *classloader.LoadedClass
	var target *classfile.MethodInfo
	switch kind {
	case invokeStatic, invokeSpecial:
		lc, lerr := m.Loader.Load(className)
		if lerr != nil {
			return stepResult{}, lerr
		}
		if kind == invokeStatic {
			if ierr := m.EnsureInitialized(threadStack, lc); ierr != nil {
				return stepResult{}, ierr
			}
		}
		declaring, target, _ = lc.ResolveMethod(methodName, descriptor)
	case invokeVirtual, invokeInterface:
		declaring, target, _ = receiver.Klass.ResolveMethod(methodName, descriptor)
	}
	if target == nil {
		return stepResult{}, &ErrUnresolvedMethod{Class: className, Name: methodName, Descriptor: descriptor}
	}
	if target.AccessFlags&classfile.AccNative != 0 {
		// Declared native, but no intrinsic matched: a linkage error, not
		// an abort.
		return m.throwJava(excNames.UnsatisfiedLinkError,
			fmt.Sprintf("%s.%s%s", className, methodName, descriptor))
	}

	callee, err := frames.New(declaring, target)
	if err != nil {
		return stepResult{}, err
	}
	slot := 0
	if kind != invokeStatic {
		callee.Locals[0] = frames.Object(receiver)
		slot = 1
	}
	for _, a := range args {
		if slot >= len(callee.Locals) {
			break
		}
		callee.Locals[slot] = a
		if a.IsCategory1() {
			slot++
		} else {
			slot += 2 // two-word types occupy two consecutive local slots
		}
	}
	f.PC = next
	return stepResult{kind: resultCallInto, callee: callee}, nil
}

// tryIntrinsic routes a call through the gfunction registry when a
// version-matching intrinsic is declared for it. handled reports whether
// the call was consumed (successfully or by raising a Java exception).
func (m *Machine) tryIntrinsic(f *frames.Frame, ownerName, declaredClass, methodName, descriptor string, receiver *object.Object, args []frames.Value, next int) (stepResult, bool, error) {
	gm, ok := gfunction.Resolve(ownerName+"."+methodName+descriptor, f.Class.MajorVersion())
	if !ok && ownerName != declaredClass {
		gm, ok = gfunction.Resolve(declaredClass+"."+methodName+descriptor, f.Class.MajorVersion())
	}
	if !ok {
		return stepResult{}, false, nil
	}

	params := make([]any, 0, len(args)+1)
	if receiver != nil {
		params = append(params, receiver)
	}
	for _, a := range args {
		params = append(params, valueToAny(a))
	}

	ret := gm.GFunction(params)
	if blk, isErr := ret.(*gfunction.GErrBlk); isErr {
		res, err := m.throwJava(blk.ExceptionType, blk.ErrMsg)
		return res, true, err
	}
	v, err := anyToValue(util.MethodReturnType(descriptor), ret)
	if err != nil {
		return stepResult{}, true, err
	}
	if v != nil {
		if err := f.Stack.Push(*v); err != nil {
			return stepResult{}, true, err
		}
	}
	f.PC = next
	return contResult, true, nil
}

// invokeDynamic gives invokedynamic sites the narrow treatment this
// engine supports: the call site's (name, descriptor) pair is looked up
// in the intrinsic registry (string concatenation and the lambda
// metafactories the engine pre-registers live there); anything else is an
// unsatisfied link. Full bootstrap-method execution is recorded as an
// Open Question decision in DESIGN.md.
func (m *Machine) invokeDynamic(f *frames.Frame, idx uint16, next int) (stepResult, error) {
	cp := f.Class.ClassFile.ConstantPool
	e, err := cp.GetExpect(idx, classfile.TagInvokeDynamic)
	if err != nil {
		return stepResult{}, err
	}
	name, descriptor, err := cp.NameAndType(e.NameAndTypeIndex)
	if err != nil {
		return stepResult{}, err
	}

	params := util.ParseIncomingParamsFromMethTypeString(descriptor)
	args := make([]frames.Value, len(params))
	for i := len(params) - 1; i >= 0; i-- {
		v, perr := f.Stack.Pop()
		if perr != nil {
			return stepResult{}, perr
		}
		args[i] = v
	}
	if res, handled, gerr := m.tryIntrinsic(f, "", "", name, descriptor, nil, args, next); handled {
		return res, gerr
	}
	return m.throwJava(excNames.UnsatisfiedLinkError, fmt.Sprintf("invokedynamic %s%s", name, descriptor))
}

// EnsureInitialized drives lc through lazy <clinit> initialization using
// this machine's interpreter for the initializer body.
func (m *Machine) EnsureInitialized(threadStack *frames.Stack, lc *classloader.LoadedClass) error {
	return lc.Ensure(threadStack.ID, func(lc *classloader.LoadedClass) error {
		clinit, ok := lc.Method("<clinit>", "()V")
		if !ok || clinit.Code == nil {
			return nil
		}
		_, err := m.Invoke(threadStack, lc, clinit, nil)
		return err
	})
}

// --- array helpers ---

// arrayContents extracts the backing Reference from an array object. The
// engine represents an array as an Object of the synthetic array class
// whose "value" field holds the element container, the same layout
// java/lang/String already uses for its backing array.
func arrayContents(obj *object.Object) (*object.Reference, bool) {
	fld := obj.GetField("value")
	if fld == nil {
		return nil, false
	}
	ref, ok := fld.Fvalue.(*object.Reference)
	return ref, ok && ref != nil
}

func (m *Machine) wrapArray(arrayClassName string, ref *object.Reference) (*object.Object, error) {
	klass, err := m.Loader.Load(arrayClassName)
	if err != nil {
		return nil, err
	}
	obj := &object.Object{Klass: klass, FieldTable: object.FieldTable{
		"value": &object.Field{Ftype: arrayClassName, Fvalue: ref},
	}}
	m.allocate(obj)
	return obj, nil
}

func (m *Machine) newPrimitiveArray(atype byte, n int) (*object.Object, error) {
	var ref *object.Reference
	var name string
	switch atype {
	case ATBoolean:
		ref, name = object.NewByteArray(n), "[Z"
	case ATChar:
		ref, name = object.NewCharArray(n), "[C"
	case ATFloat:
		ref, name = object.NewFloatArray(n), "[F"
	case ATDouble:
		ref, name = object.NewDoubleArray(n), "[D"
	case ATByte:
		ref, name = object.NewByteArray(n), "[B"
	case ATShort:
		ref, name = object.NewShortArray(n), "[S"
	case ATInt:
		ref, name = object.NewIntArray(n), "[I"
	case ATLong:
		ref, name = object.NewLongArray(n), "[J"
	default:
		return nil, fmt.Errorf("interpreter: newarray with unknown atype %d", atype)
	}
	return m.wrapArray(name, ref)
}

func (m *Machine) newReferenceArray(componentName string, n int) (*object.Object, error) {
	name := "[L" + componentName + ";"
	if componentName[0] == '[' {
		name = "[" + componentName // component is itself an array class
	}
	return m.wrapArray(name, object.NewArray(componentName, n))
}

// newMultiArray recursively allocates a multianewarray result: the
// outermost dimension is an array of references, each element the
// recursively built inner array (or nil once counts are exhausted, per
// JVMS: unfilled dimensions stay null).
func (m *Machine) newMultiArray(arrayName string, counts []int) (*object.Object, error) {
	component := arrayName[1:]
	if len(counts) == 1 {
		if component[0] == 'L' || component[0] == '[' {
			compName := component
			if compName[0] == 'L' {
				compName = compName[1 : len(compName)-1]
			}
			return m.wrapArray(arrayName, object.NewArray(compName, counts[0]))
		}
		switch component[0] {
		case 'Z', 'B':
			return m.wrapArray(arrayName, object.NewByteArray(counts[0]))
		case 'C':
			return m.wrapArray(arrayName, object.NewCharArray(counts[0]))
		case 'S':
			return m.wrapArray(arrayName, object.NewShortArray(counts[0]))
		case 'I':
			return m.wrapArray(arrayName, object.NewIntArray(counts[0]))
		case 'J':
			return m.wrapArray(arrayName, object.NewLongArray(counts[0]))
		case 'F':
			return m.wrapArray(arrayName, object.NewFloatArray(counts[0]))
		case 'D':
			return m.wrapArray(arrayName, object.NewDoubleArray(counts[0]))
		}
		return nil, fmt.Errorf("interpreter: multianewarray with component %q", component)
	}

	ref := object.NewArray(component, counts[0])
	outer, err := m.wrapArray(arrayName, ref)
	if err != nil {
		return nil, err
	}
	for i := 0; i < counts[0]; i++ {
		inner, err := m.newMultiArray(component, counts[1:])
		if err != nil {
			return nil, err
		}
		ref.Refs[i] = inner
		m.barrier(outer, inner)
	}
	return outer, nil
}

// arrayLoad implements the *aload family: pop index and arrayref, push
// the element with the type the opcode dictates.
func (m *Machine) arrayLoad(f *frames.Frame, op byte) (stepResult, error) {
	idx, err := f.Stack.PopInt()
	if err != nil {
		return stepResult{}, err
	}
	obj, err := f.Stack.PopObject()
	if err != nil {
		return stepResult{}, err
	}
	if obj == nil {
		f.PC--
		return m.throwJava(excNames.NullPointerException, "array load from null")
	}
	ref, ok := arrayContents(obj)
	if !ok {
		return stepResult{}, fmt.Errorf("interpreter: array load from non-array %s", obj.Klass.Name)
	}
	el, err := ref.Get(int(idx))
	if err != nil {
		f.PC--
		return m.throwJava(excNames.ArrayIndexOutOfBoundsException,
			fmt.Sprintf("index %d out of bounds for length %d", idx, ref.Len()))
	}
	switch op {
	case OpIaload, OpBaload, OpCaload, OpSaload:
		switch v := el.(type) {
		case int32:
			return contResult, f.Stack.PushInt(v)
		}
		return stepResult{}, fmt.Errorf("interpreter: int-family array load saw %T", el)
	case OpLaload:
		v, ok := el.(int64)
		if !ok {
			return stepResult{}, fmt.Errorf("interpreter: laload saw %T", el)
		}
		return contResult, f.Stack.PushLong(v)
	case OpFaload:
		v, ok := el.(float32)
		if !ok {
			return stepResult{}, fmt.Errorf("interpreter: faload saw %T", el)
		}
		return contResult, f.Stack.PushFloat(v)
	case OpDaload:
		v, ok := el.(float64)
		if !ok {
			return stepResult{}, fmt.Errorf("interpreter: daload saw %T", el)
		}
		return contResult, f.Stack.PushDouble(v)
	case OpAaload:
		v, _ := el.(*object.Object)
		return contResult, f.Stack.PushObject(v)
	}
	return stepResult{}, &ErrUnknownOpcode{Opcode: op}
}

// arrayStore implements the *astore family: pop value, index, arrayref.
func (m *Machine) arrayStore(f *frames.Frame, op byte) (stepResult, error) {
	v, err := f.Stack.Pop()
	if err != nil {
		return stepResult{}, err
	}
	idx, err := f.Stack.PopInt()
	if err != nil {
		return stepResult{}, err
	}
	obj, err := f.Stack.PopObject()
	if err != nil {
		return stepResult{}, err
	}
	if obj == nil {
		f.PC--
		return m.throwJava(excNames.NullPointerException, "array store to null")
	}
	ref, ok := arrayContents(obj)
	if !ok {
		return stepResult{}, fmt.Errorf("interpreter: array store to non-array %s", obj.Klass.Name)
	}

	var el any
	switch op {
	case OpIastore, OpBastore, OpCastore, OpSastore:
		if v.Kind != frames.KindInt {
			return stepResult{}, &frames.InvalidOperandError{Expected: frames.KindInt, Actual: v.Kind}
		}
		el = v.I
	case OpLastore:
		if v.Kind != frames.KindLong {
			return stepResult{}, &frames.InvalidOperandError{Expected: frames.KindLong, Actual: v.Kind}
		}
		el = v.L
	case OpFastore:
		if v.Kind != frames.KindFloat {
			return stepResult{}, &frames.InvalidOperandError{Expected: frames.KindFloat, Actual: v.Kind}
		}
		el = v.F
	case OpDastore:
		if v.Kind != frames.KindDouble {
			return stepResult{}, &frames.InvalidOperandError{Expected: frames.KindDouble, Actual: v.Kind}
		}
		el = v.D
	case OpAastore:
		if v.Kind != frames.KindObject {
			return stepResult{}, &frames.InvalidOperandError{Expected: frames.KindObject, Actual: v.Kind}
		}
		el = v.Ref
	default:
		return stepResult{}, &ErrUnknownOpcode{Opcode: op}
	}

	if err := ref.Set(int(idx), el); err != nil {
		f.PC--
		return m.throwJava(excNames.ArrayIndexOutOfBoundsException,
			fmt.Sprintf("index %d out of bounds for length %d", idx, ref.Len()))
	}
	if op == OpAastore && v.Ref != nil {
		m.barrier(obj, v.Ref)
	}
	return contResult, nil
}

// --- constant loading ---

// pushLoadableConstant implements ldc/ldc_w (wide=false) and ldc2_w
// (wide=true).
func (m *Machine) pushLoadableConstant(f *frames.Frame, idx uint16, wide bool) (stepResult, error) {
	cp := f.Class.ClassFile.ConstantPool
	e, err := cp.Get(idx)
	if err != nil {
		return stepResult{}, err
	}
	switch e.Tag {
	case classfile.TagLong:
		if !wide {
			return stepResult{}, fmt.Errorf("interpreter: ldc of a two-slot Long constant")
		}
		return contResult, f.Stack.PushLong(e.LongValue)
	case classfile.TagDouble:
		if !wide {
			return stepResult{}, fmt.Errorf("interpreter: ldc of a two-slot Double constant")
		}
		return contResult, f.Stack.PushDouble(e.DoubleValue)
	case classfile.TagInteger:
		return contResult, f.Stack.PushInt(e.IntValue)
	case classfile.TagFloat:
		return contResult, f.Stack.PushFloat(e.FloatValue)
	case classfile.TagString:
		utf8, err := cp.GetExpect(e.NameIndex, classfile.TagUtf8)
		if err != nil {
			return stepResult{}, err
		}
		s, err := utf8.AsString()
		if err != nil {
			return stepResult{}, err
		}
		obj, err := m.NewString(s)
		if err != nil {
			return stepResult{}, err
		}
		return contResult, f.Stack.PushObject(obj)
	case classfile.TagClass:
		name, err := cp.ClassName(idx)
		if err != nil {
			return stepResult{}, err
		}
		obj, err := m.newClassObject(name)
		if err != nil {
			return stepResult{}, err
		}
		return contResult, f.Stack.PushObject(obj)
	default:
		return stepResult{}, fmt.Errorf("interpreter: ldc of unsupported constant tag %d", e.Tag)
	}
}

// NewString allocates a java/lang/String instance for s, registered with
// the collector. Exported because intrinsics and the thread bootstrap
// need the same literal construction ldc uses.
func (m *Machine) NewString(s string) (*object.Object, error) {
	klass, err := m.Loader.Load(types.StringClassName)
	if err != nil {
		return nil, err
	}
	obj := object.NewStringObject(klass, s)
	m.allocate(obj)
	return obj, nil
}

// newClassObject materializes a java/lang/Class constant: a Class
// instance whose name field carries the dotted class name.
func (m *Machine) newClassObject(className string) (*object.Object, error) {
	klass, err := m.Loader.Load("java/lang/Class")
	if err != nil {
		return nil, err
	}
	nameObj, err := m.NewString(util.ConvertInternalClassNameToUserFormat(className))
	if err != nil {
		return nil, err
	}
	obj := &object.Object{Klass: klass, FieldTable: object.FieldTable{
		"name": &object.Field{Ftype: "Ljava/lang/String;", Fvalue: nameObj},
	}}
	m.allocate(obj)
	return obj, nil
}

// --- value <-> storage conversions ---

// zeroValueFor is getstatic's answer for a static never yet written.
func zeroValueFor(descriptor string) frames.Value {
	switch descriptor[0] {
	case 'J':
		return frames.Long(0)
	case 'F':
		return frames.Float(0)
	case 'D':
		return frames.Double(0)
	case 'L', '[':
		return frames.Object(nil)
	default:
		return frames.Int(0)
	}
}

// valueToStatic converts an operand-stack value to the statics table's
// storage convention (int64 for all integral primitives, the descriptor
// disambiguating on the way back out).
func valueToStatic(descriptor string, v frames.Value) any {
	switch v.Kind {
	case frames.KindInt:
		i := v.I
		switch descriptor[0] {
		case 'B':
			i = int32(int8(i))
		case 'C':
			i = int32(uint16(i))
		case 'S':
			i = int32(int16(i))
		case 'Z':
			i &= 1
		}
		return int64(i)
	case frames.KindLong:
		return v.L
	case frames.KindFloat:
		return float64(v.F)
	case frames.KindDouble:
		return v.D
	case frames.KindObject:
		return v.Ref
	}
	return nil
}

func staticToValue(descriptor string, raw any) (frames.Value, error) {
	switch descriptor[0] {
	case 'L', '[':
		obj, _ := raw.(*object.Object)
		return frames.Object(obj), nil
	case 'J':
		v, ok := raw.(int64)
		if !ok {
			return frames.Value{}, fmt.Errorf("interpreter: static of type J holds %T", raw)
		}
		return frames.Long(v), nil
	case 'F':
		v, ok := raw.(float64)
		if !ok {
			return frames.Value{}, fmt.Errorf("interpreter: static of type F holds %T", raw)
		}
		return frames.Float(float32(v)), nil
	case 'D':
		v, ok := raw.(float64)
		if !ok {
			return frames.Value{}, fmt.Errorf("interpreter: static of type D holds %T", raw)
		}
		return frames.Double(v), nil
	default:
		v, ok := raw.(int64)
		if !ok {
			return frames.Value{}, fmt.Errorf("interpreter: static of type %s holds %T", descriptor, raw)
		}
		return frames.Int(int32(v)), nil
	}
}

// fieldToValue converts an object field's stored Go value to an operand
// stack value, following object.zeroValue's storage convention.
func fieldToValue(descriptor string, fld *object.Field) (frames.Value, error) {
	switch v := fld.Fvalue.(type) {
	case nil:
		return frames.Object(nil), nil
	case bool:
		if v {
			return frames.Int(1), nil
		}
		return frames.Int(0), nil
	case int32:
		return frames.Int(v), nil
	case int64:
		return frames.Long(v), nil
	case float32:
		return frames.Float(v), nil
	case float64:
		return frames.Double(v), nil
	case *object.Object:
		return frames.Object(v), nil
	default:
		return frames.Value{}, fmt.Errorf("interpreter: field %s holds unsupported %T", descriptor, fld.Fvalue)
	}
}

// valueForField converts an operand-stack value to the field-storage
// convention, narrowing int sources into byte/char/short/boolean slots
//.
func valueForField(descriptor string, v frames.Value) any {
	switch v.Kind {
	case frames.KindInt:
		switch descriptor[0] {
		case 'Z':
			return v.I&1 != 0
		case 'B':
			return int32(int8(v.I))
		case 'C':
			return rune(uint16(v.I))
		case 'S':
			return int32(int16(v.I))
		default:
			return v.I
		}
	case frames.KindLong:
		return v.L
	case frames.KindFloat:
		return v.F
	case frames.KindDouble:
		return v.D
	case frames.KindObject:
		if v.Ref == nil {
			return nil
		}
		return v.Ref
	}
	return nil
}

// valueToAny maps an operand value to the []any convention intrinsics
// receive: int64 for both int and long, float64 for both float kinds.
func valueToAny(v frames.Value) any {
	switch v.Kind {
	case frames.KindInt:
		return int64(v.I)
	case frames.KindLong:
		return v.L
	case frames.KindFloat:
		return float64(v.F)
	case frames.KindDouble:
		return v.D
	case frames.KindObject:
		return v.Ref
	}
	return nil
}

// anyToValue maps an intrinsic's return value back onto the operand
// stack, guided by the declared return descriptor. A void descriptor
// returns nil with no value pushed.
func anyToValue(returnDescriptor string, ret any) (*frames.Value, error) {
	if returnDescriptor == "" || returnDescriptor == types.Void {
		return nil, nil
	}
	switch returnDescriptor[0] {
	case 'L', '[':
		if ret == nil {
			v := frames.Object(nil)
			return &v, nil
		}
		obj, ok := ret.(*object.Object)
		if !ok {
			return nil, fmt.Errorf("interpreter: intrinsic returned %T for reference descriptor %s", ret, returnDescriptor)
		}
		v := frames.Object(obj)
		return &v, nil
	case 'J':
		i, ok := ret.(int64)
		if !ok {
			return nil, fmt.Errorf("interpreter: intrinsic returned %T for long", ret)
		}
		v := frames.Long(i)
		return &v, nil
	case 'F':
		d, ok := ret.(float64)
		if !ok {
			return nil, fmt.Errorf("interpreter: intrinsic returned %T for float", ret)
		}
		v := frames.Float(float32(d))
		return &v, nil
	case 'D':
		d, ok := ret.(float64)
		if !ok {
			return nil, fmt.Errorf("interpreter: intrinsic returned %T for double", ret)
		}
		v := frames.Double(d)
		return &v, nil
	default:
		i, ok := ret.(int64)
		if !ok {
			return nil, fmt.Errorf("interpreter: intrinsic returned %T for int-family descriptor %s", ret, returnDescriptor)
		}
		v := frames.Int(int32(i))
		return &v, nil
	}
}
