/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package verifier

import (
	"fmt"
	"sync"

	"ristretto/classfile"
	"ristretto/globals"
	"ristretto/util"
)

// vtype is the verifier's working representation of one verification
// type. Object types carry the resolved class name (not a constant-pool
// index) so that states from different methods and declared StackMapTable
// frames compare and join uniformly.
type vtype struct {
	tag       classfile.VerificationTypeTag
	className string // tag == VTObject: class name or array descriptor
	offset    uint16 // tag == VTUninitialized
}

var (
	vTop    = vtype{tag: classfile.VTTop}
	vInt    = vtype{tag: classfile.VTInteger}
	vFloat  = vtype{tag: classfile.VTFloat}
	vLong   = vtype{tag: classfile.VTLong}
	vDouble = vtype{tag: classfile.VTDouble}
	vNull   = vtype{tag: classfile.VTNull}
)

func vObject(name string) vtype { return vtype{tag: classfile.VTObject, className: name} }

func (v vtype) isReference() bool {
	switch v.tag {
	case classfile.VTObject, classfile.VTNull, classfile.VTUninitializedThis, classfile.VTUninitialized:
		return true
	default:
		return false
	}
}

func (v vtype) isCategory2() bool {
	return v.tag == classfile.VTLong || v.tag == classfile.VTDouble
}

func (v vtype) slots() int {
	if v.isCategory2() {
		return 2
	}
	return 1
}

func (v vtype) String() string {
	switch v.tag {
	case classfile.VTTop:
		return "top"
	case classfile.VTInteger:
		return "int"
	case classfile.VTFloat:
		return "float"
	case classfile.VTDouble:
		return "double"
	case classfile.VTLong:
		return "long"
	case classfile.VTNull:
		return "null"
	case classfile.VTUninitializedThis:
		return "uninitializedThis"
	case classfile.VTObject:
		return "object(" + v.className + ")"
	case classfile.VTUninitialized:
		return fmt.Sprintf("uninitialized(%d)", v.offset)
	default:
		return fmt.Sprintf("vtype(%d)", v.tag)
	}
}

// The common-supertype resolver is installed by the class loader once a
// loader exists to walk the type graph; until then object joins degrade
// to java/lang/Object, the universal reference supertype.
var (
	resolverMutex     sync.RWMutex
	supertypeResolver func(a, b string) (string, bool)
)

// SetSupertypeResolver installs the loader-backed nearest-common-
// supertype function the object-type join consults. Process-wide, set
// once before interpretation begins.
func SetSupertypeResolver(fn func(a, b string) (string, bool)) {
	resolverMutex.Lock()
	supertypeResolver = fn
	resolverMutex.Unlock()
}

// JoinObjectNames returns the nearest common supertype of two class
// names via the installed resolver, falling back to java/lang/Object
// when no resolver is installed or resolution fails.
func JoinObjectNames(a, b string) string {
	if a == b {
		return a
	}
	resolverMutex.RLock()
	fn := supertypeResolver
	resolverMutex.RUnlock()
	if fn != nil {
		if super, ok := fn(a, b); ok {
			return super
		}
	}
	return "java/lang/Object"
}

// assignableToObject reports whether actual can be stored where an
// object of wantName is expected. With no resolver installed the check
// is permissive for unrelated names, since subtyping cannot be proved
// either way without a loader.
func assignableToObject(actual vtype, wantName string) bool {
	if wantName == "java/lang/Object" {
		return actual.isReference()
	}
	switch actual.tag {
	case classfile.VTNull:
		return true
	case classfile.VTObject:
		if actual.className == wantName {
			return true
		}
		resolverMutex.RLock()
		fn := supertypeResolver
		resolverMutex.RUnlock()
		if fn == nil {
			return true
		}
		return JoinObjectNames(actual.className, wantName) == wantName
	case classfile.VTUninitializedThis, classfile.VTUninitialized:
		return true
	default:
		return false
	}
}

// joinVtypes is the merge-point type join: Top is the top
// element; two reference types join to their nearest common supertype;
// unequal primitives join to Top.
func joinVtypes(a, b vtype) vtype {
	if a == b {
		return a
	}
	if a.tag == classfile.VTTop || b.tag == classfile.VTTop {
		return vTop
	}
	if a.tag == classfile.VTNull && b.isReference() {
		return b
	}
	if b.tag == classfile.VTNull && a.isReference() {
		return a
	}
	if a.tag == classfile.VTObject && b.tag == classfile.VTObject {
		return vObject(JoinObjectNames(a.className, b.className))
	}
	return vTop
}

// frameState is the verifier's notion of a program point: the declared
// or inferred type of every local slot and every operand-stack value.
type frameState struct {
	locals []vtype
	stack  []vtype
}

func (f frameState) clone() frameState {
	locals := make([]vtype, len(f.locals))
	copy(locals, f.locals)
	stack := make([]vtype, len(f.stack))
	copy(stack, f.stack)
	return frameState{locals: locals, stack: stack}
}

func (f frameState) stackSlots() int {
	n := 0
	for _, v := range f.stack {
		n += v.slots()
	}
	return n
}

func (f *frameState) push(maxStack int, v vtype) error {
	if f.stackSlots()+v.slots() > maxStack {
		return verifyErr("verifier", "operand stack overflow: pushing %s exceeds max_stack %d", v, maxStack)
	}
	f.stack = append(f.stack, v)
	return nil
}

func (f *frameState) pop() (vtype, error) {
	if len(f.stack) == 0 {
		return vtype{}, verifyErr("verifier", "operand stack underflow")
	}
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack = f.stack[:n]
	return v, nil
}

func (f *frameState) popTag(want vtype) error {
	v, err := f.pop()
	if err != nil {
		return err
	}
	if v.tag != want.tag {
		return verifyErr("verifier", "expected %s on the operand stack, found %s", want, v)
	}
	return nil
}

func (f *frameState) popReference() (vtype, error) {
	v, err := f.pop()
	if err != nil {
		return vtype{}, err
	}
	if !v.isReference() {
		return vtype{}, verifyErr("verifier", "expected a reference on the operand stack, found %s", v)
	}
	return v, nil
}

// merge joins two frame states at a control-flow confluence point,
// slot-by-slot. Differing stack depths cannot merge.
func merge(a, b frameState) (frameState, bool) {
	if len(a.stack) != len(b.stack) {
		return frameState{}, false
	}
	out := frameState{
		locals: make([]vtype, maxInt(len(a.locals), len(b.locals))),
		stack:  make([]vtype, len(a.stack)),
	}
	for i := range out.locals {
		av, bv := vTop, vTop
		if i < len(a.locals) {
			av = a.locals[i]
		}
		if i < len(b.locals) {
			bv = b.locals[i]
		}
		out.locals[i] = joinVtypes(av, bv)
	}
	for i := range out.stack {
		out.stack[i] = joinVtypes(a.stack[i], b.stack[i])
	}
	return out, true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func statesEqual(a, b frameState) bool {
	if len(a.locals) != len(b.locals) || len(a.stack) != len(b.stack) {
		return false
	}
	for i := range a.locals {
		if a.locals[i] != b.locals[i] {
			return false
		}
	}
	for i := range a.stack {
		if a.stack[i] != b.stack[i] {
			return false
		}
	}
	return true
}

// vtypeOfDescriptor maps a field/return descriptor to its verification
// type. Array descriptors stay whole in the object name so component
// lookups on aaload can recover them.
func vtypeOfDescriptor(d string) vtype {
	if d == "" {
		return vTop
	}
	switch d[0] {
	case 'Z', 'B', 'C', 'S', 'I':
		return vInt
	case 'J':
		return vLong
	case 'F':
		return vFloat
	case 'D':
		return vDouble
	case 'L':
		return vObject(d[1 : len(d)-1])
	case '[':
		return vObject(d)
	default:
		return vTop
	}
}

// componentType recovers the element type of an array-typed vtype, or
// java/lang/Object when the array type was lost to a merge.
func componentType(array vtype) vtype {
	if array.tag == classfile.VTObject && len(array.className) > 1 && array.className[0] == '[' {
		return vtypeOfDescriptor(array.className[1:])
	}
	return vObject("java/lang/Object")
}

// entryState seeds the method-entry frame: the receiver (for instance
// methods) and parameters occupy the leading local slots, everything
// else starts as Top.
func entryState(cf *classfile.ClassFile, method *classfile.MethodInfo) frameState {
	st := frameState{locals: make([]vtype, method.Code.MaxLocals)}
	for i := range st.locals {
		st.locals[i] = vTop
	}

	slot := 0
	if method.AccessFlags&classfile.AccStatic == 0 && slot < len(st.locals) {
		thisName, err := cf.ThisClassName()
		if err != nil || thisName == "" {
			thisName = "java/lang/Object"
		}
		st.locals[slot] = vObject(thisName)
		slot++
	}

	descriptor := ""
	if method.DescriptorIndex != 0 {
		if entry, err := cf.ConstantPool.Get(method.DescriptorIndex); err == nil {
			descriptor, _ = entry.AsString()
		}
	}
	for _, p := range util.ParseIncomingParamsFromMethTypeString(descriptor) {
		v := vtypeOfDescriptor(p)
		if slot >= len(st.locals) {
			break
		}
		st.locals[slot] = v
		slot++
		if v.isCategory2() && slot < len(st.locals) {
			st.locals[slot] = vTop
			slot++
		}
	}
	return st
}

// VerifyMethod runs the typed dataflow pass over method's bytecode: when
// the class carries a StackMapTable (and the fallback mode doesn't force
// inference), the simulation is checked against the declared frames at
// every block entry; otherwise the verifier iterates its own inference
// to a fixed point, bounded by g.MaxInferenceIterations.
func VerifyMethod(cf *classfile.ClassFile, method *classfile.MethodInfo, g *globals.Globals) error {
	if method.Code == nil {
		return nil // abstract or native: nothing to verify
	}
	if err := VerifyCode(method.Code, cf.ConstantPool); err != nil {
		return err
	}

	requireStackMap := cf.MajorVersion >= uint16(g.StackmapRequiredVersion)
	frames := method.Code.FindStackMapTable()

	if g.Fallback == globals.AlwaysInference {
		return verifyByInference(cf, method, g.MaxInferenceIterations)
	}
	if len(frames) > 0 {
		return verifyWithStackMap(cf, method, frames)
	}
	if requireStackMap && g.Fallback == globals.FallbackStrict {
		return verifyErr("StackMapTable", "method requires a StackMapTable (major_version %d >= %d) but none is present", cf.MajorVersion, g.StackmapRequiredVersion)
	}
	return verifyByInference(cf, method, g.MaxInferenceIterations)
}

// declaredFrames converts the StackMapTable's delta-encoded frames to a
// map from bytecode offset to the declared frame state, with Object
// entries resolved from constant-pool indices to class names.
func declaredFrames(cf *classfile.ClassFile, code *classfile.CodeAttribute, frames []classfile.StackMapFrame) (map[uint16]frameState, error) {
	out := make(map[uint16]frameState, len(frames))
	pc := uint16(0)
	for i, frame := range frames {
		pc += frame.OffsetDelta
		if i > 0 {
			pc++ // frames after the first measure offset_delta from pc+1 of the prior frame
		}
		if len(frame.Stack) > int(code.MaxStack) {
			return nil, verifyErr("StackMapTable", "frame %d declares %d stack slots, exceeding max_stack %d", i, len(frame.Stack), code.MaxStack)
		}
		if len(frame.Locals) > int(code.MaxLocals) {
			return nil, verifyErr("StackMapTable", "frame %d declares %d locals, exceeding max_locals %d", i, len(frame.Locals), code.MaxLocals)
		}
		st := frameState{locals: make([]vtype, code.MaxLocals)}
		for j := range st.locals {
			st.locals[j] = vTop
		}
		for j, vt := range frame.Locals {
			v, err := vtypeFromClassfile(cf, vt)
			if err != nil {
				return nil, verifyErr("StackMapTable", "frame %d local %d: %v", i, j, err)
			}
			st.locals[j] = v
		}
		for _, vt := range frame.Stack {
			v, err := vtypeFromClassfile(cf, vt)
			if err != nil {
				return nil, verifyErr("StackMapTable", "frame %d stack entry: %v", i, err)
			}
			st.stack = append(st.stack, v)
		}
		out[pc] = st
	}
	return out, nil
}

func vtypeFromClassfile(cf *classfile.ClassFile, vt classfile.VerificationType) (vtype, error) {
	if vt.Tag != classfile.VTObject {
		return vtype{tag: vt.Tag, offset: vt.Offset}, nil
	}
	name, err := cf.ConstantPool.ClassName(vt.CPoolIndex)
	if err != nil {
		return vtype{}, err
	}
	return vObject(name), nil
}

// checkCompatible verifies that a simulated state may flow into a
// declared frame: equal stack depth, and every simulated slot assignable
// to the declared slot (Top in the declared frame accepts anything).
func checkCompatible(sim, declared frameState, pc uint16) error {
	if len(sim.stack) != len(declared.stack) {
		return verifyErr("verifier", "stack depth %d at offset %d does not match the declared depth %d", len(sim.stack), pc, len(declared.stack))
	}
	for i := range declared.stack {
		if err := checkSlotAssignable(sim.stack[i], declared.stack[i], "stack", i, pc); err != nil {
			return err
		}
	}
	for i := range declared.locals {
		var sv vtype = vTop
		if i < len(sim.locals) {
			sv = sim.locals[i]
		}
		if err := checkSlotAssignable(sv, declared.locals[i], "local", i, pc); err != nil {
			return err
		}
	}
	return nil
}

func checkSlotAssignable(sim, declared vtype, kind string, i int, pc uint16) error {
	if declared.tag == classfile.VTTop || sim == declared {
		return nil
	}
	if declared.tag == classfile.VTObject && assignableToObject(sim, declared.className) {
		return nil
	}
	// The simulation models `new` results as plain object types rather
	// than tracking the uninitialized-until-<init> discipline, so any
	// reference satisfies a declared uninitialized slot.
	if (declared.tag == classfile.VTUninitialized || declared.tag == classfile.VTUninitializedThis) && sim.isReference() {
		return nil
	}
	return verifyErr("verifier", "%s %d at offset %d holds %s, incompatible with the declared %s", kind, i, pc, sim, declared)
}

// verifyWithStackMap replays the method's instructions over a typed
// frame, seeding and re-checking the state against the declared frame at
// every StackMapTable offset and at every branch target that carries
// one.
func verifyWithStackMap(cf *classfile.ClassFile, method *classfile.MethodInfo, frames []classfile.StackMapFrame) error {
	code := method.Code
	boundaries, err := instructionBoundaries(code.Code)
	if err != nil {
		return err
	}
	declared, err := declaredFrames(cf, code, frames)
	if err != nil {
		return err
	}
	for pc := range declared {
		if !boundaries[pc] {
			return verifyErr("StackMapTable", "a frame targets offset %d, which is not an instruction boundary", pc)
		}
	}

	state := entryState(cf, method)
	reachable := true
	pc := 0
	for pc < len(code.Code) {
		if d, ok := declared[uint16(pc)]; ok {
			if reachable {
				if err := checkCompatible(state, d, uint16(pc)); err != nil {
					return err
				}
			}
			state = d.clone()
			reachable = true
		}
		n, err := opcodeLength(code.Code, pc)
		if err != nil {
			return err
		}
		if !reachable {
			pc += n
			continue
		}
		if err := simulateInstr(&state, cf, code, pc); err != nil {
			return err
		}
		next, _ := successors(code, uint16(pc))
		fallsThrough := false
		for _, npc := range next {
			if int(npc) == pc+n {
				fallsThrough = true
				continue
			}
			if d, ok := declared[npc]; ok {
				if err := checkCompatible(state, d, npc); err != nil {
					return err
				}
			}
		}
		reachable = fallsThrough
		pc += n
	}
	return nil
}

// verifyByInference performs the bounded typed-inference fallback: a
// worklist dataflow from the method-entry frame, simulating every
// instruction's stack effect, merging states at confluence points, and
// iterating to a fixed point or failing once maxIterations instructions
// have been processed.
func verifyByInference(cf *classfile.ClassFile, method *classfile.MethodInfo, maxIterations int) error {
	if maxIterations <= 0 {
		maxIterations = 1000
	}
	code := method.Code
	boundaries, err := instructionBoundaries(code.Code)
	if err != nil {
		return err
	}

	in := map[uint16]frameState{0: entryState(cf, method)}
	worklist := []uint16{0}

	iterations := 0
	for len(worklist) > 0 {
		iterations++
		if iterations > maxIterations {
			return verifyErr("verifier", "type inference did not converge within %d iterations", maxIterations)
		}
		pc := worklist[0]
		worklist = worklist[1:]

		if int(pc) >= len(code.Code) {
			return verifyErr("verifier", "control flows past the end of the code array to offset %d", pc)
		}
		if !boundaries[pc] {
			return verifyErr("verifier", "control flows to offset %d, which is not an instruction boundary", pc)
		}

		state := in[pc].clone()
		if err := simulateInstr(&state, cf, code, int(pc)); err != nil {
			return err
		}

		propagate := func(target uint16, st frameState) error {
			if int(target) > len(code.Code) {
				return verifyErr("verifier", "branch at pc %d targets an out-of-range offset %d", pc, target)
			}
			if prior, ok := in[target]; ok {
				joined, ok := merge(prior, st)
				if !ok {
					return verifyErr("verifier", "incompatible stack depths merge at pc %d", target)
				}
				if statesEqual(joined, prior) {
					return nil
				}
				in[target] = joined
			} else {
				in[target] = st.clone()
			}
			worklist = append(worklist, target)
			return nil
		}

		next, ok := successors(code, pc)
		if !ok {
			continue
		}
		for _, npc := range next {
			if err := propagate(npc, state); err != nil {
				return err
			}
		}

		// An instruction inside a protected range can transfer to its
		// handler at any point; the handler sees the instruction's locals
		// and a stack holding only the thrown exception.
		for _, et := range code.ExceptionTable {
			if pc < et.StartPC || pc >= et.EndPC {
				continue
			}
			catch := vObject("java/lang/Throwable")
			if et.CatchType != 0 {
				if name, err := cf.ConstantPool.ClassName(et.CatchType); err == nil {
					catch = vObject(name)
				}
			}
			handlerState := frameState{locals: in[pc].clone().locals, stack: []vtype{catch}}
			if err := propagate(et.HandlerPC, handlerState); err != nil {
				return err
			}
		}
	}
	return nil
}

// VerifyClass runs both the structural layer and, for every concrete
// method, the code and dataflow layers. trusted classes (the bootstrap class loader's own classes)
// may skip verification per g.ShouldVerify.
func VerifyClass(cf *classfile.ClassFile, trusted bool, g *globals.Globals) error {
	if !g.ShouldVerify(trusted) {
		return nil
	}
	if err := VerifyStructure(cf); err != nil {
		return err
	}
	for i := range cf.Methods {
		if err := VerifyMethod(cf, &cf.Methods[i], g); err != nil {
			return err
		}
	}
	return nil
}
