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
	"ristretto/globals"
)

// methodWithCode builds a concrete method whose descriptor is interned
// into cf's constant pool, so entry-frame seeding sees the declared
// parameter types.
func methodWithCode(cf *classfile.ClassFile, descriptor string, accessFlags uint16, code []byte, maxStack, maxLocals uint16) *classfile.MethodInfo {
	return &classfile.MethodInfo{
		AccessFlags:     accessFlags,
		DescriptorIndex: cf.ConstantPool.AddUtf8(descriptor),
		Code:            &classfile.CodeAttribute{Code: code, MaxStack: maxStack, MaxLocals: maxLocals},
	}
}

func inferenceGlobals() *globals.Globals {
	g := globals.InitGlobals("test")
	g.Fallback = globals.FallbackToInference
	return g
}

func TestVerifyMethodAbstractMethodSkipped(t *testing.T) {
	m := &classfile.MethodInfo{Code: nil}
	cf := classFileWithAttrs(nil, 0)
	g := globals.InitGlobals("test")
	if err := VerifyMethod(cf, m, g); err != nil {
		t.Fatalf("unexpected error for abstract method: %v", err)
	}
}

// The compare-and-branch shape, exercising the typed inference
// fallback's convergence over a forward conditional branch:
// iload_0, iload_1, if_icmplt(+7), iconst_0, goto(+4), iconst_1, ireturn
func TestVerifyMethodInferenceConverges(t *testing.T) {
	code := []byte{
		0x1A,             // iload_0
		0x1B,             // iload_1
		0xA1, 0x00, 0x07, // if_icmplt: pc=2, +7 -> pc 9 (iconst_1)
		0x03,             // iconst_0, pc=5
		0xA7, 0x00, 0x04, // goto: pc=6, +4 -> pc 10 (ireturn)
		0x04,             // iconst_1, pc=9
		0xAC,             // ireturn, pc=10
	}
	cf := classFileWithAttrs(nil, 0)
	m := methodWithCode(cf, "(II)I", classfile.AccStatic, code, 2, 2)

	if err := VerifyMethod(cf, m, inferenceGlobals()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// An int-family opcode applied to floats must be rejected by the typed
// simulation, not waved through.
func TestVerifyMethodRejectsOperandTypeMismatch(t *testing.T) {
	code := []byte{
		0x0C, // fconst_1
		0x0C, // fconst_1
		0x60, // iadd: both operands are floats
		0xAC, // ireturn
	}
	cf := classFileWithAttrs(nil, 0)
	m := methodWithCode(cf, "()I", classfile.AccStatic, code, 2, 0)

	err := VerifyMethod(cf, m, inferenceGlobals())
	if err == nil {
		t.Fatal("expected a type error for iadd over float operands")
	}
	if !strings.Contains(err.Error(), "int") {
		t.Errorf("error should name the expected operand type: %v", err)
	}
}

func TestVerifyMethodRejectsLoadOfWrongLocalType(t *testing.T) {
	code := []byte{
		0x1A, // iload_0: local 0 is declared float
		0xAC, // ireturn
	}
	cf := classFileWithAttrs(nil, 0)
	m := methodWithCode(cf, "(F)I", classfile.AccStatic, code, 1, 1)

	if err := VerifyMethod(cf, m, inferenceGlobals()); err == nil {
		t.Fatal("expected a type error for iload of a float local")
	}
}

func TestVerifyMethodRejectsStackUnderflow(t *testing.T) {
	code := []byte{
		0x60, // iadd on an empty stack
		0xB1, // return
	}
	cf := classFileWithAttrs(nil, 0)
	m := methodWithCode(cf, "()V", classfile.AccStatic, code, 2, 0)

	if err := VerifyMethod(cf, m, inferenceGlobals()); err == nil {
		t.Fatal("expected an operand stack underflow error")
	}
}

func TestVerifyMethodRejectsOperandStackOverflow(t *testing.T) {
	code := []byte{
		0x03, // iconst_0
		0x03, // iconst_0: exceeds max_stack 1
		0xB1, // return
	}
	cf := classFileWithAttrs(nil, 0)
	m := methodWithCode(cf, "()V", classfile.AccStatic, code, 1, 0)

	if err := VerifyMethod(cf, m, inferenceGlobals()); err == nil {
		t.Fatal("expected an operand stack overflow error")
	}
}

func TestVerifyMethodRejectsReturnTypeMismatch(t *testing.T) {
	code := []byte{
		0x0B, // fconst_0
		0xAC, // ireturn of a float
	}
	cf := classFileWithAttrs(nil, 0)
	m := methodWithCode(cf, "()I", classfile.AccStatic, code, 1, 0)

	if err := VerifyMethod(cf, m, inferenceGlobals()); err == nil {
		t.Fatal("expected a type error for ireturn of a float")
	}
}

func TestVerifyMethodRejectsOutOfRangeBranch(t *testing.T) {
	code := []byte{
		0xA7, 0x7F, 0xFF, // goto way out of range
	}
	cf := classFileWithAttrs(nil, 0)
	m := methodWithCode(cf, "()V", classfile.AccStatic, code, 1, 0)

	if err := VerifyMethod(cf, m, inferenceGlobals()); err == nil {
		t.Fatal("expected an error for an out-of-range goto target")
	}
}

func TestVerifyMethodStrictFallbackRequiresStackMap(t *testing.T) {
	code := []byte{0x00, 0xB1} // nop, return
	cf := classFileWithAttrs(nil, 0)
	cf.MajorVersion = 61
	m := methodWithCode(cf, "()V", classfile.AccStatic, code, 0, 0)
	g := globals.InitGlobals("test")
	g.Fallback = globals.FallbackStrict
	g.StackmapRequiredVersion = 50

	err := VerifyMethod(cf, m, g)
	if err == nil {
		t.Fatal("expected an error: class requires a StackMapTable under strict fallback but has none")
	}
}

func stackMapMethod(cf *classfile.ClassFile, descriptor string, code []byte, maxStack, maxLocals uint16, frames []classfile.StackMapFrame) *classfile.MethodInfo {
	m := methodWithCode(cf, descriptor, classfile.AccStatic, code, maxStack, maxLocals)
	m.Code.Attributes = append(m.Code.Attributes, classfile.Attribute{
		Name:           classfile.AttrStackMapTable,
		StackMapFrames: frames,
	})
	return m
}

// A declared frame whose stack disagrees with the simulated state at the
// branch target must fail verification.
func TestVerifyWithStackMapRejectsIncompatibleDeclaredFrame(t *testing.T) {
	code := []byte{
		0x0B,             // fconst_0, pc=0: the simulated stack holds a float
		0xA7, 0x00, 0x03, // goto: pc=1, +3 -> pc 4
		0xAC, // ireturn, pc=4
	}
	frames := []classfile.StackMapFrame{
		{OffsetDelta: 4, Stack: []classfile.VerificationType{{Tag: classfile.VTInteger}}},
	}
	cf := classFileWithAttrs(nil, 0)
	cf.MajorVersion = 61
	m := stackMapMethod(cf, "()I", code, 1, 0, frames)
	g := globals.InitGlobals("test")

	err := VerifyMethod(cf, m, g)
	if err == nil {
		t.Fatal("expected a mismatch between the simulated float and the declared int")
	}
	if !strings.Contains(err.Error(), "incompatible") {
		t.Errorf("error should report the incompatibility: %v", err)
	}
}

func TestVerifyWithStackMapAcceptsMatchingFrames(t *testing.T) {
	code := []byte{
		0x0B,             // fconst_0, pc=0
		0xA7, 0x00, 0x03, // goto: pc=1, +3 -> pc 4
		0xAE, // freturn, pc=4
	}
	frames := []classfile.StackMapFrame{
		{OffsetDelta: 4, Stack: []classfile.VerificationType{{Tag: classfile.VTFloat}}},
	}
	cf := classFileWithAttrs(nil, 0)
	cf.MajorVersion = 61
	m := stackMapMethod(cf, "()F", code, 1, 0, frames)
	g := globals.InitGlobals("test")

	if err := VerifyMethod(cf, m, g); err != nil {
		t.Fatalf("unexpected error for a well-typed method: %v", err)
	}
}

// Merging two different object types at a confluence point consults the
// installed resolver for the nearest common supertype.
func TestJoinObjectNamesUsesResolver(t *testing.T) {
	SetSupertypeResolver(func(a, b string) (string, bool) {
		if (a == "com/example/A" && b == "com/example/B") || (a == "com/example/B" && b == "com/example/A") {
			return "com/example/Parent", true
		}
		return "", false
	})
	defer SetSupertypeResolver(nil)

	if got := JoinObjectNames("com/example/A", "com/example/B"); got != "com/example/Parent" {
		t.Errorf("join = %q, want com/example/Parent", got)
	}
	if got := JoinObjectNames("x/Y", "x/Z"); got != "java/lang/Object" {
		t.Errorf("failed resolution must fall back to java/lang/Object, got %q", got)
	}
}

func TestVerifyClassSkipsTrustedClassesWhenConfigured(t *testing.T) {
	cf := classFileWithAttrs([]classfile.Attribute{
		{Name: classfile.AttrPermittedSubclasses, PermittedSubclasses: []uint16{2}},
	}, classfile.AccFinal) // would fail structural verification if run

	g := globals.InitGlobals("test")
	g.VerifyMode = globals.VerifyRemote

	if err := VerifyClass(cf, true, g); err != nil {
		t.Fatalf("trusted class should skip verification under VerifyRemote, got: %v", err)
	}
	if err := VerifyClass(cf, false, g); err == nil {
		t.Fatal("untrusted class should still be verified under VerifyRemote")
	}
}
