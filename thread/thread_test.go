/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package thread

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"ristretto/classfile"
	"ristretto/classloader"
	"ristretto/frames"
	"ristretto/globals"
	"ristretto/interpreter"
)

func buildAdder(t *testing.T) (*interpreter.Machine, *classloader.LoadedClass) {
	t.Helper()
	g := globals.InitGlobals("test")
	g.VerifyMode = globals.VerifyRemote

	cl := classloader.NewClassloader("test", nil)

	objCP := classfile.NewConstantPool()
	objIdx := objCP.AddClass("java/lang/Object")
	objCF := &classfile.ClassFile{
		MajorVersion: 61,
		ConstantPool: objCP,
		AccessFlags:  classfile.AccPublic | classfile.AccSuper,
		ThisClass:    objIdx,
	}
	if _, err := cl.LoadClassFromBytes(classfile.Encode(objCF), true); err != nil {
		t.Fatalf("loading java/lang/Object: %v", err)
	}

	cp := classfile.NewConstantPool()
	thisIdx := cp.AddClass("Adder")
	superIdx := cp.AddClass("java/lang/Object")
	var payload bytes.Buffer
	w2 := func(v uint16) {
		var x [2]byte
		binary.BigEndian.PutUint16(x[:], v)
		payload.Write(x[:])
	}
	code := []byte{0x1A, 0x1B, 0x60, 0xAC} // iload_0, iload_1, iadd, ireturn
	w2(2)                                  // max_stack
	w2(2)                                  // max_locals
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(code)))
	payload.Write(l[:])
	payload.Write(code)
	w2(0) // exception table
	w2(0) // attributes
	cf := &classfile.ClassFile{
		MajorVersion: 61,
		ConstantPool: cp,
		AccessFlags:  classfile.AccPublic | classfile.AccSuper,
		ThisClass:    thisIdx,
		SuperClass:   superIdx,
		Methods: []classfile.MethodInfo{{
			AccessFlags:     classfile.AccPublic | classfile.AccStatic,
			NameIndex:       cp.AddUtf8("add"),
			DescriptorIndex: cp.AddUtf8("(II)I"),
			Attributes: []classfile.Attribute{{
				NameIndex: cp.AddUtf8("Code"),
				Raw:       payload.Bytes(),
			}},
		}},
	}
	lc, err := cl.LoadClassFromBytes(classfile.Encode(cf), true)
	if err != nil {
		t.Fatalf("loading Adder: %v", err)
	}
	return interpreter.NewMachine(cl), lc
}

func TestCreateThreadRegistersInTable(t *testing.T) {
	m, _ := buildAdder(t)
	th := CreateThread(m)
	defer th.Exit()

	if got, ok := GetThread(th.ID); !ok || got != th {
		t.Fatal("created thread must be findable by ID")
	}
	before := ThreadCount()
	th2 := CreateThread(m)
	if ThreadCount() != before+1 {
		t.Error("thread count must grow on create")
	}
	th2.Exit()
	if ThreadCount() != before {
		t.Error("thread count must shrink on exit")
	}
}

func TestRunMethodOnThread(t *testing.T) {
	m, lc := buildAdder(t)
	th := CreateThread(m)
	defer th.Exit()

	method, ok := lc.Method("add", "(II)I")
	if !ok {
		t.Fatal("add method not found")
	}
	ret, err := th.RunMethod(lc, method, []frames.Value{frames.Int(19), frames.Int(23)})
	if err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	if ret == nil || ret.I != 42 {
		t.Errorf("add(19,23) = %+v, want Int(42)", ret)
	}
	if th.PendingException != nil {
		t.Error("no exception expected")
	}
}

func TestStartRunsAsynchronously(t *testing.T) {
	m, lc := buildAdder(t)
	th := CreateThread(m)
	defer th.Exit()

	method, _ := lc.Method("add", "(II)I")
	done := th.Start(lc, method, []frames.Value{frames.Int(2), frames.Int(3)})
	select {
	case res := <-done:
		if res.Err != nil {
			t.Fatalf("async run: %v", res.Err)
		}
		if res.Value == nil || res.Value.I != 5 {
			t.Errorf("async add(2,3) = %+v, want Int(5)", res.Value)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("async invocation did not complete")
	}
}

func TestInterruptFlagTestAndClear(t *testing.T) {
	m, _ := buildAdder(t)
	th := CreateThread(m)
	defer th.Exit()

	if th.IsInterrupted() {
		t.Fatal("fresh thread must not be interrupted")
	}
	th.Interrupt()
	if !th.IsInterrupted() {
		t.Fatal("Interrupt must set the flag")
	}
	if !th.Interrupted() {
		t.Fatal("Interrupted must observe the flag")
	}
	if th.IsInterrupted() {
		t.Error("Interrupted must clear the flag")
	}
}
