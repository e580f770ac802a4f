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
)

// classFileWithAttrs builds a pool whose Class constants for Outer, Inner1
// and Inner2 sit at indices 2, 4 and 6, each preceded by its Utf8 name.
func classFileWithAttrs(attrs []classfile.Attribute, accessFlags uint16) *classfile.ClassFile {
	cp := classfile.NewConstantPool()
	cp.AddClass("com/example/Outer")
	cp.AddClass("com/example/Inner1")
	cp.AddClass("com/example/Inner2")
	return &classfile.ClassFile{
		MajorVersion: 61,
		ConstantPool: cp,
		AccessFlags:  accessFlags,
		Attributes:   attrs,
	}
}

// scenario 7: a class with both PermittedSubclasses and the final flag
// must be rejected, with an error mentioning "cannot be final".
func TestVerifyStructureRejectsSealedFinalClass(t *testing.T) {
	cf := classFileWithAttrs([]classfile.Attribute{
		{Name: classfile.AttrPermittedSubclasses, PermittedSubclasses: []uint16{2}},
	}, classfile.AccFinal)

	err := VerifyStructure(cf)
	if err == nil {
		t.Fatal("expected an error for a sealed class that is also final")
	}
	if !strings.Contains(err.Error(), "cannot be final") {
		t.Fatalf("error %q does not mention \"cannot be final\"", err.Error())
	}
}

func TestVerifyStructureAllowsSealedNonFinalClass(t *testing.T) {
	cf := classFileWithAttrs([]classfile.Attribute{
		{Name: classfile.AttrPermittedSubclasses, PermittedSubclasses: []uint16{4, 6}},
	}, 0)

	if err := VerifyStructure(cf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifyStructureRejectsPermittedSubclassesDuplicate(t *testing.T) {
	cf := classFileWithAttrs([]classfile.Attribute{
		{Name: classfile.AttrPermittedSubclasses, PermittedSubclasses: []uint16{2, 2}},
	}, 0)

	err := VerifyStructure(cf)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected a duplicate-index error, got %v", err)
	}
}

// scenario 8: a class carrying both NestHost and NestMembers is rejected
// with an error mentioning "both NestHost and NestMembers".
func TestVerifyStructureRejectsNestHostAndMembersTogether(t *testing.T) {
	cf := classFileWithAttrs([]classfile.Attribute{
		{Name: classfile.AttrNestHost, NestHostIndex: 2},
		{Name: classfile.AttrNestMembers, NestMembers: []uint16{4, 6}},
	}, 0)

	err := VerifyStructure(cf)
	if err == nil {
		t.Fatal("expected an error for a class with both NestHost and NestMembers")
	}
	if !strings.Contains(err.Error(), "both NestHost and NestMembers") {
		t.Fatalf("error %q does not mention \"both NestHost and NestMembers\"", err.Error())
	}
}

func TestVerifyStructureRejectsNestHostAndMembersTogetherReverseOrder(t *testing.T) {
	cf := classFileWithAttrs([]classfile.Attribute{
		{Name: classfile.AttrNestMembers, NestMembers: []uint16{4, 6}},
		{Name: classfile.AttrNestHost, NestHostIndex: 2},
	}, 0)

	err := VerifyStructure(cf)
	if err == nil || !strings.Contains(err.Error(), "both NestHost and NestMembers") {
		t.Fatalf("expected a mutual-exclusivity error, got %v", err)
	}
}

func TestVerifyStructureAllowsNestHostAlone(t *testing.T) {
	cf := classFileWithAttrs([]classfile.Attribute{
		{Name: classfile.AttrNestHost, NestHostIndex: 2},
	}, 0)
	if err := VerifyStructure(cf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifyStructureRejectsNestMembersDuplicate(t *testing.T) {
	cf := classFileWithAttrs([]classfile.Attribute{
		{Name: classfile.AttrNestMembers, NestMembers: []uint16{2, 2}},
	}, 0)

	err := VerifyStructure(cf)
	if err == nil || !strings.Contains(err.Error(), "Duplicate class index") && !strings.Contains(err.Error(), "duplicate class index") {
		t.Fatalf("expected a duplicate-index error, got %v", err)
	}
}

func TestVerifyStructureRejectsNestMembersWrongIndexType(t *testing.T) {
	cp := classfile.NewConstantPool()
	utf8 := cp.AddUtf8("NotAClass")
	cf := &classfile.ClassFile{
		MajorVersion: 61,
		ConstantPool: cp,
		Attributes: []classfile.Attribute{
			{Name: classfile.AttrNestMembers, NestMembers: []uint16{utf8}},
		},
	}
	if err := VerifyStructure(cf); err == nil {
		t.Fatal("expected an error for a NestMembers entry that isn't a CONSTANT_Class_info")
	}
}

func TestVerifyStructureNoAttributesIsValid(t *testing.T) {
	cf := classFileWithAttrs(nil, 0)
	if err := VerifyStructure(cf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
