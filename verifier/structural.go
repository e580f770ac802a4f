/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package verifier implements the bytecode verifier: a
// structural layer, a code layer, and a typed dataflow pass that either
// trusts a StackMapTable or falls back to bounded type inference.
package verifier

import (
	"fmt"

	"ristretto/classfile"
)

// VerifyError reports a verification failure with the JVMS-style context
// label every format-checking error carries.
type VerifyError struct {
	Context string
	Message string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Context, e.Message)
}

func verifyErr(context, format string, args ...interface{}) error {
	return &VerifyError{Context: context, Message: fmt.Sprintf(format, args...)}
}

// VerifyStructure runs the structural checks: per-class
// invariants that don't require looking at bytecode at all.
func VerifyStructure(cf *classfile.ClassFile) error {
	if err := verifySealedNotFinal(cf); err != nil {
		return err
	}
	if err := verifyNestAttributes(cf); err != nil {
		return err
	}
	return nil
}

// verifySealedNotFinal rejects a class carrying both PermittedSubclasses
// and the final access flag, grounded on the Rust verifier's sealed-class
// rule (JVMS §4.7.31): a sealed class cannot also be final, since nothing
// could ever extend it.
func verifySealedNotFinal(cf *classfile.ClassFile) error {
	seen := false
	for _, attr := range cf.Attributes {
		if attr.Name != classfile.AttrPermittedSubclasses {
			continue
		}
		if seen {
			return verifyErr("PermittedSubclasses", "multiple PermittedSubclasses attributes are not allowed")
		}
		seen = true

		if cf.IsFinal() {
			return verifyErr("PermittedSubclasses", "a sealed class (with PermittedSubclasses) cannot be final")
		}

		seenIdx := make(map[uint16]bool, len(attr.PermittedSubclasses))
		for _, idx := range attr.PermittedSubclasses {
			if err := verifyClassIndex(cf, idx); err != nil {
				return err
			}
			if seenIdx[idx] {
				return verifyErr("PermittedSubclasses", "duplicate class index %d in PermittedSubclasses", idx)
			}
			seenIdx[idx] = true
		}
	}
	return nil
}

// verifyNestAttributes rejects a class carrying both NestHost and
// NestMembers (JVMS §4.7.28/§4.7.29) and validates each attribute's
// internal consistency.
func verifyNestAttributes(cf *classfile.ClassFile) error {
	hasHost, hasMembers := false, false
	for _, attr := range cf.Attributes {
		switch attr.Name {
		case classfile.AttrNestHost:
			if hasHost {
				return verifyErr("NestHost", "multiple NestHost attributes are not allowed")
			}
			hasHost = true
			if hasMembers {
				return verifyErr("NestHost", "class cannot have both NestHost and NestMembers attributes")
			}
			if err := verifyClassIndex(cf, attr.NestHostIndex); err != nil {
				return err
			}
		case classfile.AttrNestMembers:
			if hasMembers {
				return verifyErr("NestMembers", "multiple NestMembers attributes are not allowed")
			}
			hasMembers = true
			if hasHost {
				return verifyErr("NestMembers", "class cannot have both NestHost and NestMembers attributes")
			}
			seen := make(map[uint16]bool, len(attr.NestMembers))
			for _, idx := range attr.NestMembers {
				if err := verifyClassIndex(cf, idx); err != nil {
					return err
				}
				if seen[idx] {
					return verifyErr("NestMembers", "duplicate class index %d in NestMembers", idx)
				}
				seen[idx] = true
			}
		}
	}
	return nil
}

func verifyClassIndex(cf *classfile.ClassFile, index uint16) error {
	entry, err := cf.ConstantPool.GetExpect(index, classfile.TagClass)
	if err != nil {
		return verifyErr("constant_pool", "index %d is not a valid CONSTANT_Class_info entry: %v", index, err)
	}
	_ = entry
	return nil
}
