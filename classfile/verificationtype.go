/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"encoding/binary"
	"fmt"
)

// VerificationTypeTag is the one-byte tag of a StackMapTable verification
// type.
type VerificationTypeTag byte

const (
	VTTop               VerificationTypeTag = 0
	VTInteger           VerificationTypeTag = 1
	VTFloat             VerificationTypeTag = 2
	VTDouble            VerificationTypeTag = 3
	VTLong              VerificationTypeTag = 4
	VTNull              VerificationTypeTag = 5
	VTUninitializedThis VerificationTypeTag = 6
	VTObject            VerificationTypeTag = 7
	VTUninitialized     VerificationTypeTag = 8
)

// VerificationType is a tagged sum over the nine kinds above. Object
// carries a constant-pool index naming the class; Uninitialized carries
// the bytecode offset of the `new` instruction that created the not-yet-
// initialized object.
type VerificationType struct {
	Tag         VerificationTypeTag
	CPoolIndex  uint16 // valid when Tag == VTObject
	Offset      uint16 // valid when Tag == VTUninitialized
}

// Object constructs a VTObject verification type.
func Object(cpoolIndex uint16) VerificationType {
	return VerificationType{Tag: VTObject, CPoolIndex: cpoolIndex}
}

// Uninitialized constructs a VTUninitialized verification type.
func Uninitialized(offset uint16) VerificationType {
	return VerificationType{Tag: VTUninitialized, Offset: offset}
}

// IsCategory2 reports whether this verification type occupies two stack
// slots (Long, Double).
func (v VerificationType) IsCategory2() bool {
	return v.Tag == VTLong || v.Tag == VTDouble
}

// ToBytes encodes v as one tag byte plus, for Object/Uninitialized, a
// big-endian u16 payload.
func (v VerificationType) ToBytes() []byte {
	switch v.Tag {
	case VTObject:
		return append([]byte{byte(v.Tag)}, u16(v.CPoolIndex)...)
	case VTUninitialized:
		return append([]byte{byte(v.Tag)}, u16(v.Offset)...)
	default:
		return []byte{byte(v.Tag)}
	}
}

// VerificationTypeFromBytes decodes one VerificationType from the start
// of data, returning it and the number of bytes consumed.
func VerificationTypeFromBytes(data []byte) (VerificationType, int, error) {
	if len(data) < 1 {
		return VerificationType{}, 0, ErrTruncated
	}
	tag := VerificationTypeTag(data[0])
	switch tag {
	case VTTop, VTInteger, VTFloat, VTDouble, VTLong, VTNull, VTUninitializedThis:
		return VerificationType{Tag: tag}, 1, nil
	case VTObject:
		if len(data) < 3 {
			return VerificationType{}, 0, ErrTruncated
		}
		return VerificationType{Tag: tag, CPoolIndex: binary.BigEndian.Uint16(data[1:])}, 3, nil
	case VTUninitialized:
		if len(data) < 3 {
			return VerificationType{}, 0, ErrTruncated
		}
		return VerificationType{Tag: tag, Offset: binary.BigEndian.Uint16(data[1:])}, 3, nil
	default:
		return VerificationType{}, 0, fmtErr(ErrInvalidVerifyTag, 0, fmt.Sprintf("tag byte 0x%02X", tag))
	}
}

// JoinVerificationTypes implements the verifier's merge-point type join
//: Top is the top element of the lattice; two object
// types join to their nearest common supertype via resolve; unequal
// primitives join to Top. resolve is supplied by the class loader since
// the common-supertype search walks the loader's type graph.
func JoinVerificationTypes(a, b VerificationType, resolve func(a, b VerificationType) VerificationType) VerificationType {
	if a.Tag == VTTop || b.Tag == VTTop {
		return VerificationType{Tag: VTTop}
	}
	if a.Tag != b.Tag {
		// Null joins with any object type to that object type; otherwise
		// differing tags join to Top.
		if a.Tag == VTNull && b.Tag == VTObject {
			return b
		}
		if b.Tag == VTNull && a.Tag == VTObject {
			return a
		}
		return VerificationType{Tag: VTTop}
	}
	switch a.Tag {
	case VTObject:
		if a.CPoolIndex == b.CPoolIndex {
			return a
		}
		if resolve != nil {
			return resolve(a, b)
		}
		return VerificationType{Tag: VTTop}
	case VTUninitialized:
		if a.Offset == b.Offset {
			return a
		}
		return VerificationType{Tag: VTTop}
	default:
		// identical primitive tags (Integer/Float/Double/Long/Null/
		// UninitializedThis) join to themselves.
		return a
	}
}
