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

// AnnotationElementTag is the one-byte tag identifying an annotation
// element's kind.
type AnnotationElementTag byte

const (
	ElemByte           AnnotationElementTag = 'B'
	ElemChar           AnnotationElementTag = 'C'
	ElemDouble         AnnotationElementTag = 'D'
	ElemFloat          AnnotationElementTag = 'F'
	ElemInt            AnnotationElementTag = 'I'
	ElemLong           AnnotationElementTag = 'J'
	ElemShort          AnnotationElementTag = 'S'
	ElemBoolean        AnnotationElementTag = 'Z'
	ElemString         AnnotationElementTag = 's'
	ElemEnum           AnnotationElementTag = 'e'
	ElemClass          AnnotationElementTag = 'c'
	ElemAnnotation     AnnotationElementTag = '@'
	ElemArray          AnnotationElementTag = '['
)

// Annotation is a `(type_index, element_value_pairs)` pair as it appears
// in a RuntimeVisibleAnnotations-family attribute or nested inside an
// AnnotationElement of tag '@'.
type Annotation struct {
	TypeIndex uint16
	Elements  []AnnotationElementPair
}

// AnnotationElementPair is one `(name_index, value)` entry of an
// annotation.
type AnnotationElementPair struct {
	NameIndex uint16
	Value     AnnotationElement
}

// AnnotationElement is a tagged union keyed by Tag. Exactly one
// of the fields below is meaningful, selected by Tag.
type AnnotationElement struct {
	Tag AnnotationElementTag

	// scalar const-value kinds (B C D F I J S Z s): an index into the
	// constant pool.
	ConstValueIndex uint16

	// Enum ('e'): two indices.
	TypeNameIndex     uint16
	ConstNameIndex    uint16

	// Class ('c'): one index (already covered by ConstValueIndex, kept
	// distinct here for readability at call sites).
	ClassInfoIndex uint16

	// Annotation ('@'): a nested annotation.
	NestedAnnotation *Annotation

	// Array ('['): a length-prefixed sequence of elements.
	ArrayValues []AnnotationElement
}

// ToBytes encodes e as one tag byte followed by a tag-specific
// payload.
func (e *AnnotationElement) ToBytes() ([]byte, error) {
	buf := []byte{byte(e.Tag)}
	switch e.Tag {
	case ElemByte, ElemChar, ElemDouble, ElemFloat, ElemInt, ElemLong, ElemShort, ElemBoolean, ElemString:
		buf = append(buf, u16(e.ConstValueIndex)...)
	case ElemEnum:
		buf = append(buf, u16(e.TypeNameIndex)...)
		buf = append(buf, u16(e.ConstNameIndex)...)
	case ElemClass:
		buf = append(buf, u16(e.ClassInfoIndex)...)
	case ElemAnnotation:
		if e.NestedAnnotation == nil {
			return nil, fmt.Errorf("classfile: nil nested annotation")
		}
		nb, err := e.NestedAnnotation.ToBytes()
		if err != nil {
			return nil, err
		}
		buf = append(buf, nb...)
	case ElemArray:
		if len(e.ArrayValues) > 65535 {
			return nil, ErrArrayTooLarge
		}
		buf = append(buf, u16(uint16(len(e.ArrayValues)))...)
		for i := range e.ArrayValues {
			vb, err := e.ArrayValues[i].ToBytes()
			if err != nil {
				return nil, err
			}
			buf = append(buf, vb...)
		}
	default:
		return nil, ErrInvalidAnnotTag
	}
	return buf, nil
}

// ToBytes encodes a full annotation: type_index, num_element_value_pairs,
// then each (name_index, value) pair.
func (a *Annotation) ToBytes() ([]byte, error) {
	buf := u16(a.TypeIndex)
	buf = append(buf, u16(uint16(len(a.Elements)))...)
	for _, pair := range a.Elements {
		buf = append(buf, u16(pair.NameIndex)...)
		vb, err := pair.Value.ToBytes()
		if err != nil {
			return nil, err
		}
		buf = append(buf, vb...)
	}
	return buf, nil
}

// AnnotationElementFromBytes decodes one AnnotationElement starting at
// offset 0 of data, returning the element and the number of bytes
// consumed.
func AnnotationElementFromBytes(data []byte) (*AnnotationElement, int, error) {
	if len(data) < 1 {
		return nil, 0, ErrTruncated
	}
	tag := AnnotationElementTag(data[0])
	pos := 1
	e := &AnnotationElement{Tag: tag}
	switch tag {
	case ElemByte, ElemChar, ElemDouble, ElemFloat, ElemInt, ElemLong, ElemShort, ElemBoolean, ElemString:
		if len(data) < pos+2 {
			return nil, 0, ErrTruncated
		}
		e.ConstValueIndex = binary.BigEndian.Uint16(data[pos:])
		pos += 2
	case ElemEnum:
		if len(data) < pos+4 {
			return nil, 0, ErrTruncated
		}
		e.TypeNameIndex = binary.BigEndian.Uint16(data[pos:])
		e.ConstNameIndex = binary.BigEndian.Uint16(data[pos+2:])
		pos += 4
	case ElemClass:
		if len(data) < pos+2 {
			return nil, 0, ErrTruncated
		}
		e.ClassInfoIndex = binary.BigEndian.Uint16(data[pos:])
		pos += 2
	case ElemAnnotation:
		nested, n, err := AnnotationFromBytes(data[pos:])
		if err != nil {
			return nil, 0, err
		}
		e.NestedAnnotation = nested
		pos += n
	case ElemArray:
		if len(data) < pos+2 {
			return nil, 0, ErrTruncated
		}
		count := binary.BigEndian.Uint16(data[pos:])
		pos += 2
		e.ArrayValues = make([]AnnotationElement, 0, count)
		for i := 0; i < int(count); i++ {
			v, n, err := AnnotationElementFromBytes(data[pos:])
			if err != nil {
				return nil, 0, err
			}
			e.ArrayValues = append(e.ArrayValues, *v)
			pos += n
		}
	default:
		return nil, 0, fmtErr(ErrInvalidAnnotTag, 0, fmt.Sprintf("tag byte 0x%02X", tag))
	}
	return e, pos, nil
}

// AnnotationFromBytes decodes a full annotation from data, returning it
// and the number of bytes consumed.
func AnnotationFromBytes(data []byte) (*Annotation, int, error) {
	if len(data) < 4 {
		return nil, 0, ErrTruncated
	}
	a := &Annotation{TypeIndex: binary.BigEndian.Uint16(data)}
	count := binary.BigEndian.Uint16(data[2:])
	pos := 4
	a.Elements = make([]AnnotationElementPair, 0, count)
	for i := 0; i < int(count); i++ {
		if len(data) < pos+2 {
			return nil, 0, ErrTruncated
		}
		nameIdx := binary.BigEndian.Uint16(data[pos:])
		pos += 2
		v, n, err := AnnotationElementFromBytes(data[pos:])
		if err != nil {
			return nil, 0, err
		}
		a.Elements = append(a.Elements, AnnotationElementPair{NameIndex: nameIdx, Value: *v})
		pos += n
	}
	return a, pos, nil
}

func u16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}
