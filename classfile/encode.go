/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"bytes"
	"encoding/binary"
)

// Encode serializes c back into class-file wire format. Attribute
// payloads are re-emitted from each Attribute's Raw bytes rather than
// re-derived from the decoded fields, which is what makes
// Parse(Encode(c)) == c an exact round trip: Raw is always
// populated by decodeAttribute and is never invalidated by decoding the
// typed view alongside it.
func Encode(c *ClassFile) []byte {
	var buf bytes.Buffer
	writeU4(&buf, MagicNumber)
	writeU2(&buf, c.MinorVersion)
	writeU2(&buf, c.MajorVersion)

	writeU2(&buf, uint16(c.ConstantPool.Count()))
	encodeConstantPool(&buf, c.ConstantPool)

	writeU2(&buf, c.AccessFlags)
	writeU2(&buf, c.ThisClass)
	writeU2(&buf, c.SuperClass)

	writeU2(&buf, uint16(len(c.Interfaces)))
	for _, i := range c.Interfaces {
		writeU2(&buf, i)
	}

	writeU2(&buf, uint16(len(c.Fields)))
	for _, f := range c.Fields {
		writeU2(&buf, f.AccessFlags)
		writeU2(&buf, f.NameIndex)
		writeU2(&buf, f.DescriptorIndex)
		encodeAttributes(&buf, f.Attributes)
	}

	writeU2(&buf, uint16(len(c.Methods)))
	for _, m := range c.Methods {
		writeU2(&buf, m.AccessFlags)
		writeU2(&buf, m.NameIndex)
		writeU2(&buf, m.DescriptorIndex)
		encodeAttributes(&buf, m.Attributes)
	}

	encodeAttributes(&buf, c.Attributes)

	return buf.Bytes()
}

func encodeConstantPool(buf *bytes.Buffer, cp *ConstantPool) {
	for i := 1; i < len(cp.entries); i++ {
		e := &cp.entries[i]
		if e.Tag == 0 {
			continue // unusable slot after Long/Double
		}
		buf.WriteByte(byte(e.Tag))
		switch e.Tag {
		case TagUtf8:
			writeU2(buf, uint16(len(e.Utf8Bytes)))
			buf.Write(e.Utf8Bytes)
		case TagInteger:
			writeU4(buf, uint32(e.IntValue))
		case TagFloat:
			writeU4(buf, float32ToBits(e.FloatValue))
		case TagLong:
			writeU8(buf, uint64(e.LongValue))
		case TagDouble:
			writeU8(buf, float64ToBits(e.DoubleValue))
		case TagClass, TagString, TagModule, TagPackage:
			writeU2(buf, e.NameIndex)
		case TagFieldRef, TagMethodRef, TagInterfaceMethodRef:
			writeU2(buf, e.ClassIndex)
			writeU2(buf, e.NameAndTypeIndex)
		case TagNameAndType:
			writeU2(buf, e.NameIndex)
			writeU2(buf, e.DescriptorIndex)
		case TagMethodHandle:
			buf.WriteByte(byte(e.RefKind))
			writeU2(buf, e.RefIndex)
		case TagMethodType:
			writeU2(buf, e.DescriptorIndex)
		case TagDynamic, TagInvokeDynamic:
			writeU2(buf, e.BootstrapMethodAttrIndex)
			writeU2(buf, e.NameAndTypeIndex)
		}
	}
}

func encodeAttributes(buf *bytes.Buffer, attrs []Attribute) {
	writeU2(buf, uint16(len(attrs)))
	for _, a := range attrs {
		writeU2(buf, a.NameIndex)
		writeU4(buf, uint32(len(a.Raw)))
		buf.Write(a.Raw)
	}
}

func writeU2(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU4(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU8(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}
