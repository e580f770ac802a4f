/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classfile implements the immutable, parse-only representation
// of a Java class file: MUTF-8 codec, constant pool,
// attributes, annotation elements, and verification types. It does not
// resolve cross-references or execute any user code — that is
// classloader's and interpreter's job.
package classfile

import "encoding/binary"

const MagicNumber uint32 = 0xCAFEBABE

// Access flag bits shared by classes, fields, and methods.
const (
	AccPublic       = 0x0001
	AccPrivate      = 0x0002
	AccProtected    = 0x0004
	AccStatic       = 0x0008
	AccFinal        = 0x0010
	AccSuper        = 0x0020
	AccSynchronized = 0x0020
	AccVolatile     = 0x0040
	AccBridge       = 0x0040
	AccTransient    = 0x0080
	AccVarargs      = 0x0080
	AccNative       = 0x0100
	AccInterface    = 0x0200
	AccAbstract     = 0x0400
	AccStrict       = 0x0800
	AccSynthetic    = 0x1000
	AccAnnotation   = 0x2000
	AccEnum         = 0x4000
	AccModule       = 0x8000
)

// FieldInfo is one entry of the fields table.
type FieldInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

// MethodInfo is one entry of the methods table.
type MethodInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute

	// Code is a convenience pointer into Attributes' Code attribute, nil
	// for abstract/native methods.
	Code *CodeAttribute
}

// ClassFile is the immutable, fully-parsed record of a single .class file
//. Byte order throughout is big-endian; every numeric
// cross-reference is a 1-based constant-pool index, 0 meaning "absent".
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool *ConstantPool
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16 // 0 only for java/lang/Object
	Interfaces   []uint16
	Fields       []FieldInfo
	Methods      []MethodInfo
	Attributes   []Attribute
}

// ThisClassName resolves ThisClass to its decoded name.
func (c *ClassFile) ThisClassName() (string, error) {
	return c.ConstantPool.ClassName(c.ThisClass)
}

// SuperClassName resolves SuperClass to its decoded name, or "" if this
// class is java/lang/Object (SuperClass == 0).
func (c *ClassFile) SuperClassName() (string, error) {
	if c.SuperClass == 0 {
		return "", nil
	}
	return c.ConstantPool.ClassName(c.SuperClass)
}

// IsFinal, IsInterface, IsAbstract, IsEnum, IsAnnotation, IsModule are
// convenience predicates over AccessFlags, used heavily by the verifier's
// structural checks.
func (c *ClassFile) IsFinal() bool      { return c.AccessFlags&AccFinal != 0 }
func (c *ClassFile) IsInterface() bool  { return c.AccessFlags&AccInterface != 0 }
func (c *ClassFile) IsAbstract() bool   { return c.AccessFlags&AccAbstract != 0 }
func (c *ClassFile) IsEnum() bool       { return c.AccessFlags&AccEnum != 0 }
func (c *ClassFile) IsAnnotation() bool { return c.AccessFlags&AccAnnotation != 0 }
func (c *ClassFile) IsModule() bool     { return c.AccessFlags&AccModule != 0 }

// FindAttribute returns the first attribute named name, or nil.
func findAttribute(attrs []Attribute, name string) *Attribute {
	for i := range attrs {
		if attrs[i].Name == name {
			return &attrs[i]
		}
	}
	return nil
}

func (c *ClassFile) FindAttribute(name string) *Attribute { return findAttribute(c.Attributes, name) }

// Parse decodes a class file from data: it validates magic,
// version, and that every constant-pool cross reference is in-bounds and
// of the expected kind at fixed positions, but never resolves a reference
// to another class or executes anything.
func Parse(data []byte) (*ClassFile, error) {
	r := &reader{data: data}

	magic, err := r.u4()
	if err != nil {
		return nil, fmtErr(ErrTruncated, r.pos, "magic")
	}
	if magic != MagicNumber {
		return nil, fmtErr(ErrBadMagic, 0, "")
	}

	cf := &ClassFile{}
	if cf.MinorVersion, err = r.u2(); err != nil {
		return nil, fmtErr(err, r.pos, "minor_version")
	}
	if cf.MajorVersion, err = r.u2(); err != nil {
		return nil, fmtErr(err, r.pos, "major_version")
	}

	cpCount, err := r.u2()
	if err != nil {
		return nil, fmtErr(err, r.pos, "constant_pool_count")
	}
	cp, err := parseConstantPool(r, cpCount)
	if err != nil {
		return nil, err
	}
	cf.ConstantPool = cp

	if cf.AccessFlags, err = r.u2(); err != nil {
		return nil, fmtErr(err, r.pos, "access_flags")
	}
	if cf.ThisClass, err = r.u2(); err != nil {
		return nil, fmtErr(err, r.pos, "this_class")
	}
	if _, err := cp.GetExpect(cf.ThisClass, TagClass); err != nil {
		return nil, fmtErr(err, r.pos, "this_class index")
	}
	if cf.SuperClass, err = r.u2(); err != nil {
		return nil, fmtErr(err, r.pos, "super_class")
	}
	if cf.SuperClass != 0 {
		if _, err := cp.GetExpect(cf.SuperClass, TagClass); err != nil {
			return nil, fmtErr(err, r.pos, "super_class index")
		}
	}

	ifaceCount, err := r.u2()
	if err != nil {
		return nil, fmtErr(err, r.pos, "interfaces_count")
	}
	for i := 0; i < int(ifaceCount); i++ {
		idx, err := r.u2()
		if err != nil {
			return nil, fmtErr(err, r.pos, "interfaces")
		}
		if _, err := cp.GetExpect(idx, TagClass); err != nil {
			return nil, fmtErr(err, r.pos, "interface index")
		}
		cf.Interfaces = append(cf.Interfaces, idx)
	}

	if cf.Fields, err = parseMembers(r, cp); err != nil {
		return nil, err
	}
	if cf.Methods, err = parseMethods(r, cp); err != nil {
		return nil, err
	}

	attrCount, err := r.u2()
	if err != nil {
		return nil, fmtErr(err, r.pos, "attributes_count")
	}
	for i := 0; i < int(attrCount); i++ {
		a, n, err := decodeAttribute(r.data[r.pos:], r.pos, cp)
		if err != nil {
			return nil, err
		}
		cf.Attributes = append(cf.Attributes, *a)
		r.pos += n
	}

	return cf, nil
}

func parseMembers(r *reader, cp *ConstantPool) ([]FieldInfo, error) {
	count, err := r.u2()
	if err != nil {
		return nil, fmtErr(err, r.pos, "fields_count")
	}
	out := make([]FieldInfo, 0, count)
	for i := 0; i < int(count); i++ {
		f := FieldInfo{}
		if f.AccessFlags, err = r.u2(); err != nil {
			return nil, fmtErr(err, r.pos, "field access_flags")
		}
		if f.NameIndex, err = r.u2(); err != nil {
			return nil, fmtErr(err, r.pos, "field name_index")
		}
		if _, err := cp.GetExpect(f.NameIndex, TagUtf8); err != nil {
			return nil, fmtErr(err, r.pos, "field name_index")
		}
		if f.DescriptorIndex, err = r.u2(); err != nil {
			return nil, fmtErr(err, r.pos, "field descriptor_index")
		}
		if _, err := cp.GetExpect(f.DescriptorIndex, TagUtf8); err != nil {
			return nil, fmtErr(err, r.pos, "field descriptor_index")
		}
		attrCount, err := r.u2()
		if err != nil {
			return nil, fmtErr(err, r.pos, "field attributes_count")
		}
		for j := 0; j < int(attrCount); j++ {
			a, n, err := decodeAttribute(r.data[r.pos:], r.pos, cp)
			if err != nil {
				return nil, err
			}
			f.Attributes = append(f.Attributes, *a)
			r.pos += n
		}
		out = append(out, f)
	}
	return out, nil
}

func parseMethods(r *reader, cp *ConstantPool) ([]MethodInfo, error) {
	count, err := r.u2()
	if err != nil {
		return nil, fmtErr(err, r.pos, "methods_count")
	}
	out := make([]MethodInfo, 0, count)
	for i := 0; i < int(count); i++ {
		m := MethodInfo{}
		if m.AccessFlags, err = r.u2(); err != nil {
			return nil, fmtErr(err, r.pos, "method access_flags")
		}
		if m.NameIndex, err = r.u2(); err != nil {
			return nil, fmtErr(err, r.pos, "method name_index")
		}
		if _, err := cp.GetExpect(m.NameIndex, TagUtf8); err != nil {
			return nil, fmtErr(err, r.pos, "method name_index")
		}
		if m.DescriptorIndex, err = r.u2(); err != nil {
			return nil, fmtErr(err, r.pos, "method descriptor_index")
		}
		if _, err := cp.GetExpect(m.DescriptorIndex, TagUtf8); err != nil {
			return nil, fmtErr(err, r.pos, "method descriptor_index")
		}
		attrCount, err := r.u2()
		if err != nil {
			return nil, fmtErr(err, r.pos, "method attributes_count")
		}
		for j := 0; j < int(attrCount); j++ {
			a, n, err := decodeAttribute(r.data[r.pos:], r.pos, cp)
			if err != nil {
				return nil, err
			}
			m.Attributes = append(m.Attributes, *a)
			if a.Code != nil {
				m.Code = a.Code
			}
			r.pos += n
		}
		out = append(out, m)
	}
	return out, nil
}

func parseConstantPool(r *reader, count uint16) (*ConstantPool, error) {
	cp := &ConstantPool{entries: make([]CPEntry, 1, count)}
	for i := 1; i < int(count); i++ {
		tagByte, err := r.u1()
		if err != nil {
			return nil, fmtErr(err, r.pos, "constant-pool tag")
		}
		tag := CPTag(tagByte)
		var e CPEntry
		e.Tag = tag
		switch tag {
		case TagUtf8:
			length, err := r.u2()
			if err != nil {
				return nil, fmtErr(err, r.pos, "Utf8 length")
			}
			bytes, err := r.bytes(int(length))
			if err != nil {
				return nil, fmtErr(err, r.pos, "Utf8 bytes")
			}
			e.Utf8Bytes = bytes
		case TagInteger:
			v, err := r.u4()
			if err != nil {
				return nil, fmtErr(err, r.pos, "Integer")
			}
			e.IntValue = int32(v)
		case TagFloat:
			v, err := r.u4()
			if err != nil {
				return nil, fmtErr(err, r.pos, "Float")
			}
			e.FloatValue = float32FromBits(v)
		case TagLong:
			v, err := r.u8()
			if err != nil {
				return nil, fmtErr(err, r.pos, "Long")
			}
			e.LongValue = int64(v)
		case TagDouble:
			v, err := r.u8()
			if err != nil {
				return nil, fmtErr(err, r.pos, "Double")
			}
			e.DoubleValue = float64FromBits(v)
		case TagClass, TagString, TagModule, TagPackage:
			idx, err := r.u2()
			if err != nil {
				return nil, fmtErr(err, r.pos, "name/value index")
			}
			e.NameIndex = idx
		case TagFieldRef, TagMethodRef, TagInterfaceMethodRef:
			ci, err := r.u2()
			if err != nil {
				return nil, fmtErr(err, r.pos, "class_index")
			}
			ni, err := r.u2()
			if err != nil {
				return nil, fmtErr(err, r.pos, "name_and_type_index")
			}
			e.ClassIndex = ci
			e.NameAndTypeIndex = ni
		case TagNameAndType:
			ni, err := r.u2()
			if err != nil {
				return nil, fmtErr(err, r.pos, "name_index")
			}
			di, err := r.u2()
			if err != nil {
				return nil, fmtErr(err, r.pos, "descriptor_index")
			}
			e.NameIndex = ni
			e.DescriptorIndex = di
		case TagMethodHandle:
			kind, err := r.u1()
			if err != nil {
				return nil, fmtErr(err, r.pos, "reference_kind")
			}
			idx, err := r.u2()
			if err != nil {
				return nil, fmtErr(err, r.pos, "reference_index")
			}
			e.RefKind = MethodHandleKind(kind)
			e.RefIndex = idx
		case TagMethodType:
			di, err := r.u2()
			if err != nil {
				return nil, fmtErr(err, r.pos, "descriptor_index")
			}
			e.DescriptorIndex = di
		case TagDynamic, TagInvokeDynamic:
			bi, err := r.u2()
			if err != nil {
				return nil, fmtErr(err, r.pos, "bootstrap_method_attr_index")
			}
			ni, err := r.u2()
			if err != nil {
				return nil, fmtErr(err, r.pos, "name_and_type_index")
			}
			e.BootstrapMethodAttrIndex = bi
			e.NameAndTypeIndex = ni
		default:
			return nil, fmtErr(ErrInvalidCPEntryKind, r.pos, "unrecognized constant-pool tag")
		}
		cp.entries = append(cp.entries, e)
		if tag == TagLong || tag == TagDouble {
			cp.entries = append(cp.entries, CPEntry{})
			i++
		}
	}
	return cp, nil
}

// --- low-level big-endian reader ---

type reader struct {
	data []byte
	pos  int
}

func (r *reader) u1() (byte, error) {
	if r.pos+1 > len(r.data) {
		return 0, ErrTruncated
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) u2() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u4() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) u8() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, ErrTruncated
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}
