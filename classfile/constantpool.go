/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import "fmt"

// CPTag identifies the kind of a constant-pool entry, one byte on the
// wire, exactly as in the class-file spec.
type CPTag byte

const (
	TagUtf8               CPTag = 1
	TagInteger            CPTag = 3
	TagFloat              CPTag = 4
	TagLong               CPTag = 5
	TagDouble             CPTag = 6
	TagClass              CPTag = 7
	TagString             CPTag = 8
	TagFieldRef           CPTag = 9
	TagMethodRef          CPTag = 10
	TagInterfaceMethodRef CPTag = 11
	TagNameAndType        CPTag = 12
	TagMethodHandle       CPTag = 15
	TagMethodType         CPTag = 16
	TagDynamic            CPTag = 17
	TagInvokeDynamic      CPTag = 18
	TagModule             CPTag = 19
	TagPackage            CPTag = 20
)

// MethodHandleKind is the one-byte reference kind carried by a
// MethodHandle constant-pool entry.
type MethodHandleKind byte

const (
	RefGetField MethodHandleKind = iota + 1
	RefGetStatic
	RefPutField
	RefPutStatic
	RefInvokeVirtual
	RefInvokeStatic
	RefInvokeSpecial
	RefNewInvokeSpecial
	RefInvokeInterface
)

// CPEntry is a tagged-union constant-pool entry. Every case uses
// 1-based indices into the owning ConstantPool; index 0 is always the
// sentinel "absent" value and is never itself a valid CPEntry position.
type CPEntry struct {
	Tag CPTag

	// Utf8
	Utf8Bytes []byte // raw MUTF-8 payload, decoded lazily via AsString

	// Integer/Float/Long/Double
	IntValue    int32
	FloatValue  float32
	LongValue   int64
	DoubleValue float64

	// Class, String, Module, Package: a single name/value index
	NameIndex uint16

	// FieldRef/MethodRef/InterfaceMethodRef
	ClassIndex       uint16
	NameAndTypeIndex uint16

	// NameAndType
	DescriptorIndex uint16

	// MethodHandle
	RefKind  MethodHandleKind
	RefIndex uint16

	// MethodType
	// DescriptorIndex reused above

	// Dynamic/InvokeDynamic
	BootstrapMethodAttrIndex uint16
	// NameAndTypeIndex reused above
}

// AsString decodes a Utf8 entry's MUTF-8 payload; callers check Tag
// before dispatching here.
func (e *CPEntry) AsString() (string, error) {
	if e.Tag != TagUtf8 {
		return "", fmt.Errorf("classfile: AsString called on non-Utf8 entry (tag %d)", e.Tag)
	}
	return DecodeMUTF8String(e.Utf8Bytes)
}

// ConstantPool is the ordered, 1-based table of constant-pool entries for
// a single class file. Index 0 and any index immediately following a Long
// or Double entry (which occupy two logical slots) are unusable.
type ConstantPool struct {
	entries []CPEntry // entries[0] is the unused sentinel
}

// NewConstantPool returns an empty pool with only the sentinel slot 0.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{entries: make([]CPEntry, 1)}
}

// Count returns the constant_pool_count value a class file would encode:
// one more than the highest index, counting slot 0 and the index each
// two-slot Long/Double entry reserves after itself.
func (cp *ConstantPool) Count() int { return len(cp.entries) }

// Get returns the entry at a 1-based index, or an error if index is out of
// bounds or falls on the unusable slot following a Long/Double.
func (cp *ConstantPool) Get(index uint16) (*CPEntry, error) {
	i := int(index)
	if i < 1 || i >= len(cp.entries) {
		return nil, ErrInvalidCPIndex
	}
	e := &cp.entries[i]
	if e.Tag == 0 {
		// the unusable slot after a two-slot entry
		return nil, ErrInvalidCPIndex
	}
	return e, nil
}

// GetExpect is Get plus a tag check, the common case at every resolution
// site: every referenced index must resolve to the required entry kind.
func (cp *ConstantPool) GetExpect(index uint16, tag CPTag) (*CPEntry, error) {
	e, err := cp.Get(index)
	if err != nil {
		return nil, err
	}
	if e.Tag != tag {
		return nil, ErrInvalidCPEntryKind
	}
	return e, nil
}

// append adds entry and returns its assigned 1-based index. Long/Double
// entries additionally consume the following index.
func (cp *ConstantPool) append(e CPEntry) uint16 {
	idx := uint16(len(cp.entries))
	cp.entries = append(cp.entries, e)
	if e.Tag == TagLong || e.Tag == TagDouble {
		cp.entries = append(cp.entries, CPEntry{}) // unusable slot, Tag==0
	}
	return idx
}

// dedupKey describes an entry's identity for deduplication. AddUtf8 does
// not use it; it finds duplicates through findUtf8.
type dedupKey struct {
	tag CPTag
	a   uint16
	b   uint16
	s   string
}

// findUtf8 scans the already-added entries for a Utf8 constant whose
// decoded text is s, returning its index.
func (cp *ConstantPool) findUtf8(s string) (uint16, bool) {
	for i := 1; i < len(cp.entries); i++ {
		e := &cp.entries[i]
		if e.Tag == TagUtf8 {
			if decoded, err := e.AsString(); err == nil && decoded == s {
				return uint16(i), true
			}
		}
	}
	return 0, false
}

// AddUtf8 interns s as a Utf8 constant, returning its index. Calling it
// twice with the same string returns the same index.
func (cp *ConstantPool) AddUtf8(s string) uint16 {
	if idx, ok := cp.findUtf8(s); ok {
		return idx
	}
	return cp.append(CPEntry{Tag: TagUtf8, Utf8Bytes: EncodeMUTF8String(s)})
}

// AddClass interns a Class constant naming className, adding the
// underlying Utf8 entry if needed.
func (cp *ConstantPool) AddClass(className string) uint16 {
	nameIdx := cp.AddUtf8(className)
	for i := 1; i < len(cp.entries); i++ {
		e := &cp.entries[i]
		if e.Tag == TagClass && e.NameIndex == nameIdx {
			return uint16(i)
		}
	}
	return cp.append(CPEntry{Tag: TagClass, NameIndex: nameIdx})
}

// AddNameAndType interns a NameAndType constant.
func (cp *ConstantPool) AddNameAndType(name, descriptor string) uint16 {
	nameIdx := cp.AddUtf8(name)
	descIdx := cp.AddUtf8(descriptor)
	for i := 1; i < len(cp.entries); i++ {
		e := &cp.entries[i]
		if e.Tag == TagNameAndType && e.NameIndex == nameIdx && e.DescriptorIndex == descIdx {
			return uint16(i)
		}
	}
	return cp.append(CPEntry{Tag: TagNameAndType, NameIndex: nameIdx, DescriptorIndex: descIdx})
}

// AddString interns a String constant pointing at the UTF-8 value s.
func (cp *ConstantPool) AddString(s string) uint16 {
	nameIdx := cp.AddUtf8(s)
	for i := 1; i < len(cp.entries); i++ {
		e := &cp.entries[i]
		if e.Tag == TagString && e.NameIndex == nameIdx {
			return uint16(i)
		}
	}
	return cp.append(CPEntry{Tag: TagString, NameIndex: nameIdx})
}

// AddInteger/AddFloat/AddLong/AddDouble append numeric constants without
// dedup; interning numeric constants buys little and javac rarely
// duplicates them.
func (cp *ConstantPool) AddInteger(v int32) uint16   { return cp.append(CPEntry{Tag: TagInteger, IntValue: v}) }
func (cp *ConstantPool) AddFloat(v float32) uint16    { return cp.append(CPEntry{Tag: TagFloat, FloatValue: v}) }
func (cp *ConstantPool) AddLong(v int64) uint16       { return cp.append(CPEntry{Tag: TagLong, LongValue: v}) }
func (cp *ConstantPool) AddDouble(v float64) uint16   { return cp.append(CPEntry{Tag: TagDouble, DoubleValue: v}) }

// AddFieldRef/AddMethodRef/AddInterfaceMethodRef add a reference constant
// given an already-interned class index and name-and-type index.
func (cp *ConstantPool) AddFieldRef(classIdx, natIdx uint16) uint16 {
	return cp.append(CPEntry{Tag: TagFieldRef, ClassIndex: classIdx, NameAndTypeIndex: natIdx})
}

func (cp *ConstantPool) AddMethodRef(classIdx, natIdx uint16) uint16 {
	return cp.append(CPEntry{Tag: TagMethodRef, ClassIndex: classIdx, NameAndTypeIndex: natIdx})
}

func (cp *ConstantPool) AddInterfaceMethodRef(classIdx, natIdx uint16) uint16 {
	return cp.append(CPEntry{Tag: TagInterfaceMethodRef, ClassIndex: classIdx, NameAndTypeIndex: natIdx})
}

// Iterate calls fn for every usable entry (skipping the sentinel and the
// unusable slots following Long/Double), stopping early if fn returns
// false.
func (cp *ConstantPool) Iterate(fn func(index uint16, entry *CPEntry) bool) {
	for i := 1; i < len(cp.entries); i++ {
		e := &cp.entries[i]
		if e.Tag == 0 {
			continue
		}
		if !fn(uint16(i), e) {
			return
		}
	}
}

// ClassName resolves a Class constant at index to its decoded name.
func (cp *ConstantPool) ClassName(index uint16) (string, error) {
	e, err := cp.GetExpect(index, TagClass)
	if err != nil {
		return "", err
	}
	nameEntry, err := cp.GetExpect(e.NameIndex, TagUtf8)
	if err != nil {
		return "", err
	}
	return nameEntry.AsString()
}

// NameAndType resolves a NameAndType constant at index to its (name,
// descriptor) pair.
func (cp *ConstantPool) NameAndType(index uint16) (name, descriptor string, err error) {
	e, err := cp.GetExpect(index, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	nameEntry, err := cp.GetExpect(e.NameIndex, TagUtf8)
	if err != nil {
		return "", "", err
	}
	name, err = nameEntry.AsString()
	if err != nil {
		return "", "", err
	}
	descEntry, err := cp.GetExpect(e.DescriptorIndex, TagUtf8)
	if err != nil {
		return "", "", err
	}
	descriptor, err = descEntry.AsString()
	return name, descriptor, err
}

// MethodRefInfo resolves a MethodRef/InterfaceMethodRef constant to its
// (className, methodName, descriptor) triple, the piece of information
// invocation opcodes need.
func (cp *ConstantPool) MethodRefInfo(index uint16) (className, methodName, descriptor string, err error) {
	e, err := cp.Get(index)
	if err != nil {
		return "", "", "", err
	}
	if e.Tag != TagMethodRef && e.Tag != TagInterfaceMethodRef {
		return "", "", "", ErrInvalidCPEntryKind
	}
	className, err = cp.ClassName(e.ClassIndex)
	if err != nil {
		return "", "", "", err
	}
	methodName, descriptor, err = cp.NameAndType(e.NameAndTypeIndex)
	return className, methodName, descriptor, err
}

// FieldRefInfo resolves a FieldRef constant to its (className, fieldName,
// descriptor) triple.
func (cp *ConstantPool) FieldRefInfo(index uint16) (className, fieldName, descriptor string, err error) {
	e, err := cp.GetExpect(index, TagFieldRef)
	if err != nil {
		return "", "", "", err
	}
	className, err = cp.ClassName(e.ClassIndex)
	if err != nil {
		return "", "", "", err
	}
	fieldName, descriptor, err = cp.NameAndType(e.NameAndTypeIndex)
	return className, fieldName, descriptor, err
}
