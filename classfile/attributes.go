/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import "encoding/binary"

// Recognized attribute names. Attributes whose name is not in
// this set are preserved as RawAttribute with an opaque payload rather
// than rejected — "Unknown attributes are preserved as opaque byte spans."
const (
	AttrCode                                = "Code"
	AttrConstantValue                       = "ConstantValue"
	AttrExceptions                          = "Exceptions"
	AttrInnerClasses                        = "InnerClasses"
	AttrEnclosingMethod                     = "EnclosingMethod"
	AttrSynthetic                           = "Synthetic"
	AttrSignature                           = "Signature"
	AttrSourceFile                          = "SourceFile"
	AttrLineNumberTable                     = "LineNumberTable"
	AttrLocalVariableTable                  = "LocalVariableTable"
	AttrLocalVariableTypeTable               = "LocalVariableTypeTable"
	AttrStackMapTable                       = "StackMapTable"
	AttrBootstrapMethods                    = "BootstrapMethods"
	AttrMethodParameters                    = "MethodParameters"
	AttrModule                              = "Module"
	AttrNestHost                            = "NestHost"
	AttrNestMembers                         = "NestMembers"
	AttrRecord                              = "Record"
	AttrPermittedSubclasses                 = "PermittedSubclasses"
	AttrRuntimeVisibleAnnotations            = "RuntimeVisibleAnnotations"
	AttrRuntimeInvisibleAnnotations          = "RuntimeInvisibleAnnotations"
	AttrRuntimeVisibleTypeAnnotations        = "RuntimeVisibleTypeAnnotations"
	AttrRuntimeInvisibleTypeAnnotations      = "RuntimeInvisibleTypeAnnotations"
	AttrRuntimeVisibleParameterAnnotations   = "RuntimeVisibleParameterAnnotations"
	AttrRuntimeInvisibleParameterAnnotations = "RuntimeInvisibleParameterAnnotations"
	AttrAnnotationDefault                    = "AnnotationDefault"
	AttrDeprecated                           = "Deprecated"
)

// Attribute is a tagged union keyed by Name. Unknown attributes
// carry Raw only; recognized attributes populate the matching field and
// leave the others nil.
type Attribute struct {
	NameIndex uint16
	Name      string

	Raw []byte // always populated with the undecoded payload, for re-encoding fidelity

	Code                 *CodeAttribute
	ConstantValueIndex   uint16
	Exceptions           []uint16
	StackMapFrames       []StackMapFrame
	BootstrapMethods     []BootstrapMethod
	NestHostIndex        uint16
	NestMembers          []uint16
	PermittedSubclasses  []uint16
	Annotations          []Annotation
	AnnotationDefault    *AnnotationElement
}

// StackMapFrame is one entry of a StackMapTable attribute. Only the
// "full_frame" shape is modeled explicitly (offset_delta plus explicit
// locals/stack lists); decodeStackMapTable expands the compressed frame
// kinds (same_frame, chop_frame, append_frame, ...) into this normalized
// shape at decode time so the rest of the engine only ever deals with
// one representation.
type StackMapFrame struct {
	OffsetDelta uint16
	Locals      []VerificationType
	Stack       []VerificationType
}

// BootstrapMethod is one entry of the BootstrapMethods attribute, used to
// resolve invokedynamic/dynamic constants.
type BootstrapMethod struct {
	MethodRefIndex uint16
	Arguments      []uint16
}

// ExceptionTableEntry is one row of a Code attribute's exception table
//.
type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16 // 0 means catch-all (finally)
}

// CodeAttribute holds a method's bytecode and everything needed to
// execute and verify it.
type CodeAttribute struct {
	MaxStack     uint16
	MaxLocals    uint16
	Code         []byte
	ExceptionTable []ExceptionTableEntry
	Attributes   []Attribute
}

// decodeAttribute reads one attribute_info structure starting at data[0],
// returning the decoded Attribute and the number of bytes consumed. cp is
// needed to resolve the attribute's name and, for Code, to decode nested
// exception handler types lazily (kept as raw indices here).
func decodeAttribute(data []byte, offset int, cp *ConstantPool) (*Attribute, int, error) {
	if len(data) < 6 {
		return nil, 0, fmtErr(ErrTruncated, offset, "attribute header")
	}
	nameIndex := binary.BigEndian.Uint16(data)
	length := binary.BigEndian.Uint32(data[2:])
	if uint32(len(data)-6) < length {
		return nil, 0, fmtErr(ErrUnknownAttrSize, offset, "attribute payload shorter than declared length")
	}
	payload := data[6 : 6+length]
	nameEntry, err := cp.GetExpect(nameIndex, TagUtf8)
	if err != nil {
		return nil, 0, fmtErr(err, offset, "attribute name_index")
	}
	name, err := nameEntry.AsString()
	if err != nil {
		return nil, 0, fmtErr(err, offset, "attribute name")
	}

	attr := &Attribute{NameIndex: nameIndex, Name: name, Raw: payload}

	switch name {
	case AttrCode:
		code, err := decodeCodeAttribute(payload, offset, cp)
		if err != nil {
			return nil, 0, err
		}
		attr.Code = code
	case AttrConstantValue:
		if len(payload) < 2 {
			return nil, 0, fmtErr(ErrTruncated, offset, "ConstantValue")
		}
		attr.ConstantValueIndex = binary.BigEndian.Uint16(payload)
	case AttrExceptions:
		attr.Exceptions = decodeU16Table(payload)
	case AttrNestHost:
		if len(payload) < 2 {
			return nil, 0, fmtErr(ErrTruncated, offset, "NestHost")
		}
		attr.NestHostIndex = binary.BigEndian.Uint16(payload)
	case AttrNestMembers:
		attr.NestMembers = decodeU16Table(payload)
	case AttrPermittedSubclasses:
		attr.PermittedSubclasses = decodeU16Table(payload)
	case AttrBootstrapMethods:
		attr.BootstrapMethods, err = decodeBootstrapMethods(payload)
		if err != nil {
			return nil, 0, fmtErr(err, offset, "BootstrapMethods")
		}
	case AttrStackMapTable:
		attr.StackMapFrames, err = decodeStackMapTable(payload)
		if err != nil {
			return nil, 0, fmtErr(err, offset, "StackMapTable")
		}
	case AttrRuntimeVisibleAnnotations, AttrRuntimeInvisibleAnnotations:
		attr.Annotations, err = decodeAnnotationsTable(payload)
		if err != nil {
			return nil, 0, fmtErr(err, offset, name)
		}
	case AttrAnnotationDefault:
		elem, _, err := AnnotationElementFromBytes(payload)
		if err != nil {
			return nil, 0, fmtErr(err, offset, "AnnotationDefault")
		}
		attr.AnnotationDefault = elem
	}
	return attr, 6 + int(length), nil
}

func decodeU16Table(payload []byte) []uint16 {
	if len(payload) < 2 {
		return nil
	}
	count := binary.BigEndian.Uint16(payload)
	out := make([]uint16, 0, count)
	pos := 2
	for i := 0; i < int(count) && pos+2 <= len(payload); i++ {
		out = append(out, binary.BigEndian.Uint16(payload[pos:]))
		pos += 2
	}
	return out
}

func decodeBootstrapMethods(payload []byte) ([]BootstrapMethod, error) {
	if len(payload) < 2 {
		return nil, ErrTruncated
	}
	count := binary.BigEndian.Uint16(payload)
	pos := 2
	out := make([]BootstrapMethod, 0, count)
	for i := 0; i < int(count); i++ {
		if pos+4 > len(payload) {
			return nil, ErrTruncated
		}
		bm := BootstrapMethod{MethodRefIndex: binary.BigEndian.Uint16(payload[pos:])}
		argCount := binary.BigEndian.Uint16(payload[pos+2:])
		pos += 4
		for j := 0; j < int(argCount); j++ {
			if pos+2 > len(payload) {
				return nil, ErrTruncated
			}
			bm.Arguments = append(bm.Arguments, binary.BigEndian.Uint16(payload[pos:]))
			pos += 2
		}
		out = append(out, bm)
	}
	return out, nil
}

func decodeAnnotationsTable(payload []byte) ([]Annotation, error) {
	if len(payload) < 2 {
		return nil, ErrTruncated
	}
	count := binary.BigEndian.Uint16(payload)
	pos := 2
	out := make([]Annotation, 0, count)
	for i := 0; i < int(count); i++ {
		a, n, err := AnnotationFromBytes(payload[pos:])
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
		pos += n
	}
	return out, nil
}

// decodeStackMapTable expands the compressed frame encodings into the
// normalized StackMapFrame shape used throughout the engine. Compressed
// frame kinds (same_frame 0-63, same_locals_1_stack_item 64-127, chop,
// same_frame_extended, append, full_frame) are handled per the class-file
// spec; each frame's Locals/Stack are threaded from the previous frame's
// state where the encoding is differential.
func decodeStackMapTable(payload []byte) ([]StackMapFrame, error) {
	if len(payload) < 2 {
		return nil, ErrTruncated
	}
	count := binary.BigEndian.Uint16(payload)
	pos := 2
	frames := make([]StackMapFrame, 0, count)
	var prevLocals []VerificationType

	for i := 0; i < int(count); i++ {
		if pos >= len(payload) {
			return nil, ErrTruncated
		}
		frameType := payload[pos]
		pos++
		var frame StackMapFrame

		switch {
		case frameType <= 63: // same_frame
			frame.OffsetDelta = uint16(frameType)
			frame.Locals = append([]VerificationType{}, prevLocals...)

		case frameType <= 127: // same_locals_1_stack_item_frame
			frame.OffsetDelta = uint16(frameType - 64)
			frame.Locals = append([]VerificationType{}, prevLocals...)
			vt, n, err := VerificationTypeFromBytes(payload[pos:])
			if err != nil {
				return nil, err
			}
			pos += n
			frame.Stack = []VerificationType{vt}

		case frameType == 247: // same_locals_1_stack_item_frame_extended
			if pos+2 > len(payload) {
				return nil, ErrTruncated
			}
			frame.OffsetDelta = binary.BigEndian.Uint16(payload[pos:])
			pos += 2
			frame.Locals = append([]VerificationType{}, prevLocals...)
			vt, n, err := VerificationTypeFromBytes(payload[pos:])
			if err != nil {
				return nil, err
			}
			pos += n
			frame.Stack = []VerificationType{vt}

		case frameType >= 248 && frameType <= 250: // chop_frame
			if pos+2 > len(payload) {
				return nil, ErrTruncated
			}
			frame.OffsetDelta = binary.BigEndian.Uint16(payload[pos:])
			pos += 2
			chop := int(251 - frameType)
			if chop > len(prevLocals) {
				chop = len(prevLocals)
			}
			frame.Locals = append([]VerificationType{}, prevLocals[:len(prevLocals)-chop]...)

		case frameType == 251: // same_frame_extended
			if pos+2 > len(payload) {
				return nil, ErrTruncated
			}
			frame.OffsetDelta = binary.BigEndian.Uint16(payload[pos:])
			pos += 2
			frame.Locals = append([]VerificationType{}, prevLocals...)

		case frameType >= 252 && frameType <= 254: // append_frame
			if pos+2 > len(payload) {
				return nil, ErrTruncated
			}
			frame.OffsetDelta = binary.BigEndian.Uint16(payload[pos:])
			pos += 2
			appendCount := int(frameType - 251)
			locals := append([]VerificationType{}, prevLocals...)
			for j := 0; j < appendCount; j++ {
				vt, n, err := VerificationTypeFromBytes(payload[pos:])
				if err != nil {
					return nil, err
				}
				pos += n
				locals = append(locals, vt)
			}
			frame.Locals = locals

		case frameType == 255: // full_frame
			if pos+2 > len(payload) {
				return nil, ErrTruncated
			}
			frame.OffsetDelta = binary.BigEndian.Uint16(payload[pos:])
			pos += 2
			if pos+2 > len(payload) {
				return nil, ErrTruncated
			}
			numLocals := binary.BigEndian.Uint16(payload[pos:])
			pos += 2
			var locals []VerificationType
			for j := 0; j < int(numLocals); j++ {
				vt, n, err := VerificationTypeFromBytes(payload[pos:])
				if err != nil {
					return nil, err
				}
				pos += n
				locals = append(locals, vt)
			}
			frame.Locals = locals
			if pos+2 > len(payload) {
				return nil, ErrTruncated
			}
			numStack := binary.BigEndian.Uint16(payload[pos:])
			pos += 2
			var stack []VerificationType
			for j := 0; j < int(numStack); j++ {
				vt, n, err := VerificationTypeFromBytes(payload[pos:])
				if err != nil {
					return nil, err
				}
				pos += n
				stack = append(stack, vt)
			}
			frame.Stack = stack

		default:
			return nil, fmtErr(ErrInvalidVerifyTag, pos, "reserved stack-map frame type")
		}

		prevLocals = frame.Locals
		frames = append(frames, frame)
	}
	return frames, nil
}

func decodeCodeAttribute(payload []byte, offset int, cp *ConstantPool) (*CodeAttribute, error) {
	if len(payload) < 8 {
		return nil, fmtErr(ErrTruncated, offset, "Code header")
	}
	code := &CodeAttribute{
		MaxStack:  binary.BigEndian.Uint16(payload),
		MaxLocals: binary.BigEndian.Uint16(payload[2:]),
	}
	codeLen := binary.BigEndian.Uint32(payload[4:])
	pos := 8
	if uint32(len(payload)-pos) < codeLen {
		return nil, fmtErr(ErrTruncated, offset, "Code.code")
	}
	code.Code = payload[pos : pos+int(codeLen)]
	pos += int(codeLen)

	if pos+2 > len(payload) {
		return nil, fmtErr(ErrTruncated, offset, "Code.exception_table_length")
	}
	excCount := binary.BigEndian.Uint16(payload[pos:])
	pos += 2
	for i := 0; i < int(excCount); i++ {
		if pos+8 > len(payload) {
			return nil, fmtErr(ErrTruncated, offset, "Code.exception_table")
		}
		code.ExceptionTable = append(code.ExceptionTable, ExceptionTableEntry{
			StartPC:   binary.BigEndian.Uint16(payload[pos:]),
			EndPC:     binary.BigEndian.Uint16(payload[pos+2:]),
			HandlerPC: binary.BigEndian.Uint16(payload[pos+4:]),
			CatchType: binary.BigEndian.Uint16(payload[pos+6:]),
		})
		pos += 8
	}

	if pos+2 > len(payload) {
		return nil, fmtErr(ErrTruncated, offset, "Code.attributes_count")
	}
	attrCount := binary.BigEndian.Uint16(payload[pos:])
	pos += 2
	for i := 0; i < int(attrCount); i++ {
		a, n, err := decodeAttribute(payload[pos:], offset+pos, cp)
		if err != nil {
			return nil, err
		}
		code.Attributes = append(code.Attributes, *a)
		pos += n
	}
	return code, nil
}

// FindStackMapTable locates and returns the Code attribute's StackMapTable, if
// any, as already-decoded frames (nil if absent).
func (c *CodeAttribute) FindStackMapTable() []StackMapFrame {
	for i := range c.Attributes {
		if c.Attributes[i].Name == AttrStackMapTable {
			return c.Attributes[i].StackMapFrames
		}
	}
	return nil
}
