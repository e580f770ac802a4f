/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"fmt"

	"ristretto/excNames"
	"ristretto/object"
)

// CRC-32 lookup table using the IEEE 802.3 polynomial.
var crc32Table = buildCRC32Table()

func buildCRC32Table() [256]uint32 {
	var table [256]uint32
	for i := range table {
		crc := uint32(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0xEDB88320
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}
	return table
}

func Load_Util_Zip_CRC32() {

	MethodSignatures["java/util/zip/CRC32.update(II)I"] =
		GMeth{
			ParamSlots: 2,
			GFunction:  crc32Update,
		}

	// The bulk entry points were renamed after Java 8 (updateBytes ->
	// updateBytes0, updateByteBuffer -> updateByteBuffer0); each name is
	// visible only on its side of that boundary.
	RegisterVersioned("java/util/zip/CRC32.updateBytes(I[BII)I",
		GMeth{
			ParamSlots: 4,
			GFunction:  crc32UpdateBytes,
			Versions:   LessThanOrEqual(Java8),
		})

	RegisterVersioned("java/util/zip/CRC32.updateBytes0(I[BII)I",
		GMeth{
			ParamSlots: 4,
			GFunction:  crc32UpdateBytes,
			Versions:   GreaterThan(Java8),
		})

	RegisterVersioned("java/util/zip/CRC32.updateByteBuffer(IJII)I",
		GMeth{
			ParamSlots: 5,
			GFunction:  trapFunction,
			Versions:   LessThanOrEqual(Java8),
		})

	RegisterVersioned("java/util/zip/CRC32.updateByteBuffer0(IJII)I",
		GMeth{
			ParamSlots: 5,
			GFunction:  trapFunction,
			Versions:   GreaterThan(Java8),
		})
}

// crc32Step advances crc by one input byte. CRC-32 is computed with
// inverted bits at entry and exit.
func crc32Step(crc uint32, b byte) uint32 {
	crc ^= 0xFFFFFFFF
	crc = crc32Table[byte(crc)^b] ^ (crc >> 8)
	return crc ^ 0xFFFFFFFF
}

// "java/util/zip/CRC32.update(II)I"
func crc32Update(params []any) any {
	crc := uint32(params[0].(int64))
	b := byte(params[1].(int64))
	return int64(int32(crc32Step(crc, b)))
}

// "java/util/zip/CRC32.updateBytes(I[BII)I"
func crc32UpdateBytes(params []any) any {
	crc := uint32(params[0].(int64))
	var raw []byte
	if arrObj, ok := params[1].(*object.Object); ok && arrObj != nil {
		if fld := arrObj.GetField("value"); fld != nil {
			if ref, ok := fld.Fvalue.(*object.Reference); ok && ref != nil && ref.Kind == object.ByteArrayRef {
				raw = object.GoByteArrayFromJavaByteArray(ref.Bytes)
			}
		}
	}
	offset := params[2].(int64)
	length := params[3].(int64)
	if offset < 0 || length < 0 || offset+length > int64(len(raw)) {
		errMsg := fmt.Sprintf("offset=%d, length=%d, array length=%d", offset, length, len(raw))
		return getGErrBlk(excNames.ArrayIndexOutOfBoundsException, errMsg)
	}
	for _, b := range raw[offset : offset+length] {
		crc = crc32Step(crc, b)
	}
	return int64(int32(crc))
}
