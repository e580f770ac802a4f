/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math"

	"ristretto/excNames"
	"ristretto/object"
)

func Load_Util_HashMap() {

	MethodSignatures["java/util/HashMap.hash(Ljava/lang/Object;)I"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  hashMapHash,
		}
}

// hashMapHash hashes the value field of the passed object with MD5 and
// folds the digest to an int. Content-based rather than identity-based,
// so two equal Strings hash equally, which is what HashMap needs.
func hashMapHash(params []any) any {
	obj, ok := params[0].(*object.Object)
	if !ok {
		errMsg := fmt.Sprintf("hashMapHash: unrecognized parameter type: %T", params[0])
		return getGErrBlk(excNames.IllegalArgumentException, errMsg)
	}

	fld := obj.GetField("value")
	if fld == nil {
		errMsg := fmt.Sprintf("hashMapHash: object of class %v has no value field", obj.Klass)
		return getGErrBlk(excNames.IllegalArgumentException, errMsg)
	}

	var raw []byte
	switch v := fld.Fvalue.(type) {
	case *object.Reference:
		if v.Kind == object.ByteArrayRef {
			raw = object.GoByteArrayFromJavaByteArray(v.Bytes)
		} else {
			errMsg := fmt.Sprintf("hashMapHash: unhashable array kind %d", v.Kind)
			return getGErrBlk(excNames.IllegalArgumentException, errMsg)
		}
	case bool:
		raw = make([]byte, 8)
		if v {
			raw[7] = 1
		}
	case int32:
		raw = make([]byte, 8)
		binary.BigEndian.PutUint64(raw, uint64(int64(v)))
	case int64:
		raw = make([]byte, 8)
		binary.BigEndian.PutUint64(raw, uint64(v))
	case float32:
		raw = make([]byte, 8)
		binary.BigEndian.PutUint64(raw, uint64(math.Float64bits(float64(v))))
	case float64:
		raw = make([]byte, 8)
		binary.BigEndian.PutUint64(raw, math.Float64bits(v))
	default:
		errMsg := fmt.Sprintf("hashMapHash: unrecognized value field type: %T", fld.Fvalue)
		return getGErrBlk(excNames.IllegalArgumentException, errMsg)
	}

	digest := md5.Sum(raw)
	folded := binary.BigEndian.Uint64(digest[:8])
	return int64(int32(folded ^ folded>>32))
}
