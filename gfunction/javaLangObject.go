/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"fmt"

	"ristretto/object"
	"ristretto/types"
)

func Load_Lang_Object() {

	// Every interpreted constructor chains up to this eventually.
	MethodSignatures["java/lang/Object.<init>()V"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  justReturn,
		}

	MethodSignatures["java/lang/Object.hashCode()I"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  objectHashCode,
		}

	MethodSignatures["java/lang/Object.equals(Ljava/lang/Object;)Z"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  objectEquals,
		}

	MethodSignatures["java/lang/Object.getClass()Ljava/lang/Class;"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  trapFunction,
		}

	MethodSignatures["java/lang/Object.clone()Ljava/lang/Object;"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  trapFunction,
		}
}

// "java/lang/Object.hashCode()I" — identity hash, derived from the Go
// pointer. Stable for an object's lifetime because the Go runtime does
// not move heap allocations referenced from ordinary pointers.
func objectHashCode(params []any) any {
	obj, ok := params[0].(*object.Object)
	if !ok || obj == nil {
		return int64(0)
	}
	addr := fmt.Sprintf("%p", obj)
	var h uint32
	for i := 0; i < len(addr); i++ {
		h = h*31 + uint32(addr[i])
	}
	return int64(int32(h))
}

// "java/lang/Object.equals(Ljava/lang/Object;)Z" — reference identity.
func objectEquals(params []any) any {
	a, _ := params[0].(*object.Object)
	b, _ := params[1].(*object.Object)
	if a == b {
		return types.JavaBoolTrue
	}
	return types.JavaBoolFalse
}
