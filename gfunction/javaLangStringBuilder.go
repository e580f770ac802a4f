/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"ristretto/types"
)

func Load_Lang_StringBuilder() {

	MethodSignatures["java/lang/StringBuilder.isLatin1()Z"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  isLatin1,
		}
}

// "java/lang/StringBuilder.isLatin1()Z"
// Always true: the engine's backing arrays are byte arrays of MUTF-8
// text, and nothing upgrades them to UTF-16 yet.
func isLatin1([]any) any {
	return types.JavaBoolTrue
}
