/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

// ScopedMemoryAccess only needs its registration hooks to exist: the
// class's <clinit> and registerNatives are called during JDK bootstrap
// but do nothing this engine relies on.

func Load_Jdk_Internal_Misc_ScopedMemoryAccess() {

	MethodSignatures["jdk/internal/misc/ScopedMemoryAccess.<clinit>()V"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  justReturn,
		}

	MethodSignatures["jdk/internal/misc/ScopedMemoryAccess.registerNatives()V"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  justReturn,
		}
}
