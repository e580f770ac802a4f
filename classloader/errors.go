/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import "fmt"

// CFE wraps a message as a class format error, matching the wording the
// JVM spec's java/lang/ClassFormatError uses.
func CFE(msg string) error {
	return fmt.Errorf("class format error: %s", msg)
}
