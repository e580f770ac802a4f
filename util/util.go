/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2022-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package util holds small, dependency-free helpers shared across the
// engine: class-name/path normalization and descriptor parsing.
package util

import (
	"path/filepath"
	"strings"
)

// ConvertToPlatformPathSeparators normalizes a class name that may use '.'
// or '/' separators (callers pass both forms) to the slash-delimited form
// the class loader and constant pool use internally.
func ConvertToPlatformPathSeparators(name string) string {
	name = strings.ReplaceAll(name, ".", "/")
	return filepath.ToSlash(name)
}

// ConvertInternalClassNameToUserFormat turns a slash-delimited internal
// class name into the dotted form users expect in exception messages.
func ConvertInternalClassNameToUserFormat(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

// ParseIncomingParamsFromMethTypeString splits a method descriptor's
// parameter list, e.g. "(ILjava/lang/String;[D)V" -> ["I", "Ljava/lang/String;", "[D"].
// It does not validate the descriptor beyond what's needed to split it;
// the class-file parser is responsible for rejecting malformed descriptors.
func ParseIncomingParamsFromMethTypeString(descriptor string) []string {
	open := strings.IndexByte(descriptor, '(')
	close := strings.IndexByte(descriptor, ')')
	if open == -1 || close == -1 || close < open {
		return nil
	}
	params := descriptor[open+1 : close]

	var result []string
	i := 0
	for i < len(params) {
		start := i
		for params[i] == '[' {
			i++
		}
		switch params[i] {
		case 'L':
			for params[i] != ';' {
				i++
			}
			i++
		default:
			i++
		}
		result = append(result, params[start:i])
	}
	return result
}

// MethodReturnType extracts the return-type descriptor following the
// closing paren of a method descriptor.
func MethodReturnType(descriptor string) string {
	close := strings.IndexByte(descriptor, ')')
	if close == -1 || close+1 >= len(descriptor) {
		return ""
	}
	return descriptor[close+1:]
}

// IsArrayDescriptor reports whether d denotes an array type ("[...").
func IsArrayDescriptor(d string) bool {
	return len(d) > 0 && d[0] == '['
}

// ArrayDimensions returns the number of leading '[' characters.
func ArrayDimensions(d string) int {
	n := 0
	for n < len(d) && d[n] == '[' {
		n++
	}
	return n
}

// ArrayComponentType strips one leading '[' from an array descriptor.
func ArrayComponentType(d string) string {
	if IsArrayDescriptor(d) {
		return d[1:]
	}
	return d
}
