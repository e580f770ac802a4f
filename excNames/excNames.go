/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2022-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package excNames holds the fully qualified class names of the JDK
// exception/error classes the engine needs to reference without importing
// an actual loaded class (bootstrapping the exception hierarchy requires
// naming exceptions before classes can be loaded at all).
package excNames

// JVMExceptionType is an index into the table below, used by components
// that need to name an exception kind without formatting its class name
// at every call site.
type JVMExceptionType int

// The exception classes the engine raises from runtime checks. Not
// exhaustive of the JDK's full exception hierarchy — only the ones the
// interpreter, verifier, and intrinsics raise directly.
const (
	Unknown JVMExceptionType = iota
	ArithmeticException
	ArrayIndexOutOfBoundsException
	ArrayStoreException
	ClassCastException
	ClassNotFoundException
	ClassFormatError
	CloneNotSupportedException
	IllegalAccessException
	IllegalArgumentException
	IllegalMonitorStateException
	IllegalStateException
	IndexOutOfBoundsException
	InterruptedException
	IOException
	LinkageError
	NegativeArraySizeException
	NoClassDefFoundError
	NoSuchFieldError
	NoSuchMethodError
	NullPointerException
	NumberFormatException
	OutOfMemoryError
	PatternSyntaxException
	StackOverflowError
	StringIndexOutOfBoundsException
	UnsatisfiedLinkError
	UnsupportedOperationException
	VerifyError
)

// JVMExceptionNames maps each exception kind to its fully qualified, slash
// delimited class name, exactly as it would appear in a constant pool
// ClassRef entry.
var JVMExceptionNames = map[JVMExceptionType]string{
	Unknown:                         "java/lang/Exception",
	ArithmeticException:             "java/lang/ArithmeticException",
	ArrayIndexOutOfBoundsException:  "java/lang/ArrayIndexOutOfBoundsException",
	ArrayStoreException:             "java/lang/ArrayStoreException",
	ClassCastException:              "java/lang/ClassCastException",
	ClassNotFoundException:          "java/lang/ClassNotFoundException",
	ClassFormatError:                "java/lang/ClassFormatError",
	CloneNotSupportedException:      "java/lang/CloneNotSupportedException",
	IllegalAccessException:          "java/lang/IllegalAccessException",
	IllegalArgumentException:        "java/lang/IllegalArgumentException",
	IllegalMonitorStateException:    "java/lang/IllegalMonitorStateException",
	IllegalStateException:           "java/lang/IllegalStateException",
	IndexOutOfBoundsException:       "java/lang/IndexOutOfBoundsException",
	InterruptedException:            "java/lang/InterruptedException",
	IOException:                     "java/io/IOException",
	LinkageError:                    "java/lang/LinkageError",
	NegativeArraySizeException:      "java/lang/NegativeArraySizeException",
	NoClassDefFoundError:            "java/lang/NoClassDefFoundError",
	NoSuchFieldError:                "java/lang/NoSuchFieldError",
	NoSuchMethodError:               "java/lang/NoSuchMethodError",
	NullPointerException:            "java/lang/NullPointerException",
	NumberFormatException:           "java/lang/NumberFormatException",
	OutOfMemoryError:                "java/lang/OutOfMemoryError",
	PatternSyntaxException:          "java/util/regex/PatternSyntaxException",
	StackOverflowError:              "java/lang/StackOverflowError",
	StringIndexOutOfBoundsException: "java/lang/StringIndexOutOfBoundsException",
	UnsatisfiedLinkError:            "java/lang/UnsatisfiedLinkError",
	UnsupportedOperationException:   "java/lang/UnsupportedOperationException",
	VerifyError:                     "java/lang/VerifyError",
}

// GetExceptionNameFromType returns the fully qualified class name for a
// given exception kind, or the Unknown name if the kind is unrecognized.
func GetExceptionNameFromType(t JVMExceptionType) string {
	if name, ok := JVMExceptionNames[t]; ok {
		return name
	}
	return JVMExceptionNames[Unknown]
}
