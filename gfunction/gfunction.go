/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package gfunction is the engine's intrinsic-method registry:
// native-declared Java methods whose bodies live here in Go.
// Each file groups the intrinsics for one JDK class; its Load_* function
// inserts entries into MethodSignatures, which MTableLoadGFunctions runs
// once at engine startup. The registry is read-only afterwards.
package gfunction

import (
	"sync"

	"ristretto/excNames"
)

/*
 Each object or library that has Go methods contains a reference to
 MethodSignatures, which contain the data needed to dispatch a bytecode
 call to the Go implementation. MethodSignatures is a map whose key is
 the fully qualified name and type of the method (that is, the method's
 full signature) and whose value holds the number of parameter slots and
 the function to run. All intrinsics share one Go signature regardless of
 their Java signature: a slice of any in, one any out. The slice carries
 the receiver first for instance methods, then one entry per declared
 parameter; integral primitives arrive as int64, floating point as
 float64, references as *object.Object. A nil return is a void return; a
 *GErrBlk return raises the named Java exception in the caller.
*/

// GFunction is the common Go signature every intrinsic body has.
type GFunction func(params []any) any

// GMeth describes one intrinsic: how many parameter slots its Java
// signature consumes and the Go function implementing it. Versions
// restricts the entry to class files whose major version matches; the
// zero value (nil) means Any.
type GMeth struct {
	ParamSlots int
	GFunction  GFunction
	Versions   VersionSpecification
}

// MethodSignatures is the version-unscoped table most intrinsics live
// in. Version-scoped declarations go through RegisterVersioned instead.
var MethodSignatures = make(map[string]GMeth)

// versionedSignatures holds the entries whose visibility depends on the
// loaded class's major version.
var versionedSignatures = make(map[string][]GMeth)

var registryOnce sync.Once

// VersionSpecification is a predicate over a class file's major version,
// scoping an intrinsic's visibility to the Java releases it exists in.
type VersionSpecification interface {
	Matches(major uint16) bool
}

type anyVersion struct{}
type equal struct{ v uint16 }
type notEqual struct{ v uint16 }
type lessThan struct{ v uint16 }
type lessThanOrEqual struct{ v uint16 }
type greaterThan struct{ v uint16 }
type greaterThanOrEqual struct{ v uint16 }
type between struct{ lo, hi uint16 }
type in struct{ vs []uint16 }

func (anyVersion) Matches(uint16) bool             { return true }
func (s equal) Matches(m uint16) bool              { return m == s.v }
func (s notEqual) Matches(m uint16) bool           { return m != s.v }
func (s lessThan) Matches(m uint16) bool           { return m < s.v }
func (s lessThanOrEqual) Matches(m uint16) bool    { return m <= s.v }
func (s greaterThan) Matches(m uint16) bool        { return m > s.v }
func (s greaterThanOrEqual) Matches(m uint16) bool { return m >= s.v }
func (s between) Matches(m uint16) bool            { return m >= s.lo && m <= s.hi }
func (s in) Matches(m uint16) bool {
	for _, v := range s.vs {
		if v == m {
			return true
		}
	}
	return false
}

func Any() VersionSpecification                        { return anyVersion{} }
func Equal(v uint16) VersionSpecification              { return equal{v} }
func NotEqual(v uint16) VersionSpecification           { return notEqual{v} }
func LessThan(v uint16) VersionSpecification           { return lessThan{v} }
func LessThanOrEqual(v uint16) VersionSpecification    { return lessThanOrEqual{v} }
func GreaterThan(v uint16) VersionSpecification        { return greaterThan{v} }
func GreaterThanOrEqual(v uint16) VersionSpecification { return greaterThanOrEqual{v} }
func Between(lo, hi uint16) VersionSpecification       { return between{lo, hi} }
func In(vs ...uint16) VersionSpecification             { return in{vs} }

// Class-file major versions for the Java releases intrinsics are scoped
// by, mirroring the JVMS version table.
const (
	Java8  = 52
	Java11 = 55
	Java17 = 61
	Java21 = 65
	Java25 = 69
)

// RegisterVersioned adds a version-scoped intrinsic under signature.
// Multiple registrations for the same signature with disjoint version
// ranges are the expected use; Resolve picks the unique match.
func RegisterVersioned(signature string, gm GMeth) {
	versionedSignatures[signature] = append(versionedSignatures[signature], gm)
}

// Resolve finds the intrinsic for signature visible at the given class
// major version: the unique matching version-scoped entry if one exists,
// else the unscoped MethodSignatures entry.
func Resolve(signature string, major uint16) (GMeth, bool) {
	for _, gm := range versionedSignatures[signature] {
		spec := gm.Versions
		if spec == nil {
			spec = anyVersion{}
		}
		if spec.Matches(major) {
			return gm, true
		}
	}
	gm, ok := MethodSignatures[signature]
	if ok && gm.Versions != nil && !gm.Versions.Matches(major) {
		return GMeth{}, false
	}
	return gm, ok
}

// GErrBlk is the error block an intrinsic returns to raise a Java
// exception in its caller instead of supplying a value.
type GErrBlk struct {
	ExceptionType excNames.JVMExceptionType
	ErrMsg        string
}

func (g *GErrBlk) Error() string {
	return excNames.GetExceptionNameFromType(g.ExceptionType) + ": " + g.ErrMsg
}

func getGErrBlk(exceptionType excNames.JVMExceptionType, errMsg string) *GErrBlk {
	return &GErrBlk{ExceptionType: exceptionType, ErrMsg: errMsg}
}

// MTableLoadGFunctions populates the registry from every per-class
// loader. Safe to call more than once; only the first call does work,
// since the registry is a process-wide read-only table.
func MTableLoadGFunctions() {
	registryOnce.Do(func() {
		Load_Lang_Object()
		Load_Lang_String()
		Load_Lang_StringBuilder()
		Load_Lang_Thread()
		Load_Io_InputStreamReader()
		Load_Util_HashMap()
		Load_Util_Zip_CRC32()
		Load_Jdk_Internal_Misc_ScopedMemoryAccess()
	})
}

// justReturn is the no-op body used by registerNatives, empty <clinit>
// markers, and similar declarations whose only job is to exist.
func justReturn([]any) any {
	return nil
}

// trapFunction reports a declared-but-unimplemented intrinsic as a
// linkage-style error rather than aborting.
func trapFunction([]any) any {
	return getGErrBlk(excNames.UnsatisfiedLinkError, "intrinsic declared but not yet implemented")
}

// trapDeprecated is trapFunction's sibling for methods the JDK itself
// deprecated; kept distinct so the message names the real reason.
func trapDeprecated([]any) any {
	return getGErrBlk(excNames.UnsupportedOperationException, "deprecated method not supported")
}
