/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"os"
	"testing"

	"ristretto/classloader"
	"ristretto/excNames"
	"ristretto/object"
	"ristretto/types"
)

func TestMain(m *testing.M) {
	classloader.Init()
	os.Exit(m.Run())
}

func TestMTableLoadRegistersCoreClasses(t *testing.T) {
	MTableLoadGFunctions()
	for _, sig := range []string{
		"java/lang/Object.<init>()V",
		"java/lang/String.length()I",
		"java/lang/Thread.sleep(J)V",
		"java/util/zip/CRC32.update(II)I",
	} {
		if _, ok := Resolve(sig, Java17); !ok {
			t.Errorf("expected %s to be registered", sig)
		}
	}
}

func TestResolveHonorsVersionScoping(t *testing.T) {
	MTableLoadGFunctions()

	// The pre-rename bulk entry points exist only through Java 8; their
	// zero-suffixed successors only after.
	for _, sig := range []string{
		"java/util/zip/CRC32.updateBytes(I[BII)I",
		"java/util/zip/CRC32.updateByteBuffer(IJII)I",
	} {
		if _, ok := Resolve(sig, Java8); !ok {
			t.Errorf("%s should resolve at Java 8", sig)
		}
		if _, ok := Resolve(sig, Java17); ok {
			t.Errorf("%s should not resolve past Java 8", sig)
		}
	}
	for _, sig := range []string{
		"java/util/zip/CRC32.updateBytes0(I[BII)I",
		"java/util/zip/CRC32.updateByteBuffer0(IJII)I",
	} {
		if _, ok := Resolve(sig, Java17); !ok {
			t.Errorf("%s should resolve at Java 17", sig)
		}
		if _, ok := Resolve(sig, Java8); ok {
			t.Errorf("%s should not resolve at Java 8", sig)
		}
	}

	// Both generations of the bulk update run the same CRC body.
	gm8, _ := Resolve("java/util/zip/CRC32.updateBytes(I[BII)I", Java8)
	gm17, _ := Resolve("java/util/zip/CRC32.updateBytes0(I[BII)I", Java17)
	arr := byteArrayObject([]byte("abc"))
	if gm8.GFunction([]any{int64(0), arr, int64(0), int64(3)}) != gm17.GFunction([]any{int64(0), arr, int64(0), int64(3)}) {
		t.Error("updateBytes and updateBytes0 must compute the same CRC")
	}
}

func TestVersionSpecificationPredicates(t *testing.T) {
	cases := []struct {
		name  string
		spec  VersionSpecification
		major uint16
		want  bool
	}{
		{"any", Any(), 45, true},
		{"equal hit", Equal(61), 61, true},
		{"equal miss", Equal(61), 62, false},
		{"notEqual", NotEqual(61), 62, true},
		{"lessThan", LessThan(52), 51, true},
		{"lessThanOrEqual", LessThanOrEqual(52), 52, true},
		{"greaterThan miss", GreaterThan(52), 52, false},
		{"greaterThanOrEqual", GreaterThanOrEqual(52), 52, true},
		{"between inside", Between(52, 61), 55, true},
		{"between outside", Between(52, 61), 65, false},
		{"in hit", In(52, 61, 65), 61, true},
		{"in miss", In(52, 61, 65), 55, false},
	}
	for _, c := range cases {
		if got := c.spec.Matches(c.major); got != c.want {
			t.Errorf("%s: Matches(%d) = %v, want %v", c.name, c.major, got, c.want)
		}
	}
}

// CRC-32 of "abc" starting from 0 must be 0x352441C2.
func TestCRC32UpdateABC(t *testing.T) {
	crc := int64(0)
	for _, b := range []byte("abc") {
		ret := crc32Update([]any{crc, int64(b)})
		var ok bool
		crc, ok = ret.(int64)
		if !ok {
			t.Fatalf("crc32Update returned %T", ret)
		}
	}
	if uint32(crc) != 0x352441C2 {
		t.Errorf("CRC-32(abc) = 0x%08X, want 0x352441C2", uint32(crc))
	}
}

func TestCRC32UpdateBytesMatchesByteAtATime(t *testing.T) {
	raw := []byte("hello, world")
	arr := byteArrayObject(raw)
	ret := crc32UpdateBytes([]any{int64(0), arr, int64(0), int64(len(raw))})
	bulk, ok := ret.(int64)
	if !ok {
		t.Fatalf("crc32UpdateBytes returned %T", ret)
	}

	crc := int64(0)
	for _, b := range raw {
		crc = crc32Update([]any{crc, int64(b)}).(int64)
	}
	if bulk != crc {
		t.Errorf("bulk CRC 0x%08X != incremental CRC 0x%08X", uint32(bulk), uint32(crc))
	}
}

func TestCRC32UpdateBytesRejectsBadBounds(t *testing.T) {
	arr := byteArrayObject([]byte("abc"))
	ret := crc32UpdateBytes([]any{int64(0), arr, int64(2), int64(5)})
	blk, ok := ret.(*GErrBlk)
	if !ok {
		t.Fatalf("expected a GErrBlk, got %T", ret)
	}
	if blk.ExceptionType != excNames.ArrayIndexOutOfBoundsException {
		t.Errorf("exception type = %v, want ArrayIndexOutOfBoundsException", blk.ExceptionType)
	}
}

func TestStringIntrinsics(t *testing.T) {
	s1 := object.StringObjectFromGoString("sea")
	s2 := object.StringObjectFromGoString("food")

	concat := stringConcat([]any{s1, s2}).(*object.Object)
	if got := object.GoStringFromStringObject(concat); got != "seafood" {
		t.Errorf("concat = %q, want seafood", got)
	}

	if stringContains([]any{concat, object.StringObjectFromGoString("foo")}) != types.JavaBoolTrue {
		t.Error("contains(seafood, foo) should be true")
	}

	sub := substringStartEnd([]any{concat, int64(3), int64(7)}).(*object.Object)
	if got := object.GoStringFromStringObject(sub); got != "food" {
		t.Errorf("substring(3,7) = %q, want food", got)
	}

	if stringLength([]any{concat}) != int64(7) {
		t.Error("length(seafood) should be 7")
	}

	bad := substringStartEnd([]any{concat, int64(5), int64(99)})
	if blk, ok := bad.(*GErrBlk); !ok || blk.ExceptionType != excNames.StringIndexOutOfBoundsException {
		t.Errorf("substring(5,99) should raise StringIndexOutOfBoundsException, got %v", bad)
	}
}

func TestTrapFunctionReportsLinkError(t *testing.T) {
	ret := trapFunction(nil)
	blk, ok := ret.(*GErrBlk)
	if !ok {
		t.Fatalf("trapFunction returned %T", ret)
	}
	if blk.ExceptionType != excNames.UnsatisfiedLinkError {
		t.Errorf("exception type = %v, want UnsatisfiedLinkError", blk.ExceptionType)
	}
}
