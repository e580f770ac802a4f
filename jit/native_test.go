/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jit

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ristretto/classfile"
	"ristretto/interpreter"
)

func TestScanFuncFindsArithmeticRun(t *testing.T) {
	code := []byte{
		interpreter.OpIconst1,
		interpreter.OpIconst2,
		interpreter.OpIadd,
		interpreter.OpBipush, 10,
		interpreter.OpImul,
		interpreter.OpIreturn, // unsupported: ends the run
	}

	candidates := ScanFunc(code)
	require.Len(t, candidates, 1)
	c := candidates[0]
	start, end := c.Bounds()
	assert.Equal(t, 0, start)
	assert.Equal(t, 6, end)
	assert.Equal(t, 2, c.Metrics.IntegerOps)
	assert.Equal(t, 3, c.Metrics.StackPushes)
}

func TestScanFuncSkipsTrivialRuns(t *testing.T) {
	code := []byte{
		interpreter.OpIconst1,
		interpreter.OpIconst2,
		interpreter.OpIadd, // only one arithmetic op
		interpreter.OpIreturn,
	}
	assert.Empty(t, ScanFunc(code))
}

func TestScanFuncSplitsAroundUnsupportedOpcodes(t *testing.T) {
	code := []byte{
		interpreter.OpIconst1,
		interpreter.OpIconst2,
		interpreter.OpIadd,
		interpreter.OpIneg,
		interpreter.OpIstore0, // unsupported
		interpreter.OpIconst3,
		interpreter.OpIconst4,
		interpreter.OpIsub,
		interpreter.OpIxor,
		interpreter.OpIreturn,
	}

	candidates := ScanFunc(code)
	require.Len(t, candidates, 2)
	assert.Equal(t, 0, candidates[0].Start)
	assert.Equal(t, 4, candidates[0].End)
	assert.Equal(t, 5, candidates[1].Start)
	assert.Equal(t, 9, candidates[1].End)
}

func TestBuilderProducesMachineCode(t *testing.T) {
	if runtime.GOARCH != "amd64" {
		t.Skipf("no native backend for %s", runtime.GOARCH)
	}
	code := []byte{
		interpreter.OpIconst1,
		interpreter.OpIconst2,
		interpreter.OpIadd,
	}
	b := &amd64Builder{}
	machineCode, err := b.Build(CompilationCandidate{Start: 0, End: len(code)}, code)
	require.NoError(t, err)
	assert.NotEmpty(t, machineCode)
	// The epilogue always ends with a RET.
	assert.Equal(t, byte(0xC3), machineCode[len(machineCode)-1])
}

func TestPageAllocatorMapsExecutableRegions(t *testing.T) {
	p := newPageAllocator()
	defer func() { require.NoError(t, p.Close()) }()

	asm := []byte{0xC3} // ret
	unit, err := p.AllocateExec(asm)
	require.NoError(t, err)
	assert.Equal(t, byte(0xC3), unit.Mem[0])
	assert.NotZero(t, unit.Entry())
}

func TestPageAllocatorRejectsEmptyCode(t *testing.T) {
	p := newPageAllocator()
	defer p.Close()
	_, err := p.AllocateExec(nil)
	assert.Error(t, err)
}

func TestCompilerEndToEnd(t *testing.T) {
	if runtime.GOARCH != "amd64" {
		t.Skipf("no native backend for %s", runtime.GOARCH)
	}
	c, err := NewCompiler()
	require.NoError(t, err)
	defer c.Close()

	cp := classfile.NewConstantPool()
	code := []byte{
		interpreter.OpIconst1,
		interpreter.OpIconst2,
		interpreter.OpIadd,
		interpreter.OpBipush, 3,
		interpreter.OpImul,
		interpreter.OpIreturn,
	}
	compiled, err := c.Compile(cp, code)
	require.NoError(t, err)
	require.Len(t, compiled.Units, 1)
	assert.Equal(t, 6, compiled.Units[0].ResumePC)
	assert.NotEmpty(t, compiled.Units[0].Unit.Mem)
	assert.Contains(t, compiled.Blocks, 0)
}
