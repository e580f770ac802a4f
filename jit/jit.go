/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jit

import (
	"fmt"
	"runtime"

	"ristretto/classfile"
)

// Compiler is the engine's native-code backend: a CFG pass for whole-
// method type validation, a scanner locating compilable runs, a builder
// lowering them, and a page allocator owning the executable memory.
type Compiler struct {
	builder   *amd64Builder
	allocator *pageAllocator
}

// CompiledUnit pairs one compiled candidate with its executable region.
type CompiledUnit struct {
	Candidate CompilationCandidate
	Unit      *NativeCodeUnit
	// ResumePC is the bytecode offset the interpreter continues from
	// after the native run completes.
	ResumePC int
}

// CompiledMethod is the result of compiling one method: its basic-block
// graph (always built, it doubles as the type-consistency check) and
// the native units for each compilable region.
type CompiledMethod struct {
	Blocks map[int]*Block
	Units  []CompiledUnit
}

// NewCompiler returns a Compiler, or an error on architectures without a
// native backend.
func NewCompiler() (*Compiler, error) {
	if runtime.GOARCH != "amd64" {
		return nil, fmt.Errorf("jit: no native backend for %s", runtime.GOARCH)
	}
	return &Compiler{builder: &amd64Builder{}, allocator: newPageAllocator()}, nil
}

// Close releases every executable region the compiler allocated.
func (c *Compiler) Close() error {
	return c.allocator.Close()
}

// Compile builds the method's block graph and lowers each candidate run
// to native code. A method whose block graph cannot be built (an
// unsupported opcode, a block-signature mismatch) is not compiled; the
// caller keeps interpreting it.
func (c *Compiler) Compile(cp *classfile.ConstantPool, code []byte) (*CompiledMethod, error) {
	blocks, err := BuildBlocks(cp, code)
	if err != nil {
		return nil, err
	}

	compiled := &CompiledMethod{Blocks: blocks}
	for _, candidate := range ScanFunc(code) {
		machineCode, err := c.builder.Build(candidate, code)
		if err != nil {
			return nil, err
		}
		unit, err := c.allocator.AllocateExec(machineCode)
		if err != nil {
			return nil, err
		}
		_, end := candidate.Bounds()
		compiled.Units = append(compiled.Units, CompiledUnit{
			Candidate: candidate,
			Unit:      unit,
			ResumePC:  end,
		})
	}
	return compiled, nil
}
