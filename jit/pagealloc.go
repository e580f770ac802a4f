/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jit

import (
	"fmt"
	"unsafe"

	"github.com/edsrzf/mmap-go"
)

// pageAllocator owns the executable memory regions compiled code lives
// in. Each AllocateExec call maps a fresh anonymous region sized to the
// code; Close unmaps everything.
type pageAllocator struct {
	regions []mmap.MMap
}

func newPageAllocator() *pageAllocator {
	return &pageAllocator{}
}

// NativeCodeUnit is one executable region holding a compiled sequence.
type NativeCodeUnit struct {
	Mem mmap.MMap
}

// Entry returns the address of the first instruction.
func (u *NativeCodeUnit) Entry() uintptr {
	return uintptr(unsafe.Pointer(&u.Mem[0]))
}

// AllocateExec maps an anonymous read/write/execute region and copies
// asm into it.
func (p *pageAllocator) AllocateExec(asm []byte) (*NativeCodeUnit, error) {
	if len(asm) == 0 {
		return nil, fmt.Errorf("jit: empty code sequence")
	}
	region, err := mmap.MapRegion(nil, len(asm), mmap.RDWR|mmap.EXEC, mmap.ANON, 0)
	if err != nil {
		return nil, fmt.Errorf("jit: mapping executable page: %w", err)
	}
	copy(region, asm)
	p.regions = append(p.regions, region)
	return &NativeCodeUnit{Mem: region}, nil
}

// Close unmaps every region this allocator handed out. Compiled code
// must not run afterwards.
func (p *pageAllocator) Close() error {
	var firstErr error
	for _, r := range p.regions {
		if err := r.Unmap(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.regions = nil
	return firstErr
}
