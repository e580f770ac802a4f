/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2023-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package stringPool is the engine-wide deduplicated table of Go strings,
// each stored once and addressed by a uint32 index. Its reader outside
// this package is object.JavaByteArrayFromStringPoolIndex; the class
// loader and the constant pool keep their own names and do not intern
// into it.
package stringPool

import "sync"

var (
	mutex sync.RWMutex
	pool  []string
	index map[string]uint32
)

func init() {
	reset()
}

func reset() {
	pool = make([]string, 0, 256)
	index = make(map[string]uint32)
	// slot 0 is reserved as the sentinel "absent" index, mirroring the
	// constant-pool's 1-based/0-is-absent convention.
	pool = append(pool, "")
}

// Reset clears the pool. Exposed for tests that need a clean pool between
// cases.
func Reset() {
	mutex.Lock()
	defer mutex.Unlock()
	reset()
}

// GetStringIndex interns s, returning its (possibly newly assigned) index.
func GetStringIndex(s string) uint32 {
	mutex.Lock()
	defer mutex.Unlock()
	if idx, ok := index[s]; ok {
		return idx
	}
	idx := uint32(len(pool))
	pool = append(pool, s)
	index[s] = idx
	return idx
}

// GetStringPointer returns a pointer to the interned string at idx, or nil
// if idx is out of range.
func GetStringPointer(idx uint32) *string {
	mutex.RLock()
	defer mutex.RUnlock()
	if idx >= uint32(len(pool)) {
		return nil
	}
	return &pool[idx]
}

// GetStringPoolSize returns the number of interned entries, including the
// sentinel slot 0.
func GetStringPoolSize() uint32 {
	mutex.RLock()
	defer mutex.RUnlock()
	return uint32(len(pool))
}
