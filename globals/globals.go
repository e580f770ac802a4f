/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package globals holds the single process-wide configuration struct the
// rest of the engine reads from. It is deliberately a package global (not
// threaded through every call) because the class-loader cache, the
// intrinsic registry, and the bundled image reader are themselves
// process-wide singletons, created once and never torn down before
// process exit.
package globals

import (
	"sync"
)

// VerifyMode controls when the bytecode verifier runs.
type VerifyMode int

const (
	VerifyAll VerifyMode = iota
	VerifyRemote
	VerifyNone
)

// FallbackMode controls what the verifier does when StackMapTable is
// absent or invalid.
type FallbackMode int

const (
	FallbackStrict FallbackMode = iota
	FallbackToInference
	AlwaysInference
)

// Globals is the engine-wide configuration and bookkeeping struct.
type Globals struct {
	EngineName         string // the name the engine reports in -version
	Version            string
	StrictJDK          bool
	ExitNow            bool
	JvmFrameStackShown bool

	VerifyMode              VerifyMode
	Fallback                FallbackMode
	StackmapRequiredVersion int
	MaxInferenceIterations  int
	VerifyVerbose           bool
	VerifyTracing           bool
	VerifyCacheResults      bool
	PermissiveJsrRet        bool
	StrictExceptionTyping   bool

	GCAllocationThreshold uint64

	ModulePath        []string
	UpgradeModulePath []string
	MainModule        string
	AddModules        []string
	LimitModules      []string
	AddReads          map[string]string
	AddExports        map[string][]string
	AddOpens          map[string][]string
	PatchModule       map[string]string

	FrameStackDepthLimit int

	mutex sync.Mutex
}

var global *Globals
var once sync.Once

// InitGlobals (re)initializes the singleton Globals, which is what most
// tests call between cases to reset state.
func InitGlobals(name string) *Globals {
	global = &Globals{
		EngineName:              name,
		Version:                 "0.1.0",
		VerifyMode:              VerifyAll,
		Fallback:                FallbackToInference,
		StackmapRequiredVersion: 50,
		MaxInferenceIterations:  1000,
		GCAllocationThreshold:   4 << 20,
		AddReads:                make(map[string]string),
		AddExports:              make(map[string][]string),
		AddOpens:                make(map[string][]string),
		PatchModule:             make(map[string]string),
		FrameStackDepthLimit:    1024,
	}
	return global
}

// GetGlobalRef returns the process-wide Globals, initializing it with
// defaults on first use if InitGlobals was never called.
func GetGlobalRef() *Globals {
	once.Do(func() {
		if global == nil {
			global = InitGlobals("ristretto")
		}
	})
	if global == nil {
		global = InitGlobals("ristretto")
	}
	return global
}

// ShouldVerify reports whether a class from a trusted or untrusted
// source must be verified under the configured mode.
func (g *Globals) ShouldVerify(trusted bool) bool {
	switch g.VerifyMode {
	case VerifyAll:
		return true
	case VerifyRemote:
		return !trusted
	default:
		return false
	}
}

// Lock/Unlock expose the globals mutex for call sites (e.g. class
// initialization races) that need to serialize on the single global
// struct rather than maintain their own lock.
func (g *Globals) Lock()   { g.mutex.Lock() }
func (g *Globals) Unlock() { g.mutex.Unlock() }
