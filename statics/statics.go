/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package statics holds the process-wide table of static fields, keyed
// by "className.fieldName". Loaded classes persist for the process
// lifetime, so their statics live here rather than on the per-object
// field table; the collector treats the whole table as a root set.
package statics

import (
	"fmt"
	"sync"
)

// Static is one static field's declared type tag and current value. The
// Value's dynamic type is int64 for integral primitives, float64 for
// floating point, *object values for references (held as any to avoid an
// import cycle with the object package). Unlike object.Field, int and
// float statics are stored widened.
type Static struct {
	Type  string
	Value any
}

var statics = make(map[string]Static)
var staticsMutex = sync.RWMutex{}

// AddStatic records a static field under "className.fieldName". An empty
// name is rejected; overwriting an existing entry is allowed (putstatic
// does exactly that).
func AddStatic(name string, s Static) error {
	if name == "" {
		return fmt.Errorf("statics: attempt to add a static with an empty name")
	}
	staticsMutex.Lock()
	statics[name] = s
	staticsMutex.Unlock()
	return nil
}

// GetStaticValue fetches the value of className's fieldName static, or
// nil if no such static has been stored yet (a getstatic before any
// putstatic sees the field's zero value, which the caller derives from
// the declared descriptor).
func GetStaticValue(className, fieldName string) (any, bool) {
	staticsMutex.RLock()
	defer staticsMutex.RUnlock()
	s, ok := statics[className+"."+fieldName]
	return s.Value, ok
}

// Range calls fn for every stored static. Used by the collector's root
// walk over loaded-class static fields.
func Range(fn func(name string, s Static)) {
	staticsMutex.RLock()
	defer staticsMutex.RUnlock()
	for name, s := range statics {
		fn(name, s)
	}
}

// Reset clears the table. Tests call this between cases the same way
// they re-run globals.InitGlobals.
func Reset() {
	staticsMutex.Lock()
	statics = make(map[string]Static)
	staticsMutex.Unlock()
}
