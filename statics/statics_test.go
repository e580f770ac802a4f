/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package statics

import "testing"

func TestAddAndGetStatic(t *testing.T) {
	Reset()
	if err := AddStatic("Main.counter", Static{Type: "I", Value: int64(7)}); err != nil {
		t.Fatalf("AddStatic: %v", err)
	}
	v, ok := GetStaticValue("Main", "counter")
	if !ok || v.(int64) != 7 {
		t.Errorf("GetStaticValue = %v, %v", v, ok)
	}

	// putstatic overwrites
	if err := AddStatic("Main.counter", Static{Type: "I", Value: int64(8)}); err != nil {
		t.Fatalf("AddStatic: %v", err)
	}
	v, _ = GetStaticValue("Main", "counter")
	if v.(int64) != 8 {
		t.Errorf("overwrite failed, got %v", v)
	}
}

func TestAddStaticRejectsEmptyName(t *testing.T) {
	if err := AddStatic("", Static{}); err == nil {
		t.Error("an empty name must be rejected")
	}
}

func TestMissingStatic(t *testing.T) {
	Reset()
	if _, ok := GetStaticValue("No", "such"); ok {
		t.Error("a never-written static must report absent")
	}
}

func TestRangeVisitsEveryEntry(t *testing.T) {
	Reset()
	_ = AddStatic("A.x", Static{Type: "I", Value: int64(1)})
	_ = AddStatic("B.y", Static{Type: "J", Value: int64(2)})
	seen := 0
	Range(func(name string, s Static) { seen++ })
	if seen != 2 {
		t.Errorf("Range visited %d entries, want 2", seen)
	}
}
