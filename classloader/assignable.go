/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import "ristretto/verifier"

// IsAssignableFrom reports whether a value of source's type can be
// stored where target's type is expected: identical handles are always
// assignable, java/lang/Object accepts everything, array assignability
// recurses on component types (with primitive arrays requiring an exact
// name match), and otherwise the check walks source's parent and
// interfaces.
func IsAssignableFrom(target, source *LoadedClass) (bool, error) {
	if target == source {
		return true, nil
	}
	if target.Name == "java/lang/Object" {
		return true, nil
	}

	if target.IsArray() && source.IsArray() {
		return arrayAssignable(target, source)
	}

	if parent, err := source.Parent(); err != nil {
		return false, err
	} else if parent != nil {
		if ok, err := IsAssignableFrom(target, parent); err != nil {
			return false, err
		} else if ok {
			return true, nil
		}
	}

	interfaces, err := source.Interfaces()
	if err != nil {
		return false, err
	}
	for _, iface := range interfaces {
		if ok, err := IsAssignableFrom(target, iface); err != nil {
			return false, err
		} else if ok {
			return true, nil
		}
	}

	return false, nil
}

// InstallVerifierResolver points the bytecode verifier's object-type
// join at cl's type graph, so two reference types merge to their nearest
// common supertype instead of degrading to java/lang/Object. Called once
// by Init for the standard loader hierarchy; isolated loaders (tests,
// embedders) install their own.
func InstallVerifierResolver(cl *Classloader) {
	verifier.SetSupertypeResolver(func(a, b string) (string, bool) {
		return cl.CommonSupertype(a, b)
	})
}

// CommonSupertype walks a's superclass chain for the nearest class that
// b is also assignable to. Both names must already be loadable through
// cl; the walk bottoms out at java/lang/Object.
func (cl *Classloader) CommonSupertype(a, b string) (string, bool) {
	classA, err := cl.Load(a)
	if err != nil {
		return "", false
	}
	classB, err := cl.Load(b)
	if err != nil {
		return "", false
	}
	for cur := classA; cur != nil; {
		ok, err := IsAssignableFrom(cur, classB)
		if err != nil {
			return "", false
		}
		if ok {
			return cur.Name, true
		}
		parent, err := cur.Parent()
		if err != nil {
			return "", false
		}
		cur = parent
	}
	return "java/lang/Object", true
}

func arrayAssignable(target, source *LoadedClass) (bool, error) {
	if target.ArrayDimensions == source.ArrayDimensions {
		targetPrimitive := isPrimitiveDescriptor(target.ComponentName)
		sourcePrimitive := isPrimitiveDescriptor(source.ComponentName)

		if targetPrimitive && sourcePrimitive {
			return target.ComponentName == source.ComponentName, nil
		}
		if targetPrimitive != sourcePrimitive {
			return false, nil
		}

		targetComp, err := target.ComponentClass()
		if err != nil {
			return false, nil
		}
		sourceComp, err := source.ComponentClass()
		if err != nil {
			return false, nil
		}
		return IsAssignableFrom(targetComp, sourceComp)
	}

	// "target is [Ljava/lang/Object; and source has strictly greater array
	// dimension" — any multi-dimensional array (primitive or object) is
	// itself an array of Objects one level down.
	if target.ArrayDimensions < source.ArrayDimensions && target.Name == "[Ljava/lang/Object;" {
		return true, nil
	}
	return false, nil
}
