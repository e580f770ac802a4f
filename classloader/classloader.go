/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classloader resolves class names to loaded classes, caching
// one handle per name per loader and implementing the engine's
// assignability rule. Most of the comments and code
// presuppose some familiarity with the role of classloaders; see
// https://docs.oracle.com/javase/specs/jvms/se17/html/jvms-5.html#jvms-5.3
package classloader

import (
	"fmt"
	"strings"
	"sync"

	"ristretto/classfile"
	"ristretto/excNames"
	"ristretto/globals"
	"ristretto/verifier"
)

// InitState is a loaded class's lazy-initialization state.
type InitState int

const (
	Uninitialized InitState = iota
	Initializing
	Initialized
	Erroneous
)

// LoadedClass is a cached, resolved class handle: its parsed class file
// plus everything resolved lazily from it (parent, interfaces, method
// table) and its initialization state.
type LoadedClass struct {
	Name        string
	Loader      *Classloader
	ClassFile   *classfile.ClassFile
	AccessFlags uint16

	// Array classes only: ComponentName is the component type's
	// descriptor/name and ComponentClass is resolved lazily on first use.
	ArrayDimensions int
	ComponentName   string
	componentClass  *LoadedClass

	methods map[string]*classfile.MethodInfo
	fields  map[string]*classfile.FieldInfo

	mu         sync.Mutex
	cond       *sync.Cond // lazily created; signaled on every init-state transition
	state      InitState
	initThread uint64 // goroutine-local thread id owning an in-progress Initializing state
	initErr    error
}

// IsArray reports whether this handle represents a synthetic array class.
func (lc *LoadedClass) IsArray() bool { return strings.HasPrefix(lc.Name, "[") }

// IsInterface reports whether the access flags mark this class as an
// interface.
func (lc *LoadedClass) IsInterface() bool {
	return lc.ClassFile != nil && lc.ClassFile.IsInterface()
}

// Parent returns the resolved superclass handle, or nil for
// java/lang/Object and for interfaces with no superclass entry.
func (lc *LoadedClass) Parent() (*LoadedClass, error) {
	if lc.ClassFile == nil || lc.ClassFile.SuperClass == 0 {
		return nil, nil
	}
	name, err := lc.ClassFile.SuperClassName()
	if err != nil {
		return nil, err
	}
	return lc.Loader.Load(name)
}

// Interfaces returns the resolved handles for every interface this class
// directly implements.
func (lc *LoadedClass) Interfaces() ([]*LoadedClass, error) {
	if lc.ClassFile == nil {
		return nil, nil
	}
	out := make([]*LoadedClass, 0, len(lc.ClassFile.Interfaces))
	for _, idx := range lc.ClassFile.Interfaces {
		name, err := lc.ClassFile.ConstantPool.ClassName(idx)
		if err != nil {
			return nil, err
		}
		iface, err := lc.Loader.Load(name)
		if err != nil {
			return nil, err
		}
		out = append(out, iface)
	}
	return out, nil
}

// ComponentClass resolves and caches an array class's component type.
func (lc *LoadedClass) ComponentClass() (*LoadedClass, error) {
	if !lc.IsArray() {
		return nil, fmt.Errorf("classloader: %s is not an array class", lc.Name)
	}
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if lc.componentClass != nil {
		return lc.componentClass, nil
	}
	comp, err := lc.Loader.Load(lc.ComponentName)
	if err != nil {
		return nil, err
	}
	lc.componentClass = comp
	return comp, nil
}

// Method looks up a method by (name, descriptor).
func (lc *LoadedClass) Method(name, descriptor string) (*classfile.MethodInfo, bool) {
	m, ok := lc.methods[name+":"+descriptor]
	return m, ok
}

// ResolveMethod walks this class, then its superclass chain, returning the
// first (name, descriptor) match along with the class that declares it —
// the walk virtual dispatch performs: upward from the receiver's class
// through its superclass chain.
func (lc *LoadedClass) ResolveMethod(name, descriptor string) (*LoadedClass, *classfile.MethodInfo, bool) {
	for cur := lc; cur != nil; {
		if m, ok := cur.Method(name, descriptor); ok {
			return cur, m, true
		}
		parent, err := cur.Parent()
		if err != nil {
			return nil, nil, false
		}
		cur = parent
	}
	return nil, nil, false
}

// DeclaredField looks up a field declared directly on this class (not its
// ancestors) by name. object.NewObject walks the parent chain itself to
// implement the self-then-parent, first-write-wins field enumeration.
func (lc *LoadedClass) DeclaredField(name string) (*classfile.FieldInfo, bool) {
	f, ok := lc.fields[name]
	return f, ok
}

// DeclaredFieldNames returns the names of every field declared directly on
// this class, in class-file order.
func (lc *LoadedClass) DeclaredFieldNames() []string {
	if lc.ClassFile == nil {
		return nil
	}
	names := make([]string, 0, len(lc.ClassFile.Fields))
	for i := range lc.ClassFile.Fields {
		nameVal, err := lc.ClassFile.ConstantPool.Get(lc.ClassFile.Fields[i].NameIndex)
		if err != nil || nameVal == nil {
			continue
		}
		n, err := nameVal.AsString()
		if err != nil {
			continue
		}
		names = append(names, n)
	}
	return names
}

// MajorVersion returns the class file's major version, 0 for synthetic
// array/primitive classes that have no backing class file.
func (lc *LoadedClass) MajorVersion() uint16 {
	if lc.ClassFile == nil {
		return 0
	}
	return lc.ClassFile.MajorVersion
}

// Classloader holds the classes it has loaded, keyed by fully-qualified
// name, so that repeated Load calls for the same name return the same
// handle.
type Classloader struct {
	Name   string
	Parent *Classloader

	mu      sync.RWMutex
	classes map[string]*LoadedClass
}

// AppCL is the application classloader, which loads most of the app's
// classes.
var AppCL Classloader

// BootstrapCL is the classloader that loads the standard library.
var BootstrapCL Classloader

// ExtensionCL is the classloader typically used for loading agents/extensions.
var ExtensionCL Classloader

// Init wires up the three-tier classloader delegation hierarchy
// (Bootstrap <- Extension <- App), mirroring the JVM's standard loader
// topology.
func Init() error {
	BootstrapCL = Classloader{Name: "bootstrap", classes: make(map[string]*LoadedClass)}
	ExtensionCL = Classloader{Name: "extension", Parent: &BootstrapCL, classes: make(map[string]*LoadedClass)}
	AppCL = Classloader{Name: "app", Parent: &ExtensionCL, classes: make(map[string]*LoadedClass)}
	InstallVerifierResolver(&AppCL)
	return nil
}

// NewClassloader constructs a standalone Classloader, for callers (tests,
// embedders) that need an isolated loader outside the package-level
// Bootstrap/Extension/App hierarchy Init wires up.
func NewClassloader(name string, parent *Classloader) *Classloader {
	return &Classloader{Name: name, Parent: parent, classes: make(map[string]*LoadedClass)}
}

func (cl *Classloader) lookupCached(name string) (*LoadedClass, bool) {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	lc, ok := cl.classes[name]
	return lc, ok
}

// Load resolves name to a shared LoadedClass handle. Parent
// loaders are consulted before self; if no loader in the chain already
// has the class cached and name is not an array or primitive descriptor,
// Load fails — class bytes must be installed via LoadClassFromBytes
// first (this engine doesn't reach into a filesystem classpath itself;
// that's the job of the caller wiring jimage/jar lookups in).
func (cl *Classloader) Load(name string) (*LoadedClass, error) {
	if strings.HasPrefix(name, "[") {
		return cl.loadArrayClass(name)
	}
	if isPrimitiveDescriptor(name) {
		return cl.loadPrimitiveClass(name)
	}
	if strings.HasPrefix(name, "L") && strings.HasSuffix(name, ";") {
		name = name[1 : len(name)-1] // unwrap an object-array component descriptor
	}

	for loader := cl; loader != nil; loader = loader.Parent {
		if lc, ok := loader.lookupCached(name); ok {
			return lc, nil
		}
	}
	return nil, fmt.Errorf("%s: %s", excNames.JVMExceptionNames[excNames.ClassNotFoundException], name)
}

func isPrimitiveDescriptor(name string) bool {
	switch name {
	case "B", "C", "D", "F", "I", "J", "S", "Z", "V":
		return true
	}
	return false
}

func (cl *Classloader) loadPrimitiveClass(name string) (*LoadedClass, error) {
	if lc, ok := cl.lookupCached(name); ok {
		return lc, nil
	}
	lc := &LoadedClass{Name: name, Loader: cl, state: Initialized}
	cl.mu.Lock()
	cl.classes[name] = lc
	cl.mu.Unlock()
	return lc, nil
}

// loadArrayClass synthesizes `[T` whenever `T` exists; array classes
// have no class file of their own.
func (cl *Classloader) loadArrayClass(name string) (*LoadedClass, error) {
	if lc, ok := cl.lookupCached(name); ok {
		return lc, nil
	}
	component := name[1:]
	if _, err := cl.Load(component); err != nil {
		return nil, fmt.Errorf("classloader: cannot synthesize array class %s: %w", name, err)
	}

	dims := 0
	for dims < len(name) && name[dims] == '[' {
		dims++
	}
	lc := &LoadedClass{
		Name:            name,
		Loader:          cl,
		ArrayDimensions: dims,
		ComponentName:   component,
		state:           Initialized,
	}
	cl.mu.Lock()
	cl.classes[name] = lc
	cl.mu.Unlock()
	return lc, nil
}

// LoadClassFromBytes parses, verifies, and installs a class into cl,
// caching it under its own fully-qualified name.
// trusted classes (typically anything loaded by BootstrapCL) may skip
// verification per globals.Globals.ShouldVerify.
func (cl *Classloader) LoadClassFromBytes(raw []byte, trusted bool) (*LoadedClass, error) {
	cf, err := classfile.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("classloader: %w", err)
	}

	g := globals.GetGlobalRef()
	if err := verifier.VerifyClass(cf, trusted, g); err != nil {
		return nil, fmt.Errorf("classloader: verification failed: %w", err)
	}

	name, err := cf.ThisClassName()
	if err != nil {
		return nil, fmt.Errorf("classloader: %w", err)
	}

	lc := &LoadedClass{
		Name:        name,
		Loader:      cl,
		ClassFile:   cf,
		AccessFlags: cf.AccessFlags,
		methods:     make(map[string]*classfile.MethodInfo, len(cf.Methods)),
		fields:      make(map[string]*classfile.FieldInfo, len(cf.Fields)),
	}
	for i := range cf.Methods {
		m := &cf.Methods[i]
		mname, _ := cf.ConstantPool.Get(m.NameIndex)
		mdesc, _ := cf.ConstantPool.Get(m.DescriptorIndex)
		if mname == nil || mdesc == nil {
			continue
		}
		n, _ := mname.AsString()
		d, _ := mdesc.AsString()
		lc.methods[n+":"+d] = m
	}
	for i := range cf.Fields {
		f := &cf.Fields[i]
		fname, _ := cf.ConstantPool.Get(f.NameIndex)
		if fname == nil {
			continue
		}
		n, _ := fname.AsString()
		if _, exists := lc.fields[n]; !exists {
			lc.fields[n] = f // first-write-wins
		}
	}

	cl.mu.Lock()
	if existing, ok := cl.classes[name]; ok {
		cl.mu.Unlock()
		return existing, nil // repeated load of the same name returns the same handle
	}
	cl.classes[name] = lc
	cl.mu.Unlock()
	return lc, nil
}

// GetCountOfLoadedClasses reports the number of classes cl has loaded
// directly (not counting ancestor loaders).
func (cl *Classloader) GetCountOfLoadedClasses() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.classes)
}
