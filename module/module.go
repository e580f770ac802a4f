/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package module parses the JPMS command-line options into a resolved
// module configuration. Parsing is tolerant
// by contract: malformed entries are dropped from the resolved
// configuration rather than reported.
package module

import "strings"

// AllUnnamed is the wildcard target meaning "every class on the
// classpath", the one non-module-name target add-exports/add-opens
// accept.
const AllUnnamed = "ALL-UNNAMED"

// MainModule is the parsed form of --module's name[/class] spec.
type MainModule struct {
	Name  string
	Class string // empty when the module's own main class is used
}

// Read is one --add-reads source=target edge.
type Read struct {
	Source, Target string
}

// Export is one --add-exports source/package=target grant.
type Export struct {
	Source, Package, Target string
}

// Opens is one --add-opens source/package=target grant.
type Opens struct {
	Source, Package, Target string
}

// Patch is one --patch-module module=path entry.
type Patch struct {
	Module, Path string
}

// Configuration is the resolved module-system configuration.
type Configuration struct {
	ModulePath        []string
	UpgradeModulePath []string
	MainModule        *MainModule
	AddModules        []string
	LimitModules      map[string]struct{}
	Reads             []Read
	Exports           []Export
	Opens             []Opens
	Patches           []Patch
}

// Options carries the raw CLI strings before parsing.
type Options struct {
	ModulePath        []string
	UpgradeModulePath []string
	Module            string
	AddModules        []string
	LimitModules      []string
	AddReads          []string
	AddExports        []string
	AddOpens          []string
	PatchModule       []string
}

// Configure resolves raw options into a Configuration, silently
// dropping every malformed entry.
func Configure(opts Options) Configuration {
	cfg := Configuration{
		ModulePath:        append([]string(nil), opts.ModulePath...),
		UpgradeModulePath: append([]string(nil), opts.UpgradeModulePath...),
		AddModules:        append([]string(nil), opts.AddModules...),
		LimitModules:      make(map[string]struct{}, len(opts.LimitModules)),
	}
	for _, m := range opts.LimitModules {
		if m != "" {
			cfg.LimitModules[m] = struct{}{}
		}
	}
	if opts.Module != "" {
		mm := ParseMainModule(opts.Module)
		cfg.MainModule = &mm
	}
	for _, spec := range opts.AddReads {
		if read, ok := ParseRead(spec); ok {
			cfg.Reads = append(cfg.Reads, read)
		}
	}
	for _, spec := range opts.AddExports {
		if export, ok := ParseExport(spec); ok {
			cfg.Exports = append(cfg.Exports, export)
		}
	}
	for _, spec := range opts.AddOpens {
		if opens, ok := ParseOpens(spec); ok {
			cfg.Opens = append(cfg.Opens, opens)
		}
	}
	for _, spec := range opts.PatchModule {
		if patch, ok := ParsePatch(spec); ok {
			cfg.Patches = append(cfg.Patches, patch)
		}
	}
	return cfg
}

// ObservableModules filters the modules a runtime image provides down
// to the set this configuration lets the resolver observe: everything
// when --limit-modules was absent, the named subset otherwise.
func (c *Configuration) ObservableModules(imageModules []string) []string {
	if len(c.LimitModules) == 0 {
		return append([]string(nil), imageModules...)
	}
	var out []string
	for _, m := range imageModules {
		if _, ok := c.LimitModules[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// ParseMainModule splits a name[/class] spec. A spec with no slash names
// the module alone.
func ParseMainModule(spec string) MainModule {
	name, class, found := strings.Cut(spec, "/")
	if !found {
		return MainModule{Name: spec}
	}
	return MainModule{Name: name, Class: class}
}

// ParseRead parses a SOURCE=TARGET specification. Reports false if the
// format is invalid.
func ParseRead(spec string) (Read, bool) {
	source, target, found := strings.Cut(spec, "=")
	if !found || source == "" || target == "" {
		return Read{}, false
	}
	return Read{Source: source, Target: target}, true
}

// ParseExport parses a SOURCE/PACKAGE=TARGET specification. The target
// must be a module name or the literal ALL-UNNAMED.
func ParseExport(spec string) (Export, bool) {
	source, pkg, target, ok := parseQualified(spec)
	if !ok {
		return Export{}, false
	}
	return Export{Source: source, Package: pkg, Target: target}, true
}

// ParseOpens parses a SOURCE/PACKAGE=TARGET specification with the same
// grammar as ParseExport.
func ParseOpens(spec string) (Opens, bool) {
	source, pkg, target, ok := parseQualified(spec)
	if !ok {
		return Opens{}, false
	}
	return Opens{Source: source, Package: pkg, Target: target}, true
}

func parseQualified(spec string) (source, pkg, target string, ok bool) {
	left, target, found := strings.Cut(spec, "=")
	if !found {
		return "", "", "", false
	}
	source, pkg, found = strings.Cut(left, "/")
	if !found || source == "" || pkg == "" {
		return "", "", "", false
	}
	if !validTarget(target) {
		return "", "", "", false
	}
	return source, pkg, target, true
}

// validTarget accepts a module name (dotted identifiers) or ALL-UNNAMED.
func validTarget(target string) bool {
	if target == AllUnnamed {
		return true
	}
	if target == "" {
		return false
	}
	for _, part := range strings.Split(target, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			alpha := r == '_' || r == '$' ||
				(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
			digit := r >= '0' && r <= '9'
			if !alpha && !(i > 0 && digit) {
				return false
			}
		}
	}
	return true
}

// ParsePatch parses a MODULE=PATH specification.
func ParsePatch(spec string) (Patch, bool) {
	mod, path, found := strings.Cut(spec, "=")
	if !found || mod == "" || path == "" {
		return Patch{}, false
	}
	return Patch{Module: mod, Path: path}, true
}
