/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package module

import "testing"

func TestParseReadValid(t *testing.T) {
	read, ok := ParseRead("my.module=java.sql")
	if !ok {
		t.Fatal("expected a valid read")
	}
	if read.Source != "my.module" || read.Target != "java.sql" {
		t.Errorf("read = %+v", read)
	}
}

func TestParseReadInvalid(t *testing.T) {
	if _, ok := ParseRead("invalid"); ok {
		t.Error("a spec without '=' must be rejected")
	}
}

func TestParseExportValid(t *testing.T) {
	export, ok := ParseExport("java.base/java.lang=ALL-UNNAMED")
	if !ok {
		t.Fatal("expected a valid export")
	}
	if export.Source != "java.base" || export.Package != "java.lang" || export.Target != AllUnnamed {
		t.Errorf("export = %+v", export)
	}
}

func TestParseExportMissingEquals(t *testing.T) {
	if _, ok := ParseExport("java.base/java.lang"); ok {
		t.Error("a spec without '=' must be rejected")
	}
}

func TestParseExportMissingSlash(t *testing.T) {
	if _, ok := ParseExport("java.base=ALL-UNNAMED"); ok {
		t.Error("a spec without '/' must be rejected")
	}
}

func TestParseExportRejectsMalformedTarget(t *testing.T) {
	if _, ok := ParseExport("java.base/java.lang=not a module"); ok {
		t.Error("a target with spaces must be rejected")
	}
	if _, ok := ParseExport("java.base/java.lang=9bad"); ok {
		t.Error("a target starting with a digit must be rejected")
	}
}

func TestParseOpensValid(t *testing.T) {
	opens, ok := ParseOpens("java.base/java.lang.reflect=my.module")
	if !ok {
		t.Fatal("expected a valid opens")
	}
	if opens.Source != "java.base" || opens.Package != "java.lang.reflect" || opens.Target != "my.module" {
		t.Errorf("opens = %+v", opens)
	}
}

func TestParsePatchValid(t *testing.T) {
	patch, ok := ParsePatch("java.base=/path/to/patch")
	if !ok {
		t.Fatal("expected a valid patch")
	}
	if patch.Module != "java.base" || patch.Path != "/path/to/patch" {
		t.Errorf("patch = %+v", patch)
	}
}

func TestParsePatchInvalid(t *testing.T) {
	if _, ok := ParsePatch("invalid"); ok {
		t.Error("a spec without '=' must be rejected")
	}
}

func TestParseMainModule(t *testing.T) {
	mm := ParseMainModule("com.example.app/com.example.app.Main")
	if mm.Name != "com.example.app" || mm.Class != "com.example.app.Main" {
		t.Errorf("main module = %+v", mm)
	}
	mm = ParseMainModule("com.example.app")
	if mm.Name != "com.example.app" || mm.Class != "" {
		t.Errorf("main module = %+v", mm)
	}
}

func TestObservableModules(t *testing.T) {
	image := []string{"java.base", "java.sql", "java.desktop"}

	all := Configure(Options{})
	if got := all.ObservableModules(image); len(got) != 3 {
		t.Errorf("with no limit, all modules must be observable: %v", got)
	}

	limited := Configure(Options{LimitModules: []string{"java.base"}})
	got := limited.ObservableModules(image)
	if len(got) != 1 || got[0] != "java.base" {
		t.Errorf("limited modules = %v, want [java.base]", got)
	}
}

func TestConfigureDropsMalformedEntries(t *testing.T) {
	cfg := Configure(Options{
		ModulePath:   []string{"/mods"},
		Module:       "app/Main",
		AddModules:   []string{"java.sql"},
		LimitModules: []string{"java.base", ""},
		AddReads:     []string{"a=b", "bogus"},
		AddExports:   []string{"m/p=t", "m=t", "m/p"},
		AddOpens:     []string{"m/p=ALL-UNNAMED", "nope"},
		PatchModule:  []string{"m=/p", "alsobad"},
	})

	if len(cfg.Reads) != 1 || len(cfg.Exports) != 1 || len(cfg.Opens) != 1 || len(cfg.Patches) != 1 {
		t.Errorf("malformed entries must be dropped: %+v", cfg)
	}
	if len(cfg.LimitModules) != 1 {
		t.Errorf("empty limit-modules entries must be dropped: %v", cfg.LimitModules)
	}
	if cfg.MainModule == nil || cfg.MainModule.Name != "app" || cfg.MainModule.Class != "Main" {
		t.Errorf("main module = %+v", cfg.MainModule)
	}
}
