/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Command ristretto is the thin CLI front end over the engine packages.
// All real behavior lives in the libraries; this binary only parses
// flags, wires the configuration into globals, and drives one main
// method.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ristretto/classloader"
	"ristretto/frames"
	"ristretto/gfunction"
	"ristretto/globals"
	"ristretto/interpreter"
	"ristretto/jimage"
	"ristretto/jit"
	"ristretto/log"
	"ristretto/module"
	"ristretto/pom"
	"ristretto/shutdown"
	"ristretto/thread"
)

var (
	flagModulePath        []string
	flagUpgradeModulePath []string
	flagModule            string
	flagAddModules        []string
	flagLimitModules      []string
	flagAddReads          []string
	flagAddExports        []string
	flagAddOpens          []string
	flagPatchModule       []string
	flagVerbose           bool
	flagTrace             bool
	flagJit               bool
)

func main() {
	root := &cobra.Command{
		Use:   "ristretto [flags] classfile [args...]",
		Short: "Run a Java class file on the ristretto engine",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
	}
	root.PersistentFlags().StringSliceVar(&flagModulePath, "module-path", nil, "ordered module path entries")
	root.PersistentFlags().StringSliceVar(&flagUpgradeModulePath, "upgrade-module-path", nil, "upgrade module path entries")
	root.PersistentFlags().StringVarP(&flagModule, "module", "m", "", "main module as name[/class]")
	root.PersistentFlags().StringSliceVar(&flagAddModules, "add-modules", nil, "root modules to resolve")
	root.PersistentFlags().StringSliceVar(&flagLimitModules, "limit-modules", nil, "limit the observable modules")
	root.PersistentFlags().StringSliceVar(&flagAddReads, "add-reads", nil, "source=target read edges")
	root.PersistentFlags().StringSliceVar(&flagAddExports, "add-exports", nil, "source/package=target exports")
	root.PersistentFlags().StringSliceVar(&flagAddOpens, "add-opens", nil, "source/package=target opens")
	root.PersistentFlags().StringSliceVar(&flagPatchModule, "patch-module", nil, "module=path patches")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")
	root.Flags().BoolVar(&flagTrace, "trace", false, "trace every executed instruction")
	root.Flags().BoolVar(&flagJit, "jit", false, "precompile arithmetic regions to native code")

	root.AddCommand(&cobra.Command{
		Use:   "modules image [--limit-modules ...]",
		Short: "List the observable modules of a runtime image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := jimage.Open(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()
			cfg := module.Configure(module.Options{LimitModules: flagLimitModules})
			for _, name := range cfg.ObservableModules(reader.ModuleNames()) {
				fmt.Println(name)
			}
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the engine version",
		Run: func(cmd *cobra.Command, args []string) {
			g := globals.GetGlobalRef()
			coordinate := pom.Coordinate{
				GroupID:    "org.ristretto-vm",
				ArtifactID: g.EngineName,
				Version:    g.Version,
			}
			fmt.Printf("%s %s (%s)\n", g.EngineName, g.Version, coordinate)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		shutdown.Exit(shutdown.APP_EXCEPTION)
	}
}

func run(classPath string) error {
	globals.InitGlobals("ristretto")
	log.Init()
	if flagVerbose {
		_ = log.SetLogLevel(log.FINE)
	}

	cfg := module.Configure(module.Options{
		ModulePath:        flagModulePath,
		UpgradeModulePath: flagUpgradeModulePath,
		Module:            flagModule,
		AddModules:        flagAddModules,
		LimitModules:      flagLimitModules,
		AddReads:          flagAddReads,
		AddExports:        flagAddExports,
		AddOpens:          flagAddOpens,
		PatchModule:       flagPatchModule,
	})
	_ = cfg // the resolver consumes this once module graphs are wired to jimage

	if err := classloader.Init(); err != nil {
		return err
	}
	gfunction.MTableLoadGFunctions()

	raw, err := os.ReadFile(classPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", classPath, err)
	}
	lc, err := classloader.AppCL.LoadClassFromBytes(raw, false)
	if err != nil {
		return err
	}
	mainMethod, ok := lc.Method("main", "([Ljava/lang/String;)V")
	if !ok {
		return fmt.Errorf("class %s has no main([Ljava/lang/String;)V", lc.Name)
	}

	machine := interpreter.NewMachine(&classloader.AppCL)
	machine.MaxDepth = globals.GetGlobalRef().FrameStackDepthLimit
	machine.TraceInstructions = flagTrace
	machine.Collector.Start()
	defer machine.Collector.Stop()

	if flagJit {
		if err := precompile(lc); err != nil {
			_ = log.Log(fmt.Sprintf("jit precompile disabled: %v", err), log.WARNING)
		}
	}

	t := thread.CreateThread(machine)
	defer t.Exit()
	_, err = t.RunMethod(lc, mainMethod, []frames.Value{frames.Object(nil)})
	if thrown, ok := err.(*interpreter.ThrownException); ok {
		fmt.Fprintf(os.Stderr, "Exception in thread \"main\" %s\n", thrown.Exception.Klass.Name)
		shutdown.Exit(shutdown.APP_EXCEPTION)
	}
	return err
}

// precompile runs the JIT over every concrete method of the class,
// logging what it could lower. The interpreter keeps ownership of heap
// access and control flow; compiled arithmetic regions are reported so
// the operator can see what the fast path would cover.
func precompile(lc *classloader.LoadedClass) error {
	compiler, err := jit.NewCompiler()
	if err != nil {
		return err
	}
	defer compiler.Close()

	cf := lc.ClassFile
	for i := range cf.Methods {
		m := &cf.Methods[i]
		if m.Code == nil {
			continue
		}
		compiled, err := compiler.Compile(cf.ConstantPool, m.Code.Code)
		if err != nil {
			continue // an uncompilable method just stays interpreted
		}
		if len(compiled.Units) > 0 {
			_ = log.Log(fmt.Sprintf("jit: method %d of %s: %d native regions, %d blocks",
				i, lc.Name, len(compiled.Units), len(compiled.Blocks)), log.FINE)
		}
	}
	return nil
}
