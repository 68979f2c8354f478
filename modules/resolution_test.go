/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package modules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// mapFinder is a fixed-table Finder for tests, avoiding any on-disk
// module path or system image.
type mapFinder map[string]*Reference

func (f mapFinder) Find(name string) (*Reference, bool) {
	r, ok := f[name]
	return r, ok
}

func (f mapFinder) FindAll() []*Reference {
	all := make([]*Reference, 0, len(f))
	for _, r := range f {
		all = append(all, r)
	}
	return all
}

func descriptorWithPackage(name, pkg string) *ModuleDescriptor {
	d := NewModuleDescriptor(name)
	d.Packages[pkg] = true
	return d
}

func TestResolveAlwaysIncludesJavaBase(t *testing.T) {
	base := descriptorWithPackage(JavaBase, "java/lang")
	app := descriptorWithPackage("app", "app/main")
	app.Requires = append(app.Requires, Requires{Name: JavaBase})

	finder := mapFinder{
		JavaBase: NewReference(base, SourceSystem, ""),
		"app":    NewReference(app, SourceSystem, ""),
	}

	cfg, err := NewResolver().Resolve([]string{"app"}, finder)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Len())
	_, ok := cfg.Get(JavaBase)
	require.True(t, ok)
	require.True(t, cfg.Reads("app", JavaBase))
}

func TestResolveModuleNotFound(t *testing.T) {
	finder := mapFinder{JavaBase: NewReference(descriptorWithPackage(JavaBase, "java/lang"), SourceSystem, "")}
	_, err := NewResolver().Resolve([]string{"missing"}, finder)
	require.Error(t, err)
	var notFound *ModuleNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestResolveSplitPackage(t *testing.T) {
	base := descriptorWithPackage(JavaBase, "java/lang")
	a := descriptorWithPackage("mod.a", "shared/pkg")
	a.Requires = append(a.Requires, Requires{Name: JavaBase})
	b := descriptorWithPackage("mod.b", "shared/pkg")
	b.Requires = append(b.Requires, Requires{Name: JavaBase})
	a.Requires = append(a.Requires, Requires{Name: "mod.b"})

	finder := mapFinder{
		JavaBase: NewReference(base, SourceSystem, ""),
		"mod.a":  NewReference(a, SourceSystem, ""),
		"mod.b":  NewReference(b, SourceSystem, ""),
	}

	_, err := NewResolver().Resolve([]string{"mod.a"}, finder)
	require.Error(t, err)
	var split *SplitPackage
	require.ErrorAs(t, err, &split)
	require.Equal(t, "shared/pkg", split.Package)
}

func TestResolveTransitiveReads(t *testing.T) {
	base := descriptorWithPackage(JavaBase, "java/lang")
	c := descriptorWithPackage("mod.c", "c/pkg")
	c.Requires = append(c.Requires, Requires{Name: JavaBase})
	b := descriptorWithPackage("mod.b", "b/pkg")
	b.Requires = append(b.Requires, Requires{Name: JavaBase}, Requires{Name: "mod.c", Transitive: true})
	a := descriptorWithPackage("mod.a", "a/pkg")
	a.Requires = append(a.Requires, Requires{Name: JavaBase}, Requires{Name: "mod.b"})

	finder := mapFinder{
		JavaBase: NewReference(base, SourceSystem, ""),
		"mod.a":  NewReference(a, SourceSystem, ""),
		"mod.b":  NewReference(b, SourceSystem, ""),
		"mod.c":  NewReference(c, SourceSystem, ""),
	}

	cfg, err := NewResolver().Resolve([]string{"mod.a"}, finder)
	require.NoError(t, err)
	require.True(t, cfg.Reads("mod.a", "mod.b"))
	require.True(t, cfg.Reads("mod.a", "mod.c"), "mod.a should transitively read mod.c via mod.b's requires transitive")
}

func TestResolveStaticRequiresSkippedWhenAbsent(t *testing.T) {
	base := descriptorWithPackage(JavaBase, "java/lang")
	app := descriptorWithPackage("app", "app/main")
	app.Requires = append(app.Requires, Requires{Name: JavaBase}, Requires{Name: "optional.tool", Static: true})

	finder := mapFinder{
		JavaBase: NewReference(base, SourceSystem, ""),
		"app":    NewReference(app, SourceSystem, ""),
	}

	cfg, err := NewResolver().Resolve([]string{"app"}, finder)
	require.NoError(t, err)
	_, ok := cfg.Get("optional.tool")
	require.False(t, ok)
}

func TestResolveAutomaticModuleReadsEverything(t *testing.T) {
	base := descriptorWithPackage(JavaBase, "java/lang")
	app := descriptorWithPackage("app", "app/main")
	app.Requires = append(app.Requires, Requires{Name: JavaBase}, Requires{Name: "auto.lib"})
	autoLib := descriptorWithPackage("auto.lib", "auto/lib")

	finder := mapFinder{
		JavaBase:   NewReference(base, SourceSystem, ""),
		"app":      NewReference(app, SourceSystem, ""),
		"auto.lib": NewReference(autoLib, SourceAutomatic, "/libs/auto.jar"),
	}

	cfg, err := NewResolver().Resolve([]string{"app"}, finder)
	require.NoError(t, err)
	require.True(t, cfg.Reads("auto.lib", "app"))
	require.True(t, cfg.Reads("auto.lib", JavaBase))
}

func TestResolverAddReadsOverride(t *testing.T) {
	base := descriptorWithPackage(JavaBase, "java/lang")
	a := descriptorWithPackage("mod.a", "a/pkg")
	a.Requires = append(a.Requires, Requires{Name: JavaBase})
	b := descriptorWithPackage("mod.b", "b/pkg")
	b.Requires = append(b.Requires, Requires{Name: JavaBase})

	finder := mapFinder{
		JavaBase: NewReference(base, SourceSystem, ""),
		"mod.a":  NewReference(a, SourceSystem, ""),
		"mod.b":  NewReference(b, SourceSystem, ""),
	}

	resolver := NewResolver()
	resolver.AddRead("mod.a", "mod.b")
	cfg, err := resolver.Resolve([]string{"mod.a", "mod.b"}, finder)
	require.NoError(t, err)
	require.True(t, cfg.Reads("mod.a", "mod.b"))
}

func TestExportsUnqualifiedAndQualified(t *testing.T) {
	d := NewModuleDescriptor("mod.lib")
	d.Packages["lib/pub"] = true
	d.Packages["lib/priv"] = true
	d.Exports = []Export{
		{Package: "lib/pub"},
		{Package: "lib/priv", To: []string{"mod.friend"}},
	}

	cfg := &ResolvedConfiguration{
		resolved:        map[string]*ResolvedModule{"mod.lib": newResolvedModule(NewReference(d, SourceSystem, ""))},
		packageToModule: map[string]string{},
		addExports:      map[string]map[string]map[string]bool{},
		addOpens:        map[string]map[string]map[string]bool{},
	}

	require.True(t, cfg.Exports("mod.lib", "lib/pub", "anyone"))
	require.False(t, cfg.Exports("mod.lib", "lib/priv", "stranger"))
	require.True(t, cfg.Exports("mod.lib", "lib/priv", "mod.friend"))
}

func TestAddExportsOverrideGrantsUnnamedModule(t *testing.T) {
	d := NewModuleDescriptor("mod.internal")
	d.Packages["internal/api"] = true

	resolver := NewResolver()
	resolver.AddExport("mod.internal", "internal/api", unnamedModule)

	finder := mapFinder{
		JavaBase:        NewReference(descriptorWithPackage(JavaBase, "java/lang"), SourceSystem, ""),
		"mod.internal":  NewReference(d, SourceSystem, ""),
	}

	cfg, err := resolver.Resolve([]string{"mod.internal"}, finder)
	require.NoError(t, err)
	require.False(t, cfg.Exports("mod.internal", "internal/api", "some.other.module"))
	require.True(t, cfg.Exports("mod.internal", "internal/api", ""), `"" denotes the unnamed module`)
	require.True(t, cfg.Exports("mod.internal", "internal/api", unnamedModule))
}
