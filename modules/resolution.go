/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package modules

// unnamedModule is the synthetic name classpath code is checked
// against; it may read and be exported/opened to like any other name
// in an add-reads/add-exports/add-opens override.
const unnamedModule = "ALL-UNNAMED"

// JavaBase is always resolved regardless of the requested root set.
const JavaBase = "java.base"

// ResolvedModule is one module within a ResolvedConfiguration, plus
// the set of module names it reads.
type ResolvedModule struct {
	reference *Reference
	reads     map[string]bool
}

func newResolvedModule(reference *Reference) *ResolvedModule {
	return &ResolvedModule{reference: reference, reads: make(map[string]bool)}
}

func (m *ResolvedModule) Reference() *Reference        { return m.reference }
func (m *ResolvedModule) Name() string                 { return m.reference.Name() }
func (m *ResolvedModule) Descriptor() *ModuleDescriptor { return m.reference.Descriptor() }
func (m *ResolvedModule) Reads(module string) bool     { return m.reads[module] }
func (m *ResolvedModule) addRead(module string)        { m.reads[module] = true }

// Resolver builds a ResolvedConfiguration from a set of root modules,
// applying the --limit-modules filter during resolution and the
// read/export/open overrides after it, per spec.md §4.4.
type Resolver struct {
	addReads     map[string]map[string]bool
	addExports   map[string]map[string]map[string]bool
	addOpens     map[string]map[string]map[string]bool
	limitModules map[string]bool // nil means unrestricted
}

func NewResolver() *Resolver {
	return &Resolver{
		addReads:   make(map[string]map[string]bool),
		addExports: make(map[string]map[string]map[string]bool),
		addOpens:   make(map[string]map[string]map[string]bool),
	}
}

// AddRead implements --add-reads SOURCE=TARGET.
func (r *Resolver) AddRead(source, target string) {
	if r.addReads[source] == nil {
		r.addReads[source] = make(map[string]bool)
	}
	r.addReads[source][target] = true
}

// AddExport implements --add-exports SOURCE/PACKAGE=TARGET.
func (r *Resolver) AddExport(source, pkg, target string) {
	addQualified(r.addExports, source, pkg, target)
}

// AddOpens implements --add-opens SOURCE/PACKAGE=TARGET.
func (r *Resolver) AddOpens(source, pkg, target string) {
	addQualified(r.addOpens, source, pkg, target)
}

func addQualified(m map[string]map[string]map[string]bool, source, pkg, target string) {
	if m[source] == nil {
		m[source] = make(map[string]map[string]bool)
	}
	if m[source][pkg] == nil {
		m[source][pkg] = make(map[string]bool)
	}
	m[source][pkg][target] = true
}

// SetLimitModules implements --limit-modules: a module dequeued during
// resolution is skipped unless its name is in names. A skipped
// module's requirements are not followed, and java.base is skipped
// too unless it is listed.
func (r *Resolver) SetLimitModules(names []string) {
	r.limitModules = make(map[string]bool, len(names))
	for _, n := range names {
		r.limitModules[n] = true
	}
}

// Resolve runs the BFS resolution of spec.md §4.4 over rootModules
// using finder, then computes transitive reads and applies overrides.
func (r *Resolver) Resolve(rootModules []string, finder Finder) (*ResolvedConfiguration, error) {
	resolved := make(map[string]*ResolvedModule)
	packageToModule := make(map[string]string)

	var queue []string
	visited := make(map[string]bool)

	enqueue := func(name string) {
		if !visited[name] {
			visited[name] = true
			queue = append(queue, name)
		}
	}

	for _, root := range rootModules {
		enqueue(root)
	}
	if !visited[JavaBase] {
		queue = append([]string{JavaBase}, queue...)
		visited[JavaBase] = true
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if r.limitModules != nil && !r.limitModules[name] {
			continue
		}

		ref, ok := finder.Find(name)
		if !ok {
			return nil, &ModuleNotFound{Name: name}
		}
		descriptor := ref.Descriptor()

		for pkg := range descriptor.Packages {
			if existing, ok := packageToModule[pkg]; ok && existing != name {
				return nil, &SplitPackage{Package: pkg, Module1: existing, Module2: name}
			}
			packageToModule[pkg] = name
		}

		rm := newResolvedModule(ref)
		for _, req := range descriptor.Requires {
			rm.addRead(req.Name)
			if visited[req.Name] {
				continue
			}
			if req.Static {
				if _, ok := finder.Find(req.Name); ok {
					enqueue(req.Name)
				}
				continue
			}
			enqueue(req.Name)
		}
		if name != JavaBase {
			rm.addRead(JavaBase)
		}

		resolved[name] = rm
	}

	computeTransitiveReads(resolved)

	for source, targets := range r.addReads {
		module, ok := resolved[source]
		if !ok {
			continue
		}
		for target := range targets {
			module.addRead(target)
		}
	}

	for name, module := range resolved {
		if module.reference.IsAutomatic() {
			for other := range resolved {
				if other != name {
					module.addRead(other)
				}
			}
		}
	}

	return &ResolvedConfiguration{
		resolved:         resolved,
		packageToModule:  packageToModule,
		addExports:       r.addExports,
		addOpens:         r.addOpens,
	}, nil
}

// computeTransitiveReads applies spec.md §4.4's fixpoint closure: if A
// reads B and B `requires transitive` C, then A also reads C.
func computeTransitiveReads(resolved map[string]*ResolvedModule) {
	transitiveExports := make(map[string][]string)
	for name, module := range resolved {
		for _, req := range module.Descriptor().Requires {
			if req.Transitive {
				transitiveExports[name] = append(transitiveExports[name], req.Name)
			}
		}
	}

	for _, module := range resolved {
		currentReads := make([]string, 0, len(module.reads))
		for read := range module.reads {
			currentReads = append(currentReads, read)
		}

		additional := make(map[string]bool)
		for _, read := range currentReads {
			collectTransitiveReads(read, transitiveExports, additional, make(map[string]bool))
		}
		for read := range additional {
			module.addRead(read)
		}
	}
}

func collectTransitiveReads(moduleName string, transitiveExports map[string][]string, result, seen map[string]bool) {
	if seen[moduleName] {
		return
	}
	seen[moduleName] = true

	for _, transitive := range transitiveExports[moduleName] {
		result[transitive] = true
		collectTransitiveReads(transitive, transitiveExports, result, seen)
	}
}

// ResolvedConfiguration is the outcome of module resolution: the
// reachable modules, a package-to-module index, and runtime access
// overrides (spec.md §3).
type ResolvedConfiguration struct {
	resolved        map[string]*ResolvedModule
	packageToModule map[string]string
	addExports      map[string]map[string]map[string]bool
	addOpens        map[string]map[string]map[string]bool
}

// EmptyConfiguration is a configuration with no resolved modules, for
// a classpath-only (unnamed-module) run.
func EmptyConfiguration() *ResolvedConfiguration {
	return &ResolvedConfiguration{
		resolved:        make(map[string]*ResolvedModule),
		packageToModule: make(map[string]string),
		addExports:      make(map[string]map[string]map[string]bool),
		addOpens:        make(map[string]map[string]map[string]bool),
	}
}

func (c *ResolvedConfiguration) Get(name string) (*ResolvedModule, bool) {
	m, ok := c.resolved[name]
	return m, ok
}

func (c *ResolvedConfiguration) Len() int { return len(c.resolved) }

func (c *ResolvedConfiguration) IsEmpty() bool { return len(c.resolved) == 0 }

// FindModuleForPackage returns the module that owns pkg, if any.
func (c *ResolvedConfiguration) FindModuleForPackage(pkg string) (string, bool) {
	name, ok := c.packageToModule[pkg]
	return name, ok
}

// Reads reports whether module `from` reads module `to`.
func (c *ResolvedConfiguration) Reads(from, to string) bool {
	m, ok := c.resolved[from]
	return ok && m.Reads(to)
}

// Exports reports whether module `to` exports `pkg`, either
// unqualified or qualified to `from` ("" and unnamedModule both denote
// the unnamed/classpath module).
func (c *ResolvedConfiguration) Exports(to, pkg, from string) bool {
	if from == "" {
		from = unnamedModule
	}
	if targets, ok := c.addExports[to][pkg]; ok && targets[from] {
		return true
	}
	module, ok := c.resolved[to]
	if !ok {
		return false
	}
	if module.reference.IsAutomatic() {
		return module.Descriptor().Packages[pkg]
	}
	return module.Descriptor().ExportsPackage(pkg, from)
}

// Opens reports whether module `to` opens `pkg` to `from`, either via
// an --add-opens override, an open/automatic module, or an explicit
// `opens` directive.
func (c *ResolvedConfiguration) Opens(to, pkg, from string) bool {
	if from == "" {
		from = unnamedModule
	}
	if targets, ok := c.addOpens[to][pkg]; ok && targets[from] {
		return true
	}
	module, ok := c.resolved[to]
	if !ok {
		return false
	}
	if module.reference.IsAutomatic() || module.Descriptor().IsOpen {
		return module.Descriptor().Packages[pkg]
	}
	return module.Descriptor().OpensPackage(pkg, from)
}
