/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package modules

import (
	"regexp"
	"strings"

	"github.com/theseus-rs/ristretto-sub006/classfile"
)

// Requires is one `requires` directive of a module descriptor.
type Requires struct {
	Name       string
	Transitive bool
	Static     bool
}

// Export is one `exports` directive; To is empty for an unqualified
// export (every module reads the package once it reads this one).
type Export struct {
	Package string
	To      []string
}

// Open is one `opens` directive; To is empty for an unqualified open.
type Open struct {
	Package string
	To      []string
}

// Provide is one `provides ... with ...` directive.
type Provide struct {
	Service   string
	Providers []string
}

// ModuleDescriptor is a parsed module-info.class, or the synthesised
// descriptor of an automatic module (spec.md §3 "Module,
// ResolvedConfiguration").
type ModuleDescriptor struct {
	Name     string
	IsOpen   bool
	Requires []Requires
	Exports  []Export
	Opens    []Open
	Provides []Provide
	Uses     []string
	Packages map[string]bool
}

// NewModuleDescriptor creates an empty named descriptor ready for
// tests or programmatic construction.
func NewModuleDescriptor(name string) *ModuleDescriptor {
	return &ModuleDescriptor{Name: name, Packages: make(map[string]bool)}
}

// FromClassFile builds a ModuleDescriptor from a parsed module-info
// class file's Module attribute.
func FromClassFile(cf *classfile.ClassFile) (*ModuleDescriptor, error) {
	var mod *classfile.ModuleAttribute
	for _, a := range cf.Attributes {
		if m, ok := a.(*classfile.ModuleAttribute); ok {
			mod = m
			break
		}
	}
	if mod == nil {
		return nil, &DescriptorParseError{Context: "module-info.class has no Module attribute"}
	}
	cp := cf.ConstantPool

	name, err := cp.ModuleNameAt(int(mod.NameIndex))
	if err != nil {
		return nil, &DescriptorParseError{Context: "module name", Err: err}
	}

	d := NewModuleDescriptor(name)
	d.IsOpen = mod.Flags&classfile.ModuleFlagOpen != 0

	for _, r := range mod.Requires {
		reqName, err := cp.ModuleNameAt(int(r.Index))
		if err != nil {
			return nil, &DescriptorParseError{Context: "requires", Err: err}
		}
		d.Requires = append(d.Requires, Requires{
			Name:       reqName,
			Transitive: r.Flags&classfile.ModuleRequiresTransitive != 0,
			Static:     r.Flags&classfile.ModuleRequiresStatic != 0,
		})
	}

	for _, e := range mod.Exports {
		pkg, err := cp.PackageNameAt(int(e.Index))
		if err != nil {
			return nil, &DescriptorParseError{Context: "exports", Err: err}
		}
		to, err := moduleNames(cp, e.ToIndex)
		if err != nil {
			return nil, &DescriptorParseError{Context: "exports to", Err: err}
		}
		d.Exports = append(d.Exports, Export{Package: pkg, To: to})
		d.Packages[pkg] = true
	}

	for _, o := range mod.Opens {
		pkg, err := cp.PackageNameAt(int(o.Index))
		if err != nil {
			return nil, &DescriptorParseError{Context: "opens", Err: err}
		}
		to, err := moduleNames(cp, o.ToIndex)
		if err != nil {
			return nil, &DescriptorParseError{Context: "opens to", Err: err}
		}
		d.Opens = append(d.Opens, Open{Package: pkg, To: to})
		d.Packages[pkg] = true
	}

	for _, u := range mod.Uses {
		service, err := cp.ClassNameAt(int(u))
		if err != nil {
			return nil, &DescriptorParseError{Context: "uses", Err: err}
		}
		d.Uses = append(d.Uses, service)
	}

	for _, p := range mod.Provides {
		service, err := cp.ClassNameAt(int(p.Index))
		if err != nil {
			return nil, &DescriptorParseError{Context: "provides", Err: err}
		}
		providers, err := classNames(cp, p.WithIndex)
		if err != nil {
			return nil, &DescriptorParseError{Context: "provides with", Err: err}
		}
		d.Provides = append(d.Provides, Provide{Service: service, Providers: providers})
	}

	return d, nil
}

func moduleNames(cp *classfile.ConstantPool, indices []uint16) ([]string, error) {
	names := make([]string, 0, len(indices))
	for _, idx := range indices {
		name, err := cp.ModuleNameAt(int(idx))
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func classNames(cp *classfile.ConstantPool, indices []uint16) ([]string, error) {
	names := make([]string, 0, len(indices))
	for _, idx := range indices {
		name, err := cp.ClassNameAt(int(idx))
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// ExportsPackage reports whether pkg is exported, either unqualified
// or qualified to the given reading module (empty to check only the
// unqualified case).
func (d *ModuleDescriptor) ExportsPackage(pkg string, to string) bool {
	for _, e := range d.Exports {
		if e.Package != pkg {
			continue
		}
		if len(e.To) == 0 {
			return true
		}
		for _, t := range e.To {
			if t == to {
				return true
			}
		}
	}
	return false
}

// OpensPackage reports whether pkg is opened, either unqualified or
// qualified to the given module.
func (d *ModuleDescriptor) OpensPackage(pkg string, to string) bool {
	for _, o := range d.Opens {
		if o.Package != pkg {
			continue
		}
		if len(o.To) == 0 {
			return true
		}
		for _, t := range o.To {
			if t == to {
				return true
			}
		}
	}
	return false
}

// versionSuffix matches the version portion of a jar file name per
// the automatic-module naming rule: the first hyphen that is followed
// by a digit starts the version, which is discarded.
var versionSuffix = regexp.MustCompile(`-(\d.*)$`)

// nonAlnumRun collapses any run of characters that aren't letters,
// digits, or '.' into a single '.'.
var nonAlnumRun = regexp.MustCompile(`[^A-Za-z0-9.]+`)

var dotRun = regexp.MustCompile(`\.{2,}`)

// AutomaticFromJarName derives an automatic module's descriptor per
// JEP 261: prefer the manifest's Automatic-Module-Name when present,
// otherwise derive a name from the jar's file name with its version
// suffix and non-alphanumeric runs stripped.
func AutomaticFromJarName(jarFileName string, manifestModuleName string, packages map[string]bool) (*ModuleDescriptor, error) {
	var name string
	if manifestModuleName != "" {
		name = manifestModuleName
	} else {
		base := strings.TrimSuffix(jarFileName, ".jar")
		base = versionSuffix.ReplaceAllString(base, "")
		base = nonAlnumRun.ReplaceAllString(base, ".")
		base = dotRun.ReplaceAllString(base, ".")
		base = strings.Trim(base, ".")
		if base == "" {
			return nil, &DescriptorParseError{Context: "cannot derive automatic module name from " + jarFileName}
		}
		name = base
	}

	d := NewModuleDescriptor(name)
	for pkg := range packages {
		d.Packages[pkg] = true
	}
	return d, nil
}
