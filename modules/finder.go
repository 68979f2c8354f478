/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package modules

import (
	"archive/zip"
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/theseus-rs/ristretto-sub006/classfile"
)

// Finder locates a module by name. Grounded on ristretto_classloader's
// ModuleFinder trait.
type Finder interface {
	Find(name string) (*Reference, bool)
	FindAll() []*Reference
}

// FinderChain consults a sequence of finders in order, returning the
// first hit.
type FinderChain struct {
	finders []Finder
}

func NewFinderChain(finders ...Finder) *FinderChain {
	return &FinderChain{finders: finders}
}

func (c *FinderChain) Add(f Finder) { c.finders = append(c.finders, f) }

func (c *FinderChain) Find(name string) (*Reference, bool) {
	for _, f := range c.finders {
		if r, ok := f.Find(name); ok {
			return r, true
		}
	}
	return nil, false
}

func (c *FinderChain) FindAll() []*Reference {
	seen := make(map[string]bool)
	var result []*Reference
	for _, f := range c.finders {
		for _, r := range f.FindAll() {
			if !seen[r.Name()] {
				seen[r.Name()] = true
				result = append(result, r)
			}
		}
	}
	return result
}

// EmptyFinder finds nothing; useful as a base case or in tests.
type EmptyFinder struct{}

func (EmptyFinder) Find(string) (*Reference, bool) { return nil, false }
func (EmptyFinder) FindAll() []*Reference           { return nil }

// SystemModuleFinder serves modules from a caller-supplied name ->
// Reference map. No package in this module reads a system image
// archive or calls NewSystemModuleFinder; the classloader package's
// mmap use is limited to loose .class files (DirectorySource).
type SystemModuleFinder struct {
	modules map[string]*Reference
}

// NewSystemModuleFinder wraps a pre-built module name -> Reference map.
func NewSystemModuleFinder(modules map[string]*Reference) *SystemModuleFinder {
	return &SystemModuleFinder{modules: modules}
}

func (f *SystemModuleFinder) Find(name string) (*Reference, bool) {
	r, ok := f.modules[name]
	return r, ok
}

func (f *SystemModuleFinder) FindAll() []*Reference {
	result := make([]*Reference, 0, len(f.modules))
	for _, r := range f.modules {
		result = append(result, r)
	}
	return result
}

// ModulePathFinder finds modular JARs and exploded module directories
// on a module path, grounded on ristretto_classloader's
// ModulePathFinder (finder.rs).
type ModulePathFinder struct {
	modules map[string]*Reference
}

// NewModulePathFinder scans each path: a .jar file is read as a
// (possibly automatic) module; a directory containing module-info.class
// is read as one exploded module; any other directory is treated as a
// directory OF modules, one level deep.
func NewModulePathFinder(paths []string) (*ModulePathFinder, error) {
	modules := make(map[string]*Reference)

	addPath := func(path string) error {
		ref, err := readModuleAt(path)
		if err != nil {
			return err
		}
		if ref != nil {
			modules[ref.Name()] = ref
		}
		return nil
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			if strings.EqualFold(filepath.Ext(path), ".jar") {
				if err := addPath(path); err != nil {
					return nil, err
				}
			}
			continue
		}

		if _, err := os.Stat(filepath.Join(path, "module-info.class")); err == nil {
			if err := addPath(path); err != nil {
				return nil, err
			}
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			continue
		}
		for _, e := range entries {
			entryPath := filepath.Join(path, e.Name())
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".jar") {
				if err := addPath(entryPath); err != nil {
					return nil, err
				}
			} else if e.IsDir() {
				if _, err := os.Stat(filepath.Join(entryPath, "module-info.class")); err == nil {
					if err := addPath(entryPath); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	return &ModulePathFinder{modules: modules}, nil
}

func readModuleAt(path string) (*Reference, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return readExplodedModule(path)
	}
	return readModularJar(path)
}

func readModularJar(path string) (*Reference, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, &DescriptorParseError{Context: "opening " + path, Err: err}
	}
	defer archive.Close()

	packages := make(map[string]bool)
	var moduleInfo *zip.File
	var manifestModuleName string

	for _, f := range archive.File {
		name := f.Name
		if strings.EqualFold(name, "module-info.class") {
			moduleInfo = f
			continue
		}
		if name == "META-INF/MANIFEST.MF" {
			manifestModuleName = readManifestModuleName(f)
			continue
		}
		if strings.HasSuffix(strings.ToLower(name), ".class") && !strings.HasPrefix(name, "META-INF/") {
			if slash := strings.LastIndex(name, "/"); slash >= 0 {
				packages[name[:slash]] = true
			}
		}
	}

	if moduleInfo != nil {
		rc, err := moduleInfo.Open()
		if err != nil {
			return nil, &DescriptorParseError{Context: "reading module-info.class in " + path, Err: err}
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &DescriptorParseError{Context: "reading module-info.class in " + path, Err: err}
		}
		cf, err := classfile.Parse(data)
		if err != nil {
			return nil, &DescriptorParseError{Context: "parsing module-info.class in " + path, Err: err}
		}
		descriptor, err := FromClassFile(cf)
		if err != nil {
			return nil, err
		}
		for pkg := range packages {
			descriptor.Packages[pkg] = true
		}
		return NewReference(descriptor, SourceModulePath, path), nil
	}

	descriptor, err := AutomaticFromJarName(filepath.Base(path), manifestModuleName, packages)
	if err != nil {
		return nil, err
	}
	return NewReference(descriptor, SourceAutomatic, path), nil
}

func readManifestModuleName(f *zip.File) string {
	rc, err := f.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "Automatic-Module-Name:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func readExplodedModule(dir string) (*Reference, error) {
	moduleInfoPath := filepath.Join(dir, "module-info.class")
	data, err := os.ReadFile(moduleInfoPath)
	if err != nil {
		return nil, &DescriptorParseError{Context: "reading " + moduleInfoPath, Err: err}
	}
	cf, err := classfile.Parse(data)
	if err != nil {
		return nil, &DescriptorParseError{Context: "parsing " + moduleInfoPath, Err: err}
	}
	descriptor, err := FromClassFile(cf)
	if err != nil {
		return nil, err
	}

	if err := discoverPackages(dir, "", descriptor.Packages); err != nil {
		return nil, err
	}

	return NewReference(descriptor, SourceModulePath, dir), nil
}

// discoverPackages walks dir recursively (relative to base via prefix)
// collecting every directory that directly contains a non-module-info
// .class file as a package name in slash form.
func discoverPackages(base, prefix string, packages map[string]bool) error {
	current := base
	if prefix != "" {
		current = filepath.Join(base, filepath.FromSlash(prefix))
	}
	entries, err := os.ReadDir(current)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	hasClasses := false
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasSuffix(name, ".class") && name != "module-info.class" {
			hasClasses = true
		} else if e.IsDir() && !strings.HasPrefix(name, ".") {
			newPrefix := name
			if prefix != "" {
				newPrefix = prefix + "/" + name
			}
			if err := discoverPackages(base, newPrefix, packages); err != nil {
				return err
			}
		}
	}
	if hasClasses && prefix != "" {
		packages[prefix] = true
	}
	return nil
}

func (f *ModulePathFinder) Find(name string) (*Reference, bool) {
	r, ok := f.modules[name]
	return r, ok
}

func (f *ModulePathFinder) FindAll() []*Reference {
	result := make([]*Reference, 0, len(f.modules))
	for _, r := range f.modules {
		result = append(result, r)
	}
	return result
}
