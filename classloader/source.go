/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"

	"github.com/edsrzf/mmap-go"
)

// Source locates the raw .class bytes for a binary class name
// ("java/lang/String"), independent of module resolution -- modules
// answers "is this package reachable", Source answers "where are this
// class's bytes". Grounded on modules.ModulePathFinder's directory/jar
// scanning, narrowed to a single-class lookup instead of a whole
// module descriptor.
type Source interface {
	ReadClass(binaryName string) ([]byte, bool, error)
}

// DirectorySource reads classes from an exploded directory tree, e.g.
// "java/lang/String" -> root/java/lang/String.class.
type DirectorySource struct {
	Root string
}

func NewDirectorySource(root string) *DirectorySource {
	return &DirectorySource{Root: root}
}

// ReadClass mmaps the .class file (github.com/edsrzf/mmap-go) instead
// of reading it through os.ReadFile, then copies the mapped bytes into
// a fresh slice before unmapping, so the returned data stays valid
// after the mapping is released.
func (s *DirectorySource) ReadClass(binaryName string) ([]byte, bool, error) {
	path := filepath.Join(s.Root, filepath.FromSlash(binaryName)+".class")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, false, err
	}
	if info.Size() == 0 {
		return []byte{}, true, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, false, err
	}
	defer m.Unmap()

	data := make([]byte, len(m))
	copy(data, m)
	return data, true, nil
}

// JarSource reads classes out of a single .jar/.zip archive.
type JarSource struct {
	path string
}

func NewJarSource(path string) *JarSource {
	return &JarSource{path: path}
}

func (s *JarSource) ReadClass(binaryName string) ([]byte, bool, error) {
	archive, err := zip.OpenReader(s.path)
	if err != nil {
		return nil, false, err
	}
	defer archive.Close()

	entryName := binaryName + ".class"
	for _, f := range archive.File {
		if f.Name == entryName {
			rc, err := f.Open()
			if err != nil {
				return nil, false, err
			}
			defer rc.Close()
			buf := make([]byte, f.UncompressedSize64)
			if _, err := readFull(rc, buf); err != nil {
				return nil, false, err
			}
			return buf, true, nil
		}
	}
	return nil, false, nil
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			if total == len(buf) {
				return total, nil
			}
			return total, err
		}
	}
	return total, nil
}

// ChainSource consults a sequence of Sources in order, mirroring
// modules.FinderChain's parent-delegation shape.
type ChainSource struct {
	sources []Source
}

func NewChainSource(sources ...Source) *ChainSource {
	return &ChainSource{sources: sources}
}

func (c *ChainSource) Add(s Source) { c.sources = append(c.sources, s) }

func (c *ChainSource) ReadClass(binaryName string) ([]byte, bool, error) {
	for _, s := range c.sources {
		data, ok, err := s.ReadClass(binaryName)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return data, true, nil
		}
	}
	return nil, false, nil
}

// classpathFromString splits a ':'-separated classpath string (or
// ';' on a Windows-style path) into individual Sources.
func classpathFromString(classpath string) []Source {
	sep := ":"
	if strings.Contains(classpath, ";") {
		sep = ";"
	}
	var sources []Source
	for _, entry := range strings.Split(classpath, sep) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry), ".jar") {
			sources = append(sources, NewJarSource(entry))
		} else {
			sources = append(sources, NewDirectorySource(entry))
		}
	}
	return sources
}
