/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package modules

import "strings"

// AccessResult is the sum type spec.md §4.4's access checker returns.
// Callers map Allowed to success and every other case to the
// appropriate Java-visible exception (IllegalAccessError for
// NotReadable/NotExported, InaccessibleObjectException for NotOpened).
type AccessResult int

const (
	Allowed AccessResult = iota
	NotReadable
	NotExported
	NotOpened
)

func (r AccessResult) String() string {
	switch r {
	case Allowed:
		return "Allowed"
	case NotReadable:
		return "NotReadable"
	case NotExported:
		return "NotExported"
	case NotOpened:
		return "NotOpened"
	default:
		return "Unknown"
	}
}

// packageOf returns the binary package name of a binary class name,
// e.g. "java/util/List" -> "java/util".
func packageOf(className string) string {
	if idx := strings.LastIndex(className, "/"); idx >= 0 {
		return className[:idx]
	}
	return ""
}

// CheckAccess implements spec.md §4.4's access-check algorithm for a
// normal (non-reflective) access from sourceModule to targetClass,
// which lives in targetModule. sourceModule == "" denotes the unnamed
// module (classpath code), which may access any exported package of
// any named module without needing to read it first.
func CheckAccess(config *ResolvedConfiguration, sourceModule, targetModule, targetClass string) AccessResult {
	if sourceModule == targetModule {
		return Allowed
	}
	pkg := packageOf(targetClass)

	isUnnamed := sourceModule == "" || sourceModule == unnamedModule
	if !isUnnamed && !config.Reads(sourceModule, targetModule) {
		return NotReadable
	}
	if !config.Exports(targetModule, pkg, sourceModule) {
		return NotExported
	}
	return Allowed
}

// CheckDeepAccess implements the reflective-access variant (e.g.
// setAccessible): target must open the package to source rather than
// export it (spec.md §4.4 "For reflective (deep) access, target must
// open the package ... or be an open module").
func CheckDeepAccess(config *ResolvedConfiguration, sourceModule, targetModule, targetClass string) AccessResult {
	if sourceModule == targetModule {
		return Allowed
	}
	isUnnamed := sourceModule == "" || sourceModule == unnamedModule
	if !isUnnamed && !config.Reads(sourceModule, targetModule) {
		return NotReadable
	}
	pkg := packageOf(targetClass)
	if !config.Opens(targetModule, pkg, sourceModule) {
		return NotOpened
	}
	return Allowed
}
