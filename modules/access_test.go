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

func buildTwoModuleConfig(t *testing.T) *ResolvedConfiguration {
	t.Helper()
	base := descriptorWithPackage(JavaBase, "java/lang")

	lib := NewModuleDescriptor("mod.lib")
	lib.Packages["lib/pub"] = true
	lib.Packages["lib/internal"] = true
	lib.Exports = []Export{{Package: "lib/pub"}}
	lib.Opens = []Open{{Package: "lib/internal", To: []string{"mod.friend"}}}
	lib.Requires = append(lib.Requires, Requires{Name: JavaBase})

	friend := NewModuleDescriptor("mod.friend")
	friend.Requires = append(friend.Requires, Requires{Name: JavaBase}, Requires{Name: "mod.lib"})

	finder := mapFinder{
		JavaBase:     NewReference(base, SourceSystem, ""),
		"mod.lib":    NewReference(lib, SourceSystem, ""),
		"mod.friend": NewReference(friend, SourceSystem, ""),
	}
	cfg, err := NewResolver().Resolve([]string{"mod.friend"}, finder)
	require.NoError(t, err)
	return cfg
}

func TestCheckAccessSameModuleAllowed(t *testing.T) {
	cfg := buildTwoModuleConfig(t)
	require.Equal(t, Allowed, CheckAccess(cfg, "mod.lib", "mod.lib", "lib/pub/Thing"))
}

func TestCheckAccessExportedPackageAllowed(t *testing.T) {
	cfg := buildTwoModuleConfig(t)
	require.Equal(t, Allowed, CheckAccess(cfg, "mod.friend", "mod.lib", "lib/pub/Thing"))
}

func TestCheckAccessUnexportedPackageDenied(t *testing.T) {
	cfg := buildTwoModuleConfig(t)
	require.Equal(t, NotExported, CheckAccess(cfg, "mod.friend", "mod.lib", "lib/internal/Hidden"))
}

func TestCheckAccessUnreadableDenied(t *testing.T) {
	cfg := buildTwoModuleConfig(t)
	require.Equal(t, NotReadable, CheckAccess(cfg, "mod.lib", "mod.friend", "anything/Thing"))
}

func TestCheckAccessUnnamedModuleReachesAnyExport(t *testing.T) {
	cfg := buildTwoModuleConfig(t)
	require.Equal(t, Allowed, CheckAccess(cfg, "", "mod.lib", "lib/pub/Thing"))
}

func TestCheckDeepAccessOpenedPackageAllowed(t *testing.T) {
	cfg := buildTwoModuleConfig(t)
	require.Equal(t, Allowed, CheckDeepAccess(cfg, "mod.friend", "mod.lib", "lib/internal/Hidden"))
}

func TestCheckDeepAccessUnopenedPackageDenied(t *testing.T) {
	cfg := buildTwoModuleConfig(t)
	require.Equal(t, NotOpened, CheckDeepAccess(cfg, "", "mod.lib", "lib/internal/Hidden"))
}
