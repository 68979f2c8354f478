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

func TestAutomaticFromJarNameStripsVersion(t *testing.T) {
	d, err := AutomaticFromJarName("foo-bar-1.2.3.jar", "", map[string]bool{"foo/bar": true})
	require.NoError(t, err)
	require.Equal(t, "foo.bar", d.Name)
}

func TestAutomaticFromJarNamePrefersManifestName(t *testing.T) {
	d, err := AutomaticFromJarName("anything-9.jar", "com.example.tool", nil)
	require.NoError(t, err)
	require.Equal(t, "com.example.tool", d.Name)
}

func TestAutomaticFromJarNameNoVersion(t *testing.T) {
	d, err := AutomaticFromJarName("guava.jar", "", nil)
	require.NoError(t, err)
	require.Equal(t, "guava", d.Name)
}

func TestExportsPackageUnqualified(t *testing.T) {
	d := NewModuleDescriptor("mod.a")
	d.Exports = []Export{{Package: "a/pub"}}
	require.True(t, d.ExportsPackage("a/pub", "anyone"))
	require.False(t, d.ExportsPackage("a/priv", "anyone"))
}

func TestExportsPackageQualified(t *testing.T) {
	d := NewModuleDescriptor("mod.a")
	d.Exports = []Export{{Package: "a/priv", To: []string{"mod.friend"}}}
	require.True(t, d.ExportsPackage("a/priv", "mod.friend"))
	require.False(t, d.ExportsPackage("a/priv", "mod.stranger"))
}
