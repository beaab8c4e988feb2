package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverRootsExtractsModuleNames(t *testing.T) {
	files := map[string]string{
		"go.mod":                          "module example.com/acme/widget\n\ngo 1.22\n",
		"services/billing/pyproject.toml": "[tool.poetry]\nname = \"billing-core\"\n",
		"vendor-app/package.json":         `{"name": "@acme/vendor-app"}`,
		"crates/grinder/Cargo.toml":       "[package]\nname = \"grinder-fast\"\nversion = \"0.1.0\"\n",
		"legacy/setup.py":                 "from setuptools import setup\nsetup(\n    name=\"old-tool\",\n)\n",
		"jvm/pom.xml":                     "<project><groupId>com.acme</groupId><artifactId>widget</artifactId></project>",
		"ruby/Gemfile":                    "source \"https://rubygems.org\"\n",
	}

	roots := discoverRoots(keys(files), readerFor(files))
	require.Len(t, roots, 7)

	byDir := map[string]*packageRoot{}
	for _, root := range roots {
		byDir[root.dir] = root
	}

	assert.Equal(t, []string{"example.com/acme/widget"}, byDir[""].names)
	assert.Equal(t, []string{"billing-core", "billing_core"}, byDir["services/billing"].names)
	assert.Equal(t, []string{"@acme/vendor-app"}, byDir["vendor-app"].names)
	assert.Equal(t, []string{"grinder-fast", "grinder_fast"}, byDir["crates/grinder"].names)
	assert.Equal(t, []string{"old-tool", "old_tool"}, byDir["legacy"].names)
	assert.Equal(t, []string{"com/acme", "widget", "com/acme/widget"}, byDir["jvm"].names)
	assert.Empty(t, byDir["ruby"].names, "marker-only manifests still mark a root")
}

func TestDiscoverRootsAddsWorkspaceUseDirs(t *testing.T) {
	files := map[string]string{
		"go.work": "go 1.22\n\nuse (\n\t./svc\n\t./tools/gen\n)\n",
	}

	roots := discoverRoots(keys(files), readerFor(files))
	require.Len(t, roots, 3)
	assert.Equal(t, "", roots[0].dir)
	assert.Equal(t, "svc", roots[1].dir)
	assert.Equal(t, "tools/gen", roots[2].dir)
}

func TestDiscoverRootsKeepsMarkerOnParseFailure(t *testing.T) {
	files := map[string]string{
		"Cargo.toml": "not [valid toml",
	}

	roots := discoverRoots(keys(files), readerFor(files))
	require.Len(t, roots, 1)
	assert.Equal(t, "", roots[0].dir)
	assert.Empty(t, roots[0].names)
}

func TestTrimModule(t *testing.T) {
	root := &packageRoot{dir: "", names: []string{"example.com/acme/widget"}}

	rest, ok := root.trimModule("example.com/acme/widget/internal/store")
	require.True(t, ok)
	assert.Equal(t, "internal/store", rest)

	rest, ok = root.trimModule("example.com/acme/widget")
	require.True(t, ok)
	assert.Equal(t, ".", rest)

	_, ok = root.trimModule("example.com/other/mod")
	assert.False(t, ok)
}
