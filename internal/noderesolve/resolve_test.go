package noderesolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (relative slash paths) under a fresh temp root.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestResolve(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/foo.js":                            "",
		"src/bar.json":                          "{}",
		"src/lib/index.js":                      "",
		"src/pkg/package.json":                  `{"main": "dist/entry"}`,
		"src/pkg/dist/entry.js":                 "",
		"src/nomain/package.json":               `{"name": "nomain"}`,
		"src/nomain/index.json":                 "{}",
		"node_modules/react/package.json":       `{"main": "index.js"}`,
		"node_modules/react/index.js":           "",
		"node_modules/react/jsx-runtime.js":     "",
		"src/node_modules/local-only/index.js":  "",
		"node_modules/@scope/name/lib/index.js": "",
		"node_modules/@scope/name/package.json": `{"main": "./lib"}`,
	})
	src := filepath.Join(root, "src")

	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "exact file", id: "./foo.js", want: "src/foo.js"},
		{name: "extension inference", id: "./foo", want: "src/foo.js"},
		{name: "json extension", id: "./bar", want: "src/bar.json"},
		{name: "directory index", id: "./lib", want: "src/lib/index.js"},
		{name: "directory with trailing slash", id: "./lib/", want: "src/lib/index.js"},
		{name: "package main without extension", id: "./pkg", want: "src/pkg/dist/entry.js"},
		{name: "package without main falls back to index", id: "./nomain", want: "src/nomain/index.json"},
		{name: "parent relative", id: "../node_modules/react/index.js", want: "node_modules/react/index.js"},
		{name: "bare package walks up", id: "react", want: "node_modules/react/index.js"},
		{name: "bare subpath", id: "react/jsx-runtime", want: "node_modules/react/jsx-runtime.js"},
		{name: "nearest node_modules", id: "local-only", want: "src/node_modules/local-only/index.js"},
		{name: "scoped package with directory main", id: "@scope/name", want: "node_modules/@scope/name/lib/index.js"},
		{name: "absolute path", id: filepath.Join(root, "src", "foo"), want: "src/foo.js"},
	}

	r := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.id, src)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, filepath.FromSlash(tt.want)), got)
		})
	}
}

func TestResolveBuiltin(t *testing.T) {
	r := New()
	for _, id := range []string{"fs", "node:fs", "fs/promises", "path"} {
		got, err := r.Resolve(id, t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestResolveNotFound(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/foo.js": "",
	})
	r := New()

	for _, id := range []string{"./missing.js", "./foo.js/index", "missing-package", ""} {
		_, err := r.Resolve(id, filepath.Join(root, "src"))
		require.Error(t, err, id)
		assert.ErrorIs(t, err, ErrModuleNotFound, id)

		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, id, nf.ID)
	}
}

func TestResolveSearchesPathsInOrder(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a/shared.js": "",
		"b/shared.js": "",
		"b/only-b.js": "",
	})
	r := New()

	got, err := r.Resolve("./shared", filepath.Join(root, "a"), filepath.Join(root, "b"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", "shared.js"), got)

	got, err = r.Resolve("./only-b", filepath.Join(root, "a"), filepath.Join(root, "b"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "b", "only-b.js"), got)
}

func TestResolveWithExtensions(t *testing.T) {
	root := writeTree(t, map[string]string{
		"widget.mjs": "",
		"widget.js":  "",
	})

	got, err := New(WithExtensions(".mjs", ".js")).Resolve("./widget", root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "widget.mjs"), got)

	got, err = New().Resolve("./widget", root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "widget.js"), got)
}

func TestResolveFollowsSymlinks(t *testing.T) {
	root := writeTree(t, map[string]string{
		"real/target.js": "",
	})
	link := filepath.Join(root, "link.js")
	if err := os.Symlink(filepath.Join(root, "real", "target.js"), link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got, err := New().Resolve("./link.js", root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "real", "target.js"), got)
}

func TestResolveMalformedPackageJSON(t *testing.T) {
	root := writeTree(t, map[string]string{
		"broken/package.json": "{not json",
		"broken/index.js":     "",
	})

	_, err := New().Resolve("./broken", root)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrModuleNotFound)
}

func TestNodeModulesPaths(t *testing.T) {
	root := string(filepath.Separator)
	start := filepath.Join(root, "app", "node_modules", "pkg")

	got := nodeModulesPaths(start)
	assert.Equal(t, []string{
		filepath.Join(root, "app", "node_modules", "pkg", "node_modules"),
		filepath.Join(root, "app", "node_modules"),
		filepath.Join(root, "node_modules"),
	}, got)
}

func TestResolveExports(t *testing.T) {
	root := writeTree(t, map[string]string{
		"node_modules/sugar/package.json":        `{"main": "index.js", "exports": "./lib/main.js"}`,
		"node_modules/sugar/index.js":            "",
		"node_modules/sugar/lib/main.js":         "",
		"node_modules/cond/package.json":         `{"exports": {"import": "./esm.mjs", "require": "./cjs.js"}}`,
		"node_modules/cond/esm.mjs":              "",
		"node_modules/cond/cjs.js":               "",
		"node_modules/nested/package.json":       `{"exports": {".": {"browser": "./browser.js", "node": {"import": "./node.mjs", "default": "./node.js"}}}}`,
		"node_modules/nested/browser.js":         "",
		"node_modules/nested/node.js":            "",
		"node_modules/fallback/package.json":     `{"exports": {"browser": "./browser.js", "default": "./default.js"}}`,
		"node_modules/fallback/browser.js":       "",
		"node_modules/fallback/default.js":       "",
		"node_modules/array/package.json":        `{"exports": [{"worker": "./worker.js"}, "./main.js"]}`,
		"node_modules/array/main.js":             "",
		"node_modules/sub/package.json":          `{"exports": {".": "./src/index.js", "./utils": {"require": "./src/utils.cjs"}, "./features/*": "./src/features/*.js", "./features/internal/*": null}}`,
		"node_modules/sub/src/index.js":          "",
		"node_modules/sub/src/utils.cjs":         "",
		"node_modules/sub/src/features/a.js":     "",
		"node_modules/@scope/exp/package.json":   `{"exports": {"./client": "./dist/client.js"}}`,
		"node_modules/@scope/exp/dist/client.js": "",
	})

	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "string exports wins over main", id: "sugar", want: "node_modules/sugar/lib/main.js"},
		{name: "require condition", id: "cond", want: "node_modules/cond/cjs.js"},
		{name: "nested node condition", id: "nested", want: "node_modules/nested/node.js"},
		{name: "default condition", id: "fallback", want: "node_modules/fallback/default.js"},
		{name: "array fallback", id: "array", want: "node_modules/array/main.js"},
		{name: "root subpath", id: "sub", want: "node_modules/sub/src/index.js"},
		{name: "conditional subpath", id: "sub/utils", want: "node_modules/sub/src/utils.cjs"},
		{name: "pattern subpath", id: "sub/features/a", want: "node_modules/sub/src/features/a.js"},
		{name: "scoped package subpath", id: "@scope/exp/client", want: "node_modules/@scope/exp/dist/client.js"},
	}

	r := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.id, root)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, filepath.FromSlash(tt.want)), got)
		})
	}
}

func TestResolveExportsHidesSubpaths(t *testing.T) {
	root := writeTree(t, map[string]string{
		"node_modules/sub/package.json":             `{"exports": {".": "./index.js", "./features/*": "./features/*.js", "./features/internal/*": null}}`,
		"node_modules/sub/index.js":                 "",
		"node_modules/sub/lib/hidden.js":            "",
		"node_modules/sub/features/internal/x.js":   "",
		"node_modules/sugar/package.json":           `{"exports": "./main.js"}`,
		"node_modules/sugar/main.js":                "",
		"node_modules/sugar/other.js":               "",
		"node_modules/esm/package.json":             `{"exports": {"import": "./esm.mjs"}}`,
		"node_modules/esm/esm.mjs":                  "",
		"node_modules/escape/package.json":          `{"exports": {"./*": "./*.js"}}`,
		"node_modules/escape/node_modules/dep/x.js": "",
	})

	r := New()
	for _, id := range []string{"sub/lib/hidden.js", "sub/package.json", "sub/features/internal/x", "sugar/other.js", "esm", "escape/node_modules/dep/x"} {
		t.Run(id, func(t *testing.T) {
			_, err := r.Resolve(id, root)
			assert.ErrorIs(t, err, ErrModuleNotFound)
		})
	}
}

func TestResolveExportsMissingTarget(t *testing.T) {
	root := writeTree(t, map[string]string{
		"node_modules/broken/package.json": `{"exports": "./missing.js"}`,
		"node_modules/broken/index.js":     "",
	})

	_, err := New().Resolve("broken", root)
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func TestResolveExportsInvalid(t *testing.T) {
	root := writeTree(t, map[string]string{
		"node_modules/mixed/package.json": `{"exports": {".": "./index.js", "require": "./cjs.js"}}`,
		"node_modules/mixed/index.js":     "",
	})

	_, err := New().Resolve("mixed", root)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrModuleNotFound)
	assert.ErrorContains(t, err, "invalid exports")
}

func TestSplitPackage(t *testing.T) {
	tests := []struct {
		id, name, subpath string
	}{
		{"react", "react", "."},
		{"react/jsx-runtime", "react", "./jsx-runtime"},
		{"@scope/name", "@scope/name", "."},
		{"@scope/name/a/b", "@scope/name", "./a/b"},
		{"@scope", "@scope", "."},
	}
	for _, tt := range tests {
		name, subpath := splitPackage(tt.id)
		assert.Equal(t, tt.name, name, tt.id)
		assert.Equal(t, tt.subpath, subpath, tt.id)
	}
}
