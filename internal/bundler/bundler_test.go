package bundler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/override"
)

func setupProject(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	files := map[string]string{
		"src/index.js":             `const db = require("./db.js"); const w = require("@app/widget"); console.log(db.kind, w.kind);`,
		"src/db.js":                `exports.kind = "client-db";`,
		"src/db.server.js":         `exports.kind = "server-db";`,
		"src/app/widget.js":        `exports.kind = "client-widget";`,
		"src/app/widget.server.js": `exports.kind = "server-widget";`,
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func aliases(t *testing.T, root string) override.AliasTable {
	t.Helper()
	table, err := override.NewAliasTable(override.Alias{
		Prefix:      "@app/",
		Replacement: filepath.Join(root, "src", "app") + "/",
	})
	require.NoError(t, err)
	return table
}

func TestBuildNode(t *testing.T) {
	root := setupProject(t)

	res, err := Build(context.Background(), Options{
		EntryPoints: []string{"src/index.js"},
		Outdir:      "dist",
		WorkingDir:  root,
		Platform:    override.PlatformNode,
		Aliases:     aliases(t, root),
	})
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(root, "dist", "index.js"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "server-db")
	assert.Contains(t, string(out), "server-widget")
	assert.NotContains(t, string(out), "client-db")
	assert.NotContains(t, string(out), "client-widget")

	assert.Equal(t, filepath.Join(root, "dist", MetafileName), res.MetafilePath)
	meta, err := os.ReadFile(res.MetafilePath)
	require.NoError(t, err)
	assert.Contains(t, string(meta), "src/db.server.js")
}

func TestBuildBrowser(t *testing.T) {
	root := setupProject(t)

	_, err := Build(context.Background(), Options{
		EntryPoints: []string{"src/index.js"},
		Outdir:      filepath.Join(root, "public"),
		WorkingDir:  root,
		Platform:    override.PlatformBrowser,
		Aliases:     aliases(t, root),
	})
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(root, "public", "index.js"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "client-db")
	assert.Contains(t, string(out), "client-widget")
	assert.NotContains(t, string(out), "server-db")
}

func TestBuildErrors(t *testing.T) {
	root := setupProject(t)

	_, err := Build(context.Background(), Options{Outdir: "dist", WorkingDir: root})
	assert.Error(t, err, "missing entry points")

	_, err = Build(context.Background(), Options{EntryPoints: []string{"src/index.js"}, WorkingDir: root})
	assert.Error(t, err, "missing outdir")

	_, err = Build(context.Background(), Options{
		EntryPoints: []string{"src/missing.js"},
		Outdir:      "dist",
		WorkingDir:  root,
		Platform:    override.PlatformNode,
	})
	assert.Error(t, err, "missing entry file")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Build(ctx, Options{
		EntryPoints: []string{"src/index.js"},
		Outdir:      "dist",
		WorkingDir:  root,
		Platform:    override.PlatformNode,
	})
	assert.ErrorIs(t, err, context.Canceled)
}
