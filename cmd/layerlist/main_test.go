package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/b1naryth1ef/layerlist"
	"github.com/b1naryth1ef/layerlist/serve"
)

func writeConfig(t *testing.T, src string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out strings.Builder
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard

	err := app.Run(append([]string{"layerlist"}, args...))
	return out.String(), err
}

func TestFetchCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"name":"roads","path":"/data/roads.shp"}]`)
	}))
	defer srv.Close()

	config := writeConfig(t, fmt.Sprintf(`manifest { base_url = %q }`, srv.URL))

	out, err := runApp(t, "--config", config, "fetch")
	require.NoError(t, err)

	var result layerlist.LoadResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []layerlist.LayerOption{{Name: "roads", Path: "/data/roads.shp"}}, result.AvailableShapefiles)
	assert.Empty(t, result.Error)
}

func TestFetchCommand_Failure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	config := writeConfig(t, fmt.Sprintf(`manifest { base_url = %q }`, srv.URL))

	exitCode := -1
	prev := cli.OsExiter
	cli.OsExiter = func(code int) { exitCode = code }
	defer func() { cli.OsExiter = prev }()

	out, err := runApp(t, "--config", config, "fetch")
	assert.Error(t, err)
	assert.Equal(t, 1, exitCode)

	var result layerlist.LoadResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Empty(t, result.AvailableShapefiles)
	assert.Contains(t, result.Error, "404")
}

func TestBuildCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"shapefiles":[{"name":"rivers","path":"/data/rivers.shp"}]}`)
	}))
	defer srv.Close()

	outDir := filepath.Join(t.TempDir(), "out")
	config := writeConfig(t, fmt.Sprintf(`
manifest { base_url = %q }
output "site" {
  path           = %q
  include_static = true
}
`, srv.URL, outDir))

	_, err := runApp(t, "--config", config, "build", "--output", "site")
	require.NoError(t, err)

	index, err := os.ReadFile(filepath.Join(outDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "rivers")
}

func TestMissingConfig(t *testing.T) {
	_, err := runApp(t, "--config", filepath.Join(t.TempDir(), "nope.hcl"), "fetch")
	assert.Error(t, err)
}

func TestServeCommand_RequiresManifestSource(t *testing.T) {
	config := writeConfig(t, `server { listen = "127.0.0.1:0" }`)

	_, err := runApp(t, "--config", config, "serve")
	assert.ErrorIs(t, err, serve.ErrNoManifestSource)
}
