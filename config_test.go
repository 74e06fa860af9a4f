package layerlist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	t.Setenv("LAYERLIST_TEST_BASE_URL", "https://maps.example.com")

	src := `
timeout = 3

manifest {
  base_url = env("LAYERLIST_TEST_BASE_URL")
  endpoint = "/layers-list.json"
  shape    = "object"
}

output "site" {
  path           = "./out"
  include_static = true
}

output "preview" {
  path = "./preview"
}

server {
  listen     = ":9000"
  static_dir = "./static"
}
`

	cfg, err := ParseConfig("config.hcl", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout())
	assert.Equal(t, "https://maps.example.com", cfg.Manifest.BaseURL)
	assert.Equal(t, "/layers-list.json", cfg.Manifest.Endpoint)
	assert.Equal(t, "object", cfg.Manifest.Shape)
	require.Len(t, cfg.Outputs, 2)
	assert.True(t, cfg.GetOutput("site").IncludeStatic)
	assert.False(t, cfg.GetOutput("preview").IncludeStatic)
	assert.Nil(t, cfg.GetOutput("missing"))
	assert.Equal(t, ":9000", cfg.Server.Listen)
	assert.Equal(t, "./static", cfg.Server.StaticDir)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig("config.hcl", []byte(``))
	require.NoError(t, err)

	assert.Equal(t, DefaultTimeout*time.Second, cfg.HTTPTimeout())
	assert.Equal(t, "", cfg.Manifest.BaseURL)
	assert.Equal(t, DefaultEndpoint, cfg.Manifest.Endpoint)
	assert.Equal(t, DefaultShape, cfg.Manifest.Shape)
	assert.Equal(t, DefaultListen, cfg.Server.Listen)
	assert.Empty(t, cfg.Outputs)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "unknown shape",
			src:     `manifest { shape = "csv" }`,
			wantErr: "manifest shape",
		},
		{
			name:    "negative timeout",
			src:     `timeout = -1`,
			wantErr: "timeout must not be negative",
		},
		{
			name: "duplicate output",
			src: `
output "site" { path = "a" }
output "site" { path = "b" }
`,
			wantErr: `duplicate output "site"`,
		},
		{
			name:    "syntax error",
			src:     `manifest {`,
			wantErr: "config.hcl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig("config.hcl", []byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`timeout = 5`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Timeout)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.Error(t, err)
}
