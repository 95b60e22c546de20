package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xwiki-contrib/cristal-go/pkg/auth"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
)

const exampleConfig = `
log_level = "debug"

backend "xwiki" {
  type     = "XWiki"
  base_url = "https://wiki.example.org/xwiki"
}

backend "cloud" {
  type         = "Nextcloud"
  base_url     = "https://my.cloud"
  storage_root = "/alice/.cristal"
  username     = "alice"
  password     = "app-password"
  timeout      = "10s"
  tls_verify   = false
}

offline {
  root = "/var/cache/cristal"
}
`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cristal.hcl")
	require.NoError(t, os.WriteFile(path, []byte(exampleConfig), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, hclog.Debug, cfg.Level())
	require.Len(t, cfg.Backends, 2)
	require.NotNil(t, cfg.Offline)
	assert.Equal(t, "/var/cache/cristal", cfg.Offline.Root)

	xwiki, ok := cfg.Backend("xwiki")
	require.True(t, ok)
	assert.Equal(t, references.BackendTypeXWiki, xwiki.BackendType())
	assert.Equal(t, 30*time.Second, xwiki.TimeoutDuration())

	cloud, ok := cfg.Backend("cloud")
	require.True(t, ok)
	assert.Equal(t, references.BackendTypeNextcloud, cloud.BackendType())

	nc := cloud.NextcloudConfig()
	assert.Equal(t, "https://my.cloud", nc.BaseURL)
	assert.Equal(t, "/alice/.cristal", nc.StorageRoot)
	assert.Equal(t, 10*time.Second, nc.Timeout)
	require.NotNil(t, nc.TLSVerify)
	assert.False(t, *nc.TLSVerify)

	_, ok = cfg.Backend("missing")
	assert.False(t, ok)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := LoadFile("")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.hcl"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("syntax error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.hcl")
		require.NoError(t, os.WriteFile(path, []byte(`backend "x" {`), 0o600))
		_, err := LoadFile(path)
		assert.Error(t, err)
	})
}

func TestDecode_Defaults(t *testing.T) {
	cfg, err := Decode("minimal.hcl", []byte(`
backend "cloud" {
  type = "Nextcloud"
}
`))
	require.NoError(t, err)

	assert.Equal(t, hclog.Info, cfg.Level())
	assert.Nil(t, cfg.Offline)
	require.Len(t, cfg.Backends, 1)
	assert.Equal(t, "30s", cfg.Backends[0].Timeout)
	assert.Empty(t, cfg.Backends[0].NextcloudConfig().BaseURL)
}

func TestDecode_BackendTypeIgnoresCase(t *testing.T) {
	cfg, err := Decode("case.hcl", []byte(`
backend "cloud" {
  type = "nextcloud"
}

backend "wiki" {
  type = "XWIKI"
}
`))
	require.NoError(t, err)

	cloud, ok := cfg.Backend("cloud")
	require.True(t, ok)
	assert.Equal(t, "Nextcloud", cloud.Type)
	assert.Equal(t, references.BackendTypeNextcloud, cloud.BackendType())

	wiki, ok := cfg.Backend("wiki")
	require.True(t, ok)
	assert.Equal(t, references.BackendTypeXWiki, wiki.BackendType())

	assert.NoError(t, (&Backend{Name: "raw", Type: "github", Timeout: "1s"}).Validate())
	assert.Equal(t, references.BackendTypeGitHub, (&Backend{Type: "github"}).BackendType())
}

func TestDecode_ValidationErrors(t *testing.T) {
	src := `
log_level = "loud"

backend "a" {
  type     = "Confluence"
  base_url = "ftp://files.example.org"
  timeout  = "soon"
}

backend "a" {
  type = "XWiki"
}

backend "b" {
  type     = "Nextcloud"
  username = "alice"
  token    = "abc"
}

offline {
  root = ""
}
`
	_, err := Decode("invalid.hcl", []byte(src))
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok, "expected a multierror, got %T", err)
	assert.Len(t, merr.Errors, 5)

	msg := err.Error()
	assert.Contains(t, msg, "log_level")
	assert.Contains(t, msg, `duplicate backend "a"`)
	assert.Contains(t, msg, "must use http or https scheme")
	assert.Contains(t, msg, "invalid backend type")
	assert.Contains(t, msg, "cannot be combined with username")
	assert.Contains(t, msg, "offline")
}

func TestBackend_AuthProvider(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tests := []struct {
		name    string
		backend Backend
		want    string
	}{
		{"anonymous", Backend{}, ""},
		{"basic", Backend{Username: "alice", Password: "secret"}, "Basic YWxpY2U6c2VjcmV0"},
		{"token", Backend{Token: "abc"}, "Bearer abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, err := auth.Header(ctx, tt.backend.AuthProvider())
			require.NoError(t, err)
			assert.Equal(t, tt.want, header)
		})
	}
}
