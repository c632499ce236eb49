package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilProvider(t *testing.T) {
	var p *Provider

	assert.Empty(t, p.CountryCode("1.1.1.1:27015"))
	assert.NoError(t, p.Close())
}

func TestEnsureDBDownloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.UserAgent(), "squery/")
		_, _ = w.Write([]byte("mmdb"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "geo.mmdb")
	require.NoError(t, EnsureDB(context.Background(), path, srv.URL, time.Hour))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mmdb", string(data))
}

func TestEnsureDBFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geo.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("cached"), 0600))

	// unreachable URL: a fresh file must not be downloaded again
	require.NoError(t, EnsureDB(context.Background(), path, "http://127.0.0.1:1/none", time.Hour))
}

func TestEnsureDBBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "geo.mmdb")
	require.Error(t, EnsureDB(context.Background(), path, srv.URL, time.Hour))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
