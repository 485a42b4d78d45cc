package sparkle

import (
	"archive/tar"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/nxtscape/nxbuild/pkg/config"
	nxerrors "github.com/nxtscape/nxbuild/pkg/errors"
)

type entry struct {
	name     string
	typeflag byte
	body     string
	linkname string
	mode     int64
}

func buildTarXz(t *testing.T, entries []entry) []byte {
	t.Helper()

	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.name,
			Typeflag: e.typeflag,
			Linkname: e.linkname,
			Mode:     e.mode,
			Size:     int64(len(e.body)),
		}
		if hdr.Mode == 0 {
			hdr.Mode = 0644
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if e.body != "" {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	require.NoError(t, err)
	_, err = xw.Write(tarBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, xw.Close())
	return xzBuf.Bytes()
}

func TestFetchExtractsStrippingTopDir(t *testing.T) {
	archive := buildTarXz(t, []entry{
		{name: "Sparkle-2.6.4/", typeflag: tar.TypeDir, mode: 0755},
		{name: "Sparkle-2.6.4/Sparkle.framework/", typeflag: tar.TypeDir, mode: 0755},
		{name: "Sparkle-2.6.4/Sparkle.framework/Versions/A/Sparkle", typeflag: tar.TypeReg, body: "binary", mode: 0755},
		{name: "Sparkle-2.6.4/Sparkle.framework/Sparkle", typeflag: tar.TypeSymlink, linkname: "Versions/A/Sparkle"},
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "third_party", "sparkle")
	// Stale content from an earlier run must be wiped.
	require.NoError(t, os.MkdirAll(dest, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "stale.txt"), []byte("old"), 0644))

	fetcher := NewFetcher(srv.Client(), false)
	cfg := config.Sparkle{Version: "2.6.4", URL: srv.URL + "/Sparkle-2.6.4.tar.xz"}
	require.NoError(t, fetcher.Fetch(context.Background(), cfg, dest))

	data, err := os.ReadFile(filepath.Join(dest, "Sparkle.framework/Versions/A/Sparkle"))
	require.NoError(t, err)
	assert.Equal(t, "binary", string(data))

	link, err := os.Readlink(filepath.Join(dest, "Sparkle.framework/Sparkle"))
	require.NoError(t, err)
	assert.Equal(t, "Versions/A/Sparkle", link)

	_, err = os.Stat(filepath.Join(dest, "stale.txt"))
	assert.True(t, os.IsNotExist(err), "previous content must be wiped")
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	fetcher := NewFetcher(srv.Client(), false)
	cfg := config.Sparkle{Version: "2.6.4", URL: srv.URL + "/missing.tar.xz"}
	err := fetcher.Fetch(context.Background(), cfg, t.TempDir())
	require.Error(t, err)
	assert.True(t, nxerrors.IsErrorCode(err, nxerrors.ErrSyncFailed))
}

func TestFetchNoURL(t *testing.T) {
	fetcher := NewFetcher(nil, false)
	err := fetcher.Fetch(context.Background(), config.Sparkle{}, t.TempDir())
	require.Error(t, err)
	assert.True(t, nxerrors.IsErrorCode(err, nxerrors.ErrConfigValid))
}

func TestExtractRejectsEscapingPaths(t *testing.T) {
	archive := buildTarXz(t, []entry{
		{name: "Sparkle-2.6.4/", typeflag: tar.TypeDir, mode: 0755},
		{name: "Sparkle-2.6.4/../../evil.txt", typeflag: tar.TypeReg, body: "evil"},
	})

	tmp := filepath.Join(t.TempDir(), "a.tar.xz")
	require.NoError(t, os.WriteFile(tmp, archive, 0644))

	err := extractTarXz(tmp, filepath.Join(t.TempDir(), "dest"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes destination")
}
