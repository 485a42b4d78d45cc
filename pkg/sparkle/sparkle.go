// Package sparkle fetches the Sparkle updater framework into the
// working tree. The framework ships as a tar.xz release artifact;
// patched BUILD.gn files reference it under third_party/sparkle, so
// the fetch runs before patch application. The target directory is
// always wiped first: a half-extracted framework from an interrupted
// run must never survive into a build.
package sparkle

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/ulikunitz/xz"

	"github.com/nxtscape/nxbuild/pkg/config"
	"github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/logging"
)

// Fetcher downloads and extracts Sparkle releases.
type Fetcher struct {
	client       *http.Client
	logger       zerolog.Logger
	showProgress bool
}

// NewFetcher creates a Fetcher. showProgress enables a terminal
// progress bar during download.
func NewFetcher(client *http.Client, showProgress bool) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		client:       client,
		logger:       logging.GetLogger("sparkle"),
		showProgress: showProgress,
	}
}

// Fetch downloads the configured release and extracts it into destDir.
// Any existing content at destDir is removed first.
func (f *Fetcher) Fetch(ctx context.Context, cfg config.Sparkle, destDir string) error {
	if cfg.URL == "" {
		return errors.New(errors.ErrConfigValid, "sparkle.url is not configured")
	}

	if err := os.RemoveAll(destDir); err != nil {
		return errors.Wrapf(err, errors.ErrSyncFailed, "cannot wipe %s", destDir)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrSyncFailed, "cannot create %s", destDir)
	}

	archive, err := f.download(ctx, cfg)
	if err != nil {
		return err
	}
	defer os.Remove(archive)

	f.logger.Info().Str("dest", destDir).Msg("Extracting Sparkle")
	if err := extractTarXz(archive, destDir); err != nil {
		return errors.Wrapf(err, errors.ErrSyncFailed, "cannot extract Sparkle into %s", destDir)
	}
	return nil
}

// download fetches the release archive to a temp file and returns its
// path. The caller removes the file.
func (f *Fetcher) download(ctx context.Context, cfg config.Sparkle) (string, error) {
	f.logger.Info().Str("version", cfg.Version).Str("url", cfg.URL).Msg("Downloading Sparkle")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL, nil)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrSyncFailed, "invalid Sparkle URL %s", cfg.URL)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrSyncFailed, "cannot download Sparkle from %s", cfg.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf(errors.ErrSyncFailed, "Sparkle download returned %s", resp.Status).
			WithDetail("url", cfg.URL)
	}

	tmp, err := os.CreateTemp("", "sparkle-*.tar.xz")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrSyncFailed, "cannot create temp file for Sparkle download")
	}
	defer tmp.Close()

	var src io.Reader = resp.Body
	if f.showProgress && resp.ContentLength > 0 {
		bar, _ := pterm.DefaultProgressbar.
			WithTotal(int(resp.ContentLength)).
			WithTitle(fmt.Sprintf("Sparkle %s", cfg.Version)).
			WithShowCount(false).
			Start()
		if bar != nil {
			src = &progressReader{r: resp.Body, bar: bar}
			defer func() { _, _ = bar.Stop() }()
		}
	}

	if _, err := io.Copy(tmp, src); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrapf(err, errors.ErrSyncFailed, "Sparkle download from %s interrupted", cfg.URL)
	}
	return tmp.Name(), nil
}

type progressReader struct {
	r   io.Reader
	bar *pterm.ProgressbarPrinter
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.bar.Add(n)
	}
	return n, err
}

// extractTarXz unpacks a tar.xz archive into dest, stripping the
// single top-level directory the release tarball wraps everything in.
// Framework bundles carry symlinks and executable bits, so extraction
// goes through the real filesystem rather than the narrow FS used
// elsewhere.
func extractTarXz(archive, dest string) error {
	file, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer file.Close()

	xzr, err := xz.NewReader(file)
	if err != nil {
		return fmt.Errorf("creating xz reader: %w", err)
	}

	tr := tar.NewReader(xzr)
	var prefix string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar header: %w", err)
		}
		if hdr.Typeflag == tar.TypeXHeader || hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		if prefix == "" {
			if idx := strings.Index(hdr.Name, "/"); idx != -1 {
				prefix = hdr.Name[:idx+1]
			}
		}
		name := strings.TrimPrefix(hdr.Name, prefix)
		if name == "" {
			continue
		}

		target, err := securePath(dest, name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)|0700); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := writeRegular(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		}
	}
}

func writeRegular(target string, r io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// securePath rejects entries that would escape dest.
func securePath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %s escapes destination", name)
	}
	return target, nil
}
