// Package fetch acquires the input archive: HTTP download with optional
// SHA-256 verification, then gzip+tar extraction. These are preparatory
// steps; the ingestion core only requires that the expected CSV files exist
// at their configured paths by the time it runs.
package fetch

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/datatools-io/batchload/internal/checksum"
	"github.com/datatools-io/batchload/pkg/batchload"
)

// DefaultRequestTimeout bounds the archive download.
const DefaultRequestTimeout = 5 * time.Minute

// Fetcher downloads and extracts input archives.
type Fetcher struct {
	client *http.Client
	calc   checksum.Calculator
	logger batchload.Logger
}

// New creates a Fetcher. Panics if logger is nil.
func New(logger batchload.Logger) *Fetcher {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Fetcher{
		client: &http.Client{Timeout: DefaultRequestTimeout},
		calc:   checksum.New(),
		logger: logger,
	}
}

// WithClient returns a new Fetcher using the given HTTP client.
// Used by tests to point at a local server.
func (f *Fetcher) WithClient(client *http.Client) *Fetcher {
	clone := *f
	clone.client = client
	return &clone
}

// Download fetches the archive at url into dest, creating parent
// directories as needed. If wantSHA256 is non-empty the downloaded bytes
// are verified against it and a mismatch removes the file again.
func (f *Fetcher) Download(ctx context.Context, url, dest, wantSHA256 string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("write %s: %w", dest, err)
	}
	f.logger.Info("downloaded %s (%d bytes)", dest, written)

	if wantSHA256 != "" {
		if err := f.verify(dest, wantSHA256); err != nil {
			os.Remove(dest)
			return err
		}
		f.logger.Verbose("archive checksum verified")
	}

	return nil
}

func (f *Fetcher) verify(path, want string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read back %s for verification: %w", path, err)
	}
	got := f.calc.CalculateRaw(content)
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("archive %s: got sha256 %s, want %s: %w", path, got, want, batchload.ErrChecksumMismatch)
	}
	return nil
}

// Extract unpacks the gzip-compressed tar archive into destDir. Entries
// whose names would escape destDir are rejected.
func (f *Fetcher) Extract(archivePath, destDir string) error {
	in, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("read gzip header of %s: %w", archivePath, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive %s: %w", archivePath, err)
		}

		target, err := securePath(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode()); err != nil {
				return err
			}
			f.logger.Verbose("extracted %s", target)
		default:
			// Symlinks and devices have no business in a data archive.
			f.logger.Verbose("skipping archive entry %s (type %c)", hdr.Name, hdr.Typeflag)
		}
	}
}

// securePath joins name under dir, refusing entries that escape it.
func securePath(dir, name string) (string, error) {
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) || cleaned == ".." {
		return "", fmt.Errorf("archive entry %q escapes the extraction directory", name)
	}
	return filepath.Join(dir, cleaned), nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", target, err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	_, err = io.Copy(out, r)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}
