// Package fetch implements the download provider. A transfer streams into a
// temporary sibling path and only becomes visible at the requested path
// after it completed in full, so a failed or interrupted download never
// leaves a corrupt file where the install expects a good one.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

const (
	// partSuffix is appended to the destination path while a transfer is in
	// flight.
	partSuffix = ".part"

	// chunkSize is the read granularity between progress notifications.
	chunkSize = 64 * 1024

	defaultUserAgent = "stagekit/1.0"
)

// Progress is one incremental download progress notification.
type Progress struct {
	// Label is the human-readable transfer description.
	Label string

	// Received is the number of bytes received so far.
	Received int64

	// Total is the expected total size in bytes, or -1 when unknown.
	Total int64
}

// ProgressFunc receives ordered [Progress] notifications during a transfer.
type ProgressFunc func(Progress)

// Downloader is the principal implementation of the download provider.
type Downloader struct {
	Client    *http.Client
	UserAgent string
}

// NewDownloader returns a pointer to a new [Downloader] using client, or a
// default client when nil is passed.
func NewDownloader(client *http.Client) *Downloader {
	if client == nil {
		client = &http.Client{}
	}

	return &Downloader{
		Client:    client,
		UserAgent: defaultUserAgent,
	}
}

// Download transfers url into dst, reporting progress through progressFn
// (which may be nil). The destination parent directory is created as needed;
// dst itself is replaced atomically after the full transfer succeeded.
func (d *Downloader) Download(ctx context.Context, url string, dst string, label string, progressFn ProgressFunc) error {
	var transferComplete bool

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("(fetch) failed to create download directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("(fetch) failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", d.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("(fetch) failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("(fetch) %w: %d while downloading %s", ErrHTTPStatus, resp.StatusCode, url)
	}

	tmp := dst + partSuffix
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("(fetch) failed to clear leftover partial file %s: %w", tmp, err)
	}

	defer func() {
		if !transferComplete {
			os.Remove(tmp) //nolint:errcheck
		}
	}()

	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("(fetch) failed to open partial file %s: %w", tmp, err)
	}
	defer out.Close()

	total := resp.ContentLength

	var received int64
	buf := make([]byte, chunkSize)

	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return fmt.Errorf("(fetch) failed to write partial file %s: %w", tmp, werr)
			}

			received += int64(n)
			if progressFn != nil {
				progressFn(Progress{Label: label, Received: received, Total: total})
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("(fetch) transfer of %s failed: %w", url, err)
		}
	}

	if err := out.Sync(); err != nil {
		return fmt.Errorf("(fetch) failed to sync partial file %s: %w", tmp, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("(fetch) failed to close partial file %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("(fetch) failed to move download into place at %s: %w", dst, err)
	}
	transferComplete = true

	return nil
}
