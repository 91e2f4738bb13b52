// Package archive implements archive expansion into a directory tree. Zip
// and gzip-compressed tar archives are supported; entry paths are confined
// to the destination directory and a malformed archive surfaces as a
// distinguishable error kind.
package archive

import (
	"archive/tar"
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// Expander is the principal implementation of the archive expansion.
type Expander struct{}

// NewExpander returns a pointer to a new [Expander].
func NewExpander() *Expander {
	return &Expander{}
}

// Expand fully materializes the archive's directory tree under destDir,
// which is created as needed. The archive kind is chosen by file extension,
// defaulting to zip.
func (e *Expander) Expand(ctx context.Context, archivePath string, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("(archive) failed to create destination directory: %w", err)
	}

	name := strings.ToLower(archivePath)
	if strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz") {
		return e.expandTarGz(ctx, archivePath, destDir)
	}

	return e.expandZip(ctx, archivePath, destDir)
}

func (e *Expander) expandZip(ctx context.Context, archivePath string, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("(archive) %w: %s: %w", ErrBadArchive, archivePath, err)
	}
	defer r.Close()

	r.RegisterDecompressor(zip.Deflate, func(in io.Reader) io.ReadCloser {
		return flate.NewReader(in)
	})

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("(archive) %w", err)
		}

		target, err := securePath(destDir, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, dirMode(f.Mode())); err != nil {
				return fmt.Errorf("(archive) failed to create directory %s: %w", target, err)
			}

			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("(archive) %w: entry %s: %w", ErrBadArchive, f.Name, err)
		}

		if err := writeEntry(target, f.Mode(), rc); err != nil {
			rc.Close()

			return err
		}
		rc.Close()

		if f.Mode()&os.ModeSymlink == 0 && !f.Modified.IsZero() {
			os.Chtimes(target, f.Modified, f.Modified) //nolint:errcheck
		}
	}

	return nil
}

func (e *Expander) expandTarGz(ctx context.Context, archivePath string, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("(archive) failed to open %s: %w", archivePath, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("(archive) %w: %s: %w", ErrBadArchive, archivePath, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("(archive) %w", err)
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("(archive) %w: %s: %w", ErrBadArchive, archivePath, err)
		}

		target, err := securePath(destDir, hdr.Name)
		if err != nil {
			return err
		}

		mode := fs.FileMode(hdr.Mode) //nolint:gosec

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, dirMode(mode)); err != nil {
				return fmt.Errorf("(archive) failed to create directory %s: %w", target, err)
			}

		case tar.TypeReg:
			if err := writeEntry(target, mode, tr); err != nil {
				return err
			}
			if !hdr.ModTime.IsZero() {
				os.Chtimes(target, hdr.ModTime, hdr.ModTime) //nolint:errcheck
			}

		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("(archive) failed to create parent directory for %s: %w", target, err)
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("(archive) failed to create symlink %s: %w", target, err)
			}

		default:
			// Device nodes and other special entries have no place in a
			// project or payload archive.
			continue
		}
	}
}

func writeEntry(target string, mode fs.FileMode, content io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("(archive) failed to create parent directory for %s: %w", target, err)
	}

	if mode&os.ModeSymlink != 0 {
		// Zip archives carry the link target as the entry content.
		link, err := io.ReadAll(content)
		if err != nil {
			return fmt.Errorf("(archive) %w: symlink entry %s: %w", ErrBadArchive, target, err)
		}

		if err := os.Symlink(string(link), target); err != nil {
			return fmt.Errorf("(archive) failed to create symlink %s: %w", target, err)
		}

		return nil
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()|0o200)
	if err != nil {
		return fmt.Errorf("(archive) failed to create file %s: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, content); err != nil {
		return fmt.Errorf("(archive) failed to write file %s: %w", target, err)
	}

	return nil
}

func securePath(destDir string, name string) (string, error) {
	cleaned := filepath.FromSlash(name)
	if !filepath.IsLocal(cleaned) {
		return "", fmt.Errorf("(archive) %w: %s", ErrInsecurePath, name)
	}

	return filepath.Join(destDir, cleaned), nil
}

func dirMode(mode fs.FileMode) fs.FileMode {
	perm := mode.Perm()
	if perm == 0 {
		perm = 0o755
	}

	// The expander must be able to write into its own directories.
	return perm | 0o300
}
