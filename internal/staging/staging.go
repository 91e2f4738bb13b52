// Package staging implements the staged swap install of one dependency
// payload. A complete replacement subtree is built off to the side in a
// staging directory and then substituted for the live dependency directory
// at single-rename granularity, so an external observer never sees the
// dependency half-merged with stale content from a prior install.
package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stagekit/stagekit/internal/schema"
	"github.com/stagekit/stagekit/internal/treeops"
)

// AsideSuffix is appended to the final directory name while the previous
// content is parked during the commit swap.
const AsideSuffix = ".__old__"

// StagingSuffix is appended to the final directory name to form the staging
// directory the replacement subtree is built in.
const StagingSuffix = ".__staging__"

type osProvider interface {
	Stat(name string) (os.FileInfo, error)
	ReadDir(name string) ([]os.DirEntry, error)
	Rename(oldpath, newpath string) error
}

type treeProvider interface {
	Delete(path string, report *treeops.Report)
	Move(src string, dst string, report *treeops.Report) error
	Copy(src string, dst string, report *treeops.Report) error
	EnsureDir(path string) error
}

type locatorProvider interface {
	PreUnwrap(root string, report *treeops.Report) error
	FindRoot(root string) (string, bool)
}

// Installer is the principal implementation of the staged swap install.
type Installer struct {
	OSOps   osProvider
	Tree    treeProvider
	Locator locatorProvider
}

// NewInstaller returns a pointer to a new staged swap [Installer].
func NewInstaller(osOps osProvider, tree treeProvider, locator locatorProvider) *Installer {
	return &Installer{
		OSOps:   osOps,
		Tree:    tree,
		Locator: locator,
	}
}

// Install builds op's replacement subtree in the staging directory and swaps
// it in for the final directory. Any failure before the commit leaves the
// final directory untouched, with the staging directory discarded; a
// leftover staging directory from a previously aborted run is deleted before
// the build starts.
func (s *Installer) Install(op *schema.StagingOperation, report *treeops.Report) error {
	var committed bool

	// Crash recovery from a prior aborted run.
	s.Tree.Delete(op.StagingDir, report)

	defer func() {
		if !committed {
			s.Tree.Delete(op.StagingDir, report)
		}
	}()

	stageToolchain := filepath.Join(op.StagingDir, op.ToolchainDir)
	if err := s.Tree.EnsureDir(stageToolchain); err != nil {
		return fmt.Errorf("(staging) %w", err)
	}

	if err := s.Locator.PreUnwrap(op.ExtractedRoot, report); err != nil {
		return fmt.Errorf("(staging) %w", err)
	}

	payloadRoot, _ := s.Locator.FindRoot(op.ExtractedRoot)

	// The payload lives below the toolchain directory when present,
	// otherwise directly below the payload root.
	srcPayload := payloadRoot
	if info, err := s.OSOps.Stat(filepath.Join(payloadRoot, op.ToolchainDir)); err == nil && info.IsDir() {
		srcPayload = filepath.Join(payloadRoot, op.ToolchainDir)
	}

	if err := s.stagePayload(op, srcPayload, stageToolchain, report); err != nil {
		return err
	}

	if err := s.commit(op, report); err != nil {
		return err
	}
	committed = true

	if info, err := s.OSOps.Stat(filepath.Join(op.FinalDir, op.ToolchainDir)); err != nil || !info.IsDir() {
		report.Warn("Warning (staging): final toolchain directory is missing after commit",
			filepath.Join(op.FinalDir, op.ToolchainDir), err)
	}

	return nil
}

func (s *Installer) stagePayload(op *schema.StagingOperation, srcPayload string, stageToolchain string, report *treeops.Report) error {
	stagedAny := false

	for _, sub := range op.RequiredSubdirs {
		src := filepath.Join(srcPayload, sub)
		if _, err := s.OSOps.Stat(src); errors.Is(err, fs.ErrNotExist) {
			report.Warn("Warning (staging): payload subdirectory is missing", src, err)

			continue
		} else if err != nil {
			return fmt.Errorf("(staging) failed to check payload subdirectory %s: %w", src, err)
		}

		dst := filepath.Join(stageToolchain, sub)
		slog.Info("Staging payload subdirectory", "dependency", op.Name, "subdir", sub, "dst", dst)

		if op.PreferCopy {
			if err := s.Tree.Copy(src, dst, report); err != nil {
				return fmt.Errorf("(staging) %w", err)
			}
		} else {
			if err := s.Tree.Move(src, dst, report); err != nil {
				return fmt.Errorf("(staging) %w", err)
			}
		}
		stagedAny = true
	}

	if !stagedAny {
		return fmt.Errorf("(staging) %w: %s (looked in %s)", ErrPayloadNotFound, op.Name, srcPayload)
	}

	return nil
}

// commit swaps the staged subtree in for the final directory. The previous
// content is first renamed aside, so the only non-atomic window left is the
// per-child fallback taken when the filesystem refuses the directory rename.
func (s *Installer) commit(op *schema.StagingOperation, report *treeops.Report) error {
	aside := op.FinalDir + AsideSuffix
	s.Tree.Delete(aside, report)

	if _, err := s.OSOps.Stat(op.FinalDir); err == nil {
		if err := s.OSOps.Rename(op.FinalDir, aside); err != nil {
			// Parking failed; destroy the old content directly.
			s.Tree.Delete(op.FinalDir, report)
		}
	}

	if err := s.OSOps.Rename(op.StagingDir, op.FinalDir); err != nil {
		report.Warn("Warning (staging): directory rename unsupported, committing child-by-child", op.FinalDir,
			fmt.Errorf("%w: %w", ErrPartialCommit, err))

		if err := s.commitFallback(op, report); err != nil {
			return err
		}
	}

	s.Tree.Delete(aside, report)

	return nil
}

func (s *Installer) commitFallback(op *schema.StagingOperation, report *treeops.Report) error {
	if err := s.Tree.EnsureDir(op.FinalDir); err != nil {
		return fmt.Errorf("(staging) %w", err)
	}

	entries, err := s.OSOps.ReadDir(op.StagingDir)
	if err != nil {
		return fmt.Errorf("(staging) failed to read staging directory %s: %w", op.StagingDir, err)
	}

	for _, entry := range entries {
		src := filepath.Join(op.StagingDir, entry.Name())
		dst := filepath.Join(op.FinalDir, entry.Name())
		if err := s.Tree.Move(src, dst, report); err != nil {
			return fmt.Errorf("(staging) %w", err)
		}
	}

	s.Tree.Delete(op.StagingDir, report)

	return nil
}
