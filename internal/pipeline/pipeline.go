// Package pipeline orchestrates one full install run: download the project
// and dependency archives, expand them, detect the project root, lay out the
// structure and stage-install every dependency. The run is synchronous on
// the calling goroutine and reports progress through an injected
// [schema.EventSink], so it is equally usable headless and below a UI.
//
// Only one run may target a given install root at a time; the caller
// enforces this.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/stagekit/stagekit/internal/configuration"
	"github.com/stagekit/stagekit/internal/fetch"
	"github.com/stagekit/stagekit/internal/schema"
	"github.com/stagekit/stagekit/internal/staging"
	"github.com/stagekit/stagekit/internal/structure"
	"github.com/stagekit/stagekit/internal/treeops"
)

const (
	downloadsDirName  = ".downloads"
	projectTmpDirName = ".tmp_project"
	externalDirName   = "external"
)

type fetchProvider interface {
	Download(ctx context.Context, url string, dst string, label string, progressFn fetch.ProgressFunc) error
}

type expandProvider interface {
	Expand(ctx context.Context, archivePath string, destDir string) error
}

type treeProvider interface {
	Delete(path string, report *treeops.Report)
	Move(src string, dst string, report *treeops.Report) error
	EnsureDir(path string) error
}

type detectProvider interface {
	FindProjectRoot(start string, markers []string, report *treeops.Report) (string, error)
}

type structureProvider interface {
	Apply(installRoot string, spec *schema.StructureSpec) error
	Audit(installRoot string, spec *schema.StructureSpec) []schema.MarkerResult
}

type installProvider interface {
	Install(op *schema.StagingOperation, report *treeops.Report) error
}

type osProvider interface {
	Stat(name string) (os.FileInfo, error)
	ReadDir(name string) ([]os.DirEntry, error)
}

// Result is the outcome of one install run.
type Result struct {
	// Report holds the soft failures collected across the whole run.
	Report *treeops.Report

	// Markers are the post-install structure marker checks.
	Markers []schema.MarkerResult

	// Toolchains are the post-install toolchain directory checks, one per
	// dependency.
	Toolchains []schema.MarkerResult

	// Failed maps a dependency name to the hard error that aborted its
	// install. Other dependencies are unaffected.
	Failed map[string]error
}

// Runner is the principal implementation of the install orchestrator.
type Runner struct {
	// InstallRoot is the directory the project is installed into. It is
	// exclusively owned by the runner for the duration of one run.
	InstallRoot string

	// StructureDoc is the structure specification document to validate and
	// apply. It is validated before any filesystem mutation.
	StructureDoc []byte

	Config *configuration.Config
	Sink   schema.EventSink

	OSOps     osProvider
	Fetch     fetchProvider
	Expand    expandProvider
	Tree      treeProvider
	Detect    detectProvider
	Structure structureProvider
	Installer installProvider
}

// NewRunner returns a pointer to a new install [Runner]. A nil sink selects
// the discarding [schema.NopSink].
func NewRunner(
	installRoot string,
	structureDoc []byte,
	cfg *configuration.Config,
	sink schema.EventSink,
	osOps osProvider,
	fetchOps fetchProvider,
	expandOps expandProvider,
	tree treeProvider,
	detectOps detectProvider,
	structureOps structureProvider,
	installer installProvider,
) *Runner {
	if sink == nil {
		sink = schema.NopSink{}
	}

	return &Runner{
		InstallRoot:  installRoot,
		StructureDoc: structureDoc,
		Config:       cfg,
		Sink:         sink,
		OSOps:        osOps,
		Fetch:        fetchOps,
		Expand:       expandOps,
		Tree:         tree,
		Detect:       detectOps,
		Structure:    structureOps,
		Installer:    installer,
	}
}

// Run executes the full install sequence. It returns the collected
// [Result] alongside a hard error; a non-nil error with a non-nil result
// means parts of the run completed before or around the failure.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		Report: &treeops.Report{},
		Failed: make(map[string]error),
	}

	// The specification is rejected before anything is mutated.
	spec, err := structure.Parse(r.StructureDoc)
	if err != nil {
		return nil, fmt.Errorf("(pipeline) %w", err)
	}

	rootMarkers := spec.RepoRootMarkers
	if len(rootMarkers) == 0 {
		rootMarkers = configuration.DefaultRootMarkers
	}

	r.Sink.Status("Preparing...")
	r.Sink.Percent(0)
	slog.Info("Install starting", "root", r.InstallRoot)

	if err := r.Tree.EnsureDir(r.InstallRoot); err != nil {
		return result, fmt.Errorf("(pipeline) %w", err)
	}

	downloadsDir := filepath.Join(r.InstallRoot, downloadsDirName)
	projectTmp := filepath.Join(r.InstallRoot, projectTmpDirName)

	scratch := []string{downloadsDir, projectTmp}
	for _, dep := range r.Config.Dependencies {
		scratch = append(scratch, r.depTmpDir(dep.Name))
	}

	for _, dir := range scratch {
		r.Tree.Delete(dir, result.Report)
		if err := r.Tree.EnsureDir(dir); err != nil {
			return result, fmt.Errorf("(pipeline) %w", err)
		}
	}

	projectZip, depZips, err := r.download(ctx, downloadsDir)
	if err != nil {
		return result, err
	}

	if err := r.layoutProject(ctx, projectZip, projectTmp, rootMarkers, spec, result); err != nil {
		return result, err
	}

	r.installDependencies(ctx, depZips, result)

	if err := r.Structure.Apply(r.InstallRoot, spec); err != nil {
		return result, fmt.Errorf("(pipeline) %w", err)
	}

	r.Sink.Status("Cleaning up...")
	r.Sink.Percent(96) //nolint:mnd
	r.cleanup(downloadsDir, projectTmp, result.Report)

	r.Sink.Status("Validating install...")
	r.Sink.Percent(100) //nolint:mnd
	r.audit(spec, result)

	if len(result.Failed) > 0 {
		names := make([]string, 0, len(result.Failed))
		for name := range result.Failed {
			names = append(names, name)
		}

		return result, fmt.Errorf("(pipeline) %w: %s", ErrDependencyFailed, strings.Join(names, ", "))
	}

	return result, nil
}

func (r *Runner) download(ctx context.Context, downloadsDir string) (string, map[string]string, error) {
	r.Sink.Status("Downloading files...")

	// Every transfer gets an equal slice of the 0-30% download band.
	transfers := 1 + len(r.Config.Dependencies)
	band := 30 / transfers

	progressFn := func(base int) fetch.ProgressFunc {
		return func(p fetch.Progress) {
			if p.Total > 0 {
				r.Sink.Busy(false)
				r.Sink.Status(fmt.Sprintf("%s (%s / %s)", p.Label,
					humanize.Bytes(uint64(p.Received)), humanize.Bytes(uint64(p.Total)))) //nolint:gosec
				r.Sink.Percent(base + int(int64(band)*p.Received/p.Total))
			} else {
				r.Sink.Busy(true)
				r.Sink.Status(fmt.Sprintf("%s (%s)", p.Label, humanize.Bytes(uint64(p.Received)))) //nolint:gosec
			}
		}
	}

	projectZip := filepath.Join(downloadsDir, "project.zip")

	slog.Info("Downloading project archive", "url", r.Config.ProjectURL)
	if err := r.Fetch.Download(ctx, r.Config.ProjectURL, projectZip,
		"Downloading project skeleton...", progressFn(0)); err != nil {
		return "", nil, fmt.Errorf("(pipeline) %w", err)
	}
	r.Sink.Busy(false)

	depZips := make(map[string]string, len(r.Config.Dependencies))
	for i, dep := range r.Config.Dependencies {
		dst := filepath.Join(downloadsDir, strings.ToLower(dep.Name)+".zip")

		slog.Info("Downloading dependency archive", "dependency", dep.Name, "url", dep.URL)
		if err := r.Fetch.Download(ctx, dep.URL, dst,
			"Downloading "+dep.Name+"...", progressFn((i+1)*band)); err != nil {
			return "", nil, fmt.Errorf("(pipeline) %w", err)
		}
		r.Sink.Busy(false)

		depZips[dep.Name] = dst
	}

	r.Sink.Percent(30) //nolint:mnd

	return projectZip, depZips, nil
}

func (r *Runner) layoutProject(ctx context.Context, projectZip string, projectTmp string,
	rootMarkers []string, spec *schema.StructureSpec, result *Result,
) error {
	r.Sink.Status("Extracting project skeleton...")
	r.Sink.Percent(35) //nolint:mnd

	if err := r.Expand.Expand(ctx, projectZip, projectTmp); err != nil {
		return fmt.Errorf("(pipeline) %w", err)
	}

	repoRoot, err := r.Detect.FindProjectRoot(projectTmp, rootMarkers, result.Report)
	if err != nil {
		return fmt.Errorf("(pipeline) %w", err)
	}
	slog.Info("Project root selected", "path", repoRoot)
	r.Sink.Percent(42) //nolint:mnd

	r.Sink.Status("Applying project layout...")
	r.Sink.Percent(45) //nolint:mnd

	skip := map[string]struct{}{
		downloadsDirName:  {},
		projectTmpDirName: {},
	}
	for _, dep := range r.Config.Dependencies {
		skip[filepath.Base(r.depTmpDir(dep.Name))] = struct{}{}
	}

	entries, err := r.OSOps.ReadDir(repoRoot)
	if err != nil {
		return fmt.Errorf("(pipeline) failed to read project root %s: %w", repoRoot, err)
	}

	for _, entry := range entries {
		if _, skipped := skip[entry.Name()]; skipped {
			continue
		}

		if err := r.Tree.Move(filepath.Join(repoRoot, entry.Name()),
			filepath.Join(r.InstallRoot, entry.Name()), result.Report); err != nil {
			return fmt.Errorf("(pipeline) %w", err)
		}
	}
	slog.Info("Project files moved into install directory")

	if err := r.Structure.Apply(r.InstallRoot, spec); err != nil {
		return fmt.Errorf("(pipeline) %w", err)
	}
	r.Sink.Percent(55) //nolint:mnd

	return nil
}

// installDependencies runs every dependency install, collecting hard
// failures per dependency instead of aborting the remaining installs: a
// broken archive for one dependency must not cost the others their update.
func (r *Runner) installDependencies(ctx context.Context, depZips map[string]string, result *Result) {
	deps := r.Config.Dependencies
	for i, dep := range deps {
		base := 55 + (i*40)/len(deps) //nolint:mnd

		if err := ctx.Err(); err != nil {
			result.Failed[dep.Name] = fmt.Errorf("(pipeline) %w", err)

			continue
		}

		r.Sink.Status("Extracting " + dep.Name + "...")
		r.Sink.Percent(base)

		tmpDir := r.depTmpDir(dep.Name)
		if err := r.Expand.Expand(ctx, depZips[dep.Name], tmpDir); err != nil {
			result.Failed[dep.Name] = fmt.Errorf("(pipeline) %w", err)
			slog.Error("Dependency install failed", "dependency", dep.Name, "err", err)

			continue
		}

		r.Sink.Status("Installing " + dep.Name + " (staging)...")
		r.Sink.Percent(base + 40/(2*len(deps))) //nolint:mnd

		op := &schema.StagingOperation{
			Name:            dep.Name,
			ExtractedRoot:   tmpDir,
			StagingDir:      filepath.Join(r.InstallRoot, externalDirName, dep.Name+staging.StagingSuffix),
			FinalDir:        filepath.Join(r.InstallRoot, externalDirName, dep.Name),
			ToolchainDir:    r.Config.ToolchainDir,
			RequiredSubdirs: r.Config.RequiredSubdirs,
			PreferCopy:      r.Config.PreferCopy,
		}

		if err := r.Installer.Install(op, result.Report); err != nil {
			result.Failed[dep.Name] = err
			slog.Error("Dependency install failed", "dependency", dep.Name, "err", err)

			continue
		}

		slog.Info("Dependency installed", "dependency", dep.Name, "path", op.FinalDir)
	}

	r.Sink.Percent(94) //nolint:mnd
}

func (r *Runner) cleanup(downloadsDir string, projectTmp string, report *treeops.Report) {
	if !r.Config.KeepTemp {
		r.Tree.Delete(projectTmp, report)
		for _, dep := range r.Config.Dependencies {
			r.Tree.Delete(r.depTmpDir(dep.Name), report)
		}
	} else {
		slog.Info("Keeping temp directories for debugging")
	}

	if !r.Config.KeepDownloads {
		r.Tree.Delete(downloadsDir, report)
	} else {
		slog.Info("Keeping downloads directory")
	}
}

func (r *Runner) audit(spec *schema.StructureSpec, result *Result) {
	result.Markers = r.Structure.Audit(r.InstallRoot, spec)
	for _, m := range result.Markers {
		if m.OK {
			slog.Info("Marker present", "name", m.Name, "path", m.Path)
		} else {
			slog.Warn("Warning (audit): marker missing", "name", m.Name, "path", m.Path)
		}
	}

	for _, dep := range r.Config.Dependencies {
		rel := filepath.Join(externalDirName, dep.Name, r.Config.ToolchainDir)
		info, err := r.OSOps.Stat(filepath.Join(r.InstallRoot, rel))
		ok := err == nil && info.IsDir()

		result.Toolchains = append(result.Toolchains, schema.MarkerResult{
			Name: dep.Name,
			Path: rel,
			OK:   ok,
		})

		if ok {
			slog.Info("Toolchain directory present", "dependency", dep.Name, "path", rel)
		} else {
			slog.Warn("Warning (audit): toolchain directory missing", "dependency", dep.Name, "path", rel)
		}
	}
}

func (r *Runner) depTmpDir(name string) string {
	return filepath.Join(r.InstallRoot, ".tmp_"+strings.ToLower(name))
}
