package sync

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/schaermu/versync/internal/config"
	"github.com/schaermu/versync/internal/git"
	"github.com/schaermu/versync/internal/manifest"
)

// Engine orchestrates the sync process
type Engine struct {
	cfg    *config.Config
	git    git.Client
	logger *slog.Logger
	dryRun bool
}

// NewEngine creates a new sync engine. gitClient may be nil when staging is
// disabled.
func NewEngine(cfg *config.Config, gitClient git.Client, logger *slog.Logger, dryRun bool) *Engine {
	return &Engine{
		cfg:    cfg,
		git:    gitClient,
		logger: logger,
		dryRun: dryRun,
	}
}

// Run reads the canonical version once and propagates it to every target in
// order. A failure to read the version aborts the run before any target is
// touched. Target failures are recorded in their Result and do not stop the
// remaining targets.
//
// The returned error is non-nil when the source could not be read or when
// staging the updated files failed; in the latter case the results are
// returned as well.
func (e *Engine) Run(ctx context.Context) ([]manifest.Result, error) {
	e.logger.Info("starting sync",
		"source", e.cfg.Source.Path,
		"targets", len(e.cfg.Targets),
		"dry_run", e.dryRun)

	version, err := e.readVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to read version: %w", err)
	}
	e.logger.Info("read canonical version", "version", version)

	results := make([]manifest.Result, 0, len(e.cfg.Targets))
	for _, target := range e.cfg.Targets {
		if err := ctx.Err(); err != nil {
			results = append(results, manifest.Result{
				Path:   target.Path,
				Field:  target.Field,
				New:    version,
				Status: manifest.StatusFailed,
				Err:    err,
			})
			continue
		}

		res := target.Patcher(e.dryRun).Apply(target.Path, target.Field, version)
		e.logResult(target, res)
		results = append(results, res)
	}

	if err := e.stage(ctx, results); err != nil {
		return results, fmt.Errorf("failed to stage updated files: %w", err)
	}

	e.logger.Info("sync completed",
		"updated", count(results, manifest.StatusUpdated),
		"unchanged", count(results, manifest.StatusUnchanged),
		"failed", count(results, manifest.StatusFailed))
	return results, nil
}

func (e *Engine) readVersion() (string, error) {
	if e.cfg.Source.Semver {
		return manifest.ReadVersionStrict(e.cfg.Source.Path)
	}
	return manifest.ReadVersion(e.cfg.Source.Path)
}

// stage adds every updated target to the git index when enabled
func (e *Engine) stage(ctx context.Context, results []manifest.Result) error {
	if !e.cfg.Git.Stage || e.dryRun {
		return nil
	}
	if e.git == nil {
		return fmt.Errorf("git staging enabled but no git client configured")
	}

	var paths []string
	for _, res := range results {
		if res.Status != manifest.StatusUpdated {
			continue
		}
		abs, err := filepath.Abs(res.Path)
		if err != nil {
			return err
		}
		paths = append(paths, abs)
	}
	if len(paths) == 0 {
		e.logger.Debug("nothing to stage")
		return nil
	}

	top, err := e.git.TopLevel(ctx, e.cfg.Root)
	if err != nil {
		return err
	}

	e.logger.Info("staging updated files", "count", len(paths), "worktree", top)
	return e.git.Add(ctx, top, paths...)
}

func (e *Engine) logResult(target config.Target, res manifest.Result) {
	attrs := []any{
		"path", target.Path,
		"format", target.Format,
		"field", target.Field,
	}

	switch res.Status {
	case manifest.StatusUpdated:
		if res.DryRun {
			e.logger.Info("[dry-run] would update target", append(attrs, "previous", res.Previous, "new", res.New)...)
			return
		}
		e.logger.Info("updated target", append(attrs, "previous", res.Previous, "new", res.New)...)
	case manifest.StatusUnchanged:
		e.logger.Debug("target already up to date", append(attrs, "version", res.New)...)
	case manifest.StatusFailed:
		e.logger.Error("failed to update target", append(attrs, "error", res.Err)...)
	}
}

func count(results []manifest.Result, status manifest.Status) int {
	n := 0
	for _, res := range results {
		if res.Status == status {
			n++
		}
	}
	return n
}
