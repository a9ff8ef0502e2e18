// Package cleaner runs the album pipeline across configured libraries:
// discover album directories, process each through the mapping engine, and
// materialize accepted mappings.
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matty6409/album-cleaner/internal/config"
	"github.com/matty6409/album-cleaner/internal/engine"
	"github.com/matty6409/album-cleaner/internal/materialize"
	"github.com/matty6409/album-cleaner/internal/output"
	"github.com/matty6409/album-cleaner/internal/scan"
)

var ErrInterrupted = errors.New("run interrupted")

type SelectionError struct {
	Missing []string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("unknown library id(s): %s", strings.Join(e.Missing, ", "))
}

// Processor is the album mapping engine as the cleaner sees it.
type Processor interface {
	Process(ctx context.Context, album engine.Album, opts engine.Options) (engine.Result, error)
}

type RunOptions struct {
	LibraryIDs []string
	DryRun     bool
}

type RunSummary struct {
	Total       int
	Attempted   int
	Succeeded   int
	Failed      int
	Skipped     int
	Interrupted bool
}

type Cleaner struct {
	Processor Processor
	Emitter   output.EventEmitter
	Now       func() time.Time

	scanAlbums func(root string) ([]engine.Album, error)
	buildPlan  func(engine.Album, engine.Result, materialize.Options) (materialize.Plan, error)
	applyPlan  func(materialize.Plan) error
}

func New(processor Processor, emitter output.EventEmitter) *Cleaner {
	if emitter == nil {
		emitter = noOpEmitter{}
	}
	return &Cleaner{
		Processor:  processor,
		Emitter:    emitter,
		Now:        time.Now,
		scanAlbums: scan.Albums,
		buildPlan:  materialize.Build,
		applyPlan:  materialize.Apply,
	}
}

type noOpEmitter struct{}

func (noOpEmitter) Emit(event output.Event) error {
	return nil
}

func (c *Cleaner) Run(ctx context.Context, cfg config.Config, opts RunOptions) (RunSummary, error) {
	summary := RunSummary{}
	if c.Now == nil {
		c.Now = time.Now
	}

	selected, err := selectLibraries(cfg.Libraries, opts.LibraryIDs)
	if err != nil {
		return summary, err
	}

	enabled := 0
	for _, lib := range selected {
		if lib.Enabled {
			enabled++
		}
	}

	c.emit(output.LevelInfo, output.EventRunStarted, "", "",
		fmt.Sprintf("run started (%d library(ies))", enabled), map[string]any{
			"libraries": enabled,
			"dry_run":   opts.DryRun,
		})

libraries:
	for _, lib := range selected {
		if !lib.Enabled {
			continue
		}

		root, err := config.ExpandPath(lib.Path)
		if err == nil {
			if _, statErr := os.Stat(root); statErr != nil {
				err = fmt.Errorf("library path does not exist: %s", root)
			}
		}
		if err != nil {
			summary.Failed++
			c.emit(output.LevelError, output.EventAlbumFailed, lib.ID, "", err.Error(), nil)
			if !cfg.Defaults.ContinueOnError {
				break
			}
			continue
		}

		albums, err := c.scanAlbums(root)
		if err != nil {
			summary.Failed++
			c.emit(output.LevelError, output.EventAlbumFailed, lib.ID, "",
				fmt.Sprintf("library scan failed: %v", err), nil)
			if !cfg.Defaults.ContinueOnError {
				break
			}
			continue
		}

		summary.Total += len(albums)
		for _, album := range albums {
			if ctx.Err() != nil {
				summary.Interrupted = true
				break libraries
			}

			label := fmt.Sprintf("[%s] %s", album.Artist, album.Title)
			if len(album.Files) == 0 {
				summary.Skipped++
				c.emit(output.LevelWarn, output.EventAlbumStarted, lib.ID, label,
					"no audio files, skipping", nil)
				continue
			}

			summary.Attempted++
			c.emit(output.LevelInfo, output.EventAlbumStarted, lib.ID, label,
				fmt.Sprintf("processing %d file(s)", len(album.Files)), map[string]any{
					"files": len(album.Files),
				})

			engineOpts := engineOptions(cfg, lib)
			result, err := c.Processor.Process(ctx, album, engineOpts)
			if errors.Is(err, engine.ErrCancelled) {
				summary.Interrupted = true
				c.emit(output.LevelError, output.EventAlbumFailed, lib.ID, label, "interrupted", nil)
				break libraries
			}
			if err != nil {
				summary.Failed++
				c.emit(output.LevelError, output.EventAlbumFailed, lib.ID, label, err.Error(), nil)
				if !cfg.Defaults.ContinueOnError {
					break libraries
				}
				continue
			}

			plan, err := c.buildPlan(album, result, materialize.Options{
				Mode:     cfg.EffectiveOutputMode(lib),
				Language: engineOpts.Language,
			})
			if err == nil && !opts.DryRun {
				err = c.applyPlan(plan)
			}
			if err != nil {
				summary.Failed++
				c.emit(output.LevelError, output.EventAlbumFailed, lib.ID, label, err.Error(), nil)
				if !cfg.Defaults.ContinueOnError {
					break libraries
				}
				continue
			}

			summary.Succeeded++
			c.emit(output.LevelInfo, output.EventAlbumFinished, lib.ID, label,
				fmt.Sprintf("%s via %s (%d operation(s))", finishVerb(opts.DryRun), result.Source, len(plan.Ops)),
				map[string]any{
					"source":     string(result.Source),
					"target_dir": plan.TargetDir,
					"operations": len(plan.Ops),
					"dry_run":    opts.DryRun,
				})
		}
	}

	details := map[string]any{
		"total":     summary.Total,
		"attempted": summary.Attempted,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
	}

	if summary.Interrupted {
		c.emit(output.LevelError, output.EventRunFinished, "", "", "run interrupted", details)
		return summary, ErrInterrupted
	}

	c.emit(output.LevelInfo, output.EventRunFinished, "", "",
		fmt.Sprintf("run finished: attempted=%d succeeded=%d failed=%d skipped=%d",
			summary.Attempted, summary.Succeeded, summary.Failed, summary.Skipped), details)
	return summary, nil
}

func finishVerb(dryRun bool) string {
	if dryRun {
		return "planned"
	}
	return "cleaned"
}

func engineOptions(cfg config.Config, lib config.Library) engine.Options {
	return engine.Options{
		Language:              engine.Language(cfg.EffectiveLanguage(lib)),
		MaxSearchRetries:      cfg.Defaults.MaxSearchRetries,
		MaxBusinessRetries:    cfg.Defaults.MaxBusinessRetries,
		MaxMappingRetries:     cfg.Defaults.MaxMappingRetries,
		QAEnabled:             cfg.Defaults.QAEnabled,
		QAConfidenceThreshold: cfg.Defaults.QAConfidenceThreshold,
		PureTranslation:       cfg.EffectivePureTranslation(lib),
	}
}

func selectLibraries(libraries []config.Library, requestedIDs []string) ([]config.Library, error) {
	if len(requestedIDs) == 0 {
		return libraries, nil
	}

	required := map[string]struct{}{}
	for _, id := range requestedIDs {
		required[id] = struct{}{}
	}

	selected := []config.Library{}
	found := map[string]struct{}{}
	for _, lib := range libraries {
		if _, ok := required[lib.ID]; ok {
			selected = append(selected, lib)
			found[lib.ID] = struct{}{}
		}
	}

	missing := []string{}
	for _, id := range requestedIDs {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &SelectionError{Missing: missing}
	}

	return selected, nil
}

func (c *Cleaner) emit(level output.Level, name output.EventName, library string, album string, message string, details map[string]any) {
	_ = c.Emitter.Emit(output.Event{
		Timestamp: c.Now(),
		Level:     level,
		Event:     name,
		Library:   library,
		Album:     album,
		Message:   message,
		Details:   details,
	})
}
