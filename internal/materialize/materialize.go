// Package materialize applies an accepted mapping to disk. It builds an
// explicit operation plan first so dry runs and logs can show exactly what
// would change, then executes the plan with no-clobber file operations.
package materialize

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matty6409/album-cleaner/internal/config"
	"github.com/matty6409/album-cleaner/internal/engine"
	"github.com/matty6409/album-cleaner/internal/fileops"
	"github.com/matty6409/album-cleaner/internal/language"
	"github.com/matty6409/album-cleaner/internal/scan"
)

const cleanedDirName = "cleaned"

type OpKind string

const (
	OpMkdir  OpKind = "mkdir"
	OpCopy   OpKind = "copy"
	OpRename OpKind = "rename"
)

type Operation struct {
	Kind OpKind
	From string
	To   string
}

func (o Operation) String() string {
	switch o.Kind {
	case OpMkdir:
		return fmt.Sprintf("mkdir %s", o.To)
	default:
		return fmt.Sprintf("%s %s -> %s", o.Kind, o.From, o.To)
	}
}

// Plan is the full set of filesystem changes for one album.
type Plan struct {
	TargetDir string
	Ops       []Operation
}

type Options struct {
	Mode     string // config.OutputModeCopy or config.OutputModeInPlace
	Language engine.Language
}

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".bmp":  {},
	".gif":  {},
	".webp": {},
}

// Build computes the operation plan for an accepted mapping. Nothing is
// touched on disk; Apply executes the plan.
func Build(album engine.Album, result engine.Result, opts Options) (Plan, error) {
	switch opts.Mode {
	case config.OutputModeCopy:
		return buildCopy(album, result, opts)
	case config.OutputModeInPlace:
		return buildInPlace(album, result, opts)
	default:
		return Plan{}, fmt.Errorf("unsupported output mode %q", opts.Mode)
	}
}

func buildCopy(album engine.Album, result engine.Result, opts Options) (Plan, error) {
	targetDir := filepath.Join(filepath.Dir(album.Path), cleanedDirName, cleanDirName(result, opts))
	plan := Plan{TargetDir: targetDir}
	plan.Ops = append(plan.Ops, Operation{Kind: OpMkdir, To: targetDir})

	for _, file := range album.Files {
		plan.Ops = append(plan.Ops, Operation{
			Kind: OpCopy,
			From: filepath.Join(album.Path, file),
			To:   filepath.Join(targetDir, finalName(result.Mapping[file], opts)),
		})
	}

	extras, err := supplementaryFiles(album.Path)
	if err != nil {
		return Plan{}, err
	}
	names := supplementaryNames(extras)
	for _, extra := range extras {
		plan.Ops = append(plan.Ops, Operation{
			Kind: OpCopy,
			From: filepath.Join(album.Path, extra),
			To:   filepath.Join(targetDir, names[extra]),
		})
	}
	return plan, nil
}

// buildInPlace renames through hidden temp names so overlapping old and new
// filenames cannot collide mid-rename. The album directory itself is renamed
// last, once its contents are settled.
func buildInPlace(album engine.Album, result engine.Result, opts Options) (Plan, error) {
	plan := Plan{TargetDir: album.Path}

	type step struct{ temp, final string }
	steps := make([]step, 0, len(album.Files))
	for i, file := range album.Files {
		final := finalName(result.Mapping[file], opts)
		if final == file {
			continue
		}
		temp := fmt.Sprintf(".albumclean-%03d%s", i, filepath.Ext(file))
		steps = append(steps, step{temp: temp, final: final})
		plan.Ops = append(plan.Ops, Operation{
			Kind: OpRename,
			From: filepath.Join(album.Path, file),
			To:   filepath.Join(album.Path, temp),
		})
	}
	for _, s := range steps {
		plan.Ops = append(plan.Ops, Operation{
			Kind: OpRename,
			From: filepath.Join(album.Path, s.temp),
			To:   filepath.Join(album.Path, s.final),
		})
	}

	extras, err := supplementaryFiles(album.Path)
	if err != nil {
		return Plan{}, err
	}
	names := supplementaryNames(extras)
	extraSteps := make([]step, 0, len(extras))
	for i, extra := range extras {
		normalized := names[extra]
		if normalized == extra {
			continue
		}
		temp := fmt.Sprintf(".albumclean-s%03d%s", i, filepath.Ext(extra))
		extraSteps = append(extraSteps, step{temp: temp, final: normalized})
		plan.Ops = append(plan.Ops, Operation{
			Kind: OpRename,
			From: filepath.Join(album.Path, extra),
			To:   filepath.Join(album.Path, temp),
		})
	}
	for _, s := range extraSteps {
		plan.Ops = append(plan.Ops, Operation{
			Kind: OpRename,
			From: filepath.Join(album.Path, s.temp),
			To:   filepath.Join(album.Path, s.final),
		})
	}

	if cleaned := cleanDirName(result, opts); cleaned != filepath.Base(album.Path) {
		renamedDir := filepath.Join(filepath.Dir(album.Path), cleaned)
		plan.TargetDir = renamedDir
		plan.Ops = append(plan.Ops, Operation{
			Kind: OpRename,
			From: album.Path,
			To:   renamedDir,
		})
	}
	return plan, nil
}

// Apply executes the plan in order. The first failing operation aborts.
func Apply(plan Plan) error {
	for _, op := range plan.Ops {
		var err error
		switch op.Kind {
		case OpMkdir:
			err = os.MkdirAll(op.To, 0o755)
		case OpCopy:
			err = fileops.CopyFile(op.From, op.To)
		case OpRename:
			err = renameOrReplace(op.From, op.To)
		default:
			err = fmt.Errorf("unknown operation kind %q", op.Kind)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

// renameOrReplace renames without clobbering unless a regular file already
// occupies the target, in which case it is replaced behind a rollback
// backup. Directory targets are never replaced.
func renameOrReplace(from string, to string) error {
	info, err := os.Stat(to)
	if errors.Is(err, os.ErrNotExist) {
		return fileops.RenameNoClobber(from, to)
	}
	if err != nil {
		return fmt.Errorf("stat rename target %q: %w", to, err)
	}
	if info.IsDir() {
		return fileops.RenameNoClobber(from, to)
	}
	return fileops.ReplaceFileSafely(from, to)
}

func finalName(name string, opts Options) string {
	if opts.Language == engine.LanguageTraditionalChinese {
		name = language.SimplifiedToTraditional(name)
	}
	return language.SanitizeFilename(name)
}

func cleanDirName(result engine.Result, opts Options) string {
	artist := finalName(result.Artist, opts)
	album := finalName(result.Album, opts)
	return fmt.Sprintf("[%s] %s", artist, album)
}

// supplementaryFiles lists the non-audio, non-hidden files in the album dir.
func supplementaryFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read album dir: %w", err)
	}

	var extras []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || scan.IsAudioFile(name) || strings.HasPrefix(name, ".") {
			continue
		}
		extras = append(extras, name)
	}
	sort.Strings(extras)
	return extras, nil
}

// supplementaryNames assigns canonical names to extras, which must be
// sorted. The first image becomes "cover.<ext>", later images
// "supplementary_N.<ext>", and every other stray file keeps its sanitized
// base behind a "supplementary_" prefix.
func supplementaryNames(extras []string) map[string]string {
	names := make(map[string]string, len(extras))
	images := 0
	for _, name := range extras {
		ext := strings.ToLower(filepath.Ext(name))
		if _, ok := imageExtensions[ext]; ok {
			if images == 0 {
				names[name] = "cover" + ext
			} else {
				names[name] = fmt.Sprintf("supplementary_%d%s", images, ext)
			}
			images++
			continue
		}
		base := language.SanitizeFilename(strings.TrimSuffix(name, filepath.Ext(name)))
		names[name] = "supplementary_" + base + ext
	}
	return names
}
