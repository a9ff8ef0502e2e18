package materialize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matty6409/album-cleaner/internal/config"
	"github.com/matty6409/album-cleaner/internal/engine"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func testAlbum(t *testing.T) engine.Album {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "[nova heart] cold transmission")
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFiles(t, path, "a.flac", "b.flac", "Folder.jpg", "notes.txt")
	return engine.Album{
		Artist: "nova heart",
		Title:  "cold transmission",
		Path:   path,
		Files:  []string{"a.flac", "b.flac"},
	}
}

func testResult() engine.Result {
	return engine.Result{
		Mapping: map[string]string{
			"a.flac": "01 Signal.flac",
			"b.flac": "02 Static.flac",
		},
		Artist: "Nova Heart",
		Album:  "Cold Transmission",
	}
}

func TestBuildAndApplyCopyMode(t *testing.T) {
	album := testAlbum(t)
	plan, err := Build(album, testResult(), Options{Mode: config.OutputModeCopy, Language: engine.LanguageEnglish})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	wantDir := filepath.Join(filepath.Dir(album.Path), "cleaned", "[Nova Heart] Cold Transmission")
	if plan.TargetDir != wantDir {
		t.Fatalf("unexpected target dir %q, want %q", plan.TargetDir, wantDir)
	}

	if err := Apply(plan); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for _, name := range []string{"01 Signal.flac", "02 Static.flac", "cover.jpg", "supplementary_notes.txt"} {
		if _, err := os.Stat(filepath.Join(wantDir, name)); err != nil {
			t.Fatalf("expected %s in cleaned dir: %v", name, err)
		}
	}
	// Source untouched.
	for _, name := range []string{"a.flac", "b.flac", "Folder.jpg"} {
		if _, err := os.Stat(filepath.Join(album.Path, name)); err != nil {
			t.Fatalf("expected source file %s untouched: %v", name, err)
		}
	}
}

func TestBuildAndApplyInPlaceMode(t *testing.T) {
	album := testAlbum(t)
	plan, err := Build(album, testResult(), Options{Mode: config.OutputModeInPlace, Language: engine.LanguageEnglish})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := Apply(plan); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	wantDir := filepath.Join(filepath.Dir(album.Path), "[Nova Heart] Cold Transmission")
	if plan.TargetDir != wantDir {
		t.Fatalf("unexpected target dir %q", plan.TargetDir)
	}
	for _, name := range []string{"01 Signal.flac", "02 Static.flac", "cover.jpg", "supplementary_notes.txt"} {
		if _, err := os.Stat(filepath.Join(wantDir, name)); err != nil {
			t.Fatalf("expected %s after in-place rename: %v", name, err)
		}
	}
	if _, err := os.Stat(album.Path); !os.IsNotExist(err) {
		t.Fatalf("expected old album dir renamed away, stat err: %v", err)
	}
}

func TestInPlaceHandlesOverlappingNames(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "[X] Y")
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	// "01 B.flac" is both an existing name and another file's target.
	writeFiles(t, path, "01 B.flac", "01 A.flac")

	album := engine.Album{Artist: "X", Title: "Y", Path: path, Files: []string{"01 A.flac", "01 B.flac"}}
	result := engine.Result{
		Mapping: map[string]string{
			"01 A.flac": "02 A.flac",
			"01 B.flac": "01 B-side.flac",
		},
		Artist: "X",
		Album:  "Y",
	}

	plan, err := Build(album, result, Options{Mode: config.OutputModeInPlace, Language: engine.LanguageEnglish})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := Apply(plan); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for _, name := range []string{"02 A.flac", "01 B-side.flac"} {
		if _, err := os.Stat(filepath.Join(path, name)); err != nil {
			t.Fatalf("expected %s after swap: %v", name, err)
		}
	}
}

func TestBuildConvertsScriptForTraditionalTarget(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "[邓丽君] 淡淡幽情")
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFiles(t, path, "a.flac")

	album := engine.Album{Artist: "邓丽君", Title: "淡淡幽情", Path: path, Files: []string{"a.flac"}}
	result := engine.Result{
		Mapping: map[string]string{"a.flac": "01 独上西楼.flac"},
		Artist:  "邓丽君",
		Album:   "淡淡幽情",
	}

	plan, err := Build(album, result, Options{Mode: config.OutputModeCopy, Language: engine.LanguageTraditionalChinese})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if filepath.Base(plan.TargetDir) != "[鄧麗君] 淡淡幽情" {
		t.Fatalf("expected traditional dir name, got %q", filepath.Base(plan.TargetDir))
	}
	last := plan.Ops[1]
	if filepath.Base(last.To) != "01 獨上西樓.flac" {
		t.Fatalf("expected traditional filename, got %q", filepath.Base(last.To))
	}
}

func TestSupplementaryNames(t *testing.T) {
	got := supplementaryNames([]string{"Back.png", "Folder.jpg", "booklet.pdf", "notes?.txt", "scan1.gif"})
	want := map[string]string{
		"Back.png":    "cover.png",
		"Folder.jpg":  "supplementary_1.jpg",
		"booklet.pdf": "supplementary_booklet.pdf",
		"notes?.txt":  "supplementary_notes.txt",
		"scan1.gif":   "supplementary_2.gif",
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected name count: %v", got)
	}
	for from, to := range want {
		if got[from] != to {
			t.Fatalf("supplementaryNames[%q] = %q, want %q", from, got[from], to)
		}
	}
}

func TestApplyReplacesExistingRenameTarget(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "[X] Y")
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	// Both stray files sanitize to "supplementary_notes.txt"; the later one
	// must replace the earlier rather than abort the plan.
	if err := os.WriteFile(filepath.Join(path, "notes.txt"), []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(path, "notes?.txt"), []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeFiles(t, path, "01 A.flac")

	album := engine.Album{Artist: "X", Title: "Y", Path: path, Files: []string{"01 A.flac"}}
	result := engine.Result{
		Mapping: map[string]string{"01 A.flac": "01 A.flac"},
		Artist:  "X",
		Album:   "Y",
	}

	plan, err := Build(album, result, Options{Mode: config.OutputModeInPlace, Language: engine.LanguageEnglish})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := Apply(plan); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(path, "supplementary_notes.txt"))
	if err != nil {
		t.Fatalf("expected merged supplementary target: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("expected later file to win, got %q", data)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".bak" {
			t.Fatalf("leftover replacement backup %s", entry.Name())
		}
	}
}

func TestBuildRejectsUnknownMode(t *testing.T) {
	if _, err := Build(engine.Album{Path: t.TempDir()}, engine.Result{}, Options{Mode: "move"}); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
