package fileops

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRenameNoClobber(t *testing.T) {
	tmp := t.TempDir()
	oldPath := filepath.Join(tmp, "01 old.flac")
	newPath := filepath.Join(tmp, "01 new.flac")

	if err := os.WriteFile(oldPath, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := RenameNoClobber(oldPath, newPath); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Fatalf("stat renamed file: %v", err)
	}
}

func TestRenameNoClobberRefusesExistingTarget(t *testing.T) {
	tmp := t.TempDir()
	oldPath := filepath.Join(tmp, "a.flac")
	newPath := filepath.Join(tmp, "b.flac")

	for _, p := range []string{oldPath, newPath} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	if err := RenameNoClobber(oldPath, newPath); err == nil {
		t.Fatalf("expected refusal to overwrite existing target")
	}
	if _, err := os.Stat(oldPath); err != nil {
		t.Fatalf("source must be untouched after refusal: %v", err)
	}
}

func TestRenameNoClobberSamePathIsNoOp(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "01 same.flac")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := RenameNoClobber(path, path); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestCopyFile(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src.flac")
	dst := filepath.Join(tmp, "dst.flac")

	if err := os.WriteFile(src, []byte("payload"), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("copy: %v", err)
	}

	payload, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(payload) != "payload" {
		t.Fatalf("unexpected copy payload %q", string(payload))
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("stat copy: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected preserved mode 0600, got %v", info.Mode().Perm())
	}
	if err := CopyFile(src, dst); err == nil {
		t.Fatalf("expected refusal to overwrite existing copy target")
	}
}

func TestReplaceFileSafelyReplacesExistingTarget(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "track.flac")
	replacement := filepath.Join(tmp, ".tmp-track.flac")

	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}
	if err := os.WriteFile(replacement, []byte("new"), 0o644); err != nil {
		t.Fatalf("write replacement: %v", err)
	}

	if err := ReplaceFileSafely(replacement, target); err != nil {
		t.Fatalf("replace file safely: %v", err)
	}

	payload, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(payload) != "new" {
		t.Fatalf("expected replaced payload, got %q", string(payload))
	}
	if _, err := os.Stat(replacement); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected replacement file to be moved, stat err: %v", err)
	}
	if _, err := os.Stat(target + backupSuffix); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected backup cleanup, stat err: %v", err)
	}
}

func TestReplaceFileSafelyRollbackRestoresOriginalTarget(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "track.flac")
	replacement := filepath.Join(tmp, ".tmp-track.flac")

	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}
	if err := os.WriteFile(replacement, []byte("new"), 0o644); err != nil {
		t.Fatalf("write replacement: %v", err)
	}

	origRename := renameFile
	renameFile = func(oldpath string, newpath string) error {
		if oldpath == replacement && newpath == target {
			return errors.New("injected rename failure")
		}
		return os.Rename(oldpath, newpath)
	}
	t.Cleanup(func() {
		renameFile = origRename
	})

	if err := ReplaceFileSafely(replacement, target); err == nil {
		t.Fatalf("expected replacement failure")
	}

	payload, readErr := os.ReadFile(target)
	if readErr != nil {
		t.Fatalf("read restored target: %v", readErr)
	}
	if string(payload) != "old" {
		t.Fatalf("expected rollback to restore original payload, got %q", string(payload))
	}
	if _, statErr := os.Stat(target + backupSuffix); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected backup to be restored, stat err: %v", statErr)
	}
}

func TestReplaceFileSafelyRejectsBadArguments(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "t.flac")

	if err := ReplaceFileSafely("", path); err == nil {
		t.Fatalf("expected error for empty temp path")
	}
	if err := ReplaceFileSafely(path, path); err == nil {
		t.Fatalf("expected error for identical paths")
	}
	if err := ReplaceFileSafely(tmp, path); err == nil {
		t.Fatalf("expected error for directory temp path")
	}
}
