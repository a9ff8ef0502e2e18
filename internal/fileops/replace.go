// Package fileops holds the low-level filesystem moves used when a mapping
// is materialized: no-clobber renames, copies, and backup-protected
// replacement.
package fileops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const backupSuffix = ".albumclean.bak"

var (
	statFile   = os.Stat
	renameFile = os.Rename
	removeFile = os.Remove
)

// RenameNoClobber renames oldPath to newPath, refusing to overwrite an
// existing file at newPath.
func RenameNoClobber(oldPath string, newPath string) error {
	if oldPath == newPath {
		return nil
	}
	if _, err := statFile(newPath); err == nil {
		return fmt.Errorf("rename target already exists: %s", newPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat rename target %q: %w", newPath, err)
	}
	if err := renameFile(oldPath, newPath); err != nil {
		return fmt.Errorf("rename %q to %q: %w", oldPath, newPath, err)
	}
	return nil
}

// CopyFile copies src to dst, preserving the source file mode. dst must not
// already exist.
func CopyFile(src string, dst string) error {
	info, err := statFile(src)
	if err != nil {
		return fmt.Errorf("stat copy source %q: %w", src, err)
	}
	if info.IsDir() {
		return fmt.Errorf("copy source is a directory: %s", src)
	}
	if _, err := statFile(dst); err == nil {
		return fmt.Errorf("copy target already exists: %s", dst)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat copy target %q: %w", dst, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open copy source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create copy target: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		removeFile(dst)
		return fmt.Errorf("copy %q to %q: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		removeFile(dst)
		return fmt.Errorf("close copy target: %w", err)
	}
	return nil
}

// ReplaceFileSafely replaces targetPath with tempPath while preserving the
// previous target content as a rollback backup until replacement succeeds.
func ReplaceFileSafely(tempPath string, targetPath string) error {
	temp := strings.TrimSpace(tempPath)
	target := strings.TrimSpace(targetPath)
	if temp == "" {
		return fmt.Errorf("replacement temp path is empty")
	}
	if target == "" {
		return fmt.Errorf("replacement target path is empty")
	}
	if temp == target {
		return fmt.Errorf("replacement temp and target paths must differ")
	}

	tempInfo, err := statFile(temp)
	if err != nil {
		return fmt.Errorf("stat replacement temp %q: %w", temp, err)
	}
	if tempInfo.IsDir() {
		return fmt.Errorf("replacement temp path is a directory: %s", temp)
	}

	backup := target + backupSuffix
	if _, err := statFile(backup); err == nil {
		if removeErr := removeFile(backup); removeErr != nil {
			return fmt.Errorf("remove stale replacement backup %q: %w", backup, removeErr)
		}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat replacement backup %q: %w", backup, err)
	}

	hadTarget := false
	if _, err := statFile(target); err == nil {
		hadTarget = true
		if err := renameFile(target, backup); err != nil {
			return fmt.Errorf("move existing target to backup: %w", err)
		}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat replacement target %q: %w", target, err)
	}

	if err := renameFile(temp, target); err != nil {
		if hadTarget {
			if rollbackErr := renameFile(backup, target); rollbackErr != nil {
				return fmt.Errorf("replace failed (%v) and rollback failed (%w)", err, rollbackErr)
			}
		}
		return fmt.Errorf("replace target with temp: %w", err)
	}

	if hadTarget {
		if err := removeFile(backup); err != nil {
			return fmt.Errorf("cleanup replacement backup %q: %w", backup, err)
		}
	}
	return nil
}
