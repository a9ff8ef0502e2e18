// Package scan discovers album directories in a library and the audio files
// inside them. Album directories follow the "[Artist] Album" naming pattern;
// anything else in the library root is ignored.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/matty6409/album-cleaner/internal/engine"
)

var albumDirPattern = regexp.MustCompile(`^\[(.+?)\]\s*(.+)$`)

var audioExtensions = map[string]struct{}{
	".flac": {},
	".mp3":  {},
	".m4a":  {},
	".aac":  {},
	".ogg":  {},
	".opus": {},
	".wav":  {},
	".wma":  {},
	".ape":  {},
}

// ParseAlbumDir splits a "[Artist] Album" directory name into its parts.
func ParseAlbumDir(name string) (artist string, album string, ok bool) {
	match := albumDirPattern.FindStringSubmatch(name)
	if match == nil {
		return "", "", false
	}
	return strings.TrimSpace(match[1]), strings.TrimSpace(match[2]), true
}

// IsAudioFile reports whether the filename has a recognized audio extension.
func IsAudioFile(name string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// AudioFiles lists the audio files directly inside dir, sorted by name.
// Subdirectories are not descended into.
func AudioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read album dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !IsAudioFile(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// Albums walks the library root and returns every album directory that
// matches the naming pattern, in sorted order. Albums without audio files
// are included with an empty file list so the caller can report them.
func Albums(root string) ([]engine.Album, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read library root: %w", err)
	}

	var albums []engine.Album
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		artist, title, ok := ParseAlbumDir(entry.Name())
		if !ok {
			continue
		}

		path := filepath.Join(root, entry.Name())
		files, err := AudioFiles(path)
		if err != nil {
			return nil, err
		}
		albums = append(albums, engine.Album{
			Artist: artist,
			Title:  title,
			Path:   path,
			Files:  files,
		})
	}

	sort.Slice(albums, func(i, j int) bool { return albums[i].Path < albums[j].Path })
	return albums, nil
}
