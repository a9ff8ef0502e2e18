package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matty6409/album-cleaner/internal/language"
)

// PureTranslationMapping numbers files in their given order and converts any
// Simplified Chinese in each name to the Traditional variant. No external
// service is consulted. Running it on an already-Traditional set is a no-op
// apart from track-number normalization.
func PureTranslationMapping(files []string) map[string]string {
	mapping := make(map[string]string, len(files))
	for i, file := range files {
		ext := filepath.Ext(file)
		base := strings.TrimSuffix(file, ext)
		base, _ = language.StripOrdinalPrefix(base)

		converted := language.SanitizeFilename(language.SimplifiedToTraditional(base))
		mapping[file] = fmt.Sprintf("%02d %s%s", i+1, converted, ext)
	}
	return mapping
}

// wantsPureTranslation reports whether the run should take the
// pure-translation short circuit: either explicitly requested, or the target
// is Traditional Chinese and every filename is already Chinese-script only.
func wantsPureTranslation(album Album, opts Options) bool {
	if opts.PureTranslation {
		return true
	}
	if opts.Language != LanguageTraditionalChinese {
		return false
	}
	for _, file := range album.Files {
		base := strings.TrimSuffix(file, filepath.Ext(file))
		base, _ = language.StripOrdinalPrefix(base)
		if !language.RequiresScriptNormalization(base) {
			return false
		}
	}
	return true
}
