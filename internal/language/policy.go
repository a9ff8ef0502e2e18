// Package language holds the target-language rules for track names:
// Han-script detection, Simplified-to-Traditional conversion, and the
// filename hygiene applied to converted names.
package language

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/siongui/gojianfan"
)

var (
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	leadingOrdinal       = regexp.MustCompile(`^(\d{1,3})[\s._-]+`)
)

// ContainsHan reports whether text contains at least one Han character.
func ContainsHan(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// RequiresScriptNormalization reports whether text is a Chinese-script name
// that only needs script conversion rather than LLM cleaning: it contains
// Han characters and no Latin letters.
func RequiresScriptNormalization(text string) bool {
	if !ContainsHan(text) {
		return false
	}
	for _, r := range text {
		if unicode.In(r, unicode.Latin) {
			return false
		}
	}
	return true
}

// SimplifiedToTraditional converts any Simplified Chinese characters in text
// to their Traditional variants. Non-Chinese text passes through unchanged.
func SimplifiedToTraditional(text string) string {
	return gojianfan.S2T(text)
}

// ContainsSimplified reports whether converting text changes it, i.e. it
// carries at least one Simplified-only character.
func ContainsSimplified(text string) bool {
	return text != gojianfan.S2T(text)
}

// SanitizeFilename strips characters that are illegal in filenames on the
// common filesystems.
func SanitizeFilename(name string) string {
	return strings.TrimSpace(invalidFilenameChars.ReplaceAllString(name, ""))
}

// StripOrdinalPrefix removes a leading track-number prefix ("01 ", "3.",
// "07-") from name, returning the remainder and whether a prefix was found.
func StripOrdinalPrefix(name string) (string, bool) {
	match := leadingOrdinal.FindStringSubmatch(name)
	if match == nil {
		return name, false
	}
	return strings.TrimSpace(name[len(match[0]):]), true
}
