package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var libraryIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid config"
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(e.Problems, "; "))
}

func Validate(cfg Config) error {
	problems := []string{}

	if cfg.Version != 1 {
		problems = append(problems, "version must be 1")
	}

	if !validLanguage(cfg.Defaults.Language) {
		problems = append(problems, fmt.Sprintf("defaults.language must be %q or %q", LanguageEnglish, LanguageTraditionalChinese))
	}
	if !validOutputMode(cfg.Defaults.OutputMode) {
		problems = append(problems, fmt.Sprintf("defaults.output_mode must be %q or %q", OutputModeCopy, OutputModeInPlace))
	}
	if !validProvider(cfg.Defaults.LLMProvider) {
		problems = append(problems, fmt.Sprintf("defaults.llm_provider must be one of %q, %q, %q", ProviderPerplexity, ProviderDeepSeek, ProviderOpenRouter))
	}
	if cfg.Defaults.MaxSearchRetries < 0 {
		problems = append(problems, "defaults.max_search_retries must be >= 0")
	}
	if cfg.Defaults.MaxBusinessRetries < 1 {
		problems = append(problems, "defaults.max_business_retries must be >= 1")
	}
	if cfg.Defaults.MaxMappingRetries < 1 {
		problems = append(problems, "defaults.max_mapping_retries must be >= 1")
	}
	if cfg.Defaults.QAConfidenceThreshold < 0 || cfg.Defaults.QAConfidenceThreshold > 1 {
		problems = append(problems, "defaults.qa_confidence_threshold must be between 0 and 1")
	}
	if cfg.Defaults.RequestTimeoutSeconds <= 0 {
		problems = append(problems, "defaults.request_timeout_seconds must be > 0")
	}

	if len(cfg.Libraries) == 0 {
		problems = append(problems, "at least one library must be configured")
	}

	seenIDs := map[string]struct{}{}
	for _, library := range cfg.Libraries {
		if strings.TrimSpace(library.ID) == "" {
			problems = append(problems, "library.id must not be empty")
		} else {
			if !libraryIDPattern.MatchString(library.ID) {
				problems = append(problems, fmt.Sprintf("library %q has invalid id format", library.ID))
			}
			if _, exists := seenIDs[library.ID]; exists {
				problems = append(problems, fmt.Sprintf("duplicate library id %q", library.ID))
			}
			seenIDs[library.ID] = struct{}{}
		}

		if strings.TrimSpace(library.Path) == "" {
			problems = append(problems, fmt.Sprintf("library %q path must be set", library.ID))
		} else {
			path, pathErr := ExpandPath(library.Path)
			if pathErr != nil {
				problems = append(problems, fmt.Sprintf("library %q path is invalid", library.ID))
			} else if !filepath.IsAbs(path) {
				problems = append(problems, fmt.Sprintf("library %q path must resolve to an absolute path", library.ID))
			}
		}

		if library.Language != "" && !validLanguage(library.Language) {
			problems = append(problems, fmt.Sprintf("library %q has unsupported language %q", library.ID, library.Language))
		}
		if library.OutputMode != "" && !validOutputMode(library.OutputMode) {
			problems = append(problems, fmt.Sprintf("library %q has unsupported output_mode %q", library.ID, library.OutputMode))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func validLanguage(raw string) bool {
	return raw == LanguageEnglish || raw == LanguageTraditionalChinese
}

func validOutputMode(raw string) bool {
	return raw == OutputModeCopy || raw == OutputModeInPlace
}

func validProvider(raw string) bool {
	switch raw {
	case ProviderPerplexity, ProviderDeepSeek, ProviderOpenRouter:
		return true
	default:
		return false
	}
}
