package config

const (
	LanguageEnglish            = "english"
	LanguageTraditionalChinese = "traditional_chinese"
)

const (
	OutputModeCopy    = "copy"
	OutputModeInPlace = "in_place"
)

const (
	ProviderPerplexity = "perplexity"
	ProviderDeepSeek   = "deepseek"
	ProviderOpenRouter = "openrouter"
)

type Config struct {
	Version   int       `yaml:"version"`
	Defaults  Defaults  `yaml:"defaults"`
	Libraries []Library `yaml:"libraries"`
}

type Defaults struct {
	Language              string  `yaml:"language"`
	OutputMode            string  `yaml:"output_mode"`
	LLMProvider           string  `yaml:"llm_provider"`
	MaxSearchRetries      int     `yaml:"max_search_retries"`
	MaxBusinessRetries    int     `yaml:"max_business_retries"`
	MaxMappingRetries     int     `yaml:"max_mapping_retries"`
	QAEnabled             bool    `yaml:"qa_enabled"`
	QAConfidenceThreshold float64 `yaml:"qa_confidence_threshold"`
	PureTranslation       bool    `yaml:"pure_translation"`
	ContinueOnError       bool    `yaml:"continue_on_error"`
	RequestTimeoutSeconds int     `yaml:"request_timeout_seconds"`
}

type Library struct {
	ID              string `yaml:"id"`
	Path            string `yaml:"path"`
	Enabled         bool   `yaml:"enabled"`
	Language        string `yaml:"language,omitempty"`
	OutputMode      string `yaml:"output_mode,omitempty"`
	PureTranslation *bool  `yaml:"pure_translation,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Version: 1,
		Defaults: Defaults{
			Language:              LanguageEnglish,
			OutputMode:            OutputModeCopy,
			LLMProvider:           ProviderPerplexity,
			MaxSearchRetries:      3,
			MaxBusinessRetries:    2,
			MaxMappingRetries:     3,
			QAEnabled:             true,
			QAConfidenceThreshold: 0.6,
			PureTranslation:       false,
			ContinueOnError:       true,
			RequestTimeoutSeconds: 120,
		},
		Libraries: []Library{},
	}
}

// EffectiveLanguage returns the library's language, falling back to defaults.
func (c Config) EffectiveLanguage(lib Library) string {
	if lib.Language != "" {
		return lib.Language
	}
	return c.Defaults.Language
}

// EffectiveOutputMode returns the library's output mode, falling back to defaults.
func (c Config) EffectiveOutputMode(lib Library) string {
	if lib.OutputMode != "" {
		return lib.OutputMode
	}
	return c.Defaults.OutputMode
}

// EffectivePureTranslation returns the library's pure-translation override,
// falling back to defaults.
func (c Config) EffectivePureTranslation(lib Library) bool {
	if lib.PureTranslation != nil {
		return *lib.PureTranslation
	}
	return c.Defaults.PureTranslation
}
