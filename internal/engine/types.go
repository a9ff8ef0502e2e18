package engine

import "context"

type Language string

const (
	LanguageEnglish            Language = "english"
	LanguageTraditionalChinese Language = "traditional_chinese"
)

// Label is the human-readable form used in prompts and diagnostics.
func (l Language) Label() string {
	switch l {
	case LanguageTraditionalChinese:
		return "Traditional Chinese"
	case LanguageEnglish:
		return "English"
	default:
		return string(l)
	}
}

// Album is one album's worth of work: the parsed directory identity plus the
// ordered audio filenames found inside it.
type Album struct {
	Artist string
	Title  string
	Path   string
	Files  []string
}

// Options are the orchestration knobs for one run. Budgets are attempt
// counts, not extra retries: MaxSearchRetries=1 means a single lookup.
// When QA is enabled at least one generate-and-review cycle always runs;
// MaxBusinessRetries values below 1 behave as 1.
type Options struct {
	Language              Language
	MaxSearchRetries      int
	MaxBusinessRetries    int
	MaxMappingRetries     int
	QAEnabled             bool
	QAConfidenceThreshold float64
	PureTranslation       bool
}

// Source records which strategy produced an accepted mapping.
type Source string

const (
	SourceOfficial        Source = "official"
	SourceLLMOnly         Source = "llm_only"
	SourcePureTranslation Source = "pure_translation"
)

// CatalogMatch is a successful catalog lookup: cleaned artist/album names and
// the official track titles in album order.
type CatalogMatch struct {
	Artist string
	Album  string
	Tracks []string
}

type GenerateRequest struct {
	Artist         string
	Album          string
	Language       Language
	Files          []string
	OfficialTracks []string
}

type ReviewRequest struct {
	Artist         string
	Album          string
	Language       Language
	Files          []string
	Mapping        map[string]string
	OfficialTracks []string
}

// Verdict is a quality review outcome. LanguageCompliant is advisory only
// and never gates acceptance.
type Verdict struct {
	Approved               bool
	Confidence             float64
	Issues                 []string
	LanguageCompliant      bool
	TrackNumberCompliant   bool
	AlternativeSearchTerms []string
}

// Result is the terminal outcome of a successful run.
type Result struct {
	Mapping            map[string]string
	Source             Source
	Artist             string
	Album              string
	SearchAttempts     int
	GenerationAttempts int
	ReviewAttempts     int
	LastVerdict        *Verdict
}

// CatalogSearcher looks up an album's official track listing. A miss is
// reported as ErrNoMatch; the engine treats every other error the same way.
type CatalogSearcher interface {
	Search(ctx context.Context, query string) (CatalogMatch, error)
}

// Generator proposes a raw old-to-new filename mapping. The engine owns all
// structural validation of the result.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (map[string]string, error)
}

// Reviewer judges a structurally valid mapping against the business rules.
type Reviewer interface {
	Review(ctx context.Context, req ReviewRequest) (Verdict, error)
}
