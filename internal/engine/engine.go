// Package engine drives the mapping-and-verification loop for one album:
// official-track lookup, LLM mapping generation, structural validation, and
// quality review, retried under explicit budgets until a mapping is accepted
// or every strategy is exhausted.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/matty6409/album-cleaner/internal/output"
)

type Engine struct {
	Catalog   CatalogSearcher
	Generator Generator
	Reviewer  Reviewer
	Emitter   output.EventEmitter
	Now       func() time.Time
}

func New(catalog CatalogSearcher, generator Generator, reviewer Reviewer, emitter output.EventEmitter) *Engine {
	if emitter == nil {
		emitter = noOpEmitter{}
	}
	return &Engine{
		Catalog:   catalog,
		Generator: generator,
		Reviewer:  reviewer,
		Emitter:   emitter,
		Now:       time.Now,
	}
}

type noOpEmitter struct{}

func (noOpEmitter) Emit(event output.Event) error {
	return nil
}

// state of one album run. Transitions are owned entirely by Process; the
// step methods return the next state.
type state int

const (
	stateSearchingCatalog state = iota
	stateGeneratingMapping
	stateAwaitingReview
	stateAccepted
	stateExhausted
	stateCancelled
)

type run struct {
	album Album
	opts  Options

	searchBudget   int
	businessBudget int

	query        string
	pendingTerms []string

	match    *CatalogMatch
	official []string
	mapping  map[string]string

	lastVerdict *Verdict
	lastErr     error
	exhausted   *BudgetExhaustedError

	searchAttempts     int
	generationAttempts int
	reviewAttempts     int
}

// Process runs the retry state machine for a single album. Process never
// mutates the filesystem; an accepted mapping is handed back for the caller
// to materialize. The returned error is one of ErrEmptyInput, ErrCancelled,
// or a *BudgetExhaustedError.
func (e *Engine) Process(ctx context.Context, album Album, opts Options) (Result, error) {
	if len(album.Files) == 0 {
		return Result{}, ErrEmptyInput
	}
	if e.Now == nil {
		e.Now = time.Now
	}

	if wantsPureTranslation(album, opts) {
		mapping := PureTranslationMapping(album.Files)
		e.emit(output.LevelInfo, output.EventMappingGenerated, album,
			fmt.Sprintf("pure translation mapping for %d file(s)", len(album.Files)), nil)
		return Result{
			Mapping: mapping,
			Source:  SourcePureTranslation,
			Artist:  album.Artist,
			Album:   album.Title,
		}, nil
	}

	if opts.QAEnabled && opts.MaxBusinessRetries < 1 {
		opts.MaxBusinessRetries = 1
	}

	r := &run{
		album:          album,
		opts:           opts,
		searchBudget:   opts.MaxSearchRetries,
		businessBudget: opts.MaxBusinessRetries,
		query:          initialQuery(album),
	}

	current := stateSearchingCatalog
	if r.searchBudget <= 0 {
		current = stateGeneratingMapping
	}

	for {
		if ctx.Err() != nil {
			current = stateCancelled
		}

		switch current {
		case stateSearchingCatalog:
			current = e.stepSearch(ctx, r)
		case stateGeneratingMapping:
			current = e.stepGenerate(ctx, r)
		case stateAwaitingReview:
			current = e.stepReview(ctx, r)
		case stateAccepted:
			return e.accepted(r), nil
		case stateExhausted:
			return Result{
				SearchAttempts:     r.searchAttempts,
				GenerationAttempts: r.generationAttempts,
				ReviewAttempts:     r.reviewAttempts,
				LastVerdict:        r.lastVerdict,
			}, r.exhausted
		case stateCancelled:
			return Result{
				SearchAttempts:     r.searchAttempts,
				GenerationAttempts: r.generationAttempts,
				ReviewAttempts:     r.reviewAttempts,
				LastVerdict:        r.lastVerdict,
			}, ErrCancelled
		}
	}
}

// stepSearch performs a single catalog lookup. Alternative terms suggested
// by a rejected review are consumed before the original query is reused.
// Lookup errors are not distinguished from misses; both consume the search
// budget, and exhaustion falls through to LLM-only generation.
func (e *Engine) stepSearch(ctx context.Context, r *run) state {
	query := r.query
	if len(r.pendingTerms) > 0 {
		query = r.pendingTerms[0]
		r.pendingTerms = r.pendingTerms[1:]
	}

	r.searchBudget--
	r.searchAttempts++

	match, err := e.Catalog.Search(ctx, query)
	if err != nil {
		r.lastErr = err
		e.emit(output.LevelWarn, output.EventCatalogSearch, r.album,
			fmt.Sprintf("catalog lookup missed for %q: %v", query, err), map[string]any{
				"query":   query,
				"attempt": r.searchAttempts,
			})
		if r.searchBudget > 0 {
			return stateSearchingCatalog
		}
		r.match = nil
		r.official = nil
		return stateGeneratingMapping
	}

	r.match = &match
	r.official = match.Tracks
	e.emit(output.LevelInfo, output.EventCatalogSearch, r.album,
		fmt.Sprintf("found %q by %q with %d track(s)", match.Album, match.Artist, len(match.Tracks)), map[string]any{
			"query":  query,
			"tracks": len(match.Tracks),
		})
	return stateGeneratingMapping
}

// stepGenerate is one business iteration's worth of raw generation attempts.
// A structural violation consumes a mapping attempt and is retried without
// a review call; exhausting the mapping budget ends the run.
func (e *Engine) stepGenerate(ctx context.Context, r *run) state {
	artist, title := r.cleanNames()
	req := GenerateRequest{
		Artist:         artist,
		Album:          title,
		Language:       r.opts.Language,
		Files:          r.album.Files,
		OfficialTracks: r.official,
	}

	remaining := r.opts.MaxMappingRetries
	for remaining > 0 {
		if ctx.Err() != nil {
			return stateCancelled
		}
		remaining--
		r.generationAttempts++

		mapping, err := e.Generator.Generate(ctx, req)
		if err == nil {
			err = ValidateMapping(mapping, r.album.Files)
		}
		if err != nil {
			r.lastErr = err
			e.emit(output.LevelWarn, output.EventMappingGenerated, r.album,
				fmt.Sprintf("mapping attempt %d rejected: %v", r.generationAttempts, err), nil)
			continue
		}

		r.mapping = mapping
		e.emit(output.LevelInfo, output.EventMappingGenerated, r.album,
			fmt.Sprintf("mapping generated with %d entries", len(mapping)), nil)
		if !r.opts.QAEnabled {
			return stateAccepted
		}
		return stateAwaitingReview
	}

	r.exhausted = &BudgetExhaustedError{Stage: "mapping", LastVerdict: r.lastVerdict, LastErr: r.lastErr}
	return stateExhausted
}

// stepReview asks the reviewer for a verdict. A reviewer failure is a
// rejection with zero confidence, never a crash. Acceptance requires both
// the approval flag and the confidence gate.
func (e *Engine) stepReview(ctx context.Context, r *run) state {
	artist, title := r.cleanNames()
	r.reviewAttempts++

	verdict, err := e.Reviewer.Review(ctx, ReviewRequest{
		Artist:         artist,
		Album:          title,
		Language:       r.opts.Language,
		Files:          r.album.Files,
		Mapping:        r.mapping,
		OfficialTracks: r.official,
	})
	if err != nil {
		verdict = Verdict{Issues: []string{fmt.Sprintf("review failed: %v", err)}}
	}
	r.lastVerdict = &verdict

	if verdict.Approved && verdict.Confidence >= r.opts.QAConfidenceThreshold {
		e.emit(output.LevelInfo, output.EventReviewCompleted, r.album,
			fmt.Sprintf("review approved with confidence %.2f", verdict.Confidence), map[string]any{
				"language_compliant": verdict.LanguageCompliant,
			})
		return stateAccepted
	}

	e.emit(output.LevelWarn, output.EventReviewCompleted, r.album,
		fmt.Sprintf("review rejected (approved=%v confidence=%.2f): %s",
			verdict.Approved, verdict.Confidence, strings.Join(verdict.Issues, "; ")), nil)

	r.businessBudget--
	if r.businessBudget <= 0 {
		r.exhausted = &BudgetExhaustedError{Stage: "review", LastVerdict: r.lastVerdict}
		return stateExhausted
	}

	if len(verdict.AlternativeSearchTerms) > 0 && len(r.official) > 0 && r.searchBudget > 0 {
		r.pendingTerms = append([]string{}, verdict.AlternativeSearchTerms...)
		return stateSearchingCatalog
	}
	return stateGeneratingMapping
}

func (e *Engine) accepted(r *run) Result {
	source := SourceLLMOnly
	if len(r.official) > 0 {
		source = SourceOfficial
	}
	artist, title := r.cleanNames()
	return Result{
		Mapping:            r.mapping,
		Source:             source,
		Artist:             artist,
		Album:              title,
		SearchAttempts:     r.searchAttempts,
		GenerationAttempts: r.generationAttempts,
		ReviewAttempts:     r.reviewAttempts,
		LastVerdict:        r.lastVerdict,
	}
}

// cleanNames prefers the catalog's canonical artist/album over the parsed
// directory name.
func (r *run) cleanNames() (string, string) {
	if r.match != nil {
		return r.match.Artist, r.match.Album
	}
	return r.album.Artist, r.album.Title
}

func initialQuery(album Album) string {
	artist := strings.TrimSpace(album.Artist)
	title := strings.TrimSpace(album.Title)
	if artist != "" && title != "" {
		return fmt.Sprintf("artist:%q album:%q", artist, title)
	}
	return strings.TrimSpace(artist + " " + title)
}

func (e *Engine) emit(level output.Level, name output.EventName, album Album, message string, details map[string]any) {
	label := strings.TrimSpace(album.Artist + " - " + album.Title)
	if album.Path != "" {
		label = filepath.Base(album.Path)
	}
	_ = e.Emitter.Emit(output.Event{
		Timestamp: e.Now(),
		Level:     level,
		Event:     name,
		Album:     label,
		Message:   message,
		Details:   details,
	})
}
