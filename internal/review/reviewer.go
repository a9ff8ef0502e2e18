// Package review judges a proposed rename mapping against the business
// rules using an LLM quality pass.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/matty6409/album-cleaner/internal/engine"
	"github.com/matty6409/album-cleaner/internal/language"
	"github.com/matty6409/album-cleaner/internal/llm"
)

type Reviewer struct {
	client llm.Client
	prompt *llm.Prompt
}

func New(client llm.Client) (*Reviewer, error) {
	prompt, err := llm.LoadPrompt(llm.PromptQualityReview)
	if err != nil {
		return nil, err
	}
	return &Reviewer{client: client, prompt: prompt}, nil
}

type promptData struct {
	Artist         string
	Album          string
	Language       string
	Files          []string
	Mapping        map[string]string
	OfficialTracks []string
}

type verdictPayload struct {
	Approved               bool     `json:"approved"`
	Confidence             float64  `json:"confidence"`
	Issues                 []string `json:"issues"`
	LanguageCompliance     *bool    `json:"language_compliance"`
	TrackNumberCompliance  *bool    `json:"track_number_compliance"`
	AlternativeSearchTerms []string `json:"alternative_search_terms"`
}

// Review asks the model for a verdict on the mapping. A reply that cannot be
// parsed is reported as a zero-confidence rejection rather than an error, so
// a flaky model degrades into a retry instead of aborting the album.
// Transport errors are still returned for the caller to handle.
func (r *Reviewer) Review(ctx context.Context, req engine.ReviewRequest) (engine.Verdict, error) {
	system, user, err := r.prompt.Render(promptData{
		Artist:         req.Artist,
		Album:          req.Album,
		Language:       req.Language.Label(),
		Files:          req.Files,
		Mapping:        req.Mapping,
		OfficialTracks: req.OfficialTracks,
	})
	if err != nil {
		return engine.Verdict{}, err
	}

	reply, err := r.client.Complete(ctx, system, user)
	if err != nil {
		return engine.Verdict{}, fmt.Errorf("review completion: %w", err)
	}

	payload, err := llm.ExtractJSONObject(reply)
	if err != nil {
		return rejection(fmt.Sprintf("unparseable review reply: %v", err)), nil
	}

	var parsed verdictPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return rejection(fmt.Sprintf("malformed review reply: %v", err)), nil
	}

	verdict := engine.Verdict{
		Approved:               parsed.Approved,
		Confidence:             parsed.Confidence,
		Issues:                 parsed.Issues,
		LanguageCompliant:      boolOr(parsed.LanguageCompliance, true),
		TrackNumberCompliant:   boolOr(parsed.TrackNumberCompliance, parsed.Approved),
		AlternativeSearchTerms: parsed.AlternativeSearchTerms,
	}
	if verdict.Confidence < 0 {
		verdict.Confidence = 0
	}
	if verdict.Confidence > 1 {
		verdict.Confidence = 1
	}
	flagSimplifiedLeftovers(req, &verdict)
	return verdict, nil
}

// flagSimplifiedLeftovers marks the verdict non-compliant when a
// Traditional-target mapping still proposes Simplified characters. The model
// tends to miss single-character variants, so this check is done locally.
func flagSimplifiedLeftovers(req engine.ReviewRequest, verdict *engine.Verdict) {
	if req.Language != engine.LanguageTraditionalChinese {
		return
	}
	names := make([]string, 0, len(req.Mapping))
	for _, name := range req.Mapping {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if language.ContainsSimplified(name) {
			verdict.LanguageCompliant = false
			verdict.Issues = append(verdict.Issues, fmt.Sprintf("proposed name is not fully Traditional: %s", name))
		}
	}
}

func rejection(issue string) engine.Verdict {
	return engine.Verdict{Issues: []string{issue}}
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
