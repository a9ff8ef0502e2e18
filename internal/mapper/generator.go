// Package mapper turns an album's local files into a proposed rename mapping
// by prompting an LLM, optionally anchored on an official track listing.
package mapper

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matty6409/album-cleaner/internal/engine"
	"github.com/matty6409/album-cleaner/internal/llm"
)

type Generator struct {
	client llm.Client
	prompt *llm.Prompt
}

func New(client llm.Client) (*Generator, error) {
	prompt, err := llm.LoadPrompt(llm.PromptAlbumCleaning)
	if err != nil {
		return nil, err
	}
	return &Generator{client: client, prompt: prompt}, nil
}

type promptData struct {
	Artist         string
	Album          string
	Language       string
	Files          []string
	OfficialTracks []string
}

// Generate asks the model for an old-name to new-name mapping. The raw
// mapping is returned as-is; structural validation is the caller's job.
func (g *Generator) Generate(ctx context.Context, req engine.GenerateRequest) (map[string]string, error) {
	system, user, err := g.prompt.Render(promptData{
		Artist:         req.Artist,
		Album:          req.Album,
		Language:       req.Language.Label(),
		Files:          req.Files,
		OfficialTracks: req.OfficialTracks,
	})
	if err != nil {
		return nil, err
	}

	reply, err := g.client.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("mapping completion: %w", err)
	}

	payload, err := llm.ExtractJSONObject(reply)
	if err != nil {
		return nil, fmt.Errorf("mapping response: %w", err)
	}

	var mapping map[string]string
	if err := json.Unmarshal(payload, &mapping); err != nil {
		return nil, fmt.Errorf("mapping response: %w", err)
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("mapping response: empty object")
	}
	return mapping, nil
}
