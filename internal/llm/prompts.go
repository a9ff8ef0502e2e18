package llm

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.yaml
var promptFS embed.FS

const (
	PromptAlbumCleaning = "album_cleaning"
	PromptQualityReview = "quality_review"
)

type promptFile struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Prompt is a parsed system/user prompt template pair.
type Prompt struct {
	system *template.Template
	user   *template.Template
}

// LoadPrompt loads and parses a named embedded prompt template.
func LoadPrompt(name string) (*Prompt, error) {
	payload, err := promptFS.ReadFile("prompts/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("read prompt %s: %w", name, err)
	}

	var file promptFile
	if err := yaml.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", name, err)
	}
	if file.System == "" || file.User == "" {
		return nil, fmt.Errorf("prompt %s must define system and user sections", name)
	}

	systemTmpl, err := template.New(name + ".system").Parse(file.System)
	if err != nil {
		return nil, fmt.Errorf("parse system template %s: %w", name, err)
	}
	userTmpl, err := template.New(name + ".user").Parse(file.User)
	if err != nil {
		return nil, fmt.Errorf("parse user template %s: %w", name, err)
	}

	return &Prompt{system: systemTmpl, user: userTmpl}, nil
}

// Render executes both templates against data.
func (p *Prompt) Render(data any) (string, string, error) {
	var systemBuf bytes.Buffer
	if err := p.system.Execute(&systemBuf, data); err != nil {
		return "", "", fmt.Errorf("render system prompt: %w", err)
	}
	var userBuf bytes.Buffer
	if err := p.user.Execute(&userBuf, data); err != nil {
		return "", "", fmt.Errorf("render user prompt: %w", err)
	}
	return systemBuf.String(), userBuf.String(), nil
}
