package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	codeFencePattern  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSONObject pulls the JSON object out of a model reply, tolerating
// markdown fences and surrounding prose.
func ExtractJSONObject(response string) ([]byte, error) {
	trimmed := strings.TrimSpace(response)
	if json.Valid([]byte(trimmed)) {
		return []byte(trimmed), nil
	}

	if match := codeFencePattern.FindStringSubmatch(trimmed); match != nil {
		fenced := strings.TrimSpace(match[1])
		if json.Valid([]byte(fenced)) {
			return []byte(fenced), nil
		}
		trimmed = fenced
	}

	if match := jsonObjectPattern.FindString(trimmed); match != "" {
		if json.Valid([]byte(match)) {
			return []byte(match), nil
		}
	}

	return nil, fmt.Errorf("no valid JSON object found in response")
}
