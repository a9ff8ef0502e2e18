package config

func DefaultTemplate() string {
	return `version: 1
defaults:
  language: "english"
  output_mode: "copy"
  llm_provider: "perplexity"
  max_search_retries: 3
  max_business_retries: 2
  max_mapping_retries: 3
  qa_enabled: true
  qa_confidence_threshold: 0.6
  pure_translation: false
  continue_on_error: true
  request_timeout_seconds: 120
libraries:
  - id: "main"
    enabled: true
    path: "~/Music/albums"

  - id: "chinese-pop"
    enabled: false
    path: "~/Music/cpop"
    language: "traditional_chinese"
    output_mode: "in_place"
`
}
