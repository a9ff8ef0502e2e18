package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type LoadOptions struct {
	ExplicitPath string
	WorkingDir   string
	Env          map[string]string
}

type fileConfig struct {
	Version   *int           `yaml:"version"`
	Defaults  fileDefaults   `yaml:"defaults"`
	Libraries *[]fileLibrary `yaml:"libraries"`
}

type fileDefaults struct {
	Language              *string  `yaml:"language"`
	OutputMode            *string  `yaml:"output_mode"`
	LLMProvider           *string  `yaml:"llm_provider"`
	MaxSearchRetries      *int     `yaml:"max_search_retries"`
	MaxBusinessRetries    *int     `yaml:"max_business_retries"`
	MaxMappingRetries     *int     `yaml:"max_mapping_retries"`
	QAEnabled             *bool    `yaml:"qa_enabled"`
	QAConfidenceThreshold *float64 `yaml:"qa_confidence_threshold"`
	PureTranslation       *bool    `yaml:"pure_translation"`
	ContinueOnError       *bool    `yaml:"continue_on_error"`
	RequestTimeoutSeconds *int     `yaml:"request_timeout_seconds"`
}

type fileLibrary struct {
	ID              string `yaml:"id"`
	Path            string `yaml:"path"`
	Enabled         *bool  `yaml:"enabled"`
	Language        string `yaml:"language"`
	OutputMode      string `yaml:"output_mode"`
	PureTranslation *bool  `yaml:"pure_translation"`
}

func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	cwd := opts.WorkingDir
	if strings.TrimSpace(cwd) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
		cwd = wd
	}

	env := opts.Env
	if env == nil {
		env = osEnvMap()
	}

	if explicit := strings.TrimSpace(opts.ExplicitPath); explicit != "" {
		if err := mergeFile(&cfg, explicit, true); err != nil {
			return Config{}, err
		}
	} else {
		userPath, err := UserConfigPath()
		if err != nil {
			return Config{}, err
		}
		if err := mergeFile(&cfg, userPath, false); err != nil {
			return Config{}, err
		}

		if err := mergeFile(&cfg, ProjectConfigPath(cwd), false); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg, env); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func mergeFile(cfg *Config, path string, required bool) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file does not exist: %s", path)
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(payload, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Version != nil {
		cfg.Version = *fc.Version
	}
	if fc.Defaults.Language != nil {
		cfg.Defaults.Language = strings.TrimSpace(*fc.Defaults.Language)
	}
	if fc.Defaults.OutputMode != nil {
		cfg.Defaults.OutputMode = strings.TrimSpace(*fc.Defaults.OutputMode)
	}
	if fc.Defaults.LLMProvider != nil {
		cfg.Defaults.LLMProvider = strings.TrimSpace(*fc.Defaults.LLMProvider)
	}
	if fc.Defaults.MaxSearchRetries != nil {
		cfg.Defaults.MaxSearchRetries = *fc.Defaults.MaxSearchRetries
	}
	if fc.Defaults.MaxBusinessRetries != nil {
		cfg.Defaults.MaxBusinessRetries = *fc.Defaults.MaxBusinessRetries
	}
	if fc.Defaults.MaxMappingRetries != nil {
		cfg.Defaults.MaxMappingRetries = *fc.Defaults.MaxMappingRetries
	}
	if fc.Defaults.QAEnabled != nil {
		cfg.Defaults.QAEnabled = *fc.Defaults.QAEnabled
	}
	if fc.Defaults.QAConfidenceThreshold != nil {
		cfg.Defaults.QAConfidenceThreshold = *fc.Defaults.QAConfidenceThreshold
	}
	if fc.Defaults.PureTranslation != nil {
		cfg.Defaults.PureTranslation = *fc.Defaults.PureTranslation
	}
	if fc.Defaults.ContinueOnError != nil {
		cfg.Defaults.ContinueOnError = *fc.Defaults.ContinueOnError
	}
	if fc.Defaults.RequestTimeoutSeconds != nil {
		cfg.Defaults.RequestTimeoutSeconds = *fc.Defaults.RequestTimeoutSeconds
	}

	if fc.Libraries != nil {
		cfg.Libraries = make([]Library, 0, len(*fc.Libraries))
		for _, fl := range *fc.Libraries {
			enabled := true
			if fl.Enabled != nil {
				enabled = *fl.Enabled
			}

			library := Library{
				ID:              strings.TrimSpace(fl.ID),
				Path:            strings.TrimSpace(fl.Path),
				Enabled:         enabled,
				Language:        strings.TrimSpace(fl.Language),
				OutputMode:      strings.TrimSpace(fl.OutputMode),
				PureTranslation: copyBoolPtr(fl.PureTranslation),
			}
			cfg.Libraries = append(cfg.Libraries, library)
		}
	}

	return nil
}

func applyEnvOverrides(cfg *Config, env map[string]string) error {
	if value := strings.TrimSpace(env["ALBUMCLEAN_LANGUAGE"]); value != "" {
		cfg.Defaults.Language = value
	}
	if value := strings.TrimSpace(env["ALBUMCLEAN_OUTPUT_MODE"]); value != "" {
		cfg.Defaults.OutputMode = value
	}
	if value := strings.TrimSpace(env["ALBUMCLEAN_LLM_PROVIDER"]); value != "" {
		cfg.Defaults.LLMProvider = value
	}
	if value := strings.TrimSpace(env["ALBUMCLEAN_QA_ENABLED"]); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid ALBUMCLEAN_QA_ENABLED value %q: %w", value, err)
		}
		cfg.Defaults.QAEnabled = parsed
	}
	if value := strings.TrimSpace(env["ALBUMCLEAN_QA_CONFIDENCE_THRESHOLD"]); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid ALBUMCLEAN_QA_CONFIDENCE_THRESHOLD value %q: %w", value, err)
		}
		cfg.Defaults.QAConfidenceThreshold = parsed
	}
	if value := strings.TrimSpace(env["ALBUMCLEAN_CONTINUE_ON_ERROR"]); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid ALBUMCLEAN_CONTINUE_ON_ERROR value %q: %w", value, err)
		}
		cfg.Defaults.ContinueOnError = parsed
	}
	if value := strings.TrimSpace(env["ALBUMCLEAN_REQUEST_TIMEOUT_SECONDS"]); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ALBUMCLEAN_REQUEST_TIMEOUT_SECONDS value %q: %w", value, err)
		}
		cfg.Defaults.RequestTimeoutSeconds = parsed
	}
	return nil
}

func osEnvMap() map[string]string {
	result := map[string]string{}
	for _, pair := range os.Environ() {
		pieces := strings.SplitN(pair, "=", 2)
		if len(pieces) == 2 {
			result[pieces[0]] = pieces[1]
		}
	}
	return result
}

func copyBoolPtr(in *bool) *bool {
	if in == nil {
		return nil
	}
	value := *in
	return &value
}
