// Package doctor inspects the local environment: configuration validity,
// library paths, and the credentials the catalog and LLM providers need.
package doctor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matty6409/album-cleaner/internal/auth"
	"github.com/matty6409/album-cleaner/internal/config"
)

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

type Check struct {
	Severity Severity `json:"severity"`
	Name     string   `json:"name"`
	Message  string   `json:"message"`
}

type Report struct {
	Checks []Check `json:"checks"`
}

func (r Report) HasErrors() bool {
	for _, check := range r.Checks {
		if check.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (r Report) ErrorCount() int {
	count := 0
	for _, check := range r.Checks {
		if check.Severity == SeverityError {
			count++
		}
	}
	return count
}

type Checker struct {
	Resolver      auth.Resolver
	Stat          func(string) (os.FileInfo, error)
	CheckWritable func(string) error
}

func NewChecker() *Checker {
	return &Checker{
		Resolver:      auth.NewResolver(),
		Stat:          os.Stat,
		CheckWritable: checkDirWritable,
	}
}

func (c *Checker) Check(cfg config.Config) Report {
	report := Report{Checks: []Check{}}

	if err := config.Validate(cfg); err != nil {
		report.Checks = append(report.Checks, Check{
			Severity: SeverityError,
			Name:     "config",
			Message:  fmt.Sprintf("configuration is invalid: %v", err),
		})
		return report
	}
	report.Checks = append(report.Checks, Check{
		Severity: SeverityInfo,
		Name:     "config",
		Message:  fmt.Sprintf("configuration is valid (%d library(ies))", len(cfg.Libraries)),
	})

	for _, lib := range cfg.Libraries {
		report.Checks = append(report.Checks, c.checkLibrary(cfg, lib)...)
	}

	report.Checks = append(report.Checks, c.checkSpotify())
	report.Checks = append(report.Checks, c.checkLLMKey(cfg.Defaults.LLMProvider))
	return report
}

func (c *Checker) checkLibrary(cfg config.Config, lib config.Library) []Check {
	if !lib.Enabled {
		return []Check{{
			Severity: SeverityInfo,
			Name:     "library",
			Message:  fmt.Sprintf("[%s] disabled, skipping path checks", lib.ID),
		}}
	}

	path, err := config.ExpandPath(lib.Path)
	if err != nil {
		return []Check{{
			Severity: SeverityError,
			Name:     "library",
			Message:  fmt.Sprintf("[%s] invalid path: %v", lib.ID, err),
		}}
	}

	info, err := c.Stat(path)
	if err != nil {
		return []Check{{
			Severity: SeverityError,
			Name:     "library",
			Message:  fmt.Sprintf("[%s] path does not exist: %s", lib.ID, path),
		}}
	}
	if !info.IsDir() {
		return []Check{{
			Severity: SeverityError,
			Name:     "library",
			Message:  fmt.Sprintf("[%s] path is not a directory: %s", lib.ID, path),
		}}
	}

	checks := []Check{{
		Severity: SeverityInfo,
		Name:     "library",
		Message:  fmt.Sprintf("[%s] path exists: %s", lib.ID, path),
	}}

	// Both output modes write inside the library root.
	if err := c.CheckWritable(path); err != nil {
		checks = append(checks, Check{
			Severity: SeverityError,
			Name:     "library",
			Message:  fmt.Sprintf("[%s] path is not writable: %v", lib.ID, err),
		})
	}
	return checks
}

func (c *Checker) checkSpotify() Check {
	if _, err := c.Resolver.ResolveSpotify(); err != nil {
		if errors.Is(err, auth.ErrSpotifyCredentialsNotFound) {
			return Check{
				Severity: SeverityWarn,
				Name:     "spotify",
				Message:  "Spotify credentials not found; catalog lookups will be skipped",
			}
		}
		return Check{
			Severity: SeverityError,
			Name:     "spotify",
			Message:  fmt.Sprintf("Spotify credentials are misconfigured: %v", err),
		}
	}
	return Check{
		Severity: SeverityInfo,
		Name:     "spotify",
		Message:  "Spotify credentials found",
	}
}

func (c *Checker) checkLLMKey(provider string) Check {
	envVar := auth.LLMKeyEnvVar(provider)
	if _, err := c.Resolver.ResolveLLMKey(provider); err != nil {
		return Check{
			Severity: SeverityError,
			Name:     "llm",
			Message:  fmt.Sprintf("%s is not set; provider %q cannot be used", envVar, provider),
		}
	}
	return Check{
		Severity: SeverityInfo,
		Name:     "llm",
		Message:  fmt.Sprintf("%s is set for provider %q", envVar, provider),
	}
}

func checkDirWritable(dir string) error {
	probe := filepath.Join(dir, ".albumclean-probe")
	file, err := os.OpenFile(probe, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	file.Close()
	return os.Remove(probe)
}
