package auth

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/matty6409/album-cleaner/internal/config"
)

var (
	ErrSpotifyCredentialsNotFound = errors.New("spotify credentials not found")
	ErrLLMKeyNotFound             = errors.New("llm api key not found")
)

const (
	keychainService              = "albumclean.spotify"
	spotifyKeychainAccountID     = "client_id"
	spotifyKeychainAccountSecret = "client_secret"
)

type SpotifyCredentials struct {
	ClientID     string
	ClientSecret string
}

type commandRunner func(name string, args ...string) ([]byte, error)

func runCommandOutput(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

type Resolver struct {
	Getenv  func(string) string
	Command commandRunner
}

func NewResolver() Resolver {
	return Resolver{
		Getenv:  os.Getenv,
		Command: runCommandOutput,
	}
}

// ResolveSpotify reads Spotify client credentials from SPOTIFY_CLIENT_ID and
// SPOTIFY_CLIENT_SECRET, falling back to the macOS keychain.
func (r Resolver) ResolveSpotify() (SpotifyCredentials, error) {
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	clientID := strings.TrimSpace(getenv("SPOTIFY_CLIENT_ID"))
	clientSecret := strings.TrimSpace(getenv("SPOTIFY_CLIENT_SECRET"))
	if clientID != "" && clientSecret != "" {
		return SpotifyCredentials{ClientID: clientID, ClientSecret: clientSecret}, nil
	}
	if clientID != "" || clientSecret != "" {
		return SpotifyCredentials{}, fmt.Errorf("both SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required")
	}

	command := r.Command
	if command == nil {
		command = runCommandOutput
	}
	keychainClientID := keychainCredential(command, keychainService, spotifyKeychainAccountID)
	keychainClientSecret := keychainCredential(command, keychainService, spotifyKeychainAccountSecret)
	if keychainClientID != "" && keychainClientSecret != "" {
		return SpotifyCredentials{
			ClientID:     keychainClientID,
			ClientSecret: keychainClientSecret,
		}, nil
	}

	return SpotifyCredentials{}, ErrSpotifyCredentialsNotFound
}

// LLMKeyEnvVar names the environment variable holding the API key for a
// configured LLM provider.
func LLMKeyEnvVar(provider string) string {
	switch provider {
	case config.ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	case config.ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return "PERPLEXITY_API_KEY"
	}
}

// ResolveLLMKey reads the API key for the given provider from its
// environment variable.
func (r Resolver) ResolveLLMKey(provider string) (string, error) {
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	key := strings.TrimSpace(getenv(LLMKeyEnvVar(provider)))
	if key == "" {
		return "", fmt.Errorf("%w: set %s", ErrLLMKeyNotFound, LLMKeyEnvVar(provider))
	}
	return key, nil
}

func keychainCredential(command commandRunner, service string, account string) string {
	raw, err := command(
		"security",
		"find-generic-password",
		"-s", service,
		"-a", account,
		"-w",
	)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
