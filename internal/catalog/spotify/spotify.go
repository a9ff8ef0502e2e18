// Package spotify resolves an album query to an official track listing
// using the Spotify Web API with client-credentials auth.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/matty6409/album-cleaner/internal/auth"
	"github.com/matty6409/album-cleaner/internal/engine"
	"github.com/matty6409/album-cleaner/internal/retry"
)

const searchLimit = 10

// catalogAPI is the slice of the Spotify client the searcher uses.
type catalogAPI interface {
	Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error)
	GetAlbumTracks(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.SimpleTrackPage, error)
}

type Searcher struct {
	api     catalogAPI
	limiter *rate.Limiter
}

// New authenticates with the client-credentials flow and returns a searcher.
// Requests are rate limited to stay clear of the API's burst limits.
func New(ctx context.Context, creds auth.SpotifyCredentials) (*Searcher, error) {
	config := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify auth: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	return &Searcher{
		api:     spotify.New(httpClient),
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 1),
	}, nil
}

// Search runs an album search and returns the first hit's track listing.
// A query with no album hits, or a hit with no tracks, is engine.ErrNoMatch.
func (s *Searcher) Search(ctx context.Context, query string) (engine.CatalogMatch, error) {
	album, err := s.firstAlbum(ctx, query)
	if err != nil {
		return engine.CatalogMatch{}, err
	}

	tracks, err := s.albumTracks(ctx, album.ID)
	if err != nil {
		return engine.CatalogMatch{}, err
	}
	if len(tracks) == 0 {
		return engine.CatalogMatch{}, engine.ErrNoMatch
	}

	artist := ""
	if len(album.Artists) > 0 {
		artist = album.Artists[0].Name
	}
	return engine.CatalogMatch{
		Artist: artist,
		Album:  album.Name,
		Tracks: tracks,
	}, nil
}

func (s *Searcher) firstAlbum(ctx context.Context, query string) (spotify.SimpleAlbum, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return spotify.SimpleAlbum{}, err
	}

	var result *spotify.SearchResult
	err := retry.Do(ctx, 3, time.Second, 10*time.Second, func() error {
		var err error
		result, err = s.api.Search(ctx, query, spotify.SearchTypeAlbum, spotify.Limit(searchLimit))
		return normalizeAPIError(err)
	})
	if err != nil {
		return spotify.SimpleAlbum{}, fmt.Errorf("spotify search: %w", err)
	}
	if result == nil || result.Albums == nil || len(result.Albums.Albums) == 0 {
		return spotify.SimpleAlbum{}, engine.ErrNoMatch
	}
	return result.Albums.Albums[0], nil
}

func (s *Searcher) albumTracks(ctx context.Context, id spotify.ID) ([]string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var page *spotify.SimpleTrackPage
	err := retry.Do(ctx, 3, time.Second, 10*time.Second, func() error {
		var err error
		page, err = s.api.GetAlbumTracks(ctx, id, spotify.Limit(50))
		return normalizeAPIError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("spotify album tracks: %w", err)
	}

	names := make([]string, 0, len(page.Tracks))
	for _, track := range page.Tracks {
		names = append(names, track.Name)
	}
	return names, nil
}

func normalizeAPIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return &retry.HTTPError{
			StatusCode: apiErr.Status,
			Status:     fmt.Sprintf("%d", apiErr.Status),
			Message:    apiErr.Message,
		}
	}
	return err
}
