package spotify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"

	"github.com/matty6409/album-cleaner/internal/engine"
	"github.com/matty6409/album-cleaner/internal/retry"
)

type fakeAPI struct {
	searchResult *spotify.SearchResult
	searchErr    error
	trackPage    *spotify.SimpleTrackPage
	tracksErr    error

	searchQueries []string
	tracksID      spotify.ID
}

func (f *fakeAPI) Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error) {
	f.searchQueries = append(f.searchQueries, query)
	return f.searchResult, f.searchErr
}

func (f *fakeAPI) GetAlbumTracks(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.SimpleTrackPage, error) {
	f.tracksID = id
	return f.trackPage, f.tracksErr
}

func newTestSearcher(api catalogAPI) *Searcher {
	return &Searcher{api: api, limiter: rate.NewLimiter(rate.Inf, 1)}
}

func searchResultWith(albums ...spotify.SimpleAlbum) *spotify.SearchResult {
	return &spotify.SearchResult{
		Albums: &spotify.SimpleAlbumPage{Albums: albums},
	}
}

func TestSearchReturnsFirstMatch(t *testing.T) {
	api := &fakeAPI{
		searchResult: searchResultWith(
			spotify.SimpleAlbum{
				ID:      "alb1",
				Name:    "Cold Transmission (Deluxe)",
				Artists: []spotify.SimpleArtist{{Name: "Nova Heart"}},
			},
			spotify.SimpleAlbum{ID: "alb2", Name: "Cold Transmission (Karaoke)"},
		),
		trackPage: &spotify.SimpleTrackPage{
			Tracks: []spotify.SimpleTrack{{Name: "Signal"}, {Name: "Static"}},
		},
	}
	searcher := newTestSearcher(api)

	match, err := searcher.Search(context.Background(), `artist:"Nova Heart" album:"Cold Transmission"`)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if match.Artist != "Nova Heart" || match.Album != "Cold Transmission (Deluxe)" {
		t.Fatalf("unexpected match: %+v", match)
	}
	if len(match.Tracks) != 2 || match.Tracks[0] != "Signal" {
		t.Fatalf("unexpected tracks: %v", match.Tracks)
	}
	if api.tracksID != "alb1" {
		t.Fatalf("expected tracks fetched for the first hit, got %q", api.tracksID)
	}
}

func TestSearchNoAlbumsIsNoMatch(t *testing.T) {
	searcher := newTestSearcher(&fakeAPI{searchResult: searchResultWith()})

	_, err := searcher.Search(context.Background(), "nothing here")
	if !errors.Is(err, engine.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestSearchEmptyTrackListingIsNoMatch(t *testing.T) {
	api := &fakeAPI{
		searchResult: searchResultWith(spotify.SimpleAlbum{ID: "alb1", Name: "Ghost"}),
		trackPage:    &spotify.SimpleTrackPage{},
	}
	searcher := newTestSearcher(api)

	_, err := searcher.Search(context.Background(), "ghost album")
	if !errors.Is(err, engine.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestSearchWrapsAPIError(t *testing.T) {
	searcher := newTestSearcher(&fakeAPI{searchErr: spotify.Error{Status: 401, Message: "bad token"}})

	_, err := searcher.Search(context.Background(), "whatever")
	var httpErr *retry.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 401 {
		t.Fatalf("expected a 401 HTTPError, got %v", err)
	}
}

func TestSearchHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A zero-rate limiter blocks forever unless the context aborts the wait.
	searcher := &Searcher{api: &fakeAPI{}, limiter: rate.NewLimiter(rate.Every(time.Hour), 1)}
	searcher.limiter.Allow()

	_, err := searcher.Search(ctx, "whatever")
	if err == nil {
		t.Fatalf("expected an error from the cancelled context")
	}
}
