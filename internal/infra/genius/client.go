// Package genius provides a client for the Genius search API and its lyrics pages.
package genius

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/osa030/versebox/internal/domain/song"
)

// DefaultBaseURL is the Genius API root.
const DefaultBaseURL = "https://api.genius.com"

// ErrNoHit is returned when a search yields no song.
var ErrNoHit = errors.New("song not found")

// Config represents Genius client configuration.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	TokenSource       oauth2.TokenSource
	RemoveAnnotations bool
}

// Client is a Genius API client.
type Client struct {
	baseURL           string
	apiClient         *http.Client // bearer-authenticated
	pageClient        *http.Client // public lyrics pages
	removeAnnotations bool
}

// SongHit is the first song matched by a search.
type SongHit struct {
	URL         string
	ArtistNames string
	Title       string
}

// searchResponse mirrors the parts of /search the client reads.
type searchResponse struct {
	Response struct {
		Hits []struct {
			Type   string `json:"type"`
			Result struct {
				URL         string `json:"url"`
				ArtistNames string `json:"artist_names"`
				Title       string `json:"title"`
			} `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

// New creates a new Genius client.
func New(cfg Config) (*Client, error) {
	if cfg.TokenSource == nil {
		return nil, errors.New("genius token source is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		apiClient: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: cfg.TokenSource,
				Base:   http.DefaultTransport,
			},
		},
		pageClient:        &http.Client{Timeout: timeout},
		removeAnnotations: cfg.RemoveAnnotations,
	}, nil
}

// Search returns the first song hit for "<author> <title>".
// Reference: https://docs.genius.com/#search-h2
func (c *Client) Search(ctx context.Context, author, title string) (*SongHit, error) {
	params := url.Values{}
	params.Set("q", strings.TrimSpace(author+" "+title))
	reqURL := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.apiClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send search request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("genius search returned status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "failed to parse search response")
	}

	for _, hit := range parsed.Response.Hits {
		if hit.Type != "song" {
			continue
		}
		if hit.Result.URL == "" {
			return nil, errors.New("song hit without url")
		}
		zlog.Debug().Msgf("genius hit: url=%s artist=%s title=%s", hit.Result.URL, hit.Result.ArtistNames, hit.Result.Title)
		return &SongHit{
			URL:         hit.Result.URL,
			ArtistNames: hit.Result.ArtistNames,
			Title:       hit.Result.Title,
		}, nil
	}
	return nil, errors.Wrapf(ErrNoHit, "%s - %s", author, title)
}

// FetchVerses downloads a lyrics page and splits it into verses.
func (c *Client) FetchVerses(ctx context.Context, pageURL string) ([]song.Verse, error) {
	if _, err := url.ParseRequestURI(pageURL); err != nil {
		return nil, errors.Wrap(err, "invalid song url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.pageClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load song page")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("song page returned status %d", resp.StatusCode)
	}

	verses, err := ParseVerses(resp.Body, c.removeAnnotations)
	if err != nil {
		return nil, errors.Wrap(err, "unable to extract lyrics from song page")
	}
	return verses, nil
}

// Lookup searches and fetches in one call. The song carries the author and
// title reported by Genius, not the ones searched for.
func (c *Client) Lookup(ctx context.Context, author, title string) (song.Song, error) {
	hit, err := c.Search(ctx, author, title)
	if err != nil {
		return song.Song{}, err
	}
	verses, err := c.FetchVerses(ctx, hit.URL)
	if err != nil {
		return song.Song{}, err
	}
	return song.New(hit.Title, hit.ArtistNames, verses), nil
}
