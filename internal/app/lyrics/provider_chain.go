package lyrics

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/versebox/internal/apperr"
	"github.com/osa030/versebox/internal/domain/song"
)

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// ProviderChain tries providers in order and returns the first presentable song.
type ProviderChain struct {
	providers []ProviderWithMetadata
	timeout   time.Duration
}

// NewProviderChain creates a new provider chain. A zero timeout leaves
// deadlines to the caller's context.
func NewProviderChain(providers []ProviderWithMetadata, timeout time.Duration) *ProviderChain {
	return &ProviderChain{
		providers: providers,
		timeout:   timeout,
	}
}

// Lookup asks each provider in turn and returns the first song with verses.
// When providers only matched songs without verses, the first such song is
// returned so the caller rejects it as invalid. If nothing matched, the error
// is marked LookupFailed.
func (c *ProviderChain) Lookup(ctx context.Context, author, title string) (song.Song, error) {
	if author == "" && title == "" {
		return song.Song{}, apperr.LookupFailed(errors.New("author and title are empty"))
	}

	var (
		errs      []error
		verseless *song.Song
	)
	for i, pm := range c.providers {
		zlog.Debug().Msgf("trying lyrics provider: index=%d total=%d name=%s provider_type=%s",
			i+1, len(c.providers), pm.DisplayName, pm.Provider.Name())

		s, err := c.lookupOne(ctx, pm.Provider, author, title)
		if err != nil {
			zlog.Warn().Msgf("lyrics provider failed, trying next: provider=%s error=%v", pm.DisplayName, err)
			errs = append(errs, errors.Wrapf(err, "provider %s", pm.DisplayName))
			continue
		}
		if len(s.Verses) == 0 {
			zlog.Debug().Msgf("lyrics provider returned no verses: provider=%s", pm.DisplayName)
			if verseless == nil {
				verseless = &s
			}
			continue
		}

		zlog.Info().Msgf("lyrics resolved: provider=%s author=%s title=%s verses=%d",
			pm.DisplayName, s.Author, s.Title, len(s.Verses))
		return s, nil
	}

	if verseless != nil {
		zlog.Info().Msgf("lyrics matched without verses: author=%s title=%s", verseless.Author, verseless.Title)
		return *verseless, nil
	}
	if len(errs) == 0 {
		return song.Song{}, apperr.LookupFailed(errors.New("no lyrics providers configured"))
	}
	return song.Song{}, apperr.LookupFailed(errors.Wrapf(errors.Join(errs...), "no match for %q - %q", author, title))
}

func (c *ProviderChain) lookupOne(ctx context.Context, p Provider, author, title string) (song.Song, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return p.Lookup(ctx, author, title)
}

// Name returns the chain name.
func (c *ProviderChain) Name() string {
	return "provider_chain"
}
