package lyrics

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/osa030/versebox/internal/infra/config"
)

// NewProviderChainFromConfig creates a provider chain from configuration.
// tokens supplies the Genius API token at request time, so token changes made
// through the settings commands apply to the next lookup.
func NewProviderChainFromConfig(cfg *config.Config, tokens oauth2.TokenSource) (*ProviderChain, error) {
	if len(cfg.Lyrics.Providers) == 0 {
		return nil, errors.New("no lyrics providers configured")
	}

	var providers []ProviderWithMetadata

	for i, pcfg := range cfg.Lyrics.Providers {
		var provider Provider
		var err error
		zlog.Debug().Msgf("creating lyrics provider: index=%d type=%s", i+1, pcfg.Type)
		switch pcfg.Type {
		case "genius":
			provider, err = NewGeniusProvider(tokens, pcfg.Settings)

		case "library":
			provider, err = NewLibraryProvider(pcfg.Settings)

		default:
			return nil, errors.Newf("unsupported provider type: %s (provider index %d)", pcfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (index %d, type %s)", i, pcfg.Type)
		}

		providers = append(providers, ProviderWithMetadata{
			Provider:    provider,
			DisplayName: pcfg.DisplayName,
		})

		zlog.Info().Msgf("registered lyrics provider: index=%d type=%s display_name=%s", i+1, pcfg.Type, pcfg.DisplayName)
	}

	return NewProviderChain(providers, cfg.LookupTimeout()), nil
}
