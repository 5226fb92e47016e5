package lyrics

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/osa030/versebox/internal/domain/song"
	"github.com/osa030/versebox/internal/infra/genius"
)

// GeniusProviderConfig holds the settings of a genius provider entry.
type GeniusProviderConfig struct {
	BaseURL           string `mapstructure:"base_url" default:"https://api.genius.com" validate:"required,url"`
	TimeoutSec        int    `mapstructure:"timeout_sec" default:"10" validate:"gte=1,lte=60"`
	RemoveAnnotations *bool  `mapstructure:"remove_annotations" default:"true"`
}

// GeniusProvider looks songs up on Genius and scrapes the lyrics page.
type GeniusProvider struct {
	client *genius.Client
}

// NewGeniusProvider creates a new GeniusProvider.
func NewGeniusProvider(tokens oauth2.TokenSource, settings map[string]any) (*GeniusProvider, error) {
	var config GeniusProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("genius provider config: base_url=%s timeout_sec=%d", config.BaseURL, config.TimeoutSec)
	if err := validator.New().Struct(config); err != nil {
		zlog.Error().Msgf("genius provider validation failed: %v", err)
		return nil, errors.Wrap(err, "validation failed")
	}

	client, err := genius.New(genius.Config{
		BaseURL:           config.BaseURL,
		Timeout:           time.Duration(config.TimeoutSec) * time.Second,
		TokenSource:       tokens,
		RemoveAnnotations: *config.RemoveAnnotations,
	})
	if err != nil {
		return nil, err
	}
	return &GeniusProvider{client: client}, nil
}

// Lookup searches Genius and parses the first song hit.
func (p *GeniusProvider) Lookup(ctx context.Context, author, title string) (song.Song, error) {
	return p.client.Lookup(ctx, author, title)
}

// Name returns the provider name.
func (p *GeniusProvider) Name() string {
	return "genius"
}
