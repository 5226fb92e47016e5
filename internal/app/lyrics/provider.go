// Package lyrics resolves an author and title into a presentable song.
package lyrics

import (
	"context"

	"github.com/osa030/versebox/internal/domain/song"
)

// Provider is the interface for lyrics lookup strategies.
type Provider interface {
	// Lookup returns the song matching author and title.
	// A miss is reported as an error; the chain decides whether to try the next provider.
	Lookup(ctx context.Context, author, title string) (song.Song, error)

	// Name returns the provider type (used in config).
	Name() string
}
