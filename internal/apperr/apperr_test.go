package apperr

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "lookup", err: LookupFailed(errors.New("no hit")), want: KindLookupFailed},
		{name: "invalid song", err: InvalidSong(errors.New("no verses")), want: KindInvalidSong},
		{name: "config", err: ConfigUnavailable(errors.New("disk")), want: KindConfigUnavailable},
		{name: "wrapped lookup", err: errors.Wrap(LookupFailed(errors.New("no hit")), "add"), want: KindLookupFailed},
		{name: "unclassified", err: errors.New("boom"), want: KindCommandFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestFromKind_RoundTrip(t *testing.T) {
	for _, kind := range []Kind{KindLookupFailed, KindInvalidSong, KindConfigUnavailable, KindCommandFailed} {
		err := FromKind(kind, "message")
		assert.Equal(t, kind, KindOf(err))
		assert.Contains(t, err.Error(), "message")
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Retryable(CommandFailed(errors.New("timeout")))))
	assert.True(t, IsRetryable(errors.Wrap(context.DeadlineExceeded, "call")))
	assert.False(t, IsRetryable(CommandFailed(errors.New("malformed"))))
}
