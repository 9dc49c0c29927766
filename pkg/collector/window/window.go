package window

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrUnsupported is returned when the platform offers no foreground window lookup.
var ErrUnsupported = errors.New("foreground window lookup is not supported on this platform")

// Info identifies the foreground application. An empty Name means none.
type Info struct {
	Name string
	PID  int32
}

// Resolver reports the application currently in the foreground. Lookups never
// fail; anything that goes wrong is reported as an empty Info.
type Resolver interface {
	Active(ctx context.Context) Info
}

// Namer turns a PID into an application identifier.
type Namer interface {
	Name(ctx context.Context, pid int32) (string, error)
}

// None is the resolver for platforms without a foreground window concept.
type None struct{}

// Active always reports no foreground application.
func (None) Active(context.Context) Info { return Info{} }

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context) Info

// Active calls f.
func (f ResolverFunc) Active(ctx context.Context) Info { return f(ctx) }

// NewResolver returns the resolver for the running platform, falling back to
// None when the platform or its tooling is unavailable.
func NewResolver(names Namer, logger zerolog.Logger) Resolver {
	logger = logger.With().Str("component", "window-resolver").Logger()
	r, err := newPlatformResolver(names, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("foreground tracking disabled, every tick will be idle")
		return None{}
	}
	return r
}
