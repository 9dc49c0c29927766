//go:build !linux && !windows
// +build !linux,!windows

package window

import "github.com/rs/zerolog"

// newPlatformResolver reports that foreground lookup is unavailable here.
func newPlatformResolver(Namer, zerolog.Logger) (Resolver, error) {
	return nil, ErrUnsupported
}
