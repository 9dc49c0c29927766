//go:build windows

package window

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"
)

// foregroundResolver asks user32 for the foreground window and names it after
// the owning process executable.
type foregroundResolver struct {
	names  Namer
	logger zerolog.Logger
}

func newPlatformResolver(names Namer, logger zerolog.Logger) (Resolver, error) {
	return &foregroundResolver{names: names, logger: logger}, nil
}

// Active returns the foreground window's process, or an empty Info.
func (r *foregroundResolver) Active(ctx context.Context) Info {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return Info{}
	}
	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
		r.logger.Debug().Err(err).Msg("querying foreground window pid failed")
		return Info{}
	}
	if pid == 0 {
		return Info{}
	}
	name, err := r.names.Name(ctx, int32(pid))
	if err != nil || name == "" {
		r.logger.Debug().Err(err).Uint32("pid", pid).Msg("resolving process name failed")
		return Info{}
	}
	return Info{Name: name, PID: int32(pid)}
}
