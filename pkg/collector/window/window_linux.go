//go:build linux
// +build linux

package window

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
)

// lookPath allows tests to pretend xprop is installed.
var lookPath = exec.LookPath

// x11Resolver asks the window manager for the focused window through xprop
// and names it after the owning process.
type x11Resolver struct {
	xprop  string
	names  Namer
	logger zerolog.Logger
}

func newPlatformResolver(names Namer, logger zerolog.Logger) (Resolver, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, fmt.Errorf("no X11 display: %w", ErrUnsupported)
	}
	path, err := lookPath("xprop")
	if err != nil {
		return nil, fmt.Errorf("xprop not found: %w", ErrUnsupported)
	}
	return &x11Resolver{xprop: path, names: names, logger: logger}, nil
}

// Active returns the focused window's process, or an empty Info.
func (r *x11Resolver) Active(ctx context.Context) Info {
	out, err := runCommand(ctx, r.xprop, "-root", "_NET_ACTIVE_WINDOW")
	if err != nil {
		r.logger.Debug().Err(err).Msg("querying active window failed")
		return Info{}
	}
	id, ok := parseActiveWindow(out)
	if !ok {
		return Info{}
	}

	out, err = runCommand(ctx, r.xprop, "-id", id, "_NET_WM_PID")
	if err != nil {
		r.logger.Debug().Err(err).Str("window", id).Msg("querying window pid failed")
		return Info{}
	}
	pid, err := parseWindowPID(out)
	if err != nil {
		r.logger.Debug().Err(err).Str("window", id).Msg("window has no usable pid")
		return Info{}
	}

	name, err := r.names.Name(ctx, pid)
	if err != nil || name == "" {
		r.logger.Debug().Err(err).Int32("pid", pid).Msg("resolving process name failed")
		return Info{}
	}
	return Info{Name: name, PID: pid}
}
