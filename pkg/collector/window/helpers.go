package window

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// runCommand allows tests to stub the xprop invocations.
var runCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// parseActiveWindow extracts the window id from
// `_NET_ACTIVE_WINDOW(WINDOW): window id # 0x3a00007`. An id of 0 means no window has focus.
func parseActiveWindow(out []byte) (string, bool) {
	line := strings.TrimSpace(string(out))
	idx := strings.LastIndex(line, "#")
	if idx == -1 {
		return "", false
	}
	fields := strings.FieldsFunc(line[idx+1:], func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return "", false
	}
	id := fields[0]
	n, err := strconv.ParseUint(strings.TrimPrefix(id, "0x"), 16, 64)
	if err != nil || n == 0 {
		return "", false
	}
	return id, true
}

// parseWindowPID extracts the pid from `_NET_WM_PID(CARDINAL) = 12345`.
func parseWindowPID(out []byte) (int32, error) {
	line := strings.TrimSpace(string(out))
	idx := strings.LastIndex(line, "=")
	if idx == -1 {
		return 0, fmt.Errorf("no pid in %q", line)
	}
	pid, err := strconv.ParseInt(strings.TrimSpace(line[idx+1:]), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing pid from %q: %w", line, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid pid %d", pid)
	}
	return int32(pid), nil
}
