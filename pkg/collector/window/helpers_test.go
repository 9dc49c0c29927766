package window

import "testing"

func TestParseActiveWindow(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"focused", "_NET_ACTIVE_WINDOW(WINDOW): window id # 0x3a00007\n", "0x3a00007", true},
		{"trailingList", "_NET_ACTIVE_WINDOW(WINDOW): window id # 0x1c00003, 0x0", "0x1c00003", true},
		{"noFocus", "_NET_ACTIVE_WINDOW(WINDOW): window id # 0x0", "", false},
		{"notFound", "_NET_ACTIVE_WINDOW:  not found.", "", false},
		{"garbage", "window id # zz", "", false},
	}
	for _, tc := range cases {
		got, ok := parseActiveWindow([]byte(tc.input))
		if got != tc.expected || ok != tc.ok {
			t.Fatalf("%s: expected (%q, %t), got (%q, %t)", tc.name, tc.expected, tc.ok, got, ok)
		}
	}
}

func TestParseWindowPID(t *testing.T) {
	pid, err := parseWindowPID([]byte("_NET_WM_PID(CARDINAL) = 12345\n"))
	if err != nil || pid != 12345 {
		t.Fatalf("expected 12345, got %d err=%v", pid, err)
	}
	for _, input := range []string{"_NET_WM_PID:  not found.", "_NET_WM_PID(CARDINAL) = 0", "_NET_WM_PID(CARDINAL) = abc"} {
		if _, err := parseWindowPID([]byte(input)); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}
