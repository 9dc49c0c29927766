package ui

import "strings"

const (
	reset     = "\033[0m"
	bold      = "\033[1m"
	dimGray   = "\033[38;5;244m"
	skyBlue   = "\033[38;5;117m"
	cobalt    = "\033[38;5;33m"
	seafoam   = "\033[38;5;49m"
	mint      = "\033[38;5;121m"
	lime      = "\033[38;5;154m"
	amber     = "\033[38;5;178m"
	orange    = "\033[38;5;214m"
	watchTeal = "\033[38;5;37m"
)

// Tagline follows the wordmark.
const Tagline = "foreground application usage"

// Banner renders a colored appwatch wordmark.
func Banner() string {
	var b strings.Builder

	a := []string{" █████╗ ", "██╔══██╗", "███████║", "██╔══██║", "██║  ██║", "╚═╝  ╚═╝"}
	p := []string{"██████╗ ", "██╔══██╗", "██████╔╝", "██╔═══╝ ", "██║     ", "╚═╝     "}
	w := []string{"██╗    ██╗", "██║    ██║", "██║ █╗ ██║", "██║███╗██║", "╚███╔███╔╝", " ╚══╝╚══╝ "}
	t := []string{"████████╗", "╚══██╔══╝", "   ██║   ", "   ██║   ", "   ██║   ", "   ╚═╝   "}
	c := []string{" ██████╗ ", "██╔════╝ ", "██║      ", "██║      ", "╚██████╗ ", " ╚═════╝ "}
	h := []string{"██╗  ██╗", "██║  ██║", "███████║", "██╔══██║", "██║  ██║", "╚═╝  ╚═╝"}

	letters := [][]string{a, p, p, w, a, t, c, h}
	gradient := []string{skyBlue, cobalt, seafoam, mint, lime, amber, orange, watchTeal}
	rows := make([]string, len(a))
	for i, letter := range letters {
		color := gradient[i%len(gradient)]
		for row := 0; row < len(letter); row++ {
			rows[row] += color + letter[row] + "  "
		}
	}
	for _, line := range rows {
		b.WriteString(bold + line + reset + "\n")
	}

	b.WriteString("\n")
	b.WriteString(bold + watchTeal + "appwatch" + reset + dimGray + "  •  " + reset + Tagline + "\n\n")

	return b.String()
}

// Plain strips the color codes from s.
func Plain(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' {
			for i < len(s) && s[i] != 'm' {
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
