package main

import (
	"os"
)

// init runs before any TUI package touches the terminal.
//
// Lipgloss and termenv probe the terminal for its background colour, which
// writes OSC/DSR control sequences to stdout. Headless commands whose output
// is piped into other tools must not carry those bytes, so they run with
// CI=1, which disables the probing.
func init() {
	if os.Getenv("CI") != "" {
		return
	}
	if !shouldSuppressTTYQueries(os.Args[1:], os.Getenv("CHAINVIEW_TEST_MODE") != "") {
		return
	}
	_ = os.Setenv("CI", "1")
}

func shouldSuppressTTYQueries(args []string, envTest bool) bool {
	if envTest {
		return true
	}
	for _, arg := range args {
		switch arg {
		case "--json", "--help", "-h", "version", "snapshot":
			return true
		}
	}
	return false
}
