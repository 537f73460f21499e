// Package detector inspects the process environment to decide how gild presents itself.
package detector

import (
	"os"

	"golang.org/x/term"
)

// Environment describes the terminal gild runs in.
type Environment struct {
	// TTY reports whether stdout is a terminal.
	TTY bool
	// CI reports whether the CI variable is set to "true" or "1".
	CI bool
}

// DetectEnvironment inspects stdout and the CI variable.
func DetectEnvironment() Environment {
	return Environment{
		TTY: term.IsTerminal(int(os.Stdout.Fd())),
		CI:  isCI(os.Getenv("CI")),
	}
}

// Interactive reports whether a person is likely watching the output.
// Browsers are only opened and rich colors only used in interactive sessions.
func (e Environment) Interactive() bool {
	return e.TTY && !e.CI
}

func isCI(v string) bool {
	return v == "true" || v == "1"
}
