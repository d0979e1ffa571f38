package domain

import "time"

// Command describes one external invocation. Exactly one of Argv or Shell is
// set: Argv runs the program directly, Shell runs a command line through the
// system shell.
type Command struct {
	Argv  []string
	Shell string

	Dir string

	// Env is appended to the inherited process environment.
	Env []string

	Timeout time.Duration
}

// CommandResult captures the observable outcome of a Command.
type CommandResult struct {
	ExitCode  int
	Output    []byte
	Truncated bool
	Duration  time.Duration
}
