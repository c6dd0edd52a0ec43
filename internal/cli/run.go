// Package cli implements the seashell scenario inspection tool.
package cli

import (
	"fmt"
	"io"
)

// Run is the main entry point. Returns exit code.
func Run(out io.Writer, errOut io.Writer, args []string, env map[string]string) int {
	if len(args) < 2 {
		printUsage(out)

		return 0
	}

	cmd := args[1]
	rest := args[2:]

	if cmd == "-h" || cmd == "--help" {
		printUsage(out)

		return 0
	}

	switch cmd {
	case "ls":
		return cmdLs(out, errOut, rest, env)
	case "show":
		return cmdShow(out, errOut, rest, env)
	case "fetch":
		return cmdFetch(out, errOut, rest, env)
	default:
		fprintln(errOut, "error: unknown command:", cmd)
		printUsage(errOut)

		return 1
	}
}

func printUsage(out io.Writer) {
	fprintln(out, `seashell - inspect and pre-warm scenario snapshots

Usage:
  seashell ls    [--dir DIR]                  list scenarios
  seashell show  [--dir DIR] NAME             dump a scenario's accounts
  seashell fetch [--dir DIR] NAME ADDRESS...  fetch accounts into a scenario

The scenario directory defaults to "scenarios", overridable with --dir,
SEASHELL_SCENARIO_DIR, or the project config file. fetch requires RPC_URL.`)
}

func fprintln(w io.Writer, args ...any) {
	_, _ = fmt.Fprintln(w, args...)
}

func fprintf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
