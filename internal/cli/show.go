package cli

import (
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/soundsonacid/seashell"
)

func cmdShow(out io.Writer, errOut io.Writer, args []string, env map[string]string) int {
	flags := flag.NewFlagSet("show", flag.ContinueOnError)
	flags.SetOutput(errOut)

	dir := flags.String("dir", "", "scenario directory")

	err := flags.Parse(args)
	if err != nil {
		return 1
	}

	if flags.NArg() != 1 {
		fprintln(errOut, "error: show requires exactly one scenario name")

		return 1
	}

	name := flags.Arg(0)

	scenarioDir, code := resolveDir(errOut, *dir, env)
	if code != 0 {
		return code
	}

	if _, statErr := os.Stat(scenarioDir); os.IsNotExist(statErr) {
		fprintln(errOut, "error: scenario directory does not exist:", scenarioDir)

		return 1
	}

	sc, err := seashell.Open(name, seashell.Options{Dir: scenarioDir, Env: env})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	accounts := sc.Accounts()

	fprintf(out, "scenario %s (%s): %d accounts\n", sc.Name(), sc.Path(), len(accounts))

	for _, addr := range sc.Addresses() {
		acct := accounts[addr]

		executable := " "
		if acct.Executable {
			executable = "x"
		}

		fprintf(out, "%-44s %16d lamports  %s  owner=%s  data=%dB\n",
			addr, acct.Lamports, executable, acct.Owner, len(acct.Data))
	}

	return 0
}
