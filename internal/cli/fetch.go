package cli

import (
	"context"
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/soundsonacid/seashell"
)

func cmdFetch(out io.Writer, errOut io.Writer, args []string, env map[string]string) int {
	flags := flag.NewFlagSet("fetch", flag.ContinueOnError)
	flags.SetOutput(errOut)

	dir := flags.String("dir", "", "scenario directory")
	endpoint := flags.String("endpoint", "", "RPC endpoint (defaults to RPC_URL)")
	timeout := flags.Duration("timeout", 0, "per-account fetch timeout")

	err := flags.Parse(args)
	if err != nil {
		return 1
	}

	if flags.NArg() < 2 {
		fprintln(errOut, "error: fetch requires a scenario name and at least one address")

		return 1
	}

	name := flags.Arg(0)

	scenarioDir, code := resolveDir(errOut, *dir, env)
	if code != 0 {
		return code
	}

	sc, err := seashell.Open(name, seashell.Options{
		Dir:          scenarioDir,
		Endpoint:     *endpoint,
		FetchTimeout: *timeout,
		Env:          env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	for _, arg := range flags.Args()[1:] {
		addr, parseErr := seashell.ParseAddress(arg)
		if parseErr != nil {
			fprintln(errOut, "error:", parseErr)

			return 1
		}

		start := time.Now()

		acct, acctErr := sc.Account(context.Background(), addr)
		if acctErr != nil {
			fprintln(errOut, "error:", acctErr)

			return 1
		}

		fprintf(out, "%-44s %16d lamports  data=%dB  (%.2fs)\n",
			addr, acct.Lamports, len(acct.Data), time.Since(start).Seconds())
	}

	return 0
}
