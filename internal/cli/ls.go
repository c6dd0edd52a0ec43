package cli

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/soundsonacid/seashell"
)

func cmdLs(out io.Writer, errOut io.Writer, args []string, env map[string]string) int {
	flags := flag.NewFlagSet("ls", flag.ContinueOnError)
	flags.SetOutput(errOut)

	dir := flags.String("dir", "", "scenario directory")

	err := flags.Parse(args)
	if err != nil {
		return 1
	}

	scenarioDir, code := resolveDir(errOut, *dir, env)
	if code != 0 {
		return code
	}

	entries, err := os.ReadDir(scenarioDir)
	if err != nil {
		if os.IsNotExist(err) {
			fprintln(out, "no scenarios in", scenarioDir)

			return 0
		}

		fprintln(errOut, "error:", err)

		return 1
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name, ok := strings.CutSuffix(entry.Name(), ".json.gz")
		if !ok {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	if len(names) == 0 {
		fprintln(out, "no scenarios in", scenarioDir)

		return 0
	}

	for _, name := range names {
		sc, openErr := seashell.Open(name, seashell.Options{Dir: scenarioDir, Env: env})
		if openErr != nil {
			fprintf(out, "%-32s (unreadable: %v)\n", name, openErr)

			continue
		}

		fprintf(out, "%-32s %d accounts\n", name, len(sc.Accounts()))
	}

	return 0
}

// resolveDir picks the scenario directory: --dir flag, then
// SEASHELL_SCENARIO_DIR, then the default under the working directory.
func resolveDir(errOut io.Writer, flagDir string, env map[string]string) (string, int) {
	if flagDir != "" {
		return flagDir, 0
	}

	if envDir := env["SEASHELL_SCENARIO_DIR"]; envDir != "" {
		return envDir, 0
	}

	workDir, err := os.Getwd()
	if err != nil {
		fprintln(errOut, "error: cannot get working directory:", err)

		return "", 1
	}

	return filepath.Join(workDir, seashell.DefaultScenarioDir), 0
}
