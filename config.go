package seashell

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/tailscale/hujson"
)

// ConfigFileName is the optional project config file, in JSONC.
const ConfigFileName = ".seashell.json"

// DefaultScenarioDir is where scenario snapshots live unless overridden.
const DefaultScenarioDir = "scenarios"

var (
	errConfigInvalid    = errors.New("invalid config file")
	errScenarioDirEmpty = errors.New("scenario dir cannot be empty")
)

// config is the resolved configuration held by a [Scenario] handle. It is
// computed once at open time; in particular the endpoint is fixed for the
// lifetime of the handle and never re-read per lookup.
type config struct {
	Dir          string
	Endpoint     string
	FetchTimeout time.Duration
	ProgramDir   string
}

// fileConfig is the JSONC project config file shape.
type fileConfig struct {
	ScenarioDir  string `json:"scenario_dir"`
	Endpoint     string `json:"rpc_url"`
	FetchTimeout string `json:"fetch_timeout"`
	ProgramDir   string `json:"program_dir"`
}

// envConfig carries the recognized environment variables. RPC_URL matches
// the variable the harness has always honored; absence means "no fetching
// capability", not an error.
type envConfig struct {
	Endpoint     string        `env:"RPC_URL"`
	ScenarioDir  string        `env:"SEASHELL_SCENARIO_DIR"`
	FetchTimeout time.Duration `env:"SEASHELL_FETCH_TIMEOUT"`
	ProgramDir   string        `env:"SBF_OUT_DIR"`
}

// resolveConfig layers configuration, highest wins:
// 1. Defaults
// 2. Project config file (.seashell.json in workDir, if present)
// 3. Environment (RPC_URL, SEASHELL_SCENARIO_DIR, SEASHELL_FETCH_TIMEOUT, SBF_OUT_DIR)
// 4. Explicit Options fields.
func resolveConfig(workDir string, opts Options) (config, error) {
	cfg := config{
		Dir:          DefaultScenarioDir,
		FetchTimeout: defaultFetchTimeout,
	}

	fileCfg, err := loadConfigFile(filepath.Join(workDir, ConfigFileName))
	if err != nil {
		return config{}, err
	}

	cfg = mergeConfig(cfg, fileCfg)

	envCfg, err := parseEnvConfig(opts.Env)
	if err != nil {
		return config{}, err
	}

	cfg = mergeConfig(cfg, envCfg)

	cfg = mergeConfig(cfg, config{
		Dir:          opts.Dir,
		Endpoint:     opts.Endpoint,
		FetchTimeout: opts.FetchTimeout,
		ProgramDir:   opts.ProgramDir,
	})

	return cfg, nil
}

// loadConfigFile reads an optional JSONC config file. A missing file yields
// a zero config; a present but unparsable file is an error.
func loadConfigFile(path string) (config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the project config convention
	if err != nil {
		if os.IsNotExist(err) {
			return config{}, nil
		}

		return config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return config{}, fmt.Errorf("%w %s: invalid JSONC: %w", errConfigInvalid, path, err)
	}

	var raw fileConfig

	unmarshalErr := json.Unmarshal(standardized, &raw)
	if unmarshalErr != nil {
		return config{}, fmt.Errorf("%w %s: invalid JSON: %w", errConfigInvalid, path, unmarshalErr)
	}

	// An explicitly empty scenario_dir is a misconfiguration, not a
	// request for the default.
	var fields map[string]any

	_ = json.Unmarshal(standardized, &fields)

	if val, exists := fields["scenario_dir"]; exists {
		if str, ok := val.(string); ok && str == "" {
			return config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, errScenarioDirEmpty)
		}
	}

	cfg := config{
		Dir:        raw.ScenarioDir,
		Endpoint:   raw.Endpoint,
		ProgramDir: raw.ProgramDir,
	}

	if raw.FetchTimeout != "" {
		timeout, parseErr := time.ParseDuration(raw.FetchTimeout)
		if parseErr != nil {
			return config{}, fmt.Errorf("%w %s: fetch_timeout: %w", errConfigInvalid, path, parseErr)
		}

		cfg.FetchTimeout = timeout
	}

	return cfg, nil
}

// parseEnvConfig reads the environment. When environ is non-nil it is used
// instead of the process environment, which keeps tests hermetic.
func parseEnvConfig(environ map[string]string) (config, error) {
	var raw envConfig

	var err error

	if environ != nil {
		err = env.ParseWithOptions(&raw, env.Options{Environment: environ})
	} else {
		err = env.Parse(&raw)
	}

	if err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}

	return config{
		Dir:          raw.ScenarioDir,
		Endpoint:     raw.Endpoint,
		FetchTimeout: raw.FetchTimeout,
		ProgramDir:   raw.ProgramDir,
	}, nil
}

func mergeConfig(base, overlay config) config {
	if overlay.Dir != "" {
		base.Dir = overlay.Dir
	}

	if overlay.Endpoint != "" {
		base.Endpoint = overlay.Endpoint
	}

	if overlay.FetchTimeout != 0 {
		base.FetchTimeout = overlay.FetchTimeout
	}

	if overlay.ProgramDir != "" {
		base.ProgramDir = overlay.ProgramDir
	}

	return base
}
