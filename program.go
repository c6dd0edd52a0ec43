package seashell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// programArtifactExt is what the build pipeline produces per program name.
const programArtifactExt = ".so"

// ProgramBytes locates the compiled artifact named "<name>.so" in dir and
// returns its bytes for the execution engine to load. The build pipeline
// itself is an external collaborator; its only contract with this package
// is "produces a loadable artifact identified by program name".
//
// Returns [ErrProgramNotFound] if no matching artifact exists.
func ProgramBytes(dir, name string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading program dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		base := entry.Name()
		if !strings.HasSuffix(base, programArtifactExt) {
			continue
		}

		// Match on the name before the first dot, so "token.keg.so"
		// style artifacts still resolve by their program name.
		prefix, _, _ := strings.Cut(base, ".")
		if prefix != name {
			continue
		}

		path := filepath.Join(dir, base)

		bytes, readErr := os.ReadFile(path) //nolint:gosec // path comes from the deploy dir listing
		if readErr != nil {
			return nil, fmt.Errorf("reading program artifact %s: %w", path, readErr)
		}

		return bytes, nil
	}

	return nil, fmt.Errorf("%w: %s in %s", ErrProgramNotFound, name, dir)
}

// ProgramBytes resolves name against the handle's deploy directory
// (SBF_OUT_DIR, the project config, or [Options.ProgramDir]).
func (s *Scenario) ProgramBytes(name string) ([]byte, error) {
	if s.cfg.ProgramDir == "" {
		return nil, &Error{Scenario: s.name, Err: fmt.Errorf("%w: no program dir configured (set SBF_OUT_DIR)", ErrProgramNotFound)}
	}

	bytes, err := ProgramBytes(s.cfg.ProgramDir, name)
	if err != nil {
		return nil, &Error{Scenario: s.name, Err: err}
	}

	return bytes, nil
}
