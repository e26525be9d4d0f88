// Package importer loads a preset directory into a Preset object. The
// entry script is located by convention, its host-API import lines are
// stripped, and the remainder runs inside an isolated evaluation
// context seeded with a fixed capability set. The preset's content is
// whatever the script assigned onto the injected builder, never a
// return value.
package importer

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/unfold-sh/preset/pkg/errors"
	"github.com/unfold-sh/preset/pkg/logging"
	"github.com/unfold-sh/preset/pkg/types"
)

const (
	// manifestFile may declare an explicit preset-file path under
	// manifestKey; when it does, convention probing is skipped entirely
	manifestFile = "package.json"
	manifestKey  = "preset"
)

var (
	entryBases      = []string{"preset", "src/preset"}
	entryExtensions = []string{".js", ".mjs", ".cjs"}

	// Module names preset authors may "import" the host API from.
	// These imports are stripped before evaluation; the capabilities
	// they name are injected instead.
	hostModuleNames = []string{"preset", "@unfold-sh/preset"}

	hostBindingPattern = regexp.MustCompile(`\b(Preset|color)\b`)
	requirePattern     = regexp.MustCompile(`=\s*require\s*\(`)
	exportPrefix       = regexp.MustCompile(`^\s*export\s+(default\s+)?`)
)

// Import evaluates the preset living in directory and returns the
// populated Preset. The directory must already be resolved to a local
// path by the caller.
func Import(directory string) (*types.Preset, error) {
	logger := logging.GetLogger("importer")

	entry, err := LocateEntry(directory)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("entry", entry).Msg("Located preset entry file")

	source, err := os.ReadFile(entry)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read preset file %s", entry)
	}

	preset, err := evaluate(prepareSource(string(source)), directory)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("preset", preset.Name).
		Int("actions", len(preset.Actions)).
		Msg("Imported preset")
	return preset, nil
}

// LocateEntry finds the preset's entry script. A manifest-declared path
// wins and must exist; otherwise the conventional locations are probed
// in order and the first existing file is returned.
func LocateEntry(directory string) (string, error) {
	manifest := filepath.Join(directory, manifestFile)
	if _, err := os.Stat(manifest); err == nil {
		k := koanf.New(".")
		if err := k.Load(file.Provider(manifest), kjson.Parser()); err != nil {
			return "", errors.Wrapf(err, errors.ErrEvaluation, "failed to parse %s", manifestFile)
		}
		if declared := k.String(manifestKey); declared != "" {
			entry := filepath.Join(directory, declared)
			if _, err := os.Stat(entry); err != nil {
				// No fallback to convention once the manifest speaks
				return "", errors.Newf(errors.ErrExplicitFileMissing,
					"manifest declares preset file %q but it does not exist", declared)
			}
			return entry, nil
		}
	}

	for _, base := range entryBases {
		for _, ext := range entryExtensions {
			entry := filepath.Join(directory, filepath.FromSlash(base)+ext)
			if info, err := os.Stat(entry); err == nil && info.Mode().IsRegular() {
				return entry, nil
			}
		}
	}

	return "", errors.Newf(errors.ErrConfigurationNotFound, "no preset file found in %s", directory)
}

// prepareSource turns the authored script into directly executable
// form: import lines referencing the host API are dropped (the sandbox
// injects those capabilities instead) and export keywords are erased.
func prepareSource(source string) string {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if isHostImportLine(line) {
			continue
		}
		out = append(out, exportPrefix.ReplaceAllString(line, ""))
	}
	return strings.Join(out, "\n")
}

// isHostImportLine reports whether a line is import-like syntax that
// references the host API, by binding name or module alias. Only such
// lines are stripped; unrelated imports stay and fail inside the
// sandbox, which is the correct outcome for untrusted code.
func isHostImportLine(line string) bool {
	trimmed := strings.TrimSpace(line)

	importish := strings.HasPrefix(trimmed, "import ") ||
		strings.HasPrefix(trimmed, "import{") ||
		((strings.HasPrefix(trimmed, "const ") ||
			strings.HasPrefix(trimmed, "let ") ||
			strings.HasPrefix(trimmed, "var ")) && requirePattern.MatchString(trimmed))
	if !importish {
		return false
	}

	for _, name := range hostModuleNames {
		if strings.Contains(trimmed, `'`+name+`'`) || strings.Contains(trimmed, `"`+name+`"`) {
			return true
		}
	}
	return hostBindingPattern.MatchString(trimmed)
}
