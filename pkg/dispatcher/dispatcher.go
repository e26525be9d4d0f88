// Package dispatcher executes edit actions: it enumerates target files
// for an action, applies its ordered content transforms, then its
// ordered line additions, and writes the results back. Files are
// processed strictly sequentially, in enumeration order.
package dispatcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/unfold-sh/preset/pkg/contextual"
	"github.com/unfold-sh/preset/pkg/engine"
	"github.com/unfold-sh/preset/pkg/errors"
	"github.com/unfold-sh/preset/pkg/logging"
	"github.com/unfold-sh/preset/pkg/types"
)

// Apply runs one edit action against the preset's target directory.
// A transform or engine failure for any file aborts the whole action;
// files named by a pattern that do not exist, or are not regular files,
// are skipped at diagnostic level.
func Apply(action *types.EditAction, preset *types.Preset) error {
	logger := logging.GetLogger("dispatcher")

	patterns, err := contextual.Strings(preset, action.Files)
	if err != nil {
		return err
	}
	if len(patterns) == 0 {
		logger.Debug().Msg("Edit action declares no file patterns")
		return nil
	}

	files, err := Enumerate(preset.TargetDir, patterns)
	if err != nil {
		return err
	}

	for _, rel := range files {
		if err := applyToFile(rel, action, preset); err != nil {
			return err
		}
	}
	return nil
}

// applyToFile rewrites one file: every transform in order, then every
// line addition in order, each consuming the prior step's output.
func applyToFile(rel string, action *types.EditAction, preset *types.Preset) error {
	logger := logging.GetLogger("dispatcher")
	path := filepath.Join(preset.TargetDir, rel)

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		logger.Debug().Str("file", rel).Msg("Skipping missing or non-regular file")
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", rel)
	}
	text := string(raw)

	for _, transform := range action.Edition {
		result, err := transform(text, preset)
		if err != nil {
			return errors.Wrapf(err, errors.ErrActionExecute, "edition transform failed for %s", rel)
		}
		if result != nil {
			text = *result
		}
	}

	for _, addition := range action.Additions {
		text, err = engine.Insert(text, addition, preset)
		if err != nil {
			return errors.Wrapf(err, errors.ErrActionExecute, "line addition failed for %s", rel)
		}
	}

	if err := os.WriteFile(path, []byte(text), info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", rel)
	}

	logger.Debug().Str("file", rel).Msg("Edited file")
	return nil
}

// Enumerate expands glob patterns under root into a deduplicated,
// deterministic list of relative paths. Literal patterns pass through
// without a filesystem check so the caller can report them
// individually; ignored directories and lock files are never returned,
// whether walked into or named outright.
func Enumerate(root string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	add := func(rel string) {
		if !seen[rel] {
			seen[rel] = true
			out = append(out, rel)
		}
	}

	var globbed []string
	for _, pattern := range patterns {
		if !containsGlobChars(pattern) {
			// Literals honor the same ignore set as the walk below
			if rel := filepath.ToSlash(pattern); !isIgnoredPath(rel) {
				add(rel)
			}
			continue
		}
		globbed = append(globbed, pattern)
	}

	if len(globbed) == 0 {
		return out, nil
	}

	compiled := make([]*regexp.Regexp, 0, len(globbed))
	for _, pattern := range globbed {
		re, err := compilePattern(filepath.ToSlash(pattern))
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrActionInvalid, "invalid file pattern %q", pattern)
		}
		compiled = append(compiled, re)
	}

	walked := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if ignoredDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if ignoredFiles[name] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, re := range compiled {
			if re.MatchString(rel) {
				walked = append(walked, rel)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFileAccess, "failed to enumerate target files")
	}

	sort.Strings(walked)
	for _, rel := range walked {
		add(rel)
	}
	return out, nil
}
