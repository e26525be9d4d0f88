package runner

import (
	"os"
	"path/filepath"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	kfile "github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"

	"github.com/unfold-sh/preset/pkg/contextual"
	"github.com/unfold-sh/preset/pkg/dispatcher"
	"github.com/unfold-sh/preset/pkg/errors"
	"github.com/unfold-sh/preset/pkg/logging"
	"github.com/unfold-sh/preset/pkg/types"
)

// applyExtract copies files from the preset's templates directory into
// the target. Conflicts follow the action's strategy; everything else
// is a straight byte copy preserving the source mode.
func applyExtract(action *types.ExtractAction, preset *types.Preset) error {
	logger := logging.GetLogger("runner.extract")

	templatesRoot := filepath.Join(preset.SourceDir, preset.TemplatesDir)
	if info, err := os.Stat(templatesRoot); err != nil || !info.IsDir() {
		logger.Debug().Str("dir", templatesRoot).Msg("Preset has no templates directory")
		return nil
	}

	patterns, err := contextual.Strings(preset, action.Sources)
	if err != nil {
		return err
	}
	if len(patterns) == 0 {
		patterns = []string{"**"}
	}

	conflict, err := contextual.String(preset, action.WhenConflict, types.ConflictOverride)
	if err != nil {
		return err
	}
	if conflict != types.ConflictOverride && conflict != types.ConflictSkip {
		return errors.Newf(errors.ErrActionInvalid, "invalid conflict strategy %q", conflict)
	}

	files, err := dispatcher.Enumerate(templatesRoot, patterns)
	if err != nil {
		return err
	}

	for _, rel := range files {
		source := filepath.Join(templatesRoot, rel)
		info, err := os.Stat(source)
		if err != nil || !info.Mode().IsRegular() {
			logger.Debug().Str("file", rel).Msg("Skipping missing or non-regular template")
			continue
		}

		destination := filepath.Join(preset.TargetDir, rel)
		if _, err := os.Stat(destination); err == nil && conflict == types.ConflictSkip {
			logger.Debug().Str("file", rel).Msg("Skipping existing file")
			continue
		}

		data, err := os.ReadFile(source)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to read template %s", rel)
		}
		if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "failed to create directory for %s", rel)
		}
		if err := os.WriteFile(destination, data, info.Mode().Perm()); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "failed to extract %s", rel)
		}

		logger.Debug().Str("file", rel).Msg("Extracted template")
	}
	return nil
}

// applyDelete removes target-relative paths. Missing paths are skipped
// at diagnostic level, matching the dispatcher's enumeration contract.
func applyDelete(action *types.DeleteAction, preset *types.Preset) error {
	logger := logging.GetLogger("runner.delete")

	patterns, err := contextual.Strings(preset, action.Paths)
	if err != nil {
		return err
	}

	paths, err := dispatcher.Enumerate(preset.TargetDir, patterns)
	if err != nil {
		return err
	}

	for _, rel := range paths {
		path := filepath.Join(preset.TargetDir, rel)
		if _, err := os.Stat(path); err != nil {
			logger.Debug().Str("path", rel).Msg("Skipping missing path")
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "failed to delete %s", rel)
		}
		logger.Debug().Str("path", rel).Msg("Deleted path")
	}
	return nil
}

// applyEditJSON deep-merges a map into a JSON file and deletes the
// named keys. A missing file starts from an empty document.
func applyEditJSON(action *types.EditJSONAction, preset *types.Preset) error {
	logger := logging.GetLogger("runner.editjson")

	rel, err := contextual.String(preset, action.File, "")
	if err != nil {
		return err
	}
	if rel == "" {
		return errors.New(errors.ErrActionInvalid, "editJson requires a file")
	}
	path := filepath.Join(preset.TargetDir, rel)

	k := koanf.New(".")
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(kfile.Provider(path), kjson.Parser()); err != nil {
			return errors.Wrapf(err, errors.ErrActionExecute, "failed to parse %s", rel)
		}
	}

	merge, err := contextual.Map(preset, action.Merge)
	if err != nil {
		return err
	}
	if merge != nil {
		if err := k.Load(confmap.Provider(merge, "."), nil); err != nil {
			return errors.Wrapf(err, errors.ErrActionExecute, "failed to merge into %s", rel)
		}
	}

	deletions, err := contextual.Strings(preset, action.Delete)
	if err != nil {
		return err
	}
	for _, key := range deletions {
		k.Delete(key)
	}

	out, err := k.Marshal(kjson.Parser())
	if err != nil {
		return errors.Wrapf(err, errors.ErrActionExecute, "failed to serialize %s", rel)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to create directory for %s", rel)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", rel)
	}

	logger.Debug().Str("file", rel).Msg("Edited JSON file")
	return nil
}

// applyPrompt asks the user a question and stores the answer in the
// preset context. Without a terminal the declared default is taken
// silently, so presets stay scriptable.
func applyPrompt(action *types.PromptAction, preset *types.Preset) error {
	logger := logging.GetLogger("runner.prompt")

	def, err := contextual.Resolve(preset, action.Default)
	if err != nil {
		return err
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		logger.Debug().Str("key", action.Key).Msg("Stdin is not a terminal, taking prompt default")
		preset.SetContext(action.Key, def)
		return nil
	}

	defText := ""
	if s, ok := def.(string); ok {
		defText = s
	}
	answer, err := pterm.DefaultInteractiveTextInput.WithDefaultValue(defText).Show(action.Message)
	if err != nil {
		return errors.Wrapf(err, errors.ErrActionExecute, "prompt %q failed", action.Key)
	}

	preset.SetContext(action.Key, answer)
	return nil
}
