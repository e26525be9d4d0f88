// Package runner drives a preset run end to end: resolve the
// resolvable to a local directory, import the preset, then execute its
// actions strictly in order. The failure model is fail-fast: the first
// action error aborts the run, leaving already-written files as-is.
package runner

import (
	"os"
	"path/filepath"

	"github.com/unfold-sh/preset/pkg/dispatcher"
	"github.com/unfold-sh/preset/pkg/errors"
	"github.com/unfold-sh/preset/pkg/importer"
	"github.com/unfold-sh/preset/pkg/logging"
	"github.com/unfold-sh/preset/pkg/resolver"
	"github.com/unfold-sh/preset/pkg/types"
)

// Options are the run-level options consumed by the pipeline
type Options struct {
	// Target is the directory the preset is applied onto
	Target string

	// Args are pass-through arguments exposed to the preset's callbacks
	Args []string
}

// Run resolves, imports, and applies a preset. A temporary directory
// produced by resolution is deleted when the run finishes, on both
// success and failure paths.
func Run(resolvable string, opts Options) error {
	logger := logging.GetLogger("runner")
	done := logging.LogOperationStart(logger, "apply")
	defer done()

	result, err := resolver.Resolve(resolvable)
	if err != nil {
		return err
	}
	if result.Temporary {
		defer func() {
			if err := os.RemoveAll(result.Path); err != nil {
				logger.Warn().Err(err).Str("path", result.Path).Msg("Failed to clean up temporary preset directory")
			}
		}()
	}

	preset, err := importer.Import(result.Path)
	if err != nil {
		return err
	}

	target, err := filepath.Abs(opts.Target)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "invalid target directory %q", opts.Target)
	}
	preset.TargetDir = target
	preset.Args = opts.Args
	if preset.Name == "" {
		preset.Name = filepath.Base(result.Path)
	}

	return Execute(preset)
}

// Execute runs every action of an already-imported preset in
// declaration order.
func Execute(preset *types.Preset) error {
	logger := logging.GetLogger("runner")

	for i, action := range preset.Actions {
		logger.Debug().
			Int("step", i+1).
			Str("kind", action.Kind()).
			Msg("Executing action")

		if err := executeAction(action, preset); err != nil {
			return err
		}
	}
	return nil
}

func executeAction(action types.Action, preset *types.Preset) error {
	switch a := action.(type) {
	case *types.EditAction:
		return dispatcher.Apply(a, preset)
	case *types.ExtractAction:
		return applyExtract(a, preset)
	case *types.DeleteAction:
		return applyDelete(a, preset)
	case *types.EditJSONAction:
		return applyEditJSON(a, preset)
	case *types.ExecuteAction:
		if a.Callback == nil {
			return errors.Newf(errors.ErrActionInvalid, "execute action %q has no callback", a.Title)
		}
		_, err := a.Callback(preset)
		return err
	case *types.PromptAction:
		return applyPrompt(a, preset)
	}
	return errors.Newf(errors.ErrActionInvalid, "unknown action kind %q", action.Kind())
}
