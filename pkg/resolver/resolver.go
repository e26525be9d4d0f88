// Package resolver turns a user-supplied resolvable into a local
// preset directory. Only local paths are handled here; fetching remote
// presets is somebody else's job, and whoever produces a temporary
// directory obligates the caller to delete it after the run.
package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/unfold-sh/preset/pkg/errors"
	"github.com/unfold-sh/preset/pkg/logging"
)

// Result describes a resolved preset source. Path is set and exists
// iff Success is true; Temporary obligates the caller to delete Path
// once the run finishes, success or failure.
type Result struct {
	Success   bool
	Path      string
	Temporary bool
}

// Resolve maps a resolvable to a local directory. Relative paths are
// resolved against the working directory and "~" against the home dir.
func Resolve(resolvable string) (Result, error) {
	logger := logging.GetLogger("resolver")

	path, err := expand(resolvable)
	if err != nil {
		return Result{}, errors.Wrapf(err, errors.ErrResolve, "could not resolve %q", resolvable)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Result{}, errors.Newf(errors.ErrResolve, "preset %q does not resolve to a local directory", resolvable)
	}
	if !info.IsDir() {
		return Result{}, errors.Newf(errors.ErrResolve, "preset path %q is not a directory", resolvable)
	}

	logger.Debug().Str("resolvable", resolvable).Str("path", path).Msg("Resolved preset directory")
	return Result{Success: true, Path: path}, nil
}

func expand(resolvable string) (string, error) {
	path := resolvable
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
