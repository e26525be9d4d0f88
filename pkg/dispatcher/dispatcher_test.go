package dispatcher

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unfold-sh/preset/pkg/types"
)

// writeFiles populates a temp target directory from a rel->content map
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func newTargetPreset(root string) *types.Preset {
	preset := types.NewPreset()
	preset.TargetDir = root
	return preset
}

func TestEnumerate_IgnoresConventionalPaths(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.go":                  "package main",
		"sub/util.go":              "package sub",
		"node_modules/dep/x.go":    "ignored",
		".git/hooks/pre-commit.go": "ignored",
		"yarn.lock":                "ignored",
		"package-lock.json":        "ignored",
	})

	files, err := Enumerate(root, []string{"**/*.go", "*.json", "*.lock"})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go", "sub/util.go"}, files)
}

func TestEnumerate_LiteralPatternsPassThrough(t *testing.T) {
	root := t.TempDir()

	files, err := Enumerate(root, []string{"does/not/exist.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"does/not/exist.txt"}, files,
		"literal paths are reported so the dispatcher can skip them individually")
}

func TestEnumerate_LiteralsHonorIgnoreSet(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"package-lock.json":     "lockfile",
		"node_modules/dep/x.js": "module",
		"main.go":               "package main",
	})

	files, err := Enumerate(root, []string{
		"package-lock.json",
		"node_modules/dep/x.js",
		"main.go",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, files,
		"naming an ignored path literally must not bypass the ignore set")
}

func TestEnumerate_Deterministic(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"b.txt": "",
		"a.txt": "",
		"c.txt": "",
	})

	files, err := Enumerate(root, []string{"*.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, files)
}

func TestApply_TransformsThenAdditions(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"app.txt": "one\ntwo"})

	action := &types.EditAction{
		Files: "app.txt",
		Edition: []types.Transform{
			func(text string, p *types.Preset) (*string, error) {
				out := strings.ReplaceAll(text, "one", "1")
				return &out, nil
			},
			// nullish result means "no change"
			func(text string, p *types.Preset) (*string, error) {
				return nil, nil
			},
		},
		Additions: []types.LineAddition{
			{Search: regexp.MustCompile(`1`), Content: "after-one"},
			// second addition consumes the first addition's output
			{Search: regexp.MustCompile(`after-one`), Content: "chained"},
		},
	}

	require.NoError(t, Apply(action, newTargetPreset(root)))

	got, err := os.ReadFile(filepath.Join(root, "app.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1\nafter-one\nchained\ntwo", string(got))
}

func TestApply_MissingFileSkippedSilently(t *testing.T) {
	root := t.TempDir()

	action := &types.EditAction{
		Files:     []string{"missing.txt"},
		Additions: []types.LineAddition{{Search: regexp.MustCompile(`a`), Content: "X"}},
	}

	require.NoError(t, Apply(action, newTargetPreset(root)))
}

func TestApply_DirectoryMatchSkipped(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "adir"), 0755))

	action := &types.EditAction{
		Files:     "adir",
		Additions: []types.LineAddition{{Search: regexp.MustCompile(`a`), Content: "X"}},
	}

	require.NoError(t, Apply(action, newTargetPreset(root)))
}

func TestApply_TransformErrorAbortsRun(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.txt": "a",
		"b.txt": "b",
	})

	calls := 0
	action := &types.EditAction{
		Files: "*.txt",
		Edition: []types.Transform{
			func(text string, p *types.Preset) (*string, error) {
				calls++
				return nil, assert.AnError
			},
		},
	}

	err := Apply(action, newTargetPreset(root))
	require.Error(t, err)
	assert.Equal(t, 1, calls, "the first failing file must abort the whole action")
}

func TestApply_ContextualFilePatterns(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"picked.txt": "x"})

	preset := newTargetPreset(root)
	preset.SetContext("pattern", "picked.txt")

	action := &types.EditAction{
		Files: types.ContextualFunc(func(p *types.Preset) (any, error) {
			pattern, _ := p.GetContext("pattern")
			return pattern, nil
		}),
		Additions: []types.LineAddition{{Search: regexp.MustCompile(`x`), Content: "y"}},
	}

	require.NoError(t, Apply(action, preset))

	got, err := os.ReadFile(filepath.Join(root, "picked.txt"))
	require.NoError(t, err)
	assert.Equal(t, "x\ny", string(got))
}
