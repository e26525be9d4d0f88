package importer

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unfold-sh/preset/pkg/errors"
	"github.com/unfold-sh/preset/pkg/types"
)

// writePreset lays out a preset directory from a rel->content map
func writePreset(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func TestLocateEntry_ConventionOrder(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{
			name:  "preset.js first",
			files: []string{"preset.js", "preset.cjs", "src/preset.js"},
			want:  "preset.js",
		},
		{
			name:  "extension order inside a base",
			files: []string{"preset.cjs", "preset.mjs"},
			want:  "preset.mjs",
		},
		{
			name:  "src fallback",
			files: []string{"src/preset.cjs"},
			want:  "src/preset.cjs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := make(map[string]string, len(tt.files))
			for _, f := range tt.files {
				files[f] = "// preset"
			}
			dir := writePreset(t, files)

			got, err := LocateEntry(dir)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, filepath.FromSlash(tt.want)), got)
		})
	}
}

func TestLocateEntry_ManifestOverrideWins(t *testing.T) {
	dir := writePreset(t, map[string]string{
		"package.json":    `{"name": "demo", "preset": "custom/entry.js"}`,
		"preset.js":       "// conventional",
		"custom/entry.js": "// declared",
	})

	got, err := LocateEntry(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "custom", "entry.js"), got)
}

func TestLocateEntry_MissingOverrideFailsWithoutFallback(t *testing.T) {
	dir := writePreset(t, map[string]string{
		"package.json": `{"preset": "gone.js"}`,
		"preset.js":    "// conventional, must not be used",
	})

	_, err := LocateEntry(dir)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrExplicitFileMissing))
}

func TestLocateEntry_ManifestWithoutKeyFallsBackToConvention(t *testing.T) {
	dir := writePreset(t, map[string]string{
		"package.json": `{"name": "demo"}`,
		"preset.js":    "// conventional",
	})

	got, err := LocateEntry(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "preset.js"), got)
}

func TestLocateEntry_NothingFound(t *testing.T) {
	_, err := LocateEntry(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigurationNotFound))
}

func TestIsHostImportLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{`import { Preset, color } from 'preset'`, true},
		{`import { Preset } from "@unfold-sh/preset"`, true},
		{`const { color } = require('@unfold-sh/preset')`, true},
		{`let api = require("preset")`, true},
		{`import fs from 'fs'`, false},
		{`const path = require('path')`, false},
		{`const preset = buildPreset()`, false},
		{`Preset.setName('demo')`, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isHostImportLine(tt.line), "line: %s", tt.line)
	}
}

func TestImport_StrippedImportsStillExecute(t *testing.T) {
	dir := writePreset(t, map[string]string{
		"preset.js": `import { Preset, color } from 'preset'

Preset.setName('demo')
Preset.setContext('greeting', color.green('hello'))
Preset.edit('src/**/*.js', {
	edition: [(text) => text.toUpperCase()],
	additions: [{
		search: /foo/i,
		direction: 'above',
		content: ['a', 'b'],
		indent: 'double',
		amountOfLinesToSkip: 1,
	}],
})
`,
	})

	preset, err := Import(dir)
	require.NoError(t, err)

	assert.Equal(t, "demo", preset.Name)
	greeting, ok := preset.GetContext("greeting")
	require.True(t, ok)
	assert.Contains(t, greeting, "hello")

	require.Len(t, preset.Actions, 1)
	edit, ok := preset.Actions[0].(*types.EditAction)
	require.True(t, ok)
	assert.Equal(t, "src/**/*.js", edit.Files)

	require.Len(t, edit.Edition, 1)
	out, err := edit.Edition[0]("shout", preset)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "SHOUT", *out)

	require.Len(t, edit.Additions, 1)
	addition := edit.Additions[0]
	search, ok := addition.Search.(*regexp.Regexp)
	require.True(t, ok, "JS regexes must arrive as Go regexps")
	assert.True(t, search.MatchString("FOO"), "the i flag must carry over")
	assert.Equal(t, "above", addition.Direction)
	assert.Equal(t, []any{"a", "b"}, addition.Content)
	assert.Equal(t, "double", addition.Indent)
	assert.Equal(t, int64(1), addition.AmountOfLinesToSkip)
}

func TestImport_RequireCapability(t *testing.T) {
	dir := writePreset(t, map[string]string{
		"preset.js": `require('preset').Preset.setName('via-require')`,
	})

	preset, err := Import(dir)
	require.NoError(t, err)
	assert.Equal(t, "via-require", preset.Name)
}

func TestImport_RequireOfForeignModuleFails(t *testing.T) {
	dir := writePreset(t, map[string]string{
		"preset.js": `require('child_process')`,
	})

	_, err := Import(dir)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrEvaluation))
	assert.Contains(t, err.Error(), "child_process")
}

func TestImport_ScriptThrowPreservesTrace(t *testing.T) {
	dir := writePreset(t, map[string]string{
		"preset.js": `Preset.setName('broken')
throw new Error('boom')`,
	})

	_, err := Import(dir)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrEvaluation))
	assert.Contains(t, errors.GetTrace(err), "boom")
}

func TestImport_ParseErrorIsEvaluation(t *testing.T) {
	dir := writePreset(t, map[string]string{
		"preset.js": `function (`,
	})

	_, err := Import(dir)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrEvaluation))
}

func TestImport_ChainedBuilderAndAllActionKinds(t *testing.T) {
	dir := writePreset(t, map[string]string{
		"preset.mjs": `import { Preset } from 'preset'

Preset.setName('kitchen-sink')
	.extract('**', { whenConflict: 'skip' })
	.delete(['dist/**'])
	.editJson('package.json', { merge: { scripts: { dev: 'vite' } }, delete: ['private'] })
	.execute('announce', (preset) => preset.setContext('ran', true))
	.prompt('license', 'Which license?', 'MIT')
	.edit({ files: '*.md', additions: [{ search: /title/, content: 'subtitle' }] })
`,
	})

	preset, err := Import(dir)
	require.NoError(t, err)
	assert.Equal(t, "kitchen-sink", preset.Name)

	require.Len(t, preset.Actions, 6)
	kinds := make([]string, 0, len(preset.Actions))
	for _, action := range preset.Actions {
		kinds = append(kinds, action.Kind())
	}
	assert.Equal(t, []string{"extract", "delete", "editJson", "execute", "prompt", "edit"}, kinds)

	extract := preset.Actions[0].(*types.ExtractAction)
	assert.Equal(t, "skip", extract.WhenConflict)

	editJSON := preset.Actions[2].(*types.EditJSONAction)
	merge, ok := editJSON.Merge.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"scripts": map[string]any{"dev": "vite"}}, merge)
	assert.Equal(t, []any{"private"}, editJSON.Delete)

	execute := preset.Actions[3].(*types.ExecuteAction)
	_, err = execute.Callback(preset)
	require.NoError(t, err)
	ran, ok := preset.GetContext("ran")
	require.True(t, ok)
	assert.Equal(t, true, ran)

	prompt := preset.Actions[4].(*types.PromptAction)
	assert.Equal(t, "license", prompt.Key)
	assert.Equal(t, "MIT", prompt.Default)
}

func TestImport_NoEntryScript(t *testing.T) {
	_, err := Import(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigurationNotFound))
}
