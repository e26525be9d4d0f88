package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		matches bool
	}{
		{"exact file", "main.go", "main.go", true},
		{"exact file, different path", "main.go", "cmd/main.go", false},
		{"star stays in segment", "*.go", "main.go", true},
		{"star does not cross separator", "*.go", "cmd/main.go", false},
		{"question mark", "ma?n.go", "main.go", true},
		{"double star crosses segments", "**/*.go", "a/b/c/main.go", true},
		{"double star matches zero segments", "**/*.go", "main.go", true},
		{"double star suffix", "src/**", "src/a/b.txt", true},
		{"double star needs prefix match", "src/**", "lib/a/b.txt", false},
		{"character class", "file[0-9].txt", "file3.txt", true},
		{"character class miss", "file[0-9].txt", "filex.txt", false},
		{"dot is literal", "a.go", "axgo", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, err := compilePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.matches, re.MatchString(tt.path),
				"pattern %q against %q", tt.pattern, tt.path)
		})
	}
}

func TestIsIgnoredPath(t *testing.T) {
	tests := []struct {
		path    string
		ignored bool
	}{
		{"package-lock.json", true},
		{"sub/yarn.lock", true},
		{"node_modules/dep/index.js", true},
		{"a/.git/config", true},
		{"node_modules", true},
		{"main.go", false},
		{"src/package.json", false},
		{"my-node_modules/x.js", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ignored, isIgnoredPath(tt.path), "path %q", tt.path)
	}
}

func TestContainsGlobChars(t *testing.T) {
	assert.True(t, containsGlobChars("*.go"))
	assert.True(t, containsGlobChars("file?.txt"))
	assert.True(t, containsGlobChars("file[0-9].txt"))
	assert.False(t, containsGlobChars("plain/path.txt"))
}
