package dispatcher

import (
	"regexp"
	"strings"
)

// Paths never visited during enumeration, no matter what the patterns
// say: the dependency directory, lock files, and version-control
// metadata. This set is fixed and not configurable.
var (
	ignoredDirs = map[string]bool{
		"node_modules": true,
		".git":         true,
	}
	ignoredFiles = map[string]bool{
		"package-lock.json":   true,
		"npm-shrinkwrap.json": true,
		"yarn.lock":           true,
		"pnpm-lock.yaml":      true,
	}
)

// containsGlobChars checks if a pattern has glob special characters
func containsGlobChars(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// isIgnoredPath reports whether a slash-separated relative path falls
// inside the fixed ignore set, either by base name or by any directory
// segment on the way there.
func isIgnoredPath(rel string) bool {
	segments := strings.Split(rel, "/")
	for _, segment := range segments[:len(segments)-1] {
		if ignoredDirs[segment] {
			return true
		}
	}
	base := segments[len(segments)-1]
	return ignoredDirs[base] || ignoredFiles[base]
}

// compilePattern translates a glob pattern into a regular expression
// anchored over the whole relative path. "*" and "?" never cross a path
// separator; "**" matches any number of path segments.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				// "**/" at a segment boundary also matches zero segments
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					sb.WriteString("(?:[^/]+/)*")
					i += 2
				} else {
					sb.WriteString(".*")
					i++
				}
			} else {
				sb.WriteString("[^/]*")
			}
		case '?':
			sb.WriteString("[^/]")
		case '[':
			end := strings.IndexByte(pattern[i:], ']')
			if end < 0 {
				sb.WriteString(regexp.QuoteMeta(string(c)))
			} else {
				sb.WriteString(pattern[i : i+end+1])
				i += end
			}
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	sb.WriteString("$")
	return regexp.Compile(sb.String())
}
