// Package engine performs anchor-relative line insertion with
// indentation inference. Insert is a pure function over its inputs:
// the file text is never mutated in place, and both directions reduce
// to one forward scan over a possibly-reversed view of the lines.
package engine

import (
	"strings"

	"github.com/unfold-sh/preset/pkg/contextual"
	"github.com/unfold-sh/preset/pkg/errors"
	"github.com/unfold-sh/preset/pkg/logging"
	"github.com/unfold-sh/preset/pkg/types"
)

// Insert applies a single line addition to the given text and returns
// the result. Exactly one insertion point fires per addition per file,
// regardless of how many lines match the search pattern.
func Insert(content string, addition types.LineAddition, preset *types.Preset) (string, error) {
	logger := logging.GetLogger("engine")

	search, err := contextual.Regexp(preset, addition.Search)
	if err != nil {
		return "", err
	}

	lines, err := contextual.Strings(preset, addition.Content)
	if err != nil {
		return "", err
	}

	// No-op guard: nothing to anchor on, or nothing to insert
	if search == nil || len(lines) == 0 {
		logger.Debug().Msg("Skipping line addition without search or content")
		return content, nil
	}

	direction, err := contextual.String(preset, addition.Direction, types.DirectionBelow)
	if err != nil {
		return "", err
	}
	if direction != types.DirectionAbove && direction != types.DirectionBelow {
		return "", errors.Newf(errors.ErrActionInvalid, "invalid direction %q", direction)
	}

	skip, err := contextual.Int(preset, addition.AmountOfLinesToSkip, 0)
	if err != nil {
		return "", err
	}

	// Reversing the view reduces "above" to the same insert-after-anchor
	// forward scan as "below"
	reversed := direction == types.DirectionAbove
	source := strings.Split(normalizeNewlines(content), "\n")
	if reversed {
		source = reverse(source)
	}

	output := make([]string, 0, len(source)+len(lines))
	fired := false

	for _, line := range source {
		output = append(output, line)

		if fired || !search.MatchString(line) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}

		prefix, err := indentPrefix(preset, addition.Indent, leadingWhitespace(line))
		if err != nil {
			return "", err
		}

		block := lines
		if reversed {
			block = reverse(block)
		}
		for _, inserted := range block {
			output = append(output, prefix+inserted)
		}
		fired = true
	}

	if reversed {
		output = reverse(output)
	}

	if !fired {
		logger.Debug().
			Str("search", search.String()).
			Msg("Line addition found no qualifying anchor")
	}

	return strings.Join(output, "\n"), nil
}

// indentPrefix computes the indentation of the inserted block from the
// addition's indent mode and the anchor line's leading-whitespace unit
func indentPrefix(preset *types.Preset, indent any, unit string) (string, error) {
	resolved, err := contextual.Resolve(preset, indent)
	if err != nil {
		return "", err
	}

	switch v := resolved.(type) {
	case nil:
		return unit, nil
	case int:
		return spaces(v)
	case int64:
		return spaces(int(v))
	case float64:
		return spaces(int(v))
	case string:
		if v == "double" {
			return unit + unit, nil
		}
		return v, nil
	}
	return "", errors.Newf(errors.ErrActionInvalid, "invalid indent %v", resolved)
}

// spaces builds a numeric indent prefix. Negative counts come from
// script-supplied values and must fail as invalid, never panic.
func spaces(n int) (string, error) {
	if n < 0 {
		return "", errors.Newf(errors.ErrActionInvalid, "invalid indent %d", n)
	}
	return strings.Repeat(" ", n), nil
}

// leadingWhitespace returns the whitespace prefix of a line
func leadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// normalizeNewlines folds Windows and bare-CR line endings into "\n"
func normalizeNewlines(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}

// reverse returns a reversed copy, leaving the input untouched
func reverse(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[len(lines)-1-i] = line
	}
	return out
}
