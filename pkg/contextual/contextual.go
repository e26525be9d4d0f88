// Package contextual resolves literal-or-callback parameters against
// the live preset. Resolution is pure and uncached: a value is
// re-resolved every time it is read, so two reads during one action may
// legitimately see different context.
package contextual

import (
	"regexp"

	"github.com/unfold-sh/preset/pkg/errors"
	"github.com/unfold-sh/preset/pkg/types"
)

// Resolve returns value unchanged unless it is a contextual callback,
// in which case the callback is invoked with the current preset.
func Resolve(p *types.Preset, value any) (any, error) {
	switch f := value.(type) {
	case types.ContextualFunc:
		return f(p)
	case func(*types.Preset) (any, error):
		return f(p)
	case func(*types.Preset) any:
		return f(p), nil
	}
	return value, nil
}

// String resolves a contextual string, falling back when unset
func String(p *types.Preset, value any, fallback string) (string, error) {
	resolved, err := Resolve(p, value)
	if err != nil {
		return "", err
	}
	if resolved == nil {
		return fallback, nil
	}
	s, ok := resolved.(string)
	if !ok {
		return "", errors.Newf(errors.ErrActionInvalid, "expected a string, got %T", resolved)
	}
	if s == "" {
		return fallback, nil
	}
	return s, nil
}

// Strings resolves a one-or-many parameter into a flat string list.
// Array-shaped values are resolved element-wise.
func Strings(p *types.Preset, value any) ([]string, error) {
	resolved, err := Resolve(p, value)
	if err != nil {
		return nil, err
	}

	switch v := resolved.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			itemResolved, err := Resolve(p, item)
			if err != nil {
				return nil, err
			}
			s, ok := itemResolved.(string)
			if !ok {
				return nil, errors.Newf(errors.ErrActionInvalid, "expected a string element, got %T", itemResolved)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, errors.Newf(errors.ErrActionInvalid, "expected a string or list of strings, got %T", resolved)
}

// Int resolves a contextual number, falling back when unset. Numeric
// values crossing the sandbox boundary arrive as int64 or float64.
func Int(p *types.Preset, value any, fallback int) (int, error) {
	resolved, err := Resolve(p, value)
	if err != nil {
		return 0, err
	}

	switch v := resolved.(type) {
	case nil:
		return fallback, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	}
	return 0, errors.Newf(errors.ErrActionInvalid, "expected a number, got %T", resolved)
}

// Regexp resolves a contextual search pattern. Falsy values resolve to
// nil, which callers treat as "no anchor, nothing to do". Strings are
// compiled as regular expressions.
func Regexp(p *types.Preset, value any) (*regexp.Regexp, error) {
	resolved, err := Resolve(p, value)
	if err != nil {
		return nil, err
	}

	switch v := resolved.(type) {
	case nil:
		return nil, nil
	case bool:
		if !v {
			return nil, nil
		}
		return nil, errors.New(errors.ErrActionInvalid, "search cannot be literal true")
	case *regexp.Regexp:
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		re, err := regexp.Compile(v)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrActionInvalid, "invalid search pattern %q", v)
		}
		return re, nil
	}
	return nil, errors.Newf(errors.ErrActionInvalid, "expected a search pattern, got %T", resolved)
}

// Map resolves a contextual map parameter
func Map(p *types.Preset, value any) (map[string]any, error) {
	resolved, err := Resolve(p, value)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, nil
	}
	m, ok := resolved.(map[string]any)
	if !ok {
		return nil, errors.Newf(errors.ErrActionInvalid, "expected a map, got %T", resolved)
	}
	return m, nil
}
