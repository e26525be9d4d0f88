// Package types defines the core data model shared across the preset
// pipeline: the Preset object produced by the importer, the action
// variants it carries, and the contextual-value types that defer
// parameter evaluation until runtime context exists.
package types
