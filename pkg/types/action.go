package types

// Directions for line additions
const (
	DirectionAbove = "above"
	DirectionBelow = "below"
)

// Conflict strategies for extract actions
const (
	ConflictOverride = "override"
	ConflictSkip     = "skip"
)

// Action is one step of a preset. The concrete variant decides what the
// runner does with it; actions execute strictly in declaration order.
type Action interface {
	// Kind returns the stable name of the action variant
	Kind() string
}

// EditAction rewrites files matched by glob patterns: ordered pure text
// transforms first, then ordered anchor-relative line additions.
type EditAction struct {
	// Files is a glob pattern or list of patterns, relative to the target
	Files any

	// Edition is applied in order before any line addition
	Edition []Transform

	// Additions is applied in order, each consuming the prior output
	Additions []LineAddition
}

func (a *EditAction) Kind() string { return "edit" }

// LineAddition describes one anchor-relative insertion. Every field is
// contextual: a literal or a ContextualFunc resolved at point of use.
type LineAddition struct {
	// Search locates anchor lines: a *regexp.Regexp, a string compiled
	// as one, or a falsy value turning the addition into a no-op
	Search any

	// Direction is "above" or "below" the anchor (default below)
	Direction any

	// Content is the line or lines to insert
	Content any

	// Indent selects the indentation of inserted lines: unset reuses
	// the anchor's leading whitespace, "double" doubles it, a number is
	// that many spaces, any other string is used verbatim
	Indent any

	// AmountOfLinesToSkip selects the Nth qualifying anchor instead of
	// the first
	AmountOfLinesToSkip any
}

// ExtractAction copies files from the preset's templates directory into
// the target directory.
type ExtractAction struct {
	// Sources is a glob pattern or list of patterns relative to the
	// templates directory; empty means everything
	Sources any

	// WhenConflict is "override" or "skip" for already existing files
	WhenConflict any
}

func (a *ExtractAction) Kind() string { return "extract" }

// DeleteAction removes target-relative paths. Missing paths are a
// diagnostic-level no-op.
type DeleteAction struct {
	Paths any
}

func (a *DeleteAction) Kind() string { return "delete" }

// EditJSONAction deep-merges a map into a JSON file in the target and
// optionally deletes top-level keys.
type EditJSONAction struct {
	// File is the target-relative path of the JSON file
	File any

	// Merge is a (contextual) map merged over the file's content
	Merge any

	// Delete lists keys to remove after merging
	Delete any
}

func (a *EditJSONAction) Kind() string { return "editJson" }

// ExecuteAction runs an author-supplied callback against the live
// preset; context mutations made here are visible to later actions.
type ExecuteAction struct {
	// Title names the step in diagnostics
	Title string

	Callback ContextualFunc
}

func (a *ExecuteAction) Kind() string { return "execute" }

// PromptAction asks the user a question and stores the answer in the
// preset context. When stdin is not a terminal the default is taken.
type PromptAction struct {
	Key     string
	Message string
	Default any
}

func (a *PromptAction) Kind() string { return "prompt" }
