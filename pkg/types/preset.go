package types

// ContextualFunc computes a parameter value against the live preset.
// It is re-invoked on every read so later actions observe context
// changes made by earlier ones.
type ContextualFunc func(p *Preset) (any, error)

// Transform rewrites the full text of a file. A nil result means
// "no change"; any non-nil string replaces the working text.
type Transform func(text string, p *Preset) (*string, error)

// Preset is the evaluated configuration object: an ordered list of
// actions plus the context accumulated while the run progresses
// (prompt answers, values set by execute callbacks).
type Preset struct {
	// Name is the display name the preset script assigned to itself
	Name string

	// SourceDir is the resolved directory the preset was loaded from
	SourceDir string

	// TargetDir is the directory the preset is applied onto
	TargetDir string

	// TemplatesDir is the directory (relative to SourceDir) that
	// extract actions copy files from
	TemplatesDir string

	// Args are the pass-through command line arguments after the resolvable
	Args []string

	// Context holds answers and template variables gathered at run time
	Context map[string]any

	// Actions is the ordered list of actions the script declared
	Actions []Action
}

// NewPreset creates an empty preset with defaults applied
func NewPreset() *Preset {
	return &Preset{
		TemplatesDir: "templates",
		Context:      make(map[string]any),
	}
}

// AddAction appends an action to the preset's ordered action list
func (p *Preset) AddAction(action Action) {
	p.Actions = append(p.Actions, action)
}

// GetContext returns a context value and whether it was present
func (p *Preset) GetContext(key string) (any, bool) {
	v, ok := p.Context[key]
	return v, ok
}

// SetContext stores a context value for later actions to read
func (p *Preset) SetContext(key string, value any) {
	p.Context[key] = value
}
