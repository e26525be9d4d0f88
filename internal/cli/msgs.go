package cli

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Apply presets onto a project directory"
	MsgApplyShort      = "Apply a preset to a target directory"
	MsgApplyLong       = "Apply resolves the given preset, evaluates its configuration script in a sandbox, and runs its actions against the target directory."
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgApplySuccess = "Preset %q applied to %s"
	MsgApplyFailure = "Failed to apply preset: %v"
)
