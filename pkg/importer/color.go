package importer

import (
	"github.com/dop251/goja"
	"github.com/pterm/pterm"
)

// newColorAPI builds the text-styling helper injected into the
// sandbox: a small set of functions wrapping strings in ANSI styles,
// for preset scripts that print user-facing messages.
func newColorAPI(vm *goja.Runtime) *goja.Object {
	obj := vm.NewObject()

	styles := map[string]*pterm.Style{
		"red":       pterm.NewStyle(pterm.FgRed),
		"green":     pterm.NewStyle(pterm.FgGreen),
		"yellow":    pterm.NewStyle(pterm.FgYellow),
		"blue":      pterm.NewStyle(pterm.FgBlue),
		"magenta":   pterm.NewStyle(pterm.FgMagenta),
		"cyan":      pterm.NewStyle(pterm.FgCyan),
		"gray":      pterm.NewStyle(pterm.FgGray),
		"bold":      pterm.NewStyle(pterm.Bold),
		"underline": pterm.NewStyle(pterm.Underscore),
	}

	for name, style := range styles {
		style := style
		_ = obj.Set(name, func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(style.Sprint(call.Argument(0).String()))
		})
	}

	return obj
}
