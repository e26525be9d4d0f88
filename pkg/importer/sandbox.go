package importer

import (
	stderrors "errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/dop251/goja"

	"github.com/unfold-sh/preset/pkg/errors"
	"github.com/unfold-sh/preset/pkg/types"
)

// sandbox is one isolated evaluation context. Preset scripts never see
// the host's module graph; the builder and its helpers are the only
// bridge, and everything they capture is converted to plain Go values
// or closures at the boundary.
type sandbox struct {
	vm      *goja.Runtime
	preset  *types.Preset
	builder *goja.Object
}

// evaluate runs a prepared script and extracts the populated preset.
func evaluate(source, directory string) (*types.Preset, error) {
	vm := goja.New()
	sb := &sandbox{vm: vm, preset: types.NewPreset()}
	sb.preset.SourceDir = directory

	builder := sb.newBuilder()
	sb.builder = builder
	colors := newColorAPI(vm)

	// The complete capability set available without an import statement
	_ = vm.Set("exports", vm.NewObject())
	_ = vm.Set("require", sb.requireCapability(colors))
	_ = vm.Set("Preset", builder)
	_ = vm.Set("color", colors)

	if _, err := vm.RunString(source); err != nil {
		return nil, errors.Wrap(err, errors.ErrEvaluation, "preset script failed").WithTrace(traceOf(err))
	}

	// The preset's content is whatever the script assigned onto the
	// builder, read back from the context rather than a return value.
	if extracted := vm.Get("Preset"); extracted == nil || goja.IsUndefined(extracted) {
		return nil, errors.New(errors.ErrEvaluation, "preset builder missing after evaluation")
	}
	return sb.preset, nil
}

// requireCapability hands out the host API for the reserved module
// names and refuses everything else.
func (s *sandbox) requireCapability(colors *goja.Object) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		for _, host := range hostModuleNames {
			if name == host {
				module := s.vm.NewObject()
				_ = module.Set("Preset", s.builder)
				_ = module.Set("color", colors)
				return module
			}
		}
		s.throw(errors.Newf(errors.ErrEvaluation, "module %q is not available inside the preset sandbox", name))
		return nil
	}
}

// newBuilder constructs the object preset scripts populate. Every
// method returns the builder so declarations chain.
func (s *sandbox) newBuilder() *goja.Object {
	b := s.vm.NewObject()

	_ = b.Set("setName", func(call goja.FunctionCall) goja.Value {
		s.preset.Name = call.Argument(0).String()
		return b
	})

	_ = b.Set("setTemplates", func(call goja.FunctionCall) goja.Value {
		s.preset.TemplatesDir = call.Argument(0).String()
		return b
	})

	_ = b.Set("setContext", func(call goja.FunctionCall) goja.Value {
		value, err := s.exportValue(call.Argument(1))
		if err != nil {
			s.throw(err)
		}
		s.preset.SetContext(call.Argument(0).String(), value)
		return b
	})

	_ = b.Set("edit", func(call goja.FunctionCall) goja.Value {
		action, err := s.editAction(call)
		if err != nil {
			s.throw(err)
		}
		s.preset.AddAction(action)
		return b
	})

	_ = b.Set("extract", func(call goja.FunctionCall) goja.Value {
		action := &types.ExtractAction{}
		if len(call.Arguments) > 0 {
			sources, err := s.exportValue(call.Argument(0))
			if err != nil {
				s.throw(err)
			}
			action.Sources = sources
		}
		if spec := objectArg(call, 1); spec != nil {
			conflict, err := s.exportField(spec, "whenConflict")
			if err != nil {
				s.throw(err)
			}
			action.WhenConflict = conflict
		}
		s.preset.AddAction(action)
		return b
	})

	_ = b.Set("delete", func(call goja.FunctionCall) goja.Value {
		paths, err := s.exportValue(call.Argument(0))
		if err != nil {
			s.throw(err)
		}
		s.preset.AddAction(&types.DeleteAction{Paths: paths})
		return b
	})

	_ = b.Set("editJson", func(call goja.FunctionCall) goja.Value {
		file, err := s.exportValue(call.Argument(0))
		if err != nil {
			s.throw(err)
		}
		action := &types.EditJSONAction{File: file}
		if spec := objectArg(call, 1); spec != nil {
			if action.Merge, err = s.exportField(spec, "merge"); err != nil {
				s.throw(err)
			}
			if action.Delete, err = s.exportField(spec, "delete"); err != nil {
				s.throw(err)
			}
		}
		s.preset.AddAction(action)
		return b
	})

	_ = b.Set("execute", func(call goja.FunctionCall) goja.Value {
		title := "execute"
		arg := call.Argument(0)
		if len(call.Arguments) > 1 {
			title = arg.String()
			arg = call.Argument(1)
		}
		fn, ok := goja.AssertFunction(arg)
		if !ok {
			s.throw(errors.New(errors.ErrEvaluation, "execute requires a callback"))
		}
		s.preset.AddAction(&types.ExecuteAction{Title: title, Callback: s.contextualFunc(fn)})
		return b
	})

	_ = b.Set("prompt", func(call goja.FunctionCall) goja.Value {
		def, err := s.exportValue(call.Argument(2))
		if err != nil {
			s.throw(err)
		}
		s.preset.AddAction(&types.PromptAction{
			Key:     call.Argument(0).String(),
			Message: call.Argument(1).String(),
			Default: def,
		})
		return b
	})

	return b
}

// editAction converts edit(files, spec) or edit(spec) into an action.
func (s *sandbox) editAction(call goja.FunctionCall) (*types.EditAction, error) {
	action := &types.EditAction{}

	spec := objectArg(call, 0)
	if len(call.Arguments) >= 2 {
		files, err := s.exportValue(call.Argument(0))
		if err != nil {
			return nil, err
		}
		action.Files = files
		spec = objectArg(call, 1)
	}
	if spec == nil {
		return nil, errors.New(errors.ErrEvaluation, "edit requires a specification object")
	}
	if action.Files == nil {
		files, err := s.exportField(spec, "files")
		if err != nil {
			return nil, err
		}
		action.Files = files
	}

	if v := spec.Get("edition"); isSet(v) {
		callables, err := s.callableList(v)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrEvaluation, "invalid edition")
		}
		for _, fn := range callables {
			action.Edition = append(action.Edition, s.transform(fn))
		}
	}

	if v := spec.Get("additions"); isSet(v) {
		elements, ok := arrayElements(v)
		if !ok {
			return nil, errors.New(errors.ErrEvaluation, "additions must be a list")
		}
		for _, element := range elements {
			obj, ok := element.(*goja.Object)
			if !ok {
				return nil, errors.New(errors.ErrEvaluation, "each addition must be an object")
			}
			addition, err := s.lineAddition(obj)
			if err != nil {
				return nil, err
			}
			action.Additions = append(action.Additions, addition)
		}
	}

	return action, nil
}

// lineAddition converts one addition object, keeping every field
// contextual: functions become Go closures resolved at point of use.
func (s *sandbox) lineAddition(obj *goja.Object) (types.LineAddition, error) {
	var addition types.LineAddition
	var err error

	if addition.Search, err = s.exportField(obj, "search"); err != nil {
		return addition, err
	}
	if addition.Direction, err = s.exportField(obj, "direction"); err != nil {
		return addition, err
	}
	if addition.Content, err = s.exportField(obj, "content"); err != nil {
		return addition, err
	}
	if addition.Indent, err = s.exportField(obj, "indent"); err != nil {
		return addition, err
	}
	if addition.AmountOfLinesToSkip, err = s.exportField(obj, "amountOfLinesToSkip"); err != nil {
		return addition, err
	}
	if addition.AmountOfLinesToSkip == nil {
		if addition.AmountOfLinesToSkip, err = s.exportField(obj, "skip"); err != nil {
			return addition, err
		}
	}
	return addition, nil
}

// exportValue converts a sandbox value into the plain Go value the
// pipeline works with. Functions become contextual closures, RegExp
// objects become Go regexps, containers convert element-wise.
func (s *sandbox) exportValue(v goja.Value) (any, error) {
	if !isSet(v) {
		return nil, nil
	}
	if fn, ok := goja.AssertFunction(v); ok {
		return s.contextualFunc(fn), nil
	}
	if obj, ok := v.(*goja.Object); ok {
		switch obj.ClassName() {
		case "RegExp":
			return s.regexpOf(obj)
		case "Array":
			elements, _ := arrayElements(obj)
			out := make([]any, 0, len(elements))
			for _, element := range elements {
				exported, err := s.exportValue(element)
				if err != nil {
					return nil, err
				}
				out = append(out, exported)
			}
			return out, nil
		case "Object":
			out := make(map[string]any, len(obj.Keys()))
			for _, key := range obj.Keys() {
				exported, err := s.exportField(obj, key)
				if err != nil {
					return nil, err
				}
				out[key] = exported
			}
			return out, nil
		}
	}
	return v.Export(), nil
}

func (s *sandbox) exportField(obj *goja.Object, name string) (any, error) {
	v := obj.Get(name)
	if !isSet(v) {
		return nil, nil
	}
	return s.exportValue(v)
}

// regexpOf translates a JS RegExp into a Go regexp via its source and
// flags properties. Flags without a Go equivalent fail evaluation.
func (s *sandbox) regexpOf(obj *goja.Object) (*regexp.Regexp, error) {
	source := obj.Get("source").String()
	flags := ""
	if f := obj.Get("flags"); isSet(f) {
		flags = f.String()
	}

	pattern := source
	if strings.ContainsRune(flags, 's') {
		pattern = "(?s)" + pattern
	}
	if strings.ContainsRune(flags, 'i') {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrEvaluation, "unsupported search pattern /%s/%s", source, flags)
	}
	return re, nil
}

// contextualFunc wraps a sandbox callback so the pipeline can resolve
// it like any other contextual value, against the live preset.
func (s *sandbox) contextualFunc(fn goja.Callable) types.ContextualFunc {
	return func(p *types.Preset) (any, error) {
		v, err := fn(goja.Undefined(), s.presetView(p))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrActionExecute, "contextual callback failed").WithTrace(traceOf(err))
		}
		return s.exportValue(v)
	}
}

// transform wraps a sandbox edition callback into a pure text
// transform. A nullish result means "no change".
func (s *sandbox) transform(fn goja.Callable) types.Transform {
	return func(text string, p *types.Preset) (*string, error) {
		v, err := fn(goja.Undefined(), s.vm.ToValue(text), s.presetView(p))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrActionExecute, "edition transform failed").WithTrace(traceOf(err))
		}
		if !isSet(v) {
			return nil, nil
		}
		out := v.String()
		return &out, nil
	}
}

// presetView exposes the current preset to callbacks. The context map
// is shared by reference, so writes from the sandbox land in the live
// preset and are visible to later actions.
func (s *sandbox) presetView(p *types.Preset) goja.Value {
	view := s.vm.NewObject()
	_ = view.Set("name", p.Name)
	_ = view.Set("args", p.Args)
	_ = view.Set("context", p.Context)
	_ = view.Set("targetDir", p.TargetDir)
	_ = view.Set("sourceDir", p.SourceDir)
	_ = view.Set("setContext", func(call goja.FunctionCall) goja.Value {
		value, err := s.exportValue(call.Argument(1))
		if err != nil {
			s.throw(err)
		}
		p.SetContext(call.Argument(0).String(), value)
		return view
	})
	return view
}

// callableList accepts a single function or an array of functions
func (s *sandbox) callableList(v goja.Value) ([]goja.Callable, error) {
	if fn, ok := goja.AssertFunction(v); ok {
		return []goja.Callable{fn}, nil
	}
	elements, ok := arrayElements(v)
	if !ok {
		return nil, errors.New(errors.ErrEvaluation, "expected a function or list of functions")
	}
	out := make([]goja.Callable, 0, len(elements))
	for _, element := range elements {
		fn, ok := goja.AssertFunction(element)
		if !ok {
			return nil, errors.New(errors.ErrEvaluation, "expected a function or list of functions")
		}
		out = append(out, fn)
	}
	return out, nil
}

// throw raises err as a sandbox exception so the script's failure is
// reported through the evaluation error path, trace intact.
func (s *sandbox) throw(err error) {
	panic(s.vm.NewGoError(err))
}

func objectArg(call goja.FunctionCall, index int) *goja.Object {
	v := call.Argument(index)
	if !isSet(v) {
		return nil
	}
	if obj, ok := v.(*goja.Object); ok {
		return obj
	}
	return nil
}

func arrayElements(v goja.Value) ([]goja.Value, bool) {
	obj, ok := v.(*goja.Object)
	if !ok || obj.ClassName() != "Array" {
		return nil, false
	}
	length := int(obj.Get("length").ToInteger())
	out := make([]goja.Value, 0, length)
	for i := 0; i < length; i++ {
		out = append(out, obj.Get(strconv.Itoa(i)))
	}
	return out, true
}

func isSet(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}

// traceOf preserves the sandbox's full stack trace when available
func traceOf(err error) string {
	var exception *goja.Exception
	if stderrors.As(err, &exception) {
		return exception.String()
	}
	return err.Error()
}
