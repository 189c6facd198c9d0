package model

// ExternalQualifier is implemented by qualifier plugins registered for
// `qualifier type NAME params = external "pkg.Type"` declarations. The
// contract requires Validate(Generate(args...), args...) to hold for any
// args a qualifier's Generate might produce.
type ExternalQualifier interface {
	Generate(args ...any) (any, error)
	Validate(value any, args ...any) (bool, error)
}

// Qualifier is a named, typed, parameterized field qualifier backed by an
// ExternalQualifier plugin.
type Qualifier struct {
	Name         string
	QualType     string
	Params       []*Param
	ExternalName string
	External     ExternalQualifier
}

// QualifierValue is a qualifier invocation as it appears in a field value:
// `qualName(args...)` or `qualName(args...) -> outRef`.
type QualifierValue struct {
	Qualifier *Qualifier
	Params    []Value
	OutRef    *RefValue // nil if no output binding
}

func (v *QualifierValue) Resolve(env *Env, resolvedParams map[string]any) (any, error) {
	args := make([]any, 0, len(v.Params))
	for _, p := range v.Params {
		r, err := p.Resolve(env, resolvedParams)
		if err != nil {
			return nil, err
		}
		args = append(args, r)
	}
	var funcSet *FuncSet
	if v.OutRef != nil {
		resolved, err := v.OutRef.Resolve(env, resolvedParams)
		if err != nil {
			return nil, err
		}
		fs, ok := resolved.(*FuncSet)
		if !ok {
			fs = &FuncSet{}
			if role, ok := resolved.(*Role); ok {
				fs.Role = role
			}
		}
		funcSet = fs
	}
	return &QualifierResolved{
		Qualifier: v.Qualifier,
		QualType:  v.Qualifier.QualType,
		Args:      args,
		FuncSet:   funcSet,
	}, nil
}

// QualifierResolved is the resolved instance of a QualifierValue: the
// concrete arguments to pass to its External plugin, and the field/local
// var it will write a generated value into, if any. It is used directly by
// the executor to validate incoming field values and generate outgoing
// ones.
type QualifierResolved struct {
	Qualifier *Qualifier
	QualType  string
	Args      []any
	FuncSet   *FuncSet
}

// evalArgs runs each argument through Func.Run or reads the LocalVar's
// current value, so qualifiers always see concrete values.
func (q *QualifierResolved) evalArgs() ([]any, error) {
	out := make([]any, 0, len(q.Args))
	for _, a := range q.Args {
		switch v := a.(type) {
		case *LocalVar:
			out = append(out, v.Value)
		case Func:
			r, err := v.Run()
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		default:
			out = append(out, a)
		}
	}
	return out, nil
}

// ValidateAndSet checks value against this qualifier's Validate contract
// and, if an output binding exists, stores value into it.
func (q *QualifierResolved) ValidateAndSet(value any) (bool, error) {
	if q.FuncSet != nil {
		if err := q.FuncSet.SetValue(value); err != nil {
			return false, err
		}
	}
	args, err := q.evalArgs()
	if err != nil {
		return false, err
	}
	return q.Qualifier.External.Validate(value, args...)
}

// Generate produces a new value from this qualifier, storing it into the
// output binding if one exists.
func (q *QualifierResolved) Generate() (any, error) {
	args, err := q.evalArgs()
	if err != nil {
		return nil, err
	}
	value, err := q.Qualifier.External.Generate(args...)
	if err != nil {
		return nil, err
	}
	if q.FuncSet != nil {
		if err := q.FuncSet.SetValue(value); err != nil {
			return nil, err
		}
	}
	return value, nil
}
