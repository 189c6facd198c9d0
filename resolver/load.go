// Package resolver lowers parsed *ast.File trees into *model.Module graphs
// and drives the fixed load pipeline a conformance run needs before
// traversal can begin, ported from original_source/test_driver.py's
// LoadModules/FillInModuleRoles/FillInConstants/GetRolesToTest/
// ResolveTransitions/InitializeStates.
package resolver

import (
	"fmt"

	"github.com/arkwright/stl/ast"
	"github.com/arkwright/stl/encoding"
	"github.com/arkwright/stl/model"
)

// LoadModules lowers a set of parsed files into their modules. Several
// files may contribute declarations to the same module; declarations load
// in a fixed order (qualifiers, roles, states, messages, consts, events,
// transitions) so that later categories can freely reference qualifiers
// and messages loaded earlier by name.
func LoadModules(files []*ast.File, descriptors *encoding.DescriptorRegistry) (map[string]*model.Module, error) {
	byModule := map[string][]*ast.File{}
	var order []string
	for _, f := range files {
		name := f.ModuleName.Text
		if _, ok := byModule[name]; !ok {
			order = append(order, name)
		}
		byModule[name] = append(byModule[name], f)
	}

	modules := make(map[string]*model.Module, len(order))
	for _, name := range order {
		modules[name] = model.NewModule(name)
	}

	for _, name := range order {
		mod := modules[name]
		mfiles := byModule[name]

		for _, f := range mfiles {
			for _, d := range f.Qualifiers {
				if mod.HasDefinition(d.Name.Text) {
					return nil, fmt.Errorf("duplicate definition: %s", d.Name.Text)
				}
				mod.Qualifiers[d.Name.Text] = loadQualifier(d)
			}
		}
		for _, f := range mfiles {
			for _, d := range f.Roles {
				if mod.HasDefinition(d.Name.Text) {
					return nil, fmt.Errorf("duplicate definition: %s", d.Name.Text)
				}
				mod.Roles[d.Name.Text] = loadRole(d)
			}
		}
		for _, f := range mfiles {
			for _, d := range f.States {
				if mod.HasDefinition(d.Name.Text) {
					return nil, fmt.Errorf("duplicate definition: %s", d.Name.Text)
				}
				mod.States[d.Name.Text] = loadState(d)
			}
		}

		var pairs []messagePair
		for _, f := range mfiles {
			for _, d := range f.Messages {
				if mod.HasDefinition(d.Name.Text) {
					return nil, fmt.Errorf("duplicate definition: %s", d.Name.Text)
				}
				p := newMessageStub(d)
				mod.Messages[d.Name.Text] = p.msg
				pairs = append(pairs, p)
			}
		}
		linkSiblingMessages(mod)
		for _, p := range pairs {
			if err := fillMessage(p, mod, descriptors); err != nil {
				return nil, err
			}
		}

		for _, f := range mfiles {
			for _, d := range f.Consts {
				if mod.HasDefinition(d.Name.Text) {
					return nil, fmt.Errorf("duplicate definition: %s", d.Name.Text)
				}
				// const NAME; with no initializer is filled in later from the
				// manifest's constants map (FillInConstants); leave Value nil
				// until then.
				var v model.Value
				if d.Value != nil {
					var err error
					v, err = lowerValue(d.Value, mod)
					if err != nil {
						return nil, err
					}
				}
				mod.Consts[d.Name.Text] = &model.Const{Name: d.Name.Text, Type: constType(d), Value: v}
			}
		}
		for _, f := range mfiles {
			for _, d := range f.Events {
				if mod.HasDefinition(d.Name.Text) {
					return nil, fmt.Errorf("duplicate definition: %s", d.Name.Text)
				}
				ev, err := loadEvent(d, mod)
				if err != nil {
					return nil, err
				}
				mod.Events[d.Name.Text] = ev
			}
		}
		for _, f := range mfiles {
			for _, d := range f.Transitions {
				if mod.HasDefinition(d.Name.Text) {
					return nil, fmt.Errorf("duplicate definition: %s", d.Name.Text)
				}
				t, err := loadTransition(d, mod)
				if err != nil {
					return nil, err
				}
				mod.Transitions[d.Name.Text] = t
			}
		}
	}

	return modules, nil
}

// constType is a best-effort type label for diagnostics; the type checker
// proper is the field/param validation that happens at Resolve time.
func constType(d *ast.ConstDecl) string {
	if lit, ok := d.Value.(*ast.LiteralValue); ok {
		switch lit.Tok.Kind {
		case ast.KindInt:
			return "int"
		case ast.KindBool:
			return "bool"
		case ast.KindString:
			return "string"
		}
	}
	return ""
}

func loadQualifier(d *ast.QualifierDecl) *model.Qualifier {
	q := &model.Qualifier{
		Name:         d.Name.Text,
		QualType:     d.TypeTok.Text,
		ExternalName: d.ExternalName.Text,
	}
	for _, p := range d.Params {
		q.Params = append(q.Params, loadParam(p))
	}
	return q
}

func loadParam(p *ast.ParamDecl) *model.Param {
	return &model.Param{Name: p.Name.Text, Type: p.TypeTok.Text}
}

func loadRole(d *ast.RoleDecl) *model.Role {
	r := model.NewRole(d.Name.Text)
	for _, f := range d.Fields {
		r.Fields[f.Name.Text] = &model.Field{Name: f.Name.Text, Type: f.TypeTok.Text}
	}
	return r
}

func loadState(d *ast.StateDecl) *model.State {
	s := &model.State{Name: d.Name.Text}
	for _, p := range d.Params {
		s.Params = append(s.Params, loadParam(p))
	}
	for _, v := range d.Values {
		s.Values = append(s.Values, v.Text)
	}
	return s
}

// messagePair tracks a message declaration alongside the model.Message
// stub created for it, including every nested message recursively, so
// fields can be filled in a second pass once every name in the module is
// registered.
type messagePair struct {
	decl *ast.MessageDecl
	msg  *model.Message
}

func newMessageStub(d *ast.MessageDecl) messagePair {
	msg := model.NewMessage(d.Name.Text, d.EncodeName.Text, d.IsArray)
	msg.ExternalName = d.ExternalName.Text
	for _, nd := range d.Nested {
		np := newMessageStub(nd)
		msg.Messages[nd.Name.Text] = np.msg
	}
	return messagePair{decl: d, msg: msg}
}

// linkSiblingMessages lets a field reference any other top-level message in
// the same module by name, not only its own nested messages: Message.Resolve
// only ever looks in its own Messages map (plus the outer chain built while
// descending into nested messages), so sibling top-level names are merged in
// here once all of a module's top-level messages are known.
func linkSiblingMessages(mod *model.Module) {
	for name, msg := range mod.Messages {
		for otherName, other := range mod.Messages {
			if otherName == name {
				continue
			}
			if _, exists := msg.Messages[otherName]; !exists {
				msg.Messages[otherName] = other
			}
		}
	}
}

func fillMessage(p messagePair, mod *model.Module, descriptors *encoding.DescriptorRegistry) error {
	if p.decl.EncodeName.Text != "" {
		enc, err := encoding.ByName(p.decl.EncodeName.Text, descriptors)
		if err != nil {
			return err
		}
		p.msg.Encoding = enc
	}
	for _, fd := range p.decl.Fields {
		field, err := loadMessageField(fd, mod)
		if err != nil {
			return err
		}
		p.msg.Fields = append(p.msg.Fields, field)
	}
	for _, nd := range p.decl.Nested {
		sub := p.msg.Messages[nd.Name.Text]
		if err := fillMessage(messagePair{decl: nd, msg: sub}, mod, descriptors); err != nil {
			return err
		}
	}
	return nil
}

func loadMessageField(fd *ast.MessageFieldDecl, mod *model.Module) (*model.Field, error) {
	typ := fd.TypeTok.Text
	if typ == "" {
		typ = fd.SubMessage.Text
	}
	field := &model.Field{
		Name:     fd.Name.Text,
		Type:     typ,
		Optional: fd.Rule == ast.FieldOptional,
		Repeated: fd.Rule == ast.FieldRepeated,
	}
	if len(fd.Props) > 0 {
		field.EncodingProps = map[string]any{}
		for _, prop := range fd.Props {
			v, err := lowerValue(prop.Value, mod)
			if err != nil {
				return nil, err
			}
			if lit, ok := v.(*model.LiteralValue); ok {
				field.EncodingProps[prop.Key.Text] = lit.Val
			}
		}
	}
	return field, nil
}

func loadEvent(d *ast.EventDecl, mod *model.Module) (*model.Event, error) {
	ev := &model.Event{Name: d.Name.Text}
	for _, p := range d.Params {
		ev.Params = append(ev.Params, loadParam(p))
	}
	switch {
	case d.ExternalName.Text != "":
		ev.Kind = model.EventExternal
		ev.ExternalName = d.ExternalName.Text
	case d.ExpandName.Text != "":
		ev.Kind = model.EventExpand
		ev.ExpandName = d.ExpandName.Text
		args, err := lowerValues(d.ExpandArgs, mod)
		if err != nil {
			return nil, err
		}
		ev.ExpandArgs = args
	default:
		ev.Kind = model.EventPlain
		ev.MessageName = d.MessageName.Text
	}
	return ev, nil
}

func loadTransition(d *ast.TransitionDecl, mod *model.Module) (*model.Transition, error) {
	t := &model.Transition{Name: d.Name.Text}
	for _, p := range d.Params {
		t.Params = append(t.Params, loadParam(p))
	}

	if d.ExpandName.Text != "" {
		t.Kind = model.TransitionExpand
		t.ExpandName = d.ExpandName.Text
		args, err := lowerValues(d.ExpandArgs, mod)
		if err != nil {
			return nil, err
		}
		t.ExpandArgs = args
		return t, nil
	}
	t.Kind = model.TransitionFull

	for _, lv := range d.Locals {
		t.Locals = append(t.Locals, &model.LocalVar{Name: lv.Name.Text, Type: lv.TypeTok.Text})
	}
	for _, g := range d.PreStates {
		args, err := lowerValues(g.Args, mod)
		if err != nil {
			return nil, err
		}
		values := make([]string, len(g.Values))
		for i, v := range g.Values {
			values[i] = v.Text
		}
		t.PreStates = append(t.PreStates, &model.PreStateGroup{StateName: g.StateName.Text, Args: args, Values: values})
	}
	for _, e := range d.Events {
		args, err := lowerValues(e.Args, mod)
		if err != nil {
			return nil, err
		}
		t.Events = append(t.Events, &model.EventInTransition{
			SourceRoleName: e.Source.Text,
			EventName:      e.EventName.Text,
			Args:           args,
			TargetRoleName: e.Target.Text,
		})
	}
	for _, r := range d.PostStates {
		ref, err := loadStateRef(r, mod)
		if err != nil {
			return nil, err
		}
		t.PostStates = append(t.PostStates, ref)
	}
	for _, r := range d.ErrorStates {
		ref, err := loadStateRef(r, mod)
		if err != nil {
			return nil, err
		}
		t.ErrorStates = append(t.ErrorStates, ref)
	}
	return t, nil
}

func loadStateRef(n *ast.StateRefNode, mod *model.Module) (*model.StateRef, error) {
	args, err := lowerValues(n.Args, mod)
	if err != nil {
		return nil, err
	}
	return &model.StateRef{StateName: n.StateName.Text, Args: args, Value: n.Value.Text}, nil
}

func lowerValues(vs []ast.Value, mod *model.Module) ([]model.Value, error) {
	out := make([]model.Value, 0, len(vs))
	for _, v := range vs {
		lv, err := lowerValue(v, mod)
		if err != nil {
			return nil, err
		}
		out = append(out, lv)
	}
	return out, nil
}

func lowerValue(v ast.Value, mod *model.Module) (model.Value, error) {
	switch n := v.(type) {
	case *ast.LiteralValue:
		return lowerLiteral(n.Tok)

	case *ast.RefValue:
		path := make([]string, len(n.Path))
		for i, t := range n.Path {
			path[i] = t.Text
		}
		return &model.RefValue{Path: path, Write: n.Write}, nil

	case *ast.ListValue:
		elems, err := lowerValues(n.Elems, mod)
		if err != nil {
			return nil, err
		}
		return &model.ListValue{Elems: elems}, nil

	case *ast.StructValue:
		fields, err := lowerNamedValues(n.Fields, mod)
		if err != nil {
			return nil, err
		}
		return &model.StructValue{Fields: fields}, nil

	case *ast.ExpandValue:
		fields, err := lowerNamedValues(n.Fields, mod)
		if err != nil {
			return nil, err
		}
		return &model.MessageExpand{Name: n.Name.Text, Fields: fields}, nil

	case *ast.ExpandArrayValue:
		elems, err := lowerValues(n.Elements, mod)
		if err != nil {
			return nil, err
		}
		return &model.MessageExpand{
			Name:       n.Name.Text,
			IsArray:    true,
			ArrayElems: []model.Value{&model.ListValue{Elems: elems}},
		}, nil

	case *ast.QualifierCallValue:
		qual, ok := mod.Qualifiers[n.Name.Text]
		if !ok {
			return nil, fmt.Errorf("cannot find a qualifier: %s", n.Name.Text)
		}
		args, err := lowerValues(n.Args, mod)
		if err != nil {
			return nil, err
		}
		var outRef *model.RefValue
		if n.Out != nil {
			lowered, err := lowerValue(n.Out, mod)
			if err != nil {
				return nil, err
			}
			outRef, _ = lowered.(*model.RefValue)
		}
		return &model.QualifierValue{Qualifier: qual, Params: args, OutRef: outRef}, nil

	default:
		return nil, fmt.Errorf("unsupported value node %T", v)
	}
}

func lowerNamedValues(fields []ast.NamedValue, mod *model.Module) ([]model.NamedValue, error) {
	out := make([]model.NamedValue, 0, len(fields))
	for _, f := range fields {
		v, err := lowerValue(f.Value, mod)
		if err != nil {
			return nil, err
		}
		out = append(out, model.NamedValue{Name: f.Name.Text, Value: v})
	}
	return out, nil
}

func lowerLiteral(tok ast.Token) (*model.LiteralValue, error) {
	switch tok.Kind {
	case ast.KindInt:
		return &model.LiteralValue{Val: tok.IntVal}, nil
	case ast.KindBool:
		return &model.LiteralValue{Val: tok.BoolVal}, nil
	case ast.KindString:
		return &model.LiteralValue{Val: tok.Text}, nil
	case ast.KindNull:
		return &model.LiteralValue{Val: nil}, nil
	default:
		return nil, fmt.Errorf("not a literal: %s", tok.Text)
	}
}
